package matrix_test

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/aussiebroadwan/matrixstore/pkg/matrixsdk"
	"github.com/stretchr/testify/require"
)

// TestCreateLoginSave walks the documented happy path on a fresh account.
func TestCreateLoginSave(t *testing.T) {
	baseURL, cleanup := setupMatrixContainer(t, withEnv(relaxedRateLimits()))
	defer cleanup()

	ctx := context.Background()
	client := matrixsdk.NewClient(baseURL)

	health, err := client.GetLiveness(ctx)
	assertHealthy(t, health, err)
	health, err = client.GetReadiness(ctx)
	assertHealthy(t, health, err)

	session := signUp(t, client, "a@x.com", "pw")

	id, err := session.SaveMatrix(ctx, nil, []matrixsdk.Column{{ColumnName: "Age", Transformation: "int"}})
	require.NoError(t, err)
	require.EqualValues(t, 1, id)

	cols, err := session.GetMatrix(ctx, id)
	require.NoError(t, err)
	require.Equal(t, []matrixsdk.Column{{ColumnName: "Age", Transformation: "int"}}, cols)
}

func TestAllocationFollowsHighestID(t *testing.T) {
	baseURL, cleanup := setupMatrixContainer(t, withEnv(relaxedRateLimits()))
	defer cleanup()

	ctx := context.Background()
	session := signUp(t, matrixsdk.NewClient(baseURL), "alloc@x.com", "pw")
	col := []matrixsdk.Column{{ColumnName: "c", Transformation: "t"}}

	for _, id := range []int64{1, 2, 4} {
		got, err := session.SaveMatrix(ctx, &id, col)
		require.NoError(t, err)
		require.Equal(t, id, got)
	}

	got, err := session.SaveMatrix(ctx, nil, col)
	require.NoError(t, err)
	require.EqualValues(t, 5, got)

	ids, err := session.ListMatrices(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2, 4, 5}, ids)
}

func TestProtectedRoutesRejectBadTokens(t *testing.T) {
	baseURL, cleanup := setupMatrixContainer(t, withEnv(relaxedRateLimits()))
	defer cleanup()

	ctx := context.Background()
	client := matrixsdk.NewClient(baseURL)

	_, err := client.NewSessionFromToken("", 3600).ListMatrices(ctx)
	assertAPIError(t, err, http.StatusUnauthorized)

	_, err = client.NewSessionFromToken("not.a.token", 3600).ListMatrices(ctx)
	assertAPIError(t, err, http.StatusForbidden)

	_, err = client.Login(ctx, "ghost@x.com", "pw")
	assertAPIError(t, err, http.StatusUnauthorized)
}

func TestLoginRateLimited(t *testing.T) {
	baseURL, cleanup := setupMatrixContainer(t)
	defer cleanup()

	ctx := context.Background()
	client := matrixsdk.NewClient(baseURL)

	// Strict limit: 10 per minute per address and email.
	for i := range 10 {
		_, err := client.Login(ctx, "ghost@x.com", "wrong")
		assertAPIError(t, err, http.StatusUnauthorized)
		require.NotContains(t, err.Error(), "rate_limit", "request %d", i+1)
	}

	_, err := client.Login(ctx, "ghost@x.com", "wrong")
	assertAPIError(t, err, http.StatusTooManyRequests)
}

// TestPostgresConcurrentSaves runs the service against postgres and checks
// that concurrent id-less saves never share an id.
func TestPostgresConcurrentSaves(t *testing.T) {
	netName, dbURL, pgCleanup := setupPostgres(t)
	defer pgCleanup()

	env := relaxedRateLimits()
	env["MATRIX_DB_DRIVER"] = "postgres"
	env["MATRIX_DATABASE_URL"] = dbURL
	env["MATRIX_ALLOCATION_STRATEGY"] = "atomic"

	baseURL, cleanup := setupMatrixContainer(t, withEnv(env), withNetwork(netName))
	defer cleanup()

	ctx := context.Background()
	client := matrixsdk.NewClient(baseURL)

	health, err := client.GetReadiness(ctx)
	assertHealthy(t, health, err)

	session := signUp(t, client, "pg@x.com", "pw")

	const workers = 10
	var (
		mu   sync.Mutex
		seen = map[int64]bool{}
		errs []error
		wg   sync.WaitGroup
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := session.SaveMatrix(ctx, nil, []matrixsdk.Column{{ColumnName: "x", Transformation: "y"}})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			seen[id] = true
		}()
	}
	wg.Wait()
	require.Empty(t, errs)
	require.Len(t, seen, workers)

	ids, err := session.ListMatrices(ctx)
	require.NoError(t, err)
	require.Len(t, ids, workers)
}
