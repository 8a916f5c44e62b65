package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/matrixstore/pkg/matrixsdk"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, dir string) Config {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Env = "test"
	cfg.LogLevel = "error"
	cfg.DatabaseFile = filepath.Join(dir, "matrix.db")
	cfg.PepperFile = filepath.Join(dir, "pepper")
	cfg.TokenSecretFile = filepath.Join(dir, "token_secret")
	cfg.Algorithm = "HS256"
	return cfg
}

// start serves app on a loopback port and returns a client for it.
func start(t *testing.T, app *Application) *matrixsdk.Client {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- app.Serve(ln) }()
	t.Cleanup(func() {
		err := <-done
		require.True(t, err == nil || errors.Is(err, http.ErrServerClosed), "serve: %v", err)
	})

	return matrixsdk.NewClient("http://" + ln.Addr().String())
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	cfg.DBDriver = "mysql"

	_, err := New(cfg)
	require.Error(t, err)
}

func TestApplication_EndToEnd(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	app, err := New(testConfig(t, dir))
	require.NoError(t, err)
	c := start(t, app)

	ready, err := c.GetReadiness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Status)

	_, err = c.CreateAccount(ctx, "e2e@x.com", "pw")
	require.NoError(t, err)

	sess, err := c.Login(ctx, "e2e@x.com", "pw")
	require.NoError(t, err)

	id, err := sess.SaveMatrix(ctx, nil, []matrixsdk.Column{{ColumnName: "Age", Transformation: "int"}})
	require.NoError(t, err)
	require.EqualValues(t, 1, id)

	ids, err := sess.ListMatrices(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{1}, ids)

	require.NoError(t, app.Shutdown())

	// Same secret and database: the old token still works after a restart.
	app2, err := New(testConfig(t, dir))
	require.NoError(t, err)
	c2 := start(t, app2)
	defer func() { require.NoError(t, app2.Shutdown()) }()

	again := c2.NewSessionFromToken(sess.Token(), 3600)
	cols, err := again.GetMatrix(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, []matrixsdk.Column{{ColumnName: "Age", Transformation: "int"}}, cols)
}

func TestApplication_HandlerWithoutServing(t *testing.T) {
	app, err := New(testConfig(t, t.TempDir()))
	require.NoError(t, err)
	require.NotNil(t, app.Handler())
	require.NoError(t, app.Shutdown())
}
