package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/matrixstore/internal/matrix/domain"
	"github.com/aussiebroadwan/matrixstore/internal/matrix/store"
	"github.com/aussiebroadwan/matrixstore/internal/matrix/store/drivers/sqlite"
	"github.com/aussiebroadwan/matrixstore/pkg/idx"
	"github.com/stretchr/testify/require"
)

type recordedSave struct {
	strategy string
	clientID bool
	n        int
}

type fakeRecorder struct {
	mu     sync.Mutex
	saves  []recordedSave
	errOps []string
}

func (r *fakeRecorder) ObserveSave(strategy string, clientSuppliedID bool, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves = append(r.saves, recordedSave{strategy, clientSuppliedID, n})
}

func (r *fakeRecorder) ObserveStorageError(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errOps = append(r.errOps, op)
}

func columns(names ...string) []domain.Column {
	out := make([]domain.Column, 0, len(names))
	for _, n := range names {
		out = append(out, domain.Column{ColumnName: n, Transformation: "log"})
	}
	return out
}

func ptr(v int64) *int64 { return &v }

func TestParseAllocationStrategy(t *testing.T) {
	s, err := ParseAllocationStrategy("")
	require.NoError(t, err)
	require.Equal(t, StrategyAtomic, s)

	s, err = ParseAllocationStrategy("legacy")
	require.NoError(t, err)
	require.Equal(t, StrategyLegacy, s)

	_, err = ParseAllocationStrategy("optimistic")
	require.Error(t, err)

	p, err := ParseResavePolicy("")
	require.NoError(t, err)
	require.Equal(t, PolicyAppend, p)

	_, err = ParseResavePolicy("merge")
	require.Error(t, err)
}

func TestMatrixService_AllocatesAfterHighestID(t *testing.T) {
	for _, strategy := range []AllocationStrategy{StrategyLegacy, StrategyAtomic} {
		t.Run(string(strategy), func(t *testing.T) {
			ctx := context.Background()
			svc := &MatrixService{Store: newMemStore(), Strategy: strategy}

			for _, id := range []int64{1, 2, 4} {
				got, err := svc.Save(ctx, SaveRequest{UserID: "u1", MatrixID: ptr(id), Columns: columns("a")})
				require.NoError(t, err)
				require.Equal(t, id, got)
			}

			got, err := svc.Save(ctx, SaveRequest{UserID: "u1", Columns: columns("b")})
			require.NoError(t, err)
			require.EqualValues(t, 5, got)

			first, err := svc.Save(ctx, SaveRequest{UserID: "u2", Columns: columns("c")})
			require.NoError(t, err)
			require.EqualValues(t, 1, first, "ids are per user")
		})
	}
}

func TestMatrixService_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	svc := &MatrixService{Store: newMemStore()}

	id, err := svc.Save(ctx, SaveRequest{UserID: "u1", Columns: []domain.Column{
		{ColumnName: "price", Transformation: "log"},
		{ColumnName: "qty", Transformation: ""},
		{ColumnName: "region", Transformation: "onehot"},
	}})
	require.NoError(t, err)
	require.EqualValues(t, 1, id)

	got, err := svc.Get(ctx, "u1", id)
	require.NoError(t, err)
	require.Equal(t, []domain.Column{
		{ColumnName: "price", Transformation: "log"},
		{ColumnName: "qty", Transformation: ""},
		{ColumnName: "region", Transformation: "onehot"},
	}, got)

	empty, err := svc.Get(ctx, "u1", 99)
	require.NoError(t, err)
	require.NotNil(t, empty)
	require.Empty(t, empty)

	other, err := svc.Get(ctx, "u2", id)
	require.NoError(t, err)
	require.Empty(t, other, "another user's matrix is invisible")
}

func TestMatrixService_List(t *testing.T) {
	ctx := context.Background()
	svc := &MatrixService{Store: newMemStore()}

	ids, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, ids)
	require.Empty(t, ids)

	for _, id := range []int64{3, 1, 3} {
		_, err := svc.Save(ctx, SaveRequest{UserID: "u1", MatrixID: ptr(id), Columns: columns("x")})
		require.NoError(t, err)
	}

	ids, err = svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, []int64{1, 3}, ids)
}

func TestMatrixService_ResavePolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("append", func(t *testing.T) {
		svc := &MatrixService{Store: newMemStore(), Policy: PolicyAppend}
		_, err := svc.Save(ctx, SaveRequest{UserID: "u1", MatrixID: ptr(7), Columns: columns("a", "b")})
		require.NoError(t, err)
		_, err = svc.Save(ctx, SaveRequest{UserID: "u1", MatrixID: ptr(7), Columns: columns("c")})
		require.NoError(t, err)

		got, err := svc.Get(ctx, "u1", 7)
		require.NoError(t, err)
		require.Equal(t, columns("a", "b", "c"), got)
	})

	t.Run("replace", func(t *testing.T) {
		svc := &MatrixService{Store: newMemStore(), Policy: PolicyReplace}
		_, err := svc.Save(ctx, SaveRequest{UserID: "u1", MatrixID: ptr(7), Columns: columns("a", "b")})
		require.NoError(t, err)
		_, err = svc.Save(ctx, SaveRequest{UserID: "u1", MatrixID: ptr(7), Columns: columns("c")})
		require.NoError(t, err)

		got, err := svc.Get(ctx, "u1", 7)
		require.NoError(t, err)
		require.Equal(t, columns("c"), got)
	})
}

func TestMatrixService_InvalidInput(t *testing.T) {
	ctx := context.Background()
	svc := &MatrixService{Store: newMemStore()}

	for name, req := range map[string]SaveRequest{
		"no user":     {Columns: columns("a")},
		"no columns":  {UserID: "u1"},
		"zero id":     {UserID: "u1", MatrixID: ptr(0), Columns: columns("a")},
		"negative id": {UserID: "u1", MatrixID: ptr(-3), Columns: columns("a")},
		"blank name":  {UserID: "u1", Columns: []domain.Column{{ColumnName: "", Transformation: "log"}}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Save(ctx, req)
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	_, err := svc.Get(ctx, "u1", 0)
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.List(ctx, "")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestMatrixService_StorageErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk I/O error")

	t.Run("max lookup", func(t *testing.T) {
		mem := newMemStore()
		mem.maxErr = boom
		rec := &fakeRecorder{}
		svc := &MatrixService{Store: mem, Strategy: StrategyLegacy, Metrics: rec}

		_, err := svc.Save(ctx, SaveRequest{UserID: "u1", Columns: columns("a")})
		var se *StorageError
		require.ErrorAs(t, err, &se)
		require.Equal(t, "lookup max matrix id", se.Op)
		require.ErrorIs(t, err, boom)
		require.Equal(t, []string{"lookup max matrix id"}, rec.errOps)
		require.Empty(t, rec.saves)
	})

	t.Run("insert after lookup leaves nothing behind", func(t *testing.T) {
		for _, strategy := range []AllocationStrategy{StrategyLegacy, StrategyAtomic} {
			mem := newMemStore()
			mem.insertErr = boom
			svc := &MatrixService{Store: mem, Strategy: strategy}

			_, err := svc.Save(ctx, SaveRequest{UserID: "u1", Columns: columns("a", "b")})
			var se *StorageError
			require.ErrorAs(t, err, &se)
			require.Equal(t, "insert rows", se.Op)
			require.Empty(t, mem.rows)
		}
	})

	t.Run("allocation", func(t *testing.T) {
		mem := newMemStore()
		mem.allocErr = boom
		svc := &MatrixService{Store: mem, Strategy: StrategyAtomic}

		_, err := svc.Save(ctx, SaveRequest{UserID: "u1", Columns: columns("a")})
		var se *StorageError
		require.ErrorAs(t, err, &se)
		require.Equal(t, "allocate matrix id", se.Op)
	})

	t.Run("reads", func(t *testing.T) {
		mem := newMemStore()
		mem.listErr = boom
		mem.rowsErr = boom
		svc := &MatrixService{Store: mem}

		_, err := svc.List(ctx, "u1")
		require.ErrorIs(t, err, boom)
		_, err = svc.Get(ctx, "u1", 1)
		var se *StorageError
		require.ErrorAs(t, err, &se)
	})

	t.Run("timeout", func(t *testing.T) {
		mem := newMemStore()
		mem.block = true
		svc := &MatrixService{Store: mem, Timeout: 20 * time.Millisecond}

		start := time.Now()
		_, err := svc.Save(ctx, SaveRequest{UserID: "u1", Columns: columns("a")})
		var se *StorageError
		require.ErrorAs(t, err, &se)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		require.Less(t, time.Since(start), 2*time.Second)
	})
}

func TestMatrixService_Metrics(t *testing.T) {
	ctx := context.Background()
	rec := &fakeRecorder{}
	svc := &MatrixService{Store: newMemStore(), Strategy: StrategyLegacy, Metrics: rec}

	_, err := svc.Save(ctx, SaveRequest{UserID: "u1", Columns: columns("a", "b")})
	require.NoError(t, err)
	_, err = svc.Save(ctx, SaveRequest{UserID: "u1", MatrixID: ptr(1), Columns: columns("c")})
	require.NoError(t, err)

	require.Equal(t, []recordedSave{
		{strategy: "legacy", clientID: false, n: 2},
		{strategy: "legacy", clientID: true, n: 1},
	}, rec.saves)
}

// Two id-less saves that both read the max before either inserts end up
// sharing one id under the legacy strategy.
func TestMatrixService_LegacyRaceMergesMatrices(t *testing.T) {
	ctx := context.Background()
	mem := newMemStore()

	var barrier sync.WaitGroup
	barrier.Add(2)
	mem.afterMax = func() {
		barrier.Done()
		barrier.Wait()
	}
	svc := &MatrixService{Store: mem, Strategy: StrategyLegacy}

	ids := make([]int64, 2)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids[i], errs[i] = svc.Save(ctx, SaveRequest{UserID: "u1", Columns: columns("c")})
		}()
	}
	wg.Wait()

	require.NoError(t, errors.Join(errs...))
	require.EqualValues(t, 1, ids[0])
	require.Equal(t, ids[0], ids[1])

	got, err := svc.Get(ctx, "u1", ids[0])
	require.NoError(t, err)
	require.Len(t, got, 2)

	list, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, []int64{1}, list)
}

func TestMatrixService_AtomicConcurrentSaves(t *testing.T) {
	ctx := context.Background()

	s, err := sqlite.NewStore(filepath.Join(t.TempDir(), "matrix.db"), store.PoolConfig{MaxOpenConns: 8})
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })

	acct := domain.Account{
		ID:           idx.New().String(),
		Email:        "race@x.com",
		PasswordHash: "x",
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, s.Accounts().CreateAccount(ctx, acct))

	svc := &MatrixService{Store: s, Strategy: StrategyAtomic}

	const workers = 12
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
			id, err := svc.Save(ctx, SaveRequest{UserID: acct.ID, Columns: columns("a", "b")})
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
	ids, err := svc.List(ctx, acct.ID)
	require.NoError(t, err)
	require.Len(t, ids, workers)
	for _, id := range ids {
		cols, err := svc.Get(ctx, acct.ID, id)
		require.NoError(t, err)
		require.Len(t, cols, 2)
	}
	require.Zero(t, s.Stats().InUse)
}
