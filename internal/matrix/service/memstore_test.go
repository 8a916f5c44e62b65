package service

import (
	"context"
	"database/sql"
	"slices"
	"sync"

	"github.com/aussiebroadwan/matrixstore/internal/matrix/domain"
	"github.com/aussiebroadwan/matrixstore/internal/matrix/store"
)

// memStore is an in-memory store.Store. Writes made through a tx become
// visible on Commit only.
type memStore struct {
	mu       sync.Mutex
	accounts map[string]domain.Account
	rows     []domain.MatrixRow
	counters map[string]int64

	afterMax func()
	block    bool

	createErr error
	getErr    error
	maxErr    error
	allocErr  error
	insertErr error
	listErr   error
	rowsErr   error
}

func newMemStore() *memStore {
	return &memStore{
		accounts: map[string]domain.Account{},
		counters: map[string]int64{},
	}
}

func (s *memStore) wait(ctx context.Context) error {
	if s.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return ctx.Err()
}

func (s *memStore) Accounts() store.Accounts { return memAccounts{s: s} }
func (s *memStore) Matrices() store.Matrices { return &memMatrices{s: s} }
func (s *memStore) ApplyMigrations() error   { return nil }
func (s *memStore) Close() error             { return nil }
func (s *memStore) Ping(context.Context) error {
	return nil
}

func (s *memStore) Tx(ctx context.Context) (store.Tx, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return &memTx{s: s}, nil
}

func (s *memStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

type matrixKey struct {
	user string
	id   int64
}

type memTx struct {
	s       *memStore
	pending []domain.MatrixRow
	deletes []matrixKey
	done    bool
}

func (t *memTx) Accounts() store.Accounts { return memAccounts{s: t.s} }
func (t *memTx) Matrices() store.Matrices { return &memMatrices{s: t.s, tx: t} }
func (t *memTx) ApplyMigrations() error   { return nil }
func (t *memTx) Close() error             { return nil }
func (t *memTx) Ping(context.Context) error {
	return nil
}
func (t *memTx) Tx(context.Context) (store.Tx, error) { return nil, sql.ErrTxDone }
func (t *memTx) WithTx(context.Context, func(store.Tx) error) error {
	return sql.ErrTxDone
}

func (t *memTx) Commit() error {
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true

	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, k := range t.deletes {
		t.s.rows = slices.DeleteFunc(t.s.rows, func(r domain.MatrixRow) bool {
			return r.UserID == k.user && r.MatrixID == k.id
		})
	}
	t.s.rows = append(t.s.rows, t.pending...)
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	return nil
}

type memAccounts struct {
	s *memStore
}

func (a memAccounts) CreateAccount(ctx context.Context, acct domain.Account) error {
	if err := a.s.wait(ctx); err != nil {
		return err
	}
	if a.s.createErr != nil {
		return a.s.createErr
	}
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	for _, existing := range a.s.accounts {
		if existing.Email == acct.Email {
			return store.ErrAlreadyExists
		}
	}
	a.s.accounts[acct.ID] = acct
	return nil
}

func (a memAccounts) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	if err := a.s.wait(ctx); err != nil {
		return domain.Account{}, err
	}
	if a.s.getErr != nil {
		return domain.Account{}, a.s.getErr
	}
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	for _, acct := range a.s.accounts {
		if acct.Email == email {
			return acct, nil
		}
	}
	return domain.Account{}, store.ErrNotFound
}

func (a memAccounts) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	acct, ok := a.s.accounts[id]
	if !ok {
		return domain.Account{}, store.ErrNotFound
	}
	return acct, nil
}

type memMatrices struct {
	s  *memStore
	tx *memTx
}

func (m *memMatrices) maxLocked(userID string) int64 {
	var max int64
	for _, r := range m.s.rows {
		if r.UserID == userID && r.MatrixID > max {
			max = r.MatrixID
		}
	}
	return max
}

// MaxMatrixID calls afterMax once the value has been read and the store
// lock released, so tests can hold callers between lookup and insert.
func (m *memMatrices) MaxMatrixID(ctx context.Context, userID string) (int64, error) {
	if err := m.s.wait(ctx); err != nil {
		return 0, err
	}
	if m.s.maxErr != nil {
		return 0, m.s.maxErr
	}
	m.s.mu.Lock()
	max := m.maxLocked(userID)
	m.s.mu.Unlock()

	if m.s.afterMax != nil {
		m.s.afterMax()
	}
	return max, nil
}

func (m *memMatrices) AllocateMatrixID(ctx context.Context, userID string) (int64, error) {
	if err := m.s.wait(ctx); err != nil {
		return 0, err
	}
	if m.s.allocErr != nil {
		return 0, m.s.allocErr
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	next := max(m.s.counters[userID], m.maxLocked(userID)) + 1
	m.s.counters[userID] = next
	return next, nil
}

func (m *memMatrices) InsertRows(ctx context.Context, userID string, matrixID int64, cols []domain.Column) error {
	if err := m.s.wait(ctx); err != nil {
		return err
	}
	if m.s.insertErr != nil {
		return m.s.insertErr
	}
	rows := make([]domain.MatrixRow, 0, len(cols))
	for _, c := range cols {
		rows = append(rows, domain.MatrixRow{
			UserID: userID, MatrixID: matrixID,
			ColumnName: c.ColumnName, Transformation: c.Transformation,
		})
	}
	if m.tx != nil {
		m.tx.pending = append(m.tx.pending, rows...)
		return nil
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.rows = append(m.s.rows, rows...)
	return nil
}

func (m *memMatrices) DeleteMatrix(ctx context.Context, userID string, matrixID int64) error {
	if m.tx != nil {
		m.tx.deletes = append(m.tx.deletes, matrixKey{userID, matrixID})
		return nil
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.rows = slices.DeleteFunc(m.s.rows, func(r domain.MatrixRow) bool {
		return r.UserID == userID && r.MatrixID == matrixID
	})
	return nil
}

func (m *memMatrices) DistinctMatrixIDs(ctx context.Context, userID string) ([]int64, error) {
	if err := m.s.wait(ctx); err != nil {
		return nil, err
	}
	if m.s.listErr != nil {
		return nil, m.s.listErr
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	ids := []int64{}
	for _, r := range m.s.rows {
		if r.UserID == userID && !slices.Contains(ids, r.MatrixID) {
			ids = append(ids, r.MatrixID)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (m *memMatrices) RowsFor(ctx context.Context, userID string, matrixID int64) ([]domain.MatrixRow, error) {
	if err := m.s.wait(ctx); err != nil {
		return nil, err
	}
	if m.s.rowsErr != nil {
		return nil, m.s.rowsErr
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := []domain.MatrixRow{}
	for _, r := range m.s.rows {
		if r.UserID == userID && r.MatrixID == matrixID {
			out = append(out, r)
		}
	}
	return out, nil
}
