package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/matrixstore/internal/matrix/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement it. Repositories hang off the Store or a Tx so that
// code running inside a transaction can only reach tx-scoped repositories.
type Store interface {
	Accounts() Accounts
	Matrices() Matrices

	ApplyMigrations() error

	// Tx starts a read/write transaction. The caller MUST Commit or Rollback.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise (including on panic).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

// Tx is a transactional store. Nested transactions are not supported.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Accounts interface {
	// CreateAccount inserts a. A taken email yields ErrAlreadyExists.
	CreateAccount(ctx context.Context, a domain.Account) error

	GetAccountByEmail(ctx context.Context, email string) (domain.Account, error)
	GetAccountByID(ctx context.Context, id string) (domain.Account, error)
}

type Matrices interface {
	// MaxMatrixID returns the highest matrix id owned by userID, 0 if none.
	MaxMatrixID(ctx context.Context, userID string) (int64, error)

	// AllocateMatrixID bumps the per-user counter to
	// max(counter, MaxMatrixID) + 1 in one statement and returns it.
	// Concurrent callers never receive the same id.
	AllocateMatrixID(ctx context.Context, userID string) (int64, error)

	// InsertRows appends cols under (userID, matrixID) in slice order. Run it
	// in a transaction for all-or-nothing batches.
	InsertRows(ctx context.Context, userID string, matrixID int64, cols []domain.Column) error

	// DeleteMatrix removes every row of (userID, matrixID).
	DeleteMatrix(ctx context.Context, userID string, matrixID int64) error

	// DistinctMatrixIDs lists the user's matrix ids in ascending order.
	DistinctMatrixIDs(ctx context.Context, userID string) ([]int64, error)

	// RowsFor returns the matrix in insertion order; an unknown matrix is an
	// empty slice, not an error.
	RowsFor(ctx context.Context, userID string, matrixID int64) ([]domain.MatrixRow, error)
}

// PoolConfig tunes the database/sql connection pool of a driver.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
}
