package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aussiebroadwan/matrixstore/internal/matrix/store"
	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx so repositories run the
// same queries in and out of a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db  *sql.DB
	dsn string
}

// NewStore opens the database at path. Use ":memory:" for a throwaway
// database; it is pinned to a single connection so every query sees it.
func NewStore(path string, pool store.PoolConfig) (*Store, error) {
	dsn := DSN(path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if isMemory(path) {
		pool.MaxOpenConns = 1
		pool.MaxIdleConns = 1
		pool.ConnMaxIdleTime = 0
	}
	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)

	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}

	return &Store{db: db, dsn: dsn}, nil
}

// defaultPragmas are applied to every connection. Each entry is a
// _pragma value; the name before "(" is what a caller's DSN overrides.
var defaultPragmas = []string{
	"foreign_keys(1)",
	"busy_timeout(5000)",
	"journal_mode(WAL)",
}

// DSN turns a file path into a modernc DSN. Pragmas go in the DSN so that
// every pooled connection gets them, not just the first one. A path that
// is already a "file:" DSN keeps its own parameters and gains whichever
// defaults it does not set.
func DSN(path string) string {
	if isMemory(path) {
		return "file::memory:?_pragma=foreign_keys(1)"
	}
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}

	base, rawQuery, _ := strings.Cut(path, "?")
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		query = url.Values{}
	}

	var extra []string
	for _, p := range defaultPragmas {
		if !hasPragma(query["_pragma"], pragmaName(p)) {
			extra = append(extra, "_pragma="+p)
		}
	}
	if !query.Has("_txlock") {
		extra = append(extra, "_txlock=immediate")
	}

	params := rawQuery
	if len(extra) > 0 {
		if params != "" {
			params += "&"
		}
		params += strings.Join(extra, "&")
	}
	if params == "" {
		return base
	}
	return base + "?" + params
}

func pragmaName(p string) string {
	name, _, _ := strings.Cut(p, "(")
	return strings.ToLower(strings.TrimSpace(name))
}

func hasPragma(set []string, name string) bool {
	for _, p := range set {
		if pragmaName(p) == name {
			return true
		}
	}
	return false
}

func isMemory(path string) bool {
	return path == ":memory:" || path == ""
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Stats reports the connection pool state.
func (s *Store) Stats() sql.DBStats {
	return s.db.Stats()
}

// Tx starts a read/write transaction and returns a Tx-scoped Store.
func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return newTx(tx), nil
}

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}

	// Rollback after a successful Commit is a harmless ErrTxDone.
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) Accounts() store.Accounts { return &accountsRepo{db: s.db} }
func (s *Store) Matrices() store.Matrices { return &matricesRepo{db: s.db} }

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var se *moderncsqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
