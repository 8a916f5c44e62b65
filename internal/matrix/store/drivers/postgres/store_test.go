package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aussiebroadwan/matrixstore/internal/matrix/domain"
	"github.com/aussiebroadwan/matrixstore/internal/matrix/store"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func newStoreWithMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStoreFromDB(db), mock
}

func TestCreateAccount(t *testing.T) {
	ctx := context.Background()
	q := regexp.QuoteMeta(`INSERT INTO users (id, email, password_hash, created_at) VALUES ($1, $2, $3, $4)`)
	acct := domain.Account{ID: "u1", Email: "a@x.com", PasswordHash: "h"}

	t.Run("success", func(t *testing.T) {
		s, mock := newStoreWithMock(t)
		mock.ExpectExec(q).
			WithArgs("u1", "a@x.com", "h", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.Accounts().CreateAccount(ctx, acct))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation", func(t *testing.T) {
		s, mock := newStoreWithMock(t)
		mock.ExpectExec(q).
			WithArgs("u1", "a@x.com", "h", sqlmock.AnyArg()).
			WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key"})

		err := s.Accounts().CreateAccount(ctx, acct)
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("other error", func(t *testing.T) {
		s, mock := newStoreWithMock(t)
		mock.ExpectExec(q).WillReturnError(errors.New("connection reset"))

		err := s.Accounts().CreateAccount(ctx, acct)
		require.Error(t, err)
		require.NotErrorIs(t, err, store.ErrAlreadyExists)
	})
}

func TestGetAccountByEmail(t *testing.T) {
	ctx := context.Background()
	q := `SELECT id, email, password_hash, created_at FROM users WHERE email = \$1`

	t.Run("found", func(t *testing.T) {
		s, mock := newStoreWithMock(t)
		created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
		mock.ExpectQuery(q).WithArgs("a@x.com").
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "created_at"}).
				AddRow("u1", "a@x.com", "h", created))

		got, err := s.Accounts().GetAccountByEmail(ctx, "a@x.com")
		require.NoError(t, err)
		require.Equal(t, domain.Account{ID: "u1", Email: "a@x.com", PasswordHash: "h", CreatedAt: created}, got)
	})

	t.Run("not found", func(t *testing.T) {
		s, mock := newStoreWithMock(t)
		mock.ExpectQuery(q).WithArgs("x@x.com").
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "created_at"}))

		_, err := s.Accounts().GetAccountByEmail(ctx, "x@x.com")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestAllocateMatrixID(t *testing.T) {
	s, mock := newStoreWithMock(t)
	mock.ExpectQuery(`INSERT INTO matrix_counters .* ON CONFLICT \(user_id\) DO UPDATE SET last_matrix_id = GREATEST\(.*RETURNING last_matrix_id`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"last_matrix_id"}).AddRow(int64(5)))

	id, err := s.Matrices().AllocateMatrixID(context.Background(), "u1")
	require.NoError(t, err)
	require.EqualValues(t, 5, id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMaxMatrixID_Error(t *testing.T) {
	s, mock := newStoreWithMock(t)
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(matrix_id\), 0\) FROM matrix_data`).
		WithArgs("u1").
		WillReturnError(sql.ErrConnDone)

	_, err := s.Matrices().MaxMatrixID(context.Background(), "u1")
	require.ErrorIs(t, err, sql.ErrConnDone)
}

func TestWithTx(t *testing.T) {
	ctx := context.Background()
	insert := `INSERT INTO matrix_data`
	cols := []domain.Column{{ColumnName: "Age", Transformation: "int"}, {ColumnName: "Name", Transformation: "str"}}

	t.Run("commits on success", func(t *testing.T) {
		s, mock := newStoreWithMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(insert).WithArgs("u1", int64(3), "Age", "int", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(insert).WithArgs("u1", int64(3), "Name", "str", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(2, 1))
		mock.ExpectCommit()

		err := s.WithTx(ctx, func(tx store.Tx) error {
			return tx.Matrices().InsertRows(ctx, "u1", 3, cols)
		})
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when a row fails", func(t *testing.T) {
		s, mock := newStoreWithMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(insert).WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(insert).WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		err := s.WithTx(ctx, func(tx store.Tx) error {
			return tx.Matrices().InsertRows(ctx, "u1", 3, cols)
		})
		require.ErrorContains(t, err, "insert row 1")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("replace deletes before insert", func(t *testing.T) {
		s, mock := newStoreWithMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM matrix_data WHERE user_id = \$1 AND matrix_id = \$2`).
			WithArgs("u1", int64(3)).WillReturnResult(sqlmock.NewResult(0, 4))
		mock.ExpectExec(insert).WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		err := s.WithTx(ctx, func(tx store.Tx) error {
			if err := tx.Matrices().DeleteMatrix(ctx, "u1", 3); err != nil {
				return err
			}
			return tx.Matrices().InsertRows(ctx, "u1", 3, cols[:1])
		})
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDistinctMatrixIDs(t *testing.T) {
	s, mock := newStoreWithMock(t)
	mock.ExpectQuery(`SELECT DISTINCT matrix_id FROM matrix_data WHERE user_id = \$1 ORDER BY matrix_id`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"matrix_id"}).AddRow(int64(1)).AddRow(int64(2)).AddRow(int64(4)))

	ids, err := s.Matrices().DistinctMatrixIDs(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2, 4}, ids)
}

func TestRowsFor(t *testing.T) {
	q := `SELECT user_id, matrix_id, column_name, transformation, created_at\s+FROM matrix_data\s+WHERE user_id = \$1 AND matrix_id = \$2\s+ORDER BY id`
	header := []string{"user_id", "matrix_id", "column_name", "transformation", "created_at"}

	t.Run("ordered rows", func(t *testing.T) {
		s, mock := newStoreWithMock(t)
		now := time.Now().UTC()
		mock.ExpectQuery(q).WithArgs("u1", int64(2)).
			WillReturnRows(sqlmock.NewRows(header).
				AddRow("u1", int64(2), "Age", "int", now).
				AddRow("u1", int64(2), "Age", "float", now))

		rows, err := s.Matrices().RowsFor(context.Background(), "u1", 2)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		require.Equal(t, "int", rows[0].Transformation)
		require.Equal(t, "float", rows[1].Transformation)
	})

	t.Run("absent matrix is empty", func(t *testing.T) {
		s, mock := newStoreWithMock(t)
		mock.ExpectQuery(q).WithArgs("u1", int64(9)).WillReturnRows(sqlmock.NewRows(header))

		rows, err := s.Matrices().RowsFor(context.Background(), "u1", 9)
		require.NoError(t, err)
		require.NotNil(t, rows)
		require.Empty(t, rows)
	})
}
