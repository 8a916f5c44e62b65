package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/matrixstore/internal/matrix/domain"
)

type matricesRepo struct {
	db dbtx
}

func (r *matricesRepo) MaxMatrixID(ctx context.Context, userID string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(matrix_id), 0) FROM matrix_data WHERE user_id = $1`, userID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return id, nil
}

// A conflicting insert waits for the other transaction's row lock, then
// updates from the committed counter, so concurrent callers get distinct ids.
const allocateMatrixID = `
INSERT INTO matrix_counters (user_id, last_matrix_id)
VALUES ($1, (SELECT COALESCE(MAX(matrix_id), 0) FROM matrix_data WHERE user_id = $1) + 1)
ON CONFLICT (user_id) DO UPDATE SET last_matrix_id = GREATEST(
    matrix_counters.last_matrix_id,
    (SELECT COALESCE(MAX(matrix_id), 0) FROM matrix_data WHERE user_id = $1)
) + 1
RETURNING last_matrix_id`

func (r *matricesRepo) AllocateMatrixID(ctx context.Context, userID string) (int64, error) {
	var id int64
	if err := r.db.QueryRowContext(ctx, allocateMatrixID, userID).Scan(&id); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return id, nil
}

func (r *matricesRepo) InsertRows(ctx context.Context, userID string, matrixID int64, cols []domain.Column) error {
	now := time.Now().UTC()
	for i, c := range cols {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO matrix_data (user_id, matrix_id, column_name, transformation, created_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			userID, matrixID, c.ColumnName, c.Transformation, now,
		)
		if err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}
	return nil
}

func (r *matricesRepo) DeleteMatrix(ctx context.Context, userID string, matrixID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM matrix_data WHERE user_id = $1 AND matrix_id = $2`, userID, matrixID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *matricesRepo) DistinctMatrixIDs(ctx context.Context, userID string) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT matrix_id FROM matrix_data WHERE user_id = $1 ORDER BY matrix_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *matricesRepo) RowsFor(ctx context.Context, userID string, matrixID int64) ([]domain.MatrixRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, matrix_id, column_name, transformation, created_at
		 FROM matrix_data
		 WHERE user_id = $1 AND matrix_id = $2
		 ORDER BY id`, userID, matrixID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []domain.MatrixRow{}
	for rows.Next() {
		var m domain.MatrixRow
		if err := rows.Scan(&m.UserID, &m.MatrixID, &m.ColumnName, &m.Transformation, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
