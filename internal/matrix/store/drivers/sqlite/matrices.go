package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/matrixstore/internal/matrix/domain"
)

type matricesRepo struct {
	db dbtx
}

const maxMatrixID = `
SELECT COALESCE(MAX(matrix_id), 0)
FROM matrix_data
WHERE user_id = ?`

func (r *matricesRepo) MaxMatrixID(ctx context.Context, userID string) (int64, error) {
	var id int64
	if err := r.db.QueryRowContext(ctx, maxMatrixID, userID).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// The counter never falls behind ids that were supplied by clients, because
// the update takes the larger of the counter and the stored maximum.
const allocateMatrixID = `
INSERT INTO matrix_counters (user_id, last_matrix_id)
VALUES (?, (SELECT COALESCE(MAX(matrix_id), 0) FROM matrix_data WHERE user_id = ?) + 1)
ON CONFLICT (user_id) DO UPDATE SET last_matrix_id = MAX(
    matrix_counters.last_matrix_id,
    (SELECT COALESCE(MAX(matrix_id), 0) FROM matrix_data WHERE user_id = excluded.user_id)
) + 1
RETURNING last_matrix_id`

func (r *matricesRepo) AllocateMatrixID(ctx context.Context, userID string) (int64, error) {
	var id int64
	if err := r.db.QueryRowContext(ctx, allocateMatrixID, userID, userID).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

const insertRow = `
INSERT INTO matrix_data (user_id, matrix_id, column_name, transformation, created_at)
VALUES (?, ?, ?, ?, ?)`

func (r *matricesRepo) InsertRows(ctx context.Context, userID string, matrixID int64, cols []domain.Column) error {
	now := time.Now().UTC()
	for i, c := range cols {
		if _, err := r.db.ExecContext(ctx, insertRow, userID, matrixID, c.ColumnName, c.Transformation, now); err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}
	return nil
}

const deleteMatrix = `
DELETE FROM matrix_data
WHERE user_id = ? AND matrix_id = ?`

func (r *matricesRepo) DeleteMatrix(ctx context.Context, userID string, matrixID int64) error {
	_, err := r.db.ExecContext(ctx, deleteMatrix, userID, matrixID)
	return err
}

const distinctMatrixIDs = `
SELECT DISTINCT matrix_id
FROM matrix_data
WHERE user_id = ?
ORDER BY matrix_id ASC`

func (r *matricesRepo) DistinctMatrixIDs(ctx context.Context, userID string) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, distinctMatrixIDs, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const rowsFor = `
SELECT user_id, matrix_id, column_name, transformation, created_at
FROM matrix_data
WHERE user_id = ? AND matrix_id = ?
ORDER BY id ASC`

func (r *matricesRepo) RowsFor(ctx context.Context, userID string, matrixID int64) ([]domain.MatrixRow, error) {
	rows, err := r.db.QueryContext(ctx, rowsFor, userID, matrixID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.MatrixRow{}
	for rows.Next() {
		var m domain.MatrixRow
		if err := rows.Scan(&m.UserID, &m.MatrixID, &m.ColumnName, &m.Transformation, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
