package domain

import "time"

// Column is one {columnName, transformation} entry of a matrix as submitted
// by a client.
type Column struct {
	ColumnName     string
	Transformation string
}

// MatrixRow is a stored Column. Rows sharing (UserID, MatrixID) form a
// matrix; their order is insertion order.
type MatrixRow struct {
	UserID         string
	MatrixID       int64
	ColumnName     string
	Transformation string
	CreatedAt      time.Time
}

// Column drops the ownership fields.
func (r MatrixRow) Column() Column {
	return Column{ColumnName: r.ColumnName, Transformation: r.Transformation}
}
