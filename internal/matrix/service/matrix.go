package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/matrixstore/internal/matrix/domain"
	"github.com/aussiebroadwan/matrixstore/internal/matrix/store"
)

// AllocationStrategy selects how an id-less save picks its matrix id.
type AllocationStrategy string

const (
	// StrategyLegacy reads MAX(matrix_id) and inserts in a separate round
	// trip. Two concurrent id-less saves can resolve the same id and merge.
	StrategyLegacy AllocationStrategy = "legacy"

	// StrategyAtomic allocates from the store-owned counter inside the
	// insert transaction. Concurrent saves always get distinct ids.
	StrategyAtomic AllocationStrategy = "atomic"
)

// ResavePolicy decides what saving under an existing matrix id does.
type ResavePolicy string

const (
	PolicyAppend  ResavePolicy = "append"
	PolicyReplace ResavePolicy = "replace"
)

func ParseAllocationStrategy(s string) (AllocationStrategy, error) {
	switch AllocationStrategy(s) {
	case StrategyLegacy, StrategyAtomic:
		return AllocationStrategy(s), nil
	case "":
		return StrategyAtomic, nil
	}
	return "", fmt.Errorf("unknown allocation strategy %q (want legacy or atomic)", s)
}

func ParseResavePolicy(s string) (ResavePolicy, error) {
	switch ResavePolicy(s) {
	case PolicyAppend, PolicyReplace:
		return ResavePolicy(s), nil
	case "":
		return PolicyAppend, nil
	}
	return "", fmt.Errorf("unknown resave policy %q (want append or replace)", s)
}

// SaveRecorder receives save metrics. *metricsx.Metrics implements it.
type SaveRecorder interface {
	ObserveSave(strategy string, clientSuppliedID bool, n int)
	ObserveStorageError(op string)
}

type MatrixService struct {
	Store    store.Store
	Strategy AllocationStrategy
	Policy   ResavePolicy

	// Timeout bounds each store round trip. Zero means no limit beyond the
	// caller's context.
	Timeout time.Duration

	Metrics SaveRecorder
}

// SaveRequest is one save-matrix call. A nil MatrixID asks the service to
// allocate one.
type SaveRequest struct {
	UserID   string
	MatrixID *int64
	Columns  []domain.Column
}

// Save resolves the matrix id and stores the columns under it, returning
// the id. A client-supplied id is used as is, without an ownership or
// existence check.
func (s *MatrixService) Save(ctx context.Context, req SaveRequest) (int64, error) {
	if err := validateSave(req); err != nil {
		return 0, err
	}

	var (
		id  int64
		err error
	)
	switch s.strategy() {
	case StrategyLegacy:
		id, err = s.saveLegacy(ctx, req)
	default:
		id, err = s.saveAtomic(ctx, req)
	}
	if err != nil {
		s.observeError(err)
		return 0, err
	}

	if s.Metrics != nil {
		s.Metrics.ObserveSave(string(s.strategy()), req.MatrixID != nil, len(req.Columns))
	}
	return id, nil
}

func validateSave(req SaveRequest) error {
	if req.UserID == "" || len(req.Columns) == 0 {
		return ErrInvalidInput
	}
	if req.MatrixID != nil && *req.MatrixID <= 0 {
		return ErrInvalidInput
	}
	for _, c := range req.Columns {
		if c.ColumnName == "" {
			return ErrInvalidInput
		}
	}
	return nil
}

func (s *MatrixService) saveLegacy(ctx context.Context, req SaveRequest) (int64, error) {
	var id int64
	if req.MatrixID != nil {
		id = *req.MatrixID
	} else {
		lookupCtx, cancel := withTimeout(ctx, s.Timeout)
		max, err := s.Store.Matrices().MaxMatrixID(lookupCtx, req.UserID)
		cancel()
		if err != nil {
			return 0, storageErr("lookup max matrix id", err)
		}
		id = max + 1
	}

	insertCtx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	err := s.Store.WithTx(insertCtx, func(tx store.Tx) error {
		return s.write(insertCtx, tx, req, id)
	})
	if err != nil {
		return 0, storageErr("save matrix", err)
	}
	return id, nil
}

func (s *MatrixService) saveAtomic(ctx context.Context, req SaveRequest) (int64, error) {
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	var id int64
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if req.MatrixID != nil {
			id = *req.MatrixID
		} else {
			allocated, err := tx.Matrices().AllocateMatrixID(ctx, req.UserID)
			if err != nil {
				return storageErr("allocate matrix id", err)
			}
			id = allocated
		}
		return s.write(ctx, tx, req, id)
	})
	if err != nil {
		return 0, storageErr("save matrix", err)
	}
	return id, nil
}

// write applies the resave policy and inserts the rows inside tx. Replace
// only clears ids the client named; freshly allocated ids have no rows.
func (s *MatrixService) write(ctx context.Context, tx store.Tx, req SaveRequest, id int64) error {
	if s.Policy == PolicyReplace && req.MatrixID != nil {
		if err := tx.Matrices().DeleteMatrix(ctx, req.UserID, id); err != nil {
			return storageErr("delete matrix", err)
		}
	}
	if err := tx.Matrices().InsertRows(ctx, req.UserID, id, req.Columns); err != nil {
		return storageErr("insert rows", err)
	}
	return nil
}

// List returns the user's matrix ids in ascending order.
func (s *MatrixService) List(ctx context.Context, userID string) ([]int64, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	ids, err := s.Store.Matrices().DistinctMatrixIDs(ctx, userID)
	if err != nil {
		err = storageErr("list matrix ids", err)
		s.observeError(err)
		return nil, err
	}
	return ids, nil
}

// Get returns the matrix columns in insertion order. An unknown matrix is
// an empty slice.
func (s *MatrixService) Get(ctx context.Context, userID string, matrixID int64) ([]domain.Column, error) {
	if userID == "" || matrixID <= 0 {
		return nil, ErrInvalidInput
	}

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	rows, err := s.Store.Matrices().RowsFor(ctx, userID, matrixID)
	if err != nil {
		err = storageErr("read matrix", err)
		s.observeError(err)
		return nil, err
	}

	cols := make([]domain.Column, 0, len(rows))
	for _, r := range rows {
		cols = append(cols, r.Column())
	}
	return cols, nil
}

func (s *MatrixService) strategy() AllocationStrategy {
	if s.Strategy == "" {
		return StrategyAtomic
	}
	return s.Strategy
}

func (s *MatrixService) observeError(err error) {
	if s.Metrics == nil {
		return
	}
	var se *StorageError
	if errors.As(err, &se) {
		s.Metrics.ObserveStorageError(se.Op)
	}
}
