package http

import (
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/matrixstore/internal/matrix/domain"
	"github.com/aussiebroadwan/matrixstore/internal/matrix/service"
	"github.com/aussiebroadwan/matrixstore/pkg/httpx"
	"github.com/aussiebroadwan/matrixstore/pkg/matrixsdk"
	"github.com/aussiebroadwan/matrixstore/pkg/slogx"
)

type SaveMatrixHandler struct {
	MatrixService *service.MatrixService
}

// ServeHTTP godoc
//
//	@Summary		Save matrix
//	@Description	Stores columns under matrixId. Without a matrixId the next id for the account is allocated.
//	@Description	matrixId may be a number, a numeric string or null.
//	@Tags			Matrices
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		matrixsdk.SaveMatrixRequest		true	"matrixId, matrixData"
//	@Success		201		{object}	matrixsdk.SaveMatrixResponse	"message, matrixId"
//	@Failure		400		{object}	matrixsdk.ErrorResponse			"error, error_description"
//	@Failure		401		{object}	matrixsdk.ErrorResponse			"error, error_description"
//	@Failure		403		{object}	matrixsdk.ErrorResponse			"error, error_description"
//	@Failure		500		{object}	matrixsdk.ErrorResponse			"error, error_description"
//	@Router			/api/save-matrix [post].
func (h *SaveMatrixHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := httpx.UserIDFromContext(ctx)
	if !ok {
		matrixsdk.ErrUnauthorized.WriteError(w)
		return
	}

	var req matrixsdk.SaveMatrixRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		slogx.FromContext(ctx).Debug("bad save-matrix body", "err", err)
		matrixsdk.NewAPIError(http.StatusBadRequest, matrixsdk.ErrorCodeInvalidRequest,
			"matrixData must be an array of {columnName, transformation}").WriteError(w)
		return
	}

	save := service.SaveRequest{
		UserID:  userID,
		Columns: make([]domain.Column, 0, len(req.MatrixData)),
	}
	if req.MatrixID != nil {
		id := int64(*req.MatrixID)
		save.MatrixID = &id
	}
	for _, c := range req.MatrixData {
		save.Columns = append(save.Columns, domain.Column{
			ColumnName:     c.ColumnName,
			Transformation: c.Transformation,
		})
	}

	id, err := h.MatrixService.Save(ctx, save)
	if err != nil {
		writeServiceError(w, r, err, "failed to save matrix")
		return
	}

	slogx.FromContext(ctx).Info("matrix saved", "matrix_id", id, "columns", len(save.Columns))
	httpx.WriteJSON(w, http.StatusCreated, matrixsdk.SaveMatrixResponse{
		Message:  "Matrix saved successfully",
		MatrixID: id,
	})
}

type MatrixListHandler struct {
	MatrixService *service.MatrixService
}

// ServeHTTP godoc
//
//	@Summary		List matrices
//	@Description	Returns the distinct matrix ids saved by the caller, ascending.
//	@Tags			Matrices
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	matrixsdk.MatrixListResponse	"matrixIds"
//	@Failure		401	{object}	matrixsdk.ErrorResponse			"error, error_description"
//	@Failure		403	{object}	matrixsdk.ErrorResponse			"error, error_description"
//	@Failure		500	{object}	matrixsdk.ErrorResponse			"error, error_description"
//	@Router			/api/get-matrix-list [get].
func (h *MatrixListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpx.UserIDFromContext(r.Context())
	if !ok {
		matrixsdk.ErrUnauthorized.WriteError(w)
		return
	}

	ids, err := h.MatrixService.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "failed to list matrices")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, matrixsdk.MatrixListResponse{MatrixIDs: ids})
}

type MatrixHandler struct {
	MatrixService *service.MatrixService
}

// ServeHTTP godoc
//
//	@Summary		Get matrix
//	@Description	Returns the columns saved under matrixId in insertion order. An unknown id yields an empty matrixData.
//	@Tags			Matrices
//	@Security		BearerAuth
//	@Produce		json
//	@Param			matrixId	path		int							true	"Matrix id"
//	@Success		200			{object}	matrixsdk.MatrixResponse	"matrixId, matrixData"
//	@Failure		400			{object}	matrixsdk.ErrorResponse		"error, error_description"
//	@Failure		401			{object}	matrixsdk.ErrorResponse		"error, error_description"
//	@Failure		403			{object}	matrixsdk.ErrorResponse		"error, error_description"
//	@Failure		500			{object}	matrixsdk.ErrorResponse		"error, error_description"
//	@Router			/api/get-matrix/{matrixId} [get].
func (h *MatrixHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpx.UserIDFromContext(r.Context())
	if !ok {
		matrixsdk.ErrUnauthorized.WriteError(w)
		return
	}

	matrixID, err := strconv.ParseInt(r.PathValue("matrixId"), 10, 64)
	if err != nil || matrixID <= 0 {
		matrixsdk.NewAPIError(http.StatusBadRequest, matrixsdk.ErrorCodeInvalidRequest,
			"matrixId must be a positive integer").WriteError(w)
		return
	}

	cols, err := h.MatrixService.Get(r.Context(), userID, matrixID)
	if err != nil {
		writeServiceError(w, r, err, "failed to read matrix")
		return
	}

	out := matrixsdk.MatrixResponse{
		MatrixID:   matrixID,
		MatrixData: make([]matrixsdk.Column, 0, len(cols)),
	}
	for _, c := range cols {
		out.MatrixData = append(out.MatrixData, matrixsdk.Column{
			ColumnName:     c.ColumnName,
			Transformation: c.Transformation,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}
