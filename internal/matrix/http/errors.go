package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/matrixstore/internal/matrix/service"
	"github.com/aussiebroadwan/matrixstore/pkg/matrixsdk"
	"github.com/aussiebroadwan/matrixstore/pkg/slogx"
)

// writeServiceError maps a service error onto the wire. Storage and hashing
// causes are logged and replaced by a generic server error.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	log := slogx.FromContext(r.Context())

	var (
		storageErr *service.StorageError
		hashErr    *service.HashingError
	)
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		matrixsdk.ErrInvalidRequest.WriteError(w)
	case errors.Is(err, service.ErrInvalidCredentials):
		matrixsdk.ErrInvalidCredentials.WriteError(w)
	case errors.As(err, &storageErr):
		log.Error(msg, "op", storageErr.Op, "err", storageErr.Err)
		matrixsdk.ErrServerError.WriteError(w)
	case errors.As(err, &hashErr):
		log.Error(msg, "err", hashErr.Err)
		matrixsdk.ErrServerError.WriteError(w)
	default:
		log.Error(msg, "err", err)
		matrixsdk.ErrServerError.WriteError(w)
	}
}
