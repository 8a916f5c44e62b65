package matrixsdk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/aussiebroadwan/matrixstore/pkg/jwtx"
)

// ============================================================================
// Common
// ============================================================================

// ErrorResponse is the raw failure body. Client code should use APIError.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// MessageResponse is the body of create-account.
type MessageResponse struct {
	Message string `json:"message"`
}

// ============================================================================
// Accounts
// ============================================================================

// CredentialsRequest is the body of create-account and login.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Message string `json:"message"`

	// Token is the bearer token for the matrix endpoints.
	Token string `json:"token"`

	// TokenType is always "Bearer".
	TokenType string `json:"tokenType"`

	// ExpiresIn is the token lifetime in seconds.
	ExpiresIn int `json:"expiresIn"`
}

// ============================================================================
// Matrices
// ============================================================================

// Column is one row of a matrix.
type Column struct {
	ColumnName     string `json:"columnName"`
	Transformation string `json:"transformation"`
}

// MatrixID is a matrix identifier as it appears in a save request. It
// decodes from a JSON number or a string holding an integer; JSON null
// leaves a *MatrixID nil.
type MatrixID int64

func (m *MatrixID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(s)
	}

	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("matrixId must be an integer: %q", b)
	}
	*m = MatrixID(v)
	return nil
}

// SaveMatrixRequest is the body of save-matrix. A nil MatrixID asks the
// server to allocate the next id.
type SaveMatrixRequest struct {
	MatrixID   *MatrixID `json:"matrixId"`
	MatrixData []Column  `json:"matrixData"`
}

type SaveMatrixResponse struct {
	Message  string `json:"message"`
	MatrixID int64  `json:"matrixId"`
}

type MatrixListResponse struct {
	MatrixIDs []int64 `json:"matrixIds"`
}

type MatrixResponse struct {
	MatrixID   int64    `json:"matrixId"`
	MatrixData []Column `json:"matrixData"`
}

// ============================================================================
// Health
// ============================================================================

// HealthResponse is returned by /livez and /readyz. Checks is only set by
// /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`
}

// JWKSResponse is the key set published at /.well-known/jwks.json.
type JWKSResponse jwtx.JWKS
