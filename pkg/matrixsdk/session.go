package matrixsdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// ErrSessionExpired is returned before sending a request with a token the
// session already knows is past its expiry. There is no refresh; log in
// again.
var ErrSessionExpired = errors.New("matrixsdk: session token expired")

// Session is an authenticated view of a Client.
type Session struct {
	client *Client

	mu        sync.RWMutex
	token     string
	expiresAt time.Time
}

func newSession(c *Client, resp *LoginResponse) *Session {
	return &Session{
		client:    c,
		token:     resp.Token,
		expiresAt: time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second),
	}
}

// Token returns the bearer token.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// ExpiresAt is the client-side estimate of the token expiry.
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

func (s *Session) validToken() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !time.Now().Before(s.expiresAt) {
		return "", ErrSessionExpired
	}
	return s.token, nil
}

// SaveMatrix stores cols. A nil matrixID lets the server allocate the next
// id; the resolved id is returned either way.
func (s *Session) SaveMatrix(ctx context.Context, matrixID *int64, cols []Column) (int64, error) {
	req := SaveMatrixRequest{MatrixData: cols}
	if matrixID != nil {
		id := MatrixID(*matrixID)
		req.MatrixID = &id
	}

	body, err := jsonBody(req)
	if err != nil {
		return 0, err
	}

	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/api/save-matrix", body, jsonHeaders)
	if err != nil {
		return 0, err
	}

	var out SaveMatrixResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return 0, err
	}
	return out.MatrixID, nil
}

// ListMatrices returns the ids of every matrix the account owns, ascending.
func (s *Session) ListMatrices(ctx context.Context) ([]int64, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/api/get-matrix-list", nil, nil)
	if err != nil {
		return nil, err
	}

	var out MatrixListResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.MatrixIDs, nil
}

// GetMatrix returns the columns saved under matrixID in insertion order.
// An unknown id yields an empty slice.
func (s *Session) GetMatrix(ctx context.Context, matrixID int64) ([]Column, error) {
	if matrixID <= 0 {
		return nil, fmt.Errorf("matrixsdk: invalid matrix id %d", matrixID)
	}

	path := "/api/get-matrix/" + strconv.FormatInt(matrixID, 10)
	resp, err := s.doAuthRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	var out MatrixResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.MatrixData, nil
}
