package http

import (
	"net/http"

	"github.com/aussiebroadwan/matrixstore/internal/matrix/service"
	"github.com/aussiebroadwan/matrixstore/pkg/httpx"
	"github.com/aussiebroadwan/matrixstore/pkg/jwtx"
	"github.com/aussiebroadwan/matrixstore/pkg/matrixsdk"
	"github.com/aussiebroadwan/matrixstore/pkg/slogx"
)

type CreateAccountHandler struct {
	AccountService *service.AccountService
}

// ServeHTTP godoc
//
//	@Summary		Create account
//	@Description	Registers an account with an email and password. Emails are case-insensitive.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		matrixsdk.CredentialsRequest	true	"email, password"
//	@Success		201		{object}	matrixsdk.MessageResponse		"message"
//	@Failure		400		{object}	matrixsdk.ErrorResponse			"error, error_description"
//	@Failure		429		{object}	matrixsdk.ErrorResponse			"error, error_description"
//	@Failure		500		{object}	matrixsdk.ErrorResponse			"error, error_description"
//	@Router			/api/create-account [post].
func (h *CreateAccountHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req matrixsdk.CredentialsRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		slogx.FromContext(r.Context()).Debug("bad create-account body", "err", err)
		matrixsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if _, err := h.AccountService.CreateAccount(r.Context(), req.Email, req.Password); err != nil {
		writeServiceError(w, r, err, "failed to create account")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, matrixsdk.MessageResponse{
		Message: "Account created successfully",
	})
}

type LoginHandler struct {
	AccountService *service.AccountService
}

// ServeHTTP godoc
//
//	@Summary		Login
//	@Description	Exchanges email and password for a bearer token valid for one hour.
//	@Description	An unknown email and a wrong password produce the same response.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		matrixsdk.CredentialsRequest	true	"email, password"
//	@Success		200		{object}	matrixsdk.LoginResponse			"message, token, tokenType, expiresIn"
//	@Failure		400		{object}	matrixsdk.ErrorResponse			"error, error_description"
//	@Failure		401		{object}	matrixsdk.ErrorResponse			"error, error_description"
//	@Failure		429		{object}	matrixsdk.ErrorResponse			"error, error_description"
//	@Failure		500		{object}	matrixsdk.ErrorResponse			"error, error_description"
//	@Header			200		{string}	Cache-Control					"no-store"
//	@Router			/api/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req matrixsdk.CredentialsRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		slogx.FromContext(r.Context()).Debug("bad login body", "err", err)
		matrixsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	res, err := h.AccountService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err, "login failed")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, matrixsdk.LoginResponse{
		Message:   "Login successful",
		Token:     res.Token,
		TokenType: "Bearer",
		ExpiresIn: int(jwtx.AccessTokenTTL.Seconds()),
	})
}
