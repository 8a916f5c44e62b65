package httpx

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/matrixstore/pkg/cryptox"
	"github.com/aussiebroadwan/matrixstore/pkg/slogx"
)

// TokenVerifier resolves a bearer token to the account ID it was issued for.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}

// Error codes written by the gate.
const (
	ErrorCodeUnauthorized = "unauthorized"
	ErrorCodeForbidden    = "forbidden"
)

const invalidCredentials = "invalid credentials"

// AuthnMiddleware guards a route with a bearer token. A missing or malformed
// Authorization header is 401; a token that fails verification is 403. The
// body is the same in both cases so callers learn nothing about why.
func AuthnMiddleware(v TokenVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="matrixstore"`)
				WriteError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, invalidCredentials)
				return
			}

			userID, err := v.Verify(raw)
			if err != nil {
				log.Warn("bearer token rejected",
					"token_fp", cryptox.FingerprintToken(raw)[:16],
					"err", err,
				)
				WriteError(w, http.StatusForbidden, ErrorCodeForbidden, invalidCredentials)
				return
			}

			ctx = WithUserID(ctx, userID)
			ctx = slogx.WithContext(ctx, log.With("user_id", userID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from "Bearer <token>". The scheme is
// matched case-insensitively per RFC 6750.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
