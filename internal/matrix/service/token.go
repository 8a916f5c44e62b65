package service

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/matrixstore/pkg/jwtx"
	"github.com/aussiebroadwan/matrixstore/pkg/slogx"
)

// TokenService issues and checks access tokens. It is stateless: there is
// no revocation list and a token is good until it expires.
type TokenService struct {
	KeyManager *jwtx.KeyManager
	Issuer     string

	// Now overrides the clock used for issuance and expiry. Nil means time.Now.
	Now func() time.Time
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Issue signs a token for userID that expires exactly jwtx.AccessTokenTTL
// after issuance.
func (s *TokenService) Issue(ctx context.Context, userID string) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, ErrInvalidInput
	}

	signer := s.KeyManager.GetSigner()
	if signer == nil {
		return "", time.Time{}, fmt.Errorf("token: no signing key available")
	}

	claims := jwtx.NewAccessClaims(userID, s.Issuer, jwtx.AccessTokenTTL, s.now())
	token, err := signer.Sign(claims)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("token: sign: %w", err)
	}

	slogx.FromContext(ctx).Debug("access token issued",
		"user_id", userID,
		"kid", signer.KID(),
		"jti", claims.ID,
	)
	return token, claims.ExpiresAt.Time, nil
}

// Verify returns the account ID the token was issued for. Every failure,
// whatever the cause, is ErrInvalidToken wrapping the cause.
func (s *TokenService) Verify(token string) (string, error) {
	claims, err := s.KeyManager.Verifier.Verify(token)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if err := claims.ValidateExpiryAt(s.now()); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return claims.Subject, nil
}
