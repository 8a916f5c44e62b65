package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a JWT and returns its claims if it is legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

var (
	ErrMalformed    = errors.New("jwtx: malformed token")
	ErrUnknownKID   = errors.New("jwtx: unknown kid")
	ErrInvalidSig   = errors.New("jwtx: invalid signature")
	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

// verifyWith parses tokenStr accepting only alg, resolves the key through
// keyFunc, then enforces issuer and expiry against now().
func verifyWith(
	tokenStr, alg, issuer string,
	now func() time.Time,
	keyFunc jwt.Keyfunc,
) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{alg}),
		jwt.WithTimeFunc(now),
		jwt.WithExpirationRequired(),
	)

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, keyFunc)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return Claims{}, fmt.Errorf("%w: %w", ErrMalformed, err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Claims{}, fmt.Errorf("%w: %w", ErrInvalidSig, err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, ErrExpired
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return Claims{}, ErrNotYetValid
		case errors.Is(err, ErrUnknownKID):
			return Claims{}, ErrUnknownKID
		}
		return Claims{}, fmt.Errorf("jwtx: parse or verify: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return Claims{}, ErrInvalidClaim
	}
	if err := claims.ValidateIssuer(issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateExpiryAt(now()); err != nil {
		return Claims{}, err
	}
	return *claims, nil
}

func kidOf(t *jwt.Token) (string, error) {
	kid, _ := t.Header["kid"].(string)
	if kid == "" {
		return "", fmt.Errorf("%w: missing kid", ErrUnknownKID)
	}
	return kid, nil
}

func clockOrNow(now func() time.Time) func() time.Time {
	if now != nil {
		return now
	}
	return time.Now
}
