package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// HS256Verifier validates tokens signed by an HS256Signer.
type HS256Verifier struct {
	kid    string
	secret []byte
	issuer string
	now    func() time.Time
}

// NewVerifierHS256 creates a verifier for tokens carrying kid; a nil now
// uses the wall clock.
func NewVerifierHS256(kid string, secret []byte, issuer string, now func() time.Time) *HS256Verifier {
	return &HS256Verifier{kid: kid, secret: secret, issuer: issuer, now: clockOrNow(now)}
}

func (v *HS256Verifier) Verify(tokenStr string) (Claims, error) {
	return verifyWith(tokenStr, jwt.SigningMethodHS256.Alg(), v.issuer, v.now, func(t *jwt.Token) (any, error) {
		kid, err := kidOf(t)
		if err != nil {
			return nil, err
		}
		if kid != v.kid {
			return nil, ErrUnknownKID
		}
		return v.secret, nil
	})
}
