package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// MinHS256SecretSize is the shortest shared secret we accept, in bytes.
const MinHS256SecretSize = 32

// HS256Signer signs tokens with a shared secret. Anyone able to verify can
// also mint tokens, so the secret never leaves the service.
type HS256Signer struct {
	kid    string
	secret []byte
}

// NewSignerHS256 creates an HMAC-SHA256 signer.
func NewSignerHS256(kid string, secret []byte) (*HS256Signer, error) {
	s := &HS256Signer{kid: kid, secret: secret}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *HS256Signer) Alg() string { return jwt.SigningMethodHS256.Alg() }
func (s *HS256Signer) KID() string { return s.kid }

func (s *HS256Signer) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t.Header["kid"] = s.kid
	return t.SignedString(s.secret)
}

func (s *HS256Signer) Validate() error {
	if len(s.secret) < MinHS256SecretSize {
		return errors.New("jwtx: HS256 secret too short")
	}
	return nil
}
