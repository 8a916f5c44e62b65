package jwtx

import (
	"crypto/ed25519"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// EdDSAVerifier validates EdDSA tokens against the public keys in a KeySet.
type EdDSAVerifier struct {
	keys   *KeySet
	issuer string
	now    func() time.Time
}

// NewVerifierEdDSA creates a verifier; a nil now uses the wall clock.
func NewVerifierEdDSA(keys *KeySet, issuer string, now func() time.Time) *EdDSAVerifier {
	return &EdDSAVerifier{keys: keys, issuer: issuer, now: clockOrNow(now)}
}

func (v *EdDSAVerifier) Verify(tokenStr string) (Claims, error) {
	return verifyWith(tokenStr, jwt.SigningMethodEdDSA.Alg(), v.issuer, v.now, func(t *jwt.Token) (any, error) {
		kid, err := kidOf(t)
		if err != nil {
			return nil, err
		}

		pub, err := v.keys.Get(kid)
		if err != nil {
			return nil, ErrUnknownKID
		}

		ed, ok := pub.(ed25519.PublicKey)
		if !ok {
			return nil, errors.New("jwtx: invalid Ed25519 key type")
		}
		return ed, nil
	})
}
