package jwtx

import (
	"time"

	"github.com/aussiebroadwan/matrixstore/pkg/cryptox"
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenTTL is the fixed lifetime of an access token.
const AccessTokenTTL = time.Hour

// Claims carry only the registered claims. The subject is the account ID;
// nothing else about the account (and never its password digest) is embedded.
type Claims struct {
	jwt.RegisteredClaims
}

// NewAccessClaims builds claims for subject issued at now and expiring after ttl.
func NewAccessClaims(subject, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	return cryptox.MustGenerateToken(cryptox.TokenSize128)
}

// ValidateIssuer checks the issuer matches expected. An empty expected
// issuer accepts anything.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected != "" && c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateExpiryAt reports whether the token is usable at now: a token is
// expired from the instant exp is reached, and not valid before nbf.
func (c *Claims) ValidateExpiryAt(now time.Time) error {
	if c.ExpiresAt != nil && !now.Before(c.ExpiresAt.Time) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}
	return nil
}

// ValidateExpiry is ValidateExpiryAt with the wall clock.
func (c *Claims) ValidateExpiry() error {
	return c.ValidateExpiryAt(time.Now())
}
