package jwtx

// Signer is anything that can sign our JWTs.
type Signer interface {
	Alg() string
	KID() string
	Sign(Claims) (string, error)
	Validate() error
}

// PublicSigner is a Signer whose verification key may be published in a JWKS.
// Symmetric signers never implement it.
type PublicSigner interface {
	Signer
	PublicJWK() JWK
}
