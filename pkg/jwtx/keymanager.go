package jwtx

import (
	"crypto/ed25519"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/aussiebroadwan/matrixstore/pkg/cryptox"
)

// Supported JWT signing algorithms
const (
	AlgorithmEdDSA = "EdDSA"
	AlgorithmHS256 = "HS256"
)

// KeyManager ties the signing keys, the verifier and the published KeySet
// together for one service instance.
type KeyManager struct {
	Verifier  Verifier
	KeySet    *KeySet
	algorithm string

	signers []Signer
	mu      sync.RWMutex
}

// KeyManagerOptions configures NewKeyManager.
type KeyManagerOptions struct {
	// Algorithm is "EdDSA" (default) or "HS256".
	Algorithm string

	// Issuer is stamped into every token and required on verification.
	Issuer string

	// NumKeys is how many ephemeral EdDSA keys to generate. Defaults to 3,
	// capped at 10. Ignored when KeyFile is set or for HS256.
	NumKeys int

	// KeyFile persists a single EdDSA key in PEM form so tokens survive a
	// restart. Created on first use.
	KeyFile string

	// Secret is the HS256 shared secret, at least MinHS256SecretSize bytes.
	Secret []byte

	// Now overrides the verification clock. Nil means time.Now.
	Now func() time.Time
}

// NewKeyManager builds the signers and the matching verifier for opts.
func NewKeyManager(opts KeyManagerOptions) (*KeyManager, error) {
	if opts.Issuer == "" {
		return nil, fmt.Errorf("jwtx: Issuer is required")
	}
	if opts.Algorithm == "" {
		opts.Algorithm = AlgorithmEdDSA
	}

	switch opts.Algorithm {
	case AlgorithmEdDSA:
		return newEdDSAKeyManager(opts)
	case AlgorithmHS256:
		return newHS256KeyManager(opts)
	default:
		return nil, fmt.Errorf("jwtx: unsupported algorithm %q (supported: EdDSA, HS256)", opts.Algorithm)
	}
}

func newEdDSAKeyManager(opts KeyManagerOptions) (*KeyManager, error) {
	var pems [][]byte

	if opts.KeyFile != "" {
		pemKey, err := cryptox.LoadOrCreateEd25519Key(opts.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("jwtx: load signing key: %w", err)
		}
		pems = append(pems, pemKey)
	} else {
		numKeys := opts.NumKeys
		if numKeys <= 0 {
			numKeys = 3
		}
		if numKeys > 10 {
			numKeys = 10
		}
		for i := 0; i < numKeys; i++ {
			pemKey, err := cryptox.GenerateEd25519Key()
			if err != nil {
				return nil, fmt.Errorf("jwtx: failed to generate signer %d: %w", i+1, err)
			}
			pems = append(pems, pemKey)
		}
	}

	keyset := NewKeySet()
	signers := make([]Signer, 0, len(pems))
	for i, pemKey := range pems {
		kid, err := kidForKey(pemKey)
		if err != nil {
			return nil, err
		}
		signer, err := NewSignerEdDSA(kid, pemKey)
		if err != nil {
			return nil, fmt.Errorf("jwtx: failed to create signer %d: %w", i+1, err)
		}
		if err := keyset.AddSigner(signer); err != nil {
			return nil, fmt.Errorf("jwtx: failed to add signer %d to keyset: %w", i+1, err)
		}
		signers = append(signers, signer)
	}

	return &KeyManager{
		Verifier:  NewVerifierEdDSA(keyset, opts.Issuer, opts.Now),
		KeySet:    keyset,
		algorithm: AlgorithmEdDSA,
		signers:   signers,
	}, nil
}

func newHS256KeyManager(opts KeyManagerOptions) (*KeyManager, error) {
	kid := "matrix-hs-" + cryptox.FingerprintToken(string(opts.Secret))[:12]

	signer, err := NewSignerHS256(kid, opts.Secret)
	if err != nil {
		return nil, err
	}

	// The KeySet stays empty: a shared secret is never published.
	return &KeyManager{
		Verifier:  NewVerifierHS256(kid, opts.Secret, opts.Issuer, opts.Now),
		KeySet:    NewKeySet(),
		algorithm: AlgorithmHS256,
		signers:   []Signer{signer},
	}, nil
}

// kidForKey derives a stable key ID from the public half of pemKey, so a
// persisted key keeps its kid across restarts.
func kidForKey(pemKey []byte) (string, error) {
	key, err := cryptox.ParseEd25519Key(pemKey)
	if err != nil {
		return "", fmt.Errorf("jwtx: parse signing key: %w", err)
	}
	pub := key.Public().(ed25519.PublicKey)
	return "matrix-" + cryptox.FingerprintToken(string(pub))[:16], nil
}

// Algorithm returns the signing algorithm being used.
func (km *KeyManager) Algorithm() string {
	return km.algorithm
}

// IsReady reports whether a signer is available.
func (km *KeyManager) IsReady() bool {
	return km.NumSigners() > 0
}

// GetSigner returns one of the active signers at random.
func (km *KeyManager) GetSigner() Signer {
	km.mu.RLock()
	defer km.mu.RUnlock()

	switch len(km.signers) {
	case 0:
		return nil
	case 1:
		return km.signers[0]
	}
	return km.signers[rand.IntN(len(km.signers))]
}

// NumSigners returns the number of active signing keys.
func (km *KeyManager) NumSigners() int {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return len(km.signers)
}

// AddSigner adds a signing key at runtime. Public signers are also
// published in the KeySet so their tokens verify.
func (km *KeyManager) AddSigner(signer Signer) error {
	if signer == nil {
		return fmt.Errorf("jwtx: signer cannot be nil")
	}
	if signer.Alg() != km.algorithm {
		return fmt.Errorf("jwtx: signer alg %q does not match %q", signer.Alg(), km.algorithm)
	}

	km.mu.Lock()
	defer km.mu.Unlock()

	if ps, ok := signer.(PublicSigner); ok {
		if err := km.KeySet.AddSigner(ps); err != nil {
			return fmt.Errorf("jwtx: failed to add signer to keyset: %w", err)
		}
	}
	km.signers = append(km.signers, signer)
	return nil
}
