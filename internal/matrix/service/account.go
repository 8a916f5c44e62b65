package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/matrixstore/internal/matrix/domain"
	"github.com/aussiebroadwan/matrixstore/internal/matrix/store"
	"github.com/aussiebroadwan/matrixstore/pkg/cryptox"
	"github.com/aussiebroadwan/matrixstore/pkg/idx"
	"github.com/aussiebroadwan/matrixstore/pkg/slogx"
)

const (
	maxEmailLength    = 254
	maxPasswordLength = 1024
)

type AccountService struct {
	Store   store.Store
	Hasher  *cryptox.PasswordHasher
	Tokens  *TokenService
	Timeout time.Duration

	dummyOnce sync.Once
	dummyHash string
}

// LoginResult is what a successful login hands back to the client.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	AccountID string
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateCredentials(email, password string) error {
	if email == "" || len(email) > maxEmailLength || !strings.Contains(email, "@") {
		return ErrInvalidInput
	}
	if password == "" || len(password) > maxPasswordLength {
		return ErrInvalidInput
	}
	return nil
}

// CreateAccount registers email with a digest of password. A taken email is
// a StorageError wrapping store.ErrAlreadyExists, reported to clients the
// same way as any other storage failure.
func (s *AccountService) CreateAccount(ctx context.Context, email, password string) (domain.Account, error) {
	email = NormalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		return domain.Account{}, err
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return domain.Account{}, &HashingError{Err: err}
	}

	acct := domain.Account{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	if err := s.Store.Accounts().CreateAccount(ctx, acct); err != nil {
		return domain.Account{}, storageErr("create account", err)
	}

	slogx.FromContext(ctx).Info("account created", "user_id", acct.ID)
	return acct, nil
}

// Login checks the credentials and issues a token. Unknown email and wrong
// password both return ErrInvalidCredentials after a full digest check.
func (s *AccountService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = NormalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		return LoginResult{}, err
	}
	log := slogx.FromContext(ctx)

	lookupCtx, cancel := withTimeout(ctx, s.Timeout)
	acct, err := s.Store.Accounts().GetAccountByEmail(lookupCtx, email)
	cancel()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.burnVerify(password)
			log.Info("login failed", "reason", "unknown_email")
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, storageErr("get account", err)
	}

	if err := s.Hasher.Verify(password, acct.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			log.Info("login failed", "reason", "bad_password", "user_id", acct.ID)
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, &HashingError{Err: err}
	}

	token, exp, err := s.Tokens.Issue(ctx, acct.ID)
	if err != nil {
		return LoginResult{}, err
	}

	log.Info("login succeeded", "user_id", acct.ID)
	return LoginResult{Token: token, ExpiresAt: exp, AccountID: acct.ID}, nil
}

// burnVerify runs a verification against a throwaway digest so an unknown
// email costs about as much as a wrong password.
func (s *AccountService) burnVerify(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.Hasher.Hash(cryptox.MustGenerateToken(cryptox.TokenSize128))
	})
	if s.dummyHash != "" {
		_ = s.Hasher.Verify(password, s.dummyHash)
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
