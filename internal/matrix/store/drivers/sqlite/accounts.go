package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/matrixstore/internal/matrix/domain"
	"github.com/aussiebroadwan/matrixstore/internal/matrix/store"
)

type accountsRepo struct {
	db dbtx
}

const createAccount = `
INSERT INTO users (id, email, password_hash, created_at)
VALUES (?, ?, ?, ?)`

func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account) error {
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, createAccount, a.ID, a.Email, a.PasswordHash, createdAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("create account: %w", store.ErrAlreadyExists)
	}
	return err
}

const getAccountByEmail = `
SELECT id, email, password_hash, created_at
FROM users
WHERE email = ?`

func (r *accountsRepo) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, getAccountByEmail, email))
}

const getAccountByID = `
SELECT id, email, password_hash, created_at
FROM users
WHERE id = ?`

func (r *accountsRepo) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, getAccountByID, id))
}

func (r *accountsRepo) scanOne(row interface{ Scan(...any) error }) (domain.Account, error) {
	var a domain.Account
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt); err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return a, nil
}
