package domain

import "time"

// Account is a registered user. Email and ID never change after creation.
type Account struct {
	ID           string
	Email        string
	PasswordHash string // argon2id PHC string, or a legacy bcrypt digest
	CreatedAt    time.Time
}
