package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput       = errors.New("invalid_input")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidToken       = errors.New("invalid_token")
)

// StorageError is any backing store failure. Op names the step that failed;
// Err keeps the driver error for logs and errors.Is/As. It never carries
// credentials.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// HashingError is a failure to compute or parse a password digest.
type HashingError struct {
	Err error
}

func (e *HashingError) Error() string {
	return "hashing: " + e.Err.Error()
}

func (e *HashingError) Unwrap() error { return e.Err }

// storageErr wraps err unless it already is a StorageError.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
