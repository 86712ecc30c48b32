package domain

import (
	"errors"
	"strings"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrPolicyViolation    = errors.New("password policy violation")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrDuplicateEmail     = errors.New("email already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTooManyAttempts    = errors.New("too many failed login attempts")
	ErrConfiguration      = errors.New("configuration error")
	ErrStore              = errors.New("user store unavailable")
)

// PolicyViolationError carries every rule a candidate password broke.
type PolicyViolationError struct {
	Violations []string
}

func (e *PolicyViolationError) Error() string {
	return strings.Join(e.Violations, "\n")
}

func (e *PolicyViolationError) Is(target error) bool {
	return target == ErrPolicyViolation
}

// StoreError wraps a persistence failure. It matches ErrStore with errors.Is
// and still unwraps to the underlying driver error.
type StoreError struct {
	Op  string
	Err error
}

func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}

func (e *StoreError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}
