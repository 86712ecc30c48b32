package ports

import (
	"context"
	"time"

	"github.com/99minutos/auth-api/internal/core/domain"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SecretProvider supplies the token signing key.
type SecretProvider interface {
	SigningKey() ([]byte, error)
}

// PasswordHasher derives and checks one-way password hashes.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	// Verify reports whether plaintext produced storedHash. Malformed hashes yield false.
	Verify(plaintext, storedHash string) bool
}

// TokenIssuer signs bearer tokens for authenticated users.
type TokenIssuer interface {
	Issue(user *domain.User) (*domain.Token, error)
}

// LoginThrottle tracks failed logins per username.
type LoginThrottle interface {
	Blocked(ctx context.Context, username string) (bool, error)
	Failed(ctx context.Context, username string) error
	Reset(ctx context.Context, username string) error
}
