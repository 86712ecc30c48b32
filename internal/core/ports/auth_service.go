package ports

import (
	"context"

	"github.com/99minutos/auth-api/internal/core/domain"
)

// RegisterInput carries a registration request. Password is plaintext and
// never leaves the service unhashed.
type RegisterInput struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token domain.Token
	// User is the stored account with Token attached.
	User *domain.User
}

type AuthService interface {
	Register(ctx context.Context, in *RegisterInput) (*domain.User, error)
	Login(ctx context.Context, creds *domain.Credentials) (*LoginResult, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
}
