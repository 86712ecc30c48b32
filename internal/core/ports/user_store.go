package ports

import (
	"context"

	"github.com/99minutos/auth-api/internal/core/domain"
)

// UserStore defines persistence operations for user accounts.
// Implementations enforce username and email uniqueness themselves and report
// violations as domain.ErrDuplicateUsername or domain.ErrDuplicateEmail.
type UserStore interface {
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// FindByUsername returns domain.ErrUserNotFound when no user matches.
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
}
