package ports

import (
	"context"

	"github.com/zedline/auth-service/internal/core/domain"
)

// UserRepository defines the interface for user persistence. Lookups that can
// feed authentication return the stored password hash alongside the user; the
// hash must not travel past the auth core.
type UserRepository interface {
	// Create persists a new user and assigns its numeric ID.
	Create(ctx context.Context, user *domain.User, passwordHash string) (*domain.User, error)
	// FindByID returns the user and its password hash, or domain.ErrUserNotFound.
	FindByID(ctx context.Context, id uint64) (*domain.User, string, error)
	// FindByUsernameOrEmail matches value against either field with a single
	// lookup, or returns domain.ErrUserNotFound.
	FindByUsernameOrEmail(ctx context.Context, value string) (*domain.User, string, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// UsernamesByIDs returns usernames for the given IDs, in input order.
	// A single missing ID yields domain.ErrUserNotFound.
	UsernamesByIDs(ctx context.Context, ids []uint64) ([]string, error)
	UpdateUsername(ctx context.Context, id uint64, username string) error
	UpdatePasswordHash(ctx context.Context, id uint64, passwordHash string) error
}
