package ports

import (
	"context"

	"github.com/zedline/auth-service/internal/core/domain"
)

// RegisterInput carries the fields needed to create an account. Shape rules
// (username/password/email patterns) are enforced at the HTTP layer.
type RegisterInput struct {
	Username string
	Password string
	Email    string
}

// UserService implements registration and profile management.
type UserService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	GetByID(ctx context.Context, id uint64) (*domain.User, error)
	GetUsername(ctx context.Context, id uint64) (string, error)
	GetUsernames(ctx context.Context, ids []uint64) ([]string, error)
	// IsPasswordCorrect reports whether rawPassword belongs to the user with
	// the given ID. A missing user yields false, not an error.
	IsPasswordCorrect(ctx context.Context, id uint64, rawPassword string) (bool, error)
	ChangeUsername(ctx context.Context, id uint64, newUsername string) error
	ChangePassword(ctx context.Context, id uint64, newPassword string) error
}

// CredentialResolver resolves a username-or-email plus password into an
// authentication result. Unknown users and wrong passwords produce the same
// unauthenticated value; only infrastructure failures surface as errors.
type CredentialResolver interface {
	Resolve(ctx context.Context, usernameOrEmail, password string) (domain.AuthResult, error)
}

// LoginLimiter throttles repeated failed login attempts per identifier.
// Implementations are best-effort: an unavailable backend must not lock users
// out.
type LoginLimiter interface {
	TooManyAttempts(ctx context.Context, identifier string) (bool, error)
	RecordFailure(ctx context.Context, identifier string) error
	Reset(ctx context.Context, identifier string) error
}
