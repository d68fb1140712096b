package service

import (
	"context"
	"errors"

	"github.com/zedline/auth-service/internal/core/domain"
	"github.com/zedline/auth-service/internal/core/ports"
)

// CredentialResolver resolves username-or-email plus password into an
// authentication result. An unknown identifier and a wrong password take the
// same return path, so callers cannot enumerate accounts.
type CredentialResolver struct {
	repo   ports.UserRepository
	hasher ports.PasswordHasher
}

func NewCredentialResolver(repo ports.UserRepository, hasher ports.PasswordHasher) *CredentialResolver {
	return &CredentialResolver{repo: repo, hasher: hasher}
}

// Resolve looks up the identity and checks the password. Authentication
// failure is an unauthenticated value, never an error; errors are reserved for
// infrastructure faults.
func (r *CredentialResolver) Resolve(ctx context.Context, usernameOrEmail, password string) (domain.AuthResult, error) {
	user, hash, err := r.repo.FindByUsernameOrEmail(ctx, usernameOrEmail)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.Unauthenticated(), nil
		}
		return domain.Unauthenticated(), err
	}

	if !r.hasher.Verify(password, hash) {
		return domain.Unauthenticated(), nil
	}

	return domain.Authenticated(domain.NewPrincipal(user, hash)), nil
}
