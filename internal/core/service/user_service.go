package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/zedline/auth-service/internal/core/domain"
	"github.com/zedline/auth-service/internal/core/ports"
)

// UserService implements registration and profile management.
type UserService struct {
	repo   ports.UserRepository
	hasher ports.PasswordHasher
	logger zerolog.Logger
}

func NewUserService(repo ports.UserRepository, hasher ports.PasswordHasher, logger zerolog.Logger) *UserService {
	return &UserService{repo: repo, hasher: hasher, logger: logger}
}

// Register creates a new user with the default USER role. Username and email
// uniqueness are checked up front so the caller gets a specific conflict
// error rather than a bare write failure.
func (s *UserService) Register(ctx context.Context, input ports.RegisterInput) (*domain.User, error) {
	taken, err := s.repo.ExistsByUsername(ctx, input.Username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return nil, domain.ErrUsernameTaken
	}

	taken, err = s.repo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return nil, domain.ErrEmailTaken
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Username:  input.Username,
		Email:     input.Email,
		Role:      domain.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.repo.Create(ctx, user, hash)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Uint64("user_id", created.ID).Str("username", created.Username).Msg("user registered")
	return created, nil
}

func (s *UserService) GetByID(ctx context.Context, id uint64) (*domain.User, error) {
	if id == 0 {
		return nil, domain.ErrUserIDInvalid
	}
	user, _, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetUsername(ctx context.Context, id uint64) (string, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return user.Username, nil
}

// GetUsernames resolves usernames for a batch of IDs, all-or-nothing.
func (s *UserService) GetUsernames(ctx context.Context, ids []uint64) ([]string, error) {
	for _, id := range ids {
		if id == 0 {
			return nil, domain.ErrUserIDInvalid
		}
	}
	usernames, err := s.repo.UsernamesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(usernames) != len(ids) {
		return nil, domain.ErrUserNotFound
	}
	return usernames, nil
}

// IsPasswordCorrect reports whether rawPassword belongs to the user. A
// missing user yields false, mirroring a wrong password.
func (s *UserService) IsPasswordCorrect(ctx context.Context, id uint64, rawPassword string) (bool, error) {
	_, hash, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	return s.hasher.Verify(rawPassword, hash), nil
}

func (s *UserService) ChangeUsername(ctx context.Context, id uint64, newUsername string) error {
	if id == 0 {
		return domain.ErrUserIDInvalid
	}

	taken, err := s.repo.ExistsByUsername(ctx, newUsername)
	if err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if taken {
		return domain.ErrUsernameTaken
	}

	if err := s.repo.UpdateUsername(ctx, id, newUsername); err != nil {
		return err
	}

	s.logger.Info().Uint64("user_id", id).Msg("username changed")
	return nil
}

func (s *UserService) ChangePassword(ctx context.Context, id uint64, newPassword string) error {
	if id == 0 {
		return domain.ErrUserIDInvalid
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := s.repo.UpdatePasswordHash(ctx, id, hash); err != nil {
		return err
	}

	s.logger.Info().Uint64("user_id", id).Msg("password changed")
	return nil
}
