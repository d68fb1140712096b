package service

import (
	"fmt"
	"time"

	"github.com/zedline/auth-service/internal/core/domain"
)

const (
	defaultAccessTTL  = 5 * time.Minute
	defaultRefreshTTL = 30 * 24 * time.Hour
)

// TokenService mints and checks access/refresh token pairs. It holds no state
// between calls beyond the two immutable signing keys, so it is safe for
// concurrent use.
type TokenService struct {
	accessKey  SigningKey
	refreshKey SigningKey
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenService(accessKey, refreshKey SigningKey, accessTTL, refreshTTL time.Duration) *TokenService {
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	return &TokenService{
		accessKey:  accessKey,
		refreshKey: refreshKey,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Generate mints a pair of tokens for the user with issued-at set to now.
func (s *TokenService) Generate(user *domain.User) (domain.TokenPair, error) {
	if user == nil || user.ID == 0 {
		return domain.TokenPair{}, domain.ErrUserIDInvalid
	}
	return s.mintPair(user.ID, user.Username, user.Role)
}

// ValidateAccess checks an access token. The error carries no hint of why the
// token failed.
func (s *TokenService) ValidateAccess(token string) error {
	if _, err := decodeToken(token, s.accessKey, s.now); err != nil {
		return domain.ErrTokenInvalid
	}
	return nil
}

// ExtractSubjectID validates an access token and returns only its subject ID.
func (s *TokenService) ExtractSubjectID(token string) (uint64, error) {
	claims, err := decodeToken(token, s.accessKey, s.now)
	if err != nil {
		return 0, domain.ErrTokenInvalid
	}
	return claims.SubjectID, nil
}

// Refresh validates a refresh token and mints a new pair carrying the subject
// ID, username, and role forward with fresh timestamps. The consumed refresh
// token is not invalidated; statelessness over revocability is a deliberate
// property of this service.
func (s *TokenService) Refresh(refreshToken string) (domain.TokenPair, error) {
	claims, err := decodeToken(refreshToken, s.refreshKey, s.now)
	if err != nil {
		return domain.TokenPair{}, domain.ErrTokenInvalid
	}
	return s.mintPair(claims.SubjectID, claims.Username, claims.Role)
}

func (s *TokenService) mintPair(subjectID uint64, username string, role domain.Role) (domain.TokenPair, error) {
	issuedAt := s.now()

	access, err := encodeToken(domain.TokenClaims{
		SubjectID: subjectID,
		Username:  username,
		Role:      role,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(s.accessTTL),
	}, s.accessKey)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := encodeToken(domain.TokenClaims{
		SubjectID: subjectID,
		Username:  username,
		Role:      role,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(s.refreshTTL),
	}, s.refreshKey)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
