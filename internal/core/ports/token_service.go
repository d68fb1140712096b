package ports

import "github.com/zedline/auth-service/internal/core/domain"

// TokenService mints, validates, and refreshes signed token pairs. All decode
// failures collapse into domain.ErrTokenInvalid; callers never learn whether a
// token was expired, forged, or malformed.
type TokenService interface {
	// Generate mints a fresh access/refresh pair for the user.
	Generate(user *domain.User) (domain.TokenPair, error)
	// ValidateAccess checks an access token and returns domain.ErrTokenInvalid
	// on any failure.
	ValidateAccess(token string) error
	// ExtractSubjectID validates an access token and returns its subject ID.
	ExtractSubjectID(token string) (uint64, error)
	// Refresh validates a refresh token and mints a new pair carrying the same
	// subject, username, and role. The old refresh token stays valid until its
	// own expiry; there is no revocation store.
	Refresh(refreshToken string) (domain.TokenPair, error)
}

// PasswordHasher produces and verifies one-way password hashes.
type PasswordHasher interface {
	// Hash produces a self-describing hash string (algorithm tag, cost, salt).
	Hash(rawPassword string) (string, error)
	// Verify reports whether rawPassword matches hash. It returns false, never
	// an error, for empty or malformed hash strings.
	Verify(rawPassword, hash string) bool
}
