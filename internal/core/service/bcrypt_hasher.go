package service

import (
	"fmt"
	"regexp"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// bcryptPattern matches a self-describing bcrypt hash string: algorithm tag,
// two-digit cost, then 53 chars of salt+digest.
var bcryptPattern = regexp.MustCompile(`^\$2[ayb]?\$\d\d\$[./0-9A-Za-z]{53}$`)

// BcryptHasher hashes and verifies passwords with bcrypt. Salt generation uses
// crypto/rand internally, so the hasher is safe for concurrent use.
type BcryptHasher struct {
	cost   int
	logger zerolog.Logger
}

// NewBcryptHasher creates a hasher with the given work factor. Costs outside
// bcrypt's valid range fall back to bcrypt.DefaultCost; tests pass
// bcrypt.MinCost to keep suites fast.
func NewBcryptHasher(cost int, logger zerolog.Logger) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost, logger: logger}
}

// Hash produces a bcrypt hash of rawPassword. The empty string is a valid
// password here; shape rules are enforced at the HTTP layer.
func (h *BcryptHasher) Hash(rawPassword string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(rawPassword), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether rawPassword matches hash. Empty or non-bcrypt hash
// strings yield false rather than an error; the underlying comparison is
// constant-time.
func (h *BcryptHasher) Verify(rawPassword, hash string) bool {
	if hash == "" {
		h.logger.Warn().Msg("empty password hash")
		return false
	}
	if !bcryptPattern.MatchString(hash) {
		h.logger.Warn().Msg("stored hash does not look like bcrypt")
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(rawPassword)) == nil
}
