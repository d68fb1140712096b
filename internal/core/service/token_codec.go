package service

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/zedline/auth-service/internal/core/domain"
)

// encodeToken serializes claims as a compact HS256-signed JWT. The subject ID
// is encoded as a decimal string under "sub" for interop with existing
// clients.
func encodeToken(claims domain.TokenClaims, key SigningKey) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      strconv.FormatUint(claims.SubjectID, 10),
		"username": claims.Username,
		"role":     string(claims.Role),
		"iat":      claims.IssuedAt.Unix(),
		"exp":      claims.ExpiresAt.Unix(),
	})
	return t.SignedString([]byte(key))
}

// decodeToken verifies a token against key and extracts its claims. Any
// failure — bad signature, wrong algorithm, malformed structure, expiry at or
// before now — collapses into domain.ErrTokenInvalid with no further detail.
func decodeToken(token string, key SigningKey, now func() time.Time) (domain.TokenClaims, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(key), nil
	}, jwt.WithTimeFunc(now), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return domain.TokenClaims{}, domain.ErrTokenInvalid
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return domain.TokenClaims{}, domain.ErrTokenInvalid
	}
	subjectID, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || subjectID == 0 {
		return domain.TokenClaims{}, domain.ErrTokenInvalid
	}

	username, ok := claims["username"].(string)
	if !ok || username == "" {
		return domain.TokenClaims{}, domain.ErrTokenInvalid
	}

	roleName, ok := claims["role"].(string)
	if !ok {
		return domain.TokenClaims{}, domain.ErrTokenInvalid
	}
	role, err := domain.ParseRole(roleName)
	if err != nil {
		return domain.TokenClaims{}, domain.ErrTokenInvalid
	}

	issuedAt, err := claims.GetIssuedAt()
	if err != nil || issuedAt == nil {
		return domain.TokenClaims{}, domain.ErrTokenInvalid
	}
	expiresAt, err := claims.GetExpirationTime()
	if err != nil || expiresAt == nil {
		return domain.TokenClaims{}, domain.ErrTokenInvalid
	}

	return domain.TokenClaims{
		SubjectID: subjectID,
		Username:  username,
		Role:      role,
		IssuedAt:  issuedAt.Time,
		ExpiresAt: expiresAt.Time,
	}, nil
}
