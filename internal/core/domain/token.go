package domain

import "time"

// TokenPair is the access/refresh token pair returned to callers. Both tokens
// are self-contained signed strings; neither is persisted server-side.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenClaims is the decoded payload shared by access and refresh tokens.
// The two kinds differ only in signing key and lifetime.
type TokenClaims struct {
	SubjectID uint64
	Username  string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}
