package domain

import (
	"errors"
	"fmt"
	"time"
)

// Role represents the authorization level carried in token claims.
type Role string

const (
	RoleUser      Role = "USER"
	RoleModerator Role = "MODERATOR"
)

var ErrUserNotFound = errors.New("user not found")
var ErrUsernameTaken = errors.New("the username is already taken")
var ErrEmailTaken = errors.New("user with the same email already exists")
var ErrUserIDInvalid = errors.New("the user id is incorrect")
var ErrInvalidCredentials = errors.New("the username or password are incorrect")
var ErrTokenInvalid = errors.New("invalid token")
var ErrIdentityNotFound = errors.New("token subject no longer exists")

// ParseRole converts a stored or claimed role name into a Role. Unknown names
// are rejected so that a forged or stale role value never passes through.
func ParseRole(name string) (Role, error) {
	switch Role(name) {
	case RoleUser, RoleModerator:
		return Role(name), nil
	}
	return "", fmt.Errorf("unknown role %q", name)
}

// User models an identity in the system. The password hash is deliberately not
// a field of this type; it travels only inside Principal and at the repository
// boundary.
type User struct {
	ID        uint64    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
