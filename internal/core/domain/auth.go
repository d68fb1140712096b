package domain

// Credentials is the transient login input. It is never stored or cached.
type Credentials struct {
	UsernameOrEmail string
	Password        string
}

// PasswordVerifier re-checks a raw password against a stored hash. It is the
// narrowest capability needed by the call sites that re-verify a password.
type PasswordVerifier interface {
	Verify(rawPassword, hash string) bool
}

// Principal is an authenticated identity together with its stored password
// hash. The hash is unexported: the only thing callers can do with it is
// re-verify a password they already hold, which keeps the hash from leaking
// into responses or logs.
type Principal struct {
	user         *User
	passwordHash string
}

// NewPrincipal builds a Principal from a user and its stored password hash.
func NewPrincipal(user *User, passwordHash string) Principal {
	return Principal{user: user, passwordHash: passwordHash}
}

// User returns the authenticated identity.
func (p Principal) User() *User {
	return p.user
}

// VerifyPassword reports whether rawPassword matches the principal's stored
// hash. Used when an already-authenticated caller must confirm the password
// again, e.g. before a username change.
func (p Principal) VerifyPassword(v PasswordVerifier, rawPassword string) bool {
	if p.user == nil {
		return false
	}
	return v.Verify(rawPassword, p.passwordHash)
}

// AuthResult is the outcome of resolving login credentials: either
// unauthenticated (the zero value) or authenticated with a Principal.
// Failed resolution is a value, not an error, so the boundary layer decides
// what to tell the user and cannot accidentally distinguish "no such user"
// from "wrong password".
type AuthResult struct {
	principal *Principal
}

// Unauthenticated returns the failed-resolution result.
func Unauthenticated() AuthResult {
	return AuthResult{}
}

// Authenticated returns a successful result carrying the principal.
func Authenticated(p Principal) AuthResult {
	return AuthResult{principal: &p}
}

// IsAuthenticated reports whether resolution succeeded.
func (r AuthResult) IsAuthenticated() bool {
	return r.principal != nil
}

// Principal returns the authenticated principal, or false when the result is
// unauthenticated.
func (r AuthResult) Principal() (Principal, bool) {
	if r.principal == nil {
		return Principal{}, false
	}
	return *r.principal, true
}
