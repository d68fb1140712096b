package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/zedline/auth-service/internal/core/domain"
	"github.com/zedline/auth-service/internal/core/ports"
)

type stubUserService struct {
	registered *domain.User
	registerErr error
	passwordOK  bool
	passwordErr error
}

func (s *stubUserService) Register(_ context.Context, input ports.RegisterInput) (*domain.User, error) {
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	if s.registered == nil {
		s.registered = &domain.User{ID: 1, Username: input.Username, Email: input.Email, Role: domain.RoleUser}
	}
	return s.registered, nil
}

func (s *stubUserService) GetByID(context.Context, uint64) (*domain.User, error) {
	return nil, errors.New("not implemented")
}
func (s *stubUserService) GetUsername(context.Context, uint64) (string, error) {
	return "", errors.New("not implemented")
}
func (s *stubUserService) GetUsernames(context.Context, []uint64) ([]string, error) {
	return nil, errors.New("not implemented")
}
func (s *stubUserService) IsPasswordCorrect(context.Context, uint64, string) (bool, error) {
	return s.passwordOK, s.passwordErr
}
func (s *stubUserService) ChangeUsername(context.Context, uint64, string) error {
	return errors.New("not implemented")
}
func (s *stubUserService) ChangePassword(context.Context, uint64, string) error {
	return errors.New("not implemented")
}

type stubTokenService struct {
	validAccess  string
	validRefresh string
}

func (s *stubTokenService) Generate(user *domain.User) (domain.TokenPair, error) {
	if user == nil || user.ID == 0 {
		return domain.TokenPair{}, domain.ErrUserIDInvalid
	}
	return domain.TokenPair{AccessToken: "access-" + user.Username, RefreshToken: "refresh-" + user.Username}, nil
}

func (s *stubTokenService) ValidateAccess(token string) error {
	if token == s.validAccess {
		return nil
	}
	return domain.ErrTokenInvalid
}

func (s *stubTokenService) ExtractSubjectID(string) (uint64, error) {
	return 0, errors.New("not implemented")
}

func (s *stubTokenService) Refresh(token string) (domain.TokenPair, error) {
	if token == s.validRefresh {
		return domain.TokenPair{AccessToken: "access-rotated", RefreshToken: "refresh-rotated"}, nil
	}
	return domain.TokenPair{}, domain.ErrTokenInvalid
}

// stubResolver authenticates exactly one identifier/password combination.
type stubResolver struct {
	identifier string
	password   string
	user       *domain.User
	err        error
}

func (s *stubResolver) Resolve(_ context.Context, usernameOrEmail, password string) (domain.AuthResult, error) {
	if s.err != nil {
		return domain.Unauthenticated(), s.err
	}
	if usernameOrEmail == s.identifier && password == s.password {
		return domain.Authenticated(domain.NewPrincipal(s.user, "stored-hash")), nil
	}
	return domain.Unauthenticated(), nil
}

type stubLimiter struct {
	throttled bool
	checkErr  error
	failures  int
	resets    int
}

func (s *stubLimiter) TooManyAttempts(context.Context, string) (bool, error) {
	return s.throttled, s.checkErr
}
func (s *stubLimiter) RecordFailure(context.Context, string) error {
	s.failures++
	return nil
}
func (s *stubLimiter) Reset(context.Context, string) error {
	s.resets++
	return nil
}

func newAuthRequest(t *testing.T, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodePair(t *testing.T, rec *httptest.ResponseRecorder) tokenPairResponse {
	t.Helper()
	var pair tokenPairResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &pair); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return pair
}

func TestAuthHandler_Register(t *testing.T) {
	newHandler := func(registerErr error) (*AuthHandler, *stubUserService) {
		users := &stubUserService{registerErr: registerErr}
		h := NewAuthHandler(users, &stubTokenService{}, &stubResolver{}, &stubLimiter{}, zerolog.Nop())
		return h, users
	}

	t.Run("success", func(t *testing.T) {
		h, _ := newHandler(nil)
		c, rec := newAuthRequest(t, "/auth/register", `{"username":"alice","password":"Sup3rSecret","email":"alice@example.com"}`)

		if err := h.Register(c); err != nil {
			t.Fatalf("register: %v", err)
		}
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
		pair := decodePair(t, rec)
		if pair.AccessToken == "" || pair.RefreshToken == "" {
			t.Fatalf("expected a token pair, got %+v", pair)
		}
	})

	t.Run("username taken", func(t *testing.T) {
		h, _ := newHandler(domain.ErrUsernameTaken)
		c, _ := newAuthRequest(t, "/auth/register", `{"username":"alice","password":"Sup3rSecret","email":"alice@example.com"}`)

		if err := h.Register(c); !errors.Is(err, domain.ErrUsernameTaken) {
			t.Fatalf("expected ErrUsernameTaken, got %v", err)
		}
	})

	validation := []struct {
		name string
		body string
	}{
		{"username too short", `{"username":"ab","password":"Sup3rSecret","email":"a@b.com"}`},
		{"username leading digit", `{"username":"1alice","password":"Sup3rSecret","email":"a@b.com"}`},
		{"password no digit", `{"username":"alice","password":"SuperSecret","email":"a@b.com"}`},
		{"password no uppercase", `{"username":"alice","password":"sup3rsecret","email":"a@b.com"}`},
		{"password too short", `{"username":"alice","password":"Sup3r","email":"a@b.com"}`},
		{"password illegal rune", `{"username":"alice","password":"Sup3rSecret ","email":"a@b.com"}`},
		{"bad email", `{"username":"alice","password":"Sup3rSecret","email":"not-an-email"}`},
		{"missing fields", `{}`},
	}
	for _, tc := range validation {
		t.Run(tc.name, func(t *testing.T) {
			h, users := newHandler(nil)
			c, _ := newAuthRequest(t, "/auth/register", tc.body)

			err := h.Register(c)
			he, ok := err.(*echo.HTTPError)
			if !ok || he.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 HTTPError, got %v", err)
			}
			if users.registered != nil {
				t.Fatalf("service must not be reached on validation failure")
			}
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	user := &domain.User{ID: 7, Username: "alice", Email: "alice@example.com", Role: domain.RoleUser}
	newHandler := func(limiter *stubLimiter) *AuthHandler {
		resolver := &stubResolver{identifier: "alice", password: "Sup3rSecret", user: user}
		return NewAuthHandler(&stubUserService{}, &stubTokenService{}, resolver, limiter, zerolog.Nop())
	}

	t.Run("success resets the limiter", func(t *testing.T) {
		limiter := &stubLimiter{}
		h := newHandler(limiter)
		c, rec := newAuthRequest(t, "/auth/login", `{"username_or_email":"alice","password":"Sup3rSecret"}`)

		if err := h.Login(c); err != nil {
			t.Fatalf("login: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if pair := decodePair(t, rec); pair.AccessToken != "access-alice" {
			t.Fatalf("unexpected pair: %+v", pair)
		}
		if limiter.resets != 1 || limiter.failures != 0 {
			t.Fatalf("limiter resets=%d failures=%d", limiter.resets, limiter.failures)
		}
	})

	// Unknown identifier, wrong password, and malformed input must be
	// indistinguishable to the caller.
	failures := []struct {
		name         string
		body         string
		wantRecorded int
	}{
		{"unknown identifier", `{"username_or_email":"nobody","password":"Sup3rSecret"}`, 1},
		{"wrong password", `{"username_or_email":"alice","password":"Wr0ngSecret"}`, 1},
		{"empty identifier", `{"username_or_email":"","password":"Sup3rSecret"}`, 0},
		{"password outside charset", `{"username_or_email":"alice","password":"Sup3r Secret"}`, 0},
		{"password too short", `{"username_or_email":"alice","password":"Sup3r"}`, 0},
	}
	for _, tc := range failures {
		t.Run(tc.name, func(t *testing.T) {
			limiter := &stubLimiter{}
			h := newHandler(limiter)
			c, _ := newAuthRequest(t, "/auth/login", tc.body)

			if err := h.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
			if limiter.failures != tc.wantRecorded {
				t.Fatalf("recorded failures = %d, want %d", limiter.failures, tc.wantRecorded)
			}
		})
	}

	t.Run("throttled", func(t *testing.T) {
		h := newHandler(&stubLimiter{throttled: true})
		c, _ := newAuthRequest(t, "/auth/login", `{"username_or_email":"alice","password":"Sup3rSecret"}`)

		err := h.Login(c)
		he, ok := err.(*echo.HTTPError)
		if !ok || he.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429 HTTPError, got %v", err)
		}
	})

	t.Run("limiter outage does not block login", func(t *testing.T) {
		h := newHandler(&stubLimiter{checkErr: errors.New("redis down")})
		c, rec := newAuthRequest(t, "/auth/login", `{"username_or_email":"alice","password":"Sup3rSecret"}`)

		if err := h.Login(c); err != nil {
			t.Fatalf("login during limiter outage: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("resolver infrastructure error surfaces", func(t *testing.T) {
		resolver := &stubResolver{err: errors.New("mongo down")}
		h := NewAuthHandler(&stubUserService{}, &stubTokenService{}, resolver, &stubLimiter{}, zerolog.Nop())
		c, _ := newAuthRequest(t, "/auth/login", `{"username_or_email":"alice","password":"Sup3rSecret"}`)

		if err := h.Login(c); err == nil || errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("infrastructure error must not be masked, got %v", err)
		}
	})
}

func TestAuthHandler_VerifyToken(t *testing.T) {
	tokens := &stubTokenService{validAccess: "good-access"}
	h := NewAuthHandler(&stubUserService{}, tokens, &stubResolver{}, &stubLimiter{}, zerolog.Nop())

	t.Run("valid", func(t *testing.T) {
		c, rec := newAuthRequest(t, "/auth/verify-token", `{"access_token":"good-access"}`)
		if err := h.VerifyToken(c); err != nil {
			t.Fatalf("verify: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var resp successResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || !resp.Success {
			t.Fatalf("expected success=true, body=%s err=%v", rec.Body.String(), err)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		c, _ := newAuthRequest(t, "/auth/verify-token", `{"access_token":"forged"}`)
		err := h.VerifyToken(c)
		he, ok := err.(*echo.HTTPError)
		if !ok || he.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 HTTPError, got %v", err)
		}
		if he.Message != "the access token is invalid" {
			t.Fatalf("unexpected message: %v", he.Message)
		}
	})
}

func TestAuthHandler_RefreshToken(t *testing.T) {
	tokens := &stubTokenService{validRefresh: "good-refresh"}
	h := NewAuthHandler(&stubUserService{}, tokens, &stubResolver{}, &stubLimiter{}, zerolog.Nop())

	t.Run("valid", func(t *testing.T) {
		c, rec := newAuthRequest(t, "/auth/refresh-token", `{"refresh_token":"good-refresh"}`)
		if err := h.RefreshToken(c); err != nil {
			t.Fatalf("refresh: %v", err)
		}
		if pair := decodePair(t, rec); pair.AccessToken != "access-rotated" || pair.RefreshToken != "refresh-rotated" {
			t.Fatalf("unexpected pair: %+v", pair)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		c, _ := newAuthRequest(t, "/auth/refresh-token", `{"refresh_token":"forged"}`)
		err := h.RefreshToken(c)
		he, ok := err.(*echo.HTTPError)
		if !ok || he.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 HTTPError, got %v", err)
		}
		if he.Message != "the refresh token is invalid" {
			t.Fatalf("unexpected message: %v", he.Message)
		}
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		c, _ := newAuthRequest(t, "/auth/refresh-token", `{"refresh_token":"good-access"}`)
		if err := h.RefreshToken(c); err == nil {
			t.Fatalf("access token accepted as refresh token")
		}
	})
}
