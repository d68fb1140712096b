package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/zedline/auth-service/internal/core/domain"
)

var (
	testAccessKey  = SigningKey(strings.Repeat("a", 32))
	testRefreshKey = SigningKey(strings.Repeat("r", 32))
)

func newTestTokenService() *TokenService {
	return NewTokenService(testAccessKey, testRefreshKey, 5*time.Minute, 30*24*time.Hour)
}

func testUser() *domain.User {
	return &domain.User{ID: 1, Username: "user", Role: domain.RoleUser}
}

func TestTokenService_GenerateAndValidate(t *testing.T) {
	svc := newTestTokenService()

	pair, err := svc.Generate(testUser())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", pair)
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Fatalf("access and refresh tokens must differ")
	}

	if err := svc.ValidateAccess(pair.AccessToken); err != nil {
		t.Fatalf("freshly issued access token failed validation: %v", err)
	}

	id, err := svc.ExtractSubjectID(pair.AccessToken)
	if err != nil {
		t.Fatalf("ExtractSubjectID returned error: %v", err)
	}
	if id != 1 {
		t.Fatalf("expected subject id 1, got %d", id)
	}
}

func TestTokenService_ClaimsRoundTrip(t *testing.T) {
	svc := newTestTokenService()
	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issuedAt }

	user := &domain.User{ID: 42, Username: "carol", Role: domain.RoleModerator}
	pair, err := svc.Generate(user)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	claims, err := decodeToken(pair.AccessToken, testAccessKey, svc.now)
	if err != nil {
		t.Fatalf("decode access token: %v", err)
	}
	if claims.SubjectID != 42 || claims.Username != "carol" || claims.Role != domain.RoleModerator {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if !claims.IssuedAt.Equal(issuedAt) {
		t.Fatalf("expected iat %v, got %v", issuedAt, claims.IssuedAt)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt); got != 5*time.Minute {
		t.Fatalf("expected 5m access lifetime, got %v", got)
	}

	refreshClaims, err := decodeToken(pair.RefreshToken, testRefreshKey, svc.now)
	if err != nil {
		t.Fatalf("decode refresh token: %v", err)
	}
	if got := refreshClaims.ExpiresAt.Sub(refreshClaims.IssuedAt); got != 30*24*time.Hour {
		t.Fatalf("expected 30d refresh lifetime, got %v", got)
	}
}

func TestTokenService_KeySeparation(t *testing.T) {
	svc := newTestTokenService()

	pair, err := svc.Generate(testUser())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	// A refresh token must never pass as an access token, and vice versa.
	if err := svc.ValidateAccess(pair.RefreshToken); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("refresh token accepted as access token: %v", err)
	}
	if _, err := svc.Refresh(pair.AccessToken); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("access token accepted as refresh token: %v", err)
	}
}

func TestTokenService_Expiry(t *testing.T) {
	svc := newTestTokenService()
	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issuedAt }

	pair, err := svc.Generate(testUser())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	svc.now = func() time.Time { return issuedAt.Add(4*time.Minute + 59*time.Second) }
	if err := svc.ValidateAccess(pair.AccessToken); err != nil {
		t.Fatalf("token rejected before expiry: %v", err)
	}

	svc.now = func() time.Time { return issuedAt.Add(5*time.Minute + time.Second) }
	if err := svc.ValidateAccess(pair.AccessToken); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid after expiry, got %v", err)
	}
}

func TestTokenService_Refresh(t *testing.T) {
	svc := newTestTokenService()

	original, err := svc.Generate(&domain.User{ID: 7, Username: "dave", Role: domain.RoleUser})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	renewed, err := svc.Refresh(original.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if err := svc.ValidateAccess(renewed.AccessToken); err != nil {
		t.Fatalf("renewed access token failed validation: %v", err)
	}

	claims, err := decodeToken(renewed.AccessToken, testAccessKey, svc.now)
	if err != nil {
		t.Fatalf("decode renewed access token: %v", err)
	}
	if claims.SubjectID != 7 || claims.Username != "dave" || claims.Role != domain.RoleUser {
		t.Fatalf("refresh did not carry claims forward: %+v", claims)
	}

	// No revocation store: the consumed refresh token remains usable.
	if _, err := svc.Refresh(original.RefreshToken); err != nil {
		t.Fatalf("old refresh token rejected after use: %v", err)
	}
}

func TestTokenService_RejectsGarbage(t *testing.T) {
	svc := newTestTokenService()

	pair, err := svc.Generate(testUser())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	tampered := pair.AccessToken[:len(pair.AccessToken)-2] + "xx"

	cases := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"not a jwt", "not.a.token"},
		{"tampered signature", tampered},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := svc.ValidateAccess(tc.token); !errors.Is(err, domain.ErrTokenInvalid) {
				t.Fatalf("expected ErrTokenInvalid, got %v", err)
			}
			if _, err := svc.ExtractSubjectID(tc.token); !errors.Is(err, domain.ErrTokenInvalid) {
				t.Fatalf("expected ErrTokenInvalid from ExtractSubjectID, got %v", err)
			}
		})
	}
}

func TestTokenService_RejectsForgedClaims(t *testing.T) {
	svc := newTestTokenService()
	now := time.Now()

	sign := func(claims jwt.MapClaims, method jwt.SigningMethod, key any) string {
		t.Helper()
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		if err != nil {
			t.Fatalf("sign test token: %v", err)
		}
		return s
	}
	base := func() jwt.MapClaims {
		return jwt.MapClaims{
			"sub":      "1",
			"username": "user",
			"role":     "USER",
			"iat":      now.Unix(),
			"exp":      now.Add(time.Minute).Unix(),
		}
	}

	unknownRole := base()
	unknownRole["role"] = "ADMIN"

	zeroSubject := base()
	zeroSubject["sub"] = "0"

	noExpiry := base()
	delete(noExpiry, "exp")

	cases := []struct {
		name  string
		token string
	}{
		{"unknown role", sign(unknownRole, jwt.SigningMethodHS256, []byte(testAccessKey))},
		{"zero subject", sign(zeroSubject, jwt.SigningMethodHS256, []byte(testAccessKey))},
		{"missing expiry", sign(noExpiry, jwt.SigningMethodHS256, []byte(testAccessKey))},
		{"alg none", sign(base(), jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := svc.ValidateAccess(tc.token); !errors.Is(err, domain.ErrTokenInvalid) {
				t.Fatalf("expected ErrTokenInvalid, got %v", err)
			}
		})
	}
}

func TestTokenService_Generate_InvalidUser(t *testing.T) {
	svc := newTestTokenService()

	if _, err := svc.Generate(nil); err == nil {
		t.Fatalf("expected error for nil user")
	}
	if _, err := svc.Generate(&domain.User{Username: "x", Role: domain.RoleUser}); err == nil {
		t.Fatalf("expected error for zero user id")
	}
}
