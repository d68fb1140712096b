package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/zedline/auth-service/internal/core/domain"
)

func TestHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"invalid credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized, "the username or password are incorrect"},
		{"invalid token", domain.ErrTokenInvalid, http.StatusUnauthorized, "invalid token"},
		{"vanished subject", domain.ErrIdentityNotFound, http.StatusUnauthorized, "token subject no longer exists"},
		{"username taken", domain.ErrUsernameTaken, http.StatusConflict, "the username is already taken"},
		{"email taken", domain.ErrEmailTaken, http.StatusConflict, "user with the same email already exists"},
		{"user not found", domain.ErrUserNotFound, http.StatusNotFound, "user not found"},
		{"bad user id", domain.ErrUserIDInvalid, http.StatusBadRequest, "the user id is incorrect"},
		{"echo error passes through", echo.NewHTTPError(http.StatusTooManyRequests, "too many login attempts, try again later"), http.StatusTooManyRequests, "too many login attempts, try again later"},
		{"unknown error is masked", errors.New("mongo: connection refused"), http.StatusInternalServerError, "internal server error"},
	}

	handle := NewHTTPErrorHandler(zerolog.Nop())
	e := echo.New()

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			handle(tc.err, c)

			if rec.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantCode)
			}
			var resp errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decoding body %q: %v", rec.Body.String(), err)
			}
			if resp.Error != tc.wantMsg {
				t.Fatalf("message = %q, want %q", resp.Error, tc.wantMsg)
			}
		})
	}
}

func TestHTTPErrorHandler_CommittedResponse(t *testing.T) {
	handle := NewHTTPErrorHandler(zerolog.Nop())
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := c.NoContent(http.StatusOK); err != nil {
		t.Fatalf("committing response: %v", err)
	}
	handle(errors.New("late failure"), c)

	if rec.Code != http.StatusOK {
		t.Fatalf("committed response was rewritten: %d", rec.Code)
	}
}
