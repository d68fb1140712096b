package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zedline/auth-service/internal/api/middleware"
	"github.com/zedline/auth-service/internal/core/domain"
)

// currentPrincipal extracts the identity attached by the Identity middleware.
// Handlers behind RequireIdentity should never see the error path; it exists
// for routes wired without the guard.
func currentPrincipal(c echo.Context) (domain.Principal, error) {
	p, ok := middleware.Principal(c)
	if !ok {
		return domain.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return p, nil
}
