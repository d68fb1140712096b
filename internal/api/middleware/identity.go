package middleware

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/zedline/auth-service/internal/core/domain"
	"github.com/zedline/auth-service/internal/core/ports"
)

const principalContextKey = "auth.principal"

// Principal returns the identity attached by the Identity middleware, if any.
func Principal(c echo.Context) (domain.Principal, bool) {
	p, ok := c.Get(principalContextKey).(domain.Principal)
	return p, ok
}

// SetPrincipal attaches an identity to the request context. Exposed for
// earlier pipeline stages and tests; Identity never overwrites it.
func SetPrincipal(c echo.Context, p domain.Principal) {
	c.Set(principalContextKey, p)
}

// Identity attaches the bearer token's identity to the request context.
// It fails open: a missing or invalid token lets the request proceed
// unauthenticated, and route guards decide whether that is acceptable.
// The one hard failure is a valid, signed token whose subject no longer
// exists — that indicates a deleted account holding a live token and is
// surfaced as domain.ErrIdentityNotFound.
func Identity(tokens ports.TokenService, users ports.UserRepository, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := Principal(c); ok {
				return next(c)
			}

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return next(c)
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return next(c)
			}

			userID, err := tokens.ExtractSubjectID(parts[1])
			if err != nil {
				log.Debug().Str("path", c.Path()).Msg("bearer token rejected, proceeding unauthenticated")
				return next(c)
			}

			user, hash, err := users.FindByID(c.Request().Context(), userID)
			if err != nil {
				if errors.Is(err, domain.ErrUserNotFound) {
					return domain.ErrIdentityNotFound
				}
				return err
			}

			SetPrincipal(c, domain.NewPrincipal(user, hash))
			return next(c)
		}
	}
}
