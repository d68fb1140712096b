package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zedline/auth-service/internal/api/metrics"
	"github.com/zedline/auth-service/internal/core/ports"
)

type ProfileHandler struct {
	users  ports.UserService
	tokens ports.TokenService
	hasher ports.PasswordHasher
}

func NewProfileHandler(users ports.UserService, tokens ports.TokenService, hasher ports.PasswordHasher) *ProfileHandler {
	return &ProfileHandler{users: users, tokens: tokens, hasher: hasher}
}

type changeUsernameRequest struct {
	NewUsername string `json:"new_username" validate:"required,username"`
	Password    string `json:"password"     validate:"required,password_shallow"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required,password_shallow"`
	NewPassword string `json:"new_password" validate:"required,password_exact"`
}

// Get returns the authenticated user's profile.
//
// @Summary      Current user profile
// @Tags         profile
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.User
// @Failure      401  {object}  map[string]string
// @Router       /profile [get]
func (h *ProfileHandler) Get(c echo.Context) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, principal.User())
}

// ChangeUsername renames the authenticated user after re-verifying the
// password against the hash already loaded during bearer authentication; the
// stored hash never makes a second trip out of the core. Claims go stale on
// rename, so a fresh token pair is issued.
//
// @Summary      Change username
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      changeUsernameRequest  true  "New username and current password"
// @Success      200   {object}  tokenPairResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /profile/change-username [post]
func (h *ProfileHandler) ChangeUsername(c echo.Context) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}

	var req changeUsernameRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if !principal.VerifyPassword(h.hasher, req.Password) {
		return echo.NewHTTPError(http.StatusBadRequest, "the password is incorrect")
	}

	user := principal.User()
	if err := h.users.ChangeUsername(c.Request().Context(), user.ID, req.NewUsername); err != nil {
		return err
	}

	renamed := *user
	renamed.Username = req.NewUsername
	pair, err := h.tokens.Generate(&renamed)
	if err != nil {
		return err
	}
	metrics.TokenPairsIssuedTotal.WithLabelValues("profile_change").Inc()

	return c.JSON(http.StatusOK, pairResponse(pair))
}

// ChangePassword replaces the authenticated user's password after checking the
// old one, then issues a fresh token pair.
//
// @Summary      Change password
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      changePasswordRequest  true  "Old and new passwords"
// @Success      200   {object}  tokenPairResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /profile/change-password [post]
func (h *ProfileHandler) ChangePassword(c echo.Context) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user := principal.User()
	ctx := c.Request().Context()

	correct, err := h.users.IsPasswordCorrect(ctx, user.ID, req.OldPassword)
	if err != nil {
		return err
	}
	if !correct {
		return echo.NewHTTPError(http.StatusBadRequest, "the password is incorrect")
	}

	if err := h.users.ChangePassword(ctx, user.ID, req.NewPassword); err != nil {
		return err
	}

	pair, err := h.tokens.Generate(user)
	if err != nil {
		return err
	}
	metrics.TokenPairsIssuedTotal.WithLabelValues("profile_change").Inc()

	return c.JSON(http.StatusOK, pairResponse(pair))
}
