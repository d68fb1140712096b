package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/zedline/auth-service/internal/core/domain"
	"github.com/zedline/auth-service/internal/core/ports"
)

// InternalHandler serves lookups for other services in the platform.
type InternalHandler struct {
	users ports.UserService
}

func NewInternalHandler(users ports.UserService) *InternalHandler {
	return &InternalHandler{users: users}
}

type usernameResponse struct {
	Username string `json:"username"`
}

type usernamesResponse struct {
	Usernames []string `json:"usernames"`
}

// GetUsername resolves a single user ID to its username.
//
// @Summary      Username by user ID
// @Tags         internal
// @Produce      json
// @Param        user_id  query     int  true  "User ID"
// @Success      200      {object}  usernameResponse
// @Failure      400      {object}  map[string]string
// @Failure      404      {object}  map[string]string
// @Router       /internal/profile/username [get]
func (h *InternalHandler) GetUsername(c echo.Context) error {
	id, err := strconv.ParseUint(c.QueryParam("user_id"), 10, 64)
	if err != nil || id == 0 {
		return domain.ErrUserIDInvalid
	}

	username, err := h.users.GetUsername(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, usernameResponse{Username: username})
}

// GetUsernames resolves a comma-separated list of user IDs to usernames,
// all-or-nothing and in input order.
//
// @Summary      Usernames by user IDs
// @Tags         internal
// @Produce      json
// @Param        ids  query     string  true  "Comma-separated user IDs"
// @Success      200  {object}  usernamesResponse
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /internal/profile/usernames [get]
func (h *InternalHandler) GetUsernames(c echo.Context) error {
	raw := strings.TrimSpace(c.QueryParam("ids"))
	if raw == "" {
		return domain.ErrUserIDInvalid
	}

	parts := strings.Split(raw, ",")
	ids := make([]uint64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil || id == 0 {
			return domain.ErrUserIDInvalid
		}
		ids = append(ids, id)
	}

	usernames, err := h.users.GetUsernames(c.Request().Context(), ids)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, usernamesResponse{Usernames: usernames})
}
