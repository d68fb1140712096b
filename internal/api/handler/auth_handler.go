package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/zedline/auth-service/internal/api/metrics"
	"github.com/zedline/auth-service/internal/core/domain"
	"github.com/zedline/auth-service/internal/core/ports"
)

type AuthHandler struct {
	users    ports.UserService
	tokens   ports.TokenService
	resolver ports.CredentialResolver
	limiter  ports.LoginLimiter
	logger   zerolog.Logger
}

func NewAuthHandler(users ports.UserService, tokens ports.TokenService, resolver ports.CredentialResolver, limiter ports.LoginLimiter, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, resolver: resolver, limiter: limiter, logger: logger}
}

type registerRequest struct {
	Username string `json:"username" validate:"required,username"`
	Password string `json:"password" validate:"required,password_exact"`
	Email    string `json:"email"    validate:"required,email"`
}

type loginRequest struct {
	UsernameOrEmail string `json:"username_or_email"`
	Password        string `json:"password"`
}

type accessTokenRequest struct {
	AccessToken string `json:"access_token"`
}

type refreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type successResponse struct {
	Success bool `json:"success"`
}

func pairResponse(pair domain.TokenPair) tokenPairResponse {
	return tokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}
}

// Register creates a new user account and issues its first token pair.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "New account details"
// @Success      201   {object}  tokenPairResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.users.Register(c.Request().Context(), ports.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
	})
	if err != nil {
		switch err {
		case domain.ErrUsernameTaken, domain.ErrEmailTaken:
			metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
		default:
			metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		}
		return err
	}
	metrics.RegistrationsTotal.WithLabelValues("success").Inc()

	pair, err := h.tokens.Generate(user)
	if err != nil {
		return err
	}
	metrics.TokenPairsIssuedTotal.WithLabelValues("register").Inc()

	return c.JSON(http.StatusCreated, pairResponse(pair))
}

// Login resolves credentials and issues a token pair. Unknown identifiers,
// wrong passwords, and malformed credentials all produce the same generic
// rejection so accounts cannot be enumerated.
//
// @Summary      Login with username or email
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  tokenPairResponse
// @Failure      401   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return domain.ErrInvalidCredentials
	}
	// Shape failures collapse into the generic credentials error on purpose.
	if req.UsernameOrEmail == "" || !validLoginPassword(req.Password) {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return domain.ErrInvalidCredentials
	}

	ctx := c.Request().Context()

	throttled, err := h.limiter.TooManyAttempts(ctx, req.UsernameOrEmail)
	if err != nil {
		// Limiter outage must not lock users out.
		h.logger.Warn().Err(err).Msg("login limiter unavailable")
	} else if throttled {
		metrics.LoginsThrottledTotal.Inc()
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many login attempts, try again later")
	}

	result, err := h.resolver.Resolve(ctx, req.UsernameOrEmail, req.Password)
	if err != nil {
		return err
	}

	principal, ok := result.Principal()
	if !ok {
		if err := h.limiter.RecordFailure(ctx, req.UsernameOrEmail); err != nil {
			h.logger.Warn().Err(err).Msg("login limiter unavailable")
		}
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return domain.ErrInvalidCredentials
	}

	if err := h.limiter.Reset(ctx, req.UsernameOrEmail); err != nil {
		h.logger.Warn().Err(err).Msg("login limiter unavailable")
	}

	pair, err := h.tokens.Generate(principal.User())
	if err != nil {
		return err
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	metrics.TokenPairsIssuedTotal.WithLabelValues("login").Inc()

	return c.JSON(http.StatusOK, pairResponse(pair))
}

// VerifyToken checks an access token for other services.
//
// @Summary      Verify an access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      accessTokenRequest  true  "Access token"
// @Success      200   {object}  successResponse
// @Failure      401   {object}  map[string]string
// @Router       /auth/verify-token [post]
func (h *AuthHandler) VerifyToken(c echo.Context) error {
	var req accessTokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	if err := h.tokens.ValidateAccess(req.AccessToken); err != nil {
		metrics.TokenValidationsTotal.WithLabelValues("invalid").Inc()
		return echo.NewHTTPError(http.StatusUnauthorized, "the access token is invalid")
	}
	metrics.TokenValidationsTotal.WithLabelValues("valid").Inc()

	return c.JSON(http.StatusOK, successResponse{Success: true})
}

// RefreshToken exchanges a valid refresh token for a new pair.
//
// @Summary      Refresh the token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      refreshTokenRequest  true  "Refresh token"
// @Success      200   {object}  tokenPairResponse
// @Failure      401   {object}  map[string]string
// @Router       /auth/refresh-token [post]
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	var req refreshTokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	pair, err := h.tokens.Refresh(req.RefreshToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "the refresh token is invalid")
	}
	metrics.TokenPairsIssuedTotal.WithLabelValues("refresh").Inc()

	return c.JSON(http.StatusOK, pairResponse(pair))
}

// validLoginPassword applies the shallow password rule without going through
// struct validation, so login never leaks which field was malformed.
func validLoginPassword(password string) bool {
	return passwordCharset.MatchString(password)
}
