package api

import (
	"context"
	"fmt"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/zedline/auth-service/internal/api/handler"
	"github.com/zedline/auth-service/internal/api/middleware"
	"github.com/zedline/auth-service/internal/core/domain"
	"github.com/zedline/auth-service/internal/core/service"
	"github.com/zedline/auth-service/internal/infrastructure/config"
	mongodb "github.com/zedline/auth-service/internal/infrastructure/db/mongo"
	redisdb "github.com/zedline/auth-service/internal/infrastructure/db/redis"
)

// NewRouter builds the Echo instance with all routes registered. Signing keys
// are decoded here, once, and injected into the token service as immutable
// handles; a bad secret aborts startup instead of producing unverifiable
// tokens at runtime.
func NewRouter(ctx context.Context, db *mongo.Database, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) (*echo.Echo, error) {
	accessKey, err := service.ParseSigningKey(cfg.JWT.AccessSecret)
	if err != nil {
		return nil, fmt.Errorf("access signing key: %w", err)
	}
	refreshKey, err := service.ParseSigningKey(cfg.JWT.RefreshSecret)
	if err != nil {
		return nil, fmt.Errorf("refresh signing key: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("auth"))

	// --- Dependencies ---
	userRepo := mongodb.NewUserRepository(db)
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		return nil, err
	}

	hasher := service.NewBcryptHasher(cfg.BcryptCost, log)
	tokenService := service.NewTokenService(accessKey, refreshKey, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	userService := service.NewUserService(userRepo, hasher, log)
	resolver := service.NewCredentialResolver(userRepo, hasher)
	limiter := redisdb.NewLoginLimiter(rdb, cfg.Login.MaxAttempts, cfg.Login.AttemptWindow)

	authHandler := handler.NewAuthHandler(userService, tokenService, resolver, limiter, log)
	profileHandler := handler.NewProfileHandler(userService, tokenService, hasher)
	internalHandler := handler.NewInternalHandler(userService)

	identity := middleware.Identity(tokenService, userRepo, log)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/verify-token", authHandler.VerifyToken)
	e.POST("/auth/refresh-token", authHandler.RefreshToken)

	// --- Profile routes (bearer identity required) ---
	profile := e.Group("/profile", identity, middleware.RequireIdentity())
	profile.GET("", profileHandler.Get)
	profile.POST("/change-username", profileHandler.ChangeUsername)
	profile.POST("/change-password", profileHandler.ChangePassword)

	// --- Internal routes (service-to-service; moderator tokens only) ---
	internal := e.Group("/internal/profile", identity, middleware.RequireRole(domain.RoleModerator))
	internal.GET("/username", internalHandler.GetUsername)
	internal.GET("/usernames", internalHandler.GetUsernames)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Operational endpoints ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e, nil
}
