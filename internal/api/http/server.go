package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/api/http/handlers"
	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/observability"
	"github.com/spec-kit/account-service/internal/service"
)

// AppDependencies are the collaborators the HTTP app is assembled from.
type AppDependencies struct {
	Logger   *zap.Logger
	Metrics  *observability.Metrics
	Auth     *service.AuthService
	Accounts *service.AccountService
	// Backing services checked by /health/ready, keyed by name.
	Dependencies map[string]handlers.Dependency
}

// NewApp builds the fiber app with middlewares and routes registered.
func NewApp(cfg config.AppConfig, deps AppDependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               cfg.Name,
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})

	RegisterMiddlewares(app, deps.Logger, deps.Metrics, MiddlewareConfig{
		Timeout:          cfg.RequestTimeout(),
		CORSAllowOrigins: cfg.CORSAllowOrigins,
	})

	RegisterRoutes(app, RouteConfig{
		BasePath:       cfg.BasePath,
		Health:         handlers.NewHealthHandler(cfg.Name, cfg.Version, deps.Dependencies),
		Auth:           handlers.NewAuthHandler(deps.Auth, deps.Metrics),
		Users:          handlers.NewUsersHandler(deps.Auth, deps.Accounts),
		AuthMiddleware: auth.NewAuthMiddleware(deps.Auth.TokenManager()),
		Metrics:        deps.Metrics,
	})
	return app
}
