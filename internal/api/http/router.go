package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/blog-security-service/internal/api/http/handlers"
	"github.com/spec-kit/blog-security-service/internal/auth"
	"github.com/spec-kit/blog-security-service/internal/service"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Confirmations  *handlers.ConfirmationHandler
	Sessions       *handlers.SessionHandler
	AuthMiddleware *auth.AuthMiddleware
	RateLimiter    *service.RateLimitService
	SessionService *service.SessionService
	Logger         *zap.Logger
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	// The gate keys on identity when a valid bearer token is present, so
	// token parsing runs before rate limiting on every route.
	app.Use(cfg.AuthMiddleware.Optional)
	app.Use(RateLimitMiddleware(cfg.RateLimiter))
	app.Use(SessionActivityMiddleware(cfg.SessionService, cfg.Logger))

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	// The single externally observable confirmation artifact.
	app.Get("/confirmation", cfg.Confirmations.Confirm)

	protected := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	protected.Post("/confirmations", cfg.Confirmations.Create)
	protected.Post("/auth/logout", cfg.Sessions.Logout)

	admin := protected.Group("/admin", auth.RequireManagement())
	admin.Post("/users/:id/sessions/revoke", cfg.Sessions.RevokeAllSessions)
}
