package http

import (
	"context"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/blog-security-service/internal/auth"
	"github.com/spec-kit/blog-security-service/internal/observability"
	"github.com/spec-kit/blog-security-service/internal/service"
	apperrors "github.com/spec-kit/blog-security-service/pkg/util"
)

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics))
	app.Use(observability.RequestLogger(logger, metrics))
}

// RateLimitMiddleware gates every request through the admission-control
// check and exposes the current window in response headers so clients can
// self-throttle.
func RateLimitMiddleware(gate *service.RateLimitService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		username := ""
		if principal, ok := auth.PrincipalFromContext(c); ok {
			username = principal.Username
		}
		endpointKey := service.EndpointKey(c.Method(), c.Path())

		allowed := gate.IsAllowed(c.UserContext(), c.IP(), endpointKey, username)
		status := gate.GetRateLimitStatus(c.UserContext(), c.IP(), endpointKey, username)

		c.Set("X-RateLimit-Limit", strconv.Itoa(status.MaxRequests))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(status.RemainingRequests))
		c.Set("X-RateLimit-Window", strconv.Itoa(status.WindowSeconds))

		if !allowed {
			c.Set("Retry-After", strconv.Itoa(status.WindowSeconds))
			return apperrors.NewRateLimited(status.WindowSeconds, status.RemainingRequests)
		}
		return c.Next()
	}
}

// SessionActivityMiddleware refreshes the session's last-activity time on
// every authenticated request. Failures are logged but never fail the
// request.
func SessionActivityMiddleware(sessions *service.SessionService, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if principal, ok := auth.PrincipalFromContext(c); ok && principal.SessionID != "" {
			if err := sessions.TouchActivity(c.UserContext(), principal.SessionID); err != nil {
				logger.Warn("session activity touch failed",
					zap.String("session_id", principal.SessionID),
					zap.Error(err))
			}
		}
		return c.Next()
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := apperrors.ToDomainError(err)
				if metrics != nil {
					metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
				}
				response := fiber.Map{"error": fiber.Map{
					"code":    domainErr.Code,
					"message": domainErr.Message,
				}}
				if len(domainErr.Details) > 0 {
					response["error"].(fiber.Map)["details"] = domainErr.Details
				}
				if domainErr.HTTPStatus >= 500 {
					logger.Error("request failed", zap.Error(domainErr))
				}
				c.Status(domainErr.HTTPStatus)
				_ = c.JSON(response)
				err = nil
			}
		}()
		return c.Next()
	}
}
