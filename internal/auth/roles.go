package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/blog-security-service/pkg/util"
)

// RequireAuthenticated ensures a principal is present.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// RequireManagement ensures the principal holds an elevated role.
func RequireManagement() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || !principal.Role.IsManagement() {
			return apperrors.NewForbidden("management role required")
		}
		return c.Next()
	}
}
