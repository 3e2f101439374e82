package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/blog-security-service/internal/auth"
	"github.com/spec-kit/blog-security-service/internal/domain"
	"github.com/spec-kit/blog-security-service/internal/service"
	apperrors "github.com/spec-kit/blog-security-service/pkg/util"
)

// SessionHandler exposes session lifecycle endpoints.
type SessionHandler struct {
	sessions *service.SessionService
}

// NewSessionHandler returns a new handler instance.
func NewSessionHandler(sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Logout tears down the caller's session across all indices.
func (h *SessionHandler) Logout(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	complete := h.sessions.PerformUserLogoutCleanup(
		c.UserContext(),
		principal.SessionID,
		principal.UserID,
		principal.Username,
		c.IP(),
		domain.CleanupReasonLogout,
	)
	return c.JSON(fiber.Map{"logged_out": true, "cleanup_complete": complete})
}

// RevokeAllSessions force-terminates every session of the target user.
// Management only; used for account deactivation and forced logout.
func (h *SessionHandler) RevokeAllSessions(c *fiber.Ctx) error {
	userID := c.Params("id")
	if userID == "" {
		return apperrors.NewValidationError("missing user id", nil)
	}

	count := h.sessions.PerformUserAllSessionsCleanup(c.UserContext(), userID, domain.CleanupReasonAdminInvalidated)
	return c.JSON(fiber.Map{"revoked": count})
}
