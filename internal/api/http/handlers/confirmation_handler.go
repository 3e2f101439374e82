package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/blog-security-service/internal/auth"
	"github.com/spec-kit/blog-security-service/internal/domain"
	"github.com/spec-kit/blog-security-service/internal/service"
	apperrors "github.com/spec-kit/blog-security-service/pkg/util"
)

// ConfirmationHandler exposes the confirmation-token workflow.
type ConfirmationHandler struct {
	confirmations *service.ConfirmationService
}

// NewConfirmationHandler returns a new handler instance.
func NewConfirmationHandler(confirmations *service.ConfirmationService) *ConfirmationHandler {
	return &ConfirmationHandler{confirmations: confirmations}
}

type createConfirmationRequest struct {
	Operation  string `json:"operation"`
	ResourceID string `json:"resource_id"`
	ViaEmail   bool   `json:"via_email"`
}

// Create issues a confirmation token for the authenticated caller, either
// returned in-band or dispatched to the caller's verified email address.
func (h *ConfirmationHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req createConfirmationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	op := domain.OperationType(req.Operation)
	if !op.Known() {
		return apperrors.NewValidationError("unknown operation", map[string]any{"operation": req.Operation})
	}

	if !h.confirmations.RequiresConfirmation(c.UserContext(), op, principal.UserID) {
		return c.JSON(fiber.Map{"confirmation_required": false})
	}

	if req.ViaEmail {
		token, err := h.confirmations.SendEmailConfirmation(c.UserContext(), principal.UserID, op, req.ResourceID)
		if err != nil {
			return apperrors.NewDomainError("CONFIRMATION_UNAVAILABLE", "confirmation could not be issued", fiber.StatusServiceUnavailable, nil)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"confirmation_required": true,
			"delivery":              "email",
			"expires_at":            token.ExpiresAt,
		})
	}

	token, err := h.confirmations.GenerateToken(c.UserContext(), principal.UserID, op, req.ResourceID)
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"confirmation_required": true,
		"token":                 token.Token,
		"operation":             token.Operation,
		"expires_at":            token.ExpiresAt,
	})
}

// Confirm consumes the single-use token carried in the query string. The
// token is treated as an opaque parameter; the caller learns only valid or
// invalid, never why a token was rejected.
func (h *ConfirmationHandler) Confirm(c *fiber.Ctx) error {
	token, ok := h.confirmations.ConsumeToken(c.UserContext(), c.Query("token"))
	if !ok {
		return apperrors.NewGone("confirmation link is invalid or has expired")
	}
	return c.JSON(fiber.Map{
		"confirmed":   true,
		"operation":   token.Operation,
		"resource_id": token.ResourceID,
	})
}
