package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/doc-portal/internal/api/dto"
	"github.com/spec-kit/doc-portal/internal/domain"
	"github.com/spec-kit/doc-portal/internal/service"
	apperrors "github.com/spec-kit/doc-portal/pkg/util"
)

// AuditHandler serves the audit log view.
type AuditHandler struct {
	audit *service.AuditService
}

// NewAuditHandler constructs handler.
func NewAuditHandler(audit *service.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// List GET /admin/audit-logs?action=&resource_type=&limit=&days=.
func (h *AuditHandler) List(c *fiber.Ctx) error {
	var q dto.AuditQuery
	if err := c.QueryParser(&q); err != nil {
		return apperrors.NewValidationError("invalid query", nil)
	}
	if err := dto.Validate(&q); err != nil {
		return err
	}

	overview, err := h.audit.Overview(c.UserContext(), StoreFrom(c), domain.AuditLogFilter{
		Action:       q.Action,
		ResourceType: q.ResourceType,
		Limit:        q.Limit,
	}, q.Days)
	if err != nil {
		return authenticatedFailure(c, err)
	}
	return c.JSON(fiber.Map{"data": overview})
}
