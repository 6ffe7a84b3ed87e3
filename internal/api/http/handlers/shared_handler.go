package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/doc-portal/internal/service"
	apperrors "github.com/spec-kit/doc-portal/pkg/util"
)

// SharedHandler serves documents opened through a share token. No session is involved.
type SharedHandler struct {
	shares *service.ShareService
}

// NewSharedHandler constructs handler.
func NewSharedHandler(shares *service.ShareService) *SharedHandler {
	return &SharedHandler{shares: shares}
}

// Show GET /shared/:token.
func (h *SharedHandler) Show(c *fiber.Ctx) error {
	shared, err := h.shares.OpenShared(c.UserContext(), c.Params("token"))
	if err != nil {
		return sharedError(err)
	}
	return c.JSON(fiber.Map{"data": shared})
}

// Download GET /shared/:token/download.
func (h *SharedHandler) Download(c *fiber.Ctx) error {
	stream, err := h.shares.OpenSharedDownload(c.UserContext(), c.Params("token"))
	if err != nil {
		return sharedError(err)
	}
	return sendFile(c, stream)
}

// Preview GET /shared/:token/preview.
func (h *SharedHandler) Preview(c *fiber.Ctx) error {
	stream, err := h.shares.OpenSharedPreview(c.UserContext(), c.Params("token"))
	if err != nil {
		return sharedError(err)
	}
	return sendFile(c, stream)
}

func sharedError(err error) error {
	de := apperrors.ToDomainError(err)
	return &apperrors.DomainError{Code: de.Code, Message: service.SharedErrorMessage(err), HTTPStatus: de.HTTPStatus, Err: err}
}
