package handlers

import (
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/doc-portal/internal/api/dto"
	"github.com/spec-kit/doc-portal/internal/apiclient"
	"github.com/spec-kit/doc-portal/internal/service"
	"github.com/spec-kit/doc-portal/internal/session"
	"github.com/spec-kit/doc-portal/internal/upload"
	apperrors "github.com/spec-kit/doc-portal/pkg/util"
)

// DocumentsHandler serves the signed-in document pages.
type DocumentsHandler struct {
	documents *service.DocumentService
	shares    *service.ShareService
}

// NewDocumentsHandler constructs handler.
func NewDocumentsHandler(documents *service.DocumentService, shares *service.ShareService) *DocumentsHandler {
	return &DocumentsHandler{documents: documents, shares: shares}
}

// Dashboard GET /dashboard.
func (h *DocumentsHandler) Dashboard(c *fiber.Ctx) error {
	store := StoreFrom(c)
	docs, err := h.documents.List(c.UserContext(), store)
	if err != nil {
		return authenticatedFailure(c, err)
	}
	return c.JSON(fiber.Map{"data": dto.Dashboard{User: dto.NewUserView(store.Identity()), Documents: docs}})
}

// Upload POST /documents. Multipart field "file", optional "description".
func (h *DocumentsHandler) Upload(c *fiber.Ctx) error {
	file := &upload.File{}
	header, err := c.FormFile("file")
	if err == nil {
		f, openErr := header.Open()
		if openErr != nil {
			return apperrors.NewInternalError(fmt.Errorf("open upload: %w", openErr))
		}
		defer f.Close()
		file = &upload.File{
			Name:         header.Filename,
			DeclaredType: header.Header.Get(fiber.HeaderContentType),
			Size:         header.Size,
			Content:      f,
		}
	}

	doc, err := h.documents.Upload(c.UserContext(), StoreFrom(c), file, strings.TrimSpace(c.FormValue("description")))
	if err != nil {
		if sessionLost(c, err) {
			return c.Redirect(session.LoginPath, fiber.StatusSeeOther)
		}
		de := apperrors.ToDomainError(err)
		return &apperrors.DomainError{Code: de.Code, Message: upload.UserMessage(err), HTTPStatus: de.HTTPStatus, Details: de.Details, Err: err}
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": doc})
}

// Get GET /documents/:id.
func (h *DocumentsHandler) Get(c *fiber.Ctx) error {
	doc, err := h.documents.Get(c.UserContext(), StoreFrom(c), c.Params("id"))
	if err != nil {
		return authenticatedFailure(c, err)
	}
	return c.JSON(fiber.Map{"data": doc})
}

// Delete POST /documents/:id/delete.
func (h *DocumentsHandler) Delete(c *fiber.Ctx) error {
	if err := h.documents.Delete(c.UserContext(), StoreFrom(c), c.Params("id")); err != nil {
		return authenticatedFailure(c, err)
	}
	return c.Redirect("/dashboard", fiber.StatusSeeOther)
}

// Download GET /documents/:id/download.
func (h *DocumentsHandler) Download(c *fiber.Ctx) error {
	stream, err := h.documents.Download(c.UserContext(), StoreFrom(c), c.Params("id"))
	if err != nil {
		return authenticatedFailure(c, err)
	}
	return sendFile(c, stream)
}

// Preview GET /documents/:id/preview.
func (h *DocumentsHandler) Preview(c *fiber.Ctx) error {
	stream, err := h.documents.Preview(c.UserContext(), StoreFrom(c), c.Params("id"))
	if err != nil {
		return authenticatedFailure(c, err)
	}
	return sendFile(c, stream)
}

// ShareLinks GET /documents/:id/share.
func (h *DocumentsHandler) ShareLinks(c *fiber.Ctx) error {
	ctx, store, id := c.UserContext(), StoreFrom(c), c.Params("id")
	doc, err := h.documents.Get(ctx, store, id)
	if err != nil {
		return authenticatedFailure(c, err)
	}
	links, err := h.shares.ForDocument(ctx, store, id)
	if err != nil {
		return authenticatedFailure(c, err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"document": doc, "share_links": links}})
}

// CreateShareLink POST /documents/:id/share.
func (h *DocumentsHandler) CreateShareLink(c *fiber.Ctx) error {
	var form dto.ShareLinkForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	expiresAt, err := service.ParseExpiry(form.ExpiresAt)
	if err != nil {
		return err
	}
	link, err := h.shares.Create(c.UserContext(), StoreFrom(c), c.Params("id"), expiresAt)
	if err != nil {
		return authenticatedFailure(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": link})
}

// DeleteShareLink POST /share-links/:id/delete. A well-formed document_id form value sends the
// user back to that document's share page.
func (h *DocumentsHandler) DeleteShareLink(c *fiber.Ctx) error {
	if err := h.shares.Delete(c.UserContext(), StoreFrom(c), c.Params("id")); err != nil {
		return authenticatedFailure(c, err)
	}
	if back, err := uuid.Parse(c.FormValue("document_id")); err == nil {
		return c.Redirect("/documents/"+back.String()+"/share", fiber.StatusSeeOther)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// sendFile relays a backend file. The body is read fully before the handler returns so the
// backend response is not tied to the request context after it is cancelled.
func sendFile(c *fiber.Ctx, stream *apiclient.FileStream) error {
	defer stream.Body.Close()
	data, err := io.ReadAll(stream.Body)
	if err != nil {
		return apperrors.NewUpstreamError("", fmt.Errorf("read file: %w", err))
	}
	if stream.ContentType != "" {
		c.Set(fiber.HeaderContentType, stream.ContentType)
	}
	if stream.ContentDisposition != "" {
		c.Set(fiber.HeaderContentDisposition, stream.ContentDisposition)
	}
	return c.Send(data)
}
