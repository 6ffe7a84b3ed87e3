package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/doc-portal/internal/apiclient"
	"github.com/spec-kit/doc-portal/internal/domain"
	"github.com/spec-kit/doc-portal/internal/upload"
	apperrors "github.com/spec-kit/doc-portal/pkg/util"
)

// DocumentService fronts the backend's document endpoints for one session at a time.
type DocumentService struct {
	backend   *apiclient.Client
	validator *upload.Validator
	logger    *zap.Logger
}

// NewDocumentService builds the service.
func NewDocumentService(backend *apiclient.Client, validator *upload.Validator, logger *zap.Logger) *DocumentService {
	return &DocumentService{backend: backend, validator: validator, logger: logger}
}

func (s *DocumentService) List(ctx context.Context, sess apiclient.CredentialSource) ([]domain.Document, error) {
	return s.backend.Bind(sess).ListDocuments(ctx)
}

func (s *DocumentService) Get(ctx context.Context, sess apiclient.CredentialSource, id string) (*domain.Document, error) {
	if err := validateID("document", id); err != nil {
		return nil, err
	}
	return s.backend.Bind(sess).GetDocument(ctx, id)
}

func (s *DocumentService) Delete(ctx context.Context, sess apiclient.CredentialSource, id string) error {
	if err := validateID("document", id); err != nil {
		return err
	}
	return s.backend.Bind(sess).DeleteDocument(ctx, id)
}

// Upload validates the file locally, then forwards it. Nothing reaches the backend when
// validation fails.
func (s *DocumentService) Upload(ctx context.Context, sess apiclient.CredentialSource, file *upload.File, description string) (*domain.Document, error) {
	contentType, content, err := s.validator.Validate(file)
	if err != nil {
		return nil, err
	}

	progress := upload.NewProgress(func(percent int) {
		s.logger.Debug("upload progress", zap.String("file", file.Name), zap.Int("percent", percent))
	})

	doc, err := s.backend.Bind(sess).UploadDocument(ctx, apiclient.Upload{
		Filename:    file.Name,
		ContentType: contentType,
		Content:     content,
		Description: description,
	}, progress.Observe)
	if err != nil {
		return nil, err
	}
	s.logger.Info("document uploaded", zap.String("document_id", doc.ID), zap.Int64("size", file.Size))
	return doc, nil
}

func (s *DocumentService) Download(ctx context.Context, sess apiclient.CredentialSource, id string) (*apiclient.FileStream, error) {
	if err := validateID("document", id); err != nil {
		return nil, err
	}
	return s.backend.Bind(sess).OpenDownload(ctx, id)
}

func (s *DocumentService) Preview(ctx context.Context, sess apiclient.CredentialSource, id string) (*apiclient.FileStream, error) {
	if err := validateID("document", id); err != nil {
		return nil, err
	}
	return s.backend.Bind(sess).OpenPreview(ctx, id)
}

func validateID(resource, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("invalid %s id", resource), map[string]any{"id": id})
	}
	return nil
}
