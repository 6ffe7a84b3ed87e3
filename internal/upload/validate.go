package upload

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	apperrors "github.com/spec-kit/doc-portal/pkg/util"
)

// MaxSize is the client-side ceiling for one file.
const MaxSize int64 = 10 * 1024 * 1024

const (
	MsgNoFile       = "Please select a file to upload"
	MsgTooLarge     = "File size exceeds the limit of 10MB"
	MsgTypeRejected = "File type not allowed. Allowed types: PDF, DOC, DOCX, TXT, JPG, PNG"
)

// AllowedTypes lists the MIME types the portal forwards.
var AllowedTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"text/plain",
	"image/jpeg",
	"image/png",
}

const sniffLen = 3072

// File is a candidate upload as received from the browser.
type File struct {
	Name         string
	DeclaredType string
	Size         int64
	Content      io.Reader
}

// Validator checks files before any backend call.
type Validator struct {
	maxSize int64
}

// NewValidator builds a validator; a non-positive maxSize selects MaxSize.
func NewValidator(maxSize int64) *Validator {
	if maxSize <= 0 {
		maxSize = MaxSize
	}
	return &Validator{maxSize: maxSize}
}

// Validate checks presence, size and type. It returns the resolved MIME type and a reader that
// replays any bytes consumed while sniffing.
func (v *Validator) Validate(f *File) (string, io.Reader, error) {
	if f == nil || f.Content == nil || f.Name == "" {
		return "", nil, apperrors.NewValidationError(MsgNoFile, nil)
	}
	if f.Size > v.maxSize {
		return "", nil, apperrors.NewValidationError(tooLargeMessage(v.maxSize), map[string]any{
			"size":     f.Size,
			"max_size": v.maxSize,
		})
	}

	declared := baseType(f.DeclaredType)
	if declared != "" && declared != "application/octet-stream" {
		if !Allowed(declared) {
			return "", nil, typeRejected(declared)
		}
		return declared, f.Content, nil
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f.Content, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", nil, apperrors.NewInternalError(fmt.Errorf("sniff upload: %w", err))
	}
	head = head[:n]
	replay := io.MultiReader(bytes.NewReader(head), f.Content)

	detected := mimetype.Detect(head)
	for _, allowed := range AllowedTypes {
		if detected.Is(allowed) {
			return allowed, replay, nil
		}
	}
	return "", nil, typeRejected(detected.String())
}

// Allowed reports whether a MIME type is accepted; parameters are ignored.
func Allowed(contentType string) bool {
	base := baseType(contentType)
	for _, allowed := range AllowedTypes {
		if base == allowed {
			return true
		}
	}
	return false
}

func baseType(contentType string) string {
	if contentType == "" {
		return ""
	}
	base, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return base
}

func typeRejected(got string) error {
	return apperrors.NewDomainError(apperrors.CodeValidation, MsgTypeRejected, 400, map[string]any{"type": got})
}

func tooLargeMessage(maxSize int64) string {
	if maxSize == MaxSize {
		return MsgTooLarge
	}
	return fmt.Sprintf("File size exceeds the limit of %dMB", maxSize/(1024*1024))
}

// UserMessage is the text shown for a failed upload.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	de := apperrors.ToDomainError(err)
	switch de.Code {
	case apperrors.CodePayloadTooLarge:
		return apperrors.MsgPayloadTooLarge
	case apperrors.CodeUnsupportedMedia:
		return apperrors.MsgUnsupportedMedia
	case apperrors.CodeInternal:
		return "Failed to upload file"
	}
	return de.Message
}
