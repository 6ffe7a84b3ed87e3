package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/spec-kit/doc-portal/internal/domain"
	apperrors "github.com/spec-kit/doc-portal/pkg/util"
)

// Upload is one file handed to the backend.
type Upload struct {
	Filename    string
	ContentType string
	Content     io.Reader
	Description string
}

// ProgressFunc observes request body transmission.
type ProgressFunc func(loaded, total int64)

// FileStream is a streamed file body. Callers must close Body.
type FileStream struct {
	Body               io.ReadCloser
	ContentType        string
	ContentDisposition string
	ContentLength      int64
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// ListDocuments returns the caller's documents.
func (c *Client) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	var docs []domain.Document
	if err := c.do(ctx, call{op: "documents.list", method: http.MethodGet, path: "/api/documents/"}, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (c *Client) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	var doc domain.Document
	if err := c.do(ctx, call{op: "documents.get", method: http.MethodGet, path: "/api/documents/" + url.PathEscape(id)}, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	return c.do(ctx, call{op: "documents.delete", method: http.MethodDelete, path: "/api/documents/" + url.PathEscape(id)}, nil)
}

// UploadDocument posts a multipart form with the fields "file" and, when set, "description".
// progress, when non-nil, is driven by the request body as the transport consumes it.
func (c *Client) UploadDocument(ctx context.Context, up Upload, progress ProgressFunc) (*domain.Document, error) {
	if up.Content == nil {
		return nil, apperrors.NewValidationError("Please select a file to upload", nil)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	contentType := up.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(up.Filename)))
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if _, err := io.Copy(part, up.Content); err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("documents.upload: read file: %w", err))
	}
	if up.Description != "" {
		if err := mw.WriteField("description", up.Description); err != nil {
			return nil, apperrors.NewInternalError(err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	total := int64(buf.Len())
	var body io.Reader = &buf
	if progress != nil {
		body = &progressReader{r: &buf, total: total, fn: progress}
	}

	var doc domain.Document
	err = c.do(ctx, call{
		op:          "documents.upload",
		method:      http.MethodPost,
		path:        "/api/documents/",
		body:        body,
		contentType: mw.FormDataContentType(),
		length:      total,
	}, &doc)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// OpenDownload streams the original file as an attachment.
func (c *Client) OpenDownload(ctx context.Context, id string) (*FileStream, error) {
	return c.openFile(ctx, "documents.download", "/api/documents/"+url.PathEscape(id)+"/download")
}

// OpenPreview streams the file for inline display.
func (c *Client) OpenPreview(ctx context.Context, id string) (*FileStream, error) {
	return c.openFile(ctx, "documents.preview", "/api/documents/"+url.PathEscape(id)+"/preview")
}

func (c *Client) openFile(ctx context.Context, op, path string) (*FileStream, error) {
	resp, err := c.send(ctx, call{op: op, method: http.MethodGet, path: path, accept: "*/*"})
	if err != nil {
		return nil, err
	}
	return &FileStream{
		Body:               resp.Body,
		ContentType:        resp.Header.Get("Content-Type"),
		ContentDisposition: resp.Header.Get("Content-Disposition"),
		ContentLength:      resp.ContentLength,
	}, nil
}

type progressReader struct {
	r      io.Reader
	total  int64
	loaded int64
	fn     ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.loaded += int64(n)
		p.fn(p.loaded, p.total)
	}
	return n, err
}
