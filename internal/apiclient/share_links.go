package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/spec-kit/doc-portal/internal/domain"
	apperrors "github.com/spec-kit/doc-portal/pkg/util"
)

// ListShareLinks returns every share link visible to the caller.
func (c *Client) ListShareLinks(ctx context.Context) ([]domain.ShareLink, error) {
	var links []domain.ShareLink
	if err := c.do(ctx, call{op: "share_links.list", method: http.MethodGet, path: "/api/share-links/"}, &links); err != nil {
		return nil, err
	}
	return links, nil
}

// ListShareLinksForDocument narrows the full collection to one document.
func (c *Client) ListShareLinksForDocument(ctx context.Context, documentID string) ([]domain.ShareLink, error) {
	links, err := c.ListShareLinks(ctx)
	if err != nil {
		return nil, err
	}
	return domain.FilterShareLinksByDocument(links, documentID), nil
}

func (c *Client) CreateShareLink(ctx context.Context, req domain.ShareLinkRequest) (*domain.ShareLink, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	var link domain.ShareLink
	err = c.do(ctx, call{
		op:          "share_links.create",
		method:      http.MethodPost,
		path:        "/api/share-links/",
		body:        bytes.NewReader(payload),
		contentType: "application/json",
		length:      int64(len(payload)),
	}, &link)
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (c *Client) DeleteShareLink(ctx context.Context, id string) error {
	return c.do(ctx, call{op: "share_links.delete", method: http.MethodDelete, path: "/api/share-links/" + url.PathEscape(id)}, nil)
}

// GetPublicShareLink validates a token without credentials. 403 means inactive or expired, 404 unknown.
func (c *Client) GetPublicShareLink(ctx context.Context, token string) (*domain.ShareLink, error) {
	var link domain.ShareLink
	if err := c.do(ctx, call{op: "share_links.public", method: http.MethodGet, path: "/api/share-links/public/" + url.PathEscape(token)}, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

// GetSharedDocument loads document metadata through a share token.
func (c *Client) GetSharedDocument(ctx context.Context, documentID, token string) (*domain.Document, error) {
	var doc domain.Document
	path := "/api/documents/" + url.PathEscape(documentID) + "/shared/" + url.PathEscape(token)
	if err := c.do(ctx, call{op: "documents.shared", method: http.MethodGet, path: path}, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Client) OpenSharedDownload(ctx context.Context, token string) (*FileStream, error) {
	return c.openFile(ctx, "documents.shared_download", "/api/documents/shared/"+url.PathEscape(token)+"/download")
}

func (c *Client) OpenSharedPreview(ctx context.Context, token string) (*FileStream, error) {
	return c.openFile(ctx, "documents.shared_preview", "/api/documents/shared/"+url.PathEscape(token)+"/preview")
}
