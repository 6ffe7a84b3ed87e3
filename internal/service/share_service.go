package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/doc-portal/internal/apiclient"
	"github.com/spec-kit/doc-portal/internal/domain"
	apperrors "github.com/spec-kit/doc-portal/pkg/util"
)

// Messages shown on the public shared-document page.
const (
	MsgShareExpired  = "This share link has expired or is no longer active."
	MsgShareNotFound = "Share link not found or has been deleted."
	MsgShareFailed   = "Failed to load document. Please try again later."
)

// ShareLinkView pairs a link with its public address.
type ShareLinkView struct {
	domain.ShareLink
	URL     string `json:"url"`
	Expired bool   `json:"expired"`
}

// SharedDocument is what an anonymous visitor sees through a token.
type SharedDocument struct {
	Link        domain.ShareLink `json:"share_link"`
	Document    domain.Document  `json:"document"`
	DownloadURL string           `json:"download_url"`
	PreviewURL  string           `json:"preview_url"`
}

// ShareService manages share links and resolves public tokens.
type ShareService struct {
	backend *apiclient.Client
	origin  string
	logger  *zap.Logger
	now     func() time.Time
}

// NewShareService builds the service; origin is the portal's public base URL.
func NewShareService(backend *apiclient.Client, origin string, logger *zap.Logger) *ShareService {
	return &ShareService{backend: backend, origin: strings.TrimRight(origin, "/"), logger: logger, now: time.Now}
}

// ForDocument lists the document's links with share URLs.
func (s *ShareService) ForDocument(ctx context.Context, sess apiclient.CredentialSource, documentID string) ([]ShareLinkView, error) {
	if err := validateID("document", documentID); err != nil {
		return nil, err
	}
	links, err := s.backend.Bind(sess).ListShareLinksForDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	views := make([]ShareLinkView, 0, len(links))
	for _, link := range links {
		views = append(views, s.view(link, now))
	}
	return views, nil
}

func (s *ShareService) Create(ctx context.Context, sess apiclient.CredentialSource, documentID string, expiresAt *time.Time) (*ShareLinkView, error) {
	if err := validateID("document", documentID); err != nil {
		return nil, err
	}
	if expiresAt != nil && !expiresAt.After(s.now()) {
		return nil, apperrors.NewValidationError("Expiration must be in the future", map[string]any{"expires_at": expiresAt})
	}
	link, err := s.backend.Bind(sess).CreateShareLink(ctx, domain.ShareLinkRequest{DocumentID: documentID, ExpiresAt: expiresAt})
	if err != nil {
		return nil, err
	}
	s.logger.Info("share link created", zap.String("document_id", documentID), zap.String("share_link_id", link.ID))
	view := s.view(*link, s.now())
	return &view, nil
}

func (s *ShareService) Delete(ctx context.Context, sess apiclient.CredentialSource, id string) error {
	if err := validateID("share link", id); err != nil {
		return err
	}
	return s.backend.Bind(sess).DeleteShareLink(ctx, id)
}

// OpenShared validates the token and loads the document it points at. No credential is sent.
func (s *ShareService) OpenShared(ctx context.Context, token string) (*SharedDocument, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apperrors.NewNotFound("share link", nil)
	}
	link, err := s.backend.GetPublicShareLink(ctx, token)
	if err != nil {
		return nil, err
	}
	doc, err := s.backend.GetSharedDocument(ctx, link.DocumentID, token)
	if err != nil {
		return nil, err
	}
	return &SharedDocument{
		Link:        *link,
		Document:    *doc,
		DownloadURL: "/shared/" + token + "/download",
		PreviewURL:  "/shared/" + token + "/preview",
	}, nil
}

func (s *ShareService) OpenSharedDownload(ctx context.Context, token string) (*apiclient.FileStream, error) {
	return s.backend.OpenSharedDownload(ctx, token)
}

func (s *ShareService) OpenSharedPreview(ctx context.Context, token string) (*apiclient.FileStream, error) {
	return s.backend.OpenSharedPreview(ctx, token)
}

func (s *ShareService) view(link domain.ShareLink, now time.Time) ShareLinkView {
	return ShareLinkView{ShareLink: link, URL: domain.ShareURL(s.origin, link.Token), Expired: link.Expired(now)}
}

// SharedErrorMessage is the text shown when a shared document cannot be opened.
func SharedErrorMessage(err error) string {
	switch {
	case apperrors.HasCode(err, apperrors.CodeForbidden):
		return MsgShareExpired
	case apperrors.HasCode(err, apperrors.CodeNotFound):
		return MsgShareNotFound
	}
	return MsgShareFailed
}

// ParseExpiry accepts RFC3339 timestamps, HTML datetime-local values and bare dates. A bare
// date means the end of that day in UTC. Empty input means no expiry.
func ParseExpiry(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		utc := t.UTC()
		return &utc, nil
	}
	if t, err := time.Parse("2006-01-02T15:04", raw); err == nil {
		return &t, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		end := t.Add(24*time.Hour - time.Second)
		return &end, nil
	}
	return nil, apperrors.NewValidationError("Invalid expiration date", map[string]any{"expires_at": raw})
}
