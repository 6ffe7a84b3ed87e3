package domain

import (
	"strings"
	"time"
)

// ShareLink grants unauthenticated, optionally time-limited access to one document.
type ShareLink struct {
	ID         string     `json:"id"`
	Token      string     `json:"token"`
	DocumentID string     `json:"document_id"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ShareLinkRequest creates a link; a nil ExpiresAt never expires.
type ShareLinkRequest struct {
	DocumentID string     `json:"document_id"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the link's expiry lies before now.
func (l ShareLink) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && l.ExpiresAt.Before(now)
}

// FilterShareLinksByDocument keeps exactly the links pointing at documentID, in order.
func FilterShareLinksByDocument(links []ShareLink, documentID string) []ShareLink {
	out := make([]ShareLink, 0, len(links))
	for _, link := range links {
		if link.DocumentID == documentID {
			out = append(out, link)
		}
	}
	return out
}

// ShareURL is the public address handed to recipients.
func ShareURL(origin, token string) string {
	return strings.TrimRight(origin, "/") + "/shared/" + token
}
