package dto

import (
	"time"

	"github.com/spec-kit/doc-portal/internal/domain"
)

// UserView is the identity exposed to pages; it never carries the credential.
type UserView struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserView maps a backend user; nil stays nil.
func NewUserView(u *domain.User) *UserView {
	if u == nil {
		return nil
	}
	return &UserView{ID: u.ID, Username: u.Username, Email: u.Email, IsActive: u.IsActive, CreatedAt: u.CreatedAt}
}

// Page is the model for the public pages.
type Page struct {
	Page  string   `json:"page"`
	Links []string `json:"links,omitempty"`
	Flash string   `json:"flash,omitempty"`
}

// Dashboard lists the signed-in user's documents.
type Dashboard struct {
	User      *UserView         `json:"user"`
	Documents []domain.Document `json:"documents"`
}

// Settings shows the signed-in identity.
type Settings struct {
	User      *UserView `json:"user"`
	ExpiresAt time.Time `json:"session_expires_at"`
}
