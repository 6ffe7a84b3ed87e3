package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/spec-kit/doc-portal/internal/domain"
	apperrors "github.com/spec-kit/doc-portal/pkg/util"
)

// Login exchanges credentials for a bearer token. The backend expects the email in the
// OAuth2 password-form "username" field.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.TokenResponse, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)
	encoded := form.Encode()

	var token domain.TokenResponse
	err := c.do(ctx, call{
		op:          "auth.login",
		method:      http.MethodPost,
		path:        "/api/auth/login",
		body:        strings.NewReader(encoded),
		contentType: "application/x-www-form-urlencoded",
		length:      int64(len(encoded)),
	}, &token)
	if err != nil {
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, apperrors.NewUpstreamError("Unexpected response from server", errors.New("auth.login: empty access token"))
	}
	return &token, nil
}

// Register creates an account. It never yields a session.
func (c *Client) Register(ctx context.Context, reg domain.Registration) (*domain.User, error) {
	payload, err := json.Marshal(reg)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	var user domain.User
	err = c.do(ctx, call{
		op:          "auth.register",
		method:      http.MethodPost,
		path:        "/api/auth/register",
		body:        bytes.NewReader(payload),
		contentType: "application/json",
		length:      int64(len(payload)),
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout asks the backend to invalidate the bound credential.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, call{op: "auth.logout", method: http.MethodPost, path: "/api/auth/logout"}, nil)
}

// Me resolves the bound credential to an identity. 401/403 mean the credential is no longer valid.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, call{op: "auth.me", method: http.MethodGet, path: "/api/users/me"}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
