package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Claims describes the backend token payload the portal cares about.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenInspector reads backend-issued tokens without verifying them.
// The portal never holds the signing key; validity is decided by the backend on every call.
type TokenInspector struct {
	parser *jwt.Parser
}

// NewTokenInspector builds an inspector.
func NewTokenInspector() *TokenInspector {
	return &TokenInspector{parser: jwt.NewParser()}
}

// Inspect decodes token claims. Opaque, non-JWT tokens return an error.
func (ti *TokenInspector) Inspect(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, errors.New("empty token")
	}
	claims := &Claims{}
	if _, _, err := ti.parser.ParseUnverified(tokenStr, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// ExpiresAt returns the exp claim when the token carries one.
func (ti *TokenInspector) ExpiresAt(tokenStr string) (time.Time, bool) {
	claims, err := ti.Inspect(tokenStr)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// CookieExpiry caps the persisted credential at the token's own lifetime.
func (ti *TokenInspector) CookieExpiry(tokenStr string, now time.Time, ttl time.Duration) time.Time {
	expires := now.Add(ttl)
	if exp, ok := ti.ExpiresAt(tokenStr); ok && exp.Before(expires) {
		return exp
	}
	return expires
}
