package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/doc-portal/internal/apiclient"
	"github.com/spec-kit/doc-portal/internal/auth"
	"github.com/spec-kit/doc-portal/internal/events"
	"github.com/spec-kit/doc-portal/internal/guard"
	"github.com/spec-kit/doc-portal/internal/session"
)

const (
	localsStore     = "portal.session"
	localsNavigator = "portal.navigator"
)

// Sessions builds one Session Store per request, backed by the credential cookie.
type Sessions struct {
	backend    *apiclient.Client
	dispatcher events.Dispatcher
	tokens     *auth.TokenInspector
	logger     *zap.Logger
	cookie     session.CookieOptions
	ttl        time.Duration
}

// SessionsConfig wires Sessions.
type SessionsConfig struct {
	Backend    *apiclient.Client
	Dispatcher events.Dispatcher
	Tokens     *auth.TokenInspector
	Logger     *zap.Logger
	Cookie     session.CookieOptions
	TTL        time.Duration
}

func NewSessions(cfg SessionsConfig) *Sessions {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sessions{
		backend:    cfg.Backend,
		dispatcher: cfg.Dispatcher,
		tokens:     cfg.Tokens,
		logger:     logger,
		cookie:     cfg.Cookie,
		ttl:        cfg.TTL,
	}
}

// Attach puts a fresh store and navigator on the request. Nothing is resolved yet.
func (s *Sessions) Attach(c *fiber.Ctx) error {
	nav := &session.RecordingNavigator{}
	store := session.NewStore(session.Dependencies{
		Connect: func(src session.CredentialSource) session.AuthAPI {
			return s.backend.Bind(src)
		},
		Jar:       session.NewFiberJar(c, s.cookie),
		Navigator: nav,
		Events:    s.dispatcher,
		Tokens:    s.tokens,
		Logger:    s.logger,
		CookieTTL: s.ttl,
	})
	c.Locals(localsStore, store)
	c.Locals(localsNavigator, nav)
	return c.Next()
}

// Resolve runs the startup check for routes that need the identity.
func (s *Sessions) Resolve(c *fiber.Ctx) error {
	if store := StoreFrom(c); store != nil {
		store.Resolve(c.UserContext())
	}
	return c.Next()
}

// StoreFrom returns the request's store, nil outside Attach.
func StoreFrom(c *fiber.Ctx) *session.Store {
	store, _ := c.Locals(localsStore).(*session.Store)
	return store
}

// NavigatorFrom returns the request's navigator, nil outside Attach.
func NavigatorFrom(c *fiber.Ctx) *session.RecordingNavigator {
	nav, _ := c.Locals(localsNavigator).(*session.RecordingNavigator)
	return nav
}

// View adapts the request's store for the route guard.
func View(c *fiber.Ctx) guard.SessionView {
	if store := StoreFrom(c); store != nil {
		return store
	}
	return nil
}

// navigate answers with a 303 to wherever the store last pointed, or fallback.
func navigate(c *fiber.Ctx, fallback string) error {
	target := fallback
	if nav := NavigatorFrom(c); nav != nil && nav.Last() != "" {
		target = nav.Last()
	}
	return c.Redirect(target, fiber.StatusSeeOther)
}

// authenticatedFailure drops the session when the backend rejected the credential and sends
// the user to sign in; any other error is returned to the error middleware.
func authenticatedFailure(c *fiber.Ctx, err error) error {
	if sessionLost(c, err) {
		return c.Redirect(session.LoginPath, fiber.StatusSeeOther)
	}
	return err
}

func sessionLost(c *fiber.Ctx, err error) bool {
	store := StoreFrom(c)
	return store != nil && store.Invalidate(c.UserContext(), err)
}
