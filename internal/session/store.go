package session

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/doc-portal/internal/auth"
	"github.com/spec-kit/doc-portal/internal/domain"
	"github.com/spec-kit/doc-portal/internal/events"
	apperrors "github.com/spec-kit/doc-portal/pkg/util"
)

// Entry points the store navigates to.
const (
	LandingPath = "/dashboard"
	LoginPath   = "/login"
)

// CredentialSource is read by outgoing-request interceptors at call time.
type CredentialSource interface {
	Credential() string
}

// AuthAPI is the slice of the backend the store drives.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*domain.TokenResponse, error)
	Register(ctx context.Context, reg domain.Registration) (*domain.User, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*domain.User, error)
}

// Dependencies wires a Store. Connect receives the store itself so the returned API
// attaches whatever credential the store holds when each call is made.
type Dependencies struct {
	Connect   func(CredentialSource) AuthAPI
	Jar       Jar
	Navigator Navigator
	Events    events.Dispatcher
	Tokens    *auth.TokenInspector
	Logger    *zap.Logger
	CookieTTL time.Duration
	Now       func() time.Time
}

// Snapshot is a read-only copy of the session.
type Snapshot struct {
	Credential string
	Identity   *domain.User
	ExpiresAt  time.Time
	Resolving  bool
}

// Authenticated reports credential presence.
func (s Snapshot) Authenticated() bool {
	return s.Credential != ""
}

// Store owns the in-memory credential and identity and keeps the jar in step with them
// at startup, login and logout. Login, Logout, Resolve, Refresh and Invalidate serialize.
type Store struct {
	api    AuthAPI
	jar    Jar
	nav    Navigator
	events events.Dispatcher
	tokens *auth.TokenInspector
	logger *zap.Logger
	ttl    time.Duration
	now    func() time.Time

	mu          sync.Mutex
	resolveOnce sync.Once

	stateMu sync.RWMutex
	state   Snapshot
}

// NewStore builds an empty store in the resolving state.
func NewStore(deps Dependencies) *Store {
	s := &Store{
		jar:    deps.Jar,
		nav:    deps.Navigator,
		events: deps.Events,
		tokens: deps.Tokens,
		logger: deps.Logger,
		ttl:    deps.CookieTTL,
		now:    deps.Now,
		state:  Snapshot{Resolving: true},
	}
	if s.jar == nil {
		s.jar = NewMemoryJar(nil)
	}
	if s.nav == nil {
		s.nav = NopNavigator{}
	}
	if s.tokens == nil {
		s.tokens = auth.NewTokenInspector()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.ttl <= 0 {
		s.ttl = 24 * time.Hour
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.api = deps.Connect(s)
	return s
}

// Credential returns the current bearer token, empty when signed out.
func (s *Store) Credential() string {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state.Credential
}

// Identity returns the validated user, nil when none.
func (s *Store) Identity() *domain.User {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state.Identity
}

// IsAuthenticated is a presence check on the credential; it does not contact the backend.
func (s *Store) IsAuthenticated() bool {
	return s.Credential() != ""
}

// IsResolving reports whether the startup check is still pending.
func (s *Store) IsResolving() bool {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state.Resolving
}

func (s *Store) Snapshot() Snapshot {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// Resolve performs the startup check exactly once: a persisted credential is adopted and
// validated with a who-am-I call, and any failure clears both memory and jar.
// Later calls return immediately; concurrent callers wait for the first to finish.
func (s *Store) Resolve(ctx context.Context) {
	s.resolveOnce.Do(func() {
		evt := s.resolve(ctx)
		s.publish(ctx, evt)
	})
}

func (s *Store) resolve(ctx context.Context) events.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.jar.Read()
	if !ok || token == "" {
		s.setState(Snapshot{})
		return s.event(events.EventSessionResolved, "no persisted credential")
	}

	expires, _ := s.tokens.ExpiresAt(token)
	s.setState(Snapshot{Credential: token, ExpiresAt: expires, Resolving: true})

	user, err := s.api.Me(ctx)
	if err != nil {
		s.logger.Info("persisted credential rejected", zap.Error(err))
		s.jar.Clear()
		s.setState(Snapshot{})
		return s.event(events.EventSessionResolved, "credential rejected")
	}

	s.setState(Snapshot{Credential: token, Identity: user, ExpiresAt: expires})
	return s.event(events.EventSessionResolved, "")
}

// Login exchanges credentials for a session and navigates to the landing page.
// On any failure the previous state is restored and the error is returned unchanged.
func (s *Store) Login(ctx context.Context, email, password string) error {
	evt, err := s.login(ctx, email, password)
	s.publish(ctx, evt)
	if err != nil {
		return err
	}
	s.nav.Navigate(LandingPath)
	return nil
}

func (s *Store) login(ctx context.Context, email, password string) (events.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.Snapshot()
	persisted, hadPersisted := s.jar.Read()

	token, err := s.api.Login(ctx, email, password)
	if err != nil {
		return s.failedLogin(email, err), err
	}

	now := s.now()
	expires := s.tokens.CookieExpiry(token.AccessToken, now, s.ttl)
	s.jar.Write(token.AccessToken, expires)
	s.setState(Snapshot{Credential: token.AccessToken, ExpiresAt: expires, Resolving: prev.Resolving})

	user, err := s.api.Me(ctx)
	if err != nil {
		s.restore(prev, persisted, hadPersisted)
		return s.failedLogin(email, err), fmt.Errorf("load identity: %w", err)
	}

	s.setState(Snapshot{Credential: token.AccessToken, Identity: user, ExpiresAt: expires, Resolving: prev.Resolving})
	return s.event(events.EventSessionLoggedIn, ""), nil
}

func (s *Store) failedLogin(email string, err error) events.Event {
	evt := s.event(events.EventLoginFailed, apperrors.ToDomainError(err).Code)
	if payload, ok := evt.Payload.(events.SessionPayload); ok {
		payload.Email = email
		evt.Payload = payload
	}
	return evt
}

// Register creates an account and sends the user to the login entry point. No session is created.
func (s *Store) Register(ctx context.Context, username, email, password string) error {
	if _, err := s.api.Register(ctx, domain.Registration{Username: username, Email: email, Password: password}); err != nil {
		return err
	}
	s.nav.Navigate(LoginPath)
	return nil
}

// Logout tells the backend on a best-effort basis, then always clears jar and memory and
// navigates to the login entry point.
func (s *Store) Logout(ctx context.Context) {
	evt := s.logout(ctx)
	s.publish(ctx, evt)
	s.nav.Navigate(LoginPath)
}

func (s *Store) logout(ctx context.Context) events.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.Snapshot()
	if prev.Credential != "" {
		if err := s.api.Logout(ctx); err != nil {
			s.logger.Warn("backend logout failed; clearing local session anyway", zap.Error(err))
		}
	}

	s.jar.Clear()
	s.setState(Snapshot{Resolving: prev.Resolving})
	evt := s.event(events.EventSessionLoggedOut, "")
	if prev.Identity != nil {
		evt.UserID = prev.Identity.ID
	}
	return evt
}

// Refresh revalidates the held credential. A 401 or 403 clears the session; other
// failures are returned without touching state.
func (s *Store) Refresh(ctx context.Context) error {
	evt, err := s.refresh(ctx)
	if evt != nil {
		s.publish(ctx, *evt)
	}
	return err
}

func (s *Store) refresh(ctx context.Context) (*events.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.Snapshot()
	if current.Credential == "" {
		return nil, nil
	}

	user, err := s.api.Me(ctx)
	if err != nil {
		status := apperrors.StatusOf(err)
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			evt := s.clearInvalid(current, "credential rejected on refresh")
			return &evt, err
		}
		return nil, err
	}

	current.Identity = user
	s.setState(current)
	return nil, nil
}

// Invalidate drops the session when err shows the backend no longer accepts the credential.
// Only 401 counts; a 403 from an ordinary call means the action is forbidden, not that the
// session is gone. It reports whether the session was cleared.
func (s *Store) Invalidate(ctx context.Context, err error) bool {
	if apperrors.StatusOf(err) != http.StatusUnauthorized {
		return false
	}

	s.mu.Lock()
	current := s.Snapshot()
	if current.Credential == "" {
		s.mu.Unlock()
		return false
	}
	evt := s.clearInvalid(current, "credential rejected")
	s.mu.Unlock()

	s.publish(ctx, evt)
	return true
}

func (s *Store) clearInvalid(current Snapshot, reason string) events.Event {
	s.jar.Clear()
	s.setState(Snapshot{Resolving: current.Resolving})
	evt := s.event(events.EventSessionInvalidated, reason)
	if current.Identity != nil {
		evt.UserID = current.Identity.ID
	}
	return evt
}

// restore puts memory back to prev and the jar back to the record it held before the
// mutation, which may be present even when the store was never resolved.
func (s *Store) restore(prev Snapshot, persisted string, hadPersisted bool) {
	if hadPersisted {
		expires := prev.ExpiresAt
		if prev.Credential != persisted || expires.IsZero() {
			expires = s.tokens.CookieExpiry(persisted, s.now(), s.ttl)
		}
		s.jar.Write(persisted, expires)
	} else {
		s.jar.Clear()
	}
	s.setState(prev)
}

func (s *Store) setState(next Snapshot) {
	s.stateMu.Lock()
	s.state = next
	s.stateMu.Unlock()
}

func (s *Store) event(eventType events.EventType, reason string) events.Event {
	snap := s.Snapshot()
	evt := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: s.now(),
		Payload: events.SessionPayload{
			Authenticated: snap.Authenticated(),
			Resolving:     snap.Resolving,
			Reason:        reason,
		},
	}
	if snap.Identity != nil {
		evt.UserID = snap.Identity.ID
	}
	return evt
}

func (s *Store) publish(ctx context.Context, evt events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, evt); err != nil {
		s.logger.Warn("session event handler failed", zap.String("event", string(evt.Type)), zap.Error(err))
	}
}
