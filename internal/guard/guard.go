package guard

import (
	"context"
	"sync"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/doc-portal/internal/events"
	"github.com/spec-kit/doc-portal/internal/session"
)

// State is the guard's view of the session.
type State int

const (
	StateResolving State = iota
	StateUnauthenticated
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateResolving:
		return "resolving"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

// SessionView is what the guard reads from the Session Store.
type SessionView interface {
	IsResolving() bool
	IsAuthenticated() bool
}

// Evaluate maps a session onto a guard state. Resolving wins over authentication.
func Evaluate(view SessionView) State {
	if view == nil {
		return StateUnauthenticated
	}
	if view.IsResolving() {
		return StateResolving
	}
	if view.IsAuthenticated() {
		return StateAuthenticated
	}
	return StateUnauthenticated
}

// Outcome says what a protected view should do right now.
type Outcome struct {
	State          State
	ShowLoading    bool
	RenderChildren bool
}

// Guard follows one mounted protected view and redirects once per entry into unauthenticated.
type Guard struct {
	view      SessionView
	nav       session.Navigator
	loginPath string

	mu        sync.Mutex
	state     State
	evaluated bool
	unsub     []func()
}

// New evaluates the session immediately.
func New(view SessionView, nav session.Navigator, loginPath string) *Guard {
	if nav == nil {
		nav = session.NopNavigator{}
	}
	if loginPath == "" {
		loginPath = session.LoginPath
	}
	g := &Guard{view: view, nav: nav, loginPath: loginPath}
	g.Sync()
	return g
}

// Sync re-evaluates the session and issues the login redirect on a transition into unauthenticated.
func (g *Guard) Sync() State {
	next := Evaluate(g.view)

	g.mu.Lock()
	redirect := next == StateUnauthenticated && (!g.evaluated || g.state != StateUnauthenticated)
	g.state = next
	g.evaluated = true
	g.mu.Unlock()

	if redirect {
		g.nav.Navigate(g.loginPath)
	}
	return next
}

func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Outcome reports what to render for the current state. Unauthenticated renders nothing.
func (g *Guard) Outcome() Outcome {
	state := g.State()
	return Outcome{
		State:          state,
		ShowLoading:    state == StateResolving,
		RenderChildren: state == StateAuthenticated,
	}
}

// Watch re-evaluates on every session event published on d until Close.
func (g *Guard) Watch(d events.Dispatcher) {
	for _, eventType := range events.SessionEventTypes() {
		stop := d.Subscribe(eventType, func(context.Context, events.Event) error {
			g.Sync()
			return nil
		})
		g.mu.Lock()
		g.unsub = append(g.unsub, stop)
		g.mu.Unlock()
	}
}

// Close detaches the guard from its dispatcher.
func (g *Guard) Close() {
	g.mu.Lock()
	unsub := g.unsub
	g.unsub = nil
	g.mu.Unlock()
	for _, stop := range unsub {
		stop()
	}
}

// Middleware gates a route on the request's session: loading placeholder while resolving,
// a bodiless redirect when signed out, the handler chain when signed in.
func Middleware(lookup func(*fiber.Ctx) SessionView, loginPath string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		nav := &session.RecordingNavigator{}
		g := New(lookup(c), nav, loginPath)

		outcome := g.Outcome()
		switch {
		case outcome.ShowLoading:
			return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "loading"})
		case !outcome.RenderChildren:
			return c.Redirect(nav.Last(), fiber.StatusSeeOther)
		}
		return c.Next()
	}
}
