package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSessionResolved    EventType = "session.resolved"
	EventSessionLoggedIn    EventType = "session.logged_in"
	EventSessionLoggedOut   EventType = "session.logged_out"
	EventSessionInvalidated EventType = "session.invalidated"
	EventLoginFailed        EventType = "session.login_failed"
)

// SessionEventTypes lists every session lifecycle event.
func SessionEventTypes() []EventType {
	return []EventType{
		EventSessionResolved,
		EventSessionLoggedIn,
		EventSessionLoggedOut,
		EventSessionInvalidated,
		EventLoginFailed,
	}
}

// Event represents a session state change emitted by the Session Store.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// SessionPayload describes the session after the change.
type SessionPayload struct {
	Authenticated bool   `json:"authenticated"`
	Resolving     bool   `json:"resolving"`
	Email         string `json:"email,omitempty"`
	Reason        string `json:"reason,omitempty"`
}
