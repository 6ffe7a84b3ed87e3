package events

import (
	"context"
	"errors"
	"testing"
)

func TestDispatcherDeliversAndUnsubscribes(t *testing.T) {
	d := NewInMemoryDispatcher()

	var first, second int
	stop := d.Subscribe(EventSessionLoggedIn, func(context.Context, Event) error {
		first++
		return nil
	})
	d.Subscribe(EventSessionLoggedIn, func(context.Context, Event) error {
		second++
		return nil
	})
	d.Subscribe(EventSessionLoggedOut, func(context.Context, Event) error {
		t.Fatalf("logged out handler must not fire")
		return nil
	})

	if err := d.Publish(context.Background(), Event{Type: EventSessionLoggedIn}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	stop()
	stop()
	if err := d.Publish(context.Background(), Event{Type: EventSessionLoggedIn}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if first != 1 || second != 2 {
		t.Fatalf("first=%d second=%d, want 1 and 2", first, second)
	}
}

func TestDispatcherKeepsGoingAfterHandlerError(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("boom")

	called := false
	d.Subscribe(EventSessionInvalidated, func(context.Context, Event) error { return boom })
	d.Subscribe(EventSessionInvalidated, func(context.Context, Event) error {
		called = true
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventSessionInvalidated})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined handler error, got %v", err)
	}
	if !called {
		t.Fatalf("second handler skipped")
	}
}
