package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/doc-portal/internal/events"
	"github.com/spec-kit/doc-portal/internal/observability"
)

// SessionAuditService records session lifecycle events in the log and in metrics.
type SessionAuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewSessionAuditService creates the service.
func NewSessionAuditService(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) *SessionAuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionAuditService{
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
	}
}

// RegisterHandlers subscribes to every session event and returns a function that removes
// the subscriptions.
func (a *SessionAuditService) RegisterHandlers() func() {
	if a.dispatcher == nil {
		return func() {}
	}
	types := events.SessionEventTypes()
	unsubs := make([]func(), 0, len(types))
	for _, t := range types {
		unsubs = append(unsubs, a.dispatcher.Subscribe(t, a.handle))
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

func (a *SessionAuditService) handle(ctx context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("user_id", event.UserID),
		zap.String("request_id", observability.RequestIDFromContext(ctx)),
	}
	if payload, ok := event.Payload.(events.SessionPayload); ok {
		fields = append(fields,
			zap.Bool("authenticated", payload.Authenticated),
			zap.String("reason", payload.Reason),
		)
		if payload.Email != "" {
			fields = append(fields, zap.String("email_hash", emailHash(payload.Email)))
		}
	}

	switch event.Type {
	case events.EventLoginFailed, events.EventSessionInvalidated:
		a.logger.Warn("session event", fields...)
	default:
		a.logger.Info("session event", fields...)
	}
	a.metrics.RecordSessionEvent(string(event.Type))
	return nil
}

// emailHash correlates attempts on one account without writing the address to the log.
func emailHash(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:8])
}
