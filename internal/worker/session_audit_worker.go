package worker

import (
	"github.com/spec-kit/doc-portal/internal/service"
)

// StartSessionAuditWorker registers the session audit handlers and returns their teardown.
func StartSessionAuditWorker(audit *service.SessionAuditService) func() {
	if audit == nil {
		return func() {}
	}
	return audit.RegisterHandlers()
}
