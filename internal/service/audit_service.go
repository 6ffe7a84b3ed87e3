package service

import (
	"context"
	"net/http"

	"github.com/spec-kit/doc-portal/internal/apiclient"
	"github.com/spec-kit/doc-portal/internal/domain"
	apperrors "github.com/spec-kit/doc-portal/pkg/util"
)

// MsgAuditForbidden replaces the backend's 403 text on the audit view.
const MsgAuditForbidden = "You do not have permission to view audit logs"

const (
	defaultSummaryDays = 7
	maxSummaryDays     = 30
)

// AuditOverview is the audit page model.
type AuditOverview struct {
	Logs           []domain.AuditLog    `json:"logs"`
	Summary        *domain.AuditSummary `json:"summary"`
	MostActiveUser string               `json:"most_active_user,omitempty"`
}

// AuditService reads audit logs on behalf of a session.
type AuditService struct {
	backend *apiclient.Client
}

func NewAuditService(backend *apiclient.Client) *AuditService {
	return &AuditService{backend: backend}
}

// Overview loads the filtered log page and the summary for days.
func (s *AuditService) Overview(ctx context.Context, sess apiclient.CredentialSource, filter domain.AuditLogFilter, days int) (*AuditOverview, error) {
	api := s.backend.Bind(sess)

	if filter.Limit <= 0 {
		filter.Limit = apiclient.DefaultAuditLimit
	}
	logs, err := api.ListAuditLogs(ctx, filter)
	if err != nil {
		return nil, mapAuditError(err)
	}
	summary, err := api.AuditSummary(ctx, ClampSummaryDays(days))
	if err != nil {
		return nil, mapAuditError(err)
	}

	overview := &AuditOverview{Logs: logs, Summary: summary}
	if user, _, ok := summary.MostActiveUser(); ok {
		overview.MostActiveUser = user
	}
	return overview, nil
}

// ClampSummaryDays keeps the period within what the backend accepts.
func ClampSummaryDays(days int) int {
	if days <= 0 {
		return defaultSummaryDays
	}
	if days > maxSummaryDays {
		return maxSummaryDays
	}
	return days
}

func mapAuditError(err error) error {
	if apperrors.HasCode(err, apperrors.CodeForbidden) {
		return &apperrors.DomainError{Code: apperrors.CodeForbidden, Message: MsgAuditForbidden, HTTPStatus: http.StatusForbidden, Err: err}
	}
	return err
}
