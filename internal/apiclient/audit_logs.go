package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spec-kit/doc-portal/internal/domain"
)

// DefaultAuditLimit matches the page size the audit view requests.
const DefaultAuditLimit = 100

func (c *Client) ListAuditLogs(ctx context.Context, filter domain.AuditLogFilter) ([]domain.AuditLog, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultAuditLimit
	}
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	if filter.Action != "" {
		query.Set("action", filter.Action)
	}
	if filter.ResourceType != "" {
		query.Set("resource_type", filter.ResourceType)
	}

	var logs []domain.AuditLog
	if err := c.do(ctx, call{op: "audit_logs.list", method: http.MethodGet, path: "/api/audit-logs/", query: query}, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func (c *Client) AuditSummary(ctx context.Context, days int) (*domain.AuditSummary, error) {
	query := url.Values{}
	query.Set("days", strconv.Itoa(days))

	var summary domain.AuditSummary
	if err := c.do(ctx, call{op: "audit_logs.summary", method: http.MethodGet, path: "/api/audit-logs/summary", query: query}, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}
