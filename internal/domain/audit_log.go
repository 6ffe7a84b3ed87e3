package domain

import "time"

// AuditLog is one recorded user action.
type AuditLog struct {
	ID           string         `json:"id"`
	UserID       *string        `json:"user_id,omitempty"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   *string        `json:"resource_id,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
	IPAddress    *string        `json:"ip_address,omitempty"`
	UserAgent    *string        `json:"user_agent,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
}

// AuditLogFilter narrows an audit log listing. Empty fields are not sent.
type AuditLogFilter struct {
	Action       string
	ResourceType string
	Limit        int
}

// AuditSummary aggregates events over a trailing period.
type AuditSummary struct {
	Period       string         `json:"period"`
	TotalEvents  int            `json:"total_events"`
	Actions      map[string]int `json:"actions"`
	Resources    map[string]int `json:"resources"`
	UserActivity map[string]int `json:"user_activity"`
}

// MostActiveUser returns the username with the most events. Ties resolve alphabetically.
func (s AuditSummary) MostActiveUser() (string, int, bool) {
	best, count := "", 0
	for user, n := range s.UserActivity {
		if n > count || (n == count && user < best) {
			best, count = user, n
		}
	}
	return best, count, best != ""
}
