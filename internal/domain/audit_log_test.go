package domain

import "testing"

func TestMostActiveUser(t *testing.T) {
	summary := AuditSummary{UserActivity: map[string]int{"carol": 4, "alice": 9, "bob": 9}}
	user, count, ok := summary.MostActiveUser()
	if !ok || user != "alice" || count != 9 {
		t.Fatalf("MostActiveUser = %q, %d, %v", user, count, ok)
	}

	if _, _, ok := (AuditSummary{}).MostActiveUser(); ok {
		t.Fatalf("empty activity should report no user")
	}
}
