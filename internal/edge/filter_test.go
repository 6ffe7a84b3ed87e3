package edge

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/doc-portal/internal/observability"
)

func TestDecide(t *testing.T) {
	cases := []struct {
		path      string
		hasCookie bool
		redirect  bool
		location  string
	}{
		{"/dashboard", false, true, "/login"},
		{"/login", true, true, "/dashboard"},
		{"/dashboard", true, false, ""},
		{"/", false, false, ""},
		{"/", true, true, "/dashboard"},
		{"/register", true, true, "/dashboard"},
		{"/register", false, false, ""},
		{"/login", false, false, ""},
		{"/documents/9f1c/share", false, true, "/login"},
		{"/documents", false, true, "/login"},
		{"/settings/profile", false, true, "/login"},
		{"/settings/", false, true, "/login"},
		{"/dashboard/", true, false, ""},
		{"/login/", true, true, "/dashboard"},
		{"/dashboardx", false, false, ""},
		{"/shared/abc123", false, false, ""},
		{"/shared/abc123", true, false, ""},
		{"/admin/audit-logs", false, false, ""},
		{"/health/live", false, false, ""},
		{"", true, true, "/dashboard"},
	}

	for _, tc := range cases {
		got := Decide(tc.path, tc.hasCookie)
		if got.Redirect != tc.redirect || got.Location != tc.location {
			t.Errorf("Decide(%q, %v) = %+v, want redirect=%v location=%q", tc.path, tc.hasCookie, got, tc.redirect, tc.location)
		}
	}
}

func TestMiddleware(t *testing.T) {
	metrics := observability.NewMetrics()
	app := fiber.New()
	app.Use(Middleware("auth_token", metrics))
	app.Get("/dashboard", func(c *fiber.Ctx) error { return c.SendString("dashboard") })
	app.Get("/login", func(c *fiber.Ctx) error { return c.SendString("login") })
	app.Post("/login", func(c *fiber.Ctx) error { return c.SendString("posted") })

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusTemporaryRedirect || resp.Header.Get("Location") != "/login" {
		t.Fatalf("status %d location %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	req = httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: "expired-but-present"})
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusTemporaryRedirect || resp.Header.Get("Location") != "/dashboard" {
		t.Fatalf("status %d location %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	req = httptest.NewRequest(http.MethodPost, "/login", nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: "tok"})
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("form posts must pass the filter, got %d", resp.StatusCode)
	}

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	if !strings.Contains(body, `portal_edge_redirects_total{location="/login"} 1`) || !strings.Contains(body, `portal_edge_redirects_total{location="/dashboard"} 1`) {
		t.Fatalf("redirect counters missing:\n%s", body)
	}
}
