package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

func TestFiberJarCookieAttributes(t *testing.T) {
	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	app := fiber.New()
	app.Get("/set", func(c *fiber.Ctx) error {
		jar := NewFiberJar(c, CookieOptions{Secure: true})
		if _, ok := jar.Read(); ok {
			t.Errorf("unexpected incoming cookie")
		}
		jar.Write("tok", expires)
		if token, ok := jar.Read(); !ok || token != "tok" {
			t.Errorf("read after write = %q %v", token, ok)
		}
		return c.SendStatus(http.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/set", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	cookies := resp.Cookies()
	if len(cookies) != 1 {
		t.Fatalf("cookies = %v", cookies)
	}
	cookie := cookies[0]
	if cookie.Name != "auth_token" || cookie.Value != "tok" || cookie.Path != "/" {
		t.Fatalf("cookie = %+v", cookie)
	}
	if !cookie.Secure || !cookie.HttpOnly || cookie.SameSite != http.SameSiteStrictMode {
		t.Fatalf("cookie flags = secure:%v httponly:%v samesite:%v", cookie.Secure, cookie.HttpOnly, cookie.SameSite)
	}
	if !cookie.Expires.Equal(expires) {
		t.Fatalf("expires = %v, want %v", cookie.Expires, expires)
	}
}

func TestFiberJarReadAndClear(t *testing.T) {
	app := fiber.New()
	app.Get("/clear", func(c *fiber.Ctx) error {
		jar := NewFiberJar(c, CookieOptions{Name: "auth_token"})
		token, ok := jar.Read()
		if !ok || token != "incoming" {
			t.Errorf("read = %q %v", token, ok)
		}
		jar.Clear()
		if _, ok := jar.Read(); ok {
			t.Errorf("read after clear still present")
		}
		return c.SendStatus(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/clear", nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: "incoming"})
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	cookies := resp.Cookies()
	if len(cookies) != 1 || cookies[0].Value != "" || cookies[0].Expires.After(time.Unix(1, 0)) {
		t.Fatalf("expected expired empty cookie, got %+v", cookies)
	}
}
