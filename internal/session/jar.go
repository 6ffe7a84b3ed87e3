package session

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Jar is the durable home of the persisted credential record.
type Jar interface {
	Read() (string, bool)
	Write(token string, expires time.Time)
	Clear()
}

// CookieOptions shapes the credential cookie.
type CookieOptions struct {
	Name   string
	Path   string
	Secure bool
}

func (o CookieOptions) normalize() CookieOptions {
	if o.Name == "" {
		o.Name = "auth_token"
	}
	if o.Path == "" {
		o.Path = "/"
	}
	return o
}

// FiberJar keeps the credential in a same-site cookie on the current request/response pair.
// Reads after a write in the same request observe the written value.
type FiberJar struct {
	c       *fiber.Ctx
	opts    CookieOptions
	written *string
}

// NewFiberJar binds a jar to one request.
func NewFiberJar(c *fiber.Ctx, opts CookieOptions) *FiberJar {
	return &FiberJar{c: c, opts: opts.normalize()}
}

func (j *FiberJar) Read() (string, bool) {
	if j.written != nil {
		return *j.written, *j.written != ""
	}
	val := j.c.Cookies(j.opts.Name)
	return val, val != ""
}

func (j *FiberJar) Write(token string, expires time.Time) {
	j.written = &token
	j.c.Cookie(&fiber.Cookie{
		Name:     j.opts.Name,
		Value:    token,
		Path:     j.opts.Path,
		Expires:  expires,
		Secure:   j.opts.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func (j *FiberJar) Clear() {
	empty := ""
	j.written = &empty
	j.c.Cookie(&fiber.Cookie{
		Name:     j.opts.Name,
		Value:    "",
		Path:     j.opts.Path,
		Expires:  time.Unix(0, 0).UTC(),
		Secure:   j.opts.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

// MemoryJar is an in-process jar that drops records past their expiry, as a browser would.
type MemoryJar struct {
	mu      sync.Mutex
	now     func() time.Time
	token   string
	expires time.Time
}

// NewMemoryJar returns an empty jar; now defaults to time.Now.
func NewMemoryJar(now func() time.Time) *MemoryJar {
	if now == nil {
		now = time.Now
	}
	return &MemoryJar{now: now}
}

func (j *MemoryJar) Read() (string, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.token == "" {
		return "", false
	}
	if !j.expires.IsZero() && !j.now().Before(j.expires) {
		return "", false
	}
	return j.token, true
}

func (j *MemoryJar) Write(token string, expires time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.token, j.expires = token, expires
}

func (j *MemoryJar) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.token, j.expires = "", time.Time{}
}

// Expires returns the expiry of the stored record.
func (j *MemoryJar) Expires() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.expires
}
