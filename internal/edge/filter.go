package edge

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/doc-portal/internal/observability"
)

// Paths the filter redirects to.
const (
	LandingPath = "/dashboard"
	LoginPath   = "/login"
)

var publicPaths = map[string]struct{}{
	"/":         {},
	"/login":    {},
	"/register": {},
}

var protectedRoots = []string{"/dashboard", "/documents", "/settings"}

// Decision is the filter's verdict for one navigation.
type Decision struct {
	Redirect bool
	Location string
}

// Decide is a pure function of the request path and cookie presence. It trusts presence only:
// an expired but present cookie passes, and the guard or backend catches it later.
func Decide(path string, hasCookie bool) Decision {
	path = normalize(path)
	if _, ok := publicPaths[path]; ok && hasCookie {
		return Decision{Redirect: true, Location: LandingPath}
	}
	if isProtected(path) && !hasCookie {
		return Decision{Redirect: true, Location: LoginPath}
	}
	return Decision{}
}

func isProtected(path string) bool {
	for _, root := range protectedRoots {
		if path == root || strings.HasPrefix(path, root+"/") {
			return true
		}
	}
	return false
}

func normalize(path string) string {
	if path == "" {
		return "/"
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			return "/"
		}
	}
	return path
}

// Middleware applies Decide before any page handler runs, using only the raw cookie.
func Middleware(cookieName string, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodGet && c.Method() != fiber.MethodHead {
			return c.Next()
		}
		decision := Decide(c.Path(), c.Cookies(cookieName) != "")
		if !decision.Redirect {
			return c.Next()
		}
		metrics.RecordRedirect(decision.Location)
		return c.Redirect(decision.Location, fiber.StatusTemporaryRedirect)
	}
}
