package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/doc-portal/internal/api/dto"
	"github.com/spec-kit/doc-portal/internal/ratelimit"
	"github.com/spec-kit/doc-portal/internal/session"
	apperrors "github.com/spec-kit/doc-portal/pkg/util"
)

// AuthHandler serves the public pages and the sign-in, sign-up and sign-out forms.
type AuthHandler struct {
	limiter *ratelimit.LoginLimiter
}

// NewAuthHandler constructs handler. A nil limiter disables throttling.
func NewAuthHandler(limiter *ratelimit.LoginLimiter) *AuthHandler {
	return &AuthHandler{limiter: limiter}
}

// Home GET /.
func (h *AuthHandler) Home(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": dto.Page{Page: "home", Links: []string{session.LoginPath, "/register"}}})
}

// LoginPage GET /login.
func (h *AuthHandler) LoginPage(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": dto.Page{Page: "login", Links: []string{"/register"}}})
}

// RegisterPage GET /register.
func (h *AuthHandler) RegisterPage(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": dto.Page{Page: "register", Links: []string{session.LoginPath}}})
}

// Login POST /login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var form dto.LoginForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(&form); err != nil {
		return err
	}

	ctx := c.UserContext()
	if err := h.limiter.Allow(ctx, c.IP(), form.Email); err != nil {
		return err
	}
	if err := StoreFrom(c).Login(ctx, form.Email, form.Password); err != nil {
		return err
	}
	h.limiter.Reset(ctx, c.IP(), form.Email)
	return navigate(c, session.LandingPath)
}

// Register POST /register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var form dto.RegisterForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(&form); err != nil {
		return err
	}
	if err := StoreFrom(c).Register(c.UserContext(), form.Username, form.Email, form.Password); err != nil {
		return err
	}
	return navigate(c, session.LoginPath)
}

// Logout POST /logout. Always ends on the login page.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	StoreFrom(c).Logout(c.UserContext())
	return navigate(c, session.LoginPath)
}

// Settings GET /settings. The identity is revalidated before it is shown; a 401 or 403
// ends the session.
func (h *AuthHandler) Settings(c *fiber.Ctx) error {
	store := StoreFrom(c)
	if err := store.Refresh(c.UserContext()); err != nil {
		if !store.IsAuthenticated() {
			return c.Redirect(session.LoginPath, fiber.StatusSeeOther)
		}
		return err
	}
	snap := store.Snapshot()
	return c.JSON(fiber.Map{"data": dto.Settings{User: dto.NewUserView(snap.Identity), ExpiresAt: snap.ExpiresAt}})
}
