package dto

// LoginForm is posted by the sign-in page.
type LoginForm struct {
	Email    string `form:"email" json:"email" validate:"required,email"`
	Password string `form:"password" json:"password" validate:"required"`
}

// RegisterForm is posted by the sign-up page. ConfirmPassword is optional for API clients
// and checked only when sent.
type RegisterForm struct {
	Username        string `form:"username" json:"username" validate:"required,min=3"`
	Email           string `form:"email" json:"email" validate:"required,email"`
	Password        string `form:"password" json:"password" validate:"required,min=8,has_upper,has_lower,has_digit,has_special"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password" validate:"omitempty,eqfield=Password"`
}

// ShareLinkForm creates a share link; ExpiresAt is RFC3339, datetime-local or a date.
type ShareLinkForm struct {
	ExpiresAt string `form:"expires_at" json:"expires_at"`
}

// AuditQuery filters the audit view.
type AuditQuery struct {
	Action       string `query:"action"`
	ResourceType string `query:"resource_type"`
	Limit        int    `query:"limit" validate:"omitempty,min=1,max=1000"`
	Days         int    `query:"days" validate:"omitempty,min=1"`
}
