package dto

import (
	"testing"

	apperrors "github.com/spec-kit/doc-portal/pkg/util"
)

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	de := apperrors.ToDomainError(err)
	if de.Code != apperrors.CodeValidation {
		t.Fatalf("code = %s, want %s", de.Code, apperrors.CodeValidation)
	}
	fields, ok := de.Details["fields"].(map[string]string)
	if !ok {
		t.Fatalf("details = %#v", de.Details)
	}
	return fields
}

func TestValidateLoginForm(t *testing.T) {
	if err := Validate(&LoginForm{Email: "ada@example.com", Password: "x"}); err != nil {
		t.Fatalf("valid form rejected: %v", err)
	}
	fields := fieldsOf(t, Validate(&LoginForm{Email: "not-an-email"}))
	if fields["email"] != "Invalid email address" || fields["password"] != "Password is required" {
		t.Fatalf("fields = %v", fields)
	}
}

func TestValidateRegisterForm(t *testing.T) {
	ok := RegisterForm{Username: "ada", Email: "ada@example.com", Password: "Str0ng!pass", ConfirmPassword: "Str0ng!pass"}
	if err := Validate(&ok); err != nil {
		t.Fatalf("valid form rejected: %v", err)
	}

	cases := []struct {
		name  string
		form  RegisterForm
		field string
		want  string
	}{
		{"short username", RegisterForm{Username: "ad", Email: ok.Email, Password: ok.Password}, "username", "Username must be at least 3 characters"},
		{"short password", RegisterForm{Username: "ada", Email: ok.Email, Password: "S0!a"}, "password", "Password must be at least 8 characters"},
		{"no upper", RegisterForm{Username: "ada", Email: ok.Email, Password: "str0ng!pass"}, "password", "Password must contain at least one uppercase letter"},
		{"no digit", RegisterForm{Username: "ada", Email: ok.Email, Password: "Strong!pass"}, "password", "Password must contain at least one number"},
		{"no special", RegisterForm{Username: "ada", Email: ok.Email, Password: "Str0ngpass"}, "password", "Password must contain at least one special character"},
		{"mismatch", RegisterForm{Username: "ada", Email: ok.Email, Password: ok.Password, ConfirmPassword: "other"}, "confirm_password", "Passwords don't match"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fields := fieldsOf(t, Validate(&tc.form))
			if fields[tc.field] != tc.want {
				t.Fatalf("fields = %v", fields)
			}
		})
	}
}

func TestPasswordRulesRegistered(t *testing.T) {
	v := newValidator()
	for tag, input := range map[string]string{"has_upper": "abc", "has_lower": "ABC", "has_digit": "abc", "has_special": "abc1"} {
		if err := v.Var(input, tag); err == nil {
			t.Fatalf("%s accepted %q", tag, input)
		}
	}
	if err := v.Var("Ab1!", "has_upper,has_lower,has_digit,has_special"); err != nil {
		t.Fatalf("strong value rejected: %v", err)
	}
}
