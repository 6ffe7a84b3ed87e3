package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/spec-kit/doc-portal/pkg/util"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"form", "query", "json"} {
			if name := strings.Split(f.Tag.Get(tag), ",")[0]; name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	rules := map[string]func(rune) bool{
		"has_upper":   unicode.IsUpper,
		"has_lower":   unicode.IsLower,
		"has_digit":   unicode.IsDigit,
		"has_special": func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) },
	}
	for tag, pred := range rules {
		pred := pred
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return strings.IndexFunc(fl.Field().String(), pred) >= 0
		}); err != nil {
			panic(fmt.Sprintf("register %s validation: %v", tag, err))
		}
	}
	return v
}

// Validate checks a form and returns a VALIDATION_FAILED error whose message is the first
// problem and whose details carry one message per field.
func Validate(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	fields := make(map[string]string, len(verrs))
	first := ""
	for _, fe := range verrs {
		msg := fieldMessage(fe)
		if _, seen := fields[fe.Field()]; !seen {
			fields[fe.Field()] = msg
		}
		if first == "" {
			first = msg
		}
	}
	return apperrors.NewValidationError(first, map[string]any{"fields": fields})
}

func fieldMessage(fe validator.FieldError) string {
	label := fieldLabel(fe.Field())
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return "Invalid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return label + " must be at least " + fe.Param() + " characters"
		}
		return label + " must be at least " + fe.Param()
	case "max":
		return label + " must be at most " + fe.Param()
	case "eqfield":
		return "Passwords don't match"
	case "has_upper":
		return "Password must contain at least one uppercase letter"
	case "has_lower":
		return "Password must contain at least one lowercase letter"
	case "has_digit":
		return "Password must contain at least one number"
	case "has_special":
		return "Password must contain at least one special character"
	}
	return label + " is invalid"
}

func fieldLabel(name string) string {
	name = strings.ReplaceAll(name, "_", " ")
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
