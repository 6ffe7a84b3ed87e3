package util

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced to callers.
const (
	CodeValidation       = "VALIDATION_FAILED"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	CodeUnsupportedMedia = "UNSUPPORTED_MEDIA_TYPE"
	CodeRateLimited      = "RATE_LIMITED"
	CodeUpstream         = "UPSTREAM_FAILURE"
	CodeInternal         = "INTERNAL_ERROR"
)

// Messages the backend contract pins for specific statuses.
const (
	MsgPayloadTooLarge  = "File size exceeds the server limit"
	MsgUnsupportedMedia = "File type not allowed by the server"
	MsgNetwork          = "Network error. Please try again."
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewRateLimited(message string) error {
	return NewDomainError(CodeRateLimited, message, http.StatusTooManyRequests, nil)
}

// NewUpstreamError reports a backend that could not be reached or answered with a 5xx.
func NewUpstreamError(message string, err error) error {
	if message == "" {
		message = MsgNetwork
	}
	return &DomainError{
		Code:       CodeUpstream,
		Message:    message,
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// FromStatus maps a backend response status onto the error taxonomy.
// message is the backend's detail text and may be empty.
func FromStatus(status int, message string, details map[string]any) error {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		if message == "" {
			message = "Validation failed"
		}
		return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
	case http.StatusUnauthorized:
		if message == "" {
			message = "Not authenticated"
		}
		return NewDomainError(CodeUnauthorized, message, status, details)
	case http.StatusForbidden:
		if message == "" {
			message = "Forbidden"
		}
		return NewDomainError(CodeForbidden, message, status, details)
	case http.StatusNotFound:
		if message == "" {
			message = "Not found"
		}
		return NewDomainError(CodeNotFound, message, status, details)
	case http.StatusRequestEntityTooLarge:
		return NewDomainError(CodePayloadTooLarge, MsgPayloadTooLarge, status, details)
	case http.StatusUnsupportedMediaType:
		return NewDomainError(CodeUnsupportedMedia, MsgUnsupportedMedia, status, details)
	case http.StatusTooManyRequests:
		if message == "" {
			message = "Too many requests. Please try again later."
		}
		return NewDomainError(CodeRateLimited, message, status, details)
	}
	if message == "" {
		message = fmt.Sprintf("backend responded with status %d", status)
	}
	return &DomainError{
		Code:       CodeUpstream,
		Message:    message,
		HTTPStatus: http.StatusBadGateway,
		Details:    details,
		Err:        fmt.Errorf("backend status %d", status),
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if de, ok := NewInternalError(err).(*DomainError); ok {
		return de
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}

// HasCode reports whether err carries the given DomainError code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// StatusOf returns the HTTP status carried by err, or 0 when it is not a DomainError.
func StatusOf(err error) int {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.HTTPStatus
	}
	return 0
}
