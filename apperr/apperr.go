// Package apperr defines the typed, status-aware errors shared by the auth
// handlers. Every failure a handler can surface maps to one of the sentinel
// values below; upstream failures are wrapped so no internal detail leaks
// into a response body.
package apperr

import (
	"errors"
	"net/http"
)

// Error represents a typed, status-aware application error.
type Error struct {
	Code    string         `json:"code"`
	Message string         `json:"message,omitempty"`
	Status  int            `json:"-"`
	Fields  map[string]any `json:"fields,omitempty"`
	Err     error          `json:"-"`
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	return "error"
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is lets errors.Is match two *Error values by code, so wrapped copies of a
// sentinel still compare equal to it.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches err to a copy of base, optionally replacing the message.
func Wrap(err error, base *Error, message string) *Error {
	if err == nil {
		return nil
	}
	if base == nil {
		base = ErrInternal
	}
	copy := *base
	if message != "" {
		copy.Message = message
	}
	copy.Err = err
	return &copy
}

// WithFields returns a copy of base carrying extra response fields.
func WithFields(base *Error, fields map[string]any) *Error {
	if base == nil {
		return nil
	}
	copy := *base
	copy.Fields = fields
	return &copy
}

func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e, true
	}
	return nil, false
}

func Status(err error) int {
	if e, ok := As(err); ok && e.Status != 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}

func Code(err error) string {
	if e, ok := As(err); ok && e.Code != "" {
		return e.Code
	}
	return "internal_error"
}

// Payload builds the JSON body for an error response. Untyped errors are
// reported as a generic internal_error with no detail.
func Payload(err error) map[string]any {
	if err == nil {
		return map[string]any{}
	}
	if e, ok := As(err); ok {
		payload := map[string]any{
			"code":    e.Code,
			"message": e.Error(),
		}
		if e.Status >= http.StatusInternalServerError {
			// never leak store/mail/provider internals
			payload["message"] = "internal server error"
		}
		if len(e.Fields) > 0 {
			payload["fields"] = e.Fields
		}
		return payload
	}
	return map[string]any{
		"code":    "internal_error",
		"message": "internal server error",
	}
}

var (
	ErrBadRequest = New("bad_request", http.StatusBadRequest, "")
	ErrValidation = New("validation_error", http.StatusBadRequest, "")
	ErrEmptyBody  = New("empty_body", http.StatusBadRequest, "request body is empty")
	ErrInternal   = New("internal_error", http.StatusInternalServerError, "")
	ErrDatabase   = New("database_error", http.StatusInternalServerError, "")

	// credential verification
	ErrNoAccount          = New("account_not_found", http.StatusBadRequest, "no account registered with this email")
	ErrWrongPassword      = New("wrong_password", http.StatusBadRequest, "password does not match")
	ErrInvalidCredentials = New("invalid_credentials", http.StatusBadRequest, "invalid email or password")

	// signup / verification
	ErrEmailRegistered  = New("email_registered", http.StatusBadRequest, "email is already registered")
	ErrInvalidToken     = New("invalid_token", http.StatusBadRequest, "invalid email or verification code")
	ErrTokenExpired     = New("token_expired", http.StatusBadRequest, "verification code has expired")
	ErrSignupNotAllowed = New("signup_not_allowed", http.StatusBadRequest, "email has not requested verification")

	// federation
	ErrProviderMismatch = New("provider_mismatch", http.StatusBadRequest, "account was registered with another login method")
	ErrUnknownProvider  = New("unknown_provider", http.StatusBadRequest, "unknown oauth provider")
	ErrExchangeFailed   = New("exchange_failed", http.StatusBadRequest, "oauth code exchange failed")

	// credential artifacts
	ErrCredentialsMissing = New("credentials_missing", http.StatusUnauthorized, "no login info")
	ErrCredentialsInvalid = New("credentials_invalid", http.StatusUnauthorized, "not authorized")
	ErrCredentialsExpired = New("credentials_expired", http.StatusUnauthorized, "login has expired")
)
