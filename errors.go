package splitauth

import "fmt"

// Error codes surfaced in API responses. Codes are stable identifiers for
// clients; messages are for humans.
const (
	ErrCodeMissingField     = "missing_field"
	ErrCodeInvalidName      = "invalid_name"
	ErrCodeInvalidEmail     = "invalid_email"
	ErrCodeInvalidUsername  = "invalid_username"
	ErrCodeWeakPassword     = "weak_password"
	ErrCodePasswordTooLong  = "password_too_long"
	ErrCodePasswordMismatch = "password_mismatch"
	ErrCodeTermsRequired    = "terms_required"
	ErrCodeEmailExists      = "email_exists"
	ErrCodeUsernameTaken    = "username_taken"
	ErrCodeInvalidCreds     = "invalid_credentials"
	ErrCodeStoreFault       = "store_fault"
	ErrCodeInternal         = "internal_error"
)

// AuthError is a caller-visible authentication or validation error with a
// stable code and, where applicable, the offending field.
type AuthError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
	Field   string `json:"field,omitempty"`
}

func (e *AuthError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewAuthError creates an AuthError with the given code, message and field.
func NewAuthError(code, message, field string) *AuthError {
	return &AuthError{Code: code, Message: message, Field: field}
}

// FieldErrors accumulates independent validation violations so a registration
// response can surface every problem at once instead of stopping at the
// first one.
type FieldErrors []*AuthError

func (fe FieldErrors) Error() string {
	if len(fe) == 0 {
		return "no errors"
	}
	if len(fe) == 1 {
		return fe[0].Error()
	}
	return fmt.Sprintf("%s (and %d more)", fe[0].Error(), len(fe)-1)
}

// ErrInvalidCredentials is the single generic error returned for every local
// sign-in failure: unknown identifier, wrong password, or an account with no
// local password. Collapsing the three cases avoids user-enumeration leakage;
// the server log may distinguish them for operators.
var ErrInvalidCredentials = NewAuthError(ErrCodeInvalidCreds, "Invalid credentials", "")
