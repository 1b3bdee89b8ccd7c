package splitauth

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Registration holds the raw fields of a sign-up request before validation.
type Registration struct {
	DisplayName  string `json:"name"`
	Username     string `json:"username,omitempty"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Confirm      string `json:"confirm"`
	AgreeToTerms bool   `json:"agreeToTerms"`
}

// RegistrationPolicy defines the field-level rules enforced before any record
// is created. One canonical rule set applies everywhere: there is no separate
// client-side minimum.
type RegistrationPolicy struct {
	MinDisplayNameLength int
	MaxDisplayNameLength int
	MinUsernameLength    int
	MaxUsernameLength    int
	MinPasswordLength    int

	// MaxPasswordLength is in bytes, bounded by bcrypt's 72-byte input limit.
	MaxPasswordLength int
	RequireTerms      bool
}

// DefaultRegistrationPolicy returns the canonical rules: display name 2-60,
// optional username 3-30 word characters, password 8-72.
func DefaultRegistrationPolicy() RegistrationPolicy {
	return RegistrationPolicy{
		MinDisplayNameLength: 2,
		MaxDisplayNameLength: 60,
		MinUsernameLength:    3,
		MaxUsernameLength:    30,
		MinPasswordLength:    8,
		MaxPasswordLength:    72,
		RequireTerms:         true,
	}
}

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
)

// Validate checks every rule independently and returns all violations
// together, so a form can mark every bad field in one round trip. A nil
// return means the registration is well-formed; uniqueness against the store
// is checked separately at creation time.
func (p RegistrationPolicy) Validate(reg *Registration) FieldErrors {
	var errs FieldErrors

	name := strings.TrimSpace(reg.DisplayName)
	if name == "" {
		errs = append(errs, NewAuthError(ErrCodeMissingField, "Name is required", "name"))
	} else if n := utf8.RuneCountInString(name); n < p.MinDisplayNameLength || n > p.MaxDisplayNameLength {
		errs = append(errs, NewAuthError(ErrCodeInvalidName,
			fmt.Sprintf("Name must be %d-%d characters", p.MinDisplayNameLength, p.MaxDisplayNameLength), "name"))
	}

	if reg.Username != "" {
		if len(reg.Username) < p.MinUsernameLength || len(reg.Username) > p.MaxUsernameLength || !usernameRegex.MatchString(reg.Username) {
			errs = append(errs, NewAuthError(ErrCodeInvalidUsername,
				fmt.Sprintf("Username must be %d-%d characters and contain only letters, numbers, and underscores",
					p.MinUsernameLength, p.MaxUsernameLength), "username"))
		}
	}

	if strings.TrimSpace(reg.Email) == "" {
		errs = append(errs, NewAuthError(ErrCodeMissingField, "Email is required", "email"))
	} else if !emailRegex.MatchString(strings.TrimSpace(reg.Email)) {
		errs = append(errs, NewAuthError(ErrCodeInvalidEmail, "Invalid email format", "email"))
	}

	if reg.Password == "" {
		errs = append(errs, NewAuthError(ErrCodeMissingField, "Password is required", "password"))
	} else if len(reg.Password) < p.MinPasswordLength {
		errs = append(errs, NewAuthError(ErrCodeWeakPassword,
			fmt.Sprintf("Password must be at least %d characters", p.MinPasswordLength), "password"))
	} else if p.MaxPasswordLength > 0 && len(reg.Password) > p.MaxPasswordLength {
		errs = append(errs, NewAuthError(ErrCodePasswordTooLong,
			fmt.Sprintf("Password must be at most %d bytes", p.MaxPasswordLength), "password"))
	}

	if reg.Confirm != reg.Password {
		errs = append(errs, NewAuthError(ErrCodePasswordMismatch, "Passwords do not match", "confirm"))
	}

	if p.RequireTerms && !reg.AgreeToTerms {
		errs = append(errs, NewAuthError(ErrCodeTermsRequired, "You must agree to the terms", "agreeToTerms"))
	}

	return errs
}

// DetectIdentifierType reports whether a login identifier looks like an
// email address or a username.
func DetectIdentifierType(identifier string) string {
	if strings.Contains(identifier, "@") {
		return "email"
	}
	return "username"
}
