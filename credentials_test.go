package splitauth_test

import (
	"strings"
	"testing"

	sa "github.com/tabsplit/splitauth"
)

func validRegistration() sa.Registration {
	return sa.Registration{
		DisplayName:  "Ann",
		Email:        "ann@x.com",
		Password:     "longenough1",
		Confirm:      "longenough1",
		AgreeToTerms: true,
	}
}

func TestValidateRegistration(t *testing.T) {
	policy := sa.DefaultRegistrationPolicy()

	tests := []struct {
		name          string
		mutate        func(*sa.Registration)
		expectedCodes []string
	}{
		{
			name:   "valid",
			mutate: func(r *sa.Registration) {},
		},
		{
			name:   "valid with username",
			mutate: func(r *sa.Registration) { r.Username = "ann_42" },
		},
		{
			name:          "missing name",
			mutate:        func(r *sa.Registration) { r.DisplayName = "  " },
			expectedCodes: []string{sa.ErrCodeMissingField},
		},
		{
			name:          "name too short",
			mutate:        func(r *sa.Registration) { r.DisplayName = "A" },
			expectedCodes: []string{sa.ErrCodeInvalidName},
		},
		{
			name: "name too long",
			mutate: func(r *sa.Registration) {
				for len(r.DisplayName) <= 60 {
					r.DisplayName += "x"
				}
			},
			expectedCodes: []string{sa.ErrCodeInvalidName},
		},
		{
			// 21 runes but 63 bytes; length limits count runes.
			name:   "multibyte name within rune bounds",
			mutate: func(r *sa.Registration) { r.DisplayName = strings.Repeat("名", 21) },
		},
		{
			name:          "multibyte name over rune bounds",
			mutate:        func(r *sa.Registration) { r.DisplayName = strings.Repeat("名", 61) },
			expectedCodes: []string{sa.ErrCodeInvalidName},
		},
		{
			name:          "bad email shape",
			mutate:        func(r *sa.Registration) { r.Email = "not-an-email" },
			expectedCodes: []string{sa.ErrCodeInvalidEmail},
		},
		{
			name: "password below canonical minimum",
			mutate: func(r *sa.Registration) {
				r.Password = "seven77"
				r.Confirm = "seven77"
			},
			expectedCodes: []string{sa.ErrCodeWeakPassword},
		},
		{
			name: "password over hash input limit",
			mutate: func(r *sa.Registration) {
				long := strings.Repeat("x", 73)
				r.Password = long
				r.Confirm = long
			},
			expectedCodes: []string{sa.ErrCodePasswordTooLong},
		},
		{
			name:          "confirm mismatch",
			mutate:        func(r *sa.Registration) { r.Confirm = "different11" },
			expectedCodes: []string{sa.ErrCodePasswordMismatch},
		},
		{
			name:          "terms not agreed",
			mutate:        func(r *sa.Registration) { r.AgreeToTerms = false },
			expectedCodes: []string{sa.ErrCodeTermsRequired},
		},
		{
			name:          "username with bad charset",
			mutate:        func(r *sa.Registration) { r.Username = "ann-42!" },
			expectedCodes: []string{sa.ErrCodeInvalidUsername},
		},
		{
			name:          "username too short",
			mutate:        func(r *sa.Registration) { r.Username = "ab" },
			expectedCodes: []string{sa.ErrCodeInvalidUsername},
		},
		{
			name: "all violations reported together",
			mutate: func(r *sa.Registration) {
				r.DisplayName = ""
				r.Email = "nope"
				r.Password = "short"
				r.Confirm = "other"
				r.AgreeToTerms = false
			},
			expectedCodes: []string{
				sa.ErrCodeMissingField,
				sa.ErrCodeInvalidEmail,
				sa.ErrCodeWeakPassword,
				sa.ErrCodePasswordMismatch,
				sa.ErrCodeTermsRequired,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := validRegistration()
			tt.mutate(&reg)

			errs := policy.Validate(&reg)
			if len(errs) != len(tt.expectedCodes) {
				t.Fatalf("Expected %d errors, got %d: %v", len(tt.expectedCodes), len(errs), errs)
			}

			got := map[string]bool{}
			for _, e := range errs {
				got[e.Code] = true
			}
			for _, code := range tt.expectedCodes {
				if !got[code] {
					t.Errorf("Expected error code %q, got: %v", code, errs)
				}
			}
		})
	}
}

func TestDetectIdentifierType(t *testing.T) {
	if got := sa.DetectIdentifierType("ann@x.com"); got != "email" {
		t.Errorf("Expected email, got %q", got)
	}
	if got := sa.DetectIdentifierType("ann_42"); got != "username" {
		t.Errorf("Expected username, got %q", got)
	}
}
