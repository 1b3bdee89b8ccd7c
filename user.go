package splitauth

import (
	"strings"
	"time"
)

// UserRecord is the sole persisted entity: one account, whether it was
// created by local registration, by a delegated-identity callback, or both.
type UserRecord struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`

	// Username is an optional secondary login handle, unique
	// (case-insensitive) when set.
	Username string `json:"username,omitempty"`

	// PasswordHash is set only for locally-registered accounts. An empty
	// hash means the account cannot authenticate locally and must use its
	// delegated identity.
	PasswordHash string `json:"password_hash,omitempty"`

	// ExternalID correlates to the third-party subject identifier for
	// accounts that have signed in through a delegated provider.
	ExternalID string `json:"external_id,omitempty"`

	AvatarURL   string    `json:"avatar_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	LastLoginAt time.Time `json:"last_login_at"`
}

// PublicUser is the sanitized view returned to callers. It never carries
// credential material.
type PublicUser struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Username    string    `json:"username,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	LastLoginAt time.Time `json:"last_login_at"`
}

// Sanitize returns the caller-facing view of the record.
func (u *UserRecord) Sanitize() PublicUser {
	return PublicUser{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Username:    u.Username,
		AvatarURL:   u.AvatarURL,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}

// CanAuthenticateLocally reports whether the record holds a password hash.
func (u *UserRecord) CanAuthenticateLocally() bool {
	return u.PasswordHash != ""
}

// NormalizeEmail lowercases and trims an email for storage and comparison.
// Email is the case-insensitive unique key across the store.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// findByEmail returns the index of the record with the given email, or -1.
func findByEmail(records []UserRecord, email string) int {
	for i := range records {
		if strings.EqualFold(records[i].Email, email) {
			return i
		}
	}
	return -1
}

// findByUsername returns the index of the record with the given username,
// or -1. Records without a username never match.
func findByUsername(records []UserRecord, username string) int {
	if username == "" {
		return -1
	}
	for i := range records {
		if records[i].Username != "" && strings.EqualFold(records[i].Username, username) {
			return i
		}
	}
	return -1
}

// findByIdentifier resolves a login identifier to a record index, matching
// email first, then username.
func findByIdentifier(records []UserRecord, identifier string) int {
	if idx := findByEmail(records, identifier); idx >= 0 {
		return idx
	}
	return findByUsername(records, identifier)
}
