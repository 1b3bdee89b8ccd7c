package splitauth

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Assertion is an inbound third-party profile assertion: what a delegated
// identity provider tells us about the person who just authenticated.
type Assertion struct {
	ExternalID  string `json:"external_id"`
	DisplayName string `json:"name"`
	Email       string `json:"email"`
	AvatarURL   string `json:"avatar_url"`
}

// Reconciler merges delegated-identity assertions with the store. This is the
// one true merge operation in the system: lookup is by case-insensitive
// email, replaying the same assertion refreshes metadata without creating a
// second record, and an existing password hash is never cleared or set.
type Reconciler struct {
	Store  Store
	Logger *slog.Logger

	// Now is overridable in tests. Nil means time.Now.
	Now func() time.Time
}

func (rc *Reconciler) now() time.Time {
	if rc.Now != nil {
		return rc.Now()
	}
	return time.Now().UTC()
}

func (rc *Reconciler) logger() *slog.Logger {
	if rc.Logger != nil {
		return rc.Logger
	}
	return slog.Default()
}

// Reconcile creates or updates the user record matching the assertion's
// email and returns the resulting record. The whole lookup-merge-save runs
// inside the store's critical section so back-to-back callbacks for the same
// user cannot create duplicates.
func (rc *Reconciler) Reconcile(a Assertion) (*UserRecord, error) {
	if a.Email == "" {
		return nil, fmt.Errorf("assertion has no email")
	}
	if a.ExternalID == "" {
		return nil, fmt.Errorf("assertion has no subject identifier")
	}

	var out UserRecord
	err := rc.Store.Update(func(records []UserRecord) ([]UserRecord, error) {
		now := rc.now()
		idx := findByEmail(records, a.Email)
		if idx >= 0 {
			// Existing account: refresh profile fields to the latest
			// assertion. ID, CreatedAt and PasswordHash are preserved.
			rec := &records[idx]
			if a.DisplayName != "" {
				rec.DisplayName = a.DisplayName
			}
			rec.AvatarURL = a.AvatarURL
			rec.ExternalID = a.ExternalID
			rec.LastLoginAt = now
			out = *rec
			rc.logger().Info("reconciled delegated identity",
				"user_id", rec.ID, "external_id", a.ExternalID, "created", false)
			return records, nil
		}

		rec := UserRecord{
			ID:          uuid.NewString(),
			DisplayName: a.DisplayName,
			Email:       NormalizeEmail(a.Email),
			ExternalID:  a.ExternalID,
			AvatarURL:   a.AvatarURL,
			CreatedAt:   now,
			LastLoginAt: now,
		}
		out = rec
		rc.logger().Info("reconciled delegated identity",
			"user_id", rec.ID, "external_id", a.ExternalID, "created", true)
		return append(records, rec), nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
