package splitauth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// handleRegister processes local registration. Every field-level violation is
// reported together; uniqueness is checked inside the store's critical
// section so two racing registrations for the same email cannot both win.
func (g *Gateway) handleRegister(w http.ResponseWriter, r *http.Request) {
	reg, parseErr := parseRegistration(r)
	if parseErr != nil {
		writeAuthError(w, http.StatusBadRequest, parseErr)
		return
	}

	if errs := g.Policy.Validate(reg); len(errs) > 0 {
		writeFieldErrors(w, errs)
		return
	}

	// Hash outside the critical section: bcrypt is the slowest thing this
	// handler does and nothing in it depends on store state.
	passwordHash, err := g.Hasher.Hash(reg.Password)
	if err != nil {
		g.logger().Error("hashing password failed", "err", err)
		writeAuthError(w, http.StatusInternalServerError,
			NewAuthError(ErrCodeInternal, "Registration failed", ""))
		return
	}

	var created UserRecord
	err = g.Store.Update(func(records []UserRecord) ([]UserRecord, error) {
		if findByEmail(records, reg.Email) >= 0 {
			return nil, NewAuthError(ErrCodeEmailExists, "An account with this email already exists", "email")
		}
		if findByUsername(records, reg.Username) >= 0 {
			return nil, NewAuthError(ErrCodeUsernameTaken, "Username is already taken", "username")
		}

		now := time.Now().UTC()
		created = UserRecord{
			ID:           uuid.NewString(),
			DisplayName:  strings.TrimSpace(reg.DisplayName),
			Email:        NormalizeEmail(reg.Email),
			Username:     reg.Username,
			PasswordHash: passwordHash,
			CreatedAt:    now,
			LastLoginAt:  now,
		}
		return append(records, created), nil
	})
	if err != nil {
		var authErr *AuthError
		if errors.As(err, &authErr) {
			writeAuthError(w, http.StatusConflict, authErr)
			return
		}
		// Write fault: nothing was created; report generically with no
		// internals in the body.
		g.logger().Error("saving user store failed", "err", err)
		writeAuthError(w, http.StatusInternalServerError,
			NewAuthError(ErrCodeStoreFault, "Registration failed", ""))
		return
	}

	g.logger().Info("user registered", "user_id", created.ID)
	writeJSON(w, http.StatusCreated, map[string]any{"user": created.Sanitize()})
}

// parseRegistration accepts either a JSON body or a classic urlencoded form,
// since the calculator's sign-up page submits both depending on variant.
func parseRegistration(r *http.Request) (*Registration, *AuthError) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseForm(); err != nil {
			return nil, NewAuthError("parse_error", "Error parsing form", "")
		}
		agree := r.FormValue("agreeToTerms")
		return &Registration{
			DisplayName:  r.FormValue("name"),
			Username:     r.FormValue("username"),
			Email:        r.FormValue("email"),
			Password:     r.FormValue("password"),
			Confirm:      r.FormValue("confirm"),
			AgreeToTerms: agree == "on" || agree == "true",
		}, nil
	}

	var reg Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		return nil, NewAuthError("parse_error", "Invalid post body", "")
	}
	return &reg, nil
}
