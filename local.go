package splitauth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
)

// errSignInFailed is internal; every sign-in failure leaves the handler as
// the one generic ErrInvalidCredentials.
var errSignInFailed = errors.New("sign in failed")

type signInRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

// handleLogin processes a local credential sign-in. An unknown identifier, a
// wrong password, and a delegated-only account all produce the identical
// generic error so the endpoint cannot be used to enumerate accounts.
func (g *Gateway) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, parseErr := parseSignIn(r)
	if parseErr != nil {
		writeAuthError(w, http.StatusBadRequest, parseErr)
		return
	}

	user, err := g.signIn(req.Identifier, req.Password)
	if err != nil {
		if errors.Is(err, errSignInFailed) {
			writeAuthError(w, http.StatusUnauthorized, ErrInvalidCredentials)
			return
		}
		g.logger().Error("sign-in store access failed", "err", err)
		writeAuthError(w, http.StatusInternalServerError,
			NewAuthError(ErrCodeStoreFault, "Sign in failed", ""))
		return
	}

	if err := g.Sessions.Establish(w, r, user, req.RememberMe); err != nil {
		g.logger().Error("establishing session failed", "err", err)
		writeAuthError(w, http.StatusInternalServerError,
			NewAuthError(ErrCodeInternal, "Sign in failed", ""))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user.Sanitize()})
}

// signIn verifies credentials and, on success, advances the record's
// LastLoginAt inside the store's critical section. On failure the store is
// left untouched and the reason is logged for operators only.
func (g *Gateway) signIn(identifier, password string) (*UserRecord, error) {
	if identifier == "" || password == "" {
		g.logger().Info("sign-in rejected", "reason", "missing fields")
		return nil, errSignInFailed
	}

	var out UserRecord
	err := g.Store.Update(func(records []UserRecord) ([]UserRecord, error) {
		idx := findByIdentifier(records, identifier)
		if idx < 0 {
			g.logger().Info("sign-in rejected",
				"reason", "unknown identifier",
				"identifier_type", DetectIdentifierType(identifier))
			return nil, errSignInFailed
		}
		rec := &records[idx]
		if !rec.CanAuthenticateLocally() {
			g.logger().Info("sign-in rejected",
				"reason", "account has no local password", "user_id", rec.ID)
			return nil, errSignInFailed
		}
		if !g.Hasher.Verify(password, rec.PasswordHash) {
			g.logger().Info("sign-in rejected",
				"reason", "password mismatch", "user_id", rec.ID)
			return nil, errSignInFailed
		}

		rec.LastLoginAt = time.Now().UTC()
		out = *rec
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	g.logger().Info("user signed in", "user_id", out.ID)
	return &out, nil
}

// parseSignIn accepts a JSON body or an urlencoded form. The form variant
// also accepts "email" as the identifier field name, matching the sign-in
// page's markup.
func parseSignIn(r *http.Request) (*signInRequest, *AuthError) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			return nil, NewAuthError("parse_error", "Error parsing form", "")
		}
		identifier := r.FormValue("identifier")
		if identifier == "" {
			identifier = r.FormValue("email")
		}
		remember := r.FormValue("rememberMe")
		return &signInRequest{
			Identifier: identifier,
			Password:   r.FormValue("password"),
			RememberMe: remember == "on" || remember == "true",
		}, nil
	}

	var body struct {
		Identifier string `json:"identifier"`
		Email      string `json:"email"`
		Password   string `json:"password"`
		RememberMe bool   `json:"rememberMe"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, NewAuthError("parse_error", "Invalid post body", "")
	}
	identifier := body.Identifier
	if identifier == "" {
		identifier = body.Email
	}
	return &signInRequest{
		Identifier: identifier,
		Password:   body.Password,
		RememberMe: body.RememberMe,
	}, nil
}
