package splitauth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

type contextKey string

const userIDContextKey contextKey = "loggedInUserId"

// Middleware resolves the signed-in user for downstream handlers. The scs
// session is consulted first; the Authorization header and the JWT mirror
// cookie are fallbacks so API-style callers can authenticate without a
// session cookie.
type Middleware struct {
	Sessions *Sessions

	// AuthTokenHeaderName defaults to "Authorization".
	AuthTokenHeaderName string

	// LoginURL, when set, makes RequireUser redirect anonymous requests to
	// it with the original path in CallbackURLParam. Empty means a bare 401.
	LoginURL         string
	CallbackURLParam string
}

func (m *Middleware) headerName() string {
	if m.AuthTokenHeaderName != "" {
		return m.AuthTokenHeaderName
	}
	return "Authorization"
}

func (m *Middleware) callbackParam() string {
	if m.CallbackURLParam != "" {
		return m.CallbackURLParam
	}
	return "callbackURL"
}

// GetLoggedInUserID returns the user id resolved by ExtractUser or
// RequireUser for this request, or "".
func GetLoggedInUserID(r *http.Request) string {
	if v, ok := r.Context().Value(userIDContextKey).(string); ok {
		return v
	}
	return ""
}

// ExtractUser resolves the current user, if any, into the request context.
// It never rejects the request; pair it with handlers that treat an empty
// user id as anonymous.
func (m *Middleware) ExtractUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, m.withUserID(r, m.resolveUserID(r)))
	})
}

// RequireUser resolves the current user and rejects anonymous requests,
// either with a redirect to the login page or a 401.
func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := m.resolveUserID(r)
		if userID == "" {
			if m.LoginURL != "" {
				encoded := strings.ReplaceAll(url.QueryEscape(r.URL.Path), "+", "%20")
				http.Redirect(w, r,
					fmt.Sprintf("%s?%s=%s", m.LoginURL, m.callbackParam(), encoded),
					http.StatusFound)
				return
			}
			http.Error(w, `{"error": "Authentication required"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, m.withUserID(r, userID))
	})
}

func (m *Middleware) resolveUserID(r *http.Request) string {
	// Authoritative source first.
	if userID := m.Sessions.CurrentUserID(r); userID != "" {
		return userID
	}

	// Fallback: bearer header, then the mirror cookie.
	tokens := r.Header.Values(m.headerName())
	for i, token := range tokens {
		tokens[i] = strings.TrimPrefix(token, "Bearer ")
	}
	for _, cookie := range r.Cookies() {
		// Equivalent of r.CookiesNamed, which needs Go 1.23+.
		if cookie.Name == m.Sessions.authCookieName() && cookie.Value != "" {
			tokens = append(tokens, cookie.Value)
		}
	}
	for _, token := range tokens {
		if userID, err := m.Sessions.VerifyToken(token); err == nil && userID != "" {
			return userID
		}
	}
	return ""
}

func (m *Middleware) withUserID(r *http.Request, userID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userIDContextKey, userID))
}
