package splitauth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/oauth2"
)

// Gateway is the authentication surface mounted in front of the bill
// splitting app. It owns registration, local sign-in, delegated-identity
// callbacks, session checks and sign-out.
type Gateway struct {
	Store    Store
	Sessions *Sessions
	Hasher   Hasher
	Policy   RegistrationPolicy
	Logger   *slog.Logger

	reconciler *Reconciler
	router     *mux.Router
}

// New builds a gateway over the given store and session manager with the
// default registration policy.
func New(store Store, sessions *Sessions) *Gateway {
	g := &Gateway{
		Store:    store,
		Sessions: sessions,
		Policy:   DefaultRegistrationPolicy(),
	}
	g.reconciler = &Reconciler{Store: store}
	g.setupRoutes()
	return g
}

func (g *Gateway) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}

// Reconciler exposes the identity reconciler, mainly for tests and for apps
// that accept assertions from somewhere other than the built-in providers.
func (g *Gateway) Reconciler() *Reconciler {
	return g.reconciler
}

// Handler returns the gateway's routes wrapped in the session middleware.
// Mount it under the auth prefix of the host app, e.g. /auth/.
func (g *Gateway) Handler() http.Handler {
	return g.Sessions.LoadAndSave(g.router)
}

func (g *Gateway) setupRoutes() {
	r := mux.NewRouter()
	r.HandleFunc("/register", g.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/login", g.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/logout", g.handleLogout).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/session", g.handleSession).Methods(http.MethodGet)

	m := &Middleware{Sessions: g.Sessions}
	r.Handle("/users", m.RequireUser(http.HandlerFunc(g.handleListUsers))).Methods(http.MethodGet)

	g.router = r
}

// AddAuth mounts a delegated-identity provider under the given prefix, e.g.
//
//	gw.AddAuth("/google", google.Handler())
//
// The provider sees paths relative to the prefix ("/", "/callback/").
func (g *Gateway) AddAuth(prefix string, handler http.Handler) *Gateway {
	prefix = strings.TrimSuffix(prefix, "/")
	g.router.PathPrefix(prefix + "/").Handler(http.StripPrefix(prefix, handler))
	return g
}

// SaveUserAndRedirect is the HandleUser callback given to delegated-identity
// providers. It reconciles the provider's profile assertion with the store,
// establishes a session for the resulting user, and redirects back to
// wherever the flow started.
func (g *Gateway) SaveUserAndRedirect(authtype, provider string, token *oauth2.Token, userInfo map[string]any, w http.ResponseWriter, r *http.Request) {
	assertion := AssertionFromUserInfo(userInfo)
	user, err := g.reconciler.Reconcile(assertion)
	if err != nil {
		g.logger().Error("delegated identity reconciliation failed",
			"provider", provider, "err", err)
		http.Error(w, `{"error": "Authentication failed"}`, http.StatusUnauthorized)
		return
	}

	// Delegated logins get a persistent session: the provider already
	// keeps the user signed in on their side.
	if err := g.Sessions.Establish(w, r, user, true); err != nil {
		g.logger().Error("establishing session failed", "err", err)
		http.Error(w, `{"error": "Authentication failed"}`, http.StatusInternalServerError)
		return
	}

	callbackURL := "/"
	if cookie, _ := r.Cookie("oauthCallbackURL"); cookie != nil && cookie.Value != "" {
		callbackURL = cookie.Value
	}
	if !isLocalRedirect(callbackURL) {
		// Only same-site redirects; anything else smells like a tampered
		// cookie.
		callbackURL = "/"
	}
	http.SetCookie(w, &http.Cookie{
		Name:    "oauthCallbackURL",
		Value:   "",
		Path:    "/",
		MaxAge:  -1,
		Expires: time.Now(),
	})
	http.Redirect(w, r, callbackURL, http.StatusFound)
}

// AssertionFromUserInfo maps a provider userinfo payload onto an Assertion.
// Google's v2 userinfo shape is the reference: id, name, email, picture.
func AssertionFromUserInfo(userInfo map[string]any) Assertion {
	str := func(key string) string {
		if v, ok := userInfo[key].(string); ok {
			return v
		}
		return ""
	}
	a := Assertion{
		ExternalID:  str("id"),
		DisplayName: str("name"),
		Email:       str("email"),
		AvatarURL:   str("picture"),
	}
	if a.ExternalID == "" {
		a.ExternalID = str("sub")
	}
	return a
}

func (g *Gateway) handleSession(w http.ResponseWriter, r *http.Request) {
	userID := g.Sessions.CurrentUserID(r)
	if userID == "" {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	records, err := g.Store.LoadAll()
	if err != nil {
		g.logger().Error("loading store for session check failed", "err", err)
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}
	for i := range records {
		if records[i].ID == userID {
			writeJSON(w, http.StatusOK, map[string]any{
				"authenticated": true,
				"user":          records[i].Sanitize(),
			})
			return
		}
	}

	// Session points at a record that no longer exists; treat as signed out.
	writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
}

func (g *Gateway) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := g.Sessions.Destroy(w, r); err != nil {
		g.logger().Warn("destroying session failed", "err", err)
	}

	to := r.URL.Query().Get("to")
	if !isLocalRedirect(to) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "redirect": "/"})
		return
	}
	http.Redirect(w, r, to, http.StatusFound)
}

func (g *Gateway) handleListUsers(w http.ResponseWriter, r *http.Request) {
	records, err := g.Store.LoadAll()
	if err != nil {
		g.logger().Error("listing users failed", "err", err)
		writeAuthError(w, http.StatusInternalServerError,
			NewAuthError(ErrCodeStoreFault, "Could not read user store", ""))
		return
	}

	users := make([]PublicUser, 0, len(records))
	for i := range records {
		users = append(users, records[i].Sanitize())
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

// isLocalRedirect reports whether target is a same-site path. Anything with
// a scheme or a host is rejected, including protocol-relative forms like
// "//evil.com" and "/\evil.com" that browsers treat as absolute.
func isLocalRedirect(target string) bool {
	if !strings.HasPrefix(target, "/") ||
		strings.HasPrefix(target, "//") || strings.HasPrefix(target, `/\`) {
		return false
	}
	u, err := url.Parse(target)
	return err == nil && !u.IsAbs() && u.Host == ""
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeAuthError(w http.ResponseWriter, status int, err *AuthError) {
	writeJSON(w, status, err)
}

func writeFieldErrors(w http.ResponseWriter, errs FieldErrors) {
	writeJSON(w, http.StatusBadRequest, map[string]any{"errors": errs})
}
