package splitauth

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// sessionUserKey is the scs session key holding the signed-in user id.
	sessionUserKey = "loggedInUserId"

	// DefaultSessionLifetime is the fixed, non-sliding session lifetime.
	DefaultSessionLifetime = 24 * time.Hour

	// DefaultAuthCookieName is the client-side JWT mirror cookie.
	DefaultAuthCookieName = "SplitauthToken"
)

// Sessions issues, validates and destroys authenticated sessions.
//
// The server-side scs session is authoritative. Alongside it a signed JWT is
// mirrored into a cookie so the browser side of the app can keep a
// presentational copy of "who is signed in"; the mirror is a persistence
// hint, never trusted on its own for anything the session could answer.
type Sessions struct {
	Manager *scs.SessionManager

	// JWTSecretKey signs the mirror cookie. Must be supplied at startup.
	JWTSecretKey string
	JWTIssuer    string

	// AuthCookieName is the mirror cookie name. Empty means
	// DefaultAuthCookieName.
	AuthCookieName string

	Lifetime time.Duration
	Logger   *slog.Logger
}

// NewSessions builds a session manager with the gateway's fixed 24 hour
// lifetime. Expiry is absolute, not sliding: scs's idle timeout is left
// unset on purpose.
func NewSessions(jwtSecretKey string) *Sessions {
	manager := scs.New()
	manager.Lifetime = DefaultSessionLifetime
	manager.Cookie.HttpOnly = true
	manager.Cookie.SameSite = http.SameSiteLaxMode
	// Persist=false makes the session cookie ephemeral unless the login
	// carried a remember-me hint (see Establish).
	manager.Cookie.Persist = false

	return &Sessions{
		Manager:      manager,
		JWTSecretKey: jwtSecretKey,
		JWTIssuer:    "splitauth",
		Lifetime:     DefaultSessionLifetime,
	}
}

func (s *Sessions) authCookieName() string {
	if s.AuthCookieName != "" {
		return s.AuthCookieName
	}
	return DefaultAuthCookieName
}

func (s *Sessions) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// LoadAndSave is the scs middleware that must wrap every handler using
// sessions.
func (s *Sessions) LoadAndSave(next http.Handler) http.Handler {
	return s.Manager.LoadAndSave(next)
}

// Establish creates a session for the user. remember is the client
// persistence hint: when set, both the session cookie and the JWT mirror
// survive browser restarts for the session lifetime; when not, both are
// browser-session cookies. The hint changes nothing server side.
func (s *Sessions) Establish(w http.ResponseWriter, r *http.Request, user *UserRecord, remember bool) error {
	ctx := r.Context()

	// Renew the token so a pre-login session id never carries over into an
	// authenticated session.
	if err := s.Manager.RenewToken(ctx); err != nil {
		return fmt.Errorf("renewing session token: %w", err)
	}
	s.Manager.Put(ctx, sessionUserKey, user.ID)
	s.Manager.RememberMe(ctx, remember)

	tokenString, err := s.MintToken(user.ID)
	if err != nil {
		s.logger().Warn("minting auth token mirror failed", "err", err)
		return nil
	}
	cookie := &http.Cookie{
		Name:     s.authCookieName(),
		Value:    tokenString,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if remember {
		cookie.Expires = time.Now().Add(s.Lifetime)
		cookie.MaxAge = int(s.Lifetime.Seconds())
	}
	http.SetCookie(w, cookie)
	return nil
}

// CurrentUserID returns the user id of the authenticated session, or "" when
// there is none.
func (s *Sessions) CurrentUserID(r *http.Request) string {
	return s.Manager.GetString(r.Context(), sessionUserKey)
}

// Destroy tears down the session and clears the mirror cookie. Destroying a
// request with no session is a no-op, so sign-out is idempotent.
func (s *Sessions) Destroy(w http.ResponseWriter, r *http.Request) error {
	if err := s.Manager.Destroy(r.Context()); err != nil {
		return fmt.Errorf("destroying session: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:    s.authCookieName(),
		Value:   "",
		Path:    "/",
		MaxAge:  -1,
		Expires: time.Now(),
	})
	return nil
}

// MintToken signs a JWT for the mirror cookie or for API-style callers that
// present it as a bearer token.
func (s *Sessions) MintToken(userID string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"iss": s.JWTIssuer,
		"iat": now.Unix(),
		"exp": now.Add(s.Lifetime).Unix(),
	})
	return token.SignedString([]byte(s.JWTSecretKey))
}

// VerifyToken checks a mirror token and returns the user id it was minted
// for. Used by the middleware's header/cookie fallback path.
func (s *Sessions) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.JWTSecretKey), nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("claims is not a map")
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return "", err
	}
	if sub == "" {
		return "", fmt.Errorf("subject not found")
	}
	return sub, nil
}
