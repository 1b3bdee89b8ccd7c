package splitauth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	sa "github.com/tabsplit/splitauth"
)

func TestMiddlewareResolvesUserFromMirrorToken(t *testing.T) {
	sessions := sa.NewSessions("test-secret")
	m := &sa.Middleware{Sessions: sessions}

	var gotUserID string
	handler := sessions.LoadAndSave(m.ExtractUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = sa.GetLoggedInUserID(r)
	})))

	// No session cookie, only a bearer token from the mirror channel.
	token, err := sessions.MintToken("user-123")
	if err != nil {
		t.Fatalf("MintToken failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if gotUserID != "user-123" {
		t.Errorf("Expected user-123 from bearer token, got %q", gotUserID)
	}
}

func TestRequireUserRejectsAnonymous(t *testing.T) {
	sessions := sa.NewSessions("test-secret")
	m := &sa.Middleware{Sessions: sessions}

	handler := sessions.LoadAndSave(m.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler should not run for anonymous request")
	})))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/protected", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rr.Code)
	}
}

func TestRequireUserRedirectsToLogin(t *testing.T) {
	sessions := sa.NewSessions("test-secret")
	m := &sa.Middleware{Sessions: sessions, LoginURL: "/signin"}

	handler := sessions.LoadAndSave(m.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/protected/page", nil))
	if rr.Code != http.StatusFound {
		t.Fatalf("Expected 302, got %d", rr.Code)
	}
	location := rr.Header().Get("Location")
	if location != "/signin?callbackURL=%2Fprotected%2Fpage" {
		t.Errorf("Unexpected redirect target: %s", location)
	}
}
