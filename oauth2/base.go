// Package oauth2 holds the delegated-identity providers for splitauth.
//
// A provider is an http.Handler mounted under the gateway's auth prefix. It
// owns the redirect to the third party and the callback, and hands the
// verified profile to the gateway's HandleUser callback; everything after
// that (reconciliation, sessions) is the gateway's job.
package oauth2

import (
	"errors"
	"net/http"

	"golang.org/x/oauth2"
)

// ErrNotConfigured is returned when a provider's client credentials are
// missing or malformed. Callers are expected to fail closed: log, skip
// mounting the provider, and leave local auth untouched.
var ErrNotConfigured = errors.New("oauth2 provider not configured")

// BaseOAuth2 carries the pieces every provider shares.
type BaseOAuth2 struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
	HandleUser   HandleUserFunc

	oauthConfig oauth2.Config
	mux         *http.ServeMux
}

func newBaseOAuth2(clientID, clientSecret, callbackURL string) (*BaseOAuth2, error) {
	if clientID == "" || clientSecret == "" || callbackURL == "" {
		return nil, ErrNotConfigured
	}
	out := &BaseOAuth2{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		CallbackURL:  callbackURL,
		mux:          http.NewServeMux(),
		oauthConfig: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
		},
	}
	out.mux.HandleFunc("/", OauthRedirector(&out.oauthConfig))
	return out, nil
}

// Handler returns the provider's routes, relative to wherever the gateway
// mounts it.
func (b *BaseOAuth2) Handler() http.Handler {
	return b.mux
}
