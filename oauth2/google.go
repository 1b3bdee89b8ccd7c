package oauth2

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo?access_token="

// GoogleOAuth2 is the Google delegated-identity provider.
type GoogleOAuth2 struct {
	*BaseOAuth2
}

// NewGoogleOAuth2 builds the Google provider. It returns ErrNotConfigured
// when any of the client credentials are missing, so the caller can disable
// delegated identity without affecting local auth.
func NewGoogleOAuth2(clientID, clientSecret, callbackURL string, handleUser HandleUserFunc) (*GoogleOAuth2, error) {
	base, err := newBaseOAuth2(clientID, clientSecret, callbackURL)
	if err != nil {
		return nil, err
	}
	base.HandleUser = handleUser
	base.oauthConfig.Endpoint = google.Endpoint
	base.oauthConfig.Scopes = []string{
		"https://www.googleapis.com/auth/userinfo.email",
		"https://www.googleapis.com/auth/userinfo.profile",
	}

	out := &GoogleOAuth2{BaseOAuth2: base}
	out.mux.HandleFunc("/callback/", out.handleCallback)
	out.mux.HandleFunc("/callback", out.handleCallback)
	return out, nil
}

func (g *GoogleOAuth2) handleCallback(w http.ResponseWriter, r *http.Request) {
	oauthState, _ := r.Cookie("oauthstate")
	if oauthState == nil || r.FormValue("state") != oauthState.Value {
		slog.Warn("google callback state mismatch")
		http.Error(w, "Invalid oauth state", http.StatusBadRequest)
		return
	}

	token, err := g.oauthConfig.Exchange(context.Background(), r.FormValue("code"))
	if err != nil {
		slog.Warn("google code exchange failed", "err", err)
		http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
		return
	}

	userInfo, err := fetchGoogleUserInfo(token)
	if err != nil {
		slog.Warn("fetching google profile failed", "err", err)
		http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
		return
	}

	g.HandleUser("oauth", "google", token, userInfo, w, r)
}

// fetchGoogleUserInfo exchanges the access token for the profile assertion:
// id, name, email, picture.
func fetchGoogleUserInfo(token *oauth2.Token) (map[string]any, error) {
	response, err := http.Get(googleUserInfoURL + token.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info: %w", err)
	}
	defer response.Body.Close()

	contents, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed reading user info: %w", err)
	}

	var userInfo map[string]any
	if err := json.Unmarshal(contents, &userInfo); err != nil {
		return nil, fmt.Errorf("failed decoding user info: %w", err)
	}
	return userInfo, nil
}
