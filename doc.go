// Package splitauth is the authentication gateway for the tabsplit
// bill-splitting app.
//
// It unifies two sign-in paths - local email/password credentials and
// delegated third-party identity (Google OAuth) - into a single user record
// store, and manages the browser session that the rest of the app relies on.
//
// # Architecture
//
// UserRecord: the sole persisted entity. A record created locally carries a
// bcrypt password hash; a record created from a delegated identity carries an
// external subject id instead. A record may end up with both when the same
// email signs in through both paths.
//
// Store: the canonical collection of user records. Every mutation is a full
// load-modify-save cycle executed inside the store's single-writer critical
// section, so concurrent requests cannot lose each other's updates. The
// default backend is a single human-readable JSON file (see the stores
// package); a gorm-backed variant is available for apps that already run a
// database.
//
// Reconciler: merges an inbound third-party profile assertion with the store
// by case-insensitive email. Replaying the same assertion refreshes profile
// metadata and the login timestamp but never creates a second record and
// never touches an existing password hash.
//
// Sessions: server-side session state via alexedwards/scs with a fixed
// 24 hour lifetime, plus a signed JWT cookie mirrored to the client. The
// server session is authoritative; the mirror and the remember-me flag are
// persistence hints for the browser only.
//
// # Basic Usage
//
//	store := stores.NewFileStore("data/users.json")
//	sessions := splitauth.NewSessions(os.Getenv("SPLITAUTH_SESSION_SECRET"))
//	gw := splitauth.New(store, sessions)
//
//	google, err := oauth2.NewGoogleOAuth2(clientID, clientSecret, callbackURL, gw.SaveUserAndRedirect)
//	if err == nil {
//		gw.AddAuth("/google", google.Handler())
//	}
//
//	http.ListenAndServe(":8080", http.StripPrefix("/auth", gw.Handler()))
package splitauth
