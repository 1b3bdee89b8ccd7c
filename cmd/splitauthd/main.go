// Command splitauthd runs the tabsplit authentication gateway: local
// registration and sign-in, Google delegated identity, and the session
// endpoints the calculator UI talks to. The UI itself is served as plain
// static files; all the interesting behavior lives in the splitauth package.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sa "github.com/tabsplit/splitauth"
	oa "github.com/tabsplit/splitauth/oauth2"
	"github.com/tabsplit/splitauth/stores"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	addr := envOr("SPLITAUTH_ADDR", ":8080")
	storePath := envOr("SPLITAUTH_STORE_PATH", "data/users.json")
	staticDir := envOr("SPLITAUTH_STATIC_DIR", "public")

	secret := os.Getenv("SPLITAUTH_SESSION_SECRET")
	if secret == "" {
		logger.Error("SPLITAUTH_SESSION_SECRET is required")
		os.Exit(1)
	}

	store := stores.NewFileStore(storePath)
	store.SetLogger(logger)

	sessions := sa.NewSessions(secret)
	sessions.Logger = logger

	gw := sa.New(store, sessions)
	gw.Logger = logger

	// Delegated identity fails closed: without credentials the routes are
	// simply not mounted and local auth carries on.
	google, err := oa.NewGoogleOAuth2(
		os.Getenv("OAUTH2_GOOGLE_CLIENT_ID"),
		os.Getenv("OAUTH2_GOOGLE_CLIENT_SECRET"),
		os.Getenv("OAUTH2_GOOGLE_CALLBACK_URL"),
		gw.SaveUserAndRedirect,
	)
	if err != nil {
		logger.Warn("google sign-in disabled", "reason", err)
	} else {
		gw.AddAuth("/google", google.Handler())
		logger.Info("google sign-in enabled")
	}

	// The gateway handler carries its own session middleware; the static
	// calculator UI needs none.
	root := http.NewServeMux()
	root.Handle("/auth/", http.StripPrefix("/auth", gw.Handler()))
	root.Handle("/", http.FileServer(http.Dir(staticDir)))

	server := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("listening", "addr", addr, "store", storePath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "err", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
