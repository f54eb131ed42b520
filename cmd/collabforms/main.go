// Package main is the entry point for the collabforms server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"collabforms/internal/cache"
	"collabforms/internal/config"
	"collabforms/internal/database"
	"collabforms/internal/handlers"
	"collabforms/internal/middleware"
	"collabforms/internal/notify"
	"collabforms/internal/policy"
	"collabforms/internal/render"
	"collabforms/internal/router"
	"collabforms/internal/session"
	"collabforms/internal/storage"
	"collabforms/internal/store"
	"collabforms/internal/workflow"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"base_url", cfg.BaseURL,
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if users already exist).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (sessions, share cache, notification feed).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// In non-development environments, mark cookies as Secure (HTTPS-only).
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)
	loginAttempts := session.NewAttempts(valkeyClient, cfg.LoginMaxFailures, cfg.LoginLockout)

	renderer, err := render.New()
	if err != nil {
		slog.Error("failed to initialize template renderer", "error", err)
		os.Exit(1)
	}

	authz, err := policy.New()
	if err != nil {
		slog.Error("failed to load role policy", "error", err)
		os.Exit(1)
	}

	// Connect to S3-compatible object storage (optional; file-upload
	// questions cannot be answered without it).
	var uploader handlers.Uploader
	if cfg.UploadsEnabled() {
		storageClient, err := storage.New(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket)
		if err != nil {
			slog.Error("failed to initialize S3 storage", "error", err)
			os.Exit(1)
		}
		if storageClient != nil {
			uploader = storageClient
			slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
		}
	} else {
		slog.Warn("s3 storage not configured, file uploads disabled")
	}

	dataStore := store.New(db)
	service := workflow.NewService(dataStore)
	feed := notify.NewFeed(valkeyClient, cfg.NotifyFeedSize, cfg.NotifyFeedTTL)
	shareCache := cache.NewShareCache(valkeyClient, cfg.ShareCacheTTL)

	loginLimiter := middleware.NewRateLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow, cfg.TrustedProxies...)
	defer loginLimiter.Stop()

	// Set up the Chi router with all middleware and routes.
	r := router.New(router.Deps{
		Sessions:      sessionStore,
		Users:         dataStore.Users(),
		Policy:        authz,
		LoginLimiter:  loginLimiter,
		Stream:        notify.Stream(feed),
		SecureCookies: secureCookies,
		Auth:          handlers.NewAuth(service, sessionStore, loginAttempts),
		API:           handlers.NewAPI(service, feed, shareCache, uploader, cfg.BaseURL),
		Public:        handlers.NewPublic(service, renderer, shareCache, uploader, cfg.BaseURL),
	})

	// No WriteTimeout: notification streams are long-lived websockets.
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
