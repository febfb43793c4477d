// Package main is the entry point for the BrandForge server.
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

	"brandforge/internal/cache"
	"brandforge/internal/config"
	"brandforge/internal/database"
	"brandforge/internal/genai"
	"brandforge/internal/generation"
	"brandforge/internal/handlers"
	"brandforge/internal/middleware"
	"brandforge/internal/router"
	"brandforge/internal/session"
	"brandforge/internal/storage"
	"brandforge/internal/store"
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

	// Stock templates ship with every install; the throwaway admin account
	// is seeded in development only.
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	} else {
		if err := database.SeedTemplates(db); err != nil {
			slog.Error("failed to seed templates", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (Redis-compatible cache + session store).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// In non-development environments, mark cookies as Secure (HTTPS-only).
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)
	brandCache := cache.NewBrandCache(valkeyClient, cache.DefaultBrandTTL)

	// Data stores.
	userStore := store.NewUserStore(db)
	templateStore := store.NewTemplateStore(db)
	brandStore := store.NewBrandStyleStore(db)
	historyStore := store.NewHistoryStore(db)

	// Connect to S3-compatible object storage (optional — without it the app
	// serves generated images as inline data URLs only).
	storageClient, err := storage.New(
		cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
		cfg.S3Bucket, cfg.S3PublicURL,
	)
	if err != nil {
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	}
	if storageClient != nil {
		slog.Info("s3 storage connected",
			"endpoint", cfg.S3Endpoint,
			"bucket", cfg.S3Bucket,
		)
	} else {
		slog.Warn("s3 storage not configured — generated images kept inline only")
	}

	// Image generation pipeline.
	genaiCfg := genai.Config{APIKey: cfg.OpenAIKey, BaseURL: cfg.OpenAIBaseURL}
	dispatcher := genai.New(genaiCfg)

	orchOpts := []generation.Option{
		generation.WithModerator(genai.NewModerator(genaiCfg)),
		generation.WithHistoryRecorder(historyStore),
	}
	if storageClient != nil {
		orchOpts = append(orchOpts, generation.WithBlobStore(storageClient))
	}
	orchestrator := generation.New(dispatcher, orchOpts...)

	// Rate limits: credential guessing gets a tight window, generation a
	// budget-protecting one.
	authLimiter := middleware.NewRateLimiter(10, time.Minute)
	defer authLimiter.Stop()
	generateLimiter := middleware.NewRateLimiter(20, time.Minute)
	defer generateLimiter.Stop()

	// Handler groups.
	h := router.Handlers{
		Auth:      handlers.NewAuth(cfg, sessionStore, userStore),
		Templates: handlers.NewTemplates(templateStore),
		Brand:     handlers.NewBrand(brandStore, brandCache),
		Generate:  handlers.NewGenerate(orchestrator, templateStore, brandStore, brandCache),
		History:   handlers.NewHistory(historyStore, storageClient),
		Profile:   handlers.NewProfile(cfg, sessionStore, userStore),
	}

	r := router.New(h, router.Options{
		Sessions:        sessionStore,
		Secure:          secureCookies,
		AuthLimiter:     authLimiter,
		GenerateLimiter: generateLimiter,
	})

	// WriteTimeout must accommodate image generation, which regularly takes
	// tens of seconds on the high-capability tier.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  120 * time.Second,
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
