// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/traceofthetides/tides-go/internal/cache"
	"github.com/traceofthetides/tides-go/internal/catalog"
	"github.com/traceofthetides/tides-go/internal/config"
	"github.com/traceofthetides/tides-go/internal/geoip"
	"github.com/traceofthetides/tides-go/internal/handler/api"
	"github.com/traceofthetides/tides-go/internal/identity"
	"github.com/traceofthetides/tides-go/internal/logging"
	"github.com/traceofthetides/tides-go/internal/middleware"
	"github.com/traceofthetides/tides-go/internal/scheduler"
	"github.com/traceofthetides/tides-go/internal/service"
	"github.com/traceofthetides/tides-go/internal/session"
	"github.com/traceofthetides/tides-go/internal/store"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Trace of the Tides - content API server\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TIDES_SESSION_SECRET   Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TIDES_DB_PATH          SQLite database path (default: ./data/tides.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TIDES_SERVER_PORT      Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TIDES_ENV              Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TIDES_SPA_ORIGIN       Allowed frontend origin (default: http://localhost:3000)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TIDES_REDIS_URL        Redis URL for distributed caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TIDES_GEOIP_DB_PATH    GeoLite2-Country.mmdb path (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if *showVersion {
		_, _ = fmt.Printf("tides %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the event log
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)

	ctx := context.Background()
	if cfg.DoSeed {
		if err := store.Seed(ctx, db); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	}

	// Load the content catalog. The API cannot serve without it.
	cat, err := catalog.Load()
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	slog.Info("catalog loaded", "sections", len(cat.Sections()))

	// Cache manager, Redis-backed when configured.
	cacheManager := cache.NewManager(*cfg, cat)
	defer func() {
		if err := cacheManager.Close(); err != nil {
			slog.Error("error closing cache", "error", err)
		}
	}()
	if err := cacheManager.Preload(ctx); err != nil {
		slog.Warn("failed to preload caches", "error", err)
	}
	if cfg.UseRedisCache() {
		slog.Info("cache manager initialized", "backend", "redis", "url", cfg.RedisURL)
	} else {
		slog.Info("cache manager initialized", "backend", "memory")
	}

	// GeoIP country resolution for visit statistics (optional).
	var geoResolver *geoip.Resolver
	if cfg.GeoIPEnabled() {
		geoResolver, err = geoip.NewResolver(cfg.GeoIPDBPath)
		if err != nil {
			slog.Warn("GeoIP database unavailable, visits will not be geolocated", "error", err)
		} else {
			defer func() { _ = geoResolver.Close() }()
			slog.Info("GeoIP resolver initialized", "path", cfg.GeoIPDBPath)
		}
	}

	// Services and identity provider.
	identityProvider := identity.New(db)
	eventService := service.NewEventService(db)
	visitService := service.NewVisitService(db, geoResolver)
	contributionService := service.NewContributionService(db, cfg.UploadsDir)

	// Session manager with SQLite-backed storage.
	sessionManager := session.New(db, cfg.IsDevelopment())
	slog.Info("session manager initialized")

	// The bridge mirrors identity events into a shared session snapshot.
	// Its subscription gives us a structured auth audit trail for free.
	bridge := session.NewBridge(identityProvider)
	defer bridge.Close()
	go logSessionTransitions(bridge, eventService)

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	defer loginProtection.Close()

	apiHandler := api.NewHandler(api.HandlerConfig{
		DB:            db,
		Catalog:       cat,
		Cache:         cacheManager,
		Identity:      identityProvider,
		Sessions:      sessionManager,
		Contributions: contributionService,
		Events:        eventService,
		LoginGuard:    loginProtection,
	})

	// Background jobs.
	sched := scheduler.New(db, logger, contributionService, eventService, geoResolver)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	// Router and middleware chain.
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:   []string{cfg.SPAOrigin},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	apiRateLimiter := middleware.NewGlobalRateLimiter(100, 200)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apiRateLimiter.Middleware())
		r.Use(sessionManager.LoadAndSave)
		r.Use(middleware.CSRF(middleware.CSRFConfig{
			AuthKey:        []byte(cfg.SessionSecret)[:32],
			TrustedOrigins: []string{cfg.SPAOrigin},
		}))
		r.Use(middleware.Tracking(visitService))
		r.Mount("/", apiHandler.Routes())
	})

	// Uploaded media is served directly.
	uploadsDir := http.Dir(cfg.UploadsDir)
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(uploadsDir)))

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// logSessionTransitions records every session state change in the event
// log until the bridge closes.
func logSessionTransitions(bridge *session.Bridge, events *service.EventService) {
	snapshots, release := bridge.Subscribe()
	defer release()

	for snap := range snapshots {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		metadata := map[string]any{"state": string(snap.State)}
		if snap.UID != "" {
			metadata["uid"] = snap.UID
		}
		if err := events.LogAuthEvent(ctx, "info", "Session state changed", nil, "", metadata); err != nil {
			slog.Warn("failed to log session transition", "error", err)
		}
		cancel()
	}
}
