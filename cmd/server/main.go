package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pollwatch/devicebind/internal/server/binding"
	"github.com/pollwatch/devicebind/internal/server/config"
	"github.com/pollwatch/devicebind/internal/server/handlers"
	"github.com/pollwatch/devicebind/internal/server/middleware"
	"github.com/pollwatch/devicebind/internal/server/notify"
	"github.com/pollwatch/devicebind/internal/server/storage/sqlite"
	"github.com/pollwatch/devicebind/internal/verify"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	configPath := flag.String("config", ".", "Path to directory with app.env config file")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("starting server",
		slog.String("version", Version),
		slog.String("addr", cfg.ListenAddr))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close storage", slog.Any("error", err))
		}
	}()

	jwtConfig := handlers.JWTConfig{
		Secret:          []byte(cfg.JWTSecret),
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
	}

	// Notifier: SendGrid если ключ задан, иначе лог
	var notifier binding.Notifier
	if cfg.SendGridAPIKey != "" {
		notifier = notify.NewEmailNotifier(logger, cfg.SendGridAPIKey, cfg.SenderEmail)
	} else {
		logger.Warn("SENDGRID_API_KEY not set, reset notifications will only be logged")
		notifier = notify.NewLogNotifier(logger)
	}

	engine := verify.New(cfg.VerifyThreshold)
	deviceService := binding.NewService(logger, store, store, engine, notifier)

	authHandler := handlers.NewAuthHandler(logger, store, store, deviceService, jwtConfig)
	deviceHandler := handlers.NewDeviceHandler(logger, store, deviceService)
	healthHandler := handlers.NewHealthHandler(logger, Version, store)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("GET /api/v1/auth/salt/{username}", authHandler.GetSalt)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/v1/auth/refresh", authHandler.Refresh)
	mux.Handle("POST /api/v1/auth/logout",
		middleware.AuthMiddleware(logger, jwtConfig)(http.HandlerFunc(authHandler.Logout)))
	mux.HandleFunc("POST /api/v1/device/reset", deviceHandler.RequestReset)
	mux.HandleFunc("GET /api/v1/accounts/{username}/meta", deviceHandler.AccountMeta)
	mux.HandleFunc("GET /api/v1/health", healthHandler.Health)

	// Админский endpoint за отдельным ключом
	adminMux := http.NewServeMux()
	adminMux.HandleFunc("POST /api/v1/admin/device-resets/{id}", deviceHandler.ResolveReset)
	mux.Handle("/api/v1/admin/", middleware.AdminKeyMiddleware(logger, cfg.AdminAPIKey)(adminMux))

	// Логин и запрос сброса устройства - точки перебора, им жестче лимит
	pathLimits := []middleware.PathRateLimit{
		{Path: "/api/v1/auth/login", Rate: max(1, cfg.RateLimit/5), Window: cfg.RateWindow},
		{Path: "/api/v1/device/reset", Rate: max(1, cfg.RateLimit/10), Window: cfg.RateWindow},
	}

	handler := middleware.RecoveryMiddleware(logger)(
		middleware.LoggingWithSkip(logger, []string{"/api/v1/health"})(
			middleware.RateLimitByPathMiddleware(pathLimits, cfg.RateLimit, cfg.RateWindow, logger)(mux)))

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Фоновая чистка истекших refresh tokens
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := store.DeleteExpiredTokens(ctx)
				if err != nil {
					logger.Warn("failed to delete expired tokens", slog.Any("error", err))
					continue
				}
				if n > 0 {
					logger.Info("expired tokens removed", slog.Int("count", n))
				}
			}
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func printVersion() {
	fmt.Printf("PollWatch Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
