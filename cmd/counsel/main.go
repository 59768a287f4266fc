package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/velumlaw/counsel/internal/adapter/gemini"
	clhttp "github.com/velumlaw/counsel/internal/adapter/http"
	"github.com/velumlaw/counsel/internal/adapter/isap"
	clnats "github.com/velumlaw/counsel/internal/adapter/nats"
	"github.com/velumlaw/counsel/internal/adapter/natskv"
	clotel "github.com/velumlaw/counsel/internal/adapter/otel"
	"github.com/velumlaw/counsel/internal/adapter/postgres"
	"github.com/velumlaw/counsel/internal/adapter/ristretto"
	"github.com/velumlaw/counsel/internal/adapter/saos"
	"github.com/velumlaw/counsel/internal/adapter/supabase"
	"github.com/velumlaw/counsel/internal/adapter/tiered"
	"github.com/velumlaw/counsel/internal/adapter/ws"
	"github.com/velumlaw/counsel/internal/config"
	"github.com/velumlaw/counsel/internal/logger"
	"github.com/velumlaw/counsel/internal/middleware"
	"github.com/velumlaw/counsel/internal/resilience"
	"github.com/velumlaw/counsel/internal/service"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "admin" {
		if err := runAdmin(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logCloser := logger.Setup(cfg.Logging)
	defer logCloser.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"pg_max_conns", cfg.Postgres.MaxConns,
	)

	ctx := context.Background()

	// --- Observability ---
	shutdownOtel, err := clotel.Init(ctx, cfg.Logging.Service)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOtel(shutdownCtx); err != nil {
			slog.Error("otel shutdown", "error", err)
		}
	}()

	metrics, err := clotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Infrastructure ---

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	queue, err := clnats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() { _ = queue.Close() }()

	l2, err := natskv.Open(ctx, queue.JetStream(), cfg.Cache.L2Bucket, cfg.Cache.L2TTL)
	if err != nil {
		return fmt.Errorf("nats kv: %w", err)
	}
	l1, err := ristretto.New(cfg.Cache.L1MaxSizeMB)
	if err != nil {
		return fmt.Errorf("ristretto: %w", err)
	}
	defer l1.Close()
	settingsCache := tiered.New(l1, l2, cfg.Cache.SettingsTTL)

	// --- Outbound clients ---

	provider, err := gemini.New(ctx, cfg.Gemini.APIKey)
	if err != nil {
		return fmt.Errorf("gemini: %w", err)
	}

	acts := isap.NewClient(cfg.ISAP.BaseURL, cfg.ISAP.Timeout)
	acts.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))
	rulings := saos.NewClient(cfg.SAOS.BaseURL, cfg.SAOS.Timeout)
	rulings.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))

	blobs, err := supabase.New(cfg.Supabase.URL, cfg.Supabase.APIKey, cfg.Supabase.Bucket)
	if err != nil {
		return fmt.Errorf("supabase: %w", err)
	}
	blobs.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))

	// --- Services ---

	hub := ws.NewHub()
	store := postgres.NewStore(pool)
	settings := service.NewSettingsService(store, settingsCache, cfg.Cache.SettingsTTL)
	tools := service.NewToolRegistry(acts, rulings)
	loop := service.NewToolLoop(provider, tools)
	loop.SetMetrics(metrics)
	orch := service.NewOrchestrator(
		store,
		settings,
		service.NewPromptComposer(settings),
		service.NewDocumentAugmentor(blobs),
		loop,
		service.NewBillingService(store, settings, queue),
		service.NewPersistenceGateway(store),
		tools,
		hub,
	)
	orch.SetMetrics(metrics)
	authSvc := service.NewAuthService(store, cfg.Auth.BcryptCost)

	// --- HTTP ---

	r := chi.NewRouter()
	r.Use(clhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(clhttp.SecurityHeaders)
	r.Use(clhttp.Logger)
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(clotel.HTTPMiddleware(cfg.Logging.Service))
	r.Use(middleware.Auth(authSvc))

	clhttp.MountRoutes(r, clhttp.NewHandlers(orch, store, hub))

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Turns can hold the connection for several provider round trips.
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
