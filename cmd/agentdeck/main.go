package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agentdeck/agentdeck/internal/adapter/cursor"
	adhttp "github.com/agentdeck/agentdeck/internal/adapter/http"
	"github.com/agentdeck/agentdeck/internal/adapter/llm"
	"github.com/agentdeck/agentdeck/internal/adapter/otel"
	"github.com/agentdeck/agentdeck/internal/adapter/postgres"
	"github.com/agentdeck/agentdeck/internal/adapter/ristretto"
	"github.com/agentdeck/agentdeck/internal/adapter/sim"
	"github.com/agentdeck/agentdeck/internal/adapter/ws"
	"github.com/agentdeck/agentdeck/internal/config"
	"github.com/agentdeck/agentdeck/internal/domain/agent"
	"github.com/agentdeck/agentdeck/internal/logger"
	"github.com/agentdeck/agentdeck/internal/middleware"
	"github.com/agentdeck/agentdeck/internal/resilience"
	"github.com/agentdeck/agentdeck/internal/secrets"
	"github.com/agentdeck/agentdeck/internal/service"
)

func main() {
	// Admin subcommands run without the server.
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

	log, logCloser := logger.New(cfg.Logging)
	defer logCloser.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"agent_api", cfg.AgentAPI.BaseURL,
	)

	ctx := context.Background()

	// --- Secrets ---
	vault, err := secrets.NewVault(secrets.DefaultLoader())
	if err != nil {
		return fmt.Errorf("secrets: %w", err)
	}

	// SIGHUP reloads secrets without a restart.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			if err := vault.Reload(); err != nil {
				slog.Error("secrets reload failed", "error", err)
				continue
			}
			slog.Info("secrets reloaded")
		}
	}()

	jwtSecret := vault.Get(secrets.EnvJWTSecret)
	if jwtSecret == "" {
		return fmt.Errorf("%s is required", secrets.EnvJWTSecret)
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

	listCache, err := ristretto.New(int64(cfg.Cache.MaxSizeMB) << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer listCache.Close()

	shutdownTracer := otel.InitTracer(cfg.Logging.Service)
	defer func() {
		if err := shutdownTracer(ctx); err != nil {
			slog.Error("tracer shutdown failed", "error", err)
		}
	}()

	metrics, err := otel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Agent backends ---
	breaker := resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)
	gateway := cursor.NewGateway(cfg.AgentAPI.BaseURL)
	gateway.SetBreaker(breaker)

	hub := ws.NewHub()

	simOpts := []sim.Option{
		sim.WithDelays(cfg.Simulation.ProvisionDelay, cfg.Simulation.ReplyDelay),
		sim.WithLatency(cfg.Simulation.Latency),
		sim.WithNotifier(func(id string, status agent.Status) {
			hub.BroadcastEvent(ctx, ws.EventAgentStatus, ws.AgentStatusEvent{
				AgentID:    id,
				Status:     string(status),
				Simulation: true,
			})
		}),
	}
	if cfg.Simulation.Seed {
		simOpts = append(simOpts, sim.WithSeed())
	}
	simStore := sim.NewStore(simOpts...)

	// --- Services ---
	store := postgres.NewStore(pool)

	resolver, err := service.NewCredentialResolver(store, vault)
	if err != nil {
		return fmt.Errorf("credentials: %w", err)
	}

	authSvc := service.NewAuthService(store, []byte(jwtSecret), cfg.Auth.TokenTTL)

	// First boot on an empty database seeds the initial admin account when
	// configured.
	if email := os.Getenv("AGENTDECK_ADMIN_EMAIL"); email != "" {
		if password := os.Getenv("AGENTDECK_ADMIN_PASSWORD"); password != "" {
			if err := authSvc.SeedDefaultAdmin(ctx, email, password); err != nil {
				return fmt.Errorf("seed admin: %w", err)
			}
		}
	}

	agentSvc := service.NewAgentService(simStore, gateway, resolver, listCache, hub, metrics, cfg.AgentAPI.ListCacheTTL)

	summarizer := llm.NewClient(cfg.LLM.URL, cfg.LLM.Model, func() string {
		return vault.Get(secrets.EnvOpenAIKey)
	})
	summarySvc := service.NewSummaryService(agentSvc, summarizer, cfg.LLM.Model, metrics)

	handlers := &adhttp.Handlers{
		Auth:        authSvc,
		Agents:      agentSvc,
		Credentials: resolver,
		Summaries:   summarySvc,
		UserData:    service.NewUserDataService(store),
	}

	// --- HTTP ---
	r := chi.NewRouter()

	r.Use(adhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(adhttp.SecurityHeaders)
	r.Use(adhttp.Logger)
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(otel.HTTPMiddleware(cfg.Logging.Service))
	r.Use(middleware.Auth(authSvc))

	r.Get("/health", healthHandler(pool, hub))
	r.Get("/ws", hub.HandleWS)
	adhttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
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

// healthHandler reports overall liveness plus per-component status.
func healthHandler(pool *pgxpool.Pool, hub *ws.Hub) http.HandlerFunc {
	type componentStatus struct {
		Status      string `json:"status"`
		Connections int    `json:"connections,omitempty"`
	}
	type healthStatus struct {
		Status     string                     `json:"status"`
		Components map[string]componentStatus `json:"components"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthStatus{
			Status: "ok",
			Components: map[string]componentStatus{
				"websocket": {Status: "ok", Connections: hub.ConnectionCount()},
			},
		}
		if err := pool.Ping(ctx); err != nil {
			resp.Status = "degraded"
			resp.Components["database"] = componentStatus{Status: "unreachable"}
		} else {
			resp.Components["database"] = componentStatus{Status: "ok"}
		}

		w.Header().Set("Content-Type", "application/json")
		code := http.StatusOK
		if resp.Status != "ok" {
			code = http.StatusServiceUnavailable
		}
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
