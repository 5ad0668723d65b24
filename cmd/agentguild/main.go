// Command agentguild runs the AgentGuild core service: the PTY session
// supervisor, the WebSocket broadcast hub and the REST/MCP control surfaces.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	aghttp "github.com/Strob0t/AgentGuild/internal/adapter/http"
	"github.com/Strob0t/AgentGuild/internal/adapter/mcp"
	agnats "github.com/Strob0t/AgentGuild/internal/adapter/nats"
	"github.com/Strob0t/AgentGuild/internal/adapter/natskv"
	"github.com/Strob0t/AgentGuild/internal/adapter/otel"
	"github.com/Strob0t/AgentGuild/internal/adapter/postgres"
	"github.com/Strob0t/AgentGuild/internal/adapter/pty"
	"github.com/Strob0t/AgentGuild/internal/adapter/ristretto"
	"github.com/Strob0t/AgentGuild/internal/adapter/tiered"
	"github.com/Strob0t/AgentGuild/internal/adapter/ws"
	"github.com/Strob0t/AgentGuild/internal/config"
	"github.com/Strob0t/AgentGuild/internal/git"
	"github.com/Strob0t/AgentGuild/internal/logger"
	"github.com/Strob0t/AgentGuild/internal/port/cache"
	"github.com/Strob0t/AgentGuild/internal/port/messagequeue"
	"github.com/Strob0t/AgentGuild/internal/supervisor"
)

func main() {
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

	log, closeLog := logger.New(cfg.Logging)
	defer closeLog.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"postgres", cfg.Postgres.Enabled,
		"nats", cfg.NATS.Enabled,
		"mcp", cfg.MCP.Enabled,
		"otel", cfg.OTel.Enabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---
	var metrics *otel.Metrics
	if cfg.OTel.Enabled {
		shutdown, err := otel.Setup(ctx, cfg.Logging.Service, cfg.OTel.Endpoint)
		if err != nil {
			return fmt.Errorf("otel: %w", err)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(sctx); err != nil {
				slog.Warn("otel shutdown", "error", err)
			}
		}()
		metrics, err = otel.NewMetrics()
		if err != nil {
			return fmt.Errorf("otel metrics: %w", err)
		}
	}

	// --- Optional persistence ---
	if cfg.Postgres.Enabled {
		pool, err := postgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer pool.Close()
		if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		slog.Info("postgres connected, migrations applied")
	}

	// --- Optional event mirror ---
	var queue messagequeue.Queue
	if cfg.NATS.Enabled {
		q, err := agnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = q.Drain() }()
		queue = q
		slog.Info("nats event mirror connected", "url", cfg.NATS.URL)
	}

	// --- Git metadata sampling ---
	gitCache, err := ristretto.New(cfg.Git.CacheSizeMB << 20)
	if err != nil {
		return fmt.Errorf("git cache: %w", err)
	}
	defer gitCache.Close()

	var sampleCache cache.Cache = gitCache
	if q, ok := queue.(*agnats.Queue); ok {
		kv, err := q.KeyValue(ctx, "guild_git_meta", cfg.Git.CacheTTL)
		if err != nil {
			return fmt.Errorf("git kv cache: %w", err)
		}
		sampleCache = tiered.New(gitCache, natskv.New(kv), cfg.Git.CacheTTL)
	}
	sampler := git.NewSampler(git.NewPool(cfg.Git.MaxConcurrent), sampleCache, cfg.Git.CacheTTL)

	// --- Supervisor and hub ---
	hub := ws.NewHub(nil)
	sup := supervisor.New(supervisor.Config{
		SettleDelay:       cfg.Supervisor.SettleDelay,
		PromptDelay:       cfg.Supervisor.PromptDelay,
		DefaultCols:       uint16(cfg.Supervisor.DefaultCols),
		DefaultRows:       uint16(cfg.Supervisor.DefaultRows),
		GitSampleInterval: cfg.Git.SampleInterval,
	}, pty.Starter{Shell: cfg.Supervisor.Shell}, hub, queue, sampler, metrics)
	hub.SetDispatcher(sup)
	defer sup.Shutdown()

	// --- HTTP ---
	r := chi.NewRouter()
	r.Use(aghttp.CORS(cfg.Server.CORSOrigin))
	r.Use(aghttp.Logger)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/ws", hub.HandleWS)
	aghttp.MountRoutes(r, aghttp.NewHandlers(sup))

	if cfg.MCP.Enabled {
		r.Mount("/mcp", mcp.NewServer(sup).Handler())
		slog.Info("mcp surface mounted", "path", "/mcp")
	}

	var handler http.Handler = r
	if cfg.OTel.Enabled {
		handler = otelhttp.NewHandler(r, "agentguild")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		err := sup.RunGitSampler(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	return g.Wait()
}
