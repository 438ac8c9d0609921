package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/lairofevil/standings/internal/adapters/http/api"
	"github.com/lairofevil/standings/internal/adapters/http/swagger"
	app "github.com/lairofevil/standings/internal/app"
	"github.com/lairofevil/standings/internal/auth"
	"github.com/lairofevil/standings/internal/config"
	"github.com/lairofevil/standings/pkg/logger"
	"github.com/lairofevil/standings/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.InitWith(os.Stdout, cfg.LogFormat); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "exiting", logger.Error(err))
		os.Exit(1)
	}
}

// run serves until ctx is cancelled or the server fails.
func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, handler, err := build(ctx, cfg)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Stop()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info(gctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		startSystemMetricsUpdater(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info(ctx, "shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	err = g.Wait()
	log.Info(ctx, "server stopped")
	return err
}

// build wires the service and its HTTP routes from cfg.
func build(ctx context.Context, cfg *config.Config) (*app.Service, http.Handler, error) {
	log := logger.Get()

	var (
		policy   auth.Policy = auth.AllowAll{}
		verifier *auth.TokenVerifier
	)
	if cfg.AuthSecret != "" {
		grants, err := auth.ParseGrants(cfg.RoleActions)
		if err != nil {
			return nil, nil, fmt.Errorf("role_actions: %w", err)
		}
		policy = auth.NewRolePolicy(grants)
		verifier = auth.NewTokenVerifier(cfg.AuthSecret)
	} else {
		log.Warn(ctx, "auth_secret is empty; every caller may perform every action")
	}
	if cfg.LegacyOfficerPassphrase == "" {
		log.Info(ctx, "legacy_officer_passphrase is empty; legacy rounds refuse submissions")
	}

	svc := app.New(
		app.WithLogger(log.Named("service")),
		app.WithPolicy(policy),
		app.WithLegacyGate(auth.NewLegacyGate(cfg.LegacyOfficerPassphrase)),
		app.WithAuditWorkers(cfg.AuditWorkers),
		app.WithAuditQueueSize(cfg.AuditQueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithPollInterval(cfg.PollInterval()),
	)

	mux := http.NewServeMux()
	swagger.Register(ctx, mux)

	var limiter *api.IPRateLimiter
	if cfg.VoteRatePerSec > 0 {
		limiter = api.NewIPRateLimiter(cfg.VoteRatePerSec, cfg.VoteRateBurst)
	}
	api.NewServer(svc, verifier, limiter).Register(ctx, mux)

	return svc, mux, nil
}

// startSystemMetricsUpdater updates system metrics until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
