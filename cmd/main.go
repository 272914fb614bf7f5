package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/kagehq/failover/config"
	"github.com/kagehq/failover/internal/healthcheck"
	"github.com/kagehq/failover/internal/httpserver"
	"github.com/kagehq/failover/internal/metrics"
	"github.com/kagehq/failover/internal/notify"
	"github.com/kagehq/failover/internal/proxy"
	"github.com/kagehq/failover/internal/status"
	"github.com/kagehq/failover/internal/upstream"
	"github.com/kagehq/failover/pkg/logger"
)

const metricsBufferSize = 1000

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, false, cfg.Server.Environment)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	targets, err := upstream.NewTargets(cfg.Upstream.Primary, cfg.Upstream.Backup)
	if err != nil {
		log.Error("Failed to parse upstream URLs", slog.Any("err", err))
		os.Exit(1)
	}

	state := upstream.NewState()

	collector := metrics.NewCollector(metricsBufferSize, log)
	collector.Start(ctx)

	notifier := notify.New(cfg.Webhook.URL, cfg.Webhook.Format, log)

	monitor := healthcheck.NewMonitor(state, targets, healthcheck.Options{
		Interval:         cfg.HealthCheck.IntervalDuration(),
		ProbeTimeout:     cfg.HealthCheck.TimeoutDuration(),
		ProbePath:        cfg.HealthCheck.Path,
		FailThreshold:    uint32(cfg.HealthCheck.FailThreshold),
		RecoverThreshold: uint32(cfg.HealthCheck.RecoverThreshold),
	}, notifier, collector, log)
	go monitor.Run(ctx)

	forwardClient := &http.Client{
		Timeout: cfg.Proxy.TimeoutDuration(),
	}

	forwarder := proxy.NewForwarder(targets, state, forwardClient,
		cfg.Proxy.MaxBodyBytes(), collector, log)

	statusHandler := status.NewHandler(targets, state)

	mux := setupRouter(forwarder, statusHandler, collector)

	srv, err := httpserver.New(cfg.Server.Address, mux, cfg.Proxy.TimeoutDuration())
	if err != nil {
		log.Error("Failed to create server", slog.Any("err", err))
		os.Exit(1)
	}

	log.Info("Starting failover proxy",
		slog.String("listen", cfg.Server.Address),
		slog.String("primary", cfg.Upstream.Primary),
		slog.String("backup", cfg.Upstream.Backup))

	srvErrCh := make(chan error, 1)

	go func() {
		srvErrCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("Error during shutdown", slog.Any("err", err))
		}
	case err := <-srvErrCh:
		if err != nil {
			log.Error("Error starting failover proxy", slog.Any("err", err))
			os.Exit(1)
		}
	}
}
