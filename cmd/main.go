package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/angeloszaimis/uptime-monitor/config"
	"github.com/angeloszaimis/uptime-monitor/internal/circuitbreaker"
	"github.com/angeloszaimis/uptime-monitor/internal/handler"
	"github.com/angeloszaimis/uptime-monitor/internal/httpserver"
	"github.com/angeloszaimis/uptime-monitor/internal/metrics"
	"github.com/angeloszaimis/uptime-monitor/internal/monitor"
	"github.com/angeloszaimis/uptime-monitor/internal/notify"
	"github.com/angeloszaimis/uptime-monitor/internal/probe"
	"github.com/angeloszaimis/uptime-monitor/internal/rotation"
	"github.com/angeloszaimis/uptime-monitor/internal/storage"
	"github.com/angeloszaimis/uptime-monitor/internal/worker"
	"github.com/angeloszaimis/uptime-monitor/pkg/logger"
)

const (
	checksCollection  = "checks"
	metricsBufferSize = 1000
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, true, cfg.Server.Environment)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(cfg, log)
	if err != nil {
		log.Error("Failed to initialize", slog.Any("err", err))
		os.Exit(1)
	}

	if err := a.run(ctx); err != nil {
		log.Error("Monitor stopped with error", slog.Any("err", err))
		os.Exit(1)
	}
}

type app struct {
	log            *slog.Logger
	server         *httpserver.Server
	collector      *metrics.Collector
	checkWorker    *worker.Periodic
	rotationWorker *worker.Periodic
}

// newApp wires the stores, workers and status API. A storage directory that
// exists but is not a directory is reported here, before anything runs.
func newApp(cfg *config.Config, log *slog.Logger) (*app, error) {
	store := storage.NewStore(cfg.Storage.DataDir, cfg.Storage.HashSecret)
	checks := store.Collection(checksCollection)
	if err := checks.Init(); err != nil {
		return nil, fmt.Errorf("init record store: %w", err)
	}

	logs := storage.NewLogStore(cfg.Storage.LogDir)
	if err := logs.Init(); err != nil {
		return nil, fmt.Errorf("init log store: %w", err)
	}

	collector := metrics.NewCollector(metricsBufferSize, logger.Component(log, "metrics"))

	pipeline := monitor.NewPipeline(checks, logs, probe.NewHTTPProber(), buildNotifier(cfg.Notify, log), log,
		monitor.WithConcurrency(cfg.Workers.CheckConcurrency),
		monitor.WithEvents(collector),
	)
	checkWorker := monitor.NewCheckWorker(pipeline, cfg.Workers.CheckInterval, log)

	sweeper := rotation.NewSweeper(logs, collector, log)
	rotationWorker := rotation.NewWorker(sweeper, cfg.Workers.RotationInterval, log)

	status := handler.NewStatusHandler(logger.Component(log, "api"), checks, logs, checkWorker, rotationWorker)

	srv, err := httpserver.New(cfg.Server.Address, setupRouter(status, collector, log))
	if err != nil {
		return nil, fmt.Errorf("create server: %w", err)
	}

	return &app{
		log:            log,
		server:         srv,
		collector:      collector,
		checkWorker:    checkWorker,
		rotationWorker: rotationWorker,
	}, nil
}

func buildNotifier(cfg config.NotifyConfig, log *slog.Logger) notify.Notifier {
	var n notify.Notifier
	switch cfg.Provider {
	case config.ProviderTwilio:
		n = notify.NewTwilioNotifier(notify.TwilioConfig{
			AccountSID: cfg.Twilio.AccountSID,
			AuthToken:  cfg.Twilio.AuthToken,
			From:       cfg.Twilio.From,
			BaseURL:    cfg.Twilio.BaseURL,
		}, nil)
	default:
		n = notify.NewLogNotifier(logger.Component(log, "notify"))
	}

	n = notify.NewGuarded(n, circuitbreaker.NewRegistry(cfg.BreakerThreshold, cfg.BreakerReset))
	return notify.NewThrottled(n, cfg.RatePerSecond, cfg.Burst)
}

// run blocks until ctx is cancelled or the server fails, then stops
// scheduling new cycles and waits for the ones in flight.
func (a *app) run(ctx context.Context) error {
	if err := a.server.Listen(); err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	collectorCtx, stopCollector := context.WithCancel(context.Background())
	defer stopCollector()
	a.collector.Start(collectorCtx)

	go a.checkWorker.Loop(ctx)
	go a.rotationWorker.Loop(ctx)

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- a.server.Start()
	}()

	a.log.Info("Uptime monitor started", slog.String("addr", a.server.Addr()))

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("Shutting down gracefully...")
	case err := <-srvErrCh:
		if err != nil {
			runErr = fmt.Errorf("status server: %w", err)
		}
	}

	if err := a.server.Shutdown(context.Background()); err != nil {
		a.log.Error("Error during shutdown", slog.Any("err", err))
	}

	a.checkWorker.Shutdown()
	a.rotationWorker.Shutdown()
	<-a.checkWorker.Done()
	<-a.rotationWorker.Done()

	stopCollector()
	<-a.collector.Done()

	return runErr
}
