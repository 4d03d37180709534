// Command marketdata ingests Binance depth and trade streams, reconstructs
// per-symbol order books, and republishes their state over a local Unix
// socket.
package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/quantumflow/market-data/business/marketdata/app"
	"github.com/quantumflow/market-data/business/marketdata/domain"
	"github.com/quantumflow/market-data/business/marketdata/infra/binance"
	"github.com/quantumflow/market-data/business/marketdata/infra/publisher"
	"github.com/quantumflow/market-data/internal/apm"
	"github.com/quantumflow/market-data/internal/config"
	"github.com/quantumflow/market-data/internal/health"
	"github.com/quantumflow/market-data/internal/logger"
	"github.com/quantumflow/market-data/internal/metrics"
)

const component = "market-data"

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Configuration errors are the one case where this service should
		// not attempt to recover locally.
		panic(err)
	}

	log := logger.New(os.Stdout, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, nil)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Telemetry.Enabled {
		tp := apm.NewTraceProvider(log, apm.WithProvider(apm.ZipkinProvider, log))
		defer tp.Stop()

		mp := metrics.NewMetricProvider(
			metrics.WithServiceName(cfg.Telemetry.ServiceName),
			metrics.WithProviderConfig(metrics.NewPrometheusConfig()),
		)
		defer mp.Shutdown(ctx)

		go metrics.ServePrometheusMetrics(metrics.WithPort(intToPort(cfg.Telemetry.PrometheusPort)))
	}

	manager := domain.NewManager(cfg.DepthLevels)

	rest, err := binance.NewRESTClient(cfg.RESTEndpoint)
	if err != nil {
		log.Error(ctx, "failed to build REST client", "error", err.Error())
		os.Exit(1)
	}

	pub := publisher.New(cfg.IPCSocketPath, log)
	defer pub.Close()

	supervisor := app.NewSupervisor(app.SupervisorConfig{
		Symbols:              cfg.Symbols,
		WSEndpoint:           cfg.WSEndpoint,
		RESTEndpoint:         cfg.RESTEndpoint,
		DepthLevels:          cfg.DepthLevels,
		ReconnectDelay:       cfg.ReconnectDelay,
		MaxReconnectAttempts: cfg.MaxReconnectAttempts,
		KeepaliveTimeout:     30 * time.Second,
		RecvTimeout:          45 * time.Second,
	}, manager, rest, pub, log)

	service := app.NewService(manager, supervisor, log, cfg.HealthCheckInterval)

	healthSrv := health.NewServer(cfg.App.HealthPort, "", component)
	healthSrv.RegisterCheck("orderbook", service.IsHealthy)
	if err := healthSrv.Start(); err != nil {
		log.Error(ctx, "failed to start health server", "error", err.Error())
		os.Exit(1)
	}

	log.Info(ctx, "market-data service starting", "symbols", cfg.Symbols, "ws_endpoint", cfg.WSEndpoint)

	if err := service.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error(ctx, "service exited with error", "error", err.Error())
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	healthSrv.Stop(shutdownCtx)

	log.Info(context.Background(), "market-data service stopped")
}

func intToPort(p int) string {
	if p <= 0 {
		return "2223"
	}
	return strconv.Itoa(p)
}
