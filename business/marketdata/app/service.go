package app

import (
	"context"
	"time"

	"github.com/quantumflow/market-data/business/marketdata/domain"
	"github.com/quantumflow/market-data/internal/logger"
)

// Service glues the book manager, ingest supervisor and periodic status
// logging task together, and exposes read-only accessors for the health
// server.
type Service struct {
	manager             *domain.Manager
	supervisor          *Supervisor
	log                 logger.LoggerInterface
	healthCheckInterval time.Duration
}

// NewService wires a manager, supervisor and the health-check logging
// interval together.
func NewService(manager *domain.Manager, supervisor *Supervisor, log logger.LoggerInterface, healthCheckInterval time.Duration) *Service {
	return &Service{
		manager:             manager,
		supervisor:          supervisor,
		log:                 log,
		healthCheckInterval: healthCheckInterval,
	}
}

// Run starts the ingest supervisor and the periodic status logger, and
// blocks until ctx is cancelled or the supervisor exits.
func (s *Service) Run(ctx context.Context) error {
	go s.statusLoop(ctx)
	return s.supervisor.Run(ctx)
}

// statusLoop logs a line per symbol with its current microstructure
// metrics every healthCheckInterval. It reads the manager through its
// normal read lock and exits promptly on cancellation.
func (s *Service) statusLoop(ctx context.Context) {
	ticker := time.NewTicker(s.healthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, symbol := range s.manager.Symbols() {
				state, ok := s.manager.State(symbol)
				if !ok || state.Metrics.MidPrice == nil {
					continue
				}
				s.log.Info(ctx, "order book status",
					"symbol", symbol,
					"mid_price", state.Metrics.MidPrice.String(),
					"bid_levels", state.Metrics.BidLevels,
					"ask_levels", state.Metrics.AskLevels,
				)
			}
		}
	}
}

// IsHealthy reports whether every configured symbol has an initialized book.
// Used by the /health and /ready HTTP handlers.
func (s *Service) IsHealthy(ctx context.Context) (bool, string) {
	symbols := s.manager.Symbols()
	if s.supervisor != nil {
		symbols = s.supervisor.cfg.Symbols
	}
	if len(symbols) == 0 {
		return false, "no symbols initialized yet"
	}
	for _, symbol := range symbols {
		if !s.manager.IsInitialized(symbol) {
			return false, "book not yet initialized: " + symbol
		}
	}
	return true, ""
}
