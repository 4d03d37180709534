package app

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/quantumflow/market-data/business/marketdata/domain"
	"github.com/quantumflow/market-data/internal/logger"
)

func TestService_IsHealthy_NoSymbolsYet(t *testing.T) {
	manager := domain.NewManager(20)
	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	svc := NewService(manager, nil, log, time.Second)

	healthy, msg := svc.IsHealthy(context.Background())
	assert.False(t, healthy)
	assert.NotEmpty(t, msg)
}

func TestService_IsHealthy_AllSymbolsInitialized(t *testing.T) {
	manager := domain.NewManager(20)
	manager.InitBook("BTCUSDT", domain.Snapshot{LastUpdateID: 1})
	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	svc := NewService(manager, nil, log, time.Second)

	healthy, _ := svc.IsHealthy(context.Background())
	assert.True(t, healthy)
}
