package publisher

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/quantumflow/market-data/business/marketdata/domain"
)

func TestToWireState_RoundTripPreservesDecimals(t *testing.T) {
	mid := decimal.RequireFromString("50000.5")
	imb := decimal.RequireFromString("-0.142857142857142857")

	state := domain.State{
		Symbol:       "BTCUSDT",
		Timestamp:    1700000000,
		LastUpdateID: 102,
		Bids:         []domain.Level{{Price: decimal.RequireFromString("50000"), Quantity: decimal.RequireFromString("1.5")}},
		Asks:         []domain.Level{{Price: decimal.RequireFromString("50001"), Quantity: decimal.RequireFromString("1.0")}},
		Metrics: domain.Metrics{
			MidPrice:  &mid,
			Imbalance: &imb,
			BidDepth:  decimal.RequireFromString("1.5"),
			AskDepth:  decimal.RequireFromString("1.0"),
			BidLevels: 1,
			AskLevels: 1,
		},
	}

	wire := toWireState(state)

	data, err := msgpack.Marshal(wire)
	require.NoError(t, err)

	var decoded wireState
	require.NoError(t, msgpack.Unmarshal(data, &decoded))

	assert.Equal(t, "BTCUSDT", decoded.Symbol)
	assert.Equal(t, uint64(102), decoded.LastUpdateID)
	require.Len(t, decoded.Bids, 1)
	assert.Equal(t, "50000", decoded.Bids[0].Price)
	require.NotNil(t, decoded.Metrics.MidPrice)
	assert.Equal(t, "50000.5", *decoded.Metrics.MidPrice)
	require.NotNil(t, decoded.Metrics.Imbalance)
	assert.Equal(t, "-0.142857142857142857", *decoded.Metrics.Imbalance)
}

func TestToWireState_NilMetricsBecomeNilPointers(t *testing.T) {
	state := domain.State{Symbol: "BTCUSDT", Metrics: domain.Metrics{BidDepth: decimal.Zero, AskDepth: decimal.Zero}}

	wire := toWireState(state)

	assert.Nil(t, wire.Metrics.MidPrice)
	assert.Nil(t, wire.Metrics.SpreadBps)
	assert.Nil(t, wire.Metrics.Imbalance)
	assert.Nil(t, wire.Metrics.WeightedImbalance)
}
