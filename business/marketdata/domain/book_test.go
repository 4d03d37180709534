package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func pl(price, qty string) PriceLevel {
	return PriceLevel{Price: d(price), Quantity: d(qty)}
}

// Scenario 1: a snapshot followed by a diff produces the expected best bid
// and last_update_id.
func TestOrderBook_SnapshotThenDiff(t *testing.T) {
	book := NewOrderBook("BTCUSDT", 20)
	book.InitSnapshot(Snapshot{
		LastUpdateID: 100,
		Bids:         []PriceLevel{pl("50000", "1.5"), pl("49999", "2.0")},
		Asks:         []PriceLevel{pl("50001", "1.0"), pl("50002", "0.5")},
	})

	applied := book.ApplyDiff(DepthDiff{
		Symbol:        "BTCUSDT",
		FirstUpdateID: 101,
		FinalUpdateID: 102,
		Bids:          []PriceLevel{pl("50000", "1.8")},
	})
	require.True(t, applied)

	bid, ok := book.BestBid()
	require.True(t, ok)
	assert.True(t, bid.Equal(d("50000")))
	assert.Equal(t, uint64(102), book.LastUpdateID())
}

// Scenario 2: a diff whose final_update_id is at or before the book's
// current last_update_id is rejected as stale.
func TestOrderBook_RejectsStaleDiff(t *testing.T) {
	book := NewOrderBook("BTCUSDT", 20)
	book.InitSnapshot(Snapshot{LastUpdateID: 100, Bids: []PriceLevel{pl("50000", "1")}})

	applied := book.ApplyDiff(DepthDiff{Symbol: "BTCUSDT", FirstUpdateID: 90, FinalUpdateID: 100})
	assert.False(t, applied)
	assert.Equal(t, uint64(100), book.LastUpdateID())
}

// Scenario 3: a zero-quantity level in a diff deletes that price.
func TestOrderBook_ZeroQuantityDeletesLevel(t *testing.T) {
	book := NewOrderBook("BTCUSDT", 20)
	book.InitSnapshot(Snapshot{
		LastUpdateID: 100,
		Bids:         []PriceLevel{pl("50000", "1"), pl("49999", "2")},
	})

	book.ApplyDiff(DepthDiff{
		Symbol:        "BTCUSDT",
		FirstUpdateID: 101,
		FinalUpdateID: 101,
		Bids:          []PriceLevel{pl("50000", "0")},
	})

	bid, ok := book.BestBid()
	require.True(t, ok)
	assert.True(t, bid.Equal(d("49999")), "expected 50000 to be removed, best bid is now 49999")
}

// Scenario 4: mid price and spread_bps compute to exact decimal values.
func TestOrderBook_MidPriceAndSpread(t *testing.T) {
	book := NewOrderBook("BTCUSDT", 20)
	book.InitSnapshot(Snapshot{
		LastUpdateID: 1,
		Bids:         []PriceLevel{pl("100", "1")},
		Asks:         []PriceLevel{pl("101", "1")},
	})

	mid, ok := book.MidPrice()
	require.True(t, ok)
	assert.True(t, mid.Equal(d("100.5")))

	spread, ok := book.SpreadBps()
	require.True(t, ok)
	// (101-100)/100.5 * 10000
	expected := d("1").Div(d("100.5")).Mul(decimal.NewFromInt(10000))
	assert.True(t, spread.Equal(expected))
}

// Scenario 5: imbalance over the top levels matches (bid-ask)/(bid+ask).
func TestOrderBook_Imbalance(t *testing.T) {
	book := NewOrderBook("BTCUSDT", 20)
	book.InitSnapshot(Snapshot{
		LastUpdateID: 1,
		Bids:         []PriceLevel{pl("100", "3")},
		Asks:         []PriceLevel{pl("101", "4")},
	})

	imb, ok := book.Imbalance(5)
	require.True(t, ok)
	// (3-4)/(3+4) = -1/7
	expected := d("3").Sub(d("4")).Div(d("7"))
	assert.True(t, imb.Equal(expected))
}

// Scenario 7: a snapshot with more bid levels than max_depth is trimmed on
// init, keeping the best (highest) bids.
func TestOrderBook_TrimsToMaxDepth(t *testing.T) {
	book := NewOrderBook("BTCUSDT", 3)
	book.InitSnapshot(Snapshot{
		LastUpdateID: 1,
		Bids: []PriceLevel{
			pl("100", "1"), pl("99", "1"), pl("98", "1"), pl("97", "1"), pl("96", "1"),
		},
	})

	state := book.State()
	assert.Len(t, state.Bids, 3)
	assert.True(t, state.Bids[0].Price.Equal(d("100")))
	assert.True(t, state.Bids[2].Price.Equal(d("98")))
}

func TestOrderBook_ApplyDiffBeforeSnapshotIsRejected(t *testing.T) {
	book := NewOrderBook("BTCUSDT", 20)
	applied := book.ApplyDiff(DepthDiff{Symbol: "BTCUSDT", FirstUpdateID: 1, FinalUpdateID: 1})
	assert.False(t, applied)
	assert.False(t, book.IsInitialized())
}

func TestOrderBook_EmptyBookHasNoMetrics(t *testing.T) {
	book := NewOrderBook("BTCUSDT", 20)
	book.InitSnapshot(Snapshot{LastUpdateID: 1})

	_, ok := book.BestBid()
	assert.False(t, ok)
	_, ok = book.MidPrice()
	assert.False(t, ok)
	_, ok = book.Imbalance(5)
	assert.False(t, ok)

	state := book.State()
	assert.Nil(t, state.Metrics.MidPrice)
	assert.Nil(t, state.Metrics.Imbalance)
}

func TestOrderBook_ReinitSnapshotReplacesLadders(t *testing.T) {
	book := NewOrderBook("BTCUSDT", 20)
	book.InitSnapshot(Snapshot{LastUpdateID: 1, Bids: []PriceLevel{pl("100", "1")}})
	book.InitSnapshot(Snapshot{LastUpdateID: 50, Bids: []PriceLevel{pl("200", "1")}})

	bid, ok := book.BestBid()
	require.True(t, ok)
	assert.True(t, bid.Equal(d("200")))
	assert.Equal(t, uint64(50), book.LastUpdateID())
}
