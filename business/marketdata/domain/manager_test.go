package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_InitBookAndApplyDiff(t *testing.T) {
	m := NewManager(20)
	m.InitBook("BTCUSDT", Snapshot{LastUpdateID: 100, Bids: []PriceLevel{pl("50000", "1")}})

	assert.True(t, m.HasSymbol("BTCUSDT"))
	assert.True(t, m.IsInitialized("BTCUSDT"))

	applied := m.ApplyDiff(DepthDiff{Symbol: "BTCUSDT", FirstUpdateID: 101, FinalUpdateID: 101, Bids: []PriceLevel{pl("50000", "2")}})
	assert.True(t, applied)

	state, ok := m.State("BTCUSDT")
	require.True(t, ok)
	assert.Equal(t, uint64(101), state.LastUpdateID)
}

func TestManager_ApplyDiffForUnknownSymbolFails(t *testing.T) {
	m := NewManager(20)
	applied := m.ApplyDiff(DepthDiff{Symbol: "ETHUSDT", FirstUpdateID: 1, FinalUpdateID: 1})
	assert.False(t, applied)
}

func TestManager_StateForUnknownSymbol(t *testing.T) {
	m := NewManager(20)
	_, ok := m.State("ETHUSDT")
	assert.False(t, ok)
	assert.False(t, m.IsInitialized("ETHUSDT"))
	_, ok = m.LastUpdateID("ETHUSDT")
	assert.False(t, ok)
}

func TestManager_SymbolsAndAllStates(t *testing.T) {
	m := NewManager(20)
	m.InitBook("BTCUSDT", Snapshot{LastUpdateID: 1})
	m.InitBook("ETHUSDT", Snapshot{LastUpdateID: 1})

	assert.ElementsMatch(t, []string{"BTCUSDT", "ETHUSDT"}, m.Symbols())
	assert.Len(t, m.AllStates(), 2)
}
