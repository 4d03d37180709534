package app

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quantumflow/market-data/business/marketdata/domain"
	"github.com/quantumflow/market-data/internal/logger"
)

// Scenario 6: buffered diffs {U:50,u:60}, {U:61,u:75}, {U:76,u:90} against a
// snapshot with last_update_id=70 — only the first is stale (60 <= 70, fully
// covered by the snapshot) and gets dropped. {U:61,u:75} is kept and is the
// valid first diff to replay, since 61 <= 71 <= 75.
func TestDropStaleAndValidFirstDiff_ResyncHandshake(t *testing.T) {
	buffer := []domain.DepthDiff{
		{FirstUpdateID: 50, FinalUpdateID: 60},
		{FirstUpdateID: 61, FinalUpdateID: 75},
		{FirstUpdateID: 76, FinalUpdateID: 90},
	}

	remaining := dropStale(buffer, 70)
	assert.Len(t, remaining, 2)
	assert.Equal(t, uint64(61), remaining[0].FirstUpdateID)

	assert.True(t, validFirstDiff(remaining[0], 70))
}

func TestDropStale_AllDiffsStale(t *testing.T) {
	buffer := []domain.DepthDiff{
		{FirstUpdateID: 1, FinalUpdateID: 10},
		{FirstUpdateID: 11, FinalUpdateID: 20},
	}

	remaining := dropStale(buffer, 25)
	assert.Empty(t, remaining)
}

func TestDropStale_NoDiffsStale(t *testing.T) {
	buffer := []domain.DepthDiff{
		{FirstUpdateID: 51, FinalUpdateID: 60},
	}

	remaining := dropStale(buffer, 50)
	assert.Len(t, remaining, 1)
}

func TestValidFirstDiff_SnapshotTooOld(t *testing.T) {
	// first_update_id (76) > L+1 (71): there's a gap the snapshot can't cover.
	diff := domain.DepthDiff{FirstUpdateID: 76, FinalUpdateID: 90}
	assert.False(t, validFirstDiff(diff, 70))
}

func TestValidFirstDiff_ExactBoundary(t *testing.T) {
	diff := domain.DepthDiff{FirstUpdateID: 71, FinalUpdateID: 71}
	assert.True(t, validFirstDiff(diff, 70))
}

// A live diff must chain exactly off last_update_id. A forward gap (some
// updates missed) must NOT be accepted just because final_update_id is
// newer than last — that is exactly the weaker check the book's own
// ApplyDiff performs, which this helper exists to guard against.
func TestIsChainedDiff_ForwardGapRejected(t *testing.T) {
	// last=100, diff covers 106-110: five updates (101-105) were missed.
	diff := domain.DepthDiff{FirstUpdateID: 106, FinalUpdateID: 110}
	assert.False(t, isChainedDiff(diff, 100, true))
}

func TestIsChainedDiff_ExactChainAccepted(t *testing.T) {
	diff := domain.DepthDiff{FirstUpdateID: 101, FinalUpdateID: 105}
	assert.True(t, isChainedDiff(diff, 100, true))
}

func TestIsChainedDiff_NoTrackedBookRejected(t *testing.T) {
	diff := domain.DepthDiff{FirstUpdateID: 1, FinalUpdateID: 1}
	assert.False(t, isChainedDiff(diff, 0, false))
}

func TestIsChainedDiff_DuplicateOrStaleRejected(t *testing.T) {
	// final_update_id <= last: already applied, not a valid "next" diff either.
	diff := domain.DepthDiff{FirstUpdateID: 95, FinalUpdateID: 100}
	assert.False(t, isChainedDiff(diff, 100, true))
}

// resetAllToSyncing must re-arm the buffer-then-validate handshake on
// reconnect, not just on the first connect: a symbol left in modeLive with
// a stale buffer would otherwise apply the next live diff straight through
// instead of buffering it until a fresh snapshot is reconciled.
func TestResetAllToSyncing_ReArmsBufferingForReconnect(t *testing.T) {
	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	manager := domain.NewManager(20)
	sup := NewSupervisor(SupervisorConfig{Symbols: []string{"BTCUSDT"}}, manager, nil, nil, log)

	state := sup.symbolState("BTCUSDT")
	state.mu.Lock()
	state.mode = modeLive
	state.buffer = []domain.DepthDiff{{FirstUpdateID: 1, FinalUpdateID: 1}}
	state.mu.Unlock()

	sup.resetAllToSyncing()

	state.mu.Lock()
	defer state.mu.Unlock()
	assert.Equal(t, modeSyncing, state.mode)
	assert.Empty(t, state.buffer)
}
