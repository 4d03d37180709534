// Package app wires the order book manager, the exchange ingest client and
// the IPC publisher into the running service.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/quantumflow/market-data/business/marketdata/domain"
	"github.com/quantumflow/market-data/business/marketdata/infra/binance"
	"github.com/quantumflow/market-data/business/marketdata/infra/parser"
	"github.com/quantumflow/market-data/business/marketdata/infra/publisher"
	"github.com/quantumflow/market-data/internal/circuitbreaker"
	"github.com/quantumflow/market-data/internal/logger"
	"github.com/quantumflow/market-data/internal/ratelimit"
	"github.com/quantumflow/market-data/internal/wsconn"
)

// SupervisorConfig parameterizes the ingest/sync supervisor.
type SupervisorConfig struct {
	Symbols              []string
	WSEndpoint           string
	RESTEndpoint         string
	DepthLevels          int
	ReconnectDelay       time.Duration
	MaxReconnectAttempts int
	KeepaliveTimeout     time.Duration
	RecvTimeout          time.Duration
}

const maxBackoff = 60 * time.Second

// syncMode tracks where a single symbol sits in the resync handshake.
type syncMode int

const (
	modeSyncing syncMode = iota // buffering diffs, waiting on a usable snapshot
	modeLive                    // book is live, diffs must chain off last_update_id
)

// symbolState is the per-symbol bookkeeping for the resync protocol.
type symbolState struct {
	mu     sync.Mutex
	mode   syncMode
	buffer []domain.DepthDiff
}

// Supervisor owns the exchange WebSocket stream for every configured
// symbol, runs the REST-snapshot/diff-stream resync handshake, applies
// accepted diffs to the book manager, and republishes affected books.
type Supervisor struct {
	cfg       SupervisorConfig
	manager   *domain.Manager
	rest      *binance.RESTClient
	pub       *publisher.Publisher
	log       logger.LoggerInterface
	restLimit *ratelimit.Limiter
	restCB    *circuitbreaker.CircuitBreaker[domain.Snapshot]

	statesMu sync.Mutex
	states   map[string]*symbolState
}

// NewSupervisor wires the manager, REST client and publisher for cfg.
func NewSupervisor(cfg SupervisorConfig, manager *domain.Manager, rest *binance.RESTClient, pub *publisher.Publisher, log logger.LoggerInterface) *Supervisor {
	states := make(map[string]*symbolState, len(cfg.Symbols))
	for _, s := range cfg.Symbols {
		states[s] = &symbolState{mode: modeSyncing}
	}

	return &Supervisor{
		cfg:       cfg,
		manager:   manager,
		rest:      rest,
		pub:       pub,
		log:       log,
		restLimit: ratelimit.NewWithBurst(5, 3),
		restCB:    circuitbreaker.New[domain.Snapshot](circuitbreaker.DefaultConfig("binance-rest-snapshot")),
		states:    states,
	}
}

// Run connects to the exchange stream and blocks until ctx is cancelled.
// Reconnection, backoff and keepalive are handled by the underlying
// wsconn.Client; every time it reports a fresh connection (initial or after
// a reconnect), Run restarts the resync handshake for every symbol.
func (s *Supervisor) Run(ctx context.Context) error {
	url := binance.StreamURL(s.cfg.WSEndpoint, s.cfg.Symbols)

	wsCfg := wsconn.DefaultConfig(url, "binance-depth-trade-stream")
	wsCfg.InitialBackoff = s.cfg.ReconnectDelay
	wsCfg.MaxBackoff = maxBackoff
	wsCfg.MaxReconnects = s.cfg.MaxReconnectAttempts
	wsCfg.PingInterval = s.cfg.KeepaliveTimeout
	wsCfg.ReadTimeout = s.cfg.RecvTimeout

	client, err := wsconn.New(wsCfg)
	if err != nil {
		return err
	}
	defer client.Close()

	client.OnMessage(func(msgCtx context.Context, data []byte) {
		s.handleMessage(msgCtx, data)
	})
	client.OnStateChange(func(state wsconn.State, err error) {
		if state == wsconn.StateConnected {
			s.log.Info(ctx, "stream connected, restarting resync handshake", "ws_name", "binance-depth-trade-stream")
			go s.resyncAll(ctx)
		}
	})

	if err := client.ConnectWithRetry(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	return ctx.Err()
}

// resyncAll runs the resync handshake (§ symbol sync protocol) for every
// configured symbol, in parallel. Every symbol is reset to modeSyncing and
// has its buffer cleared before any snapshot fetch starts, so this also
// re-establishes the buffer-then-validate handshake on a transport
// reconnect, not just on the very first connect — diffs arriving while the
// snapshot fetch is in flight are buffered again instead of being applied
// live against a book that's about to be replaced.
func (s *Supervisor) resyncAll(ctx context.Context) {
	s.resetAllToSyncing()

	var wg sync.WaitGroup
	for _, symbol := range s.cfg.Symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			s.resyncOne(ctx, symbol)
		}(symbol)
	}
	wg.Wait()
}

// resetAllToSyncing flips every configured symbol back to modeSyncing and
// drops any leftover buffer, synchronously, before any snapshot fetch
// starts. Run on every connect and reconnect so the buffer-then-validate
// handshake applies uniformly, not just on the very first connection.
func (s *Supervisor) resetAllToSyncing() {
	for _, symbol := range s.cfg.Symbols {
		state := s.symbolState(symbol)
		state.mu.Lock()
		state.mode = modeSyncing
		state.buffer = nil
		state.mu.Unlock()
	}
}

// resyncOne fetches a REST snapshot and reconciles it against the diffs
// buffered since the connection opened, per the standard handshake:
//  1. buffered diffs accumulate in state.buffer while mode == modeSyncing
//  2. fetch snapshot, L = snapshot.LastUpdateID
//  3. drop buffered diffs with FinalUpdateID <= L
//  4. the first remaining diff must satisfy FirstUpdateID <= L+1 <= FinalUpdateID,
//     otherwise the snapshot is already stale and step 2 repeats
//  5. apply the snapshot, then the remaining buffered diffs, in order
//  6. flip to modeLive so new diffs are applied directly
func (s *Supervisor) resyncOne(ctx context.Context, symbol string) {
	state := s.symbolState(symbol)

	for {
		snap, err := s.fetchSnapshot(ctx, symbol)
		if err != nil {
			s.log.Warn(ctx, "snapshot fetch failed, retrying", "symbol", symbol, "error", err.Error())
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.cfg.ReconnectDelay):
			}
			continue
		}

		state.mu.Lock()
		remaining := dropStale(state.buffer, snap.LastUpdateID)

		if len(remaining) > 0 && !validFirstDiff(remaining[0], snap.LastUpdateID) {
			// Snapshot is already older than the oldest usable buffered diff;
			// it was stale before we even finished applying it. Refetch.
			state.mu.Unlock()
			continue
		}

		s.manager.InitBook(symbol, snap)
		for _, diff := range remaining {
			s.manager.ApplyDiff(diff)
		}
		state.mode = modeLive
		state.buffer = nil
		state.mu.Unlock()

		s.log.Info(ctx, "order book synchronized", "symbol", symbol, "last_update_id", snap.LastUpdateID, "buffered_replayed", len(remaining))
		s.publishSymbol(ctx, symbol)
		return
	}
}

// dropStale removes diffs whose FinalUpdateID is at or before the snapshot's
// last_update_id — they're already reflected in the snapshot.
func dropStale(buffer []domain.DepthDiff, lastUpdateID uint64) []domain.DepthDiff {
	for i, d := range buffer {
		if d.FinalUpdateID > lastUpdateID {
			return buffer[i:]
		}
	}
	return nil
}

// validFirstDiff checks the mandatory first-applied-diff constraint:
// first_update_id <= L+1 <= final_update_id.
func validFirstDiff(d domain.DepthDiff, lastUpdateID uint64) bool {
	return d.FirstUpdateID <= lastUpdateID+1 && lastUpdateID+1 <= d.FinalUpdateID
}

// isChainedDiff reports whether a live diff can be applied directly to a
// book whose current last_update_id is last (hasLast is false if the book
// isn't tracked at all yet). A live diff must chain exactly off the book's
// sequence number; anything else — including a forward gap where
// final_update_id would otherwise look newer than last — means the book
// has to be resynchronized instead of mutated.
func isChainedDiff(d domain.DepthDiff, last uint64, hasLast bool) bool {
	return hasLast && d.FirstUpdateID == last+1
}

func (s *Supervisor) fetchSnapshot(ctx context.Context, symbol string) (domain.Snapshot, error) {
	if err := s.restLimit.Wait(ctx); err != nil {
		return domain.Snapshot{}, err
	}
	return s.restCB.Execute(func() (domain.Snapshot, error) {
		return s.rest.FetchSnapshot(ctx, symbol, s.cfg.DepthLevels)
	})
}

func (s *Supervisor) symbolState(symbol string) *symbolState {
	s.statesMu.Lock()
	defer s.statesMu.Unlock()
	st, ok := s.states[symbol]
	if !ok {
		st = &symbolState{mode: modeSyncing}
		s.states[symbol] = st
	}
	return st
}

// handleMessage parses one raw stream frame and routes it.
func (s *Supervisor) handleMessage(ctx context.Context, data []byte) {
	msg, err := parser.Parse(data)
	if err != nil {
		s.log.Warn(ctx, "failed to parse stream message", "error", err.Error())
		return
	}

	switch msg.Kind {
	case parser.KindDepthDiff:
		s.handleDepthDiff(ctx, msg.Depth)
	case parser.KindTrade:
		s.log.Debug(ctx, "trade received", "symbol", msg.Trade.Symbol, "price", msg.Trade.Price.String(), "quantity", msg.Trade.Quantity.String())
	case parser.KindUnknown:
		s.log.Debug(ctx, "unknown stream message", "payload", msg.Unknown)
	}
}

func (s *Supervisor) handleDepthDiff(ctx context.Context, diff domain.DepthDiff) {
	state := s.symbolState(diff.Symbol)

	state.mu.Lock()
	if state.mode == modeSyncing {
		state.buffer = append(state.buffer, diff)
		state.mu.Unlock()
		return
	}
	state.mu.Unlock()

	// A live diff is only safe to apply if it chains directly off the
	// book's last_update_id. ApplyDiff on its own only rejects a diff that
	// is stale (final_update_id <= last), which says nothing about a
	// forward gap — e.g. last=100 and a diff covering 106-110 would pass
	// that check and silently apply over five missed updates. The
	// first_update_id == last+1 chain check has to happen here, before
	// ApplyDiff is even called.
	last, ok := s.manager.LastUpdateID(diff.Symbol)
	if !isChainedDiff(diff, last, ok) {
		s.log.Warn(ctx, "sequence gap detected, restarting resync", "symbol", diff.Symbol, "first_update_id", diff.FirstUpdateID, "final_update_id", diff.FinalUpdateID, "last_update_id", last)
		state.mu.Lock()
		state.mode = modeSyncing
		state.buffer = []domain.DepthDiff{diff}
		state.mu.Unlock()
		go s.resyncOne(ctx, diff.Symbol)
		return
	}

	if !s.manager.ApplyDiff(diff) {
		return
	}

	s.publishSymbol(ctx, diff.Symbol)
}

// publishSymbol takes an immutable copy of the book's state and republishes
// it — deliberately outside of any manager lock, per the single discipline
// this service insists on: writer locks must never be held across publish I/O.
func (s *Supervisor) publishSymbol(ctx context.Context, symbol string) {
	state, ok := s.manager.State(symbol)
	if !ok {
		return
	}
	s.pub.Publish(ctx, state)
}
