package domain

import (
	"sync"

	"github.com/huandu/skiplist"
	"github.com/shopspring/decimal"
)

// priceAsc orders keys by ascending price (asks: lowest first).
type priceAsc struct{}

func (priceAsc) Compare(lhs, rhs interface{}) int {
	return lhs.(decimal.Decimal).Cmp(rhs.(decimal.Decimal))
}

func (priceAsc) CalcScore(key interface{}) float64 {
	f, _ := key.(decimal.Decimal).Float64()
	return f
}

// priceDesc orders keys by descending price (bids: highest first).
type priceDesc struct{}

func (priceDesc) Compare(lhs, rhs interface{}) int {
	return rhs.(decimal.Decimal).Cmp(lhs.(decimal.Decimal))
}

func (priceDesc) CalcScore(key interface{}) float64 {
	f, _ := key.(decimal.Decimal).Float64()
	return -f
}

// weightedImbalanceDecay is the per-level decay factor used when computing
// the published weighted_imbalance metric (10 levels, 0.9 decay).
var weightedImbalanceDecay = decimal.RequireFromString("0.9")

// OrderBook reconstructs exchange book state for a single symbol from a
// snapshot plus a sequence of applied diffs. Bids and asks are kept in
// skip lists rather than a hash table so that top-of-book, trim and
// ranged iteration stay O(log n) instead of O(n).
type OrderBook struct {
	mu             sync.RWMutex
	symbol         string
	bids           *skiplist.SkipList // descending: best bid at Front()
	asks           *skiplist.SkipList // ascending: best ask at Front()
	lastUpdateID   uint64
	lastUpdateTime uint64
	initialized    bool
	maxDepth       int
}

// NewOrderBook creates an empty, uninitialized book.
func NewOrderBook(symbol string, maxDepth int) *OrderBook {
	return &OrderBook{
		symbol:   symbol,
		bids:     skiplist.New(priceDesc{}),
		asks:     skiplist.New(priceAsc{}),
		maxDepth: maxDepth,
	}
}

// InitSnapshot (re)initializes the book from a REST snapshot. It never fails:
// zero-quantity levels are dropped, the ladders are rebuilt from scratch, and
// the book is marked initialized before trimming to max depth.
func (b *OrderBook) InitSnapshot(snap Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.bids = skiplist.New(priceDesc{})
	b.asks = skiplist.New(priceAsc{})

	for _, lvl := range snap.Bids {
		if lvl.Quantity.IsPositive() {
			b.bids.Set(lvl.Price, lvl.Quantity)
		}
	}
	for _, lvl := range snap.Asks {
		if lvl.Quantity.IsPositive() {
			b.asks.Set(lvl.Price, lvl.Quantity)
		}
	}

	b.lastUpdateID = snap.LastUpdateID
	b.initialized = true
	b.trimDepth()
}

// ApplyDiff applies an incremental depth update. It returns true if the diff
// was applied, false if it was skipped as stale (or the book isn't yet
// initialized) — it never fails.
func (b *OrderBook) ApplyDiff(diff DepthDiff) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return false
	}
	if diff.FinalUpdateID <= b.lastUpdateID {
		return false
	}

	for _, lvl := range diff.Bids {
		b.updateSide(b.bids, lvl)
	}
	for _, lvl := range diff.Asks {
		b.updateSide(b.asks, lvl)
	}

	b.lastUpdateID = diff.FinalUpdateID
	b.lastUpdateTime = diff.EventTime
	b.trimDepth()

	return true
}

func (b *OrderBook) updateSide(ladder *skiplist.SkipList, lvl PriceLevel) {
	if lvl.Quantity.IsZero() {
		ladder.Remove(lvl.Price)
		return
	}
	ladder.Set(lvl.Price, lvl.Quantity)
}

// trimDepth evicts the worst price level on each side — the edge farthest
// from the top of book — until both ladders are within maxDepth. The
// top-of-book is never evicted while fuller levels exist.
func (b *OrderBook) trimDepth() {
	for b.bids.Len() > b.maxDepth {
		b.bids.RemoveBack()
	}
	for b.asks.Len() > b.maxDepth {
		b.asks.RemoveBack()
	}
}

// BestBid returns the highest bid price, if any.
func (b *OrderBook) BestBid() (decimal.Decimal, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bestBidLocked()
}

func (b *OrderBook) bestBidLocked() (decimal.Decimal, bool) {
	if e := b.bids.Front(); e != nil {
		return e.Key().(decimal.Decimal), true
	}
	return decimal.Zero, false
}

// BestAsk returns the lowest ask price, if any.
func (b *OrderBook) BestAsk() (decimal.Decimal, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bestAskLocked()
}

func (b *OrderBook) bestAskLocked() (decimal.Decimal, bool) {
	if e := b.asks.Front(); e != nil {
		return e.Key().(decimal.Decimal), true
	}
	return decimal.Zero, false
}

// MidPrice is (best_bid + best_ask) / 2, or none if either side is empty.
func (b *OrderBook) MidPrice() (decimal.Decimal, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.midPriceLocked()
}

func (b *OrderBook) midPriceLocked() (decimal.Decimal, bool) {
	bid, ok := b.bestBidLocked()
	if !ok {
		return decimal.Zero, false
	}
	ask, ok := b.bestAskLocked()
	if !ok {
		return decimal.Zero, false
	}
	return bid.Add(ask).Div(decimal.NewFromInt(2)), true
}

// SpreadBps is (best_ask - best_bid) / mid * 10000.
func (b *OrderBook) SpreadBps() (decimal.Decimal, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.spreadBpsLocked()
}

func (b *OrderBook) spreadBpsLocked() (decimal.Decimal, bool) {
	bid, ok := b.bestBidLocked()
	if !ok {
		return decimal.Zero, false
	}
	ask, ok := b.bestAskLocked()
	if !ok {
		return decimal.Zero, false
	}
	mid, ok := b.midPriceLocked()
	if !ok || !mid.IsPositive() {
		return decimal.Zero, false
	}
	return ask.Sub(bid).Div(mid).Mul(decimal.NewFromInt(10000)), true
}

// Imbalance is (bid_vol - ask_vol) / (bid_vol + ask_vol) over the top N
// levels of each side, or none if the combined volume isn't positive.
func (b *OrderBook) Imbalance(levels int) (decimal.Decimal, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.imbalanceLocked(levels)
}

func (b *OrderBook) imbalanceLocked(levels int) (decimal.Decimal, bool) {
	bidVol := sumTop(b.bids, levels)
	askVol := sumTop(b.asks, levels)
	total := bidVol.Add(askVol)
	if !total.IsPositive() {
		return decimal.Zero, false
	}
	return bidVol.Sub(askVol).Div(total), true
}

// WeightedImbalance is like Imbalance but weights each level i (0-indexed)
// by decay^i, so levels closer to the top of book count for more.
func (b *OrderBook) WeightedImbalance(levels int, decay decimal.Decimal) (decimal.Decimal, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.weightedImbalanceLocked(levels, decay)
}

func (b *OrderBook) weightedImbalanceLocked(levels int, decay decimal.Decimal) (decimal.Decimal, bool) {
	if _, ok := b.midPriceLocked(); !ok {
		return decimal.Zero, false
	}

	bidW := weightedSumTop(b.bids, levels, decay)
	askW := weightedSumTop(b.asks, levels, decay)
	total := bidW.Add(askW)
	if !total.IsPositive() {
		return decimal.Zero, false
	}
	return bidW.Sub(askW).Div(total), true
}

func sumTop(ladder *skiplist.SkipList, levels int) decimal.Decimal {
	total := decimal.Zero
	e := ladder.Front()
	for i := 0; i < levels && e != nil; i++ {
		total = total.Add(e.Value.(decimal.Decimal))
		e = e.Next()
	}
	return total
}

func weightedSumTop(ladder *skiplist.SkipList, levels int, decay decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	e := ladder.Front()
	for i := 0; i < levels && e != nil; i++ {
		total = total.Add(e.Value.(decimal.Decimal).Mul(decayPow(decay, i)))
		e = e.Next()
	}
	return total
}

func decayPow(decay decimal.Decimal, exp int) decimal.Decimal {
	if exp == 0 {
		return decimal.NewFromInt(1)
	}
	return decay.Pow(decimal.NewFromInt(int64(exp)))
}

// IsInitialized reports whether the book has received its first snapshot.
func (b *OrderBook) IsInitialized() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.initialized
}

// LastUpdateID returns the sequence number of the last applied snapshot/diff.
func (b *OrderBook) LastUpdateID() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastUpdateID
}

// State returns an immutable snapshot of the book ready for publishing.
func (b *OrderBook) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return State{
		Symbol:       b.symbol,
		Timestamp:    b.lastUpdateTime,
		LastUpdateID: b.lastUpdateID,
		Bids:         levelsOf(b.bids),
		Asks:         levelsOf(b.asks),
		Metrics:      b.metricsLocked(),
	}
}

func levelsOf(ladder *skiplist.SkipList) []Level {
	levels := make([]Level, 0, ladder.Len())
	for e := ladder.Front(); e != nil; e = e.Next() {
		levels = append(levels, Level{
			Price:    e.Key().(decimal.Decimal),
			Quantity: e.Value.(decimal.Decimal),
		})
	}
	return levels
}

func (b *OrderBook) metricsLocked() Metrics {
	m := Metrics{
		BidDepth:  sumTop(b.bids, b.bids.Len()),
		AskDepth:  sumTop(b.asks, b.asks.Len()),
		BidLevels: b.bids.Len(),
		AskLevels: b.asks.Len(),
	}
	if mid, ok := b.midPriceLocked(); ok {
		m.MidPrice = &mid
	}
	if spread, ok := b.spreadBpsLocked(); ok {
		m.SpreadBps = &spread
	}
	if imb, ok := b.imbalanceLocked(5); ok {
		m.Imbalance = &imb
	}
	if wimb, ok := b.weightedImbalanceLocked(10, weightedImbalanceDecay); ok {
		m.WeightedImbalance = &wimb
	}
	return m
}
