// Package domain holds the order book model: price levels, diffs, snapshots
// and the per-symbol book that reconstructs exchange state from them.
package domain

import "github.com/shopspring/decimal"

// Side identifies which side of the book a level belongs to.
type Side int

const (
	SideBid Side = iota
	SideAsk
)

// PriceLevel is a single (price, quantity) pair as it arrives on the wire.
// A zero quantity in a diff means "remove this price".
type PriceLevel struct {
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// Snapshot is the REST depth response used to (re)initialize a book.
type Snapshot struct {
	LastUpdateID uint64
	Bids         []PriceLevel
	Asks         []PriceLevel
}

// DepthDiff is a single incremental depth update from the exchange stream.
type DepthDiff struct {
	EventTime     uint64
	Symbol        string
	FirstUpdateID uint64 // U
	FinalUpdateID uint64 // u
	Bids          []PriceLevel
	Asks          []PriceLevel
}

// Trade is an individual executed trade. It is never applied to a book and
// is not republished; the supervisor only logs it.
type Trade struct {
	Symbol        string
	TradeID       uint64
	Price         decimal.Decimal
	Quantity      decimal.Decimal
	BuyerOrderID  uint64
	SellerOrderID uint64
	TradeTime     uint64
	IsBuyerMaker  bool
	EventTime     uint64
}

// Level is a single published price level.
type Level struct {
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// Metrics holds the derived microstructure metrics for a book.
type Metrics struct {
	MidPrice          *decimal.Decimal
	SpreadBps         *decimal.Decimal
	Imbalance         *decimal.Decimal
	WeightedImbalance *decimal.Decimal
	BidDepth          decimal.Decimal
	AskDepth          decimal.Decimal
	BidLevels         int
	AskLevels         int
}

// State is the published representation of a book. It is converted to a
// string-encoded wire form at the publisher boundary so that the exact
// decimal values survive the MessagePack round trip.
type State struct {
	Symbol       string
	Timestamp    uint64
	LastUpdateID uint64
	Bids         []Level
	Asks         []Level
	Metrics      Metrics
}
