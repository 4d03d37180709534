package publisher

import (
	"github.com/shopspring/decimal"

	"github.com/quantumflow/market-data/business/marketdata/domain"
)

// wireLevel and wireState mirror domain.Level/domain.State but carry prices
// and quantities as decimal strings. shopspring/decimal keeps its numerator
// and scale in unexported fields, which a reflection-based codec like
// msgpack cannot see, so amounts are encoded as their canonical decimal
// string instead of the struct itself.
type wireLevel struct {
	Price    string `msgpack:"price"`
	Quantity string `msgpack:"quantity"`
}

type wireMetrics struct {
	MidPrice          *string `msgpack:"mid_price"`
	SpreadBps         *string `msgpack:"spread_bps"`
	Imbalance         *string `msgpack:"imbalance"`
	WeightedImbalance *string `msgpack:"weighted_imbalance"`
	BidDepth          string  `msgpack:"bid_depth"`
	AskDepth          string  `msgpack:"ask_depth"`
	BidLevels         int     `msgpack:"bid_levels"`
	AskLevels         int     `msgpack:"ask_levels"`
}

type wireState struct {
	Symbol       string      `msgpack:"symbol"`
	Timestamp    uint64      `msgpack:"timestamp"`
	LastUpdateID uint64      `msgpack:"last_update_id"`
	Bids         []wireLevel `msgpack:"bids"`
	Asks         []wireLevel `msgpack:"asks"`
	Metrics      wireMetrics `msgpack:"metrics"`
}

func toWireLevels(levels []domain.Level) []wireLevel {
	out := make([]wireLevel, len(levels))
	for i, l := range levels {
		out[i] = wireLevel{Price: l.Price.String(), Quantity: l.Quantity.String()}
	}
	return out
}

func decimalPtrToString(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func toWireState(s domain.State) wireState {
	return wireState{
		Symbol:       s.Symbol,
		Timestamp:    s.Timestamp,
		LastUpdateID: s.LastUpdateID,
		Bids:         toWireLevels(s.Bids),
		Asks:         toWireLevels(s.Asks),
		Metrics: wireMetrics{
			MidPrice:          decimalPtrToString(s.Metrics.MidPrice),
			SpreadBps:         decimalPtrToString(s.Metrics.SpreadBps),
			Imbalance:         decimalPtrToString(s.Metrics.Imbalance),
			WeightedImbalance: decimalPtrToString(s.Metrics.WeightedImbalance),
			BidDepth:          s.Metrics.BidDepth.String(),
			AskDepth:          s.Metrics.AskDepth.String(),
			BidLevels:         s.Metrics.BidLevels,
			AskLevels:         s.Metrics.AskLevels,
		},
	}
}
