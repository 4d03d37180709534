// Package parser decodes raw exchange WebSocket frames into domain events.
package parser

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/quantumflow/market-data/business/marketdata/domain"
	"github.com/quantumflow/market-data/internal/apperror"
)

// Kind identifies what a parsed message turned out to be.
type Kind int

const (
	KindDepthDiff Kind = iota
	KindTrade
	KindUnknown
)

// Message is the result of parsing one raw frame.
type Message struct {
	Kind    Kind
	Depth   domain.DepthDiff
	Trade   domain.Trade
	Unknown string
}

// wireLevel is a single ["price","qty"] pair as sent by the exchange.
type wireLevel [2]string

func (l wireLevel) toDomain() (domain.PriceLevel, error) {
	price, err := decimal.NewFromString(l[0])
	if err != nil {
		return domain.PriceLevel{}, apperror.New(apperror.CodeParseError, apperror.WithMessage("invalid price"), apperror.WithCause(err))
	}
	qty, err := decimal.NewFromString(l[1])
	if err != nil {
		return domain.PriceLevel{}, apperror.New(apperror.CodeParseError, apperror.WithMessage("invalid quantity"), apperror.WithCause(err))
	}
	return domain.PriceLevel{Price: price, Quantity: qty}, nil
}

func toDomainLevels(raw []json.RawMessage) ([]domain.PriceLevel, error) {
	levels := make([]domain.PriceLevel, 0, len(raw))
	for _, r := range raw {
		var pair []string
		if err := json.Unmarshal(r, &pair); err != nil {
			return nil, apperror.New(apperror.CodeParseError, apperror.WithMessage("malformed price level"), apperror.WithCause(err))
		}
		if len(pair) != 2 {
			return nil, apperror.New(apperror.CodeParseError, apperror.WithMessage("price level must have exactly 2 elements"))
		}
		lvl, err := wireLevel{pair[0], pair[1]}.toDomain()
		if err != nil {
			return nil, err
		}
		levels = append(levels, lvl)
	}
	return levels, nil
}

// wireDepthDiff mirrors the exchange's depthUpdate event shape.
type wireDepthDiff struct {
	EventType     string            `json:"e"`
	EventTime     uint64            `json:"E"`
	Symbol        string            `json:"s"`
	FirstUpdateID uint64            `json:"U"`
	FinalUpdateID uint64            `json:"u"`
	Bids          []json.RawMessage `json:"b"`
	Asks          []json.RawMessage `json:"a"`
}

func (w wireDepthDiff) toDomain() (domain.DepthDiff, error) {
	bids, err := toDomainLevels(w.Bids)
	if err != nil {
		return domain.DepthDiff{}, err
	}
	asks, err := toDomainLevels(w.Asks)
	if err != nil {
		return domain.DepthDiff{}, err
	}
	return domain.DepthDiff{
		EventTime:     w.EventTime,
		Symbol:        w.Symbol,
		FirstUpdateID: w.FirstUpdateID,
		FinalUpdateID: w.FinalUpdateID,
		Bids:          bids,
		Asks:          asks,
	}, nil
}

// wireTrade mirrors the exchange's trade event shape.
type wireTrade struct {
	EventType     string `json:"e"`
	EventTime     uint64 `json:"E"`
	Symbol        string `json:"s"`
	TradeID       uint64 `json:"t"`
	Price         string `json:"p"`
	Quantity      string `json:"q"`
	BuyerOrderID  uint64 `json:"b"`
	SellerOrderID uint64 `json:"a"`
	TradeTime     uint64 `json:"T"`
	IsBuyerMaker  bool   `json:"m"`
}

func (w wireTrade) toDomain() (domain.Trade, error) {
	price, err := decimal.NewFromString(w.Price)
	if err != nil {
		return domain.Trade{}, apperror.New(apperror.CodeParseError, apperror.WithMessage("invalid trade price"), apperror.WithCause(err))
	}
	qty, err := decimal.NewFromString(w.Quantity)
	if err != nil {
		return domain.Trade{}, apperror.New(apperror.CodeParseError, apperror.WithMessage("invalid trade quantity"), apperror.WithCause(err))
	}
	return domain.Trade{
		Symbol:        w.Symbol,
		TradeID:       w.TradeID,
		Price:         price,
		Quantity:      qty,
		BuyerOrderID:  w.BuyerOrderID,
		SellerOrderID: w.SellerOrderID,
		TradeTime:     w.TradeTime,
		IsBuyerMaker:  w.IsBuyerMaker,
		EventTime:     w.EventTime,
	}, nil
}

// streamEnvelope is the wrapper used by Binance's combined-stream endpoint:
// {"stream": "<name>", "data": {...}}.
type streamEnvelope struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// Parse decodes a single raw text frame. Unknown frames are returned as
// KindUnknown, not as an error — only malformed well-typed payloads
// (wrong arity price levels, unparsable decimals) produce an error.
func Parse(raw []byte) (Message, error) {
	var env streamEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Stream != "" && len(env.Data) > 0 {
		return parseByStreamName(env.Stream, env.Data)
	}

	var probe struct {
		EventType string `json:"e"`
	}
	if err := json.Unmarshal(raw, &probe); err == nil {
		switch probe.EventType {
		case "depthUpdate":
			var w wireDepthDiff
			if err := json.Unmarshal(raw, &w); err != nil {
				return Message{}, apperror.New(apperror.CodeParseError, apperror.WithMessage("malformed depth update"), apperror.WithCause(err))
			}
			diff, err := w.toDomain()
			if err != nil {
				return Message{}, err
			}
			return Message{Kind: KindDepthDiff, Depth: diff}, nil
		case "trade":
			var w wireTrade
			if err := json.Unmarshal(raw, &w); err != nil {
				return Message{}, apperror.New(apperror.CodeParseError, apperror.WithMessage("malformed trade"), apperror.WithCause(err))
			}
			trade, err := w.toDomain()
			if err != nil {
				return Message{}, err
			}
			return Message{Kind: KindTrade, Trade: trade}, nil
		}
	}

	return Message{Kind: KindUnknown, Unknown: string(raw)}, nil
}

func parseByStreamName(stream string, data json.RawMessage) (Message, error) {
	switch {
	case strings.Contains(stream, "depth"):
		var w wireDepthDiff
		if err := json.Unmarshal(data, &w); err != nil {
			return Message{}, apperror.New(apperror.CodeParseError, apperror.WithMessage("malformed depth update"), apperror.WithCause(err))
		}
		diff, err := w.toDomain()
		if err != nil {
			return Message{}, err
		}
		return Message{Kind: KindDepthDiff, Depth: diff}, nil
	case strings.Contains(stream, "trade"):
		var w wireTrade
		if err := json.Unmarshal(data, &w); err != nil {
			return Message{}, apperror.New(apperror.CodeParseError, apperror.WithMessage("malformed trade"), apperror.WithCause(err))
		}
		trade, err := w.toDomain()
		if err != nil {
			return Message{}, err
		}
		return Message{Kind: KindTrade, Trade: trade}, nil
	default:
		return Message{Kind: KindUnknown, Unknown: string(data)}, nil
	}
}

// wireSnapshot mirrors a REST GET /depth response body.
type wireSnapshot struct {
	LastUpdateID uint64            `json:"lastUpdateId"`
	Bids         []json.RawMessage `json:"bids"`
	Asks         []json.RawMessage `json:"asks"`
}

// ParseSnapshot decodes a REST order book snapshot response.
func ParseSnapshot(raw []byte) (domain.Snapshot, error) {
	var w wireSnapshot
	if err := json.Unmarshal(raw, &w); err != nil {
		return domain.Snapshot{}, apperror.New(apperror.CodeRestAPIError, apperror.WithMessage("malformed snapshot response"), apperror.WithCause(err))
	}
	bids, err := toDomainLevels(w.Bids)
	if err != nil {
		return domain.Snapshot{}, err
	}
	asks, err := toDomainLevels(w.Asks)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return domain.Snapshot{LastUpdateID: w.LastUpdateID, Bids: bids, Asks: asks}, nil
}
