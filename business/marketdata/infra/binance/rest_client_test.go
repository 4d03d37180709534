package binance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStreamURL_SingleSymbol(t *testing.T) {
	url := StreamURL("wss://stream.binance.com:9443", []string{"BTCUSDT"})
	assert.Equal(t, "wss://stream.binance.com:9443/stream?streams=btcusdt@depth@100ms/btcusdt@trade", url)
}

func TestStreamURL_MultipleSymbolsLowercased(t *testing.T) {
	url := StreamURL("wss://stream.binance.com:9443", []string{"BTCUSDT", "ETHUSDT"})
	assert.Equal(t,
		"wss://stream.binance.com:9443/stream?streams=btcusdt@depth@100ms/btcusdt@trade/ethusdt@depth@100ms/ethusdt@trade",
		url)
}

func TestStreamURL_Empty(t *testing.T) {
	url := StreamURL("wss://stream.binance.com:9443", nil)
	assert.Equal(t, "wss://stream.binance.com:9443/stream?streams=", url)
}
