package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_DepthUpdateDirect(t *testing.T) {
	raw := []byte(`{"e":"depthUpdate","E":123456,"s":"BTCUSDT","U":100,"u":102,"b":[["50000","1.5"]],"a":[["50001","1.0"]]}`)

	msg, err := Parse(raw)
	require.NoError(t, err)
	require.Equal(t, KindDepthDiff, msg.Kind)
	assert.Equal(t, "BTCUSDT", msg.Depth.Symbol)
	assert.Equal(t, uint64(100), msg.Depth.FirstUpdateID)
	assert.Equal(t, uint64(102), msg.Depth.FinalUpdateID)
	require.Len(t, msg.Depth.Bids, 1)
	assert.Equal(t, "50000", msg.Depth.Bids[0].Price.String())
}

func TestParse_DepthUpdateViaStreamEnvelope(t *testing.T) {
	raw := []byte(`{"stream":"btcusdt@depth@100ms","data":{"e":"depthUpdate","E":1,"s":"BTCUSDT","U":10,"u":12,"b":[],"a":[]}}`)

	msg, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, KindDepthDiff, msg.Kind)
	assert.Equal(t, uint64(10), msg.Depth.FirstUpdateID)
}

func TestParse_TradeViaStreamEnvelope(t *testing.T) {
	raw := []byte(`{"stream":"btcusdt@trade","data":{"e":"trade","E":1,"s":"BTCUSDT","t":999,"p":"50000","q":"0.1","b":1,"a":2,"T":123,"m":true}}`)

	msg, err := Parse(raw)
	require.NoError(t, err)
	require.Equal(t, KindTrade, msg.Kind)
	assert.Equal(t, uint64(999), msg.Trade.TradeID)
	assert.True(t, msg.Trade.IsBuyerMaker)
	assert.Equal(t, "50000", msg.Trade.Price.String())
}

func TestParse_UnknownMessageIsNotAnError(t *testing.T) {
	raw := []byte(`{"result":null,"id":1}`)

	msg, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, KindUnknown, msg.Kind)
}

func TestParse_MalformedPriceLevelIsAnError(t *testing.T) {
	raw := []byte(`{"e":"depthUpdate","E":1,"s":"BTCUSDT","U":1,"u":2,"b":[["50000"]],"a":[]}`)

	_, err := Parse(raw)
	assert.Error(t, err)
}

func TestParse_UnparsableDecimalIsAnError(t *testing.T) {
	raw := []byte(`{"e":"depthUpdate","E":1,"s":"BTCUSDT","U":1,"u":2,"b":[["not-a-number","1"]],"a":[]}`)

	_, err := Parse(raw)
	assert.Error(t, err)
}

func TestParseSnapshot(t *testing.T) {
	raw := []byte(`{"lastUpdateId":160,"bids":[["50000","1.0"],["49999","2.0"]],"asks":[["50001","1.5"]]}`)

	snap, err := ParseSnapshot(raw)
	require.NoError(t, err)
	assert.Equal(t, uint64(160), snap.LastUpdateID)
	require.Len(t, snap.Bids, 2)
	assert.Equal(t, "50000", snap.Bids[0].Price.String())
	require.Len(t, snap.Asks, 1)
}

func TestParseSnapshot_MalformedBody(t *testing.T) {
	_, err := ParseSnapshot([]byte(`not json`))
	assert.Error(t, err)
}
