package publisher

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/quantumflow/market-data/business/marketdata/domain"
	"github.com/quantumflow/market-data/internal/logger"
)

func TestPublisher_PublishWritesLengthPrefixedFrame(t *testing.T) {
	dir := t.TempDir()
	sockPath := filepath.Join(dir, "marketdata.sock")

	ln, err := net.Listen("unix", sockPath)
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		var lenBuf [4]byte
		if _, err := io.ReadFull(conn, lenBuf[:]); err != nil {
			return
		}
		n := binary.BigEndian.Uint32(lenBuf[:])
		body := make([]byte, n)
		if _, err := io.ReadFull(conn, body); err != nil {
			return
		}
		received <- body
	}()

	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	pub := New(sockPath, log)
	defer pub.Close()

	state := domain.State{
		Symbol:       "BTCUSDT",
		LastUpdateID: 42,
		Metrics:      domain.Metrics{BidDepth: decimal.Zero, AskDepth: decimal.Zero},
	}
	pub.Publish(context.Background(), state)

	select {
	case body := <-received:
		var decoded wireState
		require.NoError(t, msgpack.Unmarshal(body, &decoded))
		require.Equal(t, "BTCUSDT", decoded.Symbol)
		require.Equal(t, uint64(42), decoded.LastUpdateID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published frame")
	}
}

func TestPublisher_PublishWithNoListenerDoesNotPanic(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "missing.sock")
	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	pub := New(sockPath, log)
	defer pub.Close()

	state := domain.State{Symbol: "BTCUSDT", Metrics: domain.Metrics{BidDepth: decimal.Zero, AskDepth: decimal.Zero}}
	pub.Publish(context.Background(), state)
}

func TestPublisher_CloseIsIdempotent(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "marketdata.sock")
	ln, err := net.Listen("unix", sockPath)
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			conn.Close()
		}
	}()

	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	pub := New(sockPath, log)

	require.NoError(t, pub.Close())
	require.NoError(t, pub.Close())
}
