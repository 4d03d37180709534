// Package publisher republishes order book state over a local Unix domain
// socket using length-prefixed MessagePack frames.
package publisher

import (
	"context"
	"encoding/binary"
	"net"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/quantumflow/market-data/business/marketdata/domain"
	"github.com/quantumflow/market-data/internal/logger"
)

// Publisher writes framed MessagePack-encoded order book state to a Unix
// socket. Connection is lazy and best-effort: publish failures are logged
// and recovered locally, never propagated to the caller.
type Publisher struct {
	socketPath string
	log        logger.LoggerInterface

	mu   sync.Mutex
	conn net.Conn
}

// New creates a publisher for socketPath. The initial connection attempt is
// made immediately but is allowed to fail — a failure here is not fatal,
// since the IPC consumer may not be listening yet.
func New(socketPath string, log logger.LoggerInterface) *Publisher {
	p := &Publisher{socketPath: socketPath, log: log}
	if err := p.connect(); err != nil {
		log.Warn(context.Background(), "initial IPC connection failed, will retry on publish", "error", err.Error(), "path", socketPath)
	}
	return p
}

func (p *Publisher) connect() error {
	conn, err := net.Dial("unix", p.socketPath)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.conn = conn
	p.mu.Unlock()
	return nil
}

// Publish serializes state as MessagePack, prepends a 4-byte big-endian
// length prefix, and writes the frame to the socket. A write failure clears
// the held connection so the next call attempts a fresh connect; errors are
// logged, never returned.
func (p *Publisher) Publish(ctx context.Context, state domain.State) {
	data, err := msgpack.Marshal(toWireState(state))
	if err != nil {
		p.log.Error(ctx, "failed to serialize order book state", "error", err.Error(), "symbol", state.Symbol)
		return
	}

	frame := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(frame[:4], uint32(len(data)))
	copy(frame[4:], data)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		conn, err := net.Dial("unix", p.socketPath)
		if err != nil {
			p.log.Debug(ctx, "failed to reconnect to IPC socket", "error", err.Error())
			return
		}
		p.conn = conn
	}

	if _, err := p.conn.Write(frame); err != nil {
		p.log.Warn(ctx, "failed to write to IPC socket", "error", err.Error())
		p.conn.Close()
		p.conn = nil
		return
	}

	p.log.Debug(ctx, "published order book state", "symbol", state.Symbol, "last_update_id", state.LastUpdateID)
}

// Close releases the underlying connection, if any.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn = nil
	return err
}
