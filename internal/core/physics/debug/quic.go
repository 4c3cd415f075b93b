package debug

import (
	"context"
	"crypto/tls"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/quic-go/quic-go"

	"github.com/zeusync/rigidscene/internal/core/observability/log"
)

// ALPN is the protocol name negotiated on QUIC links.
const ALPN = "rigidscene-debug"

// MaxFrameSize bounds the payload of one length-prefixed QUIC message.
const MaxFrameSize = 4 << 20

type quicLink struct {
	conn    *quic.Conn
	stream  *quic.Stream
	session string
	full    bool
	timeout time.Duration
	logger  log.Log

	mu     sync.Mutex
	closed bool
}

func dialQUIC(ctx context.Context, cfg Config, session string, logger log.Log) (Link, error) {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: true,
		NextProtos:         []string{ALPN},
	}
	quicConfig := &quic.Config{
		HandshakeIdleTimeout: cfg.timeout(),
		KeepAlivePeriod:      cfg.timeout() / 2,
	}

	dialCtx, cancel := context.WithTimeout(ctx, cfg.timeout())
	defer cancel()

	conn, err := quic.DialAddr(dialCtx, cfg.Addr(), tlsConfig, quicConfig)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.Addr(), err)
	}
	stream, err := conn.OpenStreamSync(dialCtx)
	if err != nil {
		_ = conn.CloseWithError(0, "stream")
		return nil, fmt.Errorf("open stream: %w", err)
	}

	l := &quicLink{conn: conn, stream: stream, session: session, full: cfg.FullConnection, timeout: cfg.timeout(), logger: logger}
	if err = l.write(Hello{Session: session, Full: cfg.FullConnection}); err != nil {
		_ = conn.CloseWithError(0, "hello")
		return nil, fmt.Errorf("send hello: %w", err)
	}
	return l, nil
}

func (l *quicLink) SessionID() string { return l.session }
func (l *quicLink) Full() bool        { return l.full }

func (l *quicLink) Publish(f Frame) error {
	return l.write(f)
}

// write sends one length-prefixed JSON message.
func (l *quicLink) write(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(payload))
	}
	buf := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(buf, uint32(len(payload)))
	copy(buf[4:], payload)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrLinkClosed
	}
	if err = l.stream.SetWriteDeadline(time.Now().Add(l.timeout)); err != nil {
		return err
	}
	_, err = l.stream.Write(buf)
	return err
}

func (l *quicLink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	if err := l.stream.Close(); err != nil {
		l.logger.Debug("debug stream close failed", log.Error(err))
	}
	return l.conn.CloseWithError(0, "released")
}

// ReadMessage reads one length-prefixed message written by a QUIC link.
// Messages above MaxFrameSize are rejected before any payload is read.
func ReadMessage(r io.Reader, v any) error {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return err
	}
	size := binary.BigEndian.Uint32(header[:])
	if size > MaxFrameSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, size)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return err
	}
	return json.Unmarshal(payload, v)
}
