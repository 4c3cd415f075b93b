package debug

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/rigidscene/internal/core/observability/log"
)

// WebSocketPath is where the visualizer accepts links.
const WebSocketPath = "/debug"

type wsLink struct {
	conn    *websocket.Conn
	session string
	full    bool
	timeout time.Duration
	logger  log.Log

	mu     sync.Mutex
	closed bool
}

func dialWebSocket(ctx context.Context, cfg Config, session string, logger log.Log) (Link, error) {
	u := url.URL{Scheme: "ws", Host: cfg.Addr(), Path: WebSocketPath}
	dialer := websocket.Dialer{HandshakeTimeout: cfg.timeout()}

	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u.String(), err)
	}

	l := &wsLink{conn: conn, session: session, full: cfg.FullConnection, timeout: cfg.timeout(), logger: logger}
	if err = l.write(Hello{Session: session, Full: cfg.FullConnection}); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("send hello: %w", err)
	}
	return l, nil
}

func (l *wsLink) SessionID() string { return l.session }
func (l *wsLink) Full() bool        { return l.full }

func (l *wsLink) Publish(f Frame) error {
	return l.write(f)
}

func (l *wsLink) write(v any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrLinkClosed
	}
	if err := l.conn.SetWriteDeadline(time.Now().Add(l.timeout)); err != nil {
		return err
	}
	return l.conn.WriteJSON(v)
}

func (l *wsLink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "released")
	if err := l.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(l.timeout)); err != nil {
		l.logger.Debug("debug link close handshake failed", log.Error(err))
	}
	return l.conn.Close()
}
