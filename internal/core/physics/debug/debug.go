// Package debug streams simulation telemetry to a remote visualizer.
package debug

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zeusync/rigidscene/internal/core/observability/log"
	"github.com/zeusync/rigidscene/internal/core/physics"
	"github.com/zeusync/rigidscene/internal/core/physics/engine"
)

var (
	ErrUnknownTransport = errors.New("debug: unknown transport")
	ErrLinkClosed       = errors.New("debug: link closed")
	ErrFrameTooLarge    = errors.New("debug: frame too large")
)

type Transport string

const (
	TransportWebSocket Transport = "websocket"
	TransportQUIC      Transport = "quic"
)

const DefaultTimeout = 10 * time.Second

type Config struct {
	Transport Transport
	Host      string
	Port      uint16
	Timeout   time.Duration
	// FullConnection streams actor poses with every frame instead of step
	// counters only.
	FullConnection bool
}

func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(int(c.Port)))
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

// Hello is the first message sent on every link.
type Hello struct {
	Session string `json:"session"`
	Full    bool   `json:"full"`
	Engine  string `json:"engine,omitempty"`
}

// Frame is published once per simulation step.
type Frame struct {
	Session string       `json:"session"`
	Seq     uint64       `json:"seq"`
	Time    float64      `json:"time"`
	Step    float32      `json:"step"`
	Actors  []ActorState `json:"actors,omitempty"`
}

type ActorState struct {
	Handle   uint64          `json:"handle"`
	Shape    string          `json:"shape"`
	Mobility string          `json:"mobility"`
	Position physics.Vector3 `json:"position"`
	Rotation physics.Quat    `json:"rotation"`
}

// Link is a connected telemetry sink.
type Link interface {
	engine.DebugLink
	Publish(f Frame) error
}

// Dialer opens a Link. Dial is the default.
type Dialer func(ctx context.Context, cfg Config, logger log.Log) (Link, error)

// Dial connects using the configured transport.
func Dial(ctx context.Context, cfg Config, logger log.Log) (Link, error) {
	if logger == nil {
		logger = log.Provide()
	}
	session := uuid.NewString()
	logger = logger.With(log.String("debug_session", session), log.String("debug_addr", cfg.Addr()))

	var (
		link Link
		err  error
	)
	switch cfg.Transport {
	case TransportWebSocket, "":
		link, err = dialWebSocket(ctx, cfg, session, logger)
	case TransportQUIC:
		link, err = dialQUIC(ctx, cfg, session, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, cfg.Transport)
	}
	if err != nil {
		return nil, err
	}
	logger.Info("debug link connected", log.String("transport", string(cfg.Transport)), log.Bool("full", cfg.FullConnection))
	return link, nil
}

// Recorder keeps frames in memory. It is useful for tools and tests that
// want telemetry without a network peer.
type Recorder struct {
	session string
	full    bool

	mu     sync.Mutex
	frames []Frame
	closed bool
}

func NewRecorder(full bool) *Recorder {
	return &Recorder{session: uuid.NewString(), full: full}
}

// RecorderDialer returns a Dialer that always hands out r.
func RecorderDialer(r *Recorder) Dialer {
	return func(context.Context, Config, log.Log) (Link, error) { return r, nil }
}

func (r *Recorder) SessionID() string { return r.session }
func (r *Recorder) Full() bool        { return r.full }

func (r *Recorder) Publish(f Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrLinkClosed
	}
	r.frames = append(r.frames, f)
	return nil
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *Recorder) Frames() []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Frame, len(r.frames))
	copy(out, r.frames)
	return out
}
