package fanout

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/beacon-dev/beacon/internal/types"
	"github.com/gorilla/websocket"
)

// ClientState tracks where a subscriber connection is in its lifecycle:
// Connecting -> Connected -> (Disconnected -> Reconnecting -> Connected)* -> Closed.
type ClientState int32

const (
	StateConnecting ClientState = iota
	StateConnected
	StateDisconnected
	StateReconnecting
	StateClosed
)

func (s ClientState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// ErrReconnectExhausted is returned by Run once the retry cap is hit. The
// client is then in a terminal Disconnected state and is not retried further.
var ErrReconnectExhausted = errors.New("reconnect attempts exhausted")

// SnapshotFetcher re-reads the full projection. The client calls it after
// every successful connect because no backfill log is guaranteed: a
// reconnected subscriber may have missed any number of events.
type SnapshotFetcher func(ctx context.Context) (*types.StatusSnapshot, error)

type ClientConfig struct {
	URL   string
	Fetch SnapshotFetcher

	// Retry caps; defaults mirror the web client (5 attempts, 1s..5s).
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Client is a reconnecting realtime subscriber. Events are delivered on
// Events() in order; duplicates and stale events across reconnects are
// filtered by sequence number.
type Client struct {
	cfg    ClientConfig
	state  atomic.Int32
	events chan types.Event

	mu      sync.Mutex
	conn    *websocket.Conn
	lastSeq uint64

	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 5 * time.Second
	}

	return &Client{
		cfg:    cfg,
		events: make(chan types.Event, subscriberBuffer),
		done:   make(chan struct{}),
	}
}

// Events returns the ordered event stream. The channel is closed when the
// client stops, either cleanly or after exhausting reconnect attempts.
func (c *Client) Events() <-chan types.Event {
	return c.events
}

func (c *Client) State() ClientState {
	return ClientState(c.state.Load())
}

func (c *Client) setState(s ClientState) {
	c.state.Store(int32(s))
}

// Close shuts the client down cleanly, cancelling any pending backoff timer.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)

		c.mu.Lock()
		if c.conn != nil {
			c.conn.Close()
		}
		c.mu.Unlock()
	})
}

// backoff returns the delay before reconnect attempt n (1-based),
// exponential and capped at MaxDelay.
func (c *Client) backoff(attempt int) time.Duration {
	delay := c.cfg.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= c.cfg.MaxDelay {
			return c.cfg.MaxDelay
		}
	}
	if delay > c.cfg.MaxDelay {
		return c.cfg.MaxDelay
	}
	return delay
}

func (c *Client) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Run connects and consumes events until Close is called, ctx is cancelled,
// or the reconnect cap is exhausted. It always closes the Events channel
// before returning.
func (c *Client) Run(ctx context.Context) error {
	defer close(c.events)

	attempt := 0

	for {
		if attempt == 0 {
			c.setState(StateConnecting)
		} else {
			c.setState(StateReconnecting)
		}

		conn, resp, err := websocket.DefaultDialer.DialContext(ctx, c.cfg.URL, nil)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}

		if err != nil {
			if c.closed() || ctx.Err() != nil {
				c.setState(StateClosed)
				return nil
			}

			attempt++
			if attempt >= c.cfg.MaxAttempts {
				c.setState(StateDisconnected)
				return ErrReconnectExhausted
			}

			select {
			case <-time.After(c.backoff(attempt)):
			case <-c.done:
				c.setState(StateClosed)
				return nil
			case <-ctx.Done():
				c.setState(StateClosed)
				return nil
			}
			continue
		}

		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()

		attempt = 0
		c.setState(StateConnected)

		if c.cfg.Fetch != nil {
			if snap, err := c.cfg.Fetch(ctx); err == nil && snap != nil {
				c.deliver(types.Event{
					Type:           types.EventStatusUpdate,
					Version:        types.EventSchemaVersion,
					OrganizationID: snap.OrganizationID,
					Seq:            c.lastSeq,
					Snapshot:       snap,
				})
			}
		}

		c.readLoop(conn)

		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()

		if c.closed() || ctx.Err() != nil {
			c.setState(StateClosed)
			return nil
		}

		c.setState(StateDisconnected)
		attempt = 1
		if attempt >= c.cfg.MaxAttempts {
			return ErrReconnectExhausted
		}

		select {
		case <-time.After(c.backoff(attempt)):
		case <-c.done:
			c.setState(StateClosed)
			return nil
		case <-ctx.Done():
			c.setState(StateClosed)
			return nil
		}
	}
}

func (c *Client) readLoop(conn *websocket.Conn) {
	defer conn.Close()

	for {
		var ev types.Event
		if err := conn.ReadJSON(&ev); err != nil {
			return
		}

		switch ev.Type {
		case types.EventStatusUpdate, types.EventServiceStatusChanged, types.EventOverallStatusChanged:
		default:
			// Welcome and heartbeat frames carry no status state.
			continue
		}

		// Apply-if-newer: reconnects may replay events already seen.
		if ev.Seq != 0 && ev.Seq <= c.lastSeq {
			continue
		}
		if ev.Seq > c.lastSeq {
			c.lastSeq = ev.Seq
		}

		c.deliver(ev)
	}
}

func (c *Client) deliver(ev types.Event) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}
