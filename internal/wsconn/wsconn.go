// Package wsconn provides a WebSocket client with reconnection.
package wsconn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// ErrNotConnected is returned by Send when no connection is established.
var ErrNotConnected = errors.New("wsconn: not connected")

// State represents the connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
	StateClosed       State = "closed"
)

// MessageHandler receives inbound messages.
type MessageHandler func(ctx context.Context, msg []byte)

// StateChangeHandler receives state transitions. err is non-nil when the
// transition was caused by a failure.
type StateChangeHandler func(state State, err error)

// Config holds WebSocket client configuration.
type Config struct {
	URL            string
	Name           string // label for diagnostics
	Headers        map[string]string
	DialTimeout    time.Duration // 0 = no handshake bound
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxReconnects  int // 0 = infinite
	PingInterval   time.Duration
	MaxMessageSize int64 // 0 = library default
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(url, name string) Config {
	return Config{
		URL:            url,
		Name:           name,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		MaxReconnects:  0, // infinite
		PingInterval:   30 * time.Second,
	}
}

// Client is a reconnecting WebSocket client. Inbound messages are
// delivered to the OnMessage handler; the read loop reconnects with
// exponential backoff until Close is called.
type Client struct {
	config Config

	state   State
	stateMu sync.RWMutex

	conn    *websocket.Conn
	connMu  sync.Mutex
	writeMu sync.Mutex

	onMessage     MessageHandler
	onStateChange StateChangeHandler
	handlerMu     sync.RWMutex

	done       chan struct{}
	closeOnce  sync.Once
	reconnects int
}

// New creates a new WebSocket client.
func New(config Config) (*Client, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("wsconn: URL is required")
	}

	return &Client{
		config: config,
		state:  StateDisconnected,
		done:   make(chan struct{}),
	}, nil
}

// OnMessage sets the inbound message handler. Set before Connect.
func (c *Client) OnMessage(handler MessageHandler) {
	c.handlerMu.Lock()
	c.onMessage = handler
	c.handlerMu.Unlock()
}

// OnStateChange sets the state transition handler. Set before Connect.
func (c *Client) OnStateChange(handler StateChangeHandler) {
	c.handlerMu.Lock()
	c.onStateChange = handler
	c.handlerMu.Unlock()
}

// Connect establishes the WebSocket connection and starts the read and
// ping loops. It returns once the initial dial succeeds.
func (c *Client) Connect(ctx context.Context) error {
	c.setState(StateConnecting, nil)

	if err := c.dial(ctx); err != nil {
		c.setState(StateDisconnected, err)
		return err
	}

	c.setState(StateConnected, nil)

	go c.readLoop(ctx)
	if c.config.PingInterval > 0 {
		go c.pingLoop(ctx)
	}

	return nil
}

func (c *Client) dial(ctx context.Context) error {
	if c.config.DialTimeout > 0 {
		// Bounds the handshake only; the connection outlives this ctx.
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.DialTimeout)
		defer cancel()
	}

	opts := &websocket.DialOptions{}
	if len(c.config.Headers) > 0 {
		opts.HTTPHeader = make(map[string][]string, len(c.config.Headers))
		for k, v := range c.config.Headers {
			opts.HTTPHeader[k] = []string{v}
		}
	}

	conn, _, err := websocket.Dial(ctx, c.config.URL, opts)
	if err != nil {
		return err
	}

	if c.config.MaxMessageSize > 0 {
		conn.SetReadLimit(c.config.MaxMessageSize)
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
	return nil
}

// Send sends a text message through the WebSocket.
func (c *Client) Send(ctx context.Context, msg []byte) error {
	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()

	if conn == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.Write(ctx, websocket.MessageText, msg)
}

// SendJSON marshals v to JSON and sends it.
func (c *Client) SendJSON(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("wsconn: marshal: %w", err)
	}
	return c.Send(ctx, data)
}

// State returns the current connection state.
func (c *Client) State() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// IsConnected reports whether the client is currently connected.
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// Close gracefully closes the WebSocket connection. Idempotent.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)

		c.connMu.Lock()
		conn := c.conn
		c.conn = nil
		c.connMu.Unlock()

		c.setState(StateClosed, nil)

		if conn != nil {
			err = conn.Close(websocket.StatusNormalClosure, "client closing")
		}
	})
	return err
}

func (c *Client) readLoop(ctx context.Context) {
	for {
		select {
		case <-c.done:
			return
		case <-ctx.Done():
			return
		default:
		}

		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			if !c.reconnect(ctx) {
				return
			}
			continue
		}

		_, data, err := conn.Read(ctx)
		if err != nil {
			c.connMu.Lock()
			c.conn = nil
			c.connMu.Unlock()

			if c.State() == StateClosed {
				return
			}
			c.setState(StateDisconnected, err)

			if !c.reconnect(ctx) {
				return
			}
			continue
		}

		c.handlerMu.RLock()
		handler := c.onMessage
		c.handlerMu.RUnlock()

		if handler != nil {
			handler(ctx, data)
		}
	}
}

// reconnect dials with exponential backoff. Returns false when the
// client is closed, the context is cancelled, or the reconnect budget
// is exhausted.
func (c *Client) reconnect(ctx context.Context) bool {
	c.setState(StateReconnecting, nil)

	backoff := c.config.InitialBackoff
	if backoff <= 0 {
		backoff = time.Second
	}

	for {
		if c.config.MaxReconnects > 0 && c.reconnects >= c.config.MaxReconnects {
			c.setState(StateDisconnected, fmt.Errorf("wsconn: reconnect budget exhausted"))
			return false
		}

		select {
		case <-c.done:
			return false
		case <-ctx.Done():
			return false
		case <-time.After(backoff):
		}

		c.reconnects++
		if err := c.dial(ctx); err == nil {
			c.setState(StateConnected, nil)
			return true
		}

		backoff *= 2
		if c.config.MaxBackoff > 0 && backoff > c.config.MaxBackoff {
			backoff = c.config.MaxBackoff
		}
	}
}

func (c *Client) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.connMu.Lock()
			conn := c.conn
			c.connMu.Unlock()

			if conn != nil {
				pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
				_ = conn.Ping(pingCtx)
				cancel()
			}
		}
	}
}

func (c *Client) setState(state State, err error) {
	c.stateMu.Lock()
	if c.state == StateClosed && state != StateClosed {
		c.stateMu.Unlock()
		return
	}
	c.state = state
	c.stateMu.Unlock()

	c.handlerMu.RLock()
	handler := c.onStateChange
	c.handlerMu.RUnlock()

	if handler != nil {
		handler(state, err)
	}
}
