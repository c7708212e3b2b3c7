// Package ws implements the Webull real-time quotes stream: a WebSocket
// client with automatic reconnection, resubscription, and listener fan-out.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	DefaultEndpoint   = "wss://quotes-ws.webull.com/openapi"
	PingInterval      = 15 * time.Second
	PongTimeout       = 45 * time.Second
	InitialBackoff    = 1 * time.Second
	MaxBackoff        = 60 * time.Second
	BackoffMultiplier = 2.0
	channelBufferSize = 256
)

// Client is a WebSocket client for the Webull quotes stream.
type Client struct {
	endpoint string
	appKey   string

	mu   sync.Mutex
	conn *connection
}

// Option configures the WebSocket client.
type Option func(*Client)

// WithEndpoint overrides the default WebSocket endpoint.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithAppKey attaches the app key to subscription requests. The stream
// authorizes by app key only; the secret never travels over the socket.
func WithAppKey(appKey string) Option {
	return func(c *Client) { c.appKey = appKey }
}

// NewClient creates a new quotes stream client.
func NewClient(opts ...Option) *Client {
	c := &Client{endpoint: DefaultEndpoint}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubscribeQuotes subscribes to quote events for the given symbols and
// returns a channel of decoded events. The channel closes when ctx is
// cancelled or the client is closed. Slow consumers lose events rather than
// stalling the read loop.
func (c *Client) SubscribeQuotes(ctx context.Context, category string, symbols ...string) (<-chan QuoteEvent, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("ws: no symbols to subscribe")
	}

	conn := c.connection(ctx)
	req := SubscriptionRequest{
		Operation: OpSubscribe,
		Symbols:   symbols,
		Category:  category,
		AppKey:    c.appKey,
	}
	raw := conn.subscribe(ctx, req, "")

	out := make(chan QuoteEvent, channelBufferSize)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-raw:
				if !ok {
					return
				}
				var ev QuoteEvent
				if err := json.Unmarshal(msg, &ev); err != nil {
					continue
				}
				select {
				case out <- ev:
				default:
				}
			}
		}
	}()
	return out, nil
}

// Unsubscribe sends an unsubscribe message for the given symbols and removes
// them from reconnect tracking.
func (c *Client) Unsubscribe(ctx context.Context, symbols ...string) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return nil
	}

	req := SubscriptionRequest{
		Operation: OpUnsubscribe,
		Symbols:   symbols,
		AppKey:    c.appKey,
	}
	if err := conn.sendJSON(req); err != nil {
		return err
	}
	conn.removeTrackedSymbols(symbols)
	return nil
}

// Close shuts down the stream connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.close()
		c.conn = nil
	}
}

// connection lazily initializes the stream connection.
// The connection uses context.Background so its lifetime is not tied to any
// single subscriber's context; it lives until Client.Close() is called.
func (c *Client) connection(_ context.Context) *connection {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		c.conn = newConnection(context.Background(), c.endpoint)
	}
	return c.conn
}

// connection manages a single WebSocket connection.
type connection struct {
	url    string
	ctx    context.Context
	cancel context.CancelFunc
	conn   *websocket.Conn
	connMu sync.Mutex

	// writeMu serialises all WebSocket write operations.
	// gorilla/websocket does not support concurrent writers.
	writeMu sync.Mutex

	// Subscription tracking for reconnection
	subsMu sync.Mutex
	subs   []SubscriptionRequest

	// Message broadcast
	listeners []listener
	listMu    sync.Mutex
	nextID    uint64

	// closed is set by close() to signal that dispatch should stop.
	closed bool

	// Heartbeat tracking
	lastPong time.Time
	pongMu   sync.Mutex
}

type listener struct {
	id        uint64
	eventType string // filter by event_type, empty = all
	ch        chan json.RawMessage
}

// newConnection creates and starts a connection to the given WS URL.
func newConnection(parentCtx context.Context, url string) *connection {
	ctx, cancel := context.WithCancel(parentCtx)
	c := &connection{
		url:    url,
		ctx:    ctx,
		cancel: cancel,
	}
	go c.connectLoop()
	return c
}

// connectLoop manages the connect -> read -> reconnect cycle.
func (c *connection) connectLoop() {
	var attempt int
	for {
		if c.ctx.Err() != nil {
			return
		}

		conn, _, err := websocket.DefaultDialer.DialContext(c.ctx, c.url, nil)
		if err != nil {
			attempt++
			c.backoff(attempt)
			continue
		}

		c.connMu.Lock()
		c.conn = conn
		c.connMu.Unlock()

		attempt = 0

		c.resubscribe()

		heartbeatCtx, heartbeatCancel := context.WithCancel(c.ctx)
		go c.heartbeatLoop(heartbeatCtx)

		// Pass conn directly to avoid a racy read of c.conn.
		c.readLoop(conn)

		heartbeatCancel()
		c.connMu.Lock()
		c.conn.Close()
		c.conn = nil
		c.connMu.Unlock()

		if c.ctx.Err() != nil {
			return
		}
		attempt++
		c.backoff(attempt)
	}
}

// readLoop reads messages from the WebSocket and dispatches to listeners.
func (c *connection) readLoop(conn *websocket.Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}

		if string(message) == "PONG" {
			c.pongMu.Lock()
			c.lastPong = time.Now()
			c.pongMu.Unlock()
			continue
		}

		c.dispatch(message)
	}
}

// dispatch routes raw JSON to listeners, unwrapping batched arrays.
func (c *connection) dispatch(data []byte) {
	data = trimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var messages []json.RawMessage
		if err := json.Unmarshal(data, &messages); err != nil {
			return
		}
		for _, msg := range messages {
			c.dispatchSingle(msg)
		}
		return
	}
	c.dispatchSingle(data)
}

func (c *connection) dispatchSingle(data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return
	}

	c.listMu.Lock()
	defer c.listMu.Unlock()

	// After close() has been called, listeners are closed; do not send.
	if c.closed {
		return
	}

	for _, l := range c.listeners {
		if l.eventType == "" || l.eventType == env.EventType {
			select {
			case l.ch <- json.RawMessage(data):
			default:
				// Drop if channel is full (slow consumer)
			}
		}
	}
}

// heartbeatLoop sends PING messages and checks for PONG responses.
func (c *connection) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.connMu.Lock()
			conn := c.conn
			c.connMu.Unlock()

			if conn == nil {
				return
			}

			c.pongMu.Lock()
			lastPong := c.lastPong
			c.pongMu.Unlock()

			if !lastPong.IsZero() && time.Since(lastPong) > PongTimeout {
				// No PONG within the timeout; close to trigger reconnect.
				conn.Close()
				return
			}

			c.writeMu.Lock()
			err := conn.WriteMessage(websocket.TextMessage, []byte("PING"))
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// subscribe adds a listener and sends the subscription request.
func (c *connection) subscribe(ctx context.Context, req SubscriptionRequest, eventType string) <-chan json.RawMessage {
	ch := make(chan json.RawMessage, channelBufferSize)
	id := atomic.AddUint64(&c.nextID, 1)

	c.listMu.Lock()
	c.listeners = append(c.listeners, listener{id: id, eventType: eventType, ch: ch})
	c.listMu.Unlock()

	// Track for reconnect
	c.subsMu.Lock()
	c.subs = append(c.subs, req)
	c.subsMu.Unlock()

	_ = c.sendJSON(req)

	go func() {
		<-ctx.Done()
		c.removeListener(id)
	}()

	return ch
}

// resubscribe sends all tracked subscription requests (after reconnect).
func (c *connection) resubscribe() {
	c.subsMu.Lock()
	subs := make([]SubscriptionRequest, len(c.subs))
	copy(subs, c.subs)
	c.subsMu.Unlock()

	for _, sub := range subs {
		c.sendJSON(sub)
	}
}

// removeTrackedSymbols drops symbols from tracked subscriptions so a
// reconnect will not resubscribe them.
func (c *connection) removeTrackedSymbols(symbols []string) {
	drop := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		drop[s] = true
	}

	c.subsMu.Lock()
	defer c.subsMu.Unlock()

	kept := c.subs[:0]
	for _, sub := range c.subs {
		var remaining []string
		for _, s := range sub.Symbols {
			if !drop[s] {
				remaining = append(remaining, s)
			}
		}
		if len(remaining) > 0 {
			sub.Symbols = remaining
			kept = append(kept, sub)
		}
	}
	c.subs = kept
}

// sendJSON sends a JSON message over the WebSocket.
func (c *connection) sendJSON(v interface{}) error {
	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()
	if conn == nil {
		return fmt.Errorf("ws: not connected")
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteJSON(v)
}

// backoff sleeps for an exponentially increasing duration with jitter.
func (c *connection) backoff(attempt int) {
	delay := float64(InitialBackoff) * math.Pow(BackoffMultiplier, float64(attempt-1))
	if delay > float64(MaxBackoff) {
		delay = float64(MaxBackoff)
	}
	// Jitter: [0.5, 1.5]
	jitter := 0.5 + rand.Float64()
	actual := time.Duration(delay * jitter)

	timer := time.NewTimer(actual)
	defer timer.Stop()
	select {
	case <-c.ctx.Done():
	case <-timer.C:
	}
}

func (c *connection) removeListener(id uint64) {
	c.listMu.Lock()
	defer c.listMu.Unlock()
	for i, l := range c.listeners {
		if l.id == id {
			close(l.ch)
			c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
			return
		}
	}
}

// close shuts down the connection and all listeners.
func (c *connection) close() {
	c.cancel()

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.listMu.Lock()
	c.closed = true
	for _, l := range c.listeners {
		close(l.ch)
	}
	c.listeners = nil
	c.listMu.Unlock()
}

// trimSpace trims leading JSON whitespace without allocating.
func trimSpace(data []byte) []byte {
	for len(data) > 0 {
		switch data[0] {
		case ' ', '\t', '\n', '\r':
			data = data[1:]
		default:
			return data
		}
	}
	return data
}
