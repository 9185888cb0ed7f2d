package socket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
)

// ErrNotConnected is returned by Emit while no connection is up.
var ErrNotConnected = errors.New("socket not connected")

const (
	defaultBufferLimit = 256
	defaultPingEvery   = 25 * time.Second
	defaultPongWait    = 60 * time.Second
	writeWait          = 10 * time.Second
	handshakeTimeout   = 10 * time.Second
)

// Client keeps one realtime connection open, reconnecting with backoff, and
// feeds every received frame to a Dispatcher in delivery order.
//
// After each (re)connect the collections are considered stale until the
// server's connected snapshot arrives. Frames received before it are held in
// a bounded buffer; once the snapshot is applied, held notices are replayed
// and held state changes are discarded because the snapshot supersedes them.
type Client struct {
	url        string
	header     http.Header
	dialer     *websocket.Dialer
	dispatcher *Dispatcher
	metrics    *Metrics
	log        *slog.Logger

	bufferLimit int
	pingEvery   time.Duration
	pongWait    time.Duration
	newBackOff  func() backoff.BackOff

	connMu  sync.RWMutex
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// Option customizes a Client.
type Option func(*Client)

// WithHeader adds headers to the websocket handshake.
func WithHeader(h http.Header) Option {
	return func(c *Client) { c.header = h.Clone() }
}

// WithBufferLimit bounds how many frames are held while awaiting a snapshot.
func WithBufferLimit(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.bufferLimit = n
		}
	}
}

// WithBackOff sets the reconnect policy factory.
func WithBackOff(fn func() backoff.BackOff) Option {
	return func(c *Client) {
		if fn != nil {
			c.newBackOff = fn
		}
	}
}

// WithKeepalive overrides the ping interval and pong deadline.
func WithKeepalive(pingEvery, pongWait time.Duration) Option {
	return func(c *Client) {
		if pingEvery > 0 && pongWait > pingEvery {
			c.pingEvery = pingEvery
			c.pongWait = pongWait
		}
	}
}

// WithClientMetrics records reconnects.
func WithClientMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithClientLogger overrides slog.Default.
func WithClientLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// DefaultBackOff retries forever, from half a second up to thirty seconds.
func DefaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// NewClient builds a Client for the websocket URL wsURL.
func NewClient(wsURL string, d *Dispatcher, opts ...Option) *Client {
	c := &Client{
		url:         wsURL,
		dispatcher:  d,
		dialer:      &websocket.Dialer{HandshakeTimeout: handshakeTimeout, Proxy: http.ProxyFromEnvironment},
		log:         slog.Default(),
		bufferLimit: defaultBufferLimit,
		pingEvery:   defaultPingEvery,
		pongWait:    defaultPongWait,
		newBackOff:  DefaultBackOff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WebsocketURL derives the websocket endpoint from the HTTP base URL.
func WebsocketURL(base *url.URL, path string) (string, error) {
	if base == nil {
		return "", fmt.Errorf("base url is nil")
	}
	u := *base
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if path == "" {
		path = "/ws"
	}
	u.Path = strings.TrimRight(base.Path, "/") + "/" + strings.TrimLeft(path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

// Connected reports whether a connection is currently up.
func (c *Client) Connected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.conn != nil
}

// Run connects and keeps reconnecting until ctx is cancelled.
func (c *Client) Run(ctx context.Context) error {
	b := c.newBackOff()
	attempt := 0
	for {
		if attempt > 0 {
			c.metrics.reconnect()
		}
		attempt++

		synced, err := c.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if synced {
			b.Reset()
		}

		delay := b.NextBackOff()
		if delay == backoff.Stop {
			return fmt.Errorf("giving up after %d attempts: %w", attempt, err)
		}
		c.log.Warn("realtime connection lost, retrying", "error", err, "attempt", attempt, "delay", delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// session runs one connection until it fails. It reports whether a snapshot
// was applied during the session.
func (c *Client) session(ctx context.Context) (bool, error) {
	conn, resp, err := c.dialer.DialContext(ctx, c.url, c.header)
	if err != nil {
		if resp != nil {
			return false, fmt.Errorf("dial %s: %w (status %d)", c.url, err, resp.StatusCode)
		}
		return false, fmt.Errorf("dial %s: %w", c.url, err)
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
	c.dispatcher.TransportConnected()
	c.log.Info("realtime connection established", "url", c.url)

	done := make(chan struct{})
	defer func() {
		close(done)
		c.connMu.Lock()
		c.conn = nil
		c.connMu.Unlock()
		_ = conn.Close()
		c.dispatcher.TransportDisconnected()
	}()

	go func() {
		select {
		case <-ctx.Done():
			c.writeMu.Lock()
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			c.writeMu.Unlock()
			_ = conn.Close()
		case <-done:
		}
	}()
	go c.keepalive(conn, done)

	_ = conn.SetReadDeadline(time.Now().Add(c.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.pongWait))
	})

	var (
		synced  bool
		pending []heldFrame
	)
	for {
		msgType, raw, err := conn.ReadMessage()
		if err != nil {
			return synced, fmt.Errorf("read: %w", err)
		}
		_ = conn.SetReadDeadline(time.Now().Add(c.pongWait))
		if msgType != websocket.TextMessage {
			continue
		}

		frame, err := DecodeFrame(raw)
		if err != nil {
			c.dispatcher.drop("", err)
			continue
		}
		kind, ok := ParseKind(frame.Event)
		if !ok {
			_ = c.dispatcher.Apply(frame)
			continue
		}

		if kind == KindConnected {
			if err := c.dispatcher.Apply(frame); err != nil {
				continue
			}
			synced = true
			c.settle(pending)
			pending = nil
			continue
		}

		if !synced {
			if len(pending) >= c.bufferLimit {
				c.metrics.event(pending[0].kind.String(), outcomeEvicted)
				c.log.Warn("event buffer full, dropping oldest", "event", pending[0].kind, "limit", c.bufferLimit)
				pending = pending[1:]
			}
			pending = append(pending, heldFrame{kind: kind, frame: frame})
			c.metrics.event(kind.String(), outcomeBuffered)
			continue
		}
		_ = c.dispatcher.Apply(frame)
	}
}

type heldFrame struct {
	kind  Kind
	frame Frame
}

// settle resolves the frames held before a snapshot. The snapshot was built
// after they were sent, so their state changes are already part of it and
// replaying them would roll items back. Only notices carry nothing the
// snapshot covers; they are replayed in order and the rest are dropped.
func (c *Client) settle(pending []heldFrame) {
	replayed, superseded := 0, 0
	for _, held := range pending {
		if held.kind.IsNotice() {
			_ = c.dispatcher.Apply(held.frame)
			replayed++
			continue
		}
		c.metrics.event(held.kind.String(), outcomeDropped)
		superseded++
	}
	if len(pending) > 0 {
		c.log.Debug("settled buffered events", "replayed", replayed, "superseded", superseded)
	}
}

func (c *Client) keepalive(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(c.pingEvery)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// Emit sends a command event to the server.
func (c *Client) Emit(ctx context.Context, event string, data any) error {
	frame, err := NewFrame(event, data)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("encode %s frame: %w", event, err)
	}

	c.connMu.RLock()
	conn := c.conn
	c.connMu.RUnlock()
	if conn == nil {
		return ErrNotConnected
	}

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(deadline)
	if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		return fmt.Errorf("emit %s: %w", event, err)
	}
	return nil
}
