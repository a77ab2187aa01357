// Package ws implements the pub/sub transport over a websocket connection.
// Frames are JSON envelopes carrying a channel name and a payload; control
// traffic (handshake, subscribe, disconnect) rides the same envelopes on
// /meta/ channels. The client redials broken connections with capped
// exponential backoff and lets the installed reconnect callback replay
// subscriptions, so the server can tell a recovery from a fresh join.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sbordet/oort-chat-demo/internal/transport"
)

const (
	metaHandshake   = "/meta/handshake"
	metaSubscribe   = "/meta/subscribe"
	metaUnsubscribe = "/meta/unsubscribe"
	metaResubscribe = "/meta/resubscribe"
	metaReconnect   = "/meta/reconnect"
	metaDisconnect  = "/meta/disconnect"
)

const writeTimeout = 10 * time.Second

// Options configures the websocket transport.
type Options struct {
	URL         string
	DialTimeout time.Duration
	MinBackoff  time.Duration
	MaxBackoff  time.Duration
	Logger      *zerolog.Logger
}

type envelope struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type subscribeData struct {
	ID      string `json:"id"`
	Channel string `json:"channel"`
	// PrevID is set on resubscribe so the server replays instead of joining.
	PrevID string `json:"prevId,omitempty"`
}

type reconnectData struct {
	ClientID string `json:"clientId"`
}

// Client is a websocket-backed transport.Transport. Outbound calls are
// fire-and-forget: while disconnected they are queued and flushed after the
// next successful dial.
type Client struct {
	opts     Options
	log      *zerolog.Logger
	clientID string

	handler     transport.Handler
	onReconnect func()

	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	conn     *websocket.Conn
	closed   bool
	dialing  bool
	batching bool
	batch    []envelope
	queue    []envelope
	subs     map[string]*transport.Subscription
}

// NewClient builds a transport for the given options. Install the frame
// handler and reconnect callback before Connect.
func NewClient(opts Options) *Client {
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 10 * time.Second
	}
	if opts.MinBackoff == 0 {
		opts.MinBackoff = 500 * time.Millisecond
	}
	if opts.MaxBackoff == 0 {
		opts.MaxBackoff = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Client{
		opts:     opts,
		log:      logger,
		clientID: uuid.NewString(),
		subs:     make(map[string]*transport.Subscription),
	}
}

// SetHandler installs the consumer of inbound frames.
func (c *Client) SetHandler(h transport.Handler) {
	c.handler = h
}

// SetReconnectFunc installs the callback invoked after every successful
// redial, once the connection is writable again.
func (c *Client) SetReconnectFunc(fn func()) {
	c.onReconnect = fn
}

// Connect dials the server and starts the delivery loop. The context bounds
// the whole connection lifetime, including redials.
func (c *Client) Connect(ctx context.Context) error {
	cctx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	c.ctx = cctx
	c.cancel = cancel
	c.mu.Unlock()

	conn, err := c.dial()
	if err != nil {
		cancel()
		return fmt.Errorf("dial %s: %w", c.opts.URL, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.flushLocked()
	c.mu.Unlock()

	c.log.Info().Str("url", c.opts.URL).Msg("connected")
	go c.readLoop(conn)
	return nil
}

// Close tears the transport down for good. No redial follows.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	conn := c.conn
	c.conn = nil
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		return conn.Close(websocket.StatusNormalClosure, "bye")
	}
	return nil
}

// Handshake sends the session-establishment request with the credential ext.
// If a Disconnect left the transport idle, a fresh dial is started so the
// request reaches the server.
func (c *Client) Handshake(ext any) {
	data, ok := c.marshal(ext)
	if !ok {
		return
	}
	c.enqueue(envelope{Channel: metaHandshake, Data: data})
	c.ensureConnected()
}

// ensureConnected dials again after a deliberate Disconnect left the transport
// idle. Unlike redial this starts a fresh session: no recovery announcement
// and no subscription replay, just the queued traffic once the dial lands.
func (c *Client) ensureConnected() {
	c.mu.Lock()
	if c.conn != nil || c.closed || c.dialing || c.ctx == nil || c.ctx.Err() != nil {
		c.mu.Unlock()
		return
	}
	c.dialing = true
	c.mu.Unlock()

	go func() {
		defer func() {
			c.mu.Lock()
			c.dialing = false
			c.mu.Unlock()
		}()

		backoff := c.opts.MinBackoff
		for {
			conn, err := c.dial()
			if err == nil {
				c.mu.Lock()
				if c.closed || c.conn != nil {
					c.mu.Unlock()
					_ = conn.Close(websocket.StatusNormalClosure, "superseded")
					return
				}
				c.conn = conn
				c.flushLocked()
				c.mu.Unlock()

				c.log.Info().Str("url", c.opts.URL).Msg("connected")
				go c.readLoop(conn)
				return
			}

			c.log.Warn().Err(err).Dur("backoff", backoff).Msg("dial failed")
			select {
			case <-c.ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > c.opts.MaxBackoff {
				backoff = c.opts.MaxBackoff
			}
		}
	}()
}

// Disconnect ends the session and closes the connection without scheduling a
// redial. A later Handshake dials again on its own.
func (c *Client) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	if conn != nil {
		c.sendLocked([]envelope{{Channel: metaDisconnect}})
	}
	c.conn = nil
	c.queue = nil
	c.subs = make(map[string]*transport.Subscription)
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "disconnect")
		c.log.Info().Msg("disconnected")
	}
}

// Subscribe registers interest in a channel.
func (c *Client) Subscribe(channel string) *transport.Subscription {
	sub := &transport.Subscription{ID: uuid.NewString(), Channel: channel}
	data, ok := c.marshal(subscribeData{ID: sub.ID, Channel: channel})
	if !ok {
		return sub
	}

	c.mu.Lock()
	c.subs[sub.ID] = sub
	c.mu.Unlock()

	c.enqueue(envelope{Channel: metaSubscribe, Data: data})
	return sub
}

// Unsubscribe cancels a subscription.
func (c *Client) Unsubscribe(sub *transport.Subscription) {
	if sub == nil {
		return
	}
	data, ok := c.marshal(subscribeData{ID: sub.ID, Channel: sub.Channel})
	if !ok {
		return
	}

	c.mu.Lock()
	delete(c.subs, sub.ID)
	c.mu.Unlock()

	c.enqueue(envelope{Channel: metaUnsubscribe, Data: data})
}

// Resubscribe replays a previously held subscription under a new handle. The
// channel is preserved; the prior handle id rides along so the server treats
// the call as a replay, not a first subscribe.
func (c *Client) Resubscribe(sub *transport.Subscription) *transport.Subscription {
	if sub == nil {
		return nil
	}
	next := &transport.Subscription{ID: uuid.NewString(), Channel: sub.Channel}
	data, ok := c.marshal(subscribeData{ID: next.ID, Channel: next.Channel, PrevID: sub.ID})
	if !ok {
		return next
	}

	c.mu.Lock()
	delete(c.subs, sub.ID)
	c.subs[next.ID] = next
	c.mu.Unlock()

	c.enqueue(envelope{Channel: metaResubscribe, Data: data})
	return next
}

// Publish sends data on a channel.
func (c *Client) Publish(channel string, data any) {
	raw, ok := c.marshal(data)
	if !ok {
		return
	}
	c.enqueue(envelope{Channel: channel, Data: raw})
}

// Batch collects every operation fn issues and sends them as one frame.
func (c *Client) Batch(fn func()) {
	c.mu.Lock()
	if c.batching {
		// Nested batch: merge into the outer one.
		c.mu.Unlock()
		fn()
		return
	}
	c.batching = true
	c.mu.Unlock()

	fn()

	c.mu.Lock()
	envs := c.batch
	c.batch = nil
	c.batching = false
	if len(envs) > 0 {
		c.sendLocked(envs)
	}
	c.mu.Unlock()
}

func (c *Client) marshal(v any) (json.RawMessage, bool) {
	raw, err := json.Marshal(v)
	if err != nil {
		c.log.Warn().Err(err).Msg("marshal payload")
		return nil, false
	}
	return raw, true
}

func (c *Client) enqueue(env envelope) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.batching {
		c.batch = append(c.batch, env)
		return
	}
	c.sendLocked([]envelope{env})
}

// sendLocked writes envelopes to the connection, queueing them while
// disconnected. A batch goes out as one array-valued frame.
func (c *Client) sendLocked(envs []envelope) {
	if c.conn == nil {
		c.queue = append(c.queue, envs...)
		return
	}

	var payload any
	if len(envs) == 1 {
		payload = envs[0]
	} else {
		payload = envs
	}

	ctx, cancel := context.WithTimeout(c.ctx, writeTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, c.conn, payload); err != nil {
		c.log.Warn().Err(err).Msg("write failed, queueing")
		c.queue = append(c.queue, envs...)
	}
}

func (c *Client) flushLocked() {
	if c.conn == nil || len(c.queue) == 0 {
		return
	}
	envs := c.queue
	c.queue = nil
	c.sendLocked(envs)
}

func (c *Client) dial() (*websocket.Conn, error) {
	ctx, cancel := context.WithTimeout(c.ctx, c.opts.DialTimeout)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, c.opts.URL, nil)
	return conn, err
}

// readLoop delivers inbound frames one at a time until the connection breaks,
// then hands over to the redial loop unless the break was deliberate.
func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		var raw json.RawMessage
		if err := wsjson.Read(c.ctx, conn, &raw); err != nil {
			c.mu.Lock()
			stale := c.closed || c.conn != conn
			if !stale {
				c.conn = nil
			}
			c.mu.Unlock()

			if stale || c.ctx.Err() != nil {
				return
			}
			c.log.Warn().Err(err).Msg("connection lost")
			c.redial()
			return
		}

		for _, fr := range decodeFrames(c.log, raw) {
			if c.handler != nil {
				c.handler(fr)
			}
		}
	}
}

// redial reconnects with capped exponential backoff, announces the recovery
// to the server, replays subscriptions via the reconnect callback and
// flushes anything queued while offline.
func (c *Client) redial() {
	backoff := c.opts.MinBackoff
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-time.After(backoff):
		}

		c.mu.Lock()
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return
		}

		conn, err := c.dial()
		if err != nil {
			c.log.Warn().Err(err).Dur("backoff", backoff).Msg("redial failed")
			backoff *= 2
			if backoff > c.opts.MaxBackoff {
				backoff = c.opts.MaxBackoff
			}
			continue
		}

		data, _ := json.Marshal(reconnectData{ClientID: c.clientID})
		c.mu.Lock()
		c.conn = conn
		c.sendLocked([]envelope{{Channel: metaReconnect, Data: data}})
		// Traffic queued before the break goes out ahead of the subscription
		// replay, preserving the order it was issued in.
		c.flushLocked()
		c.mu.Unlock()

		c.log.Info().Str("url", c.opts.URL).Msg("reconnected")
		if c.onReconnect != nil {
			c.onReconnect()
		}

		go c.readLoop(conn)
		return
	}
}

// decodeFrames turns one wire message into frames. The server may coalesce
// deliveries into an array-valued frame.
func decodeFrames(logger *zerolog.Logger, raw json.RawMessage) []transport.Frame {
	trimmed := bytesTrimLeft(raw)
	if len(trimmed) == 0 {
		return nil
	}

	if trimmed[0] == '[' {
		var envs []envelope
		if err := json.Unmarshal(raw, &envs); err != nil {
			logger.Warn().Err(err).Msg("bad batched frame")
			return nil
		}
		frames := make([]transport.Frame, 0, len(envs))
		for _, env := range envs {
			frames = append(frames, transport.Frame{Channel: env.Channel, Data: env.Data})
		}
		return frames
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Warn().Err(err).Msg("bad frame")
		return nil
	}
	return []transport.Frame{{Channel: env.Channel, Data: env.Data}}
}

func bytesTrimLeft(raw []byte) []byte {
	for i, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
		default:
			return raw[i:]
		}
	}
	return nil
}
