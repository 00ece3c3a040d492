// Package transport maintains the push connection to the chat server: one
// websocket carrying any number of topic subscriptions, with transparent
// reconnect. Consumers must still reconcile against a fresh fetch whenever a
// view mounts; a reconnect shows up only as a gap in delivery.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/vedran77/parley/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	readWait       = 60 * time.Second
	handshakeWait  = 10 * time.Second
	maxMessageSize = 1 << 20
)

var (
	ErrClosed            = errors.New("transport: connection closed")
	ErrAlreadySubscribed = errors.New("transport: topic already subscribed")
)

// Handler receives the payload of every data frame on one topic, in the order
// the transport delivers them. Delivery is at-least-once; handlers must
// tolerate duplicates.
type Handler func(payload json.RawMessage)

// Options configures a Conn.
type Options struct {
	URL          string
	Token        string
	ReconnectMin time.Duration
	ReconnectMax time.Duration
}

// Conn is the persistent push connection. All subscriptions share it; if the
// socket drops, it reconnects with bounded backoff and resubscribes every
// live topic.
type Conn struct {
	opts Options
	log  zerolog.Logger

	mu     sync.Mutex
	ws     *websocket.Conn
	subs   map[string]*Subscription
	closed bool

	done chan struct{}
}

// Dial connects, waits for the server's welcome frame and starts the read
// loop. The returned Conn is ready for Subscribe.
func Dial(ctx context.Context, opts Options) (*Conn, error) {
	if opts.ReconnectMin <= 0 {
		opts.ReconnectMin = time.Second
	}
	if opts.ReconnectMax < opts.ReconnectMin {
		opts.ReconnectMax = 30 * time.Second
	}

	c := &Conn{
		opts: opts,
		log:  logging.Component("transport"),
		subs: make(map[string]*Subscription),
		done: make(chan struct{}),
	}

	ws, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	c.ws = ws

	go c.readLoop(ws)
	return c, nil
}

func (c *Conn) connect(ctx context.Context) (*websocket.Conn, error) {
	url := c.opts.URL
	if c.opts.Token != "" {
		url += "?token=" + c.opts.Token
	}

	ws, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	ws.SetReadLimit(maxMessageSize)

	// The server greets with a welcome frame before accepting commands.
	hctx, cancel := context.WithTimeout(ctx, handshakeWait)
	defer cancel()
	var frame serverFrame
	if err := wsjson.Read(hctx, ws, &frame); err != nil {
		ws.Close(websocket.StatusProtocolError, "no welcome")
		return nil, err
	}
	if frame.Type != frameWelcome {
		ws.Close(websocket.StatusProtocolError, "unexpected greeting")
		return nil, errors.New("transport: expected welcome frame, got " + frame.Type)
	}
	return ws, nil
}

// Subscribe opens one logical subscription. Subscribing the same topic twice
// without closing the first returns ErrAlreadySubscribed.
func (c *Conn) Subscribe(ctx context.Context, topic Topic, handler Handler) (*Subscription, error) {
	identifier, err := topic.identifier()
	if err != nil {
		return nil, err
	}

	sub := &Subscription{conn: c, topic: topic, identifier: identifier, handler: handler}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if _, ok := c.subs[identifier]; ok {
		c.mu.Unlock()
		return nil, ErrAlreadySubscribed
	}
	c.subs[identifier] = sub
	ws := c.ws
	c.mu.Unlock()

	if ws != nil {
		if err := c.send(ctx, ws, command{Command: commandSubscribe, Identifier: identifier}); err != nil {
			// Keep the registration: the reconnect path will resubscribe.
			c.log.Warn().Err(err).Str("topic", topic.String()).Msg("subscribe send failed")
		}
	}
	c.log.Debug().Str("topic", topic.String()).Msg("subscribed")
	return sub, nil
}

// unsubscribe removes a subscription; called once per handle via Close.
func (c *Conn) unsubscribe(identifier string) {
	c.mu.Lock()
	sub, ok := c.subs[identifier]
	if ok {
		delete(c.subs, identifier)
	}
	ws := c.ws
	closed := c.closed
	c.mu.Unlock()

	if !ok || closed || ws == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	if err := c.send(ctx, ws, command{Command: commandUnsubscribe, Identifier: identifier}); err != nil {
		c.log.Debug().Err(err).Str("topic", sub.topic.String()).Msg("unsubscribe send failed")
	}
}

func (c *Conn) send(ctx context.Context, ws *websocket.Conn, cmd command) error {
	wctx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	return wsjson.Write(wctx, ws, cmd)
}

// Close tears the connection down. Safe to call multiple times.
func (c *Conn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	ws := c.ws
	c.ws = nil
	c.mu.Unlock()

	close(c.done)
	if ws != nil {
		ws.Close(websocket.StatusNormalClosure, "")
	}
}

// readLoop reads frames until the socket fails, then hands off to the
// reconnect loop. The server pings regularly, so a silent socket past
// readWait is treated as dead.
func (c *Conn) readLoop(ws *websocket.Conn) {
	for {
		rctx, cancel := context.WithTimeout(context.Background(), readWait)
		var frame serverFrame
		err := wsjson.Read(rctx, ws, &frame)
		cancel()
		if err != nil {
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if closed {
				return
			}
			c.log.Warn().Err(err).Msg("connection lost")
			c.reconnectLoop()
			return
		}

		c.handleFrame(&frame)
	}
}

func (c *Conn) handleFrame(frame *serverFrame) {
	switch frame.Type {
	case framePing, frameWelcome:
		// Keepalive noise.
	case frameConfirm:
		c.log.Debug().Str("identifier", frame.Identifier).Msg("subscription confirmed")
	case frameReject:
		c.log.Warn().Str("identifier", frame.Identifier).Msg("subscription rejected")
	case frameDisconnect:
		c.log.Warn().Msg("server requested disconnect")
	case "":
		c.dispatch(frame.Identifier, frame.Message)
	default:
		c.log.Debug().Str("type", frame.Type).Msg("ignoring unknown frame")
	}
}

// dispatch routes a data frame to its subscription. A misbehaving handler
// must not take the read loop down with it.
func (c *Conn) dispatch(identifier string, payload json.RawMessage) {
	c.mu.Lock()
	sub := c.subs[identifier]
	c.mu.Unlock()
	if sub == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Interface("panic", r).Str("topic", sub.topic.String()).
				Msg("handler panicked")
		}
	}()
	sub.handler(payload)
}

// reconnectLoop re-establishes the socket with exponential backoff and
// resubscribes everything that is still registered.
func (c *Conn) reconnectLoop() {
	backoff := c.opts.ReconnectMin
	for {
		select {
		case <-c.done:
			return
		case <-time.After(backoff):
		}

		ctx, cancel := context.WithTimeout(context.Background(), handshakeWait)
		ws, err := c.connect(ctx)
		cancel()
		if err != nil {
			c.log.Debug().Err(err).Dur("backoff", backoff).Msg("reconnect failed")
			backoff *= 2
			if backoff > c.opts.ReconnectMax {
				backoff = c.opts.ReconnectMax
			}
			continue
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			ws.Close(websocket.StatusNormalClosure, "")
			return
		}
		c.ws = ws
		identifiers := make([]string, 0, len(c.subs))
		for id := range c.subs {
			identifiers = append(identifiers, id)
		}
		c.mu.Unlock()

		for _, id := range identifiers {
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.send(ctx, ws, command{Command: commandSubscribe, Identifier: id})
			cancel()
			if err != nil {
				c.log.Warn().Err(err).Msg("resubscribe failed")
			}
		}

		c.log.Info().Int("subscriptions", len(identifiers)).Msg("reconnected")
		go c.readLoop(ws)
		return
	}
}
