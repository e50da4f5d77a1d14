package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/PraiseTechzw/campus-market-mvp-sub001/pkg/errors"
	"github.com/PraiseTechzw/campus-market-mvp-sub001/pkg/logger"
)

// Predicate filters events server-delivered on a topic before they reach
// the handler. A nil predicate accepts everything.
type Predicate func(Event) bool

// Handler receives matching events. Handlers run on the channel's read
// goroutine in delivery order; consumers re-dispatch as needed.
type Handler func(Event)

// Subscription is the handle returned by Subscribe. Its ID is the
// identity consumers compare against before applying late results from
// a torn-down subscription.
type Subscription struct {
	ID        string
	Topic     string
	predicate Predicate
	handler   Handler
}

// frame is the wire envelope exchanged with the realtime endpoint.
type frame struct {
	Op    string `json:"op"` // "subscribe", "unsubscribe", "event", "ping", "pong"
	ID    string `json:"id,omitempty"`
	Topic string `json:"topic,omitempty"`
	Event *Event `json:"event,omitempty"`
}

const (
	writeWait         = 10 * time.Second
	pingPeriod        = 30 * time.Second
	reconnectBaseWait = time.Second
	reconnectMaxWait  = 30 * time.Second
)

// Channel is the websocket client for the provider's realtime endpoint.
// It owns its own reconnect policy; consumers compensate for events
// missed while disconnected via snapshot reconciliation, not here.
type Channel struct {
	url    string
	dialer *websocket.Dialer

	mu     sync.Mutex
	conn   *websocket.Conn
	subs   map[string]*Subscription
	closed bool
	cancel context.CancelFunc

	// Serializes writes; the websocket library allows one writer at a
	// time and frames go out from subscriber goroutines, the keepalive
	// loop, and the reconnect path.
	writeMu sync.Mutex
}

func NewChannel(url string) *Channel {
	return &Channel{
		url:    url,
		dialer: websocket.DefaultDialer,
		subs:   make(map[string]*Subscription),
	}
}

// Connect dials the endpoint and starts the read and keepalive loops.
// On connection loss the channel redials with capped exponential backoff
// and replays every live subscription.
func (c *Channel) Connect(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		cancel()
		return errors.Internal("Channel is closed", nil)
	}
	c.cancel = cancel
	c.mu.Unlock()

	conn, err := c.dial(ctx)
	if err != nil {
		cancel()
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go c.readLoop(ctx)
	go c.pingLoop(ctx)

	return nil
}

func (c *Channel) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return nil, errors.Unavailable("Failed to reach realtime endpoint", err)
	}
	return conn, nil
}

// Subscribe registers a topic subscription and announces it to the
// endpoint. The returned handle stays valid across reconnects until
// Unsubscribe is called with it.
func (c *Channel) Subscribe(topic string, predicate Predicate, handler Handler) (*Subscription, error) {
	sub := &Subscription{
		ID:        uuid.New().String(),
		Topic:     topic,
		predicate: predicate,
		handler:   handler,
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, errors.Internal("Channel is closed", nil)
	}
	c.subs[sub.ID] = sub
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		if err := c.writeFrame(conn, frame{Op: "subscribe", ID: sub.ID, Topic: topic}); err != nil {
			// Keep the registration: the reconnect path replays it.
			logger.Warn("Subscribe announce failed for topic %s: %v", topic, err)
		}
	}

	logger.Debug("Subscribed %s to topic %s", sub.ID, topic)
	return sub, nil
}

// Unsubscribe tears the subscription down synchronously: after it
// returns, no handler call will be made for this handle.
func (c *Channel) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	c.mu.Lock()
	if _, ok := c.subs[sub.ID]; !ok {
		c.mu.Unlock()
		return
	}
	delete(c.subs, sub.ID)
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		if err := c.writeFrame(conn, frame{Op: "unsubscribe", ID: sub.ID, Topic: sub.Topic}); err != nil {
			logger.Debug("Unsubscribe announce failed for topic %s: %v", sub.Topic, err)
		}
	}

	logger.Debug("Unsubscribed %s from topic %s", sub.ID, sub.Topic)
}

func (c *Channel) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	conn := c.conn
	c.conn = nil
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		conn.Close()
	}
}

func (c *Channel) writeFrame(conn *websocket.Conn, f frame) error {
	payload, err := json.Marshal(f)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *Channel) readLoop(ctx context.Context) {
	for {
		c.mu.Lock()
		conn := c.conn
		closed := c.closed
		c.mu.Unlock()

		if closed || conn == nil {
			return
		}

		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("Realtime connection lost: %v", err)
			c.reconnect(ctx)
			continue
		}

		var f frame
		if err := json.Unmarshal(payload, &f); err != nil {
			logger.Warn("Discarding malformed realtime frame: %v", err)
			continue
		}

		if f.Op != "event" || f.Event == nil {
			continue
		}

		c.dispatch(f.Topic, *f.Event)
	}
}

func (c *Channel) dispatch(topic string, event Event) {
	c.mu.Lock()
	var matched []*Subscription
	for _, sub := range c.subs {
		if sub.Topic == topic {
			matched = append(matched, sub)
		}
	}
	c.mu.Unlock()

	for _, sub := range matched {
		if sub.predicate != nil && !sub.predicate(event) {
			continue
		}
		sub.handler(event)
	}
}

// reconnect redials with capped exponential backoff and replays the
// live subscription set on the fresh connection.
func (c *Channel) reconnect(ctx context.Context) {
	wait := reconnectBaseWait
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		if c.conn != nil {
			c.conn.Close()
			c.conn = nil
		}
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		conn, err := c.dial(ctx)
		if err != nil {
			logger.Warn("Realtime reconnect failed, retrying in %s: %v", wait, err)
			wait *= 2
			if wait > reconnectMaxWait {
				wait = reconnectMaxWait
			}
			continue
		}

		c.mu.Lock()
		c.conn = conn
		subs := make([]*Subscription, 0, len(c.subs))
		for _, sub := range c.subs {
			subs = append(subs, sub)
		}
		c.mu.Unlock()

		for _, sub := range subs {
			if err := c.writeFrame(conn, frame{Op: "subscribe", ID: sub.ID, Topic: sub.Topic}); err != nil {
				logger.Warn("Failed to replay subscription for topic %s: %v", sub.Topic, err)
			}
		}

		logger.Info("Realtime connection re-established (%d subscriptions replayed)", len(subs))
		return
	}
}

func (c *Channel) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			conn := c.conn
			closed := c.closed
			c.mu.Unlock()
			if closed {
				return
			}
			if conn == nil {
				continue
			}
			c.writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				logger.Debug("Realtime ping failed: %v", err)
			}
		}
	}
}
