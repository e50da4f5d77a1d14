package devrelay

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/PraiseTechzw/campus-market-mvp-sub001/internal/infrastructure/realtime"
	"github.com/PraiseTechzw/campus-market-mvp-sub001/pkg/logger"
)

// Frame mirrors the wire envelope of the hosted realtime endpoint so
// clients cannot tell the relay apart from the real provider.
type Frame struct {
	Op    string          `json:"op"` // "subscribe", "unsubscribe", "publish", "event"
	ID    string          `json:"id,omitempty"`
	Topic string          `json:"topic,omitempty"`
	Event *realtime.Event `json:"event,omitempty"`
}

// Client is one websocket connection to the relay.
type Client struct {
	Conn *websocket.Conn
	Send chan []byte

	mu     sync.Mutex
	topics map[string]bool
}

func newClient(conn *websocket.Conn) *Client {
	return &Client{
		Conn:   conn,
		Send:   make(chan []byte, 64),
		topics: make(map[string]bool),
	}
}

func (c *Client) subscribed(topic string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.topics[topic]
}

func (c *Client) setSubscribed(topic string, on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if on {
		c.topics[topic] = true
	} else {
		delete(c.topics, topic)
	}
}

// Manager tracks connected clients and fans published events out to
// topic subscribers. Local development stand-in only: no persistence,
// no delivery guarantee beyond the live connections.
type Manager struct {
	clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	mutex      sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Start runs the manager's main loop in a goroutine.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				m.clients[client] = true
				m.mutex.Unlock()
				logger.Debug("Relay client connected (%d total)", m.ClientCount())

			case client := <-m.Unregister:
				m.mutex.Lock()
				if _, ok := m.clients[client]; ok {
					delete(m.clients, client)
					close(client.Send)
				}
				m.mutex.Unlock()
				logger.Debug("Relay client disconnected (%d total)", m.ClientCount())

			case <-ctx.Done():
				return
			}
		}
	}()
}

func (m *Manager) ClientCount() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients)
}

// Publish fans an event out to every client subscribed to the topic.
func (m *Manager) Publish(topic string, event realtime.Event) {
	frame := Frame{Op: "event", Topic: topic, Event: &event}
	payload, err := json.Marshal(frame)
	if err != nil {
		logger.Error("Relay failed to marshal event for topic %s: %v", topic, err)
		return
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()
	for client := range m.clients {
		if !client.subscribed(topic) {
			continue
		}
		select {
		case client.Send <- payload:
		default:
			logger.Warn("Relay client send buffer full, dropping event on topic %s", topic)
		}
	}
}

// ReadPump reads frames from the connection until it closes.
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.Unregister <- c
		c.Conn.Close()
	}()

	for {
		_, payload, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("Relay read error: %v", err)
			}
			break
		}

		var frame Frame
		if err := json.Unmarshal(payload, &frame); err != nil {
			logger.Warn("Relay discarding malformed frame: %v", err)
			continue
		}

		switch frame.Op {
		case "subscribe":
			c.setSubscribed(frame.Topic, true)
		case "unsubscribe":
			c.setSubscribed(frame.Topic, false)
		case "publish":
			if frame.Event != nil {
				m.Publish(frame.Topic, *frame.Event)
			}
		case "ping":
			if payload, err := json.Marshal(Frame{Op: "pong"}); err == nil {
				select {
				case c.Send <- payload:
				default:
				}
			}
		default:
			logger.Debug("Relay ignoring unknown op %q", frame.Op)
		}
	}
}

// WritePump sends queued frames to the connection.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		payload, ok := <-c.Send
		if !ok {
			c.Conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(10*time.Second))
			return
		}

		if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			logger.Debug("Relay write error: %v", err)
			return
		}
	}
}
