package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"hajzi/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBufferSize = 256
)

// Client is one live connection. Identity is the authenticated email.
type Client struct {
	ID       string
	Identity string
	Conn     *websocket.Conn
	Send     chan []byte

	limiter *rate.Limiter
	rooms   map[string]bool // guarded by Manager.mutex

	closeOnce sync.Once
	mu        sync.Mutex
	closed    bool
}

func NewClient(conn *websocket.Conn, identity string, messagesPerSecond int) *Client {
	return &Client{
		ID:       uuid.New().String(),
		Identity: identity,
		Conn:     conn,
		Send:     make(chan []byte, sendBufferSize),
		limiter:  rate.NewLimiter(rate.Limit(messagesPerSecond), messagesPerSecond),
		rooms:    make(map[string]bool),
	}
}

// enqueue reports false when the client is closed or its buffer is full.
func (c *Client) enqueue(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- frame:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.Send)
		c.mu.Unlock()
	})
}

// ReadPump reads frames until the connection fails or ctx ends, then
// unregisters the client.
func (c *Client) ReadPump(ctx context.Context, m *Manager) {
	defer func() {
		m.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket read error for %s: %v", c.Identity, err)
			}
			return
		}
		if ctx.Err() != nil {
			return
		}

		m.HandleClientMessage(ctx, c, message)
	}
}

// WritePump drains Send to the connection and keeps it alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Warn("WebSocket write error for %s: %v", c.Identity, err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
