package notifications

import (
	"log/slog"
	"time"

	"peopleconnects/internal/middleware"
	"peopleconnects/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	// Clients only send pongs and close frames.
	maxMessageSize = 512
	sendBuffer     = 64
)

var dropNotice = []byte(`{"type":"notifications_dropped","payload":{"reason":"buffer_full"}}`)

// Conn is the part of a websocket connection the pumps use.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Client is one live connection of a user. Send is closed by the hub when
// the client is unregistered. WritePump is the only writer on Conn.
type Client struct {
	hub      *Hub
	Conn     Conn
	Send     chan []byte
	Username string

	// closeFrame is the close payload written once Send is closed. The hub
	// sets it before closing Send.
	closeFrame []byte
}

func newClient(hub *Hub, conn Conn, username string) *Client {
	return &Client{
		hub:      hub,
		Conn:     conn,
		Username: username,
		Send:     make(chan []byte, sendBuffer),
	}
}

// ReadPump drains inbound frames so pongs and close frames are processed.
// It unregisters the client when the peer goes away.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.UnregisterClient(c)
		_ = c.Conn.Close()
	}()

	extend := func(string) error { return c.Conn.SetReadDeadline(time.Now().Add(pongWait)) }
	c.Conn.SetReadLimit(maxMessageSize)
	_ = extend("")
	c.Conn.SetPongHandler(extend)

	for {
		_, _, err := c.Conn.ReadMessage()
		if err == nil {
			continue
		}
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
			middleware.Logger.Warn("websocket closed unexpectedly",
				slog.String("username", c.Username),
				slog.String("error", err.Error()),
			)
		}
		return
	}
}

// WritePump forwards queued notifications and keeps the peer alive with
// pings. It returns when Send is closed or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	write := func(kind int, data []byte) error {
		_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
		return c.Conn.WriteMessage(kind, data)
	}

	for {
		select {
		case msg, ok := <-c.Send:
			if !ok {
				_ = write(websocket.CloseMessage, c.closeFrame)
				return
			}
			if err := write(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// TrySend queues msg without blocking. On a full buffer msg is dropped and,
// when one slot is still free, the client is told so it can refetch. Callers
// hold the hub lock, so Send is never closed underneath.
func (c *Client) TrySend(msg []byte) bool {
	select {
	case c.Send <- msg:
		return true
	default:
	}

	observability.WebSocketBackpressureDrops.WithLabelValues("full").Inc()
	middleware.Logger.Warn("notification dropped, client buffer full", slog.String("username", c.Username))
	select {
	case c.Send <- dropNotice:
	default:
	}
	return false
}
