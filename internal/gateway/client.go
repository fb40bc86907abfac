package gateway

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/debsndprgs5/transcendence-game/internal/model"
	"github.com/debsndprgs5/transcendence-game/internal/protocol"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period; must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound message size in bytes
	maxMessageSize = 4096

	// Outbound queue depth; slow consumers get dropped frames
	sendBufferSize = 256
)

// client is one websocket connection. It satisfies the registry's Conn
// so the rest of the system can address the player without knowing the
// transport.
type client struct {
	id       string
	playerID model.PlayerID

	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool

	logger *slog.Logger
}

func newClient(playerID model.PlayerID, conn *websocket.Conn, logger *slog.Logger) *client {
	id := uuid.NewString()
	return &client{
		id:       id,
		playerID: playerID,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		logger: logger.With(
			slog.String("conn", id),
			slog.String("player_id", string(playerID)),
		),
	}
}

// ID returns the connection's unique id
func (c *client) ID() string { return c.id }

// Send queues a message for delivery. It never blocks; frames to a
// full queue are dropped and reported as undelivered.
func (c *client) Send(msg protocol.Message) bool {
	data, err := protocol.Encode(msg)
	if err != nil {
		c.logger.Error("failed to encode message",
			slog.String("type", string(msg.MessageType())),
			slog.String("error", err.Error()),
		)
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		c.logger.Warn("send queue full, dropping frame",
			slog.String("type", string(msg.MessageType())),
		)
		return false
	}
}

// Kick delivers a terminal reason and shuts the connection down
func (c *client) Kick(reason string) {
	c.Send(&protocol.Kicked{Reason: reason})
	c.close()
}

// close marks the client closed and wakes the write pump to finish
func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// readPump reads inbound frames and hands them to the dispatcher. It
// runs on the connection's serving goroutine and returns on any read
// error, which covers peer close, timeouts and supersession.
func (c *client) readPump(dispatch func(*client, []byte)) {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info("unexpected close", slog.String("error", err.Error()))
			}
			return
		}
		dispatch(c, data)
	}
}

// writePump drains the send queue to the peer and keeps the connection
// alive with pings. Exits when the queue is closed or a write fails.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
