/*
Package feed pushes committed channel events to websocket subscribers.

This file defines the Client, one websocket subscriber. The feed is read-only:
inbound frames other than control frames are ignored. ReadPump and WritePump
follow the usual gorilla/websocket split of one reader and one writer goroutine.
*/
package feed

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"flockr/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the client.
	maxMessageSize = 512

	sendQueueSize = 64
)

// Custom close codes (4000-4999 range).
const (
	CloseSessionExpired = 4001
	CloseNotMember      = 4003
	CloseSlowConsumer   = 4008
	CloseRoomStopped    = 4010

	websocketNormalClosure = websocket.CloseNormalClosure
)

// Client is one websocket subscriber of a channel feed.
type Client struct {
	room   *Room
	conn   *websocket.Conn
	userID int

	// sessionID is the session that opened the connection.
	sessionID string

	// expiry is when the session token that opened the connection expires.
	expiry time.Time

	// send queues encoded events. Only the room closes it.
	send chan []byte

	closeOnce   sync.Once
	closeCode   int
	closeReason string

	logger zerolog.Logger
}

func newClient(room *Room, conn *websocket.Conn, userID int, sessionID string, expiry time.Time) *Client {
	return &Client{
		room:      room,
		conn:      conn,
		userID:    userID,
		sessionID: sessionID,
		expiry:    expiry,
		send:      make(chan []byte, sendQueueSize),
		logger: logx.Logger().With().
			Str("component", "FeedClient").
			Int("u_id", userID).
			Int("channel_id", room.ChannelID).
			Logger(),
	}
}

// enqueue queues payload without blocking, reporting false when the queue is full.
func (c *Client) enqueue(payload []byte) bool {
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// close ends the send queue; WritePump then writes a close frame with code and reason.
func (c *Client) close(code int, reason string) {
	c.closeOnce.Do(func() {
		c.closeCode = code
		c.closeReason = reason
		close(c.send)
	})
}

// ReadPump drains inbound frames so control frames are processed, and
// unregisters the client when the connection ends.
func (c *Client) ReadPump() {
	defer func() {
		c.room.leave(c)
		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error")
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Unexpected close while reading")
			}
			return
		}
	}
}

// WritePump writes queued events and heartbeats until the send queue is closed,
// the session expires or is closed, or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case payload, ok := <-c.send:
			if !ok {
				c.writeClose(c.closeCode, c.closeReason)
				return
			}
			if !c.write(websocket.TextMessage, payload) {
				return
			}

		case <-ticker.C:
			if time.Now().After(c.expiry) {
				c.logger.Info().Time("expiry", c.expiry).Msg("Session expired. Closing feed.")
				c.writeClose(CloseSessionExpired, "session expired")
				return
			}
			if !c.room.sessions.Active(c.userID, c.sessionID) {
				c.logger.Info().Msg("Session closed. Closing feed.")
				c.writeClose(CloseSessionExpired, "session closed")
				return
			}
			if !c.write(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) write(messageType int, data []byte) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if err := c.conn.WriteMessage(messageType, data); err != nil {
		c.logger.Info().Err(err).Int("message_type", messageType).Msg("Error writing to client")
		return false
	}
	return true
}

func (c *Client) writeClose(code int, reason string) {
	if code == 0 {
		code = websocket.CloseNormalClosure
	}
	c.write(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
}
