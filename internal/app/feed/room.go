/*
Package feed pushes committed channel events to websocket subscribers.

This file defines the Room, the per-channel fan-out loop. It owns the set of
connected clients of one channel, checks each recipient still holds an open
session and channel membership before delivering, and shuts itself down after
a period without subscribers.
*/
package feed

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"flockr/internal/pkg/logx"
)

const broadcastChannelBuffer = 256

// RoomInactivityTimeout is how long a room with no subscribers stays alive.
const RoomInactivityTimeout = 5 * time.Minute

// Members answers channel membership questions for the feed.
type Members interface {
	IsMember(uid, channelID int) bool
}

// Sessions answers whether the session that opened a feed is still open.
type Sessions interface {
	Active(uid int, sessionID string) bool
}

// Room fans out the events of one channel.
type Room struct {
	ChannelID int

	// clients is only touched by the Run goroutine.
	clients map[*Client]struct{}

	// subscribers mirrors len(clients) for readers outside Run.
	subscribers atomic.Int32

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	// cleanupChan tells the Hub this room has stopped.
	cleanupChan chan<- *Room

	stopChan chan struct{}
	done     chan struct{}

	members  Members
	sessions Sessions

	logger zerolog.Logger
}

func newRoom(channelID int, members Members, sessions Sessions, cleanupChan chan<- *Room) *Room {
	return &Room{
		ChannelID:   channelID,
		clients:     make(map[*Client]struct{}),
		broadcast:   make(chan []byte, broadcastChannelBuffer),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		cleanupChan: cleanupChan,
		stopChan:    make(chan struct{}),
		done:        make(chan struct{}),
		members:     members,
		sessions:    sessions,
		logger:      logx.Logger().With().Str("component", "FeedRoom").Int("channel_id", channelID).Logger(),
	}
}

// Stop terminates the Run loop and disconnects every client.
func (r *Room) Stop() {
	select {
	case <-r.stopChan:
	default:
		close(r.stopChan)
	}
}

// enqueue hands an encoded event to the room without blocking.
func (r *Room) enqueue(payload []byte) {
	select {
	case r.broadcast <- payload:
	case <-r.done:
	default:
		r.logger.Warn().Msg("Broadcast channel full. Event dropped.")
	}
}

// join registers c, reporting false if the room already stopped.
func (r *Room) join(c *Client) bool {
	select {
	case r.register <- c:
		return true
	case <-r.done:
		return false
	}
}

// leave unregisters c. It returns immediately if the room already stopped.
func (r *Room) leave(c *Client) {
	select {
	case r.unregister <- c:
	case <-r.done:
	}
}

// Run is the room's event loop.
func (r *Room) Run() {
	idle := time.NewTimer(RoomInactivityTimeout)

	defer func() {
		idle.Stop()
		for c := range r.clients {
			c.close(CloseRoomStopped, "channel feed closed")
		}
		r.clients = nil
		r.subscribers.Store(0)

		r.cleanupChan <- r
		close(r.done)
		r.logger.Info().Msg("Room stopped.")
	}()

	for {
		select {
		case c := <-r.register:
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			r.clients[c] = struct{}{}
			r.subscribers.Store(int32(len(r.clients)))
			r.logger.Info().Int("u_id", c.userID).Int("total_clients", len(r.clients)).Msg("Client subscribed.")

		case c := <-r.unregister:
			if _, ok := r.clients[c]; !ok {
				continue
			}
			delete(r.clients, c)
			r.subscribers.Store(int32(len(r.clients)))
			c.close(websocketNormalClosure, "")
			r.logger.Info().Int("u_id", c.userID).Int("total_clients", len(r.clients)).Msg("Client unsubscribed.")

			if len(r.clients) == 0 {
				idle.Reset(RoomInactivityTimeout)
			}

		case payload := <-r.broadcast:
			if before := len(r.clients); before > 0 && r.deliver(payload) == 0 {
				idle.Reset(RoomInactivityTimeout)
			}

		case <-idle.C:
			r.logger.Info().Dur("timeout", RoomInactivityTimeout).Msg("Room idle. Shutting down.")
			return

		case <-r.stopChan:
			return
		}
	}
}

// deliver sends payload to every client whose session is still open and who
// is still a channel member, and returns how many remain. Other clients, and
// those that cannot keep up, are disconnected.
func (r *Room) deliver(payload []byte) int {
	for c := range r.clients {
		if !r.sessions.Active(c.userID, c.sessionID) {
			delete(r.clients, c)
			c.close(CloseSessionExpired, "session closed")
			r.logger.Info().Int("u_id", c.userID).Msg("Client removed after its session closed.")
			continue
		}

		if !r.members.IsMember(c.userID, r.ChannelID) {
			delete(r.clients, c)
			c.close(CloseNotMember, "no longer a member of this channel")
			r.logger.Info().Int("u_id", c.userID).Msg("Client removed after losing membership.")
			continue
		}

		if !c.enqueue(payload) {
			delete(r.clients, c)
			c.close(CloseSlowConsumer, "client too slow")
			r.logger.Warn().Int("u_id", c.userID).Msg("Client send queue full. Disconnected.")
		}
	}
	r.subscribers.Store(int32(len(r.clients)))
	return len(r.clients)
}
