/*
Package feed pushes committed channel events to websocket subscribers.

This file defines the Hub, which creates, tracks and cleans up the per-channel
Rooms. The Hub implements chat.Publisher so the Store can hand it events.
*/
package feed

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"flockr/internal/app/chat"
	"flockr/internal/pkg/logx"
)

// Hub coordinates every live channel Room.
type Hub struct {
	// rooms holds running rooms keyed by channel id.
	rooms map[int]*Room

	// mu protects rooms and closed.
	mu     sync.RWMutex
	closed bool

	members  Members
	sessions Sessions

	// cleanup receives rooms whose Run loop ended.
	cleanup chan *Room

	// wg waits for the cleanup loop during shutdown.
	wg sync.WaitGroup

	logger zerolog.Logger
}

// NewHub constructs a Hub whose rooms check membership against members and
// the subscriber's session against sessions.
func NewHub(members Members, sessions Sessions) *Hub {
	h := &Hub{
		rooms:    make(map[int]*Room),
		members:  members,
		sessions: sessions,
		cleanup:  make(chan *Room, 16),
		logger:   logx.Component("FeedHub"),
	}

	h.wg.Add(1)
	go h.runCleanupLoop()

	return h
}

// SetMembers replaces the membership source. It must be called before the
// first Subscribe.
func (h *Hub) SetMembers(members Members) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.members = members
}

func (h *Hub) runCleanupLoop() {
	defer h.wg.Done()

	for room := range h.cleanup {
		h.mu.Lock()
		if current, ok := h.rooms[room.ChannelID]; ok && current == room {
			delete(h.rooms, room.ChannelID)
		}
		h.mu.Unlock()
	}

	h.logger.Info().Msg("Cleanup loop stopped.")
}

// Publish encodes ev once and queues it on the channel's room, if anyone is listening.
func (h *Hub) Publish(ev chat.Event) {
	h.mu.RLock()
	room := h.rooms[ev.ChannelID]
	h.mu.RUnlock()

	if room == nil {
		return
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error().Err(err).Str("event", string(ev.Type)).Msg("Failed to encode event.")
		return
	}
	room.enqueue(payload)
}

// Subscribe attaches conn to the feed of channelID on behalf of the session
// sessionID of userID and starts its pumps. expiry is when the caller's session
// token expires. It reports false when the Hub is shut down.
func (h *Hub) Subscribe(channelID, userID int, sessionID string, conn *websocket.Conn, expiry time.Time) bool {
	for {
		room := h.room(channelID)
		if room == nil {
			return false
		}

		c := newClient(room, conn, userID, sessionID, expiry)
		if !room.join(c) {
			// The room stopped between lookup and registration; try a fresh one.
			continue
		}

		go c.WritePump()
		go c.ReadPump()
		return true
	}
}

// room returns the running room of channelID, creating it if needed.
func (h *Hub) room(channelID int) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}

	if room, ok := h.rooms[channelID]; ok {
		select {
		case <-room.done:
		default:
			return room
		}
	}

	room := newRoom(channelID, h.members, h.sessions, h.cleanup)
	h.rooms[channelID] = room
	go room.Run()

	h.logger.Info().Int("channel_id", channelID).Msg("Room started.")
	return room
}

// Rooms reports how many rooms are running.
func (h *Hub) Rooms() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// Subscribers reports how many clients are registered on the feed of channelID.
func (h *Hub) Subscribers(channelID int) int {
	h.mu.RLock()
	room := h.rooms[channelID]
	h.mu.RUnlock()

	if room == nil {
		return 0
	}
	return int(room.subscribers.Load())
}

// Reset disconnects every subscriber. Called when the store is wiped, since
// channel and user ids are reused afterwards.
func (h *Hub) Reset() {
	for _, room := range h.stopRooms(false) {
		<-room.done
	}
	h.logger.Info().Msg("All feeds reset.")
}

// Shutdown stops every room and the cleanup loop.
func (h *Hub) Shutdown() {
	h.logger.Info().Msg("Shutting down feed hub...")

	rooms := h.stopRooms(true)
	if rooms == nil {
		return
	}
	for _, room := range rooms {
		<-room.done
	}

	close(h.cleanup)
	h.wg.Wait()

	h.logger.Info().Msg("Feed hub shutdown complete.")
}

// stopRooms detaches and stops every room. With closing set, the Hub refuses
// new subscribers afterwards; it returns nil if the Hub was already closed.
func (h *Hub) stopRooms(closing bool) []*Room {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = closing

	rooms := make([]*Room, 0, len(h.rooms))
	for id, room := range h.rooms {
		room.Stop()
		rooms = append(rooms, room)
		delete(h.rooms, id)
	}
	return rooms
}
