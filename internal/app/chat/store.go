/*
Package chat contains the in-memory channel and message engine.

This file defines the Store, which owns every channel, the global message id
counter and the message index, and runs deferred deliveries through its
Scheduler. Every operation takes a resolved user id and returns either a result
or exactly one *errs.CustomError of kind AccessError or InputError.
*/
package chat

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"flockr/internal/app/user"
	"flockr/internal/pkg/errs"
	"flockr/internal/pkg/logx"
	"flockr/internal/pkg/metrics"
)

const (
	// MaxChannelNameLen is the longest allowed channel name, in characters.
	MaxChannelNameLen = 20

	// MaxMessageLen is the longest allowed message body, in characters.
	MaxMessageLen = 1000

	// PageSize is the number of messages returned by one Paginate call.
	PageSize = 50
)

// Users is the identity directory the Store consults for roles and handles.
type Users interface {
	Get(id int) (user.User, bool)
	Reset()
}

// Store is the channel registry and the owner of all channel state.
//
// Lock order: a Channel's mu may be held while taking Store.mu, never the
// other way around.
type Store struct {
	// mu protects channels, msgIndex, nextMessageID and generation.
	mu sync.RWMutex

	// channels is indexed by channel id.
	channels []*Channel

	// msgIndex maps a delivered message id to its channel id.
	msgIndex map[int]int

	nextMessageID int

	// generation is bumped by Reset; tasks from older generations are dropped.
	generation uint64

	users     Users
	clock     clockwork.Clock
	scheduler *Scheduler
	publisher Publisher

	logger zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the wall clock, typically with a clockwork fake clock.
func WithClock(c clockwork.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithPublisher sets the receiver of channel events.
func WithPublisher(p Publisher) Option {
	return func(s *Store) { s.publisher = p }
}

// NewStore constructs an empty Store backed by users.
func NewStore(users Users, opts ...Option) *Store {
	s := &Store{
		msgIndex:  make(map[int]int),
		users:     users,
		clock:     clockwork.NewRealClock(),
		publisher: nopPublisher{},
		logger:    logx.Component("Store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.scheduler = NewScheduler(s.clock)
	return s
}

// Close stops the scheduler. Pending deliveries are discarded.
func (s *Store) Close() {
	s.scheduler.Stop()
}

// Reset wipes every user, channel and message and sets the message id counter
// back to zero. Deferred tasks still pending are dropped when they fire.
func (s *Store) Reset() {
	s.mu.Lock()
	s.channels = nil
	s.msgIndex = make(map[int]int)
	s.nextMessageID = 0
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	s.users.Reset()

	s.logger.Info().Uint64("generation", gen).Int("pending_tasks", s.scheduler.Pending()).Msg("Store reset.")
}

// actor resolves the calling user. An unknown id is an AccessError.
func (s *Store) actor(uid int) (user.User, *errs.CustomError) {
	u, ok := s.users.Get(uid)
	if !ok {
		return user.User{}, errs.NewError(errs.ErrUnauthorized)
	}
	return u, nil
}

func (s *Store) channel(id int) *Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.channelLocked(id)
}

func (s *Store) channelLocked(id int) *Channel {
	if id < 0 || id >= len(s.channels) {
		return nil
	}
	return s.channels[id]
}

// allocMessageID hands out the next global message id.
func (s *Store) allocMessageID() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextMessageID
	s.nextMessageID++
	return id
}

// indexMessage records a delivered message. Channels orphaned by Reset are skipped.
func (s *Store) indexMessage(ch *Channel, msgID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch.generation == s.generation {
		s.msgIndex[msgID] = ch.ID
	}
}

func (s *Store) unindexMessages(ch *Channel, ids ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch.generation != s.generation {
		return
	}
	for _, id := range ids {
		delete(s.msgIndex, id)
	}
}

// lockMessage finds the channel holding msgID and returns it locked together
// with the message. The caller must unlock ch.mu when err is nil.
func (s *Store) lockMessage(msgID int) (*Channel, *Message, *errs.CustomError) {
	s.mu.RLock()
	chID, ok := s.msgIndex[msgID]
	var ch *Channel
	if ok {
		ch = s.channelLocked(chID)
	}
	s.mu.RUnlock()

	if ch == nil {
		return nil, nil, errs.NewError(errs.ErrMessageNotFound)
	}

	ch.mu.Lock()
	msg := ch.findMessage(msgID)
	if msg == nil {
		ch.mu.Unlock()
		return nil, nil, errs.NewError(errs.ErrMessageNotFound)
	}
	return ch, msg, nil
}

// schedule arms t to run at the given instant.
func (s *Store) schedule(t deferredTask, at time.Time) {
	s.scheduler.After(at.Sub(s.clock.Now()), t.kind, func() { s.runDeferred(t) })
}

// runDeferred applies t to its channel. Tasks whose channel is gone, or that
// were created before a Reset, are dropped without surfacing an error.
func (s *Store) runDeferred(t deferredTask) {
	s.mu.RLock()
	current := s.generation
	ch := s.channelLocked(t.channelID)
	s.mu.RUnlock()

	if t.generation != current || ch == nil || ch.generation != t.generation {
		metrics.DeferredDropped.Inc()
		s.logger.Warn().
			Str("task", t.kind).
			Int("channel_id", t.channelID).
			Uint64("task_generation", t.generation).
			Uint64("store_generation", current).
			Msg("Deferred task target no longer exists. Dropped.")
		return
	}

	ch.mu.Lock()
	events := t.apply(ch)
	ch.mu.Unlock()

	s.publish(events...)
}

func (s *Store) publish(events ...Event) {
	for _, ev := range events {
		s.publisher.Publish(ev)
	}
}

// ChannelSummary is the list view of a channel.
type ChannelSummary struct {
	ID   int    `json:"channel_id"`
	Name string `json:"name"`
}

// CreateChannel creates a channel whose sole member and owner is uid.
func (s *Store) CreateChannel(uid int, name string, isPublic bool) (int, *errs.CustomError) {
	if _, cerr := s.actor(uid); cerr != nil {
		return 0, cerr
	}

	n := utf8.RuneCountInString(name)
	if n < 1 || n > MaxChannelNameLen || strings.TrimSpace(name) == "" {
		return 0, errs.NewError(errs.ErrInvalidChannelName)
	}

	s.mu.Lock()
	id := len(s.channels)
	s.channels = append(s.channels, newChannel(id, name, isPublic, uid, s.generation))
	s.mu.Unlock()

	s.logger.Info().Int("channel_id", id).Str("name", name).Bool("is_public", isPublic).Int("u_id", uid).Msg("Channel created.")
	return id, nil
}

// ListChannels returns the channels uid is a member of, by id.
func (s *Store) ListChannels(uid int) ([]ChannelSummary, *errs.CustomError) {
	if _, cerr := s.actor(uid); cerr != nil {
		return nil, cerr
	}

	out := []ChannelSummary{}
	for _, ch := range s.snapshot() {
		ch.mu.Lock()
		if ch.members.has(uid) {
			out = append(out, ChannelSummary{ID: ch.ID, Name: ch.Name})
		}
		ch.mu.Unlock()
	}
	return out, nil
}

// ListAllChannels returns every channel, public or private, by id.
func (s *Store) ListAllChannels(uid int) ([]ChannelSummary, *errs.CustomError) {
	if _, cerr := s.actor(uid); cerr != nil {
		return nil, cerr
	}

	channels := s.snapshot()
	out := make([]ChannelSummary, 0, len(channels))
	for _, ch := range channels {
		out = append(out, ChannelSummary{ID: ch.ID, Name: ch.Name})
	}
	return out, nil
}

func (s *Store) snapshot() []*Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Channel, len(s.channels))
	copy(out, s.channels)
	return out
}

// IsMember reports whether uid currently belongs to channelID.
func (s *Store) IsMember(uid, channelID int) bool {
	ch := s.channel(channelID)
	if ch == nil {
		return false
	}
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.members.has(uid)
}

// PendingDeliveries reports how many deferred tasks have not fired yet.
func (s *Store) PendingDeliveries() int {
	return s.scheduler.Pending()
}

func validateText(text string) *errs.CustomError {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return errs.NewError(errs.ErrMessageEmpty)
	}
	if n > MaxMessageLen {
		return errs.NewError(errs.ErrMessageContentTooLong)
	}
	return nil
}
