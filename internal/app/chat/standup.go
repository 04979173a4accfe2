package chat

import (
	"math"
	"strings"
	"time"

	"flockr/internal/pkg/errs"
	"flockr/internal/pkg/metrics"
)

// maxStandupLength is the longest window, in seconds, whose deadline is
// representable as a time.Duration.
const maxStandupLength = int(math.MaxInt64 / int64(time.Second))

// standupWindow is the per-channel standup state. It is protected by the
// channel lock.
type standupWindow struct {
	active    bool
	finish    time.Time
	initiator int

	// lines are "<handle>: <text>" entries in arrival order.
	lines []string
}

// StandupStatus reports whether a standup is running. TimeFinish is nil when
// it is not.
type StandupStatus struct {
	IsActive   bool   `json:"is_active"`
	TimeFinish *int64 `json:"time_finish"`
}

// StandupStart opens a standup window of length seconds in the channel and
// returns the instant it closes. On close, buffered lines are sent as one
// message authored by uid.
func (s *Store) StandupStart(uid, channelID, length int) (time.Time, *errs.CustomError) {
	ch, cerr := s.lockMember(uid, channelID)
	if cerr != nil {
		return time.Time{}, cerr
	}

	if length <= 0 || length > maxStandupLength {
		ch.mu.Unlock()
		return time.Time{}, errs.NewError(errs.ErrInvalidStandupLength)
	}
	if ch.standup.active {
		ch.mu.Unlock()
		return time.Time{}, errs.NewError(errs.ErrStandupActive)
	}

	finish := s.clock.Now().Add(time.Duration(length) * time.Second)
	ch.standup = standupWindow{active: true, finish: finish, initiator: uid}

	ev := s.event(EventStandupStarted, ch)
	ev.TimeFinish = finish.Unix()

	s.schedule(deferredTask{
		kind:       TaskStandupFlush,
		channelID:  ch.ID,
		generation: ch.generation,
		apply:      s.flushStandup,
	}, finish)
	ch.mu.Unlock()

	metrics.StandupsStarted.Inc()
	s.logger.Info().Int("channel_id", channelID).Int("u_id", uid).Time("finish", finish).Msg("Standup started.")

	s.publish(ev)
	return finish, nil
}

// StandupSend buffers text for the running standup, prefixed with the sender's handle.
func (s *Store) StandupSend(uid, channelID int, text string) *errs.CustomError {
	u, cerr := s.actor(uid)
	if cerr != nil {
		return cerr
	}

	ch, cerr := s.lockMember(uid, channelID)
	if cerr != nil {
		return cerr
	}
	defer ch.mu.Unlock()

	if cerr := validateText(text); cerr != nil {
		return cerr
	}
	if !ch.standup.active {
		return errs.NewError(errs.ErrStandupInactive)
	}

	ch.standup.lines = append(ch.standup.lines, u.Handle+": "+text)
	return nil
}

// StandupActive reports the standup state of the channel. Membership is not required.
func (s *Store) StandupActive(uid, channelID int) (StandupStatus, *errs.CustomError) {
	if _, cerr := s.actor(uid); cerr != nil {
		return StandupStatus{}, cerr
	}

	ch := s.channel(channelID)
	if ch == nil {
		return StandupStatus{}, errs.NewError(errs.ErrChannelNotFound)
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()

	if !ch.standup.active {
		return StandupStatus{}, nil
	}
	finish := ch.standup.finish.Unix()
	return StandupStatus{IsActive: true, TimeFinish: &finish}, nil
}

// flushStandup closes the window of ch. A non-empty buffer becomes one message
// from the initiator; the window is reset either way. ch.mu must be held.
func (s *Store) flushStandup(ch *Channel) []Event {
	w := ch.standup
	ch.standup = standupWindow{}

	events := make([]Event, 0, 2)
	if len(w.lines) > 0 {
		msg := &Message{
			ID:        s.allocMessageID(),
			SenderID:  w.initiator,
			Text:      strings.Join(w.lines, "\n"),
			CreatedAt: s.clock.Now(),
		}
		events = append(events, s.deliver(ch, msg, metrics.PathStandup))
		metrics.StandupsFlushed.Inc()
	}

	s.logger.Info().Int("channel_id", ch.ID).Int("lines", len(w.lines)).Msg("Standup finished.")

	events = append(events, s.event(EventStandupEnded, ch))
	return events
}
