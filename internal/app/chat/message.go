/*
Package chat contains the in-memory channel and message engine.

This file defines the Message and Reaction records and the message operations:
send, scheduled send, edit, remove, reactions, pins, pagination and prune.
*/
package chat

import (
	"time"

	"flockr/internal/pkg/errs"
	"flockr/internal/pkg/metrics"
)

// ReactThumbsUp is the only supported reaction kind.
const ReactThumbsUp = 1

// Message is one entry of a channel log.
type Message struct {
	ID        int
	SenderID  int
	Text      string
	CreatedAt time.Time
	Pinned    bool

	// Reacts holds at most one entry per kind, created on first react.
	Reacts []*Reaction
}

// Reaction is a reaction kind and the users who reacted with it, in reaction order.
type Reaction struct {
	ID    int
	Users idSet
}

// MessageView is the read model of a message as seen by one user.
type MessageView struct {
	MessageID   int         `json:"message_id"`
	UserID      int         `json:"u_id"`
	Message     string      `json:"message"`
	TimeCreated int64       `json:"time_created"`
	Reacts      []ReactView `json:"reacts"`
	IsPinned    bool        `json:"is_pinned"`
}

// ReactView is one reaction kind inside a MessageView.
type ReactView struct {
	ReactID           int   `json:"react_id"`
	UserIDs           []int `json:"u_ids"`
	IsThisUserReacted bool  `json:"is_this_user_reacted"`
}

// Page is one Paginate result. End is -1 when the page reaches the oldest message.
type Page struct {
	Messages []MessageView `json:"messages"`
	Start    int           `json:"start"`
	End      int           `json:"end"`
}

// view renders m for viewer; a negative viewer sees no own reactions.
func (m *Message) view(viewer int) MessageView {
	reacts := make([]ReactView, 0, len(m.Reacts))
	for _, r := range m.Reacts {
		reacts = append(reacts, ReactView{
			ReactID:           r.ID,
			UserIDs:           r.Users.list(),
			IsThisUserReacted: viewer >= 0 && r.Users.has(viewer),
		})
	}

	return MessageView{
		MessageID:   m.ID,
		UserID:      m.SenderID,
		Message:     m.Text,
		TimeCreated: m.CreatedAt.Unix(),
		Reacts:      reacts,
		IsPinned:    m.Pinned,
	}
}

func (m *Message) reaction(kind int) *Reaction {
	for _, r := range m.Reacts {
		if r.ID == kind {
			return r
		}
	}
	return nil
}

func (ch *Channel) findMessage(id int) *Message {
	for i := len(ch.messages) - 1; i >= 0; i-- {
		if ch.messages[i].ID == id {
			return ch.messages[i]
		}
	}
	return nil
}

func (ch *Channel) removeMessage(id int) bool {
	for i, m := range ch.messages {
		if m.ID == id {
			ch.messages = append(ch.messages[:i], ch.messages[i+1:]...)
			return true
		}
	}
	return false
}

// deliver appends msg to ch and indexes it. ch.mu must be held.
func (s *Store) deliver(ch *Channel, msg *Message, path string) Event {
	ch.messages = append(ch.messages, msg)
	s.indexMessage(ch, msg.ID)
	metrics.MessagesCreated.WithLabelValues(path).Inc()

	return s.messageEvent(EventMessageCreated, ch, msg)
}

func (s *Store) messageEvent(t EventType, ch *Channel, msg *Message) Event {
	v := msg.view(-1)
	ev := s.event(t, ch)
	ev.Message = &v
	return ev
}

// event stamps a new event of ch with the next sequence number. ch.mu must be held.
func (s *Store) event(t EventType, ch *Channel) Event {
	ch.seq++
	return Event{Type: t, ChannelID: ch.ID, Seq: ch.seq, Timestamp: s.clock.Now().Unix()}
}

// lockMember resolves the caller and returns the channel locked, provided the
// caller is a member. The caller must unlock ch.mu when err is nil.
func (s *Store) lockMember(uid, channelID int) (*Channel, *errs.CustomError) {
	if _, cerr := s.actor(uid); cerr != nil {
		return nil, cerr
	}

	ch := s.channel(channelID)
	if ch == nil {
		return nil, errs.NewError(errs.ErrChannelNotFound)
	}

	ch.mu.Lock()
	if !ch.members.has(uid) {
		ch.mu.Unlock()
		return nil, errs.NewError(errs.ErrNotMember)
	}
	return ch, nil
}

// Send appends a message to the channel and returns its id.
func (s *Store) Send(uid, channelID int, text string) (int, *errs.CustomError) {
	ch, cerr := s.lockMember(uid, channelID)
	if cerr != nil {
		return 0, cerr
	}

	if cerr := validateText(text); cerr != nil {
		ch.mu.Unlock()
		return 0, cerr
	}

	msg := &Message{
		ID:        s.allocMessageID(),
		SenderID:  uid,
		Text:      text,
		CreatedAt: s.clock.Now(),
	}
	ev := s.deliver(ch, msg, metrics.PathSend)
	ch.mu.Unlock()

	s.publish(ev)
	return msg.ID, nil
}

// SendLater reserves a message id now and appends the message at the given
// instant. Delivery happens even if the sender has left the channel by then.
func (s *Store) SendLater(uid, channelID int, text string, at time.Time) (int, *errs.CustomError) {
	ch, cerr := s.lockMember(uid, channelID)
	if cerr != nil {
		return 0, cerr
	}
	defer ch.mu.Unlock()

	if cerr := validateText(text); cerr != nil {
		return 0, cerr
	}
	if at.Unix() < s.clock.Now().Unix() {
		return 0, errs.NewError(errs.ErrSendTimeInPast)
	}

	msg := &Message{
		ID:        s.allocMessageID(),
		SenderID:  uid,
		Text:      text,
		CreatedAt: at,
	}

	s.schedule(deferredTask{
		kind:       TaskSendLater,
		channelID:  ch.ID,
		generation: ch.generation,
		apply: func(ch *Channel) []Event {
			s.logger.Info().Int("channel_id", ch.ID).Int("message_id", msg.ID).Msg("Scheduled message delivered.")
			return []Event{s.deliver(ch, msg, metrics.PathLater)}
		},
	}, at)

	s.logger.Info().Int("channel_id", ch.ID).Int("message_id", msg.ID).Time("at", at).Msg("Message scheduled.")
	return msg.ID, nil
}

// canEdit reports whether uid may edit or remove msg in ch: the sender, a
// channel owner or a global admin.
func (s *Store) canEdit(ch *Channel, msg *Message, uid int, admin bool) bool {
	return msg.SenderID == uid || ch.owners.has(uid) || admin
}

// Remove deletes a message. Its id is never handed out again.
func (s *Store) Remove(uid, msgID int) *errs.CustomError {
	u, cerr := s.actor(uid)
	if cerr != nil {
		return cerr
	}

	ch, msg, cerr := s.lockMessage(msgID)
	if cerr != nil {
		return cerr
	}

	if !s.canEdit(ch, msg, uid, u.IsGlobalAdmin()) {
		ch.mu.Unlock()
		return errs.NewError(errs.ErrNotMessageEditor)
	}

	ev := s.removeLocked(ch, msg.ID)
	ch.mu.Unlock()

	s.publish(ev)
	return nil
}

func (s *Store) removeLocked(ch *Channel, ids ...int) Event {
	for _, id := range ids {
		ch.removeMessage(id)
	}
	s.unindexMessages(ch, ids...)
	metrics.MessagesRemoved.Add(float64(len(ids)))

	ev := s.event(EventMessageRemoved, ch)
	ev.MessageIDs = ids
	return ev
}

// Edit replaces the body of a message. Empty text removes the message.
func (s *Store) Edit(uid, msgID int, text string) *errs.CustomError {
	u, cerr := s.actor(uid)
	if cerr != nil {
		return cerr
	}

	ch, msg, cerr := s.lockMessage(msgID)
	if cerr != nil {
		return cerr
	}

	if !s.canEdit(ch, msg, uid, u.IsGlobalAdmin()) {
		ch.mu.Unlock()
		return errs.NewError(errs.ErrNotMessageEditor)
	}

	var ev Event
	if text == "" {
		ev = s.removeLocked(ch, msg.ID)
	} else {
		if cerr := validateText(text); cerr != nil {
			ch.mu.Unlock()
			return cerr
		}
		msg.Text = text
		ev = s.messageEvent(EventMessageEdited, ch, msg)
	}
	ch.mu.Unlock()

	s.publish(ev)
	return nil
}

// React adds uid to the reactors of kind on the message. Reacting twice is a no-op.
func (s *Store) React(uid, msgID, kind int) *errs.CustomError {
	if _, cerr := s.actor(uid); cerr != nil {
		return cerr
	}

	ch, msg, cerr := s.lockMessage(msgID)
	if cerr != nil {
		return cerr
	}

	if kind != ReactThumbsUp {
		ch.mu.Unlock()
		return errs.NewError(errs.ErrInvalidReact)
	}

	r := msg.reaction(kind)
	if r == nil {
		r = &Reaction{ID: kind, Users: newIDSet()}
		msg.Reacts = append(msg.Reacts, r)
	}
	if !r.Users.add(uid) {
		ch.mu.Unlock()
		return nil
	}

	ev := s.messageEvent(EventReactChanged, ch, msg)
	ch.mu.Unlock()

	s.publish(ev)
	return nil
}

// Unreact withdraws uid's reaction of kind from the message.
func (s *Store) Unreact(uid, msgID, kind int) *errs.CustomError {
	if _, cerr := s.actor(uid); cerr != nil {
		return cerr
	}

	ch, msg, cerr := s.lockMessage(msgID)
	if cerr != nil {
		return cerr
	}

	if kind != ReactThumbsUp {
		ch.mu.Unlock()
		return errs.NewError(errs.ErrInvalidReact)
	}

	r := msg.reaction(kind)
	if r == nil || r.Users.len() == 0 || !r.Users.remove(uid) {
		ch.mu.Unlock()
		return errs.NewError(errs.ErrNotReacted)
	}

	ev := s.messageEvent(EventReactChanged, ch, msg)
	ch.mu.Unlock()

	s.publish(ev)
	return nil
}

// Pin marks a message as pinned.
func (s *Store) Pin(uid, msgID int) *errs.CustomError {
	return s.setPinned(uid, msgID, true)
}

// Unpin clears the pinned flag of a message.
func (s *Store) Unpin(uid, msgID int) *errs.CustomError {
	return s.setPinned(uid, msgID, false)
}

func (s *Store) setPinned(uid, msgID int, pinned bool) *errs.CustomError {
	u, cerr := s.actor(uid)
	if cerr != nil {
		return cerr
	}

	ch, msg, cerr := s.lockMessage(msgID)
	if cerr != nil {
		return cerr
	}

	if !ch.members.has(uid) {
		ch.mu.Unlock()
		return errs.NewError(errs.ErrNotMember)
	}
	if !ch.canManage(u) {
		ch.mu.Unlock()
		return errs.NewError(errs.ErrNotOwner)
	}

	if msg.Pinned == pinned {
		ch.mu.Unlock()
		if pinned {
			return errs.NewError(errs.ErrAlreadyPinned)
		}
		return errs.NewError(errs.ErrNotPinned)
	}

	msg.Pinned = pinned
	ev := s.messageEvent(EventPinChanged, ch, msg)
	ch.mu.Unlock()

	s.publish(ev)
	return nil
}

// Paginate returns up to PageSize messages, most recent first, skipping the
// start most recent ones. start may equal the message count, which yields an
// empty last page.
func (s *Store) Paginate(uid, channelID, start int) (Page, *errs.CustomError) {
	ch, cerr := s.lockMember(uid, channelID)
	if cerr != nil {
		return Page{}, cerr
	}
	defer ch.mu.Unlock()

	total := len(ch.messages)
	if start < 0 || start > total {
		return Page{}, errs.NewError(errs.ErrInvalidStart)
	}

	stop := start + PageSize
	if stop > total {
		stop = total
	}

	views := make([]MessageView, 0, stop-start)
	for i := start; i < stop; i++ {
		views = append(views, ch.messages[total-1-i].view(uid))
	}

	end := start + PageSize
	if stop == total {
		end = -1
	}

	return Page{Messages: views, Start: start, End: end}, nil
}

// Prune removes the n most recent messages of the channel and returns their ids.
func (s *Store) Prune(uid, channelID, n int) ([]int, *errs.CustomError) {
	u, cerr := s.actor(uid)
	if cerr != nil {
		return nil, cerr
	}

	ch := s.channel(channelID)
	if ch == nil {
		return nil, errs.NewError(errs.ErrChannelNotFound)
	}

	ch.mu.Lock()

	if !ch.members.has(uid) {
		ch.mu.Unlock()
		return nil, errs.NewError(errs.ErrNotMember)
	}
	if !ch.canManage(u) {
		ch.mu.Unlock()
		return nil, errs.NewError(errs.ErrNotOwner)
	}

	total := len(ch.messages)
	if n < 1 || n > total {
		ch.mu.Unlock()
		return nil, errs.NewError(errs.ErrInvalidPruneCount, total)
	}

	ids := make([]int, 0, n)
	for i := total - 1; i >= total-n; i-- {
		ids = append(ids, ch.messages[i].ID)
	}
	ev := s.removeLocked(ch, ids...)
	ch.mu.Unlock()

	s.logger.Info().Int("channel_id", channelID).Int("u_id", uid).Int("count", n).Msg("Channel pruned.")
	s.publish(ev)
	return ids, nil
}
