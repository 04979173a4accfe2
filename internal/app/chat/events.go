package chat

// EventType names a committed change to a channel.
type EventType string

const (
	EventMessageCreated EventType = "MESSAGE_CREATED"
	EventMessageEdited  EventType = "MESSAGE_EDITED"
	EventMessageRemoved EventType = "MESSAGE_REMOVED"
	EventReactChanged   EventType = "REACT_CHANGED"
	EventPinChanged     EventType = "PIN_CHANGED"
	EventStandupStarted EventType = "STANDUP_STARTED"
	EventStandupEnded   EventType = "STANDUP_ENDED"
)

// Event is what live subscribers of a channel receive.
type Event struct {
	Type      EventType `json:"type"`
	ChannelID int       `json:"channel_id"`

	// Seq increases by one with every event of the channel. Publishing
	// happens outside the channel lock, so subscribers may see events of
	// concurrent commits out of order and should reorder by Seq.
	Seq uint64 `json:"seq"`

	// Message is set for create, edit, react and pin events. Its
	// is_this_user_reacted flags are always false.
	Message *MessageView `json:"message,omitempty"`

	// MessageIDs lists removed messages.
	MessageIDs []int `json:"message_ids,omitempty"`

	// TimeFinish is the standup deadline for STANDUP_STARTED.
	TimeFinish int64 `json:"time_finish,omitempty"`

	Timestamp int64 `json:"timestamp"`
}

// Publisher receives events after the channel lock is released, so calls
// for one channel are not guaranteed to arrive in Seq order.
// Implementations must not block.
type Publisher interface {
	Publish(ev Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(Event) {}
