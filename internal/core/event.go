package core

import "time"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventHistory delivers recent room history to a joining connection only.
	EventHistory EventKind = iota
	// EventMessageCreated notifies the whole room, sender included.
	EventMessageCreated
	// EventMessageEdited notifies the whole room about an in-place edit.
	EventMessageEdited
	// EventMessageDeleted notifies the whole room about a removal.
	EventMessageDeleted
	// EventPresenceJoined announces a join to the room, excluding the joiner.
	EventPresenceJoined
	// EventPresenceLeft announces a leave to the room, excluding the leaver.
	EventPresenceLeft
	// EventError reports a failure to the originating connection only.
	EventError
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind     EventKind
	Room     RoomID
	Message  *Message  // EventMessageCreated
	Messages []Message // EventHistory, chronological order
	MsgID    string    // EventMessageEdited, EventMessageDeleted
	Body     string    // EventMessageEdited
	Edited   bool      // EventMessageEdited
	Text     string    // presence events
	At       time.Time // presence events and edits
	Error    *CoreError
}

func errorEvent(err *CoreError) *Event {
	return &Event{Kind: EventError, Error: err}
}
