package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeJoinGlobal = "join_global"
	InboundTypeJoinMeetup = "join_meetup"
	InboundTypeLeaveRoom  = "leave_room"
	InboundTypeSend       = "send"
	InboundTypeEdit       = "edit"
	InboundTypeDelete     = "delete"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventNameHistory        = "history"
	EventNameMessage        = "message"
	EventNameMessageEdited  = "message_edited"
	EventNameMessageDeleted = "message_deleted"
	EventNameUserJoined     = "user_joined"
	EventNameUserLeft       = "user_left"
)

// User is the identity snapshot the gateway attaches to join intents.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// JoinGlobalData requests to join the global cafe room.
type JoinGlobalData struct {
	User User `json:"user"`
}

// JoinMeetupData requests to join a meetup's room.
type JoinMeetupData struct {
	MeetupID string `json:"meetup_id"`
	User     User   `json:"user"`
}

// LeaveRoomData requests to leave the named room. An empty meetup id means
// the global cafe room.
type LeaveRoomData struct {
	MeetupID string `json:"meetup_id,omitempty"`
}

// SendData is a chat message for the sender's current room.
type SendData struct {
	Body string `json:"body"`
}

// EditData overwrites the body of a message the sender authored.
type EditData struct {
	MessageID string `json:"message_id"`
	Body      string `json:"body"`
}

// DeleteData removes a message the sender authored.
type DeleteData struct {
	MessageID string `json:"message_id"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Room identifies a broadcast scope on the wire.
type Room struct {
	Kind     string `json:"kind"` // "global" or "meetup"
	MeetupID string `json:"meetup_id,omitempty"`
}

// Message is the wire shape of a chat message, used for live broadcasts,
// history replay, and the REST history endpoint alike.
type Message struct {
	ID     string `json:"id"`
	Room   Room   `json:"room"`
	User   User   `json:"user"`
	Body   string `json:"body"`
	TS     int64  `json:"ts"`
	Edited bool   `json:"edited,omitempty"`
}

// EventHistory delivers recent room history to a joining connection.
type EventHistory struct {
	Room     Room      `json:"room"`
	Messages []Message `json:"messages"`
}

// EventMessageEdited notifies the room about an in-place edit.
type EventMessageEdited struct {
	ID     string `json:"id"`
	Body   string `json:"body"`
	Edited bool   `json:"edited"`
	TS     int64  `json:"ts"`
}

// EventMessageDeleted notifies the room about a removal.
type EventMessageDeleted struct {
	ID string `json:"id"`
}

// EventPresence announces a join or leave to the rest of the room.
type EventPresence struct {
	Text string `json:"text"`
	TS   int64  `json:"ts"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
