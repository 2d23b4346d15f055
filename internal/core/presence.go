package core

import (
	"fmt"
	"time"
)

// Presence events are transient system notifications. They are broadcast to a
// room excluding the actor and never written to the message store.

func presenceJoined(room RoomID, who Identity) *Event {
	var text string
	switch room.Kind() {
	case RoomMeetup:
		text = fmt.Sprintf("%s has joined the chat.", who.DisplayName)
	default:
		text = fmt.Sprintf("%s has entered the cafe.", who.DisplayName)
	}
	return &Event{Kind: EventPresenceJoined, Room: room, Text: text, At: time.Now()}
}

func presenceLeft(room RoomID, who Identity) *Event {
	var text string
	switch room.Kind() {
	case RoomMeetup:
		text = fmt.Sprintf("%s has left the chat.", who.DisplayName)
	default:
		text = fmt.Sprintf("%s has left the cafe.", who.DisplayName)
	}
	return &Event{Kind: EventPresenceLeft, Room: room, Text: text, At: time.Now()}
}
