package core

import "time"

// Message is the domain model for a persisted chat message. Author is the
// identity snapshot taken at send time and never changes afterwards.
type Message struct {
	ID        string
	Room      RoomID
	Author    Identity
	Body      string
	CreatedAt time.Time
	Edited    bool
}
