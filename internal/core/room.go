package core

// RoomKind discriminates the two broadcast scopes the service knows about.
type RoomKind int

const (
	// RoomGlobal is the single well-known cafe room.
	RoomGlobal RoomKind = iota
	// RoomMeetup is the per-meetup room scope.
	RoomMeetup
)

// RoomID is a tagged room identifier. Using a tag instead of string
// concatenation keeps meetup rooms from ever colliding with the global room
// or with each other, and makes room-kind dispatch exhaustive.
type RoomID struct {
	kind   RoomKind
	meetup string
}

// GlobalRoom returns the identifier of the global cafe room.
func GlobalRoom() RoomID {
	return RoomID{kind: RoomGlobal}
}

// MeetupRoom returns the room identifier for a meetup.
func MeetupRoom(meetupID string) RoomID {
	return RoomID{kind: RoomMeetup, meetup: meetupID}
}

// Kind reports which scope this room belongs to.
func (r RoomID) Kind() RoomKind {
	return r.kind
}

// MeetupID returns the meetup identifier, or "" for the global room.
func (r RoomID) MeetupID() string {
	return r.meetup
}

// String renders the room for logs and diagnostics.
func (r RoomID) String() string {
	if r.kind == RoomMeetup {
		return "meetup:" + r.meetup
	}
	return "global-cafe"
}
