package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a message id does not exist in the store.
var ErrNotFound = errors.New("message not found")

// RoomKind distinguishes the global cafe room from per-meetup rooms.
type RoomKind string

const (
	RoomKindGlobal RoomKind = "global"
	RoomKindMeetup RoomKind = "meetup"
)

// GlobalRoomKey is the fixed storage key for the global cafe room.
const GlobalRoomKey = "global-cafe"

// Message is a persisted chat message. The author fields are a denormalized
// snapshot taken at send time; a later profile change never rewrites history.
type Message struct {
	ID           string
	RoomKey      string
	RoomKind     RoomKind
	AuthorID     string
	AuthorName   string
	AuthorAvatar string
	Body         string
	CreatedAt    time.Time
	Edited       bool
}

// MessageStore handles message persistence.
type MessageStore interface {
	// SaveMessage persists a new message. The store assigns ID and CreatedAt.
	SaveMessage(ctx context.Context, msg *Message) error

	// GetMessage retrieves a message by id. Returns ErrNotFound if absent.
	GetMessage(ctx context.Context, id string) (*Message, error)

	// UpdateMessageBody overwrites the body of an existing message and marks
	// it edited. Returns ErrNotFound if absent.
	UpdateMessageBody(ctx context.Context, id, body string) error

	// DeleteMessage removes a message. Returns ErrNotFound if absent.
	DeleteMessage(ctx context.Context, id string) error

	// ListMessages retrieves up to limit messages for a room, newest first,
	// skipping offset rows. Callers reverse the page for chronological display.
	ListMessages(ctx context.Context, roomKey string, kind RoomKind, limit, offset int) ([]*Message, error)
}

// Store is the full persistence surface the application wires together.
type Store interface {
	MessageStore

	// Close releases underlying resources.
	Close() error
}
