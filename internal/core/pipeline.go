package core

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/unalone/chat-service/internal/store"
)

// MaxBodyLen is the maximum message body length in Unicode code points.
const MaxBodyLen = 1000

// DefaultHistoryLimit is the history page size used when none is configured.
const DefaultHistoryLimit = 50

// Pipeline validates, persists, and prepares chat mutations for broadcast.
// It runs on the per-connection worker goroutines so store I/O never blocks
// the hub loop; ownership checks live here, not in the store.
type Pipeline struct {
	store        store.MessageStore
	historyLimit int
	log          *zerolog.Logger
}

// NewPipeline constructs a pipeline over the given message store.
func NewPipeline(st store.MessageStore, historyLimit int, logger *zerolog.Logger) *Pipeline {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Pipeline{store: st, historyLimit: historyLimit, log: logger}
}

// Send validates and persists a new message authored by the session identity.
// The returned message carries the store-assigned id and timestamp and is
// ready for broadcast to the whole room, sender included.
func (p *Pipeline) Send(ctx context.Context, room RoomID, author Identity, body string) (*Message, *CoreError) {
	body = strings.TrimSpace(body)
	if cerr := validateBody(body); cerr != nil {
		return nil, cerr
	}

	key, kind := storeRoom(room)
	rec := &store.Message{
		RoomKey:      key,
		RoomKind:     kind,
		AuthorID:     author.ID,
		AuthorName:   author.DisplayName,
		AuthorAvatar: author.AvatarURL,
		Body:         body,
	}
	if err := p.store.SaveMessage(ctx, rec); err != nil {
		p.log.Error().Err(err).Stringer("room", room).Msg("save message")
		return nil, coreError(ErrCodePersistence, "failed to send message")
	}

	msg := messageFromStore(rec)
	return &msg, nil
}

// Edit overwrites the body of a message the actor authored and marks it
// edited. The message's author never changes.
func (p *Pipeline) Edit(ctx context.Context, actor Identity, messageID, body string) (*Message, *CoreError) {
	// Lookup and ownership come first; a non-author probing with a bad body
	// learns nothing beyond what the ownership check already reveals.
	rec, cerr := p.lookup(ctx, messageID)
	if cerr != nil {
		return nil, cerr
	}
	if rec.AuthorID != actor.ID {
		return nil, coreError(ErrCodeUnauthorized, "unauthorized action")
	}

	body = strings.TrimSpace(body)
	if cerr := validateBody(body); cerr != nil {
		return nil, cerr
	}

	if err := p.store.UpdateMessageBody(ctx, messageID, body); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, coreError(ErrCodeNotFound, "message not found")
		}
		p.log.Error().Err(err).Str("message_id", messageID).Msg("update message")
		return nil, coreError(ErrCodePersistence, "failed to edit message")
	}

	rec.Body = body
	rec.Edited = true
	msg := messageFromStore(rec)
	return &msg, nil
}

// Delete removes a message the actor authored. The deleted message is
// returned so the caller knows which room to notify; no tombstone remains.
func (p *Pipeline) Delete(ctx context.Context, actor Identity, messageID string) (*Message, *CoreError) {
	rec, cerr := p.lookup(ctx, messageID)
	if cerr != nil {
		return nil, cerr
	}
	if rec.AuthorID != actor.ID {
		return nil, coreError(ErrCodeUnauthorized, "unauthorized action")
	}

	if err := p.store.DeleteMessage(ctx, messageID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, coreError(ErrCodeNotFound, "message not found")
		}
		p.log.Error().Err(err).Str("message_id", messageID).Msg("delete message")
		return nil, coreError(ErrCodePersistence, "failed to delete message")
	}

	msg := messageFromStore(rec)
	return &msg, nil
}

// History returns one page of a room's backlog in chronological order, plus
// a flag indicating whether older pages remain. Page numbering starts at 1.
func (p *Pipeline) History(ctx context.Context, room RoomID, page, limit int) ([]Message, bool, error) {
	if limit <= 0 {
		limit = p.historyLimit
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	key, kind := storeRoom(room)
	recs, err := p.store.ListMessages(ctx, key, kind, limit, offset)
	if err != nil {
		return nil, false, err
	}

	// The store returns newest first; present oldest first.
	messages := make([]Message, 0, len(recs))
	for i := len(recs) - 1; i >= 0; i-- {
		messages = append(messages, messageFromStore(recs[i]))
	}
	return messages, len(recs) == limit, nil
}

// HistoryLimit reports the configured default page size.
func (p *Pipeline) HistoryLimit() int {
	return p.historyLimit
}

func (p *Pipeline) lookup(ctx context.Context, messageID string) (*store.Message, *CoreError) {
	rec, err := p.store.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, coreError(ErrCodeNotFound, "message not found")
		}
		p.log.Error().Err(err).Str("message_id", messageID).Msg("lookup message")
		return nil, coreError(ErrCodePersistence, "store unavailable")
	}
	return rec, nil
}

func validateBody(body string) *CoreError {
	if body == "" {
		return coreError(ErrCodeValidation, "message body is empty")
	}
	if utf8.RuneCountInString(body) > MaxBodyLen {
		return coreError(ErrCodeValidation, "message too long")
	}
	return nil
}

func storeRoom(room RoomID) (string, store.RoomKind) {
	if room.Kind() == RoomMeetup {
		return room.MeetupID(), store.RoomKindMeetup
	}
	return store.GlobalRoomKey, store.RoomKindGlobal
}

func roomFromStore(key string, kind store.RoomKind) RoomID {
	if kind == store.RoomKindMeetup {
		return MeetupRoom(key)
	}
	return GlobalRoom()
}

func messageFromStore(rec *store.Message) Message {
	return Message{
		ID:   rec.ID,
		Room: roomFromStore(rec.RoomKey, rec.RoomKind),
		Author: Identity{
			ID:          rec.AuthorID,
			DisplayName: rec.AuthorName,
			AvatarURL:   rec.AuthorAvatar,
		},
		Body:      rec.Body,
		CreatedAt: rec.CreatedAt,
		Edited:    rec.Edited,
	}
}
