package backplane

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/unalone/chat-service/internal/core"
)

const (
	kindMessage        = "message"
	kindMessageEdited  = "message_edited"
	kindMessageDeleted = "message_deleted"
	kindUserJoined     = "user_joined"
	kindUserLeft       = "user_left"
)

type roomRef struct {
	Kind     string `json:"kind"`
	MeetupID string `json:"meetup_id,omitempty"`
}

type messageRef struct {
	ID           string `json:"id"`
	AuthorID     string `json:"author_id"`
	AuthorName   string `json:"author_name"`
	AuthorAvatar string `json:"author_avatar,omitempty"`
	Body         string `json:"body"`
	CreatedAt    int64  `json:"created_at"`
	Edited       bool   `json:"edited,omitempty"`
}

// envelope is the wire format between processes. Origin identifies the
// publishing process so subscribers can drop their own echoes.
type envelope struct {
	Origin  string      `json:"origin"`
	Kind    string      `json:"kind"`
	Room    roomRef     `json:"room"`
	Message *messageRef `json:"message,omitempty"`
	MsgID   string      `json:"msg_id,omitempty"`
	Body    string      `json:"body,omitempty"`
	Edited  bool        `json:"edited,omitempty"`
	Text    string      `json:"text,omitempty"`
	At      int64       `json:"at,omitempty"`
}

// encodeEvent serializes a broadcastable event. Connection-scoped kinds
// return ok=false and are not relayed.
func encodeEvent(origin string, room core.RoomID, ev *core.Event) ([]byte, bool, error) {
	env := envelope{Origin: origin, Room: roomToRef(room)}

	switch ev.Kind {
	case core.EventMessageCreated:
		if ev.Message == nil {
			return nil, false, fmt.Errorf("message event without message")
		}
		env.Kind = kindMessage
		env.Message = &messageRef{
			ID:           ev.Message.ID,
			AuthorID:     ev.Message.Author.ID,
			AuthorName:   ev.Message.Author.DisplayName,
			AuthorAvatar: ev.Message.Author.AvatarURL,
			Body:         ev.Message.Body,
			CreatedAt:    ev.Message.CreatedAt.UnixMilli(),
			Edited:       ev.Message.Edited,
		}
	case core.EventMessageEdited:
		env.Kind = kindMessageEdited
		env.MsgID = ev.MsgID
		env.Body = ev.Body
		env.Edited = ev.Edited
		env.At = ev.At.UnixMilli()
	case core.EventMessageDeleted:
		env.Kind = kindMessageDeleted
		env.MsgID = ev.MsgID
	case core.EventPresenceJoined:
		env.Kind = kindUserJoined
		env.Text = ev.Text
		env.At = ev.At.UnixMilli()
	case core.EventPresenceLeft:
		env.Kind = kindUserLeft
		env.Text = ev.Text
		env.At = ev.At.UnixMilli()
	default:
		return nil, false, nil
	}

	data, err := json.Marshal(env)
	if err != nil {
		return nil, false, fmt.Errorf("marshal envelope: %w", err)
	}
	return data, true, nil
}

func decodeEvent(data []byte) (*core.Event, string, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, "", fmt.Errorf("unmarshal envelope: %w", err)
	}

	room := refToRoom(env.Room)
	ev := &core.Event{Room: room}

	switch env.Kind {
	case kindMessage:
		if env.Message == nil {
			return nil, "", fmt.Errorf("message envelope without message")
		}
		ev.Kind = core.EventMessageCreated
		ev.Message = &core.Message{
			ID:   env.Message.ID,
			Room: room,
			Author: core.Identity{
				ID:          env.Message.AuthorID,
				DisplayName: env.Message.AuthorName,
				AvatarURL:   env.Message.AuthorAvatar,
			},
			Body:      env.Message.Body,
			CreatedAt: time.UnixMilli(env.Message.CreatedAt),
			Edited:    env.Message.Edited,
		}
	case kindMessageEdited:
		ev.Kind = core.EventMessageEdited
		ev.MsgID = env.MsgID
		ev.Body = env.Body
		ev.Edited = env.Edited
		ev.At = time.UnixMilli(env.At)
	case kindMessageDeleted:
		ev.Kind = core.EventMessageDeleted
		ev.MsgID = env.MsgID
	case kindUserJoined:
		ev.Kind = core.EventPresenceJoined
		ev.Text = env.Text
		ev.At = time.UnixMilli(env.At)
	case kindUserLeft:
		ev.Kind = core.EventPresenceLeft
		ev.Text = env.Text
		ev.At = time.UnixMilli(env.At)
	default:
		return nil, "", fmt.Errorf("unknown envelope kind %q", env.Kind)
	}

	return ev, env.Origin, nil
}

func roomToRef(room core.RoomID) roomRef {
	if room.Kind() == core.RoomMeetup {
		return roomRef{Kind: "meetup", MeetupID: room.MeetupID()}
	}
	return roomRef{Kind: "global"}
}

func refToRoom(ref roomRef) core.RoomID {
	if ref.Kind == "meetup" {
		return core.MeetupRoom(ref.MeetupID)
	}
	return core.GlobalRoom()
}
