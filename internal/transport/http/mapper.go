package http

import (
	"encoding/json"

	"github.com/unalone/chat-service/internal/core"
	"github.com/unalone/chat-service/internal/proto"
)

func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeJoinGlobal:
		var join proto.JoinGlobalData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return nil, nil, err
		}
		if join.User.ID == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "user is required"}, nil
		}
		return &core.Command{
			Kind:     core.CommandJoin,
			Room:     core.GlobalRoom(),
			Identity: identityFromUser(join.User),
		}, nil, nil

	case proto.InboundTypeJoinMeetup:
		var join proto.JoinMeetupData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return nil, nil, err
		}
		if join.MeetupID == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "meetup_id is required"}, nil
		}
		if join.User.ID == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "user is required"}, nil
		}
		return &core.Command{
			Kind:     core.CommandJoin,
			Room:     core.MeetupRoom(join.MeetupID),
			Identity: identityFromUser(join.User),
		}, nil, nil

	case proto.InboundTypeLeaveRoom:
		var leave proto.LeaveRoomData
		if err := json.Unmarshal(inbound.Data, &leave); err != nil {
			return nil, nil, err
		}
		room := core.GlobalRoom()
		if leave.MeetupID != "" {
			room = core.MeetupRoom(leave.MeetupID)
		}
		return &core.Command{Kind: core.CommandLeave, Room: room}, nil, nil

	case proto.InboundTypeSend:
		var send proto.SendData
		if err := json.Unmarshal(inbound.Data, &send); err != nil {
			return nil, nil, err
		}
		return &core.Command{Kind: core.CommandSend, Body: send.Body}, nil, nil

	case proto.InboundTypeEdit:
		var edit proto.EditData
		if err := json.Unmarshal(inbound.Data, &edit); err != nil {
			return nil, nil, err
		}
		if edit.MessageID == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "message_id is required"}, nil
		}
		return &core.Command{Kind: core.CommandEdit, MessageID: edit.MessageID, Body: edit.Body}, nil, nil

	case proto.InboundTypeDelete:
		var del proto.DeleteData
		if err := json.Unmarshal(inbound.Data, &del); err != nil {
			return nil, nil, err
		}
		if del.MessageID == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "message_id is required"}, nil
		}
		return &core.Command{Kind: core.CommandDelete, MessageID: del.MessageID}, nil, nil

	default:
		return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "unknown message type"}, nil
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventHistory:
		messages := make([]proto.Message, 0, len(event.Messages))
		for i := range event.Messages {
			messages = append(messages, messageToWire(&event.Messages[i]))
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameHistory,
			Data: proto.EventHistory{
				Room:     roomToWire(event.Room),
				Messages: messages,
			},
		}

	case core.EventMessageCreated:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameMessage,
			Data:  messageToWire(event.Message),
		}

	case core.EventMessageEdited:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameMessageEdited,
			Data: proto.EventMessageEdited{
				ID:     event.MsgID,
				Body:   event.Body,
				Edited: event.Edited,
				TS:     event.At.Unix(),
			},
		}

	case core.EventMessageDeleted:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameMessageDeleted,
			Data:  proto.EventMessageDeleted{ID: event.MsgID},
		}

	case core.EventPresenceJoined:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameUserJoined,
			Data:  proto.EventPresence{Text: event.Text, TS: event.At.Unix()},
		}

	case core.EventPresenceLeft:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameUserLeft,
			Data:  proto.EventPresence{Text: event.Text, TS: event.At.Unix()},
		}

	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}

	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

func identityFromUser(u proto.User) core.Identity {
	return core.Identity{ID: u.ID, DisplayName: u.DisplayName, AvatarURL: u.AvatarURL}
}

func roomToWire(room core.RoomID) proto.Room {
	if room.Kind() == core.RoomMeetup {
		return proto.Room{Kind: "meetup", MeetupID: room.MeetupID()}
	}
	return proto.Room{Kind: "global"}
}

func messageToWire(msg *core.Message) proto.Message {
	return proto.Message{
		ID:   msg.ID,
		Room: roomToWire(msg.Room),
		User: proto.User{
			ID:          msg.Author.ID,
			DisplayName: msg.Author.DisplayName,
			AvatarURL:   msg.Author.AvatarURL,
		},
		Body:   msg.Body,
		TS:     msg.CreatedAt.Unix(),
		Edited: msg.Edited,
	}
}
