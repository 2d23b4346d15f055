package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/unalone/chat-service/internal/store"
)

type hubRequestKind int

const (
	reqUnregister hubRequestKind = iota
	reqJoin
	reqLeave
	reqBroadcast
)

// hubRequest is the only way sessions and room membership get mutated. All
// requests from every connection worker funnel through one channel, so the
// hub loop is the single writer and no locking is needed.
type hubRequest struct {
	kind     hubRequestKind
	client   *Client
	room     RoomID
	identity Identity
	event    *Event
	exclude  string // connection id excluded from the broadcast
	done     chan struct{}
}

// remoteEvent is a broadcast relayed from another process via the backplane.
type remoteEvent struct {
	room  RoomID
	event *Event
}

// Hub coordinates sessions, room membership, and fan-out. One goroutine runs
// the event loop; each registered client gets a worker goroutine that drains
// its command channel in order and drives the message pipeline, keeping store
// I/O off the loop while preserving per-connection ordering.
type Hub struct {
	pipeline  *Pipeline
	sessions  *Registry
	rooms     *Router
	backplane Backplane
	log       *zerolog.Logger

	requests chan hubRequest
	remote   chan remoteEvent
	unsubs   map[RoomID]func()
}

// NewHub creates a hub over the given message store.
func NewHub(st store.MessageStore, historyLimit int, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		pipeline: NewPipeline(st, historyLimit, logger),
		sessions: NewRegistry(),
		rooms:    NewRouter(),
		log:      logger,
		requests: make(chan hubRequest, 64),
		remote:   make(chan remoteEvent, 64),
		unsubs:   make(map[RoomID]func()),
	}
}

// UseBackplane attaches a cross-process fan-out. Must be called before Run.
func (h *Hub) UseBackplane(bp Backplane) {
	h.backplane = bp
}

// Pipeline exposes the read path for the HTTP history surface.
func (h *Hub) Pipeline() *Pipeline {
	return h.pipeline
}

// Run processes hub requests until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		for room, unsub := range h.unsubs {
			unsub()
			delete(h.unsubs, room)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-h.requests:
			h.handle(req)
		case rev := <-h.remote:
			// Remote broadcasts are delivered to local members only and
			// never republished.
			h.rooms.Broadcast(rev.room, rev.event)
		}
	}
}

// RegisterClient starts the connection's command worker. The transport must
// call UnregisterClient exactly once when the connection is done; calling it
// again is harmless.
func (h *Hub) RegisterClient(c *Client) {
	go h.serveClient(c)
}

// UnregisterClient tears the connection down: the worker drains and exits,
// then the hub loop removes the session, leaves the room, and announces the
// departure. Cleanup runs once even if a leave raced with the disconnect or
// the call itself is repeated.
func (h *Hub) UnregisterClient(c *Client) {
	c.closeCommands()
	h.requests <- hubRequest{kind: reqUnregister, client: c}
}

func (h *Hub) handle(req hubRequest) {
	switch req.kind {
	case reqUnregister:
		h.handleUnregister(req.client)
	case reqJoin:
		h.handleJoin(req.client, req.room, req.identity)
		close(req.done)
	case reqLeave:
		h.handleLeave(req.client, req.room)
	case reqBroadcast:
		h.broadcast(req.room, req.event, req.exclude)
	}
}

func (h *Hub) handleJoin(c *Client, room RoomID, identity Identity) {
	sess := h.sessions.OpenSession(c.ID, identity)

	// Joining while already joined implicitly leaves the previous room.
	if sess.InRoom && sess.Room != room {
		h.removeFromRoom(c, sess.Room, sess.Identity)
	}

	if h.rooms.Join(room, c) {
		h.subscribeRoom(room)
	}
	h.sessions.SetCurrentRoom(c.ID, room)

	h.broadcast(room, presenceJoined(room, identity), c.ID)
	h.log.Debug().Str("conn_id", c.ID).Str("user", identity.DisplayName).Stringer("room", room).Msg("joined room")
}

func (h *Hub) handleLeave(c *Client, room RoomID) {
	sess := h.sessions.Get(c.ID)
	if sess == nil || !sess.InRoom || sess.Room != room {
		c.deliver(errorEvent(coreError(ErrCodeNotInRoom, "not in room")))
		return
	}
	h.removeFromRoom(c, room, sess.Identity)
	h.sessions.ClearCurrentRoom(c.ID)
}

func (h *Hub) handleUnregister(c *Client) {
	sess := h.sessions.CloseSession(c.ID)
	if sess == nil {
		return
	}
	if sess.InRoom {
		h.removeFromRoom(c, sess.Room, sess.Identity)
	}
	h.log.Debug().Str("conn_id", c.ID).Msg("session closed")
}

// removeFromRoom drops membership and announces the departure to whoever is
// left in the room.
func (h *Hub) removeFromRoom(c *Client, room RoomID, identity Identity) {
	if h.rooms.Leave(room, c) {
		h.unsubscribeRoom(room)
	}
	h.broadcast(room, presenceLeft(room, identity), c.ID)
}

// broadcast delivers locally and mirrors the event to other processes.
func (h *Hub) broadcast(room RoomID, ev *Event, exclude string) {
	if exclude != "" {
		h.rooms.BroadcastExcept(room, ev, exclude)
	} else {
		h.rooms.Broadcast(room, ev)
	}
	if h.backplane != nil {
		if err := h.backplane.Publish(room, ev); err != nil {
			h.log.Warn().Err(err).Stringer("room", room).Msg("backplane publish")
		}
	}
}

func (h *Hub) subscribeRoom(room RoomID) {
	if h.backplane == nil {
		return
	}
	unsub, err := h.backplane.Subscribe(room, func(ev *Event) {
		select {
		case h.remote <- remoteEvent{room: room, event: ev}:
		default:
			// Drop if the hub is backed up; remote events are transient.
		}
	})
	if err != nil {
		h.log.Warn().Err(err).Stringer("room", room).Msg("backplane subscribe")
		return
	}
	h.unsubs[room] = unsub
}

func (h *Hub) unsubscribeRoom(room RoomID) {
	if unsub, ok := h.unsubs[room]; ok {
		unsub()
		delete(h.unsubs, room)
	}
}

// serveClient drains one connection's commands in submission order.
func (h *Hub) serveClient(c *Client) {
	ctx := context.Background()

	var (
		identity Identity
		room     RoomID
		joined   bool
	)

	for cmd := range c.Commands {
		switch cmd.Kind {
		case CommandJoin:
			identity = cmd.Identity
			room = cmd.Room
			joined = true

			done := make(chan struct{})
			h.requests <- hubRequest{kind: reqJoin, client: c, room: cmd.Room, identity: cmd.Identity, done: done}
			<-done

			// History replay goes to the joiner only, after membership is
			// registered so no gap opens between replay and live events.
			messages, _, err := h.pipeline.History(ctx, cmd.Room, 1, 0)
			if err != nil {
				h.log.Error().Err(err).Stringer("room", cmd.Room).Msg("history replay")
				c.deliver(errorEvent(coreError(ErrCodePersistence, "failed to load history")))
				continue
			}
			c.deliver(&Event{Kind: EventHistory, Room: cmd.Room, Messages: messages})

		case CommandLeave:
			if !joined || room != cmd.Room {
				c.deliver(errorEvent(coreError(ErrCodeNotInRoom, "not in room")))
				continue
			}
			joined = false
			h.requests <- hubRequest{kind: reqLeave, client: c, room: cmd.Room}

		case CommandSend:
			if !joined {
				c.deliver(errorEvent(coreError(ErrCodeNotInRoom, "join a room before sending")))
				continue
			}
			msg, cerr := h.pipeline.Send(ctx, room, identity, cmd.Body)
			if cerr != nil {
				c.deliver(errorEvent(cerr))
				continue
			}
			h.requests <- hubRequest{kind: reqBroadcast, room: room, event: &Event{
				Kind:    EventMessageCreated,
				Room:    room,
				Message: msg,
			}}

		case CommandEdit:
			if identity.ID == "" {
				c.deliver(errorEvent(coreError(ErrCodeUnauthorized, "unauthorized action")))
				continue
			}
			msg, cerr := h.pipeline.Edit(ctx, identity, cmd.MessageID, cmd.Body)
			if cerr != nil {
				c.deliver(errorEvent(cerr))
				continue
			}
			// The notification targets the message's own room, which may
			// differ from the editor's current room.
			h.requests <- hubRequest{kind: reqBroadcast, room: msg.Room, event: &Event{
				Kind:   EventMessageEdited,
				Room:   msg.Room,
				MsgID:  msg.ID,
				Body:   msg.Body,
				Edited: true,
				At:     time.Now(),
			}}

		case CommandDelete:
			if identity.ID == "" {
				c.deliver(errorEvent(coreError(ErrCodeUnauthorized, "unauthorized action")))
				continue
			}
			msg, cerr := h.pipeline.Delete(ctx, identity, cmd.MessageID)
			if cerr != nil {
				c.deliver(errorEvent(cerr))
				continue
			}
			h.requests <- hubRequest{kind: reqBroadcast, room: msg.Room, event: &Event{
				Kind:  EventMessageDeleted,
				Room:  msg.Room,
				MsgID: msg.ID,
			}}
		}
	}
}
