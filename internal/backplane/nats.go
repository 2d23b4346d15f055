// Package backplane relays room broadcasts between serving processes over
// NATS so that fan-out is not limited to connections held by one process.
// Each process publishes its local room events tagged with an origin id and
// subscribes to the rooms it has local members for, dropping its own echoes.
package backplane

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/unalone/chat-service/internal/core"
)

const subjectPrefix = "chat.room."

// Bus is the minimal pub/sub surface the backplane needs. *nats.Conn is
// adapted to it in Connect; tests substitute an in-memory bus.
type Bus interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte)) (func() error, error)
}

// NATS implements core.Backplane over a Bus.
type NATS struct {
	bus    Bus
	origin string
	log    *zerolog.Logger
	close  func()
}

// New builds a backplane over an existing bus.
func New(bus Bus, logger *zerolog.Logger) *NATS {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &NATS{
		bus:    bus,
		origin: uuid.NewString(),
		log:    logger,
	}
}

// Connect dials a NATS server and returns a backplane over it.
func Connect(url string, logger *zerolog.Logger) (*NATS, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	bp := New(natsBus{nc: nc}, logger)
	bp.close = nc.Close
	return bp, nil
}

// Close releases the underlying connection, if this backplane owns one.
func (n *NATS) Close() {
	if n.close != nil {
		n.close()
	}
}

// Publish mirrors a local room broadcast to the other processes.
func (n *NATS) Publish(room core.RoomID, ev *core.Event) error {
	data, ok, err := encodeEvent(n.origin, room, ev)
	if err != nil {
		return err
	}
	if !ok {
		// Connection-scoped events (history, errors) never cross processes.
		return nil
	}
	return n.bus.Publish(subjectFor(room), data)
}

// Subscribe registers interest in a room. The handler receives events
// published by other processes only; this process's own events are filtered
// out by origin id.
func (n *NATS) Subscribe(room core.RoomID, deliver func(*core.Event)) (func(), error) {
	unsub, err := n.bus.Subscribe(subjectFor(room), func(data []byte) {
		ev, origin, err := decodeEvent(data)
		if err != nil {
			n.log.Warn().Err(err).Stringer("room", room).Msg("decode backplane event")
			return
		}
		if origin == n.origin {
			return
		}
		deliver(ev)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe room %s: %w", room, err)
	}

	return func() {
		if err := unsub(); err != nil {
			n.log.Warn().Err(err).Stringer("room", room).Msg("unsubscribe room")
		}
	}, nil
}

func subjectFor(room core.RoomID) string {
	if room.Kind() == core.RoomMeetup {
		return subjectPrefix + "meetup." + room.MeetupID()
	}
	return subjectPrefix + "global"
}

// natsBus adapts *nats.Conn to the Bus interface.
type natsBus struct {
	nc *nats.Conn
}

func (b natsBus) Publish(subject string, data []byte) error {
	return b.nc.Publish(subject, data)
}

func (b natsBus) Subscribe(subject string, handler func(data []byte)) (func() error, error) {
	sub, err := b.nc.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, err
	}
	return sub.Unsubscribe, nil
}
