package core

// Backplane fans room events out across serving processes. Broadcasts only
// reach connections held by the local process otherwise; a multi-instance
// deployment wires a NATS-backed implementation here.
//
// Publish must filter the publisher's own events out on the subscribe side so
// the hub can mirror every local broadcast without echo. Subscribe registers
// interest in one room and returns an unsubscribe func; deliver is invoked
// from the backplane's own goroutines and must not block.
type Backplane interface {
	Publish(room RoomID, ev *Event) error
	Subscribe(room RoomID, deliver func(*Event)) (func(), error)
}
