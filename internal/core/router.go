package core

// Router maps a room identifier to the set of local connections subscribed to
// it. Like the Registry it is owned by the hub goroutine; membership entries
// exist only in memory and are rebuilt from zero on restart.
type Router struct {
	rooms map[RoomID]map[*Client]struct{}
}

// NewRouter constructs an empty room router.
func NewRouter() *Router {
	return &Router{rooms: make(map[RoomID]map[*Client]struct{})}
}

// Join adds the client to the room's member set, creating the set if absent.
// Returns true when the room gained its first local member.
func (r *Router) Join(room RoomID, c *Client) bool {
	members, ok := r.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		r.rooms[room] = members
	}
	members[c] = struct{}{}
	return !ok
}

// Leave removes the client from the room. When the member set becomes empty
// the room entry itself is dropped; returns true in that case.
func (r *Router) Leave(room RoomID, c *Client) bool {
	members, ok := r.rooms[room]
	if !ok {
		return false
	}
	delete(members, c)
	if len(members) == 0 {
		delete(r.rooms, room)
		return true
	}
	return false
}

// Broadcast delivers the event to every member of the room. Delivery is
// fire-and-forget per connection; an unreachable recipient never aborts the
// remaining fan-out and is never surfaced to the sender.
func (r *Router) Broadcast(room RoomID, ev *Event) {
	for c := range r.rooms[room] {
		c.deliver(ev)
	}
}

// BroadcastExcept delivers the event to every member except one connection.
func (r *Router) BroadcastExcept(room RoomID, ev *Event, excludeConnID string) {
	for c := range r.rooms[room] {
		if c.ID == excludeConnID {
			continue
		}
		c.deliver(ev)
	}
}

// Members reports the current local member count of the room.
func (r *Router) Members(room RoomID) int {
	return len(r.rooms[room])
}
