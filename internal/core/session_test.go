package core

import "testing"

func TestRegistrySessionLifecycle(t *testing.T) {
	r := NewRegistry()

	sess := r.OpenSession("c1", Identity{ID: "u1", DisplayName: "alice"})
	if sess.ConnectionID != "c1" || sess.InRoom {
		t.Fatalf("unexpected fresh session: %+v", sess)
	}

	// Reopening refreshes the identity snapshot instead of duplicating.
	again := r.OpenSession("c1", Identity{ID: "u1", DisplayName: "alice renamed"})
	if again != sess {
		t.Fatal("expected the existing session back")
	}
	if again.Identity.DisplayName != "alice renamed" {
		t.Fatalf("identity not refreshed: %+v", again.Identity)
	}
	if r.Len() != 1 {
		t.Fatalf("expected one session, got %d", r.Len())
	}

	r.SetCurrentRoom("c1", MeetupRoom("m1"))
	if got := r.Get("c1"); !got.InRoom || got.Room != MeetupRoom("m1") {
		t.Fatalf("room not recorded: %+v", got)
	}

	r.ClearCurrentRoom("c1")
	if got := r.Get("c1"); got.InRoom {
		t.Fatalf("room not cleared: %+v", got)
	}

	closed := r.CloseSession("c1")
	if closed == nil || closed.ConnectionID != "c1" {
		t.Fatalf("unexpected closed session: %+v", closed)
	}
	// Second close reports nothing to clean up.
	if r.CloseSession("c1") != nil {
		t.Fatal("expected nil on double close")
	}
	if r.Get("c1") != nil {
		t.Fatal("session still present after close")
	}
}

func TestRouterMembershipAndBroadcast(t *testing.T) {
	router := NewRouter()
	room := MeetupRoom("m1")

	a := NewClient("a")
	b := NewClient("b")

	if !router.Join(room, a) {
		t.Fatal("first member should create the room")
	}
	if router.Join(room, b) {
		t.Fatal("second member should not recreate the room")
	}
	if router.Members(room) != 2 {
		t.Fatalf("expected 2 members, got %d", router.Members(room))
	}

	ev := &Event{Kind: EventMessageCreated, Room: room}
	router.Broadcast(room, ev)
	for _, c := range []*Client{a, b} {
		select {
		case got := <-c.Events:
			if got != ev {
				t.Fatalf("unexpected event: %+v", got)
			}
		default:
			t.Fatalf("client %s missed the broadcast", c.ID)
		}
	}

	router.BroadcastExcept(room, ev, "a")
	select {
	case <-a.Events:
		t.Fatal("excluded client received the broadcast")
	default:
	}
	select {
	case <-b.Events:
	default:
		t.Fatal("non-excluded client missed the broadcast")
	}

	if router.Leave(room, a) {
		t.Fatal("room should survive while a member remains")
	}
	if !router.Leave(room, b) {
		t.Fatal("room should be dropped when the last member leaves")
	}
	if router.Members(room) != 0 {
		t.Fatalf("expected empty room, got %d members", router.Members(room))
	}
}

func TestRouterBroadcastSkipsSlowConsumer(t *testing.T) {
	router := NewRouter()
	room := GlobalRoom()

	slow := NewClient("slow")
	healthy := NewClient("ok")
	router.Join(room, slow)
	router.Join(room, healthy)

	// Saturate the slow client's buffer; further deliveries drop silently.
	for range cap(slow.Events) {
		slow.deliver(&Event{Kind: EventPresenceJoined})
	}

	ev := &Event{Kind: EventMessageCreated, Room: room}
	router.Broadcast(room, ev)

	select {
	case got := <-healthy.Events:
		if got != ev {
			t.Fatalf("unexpected event: %+v", got)
		}
	default:
		t.Fatal("healthy client missed the broadcast")
	}
}
