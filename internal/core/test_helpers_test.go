package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/unalone/chat-service/internal/store"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

func mustNoEvent(t *testing.T, ch <-chan *Event, kind EventKind) {
	t.Helper()

	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event kind %v received: %+v", kind, ev)
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// memStore is an in-memory store.MessageStore for hub and pipeline tests.
type memStore struct {
	mu       sync.Mutex
	seq      int
	messages map[string]*store.Message
	order    []string
	failSave bool
}

func newMemStore() *memStore {
	return &memStore{messages: make(map[string]*store.Message)}
}

func (m *memStore) SaveMessage(_ context.Context, msg *store.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failSave {
		return errors.New("store unavailable")
	}
	m.seq++
	msg.ID = fmt.Sprintf("m%d", m.seq)
	msg.CreatedAt = time.Now()

	clone := *msg
	m.messages[msg.ID] = &clone
	m.order = append(m.order, msg.ID)
	return nil
}

func (m *memStore) GetMessage(_ context.Context, id string) (*store.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	msg, ok := m.messages[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *msg
	return &clone, nil
}

func (m *memStore) UpdateMessageBody(_ context.Context, id, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	msg, ok := m.messages[id]
	if !ok {
		return store.ErrNotFound
	}
	msg.Body = body
	msg.Edited = true
	return nil
}

func (m *memStore) DeleteMessage(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.messages[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.messages, id)
	for i, other := range m.order {
		if other == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *memStore) ListMessages(_ context.Context, roomKey string, kind store.RoomKind, limit, offset int) ([]*store.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []*store.Message
	skipped := 0
	for i := len(m.order) - 1; i >= 0; i-- {
		msg := m.messages[m.order[i]]
		if msg.RoomKey != roomKey || msg.RoomKind != kind {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		clone := *msg
		result = append(result, &clone)
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

func startTestHub(t *testing.T, st store.MessageStore) *Hub {
	t.Helper()

	hub := NewHub(st, 0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func joinAs(c *Client, room RoomID, id, name string) {
	c.Commands <- &Command{
		Kind:     CommandJoin,
		Room:     room,
		Identity: Identity{ID: id, DisplayName: name},
	}
}
