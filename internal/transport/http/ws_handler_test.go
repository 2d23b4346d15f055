package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/unalone/chat-service/internal/config"
	"github.com/unalone/chat-service/internal/core"
	"github.com/unalone/chat-service/internal/proto"
	"github.com/unalone/chat-service/internal/store/sqlite"
)

type wsOutbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func newTestStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()

	st, err := sqlite.New(filepath.Join(t.TempDir(), "chat.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func startTestServer(t *testing.T) (*httptest.Server, *core.Hub) {
	t.Helper()

	st := newTestStore(t)
	logger := zerolog.Nop()
	hub := core.NewHub(st, 0, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := NewServer(hub, config.Default(), &logger)
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(func() {
		ts.Close()
		cancel()
	})
	return ts, hub
}

func dialWS(t *testing.T, ctx context.Context, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "test done") })
	return conn
}

func sendInbound(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string, data any) {
	t.Helper()

	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s data: %v", typ, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: raw}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

// readEvent reads frames until the named event arrives, skipping unrelated
// interleaved events. Error frames fail the test.
func readEvent(t *testing.T, ctx context.Context, conn *websocket.Conn, want string) json.RawMessage {
	t.Helper()

	for {
		var out wsOutbound
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			t.Fatalf("read while waiting for %s: %v", want, err)
		}
		if out.Type == proto.OutboundTypeError {
			t.Fatalf("unexpected error while waiting for %s: %+v", want, out.Error)
		}
		if out.Event == want {
			return out.Data
		}
	}
}

func readError(t *testing.T, ctx context.Context, conn *websocket.Conn) *proto.Error {
	t.Helper()

	for {
		var out wsOutbound
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			t.Fatalf("read while waiting for error: %v", err)
		}
		if out.Type == proto.OutboundTypeError {
			return out.Error
		}
	}
}

func joinGlobal(t *testing.T, ctx context.Context, conn *websocket.Conn, id, name string) {
	t.Helper()
	sendInbound(t, ctx, conn, proto.InboundTypeJoinGlobal, proto.JoinGlobalData{
		User: proto.User{ID: id, DisplayName: name},
	})
}

func TestWebSocketChatFlow(t *testing.T) {
	ts, _ := startTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	alice := dialWS(t, ctx, ts)
	joinGlobal(t, ctx, alice, "u1", "alice")

	var history proto.EventHistory
	if err := json.Unmarshal(readEvent(t, ctx, alice, proto.EventNameHistory), &history); err != nil {
		t.Fatalf("unmarshal history: %v", err)
	}
	if len(history.Messages) != 0 || history.Room.Kind != "global" {
		t.Fatalf("unexpected initial history: %+v", history)
	}

	sendInbound(t, ctx, alice, proto.InboundTypeSend, proto.SendData{Body: "hello"})
	var created proto.Message
	if err := json.Unmarshal(readEvent(t, ctx, alice, proto.EventNameMessage), &created); err != nil {
		t.Fatalf("unmarshal message: %v", err)
	}
	if created.ID == "" || created.Body != "hello" || created.User.DisplayName != "alice" {
		t.Fatalf("unexpected created message: %+v", created)
	}

	// The second participant replays the backlog and is announced to alice.
	bob := dialWS(t, ctx, ts)
	joinGlobal(t, ctx, bob, "u2", "bob")

	if err := json.Unmarshal(readEvent(t, ctx, bob, proto.EventNameHistory), &history); err != nil {
		t.Fatalf("unmarshal history: %v", err)
	}
	if len(history.Messages) != 1 || history.Messages[0].Body != "hello" {
		t.Fatalf("unexpected replayed history: %+v", history.Messages)
	}

	var presence proto.EventPresence
	if err := json.Unmarshal(readEvent(t, ctx, alice, proto.EventNameUserJoined), &presence); err != nil {
		t.Fatalf("unmarshal presence: %v", err)
	}
	if !strings.Contains(presence.Text, "bob") {
		t.Fatalf("unexpected presence text: %q", presence.Text)
	}

	// Only the author can edit; both participants see the result.
	sendInbound(t, ctx, bob, proto.InboundTypeEdit, proto.EditData{MessageID: created.ID, Body: "hijacked"})
	if perr := readError(t, ctx, bob); perr.Code != core.ErrCodeUnauthorized {
		t.Fatalf("expected unauthorized, got %+v", perr)
	}

	sendInbound(t, ctx, alice, proto.InboundTypeEdit, proto.EditData{MessageID: created.ID, Body: "hello again"})
	for _, conn := range []*websocket.Conn{alice, bob} {
		var edited proto.EventMessageEdited
		if err := json.Unmarshal(readEvent(t, ctx, conn, proto.EventNameMessageEdited), &edited); err != nil {
			t.Fatalf("unmarshal edit: %v", err)
		}
		if edited.ID != created.ID || edited.Body != "hello again" || !edited.Edited {
			t.Fatalf("unexpected edit event: %+v", edited)
		}
	}

	sendInbound(t, ctx, alice, proto.InboundTypeDelete, proto.DeleteData{MessageID: created.ID})
	for _, conn := range []*websocket.Conn{alice, bob} {
		var deleted proto.EventMessageDeleted
		if err := json.Unmarshal(readEvent(t, ctx, conn, proto.EventNameMessageDeleted), &deleted); err != nil {
			t.Fatalf("unmarshal delete: %v", err)
		}
		if deleted.ID != created.ID {
			t.Fatalf("unexpected delete event: %+v", deleted)
		}
	}
}

func TestWebSocketDisconnectAnnouncesLeave(t *testing.T) {
	ts, _ := startTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	watcher := dialWS(t, ctx, ts)
	joinGlobal(t, ctx, watcher, "u1", "alice")
	readEvent(t, ctx, watcher, proto.EventNameHistory)

	visitor := dialWS(t, ctx, ts)
	joinGlobal(t, ctx, visitor, "u2", "bob")
	readEvent(t, ctx, visitor, proto.EventNameHistory)
	readEvent(t, ctx, watcher, proto.EventNameUserJoined)

	visitor.Close(websocket.StatusNormalClosure, "bye")

	var presence proto.EventPresence
	if err := json.Unmarshal(readEvent(t, ctx, watcher, proto.EventNameUserLeft), &presence); err != nil {
		t.Fatalf("unmarshal presence: %v", err)
	}
	if !strings.Contains(presence.Text, "bob") {
		t.Fatalf("unexpected leave text: %q", presence.Text)
	}
}

func TestWebSocketSendWithoutJoin(t *testing.T) {
	ts, _ := startTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, ts)
	sendInbound(t, ctx, conn, proto.InboundTypeSend, proto.SendData{Body: "hi"})

	if perr := readError(t, ctx, conn); perr.Code != core.ErrCodeNotInRoom {
		t.Fatalf("expected not_in_room, got %+v", perr)
	}
}

func TestWebSocketRejectsMalformedIntents(t *testing.T) {
	ts, _ := startTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, ts)

	sendInbound(t, ctx, conn, "bogus", struct{}{})
	if perr := readError(t, ctx, conn); perr.Code != core.ErrCodeBadRequest {
		t.Fatalf("expected bad_request for unknown type, got %+v", perr)
	}

	sendInbound(t, ctx, conn, proto.InboundTypeJoinMeetup, proto.JoinMeetupData{
		User: proto.User{ID: "u1", DisplayName: "alice"},
	})
	if perr := readError(t, ctx, conn); perr.Code != core.ErrCodeBadRequest {
		t.Fatalf("expected bad_request for missing meetup id, got %+v", perr)
	}

	sendInbound(t, ctx, conn, proto.InboundTypeJoinGlobal, proto.JoinGlobalData{})
	if perr := readError(t, ctx, conn); perr.Code != core.ErrCodeBadRequest {
		t.Fatalf("expected bad_request for missing user, got %+v", perr)
	}
}
