// Command ws_chat is a terminal client for manual testing. It joins the
// global cafe (or a meetup room with -meetup), prints room events, and sends
// typed lines as messages. /edit <id> <body> and /delete <id> exercise the
// ownership paths.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/unalone/chat-service/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	userID := flag.String("user-id", "cli-user", "user id")
	name := flag.String("name", "cli", "display name")
	meetup := flag.String("meetup", "", "meetup id; empty joins the global cafe")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	user := proto.User{ID: *userID, DisplayName: *name}
	if *meetup != "" {
		if err := send(ctx, conn, proto.InboundTypeJoinMeetup, proto.JoinMeetupData{MeetupID: *meetup, User: user}); err != nil {
			return err
		}
		fmt.Printf("Connected to %s as %s in meetup %s\n", *addr, *name, *meetup)
	} else {
		if err := send(ctx, conn, proto.InboundTypeJoinGlobal, proto.JoinGlobalData{User: user}); err != nil {
			return err
		}
		fmt.Printf("Connected to %s as %s in the global cafe\n", *addr, *name)
	}
	fmt.Println("Type to chat. /edit <id> <body>, /delete <id>. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func send(ctx context.Context, conn *websocket.Conn, typ string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", typ, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: raw}); err != nil {
		return fmt.Errorf("send %s: %w", typ, err)
	}
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var outbound struct {
			Type  string          `json:"type"`
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
			Error *proto.Error    `json:"error"`
		}
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		if outbound.Type == proto.OutboundTypeError {
			fmt.Printf("!! %s: %s\n", outbound.Error.Code, outbound.Error.Msg)
			continue
		}

		switch outbound.Event {
		case proto.EventNameHistory:
			var evt proto.EventHistory
			if err := json.Unmarshal(outbound.Data, &evt); err != nil {
				log.Printf("unmarshal history: %v", err)
				continue
			}
			for _, msg := range evt.Messages {
				printMessage(msg)
			}
		case proto.EventNameMessage:
			var msg proto.Message
			if err := json.Unmarshal(outbound.Data, &msg); err != nil {
				log.Printf("unmarshal message: %v", err)
				continue
			}
			printMessage(msg)
		case proto.EventNameMessageEdited:
			var evt proto.EventMessageEdited
			if err := json.Unmarshal(outbound.Data, &evt); err != nil {
				log.Printf("unmarshal edit: %v", err)
				continue
			}
			fmt.Printf("(edited %s) %s\n", evt.ID, evt.Body)
		case proto.EventNameMessageDeleted:
			var evt proto.EventMessageDeleted
			if err := json.Unmarshal(outbound.Data, &evt); err != nil {
				log.Printf("unmarshal delete: %v", err)
				continue
			}
			fmt.Printf("(deleted %s)\n", evt.ID)
		case proto.EventNameUserJoined, proto.EventNameUserLeft:
			var evt proto.EventPresence
			if err := json.Unmarshal(outbound.Data, &evt); err != nil {
				log.Printf("unmarshal presence: %v", err)
				continue
			}
			fmt.Printf("* %s\n", evt.Text)
		default:
			fmt.Printf("event=%s data=%s\n", outbound.Event, outbound.Data)
		}
	}
}

func printMessage(msg proto.Message) {
	suffix := ""
	if msg.Edited {
		suffix = " (edited)"
	}
	fmt.Printf("[%s] %s: %s%s\n", msg.ID, msg.User.DisplayName, msg.Body, suffix)
}

func writeLoop(ctx context.Context, conn *websocket.Conn) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}

			var err error
			switch {
			case strings.HasPrefix(text, "/edit "):
				id, body, found := strings.Cut(strings.TrimPrefix(text, "/edit "), " ")
				if !found {
					fmt.Println("usage: /edit <id> <body>")
					continue
				}
				err = send(ctx, conn, proto.InboundTypeEdit, proto.EditData{MessageID: id, Body: body})
			case strings.HasPrefix(text, "/delete "):
				err = send(ctx, conn, proto.InboundTypeDelete, proto.DeleteData{MessageID: strings.TrimPrefix(text, "/delete ")})
			default:
				err = send(ctx, conn, proto.InboundTypeSend, proto.SendData{Body: text})
			}
			if err != nil {
				log.Printf("%v", err)
				return
			}
		}
	}
}
