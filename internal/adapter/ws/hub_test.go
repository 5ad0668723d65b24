package ws_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/Strob0t/AgentGuild/internal/adapter/ws"
)

// echoDispatcher replies with an init snapshot for list commands and records
// everything else.
type echoDispatcher struct {
	agents []ws.AgentSnapshot
}

func (d *echoDispatcher) Dispatch(_ context.Context, msg ws.Message, reply func(ws.Message)) {
	switch msg.Type {
	case ws.CmdAgentsList:
		out, _ := ws.NewMessage(ws.EventInit, ws.InitEvent{Agents: d.agents})
		reply(out)
	default:
		out, _ := ws.NewMessage(ws.EventError, ws.ErrorEvent{Message: "unknown message type: " + msg.Type})
		reply(out)
	}
}

func dialTest(t *testing.T, hub *ws.Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) ws.Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var msg ws.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatal(err)
	}
	return msg
}

func TestNewConnectionReceivesInitFirst(t *testing.T) {
	hub := ws.NewHub(nil)
	hub.SetDispatcher(&echoDispatcher{agents: []ws.AgentSnapshot{
		{ID: "a1", Name: "alpha", Class: "warrior", Status: "idle", Activity: "idle"},
	}})
	conn := dialTest(t, hub)

	msg := readMessage(t, conn)
	if msg.Type != ws.EventInit {
		t.Fatalf("first message type = %q, want init", msg.Type)
	}
	var ev ws.InitEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		t.Fatal(err)
	}
	if len(ev.Agents) != 1 || ev.Agents[0].ID != "a1" {
		t.Fatalf("init agents = %+v", ev.Agents)
	}
}

func TestBroadcastReachesViewer(t *testing.T) {
	hub := ws.NewHub(&echoDispatcher{})
	conn := dialTest(t, hub)
	readMessage(t, conn) // init

	deadline := time.Now().Add(2 * time.Second)
	for hub.ConnectionCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.ConnectionCount() != 1 {
		t.Fatalf("connections = %d, want 1", hub.ConnectionCount())
	}

	hub.BroadcastEvent(context.Background(), ws.EventAgentOutput,
		ws.AgentOutputEvent{AgentID: "a1", Data: "hello\n"})

	msg := readMessage(t, conn)
	if msg.Type != ws.EventAgentOutput {
		t.Fatalf("broadcast type = %q, want agent:output", msg.Type)
	}
	var ev ws.AgentOutputEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		t.Fatal(err)
	}
	if ev.AgentID != "a1" || ev.Data != "hello\n" {
		t.Fatalf("broadcast payload = %+v", ev)
	}
}

func TestUnknownCommandGetsErrorReply(t *testing.T) {
	hub := ws.NewHub(&echoDispatcher{})
	conn := dialTest(t, hub)
	readMessage(t, conn) // init

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	data, _ := json.Marshal(ws.Message{Type: "agent:dance"})
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatal(err)
	}

	msg := readMessage(t, conn)
	if msg.Type != ws.EventError {
		t.Fatalf("reply type = %q, want error", msg.Type)
	}
	var ev ws.ErrorEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(ev.Message, "agent:dance") {
		t.Fatalf("error message = %q", ev.Message)
	}
}
