// Package ws implements the WebSocket adapter: broadcast fan-out to viewers
// and dispatch of viewer commands to the supervisor.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// writeTimeout bounds each viewer write so a slow viewer can never stall
// the producer; a timed-out viewer is dropped instead.
const writeTimeout = 5 * time.Second

// Dispatcher handles one inbound client command. Replies produced through
// reply go only to the connection that issued the command; broadcast events
// go through the hub as usual.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message, reply func(Message))
}

// conn wraps a single WebSocket connection. The write mutex serializes
// broadcast and direct replies on the same socket.
type conn struct {
	ws     *websocket.Conn
	cancel context.CancelFunc
	mu     sync.Mutex
}

func (c *conn) write(ctx context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.ws.Write(wctx, websocket.MessageText, data)
}

// Hub manages all active WebSocket connections and broadcasts messages.
type Hub struct {
	dispatch Dispatcher

	mu    sync.RWMutex
	conns map[*conn]struct{}
}

// NewHub creates a hub that routes client commands to the given dispatcher.
func NewHub(dispatch Dispatcher) *Hub {
	return &Hub{
		dispatch: dispatch,
		conns:    make(map[*conn]struct{}),
	}
}

// SetDispatcher wires the command dispatcher after construction. The hub
// and the supervisor reference each other, so one side attaches late, before
// the server starts accepting connections.
func (h *Hub) SetDispatcher(dispatch Dispatcher) { h.dispatch = dispatch }

// HandleWS upgrades the request and serves the connection until it closes.
// Every new connection receives an init event before anything else.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // single trusted operator machine; CORS handled by middleware
	})
	if err != nil {
		slog.Error("websocket accept failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	c := &conn{ws: ws, cancel: cancel}

	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()

	slog.Info("viewer connected", "remote", r.RemoteAddr)

	reply := func(msg Message) {
		data, err := json.Marshal(msg)
		if err != nil {
			slog.Error("websocket marshal failed", "type", msg.Type, "error", err)
			return
		}
		if err := c.write(ctx, data); err != nil {
			go h.remove(c)
		}
	}

	// init is the only recovery mechanism after a gap: current state, not
	// history.
	if h.dispatch != nil {
		h.dispatch.Dispatch(ctx, Message{Type: CmdAgentsList}, reply)
	}

	go func() {
		defer func() {
			h.remove(c)
			_ = ws.Close(websocket.StatusNormalClosure, "")
		}()
		for {
			_, data, err := ws.Read(ctx)
			if err != nil {
				return
			}
			var msg Message
			if err := json.Unmarshal(data, &msg); err != nil {
				slog.Debug("malformed client message", "error", err)
				continue
			}
			if h.dispatch != nil {
				h.dispatch.Dispatch(ctx, msg, reply)
			}
		}
	}()
}

// Broadcast sends a message to all connected viewers. Viewers whose write
// fails or times out are dropped; delivery is at-most-once by design.
func (h *Hub) Broadcast(ctx context.Context, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("websocket marshal failed", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.conns {
		if err := c.write(ctx, data); err != nil {
			slog.Debug("websocket write failed, dropping viewer", "error", err)
			go h.remove(c)
		}
	}
}

// BroadcastEvent marshals a typed event and broadcasts it.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	msg, err := NewMessage(eventType, payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}
	h.Broadcast(ctx, msg)
}

// ConnectionCount returns the number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) remove(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[c]; ok {
		c.cancel()
		delete(h.conns, c)
		slog.Info("viewer disconnected")
	}
}
