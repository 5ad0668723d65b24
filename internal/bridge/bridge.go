// Package bridge maintains the client's WebSocket connection to the
// AgentGuild core service. It translates wire events into state store
// actions and exposes typed command senders, so nothing above it touches
// the wire protocol directly.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/Strob0t/AgentGuild/internal/adapter/ws"
	"github.com/Strob0t/AgentGuild/internal/ansi"
	"github.com/Strob0t/AgentGuild/internal/config"
	"github.com/Strob0t/AgentGuild/internal/domain/agent"
	"github.com/Strob0t/AgentGuild/internal/resilience"
	"github.com/Strob0t/AgentGuild/internal/state"
)

const writeTimeout = 5 * time.Second

// Bridge owns exactly one connection to the core service. Commands sent
// while disconnected queue in order and flush on reconnect; a deliberate
// Close drops the queue instead.
type Bridge struct {
	cfg   config.Bridge
	store *state.Store
	log   *slog.Logger

	// onNotice surfaces user-visible conditions: server error events and
	// reconnect exhaustion. Never nil after New.
	onNotice func(string)

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	closed    bool
	queue     []ws.Message
	backoff   *resilience.Backoff
	partial   map[string]string // per-agent trailing unterminated output

	syncedOnce sync.Once
	synced     chan struct{}
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithNotice sets the callback for user-visible bridge conditions.
func WithNotice(fn func(string)) Option {
	return func(b *Bridge) { b.onNotice = fn }
}

// New creates a Bridge bound to the given store. It does not connect.
func New(cfg config.Bridge, st *state.Store, log *slog.Logger, opts ...Option) *Bridge {
	if log == nil {
		log = slog.Default()
	}
	b := &Bridge{
		cfg:      cfg,
		store:    st,
		log:      log,
		onNotice: func(string) {},
		backoff:  resilience.NewBackoff(cfg.ReconnectBaseDelay, cfg.MaxReconnects),
		partial:  make(map[string]string),
		synced:   make(chan struct{}),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Connect establishes the connection and starts the read loop. Calling it
// while already connected is a no-op; calling it after reconnect exhaustion
// restarts the attempt budget.
func (b *Bridge) Connect(ctx context.Context) error {
	b.mu.Lock()
	if b.connected {
		b.mu.Unlock()
		return nil
	}
	b.closed = false
	b.backoff.Reset()
	b.mu.Unlock()

	if err := b.dial(ctx); err != nil {
		return fmt.Errorf("bridge connect %s: %w", b.cfg.URL, err)
	}
	return nil
}

// dial performs one connection attempt and, on success, flushes the queue
// and starts the read loop.
func (b *Bridge) dial(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, b.cfg.URL, nil)
	if err != nil {
		return err
	}
	conn.SetReadLimit(4 << 20)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		conn.Close(websocket.StatusNormalClosure, "closed")
		return nil
	}
	b.conn = conn
	b.connected = true
	b.backoff.Reset()
	pending := b.queue
	b.queue = nil
	b.mu.Unlock()

	b.log.Info("bridge connected", "url", b.cfg.URL, "queued", len(pending))

	for _, msg := range pending {
		if err := b.write(ctx, conn, msg); err != nil {
			b.log.Warn("queued command flush failed", "type", msg.Type, "error", err)
			b.enqueue(msg)
			break
		}
	}

	go b.readLoop(ctx, conn)
	return nil
}

func (b *Bridge) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			b.mu.Lock()
			deliberate := b.closed
			b.connected = false
			b.conn = nil
			b.mu.Unlock()

			if deliberate || ctx.Err() != nil {
				return
			}
			b.log.Warn("bridge connection lost", "error", err)
			b.reconnect(ctx)
			return
		}

		var msg ws.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			b.log.Warn("bad message from server", "error", err)
			continue
		}
		b.handle(msg)
	}
}

// reconnect retries with exponential backoff. Exhaustion is surfaced to the
// user and stops the loop; a later manual Connect starts over.
func (b *Bridge) reconnect(ctx context.Context) {
	for {
		delay, ok := b.backoff.Next()
		if !ok {
			b.log.Error("bridge reconnect attempts exhausted", "attempts", b.backoff.Attempts())
			b.onNotice(fmt.Sprintf("connection to %s lost; gave up after %d attempts",
				b.cfg.URL, b.backoff.Attempts()))
			return
		}

		b.log.Info("bridge reconnecting", "attempt", b.backoff.Attempts(), "delay", delay)
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		b.mu.Lock()
		if b.closed {
			b.mu.Unlock()
			return
		}
		b.mu.Unlock()

		if err := b.dial(ctx); err != nil {
			b.log.Warn("bridge reconnect failed", "error", err)
			continue
		}
		return
	}
}

// Close tears the connection down deliberately. Queued commands are
// discarded, not delivered on a later connection.
func (b *Bridge) Close() error {
	b.mu.Lock()
	b.closed = true
	b.queue = nil
	conn := b.conn
	b.conn = nil
	b.connected = false
	b.mu.Unlock()

	if conn != nil {
		return conn.Close(websocket.StatusNormalClosure, "client closing")
	}
	return nil
}

// Connected reports whether the bridge currently holds a live connection.
func (b *Bridge) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

// Synced returns a channel closed once the first init snapshot has been
// applied to the store. One-shot callers wait on it before reading state.
func (b *Bridge) Synced() <-chan struct{} { return b.synced }

// QueueLen reports how many commands are waiting for a connection.
func (b *Bridge) QueueLen() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// send delivers a command immediately when connected, otherwise queues it
// in arrival order.
func (b *Bridge) send(msg ws.Message) error {
	b.mu.Lock()
	conn := b.conn
	up := b.connected
	b.mu.Unlock()

	if !up {
		b.enqueue(msg)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := b.write(ctx, conn, msg); err != nil {
		b.enqueue(msg)
		return err
	}
	return nil
}

func (b *Bridge) write(ctx context.Context, conn *websocket.Conn, msg ws.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}

func (b *Bridge) enqueue(msg ws.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.queue = append(b.queue, msg)
}

// SpawnAgent asks the server to create a new agent session.
func (b *Bridge) SpawnAgent(name, classID, workingDir, initialPrompt string) error {
	msg, err := ws.NewMessage(ws.CmdAgentSpawn, ws.SpawnCommand{
		Name:          name,
		ClassID:       classID,
		WorkingDir:    workingDir,
		InitialPrompt: initialPrompt,
	})
	if err != nil {
		return err
	}
	return b.send(msg)
}

// SendInput delivers text to a live session. Implements state.InputSender.
func (b *Bridge) SendInput(agentID, text string) error {
	msg, err := ws.NewMessage(ws.CmdAgentInput, ws.InputCommand{AgentID: agentID, Text: text})
	if err != nil {
		return err
	}
	return b.send(msg)
}

// Kill terminates a session. Idempotent on the server side.
func (b *Bridge) Kill(agentID string) error {
	msg, err := ws.NewMessage(ws.CmdAgentKill, ws.KillCommand{AgentID: agentID})
	if err != nil {
		return err
	}
	return b.send(msg)
}

// Resize forwards a terminal resize.
func (b *Bridge) Resize(agentID string, cols, rows uint16) error {
	msg, err := ws.NewMessage(ws.CmdAgentResize, ws.ResizeCommand{AgentID: agentID, Cols: cols, Rows: rows})
	if err != nil {
		return err
	}
	return b.send(msg)
}

// RequestList asks for a fresh init snapshot.
func (b *Bridge) RequestList() error {
	return b.send(ws.Message{Type: ws.CmdAgentsList})
}

// handle dispatches one inbound server message into store actions.
func (b *Bridge) handle(msg ws.Message) {
	switch msg.Type {
	case ws.EventInit:
		var ev ws.InitEvent
		if !b.decode(msg, &ev) {
			return
		}
		for _, snap := range ev.Agents {
			b.store.SpawnAgent(b.seed(snap))
		}
		b.syncedOnce.Do(func() { close(b.synced) })

	case ws.EventAgentSpawned:
		var ev ws.AgentSpawnedEvent
		if !b.decode(msg, &ev) {
			return
		}
		b.store.SpawnAgent(b.seed(ev.Agent))

	case ws.EventAgentOutput:
		var ev ws.AgentOutputEvent
		if !b.decode(msg, &ev) {
			return
		}
		b.handleOutput(ev.AgentID, ev.Data)

	case ws.EventAgentStatus:
		var ev ws.AgentStatusEvent
		if !b.decode(msg, &ev) {
			return
		}
		b.store.ApplyStatus(ev.AgentID, agent.Status(ev.Status),
			agent.Activity(ev.Activity), ev.ActivityDetails, ev.GitBranch)

	case ws.EventAgentExit:
		var ev ws.AgentExitEvent
		if !b.decode(msg, &ev) {
			return
		}
		b.mu.Lock()
		delete(b.partial, ev.AgentID)
		b.mu.Unlock()
		b.store.MarkExited(ev.AgentID)
		b.log.Info("agent exited", "agent_id", ev.AgentID, "exit_code", ev.ExitCode)

	case ws.EventError:
		var ev ws.ErrorEvent
		if !b.decode(msg, &ev) {
			return
		}
		b.log.Warn("server error", "message", ev.Message)
		b.onNotice(ev.Message)

	default:
		b.log.Debug("unhandled message type", "type", msg.Type)
	}
}

// handleOutput ANSI-strips a raw chunk and feeds complete lines to the
// store; a trailing unterminated fragment is held until its newline
// arrives.
func (b *Bridge) handleOutput(agentID, data string) {
	clean := ansi.Strip(data)

	b.mu.Lock()
	clean = b.partial[agentID] + clean
	lines := strings.Split(clean, "\n")
	b.partial[agentID] = lines[len(lines)-1]
	complete := lines[:len(lines)-1]
	b.mu.Unlock()

	for _, line := range complete {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		b.store.AddTerminalOutput(agentID, line)
	}
}

// seed converts a wire snapshot into a store seed, inferring a class for
// agents this client did not spawn.
func (b *Bridge) seed(snap ws.AgentSnapshot) state.AgentSeed {
	class := snap.Class
	provider := snap.Provider
	if class == "" {
		c := agent.InferClass(snap.Name, snap.WorkingDirectory)
		class = c.ID
		provider = c.Provider
	}
	buffer := make([]string, 0, len(snap.Buffer))
	for _, line := range snap.Buffer {
		buffer = append(buffer, ansi.Strip(line))
	}
	return state.AgentSeed{
		ID:               snap.ID,
		Name:             snap.Name,
		Class:            class,
		Provider:         provider,
		WorkingDirectory: snap.WorkingDirectory,
		GitBranch:        snap.GitBranch,
		Status:           agent.Status(snap.Status),
		Activity:         agent.Activity(snap.Activity),
		Buffer:           buffer,
	}
}

func (b *Bridge) decode(msg ws.Message, dst any) bool {
	if err := json.Unmarshal(msg.Payload, dst); err != nil {
		b.log.Warn("bad payload", "type", msg.Type, "error", err)
		return false
	}
	return true
}
