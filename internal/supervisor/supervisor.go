// Package supervisor owns the collection of live agent sessions. It is the
// only component allowed to create or terminate a real process.
package supervisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/AgentGuild/internal/adapter/otel"
	"github.com/Strob0t/AgentGuild/internal/adapter/ws"
	"github.com/Strob0t/AgentGuild/internal/ansi"
	"github.com/Strob0t/AgentGuild/internal/classifier"
	"github.com/Strob0t/AgentGuild/internal/domain"
	"github.com/Strob0t/AgentGuild/internal/domain/agent"
	"github.com/Strob0t/AgentGuild/internal/git"
	"github.com/Strob0t/AgentGuild/internal/port/broadcast"
	"github.com/Strob0t/AgentGuild/internal/port/messagequeue"
	"github.com/Strob0t/AgentGuild/internal/port/session"
)

// Config tunes session startup behavior.
type Config struct {
	// SettleDelay is how long to wait after spawning the shell before
	// writing the class CLI invocation. The shell prompt is not guaranteed
	// ready the instant the process starts; this is a best-effort
	// heuristic, not a handshake.
	SettleDelay time.Duration
	// PromptDelay is the additional wait before an initial prompt is
	// written, giving the CLI itself time to start.
	PromptDelay time.Duration

	DefaultCols uint16
	DefaultRows uint16

	GitSampleInterval time.Duration
}

func (c *Config) defaults() {
	if c.SettleDelay <= 0 {
		c.SettleDelay = 2 * time.Second
	}
	if c.PromptDelay <= 0 {
		c.PromptDelay = 3 * time.Second
	}
	if c.DefaultCols == 0 {
		c.DefaultCols = 120
	}
	if c.DefaultRows == 0 {
		c.DefaultRows = 32
	}
	if c.GitSampleInterval <= 0 {
		c.GitSampleInterval = 30 * time.Second
	}
}

// SpawnRequest describes one new agent session.
type SpawnRequest struct {
	Name          string
	ClassID       string
	WorkingDir    string
	InitialPrompt string
}

// Supervisor multiplexes any number of live sessions without blocking on
// any one session's I/O. Sessions never share mutable state, so there is a
// per-session lock but no cross-session lock.
type Supervisor struct {
	cfg     Config
	starter session.Starter
	hub     broadcast.Broadcaster
	queue   messagequeue.Queue // optional event mirror, may be nil
	cls     classifier.Classifier
	sampler *git.Sampler  // optional, may be nil
	metrics *otel.Metrics // optional, may be nil

	mu       sync.RWMutex
	sessions map[string]*managed
	order    []string
}

// managed pairs one session with the server-side view of its agent.
type managed struct {
	mu sync.Mutex

	id       string
	name     string
	class    agent.Class
	dir      string
	branch   string
	status   agent.Status
	activity agent.Activity
	details  string
	buf      *agent.TerminalBuffer

	sess        session.Session
	settleTimer *time.Timer
	promptTimer *time.Timer
}

// New creates a Supervisor. queue, sampler and metrics are optional.
func New(cfg Config, starter session.Starter, hub broadcast.Broadcaster, queue messagequeue.Queue, sampler *git.Sampler, metrics *otel.Metrics) *Supervisor {
	cfg.defaults()
	if hub == nil {
		hub = broadcast.Nop{}
	}
	return &Supervisor{
		cfg:      cfg,
		starter:  starter,
		hub:      hub,
		queue:    queue,
		cls:      classifier.NewRegex(),
		sampler:  sampler,
		metrics:  metrics,
		sessions: make(map[string]*managed),
	}
}

// SetClassifier swaps the classification strategy. Intended for tests.
func (s *Supervisor) SetClassifier(c classifier.Classifier) { s.cls = c }

// Spawn validates the request, allocates a PTY session and schedules the
// class CLI invocation after the settle delay. Returns the new agent id.
func (s *Supervisor) Spawn(ctx context.Context, req SpawnRequest) (string, error) {
	dir, err := expandHome(req.WorkingDir)
	if err != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrInvalidWorkingDirectory, req.WorkingDir)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", domain.ErrInvalidWorkingDirectory, dir)
	}

	class, ok := agent.ClassByID(req.ClassID)
	if !ok {
		return "", fmt.Errorf("%w: %s", agent.ErrUnknownClass, req.ClassID)
	}

	sess, err := s.starter.Start(ctx, session.Options{
		Dir:  dir,
		Cols: s.cfg.DefaultCols,
		Rows: s.cfg.DefaultRows,
	})
	if err != nil {
		return "", fmt.Errorf("spawn session: %w", err)
	}

	m := &managed{
		id:       uuid.NewString(),
		name:     req.Name,
		class:    class,
		dir:      dir,
		status:   agent.StatusSpawning,
		activity: agent.ActivityIdle,
		buf:      agent.NewTerminalBuffer(),
		sess:     sess,
	}

	s.mu.Lock()
	s.sessions[m.id] = m
	s.order = append(s.order, m.id)
	s.mu.Unlock()

	slog.Info("agent spawned", "agent_id", m.id, "name", m.name, "class", class.ID, "dir", dir)
	if s.metrics != nil {
		s.metrics.SessionsSpawned.Add(ctx, 1)
	}

	s.emit(ws.EventAgentSpawned, ws.AgentSpawnedEvent{Agent: s.snapshotLocked(m)})

	m.settleTimer = time.AfterFunc(s.cfg.SettleDelay, func() {
		if err := sess.Write([]byte(class.Invocation + "\r")); err != nil {
			slog.Warn("cli invocation write failed", "agent_id", m.id, "error", err)
		}
		s.settle(m)
	})
	if req.InitialPrompt != "" {
		prompt := req.InitialPrompt
		m.promptTimer = time.AfterFunc(s.cfg.SettleDelay+s.cfg.PromptDelay, func() {
			if err := sess.Write([]byte(prompt + "\r")); err != nil {
				slog.Warn("initial prompt write failed", "agent_id", m.id, "error", err)
			}
		})
	}

	go s.outputLoop(m)
	go s.exitLoop(m)

	return m.id, nil
}

// settle moves a still-spawning agent to idle once the settle window closed.
func (s *Supervisor) settle(m *managed) {
	m.mu.Lock()
	changed := m.status == agent.StatusSpawning
	if changed {
		m.status = agent.StatusIdle
		m.activity = agent.ActivityIdle
	}
	ev := ws.AgentStatusEvent{
		AgentID:  m.id,
		Status:   string(m.status),
		Activity: string(m.activity),
	}
	m.mu.Unlock()
	if changed {
		s.emit(ws.EventAgentStatus, ev)
	}
}

// SendInput writes text plus a line terminator to the target session.
// A missing session is logged, not fatal.
func (s *Supervisor) SendInput(id, text string) error {
	m := s.get(id)
	if m == nil {
		slog.Warn("input for unknown session", "agent_id", id)
		return nil
	}
	if err := m.sess.Write([]byte(text + "\r")); err != nil {
		return fmt.Errorf("send input: %w", err)
	}
	return nil
}

// Resize forwards a terminal resize to the session's PTY.
func (s *Supervisor) Resize(id string, cols, rows uint16) error {
	m := s.get(id)
	if m == nil {
		slog.Warn("resize for unknown session", "agent_id", id)
		return nil
	}
	return m.sess.Resize(cols, rows)
}

// Kill terminates the session's process. Idempotent: killing twice, or
// killing an already-exited session, is not an error. Removal and the exit
// notification happen in exitLoop off the OS-level exit event.
func (s *Supervisor) Kill(id string) error {
	m := s.get(id)
	if m == nil {
		return nil
	}
	return m.sess.Kill()
}

// Agents returns wire snapshots of all live sessions in spawn order.
func (s *Supervisor) Agents() []ws.AgentSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ws.AgentSnapshot, 0, len(s.order))
	for _, id := range s.order {
		m, ok := s.sessions[id]
		if !ok {
			continue
		}
		out = append(out, s.snapshotLocked(m))
	}
	return out
}

// Shutdown kills every live session.
func (s *Supervisor) Shutdown() {
	for _, snap := range s.Agents() {
		_ = s.Kill(snap.ID)
	}
}

// RunGitSampler periodically samples git metadata for every session's
// working directory. Failures are swallowed; the fields stay empty.
func (s *Supervisor) RunGitSampler(ctx context.Context) error {
	if s.sampler == nil {
		return nil
	}
	ticker := time.NewTicker(s.cfg.GitSampleInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sampleGit(ctx)
		}
	}
}

func (s *Supervisor) sampleGit(ctx context.Context) {
	for _, m := range s.all() {
		meta, err := s.sampler.Sample(ctx, m.dir)
		if err != nil {
			slog.Debug("git sample failed", "dir", m.dir, "error", err)
			continue
		}
		m.mu.Lock()
		changed := m.branch != meta.Branch
		m.branch = meta.Branch
		ev := ws.AgentStatusEvent{
			AgentID:   m.id,
			Status:    string(m.status),
			Activity:  string(m.activity),
			GitBranch: m.branch,
		}
		m.mu.Unlock()
		if changed {
			s.emit(ws.EventAgentStatus, ev)
		}
	}
}

// outputLoop drains one session's output: each raw chunk is broadcast
// as-is, and completed lines are fed through the classifier.
func (s *Supervisor) outputLoop(m *managed) {
	var pending string
	for chunk := range m.sess.Output() {
		text := string(chunk)
		s.emit(ws.EventAgentOutput, ws.AgentOutputEvent{AgentID: m.id, Data: text})

		pending += text
		lines := strings.Split(pending, "\n")
		pending = lines[len(lines)-1]
		for _, line := range lines[:len(lines)-1] {
			s.handleLine(m, strings.TrimSuffix(line, "\r"))
		}
	}
	if pending != "" {
		s.handleLine(m, pending)
	}
}

// handleLine records the line and applies the classifier projection, the
// only automatic status transition in the system.
func (s *Supervisor) handleLine(m *managed, line string) {
	if s.metrics != nil {
		s.metrics.LinesClassified.Add(context.Background(), 1)
	}

	clean := ansi.Strip(line)

	m.mu.Lock()
	m.buf.Append(line)

	act, ok := s.cls.Classify(clean)
	if !ok {
		m.mu.Unlock()
		return
	}

	changed := false
	if act != m.activity {
		m.activity = act
		m.details = truncate(strings.TrimSpace(clean), 120)
		changed = true
	}
	if st, project := classifier.ProjectStatus(act, m.status); project {
		if agent.CanTransition(m.status, st) {
			if m.status != st {
				changed = true
			}
			m.status = st
		} else {
			slog.Debug("status transition rejected",
				"agent_id", m.id, "from", m.status, "to", st)
		}
	}
	ev := ws.AgentStatusEvent{
		AgentID:         m.id,
		Status:          string(m.status),
		Activity:        string(m.activity),
		ActivityDetails: m.details,
		GitBranch:       m.branch,
	}
	m.mu.Unlock()

	if changed {
		s.emit(ws.EventAgentStatus, ev)
	}
}

// exitLoop waits for the OS-level exit event, removes the session and emits
// exactly one exit notification. All other removal paths are view-local and
// never imply process death.
func (s *Supervisor) exitLoop(m *managed) {
	<-m.sess.Done()

	if m.settleTimer != nil {
		m.settleTimer.Stop()
	}
	if m.promptTimer != nil {
		m.promptTimer.Stop()
	}

	s.mu.Lock()
	_, present := s.sessions[m.id]
	delete(s.sessions, m.id)
	s.mu.Unlock()

	if !present {
		return
	}

	slog.Info("agent exited", "agent_id", m.id, "name", m.name, "code", m.sess.ExitCode())
	if s.metrics != nil {
		s.metrics.SessionsExited.Add(context.Background(), 1)
	}
	s.emit(ws.EventAgentExit, ws.AgentExitEvent{AgentID: m.id, ExitCode: m.sess.ExitCode()})
}

// emit broadcasts an event to viewers and mirrors it to the queue when one
// is configured.
func (s *Supervisor) emit(eventType string, payload any) {
	ctx := context.Background()
	s.hub.BroadcastEvent(ctx, eventType, payload)
	if s.metrics != nil {
		s.metrics.EventsBroadcast.Add(ctx, 1)
	}
	if s.queue != nil {
		msg, err := ws.NewMessage(eventType, payload)
		if err != nil {
			return
		}
		data, err := json.Marshal(msg)
		if err != nil {
			return
		}
		if err := s.queue.Publish(ctx, subjectFor(eventType), data); err != nil {
			slog.Debug("event mirror publish failed", "type", eventType, "error", err)
		}
	}
}

func subjectFor(eventType string) string {
	switch eventType {
	case ws.EventAgentSpawned:
		return messagequeue.SubjectAgentSpawned
	case ws.EventAgentOutput:
		return messagequeue.SubjectAgentOutput
	case ws.EventAgentExit:
		return messagequeue.SubjectAgentExit
	default:
		return messagequeue.SubjectAgentStatus
	}
}

func (s *Supervisor) get(id string) *managed {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[id]
}

func (s *Supervisor) all() []*managed {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*managed, 0, len(s.sessions))
	for _, m := range s.sessions {
		out = append(out, m)
	}
	return out
}

// snapshotLocked builds a wire snapshot. Callers may hold s.mu; m.mu is
// taken here.
func (s *Supervisor) snapshotLocked(m *managed) ws.AgentSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return ws.AgentSnapshot{
		ID:               m.id,
		Name:             m.name,
		Class:            m.class.ID,
		Provider:         m.class.Provider,
		WorkingDirectory: m.dir,
		GitBranch:        m.branch,
		Status:           string(m.status),
		Activity:         string(m.activity),
		Buffer:           m.buf.Lines(),
	}
}

func expandHome(dir string) (string, error) {
	if dir == "" {
		return "", errors.New("empty path")
	}
	if dir == "~" || strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, strings.TrimPrefix(dir, "~")), nil
	}
	return filepath.Clean(dir), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
