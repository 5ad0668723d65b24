// Package state holds the authoritative client-side model of every agent.
// All mutation goes through action methods on the single-writer Store;
// presentation layers read snapshots and subscribe to change events, and
// never reach into the bridge or supervisor directly.
package state

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Strob0t/AgentGuild/internal/classifier"
	"github.com/Strob0t/AgentGuild/internal/domain/agent"
	"github.com/Strob0t/AgentGuild/internal/domain/quest"
	"github.com/Strob0t/AgentGuild/internal/port/store"
)

// Action errors. All of them fail the specific operation and leave the rest
// of the system operable.
var (
	ErrAgentNotFound = errors.New("agent not found")
	ErrQuestActive   = errors.New("agent already has an active quest")
	ErrNoActiveQuest = errors.New("agent has no active quest")
)

// Event describes one store mutation for subscribers.
type Event struct {
	Type    string
	AgentID string
}

// Event types delivered to subscribers.
const (
	EventAgentAdded    = "agent_added"
	EventAgentRemoved  = "agent_removed"
	EventAgentUpdated  = "agent_updated"
	EventOutputAppended = "output_appended"
	EventQuestChanged  = "quest_changed"
	EventAttention     = "attention"
)

// InputSender delivers text to a live agent session. The bridge implements
// it; quest rejection uses it to turn review feedback into a real
// instruction to the running CLI.
type InputSender interface {
	SendInput(agentID, text string) error
}

// AgentSeed is the bridge-facing description of an agent to materialize
// locally, typically built from an init or agent:spawned message.
type AgentSeed struct {
	ID               string
	Name             string
	Class            string
	Provider         string
	WorkingDirectory string
	GitBranch        string
	Status           agent.Status
	Activity         agent.Activity
	Buffer           []string
}

// Store is the agent state store. The zero value is not usable; use New.
type Store struct {
	mu        sync.Mutex
	agents    map[string]*agent.Agent
	order     []string
	buffers   map[string]*agent.TerminalBuffer
	idleSince map[string]time.Time
	removed   map[string]struct{}

	cls           classifier.Classifier
	persist       store.Store // optional
	input         InputSender // optional
	idleThreshold time.Duration
	now           func() time.Time

	subMu sync.RWMutex
	subs  []func(Event)
}

// Option configures a Store.
type Option func(*Store)

// WithPersistence attaches a durable progression store.
func WithPersistence(p store.Store) Option { return func(s *Store) { s.persist = p } }

// WithInputSender attaches the live-session input path.
func WithInputSender(in InputSender) Option { return func(s *Store) { s.input = in } }

// SetInputSender wires the input path after construction. The store and the
// bridge reference each other, so one side attaches late.
func (s *Store) SetInputSender(in InputSender) {
	s.mu.Lock()
	s.input = in
	s.mu.Unlock()
}

// WithIdleThreshold overrides the idle-timeout attention threshold.
func WithIdleThreshold(d time.Duration) Option { return func(s *Store) { s.idleThreshold = d } }

// WithClock injects a clock for tests.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// WithClassifier swaps the output classification strategy.
func WithClassifier(c classifier.Classifier) Option { return func(s *Store) { s.cls = c } }

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		agents:        make(map[string]*agent.Agent),
		buffers:       make(map[string]*agent.TerminalBuffer),
		idleSince:     make(map[string]time.Time),
		removed:       make(map[string]struct{}),
		cls:           classifier.NewRegex(),
		idleThreshold: 5 * time.Minute,
		now:           time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Subscribe registers a change listener. Listeners run outside the store
// lock and must not mutate the store re-entrantly from the callback.
func (s *Store) Subscribe(fn func(Event)) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subs = append(s.subs, fn)
}

func (s *Store) notify(events ...Event) {
	s.subMu.RLock()
	subs := make([]func(Event), len(s.subs))
	copy(subs, s.subs)
	s.subMu.RUnlock()
	for _, ev := range events {
		for _, fn := range subs {
			fn(ev)
		}
	}
}

// SpawnAgent materializes a local agent record. Ids that have exited are
// never resurrected: a repeated id is ignored, and a repeated name gets a
// fresh record. Persisted progression, when available, is restored by name.
func (s *Store) SpawnAgent(seed AgentSeed) {
	s.mu.Lock()
	if _, gone := s.removed[seed.ID]; gone {
		s.mu.Unlock()
		return
	}
	if _, exists := s.agents[seed.ID]; exists {
		s.mu.Unlock()
		return
	}

	now := s.now()
	status := seed.Status
	if status == "" {
		status = agent.StatusSpawning
	}
	activity := seed.Activity
	if activity == "" {
		activity = agent.ActivityIdle
	}

	a := &agent.Agent{
		ID:                seed.ID,
		Name:              seed.Name,
		Class:             seed.Class,
		Provider:          seed.Provider,
		WorkingDirectory:  seed.WorkingDirectory,
		GitBranch:         seed.GitBranch,
		Status:            status,
		Activity:          activity,
		ActivityStartedAt: now,
		ContextLimit:      contextLimitFor(seed.Provider),
		Level:             1,
		Talents:           agent.TalentState{Allocated: make(map[string]int)},
		CreatedAt:         now,
	}
	s.restoreProgression(a)

	s.agents[a.ID] = a
	s.order = append(s.order, a.ID)
	buf := agent.NewTerminalBuffer()
	for _, line := range seed.Buffer {
		buf.Append(line)
	}
	s.buffers[a.ID] = buf
	if activity == agent.ActivityIdle {
		s.idleSince[a.ID] = now
	}
	s.mu.Unlock()

	s.appendEvent(a.ID, "spawned", map[string]string{"name": a.Name, "class": a.Class})
	s.notify(Event{Type: EventAgentAdded, AgentID: seed.ID})
}

// RemoveAgent drops an agent from the local view only. It implies nothing
// about the underlying process; only MarkExited does.
func (s *Store) RemoveAgent(id string) {
	s.mu.Lock()
	_, ok := s.agents[id]
	s.deleteLocked(id)
	s.mu.Unlock()
	if ok {
		s.notify(Event{Type: EventAgentRemoved, AgentID: id})
	}
}

// MarkExited handles the authoritative exit notification: the agent is
// removed and its id can never be used again.
func (s *Store) MarkExited(id string) {
	s.mu.Lock()
	_, ok := s.agents[id]
	s.deleteLocked(id)
	s.removed[id] = struct{}{}
	s.mu.Unlock()
	if ok {
		s.appendEvent(id, "exited", nil)
		s.notify(Event{Type: EventAgentRemoved, AgentID: id})
	}
}

func (s *Store) deleteLocked(id string) {
	delete(s.agents, id)
	delete(s.buffers, id)
	delete(s.idleSince, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// AddTerminalOutput appends one ANSI-stripped output line and applies every
// derived projection: activity classification, the status projection,
// display gauges, artifact tracking and the quest completion heuristic.
func (s *Store) AddTerminalOutput(id, line string) {
	s.mu.Lock()
	a, ok := s.agents[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	buf, ok := s.buffers[id]
	if !ok {
		buf = agent.NewTerminalBuffer()
		s.buffers[id] = buf
	}
	buf.Append(line)

	events := []Event{{Type: EventOutputAppended, AgentID: id}}

	if act, matched := s.cls.Classify(line); matched {
		s.applyActivityLocked(a, act, strings.TrimSpace(line))
		if st, project := classifier.ProjectStatus(act, a.Status); project {
			s.setStatusLocked(a, st)
		}
		events = append(events, Event{Type: EventAgentUpdated, AgentID: id})
	}

	// Display-only numeric projections; never alter classification.
	if u := classifier.ExtractProgress(line); !u.Empty() {
		if u.Task != nil {
			a.TaskProgress = u.Task
		}
		if u.HasContext {
			a.ContextTokens = u.ContextTokens
			if u.ContextLimit > 0 {
				a.ContextLimit = u.ContextLimit
			}
			if a.ContextLimit > 0 {
				a.UsagePercent = 100 * float64(a.ContextTokens) / float64(a.ContextLimit)
			}
		}
		if u.HasUsage {
			a.UsagePercent = u.UsagePercent
		}
		events = append(events, Event{Type: EventAgentUpdated, AgentID: id})
	}

	if art, found := classifier.ExtractArtifact(line, s.now()); found {
		a.Files = append(a.Files, *art)
		if a.CurrentQuest != nil && a.CurrentQuest.Active() {
			a.CurrentQuest.ProducedFiles = append(a.CurrentQuest.ProducedFiles, art.Path)
		}
	}

	var completedQuestID string
	if a.CurrentQuest != nil && a.CurrentQuest.Status == quest.StatusInProgress && classifier.IsCompletion(line) {
		if err := s.completeQuestLocked(a); err == nil {
			completedQuestID = a.CurrentQuest.ID
			events = append(events, Event{Type: EventQuestChanged, AgentID: id},
				Event{Type: EventAttention, AgentID: id})
		}
	}
	s.mu.Unlock()

	if completedQuestID != "" {
		s.appendEvent(id, "quest_completed", map[string]string{"quest_id": completedQuestID})
	}
	s.notify(events...)
}

// ApplyStatus applies a server-reported status/activity change through the
// same single authority as local projections.
func (s *Store) ApplyStatus(id string, st agent.Status, act agent.Activity, details, gitBranch string) {
	s.mu.Lock()
	a, ok := s.agents[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	if act != "" {
		s.applyActivityLocked(a, act, details)
	}
	if st != "" {
		s.setStatusLocked(a, st)
	}
	if gitBranch != "" {
		a.GitBranch = gitBranch
	}
	s.mu.Unlock()

	s.notify(Event{Type: EventAgentUpdated, AgentID: id})
}

// UpdateAgentStatus is the public status-update action; all status writes
// funnel through the same internal authority.
func (s *Store) UpdateAgentStatus(id string, st agent.Status) error {
	s.mu.Lock()
	a, ok := s.agents[id]
	if !ok {
		s.mu.Unlock()
		return ErrAgentNotFound
	}
	applied := s.setStatusLocked(a, st)
	s.mu.Unlock()

	if applied {
		s.notify(Event{Type: EventAgentUpdated, AgentID: id})
	}
	return nil
}

// setStatusLocked is the single authority for status and its attention
// side-effects. Disallowed transitions are logged and dropped.
func (s *Store) setStatusLocked(a *agent.Agent, st agent.Status) bool {
	if !agent.CanTransition(a.Status, st) {
		slog.Debug("status transition rejected", "agent_id", a.ID, "from", a.Status, "to", st)
		return false
	}
	if a.Status == st {
		return false
	}
	a.Status = st

	// Only an idle agent accumulates idle time; any other status
	// invalidates the captured idle-since snapshot.
	if st != agent.StatusIdle {
		delete(s.idleSince, a.ID)
	}

	switch st {
	case agent.StatusWaiting:
		s.raiseAttentionLocked(a, agent.AttentionWaitingInput)
	case agent.StatusError:
		s.raiseAttentionLocked(a, agent.AttentionError)
	case agent.StatusIdle:
		if _, ok := s.idleSince[a.ID]; !ok {
			s.idleSince[a.ID] = s.now()
		}
	}
	return true
}

// applyActivityLocked updates the fine-grained activity label and captures
// the idle-since snapshot the sweep reads later.
func (s *Store) applyActivityLocked(a *agent.Agent, act agent.Activity, details string) {
	if a.Activity != act {
		a.Activity = act
		a.ActivityStartedAt = s.now()
	}
	if details != "" {
		a.ActivityDetails = truncate(details, 120)
	}
	if act == agent.ActivityIdle {
		if _, ok := s.idleSince[a.ID]; !ok {
			s.idleSince[a.ID] = s.now()
		}
	} else {
		delete(s.idleSince, a.ID)
	}
}

// raiseAttentionLocked flags the agent the instant a condition becomes
// true. An already-flagged agent keeps its original reason and timestamp.
func (s *Store) raiseAttentionLocked(a *agent.Agent, reason agent.AttentionReason) {
	if a.NeedsAttention {
		return
	}
	a.NeedsAttention = true
	a.AttentionReason = reason
	a.AttentionSince = s.now()
}

func (s *Store) clearAttentionLocked(a *agent.Agent) {
	a.NeedsAttention = false
	a.AttentionReason = ""
	a.AttentionSince = time.Time{}
}

// ResolveAttention explicitly clears the attention flag, e.g. after the
// operator has looked at the agent or sent it input.
func (s *Store) ResolveAttention(id string) {
	s.mu.Lock()
	a, ok := s.agents[id]
	if ok {
		s.clearAttentionLocked(a)
	}
	s.mu.Unlock()
	if ok {
		s.notify(Event{Type: EventAttention, AgentID: id})
	}
}

// Agent returns a deep copy of one agent.
func (s *Store) Agent(id string) (*agent.Agent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[id]
	if !ok {
		return nil, false
	}
	return a.Clone(), true
}

// Agents returns deep copies of all agents in spawn order.
func (s *Store) Agents() []*agent.Agent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*agent.Agent, 0, len(s.order))
	for _, id := range s.order {
		if a, ok := s.agents[id]; ok {
			out = append(out, a.Clone())
		}
	}
	return out
}

// TerminalLines returns the retained output lines for one agent.
func (s *Store) TerminalLines(id string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf, ok := s.buffers[id]
	if !ok {
		return nil
	}
	return buf.Lines()
}

func (s *Store) restoreProgression(a *agent.Agent) {
	if s.persist == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	p, err := s.persist.LoadProgression(ctx, a.Name)
	if err != nil {
		return
	}
	a.Level = p.Level
	a.Experience = p.Experience
	a.Talents.Points = p.Points
	for k, v := range p.Allocated {
		a.Talents.Allocated[k] = v
	}
}

func (s *Store) saveProgression(a *agent.Agent) {
	if s.persist == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	allocated := make(map[string]int, len(a.Talents.Allocated))
	for k, v := range a.Talents.Allocated {
		allocated[k] = v
	}
	err := s.persist.SaveProgression(ctx, store.Progression{
		AgentName:  a.Name,
		Level:      a.Level,
		Experience: a.Experience,
		Points:     a.Talents.Points,
		Allocated:  allocated,
	})
	if err != nil {
		slog.Warn("progression save failed", "agent", a.Name, "error", err)
	}
}

// appendEvent records a lifecycle event in the durable store. Best-effort,
// like every other persistence write.
func (s *Store) appendEvent(agentID, kind string, fields map[string]string) {
	if s.persist == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.persist.AppendEvent(ctx, agentID, kind, fields); err != nil {
		slog.Warn("lifecycle event append failed", "agent_id", agentID, "kind", kind, "error", err)
	}
}

func contextLimitFor(provider string) int {
	switch provider {
	case "gemini":
		return 1_000_000
	default:
		return 200_000
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
