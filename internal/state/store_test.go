package state_test

import (
	"context"
	"testing"
	"time"

	"github.com/Strob0t/AgentGuild/internal/domain"
	"github.com/Strob0t/AgentGuild/internal/domain/agent"
	"github.com/Strob0t/AgentGuild/internal/domain/quest"
	"github.com/Strob0t/AgentGuild/internal/port/store"
	"github.com/Strob0t/AgentGuild/internal/state"
)

// fakeClock is a settable clock for store tests.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

// memStore is an in-memory persistence fake.
type memStore struct {
	progressions map[string]store.Progression
	quests       map[string][]quest.Quest
	events       []memEvent
}

type memEvent struct {
	agentID string
	kind    string
	fields  map[string]string
}

func newMemStore() *memStore {
	return &memStore{
		progressions: make(map[string]store.Progression),
		quests:       make(map[string][]quest.Quest),
	}
}

func (m *memStore) SaveProgression(_ context.Context, p store.Progression) error {
	m.progressions[p.AgentName] = p
	return nil
}

func (m *memStore) LoadProgression(_ context.Context, name string) (*store.Progression, error) {
	p, ok := m.progressions[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (m *memStore) AppendQuest(_ context.Context, name string, q quest.Quest) error {
	m.quests[name] = append(m.quests[name], q)
	return nil
}

func (m *memStore) AppendEvent(_ context.Context, agentID, kind string, fields map[string]string) error {
	m.events = append(m.events, memEvent{agentID: agentID, kind: kind, fields: fields})
	return nil
}

func seed(id, name string) state.AgentSeed {
	return state.AgentSeed{
		ID:               id,
		Name:             name,
		Class:            "warrior",
		Provider:         "claude",
		WorkingDirectory: "/work/app",
		Status:           agent.StatusIdle,
		Activity:         agent.ActivityIdle,
	}
}

func TestSpawnAndSnapshot(t *testing.T) {
	s := state.New()
	s.SpawnAgent(seed("a1", "alpha"))
	s.SpawnAgent(seed("a2", "beta"))

	agents := s.Agents()
	if len(agents) != 2 {
		t.Fatalf("got %d agents, want 2", len(agents))
	}
	if agents[0].ID != "a1" || agents[1].ID != "a2" {
		t.Fatalf("spawn order not preserved: %s, %s", agents[0].ID, agents[1].ID)
	}

	a, ok := s.Agent("a1")
	if !ok {
		t.Fatal("a1 not found")
	}
	if a.Level != 1 || a.Status != agent.StatusIdle {
		t.Fatalf("fresh agent: level=%d status=%q", a.Level, a.Status)
	}
	if a.ContextLimit != 200_000 {
		t.Fatalf("claude context limit = %d, want 200000", a.ContextLimit)
	}
}

func TestSpawnDuplicateIDIgnored(t *testing.T) {
	s := state.New()
	s.SpawnAgent(seed("a1", "alpha"))
	s.SpawnAgent(seed("a1", "impostor"))

	a, _ := s.Agent("a1")
	if a.Name != "alpha" {
		t.Fatalf("duplicate spawn overwrote agent: %q", a.Name)
	}
}

func TestExitedIDNeverResurrected(t *testing.T) {
	s := state.New()
	s.SpawnAgent(seed("a1", "alpha"))
	s.MarkExited("a1")

	s.SpawnAgent(seed("a1", "alpha"))
	if _, ok := s.Agent("a1"); ok {
		t.Fatal("exited id was resurrected")
	}

	// Same name under a fresh id is fine.
	s.SpawnAgent(seed("a9", "alpha"))
	if _, ok := s.Agent("a9"); !ok {
		t.Fatal("fresh id for a reused name should spawn")
	}
}

func TestRemoveIsViewLocalOnly(t *testing.T) {
	s := state.New()
	s.SpawnAgent(seed("a1", "alpha"))
	s.RemoveAgent("a1")

	// RemoveAgent implies nothing about the process, so the id stays usable.
	s.SpawnAgent(seed("a1", "alpha"))
	if _, ok := s.Agent("a1"); !ok {
		t.Fatal("removed (not exited) id should spawn again")
	}
}

func TestOutputClassificationProjectsStatus(t *testing.T) {
	s := state.New()
	s.SpawnAgent(seed("a1", "alpha"))

	s.AddTerminalOutput("a1", "Writing changes to handler.go")
	a, _ := s.Agent("a1")
	if a.Activity != agent.ActivityWriting {
		t.Fatalf("activity = %q, want writing", a.Activity)
	}
	if a.Status != agent.StatusWorking {
		t.Fatalf("status = %q, want working", a.Status)
	}

	s.AddTerminalOutput("a1", "Overwrite file? [y/n]")
	a, _ = s.Agent("a1")
	if a.Status != agent.StatusWaiting {
		t.Fatalf("status = %q, want waiting", a.Status)
	}
	if !a.NeedsAttention || a.AttentionReason != agent.AttentionWaitingInput {
		t.Fatalf("attention = (%v, %q), want waiting_input", a.NeedsAttention, a.AttentionReason)
	}
}

func TestAttentionKeepsOriginalReason(t *testing.T) {
	s := state.New()
	s.SpawnAgent(seed("a1", "alpha"))

	s.AddTerminalOutput("a1", "Continue? [y/n]")
	s.AddTerminalOutput("a1", "Error: something else broke")

	a, _ := s.Agent("a1")
	if a.AttentionReason != agent.AttentionWaitingInput {
		t.Fatalf("reason = %q, want original waiting_input", a.AttentionReason)
	}

	s.ResolveAttention("a1")
	a, _ = s.Agent("a1")
	if a.NeedsAttention {
		t.Fatal("attention not cleared")
	}
}

func TestProgressGauges(t *testing.T) {
	s := state.New()
	s.SpawnAgent(seed("a1", "alpha"))

	s.AddTerminalOutput("a1", "context: 100,000/200,000")
	a, _ := s.Agent("a1")
	if a.ContextTokens != 100_000 || a.ContextLimit != 200_000 {
		t.Fatalf("context = %d/%d", a.ContextTokens, a.ContextLimit)
	}
	if a.UsagePercent != 50 {
		t.Fatalf("usage = %v, want 50", a.UsagePercent)
	}

	s.AddTerminalOutput("a1", "Running tests 3/10 passing")
	a, _ = s.Agent("a1")
	if a.TaskProgress == nil || a.TaskProgress.Current != 3 || a.TaskProgress.Total != 10 {
		t.Fatalf("task progress = %+v", a.TaskProgress)
	}
}

func TestTerminalBufferRetention(t *testing.T) {
	s := state.New()
	s.SpawnAgent(seed("a1", "alpha"))
	s.AddTerminalOutput("a1", "first line of prose")
	s.AddTerminalOutput("a1", "second line of prose")

	lines := s.TerminalLines("a1")
	if len(lines) != 2 || lines[0] != "first line of prose" {
		t.Fatalf("lines = %v", lines)
	}
	if got := s.TerminalLines("nope"); got != nil {
		t.Fatalf("unknown agent lines = %v, want nil", got)
	}
}

func TestIdleSweep(t *testing.T) {
	clk := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := state.New(state.WithClock(clk.now), state.WithIdleThreshold(5*time.Minute))
	s.SpawnAgent(seed("a1", "alpha"))

	if flagged := s.SweepIdle(); len(flagged) != 0 {
		t.Fatalf("flagged before threshold: %v", flagged)
	}

	clk.advance(6 * time.Minute)
	flagged := s.SweepIdle()
	if len(flagged) != 1 || flagged[0] != "a1" {
		t.Fatalf("flagged = %v, want [a1]", flagged)
	}
	a, _ := s.Agent("a1")
	if a.AttentionReason != agent.AttentionIdleTimeout {
		t.Fatalf("reason = %q, want idle_timeout", a.AttentionReason)
	}

	// An already-flagged agent is not flagged again.
	clk.advance(6 * time.Minute)
	if flagged := s.SweepIdle(); len(flagged) != 0 {
		t.Fatalf("re-flagged: %v", flagged)
	}
}

func TestIdleSweepSkipsActiveAgents(t *testing.T) {
	clk := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := state.New(state.WithClock(clk.now), state.WithIdleThreshold(5*time.Minute))
	s.SpawnAgent(seed("a1", "alpha"))

	// Activity clears the idle-since snapshot.
	clk.advance(4 * time.Minute)
	s.AddTerminalOutput("a1", "Writing changes to handler.go")

	clk.advance(2 * time.Minute)
	if flagged := s.SweepIdle(); len(flagged) != 0 {
		t.Fatalf("working agent flagged idle: %v", flagged)
	}
}

func TestIdleSweepSkipsAgentOnQuest(t *testing.T) {
	clk := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := state.New(state.WithClock(clk.now), state.WithIdleThreshold(5*time.Minute))
	s.SpawnAgent(seed("a1", "alpha"))

	// Starting a quest moves status to working without any terminal
	// output, so the activity label stays idle.
	clk.advance(4 * time.Minute)
	if _, err := s.StartQuest("a1", "task"); err != nil {
		t.Fatal(err)
	}

	clk.advance(2 * time.Minute)
	if flagged := s.SweepIdle(); len(flagged) != 0 {
		t.Fatalf("agent on a quest flagged idle: %v", flagged)
	}
	a, _ := s.Agent("a1")
	if a.NeedsAttention {
		t.Fatalf("attention raised on a working agent: %q", a.AttentionReason)
	}
}

func TestProgressionRestoredByName(t *testing.T) {
	mem := newMemStore()
	mem.progressions["alpha"] = store.Progression{
		AgentName:  "alpha",
		Level:      3,
		Experience: 350,
		Points:     2,
		Allocated:  map[string]int{"war_focus": 2},
	}

	s := state.New(state.WithPersistence(mem))
	s.SpawnAgent(seed("a1", "alpha"))

	a, _ := s.Agent("a1")
	if a.Level != 3 || a.Experience != 350 || a.Talents.Points != 2 {
		t.Fatalf("progression not restored: level=%d xp=%d points=%d", a.Level, a.Experience, a.Talents.Points)
	}
	if a.Talents.Allocated["war_focus"] != 2 {
		t.Fatalf("allocation not restored: %v", a.Talents.Allocated)
	}
}

func TestLifecycleEventsPersisted(t *testing.T) {
	mem := newMemStore()
	s := state.New(state.WithPersistence(mem))

	s.SpawnAgent(seed("a1", "alpha"))
	q, err := s.StartQuest("a1", "task")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.CompleteQuest("a1"); err != nil {
		t.Fatal(err)
	}
	if err := s.ApproveQuest("a1"); err != nil {
		t.Fatal(err)
	}
	s.MarkExited("a1")

	want := []string{"spawned", "quest_started", "quest_completed", "quest_approved", "exited"}
	if len(mem.events) != len(want) {
		t.Fatalf("got %d events, want %d: %+v", len(mem.events), len(want), mem.events)
	}
	for i, kind := range want {
		ev := mem.events[i]
		if ev.kind != kind {
			t.Fatalf("event %d = %q, want %q", i, ev.kind, kind)
		}
		if ev.agentID != "a1" {
			t.Fatalf("event %d agent = %q, want a1", i, ev.agentID)
		}
	}
	if mem.events[0].fields["class"] != "warrior" {
		t.Fatalf("spawned fields = %v", mem.events[0].fields)
	}
	if mem.events[1].fields["quest_id"] != q.ID {
		t.Fatalf("quest_started fields = %v, want quest %s", mem.events[1].fields, q.ID)
	}
}

func TestSubscribeReceivesEvents(t *testing.T) {
	s := state.New()
	var got []state.Event
	s.Subscribe(func(ev state.Event) { got = append(got, ev) })

	s.SpawnAgent(seed("a1", "alpha"))
	s.AddTerminalOutput("a1", "plain prose line")

	if len(got) < 2 {
		t.Fatalf("got %d events, want at least 2", len(got))
	}
	if got[0].Type != state.EventAgentAdded {
		t.Fatalf("first event = %q, want agent_added", got[0].Type)
	}
	if got[1].Type != state.EventOutputAppended {
		t.Fatalf("second event = %q, want output_appended", got[1].Type)
	}
}
