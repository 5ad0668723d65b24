package state_test

import (
	"errors"
	"testing"

	"github.com/Strob0t/AgentGuild/internal/domain/agent"
	"github.com/Strob0t/AgentGuild/internal/domain/quest"
	"github.com/Strob0t/AgentGuild/internal/state"
)

// fakeInput records delivered input lines.
type fakeInput struct {
	sent []struct{ id, text string }
}

func (f *fakeInput) SendInput(agentID, text string) error {
	f.sent = append(f.sent, struct{ id, text string }{agentID, text})
	return nil
}

func TestStartQuestSingleSlot(t *testing.T) {
	s := state.New()
	s.SpawnAgent(seed("a1", "alpha"))

	q, err := s.StartQuest("a1", "wire the parser")
	if err != nil {
		t.Fatal(err)
	}
	if q.ID == "" || q.Status != quest.StatusInProgress {
		t.Fatalf("quest = %+v", q)
	}

	a, _ := s.Agent("a1")
	if a.Status != agent.StatusWorking {
		t.Fatalf("status = %q, want working", a.Status)
	}

	if _, err := s.StartQuest("a1", "second task"); !errors.Is(err, state.ErrQuestActive) {
		t.Fatalf("second StartQuest = %v, want ErrQuestActive", err)
	}
	if _, err := s.StartQuest("nope", "task"); !errors.Is(err, state.ErrAgentNotFound) {
		t.Fatalf("unknown agent = %v, want ErrAgentNotFound", err)
	}
}

func TestCompleteQuestFlagsReview(t *testing.T) {
	s := state.New()
	s.SpawnAgent(seed("a1", "alpha"))
	if _, err := s.StartQuest("a1", "task"); err != nil {
		t.Fatal(err)
	}
	if err := s.CompleteQuest("a1"); err != nil {
		t.Fatal(err)
	}

	a, _ := s.Agent("a1")
	if a.CurrentQuest.Status != quest.StatusPendingReview {
		t.Fatalf("quest status = %q, want pending_review", a.CurrentQuest.Status)
	}
	if a.Status != agent.StatusCompleted {
		t.Fatalf("agent status = %q, want completed", a.Status)
	}
	if !a.NeedsAttention || a.AttentionReason != agent.AttentionTaskComplete {
		t.Fatalf("attention = (%v, %q), want task_complete", a.NeedsAttention, a.AttentionReason)
	}

	if err := s.CompleteQuest("a1"); !errors.Is(err, quest.ErrBadTransition) {
		t.Fatalf("double complete = %v, want ErrBadTransition", err)
	}
}

func TestApproveQuestAwardsExperience(t *testing.T) {
	mem := newMemStore()
	s := state.New(state.WithPersistence(mem))
	s.SpawnAgent(seed("a1", "alpha"))

	if _, err := s.StartQuest("a1", "task"); err != nil {
		t.Fatal(err)
	}
	if err := s.CompleteQuest("a1"); err != nil {
		t.Fatal(err)
	}
	if err := s.ApproveQuest("a1"); err != nil {
		t.Fatal(err)
	}

	a, _ := s.Agent("a1")
	if a.Experience != agent.ExperiencePerQuest {
		t.Fatalf("xp = %d, want %d", a.Experience, agent.ExperiencePerQuest)
	}
	// The approval itself grants one point; 100 xp also crosses level 2.
	if a.Level != 2 || a.Talents.Points != 1 {
		t.Fatalf("level=%d points=%d, want 2 and 1", a.Level, a.Talents.Points)
	}
	if a.CurrentQuest != nil {
		t.Fatal("active slot not cleared after approval")
	}
	if len(a.CompletedQuests) != 1 || a.CompletedQuests[0].Status != quest.StatusApproved {
		t.Fatalf("history = %+v", a.CompletedQuests)
	}
	if a.NeedsAttention {
		t.Fatal("attention not cleared on approval")
	}
	if a.Status != agent.StatusIdle {
		t.Fatalf("status = %q, want idle", a.Status)
	}

	// Approval persists progression and appends the quest to history.
	p, ok := mem.progressions["alpha"]
	if !ok || p.Experience != agent.ExperiencePerQuest {
		t.Fatalf("persisted progression = %+v", p)
	}
	if len(mem.quests["alpha"]) != 1 {
		t.Fatalf("persisted history = %v", mem.quests["alpha"])
	}

	// The slot is free again.
	if _, err := s.StartQuest("a1", "next task"); err != nil {
		t.Fatal(err)
	}
}

func TestApproveQuestGrantsPointPerApproval(t *testing.T) {
	s := state.New()
	s.SpawnAgent(seed("a1", "alpha"))

	for i := range 2 {
		if _, err := s.StartQuest("a1", "task"); err != nil {
			t.Fatal(err)
		}
		if err := s.CompleteQuest("a1"); err != nil {
			t.Fatal(err)
		}
		if err := s.ApproveQuest("a1"); err != nil {
			t.Fatal(err)
		}
		a, _ := s.Agent("a1")
		if a.Talents.Points != i+1 {
			t.Fatalf("points after approval %d = %d, want %d", i+1, a.Talents.Points, i+1)
		}
	}

	// 200 xp stays below the level 3 threshold; the second point comes
	// from the approval, not from a level gain.
	a, _ := s.Agent("a1")
	if a.Level != 2 || a.Experience != 2*agent.ExperiencePerQuest {
		t.Fatalf("level=%d xp=%d, want 2 and %d", a.Level, a.Experience, 2*agent.ExperiencePerQuest)
	}
}

func TestRejectQuestDeliversFeedback(t *testing.T) {
	in := &fakeInput{}
	s := state.New(state.WithInputSender(in))
	s.SpawnAgent(seed("a1", "alpha"))

	q, err := s.StartQuest("a1", "task")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.CompleteQuest("a1"); err != nil {
		t.Fatal(err)
	}

	const feedback = "the error path leaks the file handle, close it before returning"
	if err := s.RejectQuest("a1", feedback); err != nil {
		t.Fatal(err)
	}

	a, _ := s.Agent("a1")
	if a.CurrentQuest.ID != q.ID {
		t.Fatal("rejection replaced the quest instead of reworking it")
	}
	if a.CurrentQuest.Status != quest.StatusInProgress {
		t.Fatalf("quest status = %q, want in_progress", a.CurrentQuest.Status)
	}
	if a.CurrentQuest.CompletedAt != nil {
		t.Fatal("CompletedAt not cleared on rejection")
	}
	if a.NeedsAttention {
		t.Fatal("attention not cleared on rejection")
	}
	if a.Status != agent.StatusWorking {
		t.Fatalf("status = %q, want working", a.Status)
	}

	// Feedback reaches the live session verbatim.
	if len(in.sent) != 1 || in.sent[0].id != "a1" || in.sent[0].text != feedback {
		t.Fatalf("delivered input = %+v", in.sent)
	}

	if err := s.ApproveQuest("a1"); !errors.Is(err, quest.ErrBadTransition) {
		t.Fatalf("approve on in_progress = %v, want ErrBadTransition", err)
	}
}

func TestQuestCompletionHeuristic(t *testing.T) {
	s := state.New()
	s.SpawnAgent(seed("a1", "alpha"))
	if _, err := s.StartQuest("a1", "task"); err != nil {
		t.Fatal(err)
	}

	s.AddTerminalOutput("a1", "Created internal/parser.go")
	s.AddTerminalOutput("a1", "All tests passing, task complete.")

	a, _ := s.Agent("a1")
	if a.CurrentQuest.Status != quest.StatusPendingReview {
		t.Fatalf("quest status = %q, want pending_review after completion line", a.CurrentQuest.Status)
	}
	if a.AttentionReason != agent.AttentionTaskComplete {
		t.Fatalf("reason = %q, want task_complete", a.AttentionReason)
	}
	// Artifacts announced during the quest land on the quest record.
	if len(a.CurrentQuest.ProducedFiles) != 1 || a.CurrentQuest.ProducedFiles[0] != "internal/parser.go" {
		t.Fatalf("produced files = %v", a.CurrentQuest.ProducedFiles)
	}
}

func TestQuestErrorsWithoutActiveQuest(t *testing.T) {
	s := state.New()
	s.SpawnAgent(seed("a1", "alpha"))

	if err := s.CompleteQuest("a1"); !errors.Is(err, state.ErrNoActiveQuest) {
		t.Fatalf("CompleteQuest = %v, want ErrNoActiveQuest", err)
	}
	if err := s.ApproveQuest("a1"); !errors.Is(err, state.ErrNoActiveQuest) {
		t.Fatalf("ApproveQuest = %v, want ErrNoActiveQuest", err)
	}
	if err := s.RejectQuest("a1", "fb"); !errors.Is(err, state.ErrNoActiveQuest) {
		t.Fatalf("RejectQuest = %v, want ErrNoActiveQuest", err)
	}
}
