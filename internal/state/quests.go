package state

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/AgentGuild/internal/domain/agent"
	"github.com/Strob0t/AgentGuild/internal/domain/quest"
	"github.com/Strob0t/AgentGuild/internal/port/store"
)

// StartQuest assigns a new quest to the agent's single active slot.
func (s *Store) StartQuest(id, description string) (*quest.Quest, error) {
	s.mu.Lock()
	a, ok := s.agents[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrAgentNotFound
	}
	if a.CurrentQuest != nil && a.CurrentQuest.Active() {
		s.mu.Unlock()
		return nil, ErrQuestActive
	}
	q := &quest.Quest{
		ID:          uuid.NewString(),
		Description: description,
		StartedAt:   s.now(),
		Status:      quest.StatusInProgress,
	}
	a.CurrentQuest = q
	s.setStatusLocked(a, agent.StatusWorking)
	out := q.Clone()
	s.mu.Unlock()

	s.appendEvent(id, "quest_started", map[string]string{"quest_id": q.ID})
	s.notify(Event{Type: EventQuestChanged, AgentID: id})
	return &out, nil
}

// CompleteQuest moves the active quest to pending_review and flags the
// agent so the operator notices the review request.
func (s *Store) CompleteQuest(id string) error {
	s.mu.Lock()
	a, ok := s.agents[id]
	if !ok {
		s.mu.Unlock()
		return ErrAgentNotFound
	}
	err := s.completeQuestLocked(a)
	var questID string
	if err == nil {
		questID = a.CurrentQuest.ID
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.appendEvent(id, "quest_completed", map[string]string{"quest_id": questID})
	s.notify(Event{Type: EventQuestChanged, AgentID: id},
		Event{Type: EventAttention, AgentID: id})
	return nil
}

func (s *Store) completeQuestLocked(a *agent.Agent) error {
	if a.CurrentQuest == nil {
		return ErrNoActiveQuest
	}
	if err := a.CurrentQuest.Complete(s.now()); err != nil {
		return err
	}
	s.setStatusLocked(a, agent.StatusCompleted)
	s.raiseAttentionLocked(a, agent.AttentionTaskComplete)
	return nil
}

// ApproveQuest finalizes a pending_review quest: the quest moves to the
// history, the agent earns experience and one talent point, possibly levels
// up, and the updated progression is persisted when a store is attached.
func (s *Store) ApproveQuest(id string) error {
	s.mu.Lock()
	a, ok := s.agents[id]
	if !ok {
		s.mu.Unlock()
		return ErrAgentNotFound
	}
	if a.CurrentQuest == nil {
		s.mu.Unlock()
		return ErrNoActiveQuest
	}
	if err := a.CurrentQuest.Approve(); err != nil {
		s.mu.Unlock()
		return err
	}

	done := a.CurrentQuest.Clone()
	a.CompletedQuests = append(a.CompletedQuests, done)
	a.CurrentQuest = nil

	// Every approved quest is worth exactly one talent point. Level is
	// recomputed from total experience and gates deeper tiers only.
	a.Experience += agent.ExperiencePerQuest
	a.Talents.Points++
	if lvl := agent.LevelForExperience(a.Experience); lvl > a.Level {
		a.Level = lvl
		slog.Info("agent leveled up", "agent", a.Name, "level", lvl, "talent_points", a.Talents.Points)
	}

	s.clearAttentionLocked(a)
	s.setStatusLocked(a, agent.StatusIdle)
	snapshot := a.Clone()
	s.mu.Unlock()

	s.persistApproval(snapshot, done)
	s.notify(Event{Type: EventQuestChanged, AgentID: id},
		Event{Type: EventAgentUpdated, AgentID: id},
		Event{Type: EventAttention, AgentID: id})
	return nil
}

// RejectQuest sends a pending_review quest back to in_progress and delivers
// the reviewer's feedback, verbatim, to the live session as input.
func (s *Store) RejectQuest(id, feedback string) error {
	s.mu.Lock()
	a, ok := s.agents[id]
	if !ok {
		s.mu.Unlock()
		return ErrAgentNotFound
	}
	if a.CurrentQuest == nil {
		s.mu.Unlock()
		return ErrNoActiveQuest
	}
	if err := a.CurrentQuest.Reject(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.clearAttentionLocked(a)
	s.setStatusLocked(a, agent.StatusWorking)
	in := s.input
	questID := a.CurrentQuest.ID
	s.mu.Unlock()

	s.appendEvent(id, "quest_rejected", map[string]string{"quest_id": questID})
	if in != nil && feedback != "" {
		if err := in.SendInput(id, feedback); err != nil {
			slog.Warn("rejection feedback delivery failed", "agent_id", id, "error", err)
		}
	}

	s.notify(Event{Type: EventQuestChanged, AgentID: id},
		Event{Type: EventAttention, AgentID: id})
	return nil
}

func (s *Store) persistApproval(a *agent.Agent, q quest.Quest) {
	if s.persist == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	allocated := make(map[string]int, len(a.Talents.Allocated))
	for k, v := range a.Talents.Allocated {
		allocated[k] = v
	}
	if err := s.persist.SaveProgression(ctx, store.Progression{
		AgentName:  a.Name,
		Level:      a.Level,
		Experience: a.Experience,
		Points:     a.Talents.Points,
		Allocated:  allocated,
	}); err != nil {
		slog.Warn("progression save failed", "agent", a.Name, "error", err)
	}
	if err := s.persist.AppendQuest(ctx, a.Name, q); err != nil {
		slog.Warn("quest history append failed", "agent", a.Name, "quest_id", q.ID, "error", err)
	}
	if err := s.persist.AppendEvent(ctx, a.ID, "quest_approved", map[string]string{"quest_id": q.ID}); err != nil {
		slog.Warn("lifecycle event append failed", "agent_id", a.ID, "kind", "quest_approved", "error", err)
	}
}
