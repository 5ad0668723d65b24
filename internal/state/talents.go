package state

import (
	"github.com/Strob0t/AgentGuild/internal/domain/talent"
)

// AllocateTalent spends one point on a talent after re-validating every
// allocation invariant against the agent's current tree and level.
func (s *Store) AllocateTalent(id, talentID string) error {
	s.mu.Lock()
	a, ok := s.agents[id]
	if !ok {
		s.mu.Unlock()
		return ErrAgentNotFound
	}
	tree := talent.TreeFor(a.Class)
	if err := talent.CanAllocate(tree, a.Level, a.Talents, talentID); err != nil {
		s.mu.Unlock()
		return err
	}
	a.Talents.Allocated[talentID]++
	a.Talents.Points--
	snapshot := a.Clone()
	s.mu.Unlock()

	s.saveProgression(snapshot)
	s.notify(Event{Type: EventAgentUpdated, AgentID: id})
	return nil
}

// ResetTalents refunds every allocated rank back into the unspent pool.
// Level and experience are untouched.
func (s *Store) ResetTalents(id string) error {
	s.mu.Lock()
	a, ok := s.agents[id]
	if !ok {
		s.mu.Unlock()
		return ErrAgentNotFound
	}
	tree := talent.TreeFor(a.Class)
	refund := talent.SpentTotal(tree, a.Talents.Allocated)
	a.Talents.Points += refund
	a.Talents.Allocated = make(map[string]int)
	snapshot := a.Clone()
	s.mu.Unlock()

	s.saveProgression(snapshot)
	s.notify(Event{Type: EventAgentUpdated, AgentID: id})
	return nil
}
