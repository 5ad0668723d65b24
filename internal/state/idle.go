package state

import (
	"context"
	"time"

	"github.com/Strob0t/AgentGuild/internal/domain/agent"
)

// SweepIdle flags every agent that has been continuously idle past the
// threshold. The idle-since timestamp is captured when the agent entered
// idle and cleared the moment activity or a non-idle status resumes, so an
// agent that woke up between sweeps is never flagged. Returns the ids
// flagged this sweep.
func (s *Store) SweepIdle() []string {
	now := s.now()

	s.mu.Lock()
	var flagged []string
	for id, since := range s.idleSince {
		a, ok := s.agents[id]
		if !ok {
			delete(s.idleSince, id)
			continue
		}
		if a.NeedsAttention {
			continue
		}
		// A stale snapshot never flags an agent that is doing anything.
		if a.Status != agent.StatusIdle || a.Activity != agent.ActivityIdle {
			continue
		}
		if now.Sub(since) >= s.idleThreshold {
			s.raiseAttentionLocked(a, agent.AttentionIdleTimeout)
			flagged = append(flagged, id)
		}
	}
	s.mu.Unlock()

	for _, id := range flagged {
		s.notify(Event{Type: EventAttention, AgentID: id})
	}
	return flagged
}

// RunIdleSweeper runs SweepIdle on a ticker until the context is done.
func (s *Store) RunIdleSweeper(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.SweepIdle()
		}
	}
}
