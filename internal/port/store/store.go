// Package store defines the optional persistence port. Terminal output is
// deliberately never persisted; only progression and quest history survive
// restarts, keyed by agent name because agent ids are never reused.
package store

import (
	"context"

	"github.com/Strob0t/AgentGuild/internal/domain/quest"
)

// Progression is the durable slice of an agent's state.
type Progression struct {
	AgentName  string
	Level      int
	Experience int
	Points     int
	Allocated  map[string]int
}

// Store persists progression, quest history and lifecycle events.
type Store interface {
	// SaveProgression upserts the progression row for an agent name.
	SaveProgression(ctx context.Context, p Progression) error

	// LoadProgression returns domain.ErrNotFound for unknown names.
	LoadProgression(ctx context.Context, agentName string) (*Progression, error)

	// AppendQuest records a finished quest in the append-only history.
	AppendQuest(ctx context.Context, agentName string, q quest.Quest) error

	// AppendEvent records a lifecycle event (spawned, exited, quest moves).
	AppendEvent(ctx context.Context, agentID, kind string, fields map[string]string) error
}
