package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/AgentGuild/internal/domain"
	"github.com/Strob0t/AgentGuild/internal/domain/quest"
	"github.com/Strob0t/AgentGuild/internal/port/store"
)

// Store implements the persistence port on a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// SaveProgression upserts the progression row for an agent name.
func (s *Store) SaveProgression(ctx context.Context, p store.Progression) error {
	allocated, err := json.Marshal(p.Allocated)
	if err != nil {
		return fmt.Errorf("marshal allocated: %w", err)
	}

	const q = `
		INSERT INTO progression (agent_name, level, experience, points, allocated, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (agent_name) DO UPDATE
		SET level = EXCLUDED.level, experience = EXCLUDED.experience,
		    points = EXCLUDED.points, allocated = EXCLUDED.allocated,
		    updated_at = now()`

	if _, err := s.pool.Exec(ctx, q, p.AgentName, p.Level, p.Experience, p.Points, allocated); err != nil {
		return fmt.Errorf("save progression %s: %w", p.AgentName, err)
	}
	return nil
}

// LoadProgression returns domain.ErrNotFound for unknown names.
func (s *Store) LoadProgression(ctx context.Context, agentName string) (*store.Progression, error) {
	const q = `
		SELECT agent_name, level, experience, points, allocated
		FROM progression
		WHERE agent_name = $1`

	var p store.Progression
	var allocated []byte
	err := s.pool.QueryRow(ctx, q, agentName).Scan(
		&p.AgentName, &p.Level, &p.Experience, &p.Points, &allocated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("load progression %s: %w", agentName, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("load progression %s: %w", agentName, err)
	}
	if err := json.Unmarshal(allocated, &p.Allocated); err != nil {
		return nil, fmt.Errorf("unmarshal allocated: %w", err)
	}
	return &p, nil
}

// AppendQuest records a finished quest in the append-only history.
func (s *Store) AppendQuest(ctx context.Context, agentName string, q quest.Quest) error {
	files, err := json.Marshal(q.ProducedFiles)
	if err != nil {
		return fmt.Errorf("marshal produced files: %w", err)
	}

	const sql = `
		INSERT INTO quest_history (id, agent_name, description, status, started_at, completed_at, produced_files, agent_notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status, completed_at = EXCLUDED.completed_at,
		    produced_files = EXCLUDED.produced_files, agent_notes = EXCLUDED.agent_notes`

	if _, err := s.pool.Exec(ctx, sql,
		q.ID, agentName, q.Description, string(q.Status), q.StartedAt, q.CompletedAt, files, q.AgentNotes,
	); err != nil {
		return fmt.Errorf("append quest %s: %w", q.ID, err)
	}
	return nil
}

// AppendEvent records a lifecycle event.
func (s *Store) AppendEvent(ctx context.Context, agentID, kind string, fields map[string]string) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal event fields: %w", err)
	}

	const q = `INSERT INTO agent_events (agent_id, kind, fields) VALUES ($1, $2, $3)`
	if _, err := s.pool.Exec(ctx, q, agentID, kind, data); err != nil {
		return fmt.Errorf("append event %s/%s: %w", agentID, kind, err)
	}
	return nil
}
