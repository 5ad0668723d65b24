// Package quest defines the quest entity: one user-assigned unit of work
// tracked through a review workflow.
package quest

import (
	"errors"
	"time"
)

// Status is the review-workflow state of a quest. Transitions only move
// forward: in_progress -> pending_review -> approved | rejected. A rejected
// quest returns the same quest to in_progress (rework, not a new task).
type Status string

const (
	StatusInProgress    Status = "in_progress"
	StatusPendingReview Status = "pending_review"
	StatusApproved      Status = "approved"
	StatusRejected      Status = "rejected"
)

// ErrBadTransition is returned when a quest transition violates the workflow.
var ErrBadTransition = errors.New("invalid quest transition")

// Quest is one unit of work assigned to an agent.
type Quest struct {
	ID            string     `json:"id"`
	Description   string     `json:"description"`
	StartedAt     time.Time  `json:"startedAt"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	Status        Status     `json:"status"`
	ProducedFiles []string   `json:"producedFiles"`
	AgentNotes    string     `json:"agentNotes,omitempty"`
}

// Active reports whether the quest occupies the agent's single active slot.
func (q *Quest) Active() bool {
	return q.Status == StatusInProgress || q.Status == StatusPendingReview
}

// Complete moves an in-progress quest to pending_review.
func (q *Quest) Complete(now time.Time) error {
	if q.Status != StatusInProgress {
		return ErrBadTransition
	}
	q.Status = StatusPendingReview
	q.CompletedAt = &now
	return nil
}

// Approve finalizes a pending_review quest.
func (q *Quest) Approve() error {
	if q.Status != StatusPendingReview {
		return ErrBadTransition
	}
	q.Status = StatusApproved
	return nil
}

// Reject sends a pending_review quest back to in_progress. The quest keeps
// its identity; the rejection is rework, not a new task.
func (q *Quest) Reject() error {
	if q.Status != StatusPendingReview {
		return ErrBadTransition
	}
	q.Status = StatusInProgress
	q.CompletedAt = nil
	return nil
}

// Clone returns a deep copy.
func (q Quest) Clone() Quest {
	cp := q
	if q.CompletedAt != nil {
		t := *q.CompletedAt
		cp.CompletedAt = &t
	}
	cp.ProducedFiles = append([]string(nil), q.ProducedFiles...)
	return cp
}
