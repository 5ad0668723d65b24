package quest_test

import (
	"errors"
	"testing"
	"time"

	"github.com/Strob0t/AgentGuild/internal/domain/quest"
)

func TestQuestWorkflow(t *testing.T) {
	now := time.Now()
	q := quest.Quest{ID: "q1", Description: "wire the parser", StartedAt: now, Status: quest.StatusInProgress}

	if !q.Active() {
		t.Fatal("in_progress quest should be active")
	}
	if err := q.Complete(now); err != nil {
		t.Fatal(err)
	}
	if q.Status != quest.StatusPendingReview || q.CompletedAt == nil {
		t.Fatalf("after Complete: %+v", q)
	}
	if !q.Active() {
		t.Fatal("pending_review quest should still be active")
	}
	if err := q.Approve(); err != nil {
		t.Fatal(err)
	}
	if q.Status != quest.StatusApproved {
		t.Fatalf("status = %q, want approved", q.Status)
	}
	if q.Active() {
		t.Fatal("approved quest should not be active")
	}
}

func TestQuestRejectKeepsIdentity(t *testing.T) {
	now := time.Now()
	q := quest.Quest{ID: "q1", Status: quest.StatusInProgress}
	if err := q.Complete(now); err != nil {
		t.Fatal(err)
	}
	if err := q.Reject(); err != nil {
		t.Fatal(err)
	}
	if q.ID != "q1" {
		t.Fatal("rejection must return the same quest, not a new one")
	}
	if q.Status != quest.StatusInProgress {
		t.Fatalf("status = %q, want in_progress", q.Status)
	}
	if q.CompletedAt != nil {
		t.Fatal("CompletedAt must be cleared on rejection")
	}
	// The reworked quest can be completed again.
	if err := q.Complete(now); err != nil {
		t.Fatal(err)
	}
}

func TestQuestBadTransitions(t *testing.T) {
	now := time.Now()

	q := quest.Quest{Status: quest.StatusPendingReview}
	if err := q.Complete(now); !errors.Is(err, quest.ErrBadTransition) {
		t.Fatalf("Complete on pending_review: %v", err)
	}

	q = quest.Quest{Status: quest.StatusInProgress}
	if err := q.Approve(); !errors.Is(err, quest.ErrBadTransition) {
		t.Fatalf("Approve on in_progress: %v", err)
	}
	if err := q.Reject(); !errors.Is(err, quest.ErrBadTransition) {
		t.Fatalf("Reject on in_progress: %v", err)
	}

	q = quest.Quest{Status: quest.StatusApproved}
	if err := q.Reject(); !errors.Is(err, quest.ErrBadTransition) {
		t.Fatalf("Reject on approved: %v", err)
	}
}

func TestQuestClone(t *testing.T) {
	now := time.Now()
	q := quest.Quest{ID: "q1", CompletedAt: &now, ProducedFiles: []string{"a.go"}}
	cp := q.Clone()
	cp.ProducedFiles[0] = "b.go"
	*cp.CompletedAt = now.Add(time.Hour)

	if q.ProducedFiles[0] != "a.go" {
		t.Fatal("clone aliased ProducedFiles")
	}
	if !q.CompletedAt.Equal(now) {
		t.Fatal("clone aliased CompletedAt")
	}
}
