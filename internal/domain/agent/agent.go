// Package agent defines the Agent domain entity and its derived state.
package agent

import (
	"time"

	"github.com/Strob0t/AgentGuild/internal/domain/quest"
)

// Status represents the coarse lifecycle state of an agent. Exactly one
// status is active at a time.
type Status string

const (
	StatusSpawning  Status = "spawning"
	StatusIdle      Status = "idle"
	StatusWorking   Status = "working"
	StatusWaiting   Status = "waiting"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
	StatusBlocked   Status = "blocked"
)

// Activity is the fine-grained, heuristically inferred "what is it doing
// right now" label. Independent from but correlated with Status.
type Activity string

const (
	ActivityIdle        Activity = "idle"
	ActivityThinking    Activity = "thinking"
	ActivityResearching Activity = "researching"
	ActivityReading     Activity = "reading"
	ActivityWriting     Activity = "writing"
	ActivityTesting     Activity = "testing"
	ActivityBuilding    Activity = "building"
	ActivityGit         Activity = "git"
	ActivityWaiting     Activity = "waiting"
	ActivityError       Activity = "error"
)

// AttentionReason explains why an agent is flagged for human attention.
type AttentionReason string

const (
	AttentionWaitingInput AttentionReason = "waiting_input"
	AttentionError        AttentionReason = "error"
	AttentionIdleTimeout  AttentionReason = "idle_timeout"
	AttentionTaskComplete AttentionReason = "task_complete"
)

// ArtifactType classifies a produced file artifact.
type ArtifactType string

const (
	ArtifactCreated  ArtifactType = "created"
	ArtifactModified ArtifactType = "modified"
	ArtifactDeleted  ArtifactType = "deleted"
)

// FileArtifact records one file the agent touched.
type FileArtifact struct {
	Path      string       `json:"path"`
	Type      ArtifactType `json:"type"`
	Timestamp time.Time    `json:"timestamp"`
}

// ProgressType classifies an extracted numeric progress signal.
type ProgressType string

const (
	ProgressTests ProgressType = "tests"
	ProgressTasks ProgressType = "tasks"
	ProgressFiles ProgressType = "files"
)

// TaskProgress is a display-only numeric projection extracted from output.
type TaskProgress struct {
	Type    ProgressType `json:"type"`
	Current int          `json:"current"`
	Total   int          `json:"total"`
}

// TalentState holds an agent's mutable talent allocation. The static talent
// trees themselves live in the talent package and are never mutated.
type TalentState struct {
	Points    int            `json:"points"`
	Allocated map[string]int `json:"allocated"`
}

// Agent is the central entity: one live (or recently live) CLI session and
// everything derived from it.
type Agent struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Class    string `json:"class"`
	Provider string `json:"provider"`

	WorkingDirectory string `json:"workingDirectory"`
	GitBranch        string `json:"gitBranch,omitempty"`

	Status            Status    `json:"status"`
	Activity          Activity  `json:"activity"`
	ActivityStartedAt time.Time `json:"activityStartedAt"`
	ActivityDetails   string    `json:"activityDetails,omitempty"`

	NeedsAttention  bool            `json:"needsAttention"`
	AttentionReason AttentionReason `json:"attentionReason,omitempty"`
	AttentionSince  time.Time       `json:"attentionSince,omitzero"`

	ContextTokens int           `json:"contextTokens"`
	ContextLimit  int           `json:"contextLimit"`
	UsagePercent  float64       `json:"usagePercent"`
	TaskProgress  *TaskProgress `json:"taskProgress,omitempty"`

	Level      int         `json:"level"`
	Experience int         `json:"experience"`
	Talents    TalentState `json:"talents"`

	CurrentQuest    *quest.Quest `json:"currentQuest,omitempty"`
	CompletedQuests []quest.Quest `json:"completedQuests"`

	Files []FileArtifact `json:"files"`

	CreatedAt time.Time `json:"createdAt"`
}

// Clone returns a deep copy so readers never alias store-owned state.
func (a *Agent) Clone() *Agent {
	cp := *a
	if a.TaskProgress != nil {
		tp := *a.TaskProgress
		cp.TaskProgress = &tp
	}
	if a.CurrentQuest != nil {
		q := a.CurrentQuest.Clone()
		cp.CurrentQuest = &q
	}
	cp.CompletedQuests = make([]quest.Quest, len(a.CompletedQuests))
	for i := range a.CompletedQuests {
		cp.CompletedQuests[i] = a.CompletedQuests[i].Clone()
	}
	cp.Files = append([]FileArtifact(nil), a.Files...)
	cp.Talents.Allocated = make(map[string]int, len(a.Talents.Allocated))
	for k, v := range a.Talents.Allocated {
		cp.Talents.Allocated[k] = v
	}
	return &cp
}
