package classifier_test

import (
	"testing"
	"time"

	"github.com/Strob0t/AgentGuild/internal/classifier"
	"github.com/Strob0t/AgentGuild/internal/domain/agent"
)

func TestExtractProgressTaskFraction(t *testing.T) {
	u := classifier.ExtractProgress("Running tests... 3/10 passing")
	if u.Task == nil {
		t.Fatal("expected task progress")
	}
	if u.Task.Type != agent.ProgressTests || u.Task.Current != 3 || u.Task.Total != 10 {
		t.Fatalf("got %+v, want tests 3/10", u.Task)
	}
	if u.HasContext || u.HasUsage {
		t.Fatalf("unexpected context/usage extraction: %+v", u)
	}
}

func TestExtractProgressContextNotTask(t *testing.T) {
	u := classifier.ExtractProgress("context: 12,345/200,000 tokens")
	if !u.HasContext {
		t.Fatal("expected context extraction")
	}
	if u.ContextTokens != 12345 || u.ContextLimit != 200000 {
		t.Fatalf("got %d/%d, want 12345/200000", u.ContextTokens, u.ContextLimit)
	}
	// A context fraction must never double as task progress.
	if u.Task != nil {
		t.Fatalf("context fraction reported as task progress: %+v", u.Task)
	}
}

func TestExtractProgressUsagePercent(t *testing.T) {
	u := classifier.ExtractProgress("45% of context used")
	if !u.HasUsage || u.UsagePercent != 45 {
		t.Fatalf("got (%v, %v), want (45, true)", u.UsagePercent, u.HasUsage)
	}
}

func TestExtractProgressTypes(t *testing.T) {
	tests := []struct {
		line string
		want agent.ProgressType
	}{
		{"Processed 2/5 files", agent.ProgressFiles},
		{"7/9 tests green", agent.ProgressTests},
		{"Completed 1/4 subtasks", agent.ProgressTasks},
	}
	for _, tt := range tests {
		u := classifier.ExtractProgress(tt.line)
		if u.Task == nil || u.Task.Type != tt.want {
			t.Errorf("ExtractProgress(%q).Task = %+v, want type %q", tt.line, u.Task, tt.want)
		}
	}
}

func TestExtractProgressNothing(t *testing.T) {
	u := classifier.ExtractProgress("no numbers here")
	if !u.Empty() {
		t.Fatalf("expected empty update, got %+v", u)
	}
}

func TestExtractProgressRejectsInvertedFraction(t *testing.T) {
	u := classifier.ExtractProgress("retry 12/3")
	if u.Task != nil {
		t.Fatalf("current > total should not extract, got %+v", u.Task)
	}
}

func TestExtractArtifact(t *testing.T) {
	tests := []struct {
		line     string
		path     string
		artifact agent.ArtifactType
		found    bool
	}{
		{"Created src/parser.go", "src/parser.go", agent.ArtifactCreated, true},
		{"Wrote 42 lines to internal/store.go", "internal/store.go", agent.ArtifactCreated, true},
		{"Modified: pkg/api_test.go", "pkg/api_test.go", agent.ArtifactModified, true},
		{"Deleted old/legacy.py", "old/legacy.py", agent.ArtifactDeleted, true},
		{"updated the plan", "", "", false},
	}
	now := time.Now()
	for _, tt := range tests {
		art, found := classifier.ExtractArtifact(tt.line, now)
		if found != tt.found {
			t.Errorf("ExtractArtifact(%q) found = %v, want %v", tt.line, found, tt.found)
			continue
		}
		if !found {
			continue
		}
		if art.Path != tt.path || art.Type != tt.artifact {
			t.Errorf("ExtractArtifact(%q) = %+v, want %s %s", tt.line, art, tt.artifact, tt.path)
		}
	}
}
