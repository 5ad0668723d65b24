package classifier_test

import (
	"testing"

	"github.com/Strob0t/AgentGuild/internal/classifier"
	"github.com/Strob0t/AgentGuild/internal/domain/agent"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		line string
		want agent.Activity
		ok   bool
	}{
		{"question mark prompt", "Apply this change?", agent.ActivityWaiting, true},
		{"yes no prompt", "Overwrite file [Y/n]", agent.ActivityWaiting, true},
		{"error line", "Error: cannot find module", agent.ActivityError, true},
		{"panic line", "panic: runtime error: index out of range", agent.ActivityError, true},
		{"test run", "Running tests in ./internal/store", agent.ActivityTesting, true},
		{"passing count", "12/15 passing", agent.ActivityTesting, true},
		{"build line", "Building target cmd/server", agent.ActivityBuilding, true},
		{"git line", "git commit -m 'fix parser'", agent.ActivityGit, true},
		{"searching", "Searching for usages of Connect", agent.ActivityResearching, true},
		{"reading", "Reading internal/config/loader.go", agent.ActivityReading, true},
		{"writing", "Writing changes to handler.go", agent.ActivityWriting, true},
		{"thinking", "Thinking about the approach", agent.ActivityThinking, true},
		{"plain prose", "the quick brown fox", "", false},
		{"empty", "", "", false},
	}

	c := classifier.NewRegex()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := c.Classify(tt.line)
			if ok != tt.ok || got != tt.want {
				t.Fatalf("Classify(%q) = (%q, %v), want (%q, %v)", tt.line, got, ok, tt.want, tt.ok)
			}
		})
	}
}

// A confirmation prompt that mentions another activity must classify as
// waiting, and failure text must never be masked by an action keyword.
func TestClassifyPriority(t *testing.T) {
	c := classifier.NewRegex()

	act, ok := c.Classify("Proceed with the build? [y/n]")
	if !ok || act != agent.ActivityWaiting {
		t.Fatalf("expected waiting, got (%q, %v)", act, ok)
	}

	act, ok = c.Classify("tests failed: 3 errors while building")
	if !ok || act != agent.ActivityError {
		t.Fatalf("expected error, got (%q, %v)", act, ok)
	}
}

func TestProjectStatus(t *testing.T) {
	tests := []struct {
		name    string
		act     agent.Activity
		current agent.Status
		want    agent.Status
		project bool
	}{
		{"waiting projects", agent.ActivityWaiting, agent.StatusWorking, agent.StatusWaiting, true},
		{"error projects", agent.ActivityError, agent.StatusWorking, agent.StatusError, true},
		{"activity marks working", agent.ActivityWriting, agent.StatusIdle, agent.StatusWorking, true},
		{"already working", agent.ActivityWriting, agent.StatusWorking, agent.StatusWorking, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, project := classifier.ProjectStatus(tt.act, tt.current)
			if project != tt.project || (project && got != tt.want) {
				t.Fatalf("ProjectStatus(%q, %q) = (%q, %v), want (%q, %v)",
					tt.act, tt.current, got, project, tt.want, tt.project)
			}
		})
	}
}

func TestIsCompletion(t *testing.T) {
	completions := []string{
		"All tests passing, task complete.",
		"Done! The refactor is finished.",
		"Implementation complete",
	}
	for _, line := range completions {
		if !classifier.IsCompletion(line) {
			t.Errorf("IsCompletion(%q) = false, want true", line)
		}
	}
	if classifier.IsCompletion("still working on the parser") {
		t.Error("IsCompletion matched non-completion text")
	}
}
