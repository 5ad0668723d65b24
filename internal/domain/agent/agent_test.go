package agent_test

import (
	"fmt"
	"testing"

	"github.com/Strob0t/AgentGuild/internal/domain/agent"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to agent.Status
		want     bool
	}{
		{agent.StatusSpawning, agent.StatusIdle, true},
		{agent.StatusSpawning, agent.StatusCompleted, false},
		{agent.StatusIdle, agent.StatusWorking, true},
		{agent.StatusIdle, agent.StatusCompleted, false},
		{agent.StatusWorking, agent.StatusCompleted, true},
		{agent.StatusWorking, agent.StatusWaiting, true},
		{agent.StatusCompleted, agent.StatusIdle, true},
		{agent.StatusCompleted, agent.StatusError, false},
		{agent.StatusError, agent.StatusWorking, true},
		{agent.StatusBlocked, agent.StatusWaiting, false},
		// Self-transitions are always a no-op write.
		{agent.StatusError, agent.StatusError, true},
		{agent.StatusSpawning, agent.StatusSpawning, true},
	}
	for _, tt := range tests {
		if got := agent.CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestTerminalBufferEviction(t *testing.T) {
	b := agent.NewTerminalBuffer()
	for i := 0; i < agent.BufferLines+10; i++ {
		b.Append(fmt.Sprintf("line %d", i))
	}

	lines := b.Lines()
	if len(lines) != agent.BufferLines {
		t.Fatalf("got %d lines, want %d", len(lines), agent.BufferLines)
	}
	if lines[0] != "line 10" {
		t.Fatalf("oldest retained line = %q, want %q", lines[0], "line 10")
	}
	if last := lines[len(lines)-1]; last != fmt.Sprintf("line %d", agent.BufferLines+9) {
		t.Fatalf("newest line = %q", last)
	}
	if b.Len() != agent.BufferLines {
		t.Fatalf("Len() = %d, want %d", b.Len(), agent.BufferLines)
	}
}

func TestTerminalBufferPartialFill(t *testing.T) {
	b := agent.NewTerminalBuffer()
	b.Append("a")
	b.Append("b")

	lines := b.Lines()
	if len(lines) != 2 || lines[0] != "a" || lines[1] != "b" {
		t.Fatalf("got %v, want [a b]", lines)
	}
}

func TestLevelForExperience(t *testing.T) {
	tests := []struct {
		xp   int
		want int
	}{
		{0, 1},
		{99, 1},
		{100, 2},  // threshold 50*2*1
		{299, 2},
		{300, 3},  // threshold 50*3*2
		{599, 3},
		{600, 4},  // threshold 50*4*3
		{1000, 5}, // threshold 50*5*4
	}
	for _, tt := range tests {
		if got := agent.LevelForExperience(tt.xp); got != tt.want {
			t.Errorf("LevelForExperience(%d) = %d, want %d", tt.xp, got, tt.want)
		}
	}
}

func TestClassByID(t *testing.T) {
	c, ok := agent.ClassByID("mage")
	if !ok {
		t.Fatal("mage not found")
	}
	if c.Provider != "gemini" {
		t.Fatalf("mage provider = %q, want gemini", c.Provider)
	}
	if _, ok := agent.ClassByID("paladin"); ok {
		t.Fatal("unknown class id resolved")
	}
}

func TestInferClassDeterministic(t *testing.T) {
	tests := []struct {
		name, dir string
		want      string
	}{
		{"code-reviewer", "/src/app", "guardian"},
		{"runner", "/work/test-suite", "shaman"},
		{"scribe", "/repos/docs", "mage"},
		{"fixer", "/src/app", "rogue"},
		{"alpha", "/src/app", "warrior"},
	}
	for _, tt := range tests {
		got := agent.InferClass(tt.name, tt.dir)
		if got.ID != tt.want {
			t.Errorf("InferClass(%q, %q) = %q, want %q", tt.name, tt.dir, got.ID, tt.want)
		}
		// Same inputs must always give the same answer.
		if again := agent.InferClass(tt.name, tt.dir); again.ID != got.ID {
			t.Errorf("InferClass(%q, %q) not deterministic", tt.name, tt.dir)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	a := &agent.Agent{
		ID:           "a1",
		TaskProgress: &agent.TaskProgress{Type: agent.ProgressTests, Current: 1, Total: 2},
		Talents:      agent.TalentState{Points: 1, Allocated: map[string]int{"x": 1}},
		Files:        []agent.FileArtifact{{Path: "a.go"}},
	}
	cp := a.Clone()
	cp.TaskProgress.Current = 99
	cp.Talents.Allocated["x"] = 99
	cp.Files[0].Path = "b.go"

	if a.TaskProgress.Current != 1 {
		t.Fatal("clone aliased TaskProgress")
	}
	if a.Talents.Allocated["x"] != 1 {
		t.Fatal("clone aliased talent allocation map")
	}
	if a.Files[0].Path != "a.go" {
		t.Fatal("clone aliased files slice")
	}
}
