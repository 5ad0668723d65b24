package agent

import (
	"errors"
	"strings"
)

// ErrUnknownClass indicates a spawn request named a class outside the fixed
// enumeration.
var ErrUnknownClass = errors.New("unknown agent class")

// Class identifies the visual archetype of an agent. Each class maps 1:1 to
// a CLI provider; the mapping is fixed at build time.
type Class struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
	// Invocation is the command line written into the agent's shell once the
	// settle delay has elapsed.
	Invocation string `json:"invocation"`
}

var classes = []Class{
	{ID: "warrior", Name: "Warrior", Provider: "claude", Invocation: "claude"},
	{ID: "mage", Name: "Mage", Provider: "gemini", Invocation: "gemini"},
	{ID: "rogue", Name: "Rogue", Provider: "aider", Invocation: "aider"},
	{ID: "guardian", Name: "Guardian", Provider: "codex", Invocation: "codex"},
	{ID: "shaman", Name: "Shaman", Provider: "opencode", Invocation: "opencode"},
}

// Classes returns all known classes in display order.
func Classes() []Class {
	out := make([]Class, len(classes))
	copy(out, classes)
	return out
}

// ClassByID looks up a class by its identifier.
func ClassByID(id string) (Class, bool) {
	for _, c := range classes {
		if c.ID == id {
			return c, true
		}
	}
	return Class{}, false
}

// DefaultClass is used when a spawn request names no class and inference
// finds nothing better.
func DefaultClass() Class { return classes[0] }

// InferClass guesses a class for an agent the local client did not spawn,
// from its name and working directory. Deliberately approximate: the server
// does not dictate visual classes, so any deterministic guess is acceptable
// as long as the same inputs always give the same answer.
func InferClass(name, workingDir string) Class {
	hay := strings.ToLower(name + " " + workingDir)
	switch {
	case strings.Contains(hay, "review") || strings.Contains(hay, "guard"):
		return mustClass("guardian")
	case strings.Contains(hay, "test") || strings.Contains(hay, "qa"):
		return mustClass("shaman")
	case strings.Contains(hay, "doc") || strings.Contains(hay, "research"):
		return mustClass("mage")
	case strings.Contains(hay, "fix") || strings.Contains(hay, "refactor"):
		return mustClass("rogue")
	default:
		return DefaultClass()
	}
}

func mustClass(id string) Class {
	c, _ := ClassByID(id)
	return c
}
