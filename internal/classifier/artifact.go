package classifier

import (
	"regexp"
	"time"

	"github.com/Strob0t/AgentGuild/internal/domain/agent"
)

// Agent CLIs announce file operations in a handful of shapes:
// "Created src/foo.go", "Wrote 42 lines to internal/bar.go",
// "Modified: pkg/baz_test.go", "Deleted old/qux.py".
var artifactRe = regexp.MustCompile(
	`(?i)\b(created?|wrote|writing|modif(?:y|ied)|updated?|edit(?:ed|ing)?|deleted?|remov(?:ed|ing))\b[:\s]+(?:\d+\s+lines?\s+to\s+)?([\w./~-]+\.\w{1,8})`)

// ExtractArtifact detects a file-operation announcement in one output line.
// The path must look like a file (dotted extension) to keep prose like
// "updated the plan" from registering.
func ExtractArtifact(text string, now time.Time) (*agent.FileArtifact, bool) {
	m := artifactRe.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	return &agent.FileArtifact{
		Path:      m[2],
		Type:      artifactType(m[1]),
		Timestamp: now,
	}, true
}

func artifactType(verb string) agent.ArtifactType {
	switch verb[0] {
	case 'c', 'C', 'w', 'W':
		return agent.ArtifactCreated
	case 'd', 'D', 'r', 'R':
		return agent.ArtifactDeleted
	default:
		return agent.ArtifactModified
	}
}
