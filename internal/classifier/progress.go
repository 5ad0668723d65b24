package classifier

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Strob0t/AgentGuild/internal/domain/agent"
)

// ProgressUpdate carries the numeric projections extracted from one line.
// These are display-only and never feed back into activity classification.
type ProgressUpdate struct {
	Task *agent.TaskProgress

	ContextTokens int
	ContextLimit  int
	HasContext    bool

	UsagePercent float64
	HasUsage     bool
}

// Empty reports whether nothing was extracted.
func (u ProgressUpdate) Empty() bool {
	return u.Task == nil && !u.HasContext && !u.HasUsage
}

var (
	contextRe  = regexp.MustCompile(`(?i)context:?\s*([\d,]+)\s*/\s*([\d,]+)`)
	usageRe    = regexp.MustCompile(`(?i)(\d{1,3}(?:\.\d+)?)\s*%\s*(?:of\s+)?(?:context|budget|capacity|used|usage)`)
	fractionRe = regexp.MustCompile(`(\d+)\s*/\s*(\d+)`)
)

// ExtractProgress pulls numeric progress signals out of a line. Context
// fractions are matched first so "context: 12,345/200,000" is never reported
// as task progress.
func ExtractProgress(line string) ProgressUpdate {
	var u ProgressUpdate

	if m := contextRe.FindStringSubmatch(line); m != nil {
		u.ContextTokens = parseGrouped(m[1])
		u.ContextLimit = parseGrouped(m[2])
		u.HasContext = true
	}

	if m := usageRe.FindStringSubmatch(line); m != nil {
		if pct, err := strconv.ParseFloat(m[1], 64); err == nil && pct <= 100 {
			u.UsagePercent = pct
			u.HasUsage = true
		}
	}

	if !u.HasContext {
		if m := fractionRe.FindStringSubmatch(line); m != nil {
			cur, _ := strconv.Atoi(m[1])
			total, _ := strconv.Atoi(m[2])
			if total > 0 && cur <= total {
				u.Task = &agent.TaskProgress{
					Type:    progressType(line),
					Current: cur,
					Total:   total,
				}
			}
		}
	}

	return u
}

func progressType(line string) agent.ProgressType {
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "file"):
		return agent.ProgressFiles
	case strings.Contains(lower, "test") || strings.Contains(lower, "pass"):
		return agent.ProgressTests
	default:
		return agent.ProgressTasks
	}
}

func parseGrouped(s string) int {
	n, _ := strconv.Atoi(strings.ReplaceAll(s, ",", ""))
	return n
}
