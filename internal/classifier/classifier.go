// Package classifier infers agent activity from raw terminal output. The
// heuristics are inherently approximate; the Classifier interface keeps them
// a replaceable strategy, independent of transport and store.
package classifier

import (
	"regexp"

	"github.com/Strob0t/AgentGuild/internal/domain/agent"
)

// Classifier maps one text fragment to zero-or-one activity label.
type Classifier interface {
	Classify(text string) (agent.Activity, bool)
}

// rule binds an activity to its trigger patterns. Rules are evaluated in
// slice order; the first pattern hit wins.
type rule struct {
	activity agent.Activity
	patterns []*regexp.Regexp
}

// Regex is the default pattern-table classifier. The table is ordered:
// waiting is checked before any generic activity so a confirmation prompt
// that mentions a build is never reported as building, and error is checked
// next so failure text is never masked by an action keyword on the same line.
type Regex struct {
	rules []rule
}

// NewRegex returns the default classifier.
func NewRegex() *Regex {
	mk := func(exprs ...string) []*regexp.Regexp {
		out := make([]*regexp.Regexp, len(exprs))
		for i, e := range exprs {
			out[i] = regexp.MustCompile(e)
		}
		return out
	}

	return &Regex{rules: []rule{
		{agent.ActivityWaiting, mk(
			`\?\s*$`,
			`(?i)\b(confirm|proceed|continue|approve|allow)\b.*\?`,
			`(?i)\b(y/n|yes/no)\b`,
			`\[[Yy]/[Nn]\]`,
			`(?i)\bdo you want\b`,
			`(?i)\bpress (enter|return)\b`,
			`(?i)\bwaiting for (input|your|approval|confirmation)\b`,
		)},
		{agent.ActivityError, mk(
			`(?i)\b(error|errors|failed|failure|exception|panic|fatal|traceback)\b`,
			`(?i)\bcannot\b.*\b(find|read|open|write)\b`,
			`✗|✘`,
		)},
		{agent.ActivityTesting, mk(
			`(?i)\b(test|tests|testing|pytest|vitest|jest|spec)\b`,
			`(?i)\b\d+\s*/\s*\d+\s+passing\b`,
			`(?i)\bcoverage\b`,
		)},
		{agent.ActivityBuilding, mk(
			`(?i)\b(build|building|built|compil\w*|bundling|webpack|tsc|linking)\b`,
			`(?i)\bmake\[\d+\]`,
		)},
		{agent.ActivityGit, mk(
			`(?i)\bgit\b`,
			`(?i)\b(commit\w*|push\w*|pull\w*|merg\w*|rebas\w*|checkout|staged|branch)\b`,
		)},
		{agent.ActivityResearching, mk(
			`(?i)\b(search\w*|grep\w*|exploring|scanning|looking for|globbing)\b`,
		)},
		{agent.ActivityReading, mk(
			`(?i)\b(read\w*|viewing|opening|examining|inspecting|analyz\w*)\b`,
		)},
		{agent.ActivityWriting, mk(
			`(?i)\b(writ\w*|edit\w*|creat\w*|updat\w*|modify\w*|implement\w*|adding|generat\w*|refactor\w*)\b`,
		)},
		{agent.ActivityThinking, mk(
			`(?i)\b(thinking|planning|considering|reasoning)\b`,
			`✻|∴`,
		)},
	}}
}

// Classify returns the first matching activity in priority order. Idle is
// never matched positively; no match means no signal.
func (c *Regex) Classify(text string) (agent.Activity, bool) {
	if text == "" {
		return "", false
	}
	for _, r := range c.rules {
		for _, p := range r.patterns {
			if p.MatchString(text) {
				return r.activity, true
			}
		}
	}
	return "", false
}

// ProjectStatus maps a positive activity match onto a status, the only
// automatic status transition in the system: waiting and error project
// directly, anything else marks a non-working agent as working.
func ProjectStatus(act agent.Activity, current agent.Status) (agent.Status, bool) {
	switch act {
	case agent.ActivityWaiting:
		return agent.StatusWaiting, true
	case agent.ActivityError:
		return agent.StatusError, true
	default:
		if current != agent.StatusWorking {
			return agent.StatusWorking, true
		}
		return current, false
	}
}

var completionRe = regexp.MustCompile(
	`(?i)\b(done|completed|finished|all tests pass(ing|ed)?|task complete|implementation complete)\b`)

// IsCompletion reports whether a line looks like the agent announcing that
// its current piece of work is finished. Heuristic, used to move quests to
// review.
func IsCompletion(text string) bool {
	return completionRe.MatchString(text)
}
