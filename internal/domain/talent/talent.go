// Package talent defines the static per-class talent trees and the rules
// that gate allocation. The trees are immutable; per-agent allocation state
// lives on the agent and is validated here at every call.
package talent

import (
	"errors"

	"github.com/Strob0t/AgentGuild/internal/domain/agent"
)

// Talent is one static tree node.
type Talent struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Tier     int    `json:"tier"`
	Column   int    `json:"column"`
	MaxRanks int    `json:"maxRanks"`
	Requires string `json:"requires,omitempty"`
	Effect   string `json:"effect"`
}

// PointsPerTier is how many points must be spent in strictly lower tiers
// before a tier unlocks: (tier-1) * PointsPerTier.
const PointsPerTier = 5

// Allocation validation errors.
var (
	ErrUnknownTalent = errors.New("unknown talent")
	ErrNoPoints      = errors.New("no talent points available")
	ErrMaxRank       = errors.New("talent already at max rank")
	ErrTierLocked    = errors.New("not enough points spent in lower tiers")
	ErrPrerequisite  = errors.New("prerequisite talent not at max rank")
	ErrLevelTooLow   = errors.New("agent level too low for tier")
)

// TreeFor returns the static talent tree for a class. Unknown classes get
// the warrior tree so inferred agents always have something to render.
func TreeFor(classID string) []Talent {
	if t, ok := trees[classID]; ok {
		return t
	}
	return trees["warrior"]
}

// Lookup finds a talent by id within a tree.
func Lookup(tree []Talent, id string) (Talent, bool) {
	for _, t := range tree {
		if t.ID == id {
			return t, true
		}
	}
	return Talent{}, false
}

// SpentBelowTier sums ranks allocated to talents in tiers strictly lower
// than tier.
func SpentBelowTier(tree []Talent, allocated map[string]int, tier int) int {
	total := 0
	for _, t := range tree {
		if t.Tier < tier {
			total += allocated[t.ID]
		}
	}
	return total
}

// SpentTotal sums all allocated ranks in a tree.
func SpentTotal(tree []Talent, allocated map[string]int) int {
	total := 0
	for _, t := range tree {
		total += allocated[t.ID]
	}
	return total
}

// CanAllocate re-validates every allocation invariant at call time. It never
// trusts a previously computed "can allocate" flag.
func CanAllocate(tree []Talent, level int, ts agent.TalentState, talentID string) error {
	t, ok := Lookup(tree, talentID)
	if !ok {
		return ErrUnknownTalent
	}
	if ts.Points <= 0 {
		return ErrNoPoints
	}
	if ts.Allocated[talentID] >= t.MaxRanks {
		return ErrMaxRank
	}
	if SpentBelowTier(tree, ts.Allocated, t.Tier) < (t.Tier-1)*PointsPerTier {
		return ErrTierLocked
	}
	if t.Requires != "" {
		req, ok := Lookup(tree, t.Requires)
		if !ok || ts.Allocated[t.Requires] < req.MaxRanks {
			return ErrPrerequisite
		}
	}
	if level < t.Tier*2 {
		return ErrLevelTooLow
	}
	return nil
}
