package talent_test

import (
	"errors"
	"testing"

	"github.com/Strob0t/AgentGuild/internal/domain/agent"
	"github.com/Strob0t/AgentGuild/internal/domain/talent"
)

func TestCanAllocate(t *testing.T) {
	tree := talent.TreeFor("warrior")

	tests := []struct {
		name    string
		level   int
		state   agent.TalentState
		talent  string
		wantErr error
	}{
		{
			name:   "tier one happy path",
			level:  2,
			state:  agent.TalentState{Points: 1, Allocated: map[string]int{}},
			talent: "war_focus",
		},
		{
			name:    "unknown talent",
			level:   10,
			state:   agent.TalentState{Points: 1, Allocated: map[string]int{}},
			talent:  "war_missing",
			wantErr: talent.ErrUnknownTalent,
		},
		{
			name:    "no points",
			level:   10,
			state:   agent.TalentState{Points: 0, Allocated: map[string]int{}},
			talent:  "war_focus",
			wantErr: talent.ErrNoPoints,
		},
		{
			name:    "already at max rank",
			level:   10,
			state:   agent.TalentState{Points: 1, Allocated: map[string]int{"war_grit": 3}},
			talent:  "war_grit",
			wantErr: talent.ErrMaxRank,
		},
		{
			name:    "tier two locked without five points below",
			level:   10,
			state:   agent.TalentState{Points: 1, Allocated: map[string]int{"war_focus": 4}},
			talent:  "war_cleave",
			wantErr: talent.ErrTierLocked,
		},
		{
			name:   "tier two open with five points below",
			level:  10,
			state:  agent.TalentState{Points: 1, Allocated: map[string]int{"war_focus": 5}},
			talent: "war_cleave",
		},
		{
			name:    "prerequisite not at max rank",
			level:   10,
			state:   agent.TalentState{Points: 1, Allocated: map[string]int{"war_focus": 3, "war_grit": 2}},
			talent:  "war_rally",
			wantErr: talent.ErrPrerequisite,
		},
		{
			name:   "prerequisite satisfied",
			level:  10,
			state:  agent.TalentState{Points: 1, Allocated: map[string]int{"war_focus": 2, "war_grit": 3}},
			talent: "war_rally",
		},
		{
			name:    "level too low for tier",
			level:   3,
			state:   agent.TalentState{Points: 1, Allocated: map[string]int{"war_focus": 5}},
			talent:  "war_cleave",
			wantErr: talent.ErrLevelTooLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := talent.CanAllocate(tree, tt.level, tt.state, tt.talent)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CanAllocate = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTreeForFallback(t *testing.T) {
	warrior := talent.TreeFor("warrior")
	unknown := talent.TreeFor("paladin")
	if len(unknown) == 0 || unknown[0].ID != warrior[0].ID {
		t.Fatal("unknown class should fall back to the warrior tree")
	}
	mage := talent.TreeFor("mage")
	if mage[0].ID == warrior[0].ID {
		t.Fatal("mage tree should differ from warrior tree")
	}
}

func TestSpentTotals(t *testing.T) {
	tree := talent.TreeFor("mage")
	allocated := map[string]int{"mag_lore": 3, "mag_recall": 2, "mag_scry": 1}

	if got := talent.SpentTotal(tree, allocated); got != 6 {
		t.Fatalf("SpentTotal = %d, want 6", got)
	}
	if got := talent.SpentBelowTier(tree, allocated, 2); got != 5 {
		t.Fatalf("SpentBelowTier(2) = %d, want 5", got)
	}
	if got := talent.SpentBelowTier(tree, allocated, 3); got != 6 {
		t.Fatalf("SpentBelowTier(3) = %d, want 6", got)
	}
}
