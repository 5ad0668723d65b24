package talent

// Static trees, keyed by class id. Tier 1 talents are always reachable;
// deeper tiers gate on points spent and agent level.
var trees = map[string][]Talent{
	"warrior": {
		{ID: "war_focus", Name: "Battle Focus", Tier: 1, Column: 1, MaxRanks: 5, Effect: "+2% working speed per rank"},
		{ID: "war_grit", Name: "Grit", Tier: 1, Column: 2, MaxRanks: 3, Effect: "+5% error recovery per rank"},
		{ID: "war_cleave", Name: "Cleave", Tier: 2, Column: 1, MaxRanks: 3, Effect: "touch one extra file per pass per rank"},
		{ID: "war_rally", Name: "Rally", Tier: 2, Column: 2, MaxRanks: 2, Requires: "war_grit", Effect: "clear blocked status faster"},
		{ID: "war_exec", Name: "Execute", Tier: 3, Column: 1, MaxRanks: 1, Requires: "war_focus", Effect: "finishing quests grants +25% experience"},
	},
	"mage": {
		{ID: "mag_lore", Name: "Deep Lore", Tier: 1, Column: 1, MaxRanks: 5, Effect: "+3% research quality per rank"},
		{ID: "mag_recall", Name: "Recall", Tier: 1, Column: 2, MaxRanks: 3, Effect: "+5% context retention per rank"},
		{ID: "mag_scry", Name: "Scry", Tier: 2, Column: 1, MaxRanks: 3, Effect: "reads larger files in one pass"},
		{ID: "mag_focus", Name: "Arcane Focus", Tier: 2, Column: 2, MaxRanks: 2, Requires: "mag_recall", Effect: "slower context burn"},
		{ID: "mag_vision", Name: "Vision", Tier: 3, Column: 1, MaxRanks: 1, Requires: "mag_lore", Effect: "research answers include sources"},
	},
	"rogue": {
		{ID: "rog_swift", Name: "Swift Hands", Tier: 1, Column: 1, MaxRanks: 5, Effect: "+2% edit speed per rank"},
		{ID: "rog_stealth", Name: "Minimal Diff", Tier: 1, Column: 2, MaxRanks: 3, Effect: "smaller patches per rank"},
		{ID: "rog_dual", Name: "Dual Wield", Tier: 2, Column: 1, MaxRanks: 3, Effect: "edits two files concurrently"},
		{ID: "rog_vanish", Name: "Vanish", Tier: 2, Column: 2, MaxRanks: 2, Requires: "rog_stealth", Effect: "reverts cleanly on rejection"},
		{ID: "rog_ambush", Name: "Ambush", Tier: 3, Column: 1, MaxRanks: 1, Requires: "rog_swift", Effect: "first fix lands twice as fast"},
	},
	"guardian": {
		{ID: "gua_watch", Name: "Watchful Eye", Tier: 1, Column: 1, MaxRanks: 5, Effect: "+3% review depth per rank"},
		{ID: "gua_shield", Name: "Shield Wall", Tier: 1, Column: 2, MaxRanks: 3, Effect: "blocks risky changes per rank"},
		{ID: "gua_taunt", Name: "Taunt", Tier: 2, Column: 1, MaxRanks: 3, Effect: "surfaces hidden errors sooner"},
		{ID: "gua_bulwark", Name: "Bulwark", Tier: 2, Column: 2, MaxRanks: 2, Requires: "gua_shield", Effect: "rejected quests carry full feedback"},
		{ID: "gua_aegis", Name: "Aegis", Tier: 3, Column: 1, MaxRanks: 1, Requires: "gua_watch", Effect: "reviews never miss a failing test"},
	},
	"shaman": {
		{ID: "sha_totem", Name: "Test Totem", Tier: 1, Column: 1, MaxRanks: 5, Effect: "+3% test coverage per rank"},
		{ID: "sha_spirit", Name: "Spirit Link", Tier: 1, Column: 2, MaxRanks: 3, Effect: "shares findings with the party"},
		{ID: "sha_storm", Name: "Stormcall", Tier: 2, Column: 1, MaxRanks: 3, Effect: "runs suites in parallel"},
		{ID: "sha_mend", Name: "Mend", Tier: 2, Column: 2, MaxRanks: 2, Requires: "sha_spirit", Effect: "auto-retries flaky tests"},
		{ID: "sha_ascend", Name: "Ascendance", Tier: 3, Column: 1, MaxRanks: 1, Requires: "sha_totem", Effect: "green suite grants +25% experience"},
	},
}
