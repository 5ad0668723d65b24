package agent

// ExperiencePerQuest is awarded for each approved quest.
const ExperiencePerQuest = 100

// LevelForExperience maps cumulative experience to a level. Advancing from
// level L to L+1 costs 100*L experience, so the cumulative threshold for
// level L is 50*L*(L-1).
func LevelForExperience(xp int) int {
	level := 1
	for 50*(level+1)*level <= xp {
		level++
	}
	return level
}
