package fixture

import "time"

// Fixture is a scheduled or played match between two canonical clubs.
type Fixture struct {
	ID        int64
	Gameweek  int
	HomeTeam  string
	AwayTeam  string
	KickoffAt time.Time
	Finished  bool
	HomeScore *int
	AwayScore *int
}

// Involves reports whether the club plays in this fixture and, if so,
// whether at home along with the opponent's name.
func (f Fixture) Involves(teamName string) (opponent string, isHome bool, ok bool) {
	switch teamName {
	case f.HomeTeam:
		return f.AwayTeam, true, true
	case f.AwayTeam:
		return f.HomeTeam, false, true
	default:
		return "", false, false
	}
}
