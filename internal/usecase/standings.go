package usecase

import (
	"slices"

	"github.com/riskibarqy/fpl-oracle/internal/domain/fixture"
	"github.com/riskibarqy/fpl-oracle/internal/domain/team"
)

// ResolveStandings keeps the provider's positions when they form a valid
// permutation. Otherwise positions are rebuilt from finished fixtures:
// points, then goal difference, then goals scored, then name.
func ResolveStandings(provided []team.Standing, finished []fixture.Fixture) (standings []team.Standing, rebuilt bool, validationErr error) {
	validationErr = team.ValidatePositions(provided)
	if validationErr == nil {
		return provided, false, nil
	}
	return StandingsFromFixtures(team.SortedNames(provided), finished), true, validationErr
}

type tableRow struct {
	name         string
	points       int
	goalsFor     int
	goalsAgainst int
}

// StandingsFromFixtures ranks the given clubs using finished fixtures with
// final scores. Fixtures involving unknown clubs are ignored.
func StandingsFromFixtures(teamNames []string, finished []fixture.Fixture) []team.Standing {
	rows := make(map[string]*tableRow, len(teamNames))
	for _, name := range teamNames {
		rows[name] = &tableRow{name: name}
	}

	for _, f := range finished {
		if !f.Finished || f.HomeScore == nil || f.AwayScore == nil {
			continue
		}
		home, okHome := rows[f.HomeTeam]
		away, okAway := rows[f.AwayTeam]
		if !okHome || !okAway {
			continue
		}
		hs, as := *f.HomeScore, *f.AwayScore
		home.goalsFor += hs
		home.goalsAgainst += as
		away.goalsFor += as
		away.goalsAgainst += hs
		switch {
		case hs > as:
			home.points += 3
		case hs < as:
			away.points += 3
		default:
			home.points++
			away.points++
		}
	}

	ordered := make([]*tableRow, 0, len(rows))
	for _, r := range rows {
		ordered = append(ordered, r)
	}
	slices.SortFunc(ordered, func(a, b *tableRow) int {
		if a.points != b.points {
			return b.points - a.points
		}
		if gdA, gdB := a.goalsFor-a.goalsAgainst, b.goalsFor-b.goalsAgainst; gdA != gdB {
			return gdB - gdA
		}
		if a.goalsFor != b.goalsFor {
			return b.goalsFor - a.goalsFor
		}
		switch {
		case a.name < b.name:
			return -1
		case a.name > b.name:
			return 1
		}
		return 0
	})

	out := make([]team.Standing, len(ordered))
	for i, r := range ordered {
		out[i] = team.Standing{Name: r.name, Position: i + 1}
	}
	return out
}
