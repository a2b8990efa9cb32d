package usecase

import (
	"slices"

	"github.com/riskibarqy/fpl-oracle/internal/domain/dataset"
	"github.com/riskibarqy/fpl-oracle/internal/domain/fixture"
	"github.com/riskibarqy/fpl-oracle/internal/domain/playerstats"
	"github.com/riskibarqy/fpl-oracle/internal/domain/team"
)

// AssemblyInput carries everything the join needs; all club names must
// already be canonical.
type AssemblyInput struct {
	Gameweek       int
	Matches        []PlayerMatch
	Standings      []team.Standing
	Fixtures       []fixture.Fixture
	TeamAggregates map[string]team.Aggregate
	// Defensive holds per-player totals from the fantasy game's history.
	// When present they take precedence over the stat provider's figures.
	Defensive map[int64]playerstats.DefensiveTotals
}

// AssemblyStats counts rows dropped or left partially null by the join.
type AssemblyStats struct {
	WithoutTeam              int
	WithoutFixture           int
	WithoutTeamAggregate     int
	UnknownOpponent          int
	WithoutOpponentAggregate int
	DoubleGameweekRows       int
}

type teamFixture struct {
	opponent string
	isHome   bool
	count    int
}

// AssembleFeatures joins matched players with club context: team
// aggregates (left), the gameweek fixture (inner), then the opponent's
// aggregates and position (left), and projects the persisted row shape.
func AssembleFeatures(in AssemblyInput) ([]dataset.FeatureRow, AssemblyStats) {
	var stats AssemblyStats

	positions := make(map[string]int, len(in.Standings))
	for _, s := range in.Standings {
		positions[s.Name] = s.Position
	}
	fixturesByTeam := indexFixtures(in.Fixtures)

	rows := make([]dataset.FeatureRow, 0, len(in.Matches))
	seen := make(map[int64]struct{}, len(in.Matches))
	for _, m := range in.Matches {
		p := m.Player
		if _, dup := seen[p.ID]; dup {
			continue
		}

		teamPos, knownTeam := positions[p.TeamName]
		if !knownTeam {
			stats.WithoutTeam++
			continue
		}

		tf, hasFixture := fixturesByTeam[p.TeamName]
		if !hasFixture {
			stats.WithoutFixture++
			continue
		}
		seen[p.ID] = struct{}{}

		row := dataset.FeatureRow{
			PlayerID:           p.ID,
			FullName:           p.FullName(),
			TeamName:           p.TeamName,
			PlayerPosition:     string(p.Position),
			CurrentCost:        p.Cost,
			PlayingTimePct:     Round2(m.Stat.PlayingTimePct),
			XGPer90:            Round2(m.Stat.XGPer90),
			XAGPer90:           Round2(m.Stat.XAPer90),
			YellowsPer90:       Round2(m.Stat.YellowsPer90),
			RedsPer90:          Round2(m.Stat.RedsPer90),
			Gameweek:           in.Gameweek,
			TeamLeaguePosition: intRef(teamPos),
			FixturesInGameweek: tf.count,
		}
		if tf.isHome {
			row.IsAtHome = 1
		}
		if tf.count > 1 {
			stats.DoubleGameweekRows++
		}

		row.TacklesPer90, row.ClearancesBlocksInterceptionsPer90 = defensiveRates(m, in.Defensive)

		if agg, ok := in.TeamAggregates[p.TeamName]; ok {
			row.TeamXGPer90 = floatRef(Round2(agg.XGPer90))
			row.TeamXGAgainstPer90 = floatRef(Round2(agg.XGAgainstPer90))
		} else {
			stats.WithoutTeamAggregate++
		}

		if oppPos, ok := positions[tf.opponent]; ok {
			opponent := tf.opponent
			row.OpponentTeam = &opponent
			row.OpponentLeaguePosition = intRef(oppPos)
			if agg, ok := in.TeamAggregates[tf.opponent]; ok {
				row.OpponentXGPer90 = floatRef(Round2(agg.XGPer90))
				row.OpponentXGAgainstPer90 = floatRef(Round2(agg.XGAgainstPer90))
			} else {
				stats.WithoutOpponentAggregate++
			}
		} else {
			stats.UnknownOpponent++
		}

		rows = append(rows, row)
	}
	return rows, stats
}

// indexFixtures maps each club to its earliest fixture in the gameweek and
// the number of fixtures it plays.
func indexFixtures(fixtures []fixture.Fixture) map[string]teamFixture {
	ordered := slices.Clone(fixtures)
	slices.SortStableFunc(ordered, func(a, b fixture.Fixture) int {
		if c := a.KickoffAt.Compare(b.KickoffAt); c != 0 {
			return c
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})

	out := make(map[string]teamFixture)
	add := func(name, opponent string, isHome bool) {
		if name == "" {
			return
		}
		tf, ok := out[name]
		if !ok {
			tf = teamFixture{opponent: opponent, isHome: isHome}
		}
		tf.count++
		out[name] = tf
	}
	for _, f := range ordered {
		add(f.HomeTeam, f.AwayTeam, true)
		add(f.AwayTeam, f.HomeTeam, false)
	}
	return out
}

func defensiveRates(m PlayerMatch, defensive map[int64]playerstats.DefensiveTotals) (tackles, cbi *float64) {
	// Totals without minutes come from an empty history; use the provider.
	if totals, ok := defensive[m.Player.ID]; ok && totals.Minutes > 0 {
		minutes := float64(totals.Minutes)
		return floatRef(Round2(Per90(float64(totals.Tackles), minutes))),
			floatRef(Round2(Per90(float64(totals.ClearancesBlocksInterceptions), minutes)))
	}
	if m.Stat.TacklesPer90 != nil {
		tackles = floatRef(Round2(*m.Stat.TacklesPer90))
	}
	if m.Stat.ClearancesBlocksInterceptionsPer90 != nil {
		cbi = floatRef(Round2(*m.Stat.ClearancesBlocksInterceptionsPer90))
	}
	return tackles, cbi
}

func floatRef(v float64) *float64 { return &v }

func intRef(v int) *int { return &v }
