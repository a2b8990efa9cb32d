package usecase

import (
	"testing"
	"time"

	"github.com/riskibarqy/fpl-oracle/internal/domain/fixture"
	"github.com/riskibarqy/fpl-oracle/internal/domain/player"
	"github.com/riskibarqy/fpl-oracle/internal/domain/playerstats"
	"github.com/riskibarqy/fpl-oracle/internal/domain/team"
)

func assemblyFixture() AssemblyInput {
	kickoff := time.Date(2025, 11, 8, 15, 0, 0, 0, time.UTC)
	return AssemblyInput{
		Gameweek: 11,
		Standings: []team.Standing{
			{Name: "Man City", Position: 2},
			{Name: "Arsenal", Position: 4},
			{Name: "Chelsea", Position: 1},
			{Name: "Spurs", Position: 3},
		},
		Fixtures: []fixture.Fixture{
			{ID: 101, Gameweek: 11, HomeTeam: "Man City", AwayTeam: "Arsenal", KickoffAt: kickoff},
		},
		TeamAggregates: map[string]team.Aggregate{
			"Man City": {Name: "Man City", XGPer90: 2.1234, XGAgainstPer90: 0.8766},
			"Arsenal":  {Name: "Arsenal", XGPer90: 1.9, XGAgainstPer90: 0.7},
		},
	}
}

func TestAssembleFeatures_HomeFixtureWithOpponentContext(t *testing.T) {
	t.Parallel()

	in := assemblyFixture()
	in.Matches = []PlayerMatch{{
		Player: player.Player{ID: 355, FirstName: "Erling", LastName: "Haaland", TeamName: "Man City", Position: player.PositionForward, Cost: 148},
		Stat:   EligibleStat{Name: "Erling Haaland", PlayingTimePct: 93.3333, XGPer90: 1.23456, XAPer90: 0.1, YellowsPer90: 0.05},
	}}

	rows, stats := AssembleFeatures(in)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if row.IsAtHome != 1 {
		t.Fatalf("expected home fixture, got is_at_home=%d", row.IsAtHome)
	}
	if row.OpponentTeam == nil || *row.OpponentTeam != "Arsenal" {
		t.Fatalf("expected opponent Arsenal, got %v", row.OpponentTeam)
	}
	if row.OpponentLeaguePosition == nil || *row.OpponentLeaguePosition != 4 {
		t.Fatalf("expected opponent position 4, got %v", row.OpponentLeaguePosition)
	}
	if row.TeamLeaguePosition == nil || *row.TeamLeaguePosition != 2 {
		t.Fatalf("expected team position 2, got %v", row.TeamLeaguePosition)
	}
	if row.XGPer90 != 1.23 || row.PlayingTimePct != 93.33 {
		t.Fatalf("expected values rounded to 2 decimals, got xg=%v pct=%v", row.XGPer90, row.PlayingTimePct)
	}
	if row.TeamXGPer90 == nil || *row.TeamXGPer90 != 2.12 || *row.OpponentXGAgainstPer90 != 0.7 {
		t.Fatalf("unexpected aggregates: team=%v opp=%v", row.TeamXGPer90, row.OpponentXGAgainstPer90)
	}
	if row.FixturesInGameweek != 1 || row.Gameweek != 11 || row.FullName != "Erling Haaland" {
		t.Fatalf("unexpected row: %+v", row)
	}
	if row.TacklesPer90 != nil {
		t.Fatalf("defensive rates must stay null without data")
	}
	if stats != (AssemblyStats{}) {
		t.Fatalf("expected clean join, got %+v", stats)
	}
}

func TestAssembleFeatures_AwaySideAndDrops(t *testing.T) {
	t.Parallel()

	in := assemblyFixture()
	in.Matches = []PlayerMatch{
		{Player: player.Player{ID: 1, FirstName: "Bukayo", LastName: "Saka", TeamName: "Arsenal"}},
		{Player: player.Player{ID: 1, FirstName: "Bukayo", LastName: "Saka", TeamName: "Arsenal"}},
		{Player: player.Player{ID: 2, FirstName: "Cole", LastName: "Palmer", TeamName: "Chelsea"}},
		{Player: player.Player{ID: 3, FirstName: "Mystery", LastName: "Man", TeamName: "Atlantis FC"}},
	}

	rows, stats := AssembleFeatures(in)
	if len(rows) != 1 || rows[0].PlayerID != 1 {
		t.Fatalf("expected a single Saka row, got %+v", rows)
	}
	if rows[0].IsAtHome != 0 || *rows[0].OpponentTeam != "Man City" || *rows[0].OpponentLeaguePosition != 2 {
		t.Fatalf("unexpected away context: %+v", rows[0])
	}
	if stats.WithoutFixture != 1 || stats.WithoutTeam != 1 {
		t.Fatalf("unexpected drop counts: %+v", stats)
	}
}

func TestAssembleFeatures_DoubleGameweekUsesEarliestFixture(t *testing.T) {
	t.Parallel()

	in := assemblyFixture()
	early := in.Fixtures[0].KickoffAt.Add(-72 * time.Hour)
	in.Fixtures = append(in.Fixtures, fixture.Fixture{ID: 99, Gameweek: 11, HomeTeam: "Spurs", AwayTeam: "Man City", KickoffAt: early})
	in.Matches = []PlayerMatch{{Player: player.Player{ID: 355, FirstName: "Erling", LastName: "Haaland", TeamName: "Man City"}}}

	rows, stats := AssembleFeatures(in)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if *row.OpponentTeam != "Spurs" || row.IsAtHome != 0 || row.FixturesInGameweek != 2 {
		t.Fatalf("expected earliest fixture at Spurs with 2 fixtures, got %+v", row)
	}
	if row.OpponentXGPer90 != nil || stats.WithoutOpponentAggregate != 1 {
		t.Fatalf("missing opponent aggregate must stay null, got %v stats=%+v", row.OpponentXGPer90, stats)
	}
	if stats.DoubleGameweekRows != 1 {
		t.Fatalf("expected double gameweek counted, got %+v", stats)
	}
}

func TestAssembleFeatures_DefensiveTotalsTakePrecedence(t *testing.T) {
	t.Parallel()

	providerTackles := 9.0
	in := assemblyFixture()
	in.Matches = []PlayerMatch{{
		Player: player.Player{ID: 5, FirstName: "William", LastName: "Saliba", TeamName: "Arsenal"},
		Stat:   EligibleStat{TacklesPer90: &providerTackles},
	}}
	in.Defensive = map[int64]playerstats.DefensiveTotals{5: {Minutes: 900, Tackles: 15, ClearancesBlocksInterceptions: 60}}

	rows, _ := AssembleFeatures(in)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if *rows[0].TacklesPer90 != 1.5 || *rows[0].ClearancesBlocksInterceptionsPer90 != 6 {
		t.Fatalf("unexpected defensive rates: %v %v", *rows[0].TacklesPer90, *rows[0].ClearancesBlocksInterceptionsPer90)
	}
}

func TestAssembleFeatures_EmptyHistoryKeepsProviderDefensiveRates(t *testing.T) {
	t.Parallel()

	providerTackles := 1.75
	providerCBI := 4.0
	in := assemblyFixture()
	in.Matches = []PlayerMatch{{
		Player: player.Player{ID: 5, FirstName: "William", LastName: "Saliba", TeamName: "Arsenal"},
		Stat:   EligibleStat{TacklesPer90: &providerTackles, ClearancesBlocksInterceptionsPer90: &providerCBI},
	}}
	in.Defensive = map[int64]playerstats.DefensiveTotals{5: {}}

	rows, _ := AssembleFeatures(in)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].TacklesPer90 == nil || *rows[0].TacklesPer90 != 1.75 {
		t.Fatalf("expected provider tackles 1.75, got %v", rows[0].TacklesPer90)
	}
	if rows[0].ClearancesBlocksInterceptionsPer90 == nil || *rows[0].ClearancesBlocksInterceptionsPer90 != 4 {
		t.Fatalf("expected provider cbi 4, got %v", rows[0].ClearancesBlocksInterceptionsPer90)
	}
}
