package usecase

import (
	"math"
	"testing"

	"github.com/riskibarqy/fpl-oracle/internal/domain/playerstats"
)

func TestPer90(t *testing.T) {
	t.Parallel()

	if got := Per90(3.7, 0); got != 0 {
		t.Fatalf("zero minutes must yield exactly 0, got %v", got)
	}
	if got := Per90(2, -10); got != 0 {
		t.Fatalf("negative minutes must yield 0, got %v", got)
	}
	if got := Per90(4.5, 900); math.Abs(got-0.45) > 1e-9 {
		t.Fatalf("expected 0.45, got %v", got)
	}
	if got := Per90(math.Inf(1), 90); got != 0 {
		t.Fatalf("non-finite rate must yield 0, got %v", got)
	}
}

func TestRound2(t *testing.T) {
	t.Parallel()

	cases := map[float64]float64{
		0.125:    0.13,
		1.004:    1,
		66.66666: 66.67,
		0:        0,
	}
	for in, want := range cases {
		if got := Round2(in); got != want {
			t.Fatalf("Round2(%v)=%v want=%v", in, got, want)
		}
	}
}

func TestFilterEligible_PlayingTimeGate(t *testing.T) {
	t.Parallel()

	records := []playerstats.SeasonRecord{
		{Name: "Bench Player", Games: 1, Minutes: 45, XG: 0.2},
		{Name: "Starter", Games: 10, Minutes: 880, XG: 4.4, XA: 2.2, YellowCards: 2},
		{Name: "Unused", Games: 0, Minutes: 0},
	}

	eligible, excluded := FilterEligible(records, 60)
	if excluded != 2 {
		t.Fatalf("expected 2 excluded, got %d", excluded)
	}
	if len(eligible) != 1 || eligible[0].Name != "Starter" {
		t.Fatalf("unexpected eligible set: %+v", eligible)
	}

	got := eligible[0]
	if Round2(got.PlayingTimePct) != 97.78 {
		t.Fatalf("unexpected playing time pct %v", got.PlayingTimePct)
	}
	if Round2(got.XGPer90) != 0.45 || Round2(got.YellowsPer90) != 0.2 {
		t.Fatalf("unexpected rates: %+v", got)
	}
	if got.TacklesPer90 != nil || got.ClearancesBlocksInterceptionsPer90 != nil {
		t.Fatalf("defensive rates must stay unset without provider data")
	}
}

func TestDeriveStat_DefensiveRates(t *testing.T) {
	t.Parallel()

	stat := DeriveStat(playerstats.SeasonRecord{
		Name: "Virgil van Dijk", Games: 10, Minutes: 900,
		HasDefensive: true, Tackles: 10, ClearancesBlocksInterceptions: 45,
	})
	if stat.TacklesPer90 == nil || Round2(*stat.TacklesPer90) != 1 {
		t.Fatalf("unexpected tackles per 90: %v", stat.TacklesPer90)
	}
	if stat.ClearancesBlocksInterceptionsPer90 == nil || Round2(*stat.ClearancesBlocksInterceptionsPer90) != 4.5 {
		t.Fatalf("unexpected cbi per 90: %v", stat.ClearancesBlocksInterceptionsPer90)
	}
}

func TestDeriveStat_ProviderPlayingTimeWins(t *testing.T) {
	t.Parallel()

	pct := 41.5
	stat := DeriveStat(playerstats.SeasonRecord{Name: "Rotation", Games: 10, Minutes: 900, PlayingTimePct: &pct})
	if stat.PlayingTimePct != 41.5 {
		t.Fatalf("expected provider playing time to win, got %v", stat.PlayingTimePct)
	}
}
