package team

import (
	"testing"
	"time"
)

func TestValidatePositions(t *testing.T) {
	valid := []Standing{{Name: "Arsenal", Position: 2}, {Name: "Man City", Position: 1}, {Name: "Spurs", Position: 3}}
	if err := ValidatePositions(valid); err != nil {
		t.Fatalf("expected permutation to be valid: %v", err)
	}

	cases := map[string][]Standing{
		"empty":          nil,
		"duplicate pos":  {{Name: "Arsenal", Position: 1}, {Name: "Man City", Position: 1}},
		"out of range":   {{Name: "Arsenal", Position: 1}, {Name: "Man City", Position: 3}},
		"zero position":  {{Name: "Arsenal", Position: 0}, {Name: "Man City", Position: 1}},
		"duplicate team": {{Name: "Arsenal", Position: 1}, {Name: "Arsenal", Position: 2}},
		"blank name":     {{Name: "", Position: 1}},
	}
	for name, standings := range cases {
		if err := ValidatePositions(standings); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestAggregateMatches(t *testing.T) {
	asOf := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	matches := []Match{
		{KickoffAt: asOf.AddDate(0, 0, -14), IsResult: true, XGFor: 2.0, XGAgainst: 0.5},
		{KickoffAt: asOf.AddDate(0, 0, -7), IsResult: true, XGFor: 1.0, XGAgainst: 1.5},
		{KickoffAt: asOf.AddDate(0, 0, -3), IsResult: false},
		{KickoffAt: asOf.AddDate(0, 0, 2), IsResult: true, XGFor: 9, XGAgainst: 9},
	}

	agg, ok := AggregateMatches("Man City", matches, asOf)
	if !ok {
		t.Fatalf("expected aggregate")
	}
	if agg.MatchesPlayed != 2 || agg.XGPer90 != 1.5 || agg.XGAgainstPer90 != 1.0 {
		t.Fatalf("unexpected aggregate: %+v", agg)
	}

	if _, ok := AggregateMatches("Sunderland", matches[2:3], asOf); ok {
		t.Fatalf("club without completed matches must not aggregate")
	}
}
