package team

import (
	"fmt"
	"slices"
	"time"
)

// Standing is a club's canonical name and current league position.
type Standing struct {
	Name     string
	Position int
}

// ValidatePositions checks that positions form a permutation of 1..N with
// unique, non-empty club names.
func ValidatePositions(standings []Standing) error {
	if len(standings) == 0 {
		return fmt.Errorf("standings are empty")
	}
	seenPos := make([]bool, len(standings)+1)
	seenName := make(map[string]struct{}, len(standings))
	for _, s := range standings {
		if s.Name == "" {
			return fmt.Errorf("standing has empty team name")
		}
		if _, dup := seenName[s.Name]; dup {
			return fmt.Errorf("team %q listed twice", s.Name)
		}
		seenName[s.Name] = struct{}{}
		if s.Position < 1 || s.Position > len(standings) {
			return fmt.Errorf("team %q has position %d outside 1..%d", s.Name, s.Position, len(standings))
		}
		if seenPos[s.Position] {
			return fmt.Errorf("position %d assigned twice", s.Position)
		}
		seenPos[s.Position] = true
	}
	return nil
}

// Match is one club-perspective match from a team stat provider.
type Match struct {
	KickoffAt time.Time
	IsResult  bool
	IsHome    bool
	XGFor     float64
	XGAgainst float64
}

// Aggregate is a club's season-to-date expected goals per 90.
type Aggregate struct {
	Name           string
	MatchesPlayed  int
	XGPer90        float64
	XGAgainstPer90 float64
}

// Aggregate folds completed matches kicked off strictly before asOf. The
// second return value is false when there is nothing to aggregate yet.
func AggregateMatches(name string, matches []Match, asOf time.Time) (Aggregate, bool) {
	out := Aggregate{Name: name}
	var xgFor, xgAgainst float64
	for _, m := range matches {
		if !m.IsResult || !m.KickoffAt.Before(asOf) {
			continue
		}
		out.MatchesPlayed++
		xgFor += m.XGFor
		xgAgainst += m.XGAgainst
	}
	if out.MatchesPlayed == 0 {
		return out, false
	}
	out.XGPer90 = xgFor / float64(out.MatchesPlayed)
	out.XGAgainstPer90 = xgAgainst / float64(out.MatchesPlayed)
	return out, true
}

// SortedNames returns club names in ascending order.
func SortedNames(standings []Standing) []string {
	names := make([]string, 0, len(standings))
	for _, s := range standings {
		names = append(names, s.Name)
	}
	slices.Sort(names)
	return names
}
