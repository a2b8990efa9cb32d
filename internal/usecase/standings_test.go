package usecase

import (
	"testing"

	"github.com/riskibarqy/fpl-oracle/internal/domain/fixture"
	"github.com/riskibarqy/fpl-oracle/internal/domain/team"
)

func TestResolveStandings_KeepsValidProviderTable(t *testing.T) {
	t.Parallel()

	provided := []team.Standing{{Name: "Arsenal", Position: 1}, {Name: "Man City", Position: 2}}
	got, rebuilt, err := ResolveStandings(provided, nil)
	if err != nil || rebuilt {
		t.Fatalf("expected provider table kept, rebuilt=%v err=%v", rebuilt, err)
	}
	if got[0].Name != "Arsenal" || got[0].Position != 1 {
		t.Fatalf("unexpected standings %+v", got)
	}
}

func TestResolveStandings_RebuildsFromFinishedFixtures(t *testing.T) {
	t.Parallel()

	provided := []team.Standing{
		{Name: "Arsenal", Position: 0},
		{Name: "Chelsea", Position: 0},
		{Name: "Man City", Position: 0},
	}
	finished := []fixture.Fixture{
		{HomeTeam: "Man City", AwayTeam: "Arsenal", Finished: true, HomeScore: intRef(2), AwayScore: intRef(0)},
		{HomeTeam: "Chelsea", AwayTeam: "Man City", Finished: true, HomeScore: intRef(1), AwayScore: intRef(1)},
		{HomeTeam: "Arsenal", AwayTeam: "Chelsea", Finished: true, HomeScore: intRef(3), AwayScore: intRef(0)},
		{HomeTeam: "Arsenal", AwayTeam: "Man City", Finished: false},
		{HomeTeam: "Arsenal", AwayTeam: "Ipswich", Finished: true, HomeScore: intRef(9), AwayScore: intRef(0)},
	}

	got, rebuilt, err := ResolveStandings(provided, finished)
	if !rebuilt || err == nil {
		t.Fatalf("expected rebuild with validation error, rebuilt=%v err=%v", rebuilt, err)
	}
	if verr := team.ValidatePositions(got); verr != nil {
		t.Fatalf("rebuilt table must be a permutation: %v", verr)
	}

	want := []string{"Man City", "Arsenal", "Chelsea"}
	for i, name := range want {
		if got[i].Name != name || got[i].Position != i+1 {
			t.Fatalf("position %d: want %s, got %+v", i+1, name, got)
		}
	}
}
