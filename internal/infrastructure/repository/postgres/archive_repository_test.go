package postgres

import (
	"strings"
	"testing"

	"github.com/riskibarqy/fpl-oracle/internal/domain/dataset"
	qb "github.com/riskibarqy/fpl-oracle/internal/platform/querybuilder"
)

func TestChunks(t *testing.T) {
	items := make([]int, 1201)
	got := chunks(items, 500)
	if len(got) != 3 {
		t.Fatalf("expected 3 chunks, got=%d", len(got))
	}
	if len(got[0]) != 500 || len(got[2]) != 201 {
		t.Fatalf("unexpected chunk sizes: %d %d", len(got[0]), len(got[2]))
	}
	if len(chunks([]int{}, 500)) != 0 {
		t.Fatalf("expected no chunks for empty input")
	}
}

func TestFeatureUpsertQuery(t *testing.T) {
	opp := "Arsenal"
	rows := []featureRowInsertModel{
		toFeatureModel("run-1", dataset.FeatureRow{PlayerID: 355, FullName: "Erling Haaland", TeamName: "Man City", Gameweek: 11, IsAtHome: 1, FixturesInGameweek: 1, OpponentTeam: &opp}),
		toFeatureModel("run-1", dataset.FeatureRow{PlayerID: 16, FullName: "Bukayo Saka", TeamName: "Arsenal", Gameweek: 11, FixturesInGameweek: 1}),
	}

	query, args, err := qb.InsertModels("feature_rows", rows, featureUpsertSuffix)
	if err != nil {
		t.Fatalf("build query: %v", err)
	}
	if len(args) != 2*23 {
		t.Fatalf("expected %d args, got=%d", 2*23, len(args))
	}
	if !strings.HasPrefix(query, "INSERT INTO feature_rows (run_id, gameweek, player_id, full_name,") {
		t.Fatalf("unexpected column order: %s", query[:80])
	}
	if !strings.Contains(query, "ON CONFLICT (gameweek, player_id) DO UPDATE SET run_id = EXCLUDED.run_id") {
		t.Fatalf("missing upsert clause: %s", query)
	}
	if !strings.HasSuffix(query, "fixtures_in_gameweek = EXCLUDED.fixtures_in_gameweek, updated_at = NOW()") {
		t.Fatalf("unexpected suffix: %s", query)
	}
	if !strings.Contains(query, "$46)") {
		t.Fatalf("expected 46 placeholders: %s", query)
	}
}

func TestLabelUpsertQuery(t *testing.T) {
	rows := []labelRowInsertModel{toLabelModel("run-2", dataset.LabelRow{PlayerID: 1, FullName: "A", Gameweek: 3, GWPoints: 6})}
	query, args, err := qb.InsertModels("label_rows", rows, labelUpsertSuffix)
	if err != nil {
		t.Fatalf("build query: %v", err)
	}
	want := "INSERT INTO label_rows (run_id, gameweek, player_id, full_name, gw_points) VALUES ($1, $2, $3, $4, $5) " +
		"ON CONFLICT (gameweek, player_id) DO UPDATE SET run_id = EXCLUDED.run_id, full_name = EXCLUDED.full_name, gw_points = EXCLUDED.gw_points, updated_at = NOW()"
	if query != want {
		t.Fatalf("unexpected query:\n%s\nwant:\n%s", query, want)
	}
	if args[0] != "run-2" || args[4] != 6 {
		t.Fatalf("unexpected args: %v", args)
	}
}
