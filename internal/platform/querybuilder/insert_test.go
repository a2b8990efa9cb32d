package querybuilder

import "testing"

type labelModel struct {
	Gameweek int    `db:"gameweek"`
	PlayerID int64  `db:"player_id"`
	Points   int    `db:"gw_points"`
	internal string `db:"ignored"`
	Note     string `db:"-"`
}

func TestInsertModels_BuildsMultiRowUpsert(t *testing.T) {
	rows := []labelModel{
		{Gameweek: 11, PlayerID: 302, Points: 6},
		{Gameweek: 11, PlayerID: 355, Points: 2},
	}

	query, args, err := InsertModels("label_rows", rows, UpsertSuffix([]string{"gameweek", "player_id"}, []string{"gw_points"}))
	if err != nil {
		t.Fatalf("build insert: %v", err)
	}

	want := "INSERT INTO label_rows (gameweek, player_id, gw_points) VALUES ($1, $2, $3), ($4, $5, $6) " +
		"ON CONFLICT (gameweek, player_id) DO UPDATE SET gw_points = EXCLUDED.gw_points"
	if query != want {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", want, query)
	}
	if len(args) != 6 || args[1] != int64(302) || args[5] != 2 {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertModels_RejectsEmptyInput(t *testing.T) {
	if _, _, err := InsertModels[labelModel]("label_rows", nil, ""); err == nil {
		t.Fatalf("expected error for empty models")
	}
}

func TestUpsertSuffix_DoNothingWithoutUpdateColumns(t *testing.T) {
	got := UpsertSuffix([]string{"payload_hash"}, nil)
	if got != "ON CONFLICT (payload_hash) DO NOTHING" {
		t.Fatalf("unexpected suffix %q", got)
	}
}

func TestInsertBuilder_RowWidthMismatch(t *testing.T) {
	_, _, err := InsertInto("feature_rows").Columns("a", "b").Values(1).ToSQL()
	if err == nil {
		t.Fatalf("expected mismatch error")
	}
}
