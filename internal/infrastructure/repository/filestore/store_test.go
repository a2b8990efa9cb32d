package filestore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/fpl-oracle/internal/domain/dataset"
	"github.com/riskibarqy/fpl-oracle/internal/platform/logging"
)

func floatRef(v float64) *float64 { return &v }
func intRef(v int) *int           { return &v }
func strRef(v string) *string     { return &v }

func TestStore_FeatureRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewStore(dir, logging.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	rows := []dataset.FeatureRow{
		{
			PlayerID: 355, FullName: "Erling Haaland", TeamName: "Man City", PlayerPosition: "Forward",
			CurrentCost: 145, PlayingTimePct: 97.78, XGPer90: 0.96, XAGPer90: 0.12,
			TacklesPer90: floatRef(0.5), ClearancesBlocksInterceptionsPer90: floatRef(1.25),
			TeamXGPer90: floatRef(2.1), TeamXGAgainstPer90: floatRef(0.8),
			OpponentTeam: strRef("Arsenal"), OpponentXGPer90: floatRef(1.9), OpponentXGAgainstPer90: floatRef(0.7),
			OpponentLeaguePosition: intRef(4), Gameweek: 11, IsAtHome: 1, TeamLeaguePosition: intRef(1), FixturesInGameweek: 1,
		},
		{
			PlayerID: 16, FullName: "Bukayo Saka, Jr", TeamName: "Arsenal", PlayerPosition: "Midfielder",
			CurrentCost: 100, PlayingTimePct: 88, Gameweek: 11, FixturesInGameweek: 2,
		},
	}
	require.NoError(t, store.WriteFeatures(ctx, 11, rows))

	raw, err := os.ReadFile(filepath.Join(dir, "X_11.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Equal(t, strings.Join(dataset.FeatureColumns, ","), lines[0])
	require.Len(t, lines, 3)
	require.Contains(t, lines[2], `"Bukayo Saka, Jr"`)
	require.True(t, strings.HasSuffix(lines[2], "0,,,,,,,,,11,0,,2"), "nil values are empty cells: %s", lines[2])

	got, ok, err := store.ReadFeatures(ctx, 11)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, rows, got)

	exists, err := store.FeaturesExist(ctx, 11)
	require.NoError(t, err)
	require.True(t, exists)

	leftovers, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	require.Empty(t, leftovers)
}

func TestStore_ReadFeaturesMissing(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir(), nil)
	require.NoError(t, err)

	rows, ok, err := store.ReadFeatures(context.Background(), 3)
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, rows)

	exists, err := store.FeaturesExist(context.Background(), 3)
	require.NoError(t, err)
	require.False(t, exists)
}

func TestStore_ReadFeaturesByHeader(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewStore(dir, nil)
	require.NoError(t, err)

	doc := "full_name,gameweek,xg_per_90\nMohamed Salah,7,0.61\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "X_7.csv"), []byte(doc), 0o644))

	rows, ok, err := store.ReadFeatures(context.Background(), 7)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, rows, 1)
	require.Equal(t, "Mohamed Salah", rows[0].FullName)
	require.Zero(t, rows[0].PlayerID)
	require.Equal(t, 7, rows[0].Gameweek)
	require.InDelta(t, 0.61, rows[0].XGPer90, 1e-9)
	require.Nil(t, rows[0].TacklesPer90)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "X_8.csv"), []byte("player_id\n1\n"), 0o644))
	_, ok, err = store.ReadFeatures(context.Background(), 8)
	require.Error(t, err)
	require.True(t, ok)
}

func TestStore_CapturedGameweeks(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewStore(dir, nil)
	require.NoError(t, err)

	for _, name := range []string{"X_10.csv", "X_2.csv", "y_9.csv", "X_abc.csv", "X_3.csv.bak", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("full_name\n"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "X_4.csv"), 0o755))

	got, err := store.CapturedGameweeks(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int{2, 10}, got)
}

func TestStore_WriteLabels(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewStore(dir, nil)
	require.NoError(t, err)

	require.NoError(t, store.WriteLabels(context.Background(), 10, []dataset.LabelRow{
		{PlayerID: 355, FullName: "Erling Haaland", Gameweek: 10, GWPoints: 2},
	}))
	raw, err := os.ReadFile(filepath.Join(dir, "y_10.csv"))
	require.NoError(t, err)
	require.Equal(t, "player_id,full_name,gameweek,gw_points\n355,Erling Haaland,10,2\n", string(raw))
}
