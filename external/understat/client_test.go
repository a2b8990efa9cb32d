package understat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/fpl-oracle/internal/domain/playerstats"
	"github.com/riskibarqy/fpl-oracle/internal/usecase"
)

const leagueBody = `{
  "teams": {
    "88": {"id": "88", "title": "Manchester City", "history": []},
    "83": {"id": "83", "title": "Arsenal", "history": []}
  },
  "players": [
    {"id": "8260", "player_name": "Erling Haaland", "games": "9", "time": "810", "goals": "11", "xG": "9.61", "assists": "1", "xA": "1.2", "yellow_cards": "1", "red_cards": "0", "team_title": "Manchester City"},
    {"id": "5555", "player_name": "Broken Row", "games": "x", "time": "10", "xG": "0", "xA": "0", "yellow_cards": "0", "red_cards": "0", "team_title": "Arsenal"}
  ],
  "dates": []
}`

const teamBody = `{
  "dates": [
    {"id": "1", "isResult": true, "side": "h", "h": {"title": "Manchester City"}, "a": {"title": "Wolves"}, "xG": {"h": "2.5", "a": "0.5"}, "datetime": "2025-08-16 17:30:00"},
    {"id": "2", "isResult": true, "side": "a", "h": {"title": "Arsenal"}, "a": {"title": "Manchester City"}, "xG": {"h": "1.1", "a": "0.9"}, "datetime": "2025-08-23 15:00:00"},
    {"id": "3", "isResult": false, "side": "h", "h": {"title": "Manchester City"}, "a": {"title": "Spurs"}, "xG": {"h": null, "a": null}, "datetime": "2026-05-24 15:00:00"}
  ]
}`

func newServer(t *testing.T, hits *atomic.Int32, routes map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_LeagueData(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := newServer(t, &hits, map[string]string{"/getLeagueData/EPL/2025": leagueBody})
	client := NewClient(ClientConfig{BaseURL: srv.URL, Timeout: 5 * time.Second})
	ctx := context.Background()

	stats, err := client.PlayerSeasonStats(ctx, "2025")
	require.NoError(t, err)
	records := stats.Records
	require.Len(t, records, 1, "row with unparseable numbers is skipped")
	require.Equal(t, []playerstats.DroppedRow{{Name: "Broken Row", Reason: "unparseable numbers"}}, stats.Dropped)
	require.Equal(t, "Erling Haaland", records[0].Name)
	require.Equal(t, "Manchester City", records[0].Team)
	require.Equal(t, 810, records[0].Minutes)
	require.InDelta(t, 9.61, records[0].XG, 1e-9)
	require.Equal(t, "understat", records[0].Source)

	teams, err := client.ListTeams(ctx, "2025")
	require.NoError(t, err)
	require.Equal(t, []string{"Arsenal", "Manchester City"}, teams)
	require.EqualValues(t, 1, hits.Load())
}

func TestClient_TeamMatchHistory(t *testing.T) {
	t.Parallel()

	srv := newServer(t, nil, map[string]string{"/getTeamData/Manchester_City/2025": teamBody})
	client := NewClient(ClientConfig{BaseURL: srv.URL, Timeout: 5 * time.Second})

	matches, err := client.TeamMatchHistory(context.Background(), "Manchester City", "2025")
	require.NoError(t, err)
	require.Len(t, matches, 3)

	require.True(t, matches[0].IsHome)
	require.InDelta(t, 2.5, matches[0].XGFor, 1e-9)
	require.InDelta(t, 0.5, matches[0].XGAgainst, 1e-9)

	require.False(t, matches[1].IsHome)
	require.InDelta(t, 0.9, matches[1].XGFor, 1e-9)
	require.InDelta(t, 1.1, matches[1].XGAgainst, 1e-9)
	require.Equal(t, time.Date(2025, 8, 23, 15, 0, 0, 0, time.UTC), matches[1].KickoffAt)

	require.False(t, matches[2].IsResult)
}

func TestClient_SchemaDrift(t *testing.T) {
	t.Parallel()

	srv := newServer(t, nil, map[string]string{
		"/getLeagueData/EPL/2025":   `{"teams": {}, "players": [{"player_name": "A", "games": "1"}]}`,
		"/getTeamData/Arsenal/2025": `{"dates": [{"id": "1", "side": "h"}]}`,
		"/getTeamData/Wolves/2025":  `{"statistics": {}}`,
	})
	client := NewClient(ClientConfig{BaseURL: srv.URL, Timeout: 5 * time.Second})
	ctx := context.Background()

	_, err := client.PlayerSeasonStats(ctx, "2025")
	require.ErrorIs(t, err, usecase.ErrSchemaDrift)

	_, err = client.TeamMatchHistory(ctx, "Arsenal", "2025")
	require.ErrorIs(t, err, usecase.ErrSchemaDrift)

	_, err = client.TeamMatchHistory(ctx, "Wolves", "2025")
	require.ErrorIs(t, err, usecase.ErrSchemaDrift)

	_, err = client.TeamMatchHistory(ctx, "Unknown", "2025")
	require.ErrorIs(t, err, usecase.ErrNotFound)
}
