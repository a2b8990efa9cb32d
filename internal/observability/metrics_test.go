package observability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/fpl-oracle/internal/usecase"
)

func TestRunMetrics_Record(t *testing.T) {
	t.Parallel()

	m := NewRunMetrics()
	finished := time.Unix(1_760_000_000, 0)
	m.Record(usecase.RunReport{
		PlayersFetched:   700,
		EligibleStats:    310,
		UnmatchedPlayers: []string{"A", "B"},
		FeatureRows:      280,
		LabelRows:        275,
		DurationMs:       1500,
		Skipped: []usecase.EntityOutcome{
			{Stage: "player_history", Key: "1"},
			{Stage: "player_history", Key: "2"},
			{Stage: "team_history", Key: "Spurs"},
		},
	}, finished)

	require.InDelta(t, 700, testutil.ToFloat64(m.playersFetched), 0)
	require.InDelta(t, 2, testutil.ToFloat64(m.unmatchedPlayers), 0)
	require.InDelta(t, 1.5, testutil.ToFloat64(m.duration), 1e-9)
	require.InDelta(t, 2, testutil.ToFloat64(m.skippedEntities.WithLabelValues("player_history")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.skippedEntities.WithLabelValues("team_history")), 0)
	require.InDelta(t, float64(finished.Unix()), testutil.ToFloat64(m.lastSuccess), 0)

	m.Record(usecase.RunReport{AlreadyCaptured: true}, finished.Add(time.Hour))
	require.InDelta(t, float64(finished.Unix()), testutil.ToFloat64(m.lastSuccess), 0, "already captured runs keep the last success time")
	require.Equal(t, 0, testutil.CollectAndCount(m.skippedEntities))
}

func TestRunMetrics_Push(t *testing.T) {
	t.Parallel()

	type pushed struct {
		path string
		body []byte
	}
	got := make(chan pushed, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		got <- pushed{path: r.URL.Path, body: raw}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	m := NewRunMetrics()
	m.Record(usecase.RunReport{FeatureRows: 12}, time.Now())
	require.NoError(t, m.Push(context.Background(), srv.URL, "fpl-oracle", 11))

	p := <-got
	require.Equal(t, "/metrics/job/fpl-oracle/gameweek/11", p.path)
	require.NotEmpty(t, p.body)
}
