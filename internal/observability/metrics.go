package observability

import (
	"context"
	"strconv"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/riskibarqy/fpl-oracle/internal/usecase"
)

const metricsNamespace = "fpl_oracle"

// RunMetrics holds the gauges describing the last dataset run. It uses its
// own registry so a push carries only run metrics, not Go runtime ones.
type RunMetrics struct {
	registry *prometheus.Registry

	playersFetched   prometheus.Gauge
	statRecords      prometheus.Gauge
	eligibleStats    prometheus.Gauge
	unmatchedPlayers prometheus.Gauge
	collisions       prometheus.Gauge
	featureRows      prometheus.Gauge
	labelRows        prometheus.Gauge
	skippedEntities  *prometheus.GaugeVec
	duration         prometheus.Gauge
	lastSuccess      prometheus.Gauge
	archiveFailed    prometheus.Gauge
}

func NewRunMetrics() *RunMetrics {
	registry := prometheus.NewRegistry()
	auto := promauto.With(registry)
	gauge := func(name, help string) prometheus.Gauge {
		return auto.NewGauge(prometheus.GaugeOpts{Namespace: metricsNamespace, Subsystem: "run", Name: name, Help: help})
	}

	return &RunMetrics{
		registry:         registry,
		playersFetched:   gauge("players_fetched", "Players in the fantasy pool"),
		statRecords:      gauge("stat_records", "Season stat rows returned by the stat provider"),
		eligibleStats:    gauge("eligible_stats", "Stat rows that passed the playing-time gate"),
		unmatchedPlayers: gauge("unmatched_players", "Fantasy players with no stat row above the match threshold"),
		collisions:       gauge("match_collisions_dropped", "Players dropped because another player took their stat row"),
		featureRows:      gauge("feature_rows", "Rows written to the feature file"),
		labelRows:        gauge("label_rows", "Rows written to the label file"),
		skippedEntities: auto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "run",
			Name:      "skipped_entities",
			Help:      "Entities skipped after a per-entity fetch failure, by stage",
		}, []string{"stage"}),
		duration:      gauge("duration_seconds", "Wall time of the run"),
		lastSuccess:   gauge("last_success_timestamp_seconds", "Unix time of the last run that wrote files"),
		archiveFailed: gauge("archive_failed", "1 when mirroring rows to Postgres failed"),
	}
}

func (m *RunMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Record copies a finished run's report into the gauges.
func (m *RunMetrics) Record(report usecase.RunReport, finishedAt time.Time) {
	m.playersFetched.Set(float64(report.PlayersFetched))
	m.statRecords.Set(float64(report.StatRecords))
	m.eligibleStats.Set(float64(report.EligibleStats))
	m.unmatchedPlayers.Set(float64(len(report.UnmatchedPlayers)))
	m.collisions.Set(float64(report.MatchCollisionsDropped))
	m.featureRows.Set(float64(report.FeatureRows))
	m.labelRows.Set(float64(report.LabelRows))
	m.duration.Set(float64(report.DurationMs) / 1000)

	m.skippedEntities.Reset()
	for stage, n := range report.SkippedByStage() {
		m.skippedEntities.WithLabelValues(stage).Set(float64(n))
	}

	if report.ArchiveFailed {
		m.archiveFailed.Set(1)
	} else {
		m.archiveFailed.Set(0)
	}
	if !report.AlreadyCaptured {
		m.lastSuccess.Set(float64(finishedAt.Unix()))
	}
}

// Push sends the registry to a Pushgateway, grouped by gameweek.
func (m *RunMetrics) Push(ctx context.Context, gatewayURL, job string, gameweek int) error {
	err := push.New(gatewayURL, job).
		Gatherer(m.registry).
		Grouping("gameweek", strconv.Itoa(gameweek)).
		PushContext(ctx)
	if err != nil {
		return crerr.Wrapf(err, "push run metrics to %s", gatewayURL)
	}
	return nil
}
