package usecase

import (
	"maps"
	"slices"
)

// RunReport summarises one pipeline run for logs and metrics.
type RunReport struct {
	RunID           string `json:"run_id"`
	Gameweek        int    `json:"gameweek"`
	AlreadyCaptured bool   `json:"already_captured"`

	PlayersFetched        int `json:"players_fetched"`
	StatRecords           int `json:"stat_records"`
	EligibleStats         int `json:"eligible_stats"`
	ExcludedByPlayingTime int `json:"excluded_by_playing_time"`

	MatchedPlayers         int      `json:"matched_players"`
	UnmatchedPlayers       []string `json:"unmatched_players,omitempty"`
	MatchCollisionsDropped int      `json:"match_collisions_dropped"`

	StandingsRebuilt bool     `json:"standings_rebuilt"`
	UnresolvedTeams  []string `json:"unresolved_teams,omitempty"`
	TeamAggregates   int      `json:"team_aggregates"`

	Assembly AssemblyStats `json:"assembly"`

	FeatureRows      int    `json:"feature_rows"`
	LabelGameweek    int    `json:"label_gameweek,omitempty"`
	LabelRows        int    `json:"label_rows"`
	LabelsSkipped    string `json:"labels_skipped,omitempty"`
	ArchiveFailed    bool   `json:"archive_failed"`
	PayloadsArchived int    `json:"payloads_archived"`
	DurationMs       int64  `json:"duration_ms"`

	Skipped []EntityOutcome `json:"skipped,omitempty"`
}

// SkippedByStage counts skipped entities per fan-out stage.
func (r RunReport) SkippedByStage() map[string]int {
	out := make(map[string]int)
	for _, o := range r.Skipped {
		out[o.Stage]++
	}
	return out
}

// SkippedStages lists stages with skips in a stable order.
func (r RunReport) SkippedStages() []string {
	return slices.Sorted(maps.Keys(r.SkippedByStage()))
}
