package postgres

import (
	"time"

	"github.com/riskibarqy/fpl-oracle/internal/domain/dataset"
	"github.com/riskibarqy/fpl-oracle/internal/domain/rawdata"
)

type featureRowInsertModel struct {
	RunID                              string   `db:"run_id"`
	Gameweek                           int      `db:"gameweek"`
	PlayerID                           int64    `db:"player_id"`
	FullName                           string   `db:"full_name"`
	TeamName                           string   `db:"team_name"`
	PlayerPosition                     string   `db:"player_position"`
	CurrentCost                        int      `db:"current_fpl_cost"`
	PlayingTimePct                     float64  `db:"playing_time_min_percentage"`
	XGPer90                            float64  `db:"xg_per_90"`
	XAGPer90                           float64  `db:"xag_per_90"`
	YellowsPer90                       float64  `db:"yellows_per_90"`
	RedsPer90                          float64  `db:"reds_per_90"`
	ClearancesBlocksInterceptionsPer90 *float64 `db:"clearances_blocks_interceptions_per_90"`
	TacklesPer90                       *float64 `db:"tackles_per_90"`
	TeamXGPer90                        *float64 `db:"team_xg_per_90"`
	TeamXGAgainstPer90                 *float64 `db:"team_xg_against_per_90"`
	OpponentTeam                       *string  `db:"opponent_team"`
	OpponentXGPer90                    *float64 `db:"opponent_xg_per_90"`
	OpponentXGAgainstPer90             *float64 `db:"opponent_xg_against_per_90"`
	OpponentLeaguePosition             *int     `db:"opponent_league_position"`
	IsAtHome                           int      `db:"is_at_home"`
	TeamLeaguePosition                 *int     `db:"team_league_position"`
	FixturesInGameweek                 int      `db:"fixtures_in_gameweek"`
}

func toFeatureModel(runID string, r dataset.FeatureRow) featureRowInsertModel {
	return featureRowInsertModel{
		RunID:                              runID,
		Gameweek:                           r.Gameweek,
		PlayerID:                           r.PlayerID,
		FullName:                           r.FullName,
		TeamName:                           r.TeamName,
		PlayerPosition:                     r.PlayerPosition,
		CurrentCost:                        r.CurrentCost,
		PlayingTimePct:                     r.PlayingTimePct,
		XGPer90:                            r.XGPer90,
		XAGPer90:                           r.XAGPer90,
		YellowsPer90:                       r.YellowsPer90,
		RedsPer90:                          r.RedsPer90,
		ClearancesBlocksInterceptionsPer90: r.ClearancesBlocksInterceptionsPer90,
		TacklesPer90:                       r.TacklesPer90,
		TeamXGPer90:                        r.TeamXGPer90,
		TeamXGAgainstPer90:                 r.TeamXGAgainstPer90,
		OpponentTeam:                       r.OpponentTeam,
		OpponentXGPer90:                    r.OpponentXGPer90,
		OpponentXGAgainstPer90:             r.OpponentXGAgainstPer90,
		OpponentLeaguePosition:             r.OpponentLeaguePosition,
		IsAtHome:                           r.IsAtHome,
		TeamLeaguePosition:                 r.TeamLeaguePosition,
		FixturesInGameweek:                 r.FixturesInGameweek,
	}
}

type labelRowInsertModel struct {
	RunID    string `db:"run_id"`
	Gameweek int    `db:"gameweek"`
	PlayerID int64  `db:"player_id"`
	FullName string `db:"full_name"`
	GWPoints int    `db:"gw_points"`
}

func toLabelModel(runID string, r dataset.LabelRow) labelRowInsertModel {
	return labelRowInsertModel{RunID: runID, Gameweek: r.Gameweek, PlayerID: r.PlayerID, FullName: r.FullName, GWPoints: r.GWPoints}
}

type rawDataPayloadInsertModel struct {
	RunID       string    `db:"run_id"`
	Source      string    `db:"source"`
	EntityType  string    `db:"entity_type"`
	EntityKey   string    `db:"entity_key"`
	Payload     string    `db:"payload"`
	PayloadHash string    `db:"payload_hash"`
	FetchedAt   time.Time `db:"fetched_at"`
}

func toRawDataModel(runID string, p rawdata.Payload) rawDataPayloadInsertModel {
	return rawDataPayloadInsertModel{
		RunID:       runID,
		Source:      p.Source,
		EntityType:  p.EntityType,
		EntityKey:   p.EntityKey,
		Payload:     p.Body,
		PayloadHash: p.PayloadHash,
		FetchedAt:   p.FetchedAt,
	}
}
