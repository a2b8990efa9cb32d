package dataset

// FeatureColumns is the persisted column order of X_<gameweek> files.
var FeatureColumns = []string{
	"player_id",
	"full_name",
	"team_name",
	"player_position",
	"current_fpl_cost",
	"playing_time_min_percentage",
	"xg_per_90",
	"xag_per_90",
	"yellows_per_90",
	"reds_per_90",
	"clearances_blocks_interceptions_per_90",
	"tackles_per_90",
	"team_xg_per_90",
	"team_xg_against_per_90",
	"opponent_team",
	"opponent_xg_per_90",
	"opponent_xg_against_per_90",
	"opponent_league_position",
	"gameweek",
	"is_at_home",
	"team_league_position",
	"fixtures_in_gameweek",
}

// LabelColumns is the persisted column order of y_<gameweek> files.
var LabelColumns = []string{"player_id", "full_name", "gameweek", "gw_points"}

// FeatureRow is one player's feature vector for an upcoming gameweek.
// Nil pointers are written as empty cells.
type FeatureRow struct {
	PlayerID       int64   `db:"player_id" validate:"gt=0"`
	FullName       string  `db:"full_name" validate:"required"`
	TeamName       string  `db:"team_name" validate:"required"`
	PlayerPosition string  `db:"player_position"`
	CurrentCost    int     `db:"current_fpl_cost" validate:"gte=0"`
	PlayingTimePct float64 `db:"playing_time_min_percentage" validate:"gte=0"`
	XGPer90        float64 `db:"xg_per_90" validate:"gte=0"`
	XAGPer90       float64 `db:"xag_per_90" validate:"gte=0"`
	YellowsPer90   float64 `db:"yellows_per_90" validate:"gte=0"`
	RedsPer90      float64 `db:"reds_per_90" validate:"gte=0"`

	ClearancesBlocksInterceptionsPer90 *float64 `db:"clearances_blocks_interceptions_per_90" validate:"omitempty,gte=0"`
	TacklesPer90                       *float64 `db:"tackles_per_90" validate:"omitempty,gte=0"`

	TeamXGPer90        *float64 `db:"team_xg_per_90" validate:"omitempty,gte=0"`
	TeamXGAgainstPer90 *float64 `db:"team_xg_against_per_90" validate:"omitempty,gte=0"`

	OpponentTeam           *string  `db:"opponent_team"`
	OpponentXGPer90        *float64 `db:"opponent_xg_per_90" validate:"omitempty,gte=0"`
	OpponentXGAgainstPer90 *float64 `db:"opponent_xg_against_per_90" validate:"omitempty,gte=0"`
	OpponentLeaguePosition *int     `db:"opponent_league_position" validate:"omitempty,gte=1"`

	Gameweek           int  `db:"gameweek" validate:"gt=0"`
	IsAtHome           int  `db:"is_at_home" validate:"oneof=0 1"`
	TeamLeaguePosition *int `db:"team_league_position" validate:"omitempty,gte=1"`
	FixturesInGameweek int  `db:"fixtures_in_gameweek" validate:"gte=1"`
}

// LabelRow is the realized fantasy points for a player in a gameweek.
// PlayerID is 0 for a feature row whose player could not be resolved.
type LabelRow struct {
	PlayerID int64  `db:"player_id" validate:"gte=0"`
	FullName string `db:"full_name" validate:"required"`
	Gameweek int    `db:"gameweek" validate:"gt=0"`
	GWPoints int    `db:"gw_points"`
}
