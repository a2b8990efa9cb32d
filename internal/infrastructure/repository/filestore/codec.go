package filestore

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/riskibarqy/fpl-oracle/internal/domain/dataset"
)

func encodeFeature(r dataset.FeatureRow) []string {
	return []string{
		formatInt64(r.PlayerID),
		r.FullName,
		r.TeamName,
		r.PlayerPosition,
		strconv.Itoa(r.CurrentCost),
		formatFloat(r.PlayingTimePct),
		formatFloat(r.XGPer90),
		formatFloat(r.XAGPer90),
		formatFloat(r.YellowsPer90),
		formatFloat(r.RedsPer90),
		formatFloatRef(r.ClearancesBlocksInterceptionsPer90),
		formatFloatRef(r.TacklesPer90),
		formatFloatRef(r.TeamXGPer90),
		formatFloatRef(r.TeamXGAgainstPer90),
		formatStringRef(r.OpponentTeam),
		formatFloatRef(r.OpponentXGPer90),
		formatFloatRef(r.OpponentXGAgainstPer90),
		formatIntRef(r.OpponentLeaguePosition),
		strconv.Itoa(r.Gameweek),
		strconv.Itoa(r.IsAtHome),
		formatIntRef(r.TeamLeaguePosition),
		strconv.Itoa(r.FixturesInGameweek),
	}
}

func encodeLabel(r dataset.LabelRow) []string {
	return []string{formatInt64(r.PlayerID), r.FullName, strconv.Itoa(r.Gameweek), strconv.Itoa(r.GWPoints)}
}

// decodeFeatures maps cells by header name, so files written with an older
// column set still load. Only full_name is mandatory.
func decodeFeatures(records [][]string) ([]dataset.FeatureRow, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("missing header")
	}
	index := make(map[string]int, len(records[0]))
	for i, col := range records[0] {
		index[strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))] = i
	}
	if _, ok := index["full_name"]; !ok {
		return nil, fmt.Errorf("missing full_name column")
	}

	out := make([]dataset.FeatureRow, 0, len(records)-1)
	for line, rec := range records[1:] {
		c := cells{index: index, rec: rec}
		row := dataset.FeatureRow{
			FullName:       c.str("full_name"),
			TeamName:       c.str("team_name"),
			PlayerPosition: c.str("player_position"),
		}
		var err error
		if row.PlayerID, err = c.asInt64("player_id"); err != nil {
			return nil, fmt.Errorf("line %d: %w", line+2, err)
		}
		if row.Gameweek, err = c.asInt("gameweek"); err != nil {
			return nil, fmt.Errorf("line %d: %w", line+2, err)
		}
		if row.CurrentCost, err = c.asInt("current_fpl_cost"); err != nil {
			return nil, fmt.Errorf("line %d: %w", line+2, err)
		}
		if row.IsAtHome, err = c.asInt("is_at_home"); err != nil {
			return nil, fmt.Errorf("line %d: %w", line+2, err)
		}
		if row.FixturesInGameweek, err = c.asInt("fixtures_in_gameweek"); err != nil {
			return nil, fmt.Errorf("line %d: %w", line+2, err)
		}
		for col, dst := range map[string]*float64{
			"playing_time_min_percentage": &row.PlayingTimePct,
			"xg_per_90":                   &row.XGPer90,
			"xag_per_90":                  &row.XAGPer90,
			"yellows_per_90":              &row.YellowsPer90,
			"reds_per_90":                 &row.RedsPer90,
		} {
			if *dst, err = c.asFloat(col); err != nil {
				return nil, fmt.Errorf("line %d: %w", line+2, err)
			}
		}
		for col, dst := range map[string]**float64{
			"clearances_blocks_interceptions_per_90": &row.ClearancesBlocksInterceptionsPer90,
			"tackles_per_90":                         &row.TacklesPer90,
			"team_xg_per_90":                         &row.TeamXGPer90,
			"team_xg_against_per_90":                 &row.TeamXGAgainstPer90,
			"opponent_xg_per_90":                     &row.OpponentXGPer90,
			"opponent_xg_against_per_90":             &row.OpponentXGAgainstPer90,
		} {
			if *dst, err = c.asFloatRef(col); err != nil {
				return nil, fmt.Errorf("line %d: %w", line+2, err)
			}
		}
		if row.OpponentLeaguePosition, err = c.asIntRef("opponent_league_position"); err != nil {
			return nil, fmt.Errorf("line %d: %w", line+2, err)
		}
		if row.TeamLeaguePosition, err = c.asIntRef("team_league_position"); err != nil {
			return nil, fmt.Errorf("line %d: %w", line+2, err)
		}
		if v := c.str("opponent_team"); v != "" {
			row.OpponentTeam = &v
		}
		out = append(out, row)
	}
	return out, nil
}

type cells struct {
	index map[string]int
	rec   []string
}

func (c cells) str(col string) string {
	i, ok := c.index[col]
	if !ok || i >= len(c.rec) {
		return ""
	}
	return strings.TrimSpace(c.rec[i])
}

func (c cells) asInt64(col string) (int64, error) {
	v := c.str(col)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		// Files written by other tools may carry integral floats.
		f, ferr := strconv.ParseFloat(v, 64)
		if ferr != nil {
			return 0, fmt.Errorf("column %s: %q is not a number", col, v)
		}
		n = int64(f)
	}
	return n, nil
}

func (c cells) asInt(col string) (int, error) {
	n, err := c.asInt64(col)
	return int(n), err
}

func (c cells) asFloat(col string) (float64, error) {
	v := c.str(col)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: %q is not a number", col, v)
	}
	return f, nil
}

func (c cells) asFloatRef(col string) (*float64, error) {
	if c.str(col) == "" {
		return nil, nil
	}
	f, err := c.asFloat(col)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (c cells) asIntRef(col string) (*int, error) {
	if c.str(col) == "" {
		return nil, nil
	}
	n, err := c.asInt(col)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func formatInt64(v int64) string {
	return strconv.FormatInt(v, 10)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatFloatRef(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatIntRef(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatStringRef(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
