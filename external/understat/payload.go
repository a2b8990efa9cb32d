package understat

import (
	"strconv"
	"strings"
)

// Understat publishes every numeric field as a JSON string.

type leagueEnvelope struct {
	Teams   map[string]leagueTeamDTO `json:"teams"`
	Players *[]map[string]any        `json:"players"`
}

type leagueTeamDTO struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type teamEnvelope struct {
	Dates *[]map[string]any `json:"dates"`
}

var requiredPlayerKeys = []string{"player_name", "team_title", "games", "time", "xG", "xA", "yellow_cards", "red_cards"}

var requiredMatchKeys = []string{"isResult", "side", "xG", "datetime"}

func missingKeys(row map[string]any, keys []string) []string {
	var missing []string
	for _, k := range keys {
		if _, ok := row[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func asInt(v any) (int, bool) {
	f, ok := asFloat(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(t))
		return b
	default:
		return false
	}
}
