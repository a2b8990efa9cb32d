package usecase

import (
	"math"

	"github.com/riskibarqy/fpl-oracle/internal/domain/playerstats"
)

// Per90 scales a season total to a per-90-minutes rate. Zero or negative
// minutes yield exactly 0 rather than an undefined value.
func Per90(total float64, minutes float64) float64 {
	if minutes <= 0 {
		return 0
	}
	v := total / minutes * 90
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// PlayingTimePct is minutes played as a share of the minutes available in
// the appearances made, in percent.
func PlayingTimePct(minutes, games int) float64 {
	if games <= 0 {
		return 0
	}
	return float64(minutes) / (float64(games) * 90) * 100
}

// Round2 rounds half away from zero to two decimals. Only applied when a
// value is persisted.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// EligibleStat is a stat record that passed the playing-time gate, with its
// rates derived and its name already canonical.
type EligibleStat struct {
	Name           string
	Team           string
	PlayingTimePct float64
	XGPer90        float64
	XAPer90        float64
	YellowsPer90   float64
	RedsPer90      float64

	TacklesPer90                       *float64
	ClearancesBlocksInterceptionsPer90 *float64
}

// DeriveStat computes per-90 rates from season totals.
func DeriveStat(rec playerstats.SeasonRecord) EligibleStat {
	minutes := float64(rec.Minutes)
	out := EligibleStat{
		Name:           rec.Name,
		Team:           rec.Team,
		PlayingTimePct: PlayingTimePct(rec.Minutes, rec.Games),
		XGPer90:        Per90(rec.XG, minutes),
		XAPer90:        Per90(rec.XA, minutes),
		YellowsPer90:   Per90(float64(rec.YellowCards), minutes),
		RedsPer90:      Per90(float64(rec.RedCards), minutes),
	}
	if rec.PlayingTimePct != nil {
		out.PlayingTimePct = *rec.PlayingTimePct
	}
	if rec.HasDefensive {
		tackles := Per90(rec.Tackles, minutes)
		cbi := Per90(rec.ClearancesBlocksInterceptions, minutes)
		out.TacklesPer90 = &tackles
		out.ClearancesBlocksInterceptionsPer90 = &cbi
	}
	return out
}

// FilterEligible derives every record and keeps those whose playing-time
// percentage reaches threshold. The gate runs before any name matching.
func FilterEligible(records []playerstats.SeasonRecord, threshold float64) (eligible []EligibleStat, excluded int) {
	eligible = make([]EligibleStat, 0, len(records))
	for _, rec := range records {
		stat := DeriveStat(rec)
		if stat.PlayingTimePct < threshold {
			excluded++
			continue
		}
		eligible = append(eligible, stat)
	}
	return eligible, excluded
}
