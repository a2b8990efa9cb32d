package playerstats

// SeasonRecord is one player's season-to-date totals from a stat provider.
type SeasonRecord struct {
	Source string
	Name   string
	Team   string

	Games       int
	Minutes     int
	XG          float64
	XA          float64
	YellowCards int
	RedCards    int

	// PlayingTimePct overrides the minutes/(games*90) estimate when the
	// provider publishes its own share of available minutes.
	PlayingTimePct *float64

	// Defensive totals are only set by providers that publish them.
	HasDefensive                  bool
	Tackles                       float64
	ClearancesBlocksInterceptions float64
}

// SeasonStats is a provider's season table. Dropped lists rows the provider
// published but that could not be parsed.
type SeasonStats struct {
	Records []SeasonRecord
	Dropped []DroppedRow
}

type DroppedRow struct {
	Name   string
	Reason string
}

// RoundHistory is one appearance row from the fantasy game's per-player history.
type RoundHistory struct {
	Round                         int
	Minutes                       int
	TotalPoints                   int
	Tackles                       int
	ClearancesBlocksInterceptions int
}

// DefensiveTotals sums defensive actions across the rounds played so far.
type DefensiveTotals struct {
	Minutes                       int
	Tackles                       int
	ClearancesBlocksInterceptions int
}

// SumDefensive accumulates history rows up to and including throughRound.
func SumDefensive(history []RoundHistory, throughRound int) DefensiveTotals {
	var out DefensiveTotals
	for _, h := range history {
		if h.Round > throughRound {
			continue
		}
		out.Minutes += h.Minutes
		out.Tackles += h.Tackles
		out.ClearancesBlocksInterceptions += h.ClearancesBlocksInterceptions
	}
	return out
}

// PointsInRound sums points scored in a round; double gameweeks carry two rows.
func PointsInRound(history []RoundHistory, round int) int {
	total := 0
	for _, h := range history {
		if h.Round == round {
			total += h.TotalPoints
		}
	}
	return total
}
