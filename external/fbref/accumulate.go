package fbref

import "github.com/riskibarqy/fpl-oracle/internal/domain/playerstats"

type playerTotals struct {
	rec playerstats.SeasonRecord

	// available is the sum of minutes each club made available, rebuilt
	// from every row's minutes and minutes_pct.
	available float64
	ptMinutes float64
}

// accumulator merges FBref rows into one record per player name, keeping
// first-seen order.
type accumulator struct {
	byName map[string]*playerTotals
	order  []string
}

func newAccumulator() *accumulator {
	return &accumulator{byName: make(map[string]*playerTotals)}
}

func (a *accumulator) entry(name string) *playerTotals {
	if t, ok := a.byName[name]; ok {
		return t
	}
	t := &playerTotals{rec: playerstats.SeasonRecord{Source: sourceName, Name: name}}
	a.byName[name] = t
	a.order = append(a.order, name)
	return t
}

func (a *accumulator) addStandard(row tableRow) bool {
	games, ok1 := row.number("games")
	minutes, ok2 := row.number("minutes")
	xg, ok3 := row.number("xg")
	xa, ok4 := row.number("xg_assist")
	yellows, ok5 := row.number("cards_yellow")
	reds, ok6 := row.number("cards_red")
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || !ok6 {
		return false
	}

	t := a.entry(row["player"])
	t.rec.Team = row["team"]
	t.rec.Games += int(games)
	t.rec.Minutes += int(minutes)
	t.rec.XG += xg
	t.rec.XA += xa
	t.rec.YellowCards += int(yellows)
	t.rec.RedCards += int(reds)
	return true
}

func (a *accumulator) addDefense(row tableRow) bool {
	tackles, ok1 := row.number("tackles")
	blocks, ok2 := row.number("blocks")
	interceptions, ok3 := row.number("interceptions")
	clearances, ok4 := row.number("clearances")
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return false
	}

	t, ok := a.byName[row["player"]]
	if !ok {
		return true
	}
	t.rec.HasDefensive = true
	t.rec.Tackles += tackles
	t.rec.ClearancesBlocksInterceptions += blocks + interceptions + clearances
	return true
}

func (a *accumulator) addPlayingTime(row tableRow) bool {
	minutes, ok1 := row.number("minutes")
	pct, ok2 := row.number("minutes_pct")
	if !ok1 || !ok2 {
		return false
	}

	t, ok := a.byName[row["player"]]
	if !ok || pct <= 0 {
		return true
	}
	t.ptMinutes += minutes
	t.available += minutes * 100 / pct
	return true
}

func (a *accumulator) records() []playerstats.SeasonRecord {
	out := make([]playerstats.SeasonRecord, 0, len(a.order))
	for _, name := range a.order {
		t := a.byName[name]
		if t.available > 0 {
			pct := t.ptMinutes / t.available * 100
			t.rec.PlayingTimePct = &pct
		}
		out = append(out, t.rec)
	}
	return out
}
