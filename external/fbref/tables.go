package fbref

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	crerr "github.com/cockroachdb/errors"

	"github.com/riskibarqy/fpl-oracle/internal/usecase"
)

const (
	tableStandard    = "stats_standard"
	tableDefense     = "stats_defense"
	tablePlayingTime = "stats_playing_time"
)

var requiredColumns = map[string][]string{
	tableStandard:    {"player", "team", "games", "minutes", "xg", "xg_assist", "cards_yellow", "cards_red"},
	tableDefense:     {"player", "tackles", "blocks", "interceptions", "clearances"},
	tablePlayingTime: {"player", "minutes", "minutes_pct"},
}

// tableRow is one player row keyed by data-stat.
type tableRow map[string]string

// parseTable extracts the player rows of the table with the given id. FBref
// ships most tables inside HTML comments, so those markers are removed first.
func parseTable(page []byte, tableID string) ([]tableRow, error) {
	page = bytes.ReplaceAll(page, []byte("<!--"), nil)
	page = bytes.ReplaceAll(page, []byte("-->"), nil)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, crerr.Wrapf(usecase.ErrMalformedPayload, "parse fbref html: %v", err)
	}

	table := doc.Find("table#" + tableID).First()
	if table.Length() == 0 {
		return nil, crerr.Wrapf(usecase.ErrSchemaDrift, "fbref: table %s not found", tableID)
	}

	headers := make(map[string]struct{})
	table.Find("thead th[data-stat]").Each(func(_ int, s *goquery.Selection) {
		if stat, ok := s.Attr("data-stat"); ok {
			headers[stat] = struct{}{}
		}
	})
	var missing []string
	for _, col := range requiredColumns[tableID] {
		if _, ok := headers[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, crerr.Wrapf(usecase.ErrSchemaDrift, "fbref %s: missing columns %s", tableID, strings.Join(missing, ", "))
	}

	var rows []tableRow
	table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		if tr.HasClass("thead") || tr.HasClass("over_header") || tr.HasClass("spacer") {
			return
		}
		row := make(tableRow)
		tr.Find("th[data-stat], td[data-stat]").Each(func(_ int, cell *goquery.Selection) {
			stat, _ := cell.Attr("data-stat")
			row[stat] = strings.TrimSpace(cell.Text())
		})
		if row["player"] == "" {
			return
		}
		rows = append(rows, row)
	})
	return rows, nil
}

// number reads an FBref cell; blanks count as zero and thousands separators
// are dropped.
func (r tableRow) number(stat string) (float64, bool) {
	v := strings.ReplaceAll(strings.TrimSpace(r[stat]), ",", "")
	if v == "" {
		return 0, true
	}
	f, err := strconv.ParseFloat(v, 64)
	return f, err == nil
}
