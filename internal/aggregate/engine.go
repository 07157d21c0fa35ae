// Package aggregate turns per-minute tick records into daily per-instrument
// summary rows.
package aggregate

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/guttosm/xetrapulse/internal/domain/models"
)

// ClosingPrice selects which price field of the last tick of a day is used
// as the closing price.
type ClosingPrice string

const (
	// ClosingFromStart uses StartPrice of the latest tick. This is what the
	// production report has always used.
	ClosingFromStart ClosingPrice = "start"
	// ClosingFromEnd uses EndPrice of the latest tick.
	ClosingFromEnd ClosingPrice = "end"
)

// ParseClosingPrice validates a configured closing-price variant.
func ParseClosingPrice(s string) (ClosingPrice, error) {
	switch c := ClosingPrice(strings.ToLower(strings.TrimSpace(s))); c {
	case ClosingFromStart, ClosingFromEnd:
		return c, nil
	case "":
		return ClosingFromStart, nil
	default:
		return "", fmt.Errorf("unknown closing price variant %q (want start or end)", s)
	}
}

// Options tune the aggregation.
type Options struct {
	ClosingPrice ClosingPrice
}

// Result is the aggregation output.
type Result struct {
	// Rows are sorted by (ISIN, date) ascending.
	Rows []models.DailySummary
	// NonFinite lists the rows whose previous closing price was zero.
	NonFinite []models.SummaryKey
	// Groups is the number of (ISIN, date) groups before the window filter.
	Groups int
}

const (
	decimalPlaces = 2
)

var hundred = decimal.NewFromInt(100)

type group struct {
	key   models.SummaryKey
	ticks []models.TickRecord
}

// Aggregate builds one DailySummary per (ISIN, date) from records and keeps
// only the rows dated on or after effectiveStart. Rows before it (the
// lookback day) only seed the previous close of the next row.
//
// Records must already be cleaned: every retained column is present.
// Aggregate is a pure function of its input and never fails; an empty input
// yields an empty Result.
func Aggregate(records []models.TickRecord, effectiveStart time.Time, opts Options) Result {
	closing := opts.ClosingPrice
	if closing == "" {
		closing = ClosingFromStart
	}

	groups := groupByInstrumentDay(records)
	res := Result{Groups: len(groups)}
	if len(groups) == 0 {
		return res
	}

	rows := make([]models.DailySummary, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, summarize(g, closing))
	}

	cutoff := models.TruncateToDate(effectiveStart)
	out := make([]models.DailySummary, 0, len(rows))
	for i, row := range rows {
		// previous row in (ISIN, date) order, not previous calendar day
		if i > 0 && rows[i-1].ISIN == row.ISIN {
			row.ChangePrevClosing = percentChange(row.ClosingPrice, rows[i-1].ClosingPrice)
		} else {
			row.ChangePrevClosing = models.AbsentChange()
		}
		if row.Date.Before(cutoff) {
			continue
		}
		row = round(row)
		if row.ChangePrevClosing.Kind == models.ChangeNonFinite {
			res.NonFinite = append(res.NonFinite, row.Key())
		}
		out = append(out, row)
	}
	res.Rows = out
	return res
}

// groupByInstrumentDay buckets records per (ISIN, date), keeping input order
// inside each bucket, and returns the buckets sorted by ISIN then date.
func groupByInstrumentDay(records []models.TickRecord) []*group {
	idx := make(map[models.SummaryKey]*group)
	var groups []*group
	for _, r := range records {
		k := models.SummaryKey{ISIN: r.ISIN, Date: models.TruncateToDate(r.Date)}
		g, ok := idx[k]
		if !ok {
			g = &group{key: k}
			idx[k] = g
			groups = append(groups, g)
		}
		g.ticks = append(g.ticks, r)
	}
	sort.Slice(groups, func(i, j int) bool {
		a, b := groups[i].key, groups[j].key
		if a.ISIN != b.ISIN {
			return a.ISIN < b.ISIN
		}
		return a.Date.Before(b.Date)
	})
	return groups
}

func summarize(g *group, closing ClosingPrice) models.DailySummary {
	ticks := g.ticks
	// ties on Time keep input order
	sort.SliceStable(ticks, func(i, j int) bool { return ticks[i].Time.Before(ticks[j].Time) })

	first, last := ticks[0], ticks[len(ticks)-1]
	s := models.DailySummary{
		ISIN:         g.key.ISIN,
		Date:         g.key.Date,
		OpeningPrice: first.StartPrice,
		ClosingPrice: last.StartPrice,
		MinimumPrice: first.MinPrice,
		MaximumPrice: first.MaxPrice,
	}
	if closing == ClosingFromEnd {
		s.ClosingPrice = last.EndPrice
	}
	for _, t := range ticks {
		if t.MinPrice.LessThan(s.MinimumPrice) {
			s.MinimumPrice = t.MinPrice
		}
		if t.MaxPrice.GreaterThan(s.MaximumPrice) {
			s.MaximumPrice = t.MaxPrice
		}
		s.DailyTradedVolume += t.TradedVolume
	}
	return s
}

// percentChange returns (cur-prev)/prev*100. A zero prev yields a
// non-finite change signed like the numerator: +Inf, -Inf, or NaN for 0/0.
func percentChange(cur, prev decimal.Decimal) models.PercentChange {
	diff := cur.Sub(prev)
	if prev.IsZero() {
		switch diff.Sign() {
		case 1:
			return models.NonFiniteChange(math.Inf(1))
		case -1:
			return models.NonFiniteChange(math.Inf(-1))
		default:
			return models.NonFiniteChange(math.NaN())
		}
	}
	return models.FiniteChange(diff.Mul(hundred).Div(prev))
}

// round applies banker's rounding (half to even) to every price and to a
// finite percent change, so 0.125 becomes 0.12 and 0.135 becomes 0.14.
func round(s models.DailySummary) models.DailySummary {
	s.OpeningPrice = s.OpeningPrice.RoundBank(decimalPlaces)
	s.ClosingPrice = s.ClosingPrice.RoundBank(decimalPlaces)
	s.MinimumPrice = s.MinimumPrice.RoundBank(decimalPlaces)
	s.MaximumPrice = s.MaximumPrice.RoundBank(decimalPlaces)
	if s.ChangePrevClosing.Kind == models.ChangeFinite {
		s.ChangePrevClosing.Value = s.ChangePrevClosing.Value.RoundBank(decimalPlaces)
	}
	return s
}
