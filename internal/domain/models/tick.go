package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date format used by source batches, the ledger
// and the report (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// TickRecord represents a single row of a Xetra per-minute source batch.
// Only the columns the report needs are kept; everything else in the CSV
// is discarded at read time.
//
// Column mapping (default Xetra header → field):
//  1. ISIN         → ISIN
//  2. Date         → Date (calendar day, UTC midnight)
//  3. Time         → Time (clock part only, on 0000-01-01)
//  4. StartPrice   → StartPrice
//  5. MaxPrice     → MaxPrice
//  6. MinPrice     → MinPrice
//  7. EndPrice     → EndPrice
//  8. TradedVolume → TradedVolume
type TickRecord struct {
	ISIN         string
	Date         time.Time
	Time         time.Time
	StartPrice   decimal.Decimal
	MaxPrice     decimal.Decimal
	MinPrice     decimal.Decimal
	EndPrice     decimal.Decimal
	TradedVolume int64
}

// TruncateToDate strips the clock part of t and pins it to UTC so two
// dates compare equal iff they fall on the same calendar day.
func TruncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a UTC calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}
