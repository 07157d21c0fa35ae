package models

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// ChangeKind classifies a percent-change value.
type ChangeKind uint8

const (
	// ChangeAbsent means there is no previous trading day for the instrument.
	ChangeAbsent ChangeKind = iota
	// ChangeFinite is a regular, computable percent change.
	ChangeFinite
	// ChangeNonFinite means the previous closing price was zero.
	ChangeNonFinite
)

// PercentChange is the change of the closing price versus the previous
// trading day's closing price, in percent.
//
// A zero previous close cannot be represented as a decimal, so the kind is
// ChangeNonFinite and NonFinite carries +Inf, -Inf or NaN depending on the
// sign of the numerator.
type PercentChange struct {
	Kind      ChangeKind
	Value     decimal.Decimal
	NonFinite float64
}

// AbsentChange returns a PercentChange with no value.
func AbsentChange() PercentChange { return PercentChange{Kind: ChangeAbsent} }

// FiniteChange wraps a computed percent change.
func FiniteChange(v decimal.Decimal) PercentChange {
	return PercentChange{Kind: ChangeFinite, Value: v}
}

// NonFiniteChange wraps +Inf, -Inf or NaN.
func NonFiniteChange(f float64) PercentChange {
	return PercentChange{Kind: ChangeNonFinite, NonFinite: f}
}

// Float64 returns the value as a float and whether a value is present.
// Non-finite changes are reported as present.
func (p PercentChange) Float64() (float64, bool) {
	switch p.Kind {
	case ChangeFinite:
		return p.Value.InexactFloat64(), true
	case ChangeNonFinite:
		return p.NonFinite, true
	default:
		return 0, false
	}
}

// PercentChangeFromFloat is the inverse of Float64, used when reading a
// report back.
func PercentChangeFromFloat(f *float64) PercentChange {
	if f == nil {
		return AbsentChange()
	}
	if math.IsInf(*f, 0) || math.IsNaN(*f) {
		return NonFiniteChange(*f)
	}
	return FiniteChange(decimal.NewFromFloat(*f))
}

// DailySummary is one report row: the daily statistics of one instrument.
type DailySummary struct {
	ISIN              string
	Date              time.Time
	OpeningPrice      decimal.Decimal
	ClosingPrice      decimal.Decimal
	MinimumPrice      decimal.Decimal
	MaximumPrice      decimal.Decimal
	DailyTradedVolume int64
	ChangePrevClosing PercentChange
}

// SummaryKey identifies a DailySummary.
type SummaryKey struct {
	ISIN string
	Date time.Time
}

// Key returns the (ISIN, date) identity of the row.
func (s DailySummary) Key() SummaryKey {
	return SummaryKey{ISIN: s.ISIN, Date: s.Date}
}
