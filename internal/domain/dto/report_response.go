package dto

import (
	"math"

	"github.com/guttosm/xetrapulse/internal/domain/models"
)

// ReportRow is one daily summary as returned by GET /api/v1/reports/latest.
//
// JSON cannot carry +Inf, -Inf or NaN, so a percent change computed against
// a zero previous close is reported as a null change_prev_closing_percent
// together with change_non_finite ("inf", "-inf" or "nan").
type ReportRow struct {
	ISIN                     string   `json:"isin" example:"DE0005190003"`
	Date                     string   `json:"date" example:"2022-12-28"`
	OpeningPrice             float64  `json:"opening_price" example:"60.12"`
	ClosingPrice             float64  `json:"closing_price" example:"60.78"`
	MinimumPrice             float64  `json:"minimum_price" example:"59.80"`
	MaximumPrice             float64  `json:"maximum_price" example:"61.02"`
	DailyTradedVolume        int64    `json:"daily_traded_volume" example:"281734"`
	ChangePrevClosingPercent *float64 `json:"change_prev_closing_percent" example:"1.1"`
	ChangeNonFinite          string   `json:"change_non_finite,omitempty" example:"inf"`
}

// ReportResponse is the body of GET /api/v1/reports/latest.
type ReportResponse struct {
	Key  string      `json:"key" example:"xetra_daily_report_20221229_173000.parquet"`
	Rows []ReportRow `json:"rows"`
}

// LedgerEntry is one processed source date.
type LedgerEntry struct {
	SourceDate           string `json:"source_date" example:"2022-12-28"`
	DatetimeOfProcessing string `json:"datetime_of_processing" example:"2022-12-29"`
}

// LedgerResponse is the body of GET /api/v1/ledger.
type LedgerResponse struct {
	Entries []LedgerEntry `json:"entries"`
}

// NewReportRow maps a domain summary to its API shape.
func NewReportRow(s models.DailySummary) ReportRow {
	row := ReportRow{
		ISIN:              s.ISIN,
		Date:              s.Date.Format(models.DateLayout),
		OpeningPrice:      s.OpeningPrice.InexactFloat64(),
		ClosingPrice:      s.ClosingPrice.InexactFloat64(),
		MinimumPrice:      s.MinimumPrice.InexactFloat64(),
		MaximumPrice:      s.MaximumPrice.InexactFloat64(),
		DailyTradedVolume: s.DailyTradedVolume,
	}
	switch s.ChangePrevClosing.Kind {
	case models.ChangeFinite:
		v := s.ChangePrevClosing.Value.InexactFloat64()
		row.ChangePrevClosingPercent = &v
	case models.ChangeNonFinite:
		row.ChangeNonFinite = nonFiniteLabel(s.ChangePrevClosing.NonFinite)
	}
	return row
}

// NewLedgerResponse maps ledger entries to their API shape.
func NewLedgerResponse(entries []models.LedgerEntry) LedgerResponse {
	out := LedgerResponse{Entries: make([]LedgerEntry, 0, len(entries))}
	for _, e := range entries {
		out.Entries = append(out.Entries, LedgerEntry{
			SourceDate:           e.SourceDate.Format(models.DateLayout),
			DatetimeOfProcessing: e.ProcessedAt.Format(models.DateLayout),
		})
	}
	return out
}

func nonFiniteLabel(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	default:
		return "nan"
	}
}
