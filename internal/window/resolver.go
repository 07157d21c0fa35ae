// Package window resolves which source dates a report run has to read.
package window

import (
	"errors"
	"time"

	"github.com/guttosm/xetrapulse/internal/domain/models"
)

// FarFuture is the effective start returned when every candidate date is
// already in the ledger. Nothing sorts after it, so aggregation keeps no rows.
var FarFuture = time.Date(2200, 1, 1, 0, 0, 0, 0, time.UTC)

// ErrZeroDate is returned when requestedStart or today is the zero time.
var ErrZeroDate = errors.New("window: requested start and today are required")

// Resolve computes the extraction window for a run.
//
// The candidate range is every calendar day in [requestedStart-1d, today];
// the extra day in front is the lookback day, read only to seed the previous
// close of the first reported day.
//
//   - Ledger absent: every candidate is read and the effective start is
//     requestedStart.
//   - Ledger present: the candidates after the lookback day that are not in
//     the ledger are missing. With nothing missing the window is empty and
//     the effective start is FarFuture. Otherwise the window restarts one day
//     before the earliest missing date.
//
// The returned dates never precede requestedStart-1d.
func Resolve(requestedStart, today time.Time, l models.Ledger) (models.ExtractionWindow, error) {
	if requestedStart.IsZero() || today.IsZero() {
		return models.ExtractionWindow{}, ErrZeroDate
	}
	start := models.TruncateToDate(requestedStart)
	candidates := dateRange(start.AddDate(0, 0, -1), models.TruncateToDate(today))

	if !l.Found {
		if len(candidates) == 0 {
			return models.ExtractionWindow{EffectiveStart: FarFuture}, nil
		}
		return models.ExtractionWindow{EffectiveStart: start, Dates: candidates}, nil
	}

	seen := l.SourceDates()
	var firstMissing time.Time
	found := false
	for _, d := range tail(candidates) {
		if _, ok := seen[d]; ok {
			continue
		}
		// candidates are ascending, so the first hit is the minimum
		firstMissing = d
		found = true
		break
	}
	if !found {
		return models.ExtractionWindow{EffectiveStart: FarFuture}, nil
	}

	newMin := firstMissing.AddDate(0, 0, -1)
	dates := make([]time.Time, 0, len(candidates))
	for _, d := range candidates {
		if !d.Before(newMin) {
			dates = append(dates, d)
		}
	}
	return models.ExtractionWindow{EffectiveStart: newMin.AddDate(0, 0, 1), Dates: dates}, nil
}

// dateRange returns every day from `from` to `to`, both inclusive.
func dateRange(from, to time.Time) []time.Time {
	if from.After(to) {
		return nil
	}
	days := int(to.Sub(from).Hours()/24) + 1
	out := make([]time.Time, 0, days)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

func tail(ds []time.Time) []time.Time {
	if len(ds) == 0 {
		return nil
	}
	return ds[1:]
}
