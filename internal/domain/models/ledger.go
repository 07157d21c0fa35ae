package models

import "time"

// LedgerEntry records that a source date has been aggregated at least once.
type LedgerEntry struct {
	SourceDate  time.Time
	ProcessedAt time.Time
}

// Ledger is the result of reading the processing ledger.
//
// Found is false when the ledger object does not exist yet (first run);
// that is distinct from a ledger that exists but has no entries.
type Ledger struct {
	Found   bool
	Entries []LedgerEntry
}

// AbsentLedger is the ledger of a first run.
func AbsentLedger() Ledger { return Ledger{} }

// SourceDates returns the set of dates present in the ledger.
func (l Ledger) SourceDates() map[time.Time]struct{} {
	out := make(map[time.Time]struct{}, len(l.Entries))
	for _, e := range l.Entries {
		out[TruncateToDate(e.SourceDate)] = struct{}{}
	}
	return out
}

// ExtractionWindow is the resolved set of source dates for one run.
//
// Dates is ordered ascending and starts with the lookback day. Only rows
// dated on or after EffectiveStart end up in the report.
type ExtractionWindow struct {
	EffectiveStart time.Time
	Dates          []time.Time
}

// Empty reports whether the run has nothing to extract.
func (w ExtractionWindow) Empty() bool { return len(w.Dates) == 0 }

// CoveredDates returns the dates the run produces report rows for, i.e.
// the window dates without the lookback day.
func (w ExtractionWindow) CoveredDates() []time.Time {
	out := make([]time.Time, 0, len(w.Dates))
	for _, d := range w.Dates {
		if !d.Before(w.EffectiveStart) {
			out = append(out, d)
		}
	}
	return out
}
