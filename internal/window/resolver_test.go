package window

import (
	"errors"
	"testing"
	"time"

	"github.com/guttosm/xetrapulse/internal/domain/models"
)

func day(s string) time.Time {
	d, err := models.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func ledgerOf(dates ...string) models.Ledger {
	l := models.Ledger{Found: true}
	for _, s := range dates {
		l.Entries = append(l.Entries, models.LedgerEntry{SourceDate: day(s), ProcessedAt: day("2023-01-01")})
	}
	return l
}

func fmtDates(ds []time.Time) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Format(models.DateLayout)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestResolve_TableDriven(t *testing.T) {
	cases := []struct {
		name      string
		start     string
		today     string
		ledger    models.Ledger
		wantDates []string
		wantStart time.Time
	}{
		{
			name:      "first run reads full range with lookback",
			start:     "2022-12-27",
			today:     "2022-12-28",
			ledger:    models.AbsentLedger(),
			wantDates: []string{"2022-12-26", "2022-12-27", "2022-12-28"},
			wantStart: day("2022-12-27"),
		},
		{
			name:      "only new day missing rereads one lookback day",
			start:     "2022-12-27",
			today:     "2022-12-28",
			ledger:    ledgerOf("2022-12-26", "2022-12-27"),
			wantDates: []string{"2022-12-27", "2022-12-28"},
			wantStart: day("2022-12-28"),
		},
		{
			name:      "everything processed is a no-op",
			start:     "2022-12-27",
			today:     "2022-12-28",
			ledger:    ledgerOf("2022-12-27", "2022-12-28"),
			wantDates: nil,
			wantStart: FarFuture,
		},
		{
			name:      "lookback day in ledger does not count as covered",
			start:     "2022-12-27",
			today:     "2022-12-28",
			ledger:    ledgerOf("2022-12-26"),
			wantDates: []string{"2022-12-26", "2022-12-27", "2022-12-28"},
			wantStart: day("2022-12-27"),
		},
		{
			name:      "hole in the middle restarts before the hole",
			start:     "2022-12-20",
			today:     "2022-12-24",
			ledger:    ledgerOf("2022-12-20", "2022-12-21", "2022-12-23", "2022-12-24"),
			wantDates: []string{"2022-12-21", "2022-12-22", "2022-12-23", "2022-12-24"},
			wantStart: day("2022-12-22"),
		},
		{
			name:      "present but empty ledger behaves like first run",
			start:     "2022-12-27",
			today:     "2022-12-27",
			ledger:    models.Ledger{Found: true},
			wantDates: []string{"2022-12-26", "2022-12-27"},
			wantStart: day("2022-12-27"),
		},
		{
			name:      "start after today is an empty window",
			start:     "2023-01-10",
			today:     "2023-01-05",
			ledger:    models.AbsentLedger(),
			wantDates: nil,
			wantStart: FarFuture,
		},
		{
			name:      "start one day after today keeps the lookback day",
			start:     "2023-01-06",
			today:     "2023-01-05",
			ledger:    models.AbsentLedger(),
			wantDates: []string{"2023-01-05"},
			wantStart: day("2023-01-06"),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, err := Resolve(day(tc.start), day(tc.today), tc.ledger)
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if got := fmtDates(w.Dates); !equalStrings(got, tc.wantDates) {
				t.Fatalf("dates: want %v got %v", tc.wantDates, got)
			}
			if !w.EffectiveStart.Equal(tc.wantStart) {
				t.Fatalf("effective start: want %v got %v", tc.wantStart, w.EffectiveStart)
			}
		})
	}
}

func TestResolve_IgnoresClockAndZone(t *testing.T) {
	berlin := time.FixedZone("CET", 3600)
	w, err := Resolve(time.Date(2022, 12, 27, 23, 30, 0, 0, berlin), time.Date(2022, 12, 28, 8, 0, 0, 0, time.UTC), models.AbsentLedger())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	want := []string{"2022-12-26", "2022-12-27", "2022-12-28"}
	if got := fmtDates(w.Dates); !equalStrings(got, want) {
		t.Fatalf("want %v got %v", want, got)
	}
}

func TestResolve_NeverBeforeLookbackDay(t *testing.T) {
	start := day("2022-12-10")
	today := day("2022-12-31")
	lower := start.AddDate(0, 0, -1)

	ledgers := []models.Ledger{
		models.AbsentLedger(),
		{Found: true},
		ledgerOf("2022-11-01", "2022-12-01"),
		ledgerOf("2022-12-10", "2022-12-11", "2022-12-12"),
		ledgerOf("2022-12-30"),
	}
	for i, l := range ledgers {
		w, err := Resolve(start, today, l)
		if err != nil {
			t.Fatalf("ledger %d: unexpected err: %v", i, err)
		}
		for _, d := range w.Dates {
			if d.Before(lower) {
				t.Fatalf("ledger %d: date %s precedes lookback day", i, d.Format(models.DateLayout))
			}
		}
		if !w.Empty() && !w.EffectiveStart.Equal(w.Dates[0].AddDate(0, 0, 1)) {
			t.Fatalf("ledger %d: effective start %v is not one day after first date %v", i, w.EffectiveStart, w.Dates[0])
		}
	}
}

func TestResolve_CoveredDatesExcludeLookback(t *testing.T) {
	w, err := Resolve(day("2022-12-27"), day("2022-12-28"), ledgerOf("2022-12-26", "2022-12-27"))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	got := fmtDates(w.CoveredDates())
	if !equalStrings(got, []string{"2022-12-28"}) {
		t.Fatalf("covered: got %v", got)
	}
}

func TestResolve_ZeroDates(t *testing.T) {
	if _, err := Resolve(time.Time{}, day("2022-12-28"), models.AbsentLedger()); !errors.Is(err, ErrZeroDate) {
		t.Fatalf("expected ErrZeroDate, got %v", err)
	}
}
