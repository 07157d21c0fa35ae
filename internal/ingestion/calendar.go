package ingestion

import (
	"time"

	"github.com/guttosm/xetrapulse/internal/domain/models"
)

// IsTradingDay reports whether Xetra is expected to trade on d.
// It excludes Saturdays, Sundays and the exchange's fixed and Easter-based
// closing days.
func IsTradingDay(d time.Time) bool {
	// Weekend
	if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}

	// Fixed closing days
	fixed := map[string]struct{}{
		"01-01": {}, // New Year
		"05-01": {}, // Labour Day
		"12-24": {}, // Christmas Eve
		"12-25": {}, // Christmas
		"12-26": {}, // Boxing Day
		"12-31": {}, // New Year's Eve
	}
	if _, ok := fixed[d.Format("01-02")]; ok {
		return false
	}

	easter := easterSunday(d.Year())
	goodFriday := easter.AddDate(0, 0, -2)
	easterMonday := easter.AddDate(0, 0, 1)

	day := models.TruncateToDate(d)
	return !day.Equal(goodFriday) && !day.Equal(easterMonday)
}

// easterSunday returns the date of Easter Sunday for a given year
// (Meeus/Jones/Butcher algorithm).
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := ((h + l - 7*m + 114) % 31) + 1

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
