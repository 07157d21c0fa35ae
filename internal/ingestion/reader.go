package ingestion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/guttosm/xetrapulse/internal/domain/models"
)

// ErrMalformedRecord is returned when a batch is structurally broken or a
// present cell cannot be parsed. Null cells are not malformed; those rows
// are dropped and counted instead.
var ErrMalformedRecord = errors.New("malformed source record")

// Columns maps each retained field to its header name in the source CSV.
type Columns struct {
	ISIN         string
	Date         string
	Time         string
	StartPrice   string
	MaxPrice     string
	MinPrice     string
	EndPrice     string
	TradedVolume string
}

// DefaultColumns returns the Xetra header names.
func DefaultColumns() Columns {
	return Columns{
		ISIN:         "ISIN",
		Date:         "Date",
		Time:         "Time",
		StartPrice:   "StartPrice",
		MaxPrice:     "MaxPrice",
		MinPrice:     "MinPrice",
		EndPrice:     "EndPrice",
		TradedVolume: "TradedVolume",
	}
}

func (c Columns) names() []string {
	return []string{c.ISIN, c.Date, c.Time, c.StartPrice, c.MaxPrice, c.MinPrice, c.EndPrice, c.TradedVolume}
}

// Validate checks every column is named and no name is used twice.
func (c Columns) Validate() error {
	seen := make(map[string]struct{}, 8)
	for _, n := range c.names() {
		if strings.TrimSpace(n) == "" {
			return errors.New("column names must not be empty")
		}
		if _, ok := seen[n]; ok {
			return fmt.Errorf("column %q configured twice", n)
		}
		seen[n] = struct{}{}
	}
	return nil
}

// Stats counts what a decode saw.
type Stats struct {
	Objects int
	Rows    int
	Dropped int
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Objects += o.Objects
	s.Rows += o.Rows
	s.Dropped += o.Dropped
}

// field positions inside Columns.names()
const (
	colISIN = iota
	colDate
	colTime
	colStart
	colMax
	colMin
	colEnd
	colVolume
)

var timeLayouts = []string{"15:04", "15:04:05"}

// nullMarkers are the cell values read as missing. Matching is exact and
// case-sensitive, the same as the default NA tokens of pandas.read_csv.
var nullMarkers = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

func isNull(cell string) bool {
	_, ok := nullMarkers[cell]
	return ok
}

// DecodeBatch reads one comma-separated source batch with a header row.
//
// Only the configured columns are kept. It fails on:
//   - a missing configured column in the header
//   - present cells that do not parse
//
// It tolerates:
//   - extra, unconfigured columns
//   - rows with a null retained cell, empty or an NA marker such as "NaN"
//     (dropped, counted in Stats.Dropped)
//   - short rows missing a retained column (dropped the same way)
func DecodeBatch(r io.Reader, cols Columns) ([]models.TickRecord, Stats, error) {
	var st Stats
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, st, fmt.Errorf("%w: missing header", ErrMalformedRecord)
		}
		return nil, st, fmt.Errorf("%w: read header: %v", ErrMalformedRecord, err)
	}
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	names := cols.names()
	idx := make([]int, len(names))
	for i, n := range names {
		p, ok := pos[n]
		if !ok {
			return nil, st, fmt.Errorf("%w: header lacks column %q", ErrMalformedRecord, n)
		}
		idx[i] = p
	}

	var out []models.TickRecord
	lineNumber := 1 // header already read
	cells := make([]string, len(idx))
	for {
		rec, err := cr.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, st, fmt.Errorf("%w: line %d: %v", ErrMalformedRecord, lineNumber+1, err)
		}
		lineNumber++

		null := false
		for i, p := range idx {
			if p >= len(rec) {
				null = true
				break
			}
			cells[i] = strings.TrimSpace(rec[p])
			if isNull(cells[i]) {
				null = true
			}
		}
		if null {
			st.Dropped++
			continue
		}

		t, err := recordToTick(cells)
		if err != nil {
			return nil, st, fmt.Errorf("%w: line %d: %v", ErrMalformedRecord, lineNumber, err)
		}
		out = append(out, t)
		st.Rows++
	}
	return out, st, nil
}

// recordToTick converts the retained cells (in Columns order, none null)
// into a TickRecord.
func recordToTick(c []string) (models.TickRecord, error) {
	var t models.TickRecord
	t.ISIN = c[colISIN]

	d, err := models.ParseDate(c[colDate])
	if err != nil {
		return t, fmt.Errorf("invalid Date: %v", err)
	}
	t.Date = d

	clock, err := parseClock(c[colTime])
	if err != nil {
		return t, fmt.Errorf("invalid Time: %v", err)
	}
	t.Time = clock

	prices := []struct {
		name string
		dst  *decimal.Decimal
		src  string
	}{
		{"StartPrice", &t.StartPrice, c[colStart]},
		{"MaxPrice", &t.MaxPrice, c[colMax]},
		{"MinPrice", &t.MinPrice, c[colMin]},
		{"EndPrice", &t.EndPrice, c[colEnd]},
	}
	for _, p := range prices {
		v, err := decimal.NewFromString(p.src)
		if err != nil {
			return t, fmt.Errorf("invalid %s: %v", p.name, err)
		}
		*p.dst = v
	}

	vol, err := strconv.ParseInt(c[colVolume], 10, 64)
	if err != nil {
		return t, fmt.Errorf("invalid TradedVolume: %v", err)
	}
	t.TradedVolume = vol
	return t, nil
}

// parseClock keeps only the clock part, on 0000-01-01 UTC.
func parseClock(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timeLayouts {
		h, err := time.Parse(layout, s)
		if err == nil {
			return time.Date(0, 1, 1, h.Hour(), h.Minute(), h.Second(), 0, time.UTC), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
