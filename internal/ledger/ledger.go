// Package ledger reads and appends to the processing ledger, the CSV object
// that records which source dates have already been aggregated.
//
// The ledger is updated with a read-modify-write cycle and no lock. It
// assumes at most one writer per ledger key at a time; two concurrent runs
// against the same key can lose each other's entries.
package ledger

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/guttosm/xetrapulse/internal/domain/models"
	"github.com/guttosm/xetrapulse/internal/logger"
	"github.com/guttosm/xetrapulse/internal/objectstore"
)

// DefaultKey is the ledger object key used when none is configured.
const DefaultKey = "meta_file.csv"

const (
	colSourceDate  = "source_date"
	colProcessedAt = "datetime_of_processing"
)

// ErrCorrupt is returned when the ledger object exists but cannot be parsed.
var ErrCorrupt = errors.New("ledger is corrupt")

// Read loads the ledger at key. A missing object yields models.AbsentLedger();
// any other storage error and any parse error is returned as-is.
func Read(ctx context.Context, store objectstore.Store, key string) (models.Ledger, error) {
	body, err := store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, objectstore.ErrNotFound) {
			logger.FromContext(ctx).Info().Str("key", key).Msg("ledger not found, treating as first run")
			return models.AbsentLedger(), nil
		}
		return models.Ledger{}, fmt.Errorf("read ledger %s: %w", key, err)
	}
	entries, err := Decode(bytes.NewReader(body))
	if err != nil {
		return models.Ledger{}, fmt.Errorf("read ledger %s: %w", key, err)
	}
	return models.Ledger{Found: true, Entries: entries}, nil
}

// Update appends one entry per date, all stamped with processedAt, and
// writes the whole ledger back to key. Existing entries are kept in order
// and never deduplicated. An empty dates slice writes nothing.
func Update(ctx context.Context, store objectstore.Store, key string, current models.Ledger, dates []time.Time, processedAt time.Time) error {
	if len(dates) == 0 {
		return nil
	}
	all := make([]models.LedgerEntry, 0, len(current.Entries)+len(dates))
	all = append(all, current.Entries...)
	stamp := models.TruncateToDate(processedAt)
	for _, d := range dates {
		all = append(all, models.LedgerEntry{SourceDate: models.TruncateToDate(d), ProcessedAt: stamp})
	}

	var buf bytes.Buffer
	if err := Encode(&buf, all); err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := store.Put(ctx, key, buf.Bytes()); err != nil {
		return fmt.Errorf("write ledger %s: %w", key, err)
	}
	logger.FromContext(ctx).Info().Str("key", key).Int("appended", len(dates)).Int("entries", len(all)).Msg("ledger updated")
	return nil
}

// Encode writes entries as CSV with a header row.
func Encode(w io.Writer, entries []models.LedgerEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{colSourceDate, colProcessedAt}); err != nil {
		return err
	}
	for _, e := range entries {
		if err := cw.Write([]string{e.SourceDate.Format(models.DateLayout), e.ProcessedAt.Format(models.DateLayout)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Decode parses a ledger CSV. Columns are located by header name, so extra
// columns are ignored. A processing value carrying a clock part
// ("2022-12-28 10:15:00") is accepted and truncated to the date.
func Decode(r io.Reader) ([]models.LedgerEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: empty object", ErrCorrupt)
		}
		return nil, fmt.Errorf("%w: read header: %v", ErrCorrupt, err)
	}
	srcIdx, procIdx := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) {
		case colSourceDate:
			srcIdx = i
		case colProcessedAt:
			procIdx = i
		}
	}
	if srcIdx < 0 || procIdx < 0 {
		return nil, fmt.Errorf("%w: header %v lacks %s/%s", ErrCorrupt, header, colSourceDate, colProcessedAt)
	}

	var out []models.LedgerEntry
	line := 1
	for {
		rec, err := cr.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("%w: line %d: %v", ErrCorrupt, line+1, err)
		}
		line++
		if srcIdx >= len(rec) || procIdx >= len(rec) {
			return nil, fmt.Errorf("%w: line %d: expected %d columns, got %d", ErrCorrupt, line, len(header), len(rec))
		}
		src, err := models.ParseDate(strings.TrimSpace(rec[srcIdx]))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: source_date: %v", ErrCorrupt, line, err)
		}
		proc, err := parseProcessedAt(strings.TrimSpace(rec[procIdx]))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: datetime_of_processing: %v", ErrCorrupt, line, err)
		}
		out = append(out, models.LedgerEntry{SourceDate: src, ProcessedAt: proc})
	}
	return out, nil
}

func parseProcessedAt(s string) (time.Time, error) {
	if len(s) > len(models.DateLayout) {
		s = s[:len(models.DateLayout)]
	}
	return models.ParseDate(s)
}
