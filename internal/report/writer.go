package report

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/guttosm/xetrapulse/internal/domain/models"
	"github.com/guttosm/xetrapulse/internal/logger"
	"github.com/guttosm/xetrapulse/internal/objectstore"
)

// Writer stores reports in the target bucket.
type Writer struct {
	store  objectstore.Store
	prefix string
	format Format
	now    func() time.Time
}

// NewWriter validates format up front so a bad configuration fails before
// any work is done.
func NewWriter(store objectstore.Store, prefix string, format string) (*Writer, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return &Writer{store: store, prefix: prefix, format: f, now: time.Now}, nil
}

// Format returns the configured encoding.
func (w *Writer) Format() Format { return w.format }

// maxKeyAttempts bounds how far freeKey moves the timestamp forward.
const maxKeyAttempts = 60

// Write encodes rows and puts them under a new timestamped key. Nothing is
// written for an empty row set; the returned key is then "". An existing
// report is never overwritten: when the key for the current second is
// taken, the timestamp is moved forward one second at a time.
func (w *Writer) Write(ctx context.Context, rows []models.DailySummary) (string, error) {
	if len(rows) == 0 {
		logger.FromContext(ctx).Info().Msg("report is empty, no file will be written")
		return "", nil
	}
	body, err := Encode(rows, w.format)
	if err != nil {
		return "", err
	}
	key, err := w.freeKey(ctx, w.now())
	if err != nil {
		return "", err
	}
	if err := w.store.Put(ctx, key, body); err != nil {
		return "", fmt.Errorf("write report %s: %w", key, err)
	}
	logger.FromContext(ctx).Info().Str("key", key).Int("rows", len(rows)).Int("bytes", len(body)).Msg("report written")
	return key, nil
}

// freeKey returns the first report key at or after start whose timestamp no
// report of any format uses yet.
func (w *Writer) freeKey(ctx context.Context, start time.Time) (string, error) {
	ts := start
	for i := 0; i < maxKeyAttempts; i++ {
		key := Key(w.prefix, ts, w.format)
		taken, err := w.store.List(ctx, strings.TrimSuffix(key, w.format.Ext()))
		if err != nil {
			return "", fmt.Errorf("check report key %s: %w", key, err)
		}
		if len(taken) == 0 {
			return key, nil
		}
		ts = ts.Add(time.Second)
	}
	return "", fmt.Errorf("no free report key within %d seconds of %s", maxKeyAttempts, Key(w.prefix, start, w.format))
}

// Latest returns the key of the most recent report under prefix, or
// objectstore.ErrNotFound when there is none. The embedded timestamp sorts
// lexically, so the greatest key is the newest.
func Latest(ctx context.Context, store objectstore.Store, prefix string) (string, error) {
	keys, err := store.List(ctx, prefix+"report_")
	if err != nil {
		return "", fmt.Errorf("list reports: %w", err)
	}
	var candidates []string
	for _, k := range keys {
		if _, err := FormatOfKey(k); err == nil && !strings.Contains(strings.TrimPrefix(k, prefix), "/") {
			candidates = append(candidates, k)
		}
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("no report under %q: %w", prefix, objectstore.ErrNotFound)
	}
	sort.Strings(candidates)
	return candidates[len(candidates)-1], nil
}

// Read fetches and decodes the report at key.
func Read(ctx context.Context, store objectstore.Store, key string) ([]models.DailySummary, error) {
	f, err := FormatOfKey(key)
	if err != nil {
		return nil, err
	}
	body, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return Decode(body, f)
}
