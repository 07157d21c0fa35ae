// Package ingestion lists and decodes the dated source batches of a run.
package ingestion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/guttosm/xetrapulse/internal/domain/models"
	"github.com/guttosm/xetrapulse/internal/logger"
	"github.com/guttosm/xetrapulse/internal/objectstore"
)

const maxParallelCap = 32

// ErrSourceMissing is returned when a listed source object cannot be
// fetched because it no longer exists.
var ErrSourceMissing = errors.New("source object missing")

// Extractor reads every source batch of a set of dates.
type Extractor struct {
	store    objectstore.Store
	cols     Columns
	parallel int
}

// NewExtractor returns an Extractor reading from store.
//
// Parameters:
//   - store:    source bucket.
//   - cols:     header names of the retained columns.
//   - parallel: max concurrent object reads; <= 0 means min(8, NumCPU).
func NewExtractor(store objectstore.Store, cols Columns, parallel int) *Extractor {
	return &Extractor{store: store, cols: cols, parallel: parallel}
}

func (e *Extractor) maxParallel() int {
	p := e.parallel
	if p <= 0 {
		p = 8
		if c := runtime.NumCPU(); c < p {
			p = c
		}
	}
	if p > maxParallelCap {
		p = maxParallelCap
	}
	return p
}

// Extract lists every object under each date prefix ("YYYY-MM-DD") and
// decodes them concurrently.
//
// Behavior:
//   - Records are returned in (date, key, line) order regardless of which
//     read finishes first, so the aggregation input is deterministic.
//   - A date without objects is not an error; a trading day without objects
//     is logged at warn level.
//   - A listed key that cannot be fetched fails the whole extraction, and
//     the remaining reads are cancelled.
//
// Returns:
//   - the decoded records and the summed decode statistics.
//   - error: first error encountered (if any).
func (e *Extractor) Extract(ctx context.Context, dates []time.Time) ([]models.TickRecord, Stats, error) {
	log := logger.FromContext(ctx)
	var keys []string
	for _, d := range dates {
		prefix := d.Format(models.DateLayout)
		listed, err := e.store.List(ctx, prefix)
		if err != nil {
			return nil, Stats{}, fmt.Errorf("list source %s: %w", prefix, err)
		}
		if len(listed) == 0 && IsTradingDay(d) {
			log.Warn().Str("date", prefix).Msg("no source batches for trading day")
		}
		keys = append(keys, listed...)
	}

	maxParallel := e.maxParallel()
	log.Info().Int("dates", len(dates)).Int("objects", len(keys)).Int("max_parallel", maxParallel).Msg("extraction start")

	results := make([][]models.TickRecord, len(keys))
	stats := make([]Stats, len(keys))

	// errgroup will cancel siblings on first error.
	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, maxParallel)

	for i, key := range keys {
		idx := i
		k := key
		select {
		case sem <- struct{}{}:
		case <-gctx.Done():
			return nil, Stats{}, waitErr(gctx, g)
		}

		g.Go(func() error {
			defer func() { <-sem }()
			start := time.Now()

			body, err := e.store.Get(gctx, k)
			if err != nil {
				log.Error().Str("key", k).Err(err).Msg("source read failed")
				if errors.Is(err, objectstore.ErrNotFound) {
					return fmt.Errorf("%w: %s: %v", ErrSourceMissing, k, err)
				}
				return fmt.Errorf("read source %s: %w", k, err)
			}

			recs, st, err := DecodeBatch(bytes.NewReader(body), e.cols)
			if err != nil {
				log.Error().Str("key", k).Err(err).Msg("source decode failed")
				return fmt.Errorf("source %s: %w", k, err)
			}
			st.Objects = 1
			results[idx] = recs
			stats[idx] = st
			log.Debug().Int("idx", idx+1).Int("total", len(keys)).Str("key", k).Int("rows", st.Rows).Int("dropped", st.Dropped).Dur("elapsed", time.Since(start)).Msg("object done")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, Stats{}, err
	}

	var total Stats
	n := 0
	for i := range results {
		total.Add(stats[i])
		n += len(results[i])
	}
	out := make([]models.TickRecord, 0, n)
	for _, r := range results {
		out = append(out, r...)
	}
	log.Info().Int("objects", total.Objects).Int("rows", total.Rows).Int("dropped", total.Dropped).Msg("extraction done")
	return out, total, nil
}

// waitErr drains the group after the loop stopped early and returns the
// error that cancelled it.
func waitErr(ctx context.Context, g *errgroup.Group) error {
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
