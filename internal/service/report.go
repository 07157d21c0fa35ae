// Package service runs the report pipeline and answers read queries about
// its output.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/guttosm/xetrapulse/internal/aggregate"
	"github.com/guttosm/xetrapulse/internal/domain/models"
	"github.com/guttosm/xetrapulse/internal/ingestion"
	"github.com/guttosm/xetrapulse/internal/ledger"
	"github.com/guttosm/xetrapulse/internal/logger"
	"github.com/guttosm/xetrapulse/internal/objectstore"
	"github.com/guttosm/xetrapulse/internal/report"
	"github.com/guttosm/xetrapulse/internal/telemetry"
	"github.com/guttosm/xetrapulse/internal/window"
)

// ErrNonFiniteChange aborts a run whose report would carry a percent change
// computed against a zero previous close.
var ErrNonFiniteChange = errors.New("non-finite percent change")

// RunOptions are the per-deployment settings of a report run.
type RunOptions struct {
	LedgerKey       string
	ClosingPrice    aggregate.ClosingPrice
	FailOnNonFinite bool
}

// RunResult summarizes one run.
type RunResult struct {
	RunID          string
	NoOp           bool
	EffectiveStart time.Time
	Dates          []time.Time
	Covered        []time.Time
	Stats          ingestion.Stats
	Rows           int
	NonFinite      []models.SummaryKey
	ReportKey      string
}

// ReportService produces one report per Run.
type ReportService interface {
	Run(ctx context.Context, requestedStart, today time.Time) (RunResult, error)
}

type reportService struct {
	target    objectstore.Store
	extractor *ingestion.Extractor
	writer    *report.Writer
	opts      RunOptions
	now       func() time.Time
	newID     func() string
}

// NewReportService wires the pipeline stages. The ledger and the reports
// live in target; extractor reads the source bucket.
func NewReportService(target objectstore.Store, extractor *ingestion.Extractor, writer *report.Writer, opts RunOptions) ReportService {
	if opts.LedgerKey == "" {
		opts.LedgerKey = ledger.DefaultKey
	}
	if opts.ClosingPrice == "" {
		opts.ClosingPrice = aggregate.ClosingFromStart
	}
	return &reportService{
		target:    target,
		extractor: extractor,
		writer:    writer,
		opts:      opts,
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
}

// Run executes ledger read, window resolution, extraction, aggregation,
// report write and ledger update, in that order.
//
// Behavior:
//   - A window with no dates ends the run as a no-op: nothing is read or written.
//   - An empty aggregation writes no report, but the covered dates are still
//     recorded in the ledger.
//   - The ledger is only written after the report write succeeded.
func (s *reportService) Run(ctx context.Context, requestedStart, today time.Time) (RunResult, error) {
	res := RunResult{RunID: s.newID()}
	log := logger.WithRun(res.RunID)
	ctx = log.WithContext(ctx)

	ctx, span := telemetry.StartSpan(ctx, "report.run")
	defer span.End()
	span.SetAttributes(attribute.String("run_id", res.RunID))

	log.Info().
		Str("requested_start", requestedStart.Format(models.DateLayout)).
		Str("today", today.Format(models.DateLayout)).
		Str("closing_price", string(s.opts.ClosingPrice)).
		Str("format", string(s.writer.Format())).
		Msg("report run start")

	current, err := s.readLedger(ctx)
	if err != nil {
		return res, err
	}

	win, err := window.Resolve(requestedStart, today, current)
	if err != nil {
		return res, fmt.Errorf("resolve window: %w", err)
	}
	res.EffectiveStart = win.EffectiveStart
	res.Dates = win.Dates
	if win.Empty() {
		res.NoOp = true
		log.Info().Msg("all dates already processed, nothing to do")
		return res, nil
	}
	res.Covered = win.CoveredDates()
	log.Info().
		Str("effective_start", win.EffectiveStart.Format(models.DateLayout)).
		Int("dates", len(win.Dates)).
		Msg("extraction window resolved")

	records, err := s.extract(ctx, win.Dates)
	if err != nil {
		return res, err
	}
	res.Stats = records.stats
	if records.stats.Dropped > 0 {
		log.Warn().Int("dropped", records.stats.Dropped).Msg("rows with empty cells dropped")
	}

	agg := s.aggregate(ctx, records.ticks, win.EffectiveStart)
	res.Rows = len(agg.Rows)
	res.NonFinite = agg.NonFinite
	for _, k := range agg.NonFinite {
		log.Warn().Str("isin", k.ISIN).Str("date", k.Date.Format(models.DateLayout)).Msg("previous closing price is zero, percent change is not finite")
	}
	if len(agg.NonFinite) > 0 && s.opts.FailOnNonFinite {
		return res, fmt.Errorf("%w: %d rows", ErrNonFiniteChange, len(agg.NonFinite))
	}

	key, err := s.write(ctx, agg.Rows)
	if err != nil {
		return res, err
	}
	res.ReportKey = key

	if err := s.updateLedger(ctx, current, res.Covered); err != nil {
		return res, err
	}

	log.Info().
		Int("rows", res.Rows).
		Int("dates_recorded", len(res.Covered)).
		Str("report_key", res.ReportKey).
		Msg("report run done")
	return res, nil
}

func (s *reportService) readLedger(ctx context.Context) (models.Ledger, error) {
	ctx, span := telemetry.StartSpan(ctx, "ledger.read")
	defer span.End()
	l, err := ledger.Read(ctx, s.target, s.opts.LedgerKey)
	if err != nil {
		span.RecordError(err)
		return models.Ledger{}, fmt.Errorf("read ledger: %w", err)
	}
	span.SetAttributes(attribute.Bool("found", l.Found), attribute.Int("entries", len(l.Entries)))
	return l, nil
}

type extracted struct {
	ticks []models.TickRecord
	stats ingestion.Stats
}

func (s *reportService) extract(ctx context.Context, dates []time.Time) (extracted, error) {
	ctx, span := telemetry.StartSpan(ctx, "source.extract")
	defer span.End()
	ticks, stats, err := s.extractor.Extract(ctx, dates)
	if err != nil {
		span.RecordError(err)
		return extracted{}, fmt.Errorf("extract: %w", err)
	}
	span.SetAttributes(attribute.Int("objects", stats.Objects), attribute.Int("rows", stats.Rows), attribute.Int("dropped", stats.Dropped))
	return extracted{ticks: ticks, stats: stats}, nil
}

func (s *reportService) aggregate(ctx context.Context, ticks []models.TickRecord, effectiveStart time.Time) aggregate.Result {
	_, span := telemetry.StartSpan(ctx, "report.aggregate")
	defer span.End()
	agg := aggregate.Aggregate(ticks, effectiveStart, aggregate.Options{ClosingPrice: s.opts.ClosingPrice})
	span.SetAttributes(attribute.Int("groups", agg.Groups), attribute.Int("rows", len(agg.Rows)))
	return agg
}

func (s *reportService) write(ctx context.Context, rows []models.DailySummary) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "report.write")
	defer span.End()
	key, err := s.writer.Write(ctx, rows)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	span.SetAttributes(attribute.String("key", key))
	return key, nil
}

func (s *reportService) updateLedger(ctx context.Context, current models.Ledger, dates []time.Time) error {
	ctx, span := telemetry.StartSpan(ctx, "ledger.update")
	defer span.End()
	if err := ledger.Update(ctx, s.target, s.opts.LedgerKey, current, dates, s.now()); err != nil {
		span.RecordError(err)
		return fmt.Errorf("update ledger: %w", err)
	}
	return nil
}
