package app

import (
	"context"
	"fmt"
	"time"

	"github.com/guttosm/xetrapulse/config"
	"github.com/guttosm/xetrapulse/internal/aggregate"
	"github.com/guttosm/xetrapulse/internal/domain/models"
	"github.com/guttosm/xetrapulse/internal/ingestion"
	"github.com/guttosm/xetrapulse/internal/report"
	"github.com/guttosm/xetrapulse/internal/service"
)

// SourceColumns maps the configured header names to ingestion.Columns.
func SourceColumns(cfg config.SourceConfig) ingestion.Columns {
	return ingestion.Columns{
		ISIN:         cfg.ColISIN,
		Date:         cfg.ColDate,
		Time:         cfg.ColTime,
		StartPrice:   cfg.ColStartPrice,
		MaxPrice:     cfg.ColMaxPrice,
		MinPrice:     cfg.ColMinPrice,
		EndPrice:     cfg.ColEndPrice,
		TradedVolume: cfg.ColTradedVolume,
	}
}

// NewReportService wires the report pipeline over stores. Invalid column,
// format or closing-price settings fail here, before anything is read.
func NewReportService(cfg config.Config, stores Stores) (service.ReportService, error) {
	cols := SourceColumns(cfg.Source)
	if err := cols.Validate(); err != nil {
		return nil, err
	}
	closing, err := aggregate.ParseClosingPrice(cfg.Report.ClosingPrice)
	if err != nil {
		return nil, err
	}
	writer, err := report.NewWriter(stores.Target, cfg.Report.KeyPrefix, cfg.Report.Format)
	if err != nil {
		return nil, err
	}
	extractor := ingestion.NewExtractor(stores.Source, cols, cfg.Source.Parallel)
	return service.NewReportService(stores.Target, extractor, writer, service.RunOptions{
		LedgerKey:       cfg.Report.LedgerKey,
		ClosingPrice:    closing,
		FailOnNonFinite: cfg.Report.FailOnNonFinite,
	}), nil
}

// RunReport opens the configured stores and executes one report run.
//
// Parameters:
//   - start: requested start date (YYYY-MM-DD); empty means REPORT_START_DATE.
//   - today: last date to process (YYYY-MM-DD); empty means the current UTC date.
func RunReport(ctx context.Context, cfg config.Config, start, today string) (service.RunResult, error) {
	requested, end, err := runDates(cfg, start, today, time.Now)
	if err != nil {
		return service.RunResult{}, err
	}

	stores, cleanup, err := OpenStores(cfg)
	if err != nil {
		return service.RunResult{}, err
	}
	defer cleanup()

	svc, err := NewReportService(cfg, stores)
	if err != nil {
		return service.RunResult{}, err
	}
	return svc.Run(ctx, requested, end)
}

func runDates(cfg config.Config, start, today string, now func() time.Time) (time.Time, time.Time, error) {
	if start == "" {
		start = cfg.Report.StartDate
	}
	requested, err := models.ParseDate(start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	if today == "" {
		return requested, models.TruncateToDate(now().UTC()), nil
	}
	end, err := models.ParseDate(today)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid today date %q: %w", today, err)
	}
	return requested, end, nil
}
