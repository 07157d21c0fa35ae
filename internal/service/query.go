package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/guttosm/xetrapulse/internal/domain/models"
	"github.com/guttosm/xetrapulse/internal/ledger"
	"github.com/guttosm/xetrapulse/internal/objectstore"
	"github.com/guttosm/xetrapulse/internal/report"
)

// LatestReport is the content of the newest report object.
type LatestReport struct {
	Key  string
	Rows []models.DailySummary
}

// QueryService reads back what report runs produced.
type QueryService interface {
	// LatestReport returns the rows of the newest report, restricted to
	// isin when it is not empty. objectstore.ErrNotFound means no report
	// has been written yet.
	LatestReport(ctx context.Context, isin string) (*LatestReport, error)
	// LedgerEntries returns every ledger entry in file order. An absent
	// ledger yields no entries and no error.
	LedgerEntries(ctx context.Context) ([]models.LedgerEntry, error)
}

type queryService struct {
	target    objectstore.Store
	prefix    string
	ledgerKey string
}

// NewQueryService returns a QueryService over the target bucket.
func NewQueryService(target objectstore.Store, reportPrefix, ledgerKey string) QueryService {
	if ledgerKey == "" {
		ledgerKey = ledger.DefaultKey
	}
	return &queryService{target: target, prefix: reportPrefix, ledgerKey: ledgerKey}
}

func (s *queryService) LatestReport(ctx context.Context, isin string) (*LatestReport, error) {
	key, err := report.Latest(ctx, s.target, s.prefix)
	if err != nil {
		return nil, err
	}
	rows, err := report.Read(ctx, s.target, key)
	if err != nil {
		return nil, fmt.Errorf("read report %s: %w", key, err)
	}
	if isin = strings.TrimSpace(isin); isin != "" {
		filtered := rows[:0]
		for _, r := range rows {
			if strings.EqualFold(r.ISIN, isin) {
				filtered = append(filtered, r)
			}
		}
		rows = filtered
	}
	return &LatestReport{Key: key, Rows: rows}, nil
}

func (s *queryService) LedgerEntries(ctx context.Context) ([]models.LedgerEntry, error) {
	l, err := ledger.Read(ctx, s.target, s.ledgerKey)
	if err != nil {
		return nil, err
	}
	return l.Entries, nil
}
