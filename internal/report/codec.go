package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"
	"github.com/shopspring/decimal"

	"github.com/guttosm/xetrapulse/internal/domain/models"
)

// Row is the on-storage schema of one report line.
type Row struct {
	ISIN                     string   `parquet:"isin"`
	Date                     string   `parquet:"date"`
	OpeningPrice             float64  `parquet:"opening_price"`
	ClosingPrice             float64  `parquet:"closing_price"`
	MinimumPrice             float64  `parquet:"minimum_price"`
	MaximumPrice             float64  `parquet:"maximum_price"`
	DailyTradedVolume        int64    `parquet:"daily_traded_volume"`
	ChangePrevClosingPercent *float64 `parquet:"change_prev_closing_percent,optional"`
}

// Columns is the report header, in order.
var Columns = []string{
	"isin",
	"date",
	"opening_price",
	"closing_price",
	"minimum_price",
	"maximum_price",
	"daily_traded_volume",
	"change_prev_closing_percent",
}

// ToRow converts a summary to its stored form.
func ToRow(s models.DailySummary) Row {
	r := Row{
		ISIN:              s.ISIN,
		Date:              s.Date.Format(models.DateLayout),
		OpeningPrice:      s.OpeningPrice.InexactFloat64(),
		ClosingPrice:      s.ClosingPrice.InexactFloat64(),
		MinimumPrice:      s.MinimumPrice.InexactFloat64(),
		MaximumPrice:      s.MaximumPrice.InexactFloat64(),
		DailyTradedVolume: s.DailyTradedVolume,
	}
	if f, ok := s.ChangePrevClosing.Float64(); ok {
		r.ChangePrevClosingPercent = &f
	}
	return r
}

// FromRow is the inverse of ToRow. Prices come back rounded to 2 places.
func FromRow(r Row) (models.DailySummary, error) {
	date, err := models.ParseDate(r.Date)
	if err != nil {
		return models.DailySummary{}, fmt.Errorf("row %s: date: %w", r.ISIN, err)
	}
	return models.DailySummary{
		ISIN:              r.ISIN,
		Date:              date,
		OpeningPrice:      price(r.OpeningPrice),
		ClosingPrice:      price(r.ClosingPrice),
		MinimumPrice:      price(r.MinimumPrice),
		MaximumPrice:      price(r.MaximumPrice),
		DailyTradedVolume: r.DailyTradedVolume,
		ChangePrevClosing: change(r.ChangePrevClosingPercent),
	}, nil
}

func price(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).RoundBank(2)
}

func change(f *float64) models.PercentChange {
	c := models.PercentChangeFromFloat(f)
	if c.Kind == models.ChangeFinite {
		c.Value = c.Value.RoundBank(2)
	}
	return c
}

// Encode serializes summaries in the given format.
func Encode(rows []models.DailySummary, f Format) ([]byte, error) {
	out := make([]Row, len(rows))
	for i, s := range rows {
		out[i] = ToRow(s)
	}
	var buf bytes.Buffer
	switch f {
	case FormatParquet:
		if err := parquet.Write(&buf, out); err != nil {
			return nil, fmt.Errorf("encode parquet: %w", err)
		}
	case FormatCSV:
		if err := writeCSV(&buf, out); err != nil {
			return nil, fmt.Errorf("encode csv: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(f))
	}
	return buf.Bytes(), nil
}

// Decode parses a report body written by Encode.
func Decode(body []byte, f Format) ([]models.DailySummary, error) {
	var rows []Row
	var err error
	switch f {
	case FormatParquet:
		rows, err = parquet.Read[Row](bytes.NewReader(body), int64(len(body)))
		if err != nil {
			return nil, fmt.Errorf("decode parquet: %w", err)
		}
	case FormatCSV:
		rows, err = readCSV(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("decode csv: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(f))
	}

	out := make([]models.DailySummary, 0, len(rows))
	for _, r := range rows {
		s, err := FromRow(r)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func writeCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.ISIN,
			r.Date,
			formatFloat(r.OpeningPrice),
			formatFloat(r.ClosingPrice),
			formatFloat(r.MinimumPrice),
			formatFloat(r.MaximumPrice),
			strconv.FormatInt(r.DailyTradedVolume, 10),
			"",
		}
		if r.ChangePrevClosingPercent != nil {
			rec[7] = formatFloat(*r.ChangePrevClosingPercent)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// formatFloat writes NaN and infinities the way pandas does ("nan", "inf",
// "-inf").
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func parseFloat(s string) (float64, error) {
	switch strings.ToLower(s) {
	case "nan":
		return math.NaN(), nil
	case "inf", "+inf":
		return math.Inf(1), nil
	case "-inf":
		return math.Inf(-1), nil
	}
	return strconv.ParseFloat(s, 64)
}

func readCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) != len(Columns) {
		return nil, fmt.Errorf("invalid header length: expected %d, got %d", len(Columns), len(header))
	}
	for i, h := range header {
		if strings.TrimSpace(h) != Columns[i] {
			return nil, fmt.Errorf("invalid header at col %d: expected %q, got %q", i+1, Columns[i], h)
		}
	}

	var out []Row
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line after %d: %w", line, err)
		}
		line++

		var row Row
		row.ISIN = rec[0]
		row.Date = rec[1]
		prices := []*float64{&row.OpeningPrice, &row.ClosingPrice, &row.MinimumPrice, &row.MaximumPrice}
		for i, p := range prices {
			v, err := parseFloat(rec[2+i])
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line, Columns[2+i], err)
			}
			*p = v
		}
		if row.DailyTradedVolume, err = strconv.ParseInt(rec[6], 10, 64); err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", line, Columns[6], err)
		}
		if rec[7] != "" {
			v, err := parseFloat(rec[7])
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line, Columns[7], err)
			}
			row.ChangePrevClosingPercent = &v
		}
		out = append(out, row)
	}
	return out, nil
}
