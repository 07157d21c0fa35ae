// Package report serializes daily summaries into report objects and reads
// them back.
package report

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Format is the on-storage encoding of a report.
type Format string

const (
	FormatParquet Format = "parquet"
	FormatCSV     Format = "csv"
)

// ErrUnsupportedFormat is returned for any format other than parquet or csv.
var ErrUnsupportedFormat = errors.New("unsupported report format")

// timestampLayout is the generation time embedded in report keys.
const timestampLayout = "20060102_150405"

// ParseFormat accepts "parquet", "csv", their dotted extensions and any
// letter case.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "."))
	switch f {
	case FormatParquet, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string { return "." + string(f) }

// Key builds the object key of a report generated at ts:
// <prefix>report_<YYYYMMDD_HHMMSS>.<ext>. The timestamp has second
// resolution; Writer.Write skips keys that are already taken.
func Key(prefix string, ts time.Time, f Format) string {
	return prefix + "report_" + ts.Format(timestampLayout) + f.Ext()
}

// FormatOfKey infers the format from a report key's extension.
func FormatOfKey(key string) (Format, error) {
	i := strings.LastIndexByte(key, '.')
	if i < 0 {
		return "", fmt.Errorf("%w: key %q has no extension", ErrUnsupportedFormat, key)
	}
	return ParseFormat(key[i+1:])
}
