// Package export writes view results to CSV and XLSX files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/leapstack-labs/leapview/pkg/core"
)

// Format is an export file format.
type Format string

// Export formats.
const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat converts a string to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv", "":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unknown export format %q (use csv or xlsx)", s)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// FileName returns the export file name of a dataset on the day of now,
// such as "invoices_2025-03-15.xlsx".
func FileName(dataset string, f Format, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", dataset, now.Format(core.DateLayout), f)
}

// Write writes t to w in format f.
func Write(w io.Writer, f Format, t *core.Table) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, t)
	case FormatXLSX:
		return WriteXLSX(w, t)
	default:
		return fmt.Errorf("unknown export format %q", f)
	}
}

// WriteCSV writes the header row and every row of t. Missing values are
// written as empty cells.
func WriteCSV(w io.Writer, t *core.Table) error {
	cw := csv.NewWriter(w)
	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Name
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := cw.WriteAll(t.StringRows()); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	return nil
}
