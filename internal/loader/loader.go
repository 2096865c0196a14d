// Package loader reads dataset files into typed records.
// CSV files and the first sheet of XLSX workbooks need a header row; YAML
// and JSON files hold a list of records.
package loader

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// Format is a supported data file format.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// extensions lists the recognised file extensions in lookup order.
var extensions = []string{".csv", ".yaml", ".yml", ".json", ".xlsx"}

// ErrNotFound is returned when no data file exists for a dataset.
var ErrNotFound = errors.New("data file not found")

// FormatOf returns the format of a file from its extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported data file %s (use .csv, .yaml, .json or .xlsx)", filepath.Base(path))
	}
}

// Find returns the data file of dataset name in dir, trying each supported
// extension in turn.
func Find(dir, name string) (string, error) {
	for _, ext := range extensions {
		path := filepath.Join(dir, name+ext)
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s in %s", ErrNotFound, name, dir)
}

// Discover lists the data files in dir keyed by dataset name. When a name
// has files in several formats, the first in lookup order wins.
func Discover(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	found := make(map[string]string)
	rank := make(map[string]int)
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		r := slices.Index(extensions, ext)
		if r < 0 {
			continue
		}
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if prev, ok := rank[name]; ok && prev <= r {
			continue
		}
		found[name] = filepath.Join(dir, e.Name())
		rank[name] = r
	}
	return found, nil
}

// Validator is implemented by records that can check their own fields.
type Validator interface {
	Validate() error
}

// LoadFile reads every record of a data file. Records implementing
// Validator are validated; all invalid rows are reported together.
func LoadFile[T any](path string) ([]T, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Decode[T](f, format, path)
}

// Decode reads records in the given format from r. file names the source
// in errors.
func Decode[T any](r io.Reader, format Format, file string) ([]T, error) {
	var (
		records []T
		err     error
	)
	switch format {
	case FormatCSV:
		records, err = decodeCSV[T](r, file)
	case FormatYAML:
		records, err = decodeYAML[T](r, file)
	case FormatJSON:
		records, err = decodeJSON[T](r, file)
	case FormatXLSX:
		records, err = decodeXLSX[T](r, file)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, err
	}
	if err := validate(records, file, format == FormatCSV || format == FormatXLSX); err != nil {
		return nil, err
	}
	return records, nil
}

func decodeCSV[T any](r io.Reader, file string) ([]T, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	return decodeRows[T](cr, file)
}

// decodeRows decodes header-first rows. Row numbers start at 2, after the
// header.
func decodeRows[T any](rows csvutil.Reader, file string) ([]T, error) {
	dec, err := csvutil.NewDecoder(rows)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, &ParseError{File: file, Message: fmt.Sprintf("failed to read header: %v", err)}
	}

	var records []T
	for row := 2; ; row++ {
		var rec T
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, &ParseError{File: file, Line: row, Message: err.Error()}
		}
		if unused := dec.Unused(); len(unused) > 0 {
			header := dec.Header()
			return nil, &UnknownFieldError{File: file, Field: header[unused[0]]}
		}
		records = append(records, rec)
	}
	return records, nil
}

func decodeYAML[T any](r io.Reader, file string) ([]T, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var records []T
	if err := dec.Decode(&records); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, &ParseError{File: file, Message: fmt.Sprintf("invalid YAML: %v", err)}
	}
	return records, nil
}

func decodeJSON[T any](r io.Reader, file string) ([]T, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var records []T
	if err := dec.Decode(&records); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, &ParseError{File: file, Message: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return records, nil
}

func decodeXLSX[T any](r io.Reader, file string) ([]T, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &ParseError{File: file, Message: fmt.Sprintf("invalid XLSX: %v", err)}
	}
	defer func() { _ = wb.Close() }()

	sheet := wb.GetSheetName(0)
	if sheet == "" {
		return nil, &ParseError{File: file, Message: "no worksheet found"}
	}
	rows, err := wb.GetRows(sheet)
	if err != nil {
		return nil, &ParseError{File: file, Message: fmt.Sprintf("failed to read sheet %s: %v", sheet, err)}
	}
	return decodeRows[T](&sheetReader{rows: rows}, file)
}

// sheetReader feeds worksheet rows to csvutil. Rows are padded to the
// header width because trailing empty cells are not returned.
type sheetReader struct {
	rows  [][]string
	next  int
	width int
}

func (s *sheetReader) Read() ([]string, error) {
	if s.next >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.next]
	s.next++
	if s.width == 0 {
		s.width = len(row)
	}
	for i := range row {
		row[i] = strings.TrimSpace(row[i])
	}
	if len(row) < s.width {
		row = append(row, make([]string, s.width-len(row))...)
	}
	return row, nil
}

// validate checks every record. CSV and XLSX rows are reported by line number
// (the header is line 1), other formats by 1-based record index.
func validate[T any](records []T, file string, csvLines bool) error {
	var errs []error
	for i, rec := range records {
		v, ok := any(rec).(Validator)
		if !ok {
			return nil
		}
		if err := v.Validate(); err != nil {
			row := i + 1
			if csvLines {
				row = i + 2
			}
			errs = append(errs, &RowError{File: file, Row: row, Err: err})
		}
	}
	return errors.Join(errs...)
}

// ParseError reports a data file that could not be decoded.
type ParseError struct {
	File    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.File != "" {
		if e.Line > 0 {
			return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
		}
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return e.Message
}

// UnknownFieldError reports a CSV column that maps to no record field.
type UnknownFieldError struct {
	File  string
	Field string
}

func (e *UnknownFieldError) Error() string {
	msg := fmt.Sprintf("unknown column %q", e.Field)
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, msg)
	}
	return msg
}

// RowError reports a record that failed validation.
type RowError struct {
	File string
	Row  int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s: record %d: %v", e.File, e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}
