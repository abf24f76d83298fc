package canonical

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/charmap"
)

// Format identifies a supported upload format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// UnsupportedFormatError is returned for extensions outside {.json, .csv}.
// It fails the job before any records are written.
type UnsupportedFormatError struct {
	Extension string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file type %q: expected .json or .csv", e.Extension)
}

// ParseError is a file-level parse failure. It is fatal to the whole job;
// record-level problems never produce one.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return "parse input file: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

// Detect resolves the format from a file name's extension,
// case-insensitively.
func Detect(name string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".json":
		return FormatJSON, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", &UnsupportedFormatError{Extension: ext}
	}
}

// ParseFile reads raw records from the file at path. single is true for a
// non-list JSON input, which the driver commits as one direct write.
func ParseFile(path string, format Format) (records []RawRecord, single bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, eris.Wrapf(err, "canonical: read %s", path)
	}
	return Parse(data, format)
}

// Parse reads raw records from file content.
func Parse(data []byte, format Format) ([]RawRecord, bool, error) {
	switch format {
	case FormatJSON:
		return parseJSON(data)
	case FormatCSV:
		records, err := parseCSV(data)
		return records, false, err
	default:
		return nil, false, &UnsupportedFormatError{Extension: string(format)}
	}
}

func parseJSON(data []byte) ([]RawRecord, bool, error) {
	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, false, &ParseError{Err: err}
	}

	switch v := parsed.(type) {
	case []any:
		records := make([]RawRecord, 0, len(v))
		for _, elem := range v {
			if m, ok := elem.(map[string]any); ok {
				records = append(records, m)
			} else {
				// Still one record per element; a non-object element
				// canonicalizes to a fully defaulted record.
				records = append(records, RawRecord{})
			}
		}
		return records, false, nil
	case map[string]any:
		return []RawRecord{v}, true, nil
	default:
		return nil, false, &ParseError{Err: eris.Errorf("expected JSON object or array, got %T", parsed)}
	}
}

// parseCSV reads a header-driven CSV file. The first pass counts data rows,
// the second materializes them as field maps. Content that is not valid
// UTF-8 is decoded as ISO-8859-1 before parsing; Nordic registry exports
// still ship in Latin-1.
func parseCSV(data []byte) ([]RawRecord, error) {
	if !utf8.Valid(data) {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err == nil {
			data = decoded
		}
	}

	total, err := countCSVRows(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return []RawRecord{}, nil
	}

	reader := newCSVReader(bytes.NewReader(data))
	header, err := reader.Read()
	if err != nil {
		return nil, &ParseError{Err: eris.Wrap(err, "read csv header")}
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	records := make([]RawRecord, 0, total)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // skip malformed rows
		}
		rec := make(RawRecord, len(header))
		for i, col := range header {
			if col == "" || i >= len(row) {
				continue
			}
			rec[col] = strings.TrimSpace(row[i])
		}
		records = append(records, rec)
	}

	return records, nil
}

// countCSVRows returns the number of data rows (excluding the header).
func countCSVRows(r io.Reader) (int, error) {
	reader := newCSVReader(r)
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return 0, nil // empty file: zero records, not an error
		}
		return 0, &ParseError{Err: eris.Wrap(err, "read csv header")}
	}

	count := 0
	for {
		_, err := reader.Read()
		if err == io.EOF {
			return count, nil
		}
		if err != nil {
			continue
		}
		count++
	}
}

func newCSVReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // allow variable fields
	return reader
}
