package fetcher

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Table is a header plus string rows read from a CSV or XLSX source.
type Table struct {
	Header []string
	Rows   [][]string
	// Lossy is set when the source held byte sequences that are not valid
	// UTF-8 and were replaced during decoding.
	Lossy bool
}

// Index returns the position of the named column, or -1. Matching ignores
// surrounding whitespace.
func (t *Table) Index(name string) int {
	for i, h := range t.Header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

// Value returns the cell in row at the named column, or "" when absent.
func (t *Table) Value(row []string, name string) string {
	i := t.Index(name)
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// ReadTable reads a CSV or XLSX file (chosen by extension) whose first row
// is the header.
func ReadTable(ctx context.Context, path string) (*Table, error) {
	var rows [][]string
	var lossy bool
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err = ReadXLSX(path, XLSXOptions{})
	default:
		rows, lossy, err = readCSVFile(ctx, path)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, eris.Errorf("table: %s has no header row", path)
	}
	return &Table{Header: rows[0], Rows: rows[1:], Lossy: lossy}, nil
}

func readCSVFile(ctx context.Context, path string) ([][]string, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, eris.Wrapf(err, "table: read %s", path)
	}

	decoded, lossy, err := DecodeUTF8(data)
	if err != nil {
		return nil, false, eris.Wrapf(err, "table: decode %s", path)
	}
	if lossy {
		zap.L().Warn("table: non UTF-8 characters replaced while reading",
			zap.String("path", path),
		)
	}

	recs, err := ReadCSV(ctx, bytes.NewReader(decoded), CSVOptions{LazyQuotes: true, SkipBlank: true})
	if err != nil {
		return nil, lossy, eris.Wrapf(err, "table: parse %s", path)
	}
	rows := make([][]string, len(recs))
	for i, rec := range recs {
		rows[i] = rec.Fields
	}
	return rows, lossy, nil
}

// DecodeUTF8 strips a byte order mark and decodes data as UTF-8. When data
// holds invalid sequences it is decoded again with replacement and lossy is
// reported.
func DecodeUTF8(data []byte) (out []byte, lossy bool, err error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	body := bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	lossy = !utf8.Valid(body)

	out, _, err = transform.Bytes(dec, data)
	if err != nil {
		return nil, lossy, eris.Wrap(err, "decode: utf-8")
	}
	return out, lossy, nil
}
