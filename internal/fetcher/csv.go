// Package fetcher reads tabular and XML sources: CSV and XLSX reference
// tables and characterization documents.
package fetcher

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// CSVOptions configures the CSV reader.
type CSVOptions struct {
	Delimiter  rune // default ','
	LazyQuotes bool
	TrimSpace  bool
	// SkipBlank drops records whose fields are all empty, as spreadsheet
	// editors leave behind when rows are cleared.
	SkipBlank bool
}

// Record is one parsed CSV record and the line it starts on.
type Record struct {
	Line   int
	Fields []string
}

// StreamCSV parses r and sends records on the returned channel. The error
// channel receives at most one error. Both are closed when parsing ends.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan Record, <-chan error) {
	recCh := make(chan Record, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(recCh)
		defer close(errCh)

		reader := csv.NewReader(r)
		if opts.Delimiter != 0 {
			reader.Comma = opts.Delimiter
		}
		reader.LazyQuotes = opts.LazyQuotes
		reader.FieldsPerRecord = -1

		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}

			fields, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "csv: read record")
				return
			}
			line, _ := reader.FieldPos(0)

			if opts.TrimSpace {
				for i, f := range fields {
					fields[i] = strings.TrimSpace(f)
				}
			}
			if opts.SkipBlank && blank(fields) {
				continue
			}

			select {
			case recCh <- Record{Line: line, Fields: fields}:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return recCh, errCh
}

// ReadCSV drains StreamCSV into memory.
func ReadCSV(ctx context.Context, r io.Reader, opts CSVOptions) ([]Record, error) {
	recCh, errCh := StreamCSV(ctx, r, opts)
	var recs []Record
	for rec := range recCh {
		recs = append(recs, rec)
	}
	if err := <-errCh; err != nil {
		return recs, err
	}
	return recs, nil
}

func blank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
