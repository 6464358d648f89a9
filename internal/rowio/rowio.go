// Package rowio persists identification rows as CSV tables: the flattened
// characterization table and the hand-editable risk table.
package rowio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/sells-group/format-analysis/internal/fetcher"
	"github.com/sells-group/format-analysis/internal/model"
)

// Encoding is the character encoding of the CSV artifacts. A nil Encoding
// means UTF-8.
type Encoding struct {
	name string
	enc  encoding.Encoding
}

// LookupEncoding resolves a WHATWG encoding label such as "utf-8" or
// "windows-1252".
func LookupEncoding(label string) (Encoding, error) {
	if label == "" {
		return Encoding{name: "utf-8"}, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return Encoding{}, eris.Wrapf(err, "rowio: unknown encoding %q", label)
	}
	name, _ := htmlindex.Name(enc)
	if enc == unicode.UTF8 {
		return Encoding{name: name}, nil
	}
	return Encoding{name: name, enc: enc}, nil
}

// Name returns the canonical encoding name.
func (e Encoding) Name() string {
	if e.name == "" {
		return "utf-8"
	}
	return e.name
}

// representable reports whether every field can be written in e.
func (e Encoding) representable(fields []string) bool {
	for _, f := range fields {
		if e.enc == nil {
			if !utf8.ValidString(f) {
				return false
			}
			continue
		}
		if _, err := e.enc.NewEncoder().String(f); err != nil {
			return false
		}
	}
	return true
}

// WriteRows writes rows with the given columns to path. Files with a row
// that cannot be represented in the encoding are left out and their paths
// returned.
func WriteRows(path string, cols []string, rows []model.Row, enc Encoding) ([]string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(cols); err != nil {
		return nil, eris.Wrap(err, "rowio: write header")
	}

	// A file is left out whole when any of its rows cannot be encoded.
	var suppressed []string
	bad := make(map[string]bool)
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = r.Record(cols)
		if !bad[r.FilePath] && !enc.representable(records[i]) {
			bad[r.FilePath] = true
			suppressed = append(suppressed, r.FilePath)
		}
	}
	for i, r := range rows {
		if bad[r.FilePath] {
			continue
		}
		if err := w.Write(records[i]); err != nil {
			return nil, eris.Wrapf(err, "rowio: write row %s", r.FilePath)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, eris.Wrap(err, "rowio: flush")
	}

	data := buf.Bytes()
	if enc.enc != nil {
		encoded, _, err := transform.Bytes(enc.enc.NewEncoder(), data)
		if err != nil {
			return nil, eris.Wrapf(err, "rowio: encode %s", enc.Name())
		}
		data = encoded
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, eris.Wrapf(err, "rowio: write %s", path)
	}

	if len(suppressed) > 0 {
		zap.L().Warn("rowio: rows left out because they cannot be encoded",
			zap.String("table", path),
			zap.String("encoding", enc.Name()),
			zap.Int("rows", len(suppressed)),
		)
	}
	return suppressed, nil
}

// ReadRows reads a table written by WriteRows, possibly hand-edited since.
// Columns are matched by name; unknown columns are ignored.
func ReadRows(ctx context.Context, path string, enc Encoding) ([]model.Row, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "rowio: read %s", path)
	}

	var data []byte
	if enc.enc != nil {
		data, _, err = transform.Bytes(enc.enc.NewDecoder(), raw)
	} else {
		var lossy bool
		data, lossy, err = fetcher.DecodeUTF8(raw)
		if lossy {
			zap.L().Warn("rowio: non UTF-8 characters replaced while reading", zap.String("path", path))
		}
	}
	if err != nil {
		return nil, eris.Wrapf(err, "rowio: decode %s", path)
	}

	records, err := fetcher.ReadCSV(ctx, bytes.NewReader(data), fetcher.CSVOptions{LazyQuotes: true, SkipBlank: true})
	if err != nil {
		return nil, eris.Wrapf(err, "rowio: parse %s", path)
	}
	if len(records) == 0 {
		return nil, eris.Errorf("rowio: %s has no header row", path)
	}

	header := records[0].Fields
	if !contains(header, model.ColFilePath) {
		return nil, eris.Errorf("rowio: %s has no %s column", path, model.ColFilePath)
	}

	rows := make([]model.Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		var r model.Row
		for j, col := range header {
			if j >= len(rec.Fields) {
				break
			}
			if err := r.SetField(strings.TrimSpace(col), rec.Fields[j]); err != nil {
				return nil, eris.Wrapf(err, "rowio: %s line %d", path, rec.Line)
			}
		}
		rows = append(rows, r)
	}
	return rows, nil
}

// AppendSideLog merges paths into the side-log at logPath, one path per
// line, deduplicated and sorted. Nothing is written when there is nothing
// to record.
func AppendSideLog(logPath string, paths []string) error {
	seen := make(map[string]bool)

	existing, err := os.Open(logPath)
	switch {
	case err == nil:
		sc := bufio.NewScanner(existing)
		for sc.Scan() {
			if line := sc.Text(); line != "" {
				seen[line] = true
			}
		}
		scanErr := sc.Err()
		existing.Close() //nolint:errcheck
		if scanErr != nil {
			return eris.Wrapf(scanErr, "rowio: read %s", logPath)
		}
	case !os.IsNotExist(err):
		return eris.Wrapf(err, "rowio: open %s", logPath)
	}

	for _, p := range paths {
		seen[p] = true
	}
	if len(seen) == 0 {
		return nil
	}

	lines := make([]string, 0, len(seen))
	for p := range seen {
		lines = append(lines, p)
	}
	sort.Strings(lines)

	// The side-log is always UTF-8.
	for i, l := range lines {
		lines[i] = strings.ToValidUTF8(l, "�")
	}
	if err := os.WriteFile(logPath, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		return eris.Wrapf(err, "rowio: write %s", logPath)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if strings.TrimSpace(v) == s {
			return true
		}
	}
	return false
}
