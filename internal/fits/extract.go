package fits

import (
	"context"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/format-analysis/internal/fetcher"
	"github.com/sells-group/format-analysis/internal/model"
)

// DocumentSuffix is the file name suffix of FITS output documents.
const DocumentSuffix = ".fits.xml"

// formatEntry is one surviving identification for a file.
type formatEntry struct {
	name    string
	version string
	puid    string
	tools   string
}

// formatSet keeps identifications keyed by name+version in insertion order.
type formatSet struct {
	keys    []string
	entries map[string]formatEntry
	empty   bool
}

func newFormatSet() *formatSet {
	return &formatSet{entries: make(map[string]formatEntry)}
}

// add applies the simplification rules: an "empty" identification evicts
// everything else and blocks later additions, and a duplicate key only
// replaces the stored entry when that entry lacks a PUID the new one has.
func (s *formatSet) add(e formatEntry) {
	if s.empty {
		return
	}
	key := e.name + e.version
	if e.name == model.EmptyFormat {
		s.keys = []string{key}
		s.entries = map[string]formatEntry{key: e}
		s.empty = true
		return
	}
	if stored, ok := s.entries[key]; ok {
		if stored.puid == "" && e.puid != "" {
			s.entries[key] = e
		}
		return
	}
	s.keys = append(s.keys, key)
	s.entries[key] = e
}

func (s *formatSet) list() []formatEntry {
	out := make([]formatEntry, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, s.entries[k])
	}
	return out
}

// ParseDocument reads one FITS document and returns one row per surviving
// identification.
func ParseDocument(r io.Reader) ([]model.Row, error) {
	doc, err := fetcher.DecodeXML[document](r)
	if err != nil {
		return nil, eris.Wrap(err, "fits: parse document")
	}
	return doc.rows()
}

// OriginalPath returns the accession file path embedded in a FITS document.
// The whole document is read so a truncated one is reported as an error.
func OriginalPath(ctx context.Context, r io.Reader) (string, error) {
	infoCh, errCh := fetcher.StreamXML[fileInfo](ctx, r, "fits", "fileinfo")
	var p string
	for info := range infoCh {
		if p == "" {
			p = joinLeaves(info.FilePath)
		}
	}
	for err := range errCh {
		if err != nil {
			return "", eris.Wrap(err, "fits: parse document")
		}
	}
	if p == "" {
		return "", eris.New("fits: document has no filepath")
	}
	return p, nil
}

func (doc document) rows() ([]model.Row, error) {
	set := newFormatSet()
	for _, id := range doc.Identities {
		if strings.TrimSpace(id.Format) == "" {
			continue
		}
		set.add(formatEntry{
			name:    strings.TrimSpace(id.Format),
			version: id.version(),
			puid:    id.puid(),
			tools:   id.tools(),
		})
	}

	base := model.Row{
		FilePath:            joinLeaves(doc.FileInfo.FilePath),
		MD5:                 joinLeaves(doc.FileInfo.MD5),
		CreatingApplication: joinLeaves(doc.FileInfo.CreatingApplication),
		Valid:               joinLeaves(doc.FileStatus.Valid),
		WellFormed:          joinLeaves(doc.FileStatus.WellFormed),
		StatusMessage:       joinLeaves(doc.FileStatus.Message),
		DateModified:        formatDate(joinLeaves(doc.FileInfo.LastModified)),
	}
	if base.FilePath == "" {
		return nil, eris.New("fits: document has no filepath")
	}

	size, err := sizeKB(joinLeaves(doc.FileInfo.Size))
	if err != nil {
		return nil, eris.Wrapf(err, "fits: size for %s", base.FilePath)
	}
	base.SizeKB = size

	entries := set.list()
	base.MultipleIDs = len(entries) > 1

	rows := make([]model.Row, 0, len(entries))
	for _, e := range entries {
		row := base
		row.FormatName = e.name
		row.FormatVersion = e.version
		row.PUID = e.puid
		row.IdentifyingTools = e.tools
		rows = append(rows, row)
	}
	return rows, nil
}

func pronomURL(puid string) string {
	if strings.HasPrefix(puid, "http") {
		return puid
	}
	return model.PronomURLPrefix + puid
}

// formatDate converts a FITS fslastmodified value (epoch milliseconds) to
// YYYY-MM-DD using its first ten digits as epoch seconds. Dates are UTC.
func formatDate(epoch string) string {
	if len(epoch) > 10 {
		epoch = epoch[:10]
	}
	secs, err := strconv.ParseInt(epoch, 10, 64)
	if err != nil {
		return ""
	}
	return time.Unix(secs, 0).UTC().Format(time.DateOnly)
}

// sizeKB converts a size in bytes to kilobytes, rounding to three decimals
// only when the result exceeds 0.001.
func sizeKB(bytes string) (float64, error) {
	if bytes == "" {
		return 0, nil
	}
	if i := strings.Index(bytes, ";"); i >= 0 {
		bytes = strings.TrimSpace(bytes[:i])
	}
	n, err := strconv.ParseFloat(bytes, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "fits: parse size %q", bytes)
	}
	kb := n / 1000
	if kb > 0.001 {
		kb = math.Round(kb*1000) / 1000
	}
	return kb, nil
}

// ListDocuments returns the FITS documents in cacheDir in lexical order.
func ListDocuments(cacheDir string) ([]string, error) {
	entries, err := os.ReadDir(cacheDir)
	if err != nil {
		return nil, eris.Wrapf(err, "fits: read cache %s", cacheDir)
	}
	var docs []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".xml") {
			continue
		}
		docs = append(docs, filepath.Join(cacheDir, e.Name()))
	}
	sort.Strings(docs)
	return docs, nil
}

// LoadCache flattens every document in cacheDir into rows. Malformed
// documents are logged and skipped.
func LoadCache(ctx context.Context, cacheDir string) ([]model.Row, error) {
	docs, err := ListDocuments(cacheDir)
	if err != nil {
		return nil, err
	}

	var rows []model.Row
	skipped := 0
	for _, path := range docs {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "fits: load cache cancelled")
		}
		docRows, err := parseFile(path)
		if err != nil {
			skipped++
			zap.L().Warn("fits: skipping malformed document",
				zap.String("document", path),
				zap.Error(err),
			)
			continue
		}
		rows = append(rows, docRows...)
	}

	zap.L().Info("fits: cache loaded",
		zap.Int("documents", len(docs)),
		zap.Int("skipped", skipped),
		zap.Int("rows", len(rows)),
	)
	return rows, nil
}

func parseFile(path string) ([]model.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fits: open %s", path)
	}
	defer f.Close() //nolint:errcheck
	return ParseDocument(f)
}
