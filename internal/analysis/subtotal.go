package analysis

import (
	"math"
	"sort"
	"strings"

	"github.com/sells-group/format-analysis/internal/model"
	"github.com/sells-group/format-analysis/internal/report"
)

// Subtotal column names.
const (
	ColFileCount = "File Count"
	ColFilePct   = "File %"
	ColSizeMB    = "Size (MB)"
	ColSizePct   = "Size %"
	ColMedia     = "Media"
)

// Media subtotal count columns.
const (
	ColMediaHigh     = "NARA High Risk"
	ColMediaModerate = "NARA Moderate Risk"
	ColMediaLow      = "NARA Low Risk"
	ColMediaNoMatch  = "No NARA Match"
	ColMediaTA       = "Technical Appraisal_Format"
	ColMediaOther    = "Other Risk Indicator"
)

// totals are the whole-accession figures percentages are computed against.
type totals struct {
	count  int
	sizeKB float64
}

func totalsOf(rows []model.Row) totals {
	t := totals{count: len(rows)}
	for _, r := range rows {
		t.sizeKB += r.SizeKB
	}
	return t
}

type group struct {
	key    []string
	count  int
	sizeKB float64
}

// groupBy counts and sums rows per key, ordered by key.
func groupBy(rows []model.Row, key func(model.Row) []string) []*group {
	byKey := make(map[string]*group)
	for _, r := range rows {
		k := key(r)
		id := strings.Join(k, "\x00")
		g, ok := byKey[id]
		if !ok {
			g = &group{key: k}
			byKey[id] = g
		}
		g.count++
		g.sizeKB += r.SizeKB
	}

	groups := make([]*group, 0, len(byKey))
	for _, g := range byKey {
		groups = append(groups, g)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return lessKey(groups[i].key, groups[j].key)
	})
	return groups
}

func lessKey(a, b []string) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

func subtotal(name string, keyCols []string, rows []model.Row, all totals, key func(model.Row) []string) report.Sheet {
	cols := append(append([]string{}, keyCols...), ColFileCount, ColFilePct, ColSizeMB, ColSizePct)
	sheet := report.Sheet{Name: name, Columns: cols}
	for _, g := range groupBy(rows, key) {
		row := make([]any, 0, len(cols))
		for _, k := range g.key {
			row = append(row, k)
		}
		row = append(row,
			g.count,
			percent(float64(g.count), float64(all.count)),
			megabytes(g.sizeKB),
			percent(g.sizeKB, all.sizeKB),
		)
		sheet.Rows = append(sheet.Rows, row)
	}
	if len(sheet.Rows) == 0 {
		sheet.Rows = [][]any{report.NoDataRow()}
	}
	return sheet
}

// FormatSubtotal groups by format name and NARA risk level.
func FormatSubtotal(rows []model.Row) report.Sheet {
	return subtotal(SheetFormatSubtotal, []string{model.ColFormatName, model.ColNARARiskLevel}, rows, totalsOf(rows),
		func(r model.Row) []string { return []string{r.FormatName, r.NARARiskLevel} })
}

// NARARiskSubtotal groups by NARA risk level.
func NARARiskSubtotal(rows []model.Row) report.Sheet {
	return subtotal(SheetNARASubtotal, []string{model.ColNARARiskLevel}, rows, totalsOf(rows),
		func(r model.Row) []string { return []string{r.NARARiskLevel} })
}

// MatchTypeSubtotal groups by the strategy that produced each risk match.
func MatchTypeSubtotal(rows []model.Row) report.Sheet {
	return subtotal(SheetMatchTypeSubtotal, []string{model.ColNARAMatchType}, rows, totalsOf(rows),
		func(r model.Row) []string { return []string{r.NARAMatchType} })
}

// TechAppraisalSubtotal groups technical appraisal rows by category and format.
func TechAppraisalSubtotal(rows []model.Row) report.Sheet {
	return subtotal(SheetTASubtotal, []string{model.ColTechnicalAppraisal, model.ColFormatName}, filterRows(rows, isTechAppraisal), totalsOf(rows),
		func(r model.Row) []string { return []string{r.TechnicalAppraisal, r.FormatName} })
}

// OtherRiskSubtotal groups other-risk rows by criterion and format.
func OtherRiskSubtotal(rows []model.Row) report.Sheet {
	return subtotal(SheetOtherSubtotal, []string{model.ColOtherRisk, model.ColFormatName}, filterRows(rows, isOtherRisk), totalsOf(rows),
		func(r model.Row) []string { return []string{r.OtherRisk, r.FormatName} })
}

type mediaCounts struct {
	files    int
	sizeKB   float64
	high     int
	moderate int
	low      int
	noMatch  int
	ta       int
	other    int
}

// MediaSubtotal counts rows per media folder, the first folder below the
// accession root. Files directly in the root are grouped under the
// accession folder's own name.
func MediaSubtotal(rows []model.Row, accessionRoot string) report.Sheet {
	cols := []string{ColMedia, ColFileCount, ColSizeMB, ColMediaHigh, ColMediaModerate, ColMediaLow, ColMediaNoMatch, ColMediaTA, ColMediaOther}
	sheet := report.Sheet{Name: SheetMediaSubtotal, Columns: cols}

	rootSegs := model.SplitPath(accessionRoot)
	byMedia := make(map[string]*mediaCounts)
	var order []string
	for _, r := range rows {
		m := MediaFolder(r.FilePath, rootSegs)
		c, ok := byMedia[m]
		if !ok {
			c = &mediaCounts{}
			byMedia[m] = c
			order = append(order, m)
		}
		c.files++
		c.sizeKB += r.SizeKB
		switch r.NARARiskLevel {
		case model.HighRisk:
			c.high++
		case model.ModerateRisk:
			c.moderate++
		case model.LowRisk:
			c.low++
		case model.NoMatchRisk:
			c.noMatch++
		}
		if r.TechnicalAppraisal == model.TAFormat {
			c.ta++
		}
		if isOtherRisk(r) {
			c.other++
		}
	}

	sort.Strings(order)
	for _, m := range order {
		c := byMedia[m]
		sheet.Rows = append(sheet.Rows, []any{m, c.files, megabytes(c.sizeKB), c.high, c.moderate, c.low, c.noMatch, c.ta, c.other})
	}
	if len(sheet.Rows) == 0 {
		sheet.Rows = [][]any{report.NoDataRow()}
	}
	return sheet
}

// MediaFolder returns the first path segment below the accession root. When
// the path does not start with the root (for example a table hand-edited on
// another machine), the segment after the root folder's name is used.
func MediaFolder(p string, rootSegs []string) string {
	segs := model.SplitPath(p)
	if len(rootSegs) == 0 {
		if len(segs) > 1 {
			return segs[0]
		}
		return ""
	}
	rootName := rootSegs[len(rootSegs)-1]

	start := -1
	if hasPrefix(segs, rootSegs) {
		start = len(rootSegs)
	} else {
		for i := len(segs) - 2; i >= 0; i-- {
			if segs[i] == rootName {
				start = i + 1
				break
			}
		}
	}
	switch {
	case start < 0:
		return ""
	case start >= len(segs)-1:
		return rootName
	default:
		return segs[start]
	}
}

func hasPrefix(segs, prefix []string) bool {
	if len(segs) < len(prefix) {
		return false
	}
	for i := range prefix {
		if segs[i] != prefix[i] {
			return false
		}
	}
	return true
}

func filterRows(rows []model.Row, keep func(model.Row) bool) []model.Row {
	var out []model.Row
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func percent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return round(part/whole*100, 2)
}

func megabytes(kb float64) float64 {
	return round(kb/1000, 3)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
