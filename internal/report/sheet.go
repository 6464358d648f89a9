// Package report renders analysis views as an XLSX workbook and as a
// console summary.
package report

import "github.com/sells-group/format-analysis/internal/model"

// Sheet is one named view: a header plus typed cell values. Cells hold
// string, int, float64, or bool.
type Sheet struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// NoDataRow is the placeholder row written when a view is empty.
func NoDataRow() []any {
	return []any{model.NoData}
}

// Empty reports whether the sheet holds only the no-data placeholder.
func (s Sheet) Empty() bool {
	return len(s.Rows) == 0 || (len(s.Rows) == 1 && len(s.Rows[0]) == 1 && s.Rows[0][0] == model.NoData)
}
