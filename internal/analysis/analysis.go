package analysis

import (
	"github.com/sells-group/format-analysis/internal/model"
	"github.com/sells-group/format-analysis/internal/report"
)

// Build returns every report view in workbook order: subtotals first, then
// subsets.
func Build(rows []model.Row, accessionRoot string) []report.Sheet {
	return []report.Sheet{
		FormatSubtotal(rows),
		NARARiskSubtotal(rows),
		TechAppraisalSubtotal(rows),
		OtherRiskSubtotal(rows),
		MediaSubtotal(rows, accessionRoot),
		MatchTypeSubtotal(rows),
		NARARisk(rows),
		TechAppraisal(rows),
		OtherRisks(rows),
		MultipleFormats(rows),
		Duplicates(rows),
		Validation(rows),
	}
}
