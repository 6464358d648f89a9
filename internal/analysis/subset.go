// Package analysis partitions the enriched table into the subset and
// subtotal views of the format analysis report.
package analysis

import (
	"github.com/sells-group/format-analysis/internal/model"
	"github.com/sells-group/format-analysis/internal/report"
)

// Sheet names.
const (
	SheetFormatSubtotal    = "Format Subtotal"
	SheetNARASubtotal      = "NARA Risk Subtotal"
	SheetTASubtotal        = "Tech Appraisal Subtotal"
	SheetOtherSubtotal     = "Other Risk Subtotal"
	SheetMediaSubtotal     = "Media Subtotal"
	SheetMatchTypeSubtotal = "Match Type Subtotal"
	SheetNARARisk          = "NARA Risk"
	SheetTechAppraisal     = "For Technical Appraisal"
	SheetOtherRisks        = "Other Risks"
	SheetMultipleFormats   = "Multiple Formats"
	SheetDuplicates        = "Duplicates"
	SheetValidation        = "Validation"
)

// subsetRule is a row filter plus the columns removed from the view.
type subsetRule struct {
	name string
	keep func(r model.Row) bool
	drop []string
}

// NARARisk keeps rows that are not low risk, including unmatched rows.
func NARARisk(rows []model.Row) report.Sheet {
	return subset(rows, subsetRule{
		name: SheetNARARisk,
		keep: func(r model.Row) bool { return r.NARARiskLevel != model.LowRisk },
		drop: []string{
			model.ColFormatName, model.ColFormatVersion, model.ColPUID, model.ColIdentifyingTools,
			model.ColCreatingApplication, model.ColValid, model.ColWellFormed, model.ColStatusMessage,
		},
	})
}

// MultipleFormats keeps rows whose file path appears more than once.
func MultipleFormats(rows []model.Row) report.Sheet {
	counts := model.CountPaths(rows)
	return subset(rows, subsetRule{
		name: SheetMultipleFormats,
		keep: func(r model.Row) bool { return counts[r.FilePath] > 1 },
		drop: []string{model.ColValid, model.ColWellFormed, model.ColStatusMessage},
	})
}

// Validation keeps rows that are invalid, not well-formed, or carry a
// status message.
func Validation(rows []model.Row) report.Sheet {
	return subset(rows, subsetRule{
		name: SheetValidation,
		keep: model.Row.IsInvalid,
	})
}

// TechAppraisal keeps rows in any technical appraisal category.
func TechAppraisal(rows []model.Row) report.Sheet {
	return subset(rows, subsetRule{
		name: SheetTechAppraisal,
		keep: isTechAppraisal,
		drop: []string{
			model.ColPUID, model.ColDateModified, model.ColMD5,
			model.ColValid, model.ColWellFormed, model.ColStatusMessage,
		},
	})
}

// OtherRisks keeps rows flagged with an other-risk category.
func OtherRisks(rows []model.Row) report.Sheet {
	return subset(rows, subsetRule{
		name: SheetOtherRisks,
		keep: isOtherRisk,
		drop: []string{
			model.ColPUID, model.ColDateModified, model.ColMD5, model.ColCreatingApplication,
			model.ColValid, model.ColWellFormed, model.ColStatusMessage,
		},
	})
}

// Duplicates keeps files that share an MD5 with a different file. Paths
// that appear more than once (multiple identifications or registry ties)
// are removed before the MD5 test.
func Duplicates(rows []model.Row) report.Sheet {
	counts := model.CountPaths(rows)
	var single []model.Row
	for _, r := range rows {
		if counts[r.FilePath] == 1 {
			single = append(single, r)
		}
	}

	md5s := make(map[string]int)
	for _, r := range single {
		if r.MD5 != "" {
			md5s[r.MD5]++
		}
	}

	cols := []string{model.ColFilePath, model.ColSizeKB, model.ColMD5}
	sheet := report.Sheet{Name: SheetDuplicates, Columns: cols}
	for _, r := range single {
		if r.MD5 != "" && md5s[r.MD5] > 1 {
			sheet.Rows = append(sheet.Rows, values(r, cols))
		}
	}
	if len(sheet.Rows) == 0 {
		sheet.Rows = [][]any{report.NoDataRow()}
	}
	return sheet
}

func isTechAppraisal(r model.Row) bool { return r.TechnicalAppraisal != model.NotForTA }

func isOtherRisk(r model.Row) bool { return r.OtherRisk != model.NotForOther }

func subset(rows []model.Row, rule subsetRule) report.Sheet {
	cols := without(model.RiskColumns, rule.drop)
	sheet := report.Sheet{Name: rule.name, Columns: cols}
	for _, r := range rows {
		if rule.keep(r) {
			sheet.Rows = append(sheet.Rows, values(r, cols))
		}
	}
	if len(sheet.Rows) == 0 {
		sheet.Rows = [][]any{report.NoDataRow()}
	}
	return sheet
}

func without(cols, drop []string) []string {
	skip := make(map[string]bool, len(drop))
	for _, d := range drop {
		skip[d] = true
	}
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		if !skip[c] {
			out = append(out, c)
		}
	}
	return out
}

// values returns typed cell values: numbers and booleans stay typed so the
// workbook can sort and sum them.
func values(r model.Row, cols []string) []any {
	out := make([]any, len(cols))
	for i, c := range cols {
		switch c {
		case model.ColSizeKB:
			out[i] = r.SizeKB
		case model.ColMultipleIDs:
			out[i] = r.MultipleIDs
		default:
			out[i] = r.Field(c)
		}
	}
	return out
}
