package analysis

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/format-analysis/internal/model"
	"github.com/sells-group/format-analysis/internal/report"
)

const root = "/archive/acc"

func enrichedRows() []model.Row {
	return []model.Row{
		{FilePath: root + "/disk1/a.pdf", FormatName: "PDF", FormatVersion: "1.4", SizeKB: 100, MD5: "m1",
			NARARiskLevel: model.LowRisk, NARAProposedPlan: "Retain", NARAMatchType: "PRONOM and Version",
			TechnicalAppraisal: model.NotForTA, OtherRisk: model.NotForOther, Valid: "true", WellFormed: "true"},
		{FilePath: root + "/disk1/b.pdf", FormatName: "PDF", FormatVersion: "1.4", SizeKB: 100, MD5: "m1",
			NARARiskLevel: model.LowRisk, NARAProposedPlan: "Retain", NARAMatchType: "PRONOM and Version",
			TechnicalAppraisal: model.NotForTA, OtherRisk: model.NotForOther, Valid: "false"},
		{FilePath: root + "/disk2/c.xml", FormatName: "XML", MultipleIDs: true, SizeKB: 50, MD5: "m2",
			NARARiskLevel: model.LowRisk, NARAProposedPlan: "Retain", NARAMatchType: "Format Name",
			TechnicalAppraisal: model.NotForTA, OtherRisk: model.NotForOther},
		{FilePath: root + "/disk2/c.xml", FormatName: "Plain text", MultipleIDs: true, SizeKB: 50, MD5: "m2",
			NARARiskLevel: model.NoMatchRisk, NARAMatchType: model.NoMatchType,
			TechnicalAppraisal: model.NotForTA, OtherRisk: model.NotForOther},
		{FilePath: root + "/disk2/copy.xml", FormatName: "XML", SizeKB: 50, MD5: "m2",
			NARARiskLevel: model.ModerateRisk, NARAProposedPlan: "Transform", NARAMatchType: "Format Name",
			TechnicalAppraisal: model.NotForTA, OtherRisk: "Layered", StatusMessage: "bad"},
		{FilePath: root + "/disk2/Trash/run.bat", FormatName: "DOS batch file", SizeKB: 1, MD5: "m3",
			NARARiskLevel: model.HighRisk, NARAProposedPlan: "Transform", NARAMatchType: "File Extension",
			TechnicalAppraisal: model.TATrash, OtherRisk: model.NotForOther},
		{FilePath: root + "/readme.txt", FormatName: "Plain text", SizeKB: 99, MD5: "m4",
			NARARiskLevel: model.LowRisk, NARAProposedPlan: "Retain but check encoding", NARAMatchType: "File Extension",
			TechnicalAppraisal: model.TAFormat, OtherRisk: model.OtherRiskNARA},
	}
}

// column returns the values of the named column, or nil for an empty view.
func column(t *testing.T, s report.Sheet, name string) []any {
	t.Helper()
	idx := slices.Index(s.Columns, name)
	require.GreaterOrEqual(t, idx, 0, "missing column %q", name)
	if s.Empty() {
		return nil
	}
	out := make([]any, 0, len(s.Rows))
	for _, row := range s.Rows {
		out = append(out, row[idx])
	}
	return out
}

func TestDuplicates_ExcludesMultipleIdentifications(t *testing.T) {
	s := Duplicates(enrichedRows())
	assert.Equal(t, []string{model.ColFilePath, model.ColSizeKB, model.ColMD5}, s.Columns)
	assert.Equal(t, []any{root + "/disk1/a.pdf", root + "/disk1/b.pdf"}, column(t, s, model.ColFilePath))
}

func TestDuplicates_NoData(t *testing.T) {
	s := Duplicates(enrichedRows()[:1])
	assert.True(t, s.Empty())
	assert.Equal(t, [][]any{{model.NoData}}, s.Rows)
}

func TestNARARisk(t *testing.T) {
	s := NARARisk(enrichedRows())
	assert.NotContains(t, s.Columns, model.ColFormatName)
	assert.NotContains(t, s.Columns, model.ColStatusMessage)
	assert.Contains(t, s.Columns, model.ColNARAFormatName)
	assert.Equal(t, []any{model.NoMatchRisk, model.ModerateRisk, model.HighRisk}, column(t, s, model.ColNARARiskLevel))
}

func TestPartitionUnion(t *testing.T) {
	rows := enrichedRows()
	risky := NARARisk(rows).Rows
	low := 0
	noMatch := 0
	for _, r := range rows {
		switch r.NARARiskLevel {
		case model.LowRisk:
			low++
		case model.NoMatchRisk:
			noMatch++
		}
	}
	assert.Equal(t, len(rows), len(risky)+low)
	assert.Equal(t, 1, noMatch)
}

func TestMultipleFormats(t *testing.T) {
	s := MultipleFormats(enrichedRows())
	assert.Equal(t, []any{root + "/disk2/c.xml", root + "/disk2/c.xml"}, column(t, s, model.ColFilePath))
	assert.NotContains(t, s.Columns, model.ColValid)
}

func TestValidation(t *testing.T) {
	s := Validation(enrichedRows())
	assert.Equal(t, model.RiskColumns, s.Columns)
	assert.Equal(t, []any{root + "/disk1/b.pdf", root + "/disk2/copy.xml"}, column(t, s, model.ColFilePath))
}

func TestTechAppraisalAndOtherRisks(t *testing.T) {
	ta := TechAppraisal(enrichedRows())
	assert.Equal(t, []any{model.TATrash, model.TAFormat}, column(t, ta, model.ColTechnicalAppraisal))
	assert.NotContains(t, ta.Columns, model.ColMD5)

	other := OtherRisks(enrichedRows())
	assert.Equal(t, []any{"Layered", model.OtherRiskNARA}, column(t, other, model.ColOtherRisk))
	assert.NotContains(t, other.Columns, model.ColCreatingApplication)
}

func sumInts(vals []any) int {
	n := 0
	for _, v := range vals {
		n += v.(int)
	}
	return n
}

func TestSubtotals_FileCountSums(t *testing.T) {
	rows := enrichedRows()
	assert.Equal(t, len(rows), sumInts(column(t, FormatSubtotal(rows), ColFileCount)))
	assert.Equal(t, len(rows), sumInts(column(t, NARARiskSubtotal(rows), ColFileCount)))
	assert.Equal(t, len(rows), sumInts(column(t, MatchTypeSubtotal(rows), ColFileCount)))
	assert.Equal(t, len(rows), sumInts(column(t, MediaSubtotal(rows, root), ColFileCount)))
	assert.Equal(t, 2, sumInts(column(t, TechAppraisalSubtotal(rows), ColFileCount)))
	assert.Equal(t, 2, sumInts(column(t, OtherRiskSubtotal(rows), ColFileCount)))
}

func TestNARARiskSubtotal_Values(t *testing.T) {
	s := NARARiskSubtotal(enrichedRows())
	require.Equal(t, []string{model.ColNARARiskLevel, ColFileCount, ColFilePct, ColSizeMB, ColSizePct}, s.Columns)
	require.Len(t, s.Rows, 4)

	// Sorted by key: High, Low, Moderate, No Match.
	assert.Equal(t, []any{model.HighRisk, 1, 14.29, 0.001, 0.22}, s.Rows[0])
	assert.Equal(t, []any{model.LowRisk, 4, 57.14, 0.349, 77.56}, s.Rows[1])
}

func TestFormatSubtotal_Keys(t *testing.T) {
	s := FormatSubtotal(enrichedRows())
	assert.Equal(t, []any{"DOS batch file", model.HighRisk}, s.Rows[0][:2])
	assert.Len(t, s.Rows, 6)
}

func TestSubtotal_NoData(t *testing.T) {
	rows := enrichedRows()[:1]
	s := TechAppraisalSubtotal(rows)
	assert.Equal(t, [][]any{{model.NoData}}, s.Rows)
	assert.True(t, OtherRiskSubtotal(rows).Empty())
	assert.True(t, NARARiskSubtotal(nil).Empty())
}

func TestMediaSubtotal(t *testing.T) {
	s := MediaSubtotal(enrichedRows(), root)
	require.Len(t, s.Rows, 3)
	assert.Equal(t, []any{"acc", 1, 0.099, 0, 0, 1, 0, 1, 1}, s.Rows[0])
	assert.Equal(t, []any{"disk1", 2, 0.2, 0, 0, 2, 0, 0, 0}, s.Rows[1])
	assert.Equal(t, []any{"disk2", 4, 0.151, 1, 1, 1, 1, 0, 1}, s.Rows[2])
}

func TestMediaFolder(t *testing.T) {
	rootSegs := []string{"C:", "acc"}
	assert.Equal(t, "CD1", MediaFolder(`C:\acc\CD1\a\b.txt`, rootSegs))
	assert.Equal(t, "acc", MediaFolder(`C:\acc\b.txt`, rootSegs))
	assert.Equal(t, "CD2", MediaFolder(`/mnt/old/acc/CD2/x`, rootSegs))
	assert.Equal(t, "", MediaFolder(`/elsewhere/x`, rootSegs))
}

func TestBuild_Order(t *testing.T) {
	sheets := Build(enrichedRows(), root)
	names := make([]string, 0, len(sheets))
	for _, s := range sheets {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{
		SheetFormatSubtotal, SheetNARASubtotal, SheetTASubtotal, SheetOtherSubtotal, SheetMediaSubtotal,
		SheetMatchTypeSubtotal, SheetNARARisk, SheetTechAppraisal, SheetOtherRisks, SheetMultipleFormats,
		SheetDuplicates, SheetValidation,
	}, names)
}
