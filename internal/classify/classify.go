// Package classify assigns technical appraisal and other-risk categories to
// risk-matched rows.
package classify

import (
	"strings"

	"github.com/sells-group/format-analysis/internal/model"
)

// retainPlan is the only NARA plan that does not flag a low risk format.
const retainPlan = "Retain"

// TechnicalAppraisal returns the technical appraisal category for a row.
// Later rules override earlier ones: Format, then Temp File, then Trash.
func TechnicalAppraisal(r model.Row, formats model.TechAppraisalFormats) string {
	category := model.NotForTA
	if formats.Contains(r.FormatName) {
		category = model.TAFormat
	}
	if IsTempFile(r.Name()) {
		category = model.TATempFile
	}
	if InTrash(r.FilePath) {
		category = model.TATrash
	}
	return category
}

// IsTempFile reports whether a file name looks like a temporary or system
// file. Thumbs.db is only recognized in its two common spellings.
func IsTempFile(name string) bool {
	switch {
	case strings.HasPrefix(name, "."), strings.HasPrefix(name, "~"):
		return true
	case strings.HasSuffix(name, ".tmp"), strings.HasSuffix(name, ".TMP"):
		return true
	case name == "Thumbs.db", name == "thumbs.db":
		return true
	}
	return false
}

// InTrash reports whether any directory segment of the path is named trash
// or trashes, ignoring case. The file name itself is not a directory and
// does not count.
func InTrash(p string) bool {
	segments := model.SplitPath(p)
	if len(segments) == 0 {
		return false
	}
	for _, seg := range segments[:len(segments)-1] {
		switch strings.ToLower(seg) {
		case "trash", "trashes":
			return true
		}
	}
	return false
}

// OtherRisk returns the other-risk category for a risk-matched row.
func OtherRisk(r model.Row, formats model.OtherRiskFormats) string {
	if criterion := formats[r.FormatName]; criterion != "" {
		return criterion
	}
	if r.NARARiskLevel == model.LowRisk && r.NARAProposedPlan != retainPlan {
		return model.OtherRiskNARA
	}
	return model.NotForOther
}

// Apply returns a copy of rows with both classifications filled in.
func Apply(rows []model.Row, ta model.TechAppraisalFormats, other model.OtherRiskFormats) []model.Row {
	out := make([]model.Row, len(rows))
	for i, r := range rows {
		r.TechnicalAppraisal = TechnicalAppraisal(r, ta)
		r.OtherRisk = OtherRisk(r, other)
		out[i] = r
	}
	return out
}
