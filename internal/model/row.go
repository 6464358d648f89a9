// Package model defines the row and reference types shared by the format-analysis pipeline.
package model

import "strings"

// Sentinel values that downstream tooling matches on exactly.
const (
	EmptyFormat        = "empty"
	NoMatchRisk        = "No Match"
	NoMatchType        = "No NARA Match"
	NotForTA           = "Not for TA"
	NotForOther        = "Not for Other"
	NoData             = "No data of this type"
	PronomURLPrefix    = "https://www.nationalarchives.gov.uk/pronom/"
	UnspecifiedVersion = " unspecified version"
)

// NARA risk levels.
const (
	LowRisk      = "Low Risk"
	ModerateRisk = "Moderate Risk"
	HighRisk     = "High Risk"
)

// Technical appraisal categories.
const (
	TAFormat   = "Format"
	TATempFile = "Temp File"
	TATrash    = "Trash"
)

// OtherRiskNARA flags low risk formats whose plan is not a plain retain.
const OtherRiskNARA = "NARA"

// Row is one candidate identification for one file. A file with several
// surviving identifications contributes several rows, and risk matching may
// fan a row out further when registry entries tie.
type Row struct {
	FilePath            string
	FormatName          string
	FormatVersion       string
	PUID                string
	IdentifyingTools    string
	MultipleIDs         bool
	DateModified        string
	SizeKB              float64
	MD5                 string
	CreatingApplication string
	Valid               string
	WellFormed          string
	StatusMessage       string

	NARAFormatName   string
	NARARiskLevel    string
	NARAProposedPlan string
	NARAMatchType    string

	TechnicalAppraisal string
	OtherRisk          string
}

// Name returns the final element of the file path.
func (r Row) Name() string {
	return BaseName(r.FilePath)
}

// Extension returns the text after the final period of the file name, or ""
// when the name has no period.
func (r Row) Extension() string {
	name := r.Name()
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return ""
	}
	return name[i+1:]
}

// BaseName returns the last path element of p. Both separators are honoured
// because characterization output may come from Windows hosts.
func BaseName(p string) string {
	p = strings.TrimRight(p, `/\`)
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return p[i+1:]
	}
	return p
}

// SplitPath splits p into its non-empty segments using either separator.
func SplitPath(p string) []string {
	return strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '\\' })
}

// IsInvalid reports whether the characterization flagged the file as
// invalid, not well-formed, or attached a status message.
func (r Row) IsInvalid() bool {
	return strings.EqualFold(r.Valid, "false") ||
		strings.EqualFold(r.WellFormed, "false") ||
		r.StatusMessage != ""
}

// CountPaths returns how many rows share each file path.
func CountPaths(rows []Row) map[string]int {
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.FilePath]++
	}
	return counts
}
