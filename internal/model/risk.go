package model

import "strings"

// RiskEntry is one row of the NARA risk registry.
type RiskEntry struct {
	FormatName     string
	FileExtensions string // pipe-delimited
	PronomURL      string
	RiskLevel      string
	ProposedPlan   string
}

// VersionToken returns the last whitespace-delimited word of the format name.
func (e RiskEntry) VersionToken() string {
	fields := strings.Fields(e.FormatName)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// Extensions returns the entry's extensions lowercased and without a leading period.
func (e RiskEntry) Extensions() []string {
	var out []string
	for _, ext := range strings.Split(e.FileExtensions, "|") {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			out = append(out, ext)
		}
	}
	return out
}

// IsUnspecifiedVersion reports whether a registry format name is the
// catch-all for a format family, e.g. "Adobe Photoshop unspecified version".
func IsUnspecifiedVersion(name string) bool {
	return strings.HasSuffix(name, UnspecifiedVersion)
}

// FormatFamily strips the version part of a registry format name: the
// " unspecified version" suffix when present, otherwise the trailing word.
func FormatFamily(name string) string {
	if IsUnspecifiedVersion(name) {
		return strings.TrimSuffix(name, UnspecifiedVersion)
	}
	name = strings.TrimSpace(name)
	if i := strings.LastIndexAny(name, " \t"); i >= 0 {
		return strings.TrimSpace(name[:i])
	}
	return name
}

// TechAppraisalFormats is the set of characterization format names that
// are candidates for technical appraisal. Matching is exact and case-sensitive.
type TechAppraisalFormats map[string]struct{}

// Contains reports whether the format name is on the list.
func (t TechAppraisalFormats) Contains(name string) bool {
	_, ok := t[name]
	return ok
}

// OtherRiskFormats maps a characterization format name to its risk criterion.
type OtherRiskFormats map[string]string
