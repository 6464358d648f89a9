package model

import (
	"strconv"

	"github.com/rotisserie/eris"
)

// Field returns the string form of the named column.
func (r Row) Field(col string) string {
	switch col {
	case ColFilePath:
		return r.FilePath
	case ColFormatName:
		return r.FormatName
	case ColFormatVersion:
		return r.FormatVersion
	case ColPUID:
		return r.PUID
	case ColIdentifyingTools:
		return r.IdentifyingTools
	case ColMultipleIDs:
		return strconv.FormatBool(r.MultipleIDs)
	case ColDateModified:
		return r.DateModified
	case ColSizeKB:
		return strconv.FormatFloat(r.SizeKB, 'f', -1, 64)
	case ColMD5:
		return r.MD5
	case ColCreatingApplication:
		return r.CreatingApplication
	case ColValid:
		return r.Valid
	case ColWellFormed:
		return r.WellFormed
	case ColStatusMessage:
		return r.StatusMessage
	case ColNARAFormatName:
		return r.NARAFormatName
	case ColNARARiskLevel:
		return r.NARARiskLevel
	case ColNARAProposedPlan:
		return r.NARAProposedPlan
	case ColNARAMatchType:
		return r.NARAMatchType
	case ColTechnicalAppraisal:
		return r.TechnicalAppraisal
	case ColOtherRisk:
		return r.OtherRisk
	}
	return ""
}

// SetField parses value into the named column. Unknown columns are ignored
// so hand-edited tables may carry extra notes columns.
func (r *Row) SetField(col, value string) error {
	switch col {
	case ColFilePath:
		r.FilePath = value
	case ColFormatName:
		r.FormatName = value
	case ColFormatVersion:
		r.FormatVersion = value
	case ColPUID:
		r.PUID = value
	case ColIdentifyingTools:
		r.IdentifyingTools = value
	case ColMultipleIDs:
		if value == "" {
			r.MultipleIDs = false
			return nil
		}
		b, err := strconv.ParseBool(value)
		if err != nil {
			return eris.Wrapf(err, "model: parse %s %q", col, value)
		}
		r.MultipleIDs = b
	case ColDateModified:
		r.DateModified = value
	case ColSizeKB:
		if value == "" {
			r.SizeKB = 0
			return nil
		}
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return eris.Wrapf(err, "model: parse %s %q", col, value)
		}
		r.SizeKB = f
	case ColMD5:
		r.MD5 = value
	case ColCreatingApplication:
		r.CreatingApplication = value
	case ColValid:
		r.Valid = value
	case ColWellFormed:
		r.WellFormed = value
	case ColStatusMessage:
		r.StatusMessage = value
	case ColNARAFormatName:
		r.NARAFormatName = value
	case ColNARARiskLevel:
		r.NARARiskLevel = value
	case ColNARAProposedPlan:
		r.NARAProposedPlan = value
	case ColNARAMatchType:
		r.NARAMatchType = value
	case ColTechnicalAppraisal:
		r.TechnicalAppraisal = value
	case ColOtherRisk:
		r.OtherRisk = value
	}
	return nil
}

// Record returns the row's values in the given column order.
func (r Row) Record(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = r.Field(c)
	}
	return out
}
