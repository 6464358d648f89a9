package model

// Column names used in the cached CSV tables and the report workbook.
const (
	ColFilePath            = "File_Path"
	ColFormatName          = "Format_Name"
	ColFormatVersion       = "Format_Version"
	ColPUID                = "PUID"
	ColIdentifyingTools    = "Identifying_Tool(s)"
	ColMultipleIDs         = "Multiple_IDs"
	ColDateModified        = "Date_Last_Modified"
	ColSizeKB              = "Size_KB"
	ColMD5                 = "MD5"
	ColCreatingApplication = "Creating_Application"
	ColValid               = "Valid"
	ColWellFormed          = "Well-Formed"
	ColStatusMessage       = "Status_Message"
	ColNARAFormatName      = "NARA_Format_Name"
	ColNARARiskLevel       = "NARA_Risk_Level"
	ColNARAProposedPlan    = "NARA_Proposed_Preservation_Plan"
	ColNARAMatchType       = "NARA_Match_Type"
	ColTechnicalAppraisal  = "Technical_Appraisal"
	ColOtherRisk           = "Other_Risk"
)

// FITSColumns is the column order of the flattened characterization table.
var FITSColumns = []string{
	ColFilePath, ColFormatName, ColFormatVersion, ColPUID, ColIdentifyingTools,
	ColMultipleIDs, ColDateModified, ColSizeKB, ColMD5, ColCreatingApplication,
	ColValid, ColWellFormed, ColStatusMessage,
}

// RiskColumns is the column order of the enriched table.
var RiskColumns = append(append([]string{}, FITSColumns...),
	ColNARAFormatName, ColNARARiskLevel, ColNARAProposedPlan, ColNARAMatchType,
	ColTechnicalAppraisal, ColOtherRisk,
)
