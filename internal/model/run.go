package model

import "time"

// RunStatus represents the current state of an analysis run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// RunMode records how the characterization cache was obtained.
type RunMode string

const (
	RunModeBulk   RunMode = "bulk"   // whole accession characterized
	RunModeUpdate RunMode = "update" // cache reconciled with the tree
	RunModeReuse  RunMode = "reuse"  // stored risk table read back
)

// Run is one analysis of one accession folder.
type Run struct {
	ID        string     `json:"id"`
	Accession string     `json:"accession"`
	Mode      RunMode    `json:"mode"`
	Status    RunStatus  `json:"status"`
	Result    *RunResult `json:"result,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RunResult holds the final outcome of a run.
type RunResult struct {
	Files      int            `json:"files"`
	Rows       int            `json:"rows"`
	SizeKB     float64        `json:"size_kb"`
	RiskLevels map[string]int `json:"risk_levels,omitempty"`
	Suppressed int            `json:"suppressed"`
	Workbook   string         `json:"workbook"`
	Phases     []PhaseResult  `json:"phases,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// PhaseStatus represents the outcome of one pipeline phase.
type PhaseStatus string

const (
	PhaseStatusComplete PhaseStatus = "complete"
	PhaseStatusFailed   PhaseStatus = "failed"
)

// PhaseResult records timing for one pipeline phase.
type PhaseResult struct {
	Name     string        `json:"name"`
	Status   PhaseStatus   `json:"status"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// RiskLevelCounts tallies rows by NARA risk level.
func RiskLevelCounts(rows []Row) map[string]int {
	out := make(map[string]int)
	for _, r := range rows {
		out[r.NARARiskLevel]++
	}
	return out
}
