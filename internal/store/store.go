// Package store keeps an optional ledger of analysis runs.
package store

import (
	"context"
	"time"

	"github.com/sells-group/format-analysis/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status       model.RunStatus `json:"status,omitempty"`
	Accession    string          `json:"accession,omitempty"`
	CreatedAfter time.Time       `json:"created_after,omitempty"`
	Limit        int             `json:"limit,omitempty"`
	Offset       int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the run ledger.
type Store interface {
	CreateRun(ctx context.Context, accession string, mode model.RunMode) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, result *model.RunResult) error
	FailRun(ctx context.Context, runID string, result *model.RunResult) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)
	ListPhases(ctx context.Context, runID string) ([]model.PhaseResult, error)

	Migrate(ctx context.Context) error
	Close() error
}
