package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/format-analysis/internal/model"
	"github.com/sells-group/format-analysis/internal/rowio"
)

// reuse reads the stored risk table in place of matching, so hand edits
// survive. Rows for files no longer characterized are dropped and the table
// rewritten. Characterized files the table lacks are returned as novel and
// stay out of the report until the table is rebuilt.
func (p *Pipeline) reuse(ctx context.Context, arts Artifacts, loaded []model.Row, suppressed []string) ([]model.Row, []string, error) {
	stored, err := rowio.ReadRows(ctx, arts.RiskTable, p.opts.Encoding)
	if err != nil {
		return nil, nil, err
	}

	current := make(map[string]bool, len(loaded))
	for _, r := range loaded {
		current[r.FilePath] = true
	}

	kept := make([]model.Row, 0, len(stored))
	inTable := make(map[string]bool, len(stored))
	for _, r := range stored {
		if !current[r.FilePath] {
			continue
		}
		kept = append(kept, r)
		inTable[r.FilePath] = true
	}

	if len(kept) != len(stored) {
		zap.L().Debug("pipeline: dropping stale risk rows",
			zap.Int("dropped", len(stored)-len(kept)),
		)
		if _, err := rowio.WriteRows(arts.RiskTable, model.RiskColumns, kept, p.opts.Encoding); err != nil {
			return nil, nil, err
		}
	}

	skip := make(map[string]bool, len(suppressed))
	for _, s := range suppressed {
		skip[s] = true
	}
	var novel []string
	seen := make(map[string]bool)
	for _, r := range loaded {
		if inTable[r.FilePath] || skip[r.FilePath] || seen[r.FilePath] {
			continue
		}
		seen[r.FilePath] = true
		novel = append(novel, r.FilePath)
		zap.L().Warn("pipeline: file is not in the stored risk table and is left out of the report; delete the table to re-match",
			zap.String("path", r.FilePath),
			zap.String("table", arts.RiskTable),
		)
	}
	return kept, novel, nil
}
