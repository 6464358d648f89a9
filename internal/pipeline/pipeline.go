// Package pipeline runs a complete format analysis of one accession:
// characterization, risk matching, classification, and reporting.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/flock"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/format-analysis/internal/analysis"
	"github.com/sells-group/format-analysis/internal/classify"
	"github.com/sells-group/format-analysis/internal/fits"
	"github.com/sells-group/format-analysis/internal/model"
	"github.com/sells-group/format-analysis/internal/reference"
	"github.com/sells-group/format-analysis/internal/report"
	"github.com/sells-group/format-analysis/internal/risk"
	"github.com/sells-group/format-analysis/internal/rowio"
	"github.com/sells-group/format-analysis/internal/store"
)

// ErrLocked is returned when another run holds the accession's cache lock.
var ErrLocked = errors.New("pipeline: accession is already being analyzed")

// Phase names recorded in the run ledger.
const (
	PhaseCharacterize = "characterize"
	PhaseLoad         = "load"
	PhaseMatch        = "match"
	PhaseReuse        = "reuse"
	PhaseAnalyze      = "analyze"
	PhaseWrite        = "write"
)

// Options tunes a single run.
type Options struct {
	Workers  int            // concurrent per-file characterizations in update mode
	Encoding rowio.Encoding // encoding of the CSV artifacts
	Rematch  bool           // rebuild the risk table even if one is stored
}

// Pipeline orchestrates one accession analysis.
type Pipeline struct {
	fits  fits.Characterizer
	refs  *reference.Set
	store store.Store // optional
	opts  Options
}

// New creates a Pipeline. st may be nil to run without a ledger.
func New(c fits.Characterizer, refs *reference.Set, st store.Store, opts Options) *Pipeline {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Pipeline{fits: c, refs: refs, store: st, opts: opts}
}

// Result is the outcome of a successful run.
type Result struct {
	Artifacts Artifacts
	Mode      model.RunMode
	RunID     string
	Rows      []model.Row
	Sheets    []report.Sheet
	Summary   model.RunResult
	Novel     []string // characterized files missing from a reused risk table
}

// Run analyzes the accession at accessionDir.
func (p *Pipeline) Run(ctx context.Context, accessionDir string) (*Result, error) {
	arts, err := ArtifactsFor(accessionDir)
	if err != nil {
		return nil, err
	}
	log := zap.L().With(zap.String("accession", arts.Accession))

	lock := flock.New(arts.Lock)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: lock %s", arts.Lock)
	}
	if !ok {
		return nil, eris.Wrapf(ErrLocked, "pipeline: %s is held", arts.Lock)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Warn("pipeline: failed to release lock", zap.Error(err))
		}
	}()

	cached, err := exists(arts.CacheDir)
	if err != nil {
		return nil, err
	}
	stored, err := exists(arts.RiskTable)
	if err != nil {
		return nil, err
	}
	reuse := stored && !p.opts.Rematch

	mode := model.RunModeBulk
	switch {
	case reuse:
		mode = model.RunModeReuse
	case cached:
		mode = model.RunModeUpdate
	}
	log.Info("pipeline: starting analysis", zap.String("mode", string(mode)))

	res := &Result{Artifacts: arts, Mode: mode}

	if p.store != nil {
		run, err := p.store.CreateRun(ctx, arts.Accession, mode)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: create run")
		}
		res.RunID = run.ID
	}

	var phases []model.PhaseResult
	trackPhase := func(name string, fn func() error) error {
		start := time.Now()
		fnErr := fn()
		phase := model.PhaseResult{Name: name, Status: model.PhaseStatusComplete, Duration: time.Since(start)}
		if fnErr != nil {
			phase.Status = model.PhaseStatusFailed
			phase.Error = fnErr.Error()
			log.Error("pipeline: phase failed",
				zap.String("phase", name),
				zap.Duration("duration", phase.Duration),
				zap.Error(fnErr),
			)
		} else {
			log.Debug("pipeline: phase complete",
				zap.String("phase", name),
				zap.Duration("duration", phase.Duration),
			)
		}
		phases = append(phases, phase)
		return fnErr
	}

	runErr := p.run(ctx, res, cached, reuse, trackPhase)
	res.Summary.Phases = phases
	if runErr != nil {
		res.Summary.Error = runErr.Error()
	}
	p.finish(ctx, res, runErr)
	if runErr != nil {
		return nil, runErr
	}

	log.Info("pipeline: analysis complete",
		zap.Int("files", res.Summary.Files),
		zap.Int("rows", res.Summary.Rows),
		zap.Int("suppressed", res.Summary.Suppressed),
		zap.String("workbook", arts.Workbook),
	)
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, res *Result, cached, reuse bool, trackPhase func(string, func() error) error) error {
	arts := res.Artifacts
	var suppressed []string

	err := trackPhase(PhaseCharacterize, func() error {
		if cached {
			_, err := fits.Update(ctx, p.fits, arts.Accession, arts.CacheDir, p.opts.Workers)
			return err
		}
		return fits.Characterize(ctx, p.fits, arts.Accession, arts.CacheDir)
	})
	if err != nil {
		return eris.Wrap(err, "pipeline: characterize")
	}

	var loaded []model.Row
	err = trackPhase(PhaseLoad, func() error {
		var err error
		loaded, err = fits.LoadCache(ctx, arts.CacheDir)
		if err != nil {
			return err
		}
		out, err := rowio.WriteRows(arts.FITSTable, model.FITSColumns, loaded, p.opts.Encoding)
		suppressed = append(suppressed, out...)
		return err
	})
	if err != nil {
		return eris.Wrap(err, "pipeline: load characterization")
	}

	var rows []model.Row
	if reuse {
		err = trackPhase(PhaseReuse, func() error {
			var err error
			rows, res.Novel, err = p.reuse(ctx, arts, loaded, suppressed)
			return err
		})
	} else {
		err = trackPhase(PhaseMatch, func() error {
			enriched := p.enrich(loaded)
			out, err := rowio.WriteRows(arts.RiskTable, model.RiskColumns, enriched, p.opts.Encoding)
			if err != nil {
				return err
			}
			suppressed = append(suppressed, out...)
			rows = withoutPaths(enriched, out)
			return nil
		})
	}
	if err != nil {
		return eris.Wrap(err, "pipeline: risk table")
	}

	if err := rowio.AppendSideLog(arts.EncodeErrors, suppressed); err != nil {
		return err
	}
	res.Summary.Suppressed = len(dedupe(suppressed))

	err = trackPhase(PhaseAnalyze, func() error {
		res.Sheets = analysis.Build(rows, arts.Accession)
		return nil
	})
	if err != nil {
		return err
	}

	err = trackPhase(PhaseWrite, func() error {
		return report.WriteWorkbook(arts.Workbook, res.Sheets)
	})
	if err != nil {
		return eris.Wrap(err, "pipeline: write report")
	}

	res.Rows = rows
	res.Summary.Files, res.Summary.SizeKB = fileTotals(rows)
	res.Summary.Rows = len(rows)
	res.Summary.RiskLevels = model.RiskLevelCounts(rows)
	res.Summary.Workbook = arts.Workbook
	return nil
}

// enrich runs the matcher and both classifiers.
func (p *Pipeline) enrich(rows []model.Row) []model.Row {
	matched := risk.NewMatcher(p.refs.Registry).Match(rows)
	return classify.Apply(matched, p.refs.TechAppraisal, p.refs.OtherRisk)
}

// finish records the run in the ledger. Ledger failures are logged, not
// returned, so a broken ledger never hides a finished report.
func (p *Pipeline) finish(ctx context.Context, res *Result, runErr error) {
	if p.store == nil || res.RunID == "" {
		return
	}
	var err error
	if runErr != nil {
		err = p.store.FailRun(ctx, res.RunID, &res.Summary)
	} else {
		err = p.store.CompleteRun(ctx, res.RunID, &res.Summary)
	}
	if err != nil {
		zap.L().Warn("pipeline: failed to record run", zap.String("run_id", res.RunID), zap.Error(err))
	}
}

// fileTotals counts distinct files and sums their sizes once per file.
func fileTotals(rows []model.Row) (int, float64) {
	seen := make(map[string]bool, len(rows))
	var size float64
	for _, r := range rows {
		if seen[r.FilePath] {
			continue
		}
		seen[r.FilePath] = true
		size += r.SizeKB
	}
	return len(seen), size
}

func withoutPaths(rows []model.Row, paths []string) []model.Row {
	if len(paths) == 0 {
		return rows
	}
	drop := make(map[string]bool, len(paths))
	for _, p := range paths {
		drop[p] = true
	}
	out := make([]model.Row, 0, len(rows))
	for _, r := range rows {
		if !drop[r.FilePath] {
			out = append(out, r)
		}
	}
	return out
}

func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
