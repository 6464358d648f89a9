package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/format-analysis/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

var _ Store = (*SQLiteStore)(nil)

func TestSQLite_MigrateIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	require.NoError(t, st.Migrate(context.Background()))
}

func TestSQLite_CreateRun_And_GetRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "/data/acc_2024_01", model.RunModeBulk)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)

	fetched, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, fetched.ID)
	assert.Equal(t, "/data/acc_2024_01", fetched.Accession)
	assert.Equal(t, model.RunModeBulk, fetched.Mode)
	assert.Nil(t, fetched.Result)
}

func TestSQLite_GetRun_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetRun(context.Background(), "nope")
	assert.ErrorContains(t, err, "run not found")
}

func TestSQLite_CompleteRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "/data/acc", model.RunModeUpdate)
	require.NoError(t, err)

	result := &model.RunResult{
		Files:      3,
		Rows:       4,
		SizeKB:     120.5,
		RiskLevels: map[string]int{model.LowRisk: 3, model.NoMatchRisk: 1},
		Workbook:   "/data/acc_format-analysis.xlsx",
		Phases: []model.PhaseResult{
			{Name: "characterize", Status: model.PhaseStatusComplete, Duration: 1500 * time.Millisecond},
			{Name: "match", Status: model.PhaseStatusComplete, Duration: 20 * time.Millisecond},
		},
	}
	require.NoError(t, st.CompleteRun(ctx, run.ID, result))

	fetched, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, fetched.Status)
	require.NotNil(t, fetched.Result)
	assert.Equal(t, 4, fetched.Result.Rows)
	assert.Equal(t, 3, fetched.Result.RiskLevels[model.LowRisk])

	phases, err := st.ListPhases(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, phases, 2)
	assert.Equal(t, "characterize", phases[0].Name)
	assert.Equal(t, 1500*time.Millisecond, phases[0].Duration)
	assert.Empty(t, phases[1].Error)
}

func TestSQLite_FailRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "/data/acc", model.RunModeBulk)
	require.NoError(t, err)

	result := &model.RunResult{
		Error: "fits: tool could not load",
		Phases: []model.PhaseResult{
			{Name: "characterize", Status: model.PhaseStatusFailed, Error: "fits: tool could not load"},
		},
	}
	require.NoError(t, st.FailRun(ctx, run.ID, result))

	fetched, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, fetched.Status)
	assert.Equal(t, "fits: tool could not load", fetched.Result.Error)

	phases, err := st.ListPhases(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, phases, 1)
	assert.Equal(t, model.PhaseStatusFailed, phases[0].Status)
}

func TestSQLite_CompleteRun_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.CompleteRun(context.Background(), "nope", &model.RunResult{})
	assert.ErrorContains(t, err, "run not found")
}

func TestSQLite_ListRuns(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	first, err := st.CreateRun(ctx, "/data/a", model.RunModeBulk)
	require.NoError(t, err)
	second, err := st.CreateRun(ctx, "/data/b", model.RunModeBulk)
	require.NoError(t, err)

	runs, err := st.ListRuns(ctx, RunFilter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID)
	assert.Equal(t, first.ID, runs[1].ID)

	runs, err = st.ListRuns(ctx, RunFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, first.ID, runs[0].ID)
}

func TestSQLite_ListRuns_Filters(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "/data/a", model.RunModeBulk)
	require.NoError(t, err)
	require.NoError(t, st.CompleteRun(ctx, run.ID, &model.RunResult{Files: 1}))

	_, err = st.CreateRun(ctx, "/data/a", model.RunModeReuse)
	require.NoError(t, err)
	_, err = st.CreateRun(ctx, "/data/b", model.RunModeBulk)
	require.NoError(t, err)

	runs, err := st.ListRuns(ctx, RunFilter{Status: model.RunStatusComplete})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)

	runs, err = st.ListRuns(ctx, RunFilter{Accession: "/data/a"})
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestSQLite_ListRuns_CreatedAfter(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.CreateRun(ctx, "/data/a", model.RunModeBulk)
	require.NoError(t, err)

	runs, err := st.ListRuns(ctx, RunFilter{CreatedAfter: time.Now().Add(-time.Hour)})
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	runs, err = st.ListRuns(ctx, RunFilter{CreatedAfter: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	assert.Empty(t, runs)
}
