package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/format-analysis/internal/model"
	"github.com/sells-group/format-analysis/internal/monitoring"
	"github.com/sells-group/format-analysis/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect analysis run history",
	Long:  "Commands for listing and viewing runs recorded in the run ledger.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List analysis runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := requireStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		status, _ := cmd.Flags().GetString("status")
		accession, _ := cmd.Flags().GetString("accession")
		limit, _ := cmd.Flags().GetInt("limit")

		if accession != "" {
			if abs, err := filepath.Abs(accession); err == nil {
				accession = abs
			}
		}

		runs, err := st.ListRuns(ctx, store.RunFilter{
			Status:    model.RunStatus(status),
			Accession: accession,
			Limit:     limit,
		})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(cmd.OutOrStdout(), runs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show full details of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := requireStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}
		phases, err := st.ListPhases(ctx, run.ID)
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			*model.Run
			Phases []model.PhaseResult `json:"phases"`
		}{run, phases})
	},
}

// -- runs stats --

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize recent runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := requireStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		hours, _ := cmd.Flags().GetInt("hours")
		snap, err := monitoring.NewCollector(st).Collect(ctx, hours)
		if err != nil {
			return eris.Wrap(err, "runs stats")
		}

		formatStats(cmd.OutOrStdout(), snap)
		return nil
	},
}

func init() {
	runsStatsCmd.Flags().Int("hours", 24, "lookback window in hours")
	runsListCmd.Flags().String("status", "", "filter by run status (running, complete, failed)")
	runsListCmd.Flags().String("accession", "", "filter by accession directory")
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsStatsCmd)
	rootCmd.AddCommand(runsCmd)
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []model.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tACCESSION\tMODE\tSTATUS\tFILES\tCREATED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t---------\t----\t------\t-----\t-------\t--------")

	for _, r := range runs {
		dur := r.UpdatedAt.Sub(r.CreatedAt).Round(time.Second).String()

		files := "-"
		if r.Result != nil && r.Status == model.RunStatusComplete {
			files = fmt.Sprintf("%d", r.Result.Files)
		}

		accession := filepath.Base(r.Accession)
		if len(accession) > 30 {
			accession = accession[:27] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			truncateID(r.ID),
			accession,
			r.Mode,
			r.Status,
			files,
			r.CreatedAt.Format("2006-01-02 15:04"),
			dur,
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatStats writes a run summary followed by mean phase durations.
func formatStats(out io.Writer, snap *monitoring.Snapshot) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Window:\t%dh\n", snap.LookbackHours)
	_, _ = fmt.Fprintf(w, "Runs:\t%d (%d complete, %d failed, %d running)\n",
		snap.Total, snap.Complete, snap.Failed, snap.Running)
	_, _ = fmt.Fprintf(w, "Failure rate:\t%.1f%%\n", snap.FailRate*100)
	_, _ = fmt.Fprintf(w, "Modes:\t%d bulk, %d update, %d reuse\n",
		snap.Modes[model.RunModeBulk], snap.Modes[model.RunModeUpdate], snap.Modes[model.RunModeReuse])
	_, _ = fmt.Fprintf(w, "Files:\t%d (%d rows, %d suppressed)\n", snap.Files, snap.Rows, snap.Suppressed)

	names := make([]string, 0, len(snap.PhaseAvg))
	for name := range snap.PhaseAvg {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		_, _ = fmt.Fprintf(w, "Phase %s:\t%s avg\n", name, snap.PhaseAvg[name].Round(time.Millisecond))
	}
	_ = w.Flush()
}
