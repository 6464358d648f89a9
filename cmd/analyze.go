package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/format-analysis/internal/analysis"
	"github.com/sells-group/format-analysis/internal/fits"
	"github.com/sells-group/format-analysis/internal/pipeline"
	"github.com/sells-group/format-analysis/internal/reference"
	"github.com/sells-group/format-analysis/internal/resilience"
	"github.com/sells-group/format-analysis/internal/report"
	"github.com/sells-group/format-analysis/internal/rowio"
)

func runAnalysis(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	info, err := os.Stat(args[0])
	if err != nil || !info.IsDir() {
		return eris.Errorf("accession %q is not a directory", args[0])
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	cmd.SilenceUsage = true

	refs, err := reference.Load(ctx, reference.Paths{
		Registry:      cfg.Paths.NARA,
		TechAppraisal: cfg.Paths.ITA,
		OtherRisk:     cfg.Paths.Risk,
	})
	if err != nil {
		return err
	}

	enc, err := rowio.LookupEncoding(cfg.Output.Encoding)
	if err != nil {
		return err
	}

	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close() //nolint:errcheck
	}

	rematch, _ := cmd.Flags().GetBool("rematch")
	tool := fits.WithRetry(fits.NewTool(cfg.Paths.FITS), resilience.Attempts(cfg.Characterize.Attempts))
	p := pipeline.New(tool, refs, st, pipeline.Options{
		Workers:  cfg.Characterize.Workers,
		Encoding: enc,
		Rematch:  rematch,
	})

	res, err := p.Run(ctx, args[0])
	if err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), res)
}

// printResult writes the NARA risk subtotal, totals, and any files left out
// of a reused risk table.
func printResult(w io.Writer, res *pipeline.Result) error {
	summary := analysis.NARARiskSubtotal(res.Rows)
	for _, s := range res.Sheets {
		if s.Name == analysis.SheetNARASubtotal {
			summary = s
			break
		}
	}

	err := report.WriteSummary(w, summary, report.Totals{
		Files:     res.Summary.Files,
		Rows:      res.Summary.Rows,
		SizeBytes: uint64(res.Summary.SizeKB * 1000),
		Workbook:  res.Artifacts.Workbook,
	})
	if err != nil {
		return err
	}

	if res.Summary.Suppressed > 0 {
		_, _ = fmt.Fprintf(w, "%d file(s) could not be encoded; see %s\n", res.Summary.Suppressed, res.Artifacts.EncodeErrors)
	}
	if len(res.Novel) > 0 {
		_, _ = fmt.Fprintf(w, "%d new file(s) are not in %s and were left out of the report; delete it to re-match:\n",
			len(res.Novel), res.Artifacts.RiskTable)
		for _, p := range res.Novel {
			_, _ = fmt.Fprintf(w, "  %s\n", p)
		}
	}
	return nil
}
