package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/format-analysis/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "format-analysis <accession_dir>",
	Short: "Accession format analysis",
	Long: "Characterizes every file in an accession with FITS, matches the formats against the NARA " +
		"preservation action plans, flags technical appraisal and other risks, and writes a " +
		"format analysis workbook next to the accession.",
	Args: cobra.ExactArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		return nil
	},
	RunE: runAnalysis,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.Flags().Bool("rematch", false, "rebuild the risk table even if a hand-edited one exists (discards edits)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
