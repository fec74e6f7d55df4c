package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/signalnine/abebench/internal/report"
	"github.com/signalnine/abebench/internal/result"
)

var (
	flagFormat string
	flagLabel  string
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [run-dir]",
		Short: "Render stored results",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			runDir := filepath.Join(cfg.Results.Dir, "latest")
			if len(args) > 0 {
				runDir = args[0]
			}
			resolved, err := filepath.EvalSymlinks(runDir)
			if err != nil {
				return fmt.Errorf("resolving run dir: %w", err)
			}
			c, err := result.ReadCollection(resolved)
			if err != nil {
				return err
			}
			if len(c) == 0 {
				printf(cmd, "No results to export\n")
				return nil
			}
			label := cfg.Report.Label
			if flagLabel != "" {
				label = flagLabel
			}
			return report.Render(flagFormat, label, c, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&flagFormat, "format", "table", "output format (table, tsv, csv, markdown, json, html)")
	cmd.Flags().StringVar(&flagLabel, "label", "", "first header cell (overrides config)")
	return cmd
}
