package cmd

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/signalnine/abebench/internal/report"
	"github.com/signalnine/abebench/internal/sysinfo"
)

var (
	flagSysinfoCSV   string
	flagSysinfoLaTeX string
)

func newSysinfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sysinfo",
		Short: "Record the hardware and software environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			printf(cmd, "Collecting system information...\n")
			c := &sysinfo.Collector{Tools: cfg.SysInfo.Tools, Logger: logger}
			info := c.Collect(ctx)
			if err := sysinfo.WriteTable(cmd.OutOrStdout(), info); err != nil {
				return err
			}

			csvPath := cfg.SysInfo.CSV
			if flagSysinfoCSV != "" {
				csvPath = flagSysinfoCSV
			}
			exportSysinfo(cmd, "Configuration", csvPath, func(w io.Writer) error { return sysinfo.WriteCSV(w, info) })
			if flagSysinfoLaTeX != "" {
				exportSysinfo(cmd, "LaTeX table", flagSysinfoLaTeX, func(w io.Writer) error { return sysinfo.WriteLaTeX(w, info) })
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flagSysinfoCSV, "csv", "", "CSV output path (overrides config)")
	cmd.Flags().StringVar(&flagSysinfoLaTeX, "latex", "", "also write a LaTeX table to this path")
	return cmd
}

// exportSysinfo writes one file best-effort.
func exportSysinfo(cmd *cobra.Command, what, path string, write func(io.Writer) error) {
	if err := report.WriteFile(path, write); err != nil {
		printf(cmd, "Error exporting %s: %v\n", what, err)
		logger.Warn("sysinfo export failed", "path", path, "error", err)
		return
	}
	printf(cmd, "\n%s exported to: %s\n", what, path)
}
