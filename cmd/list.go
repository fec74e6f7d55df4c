package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/signalnine/abebench/internal/report"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the configured sizes, attributes, and policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			printf(cmd, "Payload sizes:\n")
			for _, s := range cfg.SizesKB {
				printf(cmd, "  - %dKB (%s)\n", s, report.ColumnLabel(s))
			}
			printf(cmd, "\nKey attributes: %s\n", strings.Join(cfg.Attributes, ", "))
			printf(cmd, "Policy: %s\n", cfg.Policy)
			printf(cmd, "\nReport formats: %s\n", strings.Join(report.Formats, ", "))
			if cfg.Isolation.Image != "" {
				printf(cmd, "Isolation image: %s\n", cfg.Isolation.Image)
			}
			return nil
		},
	}
}
