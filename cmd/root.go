package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/signalnine/abebench/internal/config"
)

var (
	cfgFile     string
	flagVerbose bool

	logger   = slog.Default()
	logLevel = new(slog.LevelVar)
)

// NewRootCmd builds the command tree. level is raised to debug by --verbose.
func NewRootCmd(l *slog.Logger, level *slog.LevelVar) *cobra.Command {
	if l != nil {
		logger = l
	}
	if level != nil {
		logLevel = level
	}
	root := &cobra.Command{
		Use:   "abebench",
		Short: "Performance harness for attribute-based encryption",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagVerbose {
				logLevel.Set(slog.LevelDebug)
			}
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	root.AddCommand(newRunCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newReportCmd())
	root.AddCommand(newPolicyCmd())
	root.AddCommand(newSysinfoCmd())
	return root
}

// loadConfig reads the config file. A missing file at the default path
// means the built-in defaults.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err == nil {
		return cfg, nil
	}
	if cfgFile == config.DefaultPath && errors.Is(err, fs.ErrNotExist) {
		logger.Debug("no config file, using defaults", "path", cfgFile)
		return config.Default(), nil
	}
	return nil, err
}

func configExists() bool {
	_, err := os.Stat(cfgFile)
	return err == nil
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
