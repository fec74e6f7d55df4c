package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/signalnine/abebench/internal/abe"
	"github.com/signalnine/abebench/internal/bench"
	"github.com/signalnine/abebench/internal/config"
	"github.com/signalnine/abebench/internal/docker"
	"github.com/signalnine/abebench/internal/monitor"
	"github.com/signalnine/abebench/internal/report"
	"github.com/signalnine/abebench/internal/result"
)

var (
	flagSizes      []int
	flagResultsDir string
	flagRunFormat  string
	flagIsolate    bool
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Benchmark encryption and decryption across payload sizes",
		RunE:  runBenchmark,
	}
	cmd.Flags().IntSliceVar(&flagSizes, "sizes", nil, "payload sizes in KB (overrides config)")
	cmd.Flags().StringVar(&flagResultsDir, "results-dir", "", "results directory (overrides config)")
	cmd.Flags().StringVar(&flagRunFormat, "format", "", "console report format (table, tsv, csv, markdown, json)")
	cmd.Flags().BoolVar(&flagIsolate, "isolate", false, "run the suite inside the configured container")
	return cmd
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(flagSizes) > 0 {
		cfg.SizesKB = flagSizes
	}
	if flagResultsDir != "" {
		cfg.Results.Dir = flagResultsDir
	}
	if flagRunFormat != "" {
		cfg.Report.Format = flagRunFormat
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if flagIsolate {
		return runIsolated(ctx, cmd.OutOrStdout(), cfg)
	}

	sampler, err := monitor.NewProcessSampler()
	if err != nil {
		return err
	}
	_, err = runSuite(ctx, cmd.OutOrStdout(), cfg, bench.NewABE(abe.New()), sampler)
	return err
}

// runSuite measures every configured size and persists the results under a
// fresh run directory.
func runSuite(ctx context.Context, out io.Writer, cfg *config.Config, capability bench.Capability, sampler monitor.Sampler) (string, error) {
	runDir, err := result.CreateRunDir(cfg.Results.Dir)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(out, "Run directory: %s\n\n", runDir)

	m := monitor.New(sampler, monitor.WithSettle(cfg.Settle()), monitor.WithLogger(logger))
	suite := &bench.Suite{
		Capability: capability,
		Case:       bench.NewCase(m, cfg.Attributes, cfg.Policy),
		Out:        out,
		Logger:     logger,
		Exporter: bench.ExporterFunc(func(c result.Collection) {
			if err := result.WriteCollection(runDir, c); err != nil {
				logger.Warn("persisting results failed", "run_dir", runDir, "error", err)
			}
			report.Export(report.ExportOptions{
				Label:        cfg.Report.Label,
				Format:       cfg.Report.Format,
				CSVPath:      resolveIn(runDir, cfg.Report.CSV),
				HTMLPath:     resolveIn(runDir, cfg.Report.HTML),
				TextfilePath: resolveIn(runDir, cfg.Report.Textfile),
				Console:      out,
				Logger:       logger,
			}, c)
		}),
	}

	results, err := suite.Run(ctx, cfg.SizesKB)
	if err != nil {
		return runDir, err
	}
	if len(results) > 0 {
		fmt.Fprintln(out)
		bench.WriteSummary(out, results)
	}
	return runDir, nil
}

// resolveIn places relative output paths inside the run directory.
func resolveIn(runDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(runDir, path)
}

func runIsolated(ctx context.Context, out io.Writer, cfg *config.Config) error {
	workDir, err := os.Getwd()
	if err != nil {
		return err
	}
	command, err := isolatedCommand(cfg, cfgFile, configExists())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Running suite in %s (cpus: %g, memory: %dMB)...\n",
		cfg.Isolation.Image, cfg.Isolation.CPULimit, cfg.Isolation.MemoryMB)

	res, err := docker.RunContainer(ctx, &docker.RunOpts{
		Image:       cfg.Isolation.Image,
		Command:     command,
		WorkDir:     workDir,
		Timeout:     cfg.Isolation.Timeout(),
		CPULimit:    cfg.Isolation.CPULimit,
		MemoryLimit: cfg.Isolation.MemoryMB << 20,
		UserID:      fmt.Sprintf("%d:%d", os.Getuid(), os.Getgid()),
		Output:      out,
	})
	if err != nil {
		return err
	}
	logger.Debug("isolated run finished", "exit_code", res.ExitCode, "duration", res.Duration)
	if res.TimedOut {
		return fmt.Errorf("isolated run timed out after %s", cfg.Isolation.Timeout())
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("isolated run exited with code %d", res.ExitCode)
	}
	return nil
}

// isolatedCommand builds the in-container invocation. Paths must be relative
// so they resolve under the mounted working directory.
func isolatedCommand(cfg *config.Config, cfgPath string, haveConfig bool) ([]string, error) {
	if cfg.Isolation.Image == "" {
		return nil, fmt.Errorf("isolation.image is not configured")
	}
	if filepath.IsAbs(cfg.Results.Dir) {
		return nil, fmt.Errorf("results dir %s must be relative for isolated runs", cfg.Results.Dir)
	}
	sizes := make([]string, len(cfg.SizesKB))
	for i, s := range cfg.SizesKB {
		sizes[i] = strconv.Itoa(s)
	}
	command := []string{cfg.Isolation.Binary, "run",
		"--sizes", strings.Join(sizes, ","),
		"--results-dir", cfg.Results.Dir,
		"--format", cfg.Report.Format,
	}
	if haveConfig {
		if filepath.IsAbs(cfgPath) {
			return nil, fmt.Errorf("config path %s must be relative for isolated runs", cfgPath)
		}
		command = append(command, "--config", filepath.ToSlash(cfgPath))
	}
	return command, nil
}
