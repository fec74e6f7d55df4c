package cmd

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalnine/abebench/internal/abe"
	"github.com/signalnine/abebench/internal/bench"
	"github.com/signalnine/abebench/internal/config"
	"github.com/signalnine/abebench/internal/result"
)

type steadySampler struct{ rss uint64 }

func (s *steadySampler) ProcessCPUPercent() (float64, error) { return 25, nil }
func (s *steadySampler) SystemCPUPercent() (float64, error)  { return 10, nil }
func (s *steadySampler) ProcessRSS() (uint64, error) {
	s.rss += 4096
	return s.rss, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(quietLogger(), new(slog.LevelVar))
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "abebench.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	settle := 0
	cfg.SettleMs = &settle
	cfg.SizesKB = []int{1, 2048}
	cfg.Results.Dir = t.TempDir()
	return cfg
}

func TestResolveIn(t *testing.T) {
	assert.Equal(t, "", resolveIn("/runs/x", ""))
	assert.Equal(t, "/abs/out.csv", resolveIn("/runs/x", "/abs/out.csv"))
	assert.Equal(t, filepath.Join("/runs/x", "out.csv"), resolveIn("/runs/x", "out.csv"))
}

func TestRunSuite(t *testing.T) {
	cfg := testConfig(t)
	cfg.Report.HTML = "charts.html"
	var out bytes.Buffer

	runDir, err := runSuite(context.Background(), &out, cfg, bench.NewABE(abe.New()), &steadySampler{})
	require.NoError(t, err)

	c, err := result.ReadCollection(runDir)
	require.NoError(t, err)
	require.Len(t, c, 2)
	assert.Equal(t, []int{1, 2048}, c.Sizes())
	for _, r := range c {
		assert.True(t, r.Success)
		assert.Equal(t, 25.0, r.Encryption.Sample.CPUPercent)
		assert.Equal(t, 4.0, r.Decryption.Sample.MemoryKB)
	}

	csvData, err := os.ReadFile(filepath.Join(runDir, "abe_performance_results.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(csvData), "ABE,1KB,2MB\n"))
	assert.FileExists(t, filepath.Join(runDir, "charts.html"))

	latest, err := filepath.EvalSymlinks(filepath.Join(cfg.Results.Dir, "latest"))
	require.NoError(t, err)
	resolved, err := filepath.EvalSymlinks(runDir)
	require.NoError(t, err)
	assert.Equal(t, resolved, latest)

	console := out.String()
	assert.Contains(t, console, "=== ABE Performance Testing ===")
	assert.Contains(t, console, "=== Report ===")
	assert.Contains(t, console, "=== Summary Statistics ===")
}

type brokenSetup struct{ bench.Capability }

func (brokenSetup) Setup() (bench.PublicParams, bench.MasterSecret, error) {
	return nil, nil, assert.AnError
}

func TestRunSuiteSetupFailure(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer

	runDir, err := runSuite(context.Background(), &out, cfg, brokenSetup{}, &steadySampler{})
	require.Error(t, err)
	assert.Contains(t, out.String(), "No results to export")

	c, err := result.ReadCollection(runDir)
	require.NoError(t, err)
	assert.Empty(t, c)
	assert.NoFileExists(t, filepath.Join(runDir, "abe_performance_results.csv"))
}

func TestIsolatedCommand(t *testing.T) {
	cfg := config.Default()
	cfg.SizesKB = []int{1, 1024}
	cfg.Isolation.Image = "abebench:latest"

	got, err := isolatedCommand(cfg, "bench/abebench.yaml", true)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"abebench", "run",
		"--sizes", "1,1024",
		"--results-dir", "results",
		"--format", "table",
		"--config", "bench/abebench.yaml",
	}, got)

	got, err = isolatedCommand(cfg, config.DefaultPath, false)
	require.NoError(t, err)
	assert.NotContains(t, got, "--config")
}

func TestIsolatedCommandErrors(t *testing.T) {
	cfg := config.Default()
	_, err := isolatedCommand(cfg, "", false)
	assert.ErrorContains(t, err, "isolation.image")

	cfg.Isolation.Image = "abebench:latest"
	cfg.Results.Dir = "/var/results"
	_, err = isolatedCommand(cfg, "", false)
	assert.ErrorContains(t, err, "must be relative")

	cfg.Results.Dir = "results"
	_, err = isolatedCommand(cfg, "/etc/abebench.yaml", true)
	assert.ErrorContains(t, err, "must be relative")
}

func TestRunRejectsInvalidSizes(t *testing.T) {
	cfgPath := writeConfig(t, "sizes_kb: [1]\n")
	_, err := execute(t, "--config", cfgPath, "run", "--sizes", "0,5")
	assert.ErrorContains(t, err, "size must be positive")
}

func TestRunCommand(t *testing.T) {
	resultsDir := t.TempDir()
	cfgPath := writeConfig(t, "sizes_kb: [1]\nsettle_ms: 0\n")

	out, err := execute(t, "--config", cfgPath, "run", "--results-dir", resultsDir, "--format", "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "| ABE | 1KB |")

	c, err := result.ReadCollection(filepath.Join(resultsDir, "latest"))
	require.NoError(t, err)
	require.Len(t, c, 1)
	assert.True(t, c[0].Success)
}

func TestReportCommand(t *testing.T) {
	resultsDir := t.TempDir()
	runDir, err := result.CreateRunDir(resultsDir)
	require.NoError(t, err)
	require.NoError(t, result.WriteCollection(runDir, result.Collection{{PayloadSizeKB: 10, Success: true}}))
	cfgPath := writeConfig(t, "results:\n  dir: "+resultsDir+"\n")

	out, err := execute(t, "--config", cfgPath, "report", "--format", "csv", "--label", "CP-ABE")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "CP-ABE,10KB\n"))

	out, err = execute(t, "--config", cfgPath, "report", runDir, "--format", "tsv")
	require.NoError(t, err)
	assert.Contains(t, out, "ABE\t10KB")
}

func TestReportCommandEmpty(t *testing.T) {
	runDir := t.TempDir()
	require.NoError(t, result.WriteCollection(runDir, nil))

	out, err := execute(t, "report", runDir)
	require.NoError(t, err)
	assert.Equal(t, "No results to export\n", out)
}

func TestReportCommandMissingRun(t *testing.T) {
	_, err := execute(t, "report", filepath.Join(t.TempDir(), "nope"))
	assert.ErrorContains(t, err, "resolving run dir")
}

func TestListCommand(t *testing.T) {
	cfgPath := writeConfig(t, "sizes_kb: [512, 1536]\nattributes: [A, B]\npolicy: A and B\n")
	out, err := execute(t, "--config", cfgPath, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "  - 512KB (512KB)\n")
	assert.Contains(t, out, "  - 1536KB (1.5MB)\n")
	assert.Contains(t, out, "Key attributes: A, B\n")
	assert.Contains(t, out, "Policy: A and B\n")
}

func TestListCommandMissingExplicitConfig(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "list")
	assert.Error(t, err)
}

func TestPolicyCommand(t *testing.T) {
	out, err := execute(t, "policy", "A and (B or C)", "--attrs", "A,C")
	require.NoError(t, err)
	assert.Contains(t, out, "(A and (B or C))\n")
	assert.Contains(t, out, "AND (2/2)")
	assert.Contains(t, out, "OR (1/2)")
	assert.Contains(t, out, "Satisfied by [A, C]: true\n")

	out, err = execute(t, "policy", "A and (B or C)", "--attrs", "B,C")
	require.NoError(t, err)
	assert.Contains(t, out, "Satisfied by [B, C]: false\n")
}

func TestPolicyCommandRejectsMalformed(t *testing.T) {
	_, err := execute(t, "policy", "(A and")
	assert.Error(t, err)
}

func TestRenderPolicy(t *testing.T) {
	tree, err := abe.ParsePolicy("((ONE and THREE) and (TWO OR FOUR))")
	require.NoError(t, err)
	out := renderPolicy(tree)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Equal(t, "AND (2/2)", lines[0])
	for _, leaf := range []string{"ONE", "TWO", "THREE", "FOUR"} {
		assert.Contains(t, out, leaf)
	}
	assert.Len(t, lines, 7)
}

func TestSysinfoCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, "sysinfo:\n  tools: [abebench-no-such-tool]\n")
	csvPath := filepath.Join(dir, "sys.csv")
	texPath := filepath.Join(dir, "sys.tex")

	out, err := execute(t, "--config", cfgPath, "sysinfo", "--csv", csvPath, "--latex", texPath)
	require.NoError(t, err)
	assert.Contains(t, out, "HARDWARE CONFIGURATION:")
	assert.Contains(t, out, "abebench-no-such-tool | Not installed")
	assert.Contains(t, out, "Configuration exported to: "+csvPath)

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Configuration Type,Component,Specification\n"))
	assert.FileExists(t, texPath)
}
