package config

import (
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/signalnine/abebench/internal/abe"
	"github.com/signalnine/abebench/internal/bench"
	"github.com/signalnine/abebench/internal/report"
	"github.com/signalnine/abebench/internal/sysinfo"
)

const DefaultPath = "abebench.yaml"

type Config struct {
	SizesKB    []int     `yaml:"sizes_kb"`
	Attributes []string  `yaml:"attributes"`
	Policy     string    `yaml:"policy"`
	SettleMs   *int      `yaml:"settle_ms"`
	Report     Report    `yaml:"report"`
	Results    Results   `yaml:"results"`
	Isolation  Isolation `yaml:"isolation"`
	SysInfo    SysInfo   `yaml:"sysinfo"`
}

type Report struct {
	Label    string `yaml:"label"`
	Format   string `yaml:"format"`
	CSV      string `yaml:"csv"`
	HTML     string `yaml:"html"`
	Textfile string `yaml:"textfile"`
}

type Results struct {
	Dir string `yaml:"dir"`
}

// Isolation configures re-running the suite inside a container.
type Isolation struct {
	Image          string  `yaml:"image"`
	Binary         string  `yaml:"binary"`
	CPULimit       float64 `yaml:"cpu_limit"`
	MemoryMB       int64   `yaml:"memory_mb"`
	TimeoutMinutes int     `yaml:"timeout_minutes"`
}

type SysInfo struct {
	Tools []string `yaml:"tools"`
	CSV   string   `yaml:"csv"`
}

// Settle is the monitor's baseline delay.
func (c *Config) Settle() time.Duration {
	if c.SettleMs == nil {
		return 10 * time.Millisecond
	}
	return time.Duration(*c.SettleMs) * time.Millisecond
}

func (i Isolation) Timeout() time.Duration {
	return time.Duration(i.TimeoutMinutes) * time.Minute
}

// Default is the stock sweep from 1KB to 10MB with the three-attribute key.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	applyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if len(cfg.SizesKB) == 0 {
		cfg.SizesKB = []int{1, 10, 100, 250, 500, 750, 1024, 5120, 7168, 10240}
	}
	if len(cfg.Attributes) == 0 {
		cfg.Attributes = slices.Clone(bench.DefaultAttributes)
	}
	if cfg.Policy == "" {
		cfg.Policy = bench.DefaultPolicy
	}
	if cfg.Report.Label == "" {
		cfg.Report.Label = report.DefaultLabel
	}
	if cfg.Report.Format == "" {
		cfg.Report.Format = "table"
	}
	if cfg.Report.CSV == "" {
		cfg.Report.CSV = "abe_performance_results.csv"
	}
	if cfg.Results.Dir == "" {
		cfg.Results.Dir = "results"
	}
	if cfg.Isolation.Binary == "" {
		cfg.Isolation.Binary = "abebench"
	}
	if cfg.Isolation.TimeoutMinutes == 0 {
		cfg.Isolation.TimeoutMinutes = 30
	}
	if len(cfg.SysInfo.Tools) == 0 {
		cfg.SysInfo.Tools = slices.Clone(sysinfo.DefaultTools)
	}
	if cfg.SysInfo.CSV == "" {
		cfg.SysInfo.CSV = "system_configuration.csv"
	}
}

// Validate checks a config after defaults have been applied. Flag overrides
// go through it too.
func Validate(cfg *Config) error {
	if len(cfg.SizesKB) == 0 {
		return fmt.Errorf("no payload sizes defined")
	}
	for i, s := range cfg.SizesKB {
		if s <= 0 {
			return fmt.Errorf("sizes_kb[%d]: size must be positive, got %d", i, s)
		}
	}
	for i, a := range cfg.Attributes {
		if a == "" {
			return fmt.Errorf("attributes[%d]: empty attribute", i)
		}
	}
	if _, err := abe.ParsePolicy(cfg.Policy); err != nil {
		return fmt.Errorf("policy: %w", err)
	}
	if cfg.SettleMs != nil && *cfg.SettleMs < 0 {
		return fmt.Errorf("settle_ms must not be negative")
	}
	if !slices.Contains(report.Formats, cfg.Report.Format) {
		return fmt.Errorf("report.format: unknown format %q", cfg.Report.Format)
	}
	if cfg.Isolation.CPULimit < 0 {
		return fmt.Errorf("isolation.cpu_limit must not be negative")
	}
	if cfg.Isolation.MemoryMB < 0 {
		return fmt.Errorf("isolation.memory_mb must not be negative")
	}
	if cfg.Isolation.TimeoutMinutes < 0 {
		return fmt.Errorf("isolation.timeout_minutes must not be negative")
	}
	return nil
}
