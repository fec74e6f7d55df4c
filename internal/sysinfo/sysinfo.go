// Package sysinfo records the hardware and software environment a benchmark
// ran on. Every probe is best-effort: failures degrade to the Unknown and
// NotInstalled sentinels rather than errors.
package sysinfo

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/signalnine/abebench/internal/runner"
)

const (
	Unknown      = "Unknown"
	NotInstalled = "Not installed"
	NotFound     = "Not found"
	NotDetected  = "Not detected"
)

const (
	SectionHardware = "Hardware"
	SectionSoftware = "Software"
	SectionTools    = "Tools"
)

// DefaultTools are the external tools probed when none are configured.
var DefaultTools = []string{"docker", "ipfs", "geth", "ganache-cli", "truffle"}

// Libraries whose versions are read from the binary's build info.
var Libraries = []Library{
	{Name: "gnark-crypto", Path: "github.com/consensys/gnark-crypto"},
	{Name: "gopsutil", Path: "github.com/shirou/gopsutil/v3"},
	{Name: "cobra", Path: "github.com/spf13/cobra"},
	{Name: "moby client", Path: "github.com/moby/moby/client"},
	{Name: "prometheus client", Path: "github.com/prometheus/client_golang"},
	{Name: "go-echarts", Path: "github.com/go-echarts/go-echarts/v2"},
}

type Library struct {
	Name string
	Path string
}

type Row struct {
	Section   string
	Component string
	Value     string
}

type Info struct {
	CollectedAt time.Time
	Rows        []Row
}

// Section returns the rows of one section in collection order.
func (i *Info) Section(name string) []Row {
	var rows []Row
	for _, r := range i.Rows {
		if r.Section == name {
			rows = append(rows, r)
		}
	}
	return rows
}

// Lookup returns the value recorded for a component.
func (i *Info) Lookup(component string) (string, bool) {
	for _, r := range i.Rows {
		if r.Component == component {
			return r.Value, true
		}
	}
	return "", false
}

// Collector gathers an Info. Zero fields fall back to the live host.
type Collector struct {
	Host      Host
	Exec      ExecFunc
	BuildInfo func() (*debug.BuildInfo, bool)
	Tools     []string
	Workers   int
	GOOS      string
	Now       func() time.Time
	Logger    *slog.Logger
}

func (c *Collector) defaults() {
	if c.Host == nil {
		c.Host = NewHost()
	}
	if c.Exec == nil {
		c.Exec = execCombined
	}
	if c.BuildInfo == nil {
		c.BuildInfo = debug.ReadBuildInfo
	}
	if len(c.Tools) == 0 {
		c.Tools = DefaultTools
	}
	if c.Workers < 1 {
		c.Workers = 4
	}
	if c.GOOS == "" {
		c.GOOS = runtime.GOOS
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

func (c *Collector) Collect(ctx context.Context) *Info {
	c.defaults()
	info := &Info{CollectedAt: c.Now()}
	info.Rows = append(info.Rows, c.hardware(ctx)...)
	info.Rows = append(info.Rows, c.software(ctx)...)
	info.Rows = append(info.Rows, c.tools(ctx)...)
	return info
}

func (c *Collector) hardware(ctx context.Context) []Row {
	row := func(component, value string) Row {
		return Row{Section: SectionHardware, Component: component, Value: value}
	}

	model, arch, freq := Unknown, runtime.GOARCH, Unknown
	physical, logical := Unknown, Unknown
	if cpu, err := c.Host.CPU(ctx); err != nil {
		c.Logger.Debug("cpu probe failed", "error", err)
	} else {
		if cpu.Model != "" {
			model = cpu.Model
		}
		if cpu.MHz > 0 {
			freq = fmt.Sprintf("%.2f GHz", math.Round(cpu.MHz/10)/100)
		}
		physical = cores(cpu.Physical)
		logical = cores(cpu.Logical)
	}

	memTotal, memAvail := Unknown, Unknown
	if total, avail, err := c.Host.Memory(ctx); err != nil {
		c.Logger.Debug("memory probe failed", "error", err)
	} else {
		memTotal, memAvail = humanize.IBytes(total), humanize.IBytes(avail)
	}

	diskTotal, diskFree := Unknown, Unknown
	if total, free, err := c.Host.Disk(ctx, "/"); err != nil {
		c.Logger.Debug("disk probe failed", "error", err)
	} else {
		diskTotal, diskFree = humanize.IBytes(total), humanize.IBytes(free)
	}

	network := Unknown
	if ifaces, err := c.Host.Interfaces(ctx); err != nil {
		c.Logger.Debug("network probe failed", "error", err)
	} else {
		network = activeInterfaces(ifaces)
	}

	return []Row{
		row("Processor (CPU)", model),
		row("Architecture", arch),
		row("Physical Cores", physical),
		row("Logical Cores", logical),
		row("CPU Frequency", freq),
		row("Graphics (GPU)", c.gpu(ctx)),
		row("Total RAM", memTotal),
		row("Available RAM", memAvail),
		row("Storage Total", diskTotal),
		row("Storage Available", diskFree),
		row("Network Interfaces", network),
	}
}

func cores(n int) string {
	if n <= 0 {
		return Unknown
	}
	return fmt.Sprintf("%d cores", n)
}

// activeInterfaces names up to three non-loopback interfaces that carry an
// address.
func activeInterfaces(ifaces []Interface) string {
	var names []string
	for _, iface := range ifaces {
		if iface.Loopback || len(iface.Addrs) == 0 {
			continue
		}
		names = append(names, iface.Name)
		if len(names) == 3 {
			break
		}
	}
	if len(names) == 0 {
		return Unknown
	}
	return strings.Join(names, ", ")
}

func (c *Collector) software(ctx context.Context) []Row {
	row := func(component, value string) Row {
		return Row{Section: SectionSoftware, Component: component, Value: value}
	}

	osName, platform := Unknown, Unknown
	if sys, err := c.Host.OS(ctx); err != nil {
		c.Logger.Debug("os probe failed", "error", err)
	} else {
		if sys.Name != "" {
			osName = strings.TrimSpace(sys.Name + " " + sys.Release)
		}
		if sys.Platform != "" {
			platform = strings.TrimSpace(sys.Platform + " " + sys.PlatformVersion)
		}
	}

	rows := []Row{
		row("Operating System", osName),
		row("OS Platform", platform),
		row("Go Version", runtime.Version()),
	}
	versions := c.libraryVersions()
	for _, lib := range Libraries {
		rows = append(rows, row(lib.Name, versions[lib.Path]))
	}
	return rows
}

func (c *Collector) libraryVersions() map[string]string {
	out := make(map[string]string, len(Libraries))
	for _, lib := range Libraries {
		out[lib.Path] = NotInstalled
	}
	bi, ok := c.BuildInfo()
	if !ok || bi == nil {
		return out
	}
	for _, dep := range bi.Deps {
		if _, tracked := out[dep.Path]; !tracked {
			continue
		}
		version := dep.Version
		if dep.Replace != nil {
			version = dep.Replace.Version
		}
		out[dep.Path] = version
	}
	return out
}

func (c *Collector) tools(ctx context.Context) []Row {
	rows := make([]Row, len(c.Tools))
	jobs := make([]runner.Job, len(c.Tools))
	for i, name := range c.Tools {
		p := probeFor(name)
		rows[i] = Row{Section: SectionTools, Component: p.display, Value: NotInstalled}
		jobs[i] = func(ctx context.Context) error {
			out, err := c.Exec(ctx, p.command, p.args...)
			if err != nil {
				return fmt.Errorf("probing %s: %w", p.command, err)
			}
			rows[i].Value = p.parse(string(out))
			return nil
		}
	}
	for _, err := range runner.RunPool(ctx, c.Workers, jobs) {
		c.Logger.Debug("tool probe failed", "error", err)
	}
	return rows
}
