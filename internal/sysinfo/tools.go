package sysinfo

import (
	"context"
	"os/exec"
	"strings"
)

// ExecFunc runs a command and returns its combined output.
type ExecFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func execCombined(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

type probe struct {
	display string
	command string
	args    []string
	parse   func(string) string
}

var knownProbes = map[string]probe{
	"docker":      {display: "Docker", args: []string{"--version"}, parse: firstLine},
	"ipfs":        {display: "IPFS", args: []string{"version"}, parse: firstLine},
	"geth":        {display: "Go Ethereum", args: []string{"version"}, parse: gethVersion},
	"ganache-cli": {display: "Ganache CLI", args: []string{"--version"}, parse: firstLine},
	"truffle":     {display: "Truffle", args: []string{"version"}, parse: truffleVersion},
}

func probeFor(name string) probe {
	p, ok := knownProbes[name]
	if !ok {
		p = probe{display: name, args: []string{"--version"}, parse: firstLine}
	}
	p.command = name
	return p
}

func firstLine(out string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	line = strings.TrimSpace(line)
	if line == "" {
		return NotFound
	}
	return line
}

func gethVersion(out string) string {
	for _, line := range strings.Split(out, "\n") {
		if _, v, ok := strings.Cut(line, "Version:"); ok {
			return strings.TrimSpace(v)
		}
	}
	return NotFound
}

func truffleVersion(out string) string {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "Truffle") {
			continue
		}
		// "Truffle: v5.x" is a labelled field; "Truffle v5.x (core: ...)" is kept whole.
		if v, ok := strings.CutPrefix(line, "Truffle:"); ok {
			return strings.TrimSpace(v)
		}
		return line
	}
	return NotFound
}

func (c *Collector) gpu(ctx context.Context) string {
	var (
		name   string
		args   []string
		marker string
	)
	switch c.GOOS {
	case "linux":
		name, args, marker = "lspci", nil, "VGA"
	case "darwin":
		name, args, marker = "system_profiler", []string{"SPDisplaysDataType"}, "Chipset Model:"
	default:
		return Unknown
	}
	out, err := c.Exec(ctx, name, args...)
	if err != nil {
		c.Logger.Debug("gpu probe failed", "command", name, "error", err)
		return NotDetected
	}
	for _, line := range strings.Split(string(out), "\n") {
		if !strings.Contains(line, marker) {
			continue
		}
		if c.GOOS == "darwin" {
			_, v, _ := strings.Cut(line, ":")
			return strings.TrimSpace(v)
		}
		// lspci: "00:02.0 VGA compatible controller: Intel Corporation ..."
		if idx := strings.Index(line, ": "); idx >= 0 {
			return strings.TrimSpace(line[idx+2:])
		}
		return strings.TrimSpace(line)
	}
	return Unknown
}
