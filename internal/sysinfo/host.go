package sysinfo

import (
	"context"
	"fmt"
	"slices"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
)

// Host is the OS introspection surface the collector reads from.
type Host interface {
	CPU(ctx context.Context) (CPU, error)
	Memory(ctx context.Context) (total, available uint64, err error)
	Disk(ctx context.Context, path string) (total, free uint64, err error)
	Interfaces(ctx context.Context) ([]Interface, error)
	OS(ctx context.Context) (OS, error)
}

type CPU struct {
	Model    string
	MHz      float64
	Physical int
	Logical  int
}

type Interface struct {
	Name     string
	Loopback bool
	Addrs    []string
}

type OS struct {
	Name            string
	Release         string
	Platform        string
	PlatformVersion string
}

type gopsutilHost struct{}

// NewHost returns a Host backed by gopsutil.
func NewHost() Host {
	return gopsutilHost{}
}

func (gopsutilHost) CPU(ctx context.Context) (CPU, error) {
	var out CPU
	infos, err := cpu.InfoWithContext(ctx)
	if err != nil {
		return out, fmt.Errorf("reading cpu info: %w", err)
	}
	if len(infos) > 0 {
		out.Model = infos[0].ModelName
		out.MHz = infos[0].Mhz
	}
	// core counts are independent of the model string; keep what we can get
	if n, err := cpu.CountsWithContext(ctx, false); err == nil {
		out.Physical = n
	}
	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		out.Logical = n
	}
	return out, nil
}

func (gopsutilHost) Memory(ctx context.Context) (uint64, uint64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("reading virtual memory: %w", err)
	}
	return vm.Total, vm.Available, nil
}

func (gopsutilHost) Disk(ctx context.Context, path string) (uint64, uint64, error) {
	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return 0, 0, fmt.Errorf("reading disk usage of %s: %w", path, err)
	}
	return usage.Total, usage.Free, nil
}

func (gopsutilHost) Interfaces(ctx context.Context) ([]Interface, error) {
	stats, err := net.InterfacesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing interfaces: %w", err)
	}
	out := make([]Interface, 0, len(stats))
	for _, s := range stats {
		iface := Interface{
			Name:     s.Name,
			Loopback: slices.Contains(s.Flags, "loopback"),
		}
		for _, a := range s.Addrs {
			iface.Addrs = append(iface.Addrs, a.Addr)
		}
		out = append(out, iface)
	}
	return out, nil
}

func (gopsutilHost) OS(ctx context.Context) (OS, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return OS{}, fmt.Errorf("reading host info: %w", err)
	}
	return OS{
		Name:            info.OS,
		Release:         info.KernelVersion,
		Platform:        info.Platform,
		PlatformVersion: info.PlatformVersion,
	}, nil
}
