// Package monitor samples CPU and resident memory of the current process
// around a single measured operation.
package monitor

import (
	"log/slog"
	"time"
)

// DefaultSettle is how long Start waits for the OS counters to accumulate a
// usable baseline.
const DefaultSettle = 10 * time.Millisecond

// Sampler reads OS counters. ProcessCPUPercent reports usage since its
// previous call, so every call resets the window.
type Sampler interface {
	ProcessCPUPercent() (float64, error)
	SystemCPUPercent() (float64, error)
	ProcessRSS() (uint64, error)
}

// Monitor holds the baseline for one measurement window. It must be queried
// at fixed points (Start, then CPUPercentIsolated) from a single goroutine;
// interleaved use corrupts the process CPU window.
type Monitor struct {
	sampler Sampler
	settle  time.Duration
	sleep   func(time.Duration)
	logger  *slog.Logger

	systemBefore reading
	hasBaseline  bool
}

type Option func(*Monitor)

func WithSettle(d time.Duration) Option {
	return func(m *Monitor) { m.settle = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) { m.logger = l }
}

// New builds a monitor and primes the process CPU counter so the first
// Start does not read a cold counter.
func New(s Sampler, opts ...Option) *Monitor {
	m := &Monitor{
		sampler: s,
		settle:  DefaultSettle,
		sleep:   time.Sleep,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if _, err := s.ProcessCPUPercent(); err != nil {
		m.logger.Debug("priming process cpu counter failed", slog.String("error", err.Error()))
	}
	return m
}

// Start resets the process CPU window, captures the system CPU baseline and
// blocks for the settle delay.
func (m *Monitor) Start() {
	if _, err := m.sampler.ProcessCPUPercent(); err != nil {
		m.logger.Debug("resetting process cpu window failed", slog.String("error", err.Error()))
	}
	m.systemBefore = m.systemReading()
	m.hasBaseline = true
	if m.settle > 0 {
		m.sleep(m.settle)
	}
}

// CPUPercentIsolated returns the CPU consumed since Start, in [0, 100].
func (m *Monitor) CPUPercentIsolated() float64 {
	proc := reading{}
	if v, err := m.sampler.ProcessCPUPercent(); err != nil {
		m.logger.Debug("process cpu sample failed", slog.String("error", err.Error()))
	} else {
		proc = reading{value: v, ok: true}
	}
	after := m.systemReading()

	before := m.systemBefore
	if !m.hasBaseline {
		before = reading{}
	}
	return isolatedCPU(proc, before, after)
}

// MemoryKB returns the current resident set size in kilobytes, or 0 when
// the OS query fails.
func (m *Monitor) MemoryKB() float64 {
	rss, err := m.sampler.ProcessRSS()
	if err != nil {
		m.logger.Debug("rss sample failed", slog.String("error", err.Error()))
		return 0
	}
	return float64(rss) / 1024
}

func (m *Monitor) systemReading() reading {
	v, err := m.sampler.SystemCPUPercent()
	if err != nil {
		m.logger.Debug("system cpu sample failed", slog.String("error", err.Error()))
		return reading{}
	}
	return reading{value: v, ok: true}
}

type reading struct {
	value float64
	ok    bool
}

// isolatedCPU picks the CPU figure for a window: the process counter when it
// saw activity, else the system-wide delta, else zero.
func isolatedCPU(proc, systemBefore, systemAfter reading) float64 {
	switch {
	case proc.ok && proc.value > 0:
		return clampPercent(proc.value)
	case systemBefore.ok && systemAfter.ok:
		return clampPercent(systemAfter.value - systemBefore.value)
	default:
		return 0
	}
}

func clampPercent(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
