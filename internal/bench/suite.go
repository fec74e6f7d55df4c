package bench

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/signalnine/abebench/internal/result"
)

// Exporter receives the finished collection.
type Exporter interface {
	Export(result.Collection)
}

type ExporterFunc func(result.Collection)

func (f ExporterFunc) Export(c result.Collection) { f(c) }

// Suite runs one Case per payload size, sequentially, against a single
// capability setup.
type Suite struct {
	Capability Capability
	Case       *Case
	Out        io.Writer
	Logger     *slog.Logger
	Exporter   Exporter
}

var separator = strings.Repeat("-", 80)

// Run sets up the capability once and measures every size in order. A
// failing size is reported and skipped. The returned error is non-nil only
// when setup fails, in which case the collection is empty.
func (s *Suite) Run(ctx context.Context, sizes []int) (result.Collection, error) {
	logger := s.logger()
	out := s.out()
	results := make(result.Collection, 0, len(sizes))

	pp, msk, err := s.Capability.Setup()
	if err != nil {
		logger.ErrorContext(ctx, "capability setup failed", slog.String("error", err.Error()))
		s.export(results)
		return results, fmt.Errorf("capability setup: %w", err)
	}

	fmt.Fprintln(out, "=== ABE Performance Testing ===")
	fmt.Fprintf(out, "%-10s %-12s %-12s %-10s %-12s %-8s\n",
		"Data Size", "Operation", "Time (s)", "CPU (%)", "RAM (KB)", "Success")
	fmt.Fprintln(out, separator)

	for _, size := range sizes {
		fmt.Fprintf(out, "Testing %dKB data...\n", size)
		res, err := s.Case.Run(s.Capability, pp, msk, size)
		if err != nil {
			fmt.Fprintf(out, "Error testing %dKB: %v\n", size, err)
			logger.WarnContext(ctx, "case failed",
				slog.Int("size_kb", size),
				slog.String("error", err.Error()),
			)
			continue
		}
		results = append(results, res)
		writeProgress(out, res)
		logger.DebugContext(ctx, "case complete",
			slog.Int("size_kb", size),
			slog.Float64("enc_seconds", res.Encryption.Sample.ElapsedSeconds),
			slog.Float64("dec_seconds", res.Decryption.Sample.ElapsedSeconds),
			slog.Bool("success", res.Success),
		)
	}

	logger.InfoContext(ctx, "suite complete",
		slog.Int("requested", len(sizes)),
		slog.Int("succeeded", len(results)),
	)
	s.export(results)
	return results, nil
}

func (s *Suite) export(c result.Collection) {
	if s.Exporter != nil {
		s.Exporter.Export(c)
	}
}

func (s *Suite) out() io.Writer {
	if s.Out != nil {
		return s.Out
	}
	return io.Discard
}

func (s *Suite) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func writeProgress(w io.Writer, r result.CaseResult) {
	enc := r.Encryption.Sample
	dec := r.Decryption.Sample
	fmt.Fprintf(w, "%-10s %-12s %-12.6f %-10.2f %-12.2f %t\n",
		fmt.Sprintf("%dKB", r.PayloadSizeKB), "Encryption",
		enc.ElapsedSeconds, enc.CPUPercent, enc.MemoryKB, r.Success)
	fmt.Fprintf(w, "%-10s %-12s %-12.6f %-10.2f %-12.2f %t\n",
		"", "Decryption",
		dec.ElapsedSeconds, dec.CPUPercent, dec.MemoryKB, r.Success)
	fmt.Fprintln(w, separator)
}

// WriteSummary lists per-size encryption and decryption seconds.
func WriteSummary(w io.Writer, c result.Collection) {
	fmt.Fprintln(w, "\n=== Summary Statistics ===")
	if len(c) == 0 {
		fmt.Fprintln(w, "No successful cases.")
		return
	}
	fmt.Fprintln(w, "Encryption/decryption time by data size:")
	for _, r := range c {
		fmt.Fprintf(w, "  %dKB: Enc=%.6fs, Dec=%.6fs\n",
			r.PayloadSizeKB, r.Encryption.Sample.ElapsedSeconds, r.Decryption.Sample.ElapsedSeconds)
	}
}
