package report

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/signalnine/abebench/internal/result"
)

// WriteTextfile writes the collection in the Prometheus text exposition
// format for node_exporter's textfile collector. The column label keeps
// duplicate sizes apart.
func WriteTextfile(path string, c result.Collection) error {
	reg := prometheus.NewRegistry()
	labels := []string{"column", "size", "operation"}

	duration := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "abebench_operation_duration_seconds",
		Help: "Wall-clock time of one measured ABE operation.",
	}, labels)
	cpu := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "abebench_operation_cpu_percent",
		Help: "Isolated CPU utilization during one measured ABE operation.",
	}, labels)
	memory := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "abebench_operation_memory_kilobytes",
		Help: "Clamped resident memory delta of one measured ABE operation.",
	}, labels)
	success := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "abebench_case_success",
		Help: "1 when decryption recovered the encrypted value.",
	}, []string{"column", "size"})

	for _, col := range []prometheus.Collector{duration, cpu, memory, success} {
		if err := reg.Register(col); err != nil {
			return fmt.Errorf("registering metric: %w", err)
		}
	}

	for i, r := range c {
		column := strconv.Itoa(i)
		size := ColumnLabel(r.PayloadSizeKB)
		for op, s := range map[string]result.Sample{
			"encrypt": r.Encryption.Sample,
			"decrypt": r.Decryption.Sample,
		} {
			duration.WithLabelValues(column, size, op).Set(s.ElapsedSeconds)
			cpu.WithLabelValues(column, size, op).Set(s.CPUPercent)
			memory.WithLabelValues(column, size, op).Set(s.MemoryKB)
		}
		ok := 0.0
		if r.Success {
			ok = 1
		}
		success.WithLabelValues(column, size).Set(ok)
	}

	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("writing textfile %s: %w", path, err)
	}
	return nil
}
