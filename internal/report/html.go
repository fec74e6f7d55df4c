package report

import (
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/signalnine/abebench/internal/result"
)

// WriteHTML renders latency and memory charts, one x-axis point per column.
func WriteHTML(label string, c result.Collection, w io.Writer) error {
	if label == "" {
		label = DefaultLabel
	}
	cols := make([]string, len(c))
	var (
		encMs, decMs []opts.LineData
		encKB, decKB []opts.BarData
	)
	for i, r := range c {
		cols[i] = ColumnLabel(r.PayloadSizeKB)
		encMs = append(encMs, opts.LineData{Value: r.Encryption.Sample.ElapsedSeconds * 1000})
		decMs = append(decMs, opts.LineData{Value: r.Decryption.Sample.ElapsedSeconds * 1000})
		encKB = append(encKB, opts.BarData{Value: r.Encryption.Sample.MemoryKB})
		decKB = append(decKB, opts.BarData{Value: r.Decryption.Sample.MemoryKB})
	}

	latency := charts.NewLine()
	latency.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    label + " operation latency",
			Subtitle: "single trial per payload size (ms)",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "ms"}),
	)
	latency.SetXAxis(cols).
		AddSeries("Encryption", encMs).
		AddSeries("Decryption", decMs)

	memory := charts.NewBar()
	memory.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    label + " memory delta",
			Subtitle: "resident set growth per operation (KB)",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "KB"}),
	)
	memory.SetXAxis(cols).
		AddSeries("Encryption", encKB).
		AddSeries("Decryption", decKB)

	page := components.NewPage()
	page.AddCharts(latency, memory)
	return page.Render(w)
}
