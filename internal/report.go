package internal

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/fatih/color"
	"github.com/guptarohit/asciigraph"
	"github.com/olekukonko/tablewriter"
)

// latencySeries pulls the Value field out of a caller-supplied time
// series slice (client.TimePoint, which this package cannot import
// without a cycle) via reflection, since the metrics map only promises
// an any-typed value.
func latencySeries(v interface{}) []float64 {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil
	}
	out := make([]float64, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		field := rv.Index(i).FieldByName("Value")
		if !field.IsValid() || field.Kind() != reflect.Float64 {
			return nil
		}
		out = append(out, field.Float())
	}
	return out
}

// SaveReport сохраняет отчет по завершении теста в выбранном формате
func SaveReport(cfg TestConfig, metrics map[string]interface{}) error {
	format := strings.ToLower(cfg.ReportFormat)
	if format == "" {
		format = "md"
	}
	filename := cfg.ReportPath
	if filename == "" {
		filename = fmt.Sprintf("report.%s", format)
	}

	var data []byte
	var err error

	switch format {
	case "json":
		data, err = json.MarshalIndent(map[string]any{"params": cfg, "metrics": metrics}, "", "  ")
	case "csv":
		return saveCSV(filename, makeReportCSV(cfg, metrics))
	default:
		data = []byte(makeReportMarkdown(cfg, metrics))
	}
	if err != nil {
		return fmt.Errorf("ошибка формирования отчета: %w", err)
	}

	if err := os.WriteFile(filename, data, 0600); err != nil {
		return fmt.Errorf("ошибка сохранения отчета: %w", err)
	}
	color.Green("\n✓ Отчет сохранен: %s", filename)
	return nil
}

func makeReportCSV(cfg TestConfig, m map[string]interface{}) [][]string {
	return [][]string{
		{"param", "value"},
		{"mode", cfg.Mode},
		{"success", fmt.Sprintf("%v", m["Success"])},
		{"errors", fmt.Sprintf("%v", m["Errors"])},
		{"bytes_sent", fmt.Sprintf("%v", m["BytesSent"])},
		{"rtt_p50_ms", fmt.Sprintf("%v", m["RTTP50Ms"])},
		{"rtt_p95_ms", fmt.Sprintf("%v", m["RTTP95Ms"])},
		{"rtt_p99_ms", fmt.Sprintf("%v", m["RTTP99Ms"])},
		{"jitter_ms", fmt.Sprintf("%v", m["JitterMs"])},
		{"throughput_mbps", fmt.Sprintf("%v", m["ThroughputMbps"])},
		{"fec_sources_sent", fmt.Sprintf("%v", m["FECSourcesSent"])},
		{"fec_repairs_sent", fmt.Sprintf("%v", m["FECRepairsSent"])},
	}
}

func saveCSV(filename string, rows [][]string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if err := f.Close(); err != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, err)
		}
	}()

	table := tablewriter.NewWriter(os.Stdout)
	if len(rows) > 0 {
		header := make([]any, len(rows[0]))
		for i, v := range rows[0] {
			header[i] = v
		}
		table.Header(header...)
		for _, row := range rows[1:] {
			rowAny := make([]any, len(row))
			for i, v := range row {
				rowAny[i] = v
			}
			if err := table.Append(rowAny...); err != nil {
				fmt.Printf("Warning: failed to append row: %v\n", err)
			}
		}
		if err := table.Render(); err != nil {
			fmt.Printf("Warning: failed to render table: %v\n", err)
		}
	}

	w := csv.NewWriter(f)
	defer w.Flush()
	return w.WriteAll(rows)
}

func makeReportMarkdown(cfg TestConfig, m map[string]interface{}) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# quicfec test report\n\n**Параметры:** %+v\n\n**Метрики:**\n\n", cfg)
	fmt.Fprintf(&b, "- Success: %v\n- Errors: %v\n- BytesSent: %v\n", m["Success"], m["Errors"], m["BytesSent"])
	fmt.Fprintf(&b, "- RTT p50/p95/p99 (ms): %.2f / %.2f / %.2f\n", getFloat64(m, "RTTP50Ms"), getFloat64(m, "RTTP95Ms"), getFloat64(m, "RTTP99Ms"))
	fmt.Fprintf(&b, "- Jitter: %.2f ms\n", getFloat64(m, "JitterMs"))
	fmt.Fprintf(&b, "- Throughput: %.2f Mbps\n", getFloat64(m, "ThroughputMbps"))
	fmt.Fprintf(&b, "- TLSVersion: %v, CipherSuite: %v\n", m["TLSVersion"], m["CipherSuite"])
	fmt.Fprintf(&b, "- FEC sources sent: %v, repairs sent: %v\n", m["FECSourcesSent"], m["FECRepairsSent"])
	fmt.Fprintf(&b, "- ErrorTypeCounts: %v\n", m["ErrorTypeCounts"])

	if vals := latencySeries(m["TimeSeriesLatency"]); len(vals) > 0 {
		b.WriteString("\n## Latency over time (ASCII)\n\n```\n")
		b.WriteString(asciigraphPlot(vals, "Latency ms"))
		b.WriteString("\n```\n")
	}

	return b.String()
}

// asciigraphPlot создает ASCII график из данных
func asciigraphPlot(data []float64, caption string) string {
	if len(data) == 0 {
		return ""
	}
	maxPoints := 80
	step := 1
	if len(data) > maxPoints {
		step = len(data) / maxPoints
	}
	sampled := make([]float64, 0, maxPoints)
	for i := 0; i < len(data); i += step {
		sampled = append(sampled, data[i])
	}
	return asciigraph.Plot(sampled, asciigraph.Height(10), asciigraph.Width(70), asciigraph.Caption(caption))
}
