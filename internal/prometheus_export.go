package internal

import (
	"fmt"
	"os"
	"time"
)

// ExportPrometheusMetrics экспортирует метрики в Prometheus text exposition format
func ExportPrometheusMetrics(cfg TestConfig, metrics map[string]interface{}, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create prometheus file: %w", err)
	}
	defer file.Close()

	file.WriteString("# HELP quicfec_test_duration_seconds Test duration in seconds\n")
	file.WriteString("# TYPE quicfec_test_duration_seconds gauge\n")
	file.WriteString("# HELP quicfec_test_connections_total Number of connections\n")
	file.WriteString("# TYPE quicfec_test_connections_total gauge\n")
	file.WriteString("# HELP quicfec_test_bytes_sent_total Total bytes sent\n")
	file.WriteString("# TYPE quicfec_test_bytes_sent_total counter\n")
	file.WriteString("# HELP quicfec_test_errors_total Total errors\n")
	file.WriteString("# TYPE quicfec_test_errors_total counter\n")
	file.WriteString("# HELP quicfec_test_latency_p50_ms Latency p50 in milliseconds\n")
	file.WriteString("# TYPE quicfec_test_latency_p50_ms gauge\n")
	file.WriteString("# HELP quicfec_test_latency_p95_ms Latency p95 in milliseconds\n")
	file.WriteString("# TYPE quicfec_test_latency_p95_ms gauge\n")
	file.WriteString("# HELP quicfec_test_latency_p99_ms Latency p99 in milliseconds\n")
	file.WriteString("# TYPE quicfec_test_latency_p99_ms gauge\n")
	file.WriteString("# HELP quicfec_test_jitter_ms Jitter in milliseconds\n")
	file.WriteString("# TYPE quicfec_test_jitter_ms gauge\n")
	file.WriteString("# HELP quicfec_test_throughput_mbps Throughput in Mbps\n")
	file.WriteString("# TYPE quicfec_test_throughput_mbps gauge\n")
	file.WriteString("# HELP quicfec_test_fec_sources_sent_total Total FEC source datagrams sent\n")
	file.WriteString("# TYPE quicfec_test_fec_sources_sent_total counter\n")
	file.WriteString("# HELP quicfec_test_fec_repairs_sent_total Total FEC repair datagrams sent\n")
	file.WriteString("# TYPE quicfec_test_fec_repairs_sent_total counter\n")

	bytesSent := getInt64(metrics, "BytesSent")
	errs := getInt64(metrics, "Errors")

	durationSec := cfg.Duration.Seconds()
	if durationSec == 0 {
		durationSec = 60.0
	}

	rttP50 := getFloat64(metrics, "RTTP50Ms")
	rttP95 := getFloat64(metrics, "RTTP95Ms")
	rttP99 := getFloat64(metrics, "RTTP99Ms")
	jitter := getFloat64(metrics, "JitterMs")
	throughputMbps := getFloat64(metrics, "ThroughputMbps")
	fecSources := getInt64(metrics, "FECSourcesSent")
	fecRepairs := getInt64(metrics, "FECRepairsSent")

	file.WriteString(fmt.Sprintf("quicfec_test_duration_seconds{mode=\"%s\"} %.2f\n", cfg.Mode, durationSec))
	file.WriteString(fmt.Sprintf("quicfec_test_connections_total{mode=\"%s\"} %d\n", cfg.Mode, cfg.Connections))
	file.WriteString(fmt.Sprintf("quicfec_test_bytes_sent_total{mode=\"%s\"} %d\n", cfg.Mode, bytesSent))
	file.WriteString(fmt.Sprintf("quicfec_test_errors_total{mode=\"%s\"} %d\n", cfg.Mode, errs))
	file.WriteString(fmt.Sprintf("quicfec_test_latency_p50_ms{mode=\"%s\"} %.3f\n", cfg.Mode, rttP50))
	file.WriteString(fmt.Sprintf("quicfec_test_latency_p95_ms{mode=\"%s\"} %.3f\n", cfg.Mode, rttP95))
	file.WriteString(fmt.Sprintf("quicfec_test_latency_p99_ms{mode=\"%s\"} %.3f\n", cfg.Mode, rttP99))
	file.WriteString(fmt.Sprintf("quicfec_test_jitter_ms{mode=\"%s\"} %.3f\n", cfg.Mode, jitter))
	file.WriteString(fmt.Sprintf("quicfec_test_throughput_mbps{mode=\"%s\"} %.3f\n", cfg.Mode, throughputMbps))
	file.WriteString(fmt.Sprintf("quicfec_test_fec_sources_sent_total{mode=\"%s\"} %d\n", cfg.Mode, fecSources))
	file.WriteString(fmt.Sprintf("quicfec_test_fec_repairs_sent_total{mode=\"%s\"} %d\n", cfg.Mode, fecRepairs))

	file.WriteString(fmt.Sprintf("\n# Timestamp: %s\n", time.Now().Format(time.RFC3339)))

	return nil
}
