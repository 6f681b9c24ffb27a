package internal

import (
	"fmt"
	"os"
	"time"
)

// SLAExitCode определяет exit code на основе SLA проверок
type SLAExitCode int

const (
	ExitCodeSuccess         SLAExitCode = 0
	ExitCodeSLAFailure      SLAExitCode = 1
	ExitCodeCriticalFailure SLAExitCode = 2
)

// SLAViolationType определяет тип нарушения SLA
type SLAViolationType string

const (
	ViolationRTT        SLAViolationType = "rtt_p95"
	ViolationLoss       SLAViolationType = "packet_loss"
	ViolationThroughput SLAViolationType = "throughput"
	ViolationErrors     SLAViolationType = "errors"
)

// SLAViolationInfo описывает нарушение SLA
type SLAViolationInfo struct {
	Type     SLAViolationType `json:"type"`
	Expected interface{}      `json:"expected"`
	Actual   interface{}      `json:"actual"`
	Severity string           `json:"severity"`
	Message  string           `json:"message"`
}

// CheckSLA проверяет соответствие метрик SLA требованиям
func CheckSLA(cfg TestConfig, metrics map[string]interface{}) (bool, []SLAViolationInfo, SLAExitCode) {
	var violations []SLAViolationInfo
	hasCriticalViolations := false

	if cfg.SlaRttP95 > 0 {
		rttP95 := getFloat64(metrics, "RTTP95Ms")
		actualRTT := time.Duration(rttP95 * float64(time.Millisecond))
		if actualRTT > cfg.SlaRttP95 {
			violations = append(violations, SLAViolationInfo{
				Type: ViolationRTT, Expected: cfg.SlaRttP95, Actual: actualRTT, Severity: "critical",
				Message: fmt.Sprintf("RTT p95 %v exceeds SLA limit %v", actualRTT, cfg.SlaRttP95),
			})
			hasCriticalViolations = true
		}
	}

	if cfg.SlaLoss > 0 {
		packetLoss := getFloat64(metrics, "PacketLoss")
		if packetLoss > cfg.SlaLoss {
			violations = append(violations, SLAViolationInfo{
				Type: ViolationLoss, Expected: cfg.SlaLoss, Actual: packetLoss, Severity: "critical",
				Message: fmt.Sprintf("Packet loss %.2f%% exceeds SLA limit %.2f%%", packetLoss*100, cfg.SlaLoss*100),
			})
			hasCriticalViolations = true
		}
	}

	if cfg.SlaThroughput > 0 {
		throughput := getFloat64(metrics, "ThroughputMbps")
		if throughput < cfg.SlaThroughput {
			violations = append(violations, SLAViolationInfo{
				Type: ViolationThroughput, Expected: cfg.SlaThroughput, Actual: throughput, Severity: "critical",
				Message: fmt.Sprintf("Throughput %.2f Mbps below SLA limit %.2f Mbps", throughput, cfg.SlaThroughput),
			})
			hasCriticalViolations = true
		}
	}

	if cfg.SlaErrors > 0 {
		errs := getInt64(metrics, "Errors")
		if errs > cfg.SlaErrors {
			violations = append(violations, SLAViolationInfo{
				Type: ViolationErrors, Expected: cfg.SlaErrors, Actual: errs, Severity: "critical",
				Message: fmt.Sprintf("Error count %d exceeds SLA limit %d", errs, cfg.SlaErrors),
			})
			hasCriticalViolations = true
		}
	}

	var exitCode SLAExitCode
	switch {
	case len(violations) == 0:
		exitCode = ExitCodeSuccess
	case hasCriticalViolations:
		exitCode = ExitCodeCriticalFailure
	default:
		exitCode = ExitCodeSLAFailure
	}

	return len(violations) == 0, violations, exitCode
}

// ExitWithSLA проверяет SLA и завершает программу с соответствующим exit code
func ExitWithSLA(cfg TestConfig, metrics map[string]interface{}) {
	passed, violations, exitCode := CheckSLA(cfg, metrics)

	if !passed {
		fmt.Printf("\n❌ SLA проверки не пройдены:\n")
		for _, v := range violations {
			fmt.Printf("  - %s: %s\n", v.Type, v.Message)
		}
	} else {
		fmt.Printf("\n✅ Все SLA проверки пройдены успешно\n")
	}

	os.Exit(int(exitCode))
}

// PrintSLAConfig выводит информацию о настроенных SLA параметрах
func PrintSLAConfig(cfg TestConfig) {
	if cfg.SlaRttP95 == 0 && cfg.SlaLoss == 0 && cfg.SlaThroughput == 0 && cfg.SlaErrors == 0 {
		return
	}
	fmt.Printf("🎯 SLA Configuration:\n")
	if cfg.SlaRttP95 > 0 {
		fmt.Printf("  - RTT p95 limit: %v\n", cfg.SlaRttP95)
	}
	if cfg.SlaLoss > 0 {
		fmt.Printf("  - Packet loss limit: %.2f%%\n", cfg.SlaLoss*100)
	}
	if cfg.SlaThroughput > 0 {
		fmt.Printf("  - Throughput limit: %.2f Mbps\n", cfg.SlaThroughput)
	}
	if cfg.SlaErrors > 0 {
		fmt.Printf("  - Error count limit: %d\n", cfg.SlaErrors)
	}
	fmt.Println()
}

func getFloat64(m map[string]interface{}, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

func getInt64(m map[string]interface{}, key string) int64 {
	switch v := m[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}
