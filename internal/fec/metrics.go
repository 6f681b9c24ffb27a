package fec

import "github.com/prometheus/client_golang/prometheus"

// EncoderMetrics exposes Prometheus counters for the sending side of the
// FEC window. A nil registry is fine for unit tests that construct many
// short-lived encoders: the counters still work, they are just never
// registered anywhere.
type EncoderMetrics struct {
	SourcesWindowed prometheus.Counter
	RepairsEmitted  prometheus.Counter
}

// NewEncoderMetrics builds encoder counters and registers them against
// reg when it is non-nil.
func NewEncoderMetrics(reg prometheus.Registerer) *EncoderMetrics {
	m := &EncoderMetrics{
		SourcesWindowed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fec_encoder_sources_windowed_total",
			Help: "Source payloads admitted into the FEC sliding window.",
		}),
		RepairsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fec_encoder_repairs_emitted_total",
			Help: "Repair packets emitted by the FEC encoder.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.SourcesWindowed, m.RepairsEmitted)
	}
	return m
}

// RecovererMetrics exposes Prometheus counters for the receiving side.
type RecovererMetrics struct {
	SourcesAdded            prometheus.Counter
	RepairsAdded            prometheus.Counter
	WindowShifts            prometheus.Counter
	MalformedRepairSymbols  prometheus.Counter
	RecoverySuccess         prometheus.Counter
	RecoveryFailedOverloss  prometheus.Counter
	RecoveryFailedSingular  prometheus.Counter
}

// NewRecovererMetrics builds recoverer counters and registers them
// against reg when it is non-nil.
func NewRecovererMetrics(reg prometheus.Registerer) *RecovererMetrics {
	m := &RecovererMetrics{
		SourcesAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fec_recoverer_sources_added_total",
			Help: "Source symbols offered to the FEC recoverer.",
		}),
		RepairsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fec_recoverer_repairs_added_total",
			Help: "Repair symbols offered to the FEC recoverer.",
		}),
		WindowShifts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fec_recoverer_window_shifts_total",
			Help: "Times an advancing repair symbol evicted the receive window.",
		}),
		MalformedRepairSymbols: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fec_recoverer_malformed_repair_symbols_total",
			Help: "Repair symbols dropped for failing basic sanity checks.",
		}),
		RecoverySuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fec_recoverer_recovery_success_total",
			Help: "Successful recovery attempts.",
		}),
		RecoveryFailedOverloss: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fec_recoverer_recovery_failed_overloss_total",
			Help: "Recovery attempts abandoned because losses exceeded available repair symbols.",
		}),
		RecoveryFailedSingular: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fec_recoverer_recovery_failed_singular_total",
			Help: "Recovery attempts abandoned because the reduced system was singular.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.SourcesAdded,
			m.RepairsAdded,
			m.WindowShifts,
			m.MalformedRepairSymbols,
			m.RecoverySuccess,
			m.RecoveryFailedOverloss,
			m.RecoveryFailedSingular,
		)
	}
	return m
}
