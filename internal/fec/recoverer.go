package fec

import "github.com/prometheus/client_golang/prometheus"

// Recoverer buffers received source and repair symbols and reconstructs
// lost source payloads once enough repair symbols cover the current gap.
// Like Encoder it is single-threaded cooperative; repair additions must
// be fed in arrival order since the eviction rule depends on seeing the
// newest repair symbol to advance the window.
type Recoverer struct {
	cfg Config

	sourceStart uint64
	sources     []*SourceSymbol // sparse; nil marks an empty slot
	repairs     []RepairSymbol

	metrics *RecovererMetrics
}

// NewRecoverer builds a recoverer with unregistered metrics.
func NewRecoverer(cfg Config) *Recoverer {
	return NewRecovererWithRegistry(cfg, nil)
}

// NewRecovererWithRegistry builds a recoverer whose Prometheus counters
// are registered against reg.
func NewRecovererWithRegistry(cfg Config, reg prometheus.Registerer) *Recoverer {
	cfg = cfg.withDefaults()
	return &Recoverer{cfg: cfg, metrics: NewRecovererMetrics(reg)}
}

// AddSourceSymbol records a received source payload at its packet-number
// slot. Symbols before the current window start are dropped;
// duplicates at an already-filled slot simply overwrite it.
func (r *Recoverer) AddSourceSymbol(s SourceSymbol) {
	if s.PacketNumber < r.sourceStart {
		return
	}
	pos := int(s.PacketNumber - r.sourceStart)
	if pos >= len(r.sources) {
		grown := make([]*SourceSymbol, pos+1)
		copy(grown, r.sources)
		r.sources = grown
	}

	cp := s
	cp.Data = append([]byte(nil), s.Data...)
	r.sources[pos] = &cp
	r.metrics.SourcesAdded.Inc()
}

// AddRepairSymbol records a received repair symbol. An advancing repair
// symbol — one with a strictly greater fss_esi, or whose implied window
// start moves past the current one — evicts every stored repair symbol
// and shifts the source buffer forward to match (invariant I2).
func (r *Recoverer) AddRepairSymbol(s RepairSymbol) error {
	if s.NSS == 0 || int(s.NSS) > r.cfg.WindowSize {
		r.metrics.MalformedRepairSymbols.Inc()
		return ErrMalformedRepairSymbol
	}
	if s.FSSESI+1 < uint64(s.NSS) {
		// fss_esi - nss + 1 would underflow.
		r.metrics.MalformedRepairSymbols.Inc()
		return ErrMalformedRepairSymbol
	}

	newStart := s.sourceStart()
	if len(r.repairs) > 0 && (s.FSSESI > r.repairs[0].FSSESI || newStart > r.sourceStart) {
		r.repairs = r.repairs[:0]

		move := int(newStart - r.sourceStart)
		switch {
		case move <= 0:
			// newStart only advanced via fss_esi; the source window
			// itself hasn't moved.
		case move < len(r.sources):
			r.sources = append(r.sources[:0], r.sources[move:]...)
		default:
			r.sources = r.sources[:0]
		}
		r.sourceStart = newStart
		r.metrics.WindowShifts.Inc()
	}

	cp := s
	cp.Data = append([]byte(nil), s.Data...)
	r.repairs = append(r.repairs, cp)
	r.metrics.RepairsAdded.Inc()
	return nil
}

// Recover attempts to reconstruct any source payloads still missing from
// the current window using the buffered repair symbols. It returns nil
// when there is nothing to do, the loss exceeds what the available
// repair symbols can cover, or the reduced system turns out singular.
// On success the recovered symbols are written back into the receive
// window and returned, ready to be re-injected into the packet pipeline
// as if they had just arrived.
func (r *Recoverer) Recover() []SourceSymbol {
	if len(r.repairs) == 0 {
		return nil
	}

	nss := int(r.repairs[0].NSS)
	if nss > len(r.sources) {
		grown := make([]*SourceSymbol, nss)
		copy(grown, r.sources)
		r.sources = grown
	}
	window := r.sources[:nss]

	var missing, receivedIdx []int
	for i, s := range window {
		if s == nil {
			missing = append(missing, i)
		} else {
			receivedIdx = append(receivedIdx, i)
		}
	}

	if len(missing) == 0 {
		return nil
	}
	if len(missing) > len(r.repairs) {
		r.metrics.RecoveryFailedOverloss.Inc()
		return nil
	}

	repairSymbols := r.repairs[:len(missing)]

	repairData := make([][]byte, len(repairSymbols))
	receivedData := make([][]byte, len(receivedIdx))
	for i, idx := range receivedIdx {
		receivedData[i] = window[idx].Data
	}

	receivedCoeffs := make([][]byte, len(repairSymbols))
	lostCoeffs := make([][]byte, len(repairSymbols))
	for i, rs := range repairSymbols {
		repairData[i] = rs.Data

		coeffs := GenerateCodingCoefficients(rs.RepairKey, nss, r.cfg.MaxDensity)
		rc := make([]byte, 0, len(receivedIdx))
		lc := make([]byte, 0, len(missing))
		for j, c := range coeffs {
			if window[j] != nil {
				rc = append(rc, c)
			} else {
				lc = append(lc, c)
			}
		}
		receivedCoeffs[i] = rc
		lostCoeffs[i] = lc
	}

	recovered, ok := solveSystem(repairData, receivedData, receivedCoeffs, lostCoeffs)
	if !ok {
		r.metrics.RecoveryFailedSingular.Inc()
		return nil
	}

	out := make([]SourceSymbol, len(missing))
	for k, idx := range missing {
		sym := SourceSymbol{PacketNumber: uint64(idx) + r.sourceStart, Data: recovered[k]}
		r.sources[idx] = &sym
		out[k] = sym
	}
	r.metrics.RecoverySuccess.Inc()
	return out
}
