package fec

import "github.com/prometheus/client_golang/prometheus"

// Builder is the narrow surface the encoder needs from the packet
// builder: the plaintext payload and packet number of the short-header
// packet just finalised, plus a way to emit a repair packet built from a
// computed payload. A nil payload means there is no data packet to
// report; a repeat of the last packet number the encoder took is
// ignored, so a packet reported twice in a row enters the window once.
type Builder interface {
	CurrentShortHeaderPacketPayload() []byte
	CurrentShortHeaderPacketNum() uint64
	BuildRepairPacket(fssESI uint64, nss byte, repairKey byte, payload []byte) error
}

// Encoder maintains the sender's sliding window of recent source payloads
// and decides when to emit repair packets. It is single-threaded
// cooperative: every call runs to completion with no suspension points,
// colocated with the connection's packet-building loop.
type Encoder struct {
	cfg Config

	window    [][]byte
	hasLast   bool
	lastPN    uint64
	srcCount  int
	repairKey byte

	metrics *EncoderMetrics
}

// NewEncoder builds an encoder with unregistered metrics; convenient for
// tests and for encoders that share a connection-wide registry elsewhere.
func NewEncoder(cfg Config) *Encoder {
	return NewEncoderWithRegistry(cfg, nil)
}

// NewEncoderWithRegistry builds an encoder whose Prometheus counters are
// registered against reg.
func NewEncoderWithRegistry(cfg Config, reg prometheus.Registerer) *Encoder {
	cfg = cfg.withDefaults()
	return &Encoder{
		cfg:     cfg,
		window:  make([][]byte, 0, cfg.WindowSize),
		metrics: NewEncoderMetrics(reg),
	}
}

// TryAddRepair should be called once after every short-header packet is
// finalised. It admits the packet's payload into the window and, once the
// window is full and enough packets have passed since the last emission,
// asks the builder to emit NumRepair repair packets.
func (e *Encoder) TryAddRepair(b Builder) error {
	payload := b.CurrentShortHeaderPacketPayload()
	if payload == nil {
		return nil
	}

	pn := b.CurrentShortHeaderPacketNum()
	if e.hasLast && pn == e.lastPN {
		// Already processed this packet; guards against double-calls
		// from the same finalised packet.
		return nil
	}

	cp := append([]byte(nil), payload...)
	e.window = append(e.window, cp)
	if len(e.window) > e.cfg.WindowSize {
		e.window = append(e.window[:0], e.window[1:]...)
	}
	e.lastPN = pn
	e.hasLast = true
	e.srcCount++
	e.metrics.SourcesWindowed.Inc()

	if len(e.window) != e.cfg.WindowSize || e.srcCount < e.cfg.Pace {
		return nil
	}
	e.srcCount = 0

	nss := byte(len(e.window))
	for i := 0; i < e.cfg.NumRepair; i++ {
		repairKey := e.repairKey
		e.repairKey++ // cycles mod 256 via uint8 wraparound

		coeffs := GenerateCodingCoefficients(repairKey, len(e.window), e.cfg.MaxDensity)
		payload := LinearCombination(e.window, coeffs)

		if err := b.BuildRepairPacket(e.lastPN, nss, repairKey, payload); err != nil {
			return err
		}
		e.metrics.RepairsEmitted.Inc()
	}
	return nil
}
