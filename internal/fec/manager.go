package fec

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Manager pairs an Encoder and a Recoverer under one roof for a single
// FEC packet flow (the client builds one per stream, the server one per
// connection), the way the connection state machine hosts both
// halves of the FEC subsystem side by side. It owns nothing the QUIC
// layer doesn't hand it: the packet builder supplies plaintext payloads
// and sends the frames this module produces, the decrypted-packet
// pipeline supplies source and repair symbols.
type Manager struct {
	logger    *zap.Logger
	Encoder   *Encoder
	Recoverer *Recoverer
}

// NewManager builds a Manager whose encoder and recoverer share cfg and
// register their metrics against reg (which may be nil).
func NewManager(logger *zap.Logger, cfg Config, reg prometheus.Registerer) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		logger:    logger,
		Encoder:   NewEncoderWithRegistry(cfg, reg),
		Recoverer: NewRecovererWithRegistry(cfg, reg),
	}
}

// OnSourcePacket should be invoked once per finalised short-header
// packet, handing the builder to the encoder so it can decide whether
// this is the moment to emit repair packets.
func (m *Manager) OnSourcePacket(b Builder) {
	if err := m.Encoder.TryAddRepair(b); err != nil {
		m.logger.Warn("fec: failed to build repair packet", zap.Error(err))
	}
}

// OnSourceSymbol feeds a decrypted short-header payload to the receiver
// side.
func (m *Manager) OnSourceSymbol(s SourceSymbol) {
	m.Recoverer.AddSourceSymbol(s)
}

// OnRepairSymbol feeds a decoded repair symbol to the receiver side.
// Malformed symbols are dropped and logged at debug level; nothing here
// is fatal to the connection.
func (m *Manager) OnRepairSymbol(s RepairSymbol) {
	if err := m.Recoverer.AddRepairSymbol(s); err != nil {
		m.logger.Debug("fec: dropped repair symbol", zap.Error(err), zap.Uint64("fss_esi", s.FSSESI))
	}
}

// Recover asks the recoverer to reconstruct any source payloads still
// missing from the current window. The QUIC layer should call this after
// every offered source or repair symbol and re-inject whatever comes
// back into the incoming-packet pipeline as if freshly decrypted.
func (m *Manager) Recover() []SourceSymbol {
	recovered := m.Recoverer.Recover()
	if len(recovered) > 0 {
		m.logger.Debug("fec: recovered source symbols", zap.Int("count", len(recovered)))
	}
	return recovered
}
