package fec

import (
	"bytes"
	"testing"
)

// encodeSeven runs seven packets (100 bytes each, byte value == 1 +
// packet number so payloads read P1..P7) through a real Encoder,
// packet numbers starting at 0 as QUIC numbers its first packet, and
// returns the resulting repair symbols alongside the original
// payloads. The recoverer tests below exercise coefficients the
// encoder itself generated rather than hand-derived ones.
func encodeSeven(t *testing.T) (payloads map[uint64][]byte, repairs []RepairSymbol) {
	t.Helper()
	enc := NewEncoder(DefaultConfig())
	fb := &fakeBuilder{}
	payloads = make(map[uint64][]byte)

	for pn := uint64(0); pn < 7; pn++ {
		p := payloadFor(byte(pn + 1))
		payloads[pn] = p
		fb.payload = p
		fb.pn = pn
		if err := enc.TryAddRepair(fb); err != nil {
			t.Fatalf("TryAddRepair(pn=%d): %v", pn, err)
		}
	}
	return payloads, fb.repairs
}

// TestEndToEndScenario reproduces the documented walkthrough: sender
// writes P1..P7 (packet numbers 0..6), repairs R1/R2 appear once the
// window fills at P5 (packet number 4), the receiver loses P2 and P4
// (packet numbers 1 and 3), and after delivering P1, P3, P5, R1, R2 in
// that order Recover must hand back P2 and P4 unchanged.
func TestEndToEndScenario(t *testing.T) {
	payloads, repairs := encodeSeven(t)
	if len(repairs) < 2 {
		t.Fatalf("expected at least 2 repair symbols, got %d", len(repairs))
	}
	r1, r2 := repairs[0], repairs[1]
	if r1.FSSESI != 4 || r1.NSS != 5 {
		t.Fatalf("unexpected first repair alignment: fss_esi=%d nss=%d", r1.FSSESI, r1.NSS)
	}

	rec := NewRecoverer(DefaultConfig())
	rec.AddSourceSymbol(SourceSymbol{PacketNumber: 0, Data: payloads[0]})
	rec.AddSourceSymbol(SourceSymbol{PacketNumber: 2, Data: payloads[2]})
	rec.AddSourceSymbol(SourceSymbol{PacketNumber: 4, Data: payloads[4]})
	if err := rec.AddRepairSymbol(r1); err != nil {
		t.Fatalf("AddRepairSymbol(r1): %v", err)
	}
	if err := rec.AddRepairSymbol(r2); err != nil {
		t.Fatalf("AddRepairSymbol(r2): %v", err)
	}

	recovered := rec.Recover()
	if len(recovered) != 2 {
		t.Fatalf("got %d recovered symbols, want 2", len(recovered))
	}

	byPN := make(map[uint64][]byte)
	for _, s := range recovered {
		byPN[s.PacketNumber] = s.Data
	}
	for _, pn := range []uint64{1, 3} {
		got, ok := byPN[pn]
		if !ok {
			t.Fatalf("Recover() did not return packet_number %d", pn)
		}
		want := payloads[pn]
		if !bytes.Equal(leftPad(got, len(want)), want) {
			t.Fatalf("recovered pn=%d = %x, want %x", pn, got, want)
		}
	}
}

func TestAddSourceSymbolDropsBeforeWindowStart(t *testing.T) {
	rec := NewRecoverer(DefaultConfig())
	rec.sourceStart = 10
	rec.AddSourceSymbol(SourceSymbol{PacketNumber: 3, Data: []byte{1}})
	for _, s := range rec.sources {
		if s != nil {
			t.Fatal("symbol before window start should have been dropped")
		}
	}
}

func TestAddSourceSymbolOverwritesDuplicate(t *testing.T) {
	rec := NewRecoverer(DefaultConfig())
	rec.AddSourceSymbol(SourceSymbol{PacketNumber: 0, Data: []byte{1}})
	rec.AddSourceSymbol(SourceSymbol{PacketNumber: 0, Data: []byte{2}})
	if rec.sources[0].Data[0] != 2 {
		t.Fatalf("duplicate add did not overwrite, got %v", rec.sources[0].Data)
	}
}

func TestAddRepairSymbolRejectsMalformed(t *testing.T) {
	rec := NewRecoverer(DefaultConfig())

	if err := rec.AddRepairSymbol(RepairSymbol{FSSESI: 5, NSS: 0, Data: []byte{1}}); err == nil {
		t.Error("nss=0 should be rejected")
	}
	if err := rec.AddRepairSymbol(RepairSymbol{FSSESI: 5, NSS: 200, Data: []byte{1}}); err == nil {
		t.Error("nss > EW_SIZE should be rejected")
	}
	if err := rec.AddRepairSymbol(RepairSymbol{FSSESI: 1, NSS: 5, Data: []byte{1}}); err == nil {
		t.Error("fss_esi - nss + 1 underflow should be rejected")
	}
}

func TestAddRepairSymbolEvictsOnAdvancingWindow(t *testing.T) {
	rec := NewRecoverer(DefaultConfig())
	rec.AddSourceSymbol(SourceSymbol{PacketNumber: 0, Data: []byte{0}})
	rec.AddSourceSymbol(SourceSymbol{PacketNumber: 1, Data: []byte{1}})

	if err := rec.AddRepairSymbol(RepairSymbol{FSSESI: 4, NSS: 5, RepairKey: 1, Data: []byte{9}}); err != nil {
		t.Fatal(err)
	}
	if err := rec.AddRepairSymbol(RepairSymbol{FSSESI: 4, NSS: 5, RepairKey: 2, Data: []byte{9}}); err != nil {
		t.Fatal(err)
	}
	if len(rec.repairs) != 2 {
		t.Fatalf("expected both same-alignment repairs retained, got %d", len(rec.repairs))
	}

	if err := rec.AddRepairSymbol(RepairSymbol{FSSESI: 9, NSS: 5, RepairKey: 3, Data: []byte{9}}); err != nil {
		t.Fatal(err)
	}
	if len(rec.repairs) != 1 {
		t.Fatalf("advancing repair symbol should evict prior repairs, got %d remaining", len(rec.repairs))
	}
	if rec.sourceStart != 5 {
		t.Fatalf("source window should shift to new start 5, got %d", rec.sourceStart)
	}
	for _, s := range rec.sources {
		if s != nil {
			t.Fatal("evicted source window should have dropped earlier-than-new-start entries")
		}
	}
}

func TestRecoverReturnsNilWhenNothingMissing(t *testing.T) {
	rec := NewRecoverer(DefaultConfig())
	for pn := uint64(0); pn < 5; pn++ {
		rec.AddSourceSymbol(SourceSymbol{PacketNumber: pn, Data: payloadFor(byte(pn))})
	}
	if err := rec.AddRepairSymbol(RepairSymbol{FSSESI: 4, NSS: 5, RepairKey: 0, Data: payloadFor(99)}); err != nil {
		t.Fatal(err)
	}
	if got := rec.Recover(); got != nil {
		t.Fatalf("Recover() = %v, want nil when no source symbols are missing", got)
	}
}

func TestRecoverFailsWhenLossExceedsRepairSymbols(t *testing.T) {
	payloads, repairs := encodeSeven(t)
	rec := NewRecoverer(DefaultConfig())
	// Only deliver P1 (packet number 0); lose the next four packet
	// numbers entirely (4 missing, only 2 repairs).
	rec.AddSourceSymbol(SourceSymbol{PacketNumber: 0, Data: payloads[0]})
	rec.AddRepairSymbol(repairs[0])
	rec.AddRepairSymbol(repairs[1])

	if got := rec.Recover(); got != nil {
		t.Fatalf("Recover() should fail over too much loss, got %v", got)
	}
}
