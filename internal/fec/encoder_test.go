package fec

import "testing"

// fakeBuilder is a minimal Builder for exercising the encoder without a
// real packet-builder/QUIC stack: TryAddRepair only needs the payload
// and packet number of the packet just finalised, plus somewhere to
// record the repair packets it asks for.
type fakeBuilder struct {
	payload []byte
	pn      uint64

	repairs []RepairSymbol
}

func (f *fakeBuilder) CurrentShortHeaderPacketPayload() []byte { return f.payload }
func (f *fakeBuilder) CurrentShortHeaderPacketNum() uint64     { return f.pn }

func (f *fakeBuilder) BuildRepairPacket(fssESI uint64, nss, repairKey byte, payload []byte) error {
	f.repairs = append(f.repairs, RepairSymbol{FSSESI: fssESI, NSS: nss, RepairKey: repairKey, Data: payload})
	return nil
}

func payloadFor(n byte) []byte {
	p := make([]byte, 100)
	for i := range p {
		p[i] = n
	}
	return p
}

func TestEncoderEmitsAfterWindowFillsAndPaceElapses(t *testing.T) {
	enc := NewEncoder(DefaultConfig())
	fb := &fakeBuilder{}

	for pn := uint64(1); pn <= 4; pn++ {
		fb.payload = payloadFor(byte(pn))
		fb.pn = pn
		if err := enc.TryAddRepair(fb); err != nil {
			t.Fatalf("TryAddRepair(pn=%d): %v", pn, err)
		}
		if len(fb.repairs) != 0 {
			t.Fatalf("unexpected repair emission before window fills (pn=%d)", pn)
		}
	}

	fb.payload = payloadFor(5)
	fb.pn = 5
	if err := enc.TryAddRepair(fb); err != nil {
		t.Fatalf("TryAddRepair(pn=5): %v", err)
	}

	if len(fb.repairs) != 2 {
		t.Fatalf("got %d repair packets after P5, want 2 (NUM_REPAIR)", len(fb.repairs))
	}
	for i, r := range fb.repairs {
		if r.NSS != 5 {
			t.Errorf("repair %d: nss = %d, want 5", i, r.NSS)
		}
		if r.FSSESI != 5 {
			t.Errorf("repair %d: fss_esi = %d, want 5", i, r.FSSESI)
		}
	}
	if fb.repairs[0].RepairKey == fb.repairs[1].RepairKey {
		t.Error("both repair symbols in the same batch share a repair_key")
	}
}

func TestEncoderNoDoubleEmissionForSamePacketNumber(t *testing.T) {
	enc := NewEncoder(DefaultConfig())
	fb := &fakeBuilder{}

	for pn := uint64(1); pn <= 5; pn++ {
		fb.payload = payloadFor(byte(pn))
		fb.pn = pn
		if err := enc.TryAddRepair(fb); err != nil {
			t.Fatal(err)
		}
	}
	firstBatch := len(fb.repairs)
	if firstBatch == 0 {
		t.Fatal("expected a repair batch after P5")
	}

	// Call again with the identical packet number; must not re-admit P5
	// or trigger a second batch.
	if err := enc.TryAddRepair(fb); err != nil {
		t.Fatal(err)
	}
	if len(fb.repairs) != firstBatch {
		t.Fatalf("calling TryAddRepair twice with the same packet number enqueued extra repairs: %d -> %d", firstBatch, len(fb.repairs))
	}
}

func TestEncoderSkipsNilPayload(t *testing.T) {
	enc := NewEncoder(DefaultConfig())
	fb := &fakeBuilder{payload: nil, pn: 1}
	if err := enc.TryAddRepair(fb); err != nil {
		t.Fatal(err)
	}
	if len(enc.window) != 0 {
		t.Fatal("nil payload should not enter the window")
	}
}

func TestEncoderWindowBoundedAtConfiguredSize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WindowSize = 3
	cfg.Pace = 100 // never trigger emission, just watch the window
	enc := NewEncoder(cfg)
	fb := &fakeBuilder{}

	for pn := uint64(1); pn <= 10; pn++ {
		fb.payload = payloadFor(byte(pn))
		fb.pn = pn
		if err := enc.TryAddRepair(fb); err != nil {
			t.Fatal(err)
		}
		if len(enc.window) > cfg.WindowSize {
			t.Fatalf("window grew past WindowSize: %d > %d", len(enc.window), cfg.WindowSize)
		}
	}
}
