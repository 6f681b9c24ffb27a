package fec

import "testing"

// buildRepair constructs the payload a repair symbol with the given
// coefficients would carry over window, mirroring what LinearCombination
// does inside the real encoder.
func buildRepair(window [][]byte, coeffs []byte) []byte {
	return LinearCombination(window, coeffs)
}

func TestSolveSystemRecoversAllMissing(t *testing.T) {
	window := [][]byte{
		{0x05}, {0x09}, {0x7F}, {0x00}, {0x42},
	}
	keys := []byte{11, 93}
	missing := []int{1, 3} // lose window[1] and window[3]
	received := []int{0, 2, 4}

	repairData := make([][]byte, len(keys))
	receivedCoeffs := make([][]byte, len(keys))
	lostCoeffs := make([][]byte, len(keys))
	for i, key := range keys {
		coeffs := GenerateCodingCoefficients(key, len(window), MaxDensity)
		repairData[i] = buildRepair(window, coeffs)

		var rc, lc []byte
		for j, c := range coeffs {
			found := false
			for _, m := range missing {
				if m == j {
					found = true
					break
				}
			}
			if found {
				lc = append(lc, c)
			} else {
				rc = append(rc, c)
			}
		}
		receivedCoeffs[i] = rc
		lostCoeffs[i] = lc
	}

	receivedData := make([][]byte, len(received))
	for i, idx := range received {
		receivedData[i] = window[idx]
	}

	recovered, ok := solveSystem(repairData, receivedData, receivedCoeffs, lostCoeffs)
	if !ok {
		t.Fatal("solveSystem reported singular for a well-formed system")
	}
	if len(recovered) != len(missing) {
		t.Fatalf("got %d recovered payloads, want %d", len(recovered), len(missing))
	}
	for k, idx := range missing {
		want := leftPad(window[idx], len(recovered[k]))
		got := leftPad(recovered[k], len(want))
		if string(got) != string(want) {
			t.Fatalf("recovered[%d] = %x, want %x (original window[%d])", k, got, want, idx)
		}
	}
}

func TestSolveSystemSingularWhenCoefficientsDependent(t *testing.T) {
	// Two repair symbols with identical coefficient rows over the lost
	// columns can never disambiguate two unknowns.
	lostCoeffs := [][]byte{{1, 2}, {1, 2}}
	receivedCoeffs := [][]byte{{}, {}}
	repairData := [][]byte{{0x10}, {0x20}}
	receivedData := [][]byte{}

	_, ok := solveSystem(repairData, receivedData, receivedCoeffs, lostCoeffs)
	if ok {
		t.Fatal("solveSystem should report singular for dependent rows")
	}
}

func TestSolveSystemSinglePayload(t *testing.T) {
	window := [][]byte{{0xAB}}
	coeffs := GenerateCodingCoefficients(3, 1, MaxDensity)
	repairData := [][]byte{buildRepair(window, coeffs)}
	receivedData := [][]byte{}
	receivedCoeffs := [][]byte{{}}
	lostCoeffs := [][]byte{coeffs}

	recovered, ok := solveSystem(repairData, receivedData, receivedCoeffs, lostCoeffs)
	if !ok {
		t.Fatal("single-unknown system unexpectedly singular")
	}
	if recovered[0][0] != window[0][0] {
		t.Fatalf("recovered = %x, want %x", recovered[0], window[0])
	}
}
