package fec

import "testing"

func TestMulInverse(t *testing.T) {
	for a := 1; a < 256; a++ {
		inv := Inv(byte(a))
		if got := Mul(byte(a), inv); got != 1 {
			t.Fatalf("Mul(%d, Inv(%d)=%d) = %d, want 1", a, a, inv, got)
		}
	}
}

func TestMulZero(t *testing.T) {
	for a := 0; a < 256; a++ {
		if got := Mul(byte(a), 0); got != 0 {
			t.Errorf("Mul(%d, 0) = %d, want 0", a, got)
		}
		if got := Mul(0, byte(a)); got != 0 {
			t.Errorf("Mul(0, %d) = %d, want 0", a, got)
		}
	}
}

func TestMulCommutative(t *testing.T) {
	for a := 0; a < 256; a += 7 {
		for b := 0; b < 256; b += 11 {
			if Mul(byte(a), byte(b)) != Mul(byte(b), byte(a)) {
				t.Fatalf("Mul(%d,%d) != Mul(%d,%d)", a, b, b, a)
			}
		}
	}
}

func TestDivRoundTrip(t *testing.T) {
	for a := 0; a < 256; a++ {
		for b := 1; b < 256; b++ {
			prod := Mul(byte(a), byte(b))
			if got := Div(prod, byte(b)); got != byte(a) {
				t.Fatalf("Div(Mul(%d,%d)=%d, %d) = %d, want %d", a, b, prod, b, got, a)
			}
		}
	}
}

func TestInvZeroPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Inv(0) did not panic")
		}
	}()
	Inv(0)
}

func TestDivByZeroPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Div(x, 0) did not panic")
		}
	}()
	Div(5, 0)
}

func TestAddIsXor(t *testing.T) {
	if Add(0x53, 0xCA) != 0x53^0xCA {
		t.Fatal("Add is not XOR")
	}
	if Add(0x42, 0x42) != 0 {
		t.Fatal("a+a must be 0 in GF(256)")
	}
}

func TestVectorAddTruncatesToShorter(t *testing.T) {
	a := []byte{1, 2, 3, 4}
	b := []byte{9, 9}
	got := VectorAdd(a, b)
	want := []byte{1 ^ 9, 2 ^ 9}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("VectorAdd = %v, want %v", got, want)
	}
}

func TestVectorDot(t *testing.T) {
	a := []byte{1, 1}
	b := []byte{3, 5}
	want := Add(Mul(1, 3), Mul(1, 5))
	if got := VectorDot(a, b); got != want {
		t.Fatalf("VectorDot = %d, want %d", got, want)
	}
}

func TestLeftPad(t *testing.T) {
	got := leftPad([]byte{1, 2}, 5)
	want := []byte{0, 0, 0, 1, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("leftPad = %v, want %v", got, want)
		}
	}
	if got := leftPad([]byte{1, 2, 3}, 2); len(got) != 3 {
		t.Fatalf("leftPad should not truncate, got len %d", len(got))
	}
}
