package fec

// Arithmetic in GF(2^8) under the AES reduction polynomial
// x^8 + x^4 + x^3 + x + 1 (0x11B). Addition is XOR, so Add and Sub are the
// same operation; the solver leans on that fact. Multiplication and
// inversion resolve through tables built once at init time from an
// exp/log pair, the same construction Reed-Solomon codecs use over this
// field.

var (
	gf256ExpTable [510]byte
	gf256LogTable [256]byte
	gf256MulTable [256][256]byte
	gf256InvTable [256]byte
)

func init() {
	x := byte(1)
	for i := 0; i < 255; i++ {
		gf256ExpTable[i] = x
		gf256LogTable[x] = byte(i)

		// Step by the generator 3 (x+1): x*3 = (x*2) ^ x. The element 2
		// only has order 51 under 0x11B, so it cannot generate the field.
		hiBitSet := x & 0x80
		x2 := x << 1
		if hiBitSet != 0 {
			x2 ^= 0x1B
		}
		x ^= x2
	}
	for i := 255; i < 510; i++ {
		gf256ExpTable[i] = gf256ExpTable[i-255]
	}

	for a := 0; a < 256; a++ {
		for b := 0; b < 256; b++ {
			gf256MulTable[a][b] = gf256MulSlow(byte(a), byte(b))
		}
	}

	for a := 1; a < 256; a++ {
		gf256InvTable[a] = gf256ExpTable[255-int(gf256LogTable[byte(a)])]
	}
}

func gf256MulSlow(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}
	return gf256ExpTable[int(gf256LogTable[a])+int(gf256LogTable[b])]
}

// Add returns a+b in GF(256), which is just XOR.
func Add(a, b byte) byte { return a ^ b }

// Sub returns a-b in GF(256); identical to Add since the field has
// characteristic 2.
func Sub(a, b byte) byte { return a ^ b }

// Mul returns a*b in GF(256) via the precomputed multiplication table.
func Mul(a, b byte) byte { return gf256MulTable[a][b] }

// Inv returns the multiplicative inverse of a. Dividing by zero is a
// programmer error and Inv(0) aborts, matching the GF(256) contract that
// all operations besides division by zero are total.
func Inv(a byte) byte {
	if a == 0 {
		panic("fec: GF(256) inverse of zero")
	}
	return gf256InvTable[a]
}

// Div returns a/b in GF(256). Dividing by zero aborts.
func Div(a, b byte) byte {
	if b == 0 {
		panic("fec: GF(256) division by zero")
	}
	return gf256MulTable[a][gf256InvTable[b]]
}

// VectorAdd returns a+b elementwise. When the operands differ in length
// the result is truncated to the shorter of the two, matching the
// reference vector semantics.
func VectorAdd(a, b []byte) []byte {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = a[i] ^ b[i]
	}
	return out
}

// VectorSub is identical to VectorAdd in GF(256).
func VectorSub(a, b []byte) []byte { return VectorAdd(a, b) }

// VectorScale returns c*v elementwise; the result has the same length as v.
func VectorScale(v []byte, c byte) []byte {
	out := make([]byte, len(v))
	for i, n := range v {
		out[i] = Mul(c, n)
	}
	return out
}

// VectorDot returns the GF(256) dot product of a and b, over the shorter
// of the two lengths.
func VectorDot(a, b []byte) byte {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var res byte
	for i := 0; i < n; i++ {
		res ^= Mul(a[i], b[i])
	}
	return res
}

// VectorCompareAt compares a[i] and b[i] as plain byte values, returning
// -1, 0, or 1. This is the "lexicographic" pivot comparison the Gaussian
// solver uses: at a single index it reduces to ordinary byte comparison.
func VectorCompareAt(a, b []byte, i int) int {
	switch {
	case a[i] < b[i]:
		return -1
	case a[i] > b[i]:
		return 1
	default:
		return 0
	}
}

// leftPad returns v left-padded with zeros to length n. Left padding is
// the normative convention for aligning payloads of unequal length: it
// keeps the trailing (right-hand) bytes of every input anchored at the
// same offset, which is what lets recovered payloads line up with
// payloads that arrived at their natural length.
func leftPad(v []byte, n int) []byte {
	if len(v) >= n {
		return v
	}
	out := make([]byte, n)
	copy(out[n-len(v):], v)
	return out
}
