package fec

// solveSystem reduces the residual linear system left after subtracting
// every received source's contribution from the repair payloads, and
// returns the recovered lost payloads in the order implied by
// lostCoeffs/receivedCoeffs.
//
// repairData holds one payload per repair symbol used (already truncated
// to exactly len(lostCoeffs) rows by the caller); receivedData holds one
// payload per received source column. receivedCoeffs[i]/lostCoeffs[i] is
// the partition of repair symbol i's coefficient vector into the columns
// that are already known and the columns that are missing, preserving
// order.
//
// Returns ok=false when the reduced matrix turns out singular — a pivot
// step advanced the column without ever finding a non-zero entry for some
// row — in which case no payloads are returned and the caller must not
// publish anything from this attempt.
func solveSystem(repairData, receivedData, receivedCoeffs, lostCoeffs [][]byte) (recovered [][]byte, ok bool) {
	m := len(lostCoeffs)
	if m == 0 {
		return nil, false
	}

	maxLen := 0
	for _, v := range repairData {
		if len(v) > maxLen {
			maxLen = len(v)
		}
	}
	for _, v := range receivedData {
		if len(v) > maxLen {
			maxLen = len(v)
		}
	}

	// a holds the coefficient rows over the lost columns; b holds the
	// residual payload for each row after subtracting every received
	// source's scaled contribution from the repair payload.
	a := make([][]byte, m)
	b := make([][]byte, m)

	for i := 0; i < m; i++ {
		a[i] = append([]byte(nil), lostCoeffs[i]...)

		residual := leftPad(repairData[i], maxLen)
		residual = append([]byte(nil), residual...)
		for j, c := range receivedCoeffs[i] {
			if c == 0 {
				continue
			}
			src := leftPad(receivedData[j], maxLen)
			for k := 0; k < maxLen; k++ {
				residual[k] ^= Mul(c, src[k])
			}
		}
		b[i] = residual
	}

	r := 0
	for c := 0; r < m && c < m; {
		best := r
		for i := r + 1; i < m; i++ {
			if a[i][c] > a[best][c] {
				best = i
			}
		}
		a[r], a[best] = a[best], a[r]
		b[r], b[best] = b[best], b[r]

		if a[r][c] == 0 {
			c++
			continue
		}

		for i := r + 1; i < m; i++ {
			if a[i][c] == 0 {
				continue
			}
			f := Div(a[i][c], a[r][c])
			for j := c; j < m; j++ {
				a[i][j] ^= Mul(f, a[r][j])
			}
			for k := 0; k < maxLen; k++ {
				b[i][k] ^= Mul(f, b[r][k])
			}
		}
		r++
		c++
	}

	if r < m {
		return nil, false
	}

	for row := m - 1; row >= 0; row-- {
		for c := m - 1; c > row; c-- {
			if a[row][c] == 0 {
				continue
			}
			for k := 0; k < maxLen; k++ {
				b[row][k] ^= Mul(a[row][c], b[c][k])
			}
			a[row][c] = 0
		}
		inv := Inv(a[row][row])
		for k := 0; k < maxLen; k++ {
			b[row][k] = Mul(b[row][k], inv)
		}
		a[row][row] = 1
	}

	return b, true
}
