package fec

// LinearCombination computes Σ coeffs[i]·vectors[i] over GF(256). Every
// input vector is conceptually left-padded with zeros to the length of
// the longest one before the combination runs, so the result aligns on
// its trailing bytes regardless of how the inputs vary in length.
func LinearCombination(vectors [][]byte, coeffs []byte) []byte {
	maxLen := 0
	for _, v := range vectors {
		if len(v) > maxLen {
			maxLen = len(v)
		}
	}

	res := make([]byte, maxLen)
	for i, v := range vectors {
		c := coeffs[i]
		if c == 0 {
			continue
		}
		offset := maxLen - len(v)
		for j, b := range v {
			res[offset+j] ^= Mul(c, b)
		}
	}
	return res
}
