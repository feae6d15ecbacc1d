package core

// FoldByte lowercases a single ASCII byte. Bytes outside A-Z pass
// through unchanged. Folding is byte-wise so that byte positions stay
// stable between a string and its folded form, which the positional
// indexes rely on.
func FoldByte(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

// Fold lowercases a string byte-wise. It returns the input unchanged
// (without allocating) when no byte needs folding.
func Fold(s string) string {
	i := 0
	for i < len(s) {
		if b := s[i]; b >= 'A' && b <= 'Z' {
			break
		}
		i++
	}
	if i == len(s) {
		return s
	}
	out := []byte(s)
	for ; i < len(out); i++ {
		out[i] = FoldByte(out[i])
	}
	return string(out)
}
