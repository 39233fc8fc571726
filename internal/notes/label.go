package notes

const (
	labelAlphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	maxLabelLength = 3
)

// ExhaustedLabel is returned when every code up to three characters is taken.
// Callers must tolerate the resulting duplicate.
const ExhaustedLabel = "ZZZ"

// NextLabel returns the first unused display code. Codes are enumerated by
// length (1, 2, 3) and, within a length, as fixed-width base-26 numerals where
// A=0 and Z=25, so length two runs AA, AB, ..., AZ, BA, ..., ZZ.
func NextLabel(existing []string) string {
	used := make(map[string]struct{}, len(existing))
	for _, l := range existing {
		if l != "" {
			used[l] = struct{}{}
		}
	}

	base := len(labelAlphabet)
	span := 1
	for length := 1; length <= maxLabelLength; length++ {
		span *= base
		for i := 0; i < span; i++ {
			label := encodeLabel(i, length)
			if _, taken := used[label]; !taken {
				return label
			}
		}
	}
	return ExhaustedLabel
}

func encodeLabel(n, length int) string {
	buf := make([]byte, length)
	for i := length - 1; i >= 0; i-- {
		buf[i] = labelAlphabet[n%len(labelAlphabet)]
		n /= len(labelAlphabet)
	}
	return string(buf)
}
