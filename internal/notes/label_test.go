package notes

import "testing"

func allLabels(maxLen int) []string {
	var out []string
	span := 1
	for length := 1; length <= maxLen; length++ {
		span *= 26
		for i := 0; i < span; i++ {
			out = append(out, encodeLabel(i, length))
		}
	}
	return out
}

func TestNextLabel(t *testing.T) {
	singles := allLabels(1)

	tests := []struct {
		name     string
		existing []string
		want     string
	}{
		{
			name:     "empty set",
			existing: nil,
			want:     "A",
		},
		{
			name:     "first gap",
			existing: []string{"A", "B", "D"},
			want:     "C",
		},
		{
			name:     "empty strings ignored",
			existing: []string{"", "A"},
			want:     "B",
		},
		{
			name:     "all single letters taken",
			existing: singles,
			want:     "AA",
		},
		{
			name:     "second length continues in numeral order",
			existing: append(append([]string{}, singles...), "AA", "AB"),
			want:     "AC",
		},
		{
			name:     "all one and two letter codes taken",
			existing: allLabels(2),
			want:     "AAA",
		},
		{
			name:     "whole space exhausted",
			existing: allLabels(3),
			want:     ExhaustedLabel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextLabel(tt.existing); got != tt.want {
				t.Errorf("NextLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncodeLabel(t *testing.T) {
	tests := []struct {
		n      int
		length int
		want   string
	}{
		{0, 1, "A"},
		{25, 1, "Z"},
		{0, 2, "AA"},
		{1, 2, "AB"},
		{26, 2, "BA"},
		{675, 2, "ZZ"},
		{0, 3, "AAA"},
		{17575, 3, "ZZZ"},
	}

	for _, tt := range tests {
		if got := encodeLabel(tt.n, tt.length); got != tt.want {
			t.Errorf("encodeLabel(%d, %d) = %q, want %q", tt.n, tt.length, got, tt.want)
		}
	}
}

func TestAllLabelsCount(t *testing.T) {
	if got := len(allLabels(3)); got != 18278 {
		t.Errorf("label space = %d, want 18278", got)
	}
}
