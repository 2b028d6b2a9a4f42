package logx

import "testing"

func TestMaskID(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":                   "sistema",
		"  ":                 "sistema",
		"5511":               "5511...",
		"5511999990000@c.us": "55119999...",
	}
	for in, want := range tests {
		if got := MaskID(in); got != want {
			t.Fatalf("MaskID(%q) = %q, want %q", in, got, want)
		}
	}
}
