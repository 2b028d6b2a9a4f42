package dispatch

import (
	"strings"
	"unicode"
)

const DefaultMaxInputLength = 500

const accented = "áéíóúãõâêîôûàèìòùçÁÉÍÓÚÃÕÂÊÎÔÛÀÈÌÒÙÇ"

// Sanitize trims raw, drops runes outside the allow-list, caps the result at
// max runes and trims again.
func Sanitize(raw string, max int) string {
	if max <= 0 {
		max = DefaultMaxInputLength
	}

	var b strings.Builder
	b.Grow(len(raw))
	n := 0
	for _, r := range strings.TrimSpace(raw) {
		if !allowed(r) {
			continue
		}
		if n == max {
			break
		}
		b.WriteRune(r)
		n++
	}
	return strings.TrimSpace(b.String())
}

func allowed(r rune) bool {
	switch {
	case r < unicode.MaxASCII:
		return r >= 'a' && r <= 'z' ||
			r >= 'A' && r <= 'Z' ||
			r >= '0' && r <= '9' ||
			r == '_' ||
			strings.ContainsRune("@.,!?-", r) ||
			unicode.IsSpace(r)
	case unicode.IsSpace(r):
		return true
	default:
		return strings.ContainsRune(accented, r)
	}
}
