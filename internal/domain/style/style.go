// Package style strips in-game text formatting codes from display names.
//
// Formatting codes start with '$' and are followed by either up to three hex
// digits (a colour), a single style letter, or a link opener with an
// optional "[target]" suffix. "$$" is an escaped dollar sign.
package style

import (
	"strings"
	"unicode/utf8"
)

const codeMarker = '$'

// Strip removes every formatting code from text and unescapes "$$".
// Link codes are removed but the linked text is kept.
func Strip(text string) string {
	if strings.IndexByte(text, codeMarker) < 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))

	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != codeMarker {
			b.WriteByte(c)
			continue
		}

		// Lone trailing marker.
		if i+1 >= len(text) {
			break
		}

		next := text[i+1]
		switch {
		case next == codeMarker:
			b.WriteByte(codeMarker)
			i++
		case isHex(next):
			i += hexRun(text[i+1:])
		case isLink(next):
			i++
			if i+1 < len(text) && text[i+1] == '[' {
				if end := strings.IndexByte(text[i+1:], ']'); end >= 0 {
					i += end + 1
				}
			}
		default:
			// Style letters and unknown codes take one character, which may
			// be multi-byte.
			_, width := utf8.DecodeRuneInString(text[i+1:])
			i += width
		}
	}

	return b.String()
}

// hexRun returns how many leading bytes of s belong to a colour code.
func hexRun(s string) int {
	n := 0
	for n < 3 && n < len(s) && isHex(s[n]) {
		n++
	}
	return n
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isLink(c byte) bool {
	switch c {
	case 'l', 'L', 'h', 'H', 'p', 'P':
		return true
	}
	return false
}
