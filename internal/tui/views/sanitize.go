package views

import (
	"strings"
	"unicode"
)

// sanitizeForTerminal drops control characters and the emoji modifiers tcell
// cannot lay out. Guest messages arrive from OTA channels unfiltered.
func sanitizeForTerminal(s string) string {
	return strings.Map(func(r rune) rune {
		if dropRune(r) {
			return -1
		}
		return r
	}, s)
}

func dropRune(r rune) bool {
	if r == '\n' || r == '\t' {
		return false
	}
	if unicode.IsControl(r) {
		return true
	}
	return unicode.Is(terminalModifiers, r)
}

// terminalModifiers are zero-width code points that combine with the
// preceding glyph: skin tones, the zero width joiner, variation selectors.
var terminalModifiers = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x200D, Hi: 0x200D, Stride: 1},
		{Lo: 0xFE00, Hi: 0xFE0F, Stride: 1},
	},
	R32: []unicode.Range32{
		{Lo: 0x1F3FB, Hi: 0x1F3FF, Stride: 1},
		{Lo: 0xE0100, Hi: 0xE01EF, Stride: 1},
	},
}
