package dynatlas

import (
	"unicode"

	"golang.org/x/text/width"
)

// GraphemeWidth reports the cell width (1 or 2) a grapheme cluster
// occupies, the same classifier Resolve uses internally to route a
// grapheme to the normal or wide LRU region. Exported so callers composing
// text runs (pkg/terminal's batch().text()) can lay out cells without
// duplicating the East-Asian-Width/emoji classification logic.
func GraphemeWidth(symbol string) int {
	if isWide(symbol) {
		return 2
	}
	return 1
}

// isWide classifies a grapheme cluster as double-width per §4.3 step 1:
// emoji, fullwidth/wide CJK, and regional-indicator pairs occupy two cells;
// everything else is single-width.
func isWide(symbol string) bool {
	if isEmoji(symbol) {
		return true
	}
	cellWidth := 0
	for _, r := range symbol {
		cellWidth += runeWidth(r)
	}
	return cellWidth >= 2
}

func runeWidth(r rune) int {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	default:
		if unicode.Is(unicode.Mn, r) || r == 0 {
			return 0
		}
		return 1
	}
}

// isEmoji reports whether symbol falls in a Unicode block commonly used for
// emoji presentation. This is a pragmatic range check, not a full emoji
// property database: it covers the blocks the reference renderer's
// `emojis` crate classifies, without requiring an external data table.
func isEmoji(symbol string) bool {
	for _, r := range symbol {
		switch {
		case r >= 0x1F300 && r <= 0x1FAFF: // misc symbols, emoticons, transport, supplemental
			return true
		case r >= 0x2600 && r <= 0x27BF: // misc symbols, dingbats
			return true
		case r >= 0x1F1E6 && r <= 0x1F1FF: // regional indicators (flag pairs)
			return true
		case r == 0x200D: // ZWJ (emoji sequences)
			return true
		case r >= 0xFE00 && r <= 0xFE0F: // variation selectors
			return true
		}
	}
	return false
}
