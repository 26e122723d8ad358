package atlas

import "github.com/mmp/vtrender/pkg/glyph"

// MissingGlyphTracker accumulates distinct (symbol, style) pairs that a
// Static atlas could not resolve, so a host can report which glyphs to add
// to the next atlas build rather than silently falling back to the space
// glyph on every frame (§12, supplementing §7's AtlasCapacityExceeded
// error). It is a best-effort diagnostic, not part of the render path.
type MissingGlyphTracker struct {
	seen map[symbolKey]int
}

// NewMissingGlyphTracker returns an empty tracker.
func NewMissingGlyphTracker() *MissingGlyphTracker {
	return &MissingGlyphTracker{seen: make(map[symbolKey]int)}
}

// Record notes one miss for (symbol, style).
func (t *MissingGlyphTracker) Record(symbol string, style glyph.Style) {
	t.seen[symbolKey{symbol: symbol, style: style}]++
}

// Missing is one aggregated miss entry.
type Missing struct {
	Symbol string
	Style  glyph.Style
	Count  int
}

// Report returns every recorded miss, in no particular order.
func (t *MissingGlyphTracker) Report() []Missing {
	out := make([]Missing, 0, len(t.seen))
	for k, n := range t.seen {
		out = append(out, Missing{Symbol: k.symbol, Style: k.style, Count: n})
	}
	return out
}

// Reset discards all recorded misses.
func (t *MissingGlyphTracker) Reset() { t.seen = make(map[symbolKey]int) }
