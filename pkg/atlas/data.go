// Package atlas implements the pre-built font atlas (§4.1, §6.2): in-memory
// glyph metadata plus a compressed RGBA texture-array payload, and the
// Static Atlas adapter that exposes it through the Glyph Source contract
// (§4.2).
package atlas

import (
	"github.com/mmp/vtrender/pkg/glyph"
)

// GlyphRecord describes one rasterized glyph's location in the texture
// array and the symbol it renders.
type GlyphRecord struct {
	ID      glyph.ID
	Style   glyph.Style
	IsEmoji bool
	PixelX  int32
	PixelY  int32
	Symbol  string
}

// LineDecoration describes a text-line decoration (underline or
// strikethrough) as a fraction of cell height. Position and thickness are
// clamped to [0,1] on construction — a decoration can never be specified to
// draw outside the cell it decorates (§12).
type LineDecoration struct {
	Position  float32
	Thickness float32
}

// NewLineDecoration clamps position and thickness into [0,1].
func NewLineDecoration(position, thickness float32) LineDecoration {
	return LineDecoration{Position: clamp01(position), Thickness: clamp01(thickness)}
}

func clamp01(v float32) float32 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// Data is the in-memory form of a deserialized (or freshly built) font
// atlas: glyph metadata plus the decompressed RGBA texture-array pixels.
type Data struct {
	FontName string
	FontSize float32

	TexWidth, TexHeight, TexLayers int32
	CellWidth, CellHeight          int32

	Underline     LineDecoration
	Strikethrough LineDecoration

	Glyphs []GlyphRecord

	// Pixels is tex_width*tex_height*tex_layers*4 bytes, row-major, all
	// layers concatenated, RGBA8.
	Pixels []byte

	symbolIndex map[symbolKey]glyph.ID
}

type symbolKey struct {
	symbol string
	style  glyph.Style
}

// buildIndex (re)builds the symbol→ID lookup used by SymbolToID for
// non-ASCII graphemes. Called once after construction or deserialization.
func (d *Data) buildIndex() {
	d.symbolIndex = make(map[symbolKey]glyph.ID, len(d.Glyphs))
	for _, g := range d.Glyphs {
		d.symbolIndex[symbolKey{symbol: g.Symbol, style: g.Style}] = g.ID
	}
}

// CellSize returns the atlas's fixed glyph cell dimensions in pixels.
func (d *Data) CellSize() (w, h int32) { return d.CellWidth, d.CellHeight }

// TextureDims returns the texture array's width, height, and layer count.
func (d *Data) TextureDims() (w, h, layers int32) { return d.TexWidth, d.TexHeight, d.TexLayers }

// LineMetrics returns the underline and strikethrough decoration metrics.
func (d *Data) LineMetrics() (underline, strikethrough LineDecoration) {
	return d.Underline, d.Strikethrough
}

// GlyphIter returns every glyph record, in storage order.
func (d *Data) GlyphIter() []GlyphRecord { return d.Glyphs }

// SymbolToID resolves a grapheme cluster and style to a glyph ID (§4.1):
// O(1) direct bit composition for single-byte ASCII, O(1) expected hash
// lookup otherwise. fallback is returned for unknown symbols.
func (d *Data) SymbolToID(symbol string, style glyph.Style, fallback glyph.ID) glyph.ID {
	if len(symbol) == 1 && symbol[0] >= 0x20 && symbol[0] <= 0x7E {
		return glyph.EncodeASCII(symbol[0], style)
	}
	if d.symbolIndex == nil {
		d.buildIndex()
	}
	if id, ok := d.symbolIndex[symbolKey{symbol: symbol, style: style}]; ok {
		return id
	}
	return fallback
}
