package atlas

import "github.com/mmp/vtrender/pkg/glyph"

// SubUpload describes one pending texture-array sub-region upload: Pixels
// is exactly W*H*4 RGBA bytes destined for layer Layer at (X,Y).
type SubUpload struct {
	Layer  int
	X, Y   int32
	W, H   int32
	Pixels []byte
}

// Source is the Glyph Source capability (§4.2) shared by the Static and
// Dynamic atlases: resolve a grapheme+style to a glyph ID, and drain any
// pending texture uploads that resolution produced.
type Source interface {
	Resolve(symbol string, style glyph.Style) glyph.ID
	Commit(queue *[]SubUpload)
	TextureDims() (w, h, layers int32)
	CellSize() (w, h int32)
	AtlasMask() glyph.ID
	LineMetrics() (underline, strikethrough LineDecoration)
}

// Static is a thin adapter exposing a pre-built Data through the Source
// contract. It never rasterizes and never produces uploads: Commit is a
// no-op.
type Static struct {
	data     *Data
	fallback glyph.ID
	missing  *MissingGlyphTracker
}

// NewStatic wraps data. fallback is returned by Resolve for any symbol the
// atlas has no record for (typically the space glyph); misses are recorded
// in an internal tracker and reported by MissingGlyphs.
func NewStatic(data *Data, fallback glyph.ID) *Static {
	return &Static{data: data, fallback: fallback, missing: NewMissingGlyphTracker()}
}

// Resolve implements Source.
func (s *Static) Resolve(symbol string, style glyph.Style) glyph.ID {
	id := s.data.SymbolToID(symbol, style, s.fallback)
	if id == s.fallback && symbol != " " {
		s.missing.Record(symbol, style)
	}
	return id
}

// Commit implements Source; the static atlas never has pending uploads.
func (s *Static) Commit(queue *[]SubUpload) {}

// TextureDims implements Source.
func (s *Static) TextureDims() (w, h, layers int32) { return s.data.TextureDims() }

// CellSize implements Source.
func (s *Static) CellSize() (w, h int32) { return s.data.CellSize() }

// AtlasMask implements Source. The static atlas addresses its full 13-bit
// index space (base+bold+italic+emoji); see §3.1.
func (s *Static) AtlasMask() glyph.ID { return glyph.IndexMask }

// LineMetrics implements Source.
func (s *Static) LineMetrics() (underline, strikethrough LineDecoration) {
	return s.data.LineMetrics()
}

// MissingGlyphs reports every symbol this atlas has failed to resolve since
// construction or the last Reset.
func (s *Static) MissingGlyphs() []Missing { return s.missing.Report() }

// ResetMissingGlyphs discards the accumulated miss report.
func (s *Static) ResetMissingGlyphs() { s.missing.Reset() }
