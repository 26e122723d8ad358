// Package cellgrid implements the packed per-cell instance data (§3.2) and
// the host-side terminal grid that accumulates CellUpdates between frames
// (§3.3, §4.6).
package cellgrid

import (
	"encoding/binary"

	"github.com/mmp/vtrender/pkg/glyph"
)

// CellSize is the packed byte width of one cell: glyph_id(2) + fg(3) + bg(3).
const CellSize = 8

// Cell is one instance's packed data:
//
//	[glyph_id:u16 LE][fg_r][fg_g][fg_b][bg_r][bg_g][bg_b]
//
// Alpha is never stored; callers pass 32-bit ARGB and the alpha byte is
// discarded on the way in.
type Cell [CellSize]byte

// NewCell packs a glyph ID and two RGB colors (alpha ignored) into a Cell,
// mirroring the reference renderer's CellDynamic::new byte-by-byte: the
// glyph ID is written little-endian, and each color's bytes are written in
// R,G,B order directly from the 0xRRGGBB value.
func NewCell(id glyph.ID, fgRGB, bgRGB uint32) Cell {
	var c Cell
	binary.LittleEndian.PutUint16(c[0:2], uint16(id))
	c.SetFgColor(fgRGB)
	c.SetBgColor(bgRGB)
	return c
}

// GlyphID returns the packed glyph ID.
func (c Cell) GlyphID() glyph.ID { return glyph.ID(binary.LittleEndian.Uint16(c[0:2])) }

// SetGlyphID overwrites the glyph ID in place.
func (c *Cell) SetGlyphID(id glyph.ID) { binary.LittleEndian.PutUint16(c[0:2], uint16(id)) }

// SetStyle rewrites only the glyph ID's style bits, preserving the base glyph
// and every other bit (emoji/underline/strikethrough/reserved).
func (c *Cell) SetStyle(s glyph.Style) {
	id := c.GlyphID()
	id = id&^(glyph.BoldFlag|glyph.ItalicFlag) | s.Mask()
	c.SetGlyphID(id)
}

// Style returns the style encoded in the glyph ID's bold/italic bits.
func (c Cell) Style() glyph.Style { return c.GlyphID().Style() }

// IsEmoji reports whether the packed glyph ID has the emoji bit set.
func (c Cell) IsEmoji() bool { return c.GlyphID().IsEmoji() }

// FgColor reconstructs the foreground color as a 0xRRGGBB value.
func (c Cell) FgColor() uint32 {
	return uint32(c[2])<<16 | uint32(c[3])<<8 | uint32(c[4])
}

// SetFgColor writes the foreground color's R,G,B bytes; the input's alpha
// byte (if any, e.g. 0xAARRGGBB) is ignored.
func (c *Cell) SetFgColor(rgb uint32) {
	c[2] = byte(rgb >> 16)
	c[3] = byte(rgb >> 8)
	c[4] = byte(rgb)
}

// BgColor reconstructs the background color as a 0xRRGGBB value.
func (c Cell) BgColor() uint32 {
	return uint32(c[5])<<16 | uint32(c[6])<<8 | uint32(c[7])
}

// SetBgColor writes the background color's R,G,B bytes.
func (c *Cell) SetBgColor(rgb uint32) {
	c[5] = byte(rgb >> 16)
	c[6] = byte(rgb >> 8)
	c[7] = byte(rgb)
}

// FlipColors swaps the foreground and background byte ranges in place.
// Not used by the draw path; a convenience for a host's cursor or
// debug-highlight rendering without a second code path through the glyph
// source (see SPEC_FULL.md §12).
func (c *Cell) FlipColors() {
	var tmp [3]byte
	copy(tmp[:], c[2:5])
	copy(c[2:5], c[5:8])
	copy(c[5:8], tmp[:])
}
