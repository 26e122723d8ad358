package terminal

import (
	"errors"

	"github.com/rivo/uniseg"

	"github.com/mmp/vtrender/pkg/dynatlas"
	"github.com/mmp/vtrender/pkg/glyph"
)

// Batch is the accumulator §6.3 describes: clear/text/cell calls queue
// writes into the Terminal's grid, which already tracks the dirty byte
// range those writes touch (§4.6); Flush reports whether any write failed
// rather than performing a second buffering pass, since the grid's own
// dirty-range bookkeeping is already the synchronization point a second
// accumulation layer would otherwise duplicate.
type Batch struct {
	t    *Terminal
	errs []error
}

// Clear resets every cell to the space glyph on bg.
func (b *Batch) Clear(bgRGB uint32) *Batch {
	b.t.grid.Clear(bgRGB)
	b.t.defaultBg = bgRGB
	return b
}

// Cell writes a single pre-resolved glyph ID directly.
func (b *Batch) Cell(x, y int, id glyph.ID, fgRGB, bgRGB uint32) *Batch {
	if err := b.t.grid.UpdateCell(x, y, id, fgRGB, bgRGB); err != nil {
		b.errs = append(b.errs, err)
	}
	return b
}

// Text resolves str's grapheme clusters against the active glyph source
// and writes them starting at (x,y), advancing one column per cluster or
// two for a double-width cluster (§8 scenario 4: an emoji or wide CJK
// grapheme occupies two consecutive cells, the right one carrying the
// paired ID with the half-select bit set).
func (b *Batch) Text(x, y int, str string, style CellStyle) *Batch {
	col := x
	g := uniseg.NewGraphemes(str)
	for g.Next() {
		cluster := g.Str()
		width := dynatlas.GraphemeWidth(cluster)

		id := b.t.source.Resolve(cluster, style.Style)
		id = id.WithUnderline(style.Underline).WithStrikethrough(style.Strikethrough)

		if err := b.t.grid.UpdateCell(col, y, id, style.FgRGB, style.BgRGB); err != nil {
			b.errs = append(b.errs, err)
		}
		if width == 2 {
			rightID := id | 1
			if err := b.t.grid.UpdateCell(col+1, y, rightID, style.FgRGB, style.BgRGB); err != nil {
				b.errs = append(b.errs, err)
			}
		}
		col += width
	}
	return b
}

// Err reports the combined errors from every Cell/Text write since the
// batch was created (out-of-range coordinates are skipped per-cell, not
// fatal to the batch — §7 InvalidCoordinate).
func (b *Batch) Err() error { return errors.Join(b.errs...) }

// Flush is the batch's documented synchronization point, matching §6.3's
// shape even though the grid's dirty range is already current after every
// call above; it exists so callers have one place to check for
// accumulated per-cell errors before the next RenderFrame.
func (b *Batch) Flush() error { return b.Err() }
