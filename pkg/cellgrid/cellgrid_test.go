package cellgrid

import (
	"testing"

	"github.com/mmp/vtrender/pkg/glyph"
	"github.com/mmp/vtrender/pkg/vterr"
)

func TestCellPacking(t *testing.T) {
	id := glyph.Encode(0x41, glyph.Bold)
	c := NewCell(id, 0xAABBCC, 0x112233)

	if got := c.GlyphID(); got != id {
		t.Errorf("GlyphID() = %#x, want %#x", got, id)
	}
	if got := c.FgColor(); got != 0xAABBCC {
		t.Errorf("FgColor() = %#x, want %#x", got, 0xAABBCC)
	}
	if got := c.BgColor(); got != 0x112233 {
		t.Errorf("BgColor() = %#x, want %#x", got, 0x112233)
	}
	if c[0] != byte(id) || c[1] != byte(id>>8) {
		t.Errorf("glyph id not little-endian in bytes 0-1: %v", c[:2])
	}
	if c[2] != 0xAA || c[3] != 0xBB || c[4] != 0xCC {
		t.Errorf("fg bytes not R,G,B order: %v", c[2:5])
	}
	if c[5] != 0x11 || c[6] != 0x22 || c[7] != 0x33 {
		t.Errorf("bg bytes not R,G,B order: %v", c[5:8])
	}
}

func TestCellFlipColors(t *testing.T) {
	c := NewCell(glyph.EncodeASCII('x', glyph.Normal), 0xFF0000, 0x00FF00)
	c.FlipColors()
	if c.FgColor() != 0x00FF00 || c.BgColor() != 0xFF0000 {
		t.Errorf("FlipColors did not swap: fg=%#x bg=%#x", c.FgColor(), c.BgColor())
	}
}

func TestCellSetStylePreservesBase(t *testing.T) {
	c := NewCell(glyph.Encode(0x41, glyph.Normal).WithUnderline(true), 0, 0)
	c.SetStyle(glyph.BoldItalic)

	if c.Style() != glyph.BoldItalic {
		t.Errorf("SetStyle did not take effect: got %v", c.Style())
	}
	if c.GlyphID().Base() != 0x41 {
		t.Errorf("SetStyle changed the base glyph: %#x", c.GlyphID().Base())
	}
	if !c.GlyphID().IsUnderline() {
		t.Errorf("SetStyle clobbered the underline decoration bit")
	}
}

func TestGridResizeIdempotent(t *testing.T) {
	// P6: resizing to the same dimensions repeatedly must leave the grid in
	// the same observable state each time.
	space := glyph.EncodeASCII(' ', glyph.Normal)
	g := NewGrid(4, 3, space, 0x000000)

	snapshot := func() []Cell {
		out := make([]Cell, len(g.cells))
		copy(out, g.cells)
		return out
	}

	first := snapshot()
	for i := 0; i < 3; i++ {
		g.Resize(4, 3)
		if got := snapshot(); !cellsEqual(got, first) {
			t.Fatalf("resize #%d produced a different grid than the first resize", i)
		}
	}
}

func cellsEqual(a, b []Cell) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestGridHello(t *testing.T) {
	// Scenario 1: write "Hello" across row 0 and confirm each cell and the
	// dirty range that Flush reports.
	space := glyph.EncodeASCII(' ', glyph.Normal)
	g := NewGrid(5, 1, space, 0x000000)

	word := "Hello"
	for x, r := range word {
		if err := g.UpdateCell(x, 0, glyph.EncodeASCII(byte(r), glyph.Normal), 0xFFFFFF, 0x000000); err != nil {
			t.Fatalf("UpdateCell(%d,0) = %v", x, err)
		}
	}

	offset, data, ok := g.Flush()
	if !ok {
		t.Fatal("Flush reported no dirty data after writes")
	}
	if offset != 0 || len(data) != 5*CellSize {
		t.Fatalf("Flush range = offset %d len %d, want offset 0 len %d", offset, len(data), 5*CellSize)
	}

	for x, r := range word {
		c, err := g.Cell(x, 0)
		if err != nil {
			t.Fatalf("Cell(%d,0) = %v", x, err)
		}
		if c.GlyphID() != glyph.EncodeASCII(byte(r), glyph.Normal) {
			t.Errorf("cell %d glyph = %#x, want %q", x, c.GlyphID(), r)
		}
	}

	if _, _, ok := g.Flush(); ok {
		t.Error("second Flush should report no dirty data")
	}
}

func TestGridResizeShrink(t *testing.T) {
	// Scenario 2: a shrinking resize must produce an all-space grid at the
	// new, smaller dimensions with no leftover content.
	space := glyph.EncodeASCII(' ', glyph.Normal)
	g := NewGrid(10, 5, space, 0x001122)
	for x := 0; x < 10; x++ {
		_ = g.UpdateCell(x, 0, glyph.EncodeASCII('X', glyph.Normal), 0xFFFFFF, 0x000000)
	}

	g.Resize(3, 2)

	if g.Cols() != 3 || g.Rows() != 2 {
		t.Fatalf("Resize(3,2) left dims %dx%d", g.Cols(), g.Rows())
	}
	if len(g.pos) != 3*2*2 {
		t.Errorf("position buffer length = %d, want %d", len(g.pos), 3*2*2)
	}
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			c, err := g.Cell(x, y)
			if err != nil {
				t.Fatalf("Cell(%d,%d) = %v", x, y, err)
			}
			if c.GlyphID() != space {
				t.Errorf("cell (%d,%d) = %#x, want space glyph %#x", x, y, c.GlyphID(), space)
			}
			if c.BgColor() != 0x001122 {
				t.Errorf("cell (%d,%d) bg = %#x, want %#x", x, y, c.BgColor(), 0x001122)
			}
		}
	}

	first, last, dirty := g.DirtyRange()
	if !dirty || first != 0 || last != 6 {
		t.Errorf("DirtyRange after resize = (%d,%d,%v), want (0,6,true)", first, last, dirty)
	}
}

func TestGridUpdateCellOutOfRange(t *testing.T) {
	g := NewGrid(2, 2, glyph.EncodeASCII(' ', glyph.Normal), 0)
	if err := g.UpdateCell(5, 0, 0, 0, 0); err != vterr.ErrInvalidCoordinate {
		t.Errorf("UpdateCell out of range = %v, want ErrInvalidCoordinate", err)
	}
	if err := g.UpdateCell(-1, 0, 0, 0, 0); err != vterr.ErrInvalidCoordinate {
		t.Errorf("UpdateCell negative x = %v, want ErrInvalidCoordinate", err)
	}
}

func TestGridUpdateCellsPartialFailure(t *testing.T) {
	g := NewGrid(2, 2, glyph.EncodeASCII(' ', glyph.Normal), 0)
	errs := g.UpdateCells([]CellUpdate{
		{X: 0, Y: 0, Glyph: glyph.EncodeASCII('a', glyph.Normal)},
		{X: 9, Y: 9, Glyph: glyph.EncodeASCII('b', glyph.Normal)},
	})
	if errs[0] != nil {
		t.Errorf("errs[0] = %v, want nil", errs[0])
	}
	if errs[1] != vterr.ErrInvalidCoordinate {
		t.Errorf("errs[1] = %v, want ErrInvalidCoordinate", errs[1])
	}
	if c, _ := g.Cell(0, 0); c.GlyphID() != glyph.EncodeASCII('a', glyph.Normal) {
		t.Errorf("valid update in batch was not applied")
	}
}

func TestGridClearMarksFullyDirty(t *testing.T) {
	g := NewGrid(4, 4, glyph.EncodeASCII(' ', glyph.Normal), 0)
	_, _, _ = g.Flush() // drain initial dirty state from construction

	g.Clear(0xABCDEF)
	first, last, dirty := g.DirtyRange()
	if !dirty || first != 0 || last != 16 {
		t.Errorf("DirtyRange after Clear = (%d,%d,%v), want (0,16,true)", first, last, dirty)
	}
	c, _ := g.Cell(0, 0)
	if c.BgColor() != 0xABCDEF {
		t.Errorf("Clear did not set bg: %#x", c.BgColor())
	}
}
