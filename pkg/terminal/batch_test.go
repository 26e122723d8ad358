package terminal

import (
	"errors"
	"testing"

	"github.com/mmp/vtrender/pkg/atlas"
	"github.com/mmp/vtrender/pkg/cellgrid"
	"github.com/mmp/vtrender/pkg/glyph"
	"github.com/mmp/vtrender/pkg/vterr"
)

// minimalAtlasData builds a tiny atlas.Data sufficient to drive a Static
// source, mirroring pkg/atlas/atlas_test.go's minimalAtlas() helper.
func minimalAtlasData() *atlas.Data {
	d := &atlas.Data{
		FontName:      "Iosevka Fixed",
		FontSize:      16,
		TexWidth:      320,
		TexHeight:     32,
		TexLayers:     1,
		CellWidth:     10,
		CellHeight:    20,
		Underline:     atlas.NewLineDecoration(0.9, 0.08),
		Strikethrough: atlas.NewLineDecoration(0.5, 0.08),
		Glyphs: []atlas.GlyphRecord{
			{ID: glyph.EncodeASCII('A', glyph.Normal), Style: glyph.Normal, PixelX: 0, PixelY: 0, Symbol: "A"},
			{ID: glyph.EncodeASCII('A', glyph.Bold), Style: glyph.Bold, PixelX: 10, PixelY: 0, Symbol: "A"},
		},
	}
	d.Pixels = make([]byte, int(d.TexWidth)*int(d.TexHeight)*int(d.TexLayers)*4)
	return d
}

// newTestTerminal builds a *Terminal with only the syscall/js-free fields
// populated, enough to exercise Batch and the grid/source plumbing without
// touching a canvas or GL context.
func newTestTerminal(cols, rows int) *Terminal {
	fallback := glyph.EncodeASCII(' ', glyph.Normal)
	source := atlas.NewStatic(minimalAtlasData(), fallback)
	spaceID := glyph.EncodeASCII(' ', glyph.Normal)
	t := &Terminal{
		source:    source,
		fallback:  fallback,
		spaceID:   spaceID,
		defaultBg: 0x000000,
		cellW:     10,
		cellH:     20,
	}
	t.grid = cellgrid.NewGrid(cols, rows, spaceID, t.defaultBg)
	return t
}

func TestBatchCellWritesGrid(t *testing.T) {
	term := newTestTerminal(4, 2)
	id := glyph.EncodeASCII('A', glyph.Normal)

	err := term.Batch().Cell(1, 0, id, 0xFF0000, 0x000000).Err()
	if err != nil {
		t.Fatalf("Cell: %v", err)
	}

	cell, err := term.grid.Cell(1, 0)
	if err != nil {
		t.Fatalf("grid.Cell: %v", err)
	}
	if cell.GlyphID() != id {
		t.Errorf("GlyphID() = %#x, want %#x", cell.GlyphID(), id)
	}
	if cell.FgColor() != 0xFF0000 {
		t.Errorf("FgColor() = %#x, want %#x", cell.FgColor(), uint32(0xFF0000))
	}
}

func TestBatchCellInvalidCoordinateDoesNotAbortBatch(t *testing.T) {
	term := newTestTerminal(4, 2)
	id := glyph.EncodeASCII('A', glyph.Normal)

	b := term.Batch().
		Cell(99, 99, id, 0, 0).
		Cell(0, 0, id, 0xFFFFFF, 0)

	if err := b.Err(); !errors.Is(err, vterr.ErrInvalidCoordinate) {
		t.Fatalf("Err() = %v, want wrapping ErrInvalidCoordinate", err)
	}

	cell, err := term.grid.Cell(0, 0)
	if err != nil {
		t.Fatalf("grid.Cell(0,0): %v", err)
	}
	if cell.GlyphID() != id {
		t.Error("valid write after an invalid one should still land")
	}
}

func TestBatchClearResetsToSpace(t *testing.T) {
	term := newTestTerminal(2, 2)
	term.Batch().Cell(0, 0, glyph.EncodeASCII('A', glyph.Normal), 0xFFFFFF, 0)

	term.Batch().Clear(0x112233)

	cell, err := term.grid.Cell(0, 0)
	if err != nil {
		t.Fatalf("grid.Cell: %v", err)
	}
	if cell.GlyphID() != term.spaceID {
		t.Errorf("after Clear, GlyphID() = %#x, want space %#x", cell.GlyphID(), term.spaceID)
	}
	if cell.BgColor() != 0x112233 {
		t.Errorf("after Clear, BgColor() = %#x, want %#x", cell.BgColor(), uint32(0x112233))
	}
}

func TestBatchTextSingleWidthASCII(t *testing.T) {
	term := newTestTerminal(10, 1)
	style := CellStyle{FgRGB: 0xFFFFFF}

	if err := term.Batch().Text(0, 0, "AB", style).Err(); err != nil {
		t.Fatalf("Text: %v", err)
	}

	c0, _ := term.grid.Cell(0, 0)
	c1, _ := term.grid.Cell(1, 0)
	if c0.GlyphID() != glyph.EncodeASCII('A', glyph.Normal) {
		t.Errorf("cell 0 = %#x, want %#x", c0.GlyphID(), glyph.EncodeASCII('A', glyph.Normal))
	}
	if c1.GlyphID() != glyph.EncodeASCII('B', glyph.Normal) {
		t.Errorf("cell 1 = %#x, want %#x", c1.GlyphID(), glyph.EncodeASCII('B', glyph.Normal))
	}
}

func TestBatchTextWideGraphemePairsCells(t *testing.T) {
	term := newTestTerminal(10, 1)
	style := CellStyle{FgRGB: 0xFFFFFF}

	// An emoji grapheme falls back (not present in the minimal atlas) but
	// must still occupy two cells with the right cell's ID carrying the
	// paired half-select bit: left ID's low bit clear, right = left|1.
	if err := term.Batch().Text(0, 0, "\U0001F600", style).Err(); err != nil {
		t.Fatalf("Text: %v", err)
	}

	left, err := term.grid.Cell(0, 0)
	if err != nil {
		t.Fatalf("grid.Cell(0,0): %v", err)
	}
	right, err := term.grid.Cell(1, 0)
	if err != nil {
		t.Fatalf("grid.Cell(1,0): %v", err)
	}

	if left.GlyphID()&1 != 0 {
		t.Errorf("left half ID %#x has low bit set, want clear", left.GlyphID())
	}
	if right.GlyphID() != left.GlyphID()|1 {
		t.Errorf("right half ID = %#x, want left|1 = %#x", right.GlyphID(), left.GlyphID()|1)
	}

	// The column cursor must have advanced by two, not one.
	third, err := term.grid.Cell(2, 0)
	if err != nil {
		t.Fatalf("grid.Cell(2,0): %v", err)
	}
	if third.GlyphID() != term.spaceID {
		t.Errorf("cell 2 = %#x, want untouched space %#x", third.GlyphID(), term.spaceID)
	}
}

func TestBatchTextAppliesDecorationFlags(t *testing.T) {
	term := newTestTerminal(4, 1)
	style := CellStyle{FgRGB: 0xFFFFFF, Underline: true, Strikethrough: true}

	if err := term.Batch().Text(0, 0, "A", style).Err(); err != nil {
		t.Fatalf("Text: %v", err)
	}

	cell, _ := term.grid.Cell(0, 0)
	if !cell.GlyphID().IsUnderline() {
		t.Error("expected underline flag set")
	}
	if !cell.GlyphID().IsStrikethrough() {
		t.Error("expected strikethrough flag set")
	}
}

func TestBatchFlushReturnsAccumulatedErr(t *testing.T) {
	term := newTestTerminal(2, 2)
	b := term.Batch().Cell(-1, 0, glyph.EncodeASCII('A', glyph.Normal), 0, 0)

	if err := b.Flush(); !errors.Is(err, vterr.ErrInvalidCoordinate) {
		t.Fatalf("Flush() = %v, want wrapping ErrInvalidCoordinate", err)
	}
}

func TestSortMissingOrdersBySymbolThenStyle(t *testing.T) {
	m := []atlas.Missing{
		{Symbol: "b", Style: glyph.Normal},
		{Symbol: "a", Style: glyph.Bold},
		{Symbol: "a", Style: glyph.Normal},
	}
	sortMissing(m)

	want := []atlas.Missing{
		{Symbol: "a", Style: glyph.Normal},
		{Symbol: "a", Style: glyph.Bold},
		{Symbol: "b", Style: glyph.Normal},
	}
	for i, w := range want {
		if m[i] != w {
			t.Errorf("m[%d] = %+v, want %+v", i, m[i], w)
		}
	}
}

func TestPositionBytesLittleEndian(t *testing.T) {
	buf := positionBytes([]uint16{1, 0x0102, 0xFFFF})
	want := []byte{1, 0, 2, 1, 0xFF, 0xFF}
	if len(buf) != len(want) {
		t.Fatalf("len(buf) = %d, want %d", len(buf), len(want))
	}
	for i := range want {
		if buf[i] != want[i] {
			t.Errorf("buf[%d] = %#x, want %#x", i, buf[i], want[i])
		}
	}
}

func TestMissingGlyphsSortedAndFallback(t *testing.T) {
	term := newTestTerminal(4, 1)
	style := CellStyle{FgRGB: 0xFFFFFF}

	term.Batch().Text(0, 0, "猫犬", style)

	missing := term.MissingGlyphs()
	if len(missing) != 2 {
		t.Fatalf("MissingGlyphs() len = %d, want 2", len(missing))
	}
	if missing[0].Symbol != "犬" || missing[1].Symbol != "猫" {
		t.Errorf("MissingGlyphs() = %+v, want sorted [犬, 猫]", missing)
	}
}
