package cellgrid

import (
	"github.com/mmp/vtrender/pkg/glyph"
	"github.com/mmp/vtrender/pkg/vterr"
)

// Grid holds a terminal's row-major cell instance data plus the parallel
// grid-position buffer consumed by the instanced draw call (§3.3, §4.4).
// It is plain host memory: nothing here touches the GPU. A Grid tracks the
// smallest contiguous byte range touched since the last Flush so the caller
// can sub-upload only what changed, per §4.6.
type Grid struct {
	cols, rows int

	// pos holds cols*rows*2 uint16 values: (x,y) per cell, in draw order.
	pos []uint16
	// cells holds cols*rows packed Cells, row-major.
	cells []Cell

	spaceID glyph.ID
	bg      uint32

	dirtyFirst, dirtyLast int // cell indices; dirtyFirst > dirtyLast means empty
	fullDirty             bool
}

// NewGrid constructs a grid of the given dimensions, filled with spaceID on
// bg (as Clear does).
func NewGrid(cols, rows int, spaceID glyph.ID, bg uint32) *Grid {
	g := &Grid{spaceID: spaceID, bg: bg}
	g.Resize(cols, rows)
	return g
}

// Cols and Rows report the grid's current dimensions.
func (g *Grid) Cols() int { return g.cols }
func (g *Grid) Rows() int { return g.rows }

// Resize changes the grid's dimensions, discarding and reinitializing all
// cell content. SPEC_FULL.md explicitly carries forward the stated
// requirement that resize need not preserve prior content (§4.6): every
// resize, including to identical dimensions, reinitializes the full grid
// and marks it fully dirty (P6: idempotent under repetition).
func (g *Grid) Resize(cols, rows int) {
	if cols < 0 {
		cols = 0
	}
	if rows < 0 {
		rows = 0
	}
	g.cols, g.rows = cols, rows
	n := cols * rows

	g.pos = make([]uint16, 0, n*2)
	g.cells = make([]Cell, n)
	blank := NewCell(g.spaceID, 0, g.bg)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			g.pos = append(g.pos, uint16(x), uint16(y))
			g.cells[y*cols+x] = blank
		}
	}
	g.markFullDirty()
}

func (g *Grid) index(x, y int) (int, error) {
	if x < 0 || y < 0 || x >= g.cols || y >= g.rows {
		return 0, vterr.ErrInvalidCoordinate
	}
	return y*g.cols + x, nil
}

// CellUpdate is one (x,y,glyph,fg,bg) write for UpdateCells.
type CellUpdate struct {
	X, Y  int
	Glyph glyph.ID
	FgRGB uint32
	BgRGB uint32
}

// UpdateCell overwrites the cell at (x,y). Out-of-range coordinates return
// vterr.ErrInvalidCoordinate and leave the grid unmodified (§7).
func (g *Grid) UpdateCell(x, y int, id glyph.ID, fgRGB, bgRGB uint32) error {
	i, err := g.index(x, y)
	if err != nil {
		return err
	}
	g.cells[i] = NewCell(id, fgRGB, bgRGB)
	g.markDirty(i, i+1)
	return nil
}

// UpdateCells applies a batch of updates. Invalid coordinates are skipped
// rather than aborting the batch; their errors are returned in the same
// order as the input, nil for updates that succeeded.
func (g *Grid) UpdateCells(updates []CellUpdate) []error {
	errs := make([]error, len(updates))
	for i, u := range updates {
		errs[i] = g.UpdateCell(u.X, u.Y, u.Glyph, u.FgRGB, u.BgRGB)
	}
	return errs
}

// Clear resets every cell to the grid's space glyph on the given
// background, marking the whole grid dirty.
func (g *Grid) Clear(bg uint32) {
	g.bg = bg
	blank := NewCell(g.spaceID, 0, bg)
	for i := range g.cells {
		g.cells[i] = blank
	}
	g.markFullDirty()
}

func (g *Grid) markDirty(first, last int) {
	if g.fullDirty {
		return
	}
	if g.dirtyFirst > g.dirtyLast {
		g.dirtyFirst, g.dirtyLast = first, last
		return
	}
	if first < g.dirtyFirst {
		g.dirtyFirst = first
	}
	if last > g.dirtyLast {
		g.dirtyLast = last
	}
}

func (g *Grid) markFullDirty() {
	g.fullDirty = true
	g.dirtyFirst, g.dirtyLast = 0, len(g.cells)
}

// MarkAllDirty forces the next Flush to return the entire buffer even
// though no cell was written, the case a context-loss restore needs: the
// GPU-side copy is gone but the host-side grid never changed.
func (g *Grid) MarkAllDirty() { g.markFullDirty() }

// DirtyRange reports the half-open [first,last) cell-index range touched
// since the last Flush, and whether any cell is dirty at all.
func (g *Grid) DirtyRange() (first, last int, dirty bool) {
	if g.fullDirty {
		return 0, len(g.cells), len(g.cells) > 0
	}
	if g.dirtyFirst > g.dirtyLast {
		return 0, 0, false
	}
	return g.dirtyFirst, g.dirtyLast, true
}

// Flush returns the raw bytes of the dirty cell range (ready for a GPU
// sub-upload starting at byte offset first*CellSize) and clears the dirty
// state. It returns ok=false if nothing was dirty.
func (g *Grid) Flush() (offset int, data []byte, ok bool) {
	first, last, dirty := g.DirtyRange()
	if !dirty {
		return 0, nil, false
	}
	data = make([]byte, 0, (last-first)*CellSize)
	for i := first; i < last; i++ {
		data = append(data, g.cells[i][:]...)
	}
	g.fullDirty = false
	g.dirtyFirst, g.dirtyLast = 0, -1
	return first * CellSize, data, true
}

// PositionBuffer returns the instanced (x,y) grid-coordinate buffer, in
// draw order. It never changes except on Resize.
func (g *Grid) PositionBuffer() []uint16 { return g.pos }

// Cell returns a copy of the cell at (x,y).
func (g *Grid) Cell(x, y int) (Cell, error) {
	i, err := g.index(x, y)
	if err != nil {
		return Cell{}, err
	}
	return g.cells[i], nil
}
