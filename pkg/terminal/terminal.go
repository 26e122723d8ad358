// Package terminal implements the Terminal Facade (§4.6, §6.3, §9): the
// public construction, frame-orchestration, resize, and atlas hot-swap
// surface that ties the cell grid, a glyph source, the GPU resources, and
// context-loss recovery into one object per canvas.
package terminal

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"syscall/js"

	"github.com/mmp/vtrender/pkg/atlas"
	"github.com/mmp/vtrender/pkg/cellgrid"
	"github.com/mmp/vtrender/pkg/glyph"
	"github.com/mmp/vtrender/pkg/renderer"
	"github.com/mmp/vtrender/pkg/vterr"
	"github.com/mmp/vtrender/pkg/vtlog"
	"github.com/mmp/vtrender/pkg/webgl"
)

// busyState implements the §9 Open-Question decision: resize and atlas
// swap are mutually exclusive, non-reentrant operations. No mutex is
// needed — §5 mandates single-threaded cooperative scheduling, so this is
// a plain guard against a call re-entering while another is on the stack
// (e.g. a resize triggered from inside a swap's callback).
type busyState int

const (
	busyNone busyState = iota
	busyResizing
	busySwapping
)

// Terminal owns one canvas's entire render pipeline: the WebGL2 context,
// GPU resources, the host-side cell grid, and whichever glyph source is
// currently active.
type Terminal struct {
	lg   *vtlog.Logger
	gl   *webgl.Context
	loss *webgl.ContextLossHandler
	res  *renderer.Resources
	grid *cellgrid.Grid

	source   atlas.Source
	fallback glyph.ID

	cellW, cellH     int32
	canvasW, canvasH float32

	spaceID   glyph.ID
	defaultBg uint32

	busy busyState
}

// New builds a Terminal against the canvas matched by canvasSelector
// (a CSS selector, per §6.3's "canvas_selector"; resolving it is the one
// piece of canvas acquisition this package performs itself — everything
// else about host page bootstrap remains out of scope, §1).
func New(canvasSelector string, src AtlasSource, cfg Config) (*Terminal, error) {
	lg := cfg.Logger
	if lg == nil {
		lg = vtlog.Discard()
	}

	canvas := js.Global().Get("document").Call("querySelector", canvasSelector)
	if canvas.IsNull() || canvas.IsUndefined() {
		return nil, fmt.Errorf("terminal: canvas %q not found: %w", canvasSelector, vterr.ErrResourceUnavailable)
	}

	jsGL := canvas.Call("getContext", "webgl2")
	if jsGL.IsNull() || jsGL.IsUndefined() {
		return nil, fmt.Errorf("terminal: browser returned no webgl2 context: %w", vterr.ErrResourceUnavailable)
	}
	gl, err := webgl.New(jsGL)
	if err != nil {
		return nil, err
	}

	fallback := cfg.FallbackGlyph
	if fallback == 0 {
		fallback = glyph.EncodeASCII(' ', glyph.Normal)
	}

	source, err := newGlyphSource(src, fallback, lg)
	if err != nil {
		return nil, err
	}

	res, err := renderer.New(gl, lg)
	if err != nil {
		return nil, err
	}
	res.SetAtlas(source)

	cw, ch := source.CellSize()
	t := &Terminal{
		lg:        lg,
		gl:        gl,
		loss:      webgl.NewContextLossHandler(canvas),
		res:       res,
		source:    source,
		fallback:  fallback,
		cellW:     cw,
		cellH:     ch,
		spaceID:   glyph.EncodeASCII(' ', glyph.Normal),
		defaultBg: 0x000000,
	}

	width := canvas.Get("width").Float()
	height := canvas.Get("height").Float()
	t.resizeLocked(float32(width), float32(height))

	lg.Info("terminal constructed", "cell_w", cw, "cell_h", ch, "canvas_w", width, "canvas_h", height)
	return t, nil
}

// Resize recomputes (cols, rows) for the given pixel dimensions and
// reinitializes the grid at that size (§4.6 resize semantics: no attempt
// to preserve prior content).
func (t *Terminal) Resize(widthPx, heightPx float32) error {
	if t.busy == busySwapping {
		return vterr.ErrBusy
	}
	t.busy = busyResizing
	defer func() { t.busy = busyNone }()

	t.resizeLocked(widthPx, heightPx)
	return nil
}

func (t *Terminal) resizeLocked(widthPx, heightPx float32) {
	cols, rows := 0, 0
	if t.cellW > 0 && t.cellH > 0 {
		cols = int(widthPx) / int(t.cellW)
		rows = int(heightPx) / int(t.cellH)
	}
	if cols < 0 {
		cols = 0
	}
	if rows < 0 {
		rows = 0
	}

	if t.grid == nil {
		t.grid = cellgrid.NewGrid(cols, rows, t.spaceID, t.defaultBg)
	} else {
		t.grid.Resize(cols, rows)
	}
	t.canvasW, t.canvasH = widthPx, heightPx

	t.res.AllocatePositionBuffer(positionBytes(t.grid.PositionBuffer()))
	t.res.AllocateDynamicBuffer(cols * rows * cellgrid.CellSize)
	t.res.SetProjection(widthPx, heightPx, float32(t.cellW), float32(t.cellH))
	t.gl.Viewport(0, 0, int(widthPx), int(heightPx))

	if _, data, ok := t.grid.Flush(); ok {
		t.res.UploadDynamicFull(data)
	}

	t.lg.Debug("terminal resized", "cols", cols, "rows", rows, "width_px", widthPx, "height_px", heightPx)
}

// TerminalSize reports the current (cols, rows).
func (t *Terminal) TerminalSize() (cols, rows int) { return t.grid.Cols(), t.grid.Rows() }

// CellSize reports the active glyph source's fixed cell dimensions.
func (t *Terminal) CellSize() (w, h int32) { return t.cellW, t.cellH }

// CanvasSize reports the pixel dimensions passed to the last Resize.
func (t *Terminal) CanvasSize() (w, h float32) { return t.canvasW, t.canvasH }

// Batch returns a new accumulator for grid mutations (§6.3).
func (t *Terminal) Batch() *Batch { return &Batch{t: t} }

// MissingGlyphs reports every grapheme the active glyph source has failed
// to resolve, sorted for stable diagnostic output. Only the Static Atlas
// tracks misses (§7: dynamic mode never surfaces AtlasCapacityExceeded).
func (t *Terminal) MissingGlyphs() []atlas.Missing {
	type missingReporter interface{ MissingGlyphs() []atlas.Missing }
	mr, ok := t.source.(missingReporter)
	if !ok {
		return nil
	}
	out := mr.MissingGlyphs()
	sortMissing(out)
	return out
}

func sortMissing(m []atlas.Missing) {
	for i := 1; i < len(m); i++ {
		for j := i; j > 0; j-- {
			a, b := m[j-1], m[j]
			if a.Symbol < b.Symbol || (a.Symbol == b.Symbol && a.Style <= b.Style) {
				break
			}
			m[j-1], m[j] = m[j], m[j-1]
		}
	}
}

// RenderStats reports what one RenderFrame call cost, combining the
// underlying draw call's cost with the frame's grid/atlas bookkeeping.
type RenderStats struct {
	Renderer renderer.RendererStats
	Cells    int
}

func (rs RenderStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("renderer", rs.Renderer),
		slog.Int("cells", rs.Cells),
	)
}

// RenderFrame implements §4.6's render_frame(): flush pending cell and
// atlas-upload state, then issue the single instanced draw call. A lost
// WebGL context aborts the frame with vterr.ErrContextLost; a restore
// discovered here triggers a full GPU-resource rebuild before drawing.
func (t *Terminal) RenderFrame() (RenderStats, error) {
	if t.loss.IsLost() || t.gl.IsContextLost() {
		return RenderStats{}, vterr.ErrContextLost
	}
	if t.loss.PendingRebuild() {
		if err := t.rebuildAfterLoss(); err != nil {
			return RenderStats{}, fmt.Errorf("terminal: rebuild after context restore: %w", err)
		}
		t.loss.ClearPendingRebuild()
	}

	t.flushGrid()
	t.flushAtlasUploads()

	c := t.gl.Consts()
	t.gl.ClearColor(0, 0, 0, 1)
	t.gl.Clear(c.ColorBufferBit)

	instances := t.grid.Cols() * t.grid.Rows()
	stats := t.res.Draw(instances)
	return RenderStats{Renderer: stats, Cells: instances}, nil
}

// flushGrid uploads the grid's dirty byte range, or the whole buffer once
// the dirty range exceeds half the buffer (§4.6 flush()).
func (t *Terminal) flushGrid() {
	offset, data, ok := t.grid.Flush()
	if !ok {
		return
	}
	total := t.grid.Cols() * t.grid.Rows() * cellgrid.CellSize
	if offset == 0 && len(data) == total {
		t.res.UploadDynamicFull(data)
		return
	}
	if len(data) >= total/2 {
		full, _, ok := t.replayFullFromCells()
		if ok {
			t.res.UploadDynamicFull(full)
			return
		}
	}
	t.res.UploadDynamicRange(offset, data)
}

// replayFullFromCells re-reads the whole grid for the "dirty range exceeds
// half the buffer" path — Flush() already cleared the dirty state, so this
// re-derives the full byte buffer from the grid's per-cell accessor rather
// than requiring Grid to expose a second flush variant.
func (t *Terminal) replayFullFromCells() ([]byte, int, bool) {
	cols, rows := t.grid.Cols(), t.grid.Rows()
	if cols == 0 || rows == 0 {
		return nil, 0, false
	}
	buf := make([]byte, 0, cols*rows*cellgrid.CellSize)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			cell, err := t.grid.Cell(x, y)
			if err != nil {
				return nil, 0, false
			}
			buf = append(buf, cell[:]...)
		}
	}
	return buf, len(buf), true
}

func (t *Terminal) flushAtlasUploads() {
	var queue []atlas.SubUpload
	t.source.Commit(&queue)
	t.res.UploadGlyphs(queue)
}

func (t *Terminal) rebuildAfterLoss() error {
	if err := t.res.Rebuild(t.source); err != nil {
		return err
	}
	t.res.AllocatePositionBuffer(positionBytes(t.grid.PositionBuffer()))
	t.grid.MarkAllDirty()
	t.lg.Warn("webgl context restored, rebuilt GPU resources")
	return nil
}

// ReplaceAtlasStatic swaps in a newly decoded binary atlas (§6.3
// replace_atlas_static), recreating every GPU texture resource and
// re-uploading the cell buffer.
func (t *Terminal) ReplaceAtlasStatic(data []byte) error {
	if t.busy == busyResizing {
		return vterr.ErrAtlasSwapInProgress
	}
	t.busy = busySwapping
	defer func() { t.busy = busyNone }()

	d, err := decodeStaticBytes(data)
	if err != nil {
		return err
	}
	return t.swapSource(atlas.NewStatic(d, t.fallback))
}

// ReplaceAtlasDynamic swaps in a freshly constructed Dynamic Atlas over
// the given fonts and size (§6.3 replace_atlas_dynamic).
func (t *Terminal) ReplaceAtlasDynamic(fonts []string, sizePx float64) error {
	if t.busy == busyResizing {
		return vterr.ErrAtlasSwapInProgress
	}
	t.busy = busySwapping
	defer func() { t.busy = busyNone }()

	newSource, err := newGlyphSource(DynamicAtlasSource{Fonts: fonts, SizePx: sizePx}, t.fallback, t.lg)
	if err != nil {
		return err
	}
	return t.swapSource(newSource)
}

func (t *Terminal) swapSource(newSource atlas.Source) error {
	t.res.Destroy()
	if err := t.res.Rebuild(newSource); err != nil {
		return fmt.Errorf("terminal: atlas swap: %w", err)
	}
	t.source = newSource
	t.cellW, t.cellH = newSource.CellSize()
	// Cell size may have changed with the new atlas/font; recompute the
	// grid at the same pixel extent (§6.3: "cell buffer re-uploaded").
	t.resizeLocked(t.canvasW, t.canvasH)
	t.lg.Info("atlas swapped", "cell_w", t.cellW, "cell_h", t.cellH)
	return nil
}

// Close releases every GPU handle and detaches the context-loss listeners.
func (t *Terminal) Close() {
	t.res.Destroy()
	t.loss.Close()
}

func positionBytes(pos []uint16) []byte {
	buf := make([]byte, 2*len(pos))
	for i, v := range pos {
		binary.LittleEndian.PutUint16(buf[i*2:], v)
	}
	return buf
}
