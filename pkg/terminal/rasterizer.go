package terminal

import (
	"fmt"
	"math"
	"strings"
	"syscall/js"

	"github.com/mmp/vtrender/pkg/glyph"
	"github.com/mmp/vtrender/pkg/vterr"
)

// canvasRasterizer implements dynatlas.Rasterizer over an OffscreenCanvas
// 2D context, the browser-native text-rendering path the Dynamic Atlas
// relies on for arbitrary system fonts, color emoji, and script shaping
// (§4.3 step 5) without a Go-side font rasterizer.
type canvasRasterizer struct {
	canvas js.Value
	ctx    js.Value

	fontFamily   string
	sizePx       float64
	cellW, cellH int32
}

// newCanvasRasterizer measures the given font's cell metrics and allocates
// an OffscreenCanvas sized for the widest glyph this rasterizer will ever
// be asked to draw (a double-width cell).
func newCanvasRasterizer(fonts []string, sizePx float64) (*canvasRasterizer, error) {
	if sizePx <= 0 {
		sizePx = 16
	}
	if js.Global().Get("OffscreenCanvas").IsUndefined() {
		return nil, fmt.Errorf("dynamic atlas: %w: OffscreenCanvas unsupported", vterr.ErrResourceUnavailable)
	}

	r := &canvasRasterizer{fontFamily: cssFontFamily(fonts), sizePx: sizePx}
	if err := r.measureCell(); err != nil {
		return nil, err
	}

	r.canvas = js.Global().Get("OffscreenCanvas").New(int(2*r.cellW), int(r.cellH))
	ctx := r.canvas.Call("getContext", "2d")
	if ctx.IsUndefined() || ctx.IsNull() {
		return nil, fmt.Errorf("dynamic atlas: %w: OffscreenCanvas 2d context unavailable", vterr.ErrResourceUnavailable)
	}
	ctx.Set("textBaseline", "top")
	ctx.Set("textAlign", "left")
	r.ctx = ctx
	return r, nil
}

// measureCell derives the fixed cell size from the font's own metrics,
// standing in for the reference rasterizer's pixel-bounds scan of a
// rendered "█" glyph: a monospace font's advance width and font-bounding-
// box ascent/descent are already exact for cell sizing, and a browser
// exposes them directly via TextMetrics without a readback round-trip.
func (r *canvasRasterizer) measureCell() error {
	probeCtor := js.Global().Get("OffscreenCanvas")
	probe := probeCtor.New(64, 64)
	ctx := probe.Call("getContext", "2d")
	if ctx.IsUndefined() || ctx.IsNull() {
		return fmt.Errorf("dynamic atlas: %w: OffscreenCanvas 2d context unavailable", vterr.ErrResourceUnavailable)
	}
	ctx.Set("font", r.fontCSS(glyph.Normal))
	metrics := ctx.Call("measureText", "M")

	width := metrics.Get("width").Float()
	height := r.sizePx * 1.2
	if ascent, descent := metrics.Get("fontBoundingBoxAscent"), metrics.Get("fontBoundingBoxDescent"); !ascent.IsUndefined() && !descent.IsUndefined() {
		height = ascent.Float() + descent.Float()
	}

	r.cellW = int32(math.Ceil(width))
	r.cellH = int32(math.Ceil(height))
	if r.cellW < 1 {
		r.cellW = 1
	}
	if r.cellH < 1 {
		r.cellH = 1
	}
	return nil
}

func (r *canvasRasterizer) cellSize() (w, h int32) { return r.cellW, r.cellH }

func (r *canvasRasterizer) fontCSS(style glyph.Style) string {
	var b strings.Builder
	if style == glyph.Italic || style == glyph.BoldItalic {
		b.WriteString("italic ")
	}
	if style == glyph.Bold || style == glyph.BoldItalic {
		b.WriteString("bold ")
	}
	fmt.Fprintf(&b, "%gpx %s", r.sizePx, r.fontFamily)
	return b.String()
}

// cssFontFamily builds a CSS font-family list from a preference order,
// always terminated by the generic monospace fallback.
func cssFontFamily(fonts []string) string {
	quoted := make([]string, 0, len(fonts)+1)
	for _, f := range fonts {
		quoted = append(quoted, "'"+f+"'")
	}
	quoted = append(quoted, "monospace")
	return strings.Join(quoted, ", ")
}

// Rasterize implements dynatlas.Rasterizer: draw symbol at the given style
// into a freshly cleared region of the shared canvas and read the pixels
// back as tightly packed RGBA8.
func (r *canvasRasterizer) Rasterize(symbol string, style glyph.Style, wide bool) ([]byte, error) {
	w := r.cellW
	if wide {
		w = 2 * r.cellW
	}
	h := r.cellH

	r.ctx.Call("clearRect", 0, 0, float64(w), float64(h))
	r.ctx.Set("font", r.fontCSS(style))
	r.ctx.Set("fillStyle", "white")
	r.ctx.Call("fillText", symbol, 0, 0)

	imageData := r.ctx.Call("getImageData", 0, 0, w, h)
	data := imageData.Get("data")
	view := js.Global().Get("Uint8Array").New(data.Get("buffer"), data.Get("byteOffset"), data.Get("byteLength"))
	pixels := make([]byte, view.Get("length").Int())
	js.CopyBytesToGo(pixels, view)
	return pixels, nil
}
