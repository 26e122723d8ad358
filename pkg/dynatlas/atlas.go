// Package dynatlas implements the Dynamic Atlas glyph source (§4.3): a
// host-rasterized, LRU-evicted cache over a flat 4096-slot texture-array
// address space, shared by an always-resident ASCII region and two
// LRU-managed regions for normal and double-width glyphs.
package dynatlas

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mmp/vtrender/pkg/atlas"
	"github.com/mmp/vtrender/pkg/glyph"
	"github.com/mmp/vtrender/pkg/util"
	"github.com/mmp/vtrender/pkg/vtlog"
)

const (
	// ASCIISlots is the permanent, never-evicted region: codepoints
	// 0x20..0x7E in Normal style, slot = codepoint-0x20 (§4.3 Preload).
	ASCIISlots = 0x7E - 0x20 + 1 // 95

	// NormalRegionStart/End bound the LRU-managed normal-width region.
	NormalRegionStart = ASCIISlots
	NormalRegionEnd   = 2048 // exclusive; 1953 managed slots

	// WideRegionStart/End bound the LRU-managed double-width region,
	// allocated and evicted in even/odd pairs.
	WideRegionStart = NormalRegionEnd
	WideRegionEnd   = 4096 // exclusive; 2048 slots = 1024 pairs

	// AtlasMask is the dynamic atlas's flat 12-bit index space (§4.3): no
	// style or emoji bit is folded into the slot ID; (grapheme,style)
	// alone is the cache key, and the slot value addresses texture layer
	// and position the same way a static glyph ID would.
	AtlasMask glyph.ID = 0x0FFF
)

type cacheKey struct {
	symbol string
	style  glyph.Style
}

// Rasterizer renders a grapheme cluster at a given style into exactly
// cellW*cellH (or 2*cellW*cellH for wide) RGBA8 pixels via a host 2D
// canvas. Implementations live outside this package (syscall/js bridging).
type Rasterizer interface {
	Rasterize(symbol string, style glyph.Style, wide bool) ([]byte, error)
}

// Atlas is the Dynamic Atlas glyph source.
type Atlas struct {
	lg *vtlog.Logger

	rasterizer Rasterizer
	cellW      int32
	cellH      int32
	texLayers  int32

	underline     atlas.LineDecoration
	strikethrough atlas.LineDecoration

	normal *lru.Cache[cacheKey, glyph.ID]
	wide   *lru.Cache[cacheKey, glyph.ID]

	normalNext glyph.ID
	wideNext   glyph.ID

	pending []atlas.SubUpload

	recentEvictions *util.RingBuffer[string]
}

// Options configures a new Atlas.
type Options struct {
	Rasterizer               Rasterizer
	CellW, CellH             int32
	Underline, Strikethrough atlas.LineDecoration
	Logger                   *vtlog.Logger
}

// New constructs a Dynamic Atlas and preloads the printable ASCII range in
// Normal style (§4.3 Preload). Returns an error only if a region's LRU
// cache cannot be created; per-glyph preload failures fall back to the
// checkered debug glyph and are logged, not surfaced.
func New(opts Options) (*Atlas, error) {
	normal, err := lru.New[cacheKey, glyph.ID](NormalRegionEnd - NormalRegionStart)
	if err != nil {
		return nil, err
	}
	wide, err := lru.New[cacheKey, glyph.ID]((WideRegionEnd - WideRegionStart) / 2)
	if err != nil {
		return nil, err
	}

	lg := opts.Logger
	if lg == nil {
		lg = vtlog.Discard()
	}

	a := &Atlas{
		lg:              lg,
		rasterizer:      opts.Rasterizer,
		cellW:           opts.CellW,
		cellH:           opts.CellH,
		texLayers:       WideRegionEnd / glyph.GlyphsPerLayer,
		underline:       opts.Underline,
		strikethrough:   opts.Strikethrough,
		normal:          normal,
		wide:            wide,
		normalNext:      NormalRegionStart,
		wideNext:        WideRegionStart,
		recentEvictions: util.NewRingBuffer[string](32),
	}
	a.preloadASCII()
	return a, nil
}

func (a *Atlas) preloadASCII() {
	for c := byte(0x20); c <= 0x7E; c++ {
		slot := glyph.ID(c) - 0x20
		symbol := string(rune(c))
		pixels, err := a.rasterizer.Rasterize(symbol, glyph.Normal, false)
		if err != nil {
			a.lg.Warn("preload rasterize failed, using checkered fallback", "symbol", symbol, "err", err)
			pixels = checkeredFallback(a.cellW, a.cellH)
		}
		a.queueUpload(slot, pixels, false)
	}
}

// Resolve implements atlas.Source: the admission algorithm of §4.3.
func (a *Atlas) Resolve(symbol string, style glyph.Style) glyph.ID {
	if id, ok := a.asciiFastPath(symbol, style); ok {
		return id
	}

	key := cacheKey{symbol: symbol, style: style}
	wide := isWide(symbol)
	region := a.normal
	if wide {
		region = a.wide
	}

	if slot, ok := region.Get(key); ok {
		return slot
	}

	slot := a.allocate(key, wide)
	pixels, err := a.rasterizer.Rasterize(symbol, style, wide)
	if err != nil {
		a.lg.Warn("rasterize failed, using checkered fallback", "symbol", symbol, "err", err)
		pixels = checkeredFallback(a.cellWidthFor(wide), a.cellH)
	}
	a.queueUpload(slot, pixels, wide)

	return slot
}

// asciiFastPath implements the branchless bypass: single-byte printable
// ASCII in Normal style never touches the cache (§4.3 Style handling).
func (a *Atlas) asciiFastPath(symbol string, style glyph.Style) (glyph.ID, bool) {
	if style != glyph.Normal || len(symbol) != 1 {
		return 0, false
	}
	c := symbol[0]
	if c < 0x20 || c > 0x7E {
		return 0, false
	}
	return glyph.ID(c) - 0x20, true
}

func (a *Atlas) cellWidthFor(wide bool) int32 {
	if wide {
		return 2 * a.cellW
	}
	return a.cellW
}

// allocate assigns a slot for key, evicting the region's LRU entry (or
// pair, for wide) if the region has no free capacity (§4.3 steps 3-4).
func (a *Atlas) allocate(key cacheKey, wide bool) glyph.ID {
	if wide {
		if a.wideNext < WideRegionEnd {
			slot := a.wideNext
			a.wideNext += 2
			a.wide.Add(key, slot)
			return slot
		}
		evictedKey, evictedSlot, ok := a.wide.RemoveOldest()
		if !ok {
			panic("dynatlas: wide region reported full but has no LRU entry")
		}
		a.recordEviction(evictedKey, evictedSlot)
		a.wide.Add(key, evictedSlot)
		return evictedSlot
	}

	if a.normalNext < NormalRegionEnd {
		slot := a.normalNext
		a.normalNext++
		a.normal.Add(key, slot)
		return slot
	}
	evictedKey, evictedSlot, ok := a.normal.RemoveOldest()
	if !ok {
		panic("dynatlas: normal region reported full but has no LRU entry")
	}
	a.recordEviction(evictedKey, evictedSlot)
	a.normal.Add(key, evictedSlot)
	return evictedSlot
}

func (a *Atlas) recordEviction(key cacheKey, slot glyph.ID) {
	a.recentEvictions.Add(key.symbol)
	a.lg.Debug("evicted glyph from dynamic atlas", "symbol", key.symbol, "style", key.style, "slot", slot)
}

func (a *Atlas) queueUpload(slot glyph.ID, pixels []byte, wide bool) {
	layer := int(slot) / glyph.GlyphsPerLayer
	pos := int(slot) % glyph.GlyphsPerLayer
	x := int32(pos) * a.cellW
	y := int32(0)
	w := a.cellW
	if wide {
		w = 2 * a.cellW
	}
	a.pending = append(a.pending, atlas.SubUpload{
		Layer: layer,
		X:     x, Y: y,
		W: w, H: a.cellH,
		Pixels: pixels,
	})
}

// Commit implements atlas.Source: drains pending sub-uploads into queue.
func (a *Atlas) Commit(queue *[]atlas.SubUpload) {
	if len(a.pending) == 0 {
		return
	}
	*queue = append(*queue, a.pending...)
	a.pending = a.pending[:0]
}

// TextureDims implements atlas.Source.
func (a *Atlas) TextureDims() (w, h, layers int32) {
	return a.cellW * glyph.GlyphsPerLayer, a.cellH, a.texLayers
}

// CellSize implements atlas.Source.
func (a *Atlas) CellSize() (w, h int32) { return a.cellW, a.cellH }

// AtlasMask implements atlas.Source.
func (a *Atlas) AtlasMask() glyph.ID { return AtlasMask }

// LineMetrics implements atlas.Source.
func (a *Atlas) LineMetrics() (underline, strikethrough atlas.LineDecoration) {
	return a.underline, a.strikethrough
}

// RecentEvictions returns the symbols most recently evicted, oldest first,
// for debug/diagnostic reporting (§9: no proactive re-rasterization on
// eviction, only this log).
func (a *Atlas) RecentEvictions() []string {
	n := a.recentEvictions.Size()
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = a.recentEvictions.Get(i)
	}
	return out
}

// SlotsInUse reports the current occupancy of each region, in slots (not
// cache entries — each wide entry consumes two slots), for P7.
func (a *Atlas) SlotsInUse() (ascii, normal, wide int) {
	return ASCIISlots, a.normal.Len(), a.wide.Len() * 2
}
