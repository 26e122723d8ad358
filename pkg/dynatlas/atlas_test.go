package dynatlas

import (
	"fmt"
	"testing"

	"github.com/mmp/vtrender/pkg/atlas"
	"github.com/mmp/vtrender/pkg/glyph"
)

// stubRasterizer returns deterministic, content-free pixel buffers; the
// admission algorithm under test never inspects pixel content.
type stubRasterizer struct {
	cellW, cellH int32
	fail         map[string]bool
}

func (s *stubRasterizer) Rasterize(symbol string, style glyph.Style, wide bool) ([]byte, error) {
	if s.fail[symbol] {
		return nil, fmt.Errorf("stub rasterization failure for %q", symbol)
	}
	w := s.cellW
	if wide {
		w = 2 * s.cellW
	}
	return make([]byte, int(w)*int(s.cellH)*4), nil
}

func newTestAtlas(t *testing.T) *Atlas {
	a, err := New(Options{
		Rasterizer:    &stubRasterizer{cellW: 10, cellH: 20},
		CellW:         10,
		CellH:         20,
		Underline:     atlas.NewLineDecoration(0.9, 0.08),
		Strikethrough: atlas.NewLineDecoration(0.5, 0.08),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestASCIIFastPathBypassesCache(t *testing.T) {
	a := newTestAtlas(t)
	got := a.Resolve("A", glyph.Normal)
	if got != glyph.ID('A')-0x20 {
		t.Errorf("Resolve(A, normal) = %#x, want %#x", got, glyph.ID('A')-0x20)
	}
	if a.normal.Len() != 0 || a.wide.Len() != 0 {
		t.Errorf("ASCII fast path must not touch the cache: normal=%d wide=%d", a.normal.Len(), a.wide.Len())
	}
}

func TestNonNormalASCIIUsesCache(t *testing.T) {
	// 'A' with Bold style is not the fast path: it must be cached, and its
	// slot must land in the normal LRU region (>= ASCIISlots).
	a := newTestAtlas(t)
	got := a.Resolve("A", glyph.Bold)
	if got < ASCIISlots {
		t.Errorf("Resolve(A, bold) = %d, want a cached slot >= %d", got, ASCIISlots)
	}
	if a.normal.Len() != 1 {
		t.Errorf("expected one cached normal entry, got %d", a.normal.Len())
	}
}

func TestResolveStability(t *testing.T) {
	// P3: resolving the same (grapheme, style) twice with no intervening
	// evicting resolves must return the same slot both times.
	a := newTestAtlas(t)
	first := a.Resolve("→", glyph.Normal)
	second := a.Resolve("→", glyph.Normal)
	if first != second {
		t.Errorf("Resolve(→) not stable: %d then %d", first, second)
	}
}

func TestWideAllocationIsEvenPair(t *testing.T) {
	// P4: a wide grapheme's slot is always even, and slot+1 is reserved.
	a := newTestAtlas(t)
	slot1 := a.Resolve("中", glyph.Normal)
	slot2 := a.Resolve("文", glyph.Normal)

	if slot1%2 != 0 {
		t.Errorf("first wide slot %d is not even", slot1)
	}
	if slot2 != slot1+2 {
		t.Errorf("second wide slot = %d, want %d", slot2, slot1+2)
	}
}

func TestEmojiPairScenario(t *testing.T) {
	// Scenario 4 (as adapted for the flat 12-bit dynamic mask): an emoji
	// gets a wide slot, and the same emoji resolved again returns the
	// identical slot (no re-rasterization).
	a := newTestAtlas(t)
	slot1 := a.Resolve("🚀", glyph.Normal)
	if slot1 < WideRegionStart {
		t.Errorf("emoji slot %d should be in the wide region (>= %d)", slot1, WideRegionStart)
	}
	if got := a.Resolve("🚀", glyph.Normal); got != slot1 {
		t.Errorf("second resolve of the same emoji returned %d, want %d", got, slot1)
	}
}

func TestBoldStyleScenario(t *testing.T) {
	// Scenario 3: ASCII 'A' with bold style is not the static 0x0441
	// identity, since dynamic mode never encodes style into the slot ID;
	// it lands in the cache and is stable across repeated resolves.
	a := newTestAtlas(t)
	slot1 := a.Resolve("A", glyph.Bold)
	slot2 := a.Resolve("A", glyph.Bold)
	if slot1 != slot2 {
		t.Errorf("bold 'A' slot not stable: %d then %d", slot1, slot2)
	}
	if slot1 < ASCIISlots {
		t.Errorf("bold 'A' slot %d should not land in the permanent ASCII region", slot1)
	}
}

func TestLRUOverflowEvictsExactlyOne(t *testing.T) {
	// Scenario 5 / P7: filling the normal region to capacity and resolving
	// one more distinct grapheme evicts exactly one prior entry and keeps
	// occupancy within the region's bound.
	a := newTestAtlas(t)
	capacity := NormalRegionEnd - NormalRegionStart

	slots := make(map[rune]glyph.ID)
	for i := 0; i < capacity; i++ {
		r := rune(0x0100 + i) // Latin Extended-A onward: distinct, non-ASCII, and never classified wide
		slots[r] = a.Resolve(string(r), glyph.Normal)
	}
	if a.normal.Len() != capacity {
		t.Fatalf("normal region at capacity has %d entries, want %d", a.normal.Len(), capacity)
	}

	firstRune := rune(0x0100)
	overflow := rune(0x0100 + capacity)
	a.Resolve(string(overflow), glyph.Normal)

	if a.normal.Len() != capacity {
		t.Errorf("normal region after overflow has %d entries, want unchanged %d", a.normal.Len(), capacity)
	}
	if a.normal.Contains(cacheKey{symbol: string(firstRune), style: glyph.Normal}) {
		t.Error("oldest entry should have been evicted, but is still present")
	}
	if !a.normal.Contains(cacheKey{symbol: string(overflow), style: glyph.Normal}) {
		t.Error("overflow entry should be present after eviction")
	}
}

func TestSlotsInUseBounded(t *testing.T) {
	// P7: total slots in use never exceeds 95 + 1953 + 2048.
	a := newTestAtlas(t)
	for i := 0; i < 3000; i++ {
		r := rune(0x2500 + i)
		a.Resolve(string(r), glyph.Normal)
	}
	ascii, normal, wide := a.SlotsInUse()
	if ascii != ASCIISlots {
		t.Errorf("ascii slots = %d, want %d", ascii, ASCIISlots)
	}
	if normal > NormalRegionEnd-NormalRegionStart {
		t.Errorf("normal slots in use = %d, exceeds region capacity %d", normal, NormalRegionEnd-NormalRegionStart)
	}
	if wide > WideRegionEnd-WideRegionStart {
		t.Errorf("wide slots in use = %d, exceeds region capacity %d", wide, WideRegionEnd-WideRegionStart)
	}
}

func TestRasterizeFailureUsesCheckeredFallback(t *testing.T) {
	a, err := New(Options{
		Rasterizer: &stubRasterizer{cellW: 4, cellH: 4, fail: map[string]bool{"?": true}},
		CellW:      4,
		CellH:      4,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	slot := a.Resolve("?", glyph.Normal)

	var queue []atlas.SubUpload
	a.Commit(&queue)

	found := false
	for _, u := range queue {
		if u.Layer == int(slot)/glyph.GlyphsPerLayer {
			found = true
			if len(u.Pixels) != 4*4*4 {
				t.Errorf("checkered fallback pixel buffer length = %d, want %d", len(u.Pixels), 4*4*4)
			}
		}
	}
	if !found {
		t.Error("expected a pending upload for the failed-rasterization slot")
	}
}

func TestCommitDrainsPending(t *testing.T) {
	a := newTestAtlas(t)
	a.Resolve("→", glyph.Normal)

	var queue []atlas.SubUpload
	a.Commit(&queue)
	if len(queue) == 0 {
		t.Fatal("expected at least one pending upload after a cache miss")
	}

	var second []atlas.SubUpload
	a.Commit(&second)
	if len(second) != 0 {
		t.Error("Commit should drain pending uploads; second call should be empty")
	}
}

func TestAtlasMaskLayerArithmetic(t *testing.T) {
	a := newTestAtlas(t)
	slot := a.Resolve("→", glyph.Normal)
	layer := slot.Layer(a.AtlasMask())
	pos := slot.PosInLayer()
	if layer != int(slot)>>5 || pos != int(slot)&0x1F {
		t.Errorf("layer/pos arithmetic mismatch for slot %d: layer=%d pos=%d", slot, layer, pos)
	}
}
