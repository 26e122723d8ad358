package renderer

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/mmp/vtrender/pkg/atlas"
	"github.com/mmp/vtrender/pkg/glyph"
)

func TestOrthoProjectionOriginTopLeft(t *testing.T) {
	m := orthoProjection(800, 600)

	// (0,0) in pixel space must map to clip-space (-1,1): top-left.
	clipX := m[0]*0 + m[4]*0 + m[12]
	clipY := m[1]*0 + m[5]*0 + m[13]
	if clipX != -1 || clipY != 1 {
		t.Errorf("origin maps to clip (%v,%v), want (-1,1)", clipX, clipY)
	}

	// (800,600) must map to clip-space (1,-1): bottom-right.
	clipX = m[0]*800 + m[4]*600 + m[12]
	clipY = m[1]*800 + m[5]*600 + m[13]
	if clipX != 1 || clipY != -1 {
		t.Errorf("bottom-right maps to clip (%v,%v), want (1,-1)", clipX, clipY)
	}
}

func TestOrthoProjectionZeroExtentIsFinite(t *testing.T) {
	m := orthoProjection(0, 0)
	for i, v := range m {
		if math.IsInf(float64(v), 0) || math.IsNaN(float64(v)) {
			t.Fatalf("m[%d] = %v, want finite (zero canvas extent must not divide by zero)", i, v)
		}
	}
}

func TestMarshalVertexUBOLayout(t *testing.T) {
	buf := marshalVertexUBO(800, 600, 9, 18)
	if len(buf) != vertexUBOSize {
		t.Fatalf("len(buf) = %d, want %d", len(buf), vertexUBOSize)
	}

	proj := orthoProjection(800, 600)
	for i, want := range proj {
		got := math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
		if got != want {
			t.Errorf("proj[%d] = %v, want %v", i, got, want)
		}
	}
	cellW := math.Float32frombits(binary.LittleEndian.Uint32(buf[64:]))
	cellH := math.Float32frombits(binary.LittleEndian.Uint32(buf[68:]))
	if cellW != 9 || cellH != 18 {
		t.Errorf("cell size in UBO = (%v,%v), want (9,18)", cellW, cellH)
	}
}

func TestMarshalFragmentUBOLayout(t *testing.T) {
	underline := atlas.NewLineDecoration(0.9, 0.08)
	strike := atlas.NewLineDecoration(0.5, 0.05)
	buf := marshalFragmentUBO(underline, strike, glyph.IndexMask)
	if len(buf) != fragmentUBOSize {
		t.Fatalf("len(buf) = %d, want %d", len(buf), fragmentUBOSize)
	}

	get := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:])) }
	if get(0) != underline.Position || get(4) != underline.Thickness {
		t.Errorf("underline metrics = (%v,%v), want (%v,%v)", get(0), get(4), underline.Position, underline.Thickness)
	}
	if get(16) != strike.Position || get(20) != strike.Thickness {
		t.Errorf("strikethrough metrics = (%v,%v), want (%v,%v)", get(16), get(20), strike.Position, strike.Thickness)
	}
	if get(32) != paddingFraction {
		t.Errorf("padding fraction = %v, want %v", get(32), paddingFraction)
	}
	if mask := binary.LittleEndian.Uint32(buf[48:]); mask != uint32(glyph.IndexMask) {
		t.Errorf("atlas mask = %#x, want %#x", mask, uint32(glyph.IndexMask))
	}
	if gpl := binary.LittleEndian.Uint32(buf[52:]); gpl != glyph.GlyphsPerLayer {
		t.Errorf("glyphs-per-layer = %d, want %d", gpl, glyph.GlyphsPerLayer)
	}
}

func TestFloat32sToBytesRoundTrip(t *testing.T) {
	vals := []float32{1, -2.5, 0, 1e6}
	buf := float32sToBytes(vals)
	if len(buf) != 4*len(vals) {
		t.Fatalf("len(buf) = %d, want %d", len(buf), 4*len(vals))
	}
	for i, want := range vals {
		got := math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
		if got != want {
			t.Errorf("buf[%d] = %v, want %v", i, got, want)
		}
	}
}

func TestUint16sToBytesRoundTrip(t *testing.T) {
	vals := []uint16{0, 1, 0xFFFF, 0x1234}
	buf := uint16sToBytes(vals)
	if len(buf) != 2*len(vals) {
		t.Fatalf("len(buf) = %d, want %d", len(buf), 2*len(vals))
	}
	for i, want := range vals {
		if got := binary.LittleEndian.Uint16(buf[i*2:]); got != want {
			t.Errorf("buf[%d] = %#x, want %#x", i, got, want)
		}
	}
}

func TestQuadIndicesFormTwoTriangles(t *testing.T) {
	if len(quadIndices) != 6 {
		t.Fatalf("len(quadIndices) = %d, want 6", len(quadIndices))
	}
	seen := map[uint16]bool{}
	for _, idx := range quadIndices {
		seen[idx] = true
	}
	if len(seen) != 4 {
		t.Errorf("quadIndices reference %d distinct vertices, want 4", len(seen))
	}
}
