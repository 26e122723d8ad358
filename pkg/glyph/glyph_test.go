package glyph

import "testing"

func TestEncodeASCIIFastPath(t *testing.T) {
	// P2: for every ASCII codepoint in 0x20..0x7E and every style,
	// EncodeASCII must equal codepoint | style_bits with no lookup.
	for c := byte(0x20); c <= 0x7E; c++ {
		for _, s := range AllStyles {
			got := EncodeASCII(c, s)
			want := ID(c) | s.Mask()
			if got != want {
				t.Fatalf("EncodeASCII(%q, %v) = %#x, want %#x", c, s, got, want)
			}
		}
	}
}

func TestLayerAndPosition(t *testing.T) {
	// P1: layer(g) = (g & mask) >> 5, pos(g) = g & 0x1F.
	cases := []struct {
		id    ID
		mask  ID
		layer int
		pos   int
	}{
		{id: 0x0000, mask: IndexMask, layer: 0, pos: 0},
		{id: 0x0020, mask: IndexMask, layer: 1, pos: 0},
		{id: 0x0041, mask: IndexMask, layer: 2, pos: 1},
		{id: 0x1FFF, mask: IndexMask, layer: 255, pos: 31},
		{id: 0x1041, mask: 0x0FFF, layer: 2, pos: 1},
	}
	for _, c := range cases {
		if l := c.id.Layer(c.mask); l != c.layer {
			t.Errorf("Layer(%#x, mask=%#x) = %d, want %d", c.id, c.mask, l, c.layer)
		}
		if p := c.id.PosInLayer(); p != c.pos {
			t.Errorf("PosInLayer(%#x) = %d, want %d", c.id, p, c.pos)
		}
	}
}

func TestStyleRoundTrip(t *testing.T) {
	for _, s := range AllStyles {
		id := Encode(0x41, s)
		if got := id.Style(); got != s {
			t.Errorf("Encode(0x41, %v).Style() = %v, want %v", s, got, s)
		}
		if id.IsEmoji() {
			t.Errorf("Encode(0x41, %v) unexpectedly set the emoji bit", s)
		}
	}
}

func TestEmojiPairHalves(t *testing.T) {
	left := EncodeEmoji(0x10, 0)
	right := EncodeEmoji(0x10, 1)

	if !left.IsEmoji() || !right.IsEmoji() {
		t.Fatal("both halves of an emoji pair must have the emoji bit set")
	}
	if left%2 != 0 {
		t.Errorf("left half id %#x must be even", left)
	}
	if right != left+1 {
		t.Errorf("right half id %#x must equal left+1 (%#x)", right, left+1)
	}
}

func TestDecorationBitsIndependentOfIndex(t *testing.T) {
	base := Encode(0x41, Bold)
	withLines := base.WithUnderline(true).WithStrikethrough(true)

	if withLines.Index() != base.Index() {
		t.Errorf("decoration bits must not affect the atlas index: %#x vs %#x", withLines.Index(), base.Index())
	}
	if DecodeEffect(withLines) != EffectBoth {
		t.Errorf("DecodeEffect with both bits set = %v, want EffectBoth", DecodeEffect(withLines))
	}
	if DecodeEffect(base) != EffectNone {
		t.Errorf("DecodeEffect with no decoration bits = %v, want EffectNone", DecodeEffect(base))
	}
}

func TestIndexMaskExcludesDecorationBits(t *testing.T) {
	id := Encode(0x41, Normal).WithUnderline(true).WithStrikethrough(true)
	if id&ReservedFlag != 0 {
		t.Errorf("reserved bit must never be set by this package, got %#x", id)
	}
	if id.Index() != 0x41 {
		t.Errorf("Index() = %#x, want 0x41", id.Index())
	}
}
