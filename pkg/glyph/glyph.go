// Package glyph implements the 16-bit glyph ID encoding shared by the
// static and dynamic font atlases: a branchless bitfield that lets the GPU
// compute a glyph's texture coordinates arithmetically from its ID alone.
//
// Bit layout:
//
//	0-9   base glyph (1024 values per style)
//	10    bold
//	11    italic
//	12    emoji (bits 10-11 join the layer address, extending emoji space to 4096)
//	13    underline (render-time decoration, not part of the atlas index)
//	14    strikethrough (render-time decoration, not part of the atlas index)
//	15    reserved, must be zero
package glyph

// ID is a packed 16-bit glyph identifier.
type ID uint16

const (
	BaseMask     ID = 0x03FF
	BoldFlag     ID = 0x0400
	ItalicFlag   ID = 0x0800
	EmojiFlag    ID = 0x1000
	UnderlineFlag ID = 0x2000
	StrikeFlag   ID = 0x4000
	ReservedFlag ID = 0x8000

	// IndexMask isolates the bits that address a texture slot: base +
	// bold + italic + emoji (bits 0-12). Layer/position are derived from
	// this masked value.
	IndexMask ID = 0x1FFF

	// Unassigned marks a glyph record with no allocated ID.
	Unassigned ID = 0xFFFF

	// GlyphsPerLayer is the number of glyph slots packed into one texture
	// array layer (§3.1: layer = index>>5, pos = index&0x1F).
	GlyphsPerLayer = 32
)

// Style selects among the four style variants encoded in bits 10-11.
type Style uint8

const (
	Normal Style = iota
	Bold
	Italic
	BoldItalic
)

// AllStyles enumerates every style, in ordinal order.
var AllStyles = [...]Style{Normal, Bold, Italic, BoldItalic}

// Mask returns the ID-space flag bits this style contributes.
func (s Style) Mask() ID {
	switch s {
	case Bold:
		return BoldFlag
	case Italic:
		return ItalicFlag
	case BoldItalic:
		return BoldFlag | ItalicFlag
	default:
		return 0
	}
}

func (s Style) String() string {
	switch s {
	case Bold:
		return "bold"
	case Italic:
		return "italic"
	case BoldItalic:
		return "bold-italic"
	default:
		return "normal"
	}
}

// StyleFromMask decodes the style encoded in an ID's bold/italic bits.
func StyleFromMask(id ID) Style {
	bold := id&BoldFlag != 0
	italic := id&ItalicFlag != 0
	switch {
	case bold && italic:
		return BoldItalic
	case bold:
		return Bold
	case italic:
		return Italic
	default:
		return Normal
	}
}

// Encode composes a normal (non-emoji) glyph ID from a base value and style.
// base must fit in 10 bits; higher bits are truncated.
func Encode(base uint16, style Style) ID {
	return ID(base)&BaseMask | style.Mask()
}

// EncodeASCII implements the static atlas's branchless ASCII fast path
// (§4.1, §8 P2): codepoint | style bits, no lookup.
func EncodeASCII(codepoint byte, style Style) ID {
	return ID(codepoint)&BaseMask | style.Mask()
}

// EncodeEmoji composes the ID for one half of a (possibly wide) emoji
// glyph. half must be 0 (left) or 1 (right); emoji glyphs occupy two
// consecutive IDs with the low bit selecting the half (§3.1).
func EncodeEmoji(pairBase uint16, half int) ID {
	id := ID(pairBase)&BaseMask | EmojiFlag
	if half != 0 {
		id |= 1
	}
	return id
}

// Index returns the atlas-index portion of the ID (bits 0-12), masking off
// the render-time decoration and reserved bits.
func (id ID) Index() ID { return id & IndexMask }

// Layer returns the texture-array layer this ID addresses, per §3.1:
// layer = (id & atlas_mask) >> 5.
func (id ID) Layer(atlasMask ID) int { return int((id & atlasMask) >> 5) }

// PosInLayer returns the glyph's horizontal slot within its layer, per
// §3.1: pos = id & 0x1F.
func (id ID) PosInLayer() int { return int(id & (GlyphsPerLayer - 1)) }

// Base returns the base-glyph bits (0-9), independent of style/flags.
func (id ID) Base() uint16 { return uint16(id & BaseMask) }

// IsEmoji reports whether bit 12 is set.
func (id ID) IsEmoji() bool { return id&EmojiFlag != 0 }

// IsUnderline reports whether bit 13 is set.
func (id ID) IsUnderline() bool { return id&UnderlineFlag != 0 }

// IsStrikethrough reports whether bit 14 is set.
func (id ID) IsStrikethrough() bool { return id&StrikeFlag != 0 }

// WithUnderline returns id with the underline decoration bit set or cleared.
func (id ID) WithUnderline(on bool) ID {
	if on {
		return id | UnderlineFlag
	}
	return id &^ UnderlineFlag
}

// WithStrikethrough returns id with the strikethrough decoration bit set or
// cleared.
func (id ID) WithStrikethrough(on bool) ID {
	if on {
		return id | StrikeFlag
	}
	return id &^ StrikeFlag
}

// Style returns the style encoded in id's bold/italic bits. For emoji IDs
// this value is meaningless (§3.1: "style flags lose meaning").
func (id ID) Style() Style { return StyleFromMask(id) }

// Effect describes the render-time decoration bits of a glyph ID,
// independent of the base glyph/style. It exists for host-side debug
// inspection of a packed cell (there is no atlas-index consequence).
type Effect uint8

const (
	EffectNone Effect = iota
	EffectUnderline
	EffectStrikethrough
	EffectBoth
)

// DecodeEffect reads the underline/strikethrough bits of id. Unlike some
// renditions of this bit layout, both bits set decodes as EffectBoth: the
// two decorations are independent flags gated separately in the fragment
// shader, not a three-state field collapsing to one.
func DecodeEffect(id ID) Effect {
	u, s := id.IsUnderline(), id.IsStrikethrough()
	switch {
	case u && s:
		return EffectBoth
	case u:
		return EffectUnderline
	case s:
		return EffectStrikethrough
	default:
		return EffectNone
	}
}
