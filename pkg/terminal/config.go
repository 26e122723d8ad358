package terminal

import (
	"github.com/mmp/vtrender/pkg/glyph"
	"github.com/mmp/vtrender/pkg/vtlog"
)

// Config configures a Terminal at construction time. It carries no
// persistent-settings surface of its own: the fallback glyph and the logger
// are its only fields. Font selection is made through the AtlasSource, and
// the dynamic atlas's region capacities are fixed constants in pkg/dynatlas,
// not configurable here. A host's canvas bootstrap, layout, and input
// handling are assembled above this package.
type Config struct {
	// FallbackGlyph is returned by the Static Atlas for any grapheme it
	// has no record for. Zero (the default) selects the space glyph.
	FallbackGlyph glyph.ID

	// Logger receives structured diagnostics (rasterization fallbacks,
	// LRU evictions, context-loss transitions). A nil Logger discards
	// everything, the common case inside a WASM bundle with no log
	// directory to write to.
	Logger *vtlog.Logger
}

// AtlasSource is the tagged union of ways to supply a Terminal's glyph
// source (§6.3, §9's "two concrete implementations, tagged dispatch"):
// either a pre-built binary atlas or a live font to rasterize on demand.
type AtlasSource interface {
	isAtlasSource()
}

// StaticAtlasSource wraps an already-encoded binary atlas (§6.2). Bytes
// must be non-empty: unlike the abstract API surface, this module does not
// bundle a compiled-in default, since the atlas generator that would
// produce one is out of scope (§1) — see DESIGN.md.
type StaticAtlasSource struct {
	Bytes []byte
}

func (StaticAtlasSource) isAtlasSource() {}

// DynamicAtlasSource selects on-demand rasterization via the host's 2D
// canvas. Fonts is a CSS font-family preference list; SizePx is the base
// font size before any device-pixel-ratio scaling the host applies.
type DynamicAtlasSource struct {
	Fonts  []string
	SizePx float64
}

func (DynamicAtlasSource) isAtlasSource() {}

// CellStyle is the style_struct of §6.3's text(x,y,str,style_struct): the
// glyph style plus the two colors and the two render-time decorations a
// run of text shares.
type CellStyle struct {
	Style                    glyph.Style
	FgRGB, BgRGB             uint32
	Underline, Strikethrough bool
}
