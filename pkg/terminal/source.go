package terminal

import (
	"fmt"

	"github.com/mmp/vtrender/pkg/atlas"
	"github.com/mmp/vtrender/pkg/dynatlas"
	"github.com/mmp/vtrender/pkg/glyph"
	"github.com/mmp/vtrender/pkg/vtlog"
)

// defaultLineMetrics matches the reference renderer's dynamic-atlas
// defaults (near-bottom thin underline, mid-cell thin strikethrough) for
// sources that don't carry their own metrics the way a decoded Static
// atlas does.
var (
	defaultUnderline     = atlas.NewLineDecoration(0.9, 0.08)
	defaultStrikethrough = atlas.NewLineDecoration(0.5, 0.08)
)

// newGlyphSource is the one call site that switches on AtlasSource's
// concrete type (§9: "a two-way switch at the one call site"), producing
// the atlas.Source a Terminal and its Resources share.
func newGlyphSource(src AtlasSource, fallback glyph.ID, lg *vtlog.Logger) (atlas.Source, error) {
	switch s := src.(type) {
	case StaticAtlasSource:
		data, err := decodeStaticBytes(s.Bytes)
		if err != nil {
			return nil, err
		}
		return atlas.NewStatic(data, fallback), nil

	case DynamicAtlasSource:
		rast, err := newCanvasRasterizer(s.Fonts, s.SizePx)
		if err != nil {
			return nil, err
		}
		cw, ch := rast.cellSize()
		return dynatlas.New(dynatlas.Options{
			Rasterizer:    rast,
			CellW:         cw,
			CellH:         ch,
			Underline:     defaultUnderline,
			Strikethrough: defaultStrikethrough,
			Logger:        lg,
		})

	default:
		return nil, fmt.Errorf("terminal: unknown AtlasSource type %T", src)
	}
}

func decodeStaticBytes(b []byte) (*atlas.Data, error) {
	if len(b) == 0 {
		return nil, errNoDefaultAtlas
	}
	return atlas.Decode(b)
}
