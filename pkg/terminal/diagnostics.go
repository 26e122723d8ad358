package terminal

import "github.com/vmihailenco/msgpack/v5"

// Diagnostics is a point-in-time snapshot of a Terminal's internal state,
// for a host to persist or ship to a support channel (§11.3, §12) — never
// read on the render hot path.
type Diagnostics struct {
	Cols, Rows                int
	CellWidth, CellHeight     int32
	CanvasWidth, CanvasHeight float32

	DirtyFirst, DirtyLast int
	DirtyPending          bool

	MissingGlyphCount int
	RecentEvictions   []string
}

// DumpDiagnostics msgpack-encodes a Diagnostics snapshot, grounded on the
// reference renderer's wx/manifest.go RawManifest encoding (§11.3): the
// same library, the same Marshal-a-snapshot-struct shape, applied to a
// debugging affordance instead of a weather-data manifest.
func (t *Terminal) DumpDiagnostics() ([]byte, error) {
	d := Diagnostics{
		CellWidth:   t.cellW,
		CellHeight:  t.cellH,
		CanvasWidth: t.canvasW, CanvasHeight: t.canvasH,
	}
	d.Cols, d.Rows = t.grid.Cols(), t.grid.Rows()
	d.DirtyFirst, d.DirtyLast, d.DirtyPending = t.grid.DirtyRange()
	d.MissingGlyphCount = len(t.MissingGlyphs())

	if evictor, ok := t.source.(interface{ RecentEvictions() []string }); ok {
		d.RecentEvictions = evictor.RecentEvictions()
	}

	return msgpack.Marshal(&d)
}
