package terminal

import (
	"fmt"

	"github.com/mmp/vtrender/pkg/vterr"
)

// errNoDefaultAtlas wraps vterr.ErrResourceUnavailable for the one
// construction-time gap between this module and the abstract API surface
// of §6.3: "Static(bytes) (embedded default if null)" describes a
// compiled-in fallback atlas, but the tool that would produce one — the
// font-atlas generator — is explicitly out of scope (§1), and this module
// declines to embed a placeholder asset with no rasterized meaning just to
// satisfy the null case. Callers that want an embedded default should
// build one offline and pass its bytes, or use DynamicAtlasSource instead.
var errNoDefaultAtlas = fmt.Errorf("terminal: no embedded default atlas: %w", vterr.ErrResourceUnavailable)
