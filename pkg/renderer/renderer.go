package renderer

import (
	"fmt"
	"log/slog"
)

// RendererStats reports what one Draw call cost, adapted from the
// teacher's buffer/draw-call accounting to this renderer's single
// instanced draw instead of a command-buffer's many heterogeneous ones.
type RendererStats struct {
	nBuffers    int
	bufferBytes int
	nDrawCalls  int
	nTriangles  int
}

func (rs RendererStats) String() string {
	return fmt.Sprintf("%d buffers (%.2f MB), %d draw call, %d triangles",
		rs.nBuffers, float32(rs.bufferBytes)/(1024*1024), rs.nDrawCalls, rs.nTriangles)
}

func (rs RendererStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("buffers", rs.nBuffers),
		slog.Int("buffer_memory", rs.bufferBytes),
		slog.Int("draw_calls", rs.nDrawCalls),
		slog.Int("triangles", rs.nTriangles),
	)
}
