// Package renderer owns the GPU side of the terminal grid (§4.4): the
// quad geometry, the two instanced per-cell buffers, both uniform buffer
// objects, the glyph texture array, the shader program, and the single
// draw call that paints every cell in one instanced pass.
package renderer

import (
	"encoding/binary"
	"fmt"
	"math"
	"syscall/js"

	"github.com/mmp/vtrender/pkg/atlas"
	"github.com/mmp/vtrender/pkg/glyph"
	"github.com/mmp/vtrender/pkg/vtlog"
	"github.com/mmp/vtrender/pkg/webgl"
)

const (
	vertexParamsBinding   = 0
	fragmentParamsBinding = 1

	// paddingFraction insets glyph texture sampling by this much on every
	// side of a cell, avoiding neighboring-glyph bleed from the 1-pixel
	// border the atlas generator bakes around each slot.
	paddingFraction = float32(1.0 / 32.0)
)

var quadVertices = []float32{
	// pos.x, pos.y, tex.x, tex.y
	0, 0, 0, 0,
	1, 0, 1, 0,
	1, 1, 1, 1,
	0, 1, 0, 1,
}

var quadIndices = []uint16{0, 1, 2, 0, 2, 3}

// Resources owns every GPU handle the grid renderer touches. It keeps the
// projection inputs and the dynamic buffer size so a context-loss restore
// can recreate every buffer, texture, and program; Rebuild still takes the
// glyph source from its caller, and the caller re-uploads the position and
// cell contents afterward.
type Resources struct {
	lg *vtlog.Logger
	gl *webgl.Context

	program js.Value
	vao     js.Value

	vboQuad        js.Value
	iboQuad        js.Value
	vboCellPos     js.Value
	vboCellDynamic js.Value
	uboVertex      js.Value
	uboFragment    js.Value
	texAtlas       js.Value

	atlasTexUniform js.Value

	cellW, cellH       float32
	canvasW, canvasH   float32
	texW, texH, layers int32
	atlasMask          glyph.ID
	underline          atlas.LineDecoration
	strikethrough      atlas.LineDecoration

	cellBufferSize int
	stats          RendererStats
}

// New builds every GPU resource from a freshly wrapped context. The caller
// still owns canvas sizing and atlas selection; New takes no atlas, and the
// texture array's storage and the fragment UBO's contents are set by a
// later SetAtlas call.
func New(gl *webgl.Context, lg *vtlog.Logger) (*Resources, error) {
	if lg == nil {
		lg = vtlog.Discard()
	}
	r := &Resources{lg: lg, gl: gl}
	if err := r.build(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Resources) build() error {
	program, err := r.gl.BuildProgram(vertexShaderSource, fragmentShaderSource)
	if err != nil {
		return fmt.Errorf("renderer: %w", err)
	}
	r.program = program
	c := r.gl.Consts()

	r.vao = r.gl.CreateVertexArray()
	r.gl.BindVertexArray(r.vao)

	r.vboQuad = r.gl.CreateBuffer()
	r.gl.BindBuffer(c.ArrayBuffer, r.vboQuad)
	r.gl.BufferData(c.ArrayBuffer, float32sToBytes(quadVertices), c.StaticDraw)
	r.gl.EnableVertexAttribArray(0)
	r.gl.VertexAttribPointer(0, 2, c.Float, false, 16, 0)
	r.gl.EnableVertexAttribArray(1)
	r.gl.VertexAttribPointer(1, 2, c.Float, false, 16, 8)

	r.iboQuad = r.gl.CreateBuffer()
	r.gl.BindBuffer(c.ElementArrayBuffer, r.iboQuad)
	r.gl.BufferData(c.ElementArrayBuffer, uint16sToBytes(quadIndices), c.StaticDraw)

	r.vboCellPos = r.gl.CreateBuffer()
	r.gl.BindBuffer(c.ArrayBuffer, r.vboCellPos)
	r.gl.EnableVertexAttribArray(2)
	r.gl.VertexAttribIPointer(2, 2, c.UnsignedShort, 4, 0)
	r.gl.VertexAttribDivisor(2, 1)

	r.vboCellDynamic = r.gl.CreateBuffer()
	r.gl.BindBuffer(c.ArrayBuffer, r.vboCellDynamic)
	r.gl.EnableVertexAttribArray(3)
	r.gl.VertexAttribIPointer(3, 2, c.UnsignedInt, 8, 0)
	r.gl.VertexAttribDivisor(3, 1)

	r.gl.BindVertexArray(js.Null())

	r.uboVertex = r.gl.CreateBuffer()
	r.gl.BindBuffer(c.UniformBuffer, r.uboVertex)
	r.gl.BufferDataSize(c.UniformBuffer, vertexUBOSize, c.DynamicDraw)
	vIdx := r.gl.GetUniformBlockIndex(r.program, "VertexParams")
	r.gl.UniformBlockBinding(r.program, vIdx, vertexParamsBinding)
	r.gl.BindBufferBase(c.UniformBuffer, vertexParamsBinding, r.uboVertex)

	r.uboFragment = r.gl.CreateBuffer()
	r.gl.BindBuffer(c.UniformBuffer, r.uboFragment)
	r.gl.BufferDataSize(c.UniformBuffer, fragmentUBOSize, c.DynamicDraw)
	fIdx := r.gl.GetUniformBlockIndex(r.program, "FragmentParams")
	r.gl.UniformBlockBinding(r.program, fIdx, fragmentParamsBinding)
	r.gl.BindBufferBase(c.UniformBuffer, fragmentParamsBinding, r.uboFragment)

	r.texAtlas = r.gl.CreateTexture()
	r.atlasTexUniform = r.gl.GetUniformLocation(r.program, "u_atlas_tex")

	r.stats.nBuffers = 6
	return nil
}

// SetAtlas (re)allocates the glyph texture array and fragment UBO to match
// src's dimensions and line metrics. Called on construction and on every
// atlas swap (§6.3 replace_atlas_*).
func (r *Resources) SetAtlas(src atlas.Source) {
	w, h, layers := src.TextureDims()
	r.texW, r.texH, r.layers = w, h, layers
	r.atlasMask = src.AtlasMask()
	r.underline, r.strikethrough = src.LineMetrics()

	c := r.gl.Consts()
	r.gl.BindTexture(c.Texture2DArray, r.texAtlas)
	r.gl.TexStorage3D(c.Texture2DArray, 1, c.RGBA8, w, h, layers)
	r.gl.TexParameteri(c.Texture2DArray, c.TextureMinFilter, c.Nearest)
	r.gl.TexParameteri(c.Texture2DArray, c.TextureMagFilter, c.Nearest)
	r.gl.TexParameteri(c.Texture2DArray, c.TextureWrapS, c.ClampToEdge)
	r.gl.TexParameteri(c.Texture2DArray, c.TextureWrapT, c.ClampToEdge)

	r.updateFragmentUBO()
}

// UploadGlyphs drains queue into the live texture array via per-slot
// sub-image uploads, matching §5's ordering guarantee that rasterizations
// triggered by this frame's resolves land in the texture before the draw.
func (r *Resources) UploadGlyphs(queue []atlas.SubUpload) {
	if len(queue) == 0 {
		return
	}
	c := r.gl.Consts()
	r.gl.BindTexture(c.Texture2DArray, r.texAtlas)
	for _, u := range queue {
		r.gl.TexSubImage3D(c.Texture2DArray, 0, u.X, u.Y, int32(u.Layer), u.W, u.H, c.RGBA, c.UnsignedByte, u.Pixels)
	}
}

// SetProjection rebuilds the vertex UBO for a new canvas size and cell
// size (§4.4 Projection): orthographic, origin top-left, pixel units.
func (r *Resources) SetProjection(canvasW, canvasH, cellW, cellH float32) {
	r.canvasW, r.canvasH = canvasW, canvasH
	r.cellW, r.cellH = cellW, cellH

	c := r.gl.Consts()
	r.gl.BindBuffer(c.UniformBuffer, r.uboVertex)
	r.gl.BufferSubData(c.UniformBuffer, 0, marshalVertexUBO(canvasW, canvasH, cellW, cellH))
}

func (r *Resources) updateFragmentUBO() {
	c := r.gl.Consts()
	r.gl.BindBuffer(c.UniformBuffer, r.uboFragment)
	r.gl.BufferSubData(c.UniformBuffer, 0, marshalFragmentUBO(r.underline, r.strikethrough, r.atlasMask))
}

// AllocatePositionBuffer (re)sizes the cell-position instance buffer and
// uploads the per-cell grid coordinates once, per §4.6 resize semantics.
func (r *Resources) AllocatePositionBuffer(positions []byte) {
	c := r.gl.Consts()
	r.gl.BindBuffer(c.ArrayBuffer, r.vboCellPos)
	r.gl.BufferData(c.ArrayBuffer, positions, c.StaticDraw)
}

// AllocateDynamicBuffer (re)sizes the cell dynamic instance buffer. size is
// in bytes (8 * cols * rows).
func (r *Resources) AllocateDynamicBuffer(size int) {
	r.cellBufferSize = size
	c := r.gl.Consts()
	r.gl.BindBuffer(c.ArrayBuffer, r.vboCellDynamic)
	r.gl.BufferDataSize(c.ArrayBuffer, size, c.DynamicDraw)
}

// UploadDynamicRange pushes a dirty byte range into the cell dynamic
// buffer at offset, the incremental path flush() takes most frames.
func (r *Resources) UploadDynamicRange(offset int, data []byte) {
	c := r.gl.Consts()
	r.gl.BindBuffer(c.ArrayBuffer, r.vboCellDynamic)
	r.gl.BufferSubData(c.ArrayBuffer, offset, data)
}

// UploadDynamicFull replaces the entire cell dynamic buffer, the path
// flush() takes when the dirty range is too large to bother diffing.
func (r *Resources) UploadDynamicFull(data []byte) {
	c := r.gl.Consts()
	r.gl.BindBuffer(c.ArrayBuffer, r.vboCellDynamic)
	r.gl.BufferData(c.ArrayBuffer, data, c.DynamicDraw)
}

// Draw issues the single instanced draw call covering every cell.
func (r *Resources) Draw(instances int) RendererStats {
	c := r.gl.Consts()
	r.gl.UseProgram(r.program)
	r.gl.BindVertexArray(r.vao)
	r.gl.ActiveTexture(c.Texture0)
	r.gl.BindTexture(c.Texture2DArray, r.texAtlas)
	r.gl.Uniform1i(r.atlasTexUniform, 0)
	r.gl.Enable(c.Blend)
	r.gl.BlendFunc(c.SrcAlpha, c.OneMinusSrcAlpha)
	r.gl.BindBuffer(c.ElementArrayBuffer, r.iboQuad)
	r.gl.DrawElementsInstanced(c.Triangles, len(quadIndices), c.UnsignedShort, 0, instances)

	stats := r.stats
	stats.nDrawCalls = 1
	stats.nTriangles = 2 * instances
	stats.bufferBytes = r.cellBufferSize + int(r.texW)*int(r.texH)*int(r.layers)*4
	return stats
}

// Destroy releases every GPU handle. Call before Rebuild after a context
// loss, or when the Terminal facade is torn down entirely.
func (r *Resources) Destroy() {
	r.gl.DeleteBuffer(r.vboQuad)
	r.gl.DeleteBuffer(r.iboQuad)
	r.gl.DeleteBuffer(r.vboCellPos)
	r.gl.DeleteBuffer(r.vboCellDynamic)
	r.gl.DeleteBuffer(r.uboVertex)
	r.gl.DeleteBuffer(r.uboFragment)
	r.gl.DeleteTexture(r.texAtlas)
	r.gl.DeleteVertexArray(r.vao)
	r.gl.DeleteProgram(r.program)
}

// Rebuild recreates every GPU resource after a context restore, using the
// same webgl.Context (now backed by the browser's new live context) and
// the host-side parameters recorded from the last SetAtlas/SetProjection.
// The caller is responsible for re-uploading the position and dynamic
// buffers afterward, since Resources keeps no host-side copy of cell
// content — the Terminal facade's grid is the master copy (§4.4).
func (r *Resources) Rebuild(src atlas.Source) error {
	if err := r.build(); err != nil {
		return err
	}
	r.SetAtlas(src)
	r.SetProjection(r.canvasW, r.canvasH, r.cellW, r.cellH)
	if r.cellBufferSize > 0 {
		r.AllocateDynamicBuffer(r.cellBufferSize)
	}
	return nil
}

const (
	vertexUBOSize   = 80 // mat4 (64) + vec2 cell size (8) + padding to vec4 multiple
	fragmentUBOSize = 64 // 4 vec4-aligned fields: underline, strikethrough, padding, atlas params
)

func marshalVertexUBO(canvasW, canvasH, cellW, cellH float32) []byte {
	buf := make([]byte, vertexUBOSize)
	proj := orthoProjection(canvasW, canvasH)
	for i, v := range proj {
		putFloat32(buf[i*4:], v)
	}
	putFloat32(buf[64:], cellW)
	putFloat32(buf[68:], cellH)
	return buf
}

// orthoProjection returns a column-major mat4 mapping (0,0) top-left,
// (canvasW,canvasH) bottom-right pixel coordinates to clip space.
func orthoProjection(w, h float32) [16]float32 {
	if w == 0 {
		w = 1
	}
	if h == 0 {
		h = 1
	}
	return [16]float32{
		2 / w, 0, 0, 0,
		0, -2 / h, 0, 0,
		0, 0, -1, 0,
		-1, 1, 0, 1,
	}
}

func marshalFragmentUBO(underline, strikethrough atlas.LineDecoration, atlasMask glyph.ID) []byte {
	buf := make([]byte, fragmentUBOSize)
	putFloat32(buf[0:], underline.Position)
	putFloat32(buf[4:], underline.Thickness)
	putFloat32(buf[16:], strikethrough.Position)
	putFloat32(buf[20:], strikethrough.Thickness)
	putFloat32(buf[32:], paddingFraction)
	binary.LittleEndian.PutUint32(buf[48:], uint32(atlasMask))
	binary.LittleEndian.PutUint32(buf[52:], glyph.GlyphsPerLayer)
	return buf
}

func putFloat32(dst []byte, v float32) {
	binary.LittleEndian.PutUint32(dst, math.Float32bits(v))
}

func float32sToBytes(vals []float32) []byte {
	buf := make([]byte, 4*len(vals))
	for i, v := range vals {
		putFloat32(buf[i*4:], v)
	}
	return buf
}

func uint16sToBytes(vals []uint16) []byte {
	buf := make([]byte, 2*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint16(buf[i*2:], v)
	}
	return buf
}
