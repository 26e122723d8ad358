// Package webgl wraps a WebGL2 rendering context obtained via syscall/js: GL
// constant caching, shader compile/link, buffer and texture-array helpers,
// and byte-buffer marshalling for typed-array uploads. It owns no rendering
// policy — that lives in the renderer package — only the mechanical parts
// of talking to the browser's WebGL2 API.
package webgl

import (
	"fmt"
	"syscall/js"

	"github.com/mmp/vtrender/pkg/vterr"
)

// Enum mirrors a cached GLenum value looked up once at construction time,
// rather than re-fetched from the JS global on every call.
type Enum int

// Consts holds every GLenum this package's callers need, resolved once from
// the live context so hot paths never touch js.Value.Get by name.
type Consts struct {
	ArrayBuffer        Enum
	ElementArrayBuffer Enum
	UniformBuffer      Enum
	StaticDraw         Enum
	DynamicDraw        Enum
	Triangles          Enum
	UnsignedByte       Enum
	UnsignedShort      Enum
	UnsignedInt        Enum
	Float              Enum
	Texture2DArray     Enum
	RGBA8              Enum
	RGBA               Enum
	TextureMinFilter   Enum
	TextureMagFilter   Enum
	TextureWrapS       Enum
	TextureWrapT       Enum
	Nearest            Enum
	ClampToEdge        Enum
	Texture0           Enum
	ColorBufferBit     Enum
	Blend              Enum
	SrcAlpha           Enum
	OneMinusSrcAlpha   Enum
	CompileStatus      Enum
	LinkStatus         Enum
	VertexShader       Enum
	FragmentShader     Enum
}

// Context is a thin, stateful wrapper around one WebGL2 rendering context.
type Context struct {
	gl     js.Value
	consts Consts

	// arrayBuf/uint8Array back byteArrayOf: one growable staging buffer
	// reused across calls instead of allocating a fresh typed array per
	// upload (§5 memory budget — no unbounded per-frame allocation).
	arrayBuf   js.Value
	uint8Array js.Value
}

// New wraps gl, verifying the capabilities the grid renderer requires:
// 2D texture arrays, instanced rendering, UBOs, and VAOs. All four are
// native to WebGL2, so this amounts to confirming gl is actually a WebGL2
// context rather than a WebGL1 fallback the host handed us by mistake.
func New(gl js.Value) (*Context, error) {
	if gl.IsUndefined() || gl.IsNull() {
		return nil, fmt.Errorf("%w: no WebGL2 context supplied", vterr.ErrResourceUnavailable)
	}
	for _, fn := range []string{"texStorage3D", "texSubImage3D", "drawElementsInstanced", "createVertexArray", "bindBufferBase"} {
		if gl.Get(fn).IsUndefined() {
			return nil, fmt.Errorf("%w: context missing %s (not WebGL2?)", vterr.ErrResourceUnavailable, fn)
		}
	}

	c := &Context{
		gl:         gl,
		uint8Array: js.Global().Get("Uint8Array"),
	}
	c.initConsts()
	return c, nil
}

func (c *Context) initConsts() {
	get := func(name string) Enum { return Enum(c.gl.Get(name).Int()) }
	c.consts = Consts{
		ArrayBuffer:        get("ARRAY_BUFFER"),
		ElementArrayBuffer: get("ELEMENT_ARRAY_BUFFER"),
		UniformBuffer:      get("UNIFORM_BUFFER"),
		StaticDraw:         get("STATIC_DRAW"),
		DynamicDraw:        get("DYNAMIC_DRAW"),
		Triangles:          get("TRIANGLES"),
		UnsignedByte:       get("UNSIGNED_BYTE"),
		UnsignedShort:      get("UNSIGNED_SHORT"),
		UnsignedInt:        get("UNSIGNED_INT"),
		Float:              get("FLOAT"),
		Texture2DArray:     get("TEXTURE_2D_ARRAY"),
		RGBA8:              get("RGBA8"),
		RGBA:               get("RGBA"),
		TextureMinFilter:   get("TEXTURE_MIN_FILTER"),
		TextureMagFilter:   get("TEXTURE_MAG_FILTER"),
		TextureWrapS:       get("TEXTURE_WRAP_S"),
		TextureWrapT:       get("TEXTURE_WRAP_T"),
		Nearest:            get("NEAREST"),
		ClampToEdge:        get("CLAMP_TO_EDGE"),
		Texture0:           get("TEXTURE0"),
		ColorBufferBit:     get("COLOR_BUFFER_BIT"),
		Blend:              get("BLEND"),
		SrcAlpha:           get("SRC_ALPHA"),
		OneMinusSrcAlpha:   get("ONE_MINUS_SRC_ALPHA"),
		CompileStatus:      get("COMPILE_STATUS"),
		LinkStatus:         get("LINK_STATUS"),
		VertexShader:       get("VERTEX_SHADER"),
		FragmentShader:     get("FRAGMENT_SHADER"),
	}
}

// Consts exposes the cached GLenum table.
func (c *Context) Consts() Consts { return c.consts }

// GL returns the underlying js.Value for calls this package doesn't wrap.
func (c *Context) GL() js.Value { return c.gl }

// IsContextLost reports the WebGL-level loss flag directly, independent of
// the event-driven ContextLossHandler — used as a belt-and-suspenders check
// before issuing a draw call.
func (c *Context) IsContextLost() bool {
	return c.gl.Call("isContextLost").Bool()
}

// CompileShader compiles source as the given shader stage, returning
// ErrShaderCompilation with the driver's info log on failure.
func (c *Context) CompileShader(stage Enum, source string) (js.Value, error) {
	shader := c.gl.Call("createShader", int(stage))
	c.gl.Call("shaderSource", shader, source)
	c.gl.Call("compileShader", shader)
	if !c.gl.Call("getShaderParameter", shader, int(c.consts.CompileStatus)).Bool() {
		log := c.gl.Call("getShaderInfoLog", shader).String()
		c.gl.Call("deleteShader", shader)
		return js.Value{}, fmt.Errorf("%w: %s", vterr.ErrShaderCompilation, log)
	}
	return shader, nil
}

// LinkProgram builds, links, and validates a program from already-compiled
// vertex and fragment shaders, then deletes the now-unneeded shader objects.
func (c *Context) LinkProgram(vertex, fragment js.Value) (js.Value, error) {
	program := c.gl.Call("createProgram")
	c.gl.Call("attachShader", program, vertex)
	c.gl.Call("attachShader", program, fragment)
	c.gl.Call("linkProgram", program)
	defer c.gl.Call("deleteShader", vertex)
	defer c.gl.Call("deleteShader", fragment)

	if !c.gl.Call("getProgramParameter", program, int(c.consts.LinkStatus)).Bool() {
		log := c.gl.Call("getProgramInfoLog", program).String()
		c.gl.Call("deleteProgram", program)
		return js.Value{}, fmt.Errorf("%w: %s", vterr.ErrShaderCompilation, log)
	}
	return program, nil
}

// BuildProgram compiles both stages and links them in one call, the common
// path for the one vertex/fragment pair the grid renderer uses.
func (c *Context) BuildProgram(vertexSrc, fragmentSrc string) (js.Value, error) {
	vs, err := c.CompileShader(c.consts.VertexShader, vertexSrc)
	if err != nil {
		return js.Value{}, fmt.Errorf("vertex stage: %w", err)
	}
	fs, err := c.CompileShader(c.consts.FragmentShader, fragmentSrc)
	if err != nil {
		c.gl.Call("deleteShader", vs)
		return js.Value{}, fmt.Errorf("fragment stage: %w", err)
	}
	return c.LinkProgram(vs, fs)
}

// CreateBuffer, CreateVertexArray, and CreateTexture are direct pass-throughs
// kept on Context so callers never hold a bare js.Value they forgot to type.
func (c *Context) CreateBuffer() js.Value      { return c.gl.Call("createBuffer") }
func (c *Context) CreateVertexArray() js.Value { return c.gl.Call("createVertexArray") }
func (c *Context) CreateTexture() js.Value     { return c.gl.Call("createTexture") }

func (c *Context) BindBuffer(target Enum, buf js.Value) {
	c.gl.Call("bindBuffer", int(target), buf)
}

func (c *Context) BindVertexArray(vao js.Value) {
	c.gl.Call("bindVertexArray", vao)
}

func (c *Context) BindBufferBase(target Enum, index int, buf js.Value) {
	c.gl.Call("bindBufferBase", int(target), index, buf)
}

// BufferData uploads data, replacing the buffer's entire store.
func (c *Context) BufferData(target Enum, data []byte, usage Enum) {
	c.gl.Call("bufferData", int(target), c.byteArrayOf(data), int(usage))
}

// BufferDataSize allocates an uninitialized store of size bytes, used for
// the dynamic cell buffer sized to cols*rows*8 ahead of the first upload.
func (c *Context) BufferDataSize(target Enum, size int, usage Enum) {
	c.gl.Call("bufferData", int(target), size, int(usage))
}

// BufferSubData overwrites part of an already-allocated buffer store — the
// dirty-range upload path the grid's Flush exercises every frame.
func (c *Context) BufferSubData(target Enum, offset int, data []byte) {
	c.gl.Call("bufferSubData", int(target), offset, c.byteArrayOf(data))
}

func (c *Context) EnableVertexAttribArray(index int) {
	c.gl.Call("enableVertexAttribArray", index)
}

// VertexAttribPointer binds a float-interpreted attribute (quad pos/tex).
func (c *Context) VertexAttribPointer(index, size int, ty Enum, normalized bool, stride, offset int) {
	c.gl.Call("vertexAttribPointer", index, size, int(ty), normalized, stride, offset)
}

// VertexAttribIPointer binds an integer-interpreted attribute (the packed
// uvec2 instance data GLSL reads without float conversion).
func (c *Context) VertexAttribIPointer(index, size int, ty Enum, stride, offset int) {
	c.gl.Call("vertexAttribIPointer", index, size, int(ty), stride, offset)
}

func (c *Context) VertexAttribDivisor(index, divisor int) {
	c.gl.Call("vertexAttribDivisor", index, divisor)
}

// TexStorage3D allocates immutable storage for a 2D texture array.
func (c *Context) TexStorage3D(target Enum, levels int, internalFormat Enum, width, height, depth int32) {
	c.gl.Call("texStorage3D", int(target), levels, int(internalFormat), int(width), int(height), int(depth))
}

// TexSubImage3D uploads a rectangular RGBA8 region into one layer of a
// texture array — the Dynamic/Static Atlas glyph sub-upload primitive.
func (c *Context) TexSubImage3D(target Enum, level int, x, y, layer, w, h int32, format, ty Enum, pixels []byte) {
	c.gl.Call("texSubImage3D", int(target), level, int(x), int(y), int(layer), int(w), int(h), 1,
		int(format), int(ty), c.byteArrayOf(pixels))
}

func (c *Context) TexParameteri(target, pname Enum, param Enum) {
	c.gl.Call("texParameteri", int(target), int(pname), int(param))
}

func (c *Context) GetUniformBlockIndex(program js.Value, name string) int {
	return c.gl.Call("getUniformBlockIndex", program, name).Int()
}

func (c *Context) UniformBlockBinding(program js.Value, blockIndex, binding int) {
	c.gl.Call("uniformBlockBinding", program, blockIndex, binding)
}

func (c *Context) UseProgram(program js.Value) {
	c.gl.Call("useProgram", program)
}

func (c *Context) GetUniformLocation(program js.Value, name string) js.Value {
	return c.gl.Call("getUniformLocation", program, name)
}

func (c *Context) Uniform1i(loc js.Value, v int) {
	c.gl.Call("uniform1i", loc, v)
}

func (c *Context) Viewport(x, y, width, height int) {
	c.gl.Call("viewport", x, y, width, height)
}

func (c *Context) ClearColor(r, g, b, a float32) {
	c.gl.Call("clearColor", r, g, b, a)
}

func (c *Context) Clear(mask Enum) {
	c.gl.Call("clear", int(mask))
}

func (c *Context) Enable(cap Enum) {
	c.gl.Call("enable", int(cap))
}

func (c *Context) BlendFunc(src, dst Enum) {
	c.gl.Call("blendFunc", int(src), int(dst))
}

func (c *Context) ActiveTexture(unit Enum) {
	c.gl.Call("activeTexture", int(unit))
}

func (c *Context) BindTexture(target Enum, tex js.Value) {
	c.gl.Call("bindTexture", int(target), tex)
}

// DrawElementsInstanced issues the terminal grid's one draw call: 6 indices
// per cell quad, instanced cols*rows times.
func (c *Context) DrawElementsInstanced(mode Enum, count int, ty Enum, offset, instances int) {
	c.gl.Call("drawElementsInstanced", int(mode), count, int(ty), offset, instances)
}

func (c *Context) DeleteBuffer(buf js.Value)      { c.gl.Call("deleteBuffer", buf) }
func (c *Context) DeleteVertexArray(vao js.Value) { c.gl.Call("deleteVertexArray", vao) }
func (c *Context) DeleteTexture(tex js.Value)     { c.gl.Call("deleteTexture", tex) }
func (c *Context) DeleteProgram(program js.Value) { c.gl.Call("deleteProgram", program) }

// byteArrayOf copies data into a reused JS ArrayBuffer-backed Uint8Array,
// growing the backing store only when the current one is too small. This is
// the same amortized-resize idiom used for every per-frame buffer upload in
// the browser: avoid allocating a fresh typed array for every call.
func (c *Context) byteArrayOf(data []byte) js.Value {
	if len(data) == 0 {
		return js.Null()
	}
	if c.arrayBuf.IsUndefined() || c.arrayBuf.Get("byteLength").Int() < len(data) {
		c.arrayBuf = js.Global().Get("ArrayBuffer").New(len(data))
	}
	view := c.uint8Array.New(c.arrayBuf, 0, len(data))
	js.CopyBytesToJS(view, data)
	return view
}
