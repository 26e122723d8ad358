package webgl

import "syscall/js"

// ContextLossHandler attaches webglcontextlost/webglcontextrestored
// listeners to a canvas and tracks the two booleans the Terminal facade's
// frame guard needs: whether the context is lost right now, and whether a
// restore happened that resources haven't been rebuilt for yet.
type ContextLossHandler struct {
	canvas     js.Value
	lost       bool
	pending    bool
	cleanfuncs []func()
}

// NewContextLossHandler registers both listeners on canvas. preventDefault
// on the lost event is required by the browser contract for the context to
// ever be restored at all.
func NewContextLossHandler(canvas js.Value) *ContextLossHandler {
	h := &ContextLossHandler{canvas: canvas}
	h.addEventListener(canvas, "webglcontextlost", func(this js.Value, args []js.Value) any {
		if len(args) > 0 {
			args[0].Call("preventDefault")
		}
		h.lost = true
		return nil
	})
	h.addEventListener(canvas, "webglcontextrestored", func(this js.Value, args []js.Value) any {
		h.lost = false
		h.pending = true
		return nil
	})
	return h
}

// IsLost reports whether the context is currently lost.
func (h *ContextLossHandler) IsLost() bool { return h.lost }

// PendingRebuild reports whether a restore happened since the last call to
// ClearPendingRebuild — the signal that GPU resources must be recreated
// from host-side master copies before the next draw.
func (h *ContextLossHandler) PendingRebuild() bool { return h.pending }

// ClearPendingRebuild is called once resource recreation has completed.
func (h *ContextLossHandler) ClearPendingRebuild() { h.pending = false }

// Close removes both event listeners and releases their JS funcs.
func (h *ContextLossHandler) Close() {
	for _, f := range h.cleanfuncs {
		f()
	}
	h.cleanfuncs = nil
}

func (h *ContextLossHandler) addEventListener(target js.Value, event string, f func(this js.Value, args []js.Value) any) {
	jsf := js.FuncOf(f)
	target.Call("addEventListener", event, jsf)
	h.cleanfuncs = append(h.cleanfuncs, func() {
		target.Call("removeEventListener", event, jsf)
		jsf.Release()
	})
}
