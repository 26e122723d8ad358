package dynatlas

// checkeredFallback produces a visually unmistakable checkerboard (opaque
// white on one-pixel squares, transparent elsewhere) for a slot whose
// rasterization failed outright — distinct from the silent "render as
// space" fallback used elsewhere, since a blank cell and a failed
// rasterization should not look identical to someone debugging a font
// issue (§12).
func checkeredFallback(width, height int32) []byte {
	pixels := make([]byte, int(width)*int(height)*4)
	for y := int32(0); y < height; y++ {
		for x := int32(0); x < width; x++ {
			if (x+y)%2 != 0 {
				continue
			}
			i := (int(y)*int(width) + int(x)) * 4
			pixels[i] = 0xff
			pixels[i+1] = 0xff
			pixels[i+2] = 0xff
			pixels[i+3] = 0xff
		}
	}
	return pixels
}
