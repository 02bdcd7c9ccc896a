package image

// YCbCrToRGB converts full range BT.601 YCbCr, each channel normalized to
// [0, 1], to RGB in [0, 1]. Results are not clamped.
func YCbCrToRGB(y, cb, cr float64) (r, g, b float64) {
	cb -= 0.5
	cr -= 0.5
	r = y + 1.402*cr
	g = y - 0.344136*cb - 0.714136*cr
	b = y + 1.772*cb
	return r, g, b
}
