package image

import "math"

// SampleBilinear interpolates the four texels around normalized
// coordinates (u, v), where texel (x, y) has its center at
// ((x+0.5)/w, (y+0.5)/h). Coordinates outside [0, 1] clamp to the edge.
func SampleBilinear(img *ImageBuf, u, v float64) [4]float64 {
	w, h := img.Bounds()

	fx := u*float64(w) - 0.5
	fy := v*float64(h) - 0.5

	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	x1 := clamp(x0+1, 0, w-1)
	y1 := clamp(y0+1, 0, h-1)
	x0 = clamp(x0, 0, w-1)
	y0 = clamp(y0, 0, h-1)

	c00 := img.Texel(x0, y0)
	c10 := img.Texel(x1, y0)
	c01 := img.Texel(x0, y1)
	c11 := img.Texel(x1, y1)

	var out [4]float64
	for i := range out {
		out[i] = lerp2D(c00[i], c10[i], c01[i], c11[i], tx, ty)
	}
	return out
}

// clamp clamps an integer value to [minVal, maxVal].
func clamp(v, minVal, maxVal int) int {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// lerp2D performs bilinear interpolation between 4 values.
func lerp2D(v00, v10, v01, v11, tx, ty float64) float64 {
	top := v00 + (v10-v00)*tx
	bottom := v01 + (v11-v01)*tx
	return top + (bottom-top)*ty
}
