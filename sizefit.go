package texsource

import "math"

// Fit computes the destination size that crops src to targetAspect, and the
// per-axis scale factors that make a Transformer perform that crop.
//
// When src is wider than the target, the width is reduced to
// roundEven(h*targetAspect) and the scale is (w/destW, 1). Otherwise the
// height is reduced to roundEven(w/targetAspect) and the scale is
// (1, h/destH). Both dimensions of the result are even, at least 2, and never
// larger than src: the pass-through dimension is floored to even when src
// has an odd size.
//
// Fit is pure. A source dimension below 2, or a non-positive or non-finite
// aspect, returns the zero Size and a scale of (1, 1).
func Fit(src Size, targetAspect float64) (Size, Vec2) {
	if src.W < 2 || src.H < 2 || !(targetAspect > 0) || math.IsInf(targetAspect, 0) {
		return Size{}, Vec2{X: 1, Y: 1}
	}
	w, h := float64(src.W), float64(src.H)
	if w/h > targetAspect {
		dw := min(roundEven(h*targetAspect), floorEven(src.W))
		return Size{W: dw, H: floorEven(src.H)}, Vec2{X: w / float64(dw), Y: 1}
	}
	dh := min(roundEven(w/targetAspect), floorEven(src.H))
	return Size{W: floorEven(src.W), H: dh}, Vec2{X: 1, Y: h / float64(dh)}
}

// roundEven rounds n to the nearest even integer, never below 2.
func roundEven(n float64) int {
	return max(int(math.Round(n/2))*2, 2)
}

func floorEven(n int) int {
	return max(n&^1, 2)
}
