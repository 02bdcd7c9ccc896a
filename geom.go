package texsource

import "fmt"

// Vec2 is a 2D vector, used for offsets and per-axis scale factors.
type Vec2 struct {
	X, Y float64
}

// V2 is a convenience function to create a Vec2.
func V2(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

// Neg returns the negated vector.
func (v Vec2) Neg() Vec2 {
	return Vec2{X: -v.X, Y: -v.Y}
}

// Size is an integer image size in pixels.
type Size struct {
	W, H int
}

// Empty reports whether either dimension is not positive.
func (s Size) Empty() bool {
	return s.W <= 0 || s.H <= 0
}

// Aspect returns W/H, or 0 for an empty size.
func (s Size) Aspect() float64 {
	if s.Empty() {
		return 0
	}
	return float64(s.W) / float64(s.H)
}

// Swap returns the size with width and height exchanged.
func (s Size) Swap() Size {
	return Size{W: s.H, H: s.W}
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.W, s.H)
}
