package texsource

// Orientation is the correction applied to a camera frame so that it is
// upright and unmirrored.
type Orientation struct {
	// Size is the upright size: the native size, swapped for portrait.
	Size Size
	// Rotation is the clockwise correction in degrees.
	Rotation float64
	// Mirror holds the per-axis scale signs (1 or -1).
	Mirror Vec2
	// Portrait is set for 90 and 270 degree rotations.
	Portrait bool
}

// NormalizeRotation snaps an angle in degrees to 0, 90, 180 or 270.
func NormalizeRotation(degrees int) int {
	d := ((degrees % 360) + 360) % 360
	return (d + 45) / 90 % 4 * 90
}

// DeriveOrientation computes the correction for a native frame of the
// given size, rotation angle and mirroring flags.
//
// The rotation applied is the native rotation angle. Portrait angles swap
// the output size. Mirroring:
//
//	landscape (0, 180):  sx = front ? -1 : 1,               sy = vMirrored ? -1 : 1
//	portrait (90, 270):  sx = (front XOR vMirrored) ? -1 : 1, sy = 1
func DeriveOrientation(native Size, rotationAngle int, frontFacing, verticallyMirrored bool) Orientation {
	rot := NormalizeRotation(rotationAngle)
	o := Orientation{
		Size:     native,
		Rotation: float64(rot),
		Mirror:   Vec2{X: 1, Y: 1},
		Portrait: rot == 90 || rot == 270,
	}
	if o.Portrait {
		o.Size = native.Swap()
		if frontFacing != verticallyMirrored {
			o.Mirror.X = -1
		}
		return o
	}
	if frontFacing {
		o.Mirror.X = -1
	}
	if verticallyMirrored {
		o.Mirror.Y = -1
	}
	return o
}
