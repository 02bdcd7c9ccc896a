package texsource

import "fmt"

// PixelFormat is the storage layout of an ImagePlane.
type PixelFormat uint8

const (
	// FormatRGBA8 is 32-bit RGBA, 8 bits per channel. Destination buffers
	// always use it.
	FormatRGBA8 PixelFormat = iota

	// FormatBGRA8 is 32-bit BGRA, common for camera drivers.
	FormatBGRA8

	// FormatRGB8 is 24-bit RGB without alpha.
	FormatRGB8

	// FormatGray8 is an 8-bit single channel plane (luma).
	FormatGray8

	// FormatGray16 is a 16-bit little-endian single channel plane (depth
	// in millimetres).
	FormatGray16

	// FormatRG8 is a two channel 8-bit plane (interleaved CbCr chroma).
	FormatRG8

	formatCount
)

var formatBytes = [formatCount]int{
	FormatRGBA8:  4,
	FormatBGRA8:  4,
	FormatRGB8:   3,
	FormatGray8:  1,
	FormatGray16: 2,
	FormatRG8:    2,
}

var formatNames = [formatCount]string{
	FormatRGBA8:  "RGBA8",
	FormatBGRA8:  "BGRA8",
	FormatRGB8:   "RGB8",
	FormatGray8:  "Gray8",
	FormatGray16: "Gray16",
	FormatRG8:    "RG8",
}

// BytesPerPixel returns the size of one pixel, or 0 for an unknown format.
func (f PixelFormat) BytesPerPixel() int {
	if f >= formatCount {
		return 0
	}
	return formatBytes[f]
}

// IsValid reports whether f is a known format.
func (f PixelFormat) IsValid() bool {
	return f < formatCount
}

func (f PixelFormat) String() string {
	if f >= formatCount {
		return fmt.Sprintf("PixelFormat(%d)", uint8(f))
	}
	return formatNames[f]
}

// ImagePlane is one input or output image. It carries either host pixels
// (Pix, row-major with Stride bytes per row) or a device-resident Image
// produced by another Transformer. The core never writes to it.
type ImagePlane struct {
	Width, Height int
	Format        PixelFormat

	// Pix holds host pixels. Stride 0 means tightly packed rows.
	Pix    []byte
	Stride int

	// Image is set for device-resident planes. When non-nil, Pix is ignored
	// and Format is FormatRGBA8.
	Image DeviceImage
}

// Size returns the plane dimensions.
func (p ImagePlane) Size() Size {
	return Size{W: p.Width, H: p.Height}
}

// RowStride returns the byte distance between rows of host pixels.
func (p ImagePlane) RowStride() int {
	if p.Stride > 0 {
		return p.Stride
	}
	return p.Width * p.Format.BytesPerPixel()
}

// Validate checks that the plane describes a readable image.
func (p ImagePlane) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("%w: plane size %dx%d", ErrConfiguration, p.Width, p.Height)
	}
	if p.Image != nil {
		if p.Image.Width() != p.Width || p.Image.Height() != p.Height {
			return fmt.Errorf("%w: plane %dx%d does not match device image %dx%d",
				ErrConfiguration, p.Width, p.Height, p.Image.Width(), p.Image.Height())
		}
		return nil
	}
	if !p.Format.IsValid() {
		return fmt.Errorf("%w: unknown pixel format %v", ErrConfiguration, p.Format)
	}
	stride := p.RowStride()
	if stride < p.Width*p.Format.BytesPerPixel() {
		return fmt.Errorf("%w: stride %d too small for %d %v pixels",
			ErrConfiguration, stride, p.Width, p.Format)
	}
	need := stride*(p.Height-1) + p.Width*p.Format.BytesPerPixel()
	if len(p.Pix) < need {
		return fmt.Errorf("%w: plane needs %d bytes, has %d", ErrConfiguration, need, len(p.Pix))
	}
	return nil
}

// PropertyID names the kernel input slot a plane is bound to.
type PropertyID string

// Well-known kernel properties.
const (
	PropertyMain   PropertyID = "_InputTex"
	PropertyLuma   PropertyID = "_textureY"
	PropertyChroma PropertyID = "_textureCbCr"
	PropertyDepth  PropertyID = "_EnvironmentDepth"
)

// PlaneBinding binds one plane to a kernel property.
type PlaneBinding struct {
	Property PropertyID
	Plane    ImagePlane
}
