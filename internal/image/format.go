// Package image provides host-side pixel buffers and the sampling math
// shared by the CPU kernels of texsource.
package image

// Format represents a pixel storage format.
type Format uint8

const (
	// FormatGray8 is 8-bit grayscale (1 byte per pixel).
	FormatGray8 Format = iota

	// FormatGray16 is 16-bit little-endian grayscale (2 bytes per pixel).
	FormatGray16

	// FormatRG8 is two 8-bit channels (2 bytes per pixel), used for
	// interleaved CbCr chroma planes.
	FormatRG8

	// FormatRGB8 is 24-bit RGB (3 bytes per pixel, no alpha).
	FormatRGB8

	// FormatRGBA8 is 32-bit RGBA (4 bytes per pixel).
	FormatRGBA8

	// FormatBGRA8 is 32-bit BGRA (4 bytes per pixel).
	FormatBGRA8

	formatCount
)

// FormatInfo contains metadata about a pixel format.
type FormatInfo struct {
	// BytesPerPixel is the number of bytes per pixel.
	BytesPerPixel int

	// Channels is the number of stored channels.
	Channels int

	// HasAlpha indicates if the format has an alpha channel.
	HasAlpha bool

	// IsGrayscale indicates a single channel format.
	IsGrayscale bool

	// BitsPerChannel is the number of bits per channel.
	BitsPerChannel int
}

var formatInfoTable = [formatCount]FormatInfo{
	FormatGray8:  {BytesPerPixel: 1, Channels: 1, IsGrayscale: true, BitsPerChannel: 8},
	FormatGray16: {BytesPerPixel: 2, Channels: 1, IsGrayscale: true, BitsPerChannel: 16},
	FormatRG8:    {BytesPerPixel: 2, Channels: 2, BitsPerChannel: 8},
	FormatRGB8:   {BytesPerPixel: 3, Channels: 3, BitsPerChannel: 8},
	FormatRGBA8:  {BytesPerPixel: 4, Channels: 4, HasAlpha: true, BitsPerChannel: 8},
	FormatBGRA8:  {BytesPerPixel: 4, Channels: 4, HasAlpha: true, BitsPerChannel: 8},
}

// Info returns the metadata for f. Unknown formats return the zero value.
func (f Format) Info() FormatInfo {
	if f >= formatCount {
		return FormatInfo{}
	}
	return formatInfoTable[f]
}

// BytesPerPixel returns the number of bytes per pixel.
func (f Format) BytesPerPixel() int {
	return f.Info().BytesPerPixel
}

// IsValid reports whether f is a known format.
func (f Format) IsValid() bool {
	return f < formatCount
}

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatGray8:
		return "Gray8"
	case FormatGray16:
		return "Gray16"
	case FormatRG8:
		return "RG8"
	case FormatRGB8:
		return "RGB8"
	case FormatRGBA8:
		return "RGBA8"
	case FormatBGRA8:
		return "BGRA8"
	default:
		return "Unknown"
	}
}
