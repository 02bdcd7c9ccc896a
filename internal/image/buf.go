package image

import "errors"

// Errors returned by buffer constructors.
var (
	// ErrInvalidDimensions is returned when width or height is not positive.
	ErrInvalidDimensions = errors.New("image: invalid dimensions")

	// ErrInvalidFormat is returned when the format is unknown.
	ErrInvalidFormat = errors.New("image: invalid format")

	// ErrInvalidStride is returned when the stride is smaller than a row.
	ErrInvalidStride = errors.New("image: invalid stride")

	// ErrDataTooSmall is returned when the pixel data is shorter than the
	// dimensions require.
	ErrDataTooSmall = errors.New("image: data too small")
)

// ImageBuf is a rectangular pixel buffer in one of the supported formats.
// Rows are stored top to bottom, stride bytes apart.
type ImageBuf struct {
	data   []byte
	width  int
	height int
	stride int
	format Format
}

// NewImageBuf allocates a zeroed, tightly packed buffer.
func NewImageBuf(width, height int, format Format) (*ImageBuf, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if !format.IsValid() {
		return nil, ErrInvalidFormat
	}
	stride := width * format.BytesPerPixel()
	return &ImageBuf{
		data:   make([]byte, stride*height),
		width:  width,
		height: height,
		stride: stride,
		format: format,
	}, nil
}

// FromRaw wraps existing pixel data without copying. A stride of 0 means
// tightly packed rows.
func FromRaw(data []byte, width, height int, format Format, stride int) (*ImageBuf, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if !format.IsValid() {
		return nil, ErrInvalidFormat
	}
	row := width * format.BytesPerPixel()
	if stride == 0 {
		stride = row
	}
	if stride < row {
		return nil, ErrInvalidStride
	}
	if len(data) < stride*(height-1)+row {
		return nil, ErrDataTooSmall
	}
	return &ImageBuf{data: data, width: width, height: height, stride: stride, format: format}, nil
}

// Width returns the image width in pixels.
func (b *ImageBuf) Width() int { return b.width }

// Height returns the image height in pixels.
func (b *ImageBuf) Height() int { return b.height }

// Stride returns the number of bytes per row.
func (b *ImageBuf) Stride() int { return b.stride }

// Format returns the pixel format.
func (b *ImageBuf) Format() Format { return b.format }

// Bounds returns the width and height.
func (b *ImageBuf) Bounds() (int, int) { return b.width, b.height }

// Data returns the underlying pixel data.
func (b *ImageBuf) Data() []byte { return b.data }

// PixelOffset returns the byte offset of pixel (x, y).
func (b *ImageBuf) PixelOffset(x, y int) int {
	return y*b.stride + x*b.format.BytesPerPixel()
}

// Texel returns pixel (x, y) as four channels normalized to [0, 1].
// Missing channels read as in a GPU texture fetch: gray expands to RGB,
// two channel formats leave blue at 0, and alpha defaults to 1.
// Gray16 is little endian and normalized by 65535.
func (b *ImageBuf) Texel(x, y int) [4]float64 {
	const n8 = 1.0 / 255
	d := b.data[b.PixelOffset(x, y):]
	switch b.format {
	case FormatGray8:
		g := float64(d[0]) * n8
		return [4]float64{g, g, g, 1}
	case FormatGray16:
		g := float64(uint16(d[0])|uint16(d[1])<<8) / 65535
		return [4]float64{g, g, g, 1}
	case FormatRG8:
		return [4]float64{float64(d[0]) * n8, float64(d[1]) * n8, 0, 1}
	case FormatRGB8:
		return [4]float64{float64(d[0]) * n8, float64(d[1]) * n8, float64(d[2]) * n8, 1}
	case FormatBGRA8:
		return [4]float64{float64(d[2]) * n8, float64(d[1]) * n8, float64(d[0]) * n8, float64(d[3]) * n8}
	default:
		return [4]float64{float64(d[0]) * n8, float64(d[1]) * n8, float64(d[2]) * n8, float64(d[3]) * n8}
	}
}

// SetRGBA writes an RGBA8 pixel. It is a no-op for other formats and for
// coordinates outside the buffer.
func (b *ImageBuf) SetRGBA(x, y int, r, g, bl, a uint8) {
	if b.format != FormatRGBA8 || x < 0 || y < 0 || x >= b.width || y >= b.height {
		return
	}
	i := b.PixelOffset(x, y)
	b.data[i], b.data[i+1], b.data[i+2], b.data[i+3] = r, g, bl, a
}

// GetRGBA returns pixel (x, y) as 8-bit RGBA.
func (b *ImageBuf) GetRGBA(x, y int) (r, g, bl, a uint8) {
	t := b.Texel(x, y)
	return ToByte(t[0]), ToByte(t[1]), ToByte(t[2]), ToByte(t[3])
}

// CopyTo copies the buffer into dst as tightly packed rows of the same
// format. dst must hold width*height*BytesPerPixel bytes.
func (b *ImageBuf) CopyTo(dst []byte) {
	row := b.width * b.format.BytesPerPixel()
	for y := range b.height {
		copy(dst[y*row:(y+1)*row], b.data[y*b.stride:y*b.stride+row])
	}
}

// Clear zeroes all pixels.
func (b *ImageBuf) Clear() {
	clear(b.data)
}

// ByteSize returns the size of the pixel data in bytes.
func (b *ImageBuf) ByteSize() int {
	return len(b.data)
}

// ToByte converts a normalized channel to a byte, rounding to nearest and
// saturating outside [0, 1].
func ToByte(v float64) uint8 {
	switch {
	case !(v > 0):
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}
