package image

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/draw"

	// Decoders for still images. JPEG comes with the standard library.
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrEmptyImage is returned when a decoded image has no pixels.
var ErrEmptyImage = errors.New("image: empty image")

// LoadFile decodes a PNG, JPEG, BMP, TIFF or WebP file into an RGBA8 buffer.
func LoadFile(path string) (*ImageBuf, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("image: open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode decodes any registered image format into an RGBA8 buffer.
func Decode(r io.Reader) (*ImageBuf, error) {
	img, name, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("image: decode: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("image: decode %s: %w", name, ErrEmptyImage)
	}
	return FromStdImage(img), nil
}

// FromStdImage converts a standard library image to a non-premultiplied
// RGBA8 buffer.
func FromStdImage(img image.Image) *ImageBuf {
	b := img.Bounds()
	if nrgba, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) {
		buf, _ := FromRaw(nrgba.Pix, b.Dx(), b.Dy(), FormatRGBA8, nrgba.Stride)
		return buf
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	buf, _ := FromRaw(dst.Pix, b.Dx(), b.Dy(), FormatRGBA8, dst.Stride)
	return buf
}

// ToStdImage returns an RGBA8 buffer as *image.NRGBA without copying.
// Other formats are converted.
func (b *ImageBuf) ToStdImage() image.Image {
	rect := image.Rect(0, 0, b.width, b.height)
	if b.format == FormatRGBA8 {
		return &image.NRGBA{Pix: b.data, Stride: b.stride, Rect: rect}
	}
	out := image.NewNRGBA(rect)
	for y := range b.height {
		for x := range b.width {
			r, g, bl, a := b.GetRGBA(x, y)
			i := out.PixOffset(x, y)
			out.Pix[i], out.Pix[i+1], out.Pix[i+2], out.Pix[i+3] = r, g, bl, a
		}
	}
	return out
}

// EncodePNG writes the buffer as PNG.
func (b *ImageBuf) EncodePNG(w io.Writer) error {
	if err := png.Encode(w, b.ToStdImage()); err != nil {
		return fmt.Errorf("image: encode PNG: %w", err)
	}
	return nil
}

// SavePNG writes the buffer to a PNG file.
func (b *ImageBuf) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("image: create %s: %w", path, err)
	}
	if err := b.EncodePNG(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
