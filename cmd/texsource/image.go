package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/texsource"
	"github.com/gogpu/texsource/internal/image"
)

type imageOptions struct {
	offset texsource.Vec2
	scale  texsource.Vec2
	rotate float64
	size   texsource.Size
}

func parseImageOptions(offset, scale, size string, rotate float64) (imageOptions, error) {
	var opts imageOptions
	var err error
	if opts.offset, err = parseVec(offset); err != nil {
		return opts, fmt.Errorf("offset: %w", err)
	}
	if opts.scale, err = parseVec(scale); err != nil {
		return opts, fmt.Errorf("scale: %w", err)
	}
	if size != "" {
		if opts.size, err = parseSize(size); err != nil {
			return opts, fmt.Errorf("size: %w", err)
		}
	}
	opts.rotate = rotate
	return opts, nil
}

// parseVec parses "x,y".
func parseVec(s string) (texsource.Vec2, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return texsource.Vec2{}, fmt.Errorf("%q is not x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return texsource.Vec2{}, err
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return texsource.Vec2{}, err
	}
	return texsource.V2(x, y), nil
}

// parseSize parses "WxH".
func parseSize(s string) (texsource.Size, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return texsource.Size{}, fmt.Errorf("%q is not WxH", s)
	}
	w, err := strconv.Atoi(ws)
	if err != nil {
		return texsource.Size{}, err
	}
	h, err := strconv.Atoi(hs)
	if err != nil {
		return texsource.Size{}, err
	}
	if w <= 0 || h <= 0 {
		return texsource.Size{}, fmt.Errorf("size %dx%d must be positive", w, h)
	}
	return texsource.Size{W: w, H: h}, nil
}

// transformImage loads a still image, runs one TRS transform and saves
// the result.
func transformImage(env *texsource.Env, in, out string, opts imageOptions) error {
	buf, err := image.LoadFile(in)
	if err != nil {
		return err
	}
	src := texsource.ImagePlane{
		Width:  buf.Width(),
		Height: buf.Height(),
		Format: texsource.FormatRGBA8,
		Pix:    buf.Data(),
		Stride: buf.Stride(),
	}
	size := opts.size
	if size.Empty() {
		size = src.Size()
	}
	t, err := texsource.NewTransformer(env.Kernels, size.W, size.H, texsource.KernelStandard)
	if err != nil {
		return err
	}
	defer t.Close()
	dst, err := t.TransformTRS(src, opts.offset, opts.rotate, opts.scale)
	if err != nil {
		return err
	}
	return saveBuffer(dst, out)
}

// savePlane writes a published texture as PNG. Host pixels in formats
// other than RGBA8 go through an identity transform first.
func savePlane(env *texsource.Env, tex texsource.ImagePlane, path string) error {
	if tex.Image != nil {
		pix := make([]byte, tex.Width*tex.Height*4)
		if err := tex.Image.ReadPixels(pix); err != nil {
			return err
		}
		return savePixels(pix, tex.Width, tex.Height, 0, path)
	}
	if tex.Format == texsource.FormatRGBA8 {
		return savePixels(tex.Pix, tex.Width, tex.Height, tex.RowStride(), path)
	}
	t, err := texsource.NewTransformer(env.Kernels, tex.Width, tex.Height, texsource.KernelStandard)
	if err != nil {
		return err
	}
	defer t.Close()
	dst, err := t.Transform(tex, texsource.Identity())
	if err != nil {
		return err
	}
	return saveBuffer(dst, path)
}

func saveBuffer(dst *texsource.DestinationBuffer, path string) error {
	pix, err := dst.ReadPixels()
	if err != nil {
		return err
	}
	return savePixels(pix, dst.Width(), dst.Height(), 0, path)
}

func savePixels(pix []byte, w, h, stride int, path string) error {
	buf, err := image.FromRaw(pix, w, h, image.FormatRGBA8, stride)
	if err != nil {
		return err
	}
	return buf.SavePNG(path)
}
