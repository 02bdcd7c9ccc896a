// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/texsource"
)

// Texel packings understood by the kernels (Params.in_format).
const (
	packRGBA   uint32 = 0
	packGray8  uint32 = 1
	packGray16 uint32 = 2
	packRG8    uint32 = 3
)

// paramsSize is the size of the WGSL Params uniform.
const paramsSize = 128

// packPlane converts host pixels to one little-endian u32 per texel.
// RGB and BGRA are expanded or swizzled to RGBA; single and two channel
// formats keep their bytes in the low end of the word.
func packPlane(p texsource.ImagePlane) ([]byte, uint32, error) {
	if err := p.Validate(); err != nil {
		return nil, 0, err
	}
	if p.Image != nil {
		return nil, 0, fmt.Errorf("wgpu: plane is device-resident")
	}

	w, h := p.Width, p.Height
	bpp := p.Format.BytesPerPixel()
	stride := p.RowStride()
	out := make([]byte, w*h*4)

	var packing uint32
	switch p.Format {
	case texsource.FormatGray8:
		packing = packGray8
	case texsource.FormatGray16:
		packing = packGray16
	case texsource.FormatRG8:
		packing = packRG8
	default:
		packing = packRGBA
	}

	for y := range h {
		row := p.Pix[y*stride:]
		for x := range w {
			s := row[x*bpp : x*bpp+bpp]
			d := out[(y*w+x)*4 : (y*w+x)*4+4]
			switch p.Format {
			case texsource.FormatRGBA8:
				copy(d, s)
			case texsource.FormatBGRA8:
				d[0], d[1], d[2], d[3] = s[2], s[1], s[0], s[3]
			case texsource.FormatRGB8:
				d[0], d[1], d[2], d[3] = s[0], s[1], s[2], 255
			default:
				copy(d, s)
			}
		}
	}
	return out, packing, nil
}

// inputInfo describes one bound input for the Params uniform.
type inputInfo struct {
	size    texsource.Size
	packing uint32
}

// encodeParams lays out the Params uniform (see shaders/common.wgsl).
func encodeParams(args texsource.DispatchArgs, in [3]inputInfo) []byte {
	buf := make([]byte, paramsSize)
	le := binary.LittleEndian

	for i, v := range args.Transform.ColumnMajor32() {
		le.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	le.PutUint32(buf[64:], uint32(args.OutputSize.W)) //nolint:gosec // validated positive size
	le.PutUint32(buf[68:], uint32(args.OutputSize.H)) //nolint:gosec // validated positive size
	le.PutUint32(buf[72:], uint32(args.Depth.Mode))
	le.PutUint32(buf[76:], math.Float32bits(float32(args.Depth.RangeMillimetres())))
	for i, info := range in {
		le.PutUint32(buf[80+i*8:], uint32(info.size.W)) //nolint:gosec // validated positive size
		le.PutUint32(buf[84+i*8:], uint32(info.size.H)) //nolint:gosec // validated positive size
		le.PutUint32(buf[112+i*4:], info.packing)
	}
	return buf
}
