// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/gogpu/texsource"
)

func TestPackPlane(t *testing.T) {
	tests := []struct {
		name    string
		plane   texsource.ImagePlane
		want    []byte
		packing uint32
	}{
		{
			name:    "rgba",
			plane:   texsource.ImagePlane{Width: 1, Height: 1, Format: texsource.FormatRGBA8, Pix: []byte{1, 2, 3, 4}},
			want:    []byte{1, 2, 3, 4},
			packing: packRGBA,
		},
		{
			name:    "bgra swizzled",
			plane:   texsource.ImagePlane{Width: 1, Height: 1, Format: texsource.FormatBGRA8, Pix: []byte{1, 2, 3, 4}},
			want:    []byte{3, 2, 1, 4},
			packing: packRGBA,
		},
		{
			name:    "rgb opaque",
			plane:   texsource.ImagePlane{Width: 2, Height: 1, Format: texsource.FormatRGB8, Pix: []byte{1, 2, 3, 4, 5, 6}},
			want:    []byte{1, 2, 3, 255, 4, 5, 6, 255},
			packing: packRGBA,
		},
		{
			name:    "gray8",
			plane:   texsource.ImagePlane{Width: 2, Height: 1, Format: texsource.FormatGray8, Pix: []byte{7, 9}},
			want:    []byte{7, 0, 0, 0, 9, 0, 0, 0},
			packing: packGray8,
		},
		{
			name:    "gray16",
			plane:   texsource.ImagePlane{Width: 1, Height: 1, Format: texsource.FormatGray16, Pix: []byte{0xd0, 0x07}},
			want:    []byte{0xd0, 0x07, 0, 0},
			packing: packGray16,
		},
		{
			name:    "rg8",
			plane:   texsource.ImagePlane{Width: 1, Height: 1, Format: texsource.FormatRG8, Pix: []byte{100, 200}},
			want:    []byte{100, 200, 0, 0},
			packing: packRG8,
		},
		{
			name: "strided rows",
			plane: texsource.ImagePlane{Width: 1, Height: 2, Format: texsource.FormatGray8, Stride: 3,
				Pix: []byte{1, 0xff, 0xff, 2}},
			want:    []byte{1, 0, 0, 0, 2, 0, 0, 0},
			packing: packGray8,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, packing, err := packPlane(tt.plane)
			if err != nil {
				t.Fatalf("packPlane() error = %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("packPlane() = %v, want %v", got, tt.want)
			}
			if packing != tt.packing {
				t.Errorf("packing = %d, want %d", packing, tt.packing)
			}
		})
	}
}

func TestPackPlaneRejectsShortPixels(t *testing.T) {
	p := texsource.ImagePlane{Width: 4, Height: 4, Format: texsource.FormatRGBA8, Pix: make([]byte, 8)}
	if _, _, err := packPlane(p); err == nil {
		t.Error("packPlane() accepted a short pixel slice")
	}
}

func TestEncodeParams(t *testing.T) {
	m := texsource.Translate(0.25, -0.5, 0)
	args := texsource.DispatchArgs{
		OutputSize: texsource.Size{W: 640, H: 360},
		Transform:  m,
		Depth:      texsource.DepthSettings{Mode: texsource.RawDistance, Range: 2},
	}
	in := [3]inputInfo{
		{size: texsource.Size{W: 640, H: 480}, packing: packGray8},
		{size: texsource.Size{W: 320, H: 240}, packing: packRG8},
	}
	buf := encodeParams(args, in)
	if len(buf) != paramsSize {
		t.Fatalf("len = %d, want %d", len(buf), paramsSize)
	}

	le := binary.LittleEndian
	f32 := func(off int) float32 { return math.Float32frombits(le.Uint32(buf[off:])) }

	// Column-major: the translation sits in the fourth column.
	if f32(48) != 0.25 || f32(52) != -0.5 || f32(60) != 1 {
		t.Errorf("translation column = %v %v %v", f32(48), f32(52), f32(60))
	}
	checks := []struct {
		name string
		off  int
		want uint32
	}{
		{"out width", 64, 640},
		{"out height", 68, 360},
		{"depth mode", 72, uint32(texsource.RawDistance)},
		{"in0 width", 80, 640},
		{"in0 height", 84, 480},
		{"in1 width", 88, 320},
		{"in2 width", 96, 0},
		{"in0 packing", 112, packGray8},
		{"in1 packing", 116, packRG8},
	}
	for _, c := range checks {
		if got := le.Uint32(buf[c.off:]); got != c.want {
			t.Errorf("%s = %d, want %d", c.name, got, c.want)
		}
	}
	if f32(76) != 2000 {
		t.Errorf("depth range = %v mm, want 2000", f32(76))
	}
}
