// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package mediacam

import (
	"image"
	"math"
	"strings"

	"github.com/pion/mediadevices/pkg/prop"
	"golang.org/x/image/draw"

	"github.com/gogpu/texsource"
)

// closestProp picks the driver mode nearest the request. Resolution
// distance dominates; frame rate breaks ties. Zero request fields match
// anything.
func closestProp(props []prop.Media, req texsource.CameraRequest) (prop.Media, bool) {
	best, bestScore := prop.Media{}, math.Inf(1)
	for _, p := range props {
		score := 0.0
		if req.Width > 0 {
			score += math.Abs(float64(p.Width - req.Width))
		}
		if req.Height > 0 {
			score += math.Abs(float64(p.Height - req.Height))
		}
		score *= 1000
		if req.FrameRate > 0 && p.FrameRate > 0 {
			score += math.Abs(float64(p.FrameRate) - float64(req.FrameRate))
		}
		if score < bestScore {
			best, bestScore = p, score
		}
	}
	return best, !math.IsInf(bestScore, 1)
}

var (
	backWords  = []string{"back", "rear", "environment", "world"}
	frontWords = []string{"front", "user", "facetime", "integrated", "webcam"}
)

// guessFacing reports whether a camera label describes a user-facing
// camera. Unknown labels are front facing.
func guessFacing(label string) bool {
	l := strings.ToLower(label)
	for _, w := range backWords {
		if strings.Contains(l, w) {
			return false
		}
	}
	for _, w := range frontWords {
		if strings.Contains(l, w) {
			return true
		}
	}
	return true
}

func guessKind(label string) texsource.CameraKind {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "depth"), strings.Contains(l, "realsense"), strings.Contains(l, "truedepth"):
		return texsource.CameraColorAndDepth
	case strings.Contains(l, "ultra wide"), strings.Contains(l, "ultrawide"), strings.Contains(l, "ultra-wide"):
		return texsource.CameraUltraWideAngle
	case strings.Contains(l, "tele"):
		return texsource.CameraTelephoto
	}
	return texsource.CameraWideAngle
}

// toPlane copies img into a tightly packed RGBA plane.
func toPlane(img image.Image) texsource.ImagePlane {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	var pix []byte
	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == w*4 {
		off := rgba.PixOffset(b.Min.X, b.Min.Y)
		pix = append([]byte(nil), rgba.Pix[off:off+w*h*4]...)
	} else {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		pix = dst.Pix
	}
	return texsource.ImagePlane{Width: w, Height: h, Format: texsource.FormatRGBA8, Pix: pix}
}
