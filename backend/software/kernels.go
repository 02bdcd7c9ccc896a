package software

import (
	"github.com/gogpu/texsource"
	"github.com/gogpu/texsource/internal/image"
)

// inputs holds the bound planes in the order of KernelVariant.Properties.
type inputs [3]*image.ImageBuf

// shadeFunc computes one output pixel from the source coordinates (u, v).
type shadeFunc func(in *inputs, u, v float64, depth texsource.DepthSettings) [4]uint8

var kernels = map[texsource.KernelVariant]shadeFunc{
	texsource.KernelStandard:              shadeStandard,
	texsource.KernelMultiPlaneChroma:      shadeChroma,
	texsource.KernelMultiPlaneChromaDepth: shadeChromaDepth,
}

type kernel struct {
	dev     *Device
	variant texsource.KernelVariant
	shade   shadeFunc
}

func (k *kernel) Variant() texsource.KernelVariant { return k.variant }

// Release is a no-op; CPU kernels hold no resources.
func (k *kernel) Release() {}

func shadeStandard(in *inputs, u, v float64, _ texsource.DepthSettings) [4]uint8 {
	c := image.SampleBilinear(in[0], u, v)
	return [4]uint8{image.ToByte(c[0]), image.ToByte(c[1]), image.ToByte(c[2]), image.ToByte(c[3])}
}

func shadeChroma(in *inputs, u, v float64, _ texsource.DepthSettings) [4]uint8 {
	r, g, b := sampleYCbCr(in, u, v)
	return [4]uint8{image.ToByte(r), image.ToByte(g), image.ToByte(b), 255}
}

func shadeChromaDepth(in *inputs, u, v float64, depth texsource.DepthSettings) [4]uint8 {
	r, g, b := sampleYCbCr(in, u, v)
	mm := image.SampleBilinear(in[2], u, v)[0] * 65535
	return [4]uint8{image.ToByte(r), image.ToByte(g), image.ToByte(b), depth.EncodeDepth(mm)}
}

func sampleYCbCr(in *inputs, u, v float64) (r, g, b float64) {
	y := image.SampleBilinear(in[0], u, v)[0]
	c := image.SampleBilinear(in[1], u, v)
	return image.YCbCrToRGB(y, c[0], c[1])
}
