package texsource

import (
	"fmt"
	"strings"
)

// WorkGroupSize is the edge length of a kernel thread group. Every kernel
// runs WorkGroupSize x WorkGroupSize threads per group, one per output pixel.
const WorkGroupSize = 8

// Device is the compute runtime a Transformer dispatches on.
//
// Implementations live in the backend packages. A Device is used from one
// goroutine at a time, the tick goroutine.
type Device interface {
	// Name returns the backend name ("software", "wgpu").
	Name() string

	// LoadKernel compiles or looks up the kernel for a variant.
	LoadKernel(variant KernelVariant) (Kernel, error)

	// NewImage allocates an RGBA8 destination image with random write
	// access and no mip chain.
	NewImage(width, height int) (DeviceImage, error)

	// Dispatch runs args.Kernel over args.Groups work groups. The effects
	// are visible to the next Dispatch and to ReadPixels on args.Output.
	Dispatch(args DispatchArgs) error

	// Close releases the device. Images and kernels must be released first.
	Close() error
}

// DeviceImage is an RGBA8 image owned by a Device.
type DeviceImage interface {
	Width() int
	Height() int

	// ReadPixels copies the image into dst as tightly packed RGBA8 rows.
	// dst must hold at least Width*Height*4 bytes.
	ReadPixels(dst []byte) error

	// Release frees the image. Further use is undefined.
	Release()
}

// Kernel is a loaded compute kernel.
type Kernel interface {
	Variant() KernelVariant
	Release()
}

// DispatchArgs describes one kernel dispatch.
type DispatchArgs struct {
	Kernel Kernel

	// Inputs are the planes bound to the kernel's input properties.
	Inputs []PlaneBinding

	Output     DeviceImage
	OutputSize Size

	// Transform maps destination normalized coordinates to source
	// normalized coordinates.
	Transform Matrix

	// Depth selects the depth encoding of the depth kernel variant.
	Depth DepthSettings

	// Groups is the work group count per axis.
	Groups [3]int
}

// Input returns the plane bound to prop, if any.
func (a *DispatchArgs) Input(prop PropertyID) (ImagePlane, bool) {
	for i := range a.Inputs {
		if a.Inputs[i].Property == prop {
			return a.Inputs[i].Plane, true
		}
	}
	return ImagePlane{}, false
}

// GroupsFor returns the work group counts covering a w x h output.
func GroupsFor(w, h int) [3]int {
	return [3]int{
		(w + WorkGroupSize - 1) / WorkGroupSize,
		(h + WorkGroupSize - 1) / WorkGroupSize,
		1,
	}
}

// KernelVariant selects one of the normalization kernels.
type KernelVariant uint8

const (
	// KernelStandard samples a single color plane bound to PropertyMain.
	KernelStandard KernelVariant = iota

	// KernelMultiPlaneChroma combines a luma plane (PropertyLuma) and an
	// interleaved CbCr plane (PropertyChroma) into RGB, BT.601 full range.
	KernelMultiPlaneChroma

	// KernelMultiPlaneChromaDepth is KernelMultiPlaneChroma with the depth
	// plane (PropertyDepth) encoded into the alpha channel.
	KernelMultiPlaneChromaDepth

	kernelVariantCount
)

var kernelNames = [kernelVariantCount]string{
	KernelStandard:              "TextureTransform",
	KernelMultiPlaneChroma:      "TextureTransformYCbCr",
	KernelMultiPlaneChromaDepth: "TextureTransformYCbCrDepth",
}

// String returns the kernel resource name.
func (v KernelVariant) String() string {
	if v >= kernelVariantCount {
		return fmt.Sprintf("KernelVariant(%d)", uint8(v))
	}
	return kernelNames[v]
}

// IsValid reports whether v is a known variant.
func (v KernelVariant) IsValid() bool {
	return v < kernelVariantCount
}

// Properties lists the inputs the variant reads, in binding order.
func (v KernelVariant) Properties() []PropertyID {
	switch v {
	case KernelMultiPlaneChroma:
		return []PropertyID{PropertyLuma, PropertyChroma}
	case KernelMultiPlaneChromaDepth:
		return []PropertyID{PropertyLuma, PropertyChroma, PropertyDepth}
	default:
		return []PropertyID{PropertyMain}
	}
}

// DepthMode selects how the depth kernel encodes distance into alpha.
type DepthMode uint8

const (
	// Depth01 writes depth normalized by the depth range, 0 near, 1 far.
	Depth01 DepthMode = iota

	// RawDistance writes the distance in centimetres, saturated at 255.
	RawDistance
)

func (m DepthMode) String() string {
	switch m {
	case Depth01:
		return "depth01"
	case RawDistance:
		return "raw-distance"
	}
	return fmt.Sprintf("DepthMode(%d)", uint8(m))
}

// MarshalText implements encoding.TextMarshaler.
func (m DepthMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *DepthMode) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "depth01", "depth_01":
		*m = Depth01
	case "raw-distance", "raw_distance", "rawdistance":
		*m = RawDistance
	default:
		return fmt.Errorf("%w: unknown depth mode %q", ErrConfiguration, text)
	}
	return nil
}

// DefaultDepthRange is the far plane, in metres, of Depth01 encoding.
const DefaultDepthRange = 5.0

// DepthSettings parameterizes the depth kernel variant.
type DepthSettings struct {
	Mode DepthMode
	// Range is the Depth01 far plane in metres. Zero means DefaultDepthRange.
	Range float64
}

// RangeMillimetres returns the effective range in millimetres.
func (d DepthSettings) RangeMillimetres() float64 {
	if d.Range > 0 {
		return d.Range * 1000
	}
	return DefaultDepthRange * 1000
}

// EncodeDepth converts a depth sample in millimetres to the alpha byte
// written by the depth kernel.
func (d DepthSettings) EncodeDepth(mm float64) uint8 {
	var v float64
	switch d.Mode {
	case RawDistance:
		v = mm / 10
	default:
		v = mm / d.RangeMillimetres() * 255
	}
	switch {
	case !(v > 0):
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v + 0.5)
}
