package texsource

import (
	"fmt"
	"sync/atomic"
)

// Transformer reshapes input planes into a destination image of fixed size
// by running one kernel variant over it. The size and variant are fixed for
// the Transformer's lifetime: to change either, Close it and create a new
// one.
//
// A Transformer is not safe for concurrent use. Overlapping transform calls
// fail with ErrLifetime instead of racing on the destination image.
type Transformer struct {
	kernels *KernelCache
	kernel  Kernel
	variant KernelVariant
	width   int
	height  int
	depth   DepthSettings

	dst      *DestinationBuffer
	bindings []PlaneBinding
	single   [1]PlaneBinding
	busy     atomic.Bool
}

// NewTransformer creates a transformer producing width x height images with
// the given kernel variant. It fails with ErrConfiguration for a
// non-positive size, a nil cache or a kernel that cannot be loaded.
func NewTransformer(kernels *KernelCache, width, height int, variant KernelVariant) (*Transformer, error) {
	if kernels == nil || kernels.Device() == nil {
		return nil, fmt.Errorf("%w: transformer needs a kernel cache", ErrConfiguration)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: transformer size %dx%d", ErrConfiguration, width, height)
	}
	kernel, err := kernels.Kernel(variant)
	if err != nil {
		return nil, err
	}
	img, err := kernels.Device().NewImage(width, height)
	if err != nil {
		return nil, fmt.Errorf("%w: allocate %dx%d destination: %v", ErrConfiguration, width, height, err)
	}

	t := &Transformer{
		kernels:  kernels,
		kernel:   kernel,
		variant:  variant,
		width:    width,
		height:   height,
		dst:      &DestinationBuffer{image: img, width: width, height: height},
		bindings: make([]PlaneBinding, 0, len(variant.Properties())),
	}
	Logger().Debug("texsource: transformer created",
		"size", Size{width, height}.String(), "kernel", variant.String())
	return t, nil
}

// Width returns the destination width.
func (t *Transformer) Width() int { return t.width }

// Height returns the destination height.
func (t *Transformer) Height() int { return t.height }

// Size returns the destination size.
func (t *Transformer) Size() Size { return Size{W: t.width, H: t.height} }

// Variant returns the kernel variant.
func (t *Transformer) Variant() KernelVariant { return t.variant }

// SetDepth sets the depth encoding used by KernelMultiPlaneChromaDepth.
func (t *Transformer) SetDepth(d DepthSettings) { t.depth = d }

// Matches reports whether t already produces size with variant.
func (t *Transformer) Matches(size Size, variant KernelVariant) bool {
	return t != nil && t.dst != nil && t.width == size.W && t.height == size.H && t.variant == variant
}

// Transform samples src, bound to PropertyMain, through m into the
// destination image. It returns the same buffer on every call.
func (t *Transformer) Transform(src ImagePlane, m Matrix) (*DestinationBuffer, error) {
	t.single[0] = PlaneBinding{Property: PropertyMain, Plane: src}
	return t.TransformPlanes(t.single[:], m)
}

// TransformTRS builds the matrix with NewTransform and calls Transform.
func (t *Transformer) TransformTRS(src ImagePlane, offset Vec2, rotationDegrees float64, scale Vec2) (*DestinationBuffer, error) {
	m, err := NewTransform(offset, rotationDegrees, scale)
	if err != nil {
		return nil, err
	}
	return t.Transform(src, m)
}

// TransformPlanes binds every plane to its property and dispatches the
// kernel. The binding table grows to fit; it never drops planes.
func (t *Transformer) TransformPlanes(bindings []PlaneBinding, m Matrix) (*DestinationBuffer, error) {
	if !t.busy.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("%w: overlapping transform on %dx%d transformer", ErrLifetime, t.width, t.height)
	}
	defer t.busy.Store(false)

	if t.dst == nil {
		return nil, fmt.Errorf("%w: transform after close", ErrLifetime)
	}
	if len(bindings) == 0 {
		return nil, fmt.Errorf("%w: no input planes", ErrConfiguration)
	}
	for i := range bindings {
		if err := bindings[i].Plane.Validate(); err != nil {
			return nil, fmt.Errorf("texsource: input %s: %w", bindings[i].Property, err)
		}
	}

	if len(bindings) > cap(t.bindings) {
		Logger().Debug("texsource: growing binding table", "from", cap(t.bindings), "to", len(bindings))
		t.bindings = make([]PlaneBinding, 0, len(bindings))
	}
	t.bindings = append(t.bindings[:0], bindings...)

	args := DispatchArgs{
		Kernel:     t.kernel,
		Inputs:     t.bindings,
		Output:     t.dst.image,
		OutputSize: t.Size(),
		Transform:  m,
		Depth:      t.depth,
		Groups:     GroupsFor(t.width, t.height),
	}
	if err := t.kernels.Device().Dispatch(args); err != nil {
		return nil, fmt.Errorf("texsource: dispatch %s %dx%d: %w", t.variant, t.width, t.height, err)
	}
	return t.dst, nil
}

// BindingCapacity returns the size of the binding table.
func (t *Transformer) BindingCapacity() int {
	return cap(t.bindings)
}

// Close releases the destination image. A second Close, or any transform
// after Close, returns ErrLifetime. The kernel stays in the cache.
func (t *Transformer) Close() error {
	if !t.busy.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: close during transform", ErrLifetime)
	}
	defer t.busy.Store(false)

	if t.dst == nil {
		return fmt.Errorf("%w: transformer already closed", ErrLifetime)
	}
	t.dst.release()
	t.dst = nil
	t.bindings = nil
	return nil
}

// reuseTransformer returns cur when it already matches size and variant.
// Otherwise cur is closed first and a new transformer takes its place, so
// at most one destination image is alive per owner.
func reuseTransformer(cur *Transformer, kernels *KernelCache, size Size, variant KernelVariant) (*Transformer, error) {
	if cur.Matches(size, variant) {
		return cur, nil
	}
	closeTransformer(cur, "resize")
	return NewTransformer(kernels, size.W, size.H, variant)
}

// closeTransformer closes t, logging a failed close with the owner's name.
// A nil t is ignored.
func closeTransformer(t *Transformer, owner string) {
	if t == nil {
		return
	}
	if err := t.Close(); err != nil {
		Logger().Warn("texsource: close transformer", "owner", owner, "err", err)
	}
}

// DestinationBuffer is the output image of a Transformer. It stays valid
// until the Transformer is closed and is overwritten by every transform.
type DestinationBuffer struct {
	image         DeviceImage
	width, height int
	released      bool
}

// Width returns the image width.
func (b *DestinationBuffer) Width() int { return b.width }

// Height returns the image height.
func (b *DestinationBuffer) Height() int { return b.height }

// Size returns the image size.
func (b *DestinationBuffer) Size() Size { return Size{W: b.width, H: b.height} }

// Image returns the device image, nil after release.
func (b *DestinationBuffer) Image() DeviceImage {
	if b.released {
		return nil
	}
	return b.image
}

// Plane returns the buffer as an input plane for another Transformer or
// for publication.
func (b *DestinationBuffer) Plane() ImagePlane {
	return ImagePlane{
		Width:  b.width,
		Height: b.height,
		Format: FormatRGBA8,
		Image:  b.Image(),
	}
}

// ReadPixels copies the image back as tightly packed RGBA8 rows.
func (b *DestinationBuffer) ReadPixels() ([]byte, error) {
	if b.released {
		return nil, fmt.Errorf("%w: read after close", ErrLifetime)
	}
	dst := make([]byte, b.width*b.height*4)
	if err := b.image.ReadPixels(dst); err != nil {
		return nil, fmt.Errorf("texsource: read %dx%d pixels: %w", b.width, b.height, err)
	}
	return dst, nil
}

func (b *DestinationBuffer) release() {
	if b.released {
		return
	}
	b.released = true
	b.image.Release()
}
