// Package software implements texsource.Device on the CPU.
//
// Kernels are plain Go functions evaluated per output pixel. Work groups
// are the same 8x8 tiles the GPU kernels use; each row of work groups is
// one task on a worker pool, and Dispatch returns when every task is done.
package software

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/texsource"
	"github.com/gogpu/texsource/internal/image"
	"github.com/gogpu/texsource/internal/parallel"
)

// Errors returned by the software device.
var (
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("software: device closed")

	// ErrForeignResource is returned when a kernel or image from another
	// device is passed to Dispatch.
	ErrForeignResource = errors.New("software: resource belongs to another device")

	// ErrMissingInput is returned when a kernel input property is unbound.
	ErrMissingInput = errors.New("software: missing kernel input")
)

// Device is the CPU compute device.
type Device struct {
	workers *parallel.WorkerPool
	images  *image.Pool
	logger  atomic.Pointer[slog.Logger]
	closed  atomic.Bool
}

// New creates a device using GOMAXPROCS workers.
func New() *Device {
	return NewWithWorkers(0)
}

// NewWithWorkers creates a device with n workers (0 means GOMAXPROCS).
func NewWithWorkers(n int) *Device {
	d := &Device{
		workers: parallel.NewWorkerPool(n),
		images:  image.NewPool(2),
	}
	d.logger.Store(texsource.Logger())
	return d
}

// SetLogger sets the logger for dispatch diagnostics.
func (d *Device) SetLogger(l *slog.Logger) {
	if l != nil {
		d.logger.Store(l)
	}
}

// Name returns "software".
func (d *Device) Name() string { return "software" }

// LoadKernel returns the CPU implementation of variant.
func (d *Device) LoadKernel(variant texsource.KernelVariant) (texsource.Kernel, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}
	shade, ok := kernels[variant]
	if !ok {
		return nil, fmt.Errorf("software: no kernel for %v", variant)
	}
	return &kernel{dev: d, variant: variant, shade: shade}, nil
}

// NewImage allocates an RGBA8 image.
func (d *Device) NewImage(width, height int) (texsource.DeviceImage, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}
	buf, err := d.images.Get(width, height, image.FormatRGBA8)
	if err != nil {
		return nil, fmt.Errorf("software: new image %dx%d: %w", width, height, err)
	}
	return &Image{dev: d, buf: buf, width: width, height: height}, nil
}

// Dispatch evaluates the kernel for every output pixel covered by
// args.Groups. Threads outside the output size do nothing.
func (d *Device) Dispatch(args texsource.DispatchArgs) error {
	if d.closed.Load() {
		return ErrClosed
	}
	k, ok := args.Kernel.(*kernel)
	if !ok || k.dev != d {
		return fmt.Errorf("%w: kernel %T", ErrForeignResource, args.Kernel)
	}
	out, ok := args.Output.(*Image)
	if !ok || out.dev != d || out.buf == nil {
		return fmt.Errorf("%w: output %T", ErrForeignResource, args.Output)
	}

	var in inputs
	for i, prop := range k.variant.Properties() {
		plane, ok := args.Input(prop)
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingInput, prop)
		}
		buf, err := d.hostBuffer(plane, out)
		if err != nil {
			return fmt.Errorf("software: input %s: %w", prop, err)
		}
		in[i] = buf
	}

	w, h := args.OutputSize.W, args.OutputSize.H
	w = min(w, out.buf.Width())
	h = min(h, out.buf.Height())
	gx, gy := args.Groups[0], args.Groups[1]
	m := args.Transform
	depth := args.Depth
	dst := out.buf

	d.workers.For(gy, func(groupY int) {
		for groupX := range gx {
			for ty := range texsource.WorkGroupSize {
				y := groupY*texsource.WorkGroupSize + ty
				if y >= h {
					break
				}
				for tx := range texsource.WorkGroupSize {
					x := groupX*texsource.WorkGroupSize + tx
					if x >= w {
						break
					}
					uv := m.TransformPoint(texsource.Vec2{
						X: (float64(x) + 0.5) / float64(w),
						Y: (float64(y) + 0.5) / float64(h),
					})
					c := k.shade(&in, uv.X, uv.Y, depth)
					dst.SetRGBA(x, y, c[0], c[1], c[2], c[3])
				}
			}
		}
	})

	d.logger.Load().Debug("software: dispatch",
		"kernel", k.variant.String(),
		"groups", fmt.Sprintf("%dx%d", gx, gy),
		"workers", d.workers.Workers(),
		"size", args.OutputSize.String())
	return nil
}

// hostBuffer wraps a plane as an ImageBuf without copying host pixels.
func (d *Device) hostBuffer(p texsource.ImagePlane, out *Image) (*image.ImageBuf, error) {
	if p.Image != nil {
		img, ok := p.Image.(*Image)
		if !ok || img.dev != d || img.buf == nil {
			return nil, fmt.Errorf("%w: image %T", ErrForeignResource, p.Image)
		}
		if img == out {
			return nil, errors.New("software: input aliases the output image")
		}
		return img.buf, nil
	}
	format, err := hostFormat(p.Format)
	if err != nil {
		return nil, err
	}
	return image.FromRaw(p.Pix, p.Width, p.Height, format, p.Stride)
}

func hostFormat(f texsource.PixelFormat) (image.Format, error) {
	switch f {
	case texsource.FormatRGBA8:
		return image.FormatRGBA8, nil
	case texsource.FormatBGRA8:
		return image.FormatBGRA8, nil
	case texsource.FormatRGB8:
		return image.FormatRGB8, nil
	case texsource.FormatGray8:
		return image.FormatGray8, nil
	case texsource.FormatGray16:
		return image.FormatGray16, nil
	case texsource.FormatRG8:
		return image.FormatRG8, nil
	}
	return 0, fmt.Errorf("software: unsupported pixel format %v", f)
}

// Close stops the worker pool. Images and kernels must not be used after.
func (d *Device) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	d.workers.Close()
	return nil
}

// Image is an RGBA8 image in host memory.
type Image struct {
	dev           *Device
	buf           *image.ImageBuf
	width, height int
}

// Width returns the image width.
func (i *Image) Width() int { return i.width }

// Height returns the image height.
func (i *Image) Height() int { return i.height }

// ReadPixels copies the image into dst.
func (i *Image) ReadPixels(dst []byte) error {
	if i.buf == nil {
		return errors.New("software: read of released image")
	}
	if need := i.buf.ByteSize(); len(dst) < need {
		return fmt.Errorf("software: read buffer %d bytes, need %d", len(dst), need)
	}
	i.buf.CopyTo(dst)
	return nil
}

// Release returns the pixel memory to the device pool.
func (i *Image) Release() {
	if i.buf == nil {
		return
	}
	i.dev.images.Put(i.buf)
	i.buf = nil
}
