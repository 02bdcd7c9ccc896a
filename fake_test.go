package texsource

import (
	"errors"
	"log/slog"
	"testing"
)

// fakeDevice counts what the core asks of a device.
type fakeDevice struct {
	loads      int
	released   int
	images     int
	liveImages int
	dispatches int
	loadErr    error
	lastArgs   DispatchArgs
	onDispatch func(DispatchArgs)
	logger     *slog.Logger
}

func (d *fakeDevice) Name() string { return "fake" }

func (d *fakeDevice) LoadKernel(v KernelVariant) (Kernel, error) {
	if d.loadErr != nil {
		return nil, d.loadErr
	}
	d.loads++
	return &fakeKernel{dev: d, variant: v}, nil
}

func (d *fakeDevice) NewImage(w, h int) (DeviceImage, error) {
	d.images++
	d.liveImages++
	return &fakeImage{dev: d, w: w, h: h}, nil
}

func (d *fakeDevice) Dispatch(args DispatchArgs) error {
	d.dispatches++
	args.Inputs = append([]PlaneBinding(nil), args.Inputs...)
	d.lastArgs = args
	if d.onDispatch != nil {
		d.onDispatch(args)
	}
	return nil
}

func (d *fakeDevice) Close() error { return nil }

func (d *fakeDevice) SetLogger(l *slog.Logger) { d.logger = l }

type fakeKernel struct {
	dev     *fakeDevice
	variant KernelVariant
}

func (k *fakeKernel) Variant() KernelVariant { return k.variant }
func (k *fakeKernel) Release()               { k.dev.released++ }

type fakeImage struct {
	dev      *fakeDevice
	w, h     int
	released bool
}

func (i *fakeImage) Width() int  { return i.w }
func (i *fakeImage) Height() int { return i.h }

func (i *fakeImage) ReadPixels(dst []byte) error {
	if i.released {
		return errors.New("fake: released")
	}
	for j := range dst {
		dst[j] = byte(i.dev.dispatches)
	}
	return nil
}

func (i *fakeImage) Release() {
	if !i.released {
		i.released = true
		i.dev.liveImages--
	}
}

func newFakeEnv(t *testing.T) (*Env, *fakeDevice) {
	t.Helper()
	dev := &fakeDevice{}
	env := NewEnv(dev)
	t.Cleanup(env.Close)
	return env, dev
}

func hostPlane(w, h int) ImagePlane {
	return ImagePlane{Width: w, Height: h, Format: FormatRGBA8, Pix: make([]byte, w*h*4)}
}
