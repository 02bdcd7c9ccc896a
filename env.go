package texsource

import "sync"

// Env bundles what every source and host of one render loop shares: the
// device kernels and the tick clock.
type Env struct {
	Kernels *KernelCache
	Clock   *Clock

	closeOnce sync.Once
}

// NewEnv creates an environment on device with a fresh clock.
// The device receives the package logger until Close.
func NewEnv(device Device) *Env {
	attachDevice(device)
	return &Env{
		Kernels: NewKernelCache(device),
		Clock:   NewClock(),
	}
}

// Device returns the compute device.
func (e *Env) Device() Device {
	return e.Kernels.Device()
}

// Close releases the cached kernels. The device itself stays open; it
// belongs to whoever created it.
func (e *Env) Close() {
	e.closeOnce.Do(func() {
		e.Kernels.Close()
		detachDevice(e.Kernels.Device())
	})
}
