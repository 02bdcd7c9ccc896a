//go:build !nogpu

// Package gpu registers the wgpu compute backend.
//
// Import this package to make backend.Default prefer the GPU. If no
// Vulkan device can be opened, backend.Default logs a warning and falls
// back to the software device.
//
// Usage:
//
//	import _ "github.com/gogpu/texsource/gpu" // enable GPU kernels
package gpu

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/texsource"
	"github.com/gogpu/texsource/backend"
	"github.com/gogpu/texsource/backend/wgpu"
)

func init() {
	backend.Register(backend.BackendWGPU, func() (texsource.Device, error) {
		dev, err := wgpu.New()
		if err != nil {
			return nil, err
		}
		return dev, nil
	})
}

// NewSharedDevice opens a wgpu device on the GPU device of an application
// (e.g., gogpu), avoiding a second GPU instance.
//
// The provider should be a gpucontext.DeviceProvider that also implements
// gpucontext.HalProvider for direct HAL access.
func NewSharedDevice(provider gpucontext.DeviceProvider) (texsource.Device, error) {
	dev, err := wgpu.NewShared(provider)
	if err != nil {
		texsource.Logger().Warn("gpu: shared device not available", "err", err)
		return nil, err
	}
	return dev, nil
}
