// Package backend selects the compute device texsource dispatches on.
//
// Backends register a factory under a name from an init function. The
// software backend is registered by this package and is always available;
// the wgpu backend is registered by importing github.com/gogpu/texsource/gpu.
//
//	// Best available device: wgpu when registered and usable, else software.
//	dev, err := backend.Default()
//
//	// A specific device.
//	dev, err := backend.Get(backend.BackendSoftware)
//
// # Available Backends
//
//   - "software": CPU kernels on a worker pool (always available)
//   - "wgpu": WGSL compute kernels through gogpu/wgpu
package backend
