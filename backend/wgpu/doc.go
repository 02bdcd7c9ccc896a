// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wgpu implements texsource.Device on the GPU with gogpu/wgpu.
//
// Kernels are WGSL compute shaders compiled to SPIR-V with naga and run
// through the wgpu HAL (Vulkan). Images live in storage buffers of packed
// RGBA8 texels; host input planes are packed and uploaded for each
// dispatch.
//
// # Synchronization
//
// Dispatch submits the work and returns. The next Dispatch, ReadPixels,
// Release or Close first waits for the previous submission, so each tick
// observes the effects of the one before it.
//
// # Shared devices
//
// An application that already owns a GPU device can hand it over with
// NewShared instead of letting New open one:
//
//	dev, err := wgpu.NewShared(provider) // gpucontext.DeviceProvider
//
// The shared device is not destroyed by Close.
package wgpu
