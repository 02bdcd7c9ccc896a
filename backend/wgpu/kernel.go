// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package wgpu

import (
	"github.com/gogpu/texsource"
	"github.com/gogpu/wgpu/hal"
)

type kernel struct {
	dev      *Device
	variant  texsource.KernelVariant
	module   hal.ShaderModule
	pipeline hal.ComputePipeline
}

func (k *kernel) Variant() texsource.KernelVariant { return k.variant }

// Release destroys the pipeline once pending work is done.
func (k *kernel) Release() {
	d := k.dev
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.device == nil || k.pipeline == nil {
		return
	}
	if err := d.waitLocked(); err != nil {
		d.logger.Load().Warn("wgpu: release kernel", "kernel", k.variant.String(), "err", err)
	}
	d.device.DestroyComputePipeline(k.pipeline)
	d.device.DestroyShaderModule(k.module)
	k.pipeline, k.module = nil, nil
}
