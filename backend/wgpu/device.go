// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package wgpu

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/texsource"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// Errors returned by the wgpu device.
var (
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("wgpu: device closed")

	// ErrForeignResource is returned when a kernel or image from another
	// device is passed to Dispatch.
	ErrForeignResource = errors.New("wgpu: resource belongs to another device")

	// ErrMissingInput is returned when a kernel input property is unbound.
	ErrMissingInput = errors.New("wgpu: missing kernel input")
)

// waitTimeout bounds every fence wait.
const waitTimeout = 5 * time.Second

// Device is a compute device on the wgpu HAL.
type Device struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	external bool
	adapter  string

	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	dummy      hal.Buffer

	pending *submission
	logger  atomic.Pointer[slog.Logger]
}

// submission is work handed to the queue whose resources are freed once
// its fence signals.
type submission struct {
	fence   hal.Fence
	cmd     hal.CommandBuffer
	group   hal.BindGroup
	buffers []hal.Buffer
}

var _ texsource.Device = (*Device)(nil)

// New opens the first discrete or integrated GPU through Vulkan.
func New() (*Device, error) {
	d := &Device{}
	d.logger.Store(texsource.Logger())

	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("wgpu: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("wgpu: no GPU adapters found")
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("wgpu: open device: %w", err)
	}

	d.instance = instance
	d.device = openDev.Device
	d.queue = openDev.Queue
	d.adapter = selected.Info.Name
	if err := d.createLayouts(); err != nil {
		d.destroy()
		return nil, err
	}
	d.logger.Load().Info("wgpu: device opened", "adapter", d.adapter)
	return d, nil
}

// NewShared uses the GPU device of an application. The provider must also
// expose HalDevice() any and HalQueue() any returning hal.Device and
// hal.Queue. The device is not destroyed by Close.
func NewShared(provider gpucontext.DeviceProvider) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("wgpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("wgpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("wgpu: provider HalQueue is not hal.Queue")
	}

	d := &Device{device: device, queue: queue, external: true, adapter: "shared"}
	d.logger.Store(texsource.Logger())
	if err := d.createLayouts(); err != nil {
		d.destroy()
		return nil, err
	}
	d.logger.Load().Info("wgpu: using shared GPU device")
	return d, nil
}

// SetLogger sets the logger for device diagnostics.
func (d *Device) SetLogger(l *slog.Logger) {
	if l != nil {
		d.logger.Store(l)
	}
}

// Name returns "wgpu".
func (d *Device) Name() string { return "wgpu" }

// Adapter returns the name of the GPU adapter.
func (d *Device) Adapter() string { return d.adapter }

func (d *Device) createLayouts() error {
	storage := func(binding uint32, typ gputypes.BufferBindingType) gputypes.BindGroupLayoutEntry {
		return gputypes.BindGroupLayoutEntry{
			Binding: binding, Visibility: gputypes.ShaderStageCompute,
			Buffer: &gputypes.BufferBindingLayout{Type: typ},
		}
	}
	bindLayout, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "texsource_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			storage(0, gputypes.BufferBindingTypeUniform),
			storage(1, gputypes.BufferBindingTypeReadOnlyStorage),
			storage(2, gputypes.BufferBindingTypeReadOnlyStorage),
			storage(3, gputypes.BufferBindingTypeReadOnlyStorage),
			storage(4, gputypes.BufferBindingTypeStorage),
		},
	})
	if err != nil {
		return fmt.Errorf("wgpu: create bind group layout: %w", err)
	}
	d.bindLayout = bindLayout

	pipeLayout, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "texsource_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{d.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("wgpu: create pipeline layout: %w", err)
	}
	d.pipeLayout = pipeLayout

	// Bound to input slots the kernel does not read.
	dummy, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "texsource_unused_input", Size: 16,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create placeholder buffer: %w", err)
	}
	d.dummy = dummy
	return nil
}

// LoadKernel compiles the shader of variant and creates its pipeline.
func (d *Device) LoadKernel(variant texsource.KernelVariant) (texsource.Kernel, error) {
	src, err := shaderSource(variant)
	if err != nil {
		return nil, err
	}
	code, err := compileSPIRV(src)
	if err != nil {
		return nil, fmt.Errorf("wgpu: %s: %w", variant, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.device == nil {
		return nil, ErrClosed
	}

	module, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  variant.String(),
		Source: hal.ShaderSource{SPIRV: code},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create shader module %s: %w", variant, err)
	}
	pipeline, err := d.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: variant.String(), Layout: d.pipeLayout,
		Compute: hal.ComputeState{Module: module, EntryPoint: "main"},
	})
	if err != nil {
		d.device.DestroyShaderModule(module)
		return nil, fmt.Errorf("wgpu: create pipeline %s: %w", variant, err)
	}
	d.logger.Load().Debug("wgpu: kernel compiled", "kernel", variant.String(), "spirv_words", len(code))
	return &kernel{dev: d, variant: variant, module: module, pipeline: pipeline}, nil
}

// NewImage allocates an RGBA8 storage image.
func (d *Device) NewImage(width, height int) (texsource.DeviceImage, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("wgpu: invalid image size %dx%d", width, height)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.device == nil {
		return nil, ErrClosed
	}
	storage, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "texsource_image", Size: uint64(width * height * 4), //nolint:gosec // positive size
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create image %dx%d: %w", width, height, err)
	}
	return &Image{dev: d, width: width, height: height, storage: storage}, nil
}

// Dispatch uploads the inputs and parameters and submits the kernel. It
// returns once the work is queued.
func (d *Device) Dispatch(args texsource.DispatchArgs) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.device == nil {
		return ErrClosed
	}
	if err := d.waitLocked(); err != nil {
		return err
	}

	k, ok := args.Kernel.(*kernel)
	if !ok || k.dev != d || k.pipeline == nil {
		return fmt.Errorf("%w: kernel %T", ErrForeignResource, args.Kernel)
	}
	out, ok := args.Output.(*Image)
	if !ok || out.dev != d || out.storage == nil {
		return fmt.Errorf("%w: output %T", ErrForeignResource, args.Output)
	}

	sub := &submission{}
	ok = false
	defer func() {
		if !ok {
			d.free(sub)
		}
	}()

	var (
		info    [3]inputInfo
		buffers = [3]hal.Buffer{d.dummy, d.dummy, d.dummy}
		sizes   = [3]uint64{16, 16, 16}
	)
	for i, prop := range k.variant.Properties() {
		plane, found := args.Input(prop)
		if !found {
			return fmt.Errorf("%w: %s", ErrMissingInput, prop)
		}
		buf, size, packing, err := d.inputBuffer(plane, out, sub)
		if err != nil {
			return fmt.Errorf("wgpu: input %s: %w", prop, err)
		}
		buffers[i], sizes[i] = buf, size
		info[i] = inputInfo{size: plane.Size(), packing: packing}
	}

	params := encodeParams(args, info)
	uniform, err := d.newBuffer(sub, "texsource_params", uint64(len(params)),
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	d.queue.WriteBuffer(uniform, 0, params)

	binding := func(n uint32, buf hal.Buffer, size uint64) gputypes.BindGroupEntry {
		return gputypes.BindGroupEntry{Binding: n, Resource: gputypes.BufferBinding{Buffer: buf.NativeHandle(), Offset: 0, Size: size}}
	}
	group, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "texsource_bind", Layout: d.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			binding(0, uniform, uint64(len(params))),
			binding(1, buffers[0], sizes[0]),
			binding(2, buffers[1], sizes[1]),
			binding(3, buffers[2], sizes[2]),
			binding(4, out.storage, out.byteSize()),
		},
	})
	if err != nil {
		return fmt.Errorf("wgpu: create bind group: %w", err)
	}
	sub.group = group

	gx, gy, gz := uint32(args.Groups[0]), uint32(args.Groups[1]), uint32(max(args.Groups[2], 1)) //nolint:gosec // small group counts
	err = d.submitLocked(sub, k.variant.String(), func(enc hal.CommandEncoder) {
		pass := enc.BeginComputePass(&hal.ComputePassDescriptor{Label: k.variant.String()})
		pass.SetPipeline(k.pipeline)
		pass.SetBindGroup(0, group, nil)
		pass.Dispatch(gx, gy, gz)
		pass.End()
	})
	if err != nil {
		return err
	}
	ok = true
	d.pending = sub

	d.logger.Load().Debug("wgpu: dispatch",
		"kernel", k.variant.String(),
		"groups", fmt.Sprintf("%dx%d", gx, gy),
		"size", args.OutputSize.String())
	return nil
}

// inputBuffer returns the storage buffer holding plane. Device-resident
// planes are bound directly; host planes are packed into a buffer owned by
// sub.
func (d *Device) inputBuffer(p texsource.ImagePlane, out *Image, sub *submission) (hal.Buffer, uint64, uint32, error) {
	if p.Image != nil {
		img, ok := p.Image.(*Image)
		if !ok || img.dev != d || img.storage == nil {
			return nil, 0, 0, fmt.Errorf("%w: image %T", ErrForeignResource, p.Image)
		}
		if img == out {
			return nil, 0, 0, errors.New("wgpu: input aliases the output image")
		}
		return img.storage, img.byteSize(), packRGBA, nil
	}
	data, packing, err := packPlane(p)
	if err != nil {
		return nil, 0, 0, err
	}
	buf, err := d.newBuffer(sub, "texsource_input", uint64(len(data)),
		gputypes.BufferUsageStorage|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, 0, 0, err
	}
	d.queue.WriteBuffer(buf, 0, data)
	return buf, uint64(len(data)), packing, nil
}

// newBuffer creates a buffer freed together with sub.
func (d *Device) newBuffer(sub *submission, label string, size uint64, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{Label: label, Size: size, Usage: usage})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create %s buffer: %w", label, err)
	}
	sub.buffers = append(sub.buffers, buf)
	return buf, nil
}

// submitLocked records commands with record and submits them with a new
// fence stored in sub.
func (d *Device) submitLocked(sub *submission, label string, record func(enc hal.CommandEncoder)) error {
	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return fmt.Errorf("wgpu: begin encoding: %w", err)
	}
	record(encoder)
	cmd, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	sub.cmd = cmd

	fence, err := d.device.CreateFence()
	if err != nil {
		return fmt.Errorf("wgpu: create fence: %w", err)
	}
	sub.fence = fence
	if err := d.queue.Submit([]hal.CommandBuffer{cmd}, fence, 1); err != nil {
		return fmt.Errorf("wgpu: submit: %w", err)
	}
	return nil
}

// waitLocked blocks until the pending submission completes and frees it.
func (d *Device) waitLocked() error {
	sub := d.pending
	if sub == nil {
		return nil
	}
	d.pending = nil
	defer d.free(sub)
	return d.wait(sub)
}

func (d *Device) wait(sub *submission) error {
	fenceOK, err := d.device.Wait(sub.fence, 1, waitTimeout)
	if err != nil || !fenceOK {
		return fmt.Errorf("wgpu: wait for GPU: ok=%v err=%w", fenceOK, err)
	}
	return nil
}

func (d *Device) free(sub *submission) {
	if sub.group != nil {
		d.device.DestroyBindGroup(sub.group)
	}
	for _, b := range sub.buffers {
		d.device.DestroyBuffer(b)
	}
	if sub.cmd != nil {
		d.device.FreeCommandBuffer(sub.cmd)
	}
	if sub.fence != nil {
		d.device.DestroyFence(sub.fence)
	}
}

// Close waits for pending work and releases the device. Kernels and images
// must be released before Close; afterwards their Release does nothing.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.device == nil {
		return nil
	}
	err := d.waitLocked()
	d.destroy()
	return err
}

func (d *Device) destroy() {
	if d.device != nil {
		if d.dummy != nil {
			d.device.DestroyBuffer(d.dummy)
		}
		if d.pipeLayout != nil {
			d.device.DestroyPipelineLayout(d.pipeLayout)
		}
		if d.bindLayout != nil {
			d.device.DestroyBindGroupLayout(d.bindLayout)
		}
		if !d.external {
			d.device.Destroy()
		}
	}
	if d.instance != nil && !d.external {
		d.instance.Destroy()
	}
	d.dummy, d.pipeLayout, d.bindLayout = nil, nil, nil
	d.device, d.queue, d.instance = nil, nil, nil
}
