// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package wgpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Image is an RGBA8 image in a GPU storage buffer, one packed u32 per
// texel.
type Image struct {
	dev           *Device
	width, height int
	storage       hal.Buffer
	staging       hal.Buffer
}

// Width returns the image width.
func (i *Image) Width() int { return i.width }

// Height returns the image height.
func (i *Image) Height() int { return i.height }

func (i *Image) byteSize() uint64 {
	return uint64(i.width * i.height * 4) //nolint:gosec // positive size
}

// ReadPixels waits for pending work and copies the image into dst.
func (i *Image) ReadPixels(dst []byte) error {
	d := i.dev
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.device == nil {
		return ErrClosed
	}
	if i.storage == nil {
		return errors.New("wgpu: read of released image")
	}
	size := i.byteSize()
	if uint64(len(dst)) < size {
		return fmt.Errorf("wgpu: read buffer %d bytes, need %d", len(dst), size)
	}
	if err := d.waitLocked(); err != nil {
		return err
	}

	if i.staging == nil {
		staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
			Label: "texsource_staging", Size: size,
			Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("wgpu: create staging buffer: %w", err)
		}
		i.staging = staging
	}

	sub := &submission{}
	defer d.free(sub)
	err := d.submitLocked(sub, "texsource_readback", func(enc hal.CommandEncoder) {
		enc.CopyBufferToBuffer(i.storage, i.staging, []hal.BufferCopy{
			{SrcOffset: 0, DstOffset: 0, Size: size},
		})
	})
	if err != nil {
		return err
	}
	if err := d.wait(sub); err != nil {
		return err
	}
	// Packed little-endian RGBA words are RGBA bytes.
	if err := d.queue.ReadBuffer(i.staging, 0, dst[:size]); err != nil {
		return fmt.Errorf("wgpu: readback: %w", err)
	}
	return nil
}

// Release frees the GPU buffers once pending work is done.
func (i *Image) Release() {
	d := i.dev
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.device == nil || i.storage == nil {
		i.storage, i.staging = nil, nil
		return
	}
	if err := d.waitLocked(); err != nil {
		d.logger.Load().Warn("wgpu: release image", "err", err)
	}
	d.device.DestroyBuffer(i.storage)
	if i.staging != nil {
		d.device.DestroyBuffer(i.staging)
	}
	i.storage, i.staging = nil, nil
}
