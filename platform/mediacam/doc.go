// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package mediacam captures cameras through pion/mediadevices and exposes
// them as a texsource.CameraPlatform.
//
// Devices are the registered camera drivers that can record video. Facing
// and lens kind are not reported by desktop drivers, so they are guessed
// from the driver label; laptop and USB cameras default to front facing.
// Frames arrive on a reader goroutine and are converted to RGBA before they
// are published.
package mediacam

import (
	// Registers the platform camera drivers (V4L2, AVFoundation, ...).
	_ "github.com/pion/mediadevices/pkg/driver/camera"
)
