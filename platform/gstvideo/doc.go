// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gstvideo plays video files through GStreamer and exposes the
// decoded frames as a texsource.VideoPlatform.
//
// Each player runs a pipeline
//
//	uridecodebin -> videoconvert -> capsfilter(RGBA) -> appsink
//
// with an optional audioconvert -> audioresample -> autoaudiosink branch
// when sound is requested. The appsink keeps only the newest frame; the
// player copies it into a slot read by Texture. Frame indices grow across
// loops so callers can detect change by comparing indices.
//
// Building this package needs the GStreamer development headers (cgo).
package gstvideo
