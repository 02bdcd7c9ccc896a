// Package texsource turns heterogeneous live image feeds into one canonical,
// orientation-corrected, aspect-fitted texture per tick.
//
// # Overview
//
// A feed is anything that produces frames: a device camera, the passthrough
// image of an AR session (optionally with its depth map), or a video file.
// Each feed is wrapped by a [Source] that exposes the same small capability
// set ([TextureSource]): start, stop, cycle to the next device or file,
// report whether a new frame arrived this tick, and return the frame.
//
// Frames are reshaped on a compute [Device] by a [Transformer]: a fixed size
// destination image plus one kernel that samples the input planes through a
// 4x4 [Matrix] mapping destination coordinates to source coordinates.
//
// A [Host] drives one source per tick, optionally fits the result to a
// target aspect ratio with [Fit], and publishes texture and aspect-change
// notifications.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/texsource"
//	    "github.com/gogpu/texsource/backend"
//	    _ "github.com/gogpu/texsource/backend/software"
//	)
//
//	dev, _ := backend.Default()
//	env := texsource.NewEnv(dev)
//	defer env.Close()
//
//	src := texsource.NewVideoSource(env, videoPlatform, texsource.VideoConfig{
//	    Paths: []string{"clip.mp4"},
//	    Loop:  true,
//	})
//	host := texsource.NewHost(env, src,
//	    texsource.WithTargetAspect(16.0/9.0),
//	    texsource.WithTextureHandler(func(p texsource.ImagePlane) { ... }),
//	)
//	_ = host.Enable()
//	for running {
//	    env.Clock.Advance()
//	    _ = host.Update()
//	}
//
// # Coordinate System
//
// Normalized texture coordinates:
//   - Origin (0,0) at the top-left texel corner, (1,1) at the bottom-right
//   - Texel (x, y) is sampled at ((x+0.5)/w, (y+0.5)/h)
//   - Rotations are in degrees, positive values rotate content clockwise
//
// # Backends
//
// The software backend (backend/software) is a CPU reference implementation
// and is always available. The wgpu backend (backend/wgpu) runs the same
// kernels as WGSL compute shaders; import github.com/gogpu/texsource/gpu to
// register it.
package texsource

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"
)
