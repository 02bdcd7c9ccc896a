package texsource

import (
	"fmt"
	"math"
)

// Host drives one TextureSource per tick. When a new frame arrives it
// optionally crops it to a target aspect ratio and publishes it to the
// texture handler, then reports aspect ratio changes.
//
// A Host is used from the tick goroutine only.
type Host struct {
	env    *Env
	source TextureSource

	targetAspect   float64
	onTexture      func(ImagePlane)
	onAspectChange func(float64)

	transformer *Transformer
	aspect      float64
	enabled     bool
	disabled    bool
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithTargetAspect crops every published texture to aspect (width/height)
// with Fit. Zero or a negative value publishes frames uncropped.
func WithTargetAspect(aspect float64) HostOption {
	return func(h *Host) { h.targetAspect = aspect }
}

// WithTextureHandler sets the function receiving every new texture.
func WithTextureHandler(fn func(ImagePlane)) HostOption {
	return func(h *Host) { h.onTexture = fn }
}

// WithAspectHandler sets the function receiving aspect ratio changes.
func WithAspectHandler(fn func(aspect float64)) HostOption {
	return func(h *Host) { h.onAspectChange = fn }
}

// NewHost creates a host for source. A nil source is allowed; the host
// then disables itself on Enable.
func NewHost(env *Env, source TextureSource, opts ...HostOption) *Host {
	h := &Host{
		env:    env,
		source: source,
		aspect: math.Inf(-1),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Source returns the active source.
func (h *Host) Source() TextureSource {
	return h.source
}

// Aspect returns the aspect ratio of the last published texture, or
// negative infinity before the first.
func (h *Host) Aspect() float64 {
	return h.aspect
}

// Enabled reports whether the host is running.
func (h *Host) Enabled() bool {
	return h.enabled
}

// Enable starts the source. Without a source the host logs one error and
// stays disabled.
func (h *Host) Enable() error {
	if h.enabled || h.disabled {
		return nil
	}
	if h.source == nil {
		Logger().Error("texsource: host has no source, disabling")
		h.disabled = true
		return nil
	}
	if err := h.source.Start(); err != nil {
		return err
	}
	h.enabled = true
	return nil
}

// Disable stops the source and releases the fitting transformer.
func (h *Host) Disable() error {
	if !h.enabled {
		return nil
	}
	h.enabled = false
	h.closeTransformer()
	return h.source.Stop()
}

// Close disables the host. It is equivalent to Disable.
func (h *Host) Close() error {
	return h.Disable()
}

// Update publishes the source texture if it changed this tick.
func (h *Host) Update() error {
	if !h.enabled || !h.source.DidUpdateThisFrame() {
		return nil
	}
	tex, err := h.source.Texture()
	if err != nil {
		return err
	}
	if tex, err = h.fit(tex); err != nil {
		return err
	}

	if h.onTexture != nil {
		h.onTexture(tex)
	}
	aspect := float64(tex.Width) / float64(tex.Height)
	if aspect != h.aspect {
		h.aspect = aspect
		if h.onAspectChange != nil {
			h.onAspectChange(aspect)
		}
	}
	return nil
}

// fit crops tex to the target aspect, reusing the transformer while the
// fitted size is unchanged.
func (h *Host) fit(tex ImagePlane) (ImagePlane, error) {
	if !(h.targetAspect > 0) {
		return tex, nil
	}
	dst, scale := Fit(tex.Size(), h.targetAspect)
	if dst.Empty() {
		return ImagePlane{}, fmt.Errorf("%w: cannot fit %dx%d texture", ErrConfiguration, tex.Width, tex.Height)
	}
	t, err := reuseTransformer(h.transformer, h.env.Kernels, dst, KernelStandard)
	if err != nil {
		h.transformer = nil
		return ImagePlane{}, err
	}
	h.transformer = t
	out, err := t.TransformTRS(tex, Vec2{}, 0, scale)
	if err != nil {
		return ImagePlane{}, err
	}
	return out.Plane(), nil
}

// Next forwards to the source.
func (h *Host) Next() error {
	if h.source == nil {
		return nil
	}
	return h.source.Next()
}

func (h *Host) closeTransformer() {
	closeTransformer(h.transformer, "host")
	h.transformer = nil
}
