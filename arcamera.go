package texsource

import "fmt"

// ARFrame is one camera frame of an AR session.
type ARFrame struct {
	// Planes are the camera planes, typically luma and CbCr.
	Planes []PlaneBinding
	// DisplayMatrix maps screen to camera image coordinates, centered on
	// the image. Frames without one are dropped.
	DisplayMatrix *Matrix
}

// ARPlatform delivers AR camera frames.
//
// Frame callbacks must run on the goroutine that drives the Clock, between
// ticks or inside Host.Update.
type ARPlatform interface {
	// SubscribeFrames registers fn and returns a function removing it.
	SubscribeFrames(fn func(ARFrame)) (unsubscribe func())
	// ScreenSize returns the display size the output is fitted to.
	ScreenSize() Size
	// CurrentFacing returns the active camera facing (back is the world
	// camera, front the user camera).
	CurrentFacing() Facing
	// RequestFacing asks the session to switch cameras.
	RequestFacing(Facing)
}

// OcclusionFrame carries the environment depth of an AR session.
type OcclusionFrame struct {
	// Depth is a Gray16 plane in millimetres.
	Depth ImagePlane
}

// OcclusionPlatform delivers AR depth frames under the same threading rule
// as ARPlatform.
type OcclusionPlatform interface {
	SubscribeOcclusion(fn func(OcclusionFrame)) (unsubscribe func())
}

// ARConfig configures the AR sources.
type ARConfig struct {
	DepthMode DepthMode `toml:"depth_mode"`
	// DepthRange is the Depth01 far plane in metres.
	DepthRange float64 `toml:"depth_range"`
}

// noDepth is bound until the first occlusion frame arrives.
var noDepth = ImagePlane{Width: 1, Height: 1, Format: FormatGray16, Pix: []byte{0, 0}}

type arState struct {
	platform  ARPlatform
	occlusion OcclusionPlatform
	withDepth bool
	depth     DepthSettings

	unsubscribe          func()
	unsubscribeOcclusion func()

	transformer *Transformer
	bindings    []PlaneBinding
	depthPlane  ImagePlane
	// pending is set by every transformed frame and cleared by the next
	// update query, so frames delivered between ticks are not lost.
	pending bool
	err     error
}

// NewARCameraSource creates a source over the AR camera passthrough image.
func NewARCameraSource(env *Env, platform ARPlatform) *Source {
	s := newSource(SourceARCamera, env)
	s.ar = &arState{platform: platform}
	return s
}

// NewARDepthSource creates an AR camera source that also encodes the
// environment depth into the alpha channel.
func NewARDepthSource(env *Env, platform ARPlatform, occlusion OcclusionPlatform, cfg ARConfig) *Source {
	s := newSource(SourceARDepth, env)
	s.ar = &arState{
		platform:  platform,
		occlusion: occlusion,
		withDepth: true,
		depth:     DepthSettings{Mode: cfg.DepthMode, Range: cfg.DepthRange},
	}
	return s
}

func (a *arState) variant() KernelVariant {
	if a.withDepth {
		return KernelMultiPlaneChromaDepth
	}
	return KernelMultiPlaneChroma
}

func (a *arState) start(s *Source) error {
	if a.unsubscribe != nil {
		return nil
	}
	if a.platform == nil {
		return fmt.Errorf("%w: no AR platform", ErrUnavailable)
	}
	if a.withDepth && a.occlusion == nil {
		return fmt.Errorf("%w: no AR occlusion platform", ErrUnavailable)
	}
	a.err = nil
	a.depthPlane = noDepth
	if a.withDepth {
		a.unsubscribeOcclusion = a.occlusion.SubscribeOcclusion(a.onOcclusion)
	}
	a.unsubscribe = a.platform.SubscribeFrames(func(f ARFrame) { a.onFrame(s, f) })
	return nil
}

func (a *arState) stop() error {
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
	if a.unsubscribeOcclusion != nil {
		a.unsubscribeOcclusion()
		a.unsubscribeOcclusion = nil
	}
	closeTransformer(a.transformer, "ar")
	a.transformer = nil
	a.pending = false
	return nil
}

func (a *arState) next() error {
	if a.platform == nil {
		return nil
	}
	want := FacingFront
	if a.platform.CurrentFacing() == FacingFront {
		want = FacingBack
	}
	a.platform.RequestFacing(want)
	return nil
}

func (a *arState) onOcclusion(f OcclusionFrame) {
	if f.Depth.Width > 0 && f.Depth.Height > 0 {
		a.depthPlane = f.Depth
	}
}

func (a *arState) onFrame(s *Source, f ARFrame) {
	if a.unsubscribe == nil || len(f.Planes) == 0 {
		return
	}
	if f.DisplayMatrix == nil {
		s.logger().Warn("texsource: AR frame without display matrix dropped")
		return
	}

	var size Size
	for _, b := range f.Planes {
		size.W = max(size.W, b.Plane.Width)
		size.H = max(size.H, b.Plane.Height)
	}
	screenAspect := a.platform.ScreenSize().Aspect()
	if size.W > size.H && screenAspect > 0 && screenAspect < 1 {
		size = size.Swap()
	}
	if screenAspect <= 0 {
		screenAspect = size.Aspect()
	}
	dst, _ := Fit(size, screenAspect)

	t, err := reuseTransformer(a.transformer, s.env.Kernels, dst, a.variant())
	if err != nil {
		a.transformer = nil
		a.err = err
		return
	}
	a.transformer = t
	t.SetDepth(a.depth)

	a.bindings = append(a.bindings[:0], f.Planes...)
	if a.withDepth {
		a.bindings = append(a.bindings, PlaneBinding{Property: PropertyDepth, Plane: a.depthPlane})
	}
	m := CenterAround(f.DisplayMatrix.Transpose())
	if _, err := t.TransformPlanes(a.bindings, m); err != nil {
		s.logger().Warn("texsource: AR frame transform failed", "err", err)
		a.err = err
		return
	}
	a.err = nil
	a.pending = true
}

func (a *arState) didUpdate() bool {
	v := a.pending
	a.pending = false
	return v
}

func (a *arState) texture() (ImagePlane, error) {
	if a.err != nil {
		return ImagePlane{}, a.err
	}
	if a.transformer == nil {
		return ImagePlane{}, fmt.Errorf("%w: no AR frame yet", ErrUnavailable)
	}
	return a.transformer.dst.Plane(), nil
}
