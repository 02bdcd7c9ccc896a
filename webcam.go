package texsource

import "fmt"

// placeholderSize is the largest frame edge treated as a warm-up frame.
// Camera drivers report tiny placeholder frames until the first real one.
const placeholderSize = 16

// CameraRequest is the capture format asked of a camera.
type CameraRequest struct {
	Width, Height int
	FrameRate     int
}

// CameraFrame is the latest frame of a camera stream.
type CameraFrame struct {
	Plane ImagePlane
	// RotationAngle is the clockwise rotation, in degrees, that makes the
	// frame upright.
	RotationAngle int
	// VerticallyMirrored is set when the driver delivers rows bottom-up.
	VerticallyMirrored bool
	// Counter increases with every delivered frame.
	Counter uint64
}

// CameraStream is an open camera.
type CameraStream interface {
	// Frame returns the latest frame, false before the first one.
	Frame() (CameraFrame, bool)
	Close() error
}

// CameraPlatform enumerates and opens cameras.
type CameraPlatform interface {
	Devices() ([]CameraDevice, error)
	Open(device CameraDevice, req CameraRequest) (CameraStream, error)
}

// WebCamConfig configures a webcam source.
type WebCamConfig struct {
	SelectionPolicy

	Width     int `toml:"width"`
	Height    int `toml:"height"`
	FrameRate int `toml:"frame_rate"`
}

type webcamState struct {
	platform CameraPlatform
	cfg      WebCamConfig

	devices []CameraDevice
	index   int
	stream  CameraStream
	current CameraDevice

	lastCounter uint64
	seen        bool

	transformer *Transformer
}

// NewWebCamSource creates a camera source. Devices are enumerated and
// filtered by the selection policy on Start.
func NewWebCamSource(env *Env, platform CameraPlatform, cfg WebCamConfig) *Source {
	s := newSource(SourceWebCam, env)
	s.webcam = &webcamState{platform: platform, cfg: cfg}
	return s
}

// Devices returns the selected devices in priority order, as of the last
// Start.
func (s *Source) Devices() []CameraDevice {
	if s.webcam == nil {
		return nil
	}
	return append([]CameraDevice(nil), s.webcam.devices...)
}

// CurrentDevice returns the open camera and true while started.
func (s *Source) CurrentDevice() (CameraDevice, bool) {
	if s.webcam == nil || s.webcam.stream == nil {
		return CameraDevice{}, false
	}
	return s.webcam.current, true
}

func (w *webcamState) start(s *Source) error {
	if w.stream != nil {
		return nil
	}
	if w.platform == nil {
		return fmt.Errorf("%w: no camera platform", ErrUnavailable)
	}
	all, err := w.platform.Devices()
	if err != nil {
		return fmt.Errorf("%w: enumerate cameras: %v", ErrUnavailable, err)
	}
	w.devices = w.cfg.Select(all)
	if len(w.devices) == 0 {
		return fmt.Errorf("%w: none of %d cameras match the selection policy", ErrUnavailable, len(all))
	}
	if w.index < 0 || w.index >= len(w.devices) {
		return fmt.Errorf("%w: camera index %d out of range [0, %d)", ErrUnavailable, w.index, len(w.devices))
	}
	return w.open(s)
}

func (w *webcamState) open(s *Source) error {
	dev := w.devices[w.index]
	stream, err := w.platform.Open(dev, CameraRequest{
		Width:     w.cfg.Width,
		Height:    w.cfg.Height,
		FrameRate: w.cfg.FrameRate,
	})
	if err != nil {
		return fmt.Errorf("%w: open camera %q: %v", ErrUnavailable, dev.Name, err)
	}
	w.stream = stream
	w.current = dev
	w.seen = false
	s.logger().Info("texsource: camera opened",
		"camera", dev.Name, "kind", dev.Kind.String(), "facing", dev.Facing().String(), "index", w.index)
	return nil
}

func (w *webcamState) stop() error {
	var err error
	if w.stream != nil {
		if cerr := w.stream.Close(); cerr != nil {
			err = fmt.Errorf("texsource: close camera %q: %w", w.current.Name, cerr)
		}
		w.stream = nil
	}
	closeTransformer(w.transformer, "webcam")
	w.transformer = nil
	return err
}

func (w *webcamState) next(s *Source) error {
	if len(w.devices) < 2 {
		return nil
	}
	running := w.stream != nil
	if err := w.stop(); err != nil {
		s.logger().Warn("texsource: stop camera", "err", err)
	}
	w.index = (w.index + 1) % len(w.devices)
	if !running {
		return nil
	}
	return w.open(s)
}

// frame returns the latest frame unless it is missing or a placeholder.
func (w *webcamState) frame() (CameraFrame, bool) {
	if w.stream == nil {
		return CameraFrame{}, false
	}
	f, ok := w.stream.Frame()
	if !ok || f.Plane.Width <= placeholderSize || f.Plane.Height <= placeholderSize {
		return CameraFrame{}, false
	}
	return f, true
}

func (w *webcamState) didUpdate() bool {
	f, ok := w.frame()
	if !ok {
		return false
	}
	if w.seen && f.Counter == w.lastCounter {
		return false
	}
	w.seen = true
	w.lastCounter = f.Counter
	return true
}

func (w *webcamState) texture(s *Source) (ImagePlane, error) {
	f, ok := w.frame()
	if !ok {
		return ImagePlane{}, fmt.Errorf("%w: no camera frame yet", ErrUnavailable)
	}
	o := DeriveOrientation(f.Plane.Size(), f.RotationAngle, w.current.FrontFacing, f.VerticallyMirrored)

	t, err := reuseTransformer(w.transformer, s.env.Kernels, o.Size, KernelStandard)
	if err != nil {
		w.transformer = nil
		return ImagePlane{}, err
	}
	w.transformer = t

	dst, err := t.TransformTRS(f.Plane, Vec2{}, o.Rotation, o.Mirror)
	if err != nil {
		return ImagePlane{}, err
	}
	return dst.Plane(), nil
}
