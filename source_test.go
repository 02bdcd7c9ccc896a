package texsource

import (
	"errors"
	"path/filepath"
	"testing"
)

func plane(w, h int, f PixelFormat) ImagePlane {
	return ImagePlane{Width: w, Height: h, Format: f, Pix: make([]byte, w*h*f.BytesPerPixel())}
}

// Camera fakes.

type fakeCameraPlatform struct {
	devices  []CameraDevice
	enumErr  error
	opened   []string
	requests []CameraRequest
	streams  []*fakeStream
}

func (p *fakeCameraPlatform) Devices() ([]CameraDevice, error) {
	return p.devices, p.enumErr
}

func (p *fakeCameraPlatform) Open(d CameraDevice, req CameraRequest) (CameraStream, error) {
	p.opened = append(p.opened, d.ID)
	p.requests = append(p.requests, req)
	s := &fakeStream{}
	p.streams = append(p.streams, s)
	return s, nil
}

func (p *fakeCameraPlatform) last() *fakeStream {
	return p.streams[len(p.streams)-1]
}

type fakeStream struct {
	frame  CameraFrame
	ok     bool
	closed int
}

func (s *fakeStream) Frame() (CameraFrame, bool) { return s.frame, s.ok }
func (s *fakeStream) Close() error               { s.closed++; return nil }

func (s *fakeStream) deliver(w, h, rotation int, counter uint64) {
	s.frame = CameraFrame{Plane: plane(w, h, FormatRGBA8), RotationAngle: rotation, Counter: counter}
	s.ok = true
}

func twoCameras() *fakeCameraPlatform {
	return &fakeCameraPlatform{devices: []CameraDevice{
		{ID: "back", Name: "Back Camera", Kind: CameraWideAngle},
		{ID: "front", Name: "Front Camera", Kind: CameraWideAngle, FrontFacing: true},
	}}
}

func TestWebCamStartUnavailable(t *testing.T) {
	env, _ := newFakeEnv(t)
	tests := []struct {
		name     string
		platform CameraPlatform
	}{
		{"no platform", nil},
		{"no cameras", &fakeCameraPlatform{}},
		{"enumerate fails", &fakeCameraPlatform{enumErr: errors.New("permission denied")}},
		{"filtered out", &fakeCameraPlatform{devices: []CameraDevice{{ID: "d", Kind: CameraColorAndDepth}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := WebCamConfig{SelectionPolicy: SelectionPolicy{Kinds: []CameraKind{CameraWideAngle}}}
			s := NewWebCamSource(env, tt.platform, cfg)
			if err := s.Start(); !errors.Is(err, ErrUnavailable) {
				t.Errorf("Start() error = %v, want ErrUnavailable", err)
			}
		})
	}
}

func TestWebCamNextCycles(t *testing.T) {
	env, _ := newFakeEnv(t)
	p := twoCameras()
	s := NewWebCamSource(env, p, WebCamConfig{Width: 1280, Height: 720, FrameRate: 30})

	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	for range 2 {
		if err := s.Next(); err != nil {
			t.Fatal(err)
		}
	}
	want := []string{"back", "front", "back"}
	if len(p.opened) != len(want) {
		t.Fatalf("opened %v, want %v", p.opened, want)
	}
	for i := range want {
		if p.opened[i] != want[i] {
			t.Errorf("opened[%d] = %s, want %s", i, p.opened[i], want[i])
		}
	}
	if p.streams[0].closed != 1 || p.streams[1].closed != 1 {
		t.Error("Next() did not close the previous stream")
	}
	if p.requests[0] != (CameraRequest{Width: 1280, Height: 720, FrameRate: 30}) {
		t.Errorf("request = %+v", p.requests[0])
	}
	if d, ok := s.CurrentDevice(); !ok || d.ID != "back" {
		t.Errorf("CurrentDevice() = %v, %v", d, ok)
	}
}

func TestWebCamNextSingleDevice(t *testing.T) {
	env, _ := newFakeEnv(t)
	p := &fakeCameraPlatform{devices: []CameraDevice{{ID: "only"}}}
	s := NewWebCamSource(env, p, WebCamConfig{})
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if err := s.Next(); err != nil {
		t.Fatal(err)
	}
	if len(p.opened) != 1 || p.last().closed != 0 {
		t.Errorf("Next() with one camera reopened: opened=%v closed=%d", p.opened, p.last().closed)
	}
}

func TestWebCamStopIdempotent(t *testing.T) {
	env, dev := newFakeEnv(t)
	p := twoCameras()
	s := NewWebCamSource(env, p, WebCamConfig{})
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() before Start error = %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	p.last().deliver(64, 48, 0, 1)
	if _, err := s.Texture(); err != nil {
		t.Fatal(err)
	}
	for range 2 {
		if err := s.Stop(); err != nil {
			t.Fatalf("Stop() error = %v", err)
		}
	}
	if p.last().closed != 1 {
		t.Errorf("stream closed %d times, want 1", p.last().closed)
	}
	if dev.liveImages != 0 {
		t.Errorf("liveImages = %d after Stop, want 0", dev.liveImages)
	}
	if _, ok := s.CurrentDevice(); ok {
		t.Error("CurrentDevice() reported a camera after Stop")
	}
}

func TestWebCamWarmUpAndCounter(t *testing.T) {
	env, _ := newFakeEnv(t)
	p := twoCameras()
	s := NewWebCamSource(env, p, WebCamConfig{})
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	stream := p.last()

	if s.DidUpdateThisFrame() {
		t.Error("update reported before the first frame")
	}
	if _, err := s.Texture(); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Texture() before first frame error = %v, want ErrUnavailable", err)
	}

	steps := []struct {
		name    string
		w, h    int
		counter uint64
		want    bool
	}{
		{"placeholder", 16, 16, 1, false},
		{"first frame", 640, 480, 2, true},
		{"same frame", 640, 480, 2, false},
		{"new frame", 640, 480, 3, true},
	}
	for _, st := range steps {
		env.Clock.Advance()
		stream.deliver(st.w, st.h, 0, st.counter)
		if got := s.DidUpdateThisFrame(); got != st.want {
			t.Errorf("%s: DidUpdateThisFrame() = %v, want %v", st.name, got, st.want)
		}
		if got := s.DidUpdateThisFrame(); got != st.want {
			t.Errorf("%s: second DidUpdateThisFrame() = %v, want %v", st.name, got, st.want)
		}
	}
}

func TestWebCamTextureOrientation(t *testing.T) {
	env, dev := newFakeEnv(t)
	p := twoCameras()
	s := NewWebCamSource(env, p, WebCamConfig{})
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if err := s.Next(); err != nil {
		t.Fatal(err)
	}
	p.last().deliver(64, 48, 90, 1)

	tex, err := s.Texture()
	if err != nil {
		t.Fatal(err)
	}
	if tex.Size() != (Size{48, 64}) {
		t.Errorf("Texture() size = %v, want 48x64", tex.Size())
	}
	if tex.Image == nil || tex.Format != FormatRGBA8 {
		t.Errorf("Texture() = %+v, want a device-resident RGBA8 plane", tex)
	}
	want, _ := NewTransform(Vec2{}, 90, Vec2{X: -1, Y: 1})
	if !dev.lastArgs.Transform.ApproxEqual(want, 1e-12) {
		t.Errorf("Transform = %v, want %v", dev.lastArgs.Transform, want)
	}

	if _, err := s.Texture(); err != nil {
		t.Fatal(err)
	}
	if dev.dispatches != 1 {
		t.Errorf("dispatches = %d within one tick, want 1", dev.dispatches)
	}

	env.Clock.Advance()
	if _, err := s.Texture(); err != nil {
		t.Fatal(err)
	}
	if dev.dispatches != 2 || dev.images != 1 {
		t.Errorf("dispatches = %d, images = %d; want 2 and 1", dev.dispatches, dev.images)
	}
}

// Video fakes.

type fakeVideoPlatform struct {
	urls    []string
	opts    VideoOptions
	players []*fakePlayer
}

func (p *fakeVideoPlatform) Open(url string, opts VideoOptions) (VideoPlayer, error) {
	p.urls = append(p.urls, url)
	p.opts = opts
	pl := &fakePlayer{frame: -1}
	p.players = append(p.players, pl)
	return pl, nil
}

type fakePlayer struct {
	frame  int64
	tex    ImagePlane
	closed int
}

func (p *fakePlayer) Frame() int64 { return p.frame }

func (p *fakePlayer) Texture() (ImagePlane, bool) {
	return p.tex, p.frame >= 0
}

func (p *fakePlayer) Close() error { p.closed++; return nil }

func TestVideoStartUnavailable(t *testing.T) {
	env, _ := newFakeEnv(t)
	if err := NewVideoSource(env, nil, VideoConfig{Paths: []string{"a.mp4"}}).Start(); !errors.Is(err, ErrUnavailable) {
		t.Errorf("no platform: error = %v, want ErrUnavailable", err)
	}
	if err := NewVideoSource(env, &fakeVideoPlatform{}, VideoConfig{}).Start(); !errors.Is(err, ErrUnavailable) {
		t.Errorf("no paths: error = %v, want ErrUnavailable", err)
	}
}

func TestVideoPathResolution(t *testing.T) {
	env, _ := newFakeEnv(t)
	base := filepath.Join("media", "clips")
	abs, _ := filepath.Abs("b.mp4")
	p := &fakeVideoPlatform{}
	s := NewVideoSource(env, p, VideoConfig{
		Paths:      []string{"a.mp4", abs, "rtsp://camera.local/stream"},
		BaseDir:    base,
		Loop:       true,
		StartIndex: 7,
	})
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	for range 2 {
		if err := s.Next(); err != nil {
			t.Fatal(err)
		}
	}
	want := []string{"rtsp://camera.local/stream", filepath.Join(base, "a.mp4"), abs}
	if len(p.urls) != len(want) {
		t.Fatalf("opened %v, want %v", p.urls, want)
	}
	for i := range want {
		if p.urls[i] != want[i] {
			t.Errorf("urls[%d] = %q, want %q", i, p.urls[i], want[i])
		}
	}
	if !p.opts.Loop || p.opts.PlaySound {
		t.Errorf("options = %+v", p.opts)
	}
	if got, ok := s.CurrentPath(); !ok || got != abs {
		t.Errorf("CurrentPath() = %q, %v", got, ok)
	}
}

func TestVideoFrameChange(t *testing.T) {
	env, dev := newFakeEnv(t)
	p := &fakeVideoPlatform{}
	s := NewVideoSource(env, p, VideoConfig{Paths: []string{"a.mp4"}})
	if _, err := s.Texture(); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Texture() before Start error = %v, want ErrUnavailable", err)
	}
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	player := p.players[0]

	env.Clock.Advance()
	if s.DidUpdateThisFrame() {
		t.Error("update before the first decoded frame")
	}

	player.frame, player.tex = 0, plane(32, 18, FormatRGBA8)
	env.Clock.Advance()
	if !s.DidUpdateThisFrame() {
		t.Error("no update for the first decoded frame")
	}
	tex, err := s.Texture()
	if err != nil {
		t.Fatal(err)
	}
	if tex.Size() != (Size{32, 18}) || tex.Pix == nil {
		t.Errorf("Texture() = %v, want the decoded host frame", tex.Size())
	}

	env.Clock.Advance()
	if s.DidUpdateThisFrame() {
		t.Error("update reported for a repeated frame index")
	}
	if dev.dispatches != 0 {
		t.Errorf("dispatches = %d, video frames are returned raw", dev.dispatches)
	}

	if err := s.Next(); err != nil {
		t.Fatal(err)
	}
	if len(p.players) != 1 || player.closed != 0 {
		t.Error("Next() with one path restarted the player")
	}
}

func TestVideoNextWhileStopped(t *testing.T) {
	env, _ := newFakeEnv(t)
	p := &fakeVideoPlatform{}
	s := NewVideoSource(env, p, VideoConfig{Paths: []string{"a.mp4", "b.mp4"}})
	if err := s.Next(); err != nil {
		t.Fatal(err)
	}
	if len(p.urls) != 0 {
		t.Fatalf("Next() on a stopped source opened %v", p.urls)
	}
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if p.urls[0] != "b.mp4" {
		t.Errorf("Start() opened %q, want b.mp4", p.urls[0])
	}
	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}
	if p.players[0].closed != 1 {
		t.Errorf("player closed %d times, want 1", p.players[0].closed)
	}
}

// AR fakes.

type fakeAR struct {
	frameSubs []func(ARFrame)
	depthSubs []func(OcclusionFrame)
	screen    Size
	facing    Facing
	requested []Facing
}

func (a *fakeAR) SubscribeFrames(fn func(ARFrame)) func() {
	a.frameSubs = append(a.frameSubs, fn)
	i := len(a.frameSubs) - 1
	return func() { a.frameSubs[i] = nil }
}

func (a *fakeAR) SubscribeOcclusion(fn func(OcclusionFrame)) func() {
	a.depthSubs = append(a.depthSubs, fn)
	i := len(a.depthSubs) - 1
	return func() { a.depthSubs[i] = nil }
}

func (a *fakeAR) ScreenSize() Size       { return a.screen }
func (a *fakeAR) CurrentFacing() Facing  { return a.facing }
func (a *fakeAR) RequestFacing(f Facing) { a.requested = append(a.requested, f) }

func (a *fakeAR) emit(f ARFrame) {
	for _, fn := range a.frameSubs {
		if fn != nil {
			fn(f)
		}
	}
}

func (a *fakeAR) emitDepth(f OcclusionFrame) {
	for _, fn := range a.depthSubs {
		if fn != nil {
			fn(f)
		}
	}
}

func (a *fakeAR) subscribers() int {
	n := 0
	for _, fn := range a.frameSubs {
		if fn != nil {
			n++
		}
	}
	for _, fn := range a.depthSubs {
		if fn != nil {
			n++
		}
	}
	return n
}

func arFrame(m *Matrix) ARFrame {
	return ARFrame{
		Planes: []PlaneBinding{
			{Property: PropertyLuma, Plane: plane(64, 48, FormatGray8)},
			{Property: PropertyChroma, Plane: plane(32, 24, FormatRG8)},
		},
		DisplayMatrix: m,
	}
}

func TestARStartUnavailable(t *testing.T) {
	env, _ := newFakeEnv(t)
	if err := NewARCameraSource(env, nil).Start(); !errors.Is(err, ErrUnavailable) {
		t.Errorf("no AR platform: error = %v, want ErrUnavailable", err)
	}
	if err := NewARDepthSource(env, &fakeAR{}, nil, ARConfig{}).Start(); !errors.Is(err, ErrUnavailable) {
		t.Errorf("no occlusion platform: error = %v, want ErrUnavailable", err)
	}
}

func TestARCameraFrames(t *testing.T) {
	env, dev := newFakeEnv(t)
	ar := &fakeAR{screen: Size{90, 160}}
	s := NewARCameraSource(env, ar)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}

	if s.DidUpdateThisFrame() {
		t.Error("update before the first AR frame")
	}
	if _, err := s.Texture(); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Texture() before first frame error = %v, want ErrUnavailable", err)
	}

	env.Clock.Advance()
	id := Identity()
	ar.emit(arFrame(&id))
	if !s.DidUpdateThisFrame() {
		t.Fatal("no update after an AR frame")
	}
	tex, err := s.Texture()
	if err != nil {
		t.Fatal(err)
	}
	// 64x48 swapped for the portrait screen, then fitted to 9:16.
	if tex.Size() != (Size{36, 64}) {
		t.Errorf("Texture() size = %v, want 36x64", tex.Size())
	}
	if got := dev.lastArgs.Kernel.Variant(); got != KernelMultiPlaneChroma {
		t.Errorf("kernel = %v, want %v", got, KernelMultiPlaneChroma)
	}
	if len(dev.lastArgs.Inputs) != 2 {
		t.Errorf("bound %d planes, want 2", len(dev.lastArgs.Inputs))
	}
	if !dev.lastArgs.Transform.ApproxEqual(Identity(), 1e-12) {
		t.Errorf("Transform = %v, want identity", dev.lastArgs.Transform)
	}

	env.Clock.Advance()
	ar.emit(arFrame(nil))
	if s.DidUpdateThisFrame() {
		t.Error("frame without display matrix was not dropped")
	}
	if dev.dispatches != 1 {
		t.Errorf("dispatches = %d, want 1", dev.dispatches)
	}

	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}
	if ar.subscribers() != 0 || dev.liveImages != 0 {
		t.Errorf("after Stop: subscribers = %d, liveImages = %d", ar.subscribers(), dev.liveImages)
	}
}

func TestARFrameAfterQueryReportedNextTick(t *testing.T) {
	env, _ := newFakeEnv(t)
	ar := &fakeAR{screen: Size{160, 90}}
	s := NewARCameraSource(env, ar)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Stop() })

	env.Clock.Advance()
	if s.DidUpdateThisFrame() {
		t.Fatal("update before the first AR frame")
	}
	id := Identity()
	ar.emit(arFrame(&id))
	if s.DidUpdateThisFrame() {
		t.Error("answer changed within one tick")
	}

	env.Clock.Advance()
	if !s.DidUpdateThisFrame() {
		t.Error("frame delivered after the query was lost")
	}
	env.Clock.Advance()
	if s.DidUpdateThisFrame() {
		t.Error("one frame reported twice")
	}
}

func TestARNextTogglesFacing(t *testing.T) {
	env, _ := newFakeEnv(t)
	ar := &fakeAR{}
	s := NewARCameraSource(env, ar)
	if err := s.Next(); err != nil {
		t.Fatal(err)
	}
	ar.facing = FacingFront
	if err := s.Next(); err != nil {
		t.Fatal(err)
	}
	if len(ar.requested) != 2 || ar.requested[0] != FacingFront || ar.requested[1] != FacingBack {
		t.Errorf("requested facings = %v, want [front back]", ar.requested)
	}
}

func TestARDepthBinding(t *testing.T) {
	env, dev := newFakeEnv(t)
	ar := &fakeAR{screen: Size{160, 90}}
	cfg := ARConfig{DepthMode: RawDistance, DepthRange: 3}
	s := NewARDepthSource(env, ar, ar, cfg)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}

	id := Identity()
	ar.emit(arFrame(&id))
	args := dev.lastArgs
	if got := args.Kernel.Variant(); got != KernelMultiPlaneChromaDepth {
		t.Errorf("kernel = %v, want %v", got, KernelMultiPlaneChromaDepth)
	}
	if len(args.Inputs) != 3 || args.Inputs[2].Property != PropertyDepth {
		t.Fatalf("inputs = %v, want luma, chroma and depth", args.Inputs)
	}
	if args.Inputs[2].Plane.Size() != (Size{1, 1}) {
		t.Errorf("depth before occlusion = %v, want the 1x1 placeholder", args.Inputs[2].Plane.Size())
	}
	if args.Depth != (DepthSettings{Mode: RawDistance, Range: 3}) {
		t.Errorf("depth settings = %+v", args.Depth)
	}

	ar.emitDepth(OcclusionFrame{Depth: plane(40, 30, FormatGray16)})
	ar.emit(arFrame(&id))
	if got := dev.lastArgs.Inputs[2].Plane.Size(); got != (Size{40, 30}) {
		t.Errorf("depth plane = %v, want 40x30", got)
	}
	// Landscape screen: no swap, 64x48 fitted to 16:9.
	tex, err := s.Texture()
	if err != nil {
		t.Fatal(err)
	}
	if tex.Size() != (Size{64, 36}) {
		t.Errorf("Texture() size = %v, want 64x36", tex.Size())
	}
}
