package texsource

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

// fakeSource is a TextureSource driven directly by the test.
type fakeSource struct {
	started  int
	stopped  int
	nexts    int
	startErr error
	updated  bool
	tex      ImagePlane
	texErr   error
}

func (s *fakeSource) Start() error {
	if s.startErr != nil {
		return s.startErr
	}
	s.started++
	return nil
}

func (s *fakeSource) Stop() error                  { s.stopped++; return nil }
func (s *fakeSource) Next() error                  { s.nexts++; return nil }
func (s *fakeSource) DidUpdateThisFrame() bool     { return s.updated }
func (s *fakeSource) Texture() (ImagePlane, error) { return s.tex, s.texErr }

// recorder collects host notifications.
type recorder struct {
	textures []ImagePlane
	aspects  []float64
}

func (r *recorder) options() []HostOption {
	return []HostOption{
		WithTextureHandler(func(p ImagePlane) { r.textures = append(r.textures, p) }),
		WithAspectHandler(func(a float64) { r.aspects = append(r.aspects, a) }),
	}
}

func TestHostWithoutSource(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	env, _ := newFakeEnv(t)
	h := NewHost(env, nil)
	for range 2 {
		if err := h.Enable(); err != nil {
			t.Fatalf("Enable() error = %v", err)
		}
	}
	if h.Enabled() {
		t.Error("host without source is enabled")
	}
	if n := strings.Count(buf.String(), "level=ERROR"); n != 1 {
		t.Errorf("logged %d errors, want 1:\n%s", n, buf.String())
	}
	if err := h.Update(); err != nil {
		t.Errorf("Update() error = %v", err)
	}
	if err := h.Next(); err != nil {
		t.Errorf("Next() error = %v", err)
	}
	if err := h.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestHostPublishes(t *testing.T) {
	env, dev := newFakeEnv(t)
	src := &fakeSource{tex: hostPlane(64, 32)}
	var rec recorder
	h := NewHost(env, src, rec.options()...)

	if err := h.Update(); err != nil {
		t.Fatal(err)
	}
	if len(rec.textures) != 0 {
		t.Fatal("disabled host published a texture")
	}
	if err := h.Enable(); err != nil {
		t.Fatal(err)
	}

	ticks := []bool{true, true, false, true}
	for _, updated := range ticks {
		env.Clock.Advance()
		src.updated = updated
		if err := h.Update(); err != nil {
			t.Fatal(err)
		}
	}
	if len(rec.textures) != 3 {
		t.Errorf("published %d textures, want 3", len(rec.textures))
	}
	if len(rec.aspects) != 1 || rec.aspects[0] != 2 {
		t.Errorf("aspect changes = %v, want [2]", rec.aspects)
	}
	if h.Aspect() != 2 {
		t.Errorf("Aspect() = %v, want 2", h.Aspect())
	}
	if rec.textures[0].Pix == nil || dev.dispatches != 0 {
		t.Error("host without target aspect should publish the source texture as is")
	}
}

func TestHostTargetAspect(t *testing.T) {
	env, dev := newFakeEnv(t)
	src := &fakeSource{tex: hostPlane(64, 32), updated: true}
	var rec recorder
	h := NewHost(env, src, append(rec.options(), WithTargetAspect(1))...)
	if err := h.Enable(); err != nil {
		t.Fatal(err)
	}

	sizes := []Size{{64, 32}, {64, 32}, {48, 64}}
	for _, sz := range sizes {
		env.Clock.Advance()
		src.tex = hostPlane(sz.W, sz.H)
		if err := h.Update(); err != nil {
			t.Fatal(err)
		}
	}

	want := []Size{{32, 32}, {32, 32}, {48, 48}}
	if len(rec.textures) != len(want) {
		t.Fatalf("published %d textures, want %d", len(rec.textures), len(want))
	}
	for i, w := range want {
		if got := rec.textures[i].Size(); got != w {
			t.Errorf("texture %d size = %v, want %v", i, got, w)
		}
	}
	if len(rec.aspects) != 1 || rec.aspects[0] != 1 {
		t.Errorf("aspect changes = %v, want [1]", rec.aspects)
	}
	if dev.images != 2 || dev.liveImages != 1 {
		t.Errorf("images = %d, live = %d; want 2 and 1", dev.images, dev.liveImages)
	}

	wantM, _ := NewTransform(Vec2{}, 0, Vec2{X: 1, Y: 64.0 / 48})
	if !dev.lastArgs.Transform.ApproxEqual(wantM, 1e-12) {
		t.Errorf("Transform = %v, want %v", dev.lastArgs.Transform, wantM)
	}

	if err := h.Disable(); err != nil {
		t.Fatal(err)
	}
	if dev.liveImages != 0 || src.stopped != 1 {
		t.Errorf("after Disable: live = %d, stopped = %d", dev.liveImages, src.stopped)
	}
}

func TestHostErrors(t *testing.T) {
	env, _ := newFakeEnv(t)

	boom := errors.New("camera unplugged")
	src := &fakeSource{startErr: boom}
	h := NewHost(env, src)
	if err := h.Enable(); !errors.Is(err, boom) {
		t.Errorf("Enable() error = %v, want %v", err, boom)
	}
	if h.Enabled() {
		t.Error("host enabled after a failed start")
	}

	src.startErr = nil
	src.updated = true
	src.texErr = ErrUnavailable
	var rec recorder
	h = NewHost(env, src, rec.options()...)
	if err := h.Enable(); err != nil {
		t.Fatal(err)
	}
	if err := h.Update(); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Update() error = %v, want ErrUnavailable", err)
	}
	if len(rec.textures) != 0 || len(rec.aspects) != 0 {
		t.Error("host published after a texture error")
	}
}

func TestHostNextForwards(t *testing.T) {
	env, _ := newFakeEnv(t)
	src := &fakeSource{}
	h := NewHost(env, src)
	if h.Source() != src {
		t.Error("Source() returned a different source")
	}
	if err := h.Next(); err != nil {
		t.Fatal(err)
	}
	if src.nexts != 1 {
		t.Errorf("source Next called %d times, want 1", src.nexts)
	}
}

func TestHostWithVideoSource(t *testing.T) {
	env, _ := newFakeEnv(t)
	p := &fakeVideoPlatform{}
	src := NewVideoSource(env, p, VideoConfig{Paths: []string{"a.mp4"}})
	var rec recorder
	h := NewHost(env, src, rec.options()...)
	if err := h.Enable(); err != nil {
		t.Fatal(err)
	}

	for i := range 4 {
		env.Clock.Advance()
		if i < 2 {
			p.players[0].frame = int64(i)
			p.players[0].tex = hostPlane(16, 9)
		}
		if err := h.Update(); err != nil {
			t.Fatal(err)
		}
	}
	if len(rec.textures) != 2 {
		t.Errorf("published %d textures, want 2", len(rec.textures))
	}
	if err := h.Close(); err != nil {
		t.Fatal(err)
	}
	if p.players[0].closed != 1 {
		t.Errorf("player closed %d times, want 1", p.players[0].closed)
	}
}

func TestHostPublishesARFramesBetweenTicks(t *testing.T) {
	env, dev := newFakeEnv(t)
	ar := &fakeAR{screen: Size{160, 90}}
	var rec recorder
	h := NewHost(env, NewARCameraSource(env, ar), rec.options()...)
	if err := h.Enable(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = h.Close() })

	id := Identity()
	for range 5 {
		env.Clock.Advance()
		if err := h.Update(); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		ar.emit(arFrame(&id))
	}
	if dev.dispatches != 5 {
		t.Fatalf("dispatches = %d, want 5", dev.dispatches)
	}
	// Each frame is published on the tick after it arrived.
	if len(rec.textures) != 4 {
		t.Errorf("published %d textures, want 4", len(rec.textures))
	}

	env.Clock.Advance()
	if err := h.Update(); err != nil {
		t.Fatal(err)
	}
	if len(rec.textures) != 5 {
		t.Errorf("published %d textures after the last tick, want 5", len(rec.textures))
	}
}
