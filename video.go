package texsource

import (
	"fmt"
	"path/filepath"
	"strings"
)

// VideoOptions are passed to the video platform when a file is opened.
type VideoOptions struct {
	Loop      bool
	PlaySound bool
}

// VideoPlayer plays one file.
type VideoPlayer interface {
	// Frame returns the index of the displayed frame, -1 before the first.
	Frame() int64
	// Texture returns the displayed frame, false before the first.
	Texture() (ImagePlane, bool)
	Close() error
}

// VideoPlatform opens video files.
type VideoPlatform interface {
	Open(url string, opts VideoOptions) (VideoPlayer, error)
}

// VideoConfig configures a video source.
type VideoConfig struct {
	// Paths lists the files to cycle through. Relative paths are resolved
	// against BaseDir; URLs with a scheme are passed through.
	Paths     []string `toml:"paths"`
	BaseDir   string   `toml:"base_dir"`
	Loop      bool     `toml:"loop"`
	PlaySound bool     `toml:"play_sound"`
	// StartIndex is the first file played, clamped to the last one.
	StartIndex int `toml:"start_index"`
}

type videoState struct {
	platform VideoPlatform
	cfg      VideoConfig

	index        int
	player       VideoPlayer
	currentFrame int64
}

// NewVideoSource creates a video file source.
func NewVideoSource(env *Env, platform VideoPlatform, cfg VideoConfig) *Source {
	s := newSource(SourceVideo, env)
	s.video = &videoState{platform: platform, cfg: cfg, index: cfg.StartIndex, currentFrame: -1}
	return s
}

// CurrentPath returns the resolved path of the file being played and true
// while started.
func (s *Source) CurrentPath() (string, bool) {
	if s.video == nil || s.video.player == nil {
		return "", false
	}
	return s.video.url(s.video.index), true
}

func (v *videoState) url(i int) string {
	p := v.cfg.Paths[i]
	if strings.Contains(p, "://") || filepath.IsAbs(p) || v.cfg.BaseDir == "" {
		return p
	}
	return filepath.Join(v.cfg.BaseDir, p)
}

func (v *videoState) start(s *Source) error {
	if v.player != nil {
		return nil
	}
	if v.platform == nil {
		return fmt.Errorf("%w: no video platform", ErrUnavailable)
	}
	if len(v.cfg.Paths) == 0 {
		return fmt.Errorf("%w: no video paths", ErrUnavailable)
	}
	v.index = min(max(v.index, 0), len(v.cfg.Paths)-1)
	return v.open(s)
}

func (v *videoState) open(s *Source) error {
	url := v.url(v.index)
	player, err := v.platform.Open(url, VideoOptions{Loop: v.cfg.Loop, PlaySound: v.cfg.PlaySound})
	if err != nil {
		return fmt.Errorf("%w: open video %q: %v", ErrUnavailable, url, err)
	}
	v.player = player
	v.currentFrame = -1
	s.logger().Info("texsource: video opened", "url", url, "index", v.index, "loop", v.cfg.Loop)
	return nil
}

func (v *videoState) stop() error {
	if v.player == nil {
		return nil
	}
	err := v.player.Close()
	v.player = nil
	if err != nil {
		return fmt.Errorf("texsource: close video: %w", err)
	}
	return nil
}

func (v *videoState) next(s *Source) error {
	if len(v.cfg.Paths) < 2 {
		return nil
	}
	running := v.player != nil
	if err := v.stop(); err != nil {
		s.logger().Warn("texsource: stop video", "err", err)
	}
	v.index = (v.index + 1) % len(v.cfg.Paths)
	if !running {
		return nil
	}
	return v.open(s)
}

func (v *videoState) didUpdate() bool {
	if v.player == nil {
		return false
	}
	frame := v.player.Frame()
	if frame == v.currentFrame {
		return false
	}
	v.currentFrame = frame
	return true
}

func (v *videoState) texture() (ImagePlane, error) {
	if v.player == nil {
		return ImagePlane{}, fmt.Errorf("%w: video not started", ErrUnavailable)
	}
	p, ok := v.player.Texture()
	if !ok {
		return ImagePlane{}, fmt.Errorf("%w: no video frame yet", ErrUnavailable)
	}
	return p, nil
}
