package texsource

import (
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the TOML configuration of a host and its source.
//
//	source = "webcam"
//
//	[host]
//	target_aspect = 1.7777
//
//	[webcam]
//	facings = ["back", "front"]
//	kind_priority = ["wide-angle", "ultra-wide-angle", "telephoto"]
//	width = 1280
//	height = 720
//	frame_rate = 60
type Config struct {
	Source SourceKind   `toml:"source"`
	Host   HostConfig   `toml:"host"`
	WebCam WebCamConfig `toml:"webcam"`
	Video  VideoConfig  `toml:"video"`
	AR     ARConfig     `toml:"ar"`
}

// HostConfig configures the Host.
type HostConfig struct {
	// TargetAspect crops published textures to width/height. 0 disables it.
	TargetAspect float64 `toml:"target_aspect"`
}

// DefaultConfig returns the configuration used for keys a file omits.
func DefaultConfig() Config {
	return Config{
		Source: SourceWebCam,
		WebCam: WebCamConfig{
			SelectionPolicy: SelectionPolicy{
				Facings:        []Facing{FacingBack, FacingFront},
				Kinds:          []CameraKind{CameraWideAngle, CameraTelephoto, CameraUltraWideAngle},
				FacingPriority: []Facing{FacingBack, FacingFront},
				KindPriority:   []CameraKind{CameraWideAngle, CameraUltraWideAngle, CameraTelephoto},
			},
			Width:     1280,
			Height:    720,
			FrameRate: 60,
		},
		Video: VideoConfig{Loop: true},
		AR:    ARConfig{DepthMode: Depth01, DepthRange: DefaultDepthRange},
	}
}

// DecodeConfig parses TOML over DefaultConfig and validates the result.
// Unknown keys are an error.
func DecodeConfig(data string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return cfg, finishDecode(md, cfg)
}

// LoadConfig reads and decodes a TOML file. Relative video paths are
// resolved against the file's directory unless base_dir is set.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%w: read %s: %v", ErrConfiguration, path, err)
	}
	if cfg.Video.BaseDir == "" {
		cfg.Video.BaseDir = filepath.Dir(path)
	}
	if err := finishDecode(md, cfg); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func finishDecode(md toml.MetaData, cfg Config) error {
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return fmt.Errorf("%w: unknown keys %s", ErrConfiguration, strings.Join(keys, ", "))
	}
	return cfg.Validate()
}

// Encode writes the configuration as TOML.
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Validate checks value ranges. Every problem is reported, joined.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrConfiguration}, args...)...))
	}

	if a := c.Host.TargetAspect; a < 0 || math.IsNaN(a) || math.IsInf(a, 0) {
		bad("host.target_aspect %g must be a positive number or 0", a)
	}
	if c.WebCam.Width < 0 || c.WebCam.Height < 0 {
		bad("webcam size %dx%d is negative", c.WebCam.Width, c.WebCam.Height)
	}
	if c.WebCam.FrameRate < 0 {
		bad("webcam.frame_rate %d is negative", c.WebCam.FrameRate)
	}
	if c.Video.StartIndex < 0 {
		bad("video.start_index %d is negative", c.Video.StartIndex)
	}
	if c.Source == SourceVideo && len(c.Video.Paths) == 0 {
		bad("video source needs at least one path")
	}
	if r := c.AR.DepthRange; r < 0 || math.IsNaN(r) || math.IsInf(r, 0) {
		bad("ar.depth_range %g must be a positive number or 0", r)
	}
	return errors.Join(errs...)
}

// Platforms holds the platform implementations a source may need.
type Platforms struct {
	Camera    CameraPlatform
	Video     VideoPlatform
	AR        ARPlatform
	Occlusion OcclusionPlatform
}

// NewSource creates the source selected by c.Source.
func (c Config) NewSource(env *Env, p Platforms) (*Source, error) {
	switch c.Source {
	case SourceWebCam:
		return NewWebCamSource(env, p.Camera, c.WebCam), nil
	case SourceVideo:
		return NewVideoSource(env, p.Video, c.Video), nil
	case SourceARCamera:
		return NewARCameraSource(env, p.AR), nil
	case SourceARDepth:
		return NewARDepthSource(env, p.AR, p.Occlusion, c.AR), nil
	}
	return nil, fmt.Errorf("%w: unknown source %v", ErrConfiguration, c.Source)
}

// NewHost creates a host for source with the configured target aspect.
func (c Config) NewHost(env *Env, source TextureSource, opts ...HostOption) *Host {
	opts = append([]HostOption{WithTargetAspect(c.Host.TargetAspect)}, opts...)
	return NewHost(env, source, opts...)
}
