// Command texsource runs a texture source from a configuration file and
// writes the published frames as PNG files.
//
// Usage:
//
//	texsource -config camera.toml -ticks 300 -out frames
//	texsource -image photo.jpg -rotate 90 -scale 1,1 -size 512x512 -out rotated.png
//	texsource -print-config
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gogpu/texsource"
	"github.com/gogpu/texsource/backend"
	_ "github.com/gogpu/texsource/gpu" // enable the GPU device
	"github.com/gogpu/texsource/platform/gstvideo"
	"github.com/gogpu/texsource/platform/mediacam"
)

func main() {
	var (
		configPath  = flag.String("config", "", "TOML configuration file")
		printConfig = flag.Bool("print-config", false, "print the default configuration and exit")
		backendName = flag.String("backend", "", "compute backend (wgpu, software); empty picks the best available")
		ticks       = flag.Int("ticks", 120, "number of ticks to run")
		rate        = flag.Int("rate", 60, "ticks per second")
		every       = flag.Int("every", 30, "save every n-th published frame (0 saves none)")
		out         = flag.String("out", "frames", "output directory, or output file with -image")
		verbose     = flag.Bool("v", false, "log debug messages")

		imagePath = flag.String("image", "", "transform a still image instead of running a source")
		offset    = flag.String("offset", "0,0", "image mode: normalized offset x,y")
		rotate    = flag.Float64("rotate", 0, "image mode: rotation in degrees")
		scale     = flag.String("scale", "1,1", "image mode: scale x,y")
		size      = flag.String("size", "", "image mode: output size WxH (default: input size)")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	texsource.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if *printConfig {
		if err := texsource.DefaultConfig().Encode(os.Stdout); err != nil {
			log.Fatalf("Failed to encode configuration: %v", err)
		}
		return
	}

	dev, err := openDevice(*backendName)
	if err != nil {
		log.Fatalf("Failed to open device: %v", err)
	}
	defer dev.Close()
	env := texsource.NewEnv(dev)
	defer env.Close()

	if *imagePath != "" {
		opts, err := parseImageOptions(*offset, *scale, *size, *rotate)
		if err != nil {
			log.Fatalf("Invalid image options: %v", err)
		}
		if err := transformImage(env, *imagePath, *out, opts); err != nil {
			log.Fatalf("Failed to transform image: %v", err)
		}
		log.Printf("Image saved to %s\n", *out)
		return
	}

	cfg := texsource.DefaultConfig()
	if *configPath != "" {
		if cfg, err = texsource.LoadConfig(*configPath); err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	saved, err := run(env, cfg, runOptions{ticks: *ticks, rate: *rate, every: *every, out: *out})
	if err != nil {
		log.Fatalf("Run failed: %v", err)
	}
	log.Printf("Saved %d frames to %s\n", saved, *out)
}

func openDevice(name string) (texsource.Device, error) {
	if name == "" {
		return backend.Default()
	}
	return backend.Get(name)
}

type runOptions struct {
	ticks, rate, every int
	out                string
}

// run drives one host for the requested number of ticks.
func run(env *texsource.Env, cfg texsource.Config, opts runOptions) (int, error) {
	if err := os.MkdirAll(opts.out, 0o755); err != nil {
		return 0, err
	}
	src, err := cfg.NewSource(env, texsource.Platforms{
		Camera: mediacam.New(),
		Video:  gstvideo.New(),
	})
	if err != nil {
		return 0, err
	}

	var published, saved int
	var saveErr error
	host := cfg.NewHost(env, src,
		texsource.WithTextureHandler(func(tex texsource.ImagePlane) {
			published++
			if opts.every <= 0 || (published-1)%opts.every != 0 || saveErr != nil {
				return
			}
			name := filepath.Join(opts.out, fmt.Sprintf("frame_%05d.png", published))
			if saveErr = savePlane(env, tex, name); saveErr == nil {
				saved++
			}
		}),
		texsource.WithAspectHandler(func(aspect float64) {
			texsource.Logger().Info("texsource: aspect changed", "aspect", aspect)
		}),
	)
	if err := host.Enable(); err != nil {
		return 0, err
	}
	defer host.Close()

	interval := time.Second / time.Duration(max(opts.rate, 1))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range opts.ticks {
		<-ticker.C
		env.Clock.Advance()
		if err := host.Update(); err != nil {
			return saved, err
		}
		if saveErr != nil {
			return saved, saveErr
		}
	}
	return saved, nil
}
