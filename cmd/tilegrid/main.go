//go:build !nogpu

// Command tilegrid renders an instanced tile grid headlessly.
//
// It opens a GPU device, renders frames into an offscreen target until the
// frame budget is spent or the process is interrupted, and writes the last
// frame to an image file.
//
// Usage:
//
//	tilegrid -backend vulkan -frames 600 -output grid.png
//	tilegrid -config tilegrid.yaml -backend noop -v
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/tilegrid"
	"github.com/gogpu/tilegrid/gpu"
)

type options struct {
	configPath string
	backend    string
	frames     int
	tile       int
	width      int
	height     int
	cull       string
	output     string
	verbose    bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	flag.StringVar(&opts.backend, "backend", "vulkan", "GPU backend: vulkan or noop")
	flag.IntVar(&opts.frames, "frames", 300, "frames to render, 0 renders until interrupted")
	flag.IntVar(&opts.tile, "tile", tilegrid.DefaultTileSize, "tile size in pixels")
	flag.IntVar(&opts.width, "width", tilegrid.DefaultViewportWidth, "viewport width")
	flag.IntVar(&opts.height, "height", tilegrid.DefaultViewportHeight, "viewport height")
	flag.StringVar(&opts.cull, "cull", "back", "face culling: back, front or none")
	flag.StringVar(&opts.output, "output", "", "write the last frame to this file (.png, .bmp, .tif)")
	flag.BoolVar(&opts.verbose, "v", false, "verbose logging")
	flag.Parse()

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	tilegrid.SetLogger(logger)

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, opts, set); err != nil {
		logger.Error("tilegrid failed", "err", err)
		stop()
		os.Exit(1)
	}
}

// loadConfig merges the config file (if any) with explicitly set flags.
// Flags win over the file.
func loadConfig(opts options, set map[string]bool) (tilegrid.Config, error) {
	cfg := tilegrid.DefaultConfig()
	if opts.configPath != "" {
		var err error
		cfg, err = tilegrid.LoadConfig(opts.configPath)
		if err != nil {
			return tilegrid.Config{}, err
		}
	}
	if set["tile"] || opts.configPath == "" {
		cfg.TileSize = opts.tile
	}
	if set["width"] || opts.configPath == "" {
		cfg.ViewportWidth = opts.width
	}
	if set["height"] || opts.configPath == "" {
		cfg.ViewportHeight = opts.height
	}
	if set["cull"] || opts.configPath == "" {
		m, err := tilegrid.ParseCullMode(opts.cull)
		if err != nil {
			return tilegrid.Config{}, err
		}
		cfg.CullMode = m
	}
	if err := cfg.Validate(); err != nil {
		return tilegrid.Config{}, err
	}
	return cfg, nil
}

func openDevice(backend string) (*gpu.Device, error) {
	switch backend {
	case "vulkan":
		return gpu.Open()
	case "noop":
		return gpu.OpenNoop()
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}

func run(ctx context.Context, logger *slog.Logger, opts options, set map[string]bool) error {
	cfg, err := loadConfig(opts, set)
	if err != nil {
		return err
	}
	if opts.output != "" {
		if _, err := encoderFor(opts.output); err != nil {
			return err
		}
	}

	dev, err := openDevice(opts.backend)
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	defer dev.Close()
	logger.Info("device ready", "backend", opts.backend, "adapter", dev.Name())

	target, err := dev.NewOffscreenTarget(cfg.ViewportWidth, cfg.ViewportHeight, tilegrid.FormatRGBA8Unorm)
	if err != nil {
		return fmt.Errorf("create target: %w", err)
	}
	defer target.Destroy()

	r, err := tilegrid.NewRenderer(dev, target, tilegrid.NewTileApp(gpu.DefaultShaders()), cfg)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	if b, ok := r.Bundle().(*gpu.Bundle); ok {
		logger.Info("pipeline assembled",
			"label", b.Label(),
			"instances", b.InstanceCount(),
			"triangles", b.TriangleCount(),
			"cull", b.CullMode().String())
	}

	stats, err := loop(ctx, r, opts.frames, logger)
	p := message.NewPrinter(language.English)
	logger.Info(p.Sprintf("rendered %d frames in %v (%.1f fps)", stats.frames, stats.elapsed.Round(time.Millisecond), stats.fps()))
	if err != nil {
		return err
	}

	if opts.output != "" {
		if err := writeImage(opts.output, target.Image()); err != nil {
			return err
		}
		logger.Info("frame written", "path", opts.output)
	}
	return nil
}

type loopStats struct {
	frames  uint64
	elapsed time.Duration
}

func (s loopStats) fps() float64 {
	if s.elapsed <= 0 {
		return 0
	}
	return float64(s.frames) / s.elapsed.Seconds()
}

// loop renders one frame per iteration until budget frames are presented
// (budget 0 means unbounded) or ctx is canceled. Frame rate is logged once
// per second.
func loop(ctx context.Context, r *tilegrid.Renderer, budget int, logger *slog.Logger) (loopStats, error) {
	start := time.Now()
	windowStart := start
	var windowFrames uint64

	for budget <= 0 || r.Frames() < uint64(budget) {
		select {
		case <-ctx.Done():
			logger.Info("interrupted")
			return loopStats{frames: r.Frames(), elapsed: time.Since(start)}, nil
		default:
		}

		if err := r.RenderFrame(); err != nil {
			stage, _ := tilegrid.StageOf(err)
			logger.Error("frame failed", "frame", r.Frames(), "stage", string(stage))
			return loopStats{frames: r.Frames(), elapsed: time.Since(start)}, err
		}
		windowFrames++

		if now := time.Now(); now.Sub(windowStart) >= time.Second {
			logger.Info("fps", "value", float64(windowFrames)/now.Sub(windowStart).Seconds())
			windowStart = now
			windowFrames = 0
		}
	}
	return loopStats{frames: r.Frames(), elapsed: time.Since(start)}, nil
}

var errNoFrame = errors.New("no frame was presented")
