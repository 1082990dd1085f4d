// Package tilegrid renders a regular grid of identical tiles with a single
// instanced draw call.
//
// # Overview
//
// Instead of issuing one draw per tile, tilegrid uploads one quad (four
// vertices, six indices) and a buffer of per-tile offsets, then draws the quad
// once per offset in a single call:
//
//	Quad + BuildGrid -> Device.Assemble -> Bundle -> Renderer.RenderFrame (per tick)
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/tilegrid"
//	    "github.com/gogpu/tilegrid/gpu"
//	)
//
//	cfg, _ := tilegrid.NewConfig(tilegrid.WithTileSize(16), tilegrid.WithViewport(1024, 768))
//
//	dev, _ := gpu.OpenNoop() // or gpu.Open() for Vulkan
//	defer dev.Close()
//	target, _ := dev.NewOffscreenTarget(1024, 768, tilegrid.FormatRGBA8Unorm)
//	defer target.Destroy()
//
//	r, err := tilegrid.NewRenderer(dev, target, tilegrid.NewTileApp(gpu.DefaultShaders()), cfg)
//	if err != nil {
//	    log.Fatal(err) // errors.Is(err, tilegrid.ErrShaderCompilation), ...
//	}
//	defer r.Close()
//
//	for running {
//	    pollEvents()
//	    if err := r.RenderFrame(); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
// # Grid
//
// BuildGrid covers the viewport with whole tiles only. Columns and rows are
// truncated, so a 1024x768 viewport with 16px tiles gets 64x48 = 3072
// instances and an 800x520 viewport gets 50x32 = 1600. Remainder pixels are
// left showing the clear color.
//
// # Errors
//
// Setup and frame failures are reported as *Error, which carries the failing
// Stage and matches one of ErrShaderCompilation, ErrPipelineAssembly or
// ErrFrameSubmission with errors.Is. None of them are retried.
//
// # Logging
//
// tilegrid is silent by default. Use SetLogger to route diagnostics to a
// log/slog logger.
package tilegrid
