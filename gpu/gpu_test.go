//go:build !nogpu

package gpu_test

import (
	"errors"
	"testing"

	"github.com/gogpu/tilegrid"
	"github.com/gogpu/tilegrid/gpu"
)

func TestNoopRenderer(t *testing.T) {
	dev, err := gpu.OpenNoop()
	if err != nil {
		t.Fatalf("OpenNoop() = %v", err)
	}
	defer dev.Close()

	target, err := dev.NewOffscreenTarget(800, 520, tilegrid.FormatRGBA8Unorm)
	if err != nil {
		t.Fatalf("NewOffscreenTarget() = %v", err)
	}
	defer target.Destroy()

	cfg, err := tilegrid.NewConfig(tilegrid.WithViewport(800, 520))
	if err != nil {
		t.Fatalf("NewConfig() = %v", err)
	}
	r, err := tilegrid.NewRenderer(dev, target, tilegrid.NewTileApp(gpu.DefaultShaders()), cfg)
	if err != nil {
		t.Fatalf("NewRenderer() = %v", err)
	}
	defer r.Close()

	b, ok := r.Bundle().(*gpu.Bundle)
	if !ok {
		t.Fatalf("Bundle() = %T, want *gpu.Bundle", r.Bundle())
	}
	if b.InstanceCount() != 1600 {
		t.Errorf("InstanceCount() = %d, want 1600", b.InstanceCount())
	}
	if err := r.RenderFrame(); err != nil {
		t.Fatalf("RenderFrame() = %v", err)
	}
	if target.Image() == nil {
		t.Error("expected presented image")
	}
}

func TestNoopRendererBadShader(t *testing.T) {
	dev, err := gpu.OpenNoop()
	if err != nil {
		t.Fatalf("OpenNoop() = %v", err)
	}
	defer dev.Close()

	target, err := dev.NewOffscreenTarget(64, 64, tilegrid.FormatRGBA8Unorm)
	if err != nil {
		t.Fatalf("NewOffscreenTarget() = %v", err)
	}
	defer target.Destroy()

	cfg, err := tilegrid.NewConfig(tilegrid.WithViewport(64, 64))
	if err != nil {
		t.Fatalf("NewConfig() = %v", err)
	}
	shaders := gpu.DefaultShaders()
	shaders.Vertex.Source = []byte("this is not wgsl")
	_, err = tilegrid.NewRenderer(dev, target, tilegrid.NewTileApp(shaders), cfg)
	if !errors.Is(err, tilegrid.ErrShaderCompilation) {
		t.Errorf("NewRenderer() = %v, want ErrShaderCompilation", err)
	}
}
