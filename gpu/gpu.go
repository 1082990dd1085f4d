//go:build !nogpu

// Package gpu provides the wgpu/hal backend for tilegrid.
//
// A Device implements tilegrid.Device: it compiles WGSL shaders with naga,
// uploads the quad, instance and projection buffers, and records each frame
// as one render pass with a single instanced draw.
//
// Open a device with Open (Vulkan) or OpenNoop (no GPU, for headless runs and
// tests), or share the device of a host framework with FromProvider.
//
// Usage:
//
//	dev, err := gpu.Open()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dev.Close()
//	target, err := dev.NewOffscreenTarget(1024, 768, tilegrid.FormatRGBA8Unorm)
package gpu

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/tilegrid"
	gpuimpl "github.com/gogpu/tilegrid/internal/gpu"
	"github.com/gogpu/wgpu/hal"
)

// Device is a tilegrid.Device backed by a wgpu/hal device and queue.
type Device = gpuimpl.Device

// Bundle is the assembled tile pipeline returned by Device.Assemble.
type Bundle = gpuimpl.Bundle

// OffscreenTarget is a color texture whose frames are read back on Present.
type OffscreenTarget = gpuimpl.OffscreenTarget

// SurfaceTarget renders into a texture view owned by the host.
type SurfaceTarget = gpuimpl.SurfaceTarget

// ErrNoAdapter is returned when the backend exposes no GPU adapter.
var ErrNoAdapter = gpuimpl.ErrNoAdapter

// Open opens a Vulkan device.
func Open() (*Device, error) {
	return gpuimpl.OpenVulkan()
}

// OpenNoop opens a device on the noop backend. Every GPU call succeeds and
// nothing is drawn.
func OpenNoop() (*Device, error) {
	return gpuimpl.OpenNoop()
}

// NewDevice wraps a HAL device and queue owned by the caller. Close leaves
// them alive.
func NewDevice(device hal.Device, queue hal.Queue) *Device {
	return gpuimpl.NewDevice(device, queue)
}

// FromProvider shares the GPU device of an external provider such as gogpu.
// The provider must also expose its HAL device and queue.
func FromProvider(provider gpucontext.DeviceProvider) (*Device, error) {
	return gpuimpl.FromProvider(provider)
}

// DefaultShaders returns the embedded WGSL tile shader pair.
func DefaultShaders() tilegrid.ShaderPair {
	return gpuimpl.DefaultShaders()
}

// NewSurfaceTarget wraps a host surface view. present is called after each
// submitted frame and may be nil.
func NewSurfaceTarget(view hal.TextureView, width, height int, format tilegrid.PixelFormat, present func() error) *SurfaceTarget {
	return gpuimpl.NewSurfaceTarget(view, width, height, format, present)
}
