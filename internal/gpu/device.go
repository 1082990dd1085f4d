// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/tilegrid"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// ErrNoAdapter is returned when the backend exposes no GPU adapter.
var ErrNoAdapter = errors.New("gpu: no GPU adapters found")

// Device implements tilegrid.Device on top of a wgpu/hal device and queue.
//
// A Device either owns its HAL instance and device (OpenVulkan, OpenNoop) or
// borrows them from the host (NewDevice, FromProvider). Close only destroys
// what the Device owns.
type Device struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	name     string
	external bool
}

var _ tilegrid.Device = (*Device)(nil)

// OpenVulkan opens the first discrete or integrated GPU exposed by the Vulkan
// backend, falling back to the first adapter.
func OpenVulkan() (*Device, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	return openAdapter(instance)
}

// OpenNoop opens the noop backend: every call succeeds and nothing is drawn.
// Useful for headless runs and tests.
func OpenNoop() (*Device, error) {
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		return nil, fmt.Errorf("create noop instance: %w", err)
	}
	return openAdapter(instance)
}

func openAdapter(instance hal.Instance) (*Device, error) {
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}
	slogger().Info("gpu device opened", "adapter", selected.Info.Name)
	return &Device{
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
		name:     selected.Info.Name,
	}, nil
}

// NewDevice wraps a HAL device and queue owned by the caller.
func NewDevice(device hal.Device, queue hal.Queue) *Device {
	return &Device{
		device:   device,
		queue:    queue,
		name:     "external",
		external: true,
	}
}

// FromProvider borrows the device of a host framework such as gogpu. The
// provider must also expose HalDevice() any and HalQueue() any returning
// hal.Device and hal.Queue.
func FromProvider(provider gpucontext.DeviceProvider) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("gpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("gpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("gpu: provider HalQueue is not hal.Queue")
	}
	slogger().Info("gpu device shared from provider")
	return NewDevice(device, queue), nil
}

// Name returns the adapter name, or "external" for borrowed devices.
func (d *Device) Name() string { return d.name }

// HalDevice returns the underlying HAL device.
func (d *Device) HalDevice() hal.Device { return d.device }

// HalQueue returns the underlying HAL queue.
func (d *Device) HalQueue() hal.Queue { return d.queue }

// SetLogger implements tilegrid's logger propagation.
func (d *Device) SetLogger(l *slog.Logger) { setLogger(l) }

// Close destroys the device and instance if the Device owns them. Safe to
// call multiple times.
func (d *Device) Close() {
	if !d.external {
		if d.device != nil {
			d.device.Destroy()
		}
		if d.instance != nil {
			d.instance.Destroy()
		}
	}
	d.device = nil
	d.queue = nil
	d.instance = nil
}

// createAndUploadBuffer creates a GPU buffer of at least minSize bytes and
// uploads data to its start.
func (d *Device) createAndUploadBuffer(label string, data []byte, minSize int, usage gputypes.BufferUsage) (hal.Buffer, error) {
	size := len(data)
	if size < minSize {
		size = minSize
	}
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(size), //nolint:gosec // buffer sizes are non-negative
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	if len(data) > 0 {
		if err := d.queue.WriteBuffer(buf, 0, data); err != nil {
			d.device.DestroyBuffer(buf)
			return nil, fmt.Errorf("write %s: %w", label, err)
		}
	}
	slogger().Debug("buffer uploaded", "label", label, "bytes", len(data), "size", size)
	return buf, nil
}

// textureFormat maps a tilegrid pixel format to the HAL texture format.
func textureFormat(f tilegrid.PixelFormat) (gputypes.TextureFormat, error) {
	switch f {
	case tilegrid.FormatRGBA8Unorm:
		return gputypes.TextureFormatRGBA8Unorm, nil
	case tilegrid.FormatBGRA8Unorm:
		return gputypes.TextureFormatBGRA8Unorm, nil
	default:
		return gputypes.TextureFormatUndefined, fmt.Errorf("unsupported pixel format %v", f)
	}
}

// cullMode maps a tilegrid cull mode to the HAL cull mode.
func cullMode(m tilegrid.CullMode) (gputypes.CullMode, error) {
	switch m {
	case tilegrid.CullNone:
		return gputypes.CullModeNone, nil
	case tilegrid.CullFront:
		return gputypes.CullModeFront, nil
	case tilegrid.CullBack:
		return gputypes.CullModeBack, nil
	default:
		return gputypes.CullModeNone, fmt.Errorf("%w: %d", tilegrid.ErrInvalidCullMode, uint8(m))
	}
}
