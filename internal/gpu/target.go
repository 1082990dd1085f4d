// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"image"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/tilegrid"
	"github.com/gogpu/wgpu/hal"
)

// copyPitchAlignment is the BytesPerRow alignment of texture-to-buffer copies.
const copyPitchAlignment = 256

// renderTarget is a tilegrid.Target that can be bound as a color attachment.
type renderTarget interface {
	tilegrid.Target
	View() hal.TextureView
}

// OffscreenTarget is a single-sample color texture. Presenting it copies the
// rendered frame back to host memory, available through Image.
type OffscreenTarget struct {
	device    *Device
	format    tilegrid.PixelFormat
	halFormat gputypes.TextureFormat

	tex    hal.Texture
	view   hal.TextureView
	width  uint32
	height uint32

	frame    *image.RGBA
	presents uint64
}

var _ renderTarget = (*OffscreenTarget)(nil)

// NewOffscreenTarget creates a width x height color target of the given
// format (tilegrid.FormatRGBA8Unorm is the reference format).
func (d *Device) NewOffscreenTarget(width, height int, format tilegrid.PixelFormat) (*OffscreenTarget, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", tilegrid.ErrInvalidViewport, width, height)
	}
	halFormat, err := textureFormat(format)
	if err != nil {
		return nil, err
	}
	t := &OffscreenTarget{
		device:    d,
		format:    format,
		halFormat: halFormat,
		width:     uint32(width),  //nolint:gosec // checked positive
		height:    uint32(height), //nolint:gosec // checked positive
	}

	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "offscreen_color",
		Size:          hal.Extent3D{Width: t.width, Height: t.height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        halFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("create offscreen texture: %w", err)
	}
	t.tex = tex

	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: "offscreen_color_view",
	})
	if err != nil {
		t.Destroy()
		return nil, fmt.Errorf("create offscreen view: %w", err)
	}
	t.view = view
	return t, nil
}

// Size implements tilegrid.Target.
func (t *OffscreenTarget) Size() (int, int) { return int(t.width), int(t.height) }

// Format implements tilegrid.Target.
func (t *OffscreenTarget) Format() tilegrid.PixelFormat { return t.format }

// TextureFormat returns the HAL format of the color texture.
func (t *OffscreenTarget) TextureFormat() gputypes.TextureFormat { return t.halFormat }

// View returns the color attachment view.
func (t *OffscreenTarget) View() hal.TextureView { return t.view }

// Image returns the most recently presented frame, or nil before the first
// Present. The image is replaced, not mutated, by later presents.
func (t *OffscreenTarget) Image() *image.RGBA { return t.frame }

// Presents returns the number of successful presents.
func (t *OffscreenTarget) Presents() uint64 { return t.presents }

// Present copies the color texture into a staging buffer, waits for the GPU
// and converts the rows into an RGBA image.
func (t *OffscreenTarget) Present() error {
	if t.tex == nil {
		return errors.New("offscreen target destroyed")
	}
	d := t.device

	bytesPerRow := t.width * 4
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(t.height)

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "offscreen_readback_encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("offscreen_readback"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	stagingBuf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "offscreen_staging",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		encoder.DiscardEncoding()
		return fmt.Errorf("create staging buffer: %w", err)
	}
	defer d.device.DestroyBuffer(stagingBuf)

	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(t.tex, stagingBuf, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: t.height},
		TextureBase:  hal.ImageCopyTexture{Texture: t.tex, MipLevel: 0},
		Size:         hal.Extent3D{Width: t.width, Height: t.height, DepthOrArrayLayers: 1},
	}})
	// Back to RenderAttachment for the next frame's pass.
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	if err := d.submitAndWait(cmdBuf); err != nil {
		return err
	}

	readback, err := d.readBuffer(stagingBuf, stagingSize)
	if err != nil {
		return fmt.Errorf("readback: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, int(t.width), int(t.height)))
	for row := 0; row < int(t.height); row++ {
		src := readback[row*int(alignedBytesPerRow) : row*int(alignedBytesPerRow)+int(bytesPerRow)]
		dst := img.Pix[row*img.Stride : row*img.Stride+int(bytesPerRow)]
		copy(dst, src)
		if t.format == tilegrid.FormatBGRA8Unorm {
			swapRedBlue(dst)
		}
	}
	t.frame = img
	t.presents++
	return nil
}

// readBuffer maps a host-visible buffer and copies its first size bytes.
func (d *Device) readBuffer(buf hal.Buffer, size uint64) ([]byte, error) {
	mapping, err := d.device.MapBuffer(buf, 0, size)
	if err != nil {
		return nil, fmt.Errorf("map: %w", err)
	}
	out := make([]byte, size)
	copy(out, unsafe.Slice((*byte)(mapping.Ptr), size))
	if err := d.device.UnmapBuffer(buf); err != nil {
		return nil, fmt.Errorf("unmap: %w", err)
	}
	return out, nil
}

// swapRedBlue converts BGRA pixels to RGBA in place.
func swapRedBlue(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
}

// Destroy releases the texture and view. Safe to call multiple times.
func (t *OffscreenTarget) Destroy() {
	dev := t.device.device
	if dev == nil {
		t.view, t.tex = nil, nil
		return
	}
	if t.view != nil {
		dev.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		dev.DestroyTexture(t.tex)
		t.tex = nil
	}
}

// SurfaceTarget renders into a texture view owned by the host, typically the
// current swapchain image. The host updates the view before each frame with
// SetView and performs the actual swap in the present callback.
type SurfaceTarget struct {
	view    hal.TextureView
	width   int
	height  int
	format  tilegrid.PixelFormat
	present func() error
}

var _ renderTarget = (*SurfaceTarget)(nil)

// NewSurfaceTarget wraps a host surface. present may be nil when the host
// presents on its own after the frame returns.
func NewSurfaceTarget(view hal.TextureView, width, height int, format tilegrid.PixelFormat, present func() error) *SurfaceTarget {
	return &SurfaceTarget{
		view:    view,
		width:   width,
		height:  height,
		format:  format,
		present: present,
	}
}

// SetView replaces the texture view rendered into by the next frame.
func (s *SurfaceTarget) SetView(view hal.TextureView) { s.view = view }

// Size implements tilegrid.Target.
func (s *SurfaceTarget) Size() (int, int) { return s.width, s.height }

// Format implements tilegrid.Target.
func (s *SurfaceTarget) Format() tilegrid.PixelFormat { return s.format }

// View returns the current surface view.
func (s *SurfaceTarget) View() hal.TextureView { return s.view }

// Present calls the host's present callback.
func (s *SurfaceTarget) Present() error {
	if s.present == nil {
		return nil
	}
	return s.present()
}
