// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/tilegrid"
	"github.com/gogpu/wgpu/hal"
)

// frameEncoder records one frame: a single render pass whose color
// attachment is cleared on load, the bundle draw, then submission.
type frameEncoder struct {
	device  *Device
	encoder hal.CommandEncoder
	pass    hal.RenderPassEncoder
	cmdBuf  hal.CommandBuffer
	draws   int
}

var _ tilegrid.FrameEncoder = (*frameEncoder)(nil)

// BeginFrame starts a command encoder and opens the frame's render pass on
// target's view with LoadOp clear, so the clear always precedes any draw.
func (d *Device) BeginFrame(target tilegrid.Target, clear tilegrid.RGBA) (tilegrid.FrameEncoder, error) {
	if d.device == nil {
		return nil, errors.New("device is closed")
	}
	rt, ok := target.(renderTarget)
	if !ok {
		return nil, fmt.Errorf("target %T has no texture view", target)
	}
	view := rt.View()
	if view == nil {
		return nil, errors.New("target has no texture view")
	}

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "tile_frame_encoder",
	})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("tile_frame"); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "tile_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: clear.R, G: clear.G, B: clear.B, A: clear.A},
		}},
	})

	return &frameEncoder{
		device:  d,
		encoder: encoder,
		pass:    rp,
	}, nil
}

// DrawInstanced records the bundle's instanced draw into the open pass.
// Bundles from another backend and draws after Submit are ignored.
func (f *frameEncoder) DrawInstanced(b tilegrid.Bundle) {
	bundle, ok := b.(*Bundle)
	if !ok || bundle == nil || bundle.pipeline == nil {
		slogger().Warn("draw ignored: not an assembled gpu bundle", "bundle", fmt.Sprintf("%T", b))
		return
	}
	if f.pass == nil {
		slogger().Warn("draw ignored: frame already submitted")
		return
	}
	bundle.record(f.pass)
	f.draws++
}

// Submit ends the pass and the encoding, submits the command buffer and waits
// for the GPU so the target can be presented.
func (f *frameEncoder) Submit() error {
	if f.pass == nil {
		return errors.New("frame already submitted")
	}
	f.pass.End()
	f.pass = nil

	cmdBuf, err := f.encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	f.cmdBuf = cmdBuf

	if err := f.device.submitAndWait(cmdBuf); err != nil {
		return err
	}
	slogger().Debug("frame submitted", "draws", f.draws)
	return nil
}

// Release frees the command buffer, or discards the encoding if the frame
// never reached Submit.
func (f *frameEncoder) Release() {
	if f.pass != nil {
		f.pass.End()
		f.pass = nil
		f.encoder.DiscardEncoding()
	}
	if f.cmdBuf != nil {
		f.device.device.FreeCommandBuffer(f.cmdBuf)
		f.cmdBuf = nil
	}
}

// submitAndWait submits one command buffer and blocks until the queue
// reports it complete.
func (d *Device) submitAndWait(cmdBuf hal.CommandBuffer) error {
	index, err := d.queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	if d.queue.PollCompleted() >= index {
		return nil
	}
	if err := d.device.WaitIdle(); err != nil {
		return fmt.Errorf("wait for submission %d: %w", index, err)
	}
	return nil
}
