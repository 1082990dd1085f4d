// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/tilegrid"
	"github.com/gogpu/wgpu/hal"
)

// Bundle is the assembled tile pipeline: shared quad geometry, the instance
// offset buffer, the projection uniform and the compiled render pipeline.
// It is immutable after Assemble and draws every tile in one DrawIndexed.
type Bundle struct {
	device hal.Device
	label  string

	shaders    *shaderModules
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.RenderPipeline

	vertBuf    hal.Buffer
	indexBuf   hal.Buffer
	instBuf    hal.Buffer
	uniformBuf hal.Buffer
	bindGroup  hal.BindGroup

	indexCount    uint32
	instanceCount uint32
	format        gputypes.TextureFormat
	cull          tilegrid.CullMode
}

var _ tilegrid.Bundle = (*Bundle)(nil)

// IndexCount returns the number of indices drawn per instance.
func (b *Bundle) IndexCount() uint32 { return b.indexCount }

// InstanceCount returns the number of tile instances drawn per call.
func (b *Bundle) InstanceCount() uint32 { return b.instanceCount }

// SubmittedIndices returns the indices processed by one draw:
// IndexCount * InstanceCount.
func (b *Bundle) SubmittedIndices() uint64 {
	return uint64(b.indexCount) * uint64(b.instanceCount)
}

// TriangleCount returns the triangles rasterized by one draw.
func (b *Bundle) TriangleCount() uint64 {
	return uint64(b.indexCount/3) * uint64(b.instanceCount)
}

// Format returns the color target format the pipeline was built for.
func (b *Bundle) Format() gputypes.TextureFormat { return b.format }

// CullMode returns the face culling mode of the pipeline.
func (b *Bundle) CullMode() tilegrid.CullMode { return b.cull }

// Label returns the debug label prefix of the bundle's GPU objects.
func (b *Bundle) Label() string { return b.label }

// Assemble uploads the geometry, instance and uniform data of desc and
// creates the render pipeline against its shader pair.
//
// Shader failures are reported as tilegrid.StageShaderCompile, buffer failures
// as tilegrid.StageBufferUpload and layout or pipeline failures as
// tilegrid.StagePipelineCreate. On any failure every object created so far is
// destroyed and no bundle is returned.
func (d *Device) Assemble(desc *tilegrid.PipelineDesc) (tilegrid.Bundle, error) {
	b, err := d.assemble(desc)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (d *Device) assemble(desc *tilegrid.PipelineDesc) (*Bundle, error) {
	if d.device == nil {
		return nil, tilegrid.NewError(tilegrid.StagePipelineCreate, errors.New("device is closed"))
	}
	if err := tilegrid.ValidateGeometry(desc.Vertices, desc.Indices); err != nil {
		return nil, tilegrid.NewError(tilegrid.StageBufferUpload, err)
	}
	if n := desc.Grid.Len(); uint64(n) > math.MaxUint32 {
		return nil, tilegrid.NewError(tilegrid.StageBufferUpload,
			fmt.Errorf("grid of %d instances exceeds draw limit", n))
	}
	format, err := textureFormat(desc.Format)
	if err != nil {
		return nil, tilegrid.NewError(tilegrid.StagePipelineCreate, err)
	}
	cull, err := cullMode(desc.CullMode)
	if err != nil {
		return nil, tilegrid.NewError(tilegrid.StagePipelineCreate, err)
	}

	label := desc.Label
	if label == "" {
		label = "tile_grid"
	}
	b := &Bundle{
		device:        d.device,
		label:         label,
		indexCount:    uint32(len(desc.Indices)), //nolint:gosec // index count is tiny
		instanceCount: uint32(desc.Grid.Len()),   //nolint:gosec // checked against MaxUint32 above
		format:        format,
		cull:          desc.CullMode,
	}

	shaders, err := compileShaderPair(d.device, label, desc.Shaders)
	if err != nil {
		return nil, err
	}
	b.shaders = shaders

	if err := d.uploadBuffers(b, desc); err != nil {
		b.Destroy()
		return nil, tilegrid.NewError(tilegrid.StageBufferUpload, err)
	}
	if err := d.createPipeline(b, cull); err != nil {
		b.Destroy()
		return nil, tilegrid.NewError(tilegrid.StagePipelineCreate, err)
	}

	slogger().Debug("tile bundle assembled",
		"label", label,
		"instances", b.instanceCount,
		"indices_per_draw", b.SubmittedIndices(),
		"format", desc.Format.String(),
		"cull", desc.CullMode.String())
	return b, nil
}

// uploadBuffers creates and fills the vertex, index, instance and uniform
// buffers. The instance buffer is never smaller than one stride so that an
// empty grid still binds a valid buffer.
func (d *Device) uploadBuffers(b *Bundle, desc *tilegrid.PipelineDesc) error {
	var err error
	b.vertBuf, err = d.createAndUploadBuffer(b.label+"_vertices", tilegrid.VertexBytes(desc.Vertices), 0,
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	b.indexBuf, err = d.createAndUploadBuffer(b.label+"_indices", tilegrid.IndexBytes(desc.Indices), 0,
		gputypes.BufferUsageIndex|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	b.instBuf, err = d.createAndUploadBuffer(b.label+"_instances", desc.Grid.Bytes(), tilegrid.InstanceStride,
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	b.uniformBuf, err = d.createAndUploadBuffer(b.label+"_uniform", desc.Transform.Bytes(), 0,
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	return err
}

// createPipeline creates the bind group layout, pipeline layout, bind group
// and render pipeline.
func (d *Device) createPipeline(b *Bundle, cull gputypes.CullMode) error {
	bindLayout, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: b.label + "_uniform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create uniform layout: %w", err)
	}
	b.bindLayout = bindLayout

	pipeLayout, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            b.label + "_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{b.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	b.pipeLayout = pipeLayout

	bindGroup, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  b.label + "_bind",
		Layout: b.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: b.uniformBuf.NativeHandle(), Offset: 0, Size: tilegrid.Matrix4Size,
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	b.bindGroup = bindGroup

	pipeline, err := d.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  b.label + "_pipeline",
		Layout: b.pipeLayout,
		Vertex: hal.VertexState{
			Module:     b.shaders.vertex,
			EntryPoint: b.shaders.vertexEntry,
			Buffers:    tileVertexLayouts(),
		},
		Fragment: &hal.FragmentState{
			Module:     b.shaders.fragment,
			EntryPoint: b.shaders.fragmentEntry,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    b.format,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  gputypes.PrimitiveTopologyTriangleList,
			FrontFace: gputypes.FrontFaceCCW,
			CullMode:  cull,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("create render pipeline: %w", err)
	}
	b.pipeline = pipeline
	return nil
}

// tileVertexLayouts declares the two vertex streams: the shared quad stepped
// per vertex and the grid offsets stepped per instance.
func tileVertexLayouts() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: tilegrid.VertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatSint32x2, Offset: 0, ShaderLocation: 0},  // pos
				{Format: gputypes.VertexFormatFloat32x4, Offset: 8, ShaderLocation: 1}, // color
			},
		},
		{
			ArrayStride: tilegrid.InstanceStride,
			StepMode:    gputypes.VertexStepModeInstance,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatSint32x2, Offset: 0, ShaderLocation: 2}, // translate
			},
		},
	}
}

// record binds the bundle and issues its single instanced draw.
func (b *Bundle) record(rp hal.RenderPassEncoder) {
	rp.SetPipeline(b.pipeline)
	rp.SetBindGroup(0, b.bindGroup, nil)
	rp.SetVertexBuffer(0, b.vertBuf, 0)
	rp.SetVertexBuffer(1, b.instBuf, 0)
	rp.SetIndexBuffer(b.indexBuf, gputypes.IndexFormatUint16, 0)
	rp.DrawIndexed(b.indexCount, b.instanceCount, 0, 0, 0)
}

// Destroy releases all GPU resources in reverse creation order. Safe to call
// multiple times.
func (b *Bundle) Destroy() {
	if b.device == nil {
		return
	}
	if b.pipeline != nil {
		b.device.DestroyRenderPipeline(b.pipeline)
		b.pipeline = nil
	}
	if b.bindGroup != nil {
		b.device.DestroyBindGroup(b.bindGroup)
		b.bindGroup = nil
	}
	if b.pipeLayout != nil {
		b.device.DestroyPipelineLayout(b.pipeLayout)
		b.pipeLayout = nil
	}
	if b.bindLayout != nil {
		b.device.DestroyBindGroupLayout(b.bindLayout)
		b.bindLayout = nil
	}
	for _, buf := range []*hal.Buffer{&b.uniformBuf, &b.instBuf, &b.indexBuf, &b.vertBuf} {
		if *buf != nil {
			b.device.DestroyBuffer(*buf)
			*buf = nil
		}
	}
	if b.shaders != nil {
		b.shaders.destroy(b.device)
		b.shaders = nil
	}
	b.device = nil
}
