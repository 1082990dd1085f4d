//go:build !nogpu

// Package gpu implements the tilegrid Device on gogpu/wgpu's HAL.
//
// # Architecture
//
//	Device.Assemble   naga WGSL -> SPIR-V, buffers, bind group, render pipeline -> *Bundle
//	Device.BeginFrame command encoder + render pass (LoadOp clear)       -> frameEncoder
//	frameEncoder      DrawIndexed(6, instances) -> End -> Submit -> fence wait
//	Target.Present    OffscreenTarget: readback to *image.RGBA; SurfaceTarget: host callback
//
// The tile pipeline reads two vertex streams: the shared quad (sint32x2 position,
// float32x4 color, stepped per vertex) and the grid offsets (sint32x2, stepped
// per instance). A mat4x4 uniform at group 0, binding 0 holds the projection.
//
// Devices come from OpenVulkan, OpenNoop (headless, used by the tests), or a
// host framework via FromProvider/NewDevice.
package gpu
