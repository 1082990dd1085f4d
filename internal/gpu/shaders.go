// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/tilegrid"
	"github.com/gogpu/wgpu/hal"
)

//go:embed shaders/tile.wgsl
var tileShaderSource string

// Entry points of the embedded tile shader.
const (
	tileVertexEntry   = "vs_main"
	tileFragmentEntry = "fs_main"
)

// spirvMagic is the first word of every SPIR-V module.
const spirvMagic = 0x07230203

// DefaultShaders returns the embedded WGSL tile shader as a vertex/fragment
// pair sharing one source.
func DefaultShaders() tilegrid.ShaderPair {
	src := []byte(tileShaderSource)
	return tilegrid.ShaderPair{
		Vertex:   tilegrid.ShaderStage{Source: src, EntryPoint: tileVertexEntry},
		Fragment: tilegrid.ShaderStage{Source: src, EntryPoint: tileFragmentEntry},
	}
}

// compileWGSL compiles WGSL source to SPIR-V words with naga.
func compileWGSL(source []byte) ([]uint32, error) {
	if len(bytes.TrimSpace(source)) == 0 {
		return nil, errors.New("shader source is empty")
	}
	spirvBytes, err := naga.Compile(string(source))
	if err != nil {
		return nil, err
	}
	if len(spirvBytes) < 4 || len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("invalid SPIR-V output length %d", len(spirvBytes))
	}

	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	if words[0] != spirvMagic {
		return nil, fmt.Errorf("invalid SPIR-V magic 0x%08X", words[0])
	}
	return words, nil
}

// shaderModules holds the compiled modules of a shader pair. When both stages
// share one source, vertex and fragment point at the same module.
type shaderModules struct {
	vertex   hal.ShaderModule
	fragment hal.ShaderModule
	shared   bool

	vertexEntry   string
	fragmentEntry string
}

// compileShaderPair compiles both stages and creates their shader modules.
// Failures are reported as tilegrid.StageShaderCompile.
func compileShaderPair(device hal.Device, label string, pair tilegrid.ShaderPair) (*shaderModules, error) {
	if pair.Vertex.EntryPoint == "" || pair.Fragment.EntryPoint == "" {
		return nil, tilegrid.NewError(tilegrid.StageShaderCompile, errors.New("missing entry point"))
	}

	vertex, err := createModule(device, label+"_vs", pair.Vertex.Source)
	if err != nil {
		return nil, err
	}
	mods := &shaderModules{
		vertex:        vertex,
		fragment:      vertex,
		shared:        true,
		vertexEntry:   pair.Vertex.EntryPoint,
		fragmentEntry: pair.Fragment.EntryPoint,
	}

	if !bytes.Equal(pair.Vertex.Source, pair.Fragment.Source) {
		fragment, err := createModule(device, label+"_fs", pair.Fragment.Source)
		if err != nil {
			device.DestroyShaderModule(vertex)
			return nil, err
		}
		mods.fragment = fragment
		mods.shared = false
	}
	return mods, nil
}

func createModule(device hal.Device, label string, source []byte) (hal.ShaderModule, error) {
	words, err := compileWGSL(source)
	if err != nil {
		return nil, tilegrid.NewError(tilegrid.StageShaderCompile, fmt.Errorf("compile %s: %w", label, err))
	}
	module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: words},
	})
	if err != nil {
		return nil, tilegrid.NewError(tilegrid.StageShaderCompile, fmt.Errorf("create %s module: %w", label, err))
	}
	slogger().Debug("shader module created", "label", label, "spirv_words", len(words))
	return module, nil
}

func (m *shaderModules) destroy(device hal.Device) {
	if m.fragment != nil && !m.shared {
		device.DestroyShaderModule(m.fragment)
	}
	if m.vertex != nil {
		device.DestroyShaderModule(m.vertex)
	}
	m.vertex = nil
	m.fragment = nil
}
