// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package native

import (
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
	types "github.com/gogpu/gputypes"
)

// kernelLayout selects the bind group layout a kernel is compiled against.
type kernelLayout int

const (
	// kernelLayoutTwoTextures is src texture at 0, dst texture at 1.
	kernelLayoutTwoTextures kernelLayout = iota

	// kernelLayoutTexToBuffer is src texture at 0, dst storage buffer at 1.
	kernelLayoutTexToBuffer
)

// program is a compiled compute kernel with its pipeline and layouts.
type program struct {
	dev        *Device
	label      string
	module     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline
}

// compileSPIRV compiles WGSL to SPIR-V words.
// SPIR-V is little-endian 32-bit words.
func compileSPIRV(wgslSource string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("native: compile shader: %w", err)
	}
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}

// compileCompute builds the full pipeline for one WGSL compute kernel.
// On failure everything created so far is destroyed in reverse order.
func (d *Device) compileCompute(label, wgslSource string, layout kernelLayout) (*program, error) {
	words, err := compileSPIRV(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("native: program %q: %w", label, err)
	}

	module, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: words},
	})
	if err != nil {
		return nil, fmt.Errorf("native: shader module %q: %w", label, err)
	}

	bindLayout, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   label,
		Entries: layoutEntries(layout),
	})
	if err != nil {
		d.device.DestroyShaderModule(module)
		return nil, fmt.Errorf("native: bind group layout %q: %w", label, err)
	}

	pipeLayout, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            label,
		BindGroupLayouts: []hal.BindGroupLayout{bindLayout},
	})
	if err != nil {
		d.device.DestroyBindGroupLayout(bindLayout)
		d.device.DestroyShaderModule(module)
		return nil, fmt.Errorf("native: pipeline layout %q: %w", label, err)
	}

	pipeline, err := d.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  label,
		Layout: pipeLayout,
		Compute: hal.ComputeState{
			Module:     module,
			EntryPoint: "cs_main",
		},
	})
	if err != nil {
		d.device.DestroyPipelineLayout(pipeLayout)
		d.device.DestroyBindGroupLayout(bindLayout)
		d.device.DestroyShaderModule(module)
		return nil, fmt.Errorf("native: compute pipeline %q: %w", label, err)
	}

	return &program{
		dev:        d,
		label:      label,
		module:     module,
		bindLayout: bindLayout,
		pipeLayout: pipeLayout,
		pipeline:   pipeline,
	}, nil
}

// layoutEntries returns the bind group layout entries for a kernel layout.
func layoutEntries(layout kernelLayout) []types.BindGroupLayoutEntry {
	src := types.BindGroupLayoutEntry{
		Binding:    0,
		Visibility: types.ShaderStageCompute,
		Storage: &types.StorageTextureBindingLayout{
			Access:        types.StorageTextureAccessReadWrite,
			Format:        types.TextureFormatRGBA8Unorm,
			ViewDimension: types.TextureViewDimension2D,
		},
	}
	switch layout {
	case kernelLayoutTexToBuffer:
		return []types.BindGroupLayoutEntry{
			src,
			{
				Binding:    1,
				Visibility: types.ShaderStageCompute,
				Buffer: &types.BufferBindingLayout{
					Type: types.BufferBindingTypeStorage,
				},
			},
		}
	default:
		return []types.BindGroupLayoutEntry{
			src,
			{
				Binding:    1,
				Visibility: types.ShaderStageCompute,
				Storage: &types.StorageTextureBindingLayout{
					Access:        types.StorageTextureAccessReadWrite,
					Format:        types.TextureFormatRGBA8Unorm,
					ViewDimension: types.TextureViewDimension2D,
				},
			},
		}
	}
}

// Label returns the program's debug label.
func (p *program) Label() string { return p.label }

// Destroy cleans up the pipeline and its layouts in reverse order.
func (p *program) Destroy() {
	if p.pipeline != nil {
		p.dev.device.DestroyComputePipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.pipeLayout != nil {
		p.dev.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.bindLayout != nil {
		p.dev.device.DestroyBindGroupLayout(p.bindLayout)
		p.bindLayout = nil
	}
	if p.module != nil {
		p.dev.device.DestroyShaderModule(p.module)
		p.module = nil
	}
}
