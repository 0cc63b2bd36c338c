// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package filter

import (
	"fmt"

	"github.com/gogpu/glfx/gpu"
)

// invertVertexWGSL maps a two-triangle strip over the full target and
// passes through texture coordinates.
const invertVertexWGSL = `
struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
}

@vertex
fn vs_main(@builtin(vertex_index) index: u32) -> VertexOutput {
    var positions = array<vec2<f32>, 4>(
        vec2<f32>(-1.0, -1.0),
        vec2<f32>( 1.0, -1.0),
        vec2<f32>(-1.0,  1.0),
        vec2<f32>( 1.0,  1.0),
    );
    var out: VertexOutput;
    let p = positions[index];
    out.position = vec4<f32>(p, 0.0, 1.0);
    out.uv = vec2<f32>(p.x * 0.5 + 0.5, 0.5 - p.y * 0.5);
    return out;
}
`

// invertFragmentWGSL flips the color channels and preserves alpha.
const invertFragmentWGSL = `
@group(0) @binding(0) var src: texture_2d<f32>;
@group(0) @binding(1) var smp: sampler;

@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    let c = textureSample(src, smp, uv);
    return vec4<f32>(1.0 - c.rgb, c.a);
}
`

// invertComputeWGSL is the compute form of the same filter, for backends
// that execute programs as kernel dispatches.
const invertComputeWGSL = `
@group(0) @binding(0) var src: texture_storage_2d<rgba8unorm, read_write>;
@group(0) @binding(1) var dst: texture_storage_2d<rgba8unorm, read_write>;

@compute @workgroup_size(8, 8)
fn cs_main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let size = textureDimensions(dst);
    if (gid.x >= size.x || gid.y >= size.y) {
        return;
    }
    let c = textureLoad(src, vec2<i32>(gid.xy));
    textureStore(dst, vec2<i32>(gid.xy), vec4<f32>(1.0 - c.rgb, c.a));
}
`

// invert renders the input with inverted color channels.
type invert struct {
	env     *Env
	program gpu.Program
}

func (f *invert) Open(env *Env) error {
	p, err := env.Device.CompileProgram(gpu.ProgramDesc{
		Label:    "invert",
		Vertex:   invertVertexWGSL,
		Fragment: invertFragmentWGSL,
		Compute:  invertComputeWGSL,
	})
	if err != nil {
		return fmt.Errorf("filter: invert program: %w", err)
	}
	f.program = p
	f.env = env
	return nil
}

func (f *invert) Draw(target gpu.Framebuffer) error {
	src, err := f.env.Sampler.Texture()
	if err != nil {
		return err
	}
	return f.env.Device.DrawQuad(f.program, src, target)
}

func (f *invert) Close() {
	if f.program != nil {
		f.program.Destroy()
		f.program = nil
	}
}
