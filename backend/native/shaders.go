// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package native

// blitComputeWGSL copies the source into the target, nearest-sampling
// when the extents differ.
const blitComputeWGSL = `
@group(0) @binding(0) var src: texture_storage_2d<rgba8unorm, read_write>;
@group(0) @binding(1) var dst: texture_storage_2d<rgba8unorm, read_write>;

@compute @workgroup_size(8, 8)
fn cs_main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let dsize = textureDimensions(dst);
    if (gid.x >= dsize.x || gid.y >= dsize.y) {
        return;
    }
    let ssize = textureDimensions(src);
    let sx = gid.x * ssize.x / dsize.x;
    let sy = gid.y * ssize.y / dsize.y;
    let c = textureLoad(src, vec2<i32>(i32(sx), i32(sy)));
    textureStore(dst, vec2<i32>(gid.xy), c);
}
`

// packComputeWGSL packs the source texture row-major into a storage
// buffer of one u32 per pixel, the layout transfer buffers read back.
const packComputeWGSL = `
@group(0) @binding(0) var src: texture_storage_2d<rgba8unorm, read_write>;
@group(0) @binding(1) var<storage, read_write> dst: array<u32>;

@compute @workgroup_size(8, 8)
fn cs_main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let size = textureDimensions(src);
    if (gid.x >= size.x || gid.y >= size.y) {
        return;
    }
    let c = textureLoad(src, vec2<i32>(gid.xy));
    let r = u32(clamp(c.r, 0.0, 1.0) * 255.0 + 0.5);
    let g = u32(clamp(c.g, 0.0, 1.0) * 255.0 + 0.5);
    let b = u32(clamp(c.b, 0.0, 1.0) * 255.0 + 0.5);
    let a = u32(clamp(c.a, 0.0, 1.0) * 255.0 + 0.5);
    dst[gid.y * size.x + gid.x] = r | (g << 8u) | (b << 16u) | (a << 24u);
}
`
