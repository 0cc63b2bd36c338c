// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package native implements the gpu device interfaces over gogpu/wgpu's
// HAL layer.
//
// Filter programs execute as compute dispatches: every program carries a
// WGSL compute kernel that reads the stage input from one storage texture
// and writes its output into another. Readback goes through storage
// buffers copied into map-read staging buffers, with a fence per transfer
// buffer as the synchronization point.
package native

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	types "github.com/gogpu/gputypes"

	"github.com/gogpu/glfx/gpu"
)

// Errors.
var (
	// ErrNilHALDevice is returned when constructing without a HAL device.
	ErrNilHALDevice = errors.New("native: HAL device is nil")

	// ErrNilHALQueue is returned when constructing without a HAL queue.
	ErrNilHALQueue = errors.New("native: HAL queue is nil")

	// ErrNoComputeSource is returned when compiling a program without a
	// compute kernel. This backend executes programs as dispatches.
	ErrNoComputeSource = errors.New("native: program has no compute source")
)

// Device implements gpu.Device over hal.Device and hal.Queue.
//
// Thread Safety: Device is safe for concurrent use. Command submission
// is serialized on an internal mutex; resource creation goes straight to
// the HAL, which is free-threaded.
type Device struct {
	device hal.Device
	queue  hal.Queue
	limits types.Limits

	// submitMu serializes command encoding and submission.
	submitMu sync.Mutex

	// blitOnce lazily compiles the built-in blit program on first use.
	blitOnce sync.Once
	blit     *program
	blitErr  error

	// packOnce lazily compiles the texture-to-buffer pack program.
	packOnce sync.Once
	pack     *program
	packErr  error
}

// New creates a Device over an existing HAL device and queue.
// If limits is nil, default limits are used.
func New(device hal.Device, queue hal.Queue, limits *types.Limits) (*Device, error) {
	if device == nil {
		return nil, ErrNilHALDevice
	}
	if queue == nil {
		return nil, ErrNilHALQueue
	}
	lim := types.DefaultLimits()
	if limits != nil {
		lim = *limits
	}
	return &Device{device: device, queue: queue, limits: lim}, nil
}

// CreateTexture creates a storage texture usable as kernel input, kernel
// output and copy endpoint.
func (d *Device) CreateTexture(width, height int, format gputypes.TextureFormat) (gpu.Texture, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("native: texture dimensions must be positive, got %dx%d", width, height)
	}
	if gpu.BytesPerPixel(format) == 0 {
		return nil, fmt.Errorf("native: unsupported texture format %v", format)
	}
	if uint32(width) > d.limits.MaxTextureDimension2D || uint32(height) > d.limits.MaxTextureDimension2D {
		return nil, fmt.Errorf("native: %dx%d exceeds device limit %d", width, height, d.limits.MaxTextureDimension2D)
	}

	halTex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Size: hal.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     types.TextureDimension2D,
		Format:        format,
		Usage:         types.TextureUsageCopySrc | types.TextureUsageCopyDst | types.TextureUsageStorageBinding,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create texture: %w", err)
	}
	return &texture{
		dev:    d,
		hal:    halTex,
		size:   gpu.TexSize{Width: width, Height: height},
		format: format,
	}, nil
}

// CreateFramebuffer creates a render target backed by a storage texture.
// The texture is validated by creating its view; a target that cannot be
// attached never escapes.
func (d *Device) CreateFramebuffer(width, height int, format gputypes.TextureFormat) (gpu.Framebuffer, error) {
	t, err := d.CreateTexture(width, height, format)
	if err != nil {
		return nil, err
	}
	tex := t.(*texture)
	if _, err := tex.view(); err != nil {
		tex.Destroy()
		return nil, fmt.Errorf("native: framebuffer incomplete: %w", err)
	}
	return &framebuffer{tex: tex}, nil
}

// CompileProgram compiles the program's compute kernel to SPIR-V and
// builds its pipeline. Vertex and fragment sources are ignored here;
// they serve render-pass backends.
func (d *Device) CompileProgram(desc gpu.ProgramDesc) (gpu.Program, error) {
	if desc.Compute == "" {
		return nil, fmt.Errorf("%w: %q", ErrNoComputeSource, desc.Label)
	}
	return d.compileCompute(desc.Label, desc.Compute, kernelLayoutTwoTextures)
}

// Blit copies src into dst with the built-in blit kernel, scaling by
// nearest sampling when extents differ.
func (d *Device) Blit(src gpu.Texture, dst gpu.Framebuffer) error {
	d.blitOnce.Do(func() {
		d.blit, d.blitErr = d.compileCompute("glfx-blit", blitComputeWGSL, kernelLayoutTwoTextures)
	})
	if d.blitErr != nil {
		return d.blitErr
	}
	return d.DrawQuad(d.blit, src, dst)
}

// DrawQuad dispatches p over dst's full extent with src bound as input.
func (d *Device) DrawQuad(p gpu.Program, src gpu.Texture, dst gpu.Framebuffer) error {
	prog, ok := p.(*program)
	if !ok {
		return fmt.Errorf("native: foreign program %q", p.Label())
	}
	srcTex, ok := src.(*texture)
	if !ok {
		return errors.New("native: foreign source texture")
	}
	dstFB, ok := dst.(*framebuffer)
	if !ok {
		return errors.New("native: foreign target")
	}

	srcView, err := srcTex.view()
	if err != nil {
		return err
	}
	dstView, err := dstFB.tex.view()
	if err != nil {
		return err
	}

	size := dstFB.Size()
	return d.dispatch(prog, []types.BindGroupEntry{
		textureEntry(0, srcView),
		textureEntry(1, dstView),
	}, groupCount(size.Width), groupCount(size.Height), nil, 0)
}

// Destroy releases the built-in programs. The HAL device and queue are
// owned by the host and left untouched.
func (d *Device) Destroy() {
	if d.blit != nil {
		d.blit.Destroy()
		d.blit = nil
	}
	if d.pack != nil {
		d.pack.Destroy()
		d.pack = nil
	}
}

// groupCount returns the 8-wide workgroup count covering extent pixels.
func groupCount(extent int) uint32 {
	return (uint32(extent) + 7) / 8
}

// textureEntry binds a storage texture view at the given slot.
func textureEntry(binding uint32, view hal.TextureView) types.BindGroupEntry {
	return types.BindGroupEntry{
		Binding: binding,
		Resource: types.TextureViewBinding{
			TextureView: view.NativeHandle(),
		},
	}
}

// bufferEntry binds a storage buffer at the given slot.
func bufferEntry(binding uint32, buf hal.Buffer, size uint64) types.BindGroupEntry {
	return types.BindGroupEntry{
		Binding: binding,
		Resource: types.BufferBinding{
			Buffer: buf.NativeHandle(),
			Offset: 0,
			Size:   size,
		},
	}
}

// dispatch records one compute pass for prog over the given bind group
// entries and submits it. A non-nil fence is signalled with value when
// the submission completes; extraCopy, when set by the caller via
// dispatchWithCopy, runs inside the same submission.
func (d *Device) dispatch(prog *program, entries []types.BindGroupEntry, x, y uint32, fence hal.Fence, value uint64) error {
	return d.dispatchWithCopy(prog, entries, x, y, nil, fence, value)
}

// copyOp is a buffer copy appended to a dispatch submission.
type copyOp struct {
	src  hal.Buffer
	dst  hal.Buffer
	size uint64
}

func (d *Device) dispatchWithCopy(prog *program, entries []types.BindGroupEntry, x, y uint32, cp *copyOp, fence hal.Fence, value uint64) error {
	bindGroup, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   prog.label,
		Layout:  prog.bindLayout,
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("native: bind group for %q: %w", prog.label, err)
	}
	defer d.device.DestroyBindGroup(bindGroup)

	d.submitMu.Lock()
	defer d.submitMu.Unlock()

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: prog.label})
	if err != nil {
		return fmt.Errorf("native: command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(prog.label); err != nil {
		return fmt.Errorf("native: begin encoding: %w", err)
	}

	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: prog.label})
	pass.SetPipeline(prog.pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.Dispatch(x, y, 1)
	pass.End()

	if cp != nil {
		encoder.CopyBufferToBuffer(cp.src, cp.dst, []hal.BufferCopy{
			{SrcOffset: 0, DstOffset: 0, Size: cp.size},
		})
	}

	cmd, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("native: end encoding: %w", err)
	}
	defer cmd.Destroy()

	if err := d.queue.Submit([]hal.CommandBuffer{cmd}, fence, value); err != nil {
		return fmt.Errorf("native: submit %q: %w", prog.label, err)
	}
	return nil
}
