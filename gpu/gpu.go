// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package gpu defines the device abstraction consumed by the filter chain
// and the offscreen renderer: textures, render targets, compiled programs
// and transfer buffers for asynchronous readback.
//
// Implementations live in backends (see backend/native for the hal-backed
// device and gpu/gputest for the in-memory software device). Callers hold
// the interfaces only; no backend type leaks through this package.
package gpu

import (
	"errors"

	"github.com/gogpu/gputypes"
)

// Errors shared by device implementations.
var (
	// ErrDestroyed is returned when operating on a destroyed resource.
	ErrDestroyed = errors.New("gpu: resource has been destroyed")

	// ErrNotMapped is returned when reading a transfer buffer that has no
	// mapped range.
	ErrNotMapped = errors.New("gpu: transfer buffer is not mapped")

	// ErrAlreadyMapped is returned when enqueueing a readback into a
	// transfer buffer that is still mapped.
	ErrAlreadyMapped = errors.New("gpu: transfer buffer is still mapped")

	// ErrNoPendingReadback is returned when mapping a transfer buffer
	// without a preceding readback.
	ErrNoPendingReadback = errors.New("gpu: no readback enqueued")

	// ErrSizeMismatch is returned when a readback source does not fit the
	// transfer buffer, or an upload does not match the texture extent.
	ErrSizeMismatch = errors.New("gpu: size mismatch")
)

// TexSize is a texture extent in pixels.
type TexSize struct {
	Width  int
	Height int
}

// Context brackets GPU work for a single goroutine.
//
// The renderer calls MakeCurrent before touching the device and
// ReleaseCurrent when done, so a host embedding the pipeline next to its
// own rendering can interleave safely. Implementations where the device is
// free-threaded may make both no-ops; NopContext does exactly that.
type Context interface {
	// MakeCurrent acquires the context for the calling goroutine.
	MakeCurrent() error

	// ReleaseCurrent releases the context acquired by MakeCurrent.
	ReleaseCurrent()

	// Swap presents the default target. Offscreen pipelines never call it;
	// it exists for hosts that hand the terminal framebuffer to a window.
	Swap()
}

// NopContext is a Context for devices that need no ownership bracket.
type NopContext struct{}

func (NopContext) MakeCurrent() error { return nil }
func (NopContext) ReleaseCurrent()    {}
func (NopContext) Swap()              {}

// Texture is a sampleable 2D image on the device.
type Texture interface {
	Width() int
	Height() int
	Format() gputypes.TextureFormat

	// Upload replaces the texture contents with pixel rows. stride is in
	// bytes; 0 means tightly packed.
	Upload(pixels []byte, stride int) error

	Destroy()
}

// Framebuffer is a render target owning its color texture.
// Creation validates completeness; an incomplete target never escapes the
// device constructor.
type Framebuffer interface {
	// Texture returns the color attachment for sampling by a later stage.
	Texture() Texture

	Size() TexSize

	Destroy()
}

// TransferBuffer moves rendered pixels from the device to host memory.
//
// The cycle is EnqueueReadback, Map, Unmap. EnqueueReadback records an
// asynchronous copy out of a framebuffer; Map blocks until that copy has
// completed and returns the pixel bytes; Unmap invalidates the mapping and
// makes the buffer reusable. A mapped buffer must be unmapped before the
// next EnqueueReadback.
type TransferBuffer interface {
	// Size returns the buffer capacity in bytes.
	Size() int

	// EnqueueReadback records an asynchronous copy of src's pixels into
	// the buffer. It returns without waiting for the copy to complete.
	EnqueueReadback(src Framebuffer) error

	// Map blocks until the enqueued copy has completed and returns the
	// mapped bytes. The slice is valid until Unmap.
	Map() ([]byte, error)

	// Unmap releases the mapped range. Unmapping an unmapped buffer is a
	// no-op.
	Unmap() error

	Destroy()
}

// ProgramDesc describes a shader program to compile. Sources are WGSL.
//
// Backends pick the sources they can execute: render-pass backends use
// Vertex and Fragment, compute backends use Compute. A compute kernel
// sees the stage input at @binding(0) and its output target at
// @binding(1), both as rgba8unorm storage textures, and is dispatched
// with 8x8 workgroups covering the output extent.
type ProgramDesc struct {
	Label    string
	Vertex   string
	Fragment string
	Compute  string
}

// Program is a compiled filter program.
type Program interface {
	Label() string
	Destroy()
}

// Device creates and executes GPU resources for the filter pipeline.
type Device interface {
	CreateTexture(width, height int, format gputypes.TextureFormat) (Texture, error)

	// CreateFramebuffer creates a complete render target. Partial
	// resources are destroyed before an error returns.
	CreateFramebuffer(width, height int, format gputypes.TextureFormat) (Framebuffer, error)

	CreateTransferBuffer(size int) (TransferBuffer, error)

	CompileProgram(desc ProgramDesc) (Program, error)

	// Blit copies src into dst, scaling if the extents differ.
	Blit(src Texture, dst Framebuffer) error

	// DrawQuad runs p over a full-target quad sampling src into dst.
	DrawQuad(p Program, src Texture, dst Framebuffer) error

	Destroy()
}

// BytesPerPixel returns the pixel stride of the formats the pipeline
// renders to, or 0 for unsupported formats.
func BytesPerPixel(format gputypes.TextureFormat) int {
	switch format {
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA8UnormSrgb,
		gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatBGRA8UnormSrgb:
		return 4
	default:
		return 0
	}
}
