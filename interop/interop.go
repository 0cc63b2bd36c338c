// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package interop moves host-side video frames onto the GPU.
//
// The filter pipeline does not decode or own frames; it receives them
// through an Interop, which knows the source format and uploads each frame
// into a sampleable texture for the first filter stage.
package interop

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/draw"

	"github.com/gogpu/glfx/gpu"
)

var (
	// ErrEmptyFrame is returned when uploading a frame with no pixels.
	ErrEmptyFrame = errors.New("interop: empty frame")

	// ErrFrameMismatch is returned when a frame's extent or format does
	// not match what the interop was configured for.
	ErrFrameMismatch = errors.New("interop: frame does not match configured size or format")
)

// Frame is one host-memory picture handed to the pipeline.
//
// Pixels holds Height rows of Stride bytes each; only the leftmost
// Width*bpp bytes of each row carry picture data.
type Frame struct {
	Pixels []byte
	Stride int
	Width  int
	Height int
	Format gputypes.TextureFormat
}

// FromImage converts an arbitrary image.Image into an RGBA8 frame,
// scaling to the given extent when it differs from the image bounds.
func FromImage(src image.Image, width, height int) *Frame {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	if b := src.Bounds(); b.Dx() == width && b.Dy() == height {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	} else {
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	}
	return &Frame{
		Pixels: dst.Pix,
		Stride: dst.Stride,
		Width:  width,
		Height: height,
		Format: gputypes.TextureFormatRGBA8Unorm,
	}
}

// Validate reports whether the frame is internally consistent.
func (f *Frame) Validate() error {
	if f == nil || len(f.Pixels) == 0 {
		return ErrEmptyFrame
	}
	bpp := gpu.BytesPerPixel(f.Format)
	if bpp == 0 {
		return fmt.Errorf("interop: unsupported frame format %v", f.Format)
	}
	if f.Stride < f.Width*bpp {
		return fmt.Errorf("interop: stride %d shorter than row length %d", f.Stride, f.Width*bpp)
	}
	if len(f.Pixels) < f.Stride*(f.Height-1)+f.Width*bpp {
		return fmt.Errorf("interop: %d pixel bytes for %dx%d stride %d", len(f.Pixels), f.Width, f.Height, f.Stride)
	}
	return nil
}

// Interop uploads host frames into textures the first filter stage samples.
type Interop interface {
	// Size returns the source picture extent.
	Size() gpu.TexSize

	// Format returns the texture format uploads produce.
	Format() gputypes.TextureFormat

	// Upload pushes one frame into dst. dst must have been created with
	// the interop's size and format.
	Upload(dst gpu.Texture, frame *Frame) error
}

// RGBA is the reference Interop for packed 4-byte-per-pixel frames.
type RGBA struct {
	width  int
	height int
	format gputypes.TextureFormat
}

// NewRGBA returns an Interop for width x height frames in format.
// Format defaults to RGBA8 when zero.
func NewRGBA(width, height int, format gputypes.TextureFormat) (*RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("interop: invalid source extent %dx%d", width, height)
	}
	if format == gputypes.TextureFormatUndefined {
		format = gputypes.TextureFormatRGBA8Unorm
	}
	if gpu.BytesPerPixel(format) == 0 {
		return nil, fmt.Errorf("interop: unsupported format %v", format)
	}
	return &RGBA{width: width, height: height, format: format}, nil
}

// Size returns the source picture extent.
func (r *RGBA) Size() gpu.TexSize { return gpu.TexSize{Width: r.width, Height: r.height} }

// Format returns the texture format uploads produce.
func (r *RGBA) Format() gputypes.TextureFormat { return r.format }

// Upload pushes one frame into dst.
func (r *RGBA) Upload(dst gpu.Texture, frame *Frame) error {
	if err := frame.Validate(); err != nil {
		return err
	}
	if frame.Width != r.width || frame.Height != r.height || frame.Format != r.format {
		return fmt.Errorf("%w: got %dx%d %v, want %dx%d %v", ErrFrameMismatch,
			frame.Width, frame.Height, frame.Format, r.width, r.height, r.format)
	}
	return dst.Upload(frame.Pixels, frame.Stride)
}
