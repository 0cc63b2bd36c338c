// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package interop

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/gputypes"
)

func TestFromImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			src.SetRGBA(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 100), B: 7, A: 255})
		}
	}

	f := FromImage(src, 4, 2)
	if err := f.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if f.Width != 4 || f.Height != 2 {
		t.Errorf("extent = %dx%d, want 4x2", f.Width, f.Height)
	}
	if f.Format != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("format = %v, want RGBA8Unorm", f.Format)
	}
	if f.Pixels[0] != 0 || f.Pixels[4] != 60 {
		t.Errorf("pixels not copied: %v", f.Pixels[:8])
	}
}

func TestFromImageScales(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	f := FromImage(src, 4, 4)
	if f.Width != 4 || f.Height != 4 {
		t.Errorf("extent = %dx%d, want 4x4", f.Width, f.Height)
	}
	if err := f.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestFrameValidate(t *testing.T) {
	valid := Frame{
		Pixels: make([]byte, 4*2*4),
		Stride: 16,
		Width:  4,
		Height: 2,
		Format: gputypes.TextureFormatRGBA8Unorm,
	}

	tests := []struct {
		name   string
		mutate func(*Frame)
	}{
		{"no pixels", func(f *Frame) { f.Pixels = nil }},
		{"short stride", func(f *Frame) { f.Stride = 8 }},
		{"short buffer", func(f *Frame) { f.Pixels = f.Pixels[:10] }},
		{"bad format", func(f *Frame) { f.Format = gputypes.TextureFormatR8Unorm }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid
			tt.mutate(&f)
			if err := f.Validate(); err == nil {
				t.Error("Validate accepted a bad frame")
			}
		})
	}

	if err := valid.Validate(); err != nil {
		t.Errorf("Validate rejected a good frame: %v", err)
	}
}

func TestRGBAUploadMismatch(t *testing.T) {
	itp, err := NewRGBA(4, 2, 0)
	if err != nil {
		t.Fatalf("NewRGBA failed: %v", err)
	}

	f := &Frame{
		Pixels: make([]byte, 8*4*4),
		Stride: 32,
		Width:  8,
		Height: 4,
		Format: gputypes.TextureFormatRGBA8Unorm,
	}
	if err := itp.Upload(nil, f); !errors.Is(err, ErrFrameMismatch) {
		t.Errorf("Upload of mismatched frame = %v, want ErrFrameMismatch", err)
	}
}

func TestNewRGBAValidation(t *testing.T) {
	if _, err := NewRGBA(0, 2, 0); err == nil {
		t.Error("NewRGBA accepted zero width")
	}
	if _, err := NewRGBA(4, 2, gputypes.TextureFormatR8Unorm); err == nil {
		t.Error("NewRGBA accepted a 1-byte format")
	}

	itp, err := NewRGBA(4, 2, 0)
	if err != nil {
		t.Fatalf("NewRGBA failed: %v", err)
	}
	if itp.Format() != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("default format = %v, want RGBA8Unorm", itp.Format())
	}
}
