// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package native

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	types "github.com/gogpu/gputypes"

	"github.com/gogpu/glfx/gpu"
)

// texture implements gpu.Texture over a hal.Texture.
//
// The storage view every kernel binds is created lazily, exactly once,
// on first use.
type texture struct {
	dev    *Device
	hal    hal.Texture
	size   gpu.TexSize
	format gputypes.TextureFormat

	viewOnce sync.Once
	halView  hal.TextureView
	viewErr  error

	mu        sync.Mutex
	destroyed bool
}

func (t *texture) Width() int                     { return t.size.Width }
func (t *texture) Height() int                    { return t.size.Height }
func (t *texture) Format() gputypes.TextureFormat { return t.format }

// view returns the texture's storage view, creating it on first call.
func (t *texture) view() (hal.TextureView, error) {
	t.mu.Lock()
	if t.destroyed {
		t.mu.Unlock()
		return nil, gpu.ErrDestroyed
	}
	t.mu.Unlock()

	t.viewOnce.Do(func() {
		t.halView, t.viewErr = t.dev.device.CreateTextureView(t.hal, &hal.TextureViewDescriptor{
			Format:          types.TextureFormatUndefined,
			Dimension:       types.TextureViewDimensionUndefined,
			Aspect:          types.TextureAspectAll,
			BaseMipLevel:    0,
			MipLevelCount:   0,
			BaseArrayLayer:  0,
			ArrayLayerCount: 0,
		})
	})
	if t.viewErr != nil {
		return nil, fmt.Errorf("native: texture view: %w", t.viewErr)
	}
	return t.halView, nil
}

// Upload writes pixel rows into the texture through the queue.
func (t *texture) Upload(pixels []byte, stride int) error {
	t.mu.Lock()
	if t.destroyed {
		t.mu.Unlock()
		return gpu.ErrDestroyed
	}
	t.mu.Unlock()

	bpp := gpu.BytesPerPixel(t.format)
	row := t.size.Width * bpp
	if stride == 0 {
		stride = row
	}
	if stride < row || len(pixels) < stride*(t.size.Height-1)+row {
		return gpu.ErrSizeMismatch
	}

	err := t.dev.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  t.hal,
			MipLevel: 0,
			Origin:   hal.Origin3D{X: 0, Y: 0, Z: 0},
			Aspect:   types.TextureAspectAll,
		},
		pixels,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(stride),
			RowsPerImage: uint32(t.size.Height),
		},
		&hal.Extent3D{
			Width:              uint32(t.size.Width),
			Height:             uint32(t.size.Height),
			DepthOrArrayLayers: 1,
		},
	)
	if err != nil {
		return fmt.Errorf("native: write texture: %w", err)
	}
	return nil
}

// Destroy releases the view and the texture. Idempotent.
func (t *texture) Destroy() {
	t.mu.Lock()
	if t.destroyed {
		t.mu.Unlock()
		return
	}
	t.destroyed = true
	view := t.halView
	t.halView = nil
	t.mu.Unlock()

	if view != nil {
		t.dev.device.DestroyTextureView(view)
	}
	if t.hal != nil {
		t.dev.device.DestroyTexture(t.hal)
	}
}

// framebuffer implements gpu.Framebuffer as a storage texture the
// kernels write into.
type framebuffer struct {
	tex *texture
}

func (f *framebuffer) Texture() gpu.Texture { return f.tex }
func (f *framebuffer) Size() gpu.TexSize    { return f.tex.size }
func (f *framebuffer) Destroy()             { f.tex.Destroy() }
