// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package glfx

import (
	"image"

	"github.com/gogpu/gputypes"
)

// Image is one filtered output frame, backed by a mapped transfer slot.
//
// Pixels aliases the slot's mapped memory and stays valid until the last
// reference is dropped. Consumers that keep the frame beyond the call
// that produced it take their own reference with Retain and drop it with
// Release; the producing renderer reuses the slot only after the count
// reaches zero. Copy the pixels out (for example with ToRGBA) when the
// data must outlive the references.
type Image struct {
	Pixels []byte
	Stride int
	Width  int
	Height int
	Format gputypes.TextureFormat

	handle *Handle
}

// Retain adds a reference to the underlying slot and returns a new Image
// sharing the same pixels.
func (im *Image) Retain() *Image {
	im.handle.Retain()
	clone := *im
	return &clone
}

// Release drops this image's reference. The pixel slice must not be used
// afterwards.
func (im *Image) Release() {
	im.handle.Release()
}

// ToRGBA copies the frame into a freshly allocated image.RGBA.
// Channel order is taken as-is; BGRA frames come out byte-swapped.
func (im *Image) ToRGBA() *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, im.Width, im.Height))
	row := im.Width * 4
	for y := 0; y < im.Height; y++ {
		copy(out.Pix[y*out.Stride:y*out.Stride+row], im.Pixels[y*im.Stride:y*im.Stride+row])
	}
	return out
}
