// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package filter

import (
	"errors"
	"fmt"

	"github.com/gogpu/glfx/gpu"
	"github.com/gogpu/glfx/interop"
)

// ErrNoPicture is returned when drawing before any picture arrived.
var ErrNoPicture = errors.New("filter: no picture uploaded yet")

// Sampler provides a filter stage with its input texture.
//
// The first stage of a chain owns an interop-backed sampler: UpdatePicture
// uploads each incoming host frame into a texture the sampler owns. Every
// later stage holds a direct sampler that merely points at the previous
// stage's output texture and is retargeted before each draw.
type Sampler struct {
	dev     gpu.Device
	interop interop.Interop

	tex   gpu.Texture
	size  gpu.TexSize
	owned bool
	ready bool
}

// NewSamplerFromInterop creates the first-stage sampler. It allocates the
// upload texture with the interop's extent and format.
func NewSamplerFromInterop(dev gpu.Device, itp interop.Interop) (*Sampler, error) {
	size := itp.Size()
	tex, err := dev.CreateTexture(size.Width, size.Height, itp.Format())
	if err != nil {
		return nil, fmt.Errorf("filter: upload texture: %w", err)
	}
	return &Sampler{dev: dev, interop: itp, tex: tex, size: size, owned: true}, nil
}

// NewDirectSampler creates a sampler for an inner stage. It owns no
// texture; UpdateTexture points it at the previous stage's output.
func NewDirectSampler(dev gpu.Device) *Sampler {
	return &Sampler{dev: dev}
}

// UpdatePicture uploads one host frame into the sampler's texture.
// Only interop-backed samplers accept pictures.
func (s *Sampler) UpdatePicture(frame *interop.Frame) error {
	if !s.owned {
		return errors.New("filter: sampler takes its input from a previous stage, not from pictures")
	}
	if err := s.interop.Upload(s.tex, frame); err != nil {
		return err
	}
	s.ready = true
	return nil
}

// UpdateTexture points a direct sampler at tex.
func (s *Sampler) UpdateTexture(tex gpu.Texture, size gpu.TexSize) {
	if s.owned {
		return
	}
	s.tex = tex
	s.size = size
	s.ready = true
}

// Texture returns the current input texture, or an error when no picture
// or upstream output has been bound yet.
func (s *Sampler) Texture() (gpu.Texture, error) {
	if !s.ready || s.tex == nil {
		return nil, ErrNoPicture
	}
	return s.tex, nil
}

// Size returns the current input extent.
func (s *Sampler) Size() gpu.TexSize { return s.size }

// Destroy releases the upload texture of an interop-backed sampler.
// Direct samplers never own their texture.
func (s *Sampler) Destroy() {
	if s.owned && s.tex != nil {
		s.tex.Destroy()
		s.tex = nil
	}
	s.ready = false
}
