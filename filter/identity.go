// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package filter

import (
	"github.com/gogpu/glfx/gpu"
)

func init() {
	Register("identity", func() Filter { return &identity{} })
	Register("scale", func() Filter { return &scale{} })
	Register("invert", func() Filter { return &invert{} })
}

// identity passes its input through unchanged. Useful as a chain
// terminator and as the minimal example of the Filter contract.
type identity struct {
	env *Env
}

func (f *identity) Open(env *Env) error {
	f.env = env
	return nil
}

func (f *identity) Draw(target gpu.Framebuffer) error {
	src, err := f.env.Sampler.Texture()
	if err != nil {
		return err
	}
	return f.env.Device.Blit(src, target)
}

func (f *identity) Close() {}

// scale resamples its input to the extent given by the width and height
// options. Omitted dimensions default to the input extent, so
// scale{width=320} preserves height.
type scale struct {
	env *Env
}

func (f *scale) Open(env *Env) error {
	w, err := env.Options.Int("width", env.SizeOut.Width)
	if err != nil {
		return err
	}
	h, err := env.Options.Int("height", env.SizeOut.Height)
	if err != nil {
		return err
	}
	if w <= 0 || h <= 0 {
		return &OptionError{Key: "width/height", Value: "<= 0", Want: "positive extent"}
	}
	env.SizeOut = gpu.TexSize{Width: w, Height: h}
	f.env = env
	return nil
}

func (f *scale) Draw(target gpu.Framebuffer) error {
	src, err := f.env.Sampler.Texture()
	if err != nil {
		return err
	}
	return f.env.Device.Blit(src, target)
}

func (f *scale) Close() {}
