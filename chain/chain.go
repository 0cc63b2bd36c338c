// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package chain executes an ordered sequence of shader filters.
//
// Stages run in insertion order. Every stage except the last renders into
// an intermediate framebuffer that the next stage samples; the last stage
// renders into whatever terminal target the caller passes to Draw. A
// stage's output target is allocated lazily, at the moment a later Append
// makes it non-terminal.
package chain

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/glfx/filter"
	"github.com/gogpu/glfx/gpu"
	"github.com/gogpu/glfx/interop"
)

var (
	// ErrEmptyChain is returned when drawing or feeding a chain with no
	// stages.
	ErrEmptyChain = errors.New("chain: no filters appended")
)

// DrawError reports which stage of a draw pass failed.
type DrawError struct {
	Index int
	Name  string
	Err   error
}

func (e *DrawError) Error() string {
	return fmt.Sprintf("chain: stage %d (%s): %v", e.Index, e.Name, e.Err)
}

func (e *DrawError) Unwrap() error { return e.Err }

// stage is one appended filter with its wiring.
type stage struct {
	name    string
	filter  filter.Filter
	sampler *filter.Sampler
	sizeOut gpu.TexSize

	// fbOut is the stage's output target. Only non-last stages have one;
	// it is allocated when a later Append makes the stage non-terminal.
	fbOut gpu.Framebuffer
}

// Chain is an ordered filter sequence bound to one device and one
// picture source. Not safe for concurrent use.
type Chain struct {
	dev    gpu.Device
	itp    interop.Interop
	format gputypes.TextureFormat
	stages []*stage
}

// New creates an empty chain drawing its input pictures through itp.
func New(dev gpu.Device, itp interop.Interop) *Chain {
	return &Chain{dev: dev, itp: itp, format: itp.Format()}
}

// Append instantiates the named filter and adds it as the new last stage.
//
// The stage's input is the previous stage's output, or the picture source
// for the first stage. Its output extent defaults to its input extent;
// the filter's Open may declare a different one. On any failure the
// partial stage is torn down and the chain is left unchanged.
func (c *Chain) Append(name string, opts filter.Options) error {
	f, err := filter.New(name)
	if err != nil {
		return err
	}

	var sampler *filter.Sampler
	sizeIn := c.inputSize()
	if len(c.stages) == 0 {
		sampler, err = filter.NewSamplerFromInterop(c.dev, c.itp)
		if err != nil {
			f.Close()
			return err
		}
	} else {
		sampler = filter.NewDirectSampler(c.dev)
	}

	env := &filter.Env{
		Device:  c.dev,
		Sampler: sampler,
		Options: opts,
		SizeOut: sizeIn,
	}
	if err := f.Open(env); err != nil {
		f.Close()
		sampler.Destroy()
		return fmt.Errorf("chain: open %s: %w", name, err)
	}
	if env.SizeOut.Width <= 0 || env.SizeOut.Height <= 0 {
		f.Close()
		sampler.Destroy()
		return fmt.Errorf("chain: filter %s declared output %dx%d", name, env.SizeOut.Width, env.SizeOut.Height)
	}

	// The previous last stage stops being terminal; give it the output
	// target the new stage will sample.
	if prev := c.last(); prev != nil && prev.fbOut == nil {
		fb, err := c.dev.CreateFramebuffer(prev.sizeOut.Width, prev.sizeOut.Height, c.format)
		if err != nil {
			f.Close()
			sampler.Destroy()
			return fmt.Errorf("chain: output target for %s: %w", prev.name, err)
		}
		prev.fbOut = fb
	}

	c.stages = append(c.stages, &stage{
		name:    name,
		filter:  f,
		sampler: sampler,
		sizeOut: env.SizeOut,
	})
	slogger().Debug("chain: appended filter",
		"name", name,
		"in", fmt.Sprintf("%dx%d", sizeIn.Width, sizeIn.Height),
		"out", fmt.Sprintf("%dx%d", env.SizeOut.Width, env.SizeOut.Height))
	return nil
}

// AppendSpecs appends every stage of a parsed chain specification.
// It stops at the first failure, keeping the stages appended so far.
func (c *Chain) AppendSpecs(specs []filter.StageSpec) error {
	for _, s := range specs {
		if err := c.Append(s.Name, s.Options); err != nil {
			return err
		}
	}
	return nil
}

// UpdatePicture uploads one host frame into the first stage's sampler.
func (c *Chain) UpdatePicture(frame *interop.Frame) error {
	if len(c.stages) == 0 {
		return ErrEmptyChain
	}
	return c.stages[0].sampler.UpdatePicture(frame)
}

// Draw runs every stage in order. The last stage renders into terminal;
// each earlier stage renders into its own output target. The first
// failing stage aborts the pass.
func (c *Chain) Draw(terminal gpu.Framebuffer) error {
	if len(c.stages) == 0 {
		return ErrEmptyChain
	}
	for i, st := range c.stages {
		if i > 0 {
			prev := c.stages[i-1]
			st.sampler.UpdateTexture(prev.fbOut.Texture(), prev.sizeOut)
		}
		target := st.fbOut
		if target == nil {
			target = terminal
		}
		if err := st.filter.Draw(target); err != nil {
			return &DrawError{Index: i, Name: st.name, Err: err}
		}
	}
	return nil
}

// Len returns the number of appended stages.
func (c *Chain) Len() int { return len(c.stages) }

// OutputSize returns the extent the chain renders into its terminal
// target: the last stage's declared output, or the picture source extent
// for an empty chain.
func (c *Chain) OutputSize() gpu.TexSize {
	if st := c.last(); st != nil {
		return st.sizeOut
	}
	return c.itp.Size()
}

// Destroy closes every stage and releases all intermediate targets.
// Stages are torn down in reverse order.
func (c *Chain) Destroy() {
	for i := len(c.stages) - 1; i >= 0; i-- {
		st := c.stages[i]
		st.filter.Close()
		st.sampler.Destroy()
		if st.fbOut != nil {
			st.fbOut.Destroy()
			st.fbOut = nil
		}
	}
	c.stages = nil
}

func (c *Chain) last() *stage {
	if len(c.stages) == 0 {
		return nil
	}
	return c.stages[len(c.stages)-1]
}

func (c *Chain) inputSize() gpu.TexSize {
	if st := c.last(); st != nil {
		return st.sizeOut
	}
	return c.itp.Size()
}
