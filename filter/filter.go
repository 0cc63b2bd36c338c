// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package filter defines the shader filter contract, the name-keyed filter
// registry, per-filter options and the textual chain specification.
//
// A filter is one stage of a processing chain: it samples its input
// through a Sampler and draws a full-target quad into the framebuffer it
// is handed. Filters are registered by name and instantiated from parsed
// chain specs such as "identity:invert" or "scale{width=320,height=240}".
package filter

import (
	"github.com/gogpu/glfx/gpu"
)

// Filter is one stage of a processing chain.
//
// The chain calls Open exactly once before any Draw, with Env describing
// the stage's input. A filter that produces an extent different from its
// input overrides Env.SizeOut inside Open; the chain sizes the stage's
// output target from it afterwards. Close releases everything Open
// allocated and is called exactly once, also after a failed Open.
type Filter interface {
	Open(env *Env) error
	Draw(target gpu.Framebuffer) error
	Close()
}

// Env is the per-stage environment the chain hands to Open.
type Env struct {
	// Device creates programs and any private stage resources.
	Device gpu.Device

	// Sampler provides the stage's input texture. The chain keeps it
	// pointed at the previous stage's output across frames.
	Sampler *Sampler

	// Options carries the stage's parsed key=value options.
	Options Options

	// SizeOut is the stage's output extent. It arrives preset to the
	// input extent; Open may overwrite it to declare a different one.
	SizeOut gpu.TexSize
}

// Factory creates a filter instance. Factories run at Append time and
// should be cheap; resource allocation belongs in Open.
type Factory func() Filter
