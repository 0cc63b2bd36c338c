// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package native

import (
	"errors"
	"sync/atomic"

	"github.com/gogpu/glfx/gpu"
)

// ErrContextBusy is returned when acquiring a context another goroutine
// still holds.
var ErrContextBusy = errors.New("native: context is current on another goroutine")

// Context implements gpu.Context with exclusive single-holder ownership.
//
// The HAL device itself is free-threaded, so no thread binding happens
// here; the bracket exists to catch producers that overlap GPU work from
// two goroutines, which the pipeline's slot accounting does not allow.
type Context struct {
	held atomic.Bool
}

// NewContext returns an unheld context.
func NewContext() *Context { return &Context{} }

// MakeCurrent acquires the context. Fails instead of blocking when it is
// already held; overlapping producers are a bug, not contention.
func (c *Context) MakeCurrent() error {
	if !c.held.CompareAndSwap(false, true) {
		return ErrContextBusy
	}
	return nil
}

// ReleaseCurrent releases the context.
func (c *Context) ReleaseCurrent() {
	c.held.Store(false)
}

// Swap is a no-op; this backend renders offscreen only.
func (c *Context) Swap() {}

var _ gpu.Context = (*Context)(nil)
