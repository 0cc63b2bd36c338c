// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package glfx

import "sync"

// Handle is the refcount of one transfer slot.
//
// A slot is free while its refcount is zero. The renderer takes the first
// reference when it claims the slot for a frame; the reference moves to
// the emitted Image, whose consumers may add more via Retain. The last
// Release returns the slot to the free pool and wakes any producer
// blocked waiting for one.
//
// All refcount changes happen under the pool mutex shared by every slot
// of a renderer, so a concurrent scan never observes a half-applied
// transition.
type Handle struct {
	mu   *sync.Mutex
	cond *sync.Cond

	// rc is the reference count. Guarded by mu.
	rc int

	// mapped records whether the slot's transfer buffer currently holds a
	// mapped range. The renderer unmaps lazily, on the slot's next reuse.
	// Guarded by mu.
	mapped bool
}

// newHandle creates a free handle sharing the pool's monitor.
func newHandle(mu *sync.Mutex, cond *sync.Cond) *Handle {
	return &Handle{mu: mu, cond: cond}
}

// Retain adds a reference and returns the same handle.
// Retaining a free handle is a programming error.
func (h *Handle) Retain() *Handle {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rc <= 0 {
		panic("glfx: Retain on a released handle")
	}
	h.rc++
	return h
}

// Release drops one reference. Dropping the last reference frees the
// slot; waiters are always woken so a blocked producer can rescan.
func (h *Handle) Release() {
	h.mu.Lock()
	h.rc--
	if h.rc < 0 {
		h.mu.Unlock()
		panic("glfx: Release of an already free handle")
	}
	h.cond.Broadcast()
	h.mu.Unlock()
}

// refs returns the current reference count.
func (h *Handle) refs() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rc
}
