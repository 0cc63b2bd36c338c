// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package glfx

import (
	"sync"
	"testing"
)

func newPoolHandle() *Handle {
	mu := &sync.Mutex{}
	return newHandle(mu, sync.NewCond(mu))
}

func TestHandleLifecycle(t *testing.T) {
	h := newPoolHandle()
	if got := h.refs(); got != 0 {
		t.Fatalf("new handle refs = %d, want 0", got)
	}

	h.rc = 1 // claimed
	if h.Retain() != h {
		t.Error("Retain returned a different handle")
	}
	if got := h.refs(); got != 2 {
		t.Errorf("refs = %d, want 2", got)
	}

	h.Release()
	h.Release()
	if got := h.refs(); got != 0 {
		t.Errorf("refs = %d, want 0", got)
	}
}

func TestHandleRetainFreePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Retain on a free handle did not panic")
		}
	}()
	newPoolHandle().Retain()
}

func TestHandleOverReleasePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Release of a free handle did not panic")
		}
	}()
	newPoolHandle().Release()
}

func TestHandleReleaseWakesWaiter(t *testing.T) {
	mu := &sync.Mutex{}
	cond := sync.NewCond(mu)
	h := newHandle(mu, cond)
	h.rc = 1

	woken := make(chan struct{})
	go func() {
		mu.Lock()
		for h.rc != 0 {
			cond.Wait()
		}
		mu.Unlock()
		close(woken)
	}()

	h.Release()
	<-woken
}
