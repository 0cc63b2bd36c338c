// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package glfx

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/glfx/chain"
	"github.com/gogpu/glfx/filter"
	"github.com/gogpu/glfx/gpu"
	"github.com/gogpu/glfx/interop"
)

// DefaultSlots is the transfer slot count used when Config.Slots is zero.
// Three slots let the GPU render frame N while the consumer still holds
// frames N-1 and N-2.
const DefaultSlots = 3

// Config describes an offscreen pipeline to open.
type Config struct {
	// Width and Height give the source picture extent. Ignored when
	// Interop is set, which then defines the extent itself.
	Width  int
	Height int

	// Format is the pixel format of source frames and of the terminal
	// target. Defaults to RGBA8.
	Format gputypes.TextureFormat

	// Filters is a textual chain specification, e.g.
	// "scale{width=320,height=240}:invert". Parsed with
	// [filter.ParseChain]. Stages, when set, is appended after it.
	Filters string

	// Stages are pre-parsed chain stages appended after Filters.
	Stages []filter.StageSpec

	// Device executes the pipeline. Required.
	Device gpu.Device

	// Context brackets GPU work. Defaults to [gpu.NopContext].
	Context gpu.Context

	// Interop uploads source frames. Defaults to an [interop.RGBA] for
	// Width x Height in Format.
	Interop interop.Interop

	// Slots is the transfer slot count K. Defaults to DefaultSlots.
	// The renderer blocks in Filter while all K slots are referenced.
	Slots int
}

// bufferSlot is one element of the transfer ring: the terminal render
// target, the transfer buffer its pixels are read back through, and the
// handle tracking who still references the mapped memory.
type bufferSlot struct {
	fb     gpu.Framebuffer
	buf    gpu.TransferBuffer
	handle *Handle
}

// Renderer runs host frames through a filter chain offscreen and returns
// the results as host-memory images.
//
// Filter is single-producer: one goroutine feeds frames. The images it
// returns may be retained, released and read from any goroutine.
type Renderer struct {
	ctx    gpu.Context
	dev    gpu.Device
	chain  *chain.Chain
	format gputypes.TextureFormat
	out    gpu.TexSize

	// mu and cond form the slot pool monitor. Every slot handle shares
	// them; releasing any reference broadcasts so Filter can rescan.
	mu   sync.Mutex
	cond *sync.Cond

	slots []*bufferSlot

	// next is the scan start hint, advanced round-robin per frame so
	// slots recycle in a stable order. Guarded by mu.
	next int

	opened bool
}

// Open builds the filter chain and the transfer ring described by cfg.
// On failure every partially created resource is released, in reverse
// creation order, and a *SetupError names the failing step.
func Open(cfg Config) (*Renderer, error) {
	if cfg.Device == nil {
		return nil, ErrNilDevice
	}
	if cfg.Format == gputypes.TextureFormatUndefined {
		cfg.Format = gputypes.TextureFormatRGBA8Unorm
	}
	if cfg.Context == nil {
		cfg.Context = gpu.NopContext{}
	}
	if cfg.Slots <= 0 {
		cfg.Slots = DefaultSlots
	}
	if cfg.Interop == nil {
		itp, err := interop.NewRGBA(cfg.Width, cfg.Height, cfg.Format)
		if err != nil {
			return nil, &SetupError{Step: "interop", Err: err}
		}
		cfg.Interop = itp
	}

	stages, err := filter.ParseChain(cfg.Filters)
	if err != nil {
		return nil, &SetupError{Step: "parse chain", Err: err}
	}
	stages = append(stages, cfg.Stages...)
	if len(stages) == 0 {
		stages = []filter.StageSpec{{Name: "identity"}}
	}

	r := &Renderer{
		ctx:    cfg.Context,
		dev:    cfg.Device,
		format: cfg.Interop.Format(),
	}
	r.cond = sync.NewCond(&r.mu)

	if err := r.ctx.MakeCurrent(); err != nil {
		return nil, &SetupError{Step: "make current", Err: err}
	}
	defer r.ctx.ReleaseCurrent()

	r.chain = chain.New(r.dev, cfg.Interop)
	if err := r.chain.AppendSpecs(stages); err != nil {
		r.chain.Destroy()
		return nil, &SetupError{Step: "build chain", Err: err}
	}
	r.out = r.chain.OutputSize()

	bpp := gpu.BytesPerPixel(r.format)
	size := r.out.Width * bpp * r.out.Height
	for i := 0; i < cfg.Slots; i++ {
		fb, err := r.dev.CreateFramebuffer(r.out.Width, r.out.Height, r.format)
		if err != nil {
			r.destroySlots()
			r.chain.Destroy()
			return nil, &SetupError{Step: fmt.Sprintf("slot %d target", i), Err: err}
		}
		buf, err := r.dev.CreateTransferBuffer(size)
		if err != nil {
			fb.Destroy()
			r.destroySlots()
			r.chain.Destroy()
			return nil, &SetupError{Step: fmt.Sprintf("slot %d buffer", i), Err: err}
		}
		r.slots = append(r.slots, &bufferSlot{
			fb:     fb,
			buf:    buf,
			handle: newHandle(&r.mu, r.cond),
		})
	}

	r.opened = true
	Logger().Info("glfx: pipeline opened",
		"filters", filter.FormatChain(stages),
		"out", fmt.Sprintf("%dx%d", r.out.Width, r.out.Height),
		"slots", cfg.Slots)
	return r, nil
}

// OutputSize returns the extent of the images Filter produces.
func (r *Renderer) OutputSize() gpu.TexSize { return r.out }

// Filter runs one frame through the chain and returns the filtered
// result, already holding one reference to its transfer slot.
//
// When all slots are still referenced by earlier images, Filter blocks
// until a consumer releases one; slot exhaustion is backpressure, never
// an error. Map is the synchronization point with the GPU copy, so the
// returned pixels are complete.
func (r *Renderer) Filter(frame *interop.Frame) (*Image, error) {
	if frame == nil {
		return nil, ErrNilFrame
	}

	r.mu.Lock()
	if !r.opened {
		r.mu.Unlock()
		return nil, ErrClosed
	}
	idx := r.claimSlotLocked()
	r.mu.Unlock()

	slot := r.slots[idx]
	im, err := r.renderInto(slot, frame)
	if err != nil {
		// The slot was claimed but no image carries its reference.
		// Force it back to free so the ring can never be stranded.
		r.mu.Lock()
		slot.handle.rc = 0
		r.cond.Broadcast()
		r.mu.Unlock()
		Logger().Warn("glfx: frame dropped, slot force-released", "slot", idx, "error", err)
		return nil, err
	}

	r.mu.Lock()
	r.next = (idx + 1) % len(r.slots)
	r.mu.Unlock()
	return im, nil
}

// claimSlotLocked scans from the round-robin hint for a free slot,
// waiting on the pool monitor while none is free, and claims it.
// Caller holds r.mu.
func (r *Renderer) claimSlotLocked() int {
	for {
		for i := 0; i < len(r.slots); i++ {
			j := (r.next + i) % len(r.slots)
			if r.slots[j].handle.rc == 0 {
				r.slots[j].handle.rc = 1
				return j
			}
		}
		r.cond.Wait()
	}
}

// renderInto performs the GPU work of one frame against a claimed slot.
func (r *Renderer) renderInto(slot *bufferSlot, frame *interop.Frame) (*Image, error) {
	if err := r.ctx.MakeCurrent(); err != nil {
		return nil, err
	}
	defer r.ctx.ReleaseCurrent()

	if err := r.chain.UpdatePicture(frame); err != nil {
		return nil, err
	}

	// The slot's previous mapping is released only now, at reuse, so the
	// consumer of the prior image kept valid pixels for as long as it
	// held its reference.
	r.mu.Lock()
	wasMapped := slot.handle.mapped
	slot.handle.mapped = false
	r.mu.Unlock()
	if wasMapped {
		if err := slot.buf.Unmap(); err != nil {
			return nil, err
		}
	}

	if err := r.chain.Draw(slot.fb); err != nil {
		return nil, err
	}
	if err := slot.buf.EnqueueReadback(slot.fb); err != nil {
		return nil, err
	}
	pixels, err := slot.buf.Map()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	slot.handle.mapped = true
	r.mu.Unlock()

	return &Image{
		Pixels: pixels,
		Stride: r.out.Width * gpu.BytesPerPixel(r.format),
		Width:  r.out.Width,
		Height: r.out.Height,
		Format: r.format,
		handle: slot.handle,
	}, nil
}

// Close tears the pipeline down: chain first, then the transfer ring.
// The caller must have released every Image before closing; Close does
// not wait for outstanding references.
func (r *Renderer) Close() {
	r.mu.Lock()
	if !r.opened {
		r.mu.Unlock()
		return
	}
	r.opened = false
	r.mu.Unlock()

	if err := r.ctx.MakeCurrent(); err != nil {
		Logger().Warn("glfx: close without context", "error", err)
		return
	}
	defer r.ctx.ReleaseCurrent()

	r.chain.Destroy()
	r.destroySlots()
}

// destroySlots releases the transfer ring in reverse creation order.
func (r *Renderer) destroySlots() {
	for i := len(r.slots) - 1; i >= 0; i-- {
		s := r.slots[i]
		if s.handle.mapped {
			if err := s.buf.Unmap(); err != nil {
				Logger().Warn("glfx: unmap during close", "slot", i, "error", err)
			}
			s.handle.mapped = false
		}
		s.buf.Destroy()
		s.fb.Destroy()
	}
	r.slots = nil
}
