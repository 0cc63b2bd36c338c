// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package gputest provides an in-memory software implementation of the
// gpu device interfaces.
//
// It renders deterministically on the CPU, needs no GPU or display, and
// keeps the exact state machines of the real backends: transfer buffers
// still demand the enqueue, map, unmap cycle and fail the same way when
// it is violated. Tests across the module build pipelines against it;
// it also serves as the reference for what the shader backends compute.
package gputest

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/glfx/gpu"
)

// Kernel is a CPU stand-in for a compiled shader program: one call
// produces dst from src, both tightly packed with the given extents.
type Kernel func(src []byte, srcSize gpu.TexSize, dst []byte, dstSize gpu.TexSize)

// Device is a software gpu.Device.
//
// DrawQuad looks up a Kernel by the program's label. Programs compiled
// for labels without a registered kernel invert color channels, matching
// the built-in invert filter, so chains run against Device without any
// per-test setup.
type Device struct {
	mu        sync.Mutex
	kernels   map[string]Kernel
	destroyed bool

	// CreateCalls counts resource creations, FailAfter forces the n-th
	// creation to fail. Tests use them to exercise setup unwinding.
	CreateCalls int
	FailAfter   int
}

// New returns an empty software device.
func New() *Device {
	return &Device{kernels: make(map[string]Kernel), FailAfter: -1}
}

// SetKernel registers the CPU computation for programs labeled name.
func (d *Device) SetKernel(name string, k Kernel) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.kernels[name] = k
}

func (d *Device) creationAllowed() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		return gpu.ErrDestroyed
	}
	d.CreateCalls++
	if d.FailAfter >= 0 && d.CreateCalls > d.FailAfter {
		return fmt.Errorf("gputest: creation %d refused", d.CreateCalls)
	}
	return nil
}

// CreateTexture allocates a software texture.
func (d *Device) CreateTexture(width, height int, format gputypes.TextureFormat) (gpu.Texture, error) {
	if err := d.creationAllowed(); err != nil {
		return nil, err
	}
	bpp := gpu.BytesPerPixel(format)
	if width <= 0 || height <= 0 || bpp == 0 {
		return nil, fmt.Errorf("gputest: bad texture %dx%d format %v", width, height, format)
	}
	return &texture{
		pix:    make([]byte, width*height*bpp),
		size:   gpu.TexSize{Width: width, Height: height},
		format: format,
		bpp:    bpp,
	}, nil
}

// CreateFramebuffer allocates a software render target.
func (d *Device) CreateFramebuffer(width, height int, format gputypes.TextureFormat) (gpu.Framebuffer, error) {
	tex, err := d.CreateTexture(width, height, format)
	if err != nil {
		return nil, err
	}
	return &framebuffer{tex: tex.(*texture)}, nil
}

// CreateTransferBuffer allocates a software transfer buffer.
func (d *Device) CreateTransferBuffer(size int) (gpu.TransferBuffer, error) {
	if err := d.creationAllowed(); err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, fmt.Errorf("gputest: bad transfer buffer size %d", size)
	}
	return &transferBuffer{data: make([]byte, size)}, nil
}

// CompileProgram records the program label for kernel lookup at draw time.
func (d *Device) CompileProgram(desc gpu.ProgramDesc) (gpu.Program, error) {
	if err := d.creationAllowed(); err != nil {
		return nil, err
	}
	if desc.Label == "" {
		return nil, fmt.Errorf("gputest: program needs a label")
	}
	return &program{label: desc.Label}, nil
}

// Blit copies src into dst, nearest-neighbor scaling when extents differ.
func (d *Device) Blit(src gpu.Texture, dst gpu.Framebuffer) error {
	s := src.(*texture)
	t := dst.(*framebuffer).tex
	if s.destroyed || t.destroyed {
		return gpu.ErrDestroyed
	}
	if s.size == t.size {
		copy(t.pix, s.pix)
		return nil
	}
	for y := 0; y < t.size.Height; y++ {
		sy := y * s.size.Height / t.size.Height
		for x := 0; x < t.size.Width; x++ {
			sx := x * s.size.Width / t.size.Width
			so := (sy*s.size.Width + sx) * s.bpp
			to := (y*t.size.Width + x) * t.bpp
			copy(t.pix[to:to+t.bpp], s.pix[so:so+s.bpp])
		}
	}
	return nil
}

// DrawQuad applies the kernel registered for p's label, or channel
// inversion when none is registered.
func (d *Device) DrawQuad(p gpu.Program, src gpu.Texture, dst gpu.Framebuffer) error {
	s := src.(*texture)
	t := dst.(*framebuffer).tex
	if s.destroyed || t.destroyed {
		return gpu.ErrDestroyed
	}

	d.mu.Lock()
	kernel, ok := d.kernels[p.Label()]
	d.mu.Unlock()
	if !ok {
		kernel = invertKernel
	}
	kernel(s.pix, s.size, t.pix, t.size)
	return nil
}

// Destroy marks the device destroyed; further creations fail.
func (d *Device) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destroyed = true
}

// invertKernel flips color channels and keeps every 4th byte (alpha).
func invertKernel(src []byte, srcSize gpu.TexSize, dst []byte, dstSize gpu.TexSize) {
	n := len(src)
	if len(dst) < n {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		if i%4 == 3 {
			dst[i] = src[i]
		} else {
			dst[i] = 255 - src[i]
		}
	}
}

type texture struct {
	pix       []byte
	size      gpu.TexSize
	format    gputypes.TextureFormat
	bpp       int
	destroyed bool
}

func (t *texture) Width() int                     { return t.size.Width }
func (t *texture) Height() int                    { return t.size.Height }
func (t *texture) Format() gputypes.TextureFormat { return t.format }
func (t *texture) Destroy()                       { t.destroyed = true }

func (t *texture) Upload(pixels []byte, stride int) error {
	if t.destroyed {
		return gpu.ErrDestroyed
	}
	row := t.size.Width * t.bpp
	if stride == 0 {
		stride = row
	}
	if stride < row || len(pixels) < stride*(t.size.Height-1)+row {
		return gpu.ErrSizeMismatch
	}
	for y := 0; y < t.size.Height; y++ {
		copy(t.pix[y*row:y*row+row], pixels[y*stride:y*stride+row])
	}
	return nil
}

type framebuffer struct {
	tex *texture
}

func (f *framebuffer) Texture() gpu.Texture { return f.tex }
func (f *framebuffer) Size() gpu.TexSize    { return f.tex.size }
func (f *framebuffer) Destroy()             { f.tex.Destroy() }

type program struct {
	label string
}

func (p *program) Label() string { return p.label }
func (p *program) Destroy()      {}

// mapState mirrors the hardware transfer buffer state machine.
type mapState int

const (
	stateIdle mapState = iota
	statePending
	stateMapped
)

func (s mapState) String() string {
	switch s {
	case stateIdle:
		return "Idle"
	case statePending:
		return "Pending"
	case stateMapped:
		return "Mapped"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// transferBuffer copies synchronously at enqueue time but enforces the
// asynchronous protocol: Map without a pending readback and readback
// into a mapped buffer fail exactly like the hardware backend.
type transferBuffer struct {
	mu        sync.Mutex
	data      []byte
	state     mapState
	destroyed bool
}

func (b *transferBuffer) Size() int { return len(b.data) }

func (b *transferBuffer) EnqueueReadback(src gpu.Framebuffer) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return gpu.ErrDestroyed
	}
	if b.state == stateMapped {
		return gpu.ErrAlreadyMapped
	}
	t := src.(*framebuffer).tex
	if len(t.pix) > len(b.data) {
		return gpu.ErrSizeMismatch
	}
	copy(b.data, t.pix)
	b.state = statePending
	return nil
}

func (b *transferBuffer) Map() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return nil, gpu.ErrDestroyed
	}
	if b.state == stateIdle {
		return nil, gpu.ErrNoPendingReadback
	}
	b.state = stateMapped
	return b.data, nil
}

func (b *transferBuffer) Unmap() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return gpu.ErrDestroyed
	}
	b.state = stateIdle
	return nil
}

func (b *transferBuffer) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.destroyed = true
	b.data = nil
}
