// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package native

import (
	"fmt"
	"sync"
	"time"
	"unsafe"

	"github.com/gogpu/wgpu/hal"
	types "github.com/gogpu/gputypes"

	"github.com/gogpu/glfx/gpu"
)

// mapTimeout bounds the fence wait in Map. A transfer that takes longer
// than this indicates a lost device.
const mapTimeout = 5 * time.Second

// mapState is the transfer buffer state machine.
type mapState int

const (
	// mapStateIdle means no readback is in flight and nothing is mapped.
	mapStateIdle mapState = iota
	// mapStatePending means a readback has been enqueued but not mapped.
	mapStatePending
	// mapStateMapped means Map has returned pixels that are still live.
	mapStateMapped
)

func (s mapState) String() string {
	switch s {
	case mapStateIdle:
		return "Idle"
	case mapStatePending:
		return "Pending"
	case mapStateMapped:
		return "Mapped"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// transferBuffer implements gpu.TransferBuffer with a storage buffer the
// pack kernel writes, a map-read staging buffer the copy lands in, and a
// fence that Map blocks on.
type transferBuffer struct {
	dev     *Device
	size    uint64
	storage hal.Buffer
	staging hal.Buffer
	fence   hal.Fence

	mu         sync.Mutex
	state      mapState
	fenceValue uint64
	shadow     []byte
	destroyed  bool
}

// CreateTransferBuffer creates a readback buffer of the given byte size.
func (d *Device) CreateTransferBuffer(size int) (gpu.TransferBuffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("native: transfer buffer size must be positive, got %d", size)
	}
	// Align to 4 bytes for copy operations.
	aligned := (uint64(size) + 3) &^ 3

	storage, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "glfx-readback-storage",
		Size:  aligned,
		Usage: types.BufferUsageStorage | types.BufferUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("native: readback storage buffer: %w", err)
	}
	staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "glfx-readback-staging",
		Size:  aligned,
		Usage: types.BufferUsageMapRead | types.BufferUsageCopyDst,
	})
	if err != nil {
		d.device.DestroyBuffer(storage)
		return nil, fmt.Errorf("native: readback staging buffer: %w", err)
	}
	fence, err := d.device.CreateFence()
	if err != nil {
		d.device.DestroyBuffer(staging)
		d.device.DestroyBuffer(storage)
		return nil, fmt.Errorf("native: readback fence: %w", err)
	}

	return &transferBuffer{
		dev:     d,
		size:    aligned,
		storage: storage,
		staging: staging,
		fence:   fence,
		shadow:  make([]byte, aligned),
	}, nil
}

func (b *transferBuffer) Size() int { return int(b.size) }

// EnqueueReadback packs src into the storage buffer and copies it to the
// staging buffer in one submission, signalling the fence on completion.
// It does not wait.
func (b *transferBuffer) EnqueueReadback(src gpu.Framebuffer) error {
	fb, ok := src.(*framebuffer)
	if !ok {
		return fmt.Errorf("native: foreign readback source")
	}

	b.mu.Lock()
	if b.destroyed {
		b.mu.Unlock()
		return gpu.ErrDestroyed
	}
	if b.state == mapStateMapped {
		b.mu.Unlock()
		return gpu.ErrAlreadyMapped
	}
	size := fb.Size()
	need := uint64(size.Width*size.Height) * uint64(gpu.BytesPerPixel(fb.tex.format))
	if need > b.size {
		b.mu.Unlock()
		return fmt.Errorf("%w: framebuffer needs %d bytes, buffer holds %d", gpu.ErrSizeMismatch, need, b.size)
	}
	b.fenceValue++
	value := b.fenceValue
	b.state = mapStatePending
	b.mu.Unlock()

	d := b.dev
	d.packOnce.Do(func() {
		d.pack, d.packErr = d.compileCompute("glfx-pack", packComputeWGSL, kernelLayoutTexToBuffer)
	})
	if d.packErr != nil {
		b.failPending()
		return d.packErr
	}

	view, err := fb.tex.view()
	if err != nil {
		b.failPending()
		return err
	}

	err = d.dispatchWithCopy(d.pack, []types.BindGroupEntry{
		textureEntry(0, view),
		bufferEntry(1, b.storage, need),
	}, groupCount(size.Width), groupCount(size.Height),
		&copyOp{src: b.storage, dst: b.staging, size: need},
		b.fence, value)
	if err != nil {
		b.failPending()
		return err
	}
	return nil
}

// failPending returns the buffer to Idle after a failed enqueue.
func (b *transferBuffer) failPending() {
	b.mu.Lock()
	b.state = mapStateIdle
	b.mu.Unlock()
}

// Map blocks on the readback fence and returns the pixel bytes. This is
// the pipeline's only synchronization point with the GPU copy.
func (b *transferBuffer) Map() ([]byte, error) {
	b.mu.Lock()
	if b.destroyed {
		b.mu.Unlock()
		return nil, gpu.ErrDestroyed
	}
	if b.state == mapStateIdle {
		b.mu.Unlock()
		return nil, gpu.ErrNoPendingReadback
	}
	if b.state == mapStateMapped {
		data := b.shadow
		b.mu.Unlock()
		return data, nil
	}
	value := b.fenceValue
	b.mu.Unlock()

	ok, err := b.dev.device.Wait(b.fence, value, mapTimeout)
	if err != nil {
		b.failPending()
		return nil, fmt.Errorf("native: readback wait: %w", err)
	}
	if !ok {
		b.failPending()
		return nil, fmt.Errorf("native: readback did not complete within %v", mapTimeout)
	}

	// The fence has completed, so the staging buffer is safe to map. The
	// mapping is transient: the bytes are copied into the shadow and the
	// buffer unmapped right away, so the slice handed out never aliases
	// memory a later readback's copy rewrites.
	mapping, err := b.dev.device.MapBuffer(b.staging, 0, b.size)
	if err != nil {
		b.failPending()
		return nil, fmt.Errorf("native: map staging buffer: %w", err)
	}
	copy(b.shadow, unsafe.Slice((*byte)(mapping.Ptr), b.size))
	if err := b.dev.device.UnmapBuffer(b.staging); err != nil {
		b.failPending()
		return nil, fmt.Errorf("native: unmap staging buffer: %w", err)
	}

	b.mu.Lock()
	b.state = mapStateMapped
	data := b.shadow
	b.mu.Unlock()
	return data, nil
}

// Unmap invalidates the mapped range. A no-op when not mapped.
func (b *transferBuffer) Unmap() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return gpu.ErrDestroyed
	}
	b.state = mapStateIdle
	return nil
}

// Destroy releases the buffers and fence. Idempotent.
func (b *transferBuffer) Destroy() {
	b.mu.Lock()
	if b.destroyed {
		b.mu.Unlock()
		return
	}
	b.destroyed = true
	b.shadow = nil
	b.mu.Unlock()

	b.dev.device.DestroyFence(b.fence)
	b.dev.device.DestroyBuffer(b.staging)
	b.dev.device.DestroyBuffer(b.storage)
}
