// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package native

import (
	"bytes"
	"errors"
	"testing"
	"time"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/glfx/gpu"
)

// mockHALBuffer is a test double for hal.Buffer with host-visible backing.
type mockHALBuffer struct {
	label string
	data  []byte
}

func (b *mockHALBuffer) Destroy()              {}
func (b *mockHALBuffer) NativeHandle() uintptr { return uintptr(unsafe.Pointer(b)) }

// mockHALFence is a test double for hal.Fence.
type mockHALFence struct{}

func (f *mockHALFence) Destroy() {}

// mockHALTexture is a test double for hal.Texture.
type mockHALTexture struct {
	width  uint32
	height uint32
	format gputypes.TextureFormat
}

func (t *mockHALTexture) Destroy()                            {}
func (t *mockHALTexture) NativeHandle() uintptr               { return 0 }
func (t *mockHALTexture) CurrentUsage() gputypes.TextureUsage { return 0 }
func (t *mockHALTexture) AddPendingRef()                      {}
func (t *mockHALTexture) DecPendingRef()                      {}

// mockHALTextureView is a test double for hal.TextureView.
type mockHALTextureView struct {
	texture hal.Texture
}

func (v *mockHALTextureView) Destroy()              {}
func (v *mockHALTextureView) NativeHandle() uintptr { return 0 }

// mockHALDevice is a test double for hal.Device. Buffers it creates are
// kept by label so tests can reach their backing bytes.
type mockHALDevice struct {
	buffers map[string]*mockHALBuffer

	mapErr     error
	waitOK     bool
	waitErr    error
	mapCalls   int
	unmapCalls int
}

func newMockHALDevice() *mockHALDevice {
	return &mockHALDevice{buffers: make(map[string]*mockHALBuffer), waitOK: true}
}

func (d *mockHALDevice) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	b := &mockHALBuffer{label: desc.Label, data: make([]byte, desc.Size)}
	d.buffers[desc.Label] = b
	return b, nil
}

func (d *mockHALDevice) DestroyBuffer(_ hal.Buffer) {}

func (d *mockHALDevice) MapBuffer(buffer hal.Buffer, offset, size uint64) (hal.BufferMapping, error) {
	d.mapCalls++
	if d.mapErr != nil {
		return hal.BufferMapping{}, d.mapErr
	}
	b := buffer.(*mockHALBuffer)
	if offset+size > uint64(len(b.data)) {
		return hal.BufferMapping{}, hal.ErrInvalidMapRange
	}
	return hal.BufferMapping{Ptr: unsafe.Pointer(&b.data[offset]), IsCoherent: true}, nil
}

func (d *mockHALDevice) UnmapBuffer(_ hal.Buffer) error {
	d.unmapCalls++
	return nil
}

func (d *mockHALDevice) CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error) {
	return &mockHALTexture{
		width:  desc.Size.Width,
		height: desc.Size.Height,
		format: desc.Format,
	}, nil
}

func (d *mockHALDevice) DestroyTexture(_ hal.Texture) {}

func (d *mockHALDevice) CreateTextureView(texture hal.Texture, _ *hal.TextureViewDescriptor) (hal.TextureView, error) {
	return &mockHALTextureView{texture: texture}, nil
}

func (d *mockHALDevice) DestroyTextureView(_ hal.TextureView) {}

//nolint:nilnil // Mock: unused interface methods.
func (d *mockHALDevice) CreateSampler(_ *hal.SamplerDescriptor) (hal.Sampler, error) {
	return nil, nil
}
func (d *mockHALDevice) DestroySampler(_ hal.Sampler) {}

//nolint:nilnil // Mock: unused interface methods.
func (d *mockHALDevice) CreateBindGroupLayout(_ *hal.BindGroupLayoutDescriptor) (hal.BindGroupLayout, error) {
	return nil, nil
}
func (d *mockHALDevice) DestroyBindGroupLayout(_ hal.BindGroupLayout) {}

//nolint:nilnil // Mock: unused interface methods.
func (d *mockHALDevice) CreateBindGroup(_ *hal.BindGroupDescriptor) (hal.BindGroup, error) {
	return nil, nil
}
func (d *mockHALDevice) DestroyBindGroup(_ hal.BindGroup) {}

//nolint:nilnil // Mock: unused interface methods.
func (d *mockHALDevice) CreatePipelineLayout(_ *hal.PipelineLayoutDescriptor) (hal.PipelineLayout, error) {
	return nil, nil
}
func (d *mockHALDevice) DestroyPipelineLayout(_ hal.PipelineLayout) {}

//nolint:nilnil // Mock: unused interface methods.
func (d *mockHALDevice) CreateShaderModule(_ *hal.ShaderModuleDescriptor) (hal.ShaderModule, error) {
	return nil, nil
}
func (d *mockHALDevice) DestroyShaderModule(_ hal.ShaderModule) {}

//nolint:nilnil // Mock: unused interface methods.
func (d *mockHALDevice) CreateRenderPipeline(_ *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	return nil, nil
}
func (d *mockHALDevice) DestroyRenderPipeline(_ hal.RenderPipeline) {}

//nolint:nilnil // Mock: unused interface methods.
func (d *mockHALDevice) CreateComputePipeline(_ *hal.ComputePipelineDescriptor) (hal.ComputePipeline, error) {
	return nil, nil
}
func (d *mockHALDevice) DestroyComputePipeline(_ hal.ComputePipeline) {}

//nolint:nilnil // Mock: unused interface methods.
func (d *mockHALDevice) CreateCommandEncoder(_ *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	return nil, nil
}

func (d *mockHALDevice) CreateFence() (hal.Fence, error) { return &mockHALFence{}, nil }
func (d *mockHALDevice) DestroyFence(_ hal.Fence)        {}

func (d *mockHALDevice) Wait(_ hal.Fence, _ uint64, _ time.Duration) (bool, error) {
	return d.waitOK, d.waitErr
}

func (d *mockHALDevice) Destroy() {}

// mockHALQueue is a test double for hal.Queue.
type mockHALQueue struct {
	writeTextureErr error
	textureWrites   int
	lastBytesPerRow uint32
	lastPixels      []byte
}

func (q *mockHALQueue) Submit(_ []hal.CommandBuffer, _ hal.Fence, _ uint64) error { return nil }

func (q *mockHALQueue) WriteBuffer(_ hal.Buffer, _ uint64, _ []byte) error { return nil }

func (q *mockHALQueue) WriteTexture(_ *hal.ImageCopyTexture, data []byte, layout *hal.ImageDataLayout, _ *hal.Extent3D) error {
	q.textureWrites++
	q.lastBytesPerRow = layout.BytesPerRow
	q.lastPixels = append([]byte(nil), data...)
	return q.writeTextureErr
}

func newMockDevice(t *testing.T) (*Device, *mockHALDevice, *mockHALQueue) {
	t.Helper()
	halDev := newMockHALDevice()
	queue := &mockHALQueue{}
	dev, err := New(halDev, queue, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return dev, halDev, queue
}

// pendingTransfer puts a transfer buffer into the state EnqueueReadback
// leaves behind, without going through a kernel dispatch.
func pendingTransfer(t *testing.T, dev *Device, size int) (*transferBuffer, *mockHALBuffer) {
	t.Helper()
	buf, err := dev.CreateTransferBuffer(size)
	if err != nil {
		t.Fatalf("CreateTransferBuffer failed: %v", err)
	}
	tb := buf.(*transferBuffer)
	tb.mu.Lock()
	tb.state = mapStatePending
	tb.fenceValue = 1
	tb.mu.Unlock()

	halDev := dev.device.(*mockHALDevice)
	staging, ok := halDev.buffers["glfx-readback-staging"]
	if !ok {
		t.Fatal("no staging buffer created")
	}
	return tb, staging
}

func TestMapReturnsStagingContents(t *testing.T) {
	dev, halDev, _ := newMockDevice(t)
	defer dev.Destroy()

	tb, staging := pendingTransfer(t, dev, 16)
	defer tb.Destroy()
	for i := range staging.data {
		staging.data[i] = byte(0xA0 + i)
	}

	got, err := tb.Map()
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	if !bytes.Equal(got, staging.data) {
		t.Fatalf("Map = % x, want staging contents % x", got, staging.data)
	}
	if halDev.mapCalls != 1 || halDev.unmapCalls != 1 {
		t.Errorf("map/unmap calls = %d/%d, want 1/1", halDev.mapCalls, halDev.unmapCalls)
	}

	// The mapping is released before Map returns, so the slice must not
	// alias the staging memory.
	staging.data[0] ^= 0xFF
	if got[0] == staging.data[0] {
		t.Error("mapped slice aliases the staging buffer")
	}

	// A second Map while still mapped returns the same bytes without
	// touching the HAL again.
	again, err := tb.Map()
	if err != nil {
		t.Fatalf("second Map failed: %v", err)
	}
	if &again[0] != &got[0] {
		t.Error("second Map returned a different slice")
	}
	if halDev.mapCalls != 1 {
		t.Errorf("map calls after second Map = %d, want 1", halDev.mapCalls)
	}
}

func TestMapWithoutReadback(t *testing.T) {
	dev, _, _ := newMockDevice(t)
	defer dev.Destroy()

	buf, err := dev.CreateTransferBuffer(16)
	if err != nil {
		t.Fatalf("CreateTransferBuffer failed: %v", err)
	}
	defer buf.Destroy()

	if _, err := buf.Map(); !errors.Is(err, gpu.ErrNoPendingReadback) {
		t.Errorf("Map = %v, want ErrNoPendingReadback", err)
	}
}

func TestMapFailureResetsState(t *testing.T) {
	dev, halDev, _ := newMockDevice(t)
	defer dev.Destroy()

	tb, _ := pendingTransfer(t, dev, 16)
	defer tb.Destroy()

	halDev.mapErr = errors.New("boom")
	if _, err := tb.Map(); !errors.Is(err, halDev.mapErr) {
		t.Fatalf("Map = %v, want wrapped map error", err)
	}

	// The failed map returned the buffer to idle.
	if _, err := tb.Map(); !errors.Is(err, gpu.ErrNoPendingReadback) {
		t.Errorf("Map after failure = %v, want ErrNoPendingReadback", err)
	}
}

func TestUploadPropagatesWriteError(t *testing.T) {
	dev, _, queue := newMockDevice(t)
	defer dev.Destroy()

	tex, err := dev.CreateTexture(2, 2, gputypes.TextureFormatRGBA8Unorm)
	if err != nil {
		t.Fatalf("CreateTexture failed: %v", err)
	}
	defer tex.Destroy()

	queue.writeTextureErr = errors.New("device lost")
	if err := tex.Upload(make([]byte, 16), 0); !errors.Is(err, queue.writeTextureErr) {
		t.Errorf("Upload = %v, want wrapped queue error", err)
	}

	queue.writeTextureErr = nil
	pixels := make([]byte, 16)
	for i := range pixels {
		pixels[i] = byte(i)
	}
	if err := tex.Upload(pixels, 0); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if queue.textureWrites != 2 {
		t.Errorf("texture writes = %d, want 2", queue.textureWrites)
	}
	if queue.lastBytesPerRow != 8 {
		t.Errorf("bytes per row = %d, want 8", queue.lastBytesPerRow)
	}
	if !bytes.Equal(queue.lastPixels, pixels) {
		t.Error("queue received different pixels than uploaded")
	}
}
