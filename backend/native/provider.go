// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package native

import (
	"errors"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"
)

// DeviceHandle provides GPU device access from the host application.
//
// The host (e.g. a gogpu.App) owns the device and queue; the pipeline
// receives them through this interface and never creates its own. It is
// an alias for gpucontext.DeviceProvider so a provider written for any
// library in the gpucontext ecosystem plugs in unchanged.
type DeviceHandle = gpucontext.DeviceProvider

// ErrNotHALBacked is returned when a provider's device or queue is not
// backed by gogpu/wgpu's HAL.
var ErrNotHALBacked = errors.New("native: device provider is not HAL-backed")

// NewFromProvider creates a Device from a host device provider.
//
// The provider's handles must be HAL-backed; providers bridging other
// GPU stacks get ErrNotHALBacked and should construct their own backend.
func NewFromProvider(h DeviceHandle) (*Device, error) {
	if h == nil {
		return nil, ErrNilHALDevice
	}
	dev, ok := h.Device().(hal.Device)
	if !ok {
		return nil, ErrNotHALBacked
	}
	queue, ok := h.Queue().(hal.Queue)
	if !ok {
		return nil, ErrNotHALBacked
	}
	return New(dev, queue, nil)
}
