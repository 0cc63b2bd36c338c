// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package glfx

import (
	"errors"
	"fmt"
)

// Errors.
var (
	// ErrClosed is returned when using a renderer that is not open.
	ErrClosed = errors.New("glfx: renderer is not open")

	// ErrNilDevice is returned when opening without a device.
	ErrNilDevice = errors.New("glfx: config has no device")

	// ErrNilFrame is returned when filtering a nil frame.
	ErrNilFrame = errors.New("glfx: nil frame")
)

// SetupError reports which step of renderer setup failed. All resources
// created before the failing step are released before it is returned.
type SetupError struct {
	Step string
	Err  error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("glfx: setup: %s: %v", e.Step, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }
