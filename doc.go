// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package glfx runs video frames through an ordered chain of GPU shader
// filters, entirely offscreen, and hands the filtered frames back to the
// host through asynchronously read-back transfer buffers.
//
// The pipeline is opened once and then fed frame by frame:
//
//	r, err := glfx.Open(glfx.Config{
//	    Width:   640,
//	    Height:  480,
//	    Filters: "scale{width=320,height=240}:invert",
//	    Device:  dev,
//	})
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	for frame := range frames {
//	    im, err := r.Filter(frame)
//	    if err != nil {
//	        return err
//	    }
//	    consume(im) // im.Release() when done
//	}
//
// Output images borrow one of a fixed ring of transfer slots. Holding an
// Image keeps its slot's memory mapped and out of the ring; when all
// slots are held, Filter blocks until a consumer releases one. Retain and
// Release make that sharing explicit and goroutine-safe.
//
// Filters are looked up by name in the filter package's registry, so
// applications can register their own stages next to the built-in
// identity, scale and invert filters.
package glfx
