// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package filter

import (
	"errors"
	"testing"
)

func TestOptionsDefaults(t *testing.T) {
	var o Options // nil behaves as empty

	if got := o.String("k", "def"); got != "def" {
		t.Errorf("String default = %q, want def", got)
	}
	if got, err := o.Int("k", 7); err != nil || got != 7 {
		t.Errorf("Int default = %d, %v, want 7, nil", got, err)
	}
	if got, err := o.Float("k", 1.5); err != nil || got != 1.5 {
		t.Errorf("Float default = %v, %v, want 1.5, nil", got, err)
	}
	if got, err := o.Bool("k", true); err != nil || !got {
		t.Errorf("Bool default = %v, %v, want true, nil", got, err)
	}
	if o.Has("k") {
		t.Error("Has on empty options")
	}
}

func TestOptionsValues(t *testing.T) {
	o := Options{"w": "320", "f": "0.5", "b": "true", "s": "linear"}

	if got, err := o.Int("w", 0); err != nil || got != 320 {
		t.Errorf("Int(w) = %d, %v", got, err)
	}
	if got, err := o.Float("f", 0); err != nil || got != 0.5 {
		t.Errorf("Float(f) = %v, %v", got, err)
	}
	if got, err := o.Bool("b", false); err != nil || !got {
		t.Errorf("Bool(b) = %v, %v", got, err)
	}
	if got := o.String("s", ""); got != "linear" {
		t.Errorf("String(s) = %q", got)
	}
}

func TestOptionsMalformed(t *testing.T) {
	o := Options{"w": "wide", "f": "much", "b": "maybe"}

	checks := []func() error{
		func() error { _, err := o.Int("w", 0); return err },
		func() error { _, err := o.Float("f", 0); return err },
		func() error { _, err := o.Bool("b", false); return err },
	}
	for i, check := range checks {
		err := check()
		if err == nil {
			t.Errorf("check %d: malformed value accepted", i)
			continue
		}
		var optErr *OptionError
		if !errors.As(err, &optErr) {
			t.Errorf("check %d: error = %T, want *OptionError", i, err)
		}
	}
}
