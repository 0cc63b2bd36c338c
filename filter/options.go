// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package filter

import (
	"fmt"
	"strconv"
)

// Options is a filter's parsed key=value option set.
// A nil Options behaves as an empty set.
type Options map[string]string

// Has reports whether key is present.
func (o Options) Has(key string) bool {
	_, ok := o[key]
	return ok
}

// String returns the value for key, or def when absent.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		return v
	}
	return def
}

// Int returns the integer value for key, or def when absent.
// A present but malformed value is an OptionError.
func (o Options) Int(key string, def int) (int, error) {
	v, ok := o[key]
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &OptionError{Key: key, Value: v, Want: "integer"}
	}
	return n, nil
}

// Float returns the float value for key, or def when absent.
func (o Options) Float(key string, def float64) (float64, error) {
	v, ok := o[key]
	if !ok {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, &OptionError{Key: key, Value: v, Want: "number"}
	}
	return f, nil
}

// Bool returns the boolean value for key, or def when absent.
func (o Options) Bool(key string, def bool) (bool, error) {
	v, ok := o[key]
	if !ok {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, &OptionError{Key: key, Value: v, Want: "boolean"}
	}
	return b, nil
}

// OptionError indicates a filter option value could not be parsed.
type OptionError struct {
	Key   string
	Value string
	Want  string
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("filter: option %q: %q is not a valid %s", e.Key, e.Value, e.Want)
}
