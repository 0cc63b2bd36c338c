// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package filter

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseChain(t *testing.T) {
	tests := []struct {
		name string
		spec string
		want []StageSpec
	}{
		{
			name: "empty",
			spec: "",
			want: nil,
		},
		{
			name: "whitespace only",
			spec: "   ",
			want: nil,
		},
		{
			name: "single filter",
			spec: "identity",
			want: []StageSpec{{Name: "identity"}},
		},
		{
			name: "two filters",
			spec: "identity:invert",
			want: []StageSpec{{Name: "identity"}, {Name: "invert"}},
		},
		{
			name: "options",
			spec: "scale{width=320,height=240}",
			want: []StageSpec{{
				Name:    "scale",
				Options: Options{"width": "320", "height": "240"},
			}},
		},
		{
			name: "options then plain",
			spec: "scale{width=320}:invert",
			want: []StageSpec{
				{Name: "scale", Options: Options{"width": "320"}},
				{Name: "invert"},
			},
		},
		{
			name: "plain then options",
			spec: "invert:scale{height=240}",
			want: []StageSpec{
				{Name: "invert"},
				{Name: "scale", Options: Options{"height": "240"}},
			},
		},
		{
			name: "empty option list",
			spec: "identity{}",
			want: []StageSpec{{Name: "identity"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseChain(tt.spec)
			if err != nil {
				t.Fatalf("ParseChain(%q) failed: %v", tt.spec, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseChain(%q) = %+v, want %+v", tt.spec, got, tt.want)
			}
		})
	}
}

func TestParseChainErrors(t *testing.T) {
	tests := []struct {
		name string
		spec string
	}{
		{name: "unterminated options", spec: "scale{width=320"},
		{name: "empty name", spec: ":invert"},
		{name: "empty name with options", spec: "{width=320}"},
		{name: "option without value", spec: "scale{width}"},
		{name: "trailing separator", spec: "identity:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseChain(tt.spec)
			if err == nil {
				t.Fatalf("ParseChain(%q) succeeded, want error", tt.spec)
			}
			var specErr *SpecError
			if !errors.As(err, &specErr) {
				t.Errorf("ParseChain(%q) error = %T, want *SpecError", tt.spec, err)
			}
		})
	}
}

func TestFormatChainRoundTrip(t *testing.T) {
	specs := []string{
		"identity",
		"identity:invert",
		"scale{height=240,width=320}:invert",
	}
	for _, spec := range specs {
		stages, err := ParseChain(spec)
		if err != nil {
			t.Fatalf("ParseChain(%q) failed: %v", spec, err)
		}
		if got := FormatChain(stages); got != spec {
			t.Errorf("FormatChain(ParseChain(%q)) = %q", spec, got)
		}
	}
}
