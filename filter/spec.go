// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package filter

import (
	"fmt"
	"sort"
	"strings"
)

// StageSpec is one parsed element of a chain specification.
type StageSpec struct {
	Name    string
	Options Options
}

// SpecError indicates a malformed chain specification.
type SpecError struct {
	Spec   string
	Reason string
}

func (e *SpecError) Error() string {
	return fmt.Sprintf("filter: bad chain spec %q: %s", e.Spec, e.Reason)
}

// ParseChain parses a textual chain specification into ordered stage specs.
//
// The grammar is colon-separated stage names, each optionally followed by a
// brace-enclosed comma-separated option list:
//
//	identity:invert
//	scale{width=320,height=240}:invert
//
// Option values may not contain commas or braces. An empty spec yields an
// empty chain. Filter names are not resolved here; unknown names surface
// when the chain appends the stage.
func ParseChain(spec string) ([]StageSpec, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}
	if strings.HasSuffix(spec, ":") {
		return nil, &SpecError{Spec: spec, Reason: "empty filter name"}
	}

	var stages []StageSpec
	for len(spec) > 0 {
		var raw string
		// Stage separators inside {...} belong to the option list.
		if brace := strings.IndexByte(spec, '{'); brace >= 0 && (strings.IndexByte(spec, ':') < 0 || brace < strings.IndexByte(spec, ':')) {
			end := strings.IndexByte(spec, '}')
			if end < brace {
				return nil, &SpecError{Spec: spec, Reason: "unterminated option list"}
			}
			raw = spec[:end+1]
			spec = strings.TrimPrefix(spec[end+1:], ":")
		} else if sep := strings.IndexByte(spec, ':'); sep >= 0 {
			raw = spec[:sep]
			spec = spec[sep+1:]
		} else {
			raw = spec
			spec = ""
		}

		stage, err := parseStage(raw)
		if err != nil {
			return nil, err
		}
		stages = append(stages, stage)
	}
	return stages, nil
}

func parseStage(raw string) (StageSpec, error) {
	name := raw
	var opts Options

	if brace := strings.IndexByte(raw, '{'); brace >= 0 {
		if !strings.HasSuffix(raw, "}") {
			return StageSpec{}, &SpecError{Spec: raw, Reason: "unterminated option list"}
		}
		name = raw[:brace]
		body := raw[brace+1 : len(raw)-1]
		if body != "" {
			opts = make(Options)
			for _, pair := range strings.Split(body, ",") {
				key, value, ok := strings.Cut(pair, "=")
				key = strings.TrimSpace(key)
				if !ok || key == "" {
					return StageSpec{}, &SpecError{Spec: raw, Reason: fmt.Sprintf("option %q is not key=value", pair)}
				}
				opts[key] = strings.TrimSpace(value)
			}
		}
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return StageSpec{}, &SpecError{Spec: raw, Reason: "empty filter name"}
	}
	return StageSpec{Name: name, Options: opts}, nil
}

// FormatChain renders stage specs back into the textual form ParseChain
// accepts. Options are emitted in sorted key order.
func FormatChain(stages []StageSpec) string {
	parts := make([]string, len(stages))
	for i, s := range stages {
		parts[i] = s.Name
		if len(s.Options) > 0 {
			pairs := make([]string, 0, len(s.Options))
			for _, k := range sortedKeys(s.Options) {
				pairs = append(pairs, k+"="+s.Options[k])
			}
			parts[i] += "{" + strings.Join(pairs, ",") + "}"
		}
	}
	return strings.Join(parts, ":")
}

func sortedKeys(o Options) []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
