// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package header reads, validates and writes the header of a tensor
// container: a little-endian uint64 size, followed by a JSON object
// describing each stored array and carrying free-form string metadata.
//
// The layout is the one of the safetensors format, so that containers can
// be inspected with safetensors tooling.
package header

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Header describes the arrays stored in a container, and its metadata.
type Header struct {
	Entries  Entries
	Metadata Metadata
	// ByteBufferOffset is the position where the byte-buffer holding the
	// arrays data starts, relative to the beginning of the container.
	ByteBufferOffset int
}

const metadataKey = "__metadata__"

// MarshalJSON encodes the entries and the metadata as a single JSON object.
// Keys are sorted, so that the same header always gives the same bytes.
func (h Header) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, len(h.Entries)+1)
	for name, e := range h.Entries {
		obj[name] = e
	}
	if len(h.Metadata) > 0 {
		obj[metadataKey] = map[string]string(h.Metadata)
	}
	return json.Marshal(obj)
}

// UnmarshalJSON decodes a JSON object as produced by MarshalJSON.
// ByteBufferOffset is left untouched.
func (h *Header) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := parse(raw)
	if err != nil {
		return err
	}
	parsed.ByteBufferOffset = h.ByteBufferOffset
	*h = parsed
	return nil
}

// Metadata is a set of free-form key/value string pairs.
type Metadata map[string]string

// Strings decodes the value of key as a JSON array of strings.
func (m Metadata) Strings(key string) ([]string, error) {
	v, ok := m[key]
	if !ok {
		return nil, fmt.Errorf("metadata key %q is missing", key)
	}
	var out []string
	if err := json.Unmarshal([]byte(v), &out); err != nil {
		return nil, fmt.Errorf("failed to decode metadata %q as a list of strings: %w", key, err)
	}
	if out == nil {
		return nil, fmt.Errorf("metadata %q is not a list of strings", key)
	}
	return out, nil
}

// SetStrings stores values as a JSON array under key.
func (m Metadata) SetStrings(key string, values []string) error {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return err
	}
	m[key] = string(b)
	return nil
}

// Int decodes the value of key as a non-negative integer.
func (m Metadata) Int(key string) (int, error) {
	v, ok := m[key]
	if !ok {
		return 0, fmt.Errorf("metadata key %q is missing", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("failed to decode metadata %q as an integer: %w", key, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("metadata %q is negative: %d", key, n)
	}
	return n, nil
}

// SetInt stores n under key.
func (m Metadata) SetInt(key string, n int) {
	m[key] = strconv.Itoa(n)
}
