// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package header

import (
	"fmt"

	"github.com/nlpodyssey/tensormap/array"
)

// Validate checks the consistency of the header, before any data is read
// according to it:
//
//   - ByteBufferOffset must not be negative
//   - each key of Entries must match the Name of the mapped Entry
//   - the data offsets of all entries must cover a contiguous area of the
//     byte-buffer starting at 0, without overlapping
//   - each entry must have a valid DType, and a shape without negative
//     values, whose byte size matches the size of its data offsets
//   - no computation may overflow the int type
func (h Header) Validate() error {
	if h.ByteBufferOffset < 0 {
		return fmt.Errorf("invalid byte-buffer offset negative value %d", h.ByteBufferOffset)
	}
	for name, e := range h.Entries {
		if name != e.Name {
			return fmt.Errorf("entry names mismatch: key %q, Entry.Name %q", name, e.Name)
		}
	}
	begin := 0
	for _, e := range h.Entries.Sorted() {
		if err := validateEntry(e, begin); err != nil {
			return fmt.Errorf("invalid entry %q: %w", e.Name, err)
		}
		begin = e.DataOffsets.End
	}
	return nil
}

// BufferSize returns the size of the byte-buffer described by a valid
// header.
func (h Header) BufferSize() int {
	size := 0
	for _, e := range h.Entries {
		size = max(size, e.DataOffsets.End)
	}
	return size
}

func validateEntry(e Entry, expectedBegin int) error {
	if e.DataOffsets.Begin != expectedBegin {
		return fmt.Errorf("expected data-offsets begin %d, actual %d", expectedBegin, e.DataOffsets.Begin)
	}
	if e.DataOffsets.End < e.DataOffsets.Begin {
		return fmt.Errorf("expected data-offsets end >= %d (begin), actual %d", e.DataOffsets.Begin, e.DataOffsets.End)
	}
	if err := e.DType.Validate(); err != nil {
		return err
	}
	byteSize, err := array.ByteSize(e.Shape, e.DType.Size())
	if err != nil {
		return err
	}
	if size := e.Size(); size != byteSize {
		return fmt.Errorf("byte size computed from shape (%d) differs from data-offsets size (%d)", byteSize, size)
	}
	return nil
}
