// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package header

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/nlpodyssey/tensormap/dtype"
)

// Entry describes one array stored in the container.
type Entry struct {
	Name        string      `json:"-"`
	DType       dtype.DType `json:"dtype"`
	Shape       Shape       `json:"shape"`
	DataOffsets DataOffsets `json:"data_offsets"`
}

// Size returns the number of data bytes of the entry.
func (e Entry) Size() int {
	return e.DataOffsets.End - e.DataOffsets.Begin
}

// Entries maps entry names to entries.
type Entries map[string]Entry

// Sorted returns the entries ordered by data offsets.
func (es Entries) Sorted() []Entry {
	out := make([]Entry, 0, len(es))
	for _, e := range es {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b Entry) int {
		return a.DataOffsets.Compare(b.DataOffsets)
	})
	return out
}

// Shape is the shape of an array. A nil Shape is encoded as an empty JSON
// array rather than null.
type Shape []int

// MarshalJSON satisfies json.Marshaler.
func (s Shape) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]int(s))
}

// DataOffsets is the "[Begin, End)" byte range of an array within the
// byte-buffer. It is encoded as a JSON array of two numbers.
type DataOffsets struct {
	Begin int
	End   int
}

// Compare orders offsets by Begin, then by End.
func (a DataOffsets) Compare(b DataOffsets) int {
	if c := cmp.Compare(a.Begin, b.Begin); c != 0 {
		return c
	}
	return cmp.Compare(a.End, b.End)
}

// MarshalJSON satisfies json.Marshaler.
func (a DataOffsets) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{a.Begin, a.End})
}

// UnmarshalJSON satisfies json.Unmarshaler.
func (a *DataOffsets) UnmarshalJSON(b []byte) error {
	var decoded []int
	if err := json.Unmarshal(b, &decoded); err != nil {
		return err
	}
	if len(decoded) != 2 {
		return fmt.Errorf("bad data-offsets length: expected 2, actual %d", len(decoded))
	}
	*a = DataOffsets{Begin: decoded[0], End: decoded[1]}
	return nil
}
