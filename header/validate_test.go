// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package header

import (
	"math"
	"testing"

	"github.com/nlpodyssey/tensormap/dtype"
	"github.com/stretchr/testify/assert"
)

func TestHeader_Validate_Success(t *testing.T) {
	testCases := []struct {
		name string
		h    Header
	}{
		{"no entries", Header{}},
		{"one entry", Header{Entries: Entries{
			"a": Entry{Name: "a", DType: dtype.U8, Shape: Shape{2, 3}, DataOffsets: DataOffsets{0, 6}},
		}}},
		{"entries of different types", Header{Entries: Entries{
			"a": Entry{Name: "a", DType: dtype.Bool, Shape: Shape{2, 5}, DataOffsets: DataOffsets{0, 10}},
			"b": Entry{Name: "b", DType: dtype.U16, Shape: Shape{5, 4}, DataOffsets: DataOffsets{10, 50}},
			"c": Entry{Name: "c", DType: dtype.F32, Shape: Shape{15}, DataOffsets: DataOffsets{50, 110}},
			"d": Entry{Name: "d", DType: dtype.I64, Shape: Shape{3, 5}, DataOffsets: DataOffsets{110, 230}},
		}}},
		{"zero size", Header{Entries: Entries{
			"a": Entry{Name: "a", DType: dtype.I32, Shape: Shape{0, 2}, DataOffsets: DataOffsets{0, 0}},
			"b": Entry{Name: "b", DType: dtype.F64, Shape: Shape{2, 0}, DataOffsets: DataOffsets{0, 0}},
		}}},
		{"scalars", Header{Entries: Entries{
			"a": Entry{Name: "a", DType: dtype.U8, Shape: nil, DataOffsets: DataOffsets{0, 1}},
			"b": Entry{Name: "b", DType: dtype.U64, Shape: Shape{}, DataOffsets: DataOffsets{1, 9}},
		}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.NoError(t, tc.h.Validate())
		})
	}
}

func TestHeader_Validate_Failure(t *testing.T) {
	testCases := []struct {
		name   string
		h      Header
		errMsg string
	}{
		{
			"negative ByteBufferOffset",
			Header{ByteBufferOffset: -1},
			"invalid byte-buffer offset negative value -1",
		},
		{
			"data-offsets do not begin at 0",
			Header{Entries: Entries{
				"a": Entry{Name: "a", DType: dtype.U8, Shape: Shape{2, 2}, DataOffsets: DataOffsets{1, 5}},
			}},
			`invalid entry "a": expected data-offsets begin 0, actual 1`,
		},
		{
			"names mismatch",
			Header{Entries: Entries{
				"a": Entry{Name: "b", DType: dtype.U8, Shape: Shape{2, 2}, DataOffsets: DataOffsets{0, 4}},
			}},
			`entry names mismatch: key "a", Entry.Name "b"`,
		},
		{
			"hole between data-offsets",
			Header{Entries: Entries{
				"a": Entry{Name: "a", DType: dtype.U8, Shape: Shape{2, 2}, DataOffsets: DataOffsets{0, 4}},
				"b": Entry{Name: "b", DType: dtype.U8, Shape: Shape{2, 2}, DataOffsets: DataOffsets{5, 9}},
			}},
			`invalid entry "b": expected data-offsets begin 4, actual 5`,
		},
		{
			"data-offsets end < begin",
			Header{Entries: Entries{
				"a": Entry{Name: "a", DType: dtype.U8, Shape: Shape{2, 2}, DataOffsets: DataOffsets{0, 4}},
				"b": Entry{Name: "b", DType: dtype.U8, Shape: Shape{2, 2}, DataOffsets: DataOffsets{4, 3}},
			}},
			`invalid entry "b": expected data-offsets end >= 4 (begin), actual 3`,
		},
		{
			"data-offsets larger than shape",
			Header{Entries: Entries{
				"a": Entry{Name: "a", DType: dtype.U8, Shape: Shape{2, 2}, DataOffsets: DataOffsets{0, 5}},
			}},
			`invalid entry "a": byte size computed from shape (4) differs from data-offsets size (5)`,
		},
		{
			"data-offsets smaller than shape",
			Header{Entries: Entries{
				"a": Entry{Name: "a", DType: dtype.I32, Shape: Shape{2, 2}, DataOffsets: DataOffsets{0, 4}},
			}},
			`invalid entry "a": byte size computed from shape (16) differs from data-offsets size (4)`,
		},
		{
			"invalid dtype",
			Header{Entries: Entries{
				"a": Entry{Name: "a", DType: 0, Shape: Shape{1}, DataOffsets: DataOffsets{0, 1}},
			}},
			`invalid entry "a": invalid DType(0)`,
		},
		{
			"negative shape",
			Header{Entries: Entries{
				"a": Entry{Name: "a", DType: dtype.U8, Shape: Shape{-1}, DataOffsets: DataOffsets{0, 1}},
			}},
			`invalid entry "a": shape contains negative value -1`,
		},
		{
			"shape overflow",
			Header{Entries: Entries{
				"a": Entry{Name: "a", DType: dtype.U8, Shape: Shape{math.MaxInt, 3}, DataOffsets: DataOffsets{0, 1}},
			}},
			`invalid entry "a": int overflow computing elements size from shape [9223372036854775807 3]`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.EqualError(t, tc.h.Validate(), tc.errMsg)
		})
	}
}

func TestHeader_BufferSize(t *testing.T) {
	assert.Equal(t, 0, Header{}.BufferSize())
	h := Header{Entries: Entries{
		"a": Entry{Name: "a", DataOffsets: DataOffsets{0, 4}},
		"b": Entry{Name: "b", DataOffsets: DataOffsets{4, 12}},
	}}
	assert.Equal(t, 12, h.BufferSize())
}
