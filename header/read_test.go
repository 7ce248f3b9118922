// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package header

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"testing"
	"testing/iotest"

	"github.com/nlpodyssey/tensormap/dtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead_Success(t *testing.T) {
	testCases := []struct {
		name string
		json string
		want Header
	}{
		{
			"empty object",
			`{}`,
			Header{},
		},
		{
			"empty metadata",
			`{"__metadata__": {}}`,
			Header{},
		},
		{
			"metadata",
			`{"__metadata__": {"format": "tensormap/1", "blocks": "2"}}`,
			Header{Metadata: Metadata{"format": "tensormap/1", "blocks": "2"}},
		},
		{
			"entries",
			`{"keys": {"dtype": "I32", "shape": [2, 1], "data_offsets": [0, 8]},` +
				`"blocks/0/values": {"dtype": "F64", "shape": [1, 1], "data_offsets": [8, 16]}}`,
			Header{Entries: Entries{
				"keys":            Entry{Name: "keys", DType: dtype.I32, Shape: Shape{2, 1}, DataOffsets: DataOffsets{Begin: 0, End: 8}},
				"blocks/0/values": Entry{Name: "blocks/0/values", DType: dtype.F64, Shape: Shape{1, 1}, DataOffsets: DataOffsets{Begin: 8, End: 16}},
			}},
		},
		{
			"padding before and after",
			" \n\r\t" + `{"keys": {"dtype": "I32", "shape": [0, 0], "data_offsets": [0, 0]},` +
				`"__metadata__": {"format": "tensormap/1"}}` + " \n\r\t",
			Header{
				Metadata: Metadata{"format": "tensormap/1"},
				Entries: Entries{
					"keys": Entry{Name: "keys", DType: dtype.I32, Shape: Shape{0, 0}, DataOffsets: DataOffsets{Begin: 0, End: 0}},
				},
			},
		},
	}

	for _, tc := range testCases {
		want := tc.want
		want.ByteBufferOffset = 8 + len(tc.json)

		for _, byteBufferSize := range []int{0, 100} {
			t.Run(fmt.Sprintf("%s plus %d bytes", tc.name, byteBufferSize), func(t *testing.T) {
				data := makeData(tc.json, byteBufferSize)
				h, err := Read(bytes.NewReader(data))
				require.NoError(t, err)
				assert.Equal(t, want, h)
			})
		}
	}
}

func TestRead_Failure(t *testing.T) {
	entry := func(fields string) string {
		return `{"keys": {` + fields + `}}`
	}
	testCases := []struct {
		name   string
		json   string
		errMsg string
	}{
		{"empty header", "", "header size too small: 0"},
		{"one byte header", "{", "header size too small: 1"},
		{"trailing number", `{"__metadata__": {}}0`, "failed to JSON-decode header: unexpected data at byte offset 20"},
		{"trailing garbage", `{"__metadata__": {}}#`, "invalid character '#'"},
		{"truncated JSON", `{"keys": {"dtype"`, "failed to JSON-decode header: unexpected EOF"},
		{"not an object", `[]`, "failed to JSON-decode header"},
		{"metadata values are not strings", `{"__metadata__": {"blocks": 2}}`, "failed to interpret header metadata"},
		{"no dtype", entry(`"shape": [1, 1], "data_offsets": [0, 4]`), `failed to interpret header entry "keys": "dtype" is missing`},
		{"no shape", entry(`"dtype": "I32", "data_offsets": [0, 4]`), `failed to interpret header entry "keys": "shape" is missing`},
		{"no data_offsets", entry(`"dtype": "I32", "shape": [1, 1]`), `failed to interpret header entry "keys": "data_offsets" is missing`},
		{"extra field", entry(`"dtype": "I32", "shape": [1, 1], "data_offsets": [0, 4], "names": ["a"]`), `unknown field "names"`},
		{"numeric dtype", entry(`"dtype": 9, "shape": [1, 1], "data_offsets": [0, 4]`), `failed to JSON-unmarshal DType from value "9"`},
		{"unknown dtype", entry(`"dtype": "I24", "shape": [1, 1], "data_offsets": [0, 4]`), `failed to JSON-unmarshal DType from value "\"I24\""`},
		{"shape as string", entry(`"dtype": "I32", "shape": "1x1", "data_offsets": [0, 4]`), `failed to interpret header entry "keys"`},
		{"fractional shape", entry(`"dtype": "I32", "shape": [1, 0.5], "data_offsets": [0, 4]`), `failed to interpret header entry "keys"`},
		{"three data_offsets", entry(`"dtype": "I32", "shape": [1, 1], "data_offsets": [0, 4, 8]`), "bad data-offsets length: expected 2, actual 3"},
		{"data_offsets as strings", entry(`"dtype": "I32", "shape": [1, 1], "data_offsets": ["0", "4"]`), `failed to interpret header entry "keys"`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h, err := Read(bytes.NewReader(makeData(tc.json, 0)))
			require.ErrorContains(t, err, tc.errMsg)
			assert.Equal(t, Header{}, h)
		})
	}

	t.Run("size overflows int", func(t *testing.T) {
		data := make([]byte, 8)
		binary.LittleEndian.PutUint64(data, math.MaxUint64)
		_, err := Read(bytes.NewReader(data))
		require.EqualError(t, err, "header size too large: 18446744073709551615")
	})

	t.Run("short size", func(t *testing.T) {
		_, err := Read(iotest.DataErrReader(bytes.NewReader([]byte{16, 0, 0})))
		require.EqualError(t, err, "failed to read header size: unexpected EOF")
	})

	t.Run("short content", func(t *testing.T) {
		data := makeData(`{"__metadata__": {}}`, 0)
		_, err := Read(iotest.DataErrReader(bytes.NewReader(data[:len(data)-4])))
		require.EqualError(t, err, "failed to JSON-decode header: unexpected EOF")
	})
}

func makeData(json string, byteBufferSize int) []byte {
	data := make([]byte, 8+len(json)+byteBufferSize)
	binary.LittleEndian.PutUint64(data, uint64(len(json)))
	copy(data[8:len(json)+8], json)
	for i := len(json) + 8; i < len(data); i++ {
		data[i] = 0xff
	}
	return data
}
