// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package array

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/nlpodyssey/tensormap/dtype"
	"github.com/nlpodyssey/tensormap/float16"
)

// Element is the set of Go types that can be converted to and from the
// raw data of an Array, according to the following pairs:
//
//	DType | Go type
//	------+---------------
//	Bool  | bool
//	U8    | uint8
//	I8    | int8
//	U16   | uint16
//	I16   | int16
//	F16   | float16.F16
//	BF16  | float16.BF16
//	U32   | uint32
//	I32   | int32
//	F32   | float32
//	U64   | uint64
//	I64   | int64
//	F64   | float64
type Element interface {
	bool | uint8 | int8 | uint16 | int16 | float16.F16 | float16.BF16 |
		uint32 | int32 | float32 | uint64 | int64 | float64
}

// DTypeOf returns the DType matching the Go type T.
func DTypeOf[T Element]() dtype.DType {
	var zero T
	switch any(zero).(type) {
	case bool:
		return dtype.Bool
	case uint8:
		return dtype.U8
	case int8:
		return dtype.I8
	case uint16:
		return dtype.U16
	case int16:
		return dtype.I16
	case float16.F16:
		return dtype.F16
	case float16.BF16:
		return dtype.BF16
	case uint32:
		return dtype.U32
	case int32:
		return dtype.I32
	case float32:
		return dtype.F32
	case uint64:
		return dtype.U64
	case int64:
		return dtype.I64
	case float64:
		return dtype.F64
	}
	panic(fmt.Sprintf("unsupported element type %T", zero))
}

// FromSlice creates a Dense array with the given shape, converting values
// to raw little-endian data. The values are copied.
func FromSlice[T Element](shape []int, values []T) (*Dense, error) {
	return New(DTypeOf[T](), shape, encode(values))
}

// FromFloat64s is a shortcut for FromSlice with F64 elements.
func FromFloat64s(shape []int, values []float64) (*Dense, error) {
	return FromSlice(shape, values)
}

// Values interprets the raw data of a as a slice of T. It fails if the
// DType of the array does not match T.
func Values[T Element](a Array) ([]T, error) {
	if dt := DTypeOf[T](); a.DType() != dt {
		return nil, fmt.Errorf("expected DType %s to match element type %T, actual DType %s", dt, *new(T), a.DType())
	}
	out := make([]T, len(a.Data())/a.DType().Size())
	decode(a.Data(), out)
	return out, nil
}

// Float64s converts every element of a to float64, whatever its DType.
// Booleans become 0 or 1; 64-bit integers may lose precision.
func Float64s(a Array) []float64 {
	data := a.Data()
	dt := a.DType()
	size := dt.Size()
	if size <= 0 {
		return nil
	}
	out := make([]float64, len(data)/size)
	for i := range out {
		out[i] = elementFloat64(dt, data[i*size:(i+1)*size])
	}
	return out
}

func elementFloat64(dt dtype.DType, b []byte) float64 {
	switch {
	case dt == dtype.Bool:
		if b[0] != 0 {
			return 1
		}
		return 0
	case dt.IsInteger():
		return integerFloat64(b, dt.IsSigned())
	case dt.IsFloat():
		return floatFloat64(dt, b)
	}
	panic(fmt.Sprintf("invalid or unsupported DType %s", dt))
}

// integerFloat64 converts a little-endian integer of len(b) bytes.
func integerFloat64(b []byte, signed bool) float64 {
	var u uint64
	for i := len(b) - 1; i >= 0; i-- {
		u = u<<8 | uint64(b[i])
	}
	if !signed {
		return float64(u)
	}
	shift := 64 - 8*len(b)
	return float64(int64(u<<shift) >> shift)
}

func floatFloat64(dt dtype.DType, b []byte) float64 {
	le := binary.LittleEndian
	switch dt {
	case dtype.F16:
		return float16.F16(le.Uint16(b)).Float64()
	case dtype.BF16:
		return float16.BF16(le.Uint16(b)).Float64()
	case dtype.F32:
		return float64(math.Float32frombits(le.Uint32(b)))
	default:
		return math.Float64frombits(le.Uint64(b))
	}
}

func encode[T Element](values []T) []byte {
	le := binary.LittleEndian
	switch v := any(values).(type) {
	case []bool:
		out := make([]byte, len(v))
		for i, x := range v {
			if x {
				out[i] = 1
			}
		}
		return out
	case []uint8:
		out := make([]byte, len(v))
		copy(out, v)
		return out
	case []int8:
		out := make([]byte, len(v))
		for i, x := range v {
			out[i] = byte(x)
		}
		return out
	case []uint16:
		out := make([]byte, 0, 2*len(v))
		for _, x := range v {
			out = le.AppendUint16(out, x)
		}
		return out
	case []int16:
		out := make([]byte, 0, 2*len(v))
		for _, x := range v {
			out = le.AppendUint16(out, uint16(x))
		}
		return out
	case []float16.F16:
		out := make([]byte, 0, 2*len(v))
		for _, x := range v {
			out = le.AppendUint16(out, uint16(x))
		}
		return out
	case []float16.BF16:
		out := make([]byte, 0, 2*len(v))
		for _, x := range v {
			out = le.AppendUint16(out, uint16(x))
		}
		return out
	case []uint32:
		out := make([]byte, 0, 4*len(v))
		for _, x := range v {
			out = le.AppendUint32(out, x)
		}
		return out
	case []int32:
		out := make([]byte, 0, 4*len(v))
		for _, x := range v {
			out = le.AppendUint32(out, uint32(x))
		}
		return out
	case []float32:
		out := make([]byte, 0, 4*len(v))
		for _, x := range v {
			out = le.AppendUint32(out, math.Float32bits(x))
		}
		return out
	case []uint64:
		out := make([]byte, 0, 8*len(v))
		for _, x := range v {
			out = le.AppendUint64(out, x)
		}
		return out
	case []int64:
		out := make([]byte, 0, 8*len(v))
		for _, x := range v {
			out = le.AppendUint64(out, uint64(x))
		}
		return out
	case []float64:
		out := make([]byte, 0, 8*len(v))
		for _, x := range v {
			out = le.AppendUint64(out, math.Float64bits(x))
		}
		return out
	}
	panic(fmt.Sprintf("unsupported element type %T", values))
}

func decode[T Element](data []byte, out []T) {
	le := binary.LittleEndian
	switch v := any(out).(type) {
	case []bool:
		for i := range v {
			v[i] = data[i] != 0
		}
	case []uint8:
		copy(v, data)
	case []int8:
		for i := range v {
			v[i] = int8(data[i])
		}
	case []uint16:
		for i := range v {
			v[i] = le.Uint16(data[2*i:])
		}
	case []int16:
		for i := range v {
			v[i] = int16(le.Uint16(data[2*i:]))
		}
	case []float16.F16:
		for i := range v {
			v[i] = float16.F16(le.Uint16(data[2*i:]))
		}
	case []float16.BF16:
		for i := range v {
			v[i] = float16.BF16(le.Uint16(data[2*i:]))
		}
	case []uint32:
		for i := range v {
			v[i] = le.Uint32(data[4*i:])
		}
	case []int32:
		for i := range v {
			v[i] = int32(le.Uint32(data[4*i:]))
		}
	case []float32:
		for i := range v {
			v[i] = math.Float32frombits(le.Uint32(data[4*i:]))
		}
	case []uint64:
		for i := range v {
			v[i] = le.Uint64(data[8*i:])
		}
	case []int64:
		for i := range v {
			v[i] = int64(le.Uint64(data[8*i:]))
		}
	case []float64:
		for i := range v {
			v[i] = math.Float64frombits(le.Uint64(data[8*i:]))
		}
	default:
		panic(fmt.Sprintf("unsupported element type %T", out))
	}
}
