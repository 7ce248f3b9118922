// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package float16 provides the 16-bit floating point element types
// of dense arrays, stored as raw bits.
package float16

import (
	"math"

	"github.com/x448/float16"
)

// F16 is an IEEE 754 half-precision floating-point value,
// represented as raw bits (uint16).
type F16 uint16

// BF16 is a brain floating-point value, represented as raw bits (uint16):
// the upper half of an IEEE 754 single-precision value.
type BF16 uint16

// F16FromFloat32 rounds f to the nearest half-precision value.
func F16FromFloat32(f float32) F16 {
	return F16(float16.Fromfloat32(f).Bits())
}

// F16FromFloat64 rounds f to the nearest half-precision value.
func F16FromFloat64(f float64) F16 {
	return F16FromFloat32(float32(f))
}

// Float32 converts the value to single precision. The conversion is exact.
func (f F16) Float32() float32 {
	return float16.Frombits(uint16(f)).Float32()
}

// Float64 converts the value to double precision. The conversion is exact.
func (f F16) Float64() float64 {
	return float64(f.Float32())
}

// String formats the value as float16 does.
func (f F16) String() string {
	return float16.Frombits(uint16(f)).String()
}

// BF16FromFloat32 truncates f to a brain floating-point value, rounding
// the discarded mantissa bits to nearest even.
func BF16FromFloat32(f float32) BF16 {
	if f != f {
		return BF16(0x7fc0)
	}
	bits := math.Float32bits(f)
	rounding := uint32(0x7fff) + (bits>>16)&1
	return BF16((bits + rounding) >> 16)
}

// BF16FromFloat64 converts f to a brain floating-point value.
func BF16FromFloat64(f float64) BF16 {
	return BF16FromFloat32(float32(f))
}

// Float32 converts the value to single precision. The conversion is exact.
func (f BF16) Float32() float32 {
	return math.Float32frombits(uint32(f) << 16)
}

// Float64 converts the value to double precision. The conversion is exact.
func (f BF16) Float64() float64 {
	return float64(f.Float32())
}
