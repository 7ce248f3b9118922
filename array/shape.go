// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package array

import (
	"fmt"
	"math"
	"math/bits"
)

// ShapeSize returns the number of elements described by shape.
// An empty shape describes a scalar.
//
// It fails if the shape contains negative values, or if the size
// overflows the int type.
func ShapeSize(shape []int) (int, error) {
	size := uint(1)
	for _, v := range shape {
		if v < 0 {
			return 0, fmt.Errorf("shape contains negative value %d", v)
		}
		var hi uint
		if hi, size = bits.Mul(size, uint(v)); hi != 0 {
			return 0, fmt.Errorf("int overflow computing elements size from shape %v", shape)
		}
	}
	if size > math.MaxInt {
		return 0, fmt.Errorf("elements size computed from shape is too large for int type: %d", size)
	}
	return int(size), nil
}

// ByteSize returns the number of bytes needed by shape elements of
// elemSize bytes each.
func ByteSize(shape []int, elemSize int) (int, error) {
	size, err := ShapeSize(shape)
	if err != nil {
		return 0, err
	}
	hi, n := bits.Mul(uint(size), uint(elemSize))
	if hi != 0 || n > math.MaxInt {
		return 0, fmt.Errorf("int overflow computing byte size from shape %v", shape)
	}
	return int(n), nil
}

// strides returns the row-major strides, in elements, of shape.
func strides(shape []int) []int {
	s := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		s[i] = acc
		acc *= shape[i]
	}
	return s
}

func copyShape(shape []int) []int {
	if len(shape) == 0 {
		return nil
	}
	s := make([]int, len(shape))
	copy(s, shape)
	return s
}
