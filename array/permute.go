// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package array

import "fmt"

// Permute returns a new array whose axis i is the axis axes[i] of a.
// The data is copied into an array allocated with a.Zeros.
func Permute(a Array, axes []int) (Array, error) {
	shape := a.Shape()
	if len(axes) != len(shape) {
		return nil, fmt.Errorf("permutation %v does not match array rank %d", axes, len(shape))
	}
	seen := make([]bool, len(shape))
	newShape := make([]int, len(shape))
	for i, ax := range axes {
		if ax < 0 || ax >= len(shape) || seen[ax] {
			return nil, fmt.Errorf("invalid axes permutation %v", axes)
		}
		seen[ax] = true
		newShape[i] = shape[ax]
	}

	out, err := a.Zeros(newShape)
	if err != nil {
		return nil, err
	}

	// trailing axes left in place are copied as contiguous chunks
	lead := len(axes)
	for lead > 0 && axes[lead-1] == lead-1 {
		lead--
	}
	chunk := a.DType().Size()
	for _, v := range shape[lead:] {
		chunk *= v
	}

	n, err := ShapeSize(newShape[:lead])
	if err != nil {
		return nil, err
	}
	if chunk == 0 || n == 0 {
		return out, nil
	}

	src, dst := a.Data(), out.Data()
	st := strides(shape)
	index := make([]int, lead)
	for flat := 0; flat < n; flat++ {
		offset := 0
		for i := 0; i < lead; i++ {
			offset += index[i] * st[axes[i]]
		}
		offset *= a.DType().Size()
		copy(dst[flat*chunk:(flat+1)*chunk], src[offset:offset+chunk])

		for i := lead - 1; i >= 0; i-- {
			index[i]++
			if index[i] < newShape[i] {
				break
			}
			index[i] = 0
		}
	}
	return out, nil
}
