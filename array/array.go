// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package array defines the dense array contract used to store the data
// of tensor blocks, together with Dense, its host-memory implementation.
package array

import (
	"github.com/nlpodyssey/tensormap/dtype"
)

// Device identifies the memory an array lives in.
type Device string

// CPU is the host memory device, where Dense arrays are created by default.
const CPU Device = "cpu"

// Array is a dense, row-major, arbitrary-rank array of numeric elements.
//
// Implementations are treated as opaque storage: tensor blocks only rely
// on shape introspection, contiguous access to raw little-endian elements,
// zero-filled allocation and device relocation.
type Array interface {
	// DType returns the element type.
	DType() dtype.DType
	// Shape returns a copy of the shape of the array.
	Shape() []int
	// Data returns the raw elements, little-endian and row-major ("C")
	// ordered, without striding.
	//
	// The value returned is NOT a copy. It is writable only for arrays
	// freshly created by Zeros, which are filled this way before being
	// handed over to a block.
	Data() []byte
	// Device returns the device holding the data.
	Device() Device
	// Zeros allocates a new zero-filled array with the same DType and
	// Device, and the given shape.
	Zeros(shape []int) (Array, error)
	// Reshape returns an array with the same data and a new shape
	// holding the same number of elements.
	Reshape(shape []int) (Array, error)
	// Copy returns a deep copy of the array.
	Copy() Array
	// To relocates the array to the given device. It returns the receiver
	// when the array already lives there.
	To(device Device) (Array, error)
}
