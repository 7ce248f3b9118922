// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package array

import (
	"fmt"
	"slices"

	"github.com/nlpodyssey/tensormap/dtype"
)

// Dense is an Array with data fully loaded in host memory.
type Dense struct {
	dType  dtype.DType
	shape  []int
	data   []byte
	device Device
}

var _ Array = &Dense{}

// New performs validity checks over the given properties and returns
// a Dense array with those properties if validation succeeds, otherwise
// an error.
//
// Validation rules:
//   - the dType must be valid (see dtype.DType.Validate)
//   - an empty or nil shape is allowed (a scalar value is implied)
//   - the shape must not contain negative values
//   - the length of data must match the byte size computed from shape
//     and dType
//
// The shape is copied. Since data can possibly take a large amount of
// memory, it is NOT copied, and is directly assigned to the array.
func New(dType dtype.DType, shape []int, data []byte) (*Dense, error) {
	if err := dType.Validate(); err != nil {
		return nil, err
	}
	n, err := ByteSize(shape, dType.Size())
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, fmt.Errorf("the byte size computed from shape %v and dtype %s (%d) does not match data length (%d)", shape, dType, n, len(data))
	}
	return &Dense{
		dType:  dType,
		shape:  copyShape(shape),
		data:   data,
		device: CPU,
	}, nil
}

// Zeros creates a new zero-filled Dense array on the CPU device.
func Zeros(dType dtype.DType, shape []int) (*Dense, error) {
	if err := dType.Validate(); err != nil {
		return nil, err
	}
	n, err := ByteSize(shape, dType.Size())
	if err != nil {
		return nil, err
	}
	return &Dense{
		dType:  dType,
		shape:  copyShape(shape),
		data:   make([]byte, n),
		device: CPU,
	}, nil
}

// DType returns the data type of the array.
func (d *Dense) DType() dtype.DType {
	return d.dType
}

// Shape returns a copy of the shape of the array.
func (d *Dense) Shape() []int {
	return copyShape(d.shape)
}

// Data returns the raw data of the array, without copy.
func (d *Dense) Data() []byte {
	return d.data
}

// Device returns the device holding the array.
func (d *Dense) Device() Device {
	return d.device
}

// Zeros allocates a new zero-filled array with the same DType and Device.
func (d *Dense) Zeros(shape []int) (Array, error) {
	z, err := Zeros(d.dType, shape)
	if err != nil {
		return nil, err
	}
	z.device = d.device
	return z, nil
}

// Reshape returns a new Dense array sharing the same data.
func (d *Dense) Reshape(shape []int) (Array, error) {
	size, err := ShapeSize(shape)
	if err != nil {
		return nil, err
	}
	current, _ := ShapeSize(d.shape)
	if size != current {
		return nil, fmt.Errorf("cannot reshape array of shape %v (%d elements) to shape %v (%d elements)", d.shape, current, shape, size)
	}
	return &Dense{
		dType:  d.dType,
		shape:  copyShape(shape),
		data:   d.data,
		device: d.device,
	}, nil
}

// Copy returns a deep copy of the array.
func (d *Dense) Copy() Array {
	return &Dense{
		dType:  d.dType,
		shape:  copyShape(d.shape),
		data:   slices.Clone(d.data),
		device: d.device,
	}
}

// To relocates the array to another device. Dense arrays always keep their
// data in host memory: moving them copies the data and tags the copy with
// the new device.
func (d *Dense) To(device Device) (Array, error) {
	if device == "" {
		return nil, fmt.Errorf("invalid empty device")
	}
	if device == d.device {
		return d, nil
	}
	c := d.Copy().(*Dense)
	c.device = device
	return c, nil
}

// String returns a short description of the array.
func (d *Dense) String() string {
	return fmt.Sprintf("Dense(%s, %v, %s)", d.dType, d.shape, d.device)
}
