// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensormap

import (
	"github.com/nlpodyssey/tensormap/array"
)

// ComponentsToProperties returns a new TensorMap where the named components
// are moved to the properties of every block.
//
// The moved components become the first property dimensions, in the given
// order, followed by the existing property dimensions. The remaining
// components keep their relative order.
//
// It fails with ErrNotFound if a name is not a component of the blocks, and
// with ErrInvalidParameter if a name is repeated or is already a property
// dimension.
func (tm *TensorMap) ComponentsToProperties(dimensions ...string) (*TensorMap, error) {
	if len(dimensions) == 0 {
		return tm.Copy(), nil
	}
	if _, err := makeNameIndex(dimensions); err != nil {
		return nil, err
	}
	if len(tm.blocks) == 0 {
		return nil, notFound("no component named %q in an empty TensorMap", dimensions[0])
	}

	first := tm.blocks[0]
	positions := make(map[string]int, len(first.components))
	for k, c := range first.components {
		positions[c.names[0]] = k
	}
	moved := make([]int, len(dimensions))
	isMoved := make([]bool, len(first.components))
	for n, name := range dimensions {
		k, ok := positions[name]
		if !ok {
			return nil, notFound("%q is not a component of this TensorMap (%v)", name, first.componentNames())
		}
		moved[n] = k
		isMoved[k] = true
	}
	var remaining []int
	for k := range first.components {
		if !isMoved[k] {
			remaining = append(remaining, k)
		}
	}
	for _, name := range dimensions {
		if _, ok := first.properties.nameIndex[name]; ok {
			return nil, invalidParameter("can not move %q to the properties: it is already a property dimension", name)
		}
	}

	factors := make([]*Labels, 0, len(moved)+1)
	for _, k := range moved {
		factors = append(factors, first.components[k])
	}
	properties, err := productLabels(append(factors, first.properties)...)
	if err != nil {
		return nil, err
	}
	components := make([]*Labels, len(remaining))
	for n, k := range remaining {
		components[n] = first.components[k]
	}

	// axes of the permuted array: samples, remaining components, moved
	// components, properties
	axes := make([]int, 0, len(first.components)+2)
	axes = append(axes, 0)
	for _, k := range remaining {
		axes = append(axes, k+1)
	}
	for _, k := range moved {
		axes = append(axes, k+1)
	}
	axes = append(axes, len(first.components)+1)

	relocate := func(values array.Array) (array.Array, error) {
		permuted, err := array.Permute(values, axes)
		if err != nil {
			return nil, err
		}
		shape := permuted.Shape()
		reshaped := append(shape[:1+len(remaining):1+len(remaining)], properties.Count())
		return permuted.Reshape(reshaped)
	}

	blocks := make([]*TensorBlock, len(tm.blocks))
	for i, block := range tm.blocks {
		values, err := relocate(block.values)
		if err != nil {
			return nil, err
		}
		out, err := NewTensorBlock(values, block.samples, components, properties)
		if err != nil {
			return nil, err
		}
		for parameter, g := range block.Gradients() {
			gValues, err := relocate(g.values)
			if err != nil {
				return nil, err
			}
			gradient, err := NewTensorBlock(gValues, g.samples, components, properties)
			if err != nil {
				return nil, err
			}
			if err = out.addGradient(parameter, gradient); err != nil {
				return nil, err
			}
		}
		blocks[i] = out
	}
	return New(tm.keys, blocks)
}
