// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tensormap implements labeled sparse tensor collections.
//
// A TensorMap is a set of TensorBlock values, each identified by one entry
// of the map keys (a Labels). Every block holds a dense array together with
// Labels describing each of its axes: samples for the first axis, components
// for the intermediate ones and properties for the last one. The map can be
// reshaped by moving key dimensions into the samples or properties of its
// blocks, and saved to or loaded from a single binary container.
package tensormap

import (
	"iter"
	"slices"

	"github.com/nlpodyssey/tensormap/array"
)

// TensorMap is an immutable collection of blocks, each one associated with
// one entry of the keys.
type TensorMap struct {
	keys   *Labels
	blocks []*TensorBlock
}

// New creates a TensorMap associating each row of keys with the block at
// the same position.
//
// All blocks must have the same sample names, the same components and
// properties, the same gradient parameters with the same gradient sample
// names, and values with the same dtype and device. The blocks become part
// of the map, and can no longer get new gradients; a block which is already
// part of another map is rejected, and must be copied first.
//
// It fails with ErrInvalidParameter if any of these conditions is not met.
func New(keys *Labels, blocks []*TensorBlock) (*TensorMap, error) {
	if keys == nil {
		return nil, invalidParameter("tensor map keys must not be nil")
	}
	keys, err := keys.ToOwned()
	if err != nil {
		return nil, err
	}
	if keys.Count() != len(blocks) {
		return nil, invalidParameter("the number of keys (%d) does not match the number of blocks (%d)",
			keys.Count(), len(blocks))
	}
	for i, block := range blocks {
		if block == nil {
			return nil, invalidParameter("block %d must not be nil", i)
		}
		if block.isGradient {
			return nil, invalidParameter("block %d is a gradient block", i)
		}
	}
	if err = checkConsistency(blocks); err != nil {
		return nil, err
	}

	for i, block := range blocks {
		if !block.owned.CompareAndSwap(false, true) {
			for _, claimed := range blocks[:i] {
				claimed.owned.Store(false)
			}
			return nil, invalidParameter("block %d is already part of a TensorMap, copy it first", i)
		}
	}
	return &TensorMap{keys: keys, blocks: slices.Clone(blocks)}, nil
}

// checkConsistency verifies that all blocks have the same metadata layout
// as the first one.
func checkConsistency(blocks []*TensorBlock) error {
	if len(blocks) == 0 {
		return nil
	}
	first := blocks[0]
	for i, block := range blocks[1:] {
		i++
		if !slices.Equal(block.samples.names, first.samples.names) {
			return invalidParameter("inconsistent sample names between blocks 0 (%v) and %d (%v)",
				first.samples.names, i, block.samples.names)
		}
		if !sameComponents(first.components, block.components) {
			return invalidParameter("inconsistent components between blocks 0 (%v) and %d (%v)",
				first.componentNames(), i, block.componentNames())
		}
		if !block.properties.Equal(first.properties) {
			return invalidParameter("inconsistent properties between blocks 0 and %d", i)
		}
		if block.values.DType() != first.values.DType() {
			return invalidParameter("inconsistent dtype between blocks 0 (%s) and %d (%s)",
				first.values.DType(), i, block.values.DType())
		}
		if block.values.Device() != first.values.Device() {
			return invalidParameter("inconsistent device between blocks 0 (%q) and %d (%q)",
				first.values.Device(), i, block.values.Device())
		}
		if len(block.gradientNames) != len(first.gradientNames) {
			return invalidParameter("inconsistent gradients between blocks 0 (%v) and %d (%v)",
				first.gradientNames, i, block.gradientNames)
		}
		for _, name := range first.gradientNames {
			g, ok := block.gradients[name]
			if !ok {
				return invalidParameter("inconsistent gradients between blocks 0 (%v) and %d (%v)",
					first.gradientNames, i, block.gradientNames)
			}
			if want := first.gradients[name].samples.names; !slices.Equal(g.samples.names, want) {
				return invalidParameter("inconsistent sample names for gradient %q between blocks 0 (%v) and %d (%v)",
					name, want, i, g.samples.names)
			}
		}
	}
	return nil
}

func sameComponents(a, b []*Labels) bool {
	return slices.EqualFunc(a, b, (*Labels).Equal)
}

// Keys returns the keys of the map.
func (tm *TensorMap) Keys() *Labels {
	return tm.keys
}

// Len returns the number of blocks.
func (tm *TensorMap) Len() int {
	return len(tm.blocks)
}

// BlockByID returns the block at position i. It fails with ErrOutOfRange
// if i is not a valid block index.
func (tm *TensorMap) BlockByID(i int) (*TensorBlock, error) {
	if i < 0 || i >= len(tm.blocks) {
		return nil, outOfRange("block index %d is out of range for a TensorMap with %d blocks", i, len(tm.blocks))
	}
	return tm.blocks[i], nil
}

// BlocksByID returns the blocks at the given positions.
func (tm *TensorMap) BlocksByID(ids []int) ([]*TensorBlock, error) {
	out := make([]*TensorBlock, len(ids))
	for k, i := range ids {
		block, err := tm.BlockByID(i)
		if err != nil {
			return nil, err
		}
		out[k] = block
	}
	return out, nil
}

// BlocksMatching returns the indices of the blocks whose key matches
// selection, a Labels with one row over a subset of the key names.
// A nil selection, or one without dimensions, matches every block.
func (tm *TensorMap) BlocksMatching(selection *Labels) ([]int, error) {
	if len(tm.blocks) == 0 {
		return []int{}, nil
	}
	return tm.keys.Select(selection)
}

// Block returns the single block matching selection. It fails with
// ErrInvalidParameter if no block or more than one block matches.
// An empty map returns a nil block and no error.
func (tm *TensorMap) Block(selection *Labels) (*TensorBlock, error) {
	if len(tm.blocks) == 0 {
		return nil, nil
	}
	ids, err := tm.BlocksMatching(selection)
	if err != nil {
		return nil, err
	}
	if len(ids) != 1 {
		return nil, invalidParameter("the selection matches %d blocks, expected exactly one", len(ids))
	}
	return tm.blocks[ids[0]], nil
}

// Blocks returns all blocks matching selection.
func (tm *TensorMap) Blocks(selection *Labels) ([]*TensorBlock, error) {
	ids, err := tm.BlocksMatching(selection)
	if err != nil {
		return nil, err
	}
	return tm.BlocksByID(ids)
}

// Items iterates over the (key, block) pairs of the map.
func (tm *TensorMap) Items() iter.Seq2[LabelsEntry, *TensorBlock] {
	return func(yield func(LabelsEntry, *TensorBlock) bool) {
		for i, block := range tm.blocks {
			if !yield(LabelsEntry{labels: tm.keys, index: i}, block) {
				return
			}
		}
	}
}

// SampleNames returns the names of the sample dimensions shared by all
// blocks, or an empty slice for an empty map.
func (tm *TensorMap) SampleNames() []string {
	if len(tm.blocks) == 0 {
		return []string{}
	}
	return tm.blocks[0].samples.Names()
}

// ComponentsNames returns the name of each component shared by all blocks.
func (tm *TensorMap) ComponentsNames() []string {
	if len(tm.blocks) == 0 {
		return []string{}
	}
	return tm.blocks[0].componentNames()
}

// PropertyNames returns the names of the property dimensions shared by all
// blocks.
func (tm *TensorMap) PropertyNames() []string {
	if len(tm.blocks) == 0 {
		return []string{}
	}
	return tm.blocks[0].properties.Names()
}

// Copy returns a deep copy of the map, with copies of every block.
func (tm *TensorMap) Copy() *TensorMap {
	blocks := make([]*TensorBlock, len(tm.blocks))
	for i, block := range tm.blocks {
		blocks[i] = block.Copy()
		blocks[i].owned.Store(true)
	}
	return &TensorMap{keys: tm.keys, blocks: blocks}
}

// To returns a copy of the map with all of its data and labels on device.
func (tm *TensorMap) To(device array.Device) (*TensorMap, error) {
	blocks := make([]*TensorBlock, len(tm.blocks))
	for i, block := range tm.blocks {
		moved, err := block.To(device)
		if err != nil {
			return nil, err
		}
		moved.owned.Store(true)
		blocks[i] = moved
	}
	return &TensorMap{keys: tm.keys.To(device), blocks: blocks}, nil
}
