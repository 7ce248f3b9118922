// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensormap

import (
	"slices"

	"github.com/nlpodyssey/tensormap/array"
)

// keysSplit describes how the keys of a map are separated between the
// dimensions staying in the keys and the ones moved inside the blocks.
type keysSplit struct {
	// keys are the distinct values of the remaining dimensions, or
	// SingleLabels when every dimension is moved.
	keys *Labels
	// moved are the distinct values of the moved dimensions, in order of
	// first appearance.
	moved *Labels
	// groups lists, for each row of keys, the blocks merged into it.
	groups [][]int
	// movedRow is the row of moved corresponding to each block.
	movedRow []int
}

func (tm *TensorMap) splitKeys(keysToMove []string) (*keysSplit, error) {
	movedIndex, err := makeNameIndex(keysToMove)
	if err != nil {
		return nil, err
	}
	var movedCols, remainingCols []int
	var remaining []string
	for _, name := range keysToMove {
		j, ok := tm.keys.nameIndex[name]
		if !ok {
			return nil, invalidParameter("%q is not a key dimension of this TensorMap (%v)", name, tm.keys.names)
		}
		movedCols = append(movedCols, j)
	}
	for j, name := range tm.keys.names {
		if _, ok := movedIndex[name]; !ok {
			remaining = append(remaining, name)
			remainingCols = append(remainingCols, j)
		}
	}

	split := &keysSplit{movedRow: make([]int, len(tm.blocks))}
	movedPositions := make(map[string]int)
	keyPositions := make(map[string]int)
	var movedFlat, keyFlat []int32
	row := make([]int32, 0, tm.keys.Size())

	for i := range tm.blocks {
		row = tm.keys.appendColumns(row[:0], i, movedCols)
		pos, ok := movedPositions[rowKey(row)]
		if !ok {
			pos = len(movedPositions)
			movedPositions[rowKey(row)] = pos
			movedFlat = append(movedFlat, row...)
		}
		split.movedRow[i] = pos

		g := 0
		if len(remaining) > 0 {
			row = tm.keys.appendColumns(row[:0], i, remainingCols)
			if g, ok = keyPositions[rowKey(row)]; !ok {
				g = len(keyPositions)
				keyPositions[rowKey(row)] = g
				keyFlat = append(keyFlat, row...)
			}
		}
		if g == len(split.groups) {
			split.groups = append(split.groups, nil)
		}
		split.groups[g] = append(split.groups[g], i)
	}

	split.moved = fromUniqueRows(slices.Clone(keysToMove), movedIndex, movedFlat, movedPositions)
	switch {
	case len(remaining) > 0:
		remainingIndex, _ := makeNameIndex(remaining)
		split.keys = fromUniqueRows(remaining, remainingIndex, keyFlat, keyPositions)
	case len(tm.blocks) > 0:
		split.keys = SingleLabels()
	default:
		split.keys, _ = EmptyLabels("_")
	}
	split.keys = split.keys.To(tm.keys.device)
	return split, nil
}

// appendColumns appends the values of row i in the given columns to dst.
func (l *Labels) appendColumns(dst []int32, i int, columns []int) []int32 {
	for _, j := range columns {
		dst = append(dst, l.at(i, j))
	}
	return dst
}

// KeysToSamples returns a new TensorMap where the key dimensions named in
// keysToMove are moved to the samples of the blocks.
//
// All the blocks whose keys only differ in the moved dimensions are merged
// into one block. Its samples are the union of the samples of the merged
// blocks, each one extended with the values of the moved dimensions, which
// are appended after the existing sample dimensions. When sortSamples is
// true the merged samples are sorted, otherwise they follow the order of
// the keys and of the samples of each block. Gradients are merged the same
// way.
//
// It fails with ErrInvalidParameter if a name is not a key dimension, or is
// already a sample dimension.
func (tm *TensorMap) KeysToSamples(keysToMove []string, sortSamples bool) (*TensorMap, error) {
	if len(keysToMove) == 0 {
		return tm.Copy(), nil
	}
	split, err := tm.splitKeys(keysToMove)
	if err != nil {
		return nil, err
	}
	blocks := make([]*TensorBlock, len(split.groups))
	for g, ids := range split.groups {
		if blocks[g], err = tm.mergeSamples(ids, split, sortSamples); err != nil {
			return nil, err
		}
	}
	return New(split.keys, blocks)
}

func (tm *TensorMap) mergeSamples(ids []int, split *keysSplit, sortSamples bool) (*TensorBlock, error) {
	first := tm.blocks[ids[0]]
	for _, name := range split.moved.names {
		if _, ok := first.samples.nameIndex[name]; ok {
			return nil, invalidParameter("can not move %q to the samples: it is already a sample dimension", name)
		}
	}
	names := append(slices.Clone(first.samples.names), split.moved.names...)

	samples := make([]*Labels, len(ids))
	arrays := make([]array.Array, len(ids))
	for k, i := range ids {
		block := tm.blocks[i]
		augmented, err := augmentRows(block.samples, names, split.moved.rowSlice(split.movedRow[i]))
		if err != nil {
			return nil, err
		}
		samples[k] = augmented
		arrays[k] = block.values
	}
	merged, mappings, err := mergeLabels(samples, sortSamples)
	if err != nil {
		return nil, err
	}
	values, err := mergeAlongSamples(arrays, merged.Count(), mappings)
	if err != nil {
		return nil, err
	}
	out, err := NewTensorBlock(values, merged, first.components, first.properties)
	if err != nil {
		return nil, err
	}

	for _, parameter := range first.gradientNames {
		for k, i := range ids {
			g := tm.blocks[i].gradients[parameter]
			if samples[k], err = remapSampleColumn(g.samples, mappings[k]); err != nil {
				return nil, err
			}
			arrays[k] = g.values
		}
		gradient, err := mergeGradient(samples, arrays, nil, 0, out, sortSamples)
		if err != nil {
			return nil, err
		}
		if err = out.addGradient(parameter, gradient); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// mergeGradient merges gradient blocks whose samples were already remapped
// to the merged parent. A nil offsets merges along samples, otherwise along
// properties.
func mergeGradient(samples []*Labels, arrays []array.Array, offsets []int, nProperties int, parent *TensorBlock, sortSamples bool) (*TensorBlock, error) {
	merged, mappings, err := mergeLabels(samples, sortSamples)
	if err != nil {
		return nil, err
	}
	var values array.Array
	if offsets == nil {
		values, err = mergeAlongSamples(arrays, merged.Count(), mappings)
	} else {
		values, err = mergeAlongProperties(arrays, merged.Count(), mappings, offsets, nProperties)
	}
	if err != nil {
		return nil, err
	}
	return NewTensorBlock(values, merged, parent.components, parent.properties)
}

// KeysToProperties returns a new TensorMap where the key dimensions named
// in keysToMove are moved to the properties of the blocks.
//
// The moved dimensions come first in the new properties, followed by the
// existing property dimensions. Every block gets the properties built from
// all the values the moved dimensions take across the whole map, so that
// properties stay shared by all blocks; the entries a merged block has no
// data for are filled with zeros. The samples of each new block are the
// union of the samples of the merged blocks, sorted when sortSamples is
// true. Gradients are merged the same way.
//
// It fails with ErrInvalidParameter if a name is not a key dimension, or is
// already a property dimension.
func (tm *TensorMap) KeysToProperties(keysToMove []string, sortSamples bool) (*TensorMap, error) {
	if len(keysToMove) == 0 {
		return tm.Copy(), nil
	}
	split, err := tm.splitKeys(keysToMove)
	if err != nil {
		return nil, err
	}
	if len(tm.blocks) == 0 {
		return New(split.keys, nil)
	}

	oldProperties := tm.blocks[0].properties
	for _, name := range split.moved.names {
		if _, ok := oldProperties.nameIndex[name]; ok {
			return nil, invalidParameter("can not move %q to the properties: it is already a property dimension", name)
		}
	}
	properties, err := productLabels(split.moved, oldProperties)
	if err != nil {
		return nil, err
	}

	blocks := make([]*TensorBlock, len(split.groups))
	for g, ids := range split.groups {
		if blocks[g], err = tm.mergeProperties(ids, split, properties, sortSamples); err != nil {
			return nil, err
		}
	}
	return New(split.keys, blocks)
}

func (tm *TensorMap) mergeProperties(ids []int, split *keysSplit, properties *Labels, sortSamples bool) (*TensorBlock, error) {
	first := tm.blocks[ids[0]]
	nOld := first.properties.Count()

	samples := make([]*Labels, len(ids))
	arrays := make([]array.Array, len(ids))
	offsets := make([]int, len(ids))
	for k, i := range ids {
		samples[k] = tm.blocks[i].samples
		arrays[k] = tm.blocks[i].values
		offsets[k] = split.movedRow[i] * nOld
	}
	merged, mappings, err := mergeLabels(samples, sortSamples)
	if err != nil {
		return nil, err
	}
	values, err := mergeAlongProperties(arrays, merged.Count(), mappings, offsets, properties.Count())
	if err != nil {
		return nil, err
	}
	out, err := NewTensorBlock(values, merged, first.components, properties)
	if err != nil {
		return nil, err
	}

	for _, parameter := range first.gradientNames {
		for k, i := range ids {
			g := tm.blocks[i].gradients[parameter]
			if samples[k], err = remapSampleColumn(g.samples, mappings[k]); err != nil {
				return nil, err
			}
			arrays[k] = g.values
		}
		gradient, err := mergeGradient(samples, arrays, offsets, properties.Count(), out, sortSamples)
		if err != nil {
			return nil, err
		}
		if err = out.addGradient(parameter, gradient); err != nil {
			return nil, err
		}
	}
	return out, nil
}
