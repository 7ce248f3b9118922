// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensormap

import (
	"fmt"
	"slices"
)

// Axis selects the samples or the properties of a block.
type Axis int

const (
	// AxisSamples is the first axis of a block.
	AxisSamples Axis = iota
	// AxisProperties is the last axis of a block.
	AxisProperties
)

// String returns "samples" or "properties".
func (a Axis) String() string {
	switch a {
	case AxisSamples:
		return "samples"
	case AxisProperties:
		return "properties"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

func (a Axis) labels(b *TensorBlock) (*Labels, error) {
	switch a {
	case AxisSamples:
		return b.samples, nil
	case AxisProperties:
		return b.properties, nil
	default:
		return nil, invalidParameter("invalid axis %s", a)
	}
}

// UniqueMetadata returns the sorted distinct values taken by the named
// dimensions of the samples or properties across all the blocks of tm.
// When gradient is not empty, the metadata of the gradient with respect to
// that parameter is used instead of the one of the blocks.
//
// It returns labels without rows when tm has no blocks. It fails with
// ErrNotFound if a dimension or the gradient does not exist, and with
// ErrInvalidParameter if names is empty or holds duplicates.
func UniqueMetadata(tm *TensorMap, axis Axis, names []string, gradient string) (*Labels, error) {
	return uniqueMetadata(tm.blocks, axis, names, gradient)
}

// UniqueMetadataBlock is the same as UniqueMetadata for a single block.
func UniqueMetadataBlock(block *TensorBlock, axis Axis, names []string, gradient string) (*Labels, error) {
	return uniqueMetadata([]*TensorBlock{block}, axis, names, gradient)
}

func uniqueMetadata(blocks []*TensorBlock, axis Axis, names []string, gradient string) (*Labels, error) {
	if len(names) == 0 {
		return nil, invalidParameter("at least one dimension name is required")
	}
	nameIndex, err := makeNameIndex(names)
	if err != nil {
		return nil, err
	}
	positions := make(map[string]int)
	var flat []int32
	row := make([]int32, 0, len(names))
	for _, block := range blocks {
		if gradient != "" {
			if block, err = block.Gradient(gradient); err != nil {
				return nil, err
			}
		}
		labels, err := axis.labels(block)
		if err != nil {
			return nil, err
		}
		view, err := labels.View(names...)
		if err != nil {
			return nil, err
		}
		for i := 0; i < view.count; i++ {
			row = view.appendRow(row[:0], i)
			key := rowKey(row)
			if _, ok := positions[key]; ok {
				continue
			}
			positions[key] = len(positions)
			flat = append(flat, row...)
		}
	}
	unique := fromUniqueRows(slices.Clone(names), nameIndex, flat, positions)
	return unique.Sorted(), nil
}
