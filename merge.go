// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensormap

import (
	"slices"

	"github.com/nlpodyssey/tensormap/array"
)

// mergeLabels computes the union of all the given labels, in order, and
// returns it together with the position within the union of each row of
// each input. When sortRows is true the union is sorted and the mappings
// updated accordingly.
func mergeLabels(labels []*Labels, sortRows bool) (*Labels, [][]int, error) {
	merged := labels[0]
	mappings := make([][]int, len(labels))
	mappings[0] = identity(merged.Count())
	for k, l := range labels[1:] {
		union, _, mapping, err := merged.UnionAndMapping(l)
		if err != nil {
			return nil, nil, err
		}
		merged = union
		mappings[k+1] = mapping
	}
	if !sortRows {
		return merged, mappings, nil
	}

	sorted, order := merged.sortedWithOrder()
	newPosition := make([]int, len(order))
	for n, old := range order {
		newPosition[old] = n
	}
	for _, mapping := range mappings {
		for i, old := range mapping {
			mapping[i] = newPosition[old]
		}
	}
	return sorted, mappings, nil
}

func identity(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// augmentRows returns labels named names, holding each row of l followed
// by extra.
func augmentRows(l *Labels, names []string, extra []int32) (*Labels, error) {
	flat := make([]int32, 0, l.count*len(names))
	for i := 0; i < l.count; i++ {
		flat = l.appendRow(flat, i)
		flat = append(flat, extra...)
	}
	out, err := newLabels(names, flat, l.count)
	if err != nil {
		return nil, err
	}
	return out.To(l.device), nil
}

// remapSampleColumn returns a copy of the samples of a gradient block, in
// which each value v of the first column is replaced with mapping[v].
func remapSampleColumn(l *Labels, mapping []int) (*Labels, error) {
	size := len(l.names)
	flat := make([]int32, 0, l.count*size)
	for i := 0; i < l.count; i++ {
		start := len(flat)
		flat = l.appendRow(flat, i)
		flat[start] = int32(mapping[flat[start]])
	}
	out, err := newLabels(l.names, flat, l.count)
	if err != nil {
		return nil, err
	}
	return out.To(l.device), nil
}

// productLabels returns the cartesian product of the given labels, the
// first one varying the slowest.
func productLabels(labels ...*Labels) (*Labels, error) {
	var names []string
	count := 1
	for _, l := range labels {
		names = append(names, l.names...)
		count *= l.count
	}
	if _, err := makeNameIndex(names); err != nil {
		return nil, err
	}

	flat := make([]int32, 0, count*len(names))
	current := make([]int, len(labels))
	for n := 0; n < count; n++ {
		for k, l := range labels {
			flat = l.appendRow(flat, current[k])
		}
		for k := len(labels) - 1; k >= 0; k-- {
			current[k]++
			if current[k] < labels[k].count {
				break
			}
			current[k] = 0
		}
	}
	out, err := newLabels(names, flat, count)
	if err != nil {
		return nil, err
	}
	return out.To(labels[len(labels)-1].device), nil
}

// sampleStride returns the number of bytes of one entry along the first
// axis of a.
func sampleStride(a array.Array) int {
	n := a.DType().Size()
	for _, d := range a.Shape()[1:] {
		n *= d
	}
	return n
}

// mergeAlongSamples allocates a zero-filled array with count entries along
// the first axis, and copies entry i of arrays[k] at position
// mappings[k][i].
func mergeAlongSamples(arrays []array.Array, count int, mappings [][]int) (array.Array, error) {
	shape := arrays[0].Shape()
	shape[0] = count
	out, err := arrays[0].Zeros(shape)
	if err != nil {
		return nil, err
	}
	dst := out.Data()
	stride := sampleStride(arrays[0])
	for k, a := range arrays {
		src := a.Data()
		for i, d := range mappings[k] {
			copy(dst[d*stride:(d+1)*stride], src[i*stride:(i+1)*stride])
		}
	}
	return out, nil
}

// mergeAlongProperties allocates a zero-filled array with count entries
// along the first axis and nProperties along the last one. All the
// properties of entry i of arrays[k] are copied at position mappings[k][i],
// starting from property offsets[k].
func mergeAlongProperties(arrays []array.Array, count int, mappings [][]int, offsets []int, nProperties int) (array.Array, error) {
	shape := arrays[0].Shape()
	last := len(shape) - 1
	elemSize := arrays[0].DType().Size()
	chunk := shape[last] * elemSize
	inner := 1
	for _, d := range shape[1:last] {
		inner *= d
	}

	shape[0] = count
	shape[last] = nProperties
	out, err := arrays[0].Zeros(shape)
	if err != nil {
		return nil, err
	}
	dst := out.Data()
	for k, a := range arrays {
		src := a.Data()
		for i, d := range mappings[k] {
			for c := 0; c < inner; c++ {
				from := (i*inner + c) * chunk
				to := ((d*inner+c)*nProperties + offsets[k]) * elemSize
				copy(dst[to:to+chunk], src[from:from+chunk])
			}
		}
	}
	return out, nil
}

// gatherSamples returns a new array holding the entries of a along the
// first axis at the given positions.
func gatherSamples(a array.Array, rows []int) (array.Array, error) {
	shape := a.Shape()
	shape[0] = len(rows)
	out, err := a.Zeros(shape)
	if err != nil {
		return nil, err
	}
	dst, src := out.Data(), a.Data()
	stride := sampleStride(a)
	for n, i := range rows {
		copy(dst[n*stride:(n+1)*stride], src[i*stride:(i+1)*stride])
	}
	return out, nil
}

// gatherProperties returns a new array holding the entries of a along the
// last axis at the given positions.
func gatherProperties(a array.Array, columns []int) (array.Array, error) {
	shape := a.Shape()
	last := len(shape) - 1
	nOld := shape[last]
	elemSize := a.DType().Size()
	outer := 1
	for _, d := range shape[:last] {
		outer *= d
	}

	shape[last] = len(columns)
	out, err := a.Zeros(shape)
	if err != nil {
		return nil, err
	}
	dst, src := out.Data(), a.Data()
	for o := 0; o < outer; o++ {
		for n, j := range columns {
			from := (o*nOld + j) * elemSize
			to := (o*len(columns) + n) * elemSize
			copy(dst[to:to+elemSize], src[from:from+elemSize])
		}
	}
	return out, nil
}

// subset returns owned labels holding the given rows of l, in order.
func subset(l *Labels, rows []int) *Labels {
	flat := make([]int32, 0, len(rows)*len(l.names))
	positions := make(map[string]int, len(rows))
	for n, i := range rows {
		start := len(flat)
		flat = l.appendRow(flat, i)
		positions[rowKey(flat[start:])] = n
	}
	out := fromUniqueRows(slices.Clone(l.names), l.nameIndex, flat, positions)
	out.device = l.device
	return out
}
