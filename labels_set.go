// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensormap

import "slices"

// Union returns the rows of l followed by the rows of other not already
// part of l, in their original order.
//
// It fails with ErrInvalidParameter if the two labels do not have the same
// names in the same order.
func (l *Labels) Union(other *Labels) (*Labels, error) {
	union, _, _, err := l.UnionAndMapping(other)
	return union, err
}

// UnionAndMapping computes the same union as Union, and also returns where
// each row of l (mappingSelf) and each row of other (mappingOther) ended up
// within the union.
func (l *Labels) UnionAndMapping(other *Labels) (union *Labels, mappingSelf, mappingOther []int, err error) {
	if err = l.checkSameNames(other, "union"); err != nil {
		return nil, nil, nil, err
	}

	size := len(l.names)
	positions := make(map[string]int, l.count+other.count)
	flat := make([]int32, 0, (l.count+other.count)*size)

	insert := func(from *Labels, mapping []int) {
		for i := range mapping {
			start := len(flat)
			flat = from.appendRow(flat, i)
			key := rowKey(flat[start:])
			if pos, ok := positions[key]; ok {
				flat = flat[:start]
				mapping[i] = pos
				continue
			}
			pos := len(positions)
			positions[key] = pos
			mapping[i] = pos
		}
	}

	mappingSelf = make([]int, l.count)
	mappingOther = make([]int, other.count)
	insert(l, mappingSelf)
	insert(other, mappingOther)

	union = fromUniqueRows(slices.Clone(l.names), l.nameIndex, flat, positions)
	union.device = l.device
	return union, mappingSelf, mappingOther, nil
}

// Intersection returns the rows present in both l and other, in the order
// they have in l.
//
// It fails with ErrInvalidParameter if the two labels do not have the same
// names in the same order.
func (l *Labels) Intersection(other *Labels) (*Labels, error) {
	intersection, _, _, err := l.IntersectionAndMapping(other)
	return intersection, err
}

// IntersectionAndMapping computes the same intersection as Intersection,
// and also returns the position within the intersection of each row of l
// (mappingSelf) and of other (mappingOther), or -1 for rows which are not
// part of the intersection.
func (l *Labels) IntersectionAndMapping(other *Labels) (intersection *Labels, mappingSelf, mappingOther []int, err error) {
	if err = l.checkSameNames(other, "intersection"); err != nil {
		return nil, nil, nil, err
	}

	positions := make(map[string]int)
	flat := make([]int32, 0)
	mappingSelf = make([]int, l.count)
	row := make([]int32, 0, len(l.names))
	for i := range mappingSelf {
		mappingSelf[i] = -1
		row = l.appendRow(row[:0], i)
		if !other.Contains(row) {
			continue
		}
		key := rowKey(row)
		if pos, ok := positions[key]; ok {
			mappingSelf[i] = pos
			continue
		}
		pos := len(positions)
		positions[key] = pos
		flat = append(flat, row...)
		mappingSelf[i] = pos
	}

	mappingOther = make([]int, other.count)
	for j := range mappingOther {
		row = other.appendRow(row[:0], j)
		if pos, ok := positions[rowKey(row)]; ok {
			mappingOther[j] = pos
		} else {
			mappingOther[j] = -1
		}
	}

	intersection = fromUniqueRows(slices.Clone(l.names), l.nameIndex, flat, positions)
	intersection.device = l.device
	return intersection, mappingSelf, mappingOther, nil
}

func (l *Labels) checkSameNames(other *Labels, operation string) error {
	if other == nil {
		return invalidParameter("can not compute the %s with nil labels", operation)
	}
	if !slices.Equal(l.names, other.names) {
		return invalidParameter("can not compute the %s of labels with different names: %v and %v", operation, l.names, other.names)
	}
	return nil
}
