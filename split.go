// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensormap

// SplitBlock splits a block along its samples or properties. Each group is
// a Labels over some of the dimensions of that axis: the n-th output block
// contains, in their original order, the entries whose values for those
// dimensions are a row of groups[n]. Gradients are split accordingly.
//
// It fails with ErrNotFound if a group refers to a dimension missing from
// the axis, and with ErrInvalidParameter if a group is nil or has no
// dimension.
func SplitBlock(block *TensorBlock, axis Axis, groups []*Labels) ([]*TensorBlock, error) {
	labels, err := axis.labels(block)
	if err != nil {
		return nil, err
	}
	out := make([]*TensorBlock, len(groups))
	for n, group := range groups {
		if group == nil || group.Size() == 0 {
			return nil, invalidParameter("split group %d must have at least one dimension", n)
		}
		view, err := labels.View(group.names...)
		if err != nil {
			return nil, err
		}
		selected := make([]int, 0)
		row := make([]int32, 0, group.Size())
		for i := 0; i < view.count; i++ {
			row = view.appendRow(row[:0], i)
			if group.Contains(row) {
				selected = append(selected, i)
			}
		}

		if axis == AxisSamples {
			out[n], err = selectSamples(block, selected)
		} else {
			out[n], err = selectProperties(block, selected)
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Split splits every block of tm with SplitBlock, and returns one
// TensorMap per group, with the same keys as tm.
func Split(tm *TensorMap, axis Axis, groups []*Labels) ([]*TensorMap, error) {
	perGroup := make([][]*TensorBlock, len(groups))
	for n := range perGroup {
		perGroup[n] = make([]*TensorBlock, len(tm.blocks))
	}
	for i, block := range tm.blocks {
		parts, err := SplitBlock(block, axis, groups)
		if err != nil {
			return nil, err
		}
		for n, part := range parts {
			perGroup[n][i] = part
		}
	}

	out := make([]*TensorMap, len(groups))
	for n, blocks := range perGroup {
		tmn, err := New(tm.keys, blocks)
		if err != nil {
			return nil, err
		}
		out[n] = tmn
	}
	return out, nil
}

// selectSamples returns a block holding the given samples of b.
func selectSamples(b *TensorBlock, rows []int) (*TensorBlock, error) {
	values, err := gatherSamples(b.values, rows)
	if err != nil {
		return nil, err
	}
	out, err := NewTensorBlock(values, subset(b.samples, rows), b.components, b.properties)
	if err != nil {
		return nil, err
	}

	newPosition := make([]int, b.samples.Count())
	for i := range newPosition {
		newPosition[i] = -1
	}
	for n, i := range rows {
		newPosition[i] = n
	}
	for parameter, g := range b.Gradients() {
		var kept []int
		var flat []int32
		for i := 0; i < g.samples.count; i++ {
			p := newPosition[g.samples.at(i, 0)]
			if p < 0 {
				continue
			}
			kept = append(kept, i)
			start := len(flat)
			flat = g.samples.appendRow(flat, i)
			flat[start] = int32(p)
		}
		samples, err := newLabels(g.samples.names, flat, len(kept))
		if err != nil {
			return nil, err
		}
		gValues, err := gatherSamples(g.values, kept)
		if err != nil {
			return nil, err
		}
		gradient, err := NewTensorBlock(gValues, samples.To(g.samples.device), out.components, out.properties)
		if err != nil {
			return nil, err
		}
		if err = out.addGradient(parameter, gradient); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// selectProperties returns a block holding the given properties of b.
func selectProperties(b *TensorBlock, columns []int) (*TensorBlock, error) {
	values, err := gatherProperties(b.values, columns)
	if err != nil {
		return nil, err
	}
	out, err := NewTensorBlock(values, b.samples, b.components, subset(b.properties, columns))
	if err != nil {
		return nil, err
	}
	for parameter, g := range b.Gradients() {
		gValues, err := gatherProperties(g.values, columns)
		if err != nil {
			return nil, err
		}
		gradient, err := NewTensorBlock(gValues, g.samples, out.components, out.properties)
		if err != nil {
			return nil, err
		}
		if err = out.addGradient(parameter, gradient); err != nil {
			return nil, err
		}
	}
	return out, nil
}
