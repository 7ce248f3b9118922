// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensormap

import (
	"testing"

	"github.com/nlpodyssey/tensormap/array"
	"github.com/stretchr/testify/require"
)

func labels(t *testing.T, names []string, rows ...[]int32) *Labels {
	t.Helper()
	l, err := NewLabels(names, rows)
	require.NoError(t, err)
	return l
}

func f64(t *testing.T, shape []int, values ...float64) array.Array {
	t.Helper()
	a, err := array.FromFloat64s(shape, values)
	require.NoError(t, err)
	return a
}

func block(t *testing.T, values array.Array, samples *Labels, components []*Labels, properties *Labels) *TensorBlock {
	t.Helper()
	b, err := NewTensorBlock(values, samples, components, properties)
	require.NoError(t, err)
	return b
}

func tensorMap(t *testing.T, keys *Labels, blocks ...*TensorBlock) *TensorMap {
	t.Helper()
	tm, err := New(keys, blocks)
	require.NoError(t, err)
	return tm
}

// gradientBlock returns a gradient for a block with a single property,
// whose samples are (sample, g) with the given sample indices.
func gradientBlock(t *testing.T, parentSamples []int32, values ...float64) *TensorBlock {
	t.Helper()
	rows := make([][]int32, len(parentSamples))
	for i, s := range parentSamples {
		rows[i] = []int32{s, 0}
	}
	samples := labels(t, []string{GradientSampleName, "g"}, rows...)
	return block(t, f64(t, []int{len(rows), 1}, values...), samples, nil, labels(t, []string{"p"}, []int32{0}))
}

func float64s(b *TensorBlock) []float64 {
	return array.Float64s(b.Values())
}
