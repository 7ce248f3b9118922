// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensormap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// splittableBlock returns a block with samples s=0..3, properties p=0,1,
// values 0..7, and a gradient with respect to "x" on samples 2 and 0.
func splittableBlock(t *testing.T) *TensorBlock {
	t.Helper()
	samples, err := RangeLabels("s", 4)
	require.NoError(t, err)
	properties, err := RangeLabels("p", 2)
	require.NoError(t, err)
	b := block(t, f64(t, []int{4, 2}, 0, 1, 2, 3, 4, 5, 6, 7), samples, nil, properties)
	gradient := block(t, f64(t, []int{2, 2}, -4, -5, -0.5, -1),
		labels(t, []string{GradientSampleName}, []int32{2}, []int32{0}), nil, properties)
	require.NoError(t, b.AddGradient("x", gradient))
	return b
}

func TestSplitBlock(t *testing.T) {
	t.Run("samples", func(t *testing.T) {
		parts, err := SplitBlock(splittableBlock(t), AxisSamples, []*Labels{
			labels(t, []string{"s"}, []int32{2}, []int32{0}),
			labels(t, []string{"s"}, []int32{3}),
		})
		require.NoError(t, err)
		require.Len(t, parts, 2)

		first := parts[0]
		assert.Equal(t, [][]int32{{0}, {2}}, first.Samples().Values())
		assert.Equal(t, []float64{0, 1, 4, 5}, float64s(first))
		g, err := first.Gradient("x")
		require.NoError(t, err)
		assert.Equal(t, [][]int32{{1}, {0}}, g.Samples().Values())
		assert.Equal(t, []float64{-4, -5, -0.5, -1}, float64s(g))

		second := parts[1]
		assert.Equal(t, [][]int32{{3}}, second.Samples().Values())
		assert.Equal(t, []float64{6, 7}, float64s(second))
		g, err = second.Gradient("x")
		require.NoError(t, err)
		assert.Equal(t, 0, g.Samples().Count())
		assert.Equal(t, []int{0, 2}, g.Values().Shape())
	})

	t.Run("properties", func(t *testing.T) {
		parts, err := SplitBlock(splittableBlock(t), AxisProperties, []*Labels{
			labels(t, []string{"p"}, []int32{1}),
		})
		require.NoError(t, err)
		require.Len(t, parts, 1)
		assert.Equal(t, [][]int32{{1}}, parts[0].Properties().Values())
		assert.Equal(t, []float64{1, 3, 5, 7}, float64s(parts[0]))
		g, err := parts[0].Gradient("x")
		require.NoError(t, err)
		assert.Equal(t, []float64{-5, -1}, float64s(g))
	})

	t.Run("no match", func(t *testing.T) {
		parts, err := SplitBlock(splittableBlock(t), AxisSamples, []*Labels{
			labels(t, []string{"s"}, []int32{9}),
		})
		require.NoError(t, err)
		assert.Equal(t, 0, parts[0].Samples().Count())
		assert.Equal(t, []int{0, 2}, parts[0].Values().Shape())
	})

	t.Run("errors", func(t *testing.T) {
		b := splittableBlock(t)
		_, err := SplitBlock(b, AxisSamples, []*Labels{labels(t, []string{"z"}, []int32{0})})
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = SplitBlock(b, AxisSamples, []*Labels{nil})
		assert.ErrorIs(t, err, ErrInvalidParameter)

		_, err = SplitBlock(b, AxisProperties, []*Labels{labels(t, nil)})
		assert.ErrorIs(t, err, ErrInvalidParameter)
	})
}

func TestSplit(t *testing.T) {
	tm := exampleMap(t)
	maps, err := Split(tm, AxisProperties, []*Labels{
		labels(t, []string{"p"}, []int32{0}),
		labels(t, []string{"p"}, []int32{1}),
	})
	require.NoError(t, err)
	require.Len(t, maps, 2)

	for n, m := range maps {
		assert.True(t, m.Keys().Equal(tm.Keys()))
		assert.Equal(t, 3, m.Len())
		for _, b := range m.Items() {
			assert.Equal(t, [][]int32{{int32(n)}}, b.Properties().Values())
		}
	}
	b, err := maps[0].BlockByID(0)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 12, 14, 16}, float64s(b))
	b, err = maps[1].BlockByID(2)
	require.NoError(t, err)
	assert.Equal(t, []float64{31, 33, 35, 37}, float64s(b))

	t.Run("samples", func(t *testing.T) {
		maps, err := Split(tm, AxisSamples, []*Labels{labels(t, []string{"s"}, []int32{1})})
		require.NoError(t, err)
		counts := make([]int, 0, 3)
		for _, b := range maps[0].Items() {
			counts = append(counts, b.Samples().Count())
		}
		assert.Equal(t, []int{1, 1, 0}, counts)
	})
}
