// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensormap

import (
	"testing"

	"github.com/nlpodyssey/tensormap/array"
	"github.com/nlpodyssey/tensormap/dtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exampleMap returns a map with keys (o, c) = (1, 0), (1, 1), (2, 0), one
// sample dimension "s", a component "x" of size 2 and properties "p".
func exampleMap(t *testing.T) *TensorMap {
	t.Helper()
	keys := labels(t, []string{"o", "c"}, []int32{1, 0}, []int32{1, 1}, []int32{2, 0})
	component := labels(t, []string{"x"}, []int32{0}, []int32{1})
	properties := labels(t, []string{"p"}, []int32{0}, []int32{1})
	blocks := make([]*TensorBlock, keys.Count())
	for i := range blocks {
		base := float64(10 * (i + 1))
		blocks[i] = block(t,
			f64(t, []int{2, 2, 2}, base, base+1, base+2, base+3, base+4, base+5, base+6, base+7),
			labels(t, []string{"s"}, []int32{int32(i)}, []int32{int32(i + 1)}),
			[]*Labels{component},
			properties)
	}
	return tensorMap(t, keys, blocks...)
}

func TestNew(t *testing.T) {
	s := labels(t, []string{"s"}, []int32{0})
	p := labels(t, []string{"p"}, []int32{0})
	newBlock := func(t *testing.T) *TensorBlock {
		return block(t, f64(t, []int{1, 1}, 1), s, nil, p)
	}

	t.Run("valid", func(t *testing.T) {
		keys := labels(t, []string{"k"}, []int32{0}, []int32{1})
		tm, err := New(keys, []*TensorBlock{newBlock(t), newBlock(t)})
		require.NoError(t, err)
		assert.Equal(t, 2, tm.Len())
		assert.Same(t, keys, tm.Keys())
		assert.Equal(t, []string{"s"}, tm.SampleNames())
		assert.Equal(t, []string{}, tm.ComponentsNames())
		assert.Equal(t, []string{"p"}, tm.PropertyNames())
	})

	t.Run("view keys", func(t *testing.T) {
		source := labels(t, []string{"k", "z"}, []int32{0, 0})
		view, err := source.View("k")
		require.NoError(t, err)
		tm, err := New(view, []*TensorBlock{newBlock(t)})
		require.NoError(t, err)
		assert.False(t, tm.Keys().IsView())
	})

	testCases := []struct {
		name   string
		keys   *Labels
		blocks func(t *testing.T) []*TensorBlock
	}{
		{"nil keys", nil, func(t *testing.T) []*TensorBlock { return nil }},
		{"count mismatch", SingleLabels(), func(t *testing.T) []*TensorBlock {
			return []*TensorBlock{newBlock(t), newBlock(t)}
		}},
		{"nil block", SingleLabels(), func(t *testing.T) []*TensorBlock { return []*TensorBlock{nil} }},
		{"sample names", labels(t, []string{"k"}, []int32{0}, []int32{1}), func(t *testing.T) []*TensorBlock {
			other := block(t, f64(t, []int{1, 1}, 1), labels(t, []string{"t"}, []int32{0}), nil, p)
			return []*TensorBlock{newBlock(t), other}
		}},
		{"properties", labels(t, []string{"k"}, []int32{0}, []int32{1}), func(t *testing.T) []*TensorBlock {
			other := block(t, f64(t, []int{1, 1}, 1), s, nil, labels(t, []string{"p"}, []int32{1}))
			return []*TensorBlock{newBlock(t), other}
		}},
		{"components", labels(t, []string{"k"}, []int32{0}, []int32{1}), func(t *testing.T) []*TensorBlock {
			other := block(t, f64(t, []int{1, 1, 1}, 1), s, []*Labels{labels(t, []string{"c"}, []int32{0})}, p)
			return []*TensorBlock{newBlock(t), other}
		}},
		{"dtype", labels(t, []string{"k"}, []int32{0}, []int32{1}), func(t *testing.T) []*TensorBlock {
			values, err := array.Zeros(dtype.F32, []int{1, 1})
			require.NoError(t, err)
			return []*TensorBlock{newBlock(t), block(t, values, s, nil, p)}
		}},
		{"device", labels(t, []string{"k"}, []int32{0}, []int32{1}), func(t *testing.T) []*TensorBlock {
			moved, err := newBlock(t).To("gpu:0")
			require.NoError(t, err)
			return []*TensorBlock{newBlock(t), moved}
		}},
		{"gradients", labels(t, []string{"k"}, []int32{0}, []int32{1}), func(t *testing.T) []*TensorBlock {
			other := newBlock(t)
			require.NoError(t, other.AddGradient("x", gradientBlock(t, []int32{0}, 1)))
			return []*TensorBlock{newBlock(t), other}
		}},
		{"gradient block", SingleLabels(), func(t *testing.T) []*TensorBlock {
			parent := newBlock(t)
			require.NoError(t, parent.AddGradient("x", gradientBlock(t, []int32{0}, 1)))
			g, err := parent.Gradient("x")
			require.NoError(t, err)
			return []*TensorBlock{g}
		}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.keys, tc.blocks(t))
			assert.ErrorIs(t, err, ErrInvalidParameter)
		})
	}

	t.Run("block owned by another map", func(t *testing.T) {
		shared := newBlock(t)
		tensorMap(t, SingleLabels(), shared)

		free := newBlock(t)
		_, err := New(labels(t, []string{"k"}, []int32{0}, []int32{1}), []*TensorBlock{free, shared})
		assert.EqualError(t, err, "block 1 is already part of a TensorMap, copy it first: invalid parameter")

		// the first block was released and can be used again
		tensorMap(t, SingleLabels(), free)
	})
}

func TestTensorMap_Empty(t *testing.T) {
	keys, err := EmptyLabels("k")
	require.NoError(t, err)
	tm := tensorMap(t, keys)

	assert.Equal(t, 0, tm.Len())
	ids, err := tm.BlocksMatching(labels(t, []string{"k"}, []int32{0}))
	require.NoError(t, err)
	assert.Equal(t, []int{}, ids)

	b, err := tm.Block(labels(t, []string{"k"}, []int32{0}))
	require.NoError(t, err)
	assert.Nil(t, b)

	blocks, err := tm.Blocks(nil)
	require.NoError(t, err)
	assert.Empty(t, blocks)

	assert.Equal(t, []string{}, tm.SampleNames())
	assert.Equal(t, []string{}, tm.ComponentsNames())
	assert.Equal(t, []string{}, tm.PropertyNames())
	assert.Equal(t, 0, tm.Copy().Len())
}

func TestTensorMap_Selection(t *testing.T) {
	tm := exampleMap(t)

	t.Run("by id", func(t *testing.T) {
		b, err := tm.BlockByID(2)
		require.NoError(t, err)
		assert.Equal(t, float64(30), float64s(b)[0])

		_, err = tm.BlockByID(3)
		assert.ErrorIs(t, err, ErrOutOfRange)

		blocks, err := tm.BlocksByID([]int{2, 0})
		require.NoError(t, err)
		require.Len(t, blocks, 2)
		assert.Equal(t, float64(10), float64s(blocks[1])[0])

		_, err = tm.BlocksByID([]int{0, -1})
		assert.ErrorIs(t, err, ErrOutOfRange)
	})

	t.Run("matching", func(t *testing.T) {
		ids, err := tm.BlocksMatching(labels(t, []string{"o"}, []int32{1}))
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1}, ids)

		ids, err = tm.BlocksMatching(nil)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1, 2}, ids)
	})

	t.Run("single block", func(t *testing.T) {
		b, err := tm.Block(labels(t, []string{"c", "o"}, []int32{1, 1}))
		require.NoError(t, err)
		assert.Equal(t, float64(20), float64s(b)[0])

		_, err = tm.Block(labels(t, []string{"o"}, []int32{1}))
		assert.EqualError(t, err, "the selection matches 2 blocks, expected exactly one: invalid parameter")

		_, err = tm.Block(labels(t, []string{"o"}, []int32{7}))
		assert.ErrorIs(t, err, ErrInvalidParameter)

		_, err = tm.Block(labels(t, []string{"z"}, []int32{1}))
		assert.ErrorIs(t, err, ErrInvalidParameter)
	})

	t.Run("blocks", func(t *testing.T) {
		blocks, err := tm.Blocks(labels(t, []string{"c"}, []int32{0}))
		require.NoError(t, err)
		require.Len(t, blocks, 2)
		assert.Equal(t, float64(10), float64s(blocks[0])[0])
		assert.Equal(t, float64(30), float64s(blocks[1])[0])
	})

	t.Run("items", func(t *testing.T) {
		var keys [][]int32
		for key, b := range tm.Items() {
			keys = append(keys, key.Values())
			assert.NotNil(t, b)
		}
		assert.Equal(t, [][]int32{{1, 0}, {1, 1}, {2, 0}}, keys)

		n := 0
		for range tm.Items() {
			n++
			break
		}
		assert.Equal(t, 1, n)
	})

	t.Run("names", func(t *testing.T) {
		assert.Equal(t, []string{"s"}, tm.SampleNames())
		assert.Equal(t, []string{"x"}, tm.ComponentsNames())
		assert.Equal(t, []string{"p"}, tm.PropertyNames())
	})
}

func TestTensorMap_Copy(t *testing.T) {
	tm := exampleMap(t)
	c := tm.Copy()
	require.Equal(t, tm.Len(), c.Len())
	assert.True(t, c.Keys().Equal(tm.Keys()))

	b, err := c.BlockByID(0)
	require.NoError(t, err)
	b.Values().Data()[0] = 0xff
	orig, err := tm.BlockByID(0)
	require.NoError(t, err)
	assert.Equal(t, float64(10), float64s(orig)[0])

	err = b.AddGradient("x", gradientBlock(t, []int32{0}, 1))
	assert.ErrorIs(t, err, ErrInvalidParameter, "blocks of the copy belong to it")
}

func TestTensorMap_To(t *testing.T) {
	tm := exampleMap(t)
	moved, err := tm.To("gpu:0")
	require.NoError(t, err)
	device := array.Device("gpu:0")
	assert.Equal(t, device, moved.Keys().Device())
	for _, b := range moved.Items() {
		assert.Equal(t, device, b.Values().Device())
		assert.Equal(t, device, b.Samples().Device())
	}

	_, err = tm.To("")
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestTensorMap_Print(t *testing.T) {
	tm := exampleMap(t)
	assert.Equal(t, "TensorMap with 3 blocks\n"+
		"keys: Labels(\n"+
		"          o  c\n"+
		"          1  0\n"+
		"          ...\n"+
		"          2  0\n"+
		"      )\n"+
		"blocks:\n"+
		"    LabelsEntry(o=1, c=0): TensorBlock(F64 [2 2 2], samples=[s], components=[x], properties=[p])\n"+
		"    ...\n"+
		"    LabelsEntry(o=2, c=0): TensorBlock(F64 [2 2 2], samples=[s], components=[x], properties=[p])",
		tm.Print(2))

	keys, err := EmptyLabels("k")
	require.NoError(t, err)
	assert.Equal(t, "TensorMap with 0 blocks\nkeys: Labels(\n          k\n      )", tensorMap(t, keys).String())
}
