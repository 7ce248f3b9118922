// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensormap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerosLike(t *testing.T) {
	tm := mapWithGradients(t)
	zeros, err := ZerosLike(tm)
	require.NoError(t, err)
	assert.True(t, zeros.Keys().Equal(tm.Keys()))

	for i := 0; i < tm.Len(); i++ {
		orig, err := tm.BlockByID(i)
		require.NoError(t, err)
		z, err := zeros.BlockByID(i)
		require.NoError(t, err)

		assert.Equal(t, orig.Values().Shape(), z.Values().Shape())
		assert.Equal(t, orig.Values().DType(), z.Values().DType())
		assert.True(t, z.Samples().Equal(orig.Samples()))
		assert.True(t, z.Properties().Equal(orig.Properties()))
		assert.Equal(t, []float64{0, 0}, float64s(z))

		assert.Equal(t, orig.GradientsList(), z.GradientsList())
		g, err := z.Gradient("x")
		require.NoError(t, err)
		og, err := orig.Gradient("x")
		require.NoError(t, err)
		assert.True(t, g.Samples().Equal(og.Samples()))
		for _, v := range float64s(g) {
			assert.Zero(t, v)
		}
	}

	b, err := tm.BlockByID(0)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, float64s(b))
}
