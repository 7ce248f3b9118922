// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensormap

// ZerosLikeBlock returns a block with the same metadata and gradients as
// block, whose arrays are filled with zeros.
func ZerosLikeBlock(block *TensorBlock) (*TensorBlock, error) {
	values, err := block.values.Zeros(block.values.Shape())
	if err != nil {
		return nil, err
	}
	out, err := NewTensorBlock(values, block.samples, block.components, block.properties)
	if err != nil {
		return nil, err
	}
	for parameter, g := range block.Gradients() {
		gValues, err := g.values.Zeros(g.values.Shape())
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

// ZerosLike returns a TensorMap with the same keys and metadata as tm,
// whose arrays are filled with zeros.
func ZerosLike(tm *TensorMap) (*TensorMap, error) {
	blocks := make([]*TensorBlock, len(tm.blocks))
	for i, block := range tm.blocks {
		zeros, err := ZerosLikeBlock(block)
		if err != nil {
			return nil, err
		}
		blocks[i] = zeros
	}
	return New(tm.keys, blocks)
}
