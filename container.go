// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensormap

import (
	"fmt"
	"strconv"

	"github.com/nlpodyssey/tensormap/array"
	"github.com/nlpodyssey/tensormap/dtype"
	"github.com/nlpodyssey/tensormap/header"
)

// A container stores a TensorMap with the safetensors layout. Every
// Labels is stored as an I32 array of shape (count, size), whose dimension
// names are kept in the metadata under "names:" followed by the entry name.
//
//	keys
//	blocks/<i>/values
//	blocks/<i>/values/samples
//	blocks/<i>/values/components/<k>
//	blocks/<i>/values/properties
//	blocks/<i>/gradients/<parameter>/values
//	blocks/<i>/gradients/<parameter>/samples
const (
	formatVersion   = "tensormap/1"
	formatKey       = "format"
	blocksKey       = "blocks"
	namesPrefix     = "names:"
	gradientsPrefix = "gradients:"
	keysEntry       = "keys"
)

func blockEntry(i int) string {
	return "blocks/" + strconv.Itoa(i)
}

func valuesEntry(i int) string {
	return blockEntry(i) + "/values"
}

func samplesEntry(i int) string {
	return valuesEntry(i) + "/samples"
}

func componentEntry(i, k int) string {
	return valuesEntry(i) + "/components/" + strconv.Itoa(k)
}

func propertiesEntry(i int) string {
	return valuesEntry(i) + "/properties"
}

func gradientEntry(i int, parameter string) string {
	return blockEntry(i) + "/gradients/" + parameter
}

func gradientsKey(i int) string {
	return gradientsPrefix + strconv.Itoa(i)
}

// source gives access to the data of the entries of a container.
type source interface {
	data(e header.Entry) ([]byte, error)
}

// bufferSource is a byte-buffer fully loaded in memory.
type bufferSource []byte

func (b bufferSource) data(e header.Entry) ([]byte, error) {
	if e.DataOffsets.End > len(b) {
		return nil, fmt.Errorf("data of %q ends at byte %d, after the end of the data (%d bytes)", e.Name, e.DataOffsets.End, len(b))
	}
	return b[e.DataOffsets.Begin:e.DataOffsets.End:e.DataOffsets.End], nil
}

// decoder rebuilds the objects stored in a container.
type decoder struct {
	head header.Header
	src  source
}

func newDecoder(head header.Header, src source) (*decoder, error) {
	if v := head.Metadata[formatKey]; v != formatVersion {
		return nil, fmt.Errorf("unsupported container format %q, expected %q", v, formatVersion)
	}
	return &decoder{head: head, src: src}, nil
}

func (d *decoder) entry(name string) (header.Entry, error) {
	e, ok := d.head.Entries[name]
	if !ok {
		return header.Entry{}, fmt.Errorf("entry %q is missing", name)
	}
	return e, nil
}

func (d *decoder) array(name string) (array.Array, error) {
	e, err := d.entry(name)
	if err != nil {
		return nil, err
	}
	raw, err := d.src.data(e)
	if err != nil {
		return nil, err
	}
	a, err := array.New(e.DType, e.Shape, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid entry %q: %w", name, err)
	}
	return a, nil
}

func (d *decoder) labels(name string) (*Labels, error) {
	names, err := d.head.Metadata.Strings(namesPrefix + name)
	if err != nil {
		return nil, err
	}
	a, err := d.array(name)
	if err != nil {
		return nil, err
	}
	shape := a.Shape()
	if a.DType() != dtype.I32 || len(shape) != 2 || shape[1] != len(names) {
		return nil, fmt.Errorf("labels entry %q must be an I32 array of shape (n, %d), got %s %v", name, len(names), a.DType(), shape)
	}
	values, err := array.Values[int32](a)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		if shape[0] != 0 {
			return nil, fmt.Errorf("labels entry %q has %d rows but no names", name, shape[0])
		}
		return EmptyLabels()
	}
	return NewLabelsFlat(names, values)
}

func (d *decoder) keys() (*Labels, error) {
	keys, err := d.labels(keysEntry)
	if err != nil {
		return nil, err
	}
	n, err := d.head.Metadata.Int(blocksKey)
	if err != nil {
		return nil, err
	}
	if n != keys.Count() {
		return nil, fmt.Errorf("the container has %d keys but %d blocks", keys.Count(), n)
	}
	return keys, nil
}

func (d *decoder) block(i int) (*TensorBlock, error) {
	values, err := d.array(valuesEntry(i))
	if err != nil {
		return nil, err
	}
	samples, err := d.labels(samplesEntry(i))
	if err != nil {
		return nil, err
	}
	var components []*Labels
	for k := 0; k < len(values.Shape())-2; k++ {
		c, err := d.labels(componentEntry(i, k))
		if err != nil {
			return nil, err
		}
		components = append(components, c)
	}
	properties, err := d.labels(propertiesEntry(i))
	if err != nil {
		return nil, err
	}
	block, err := NewTensorBlock(values, samples, components, properties)
	if err != nil {
		return nil, err
	}

	parameters, err := d.head.Metadata.Strings(gradientsKey(i))
	if err != nil {
		return nil, err
	}
	for _, parameter := range parameters {
		prefix := gradientEntry(i, parameter)
		gValues, err := d.array(prefix + "/values")
		if err != nil {
			return nil, err
		}
		gSamples, err := d.labels(prefix + "/samples")
		if err != nil {
			return nil, err
		}
		gradient, err := NewTensorBlock(gValues, gSamples, block.components, block.properties)
		if err != nil {
			return nil, err
		}
		if err = block.addGradient(parameter, gradient); err != nil {
			return nil, err
		}
	}
	return block, nil
}

func (d *decoder) tensorMap() (*TensorMap, error) {
	keys, err := d.keys()
	if err != nil {
		return nil, err
	}
	blocks := make([]*TensorBlock, keys.Count())
	for i := range blocks {
		if blocks[i], err = d.block(i); err != nil {
			return nil, fmt.Errorf("failed to decode block %d: %w", i, err)
		}
	}
	return New(keys, blocks)
}
