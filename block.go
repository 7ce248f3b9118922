// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensormap

import (
	"iter"
	"slices"
	"sync/atomic"

	"github.com/nlpodyssey/tensormap/array"
)

// GradientSampleName is the name of the first sample dimension of every
// gradient block, holding the index of the parent sample each gradient row
// refers to.
const GradientSampleName = "sample"

// valuesParameter can not be used as gradient parameter, since it names
// the values themselves in serialized containers.
const valuesParameter = "values"

// TensorBlock is a dense array annotated with metadata for each of its
// axes: samples for the first one, one single-dimension Labels per
// intermediate (component) axis, and properties for the last one.
// A block can carry gradients of its values with respect to named
// parameters, stored as blocks sharing components and properties with it.
//
// A block is immutable once it belongs to a TensorMap.
type TensorBlock struct {
	values     array.Array
	samples    *Labels
	components []*Labels
	properties *Labels

	gradients     map[string]*TensorBlock
	gradientNames []string
	isGradient    bool

	// owned is set once the block belongs to a TensorMap.
	owned atomic.Bool
}

// NewTensorBlock creates a block from its values and the metadata of each
// axis. Views among the given labels are converted to owned labels.
//
// It fails with ErrInvalidParameter if the shape of values is not
// (samples, components..., properties) or if a component has other than
// exactly one dimension, or if two components have the same name.
func NewTensorBlock(values array.Array, samples *Labels, components []*Labels, properties *Labels) (*TensorBlock, error) {
	if values == nil {
		return nil, invalidParameter("tensor block values must not be nil")
	}
	if samples == nil || properties == nil {
		return nil, invalidParameter("tensor block samples and properties must not be nil")
	}

	var err error
	if samples, err = samples.ToOwned(); err != nil {
		return nil, err
	}
	if properties, err = properties.ToOwned(); err != nil {
		return nil, err
	}
	owned := make([]*Labels, len(components))
	seen := make(map[string]int, len(components))
	for k, c := range components {
		if c == nil {
			return nil, invalidParameter("tensor block component %d must not be nil", k)
		}
		if c.Size() != 1 {
			return nil, invalidParameter("tensor block component %d must have exactly one dimension, got %v", k, c.names)
		}
		if prev, ok := seen[c.names[0]]; ok {
			return nil, invalidParameter("tensor block components %d and %d have the same name %q", prev, k, c.names[0])
		}
		seen[c.names[0]] = k
		if owned[k], err = c.ToOwned(); err != nil {
			return nil, err
		}
	}

	if err = checkShape(values.Shape(), samples, owned, properties); err != nil {
		return nil, err
	}
	return &TensorBlock{
		values:     values,
		samples:    samples,
		components: owned,
		properties: properties,
	}, nil
}

func checkShape(shape []int, samples *Labels, components []*Labels, properties *Labels) error {
	if len(shape) != len(components)+2 {
		return invalidParameter("values array has %d dimensions, but %d components were given (expected %d dimensions)",
			len(shape), len(components), len(components)+2)
	}
	if shape[0] != samples.Count() {
		return invalidParameter("the first dimension of values (%d) does not match the number of samples (%d)",
			shape[0], samples.Count())
	}
	for k, c := range components {
		if shape[k+1] != c.Count() {
			return invalidParameter("dimension %d of values (%d) does not match the size of component %q (%d)",
				k+1, shape[k+1], c.names[0], c.Count())
		}
	}
	if last := shape[len(shape)-1]; last != properties.Count() {
		return invalidParameter("the last dimension of values (%d) does not match the number of properties (%d)",
			last, properties.Count())
	}
	return nil
}

// Values returns the dense array of the block.
func (b *TensorBlock) Values() array.Array {
	return b.values
}

// Samples returns the metadata of the first axis.
func (b *TensorBlock) Samples() *Labels {
	return b.samples
}

// Components returns the metadata of the intermediate axes, in order.
func (b *TensorBlock) Components() []*Labels {
	return slices.Clone(b.components)
}

// Properties returns the metadata of the last axis.
func (b *TensorBlock) Properties() *Labels {
	return b.properties
}

// componentNames returns the name of each component.
func (b *TensorBlock) componentNames() []string {
	names := make([]string, len(b.components))
	for k, c := range b.components {
		names[k] = c.names[0]
	}
	return names
}

// AddGradient attaches gradient as the gradient of the block values with
// respect to parameter.
//
// The gradient samples must start with the "sample" dimension, holding
// indices of rows of the block samples; its components and properties must
// be equal to the ones of the block, with the same dtype and device.
// It fails with ErrInvalidParameter otherwise, or if the block already
// belongs to a TensorMap, or if a gradient for parameter already exists.
func (b *TensorBlock) AddGradient(parameter string, gradient *TensorBlock) error {
	if b.owned.Load() {
		return invalidParameter("can not add gradients to a block which is part of a TensorMap")
	}
	return b.addGradient(parameter, gradient)
}

func (b *TensorBlock) addGradient(parameter string, gradient *TensorBlock) error {
	if b.isGradient {
		return invalidParameter("can not add gradients with respect to %q to a gradient block", parameter)
	}
	if parameter == "" || parameter == valuesParameter {
		return invalidParameter("invalid gradient parameter name %q", parameter)
	}
	if _, ok := b.gradients[parameter]; ok {
		return invalidParameter("gradient with respect to %q already exists for this block", parameter)
	}
	if gradient == nil {
		return invalidParameter("gradient with respect to %q must not be nil", parameter)
	}
	if len(gradient.gradientNames) > 0 {
		return invalidParameter("gradient with respect to %q must not have gradients itself", parameter)
	}
	if err := b.checkGradient(parameter, gradient); err != nil {
		return err
	}

	if b.gradients == nil {
		b.gradients = make(map[string]*TensorBlock)
	}
	b.gradients[parameter] = &TensorBlock{
		values:     gradient.values,
		samples:    gradient.samples,
		components: b.components,
		properties: b.properties,
		isGradient: true,
	}
	b.gradientNames = append(b.gradientNames, parameter)
	return nil
}

func (b *TensorBlock) checkGradient(parameter string, g *TensorBlock) error {
	if g.samples.Size() == 0 || g.samples.names[0] != GradientSampleName {
		return invalidParameter("the first dimension of gradient samples with respect to %q must be %q, got %v",
			parameter, GradientSampleName, g.samples.names)
	}
	if len(g.components) != len(b.components) {
		return invalidParameter("gradient with respect to %q has %d components, but the block has %d",
			parameter, len(g.components), len(b.components))
	}
	for k, c := range b.components {
		if !c.Equal(g.components[k]) {
			return invalidParameter("component %d of the gradient with respect to %q does not match the block", k, parameter)
		}
	}
	if !b.properties.Equal(g.properties) {
		return invalidParameter("properties of the gradient with respect to %q do not match the block", parameter)
	}
	if g.values.DType() != b.values.DType() {
		return invalidParameter("gradient with respect to %q has dtype %s, but the block values have dtype %s",
			parameter, g.values.DType(), b.values.DType())
	}
	if g.values.Device() != b.values.Device() {
		return invalidParameter("gradient with respect to %q is on device %q, but the block values are on %q",
			parameter, g.values.Device(), b.values.Device())
	}
	n := int32(b.samples.Count())
	for i := 0; i < g.samples.Count(); i++ {
		if s := g.samples.at(i, 0); s < 0 || s >= n {
			return invalidParameter("gradient with respect to %q refers to sample %d, but the block has %d samples",
				parameter, s, n)
		}
	}
	return nil
}

// GradientsList returns the gradient parameters, in registration order.
func (b *TensorBlock) GradientsList() []string {
	return slices.Clone(b.gradientNames)
}

// HasGradient reports whether the block has a gradient with respect to
// parameter.
func (b *TensorBlock) HasGradient(parameter string) bool {
	_, ok := b.gradients[parameter]
	return ok
}

// Gradient returns the gradient with respect to parameter. It fails with
// ErrNotFound if there is no such gradient.
func (b *TensorBlock) Gradient(parameter string) (*TensorBlock, error) {
	g, ok := b.gradients[parameter]
	if !ok {
		return nil, notFound("no gradient with respect to %q in this block", parameter)
	}
	return g, nil
}

// Gradients iterates over the (parameter, gradient) pairs in registration
// order.
func (b *TensorBlock) Gradients() iter.Seq2[string, *TensorBlock] {
	return func(yield func(string, *TensorBlock) bool) {
		for _, name := range b.gradientNames {
			if !yield(name, b.gradients[name]) {
				return
			}
		}
	}
}

// Copy returns a deep copy of the block values and gradients. Labels are
// shared, being immutable. The copy does not belong to any TensorMap.
func (b *TensorBlock) Copy() *TensorBlock {
	out, _ := b.rebuild(func(a array.Array) (array.Array, error) {
		return a.Copy(), nil
	}, "")
	return out
}

// To returns a copy of the block, with values, gradients and labels moved
// to device.
func (b *TensorBlock) To(device array.Device) (*TensorBlock, error) {
	if device == "" {
		return nil, invalidParameter("device must not be empty")
	}
	return b.rebuild(func(a array.Array) (array.Array, error) {
		return a.To(device)
	}, device)
}

// rebuild creates a new block whose arrays are derived from the ones of b
// with convert, and whose labels are tagged with device unless it is empty.
func (b *TensorBlock) rebuild(convert func(array.Array) (array.Array, error), device array.Device) (*TensorBlock, error) {
	relabel := func(l *Labels) *Labels {
		if device == "" {
			return l
		}
		return l.To(device)
	}

	values, err := convert(b.values)
	if err != nil {
		return nil, err
	}
	components := make([]*Labels, len(b.components))
	for k, c := range b.components {
		components[k] = relabel(c)
	}
	out := &TensorBlock{
		values:        values,
		samples:       relabel(b.samples),
		components:    components,
		properties:    relabel(b.properties),
		gradientNames: slices.Clone(b.gradientNames),
		isGradient:    b.isGradient,
	}
	if len(b.gradients) > 0 {
		out.gradients = make(map[string]*TensorBlock, len(b.gradients))
	}
	for name, g := range b.gradients {
		gv, err := convert(g.values)
		if err != nil {
			return nil, err
		}
		out.gradients[name] = &TensorBlock{
			values:     gv,
			samples:    relabel(g.samples),
			components: components,
			properties: out.properties,
			isGradient: true,
		}
	}
	return out, nil
}
