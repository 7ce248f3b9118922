// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensormap

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/nlpodyssey/tensormap/array"
	"github.com/nlpodyssey/tensormap/header"
)

// Save writes tm to the file at path, creating or truncating it.
// See Write for the content of the file.
func Save(path string, tm *TensorMap) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if e := f.Close(); e != nil && err == nil {
			err = e
		}
	}()

	w := bufio.NewWriter(f)
	if err = Write(w, tm); err != nil {
		return err
	}
	return w.Flush()
}

// Write serializes tm to w, as a self-describing container: a JSON header
// with the dtype, shape and position of every array, followed by the
// little-endian data of all the arrays. Labels are stored as I32 arrays.
//
// The device of the arrays is not stored: Read and Load always return
// arrays on the CPU device.
func Write(w io.Writer, tm *TensorMap) error {
	enc := newEncoder()
	if err := enc.tensorMap(tm); err != nil {
		return err
	}
	head, err := enc.header()
	if err != nil {
		return err
	}
	if _, err = header.Write(w, head); err != nil {
		return err
	}
	for _, p := range enc.payloads {
		if _, err = w.Write(p.data); err != nil {
			return fmt.Errorf("failed to write data of %q: %w", p.entry.Name, err)
		}
	}
	return nil
}

// payload is an array to store, with its header entry.
type payload struct {
	entry header.Entry
	data  []byte
}

// encoder lays out the arrays of a TensorMap one after the other.
type encoder struct {
	payloads []payload
	metadata header.Metadata
	offset   int
}

func newEncoder() *encoder {
	return &encoder{metadata: header.Metadata{formatKey: formatVersion}}
}

func (enc *encoder) array(name string, a array.Array) {
	data := a.Data()
	end := enc.offset + len(data)
	enc.payloads = append(enc.payloads, payload{
		entry: header.Entry{
			Name:        name,
			DType:       a.DType(),
			Shape:       a.Shape(),
			DataOffsets: header.DataOffsets{Begin: enc.offset, End: end},
		},
		data: data,
	})
	enc.offset = end
}

func (enc *encoder) labels(name string, l *Labels) error {
	flat := make([]int32, 0, l.count*len(l.names))
	for i := 0; i < l.count; i++ {
		flat = l.appendRow(flat, i)
	}
	a, err := array.FromSlice([]int{l.count, len(l.names)}, flat)
	if err != nil {
		return err
	}
	enc.array(name, a)
	return enc.metadata.SetStrings(namesPrefix+name, l.names)
}

func (enc *encoder) tensorMap(tm *TensorMap) error {
	if err := enc.labels(keysEntry, tm.keys); err != nil {
		return err
	}
	enc.metadata.SetInt(blocksKey, len(tm.blocks))
	for i, block := range tm.blocks {
		if err := enc.block(i, block); err != nil {
			return fmt.Errorf("failed to encode block %d: %w", i, err)
		}
	}
	return nil
}

func (enc *encoder) block(i int, b *TensorBlock) error {
	enc.array(valuesEntry(i), b.values)
	if err := enc.labels(samplesEntry(i), b.samples); err != nil {
		return err
	}
	for k, c := range b.components {
		if err := enc.labels(componentEntry(i, k), c); err != nil {
			return err
		}
	}
	if err := enc.labels(propertiesEntry(i), b.properties); err != nil {
		return err
	}
	if err := enc.metadata.SetStrings(gradientsKey(i), b.gradientNames); err != nil {
		return err
	}
	for parameter, g := range b.Gradients() {
		prefix := gradientEntry(i, parameter)
		enc.array(prefix+"/values", g.values)
		if err := enc.labels(prefix+"/samples", g.samples); err != nil {
			return err
		}
	}
	return nil
}

func (enc *encoder) header() (header.Header, error) {
	entries := make(header.Entries, len(enc.payloads))
	for _, p := range enc.payloads {
		if _, ok := entries[p.entry.Name]; ok {
			return header.Header{}, fmt.Errorf("duplicate entry name %q", p.entry.Name)
		}
		entries[p.entry.Name] = p.entry
	}
	head := header.Header{Entries: entries, Metadata: enc.metadata}
	if err := head.Validate(); err != nil {
		return header.Header{}, fmt.Errorf("failed to generate a valid header: %w", err)
	}
	return head, nil
}
