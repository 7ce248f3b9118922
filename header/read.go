// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package header

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/nlpodyssey/tensormap/dtype"
)

// Read reads and parses the header at the beginning of r.
//
// No validation is performed on the result: see Header.Validate.
//
// Read does not limit the amount of data read for the header, up to
// math.MaxInt bytes. Callers reading untrusted data should wrap r with a
// limiting reader, such as io.LimitedReader.
func Read(r io.Reader) (Header, error) {
	size, err := readSize(r)
	switch {
	case err != nil:
		return Header{}, err
	case size < 2: // a bare minimum header is "{}"
		return Header{}, fmt.Errorf("header size too small: %d", size)
	case size > math.MaxInt-8: // the size itself takes 8 bytes
		return Header{}, fmt.Errorf("header size too large: %d", size)
	}

	raw, err := decodeJSON(r, int64(size))
	if err != nil {
		return Header{}, fmt.Errorf("failed to JSON-decode header: %w", err)
	}
	h, err := parse(raw)
	if err != nil {
		return Header{}, err
	}
	h.ByteBufferOffset = 8 + int(size)
	return h, nil
}

func readSize(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, fmt.Errorf("failed to read header size: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func decodeJSON(r io.Reader, size int64) (map[string]json.RawMessage, error) {
	dec := json.NewDecoder(&io.LimitedReader{R: r, N: size})
	var raw map[string]json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	// only padding spaces may follow the JSON object
	if off := dec.InputOffset(); off != size {
		if _, err := dec.Token(); err == nil {
			return nil, fmt.Errorf("unexpected data at byte offset %d", off)
		} else if err != io.EOF {
			return nil, err
		}
	}
	return raw, nil
}

func parse(raw map[string]json.RawMessage) (h Header, err error) {
	if msg, ok := raw[metadataKey]; ok {
		var metadata Metadata
		if err = json.Unmarshal(msg, &metadata); err != nil {
			return Header{}, fmt.Errorf("failed to interpret header metadata: %w", err)
		}
		if len(metadata) > 0 {
			h.Metadata = metadata
		}
	}
	for name, msg := range raw {
		if name == metadataKey {
			continue
		}
		e, err := parseEntry(name, msg)
		if err != nil {
			return Header{}, fmt.Errorf("failed to interpret header entry %q: %w", name, err)
		}
		if h.Entries == nil {
			h.Entries = make(Entries, len(raw))
		}
		h.Entries[name] = e
	}
	return h, nil
}

func parseEntry(name string, msg json.RawMessage) (Entry, error) {
	var raw struct {
		DType       *dtype.DType `json:"dtype"`
		Shape       *Shape       `json:"shape"`
		DataOffsets *DataOffsets `json:"data_offsets"`
	}
	dec := json.NewDecoder(bytes.NewReader(msg))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return Entry{}, err
	}
	switch {
	case raw.DType == nil:
		return Entry{}, errors.New(`"dtype" is missing`)
	case raw.Shape == nil:
		return Entry{}, errors.New(`"shape" is missing`)
	case raw.DataOffsets == nil:
		return Entry{}, errors.New(`"data_offsets" is missing`)
	}
	return Entry{
		Name:        name,
		DType:       *raw.DType,
		Shape:       *raw.Shape,
		DataOffsets: *raw.DataOffsets,
	}, nil
}
