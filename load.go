// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensormap

import (
	"bytes"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/nlpodyssey/tensormap/header"
)

// Read reads a whole container written by Write from r.
//
// If headerSizeLimit is a positive number, no more than headerSizeLimit
// bytes are read for the header, which protects against giant allocations
// caused by corrupted or tampered data. Zero or a negative number disable
// the limit.
//
// All failures wrap ErrFormat.
func Read(r io.Reader, headerSizeLimit int) (*TensorMap, error) {
	head, err := readValidHeader(r, headerSizeLimit)
	if err != nil {
		return nil, err
	}
	// the declared size is not trusted for allocation: the buffer only
	// grows with the data actually read
	size := head.BufferSize()
	buf, err := io.ReadAll(io.LimitReader(r, int64(size)))
	if err != nil {
		return nil, formatError(err, "failed to read the data of the arrays")
	}
	if len(buf) < size {
		return nil, formatError(io.ErrUnexpectedEOF, "failed to read the data of the arrays: got %d bytes, expected %d", len(buf), size)
	}
	return decode(head, bufferSource(buf))
}

// Load reads the container stored in the file at path. The file is memory
// mapped, and only the data of the stored arrays is copied in memory.
//
// All failures wrap ErrFormat.
func Load(path string) (_ *TensorMap, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, formatError(err, "failed to open %q", path)
	}
	defer f.Close()

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, formatError(err, "failed to map %q in memory", path)
	}
	defer func() {
		if e := m.Unmap(); e != nil && err == nil {
			err = formatError(e, "failed to unmap %q", path)
		}
	}()

	head, err := readValidHeader(bytes.NewReader(m), 0)
	if err != nil {
		return nil, err
	}
	return decode(head, mappedSource(m[head.ByteBufferOffset:]))
}

// mappedSource is a memory mapped byte-buffer. The data of each entry is
// copied, so that it stays valid after unmapping.
type mappedSource []byte

func (m mappedSource) data(e header.Entry) ([]byte, error) {
	data, err := bufferSource(m).data(e)
	if err != nil {
		return nil, err
	}
	return bytes.Clone(data), nil
}

func readValidHeader(r io.Reader, sizeLimit int) (header.Header, error) {
	if sizeLimit > 0 {
		r = io.LimitReader(r, int64(sizeLimit))
	}
	head, err := header.Read(r)
	if err != nil {
		return header.Header{}, formatError(err, "failed to read the container header")
	}
	if err = head.Validate(); err != nil {
		return header.Header{}, formatError(err, "the container header is invalid")
	}
	return head, nil
}

func decode(head header.Header, src source) (*TensorMap, error) {
	dec, err := newDecoder(head, src)
	if err != nil {
		return nil, formatError(err, "failed to decode TensorMap")
	}
	tm, err := dec.tensorMap()
	if err != nil {
		return nil, formatError(err, "failed to decode TensorMap")
	}
	return tm, nil
}
