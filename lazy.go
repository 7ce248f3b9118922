// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensormap

import (
	"fmt"
	"io"
	"math"
	"math/bits"
	"sync"

	"github.com/nlpodyssey/tensormap/header"
	"github.com/pkg/errors"
)

// LazyTensorMap gives access to a container written by Write, loading
// the data of each block only when requested.
//
// The io.ReadSeeker it was opened with must remain available as long as
// blocks are loaded. Blocks are fully independent from it once loaded.
type LazyTensorMap struct {
	// mu serializes seek-and-read sequences on rs.
	mu  sync.Mutex
	rs  io.ReadSeeker
	dec *decoder
	// dataOffset is the byte-buffer offset relative to the start of rs.
	dataOffset int64
	// streamSize is the position of the end of rs.
	streamSize int64
	keys       *Labels
}

// OpenLazy reads and validates the header of the container, and its keys,
// from rs. The current position of rs is taken as the beginning of the
// container. See Read for the meaning of headerSizeLimit.
//
// All failures wrap ErrFormat.
func OpenLazy(rs io.ReadSeeker, headerSizeLimit int) (*LazyTensorMap, error) {
	initialOffset, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, formatError(err, "failed to get initial offset")
	}
	streamSize, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, formatError(err, "failed to get the stream size")
	}
	if _, err = rs.Seek(initialOffset, io.SeekStart); err != nil {
		return nil, formatError(err, "failed to seek back to initial offset")
	}
	head, err := readValidHeader(rs, headerSizeLimit)
	if err != nil {
		return nil, err
	}
	dataOffset, err := checkedAddNonNegInt64(initialOffset, int64(head.ByteBufferOffset))
	if err != nil {
		return nil, formatError(err, "failed to calculate total byte-buffer offset")
	}

	lt := &LazyTensorMap{rs: rs, dataOffset: dataOffset, streamSize: streamSize}
	if lt.dec, err = newDecoder(head, seekSource{lt}); err != nil {
		return nil, formatError(err, "failed to decode TensorMap")
	}
	if lt.keys, err = lt.dec.keys(); err != nil {
		return nil, formatError(err, "failed to decode TensorMap keys")
	}
	return lt, nil
}

// Keys returns the keys of the stored TensorMap.
func (lt *LazyTensorMap) Keys() *Labels {
	return lt.keys
}

// Len returns the number of stored blocks.
func (lt *LazyTensorMap) Len() int {
	return lt.keys.Count()
}

// Block reads the block at position i. The block does not belong to any
// TensorMap. It fails with ErrOutOfRange if i is not a valid block index,
// and with ErrFormat if the block can not be read.
func (lt *LazyTensorMap) Block(i int) (*TensorBlock, error) {
	if i < 0 || i >= lt.keys.Count() {
		return nil, outOfRange("block index %d is out of range for a TensorMap with %d blocks", i, lt.keys.Count())
	}
	block, err := lt.dec.block(i)
	if err != nil {
		return nil, formatError(err, "failed to decode block %d", i)
	}
	return block, nil
}

// TensorMap reads all the blocks, and returns the whole TensorMap.
func (lt *LazyTensorMap) TensorMap() (*TensorMap, error) {
	tm, err := lt.dec.tensorMap()
	if err != nil {
		return nil, formatError(err, "failed to decode TensorMap")
	}
	return tm, nil
}

// seekSource reads the data of entries on demand.
type seekSource struct {
	lt *LazyTensorMap
}

func (s seekSource) data(e header.Entry) ([]byte, error) {
	size := e.Size()
	if size == 0 {
		return nil, nil
	}
	offset, err := checkedAddNonNegInt64(s.lt.dataOffset, int64(e.DataOffsets.Begin))
	if err != nil {
		return nil, fmt.Errorf("failed to calculate data offset of %q: %w", e.Name, err)
	}
	if end, err := checkedAddNonNegInt64(offset, int64(size)); err != nil || end > s.lt.streamSize {
		return nil, fmt.Errorf("data of %q ends after the end of the stream (%d bytes): %w", e.Name, s.lt.streamSize, io.ErrUnexpectedEOF)
	}

	s.lt.mu.Lock()
	defer s.lt.mu.Unlock()
	if _, err = s.lt.rs.Seek(offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to data offset of %q: %w", e.Name, err)
	}
	data := make([]byte, size)
	if _, err = io.ReadFull(s.lt.rs, data); err != nil {
		return nil, fmt.Errorf("failed to read data of %q: %w", e.Name, err)
	}
	return data, nil
}

var errInt64SumOverflow = errors.New("int64 sum overflow")

func checkedAddNonNegInt64(a, b int64) (int64, error) {
	if a < 0 || b < 0 {
		return 0, fmt.Errorf("unexpected negative number")
	}
	if a == 0 || b == 0 {
		return a + b, nil
	}
	sum, carry := bits.Add64(uint64(a), uint64(b), 0)
	if carry != 0 || sum > math.MaxInt64 {
		return 0, errInt64SumOverflow
	}
	return int64(sum), nil
}
