// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package header

import (
	"encoding/binary"
	"fmt"
	"io"
)

var padding = [8]byte{' ', ' ', ' ', ' ', ' ', ' ', ' ', ' '}

// Write writes the size and the JSON content of h to w. The JSON content
// is padded with spaces so that the byte-buffer following it starts at a
// multiple of 8 bytes. It returns the number of bytes written, which is
// where the byte-buffer starts.
func Write(w io.Writer, h Header) (int, error) {
	content, err := h.MarshalJSON()
	if err != nil {
		return 0, fmt.Errorf("failed to JSON-encode header: %w", err)
	}
	toAlign := (8 - len(content)%8) % 8

	var size [8]byte
	binary.LittleEndian.PutUint64(size[:], uint64(len(content)+toAlign))
	if _, err = w.Write(size[:]); err != nil {
		return 0, fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err = w.Write(content); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}
	if toAlign > 0 {
		if _, err = w.Write(padding[:toAlign]); err != nil {
			return 0, fmt.Errorf("failed to write header padding: %w", err)
		}
	}
	return 8 + len(content) + toAlign, nil
}
