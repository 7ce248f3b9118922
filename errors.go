// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensormap

import (
	"github.com/pkg/errors"
)

// Error kinds. Every error returned by this package wraps exactly one of
// them, and can be tested with errors.Is.
var (
	// ErrInvalidParameter reports malformed arguments: duplicate names or
	// rows, shape mismatches, selections with an unexpected number of
	// matches, incompatible merges.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrNotFound reports a lookup of a missing name, dimension or
	// gradient parameter.
	ErrNotFound = errors.New("not found")
	// ErrOutOfRange reports an integer index outside valid bounds.
	ErrOutOfRange = errors.New("out of range")
	// ErrFormat reports a serialized TensorMap which is truncated,
	// corrupted, or written with an unsupported format version.
	ErrFormat = errors.New("invalid serialized data")
)

func invalidParameter(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidParameter, format, args...)
}

func notFound(format string, args ...any) error {
	return errors.Wrapf(ErrNotFound, format, args...)
}

func outOfRange(format string, args ...any) error {
	return errors.Wrapf(ErrOutOfRange, format, args...)
}

// formatError wraps cause, when not nil, as an ErrFormat error.
func formatError(cause error, format string, args ...any) error {
	err := errors.Wrapf(ErrFormat, format, args...)
	if cause == nil {
		return err
	}
	return &wrapped{kind: err, cause: cause}
}

// wrapped carries both an error kind and the underlying cause, so that
// errors.Is matches either of them.
type wrapped struct {
	kind  error
	cause error
}

func (w *wrapped) Error() string {
	return w.kind.Error() + ": " + w.cause.Error()
}

func (w *wrapped) Unwrap() []error {
	return []error{w.kind, w.cause}
}
