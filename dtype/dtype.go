// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dtype describes the element types of dense arrays stored in
// tensor blocks.
package dtype

import (
	"fmt"
	"strconv"
)

// DType is the element type of a dense array.
type DType uint8

const (
	// Bool represents an 8-bit boolean data type.
	Bool DType = iota + 1
	// U8 represents an 8-bit unsigned integer data type.
	U8
	// I8 represents an 8-bit signed integer data type.
	I8
	// U16 represents a 16-bit unsigned integer data type.
	U16
	// I16 represents a 16-bit signed integer data type.
	I16
	// F16 represents a 16-bit half-precision floating point data type.
	F16
	// BF16 represents a 16-bit brain floating point data type.
	BF16
	// U32 represents a 32-bit unsigned integer data type.
	U32
	// I32 represents a 32-bit signed integer data type.
	I32
	// F32 represents a 32-bit floating point data type.
	F32
	// U64 represents a 64-bit unsigned integer data type.
	U64
	// I64 represents a 64-bit signed integer data type.
	I64
	// F64 represents a 64-bit floating point data type.
	F64
)

type info struct {
	name    string
	size    int
	float   bool
	signed  bool
	integer bool
}

var infos = [...]info{
	Bool: {name: "BOOL", size: 1},
	U8:   {name: "U8", size: 1, integer: true},
	I8:   {name: "I8", size: 1, integer: true, signed: true},
	U16:  {name: "U16", size: 2, integer: true},
	I16:  {name: "I16", size: 2, integer: true, signed: true},
	F16:  {name: "F16", size: 2, float: true, signed: true},
	BF16: {name: "BF16", size: 2, float: true, signed: true},
	U32:  {name: "U32", size: 4, integer: true},
	I32:  {name: "I32", size: 4, integer: true, signed: true},
	F32:  {name: "F32", size: 4, float: true, signed: true},
	U64:  {name: "U64", size: 8, integer: true},
	I64:  {name: "I64", size: 8, integer: true, signed: true},
	F64:  {name: "F64", size: 8, float: true, signed: true},
}

var byName = func() map[string]DType {
	m := make(map[string]DType, len(infos))
	for dt := Bool; dt <= F64; dt++ {
		m[infos[dt].name] = dt
	}
	return m
}()

// Validate returns an error if the DType is not valid, otherwise nil.
func (dt DType) Validate() error {
	if dt == 0 || dt > F64 {
		return fmt.Errorf("invalid DType(%d)", dt)
	}
	return nil
}

// String returns a string representation of a DType.
func (dt DType) String() string {
	if err := dt.Validate(); err != nil {
		return err.Error()
	}
	return infos[dt].name
}

// Size returns the size in bytes of one element of this data type,
// or -1 if the DType value is invalid.
func (dt DType) Size() int {
	if err := dt.Validate(); err != nil {
		return -1
	}
	return infos[dt].size
}

// IsFloat reports whether the DType is a floating point type.
func (dt DType) IsFloat() bool {
	return dt.Validate() == nil && infos[dt].float
}

// IsInteger reports whether the DType is a signed or unsigned integer type.
func (dt DType) IsInteger() bool {
	return dt.Validate() == nil && infos[dt].integer
}

// IsSigned reports whether the DType can represent negative values.
func (dt DType) IsSigned() bool {
	return dt.Validate() == nil && infos[dt].signed
}

// Parse returns the DType named s, as produced by DType.String.
func Parse(s string) (DType, error) {
	dt, ok := byName[s]
	if !ok {
		return 0, fmt.Errorf("invalid DType string value %q", s)
	}
	return dt, nil
}

// MarshalJSON satisfies json.Marshaler interface.
func (dt DType) MarshalJSON() ([]byte, error) {
	if err := dt.Validate(); err != nil {
		return nil, err
	}
	return []byte(strconv.Quote(infos[dt].name)), nil
}

// UnmarshalJSON satisfies json.Unmarshaler interface.
func (dt *DType) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return fmt.Errorf("failed to JSON-unmarshal DType from value %q", string(b))
	}
	v, ok := byName[s]
	if !ok {
		return fmt.Errorf("failed to JSON-unmarshal DType from value %q", string(b))
	}
	*dt = v
	return nil
}

// MarshalText satisfies encoding.TextMarshaler interface.
func (dt DType) MarshalText() ([]byte, error) {
	if err := dt.Validate(); err != nil {
		return nil, err
	}
	return []byte(infos[dt].name), nil
}

// UnmarshalText satisfies encoding.TextUnmarshaler interface.
func (dt *DType) UnmarshalText(text []byte) error {
	v, ok := byName[string(text)]
	if !ok {
		return fmt.Errorf("failed to text-unmarshal DType from value %q", string(text))
	}
	*dt = v
	return nil
}
