// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensormap

import (
	"fmt"
	"strings"
)

// LabelsEntry references a single row of a Labels object.
//
// It holds no copy of the row, and stays valid as long as the
// referenced Labels is in use. The zero value is an entry without
// dimensions.
type LabelsEntry struct {
	labels *Labels
	index  int
}

// Labels returns the Labels holding the entry.
func (e LabelsEntry) Labels() *Labels {
	return e.labels
}

// Index returns the position of the entry within its Labels.
func (e LabelsEntry) Index() int {
	return e.index
}

// Names returns the dimension names of the entry.
func (e LabelsEntry) Names() []string {
	if e.labels == nil {
		return []string{}
	}
	return e.labels.Names()
}

// Len returns the number of values in the entry.
func (e LabelsEntry) Len() int {
	if e.labels == nil {
		return 0
	}
	return e.labels.Size()
}

// Values returns a copy of the values of the entry.
func (e LabelsEntry) Values() []int32 {
	if e.labels == nil {
		return []int32{}
	}
	return e.labels.appendRow(make([]int32, 0, e.labels.Size()), e.index)
}

// Value returns the value of the named dimension. It fails with
// ErrNotFound if there is no such dimension.
func (e LabelsEntry) Value(name string) (int32, error) {
	if e.labels == nil {
		return 0, notFound("%q is not a dimension of an empty entry", name)
	}
	j, ok := e.labels.nameIndex[name]
	if !ok {
		return 0, notFound("%q is not a dimension of this entry (%v)", name, e.labels.names)
	}
	return e.labels.at(e.index, j), nil
}

// Equal reports whether the two entries have the same names and values.
func (e LabelsEntry) Equal(other LabelsEntry) bool {
	if e.labels == nil || other.labels == nil {
		return e.labels == other.labels
	}
	if e.Len() != other.Len() {
		return false
	}
	for j, name := range e.labels.names {
		if other.labels.names[j] != name || e.labels.at(e.index, j) != other.labels.at(other.index, j) {
			return false
		}
	}
	return true
}

// String formats the entry as "LabelsEntry(name=value, ...)".
func (e LabelsEntry) String() string {
	if e.labels == nil {
		return "LabelsEntry()"
	}
	var sb strings.Builder
	sb.WriteString("LabelsEntry(")
	for j, name := range e.labels.names {
		if j > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s=%d", name, e.labels.at(e.index, j))
	}
	sb.WriteByte(')')
	return sb.String()
}
