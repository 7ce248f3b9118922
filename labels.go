// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensormap

import (
	"encoding/binary"
	"slices"
	"sync"

	"github.com/nlpodyssey/tensormap/array"
)

// Labels is an ordered set of named integer dimensions. Each entry (row)
// holds one value per dimension (column), and no two rows are equal.
//
// Labels are immutable once created. They are either owned, holding their
// own row storage, or a view projecting the columns of another Labels
// without copying its rows (see Labels.View).
type Labels struct {
	names     []string
	nameIndex map[string]int
	count     int
	device    array.Device

	// values holds count*len(names) row-major values of owned labels.
	values []int32

	// source and columns describe a view: column j of the view is column
	// columns[j] of source.
	source  *Labels
	columns []int

	// positions maps row keys (see rowKey) to row indices. It is built
	// at construction for owned labels and lazily for views.
	positionsOnce sync.Once
	positions     map[string]int
}

// NewLabels creates owned Labels with the given dimension names and rows.
//
// It fails with ErrInvalidParameter if a name is empty or repeated, if a row
// does not contain exactly one value per name, or if two rows are equal.
// Labels without names cannot hold any row.
func NewLabels(names []string, values [][]int32) (*Labels, error) {
	flat := make([]int32, 0, len(values)*len(names))
	for i, row := range values {
		if len(row) != len(names) {
			return nil, invalidParameter("labels row %d has %d values, expected %d (one per name)", i, len(row), len(names))
		}
		flat = append(flat, row...)
	}
	return newLabels(names, flat, len(values))
}

// NewLabelsFlat creates owned Labels from row-major values: the length of
// flat must be a multiple of the number of names. The values are copied.
func NewLabelsFlat(names []string, flat []int32) (*Labels, error) {
	if len(names) == 0 {
		if len(flat) != 0 {
			return nil, invalidParameter("labels without names can not contain entries")
		}
		return newLabels(names, nil, 0)
	}
	if len(flat)%len(names) != 0 {
		return nil, invalidParameter("%d label values can not be split in rows of %d values", len(flat), len(names))
	}
	return newLabels(names, slices.Clone(flat), len(flat)/len(names))
}

// SingleLabels returns Labels with a single dimension named "_" and a
// single row with value 0. It is used where there is no meaningful
// dimension to index.
func SingleLabels() *Labels {
	l, err := newLabels([]string{"_"}, []int32{0}, 1)
	if err != nil {
		panic(err)
	}
	return l
}

// EmptyLabels returns Labels with the given names and no rows.
func EmptyLabels(names ...string) (*Labels, error) {
	return newLabels(names, nil, 0)
}

// RangeLabels returns Labels with a single dimension and rows 0..end-1.
func RangeLabels(name string, end int) (*Labels, error) {
	if end < 0 {
		return nil, invalidParameter("labels range end must not be negative, got %d", end)
	}
	flat := make([]int32, end)
	for i := range flat {
		flat[i] = int32(i)
	}
	return newLabels([]string{name}, flat, end)
}

// newLabels takes ownership of flat, validating names and rows.
func newLabels(names []string, flat []int32, count int) (*Labels, error) {
	if len(names) == 0 && count > 0 {
		return nil, invalidParameter("labels without names can not contain entries")
	}
	nameIndex, err := makeNameIndex(names)
	if err != nil {
		return nil, err
	}
	l := &Labels{
		names:     slices.Clone(names),
		nameIndex: nameIndex,
		count:     count,
		device:    array.CPU,
		values:    flat,
		positions: make(map[string]int, count),
	}
	for i := 0; i < count; i++ {
		key := rowKey(l.rowSlice(i))
		if j, ok := l.positions[key]; ok {
			return nil, invalidParameter("labels rows %d and %d are the same: %s", j, i, l.formatRow(i))
		}
		l.positions[key] = i
	}
	return l, nil
}

// fromUniqueRows creates owned Labels from rows already known to be
// unique, together with their positions index.
func fromUniqueRows(names []string, nameIndex map[string]int, flat []int32, positions map[string]int) *Labels {
	return &Labels{
		names:     names,
		nameIndex: nameIndex,
		count:     len(positions),
		device:    array.CPU,
		values:    flat,
		positions: positions,
	}
}

func makeNameIndex(names []string) (map[string]int, error) {
	index := make(map[string]int, len(names))
	for i, name := range names {
		if name == "" {
			return nil, invalidParameter("labels names must not be empty")
		}
		if _, ok := index[name]; ok {
			return nil, invalidParameter("labels names must be unique, got %q more than once", name)
		}
		index[name] = i
	}
	return index, nil
}

// rowKey encodes a row as a string usable as map key.
func rowKey(row []int32) string {
	b := make([]byte, 0, 4*len(row))
	for _, v := range row {
		b = binary.LittleEndian.AppendUint32(b, uint32(v))
	}
	return string(b)
}

// rowSlice returns row i of owned labels, without copy.
func (l *Labels) rowSlice(i int) []int32 {
	n := len(l.names)
	return l.values[i*n : (i+1)*n]
}

// appendRow appends the values of row i to dst.
func (l *Labels) appendRow(dst []int32, i int) []int32 {
	if l.source == nil {
		return append(dst, l.rowSlice(i)...)
	}
	n := len(l.source.names)
	base := l.source.values[i*n : (i+1)*n]
	for _, c := range l.columns {
		dst = append(dst, base[c])
	}
	return dst
}

// at returns the value of row i in column j.
func (l *Labels) at(i, j int) int32 {
	if l.source == nil {
		return l.values[i*len(l.names)+j]
	}
	return l.source.values[i*len(l.source.names)+l.columns[j]]
}

// Names returns a copy of the dimension names.
func (l *Labels) Names() []string {
	return slices.Clone(l.names)
}

// Size returns the number of dimensions.
func (l *Labels) Size() int {
	return len(l.names)
}

// Count returns the number of rows.
func (l *Labels) Count() int {
	return l.count
}

// Device returns the device the labels are tagged with.
func (l *Labels) Device() array.Device {
	return l.device
}

// Row returns a copy of the values of row i. It fails with ErrOutOfRange
// if i is not a valid row index.
func (l *Labels) Row(i int) ([]int32, error) {
	if i < 0 || i >= l.count {
		return nil, outOfRange("row index %d is out of range for labels with %d entries", i, l.count)
	}
	return l.appendRow(make([]int32, 0, len(l.names)), i), nil
}

// Values returns a copy of all rows.
func (l *Labels) Values() [][]int32 {
	out := make([][]int32, l.count)
	for i := range out {
		out[i] = l.appendRow(make([]int32, 0, len(l.names)), i)
	}
	return out
}

// Entry returns a reference to row i. It fails with ErrOutOfRange if i is
// not a valid row index.
func (l *Labels) Entry(i int) (LabelsEntry, error) {
	if i < 0 || i >= l.count {
		return LabelsEntry{}, outOfRange("entry index %d is out of range for labels with %d entries", i, l.count)
	}
	return LabelsEntry{labels: l, index: i}, nil
}

// Column returns a copy of the values of the named dimension, one per
// row. It fails with ErrNotFound if there is no such dimension.
func (l *Labels) Column(name string) ([]int32, error) {
	j, ok := l.nameIndex[name]
	if !ok {
		return nil, notFound("%q is not a dimension of these labels (%v)", name, l.names)
	}
	out := make([]int32, l.count)
	for i := range out {
		out[i] = l.at(i, j)
	}
	return out, nil
}

// index returns the positions index, building it for views.
func (l *Labels) index() map[string]int {
	if l.source == nil {
		return l.positions
	}
	l.positionsOnce.Do(func() {
		positions := make(map[string]int, l.count)
		row := make([]int32, 0, len(l.names))
		for i := 0; i < l.count; i++ {
			key := rowKey(l.appendRow(row[:0], i))
			if _, ok := positions[key]; !ok {
				positions[key] = i
			}
		}
		l.positions = positions
	})
	return l.positions
}

// Position returns the index of the given row, and whether it was found.
// Views containing repeated rows return the first occurrence.
func (l *Labels) Position(row []int32) (int, bool) {
	if len(row) != len(l.names) {
		return 0, false
	}
	i, ok := l.index()[rowKey(row)]
	return i, ok
}

// PositionOf returns the index of the row equal to entry, and whether it
// was found. The entry values are matched by name, so the entry may come
// from labels with the same names in a different order.
func (l *Labels) PositionOf(entry LabelsEntry) (int, bool) {
	if entry.labels == nil || entry.labels.Size() != len(l.names) {
		return 0, false
	}
	if slices.Equal(entry.labels.names, l.names) {
		return l.Position(entry.Values())
	}
	row := make([]int32, len(l.names))
	for i, name := range l.names {
		j, ok := entry.labels.nameIndex[name]
		if !ok {
			return 0, false
		}
		row[i] = entry.labels.at(entry.index, j)
	}
	return l.Position(row)
}

// Contains reports whether the given row is part of the labels.
func (l *Labels) Contains(row []int32) bool {
	_, ok := l.Position(row)
	return ok
}

// IsView reports whether the labels are a view over another Labels.
func (l *Labels) IsView() bool {
	return l.source != nil
}

// View returns labels projecting the given dimensions, in the given order,
// without copying the rows. It fails with ErrNotFound if a name is missing
// and with ErrInvalidParameter if a name is requested more than once.
//
// A view can contain repeated rows: it can be read like any Labels, but
// ToOwned is needed to use it where unique rows are required. A view
// without names is only allowed over labels without rows.
func (l *Labels) View(names ...string) (*Labels, error) {
	if len(names) == 0 && l.count > 0 {
		return nil, invalidParameter("can not create a view without names over labels with %d entries", l.count)
	}
	nameIndex, err := makeNameIndex(names)
	if err != nil {
		return nil, err
	}
	source := l
	if l.source != nil {
		source = l.source
	}
	columns := make([]int, len(names))
	for i, name := range names {
		j, ok := l.nameIndex[name]
		if !ok {
			return nil, notFound("%q is not a dimension of these labels (%v)", name, l.names)
		}
		if l.source != nil {
			j = l.columns[j]
		}
		columns[i] = j
	}
	return &Labels{
		names:     slices.Clone(names),
		nameIndex: nameIndex,
		count:     l.count,
		device:    l.device,
		source:    source,
		columns:   columns,
	}, nil
}

// ToOwned returns labels owning their rows. Owned labels return
// themselves; views are copied, failing with ErrInvalidParameter if the
// projection contains repeated rows.
func (l *Labels) ToOwned() (*Labels, error) {
	if l.source == nil {
		return l, nil
	}
	flat := make([]int32, 0, l.count*len(l.names))
	for i := 0; i < l.count; i++ {
		flat = l.appendRow(flat, i)
	}
	owned, err := newLabels(l.names, flat, l.count)
	if err != nil {
		return nil, err
	}
	owned.device = l.device
	return owned, nil
}

// To returns labels tagged with the given device. The rows are shared,
// since labels are immutable.
func (l *Labels) To(device array.Device) *Labels {
	if device == l.device {
		return l
	}
	if l.source != nil {
		v := &Labels{
			names:     l.names,
			nameIndex: l.nameIndex,
			count:     l.count,
			device:    device,
			source:    l.source.To(device),
			columns:   l.columns,
		}
		return v
	}
	return &Labels{
		names:     l.names,
		nameIndex: l.nameIndex,
		count:     l.count,
		device:    device,
		values:    l.values,
		positions: l.positions,
	}
}

// Equal reports whether l and other have the same names and the same rows
// in the same order.
func (l *Labels) Equal(other *Labels) bool {
	if l == other {
		return true
	}
	if l == nil || other == nil {
		return false
	}
	if l.count != other.count || !slices.Equal(l.names, other.names) {
		return false
	}
	for i := 0; i < l.count; i++ {
		for j := range l.names {
			if l.at(i, j) != other.at(i, j) {
				return false
			}
		}
	}
	return true
}

// Sorted returns labels with the same rows in lexicographic order.
func (l *Labels) Sorted() *Labels {
	sorted, _ := l.sortedWithOrder()
	return sorted
}

// sortedWithOrder returns the sorted labels, and for each sorted row the
// index of the same row in l.
func (l *Labels) sortedWithOrder() (*Labels, []int) {
	order := make([]int, l.count)
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		for j := range l.names {
			va, vb := l.at(a, j), l.at(b, j)
			if va < vb {
				return -1
			}
			if va > vb {
				return 1
			}
		}
		return 0
	})

	flat := make([]int32, 0, l.count*len(l.names))
	positions := make(map[string]int, l.count)
	row := make([]int32, 0, len(l.names))
	for i, old := range order {
		row = l.appendRow(row[:0], old)
		flat = append(flat, row...)
		key := rowKey(row)
		if _, ok := positions[key]; !ok {
			positions[key] = i
		}
	}
	sorted := &Labels{
		names:     l.names,
		nameIndex: l.nameIndex,
		count:     l.count,
		device:    l.device,
		values:    flat,
		positions: positions,
	}
	return sorted, order
}

// Select returns the indices of the rows matching selection, which must
// either have no dimension (selecting all rows) or contain a single row
// over a subset of the dimensions of l.
//
// It fails with ErrInvalidParameter if the selection has more than one row
// or refers to dimensions missing from l.
func (l *Labels) Select(selection *Labels) ([]int, error) {
	if selection == nil || selection.Size() == 0 {
		all := make([]int, l.count)
		for i := range all {
			all[i] = i
		}
		return all, nil
	}
	if selection.Count() != 1 {
		return nil, invalidParameter("selection labels must contain a single row, got %d", selection.Count())
	}
	columns := make([]int, selection.Size())
	for i, name := range selection.names {
		j, ok := l.nameIndex[name]
		if !ok {
			return nil, invalidParameter("%q is not part of the labels dimensions %v", name, l.names)
		}
		columns[i] = j
	}
	wanted := selection.appendRow(nil, 0)

	matching := make([]int, 0)
	for i := 0; i < l.count; i++ {
		if l.rowMatches(i, columns, wanted) {
			matching = append(matching, i)
		}
	}
	return matching, nil
}

func (l *Labels) rowMatches(i int, columns []int, wanted []int32) bool {
	for k, j := range columns {
		if l.at(i, j) != wanted[k] {
			return false
		}
	}
	return true
}
