// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensormap

import (
	"fmt"
	"strconv"
	"strings"
)

const defaultMaxEntries = 20

// Print renders the labels as a table, one line per row. When there are more
// than maxEntries rows, only the first and last ones are shown around a "..."
// line; a negative maxEntries shows every row. All lines but the first are
// prefixed with indent spaces.
func (l *Labels) Print(maxEntries, indent int) string {
	rows := truncatedIndices(l.count, maxEntries)

	widths := make([]int, len(l.names))
	for j, name := range l.names {
		widths[j] = len(name)
		for _, i := range rows {
			if i < 0 {
				continue
			}
			if w := len(strconv.Itoa(int(l.at(i, j)))); w > widths[j] {
				widths[j] = w
			}
		}
	}

	pad := strings.Repeat(" ", max(indent, 0))
	var sb strings.Builder
	sb.WriteString("Labels(\n")
	sb.WriteString(pad)
	sb.WriteString("    ")
	for j, name := range l.names {
		if j > 0 {
			sb.WriteString("  ")
		}
		fmt.Fprintf(&sb, "%*s", widths[j], name)
	}
	sb.WriteByte('\n')
	for _, i := range rows {
		sb.WriteString(pad)
		sb.WriteString("    ")
		if i < 0 {
			sb.WriteString("...\n")
			continue
		}
		for j := range l.names {
			if j > 0 {
				sb.WriteString("  ")
			}
			fmt.Fprintf(&sb, "%*d", widths[j], l.at(i, j))
		}
		sb.WriteByte('\n')
	}
	sb.WriteString(pad)
	sb.WriteByte(')')
	return sb.String()
}

// String renders the labels with at most 20 rows.
func (l *Labels) String() string {
	return l.Print(defaultMaxEntries, 0)
}

// formatRow formats row i as "(name=value, ...)", for error messages.
func (l *Labels) formatRow(i int) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for j, name := range l.names {
		if j > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s=%d", name, l.at(i, j))
	}
	sb.WriteByte(')')
	return sb.String()
}

// truncatedIndices returns the indices to show out of n items, using -1
// where the items in between are elided.
func truncatedIndices(n, maxItems int) []int {
	if maxItems < 0 || n <= maxItems {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}
	head := (maxItems + 1) / 2
	tail := maxItems - head
	out := make([]int, 0, maxItems+1)
	for i := 0; i < head; i++ {
		out = append(out, i)
	}
	out = append(out, -1)
	for i := n - tail; i < n; i++ {
		out = append(out, i)
	}
	return out
}

// Print renders the keys of the map and a summary of its blocks, showing at
// most maxKeys entries (all of them when maxKeys is negative).
func (tm *TensorMap) Print(maxKeys int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "TensorMap with %d blocks\n", len(tm.blocks))
	sb.WriteString("keys: ")
	sb.WriteString(tm.keys.Print(maxKeys, 6))
	if len(tm.blocks) > 0 {
		sb.WriteString("\nblocks:")
		for _, i := range truncatedIndices(len(tm.blocks), maxKeys) {
			if i < 0 {
				sb.WriteString("\n    ...")
				continue
			}
			fmt.Fprintf(&sb, "\n    %s: %s", LabelsEntry{labels: tm.keys, index: i}, tm.blocks[i].summary())
		}
	}
	return sb.String()
}

// String renders the map with at most 20 keys.
func (tm *TensorMap) String() string {
	return tm.Print(defaultMaxEntries)
}

// summary describes the shape and metadata names of a block in one line.
func (b *TensorBlock) summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "TensorBlock(%s %v, samples=%v", b.values.DType(), b.values.Shape(), b.samples.names)
	if len(b.components) > 0 {
		sb.WriteString(", components=[")
		for k, c := range b.components {
			if k > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(strings.Join(c.names, " "))
		}
		sb.WriteByte(']')
	}
	fmt.Fprintf(&sb, ", properties=%v", b.properties.names)
	if len(b.gradientNames) > 0 {
		fmt.Fprintf(&sb, ", gradients=%v", b.gradientNames)
	}
	sb.WriteByte(')')
	return sb.String()
}

// String describes the block in one line.
func (b *TensorBlock) String() string {
	return b.summary()
}
