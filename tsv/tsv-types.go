// frcurate: curation of functional-role annotation calls.
// Copyright (c) 2026 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/exascience/frcurate/blob/master/LICENSE.txt>.

package tsv

// A Table is a struct for representing the contents of a tab-delimited
// text file with a header row. Every row has exactly as many fields as
// the header has columns.
type Table struct {
	Header []string
	Rows   [][]string
}

// NewTable allocates and initializes an empty table with the given
// header.
func NewTable(header []string) *Table {
	return &Table{Header: header}
}

// Len returns the number of rows in the table, excluding the header.
func (t *Table) Len() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of the first column with the given
// name, or -1 if the table has no such column.
func (t *Table) ColumnIndex(name string) int {
	for i, column := range t.Header {
		if column == name {
			return i
		}
	}
	return -1
}

// WithLeadingColumn returns a table that has an additional first
// column with the given name, holding value in every row. The rows of
// t are not modified.
func (t *Table) WithLeadingColumn(name, value string) *Table {
	header := make([]string, 0, len(t.Header)+1)
	header = append(append(header, name), t.Header...)
	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		newRow := make([]string, 0, len(row)+1)
		rows[i] = append(append(newRow, value), row...)
	}
	return &Table{Header: header, Rows: rows}
}

func sameHeader(header1, header2 []string) bool {
	if len(header1) != len(header2) {
		return false
	}
	for i, column := range header1 {
		if column != header2[i] {
			return false
		}
	}
	return true
}

// A column identifies the n-th occurrence of a column name in a
// header, so that duplicate names are kept apart.
type column struct {
	name string
	n    int
}

func columns(header []string) []column {
	seen := make(map[string]int, len(header))
	result := make([]column, len(header))
	for i, name := range header {
		result[i] = column{name, seen[name]}
		seen[name]++
	}
	return result
}

/*
Concat returns a table holding the rows of all given tables in order.

The header of the result is the union of the headers of the given
tables, with columns in the order in which they are first seen. A name
that occurs k times in a header matches the first k columns of that
name in the union. Rows of a table that lacks some of the columns get
empty cells for them. Nil tables are ignored. Concat returns nil if
there is nothing to concatenate.
*/
func Concat(tables ...*Table) *Table {
	var header []string
	index := make(map[column]int)
	uniform := true
	nofRows := 0
	for _, t := range tables {
		if t == nil {
			continue
		}
		if header == nil {
			header = append([]string{}, t.Header...)
			for i, c := range columns(header) {
				index[c] = i
			}
		} else if !sameHeader(header, t.Header) {
			uniform = false
			for _, c := range columns(t.Header) {
				if _, found := index[c]; !found {
					index[c] = len(header)
					header = append(header, c.name)
				}
			}
		}
		nofRows += len(t.Rows)
	}
	if header == nil {
		return nil
	}
	result := &Table{Header: header, Rows: make([][]string, 0, nofRows)}
	for _, t := range tables {
		if t == nil {
			continue
		}
		if uniform {
			result.Rows = append(result.Rows, t.Rows...)
			continue
		}
		positions := make([]int, len(t.Header))
		for i, c := range columns(t.Header) {
			positions[i] = index[c]
		}
		for _, row := range t.Rows {
			newRow := make([]string, len(header))
			for i, field := range row {
				newRow[positions[i]] = field
			}
			result.Rows = append(result.Rows, newRow)
		}
	}
	return result
}
