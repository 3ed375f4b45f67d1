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

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	table, err := Parse([]byte("Winner\tRegion_len\tContig\nA\t10\tc1\n\nB\t20\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Winner", "Region_len", "Contig"}, table.Header)
	assert.Equal(t, [][]string{{"A", "10", "c1"}, {"B", "20", ""}}, table.Rows)
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, 1, table.ColumnIndex("Region_len"))
	assert.Equal(t, -1, table.ColumnIndex("median"))
}

func TestParseQuotedFields(t *testing.T) {
	table, err := Parse([]byte("Winner\tNote\n\"Role\twith tab\"\tsays \"hi\"\n"))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Role\twith tab", "says \"hi\""}}, table.Rows)
}

func TestParseStripsByteOrderMark(t *testing.T) {
	table, err := Parse([]byte("\xef\xbb\xbfWinner\tRegion_len\nA\t1\n"))
	require.NoError(t, err)
	assert.Equal(t, "Winner", table.Header[0])
}

func TestParseErrors(t *testing.T) {
	_, err := Parse(nil)
	assert.ErrorIs(t, err, ErrNoHeader)

	_, err = Parse([]byte("Winner\tRegion_len\nA\t1\t2\n"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrDecode))
	assert.Contains(t, err.Error(), "line 2")

	_, err = Parse([]byte("Winner\tRegion_len\n\xff\xfe\t1\n"))
	assert.ErrorIs(t, err, ErrDecode)
	assert.Contains(t, err.Error(), "offset 18")
}

func TestReadGzip(t *testing.T) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write([]byte("Winner\tRegion_len\nA\t1\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	table, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"A", "1"}}, table.Rows)

	_, err = Read(bytes.NewReader([]byte{0x1f, 0x8b, 0, 1, 2, 3}))
	assert.ErrorIs(t, err, ErrDecode)
}

func TestWriteFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	table := &Table{
		Header: []string{"Winner", "Region_len"},
		Rows:   [][]string{{"Role\twith tab", "3"}, {"B", ""}},
	}
	for _, name := range []string{"plain.tsv", "compressed.tsv.gz"} {
		filename := filepath.Join(dir, name)
		require.NoError(t, WriteFile(filename, table))
		result, err := ReadFile(filename)
		require.NoError(t, err, name)
		assert.Equal(t, table, result, name)
	}

	data, err := os.ReadFile(filepath.Join(dir, "plain.tsv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Winner\tRegion_len\n\"Role\twith tab\"\t3\n"))
}

func TestWriteQuotesOnlyWhenNeeded(t *testing.T) {
	table := &Table{
		Header: []string{"Winner", "Note"},
		Rows:   [][]string{{" leading space", "a, b"}, {"A", `say "hi"`}, {"B", ""}},
	}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, table))
	assert.Equal(t, "Winner\tNote\n leading space\ta, b\nA\t\"say \"\"hi\"\"\"\nB\t\n", buf.String())

	result, err := Parse(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, table, result)

	single := &Table{Header: []string{"Winner"}, Rows: [][]string{{""}, {"A"}}}
	buf.Reset()
	require.NoError(t, Write(&buf, single))
	result, err = Parse(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, single, result)
}

func TestWriteFileRemovesPartialOutput(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "genome.tsv")
	failure := errors.New("disk full")
	err := writeFile(filename, &Table{Header: []string{"Winner"}}, func(w io.Writer, _ *Table) error {
		if _, err := w.Write([]byte("Winner\nA")); err != nil {
			return err
		}
		return failure
	})
	assert.ErrorIs(t, err, failure)
	assert.NoFileExists(t, filename)
}

func TestConcat(t *testing.T) {
	assert.Nil(t, Concat())
	assert.Nil(t, Concat(nil, nil))

	t1 := &Table{Header: []string{"Winner", "Region_len"}, Rows: [][]string{{"A", "1"}}}
	t2 := &Table{Header: []string{"Winner", "Region_len"}, Rows: [][]string{{"B", "2"}, {"C", "3"}}}
	result := Concat(t1, nil, t2)
	assert.Equal(t, []string{"Winner", "Region_len"}, result.Header)
	assert.Equal(t, [][]string{{"A", "1"}, {"B", "2"}, {"C", "3"}}, result.Rows)

	t3 := &Table{Header: []string{"Region_len", "Extra", "Winner"}, Rows: [][]string{{"4", "x", "D"}}}
	result = Concat(t1, t3)
	assert.Equal(t, []string{"Winner", "Region_len", "Extra"}, result.Header)
	assert.Equal(t, [][]string{{"A", "1", ""}, {"D", "4", "x"}}, result.Rows)
}

func TestConcatDuplicateColumns(t *testing.T) {
	t1 := &Table{Header: []string{"x", "Winner", "x"}, Rows: [][]string{{"1", "A", "2"}}}
	t2 := &Table{Header: []string{"Winner", "y"}, Rows: [][]string{{"B", "3"}}}
	result := Concat(t1, t2)
	assert.Equal(t, []string{"x", "Winner", "x", "y"}, result.Header)
	assert.Equal(t, [][]string{{"1", "A", "2", ""}, {"", "B", "", "3"}}, result.Rows)

	result = Concat(t2, t1)
	assert.Equal(t, []string{"Winner", "y", "x", "x"}, result.Header)
	assert.Equal(t, [][]string{{"B", "3", "", ""}, {"A", "", "1", "2"}}, result.Rows)
}

func TestWithLeadingColumn(t *testing.T) {
	t1 := &Table{Header: []string{"Winner"}, Rows: [][]string{{"A"}, {"B"}}}
	result := t1.WithLeadingColumn("Source", "genome1.tsv")
	assert.Equal(t, []string{"Source", "Winner"}, result.Header)
	assert.Equal(t, [][]string{{"genome1.tsv", "A"}, {"genome1.tsv", "B"}}, result.Rows)
	assert.Equal(t, []string{"Winner"}, t1.Header)
}
