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
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"

	"github.com/exascience/frcurate/utils"
)

// Delimiter is the field separator of tab-delimited files.
const Delimiter = '\t'

// ErrDecode is wrapped by all errors that report input which cannot be
// decoded as (optionally gzip-compressed) UTF-8 text.
var ErrDecode = errors.New("cannot decode input as UTF-8 text")

// ErrNoHeader is returned for input that does not even contain a
// header row.
var ErrNoHeader = errors.New("missing header row")

func invalidUTF8Offset(data []byte) int {
	for offset := 0; offset < len(data); {
		r, size := utf8.DecodeRune(data[offset:])
		if r == utf8.RuneError && size <= 1 {
			return offset
		}
		offset += size
	}
	return -1
}

// Decode checks that data is valid UTF-8 and strips a leading byte
// order mark, if any.
func Decode(data []byte) ([]byte, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: invalid byte at offset %v", ErrDecode, invalidUTF8Offset(data))
	}
	decoded, err := unicode.UTF8BOM.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return decoded, nil
}

/*
Parse parses tab-delimited text with a header row.

Double-quoted fields may contain tabs, quotes and newlines. Blank lines
are skipped. Rows with fewer fields than the header are padded with
empty fields; rows with more fields than the header are an error.
*/
func Parse(data []byte) (*Table, error) {
	data, err := Decode(data)
	if err != nil {
		return nil, err
	}
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = Delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	header, err := r.Read()
	if err == io.EOF {
		return nil, ErrNoHeader
	} else if err != nil {
		return nil, err
	}
	table := NewTable(header)
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		if len(row) > len(header) {
			line, _ := r.FieldPos(0)
			return nil, fmt.Errorf("line %v has %v fields, but the header has only %v columns", line, len(row), len(header))
		}
		for len(row) < len(header) {
			row = append(row, "")
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// Read reads a complete table from the given reader. Gzip-compressed
// input is detected and decompressed transparently.
func Read(reader io.Reader) (*Table, error) {
	input, compressed, err := utils.HandleGzip(bufio.NewReader(reader))
	if err != nil {
		if compressed {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return nil, err
	}
	data, err := io.ReadAll(input)
	if err != nil {
		if compressed {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return nil, err
	}
	return Parse(data)
}

// ReadFile reads a complete table from the named file.
func ReadFile(filename string) (table *Table, err error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer func() {
		if nerr := file.Close(); err == nil && nerr != nil {
			table = nil
			err = nerr
		}
	}()
	return Read(file)
}

func fieldNeedsQuotes(field string) bool {
	return strings.ContainsAny(field, "\t\n\r\"")
}

func writeRow(w *bufio.Writer, row []string) error {
	for i, field := range row {
		if i > 0 {
			if err := w.WriteByte(Delimiter); err != nil {
				return err
			}
		}
		if !fieldNeedsQuotes(field) {
			if _, err := w.WriteString(field); err != nil {
				return err
			}
			continue
		}
		if _, err := w.WriteString(`"` + strings.ReplaceAll(field, `"`, `""`) + `"`); err != nil {
			return err
		}
	}
	if len(row) == 1 && row[0] == "" {
		// otherwise read back as a blank line
		if _, err := w.WriteString(`""`); err != nil {
			return err
		}
	}
	return w.WriteByte('\n')
}

/*
Write writes the header and all rows of the table to the given writer.

Fields are written as is, unless they contain a tab, a line break or a
double quote. Such fields are enclosed in double quotes, with inner
double quotes doubled.
*/
func Write(writer io.Writer, table *Table) error {
	w := bufio.NewWriter(writer)
	if err := writeRow(w, table.Header); err != nil {
		return err
	}
	for _, row := range table.Rows {
		if err := writeRow(w, row); err != nil {
			return err
		}
	}
	return w.Flush()
}

func writeFile(filename string, table *Table, write func(io.Writer, *Table) error) (err error) {
	output, err := utils.CreateMaybeGzip(filename)
	if err != nil {
		return err
	}
	defer func() {
		if nerr := output.Close(); err == nil {
			err = nerr
		}
		if err != nil {
			if info, serr := os.Stat(filename); serr == nil && info.Mode().IsRegular() {
				_ = os.Remove(filename)
			}
		}
	}()
	return write(output, table)
}

// WriteFile writes the table to the named file, which is created or
// truncated. If the filename ends in utils.GzipExt, the output is gzip
// compressed. If writing fails, the partially written file is removed.
func WriteFile(filename string, table *Table) error {
	return writeFile(filename, table, Write)
}
