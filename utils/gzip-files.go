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

package utils

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// GzipExt is the filename extension for which output is gzip compressed.
const GzipExt = ".gz"

var gzipMagic = []byte{0x1f, 0x8b}

// IsGzip checks if the given reader produces a gzip stream by peeking
// at the initial bytes, without consuming them.
func IsGzip(buf *bufio.Reader) (bool, error) {
	magic, err := buf.Peek(len(gzipMagic))
	if err == io.EOF {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return bytes.Equal(magic, gzipMagic), nil
}

// HandleGzip checks if the given reader produces a gzip stream. It
// then either returns a gzip.Reader and true, or returns the given
// reader unchanged and false.
func HandleGzip(buf *bufio.Reader) (io.Reader, bool, error) {
	ok, err := IsGzip(buf)
	if err != nil || !ok {
		return buf, false, err
	}
	r, err := gzip.NewReader(buf)
	if err != nil {
		return nil, true, err
	}
	return r, true, nil
}

type gzipFile struct {
	*gzip.Writer
	file *os.File
}

func (f gzipFile) Close() (err error) {
	defer func() {
		nerr := f.file.Close()
		if err == nil {
			err = nerr
		}
	}()
	return f.Writer.Close()
}

// CreateMaybeGzip creates the named file. If the filename ends in
// GzipExt, everything written to the result is gzip compressed.
func CreateMaybeGzip(filename string) (io.WriteCloser, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(filename, GzipExt) {
		return gzipFile{Writer: gzip.NewWriter(file), file: file}, nil
	}
	return file, nil
}
