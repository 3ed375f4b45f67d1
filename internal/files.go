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

package internal

import (
	"os"
	"path/filepath"
	"sort"
)

/*
Directory returns the directory and the lexicographically sorted entry
names to process for the given path. If path names a single file, the
result is its parent directory and its base name only.
*/
func Directory(path string) (dir string, files []string, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", nil, err
	}
	if !info.IsDir() {
		return filepath.Dir(path), []string{filepath.Base(path)}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return "", nil, err
	}
	defer func() {
		nerr := f.Close()
		if err == nil {
			err = nerr
		}
	}()
	files, err = f.Readdirnames(0)
	if err != nil {
		return "", nil, err
	}
	sort.Strings(files)
	return path, files, nil
}

// FullPathname returns filename as an absolute path, relative to the
// current working directory if necessary.
func FullPathname(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		return filepath.Clean(filename), nil
	}
	wd, err := os.Getwd()
	return filepath.Join(wd, filename), err
}

// SamePath reports whether two filenames denote the same location after
// resolving them to absolute paths.
func SamePath(filename1, filename2 string) bool {
	path1, err1 := FullPathname(filename1)
	path2, err2 := FullPathname(filename2)
	return err1 == nil && err2 == nil && path1 == path2
}
