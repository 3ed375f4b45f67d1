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

// frcurate curates functional-role annotation calls: per annotation
// table, the calls of a role are only retained if the summed length of
// the annotated regions is large enough compared to the median length
// of that role in the reference genomes.
//
// Please see https://github.com/exascience/frcurate for a
// documentation of the tool.
package main

import (
	"fmt"
	"os"

	"github.com/exascience/frcurate/cmd"
)

func main() {
	fmt.Fprintln(os.Stderr, cmd.ProgramMessage)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
