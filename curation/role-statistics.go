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

package curation

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/exascience/frcurate/tsv"
	"github.com/exascience/frcurate/utils"
)

// StatisticsColumns names the columns of a role statistics table that
// are used for filtering. All other columns are ignored.
type StatisticsColumns struct {
	Role   string `yaml:"role"`
	Median string `yaml:"median"`
}

// DefaultStatisticsColumns are the column names of the statistics
// tables produced for the reference database.
var DefaultStatisticsColumns = StatisticsColumns{Role: "role", Median: "median"}

// A LoadError reports that role statistics could not be loaded. It is
// fatal for a run.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%v, while loading role statistics from %v", e.Err, e.Path)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// RoleStatistics maps roles onto the median length of their regions
// in the reference genomes. It is read-only once constructed and can
// be shared between goroutines.
type RoleStatistics struct {
	medians map[utils.Symbol]float64
}

// NewRoleStatistics allocates and initializes RoleStatistics from the
// given role/median pairs.
func NewRoleStatistics(medians map[string]float64) *RoleStatistics {
	stats := &RoleStatistics{medians: make(map[utils.Symbol]float64, len(medians))}
	for role, median := range medians {
		stats.medians[utils.Intern(role)] = median
	}
	return stats
}

// parseMedian returns NaN for a missing median, so that only exempt
// roles can pass.
func parseMedian(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if missingValues[s] {
		return math.NaN(), nil
	}
	median, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(median) || math.IsInf(median, 0) || median < 0 {
		return 0, fmt.Errorf("median %v is not a non-negative number", s)
	}
	return median, nil
}

// RoleStatisticsFromTable extracts RoleStatistics from a parsed
// statistics table.
func RoleStatisticsFromTable(table *tsv.Table, columns StatisticsColumns) (*RoleStatistics, error) {
	roleColumn := table.ColumnIndex(columns.Role)
	if roleColumn < 0 {
		return nil, fmt.Errorf("missing column %q", columns.Role)
	}
	medianColumn := table.ColumnIndex(columns.Median)
	if medianColumn < 0 {
		return nil, fmt.Errorf("missing column %q", columns.Median)
	}
	stats := &RoleStatistics{medians: make(map[utils.Symbol]float64, len(table.Rows))}
	for i, row := range table.Rows {
		role := utils.Intern(row[roleColumn])
		if _, found := stats.medians[role]; found {
			return nil, fmt.Errorf("duplicate role %q in data row %v", *role, i+1)
		}
		median, err := parseMedian(row[medianColumn])
		if err != nil {
			return nil, fmt.Errorf("%v, in data row %v for role %q", err, i+1, *role)
		}
		stats.medians[role] = median
	}
	return stats, nil
}

// LoadRoleStatistics reads RoleStatistics from a tab-delimited file.
// All errors are reported as *LoadError.
func LoadRoleStatistics(filename string, columns StatisticsColumns) (*RoleStatistics, error) {
	table, err := tsv.ReadFile(filename)
	if err != nil {
		return nil, &LoadError{Path: filename, Err: err}
	}
	stats, err := RoleStatisticsFromTable(table, columns)
	if err != nil {
		return nil, &LoadError{Path: filename, Err: err}
	}
	return stats, nil
}

// Lookup returns the median length for the given role, and whether
// the role has statistics at all. The median is NaN if the statistics
// list the role without a median.
func (stats *RoleStatistics) Lookup(role utils.Symbol) (median float64, ok bool) {
	median, ok = stats.medians[role]
	return
}

// Len returns the number of roles with statistics.
func (stats *RoleStatistics) Len() int {
	return len(stats.medians)
}
