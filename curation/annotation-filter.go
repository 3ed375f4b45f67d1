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

	"github.com/bits-and-blooms/bitset"

	"github.com/exascience/frcurate/tsv"
	"github.com/exascience/frcurate/utils"
)

// An AnnotationRecord is one row of an annotation table: a region
// assigned to a role. Fields holds the complete row as read.
type AnnotationRecord struct {
	Role      utils.Symbol
	RegionLen float64
	Fields    []string
}

// An AnnotationTable holds the records of one annotation file in their
// original order.
type AnnotationTable struct {
	Name    string
	Header  []string
	Records []*AnnotationRecord
}

// Cell contents that denote a missing region length.
var missingValues = map[string]bool{
	"":    true,
	"NA":  true,
	"N/A": true,
	"NaN": true,
	"nan": true,
}

func parseRegionLen(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if missingValues[s] {
		return 0, nil
	}
	length, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(length) || math.IsInf(length, 0) || length < 0 {
		return 0, fmt.Errorf("region length %v is not a non-negative number", s)
	}
	return length, nil
}

// NewAnnotationTable extracts the role and region length of each row
// of the given table. Missing region lengths count as 0.
func NewAnnotationTable(name string, table *tsv.Table, columns AnnotationColumns) (*AnnotationTable, error) {
	roleColumn := table.ColumnIndex(columns.Role)
	if roleColumn < 0 {
		return nil, fmt.Errorf("missing column %q", columns.Role)
	}
	lengthColumn := table.ColumnIndex(columns.Length)
	if lengthColumn < 0 {
		return nil, fmt.Errorf("missing column %q", columns.Length)
	}
	records := make([]*AnnotationRecord, len(table.Rows))
	for i, row := range table.Rows {
		length, err := parseRegionLen(row[lengthColumn])
		if err != nil {
			return nil, fmt.Errorf("invalid %v value in data row %v: %v", columns.Length, i+1, err)
		}
		records[i] = &AnnotationRecord{
			Role:      utils.Intern(row[roleColumn]),
			RegionLen: length,
			Fields:    row,
		}
	}
	return &AnnotationTable{Name: name, Header: table.Header, Records: records}, nil
}

// A FilterResult is the outcome of filtering one AnnotationTable.
type FilterResult struct {
	// Passing and NonPassing partition the records of the table, each
	// in original order.
	Passing, NonPassing []*AnnotationRecord
	// PassingRows has a bit set for the position of every passing record.
	PassingRows *bitset.BitSet
	// Roles lists the distinct roles of the table in order of first
	// appearance.
	Roles []utils.Symbol
	// SummedLength is the sum of region lengths per role.
	SummedLength map[utils.Symbol]float64
	// ValidRoles holds the roles whose records pass.
	ValidRoles map[utils.Symbol]bool
}

/*
Filter sums the region lengths per role of the given table, decides
which roles are valid according to IsValid, and partitions the records
into passing and non-passing records.

Both partitions keep the original relative order of the records.
*/
func Filter(table *AnnotationTable, stats *RoleStatistics, config *ThresholdConfig) *FilterResult {
	result := &FilterResult{
		PassingRows:  bitset.New(uint(len(table.Records))),
		SummedLength: make(map[utils.Symbol]float64),
		ValidRoles:   make(map[utils.Symbol]bool),
	}
	for _, record := range table.Records {
		if _, found := result.SummedLength[record.Role]; !found {
			result.Roles = append(result.Roles, record.Role)
		}
		result.SummedLength[record.Role] += record.RegionLen
	}
	for _, role := range result.Roles {
		if IsValid(role, result.SummedLength[role], stats, config) {
			result.ValidRoles[role] = true
		}
	}
	for i, record := range table.Records {
		if result.ValidRoles[record.Role] {
			result.PassingRows.Set(uint(i))
		}
	}
	nofPassing := int(result.PassingRows.Count())
	result.Passing = make([]*AnnotationRecord, 0, nofPassing)
	result.NonPassing = make([]*AnnotationRecord, 0, len(table.Records)-nofPassing)
	for i, record := range table.Records {
		if result.PassingRows.Test(uint(i)) {
			result.Passing = append(result.Passing, record)
		} else {
			result.NonPassing = append(result.NonPassing, record)
		}
	}
	return result
}

func recordsTable(header []string, records []*AnnotationRecord) *tsv.Table {
	table := &tsv.Table{Header: header, Rows: make([][]string, len(records))}
	for i, record := range records {
		table.Rows[i] = record.Fields
	}
	return table
}

// Tables returns both partitions as tables with the given header.
func (result *FilterResult) Tables(header []string) (passing, nonPassing *tsv.Table) {
	return recordsTable(header, result.Passing), recordsTable(header, result.NonPassing)
}
