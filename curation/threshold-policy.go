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
	"github.com/exascience/frcurate/utils"
)

// A ThresholdConfig determines how much evidence a role needs to be
// retained. The required summed region length for a role is its
// coverage fraction times its median reference length.
type ThresholdConfig struct {
	// DefaultFraction applies to roles without an override.
	DefaultFraction float64
	// Overrides replace DefaultFraction for individual roles.
	Overrides map[utils.Symbol]float64
	// Exempt roles are always retained, provided they have statistics.
	Exempt map[utils.Symbol]bool
}

// NewThresholdConfig allocates and initializes a ThresholdConfig.
func NewThresholdConfig(defaultFraction float64, overrides map[string]float64, exempt []string) *ThresholdConfig {
	config := &ThresholdConfig{
		DefaultFraction: defaultFraction,
		Overrides:       make(map[utils.Symbol]float64, len(overrides)),
		Exempt:          make(map[utils.Symbol]bool, len(exempt)),
	}
	for role, fraction := range overrides {
		config.Overrides[utils.Intern(role)] = fraction
	}
	for _, role := range exempt {
		config.Exempt[utils.Intern(role)] = true
	}
	return config
}

// Fraction returns the coverage fraction that applies to the given role.
func (config *ThresholdConfig) Fraction(role utils.Symbol) float64 {
	if fraction, ok := config.Overrides[role]; ok {
		return fraction
	}
	return config.DefaultFraction
}

// IsExempt reports whether the role is on the always-include list.
func (config *ThresholdConfig) IsExempt(role utils.Symbol) bool {
	return config.Exempt[role]
}

// Threshold returns the minimum summed region length for the given
// role, or false if the role has no statistics.
func Threshold(role utils.Symbol, stats *RoleStatistics, config *ThresholdConfig) (float64, bool) {
	median, ok := stats.Lookup(role)
	if !ok {
		return 0, false
	}
	return config.Fraction(role) * median, true
}

/*
IsValid decides whether calls for a role are retained, given the sum
of their region lengths.

A role without statistics is never valid, even if it is exempt. A role
with statistics is valid if summedLength reaches its threshold, or if
it is exempt. A NaN threshold is never reached.
*/
func IsValid(role utils.Symbol, summedLength float64, stats *RoleStatistics, config *ThresholdConfig) bool {
	threshold, ok := Threshold(role, stats, config)
	if !ok {
		return false
	}
	return summedLength >= threshold || config.IsExempt(role)
}
