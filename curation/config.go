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
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultFraction is the coverage fraction for roles without a custom
// threshold.
const DefaultFraction = 0.3

// Custom coverage fractions observed from manual curation of the
// reference genomes.
var defaultOverrides = map[string]float64{
	"Putative sucrose MFS permease (TC 2.A.1.5)":   0.5,
	"Sucrose phosphorylase (EC 2.4.1.7)":           0.5,
	"Putative mannitol MFS permease (TC 2.A.1.18)": 0.5,
}

// Roles that are always included when they have statistics.
var defaultExemptRoles = []string{
	"Putative 2-dehydro-3-deoxygluconate kinase (EC 2.7.1.45)",
	"Putative N-acetylglucosamine-specific PTS system IIA component (TC 4.A.1)",
	"Putative N-acetylglucosamine-specific PTS system IIB component (TC 4.A.1)",
	"Putative N-acetylglucosamine-specific PTS system-2 IIA component (TC 4.A.1)",
	"Putative N-acetylglucosamine-specific PTS system-2 IIB component (TC 4.A.1)",
	"Putative transcriptional regulator of fucosylated HMO utilization (LacI family)",
	"Putative galactose MFS permease (TC 2.A.2)",
	"Lactose MFS permease (TC 2.A.2)",
	"Alpha-1,6-glucosidase (GH13_31)",
}

// AnnotationColumns names the columns of an annotation table that are
// used for filtering. All other columns are passed through unchanged.
type AnnotationColumns struct {
	Role   string `yaml:"role"`
	Length string `yaml:"length"`
}

// DefaultAnnotationColumns are the column names of the annotation
// tables produced by the annotation step.
var DefaultAnnotationColumns = AnnotationColumns{Role: "Winner", Length: "Region_len"}

// Config holds the static filtering configuration.
type Config struct {
	DefaultFraction   float64
	Overrides         map[string]float64
	ExemptRoles       []string
	Columns           AnnotationColumns
	StatisticsColumns StatisticsColumns
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	overrides := make(map[string]float64, len(defaultOverrides))
	for role, fraction := range defaultOverrides {
		overrides[role] = fraction
	}
	return &Config{
		DefaultFraction:   DefaultFraction,
		Overrides:         overrides,
		ExemptRoles:       append([]string(nil), defaultExemptRoles...),
		Columns:           DefaultAnnotationColumns,
		StatisticsColumns: DefaultStatisticsColumns,
	}
}

// configFile is the YAML representation of a Config. Absent keys keep
// the built-in defaults.
type configFile struct {
	DefaultFraction   *float64           `yaml:"default_fraction"`
	Overrides         map[string]float64 `yaml:"overrides"`
	ExemptRoles       []string           `yaml:"exempt_roles"`
	Columns           *AnnotationColumns `yaml:"columns"`
	StatisticsColumns *StatisticsColumns `yaml:"statistics_columns"`
}

// A ConfigError reports an invalid configuration. It is fatal for a
// run.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid configuration: %v", e.Err)
	}
	return fmt.Sprintf("%v, while loading configuration from %v", e.Err, e.Path)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func (file *configFile) applyTo(config *Config) {
	if file.DefaultFraction != nil {
		config.DefaultFraction = *file.DefaultFraction
	}
	if file.Overrides != nil {
		config.Overrides = file.Overrides
	}
	if file.ExemptRoles != nil {
		config.ExemptRoles = file.ExemptRoles
	}
	if file.Columns != nil {
		if file.Columns.Role != "" {
			config.Columns.Role = file.Columns.Role
		}
		if file.Columns.Length != "" {
			config.Columns.Length = file.Columns.Length
		}
	}
	if file.StatisticsColumns != nil {
		if file.StatisticsColumns.Role != "" {
			config.StatisticsColumns.Role = file.StatisticsColumns.Role
		}
		if file.StatisticsColumns.Median != "" {
			config.StatisticsColumns.Median = file.StatisticsColumns.Median
		}
	}
}

// ParseConfig reads a YAML configuration on top of DefaultConfig.
// Unknown keys are rejected.
func ParseConfig(reader io.Reader) (*Config, error) {
	var file configFile
	decoder := yaml.NewDecoder(reader)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && err != io.EOF {
		return nil, &ConfigError{Err: err}
	}
	config := DefaultConfig()
	file.applyTo(config)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadConfig reads a YAML configuration file on top of DefaultConfig.
func LoadConfig(filename string) (config *Config, err error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, &ConfigError{Path: filename, Err: err}
	}
	defer func() {
		_ = file.Close()
	}()
	config, err = ParseConfig(file)
	if cerr, ok := err.(*ConfigError); ok {
		cerr.Path = filename
	}
	return config, err
}

func validFraction(fraction float64) bool {
	return !math.IsNaN(fraction) && !math.IsInf(fraction, 0) && fraction >= 0
}

// Validate checks that all fractions are usable and that all column
// names are set. It returns a *ConfigError otherwise.
func (config *Config) Validate() error {
	if !validFraction(config.DefaultFraction) || config.DefaultFraction > 1 {
		return &ConfigError{Err: fmt.Errorf("default fraction %v is not in [0, 1]", config.DefaultFraction)}
	}
	for role, fraction := range config.Overrides {
		if !validFraction(fraction) {
			return &ConfigError{Err: fmt.Errorf("fraction %v for role %q is not a non-negative number", fraction, role)}
		}
	}
	switch "" {
	case config.Columns.Role, config.Columns.Length:
		return &ConfigError{Err: fmt.Errorf("annotation column names must not be empty")}
	case config.StatisticsColumns.Role, config.StatisticsColumns.Median:
		return &ConfigError{Err: fmt.Errorf("statistics column names must not be empty")}
	}
	return nil
}

// Thresholds returns the ThresholdConfig for this configuration.
func (config *Config) Thresholds() *ThresholdConfig {
	return NewThresholdConfig(config.DefaultFraction, config.Overrides, config.ExemptRoles)
}
