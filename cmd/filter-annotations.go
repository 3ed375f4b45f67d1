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

package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/exascience/frcurate/batch"
	"github.com/exascience/frcurate/curation"
	"github.com/exascience/frcurate/internal"
)

// FilterAnnotationsHelp is the help string for this command.
const FilterAnnotationsHelp = "filter-annotations parameters:\n" +
	"frcurate filter-annotations /path/to/annotation/ /path/to/output/ --statistics stats-file\n" +
	"[--non-passing file]\n" +
	"[--config yaml-file]\n" +
	"[--default-fraction f]\n" +
	"[--override \"role=f\"]\n" +
	"[--exempt role]\n" +
	"[--role-column name]\n" +
	"[--length-column name]\n" +
	"[--source-column name]\n" +
	"[--metrics-file file]\n" +
	"[--nr-of-threads nr]\n" +
	"[--timed]\n" +
	"[--profile file]\n" +
	"[--log-path path]\n" +
	"[--verbose]\n"

// DefaultNonPassingName is the name of the combined non-passing file,
// which is placed next to the output directory unless specified
// otherwise.
const DefaultNonPassingName = "filtered_annotations.tsv"

var errSanityChecks = errors.New("sanity checks failed")

type filterAnnotationsOptions struct {
	statistics, nonPassing, configFile     string
	roleColumn, lengthColumn, sourceColumn string
	metricsFile, profile                   string
	defaultFraction                        float64
	overrides, exempt                      []string
	nrOfThreads                            int
	timed                                  bool
}

func newFilterAnnotationsCommand(root *rootOptions) *cobra.Command {
	opts := &filterAnnotationsOptions{}
	cmd := &cobra.Command{
		Use:   "filter-annotations /path/to/annotation/ /path/to/output/",
		Short: "Filter annotation tables by summed region length per role",
		Long:  FilterAnnotationsHelp,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return filterAnnotations(cmd, root, opts, args[0], args[1])
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.statistics, "statistics", "", "tab-delimited file with the median length per role")
	flags.StringVar(&opts.nonPassing, "non-passing", "", "combined output file for all records that do not pass")
	flags.StringVar(&opts.configFile, "config", "", "YAML file with thresholds, overrides and exempt roles")
	flags.Float64Var(&opts.defaultFraction, "default-fraction", curation.DefaultFraction, "coverage fraction for roles without an override")
	flags.StringArrayVar(&opts.overrides, "override", nil, "custom coverage fraction for a role, as role=fraction")
	flags.StringArrayVar(&opts.exempt, "exempt", nil, "role that is always included when it has statistics")
	flags.StringVar(&opts.roleColumn, "role-column", "", "name of the role column in annotation tables")
	flags.StringVar(&opts.lengthColumn, "length-column", "", "name of the region length column in annotation tables")
	flags.StringVar(&opts.sourceColumn, "source-column", "", "add a column with this name holding the source file to the non-passing output")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "write run metrics in Prometheus text format to the specified file")
	flags.IntVar(&opts.nrOfThreads, "nr-of-threads", 0, "number of annotation tables processed in parallel")
	flags.BoolVar(&opts.timed, "timed", false, "measure the runtime")
	flags.StringVar(&opts.profile, "profile", "", "write a runtime profile to the specified file(s)")
	return cmd
}

func parseOverride(s string) (role string, fraction float64, err error) {
	i := strings.LastIndexByte(s, '=')
	if i <= 0 {
		return "", 0, fmt.Errorf("override %q is not of the form role=fraction", s)
	}
	fraction, err = strconv.ParseFloat(strings.TrimSpace(s[i+1:]), 64)
	if err != nil {
		return "", 0, fmt.Errorf("%v, in override %q", err, s)
	}
	return s[:i], fraction, nil
}

// resolveConfig layers the command line flags over the configuration
// file, which in turn is layered over the built-in configuration.
func resolveConfig(cmd *cobra.Command, opts *filterAnnotationsOptions) (*curation.Config, error) {
	config := curation.DefaultConfig()
	if opts.configFile != "" {
		var err error
		if config, err = curation.LoadConfig(opts.configFile); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("default-fraction") {
		config.DefaultFraction = opts.defaultFraction
	}
	if len(opts.overrides) > 0 {
		overrides := make(map[string]float64, len(config.Overrides)+len(opts.overrides))
		for role, fraction := range config.Overrides {
			overrides[role] = fraction
		}
		for _, override := range opts.overrides {
			role, fraction, err := parseOverride(override)
			if err != nil {
				return nil, &curation.ConfigError{Err: err}
			}
			overrides[role] = fraction
		}
		config.Overrides = overrides
	}
	config.ExemptRoles = append(config.ExemptRoles, opts.exempt...)
	if opts.roleColumn != "" {
		config.Columns.Role = opts.roleColumn
	}
	if opts.lengthColumn != "" {
		config.Columns.Length = opts.lengthColumn
	}
	return config, config.Validate()
}

// defaultNonPassingPath places the combined output next to the output
// directory, as in tmp/annotation_filt and tmp/filtered_annotations.tsv.
func defaultNonPassingPath(output string) string {
	return filepath.Join(filepath.Dir(filepath.Clean(output)), DefaultNonPassingName)
}

func filterAnnotations(cmd *cobra.Command, root *rootOptions, opts *filterAnnotationsOptions, input, output string) error {
	runID := uuid.NewString()
	logger := root.logger.With(zap.String("run", runID))
	log := logger.Sugar()

	if opts.nonPassing == "" {
		opts.nonPassing = defaultNonPassingPath(output)
	}

	// sanity checks

	var sanityChecksFailed bool

	if !checkExist(log, "", input) {
		sanityChecksFailed = true
	}

	if !checkExist(log, "--statistics", opts.statistics) {
		sanityChecksFailed = true
	}

	if internal.SamePath(input, output) {
		sanityChecksFailed = true
		log.Errorf("Error: Output directory %v must differ from the input directory.", output)
	}

	if !checkCreate(log, "--non-passing", opts.nonPassing) {
		sanityChecksFailed = true
	}

	if opts.metricsFile != "" && !checkCreate(log, "--metrics-file", opts.metricsFile) {
		sanityChecksFailed = true
	}

	if opts.profile != "" && !checkCreate(log, "--profile", opts.profile) {
		sanityChecksFailed = true
	}

	if opts.nrOfThreads < 0 {
		sanityChecksFailed = true
		log.Errorf("Error: Invalid nr-of-threads: %v", opts.nrOfThreads)
	}

	config, err := resolveConfig(cmd, opts)
	if err != nil {
		sanityChecksFailed = true
		log.Errorf("Error: %v", err)
	}

	if sanityChecksFailed {
		return errSanityChecks
	}

	// building output command line

	var command bytes.Buffer
	fmt.Fprint(&command, cmd.Root().Name(), " filter-annotations ", input, " ", output)
	fmt.Fprint(&command, " --statistics ", opts.statistics)
	fmt.Fprint(&command, " --non-passing ", opts.nonPassing)
	if opts.configFile != "" {
		fmt.Fprint(&command, " --config ", opts.configFile)
	}
	fmt.Fprint(&command, " --default-fraction ", config.DefaultFraction)
	for _, override := range opts.overrides {
		fmt.Fprintf(&command, " --override %q", override)
	}
	for _, role := range opts.exempt {
		fmt.Fprintf(&command, " --exempt %q", role)
	}
	fmt.Fprint(&command, " --role-column ", config.Columns.Role)
	fmt.Fprint(&command, " --length-column ", config.Columns.Length)
	if opts.sourceColumn != "" {
		fmt.Fprint(&command, " --source-column ", opts.sourceColumn)
	}
	if opts.metricsFile != "" {
		fmt.Fprint(&command, " --metrics-file ", opts.metricsFile)
	}
	if opts.nrOfThreads > 0 {
		fmt.Fprint(&command, " --nr-of-threads ", opts.nrOfThreads)
	}
	if opts.timed {
		fmt.Fprint(&command, " --timed")
	}

	// executing command

	logger.Info("Executing command.", zap.String("command", command.String()))

	var stats *curation.RoleStatistics
	phase := int64(1)
	err = timedRun(logger, opts.timed, opts.profile, "Loading role statistics.", phase, func() (err error) {
		stats, err = curation.LoadRoleStatistics(opts.statistics, config.StatisticsColumns)
		return err
	})
	if err != nil {
		return err
	}
	logger.Info("Functional role length data loaded successfully.", zap.Int("roles", stats.Len()))

	var metrics *batch.Metrics
	if opts.metricsFile != "" {
		metrics = batch.NewMetrics(runID)
	}

	var report *batch.Report
	phase++
	err = timedRun(logger, opts.timed, opts.profile, "Filtering annotation tables.", phase, func() error {
		sources, err := batch.Sources(input)
		if err != nil {
			return err
		}
		report, err = batch.Run(sources, stats, config.Thresholds(), batch.Options{
			OutputDir:      output,
			NonPassingPath: opts.nonPassing,
			Columns:        config.Columns,
			SourceColumn:   opts.sourceColumn,
			Threads:        opts.nrOfThreads,
			RunID:          runID,
			Metrics:        metrics,
		}, root.logger)
		return err
	})
	if report != nil {
		report.Log(logger)
	}
	if err != nil {
		return err
	}

	if metrics != nil {
		if err := metrics.WriteToTextfile(opts.metricsFile); err != nil {
			return fmt.Errorf("%w, while writing metrics to %v", err, opts.metricsFile)
		}
	}
	return nil
}
