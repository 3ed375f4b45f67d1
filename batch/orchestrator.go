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

package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/exascience/pargo/parallel"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/exascience/frcurate/curation"
	"github.com/exascience/frcurate/internal"
	"github.com/exascience/frcurate/tsv"
	"github.com/exascience/frcurate/utils"
)

// A Source is one annotation table to be filtered.
type Source struct {
	// Name is the base name used for the output file.
	Name string
	Path string
}

// Sources returns the files in the given directory in lexicographic
// order. If path names a single file, only that file is returned.
func Sources(path string) ([]Source, error) {
	dir, files, err := internal.Directory(path)
	if err != nil {
		return nil, err
	}
	sources := make([]Source, len(files))
	for i, name := range files {
		sources[i] = Source{Name: name, Path: filepath.Join(dir, name)}
	}
	return sources, nil
}

// Options configure a run.
type Options struct {
	// OutputDir receives one file of passing records per source.
	OutputDir string
	// NonPassingPath receives the non-passing records of all sources.
	NonPassingPath string
	Columns        curation.AnnotationColumns
	// If SourceColumn is not empty, the combined non-passing output
	// gets a first column of that name with the source of each row.
	SourceColumn string
	// Threads bounds the number of sources processed in parallel. 0
	// means runtime.GOMAXPROCS(0).
	Threads int
	RunID   string
	Metrics *Metrics
}

type partialResult struct {
	outcomes   []*Outcome
	nonPassing []*tsv.Table
}

func mergePartialResults(x, y interface{}) interface{} {
	left, right := x.(partialResult), y.(partialResult)
	left.outcomes = append(left.outcomes, right.outcomes...)
	left.nonPassing = append(left.nonPassing, right.nonPassing...)
	return left
}

func nofBatches(threads, nofSources int) int {
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}
	if threads > nofSources {
		return nofSources
	}
	return threads
}

/*
Run filters all sources against the given statistics and thresholds.

Passing records of each source are written to a file of the same name
in opts.OutputDir, unless there are none. Non-passing records of all
sources are written once to opts.NonPassingPath, per source and then
per row, unless there are none.

A source that cannot be read, decoded, filtered or written is recorded
as failed in the report and contributes no records to any output. Run
itself only returns an error if an output location cannot be created
or the combined non-passing file cannot be written.
*/
func Run(sources []Source, stats *curation.RoleStatistics, config *curation.ThresholdConfig, opts Options, logger *zap.Logger) (*Report, error) {
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	logger = logger.With(zap.String("run", opts.RunID))
	if err := os.MkdirAll(opts.OutputDir, 0700); err != nil {
		return nil, fmt.Errorf("%w, while creating output directory %v", err, opts.OutputDir)
	}
	if err := os.MkdirAll(filepath.Dir(opts.NonPassingPath), 0700); err != nil {
		return nil, fmt.Errorf("%w, while creating directory for %v", err, opts.NonPassingPath)
	}

	var result partialResult
	if len(sources) > 0 {
		result = parallel.RangeReduce(0, len(sources), nofBatches(opts.Threads, len(sources)), func(low, high int) interface{} {
			var partial partialResult
			for _, source := range sources[low:high] {
				outcome, nonPassing := processSource(source, stats, config, &opts, logger)
				partial.outcomes = append(partial.outcomes, outcome)
				if nonPassing != nil {
					partial.nonPassing = append(partial.nonPassing, nonPassing)
				}
			}
			return partial
		}, mergePartialResults).(partialResult)
	}

	report := &Report{RunID: opts.RunID, Outcomes: result.outcomes}
	if combined := tsv.Concat(result.nonPassing...); combined != nil && combined.Len() > 0 {
		if err := tsv.WriteFile(opts.NonPassingPath, combined); err != nil {
			return report, fmt.Errorf("%w, while writing non-passing records to %v", err, opts.NonPassingPath)
		}
		report.NonPassingOutput = opts.NonPassingPath
		report.NonPassingRows = combined.Len()
		logger.Info("Combined file for non-passing entries saved.", zap.String("output", opts.NonPassingPath), zap.Int("rows", combined.Len()))
	} else {
		logger.Info("No non-passing entries, combined file not written.")
	}
	opts.Metrics.observeRun()
	return report, nil
}

// processSource takes one source from Pending to a terminal status.
// It returns the non-passing records, if any, as a table.
func processSource(source Source, stats *curation.RoleStatistics, config *curation.ThresholdConfig, opts *Options, logger *zap.Logger) (outcome *Outcome, nonPassing *tsv.Table) {
	start := time.Now()
	outcome = &Outcome{Source: source.Name, Status: Pending}
	defer func() {
		outcome.Duration = time.Since(start)
		outcome.log(logger)
		opts.Metrics.observeSource(outcome)
	}()

	table, err := tsv.ReadFile(source.Path)
	if err != nil {
		outcome.fail(err)
		return outcome, nil
	}
	annotations, err := curation.NewAnnotationTable(source.Name, table, opts.Columns)
	if err != nil {
		outcome.fail(err)
		return outcome, nil
	}
	outcome.Status = Loaded

	result := curation.Filter(annotations, stats, config)
	passing, nonPassing := result.Tables(annotations.Header)
	outcome.Status = Filtered
	outcome.PassingRows, outcome.NonPassingRows = passing.Len(), nonPassing.Len()
	if logger.Core().Enabled(zap.DebugLevel) {
		for _, role := range result.Roles {
			threshold, _ := curation.Threshold(role, stats, config)
			logger.Debug("Role evaluated.",
				zap.String("source", source.Name),
				zap.String("role", utils.SymbolString(role)),
				zap.Float64("summed", result.SummedLength[role]),
				zap.Float64("threshold", threshold),
				zap.Bool("valid", result.ValidRoles[role]))
		}
	}

	if passing.Len() > 0 {
		output := filepath.Join(opts.OutputDir, filepath.Base(source.Name))
		// WriteFile removes the file again on failure.
		if err := tsv.WriteFile(output, passing); err != nil {
			outcome.fail(fmt.Errorf("%w, while writing %v", err, output))
			return outcome, nil
		}
		outcome.Status = Written
		outcome.Output = output
	} else {
		outcome.Status = EmptyPassingSkipped
	}

	if nonPassing.Len() == 0 {
		return outcome, nil
	}
	if opts.SourceColumn != "" {
		nonPassing = nonPassing.WithLeadingColumn(opts.SourceColumn, source.Name)
	}
	return outcome, nonPassing
}
