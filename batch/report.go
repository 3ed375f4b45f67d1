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
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/exascience/frcurate/tsv"
)

// Status is the state of a source during a run.
type Status int

// A source goes from Pending through Loaded and Filtered to either
// Written or EmptyPassingSkipped, or from Pending to Failed. Written,
// EmptyPassingSkipped and Failed are terminal.
const (
	Pending Status = iota
	Loaded
	Filtered
	Written
	EmptyPassingSkipped
	Failed
)

var statusNames = [...]string{"pending", "loaded", "filtered", "written", "empty", "failed"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "unknown"
	}
	return statusNames[s]
}

// An Outcome records what happened to one source.
type Outcome struct {
	Source string
	Status Status
	// Err is set for Failed sources.
	Err error
	// Output is the file the passing records were written to.
	Output         string
	PassingRows    int
	NonPassingRows int
	Duration       time.Duration
}

// DecodeFailure reports whether the source failed because it could
// not be decoded as text.
func (o *Outcome) DecodeFailure() bool {
	return o.Status == Failed && errors.Is(o.Err, tsv.ErrDecode)
}

func (o *Outcome) fail(err error) {
	o.Status = Failed
	o.Err = err
	o.PassingRows = 0
	o.NonPassingRows = 0
}

func (o *Outcome) log(logger *zap.Logger) {
	fields := []zap.Field{zap.String("source", o.Source), zap.Duration("elapsed", o.Duration)}
	switch o.Status {
	case Written:
		logger.Info("File processed: data passed the filtering criteria and saved.",
			append(fields, zap.String("output", o.Output), zap.Int("passing", o.PassingRows), zap.Int("non-passing", o.NonPassingRows))...)
	case EmptyPassingSkipped:
		logger.Info("File processed: no data passed the filtering criteria.",
			append(fields, zap.Int("non-passing", o.NonPassingRows))...)
	case Failed:
		if o.DecodeFailure() {
			logger.Warn("Skipping file due to a decoding error.", append(fields, zap.Error(o.Err))...)
		} else {
			logger.Error("Failed to process file.", append(fields, zap.Error(o.Err))...)
		}
	default:
		logger.DPanic("Source left in a non-terminal state.", append(fields, zap.Stringer("status", o.Status))...)
	}
}

// A Report summarizes a run.
type Report struct {
	RunID    string
	Outcomes []*Outcome
	// NonPassingOutput is the combined non-passing file, or "" if it
	// was not written.
	NonPassingOutput string
	NonPassingRows   int
}

// Counts returns the number of sources per terminal status.
func (r *Report) Counts() (written, empty, failed int) {
	for _, outcome := range r.Outcomes {
		switch outcome.Status {
		case Written:
			written++
		case EmptyPassingSkipped:
			empty++
		case Failed:
			failed++
		}
	}
	return
}

// Outputs returns the paths of all files written during the run.
func (r *Report) Outputs() (outputs []string) {
	for _, outcome := range r.Outcomes {
		if outcome.Status == Written {
			outputs = append(outputs, outcome.Output)
		}
	}
	if r.NonPassingOutput != "" {
		outputs = append(outputs, r.NonPassingOutput)
	}
	return
}

// Failures returns the outcomes of all failed sources.
func (r *Report) Failures() (failures []*Outcome) {
	for _, outcome := range r.Outcomes {
		if outcome.Status == Failed {
			failures = append(failures, outcome)
		}
	}
	return
}

// Log writes the summary of the run.
func (r *Report) Log(logger *zap.Logger) {
	written, empty, failed := r.Counts()
	for _, outcome := range r.Failures() {
		logger.Warn("Failed source.", zap.String("source", outcome.Source), zap.Error(outcome.Err))
	}
	logger.Info("All files have been processed.",
		zap.Int("sources", len(r.Outcomes)),
		zap.Int("written", written),
		zap.Int("empty", empty),
		zap.Int("failed", failed),
		zap.Int("non-passing", r.NonPassingRows),
		zap.Strings("outputs", r.Outputs()))
}
