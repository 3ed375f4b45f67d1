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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/exascience/frcurate/curation"
	"github.com/exascience/frcurate/tsv"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const header = "Contig\tWinner\tRegion_len\n"

func writeSources(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, contents := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0600))
	}
	return dir
}

func testStats() *curation.RoleStatistics {
	return curation.NewRoleStatistics(map[string]float64{"A": 100, "B": 200})
}

func testOptions(t *testing.T) Options {
	out := t.TempDir()
	return Options{
		OutputDir:      filepath.Join(out, "annotation_filt"),
		NonPassingPath: filepath.Join(out, "filtered_annotations.tsv"),
		Columns:        curation.DefaultAnnotationColumns,
		RunID:          "test-run",
	}
}

func run(t *testing.T, dir string, opts Options, logger *zap.Logger) *Report {
	t.Helper()
	sources, err := Sources(dir)
	require.NoError(t, err)
	config := curation.NewThresholdConfig(0.3, map[string]float64{"B": 0.5}, nil)
	report, err := Run(sources, testStats(), config, opts, logger)
	require.NoError(t, err)
	return report
}

func readRows(t *testing.T, filename string) [][]string {
	t.Helper()
	table, err := tsv.ReadFile(filename)
	require.NoError(t, err)
	return table.Rows
}

func TestRunCombinesNonPassingInSourceOrder(t *testing.T) {
	dir := writeSources(t, map[string]string{
		"g1.tsv": header + "c1\tA\t20\nc2\tC\t500\nc3\tA\t15\nc4\tC\t1\n",
		"g2.tsv": header + "c5\tB\t60\nc6\tA\t1\nc7\tB\t30\n",
	})
	opts := testOptions(t)
	report := run(t, dir, opts, zap.NewNop())

	written, empty, failed := report.Counts()
	assert.Equal(t, []int{1, 1, 0}, []int{written, empty, failed})

	assert.Equal(t, [][]string{{"c1", "A", "20"}, {"c3", "A", "15"}},
		readRows(t, filepath.Join(opts.OutputDir, "g1.tsv")))
	assert.NoFileExists(t, filepath.Join(opts.OutputDir, "g2.tsv"))

	assert.Equal(t, opts.NonPassingPath, report.NonPassingOutput)
	assert.Equal(t, 5, report.NonPassingRows)
	assert.Equal(t, [][]string{
		{"c2", "C", "500"}, {"c4", "C", "1"},
		{"c5", "B", "60"}, {"c6", "A", "1"}, {"c7", "B", "30"},
	}, readRows(t, opts.NonPassingPath))

	assert.Equal(t, []string{filepath.Join(opts.OutputDir, "g1.tsv"), opts.NonPassingPath}, report.Outputs())
}

func TestRunSkipsUndecodableSource(t *testing.T) {
	dir := writeSources(t, map[string]string{
		"a.tsv": header + "c1\tA\t40\nc2\tC\t1\n",
		"b.tsv": header + "c3\t\xff\xfeA\t40\n",
		"c.tsv": "Contig\tRole\nc4\tA\n",
		"d.tsv": header + "c5\tA\t10\nc6\tA\t25\n",
	})
	core, logs := observer.New(zapcore.InfoLevel)
	opts := testOptions(t)
	report := run(t, dir, opts, zap.New(core))

	require.Len(t, report.Outcomes, 4)
	statuses := make([]Status, len(report.Outcomes))
	for i, outcome := range report.Outcomes {
		statuses[i] = outcome.Status
	}
	assert.Equal(t, []Status{Written, Failed, Failed, Written}, statuses)
	assert.True(t, report.Outcomes[1].DecodeFailure())
	assert.False(t, report.Outcomes[2].DecodeFailure())
	assert.Equal(t, 0, report.Outcomes[1].NonPassingRows)

	assert.NoFileExists(t, filepath.Join(opts.OutputDir, "b.tsv"))
	assert.NoFileExists(t, filepath.Join(opts.OutputDir, "c.tsv"))
	assert.Equal(t, [][]string{{"c5", "A", "10"}, {"c6", "A", "25"}}, readRows(t, filepath.Join(opts.OutputDir, "d.tsv")))
	assert.Equal(t, [][]string{{"c2", "C", "1"}}, readRows(t, opts.NonPassingPath))

	skipped := logs.FilterMessage("Skipping file due to a decoding error.").All()
	require.Len(t, skipped, 1)
	assert.Equal(t, "b.tsv", skipped[0].ContextMap()["source"])
	assert.Equal(t, "test-run", skipped[0].ContextMap()["run"])
	assert.Equal(t, 1, logs.FilterMessage("Failed to process file.").Len())
	assert.Len(t, report.Failures(), 2)
}

func TestRunWithoutNonPassingRecords(t *testing.T) {
	dir := writeSources(t, map[string]string{"a.tsv": header + "c1\tA\t40\n"})
	opts := testOptions(t)
	report := run(t, dir, opts, zap.NewNop())
	assert.Equal(t, "", report.NonPassingOutput)
	assert.NoFileExists(t, opts.NonPassingPath)
	assert.FileExists(t, filepath.Join(opts.OutputDir, "a.tsv"))
}

func TestRunWithoutSources(t *testing.T) {
	opts := testOptions(t)
	report, err := Run(nil, testStats(), curation.NewThresholdConfig(0.3, nil, nil), opts, zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, report.Outcomes)
	assert.Empty(t, report.Outputs())
	assert.DirExists(t, opts.OutputDir)
}

func TestRunHeaderOnlySource(t *testing.T) {
	dir := writeSources(t, map[string]string{"a.tsv": header})
	report := run(t, dir, testOptions(t), zap.NewNop())
	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, EmptyPassingSkipped, report.Outcomes[0].Status)
	assert.Empty(t, report.Outputs())
}

func TestRunSourceColumnAndMixedHeaders(t *testing.T) {
	dir := writeSources(t, map[string]string{
		"g1.tsv": header + "c1\tC\t1\n",
		"g2.tsv": "Winner\tRegion_len\tScore\nD\t3\t0.9\n",
	})
	opts := testOptions(t)
	opts.SourceColumn = "Source"
	run(t, dir, opts, zap.NewNop())

	table, err := tsv.ReadFile(opts.NonPassingPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"Source", "Contig", "Winner", "Region_len", "Score"}, table.Header)
	assert.Equal(t, [][]string{
		{"g1.tsv", "c1", "C", "1", ""},
		{"g2.tsv", "", "D", "3", "0.9"},
	}, table.Rows)
}

func TestRunParallelMatchesSequential(t *testing.T) {
	files := make(map[string]string)
	for i := 0; i < 25; i++ {
		var b strings.Builder
		b.WriteString(header)
		for j := 0; j < 10; j++ {
			fmt.Fprintf(&b, "s%02d-%d\t%c\t%d\n", i, j, "ABC"[(i+j)%3], (i*j)%7)
		}
		files[fmt.Sprintf("genome%02d.tsv", i)] = b.String()
	}
	dir := writeSources(t, files)

	var combined []string
	for _, threads := range []int{1, 4, 64} {
		opts := testOptions(t)
		opts.Threads = threads
		report := run(t, dir, opts, zap.NewNop())
		require.Len(t, report.Outcomes, 25)
		for i, outcome := range report.Outcomes {
			assert.Equal(t, fmt.Sprintf("genome%02d.tsv", i), outcome.Source)
		}
		data, err := os.ReadFile(opts.NonPassingPath)
		require.NoError(t, err)
		combined = append(combined, string(data))
	}
	assert.Equal(t, combined[0], combined[1])
	assert.Equal(t, combined[0], combined[2])
}

func TestRunCompressedSource(t *testing.T) {
	dir := t.TempDir()
	source := &tsv.Table{
		Header: []string{"Winner", "Region_len"},
		Rows:   [][]string{{"A", "40"}, {"C", "1"}},
	}
	require.NoError(t, tsv.WriteFile(filepath.Join(dir, "g1.tsv.gz"), source))
	opts := testOptions(t)
	run(t, dir, opts, zap.NewNop())

	data, err := os.ReadFile(filepath.Join(opts.OutputDir, "g1.tsv.gz"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1f, 0x8b}, data[:2])
	assert.Equal(t, [][]string{{"A", "40"}}, readRows(t, filepath.Join(opts.OutputDir, "g1.tsv.gz")))
}

func TestRunMetrics(t *testing.T) {
	dir := writeSources(t, map[string]string{
		"a.tsv": header + "c1\tA\t40\nc2\tC\t1\n",
		"b.tsv": "\xff",
	})
	opts := testOptions(t)
	opts.Metrics = NewMetrics(opts.RunID)
	run(t, dir, opts, zap.NewNop())

	filename := filepath.Join(t.TempDir(), "frcurate.prom")
	require.NoError(t, opts.Metrics.WriteToTextfile(filename))
	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `frcurate_sources_total{run="test-run",status="failed"} 1`)
	assert.Contains(t, text, `frcurate_sources_total{run="test-run",status="written"} 1`)
	assert.Contains(t, text, `frcurate_rows_total{partition="passing",run="test-run"} 1`)
	assert.Contains(t, text, `frcurate_rows_total{partition="non-passing",run="test-run"} 1`)
	assert.Contains(t, text, "frcurate_source_duration_seconds_count")
}

func TestRunOutputDirectoryError(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0600))
	opts := testOptions(t)
	opts.OutputDir = filepath.Join(blocker, "out")
	_, err := Run(nil, testStats(), curation.NewThresholdConfig(0.3, nil, nil), opts, zap.NewNop())
	assert.Error(t, err)
}

func TestSources(t *testing.T) {
	dir := writeSources(t, map[string]string{"b.tsv": header, "a.tsv": header, "c.tsv": header})
	sources, err := Sources(dir)
	require.NoError(t, err)
	assert.Equal(t, []Source{
		{Name: "a.tsv", Path: filepath.Join(dir, "a.tsv")},
		{Name: "b.tsv", Path: filepath.Join(dir, "b.tsv")},
		{Name: "c.tsv", Path: filepath.Join(dir, "c.tsv")},
	}, sources)

	sources, err = Sources(filepath.Join(dir, "b.tsv"))
	require.NoError(t, err)
	assert.Equal(t, []Source{{Name: "b.tsv", Path: filepath.Join(dir, "b.tsv")}}, sources)

	_, err = Sources(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestRunContainsWriteFailure(t *testing.T) {
	dir := writeSources(t, map[string]string{
		"g1.tsv": header + "c1\tA\t40\n",
		"g2.tsv": header + "c2\tA\t40\nc3\tC\t1\n",
	})
	opts := testOptions(t)
	blocker := filepath.Join(opts.OutputDir, "g1.tsv")
	require.NoError(t, os.MkdirAll(blocker, 0700))
	report := run(t, dir, opts, zap.NewNop())

	written, empty, failed := report.Counts()
	assert.Equal(t, []int{1, 0, 1}, []int{written, empty, failed})
	assert.DirExists(t, blocker)
	assert.Equal(t, [][]string{{"c2", "A", "40"}}, readRows(t, filepath.Join(opts.OutputDir, "g2.tsv")))
	assert.Equal(t, [][]string{{"c3", "C", "1"}}, readRows(t, opts.NonPassingPath))
}
