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
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/exascience/frcurate/utils"
)

type rootOptions struct {
	logPath string
	verbose bool
	logger  *zap.Logger
}

// NewRootCommand returns the frcurate command with all its
// subcommands.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{logger: zap.NewNop()}
	root := &cobra.Command{
		Use:   utils.ProgramName,
		Short: "Curate functional-role annotation calls against reference length statistics",
		Long: utils.ProgramName + ` retains the annotation calls of a role only if the summed
length of the annotated regions is large enough compared to the median
length of that role in the reference genomes.`,
		Version:       utils.ProgramVersion,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := setLogOutput(opts.logPath, opts.verbose)
			if err != nil {
				return err
			}
			opts.logger = logger
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = opts.logger.Sync()
		},
	}
	root.PersistentFlags().StringVar(&opts.logPath, "log-path", "", "write log files to the specified directory")
	root.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "log the evaluation of every role")
	root.AddCommand(newFilterAnnotationsCommand(opts))
	return root
}

// Execute runs the frcurate command on the process arguments.
func Execute() error {
	return NewRootCommand().Execute()
}
