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
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strconv"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sys/unix"

	"github.com/exascience/frcurate/utils"
)

// ProgramMessage is the first line printed when the frcurate binary is
// called.
var ProgramMessage string

func init() {
	ProgramMessage = fmt.Sprint(
		"\n", utils.ProgramName, " version ", utils.ProgramVersion,
		" compiled with ", runtime.Version(),
		" - see ", utils.ProgramURL, " for more information.\n",
	)
}

func logCheckFile(log *zap.SugaredLogger, parameter, format string, v ...interface{}) {
	if parameter != "" {
		log.Errorf(format+" for command line parameter %v.", append(v, parameter)...)
	} else {
		log.Errorf(format+".", v...)
	}
}

func checkExist(log *zap.SugaredLogger, parameter, filename string) bool {
	if len(filename) == 0 {
		logCheckFile(log, parameter, "Error: Missing filename")
		return false
	}
	if filename[0] == '-' {
		logCheckFile(log, parameter, "Error: Missing filename before %v", filename)
		return false
	}
	if _, err := os.Stat(filename); err == nil {
		return true
	} else if os.IsNotExist(err) {
		logCheckFile(log, parameter, "Error: File %v does not exist", filename)
		return false
	} else if os.IsPermission(err) {
		logCheckFile(log, parameter, "Error: No permission to read file %v", filename)
		return false
	} else {
		logCheckFile(log, parameter, "Error %v when trying to access file %v", err, filename)
		return false
	}
}

func checkCreate(log *zap.SugaredLogger, parameter, filename string) bool {
	if len(filename) == 0 {
		logCheckFile(log, parameter, "Error: Missing filename")
		return false
	}
	if filename[0] == '-' {
		logCheckFile(log, parameter, "Error: Missing filename before %v", filename)
		return false
	}
	if _, err := os.Stat(filename); err == nil {
		// Assume that the file has been written by previous frcurate runs, and can be overwritten.
		return true
	}
	err := os.MkdirAll(filepath.Dir(filename), 0700)
	if err == nil {
		err = os.WriteFile(filename, nil, 0666)
	}
	if err != nil {
		if os.IsPermission(err) {
			logCheckFile(log, parameter, "Error: No permission to create file %v", filename)
		} else {
			logCheckFile(log, parameter, "Error %v when trying to create file %v", err, filename)
		}
		return false
	}
	_ = os.Remove(filename)
	return true
}

func createLogFilename() string {
	t := time.Now()
	zone, _ := t.Zone()
	return fmt.Sprintf("logs/%v/%v-%d-%02d-%02d-%02d-%02d-%02d-%09d-%v.log", utils.ProgramName, utils.ProgramName,
		t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), zone)
}

func loggerConfig(verbose bool) zap.Config {
	config := zap.NewProductionConfig()
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.Sampling = nil
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return config
}

/*
setLogOutput creates the logger for a command.

Without a log path, the logger writes to stderr. Otherwise, a
timestamped log file is created below path, and the logger writes both
to that file and to the original stderr. Anything else written to
stderr afterwards, including panics, ends up in the log file.
*/
func setLogOutput(path string, verbose bool) (*zap.Logger, error) {
	config := loggerConfig(verbose)
	if path == "" {
		return config.Build()
	}
	fullPath := filepath.Join(path, createLogFilename())
	if err := os.MkdirAll(filepath.Dir(fullPath), 0700); err != nil {
		return nil, err
	}
	f, err := os.Create(fullPath)
	if err != nil {
		return nil, err
	}
	fmt.Fprintln(f, ProgramMessage)

	orgStderr, err := unix.Dup(2)
	if err != nil {
		return nil, err
	}
	ferr := os.NewFile(uintptr(orgStderr), "/dev/stderr")
	if err := unix.Dup2(int(f.Fd()), 2); err != nil {
		return nil, err
	}

	encoder := zapcore.NewConsoleEncoder(config.EncoderConfig)
	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.Lock(f), config.Level),
		zapcore.NewCore(encoder, zapcore.Lock(ferr), config.Level),
	)
	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	logger.Info("Created log file.", zap.String("path", fullPath))
	return logger, nil
}

func timedRun(log *zap.Logger, timed bool, profile, msg string, phase int64, f func() error) error {
	if profile != "" {
		filename := profile + strconv.FormatInt(phase, 10) + ".prof"
		file, err := os.Create(filename)
		if err != nil {
			return err
		}
		defer func() {
			_ = file.Close()
		}()
		if err := pprof.StartCPUProfile(file); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}
	if timed {
		log.Info(msg)
		start := time.Now()
		defer func() {
			log.Info("Elapsed time.", zap.Duration("elapsed", time.Since(start)))
		}()
	}
	return f()
}
