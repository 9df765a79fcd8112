// Copyright 2020 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/driftlang/driftc/internal/buildrecord"
	"github.com/driftlang/driftc/internal/compilerproc"
	"github.com/driftlang/driftc/internal/depgraph"
	"github.com/driftlang/driftc/internal/depgraph/filedeps/jsoncdecode"
	"github.com/driftlang/driftc/internal/depgraph/serial"
	"github.com/driftlang/driftc/internal/depgraph/sourcemap"
	"github.com/driftlang/driftc/internal/diag"
	"github.com/driftlang/driftc/internal/driverfs"
	"github.com/driftlang/driftc/internal/outputmap"
	"github.com/driftlang/driftc/internal/pkg/app"
	"github.com/driftlang/driftc/internal/pkg/app/appcmd"
	"github.com/driftlang/driftc/internal/pkg/app/applog"
	"github.com/driftlang/driftc/internal/scheduler"
)

const (
	outputMapFlagName   = "output-map"
	buildRecordFlagName = "build-record"
	graphFlagName       = "graph"
	compilerFlagName    = "compiler"
	parallelismFlagName = "parallelism"
	cpuProfileFlagName  = "cpuprofile"
)

func newCompileCommand() *appcmd.Command {
	builder := newBuilder()
	flags := newCompileFlags()
	return &appcmd.Command{
		Use:   "compile",
		Short: "Recompile only the inputs the dependency graph says have changed",
		Long: `compile reads the output-file map and the previous build's record, asks the
module dependency graph which inputs need recompiling, and dispatches a
compile job for each. Extra positional arguments are passed through to the
compiler unchanged.`,
		Args: cobra.ArbitraryArgs,
		Run: builder.NewRunFunc(
			func(ctx context.Context, container applog.Container) error {
				return runCompile(ctx, container, flags)
			},
		),
		BindFlags:           flags.Bind,
		BindPersistentFlags: builder.BindRoot,
	}
}

type compileFlags struct {
	outputMap   string
	buildRecord string
	graph       string
	compiler    string
	parallelism int
	cpuProfile  string
}

func newCompileFlags() *compileFlags {
	return &compileFlags{}
}

func (f *compileFlags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.outputMap, outputMapFlagName, "", "The path to the output-file map (required).")
	flagSet.StringVar(&f.buildRecord, buildRecordFlagName, "build-record.yaml", "The path to the build record.")
	flagSet.StringVar(&f.graph, graphFlagName, ".driftc-graph", "The path to the persisted module dependency graph.")
	flagSet.StringVar(&f.compiler, compilerFlagName, "", "The compiler binary to invoke for each input (required).")
	flagSet.IntVar(&f.parallelism, parallelismFlagName, runtime.NumCPU(), "The maximum number of concurrent compile jobs.")
	flagSet.StringVar(&f.cpuProfile, cpuProfileFlagName, "", "If set, write a CPU profile to this directory.")
}

func runCompile(ctx context.Context, container applog.Container, flags *compileFlags) error {
	if flags.outputMap == "" {
		return app.NewError(1, fmt.Sprintf("--%s is required", outputMapFlagName))
	}
	if flags.compiler == "" {
		return app.NewError(1, fmt.Sprintf("--%s is required", compilerFlagName))
	}

	if flags.cpuProfile != "" {
		stop := profile.Start(
			profile.Quiet,
			profile.ProfilePath(flags.cpuProfile),
			profile.CPUProfile,
		)
		defer stop.Stop()
	}

	logger := container.Logger()
	sink := diag.NewZapSink(logger)
	fs := driverfs.OS{}

	outputs, err := outputmap.Load(flags.outputMap)
	if err != nil {
		return err
	}

	record, err := buildrecord.Load(flags.buildRecord)
	if err != nil {
		return err
	}

	graph, err := loadGraph(flags.graph, fs)
	if err != nil || record.GraphInvalid {
		// An unreadable graph, or one the previous build flagged invalid, is
		// discarded: the build starts from a fresh graph and a fresh record,
		// so every input is compiled.
		if err != nil {
			logger.Warn("discarding unreadable module dependency graph", diag.Err(err))
		}
		graph = depgraph.New()
		record = buildrecord.New()
	}

	compilerArgs := app.Args(container)

	sched := scheduler.New(scheduler.Config{
		Graph:        graph,
		Record:       record,
		Outputs:      outputs,
		FS:           fs,
		Runner:       compilerproc.Exec{Path: flags.compiler},
		Decoder:      jsoncdecode.Decode,
		Sink:         sink,
		Parallelism:  int64(flags.parallelism),
		CompilerArgs: compilerArgs,
	})

	firstWave, planErr := sched.PlanFirstWave()
	var runErr error
	if planErr == nil {
		runErr = sched.RunFirstWave(ctx, firstWave)
	}

	buildErr := planErr
	if buildErr == nil {
		buildErr = runErr
	}

	record.BuildTime = time.Now()
	graphErr := buildErr
	if graphErr == nil {
		if graphErr = serial.WriteFile(flags.graph, graph, version); graphErr != nil {
			logger.Warn("failed to persist module dependency graph", diag.Err(graphErr))
		}
	}
	record.GraphInvalid = graphErr != nil
	if saveErr := buildrecord.Save(flags.buildRecord, record); saveErr != nil {
		logger.Warn("failed to save build record", diag.Err(saveErr))
	}

	logger.Info("compile finished",
		diag.Int("scheduled", len(firstWave)),
		diag.Int("skipped", len(sched.Skipped())),
	)

	return buildErr
}

// loadGraph reconstructs the module dependency graph from a previous
// build's persisted file, or returns a fresh empty Graph when none exists
// yet (a from-scratch build).
func loadGraph(path string, fs driverfs.OS) (*depgraph.Graph, error) {
	if !fs.Exists(path) {
		return depgraph.New(), nil
	}
	result, err := serial.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading persisted module dependency graph: %w", err)
	}
	return depgraph.FromParts(result.Finder, sourcemap.New(), result.KnownExternalDeps), nil
}
