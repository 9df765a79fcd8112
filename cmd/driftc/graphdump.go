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
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/driftlang/driftc/internal/depgraph/dot"
	"github.com/driftlang/driftc/internal/depgraph/serial"
	"github.com/driftlang/driftc/internal/pkg/app/appcmd"
	"github.com/driftlang/driftc/internal/pkg/app/applog"
)

func newGraphDumpCommand() *appcmd.Command {
	builder := newBuilder()
	flags := newGraphDumpFlags()
	return &appcmd.Command{
		Use:   "graph-dump [output.dot]",
		Short: "Render the persisted module dependency graph as Graphviz source",
		Long: `graph-dump reads the persisted module dependency graph and writes it as
Graphviz ".dot" source, either to the given path or to stdout.`,
		Args: cobra.MaximumNArgs(1),
		Run: builder.NewRunFunc(
			func(ctx context.Context, container applog.Container) error {
				return runGraphDump(ctx, container, flags)
			},
		),
		BindFlags:           flags.Bind,
		BindPersistentFlags: builder.BindRoot,
	}
}

type graphDumpFlags struct {
	graph string
}

func newGraphDumpFlags() *graphDumpFlags {
	return &graphDumpFlags{}
}

func (f *graphDumpFlags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.graph, graphFlagName, ".driftc-graph", "The path to the persisted module dependency graph.")
}

func runGraphDump(_ context.Context, container applog.Container, flags *graphDumpFlags) error {
	result, err := serial.ReadFile(flags.graph)
	if err != nil {
		return fmt.Errorf("reading %s: %w", flags.graph, err)
	}

	out := container.Stdout()
	if container.NumArgs() > 0 {
		path := container.Arg(0)
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		defer file.Close()
		out = file
	}

	return dot.Write(out, result.Finder)
}
