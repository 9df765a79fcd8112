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

// driftc is the incremental-recompilation driver: it reads an output-file
// map and a build record, asks the module dependency graph which inputs
// need recompiling, and dispatches compile jobs for them.
package main

import (
	"context"
	"time"

	"github.com/driftlang/driftc/internal/pkg/app/appcmd"
	"github.com/driftlang/driftc/internal/pkg/app/appflag"
)

const (
	name    = "driftc"
	version = "0.1.0"
)

func main() {
	appcmd.Main(context.Background(), NewRootCommand(name), version)
}

// NewRootCommand returns the driftc root command under the given use name.
// Taking the name as a parameter (rather than hardcoding "driftc") is what
// lets appcmdtesting drive this command under its own synthetic "test" name
// in tests, the same split the teacher's buf.go/NewRootCommand uses.
func NewRootCommand(use string) *appcmd.Command {
	return &appcmd.Command{
		Use:   use,
		Short: "An incremental-recompilation dependency engine for a compiler driver",
		SubCommands: []*appcmd.Command{
			newCompileCommand(),
			newGraphDumpCommand(),
		},
	}
}

func newBuilder() appflag.Builder {
	return appflag.NewBuilder(appflag.BuilderWithTimeout(10 * time.Minute))
}
