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

// Package compilerproc declares how the scheduler launches one compile
// job and observes its result. The actual per-language compiler invoked is
// out of scope (spec.md §1's Non-goals exclude "the actual language
// frontend/codegen"); Runner is the seam a real driver plugs a concrete
// compiler binary into, and Exec is a thin os/exec-backed default callers
// can use directly when the compiler really is an external subprocess.
package compilerproc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
)

// maxCapturedStderr bounds how much of a job's stderr Exec buffers in
// memory for the returned Result; the rest is discarded rather than read.
const maxCapturedStderr = 64 * 1024

// Result is the outcome of one compile job.
type Result struct {
	// ExitCode is the subprocess's exit status; 0 means success.
	ExitCode int
	// Stderr is the subprocess's captured standard error, for diagnostics.
	Stderr string
}

// Succeeded reports whether the job completed without error.
func (r Result) Succeeded() bool {
	return r.ExitCode == 0
}

// Runner launches one compile job for input and returns its result. The
// emitted per-file dependency artifact is written by the job itself, at
// the path the output-file map designates; Runner does not read it back.
type Runner interface {
	Run(ctx context.Context, input string, args []string) (Result, error)
}

// Exec runs jobs as real subprocesses via os/exec, the default Runner for
// a non-test driver invocation.
type Exec struct {
	// Path is the compiler binary to invoke.
	Path string
}

var _ Runner = Exec{}

// Run implements Runner.
func (e Exec) Run(ctx context.Context, input string, args []string) (Result, error) {
	cmdArgs := append(append([]string{}, args...), input)
	cmd := exec.CommandContext(ctx, e.Path, cmdArgs...)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Result{}, fmt.Errorf("compilerproc: opening stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("compilerproc: starting %s: %w", e.Path, err)
	}
	captured, readErr := io.ReadAll(io.LimitReader(stderr, maxCapturedStderr))
	waitErr := cmd.Wait()
	if readErr != nil {
		return Result{}, fmt.Errorf("compilerproc: reading stderr: %w", readErr)
	}

	exitCode := 0
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return Result{}, fmt.Errorf("compilerproc: running %s: %w", e.Path, waitErr)
		}
		exitCode = exitErr.ExitCode()
	}
	return Result{ExitCode: exitCode, Stderr: string(captured)}, nil
}
