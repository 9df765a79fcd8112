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

// Package scheduler turns the module dependency graph's answers into
// first-wave and second-wave input sets and drives the parallel compile
// dispatch loop, per spec.md §4.J and §5.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/driftlang/driftc/internal/buildrecord"
	"github.com/driftlang/driftc/internal/compilerproc"
	"github.com/driftlang/driftc/internal/depgraph"
	"github.com/driftlang/driftc/internal/depgraph/filedeps"
	"github.com/driftlang/driftc/internal/diag"
	"github.com/driftlang/driftc/internal/driverfs"
	"github.com/driftlang/driftc/internal/outputmap"
)

// ArtifactDecoder decodes a per-file dependency artifact's raw bytes into
// the engine's in-memory representation. The on-disk encoding is not the
// engine's concern (spec.md §6); callers supply the decoder matching
// whatever their compiler emits (e.g. filedeps/jsoncdecode.Decode).
type ArtifactDecoder func(data []byte) (*filedeps.Graph, error)

// ErrMissingArtifact names the condition where an input's per-file
// dependency artifact cannot be read or decoded after its compile job
// reports success. jobFinished does not return it: it reports the
// condition through Config.Sink.Warn and leaves the module graph
// unmodified for that input, so it never fails the build. The input is
// not compiled again in the same run.
var ErrMissingArtifact = errors.New("scheduler: missing or malformed per-file dependency artifact")

// Config configures a Scheduler.
type Config struct {
	Graph   *depgraph.Graph
	Record  *buildrecord.Record
	Outputs *outputmap.Map
	FS      driverfs.FS
	Runner  compilerproc.Runner
	Decoder ArtifactDecoder
	Sink    diag.Sink

	// Parallelism bounds concurrent compile jobs. Must be at least 1.
	Parallelism int64
	// CompilerArgs is passed through to Runner.Run for every job.
	CompilerArgs []string
}

// Scheduler drives one build's first wave and second wave.
//
// The module dependency graph is single-writer (spec.md §5): every call
// into cfg.Graph from this package happens from the single goroutine
// running the completion-handling loop in RunFirstWave, never from the
// per-job goroutines that only invoke cfg.Runner.
type Scheduler struct {
	cfg Config

	mu      sync.Mutex
	skipped map[string]struct{}

	// handlingCompletion is the spec's amHandlingJobCompletion assertion:
	// a diagnostic guard, not a lock. Synchronization that keeps job
	// completions from actually overlapping is the completions channel
	// being drained by a single loop goroutine in RunFirstWave; this flag
	// exists purely to catch a future refactor that breaks that invariant.
	handlingCompletion atomic.Bool

	secondWaveReady *countingSignal
}

// New returns a Scheduler ready to plan and run a build.
func New(cfg Config) *Scheduler {
	if cfg.Parallelism < 1 {
		cfg.Parallelism = 1
	}
	return &Scheduler{
		cfg:             cfg,
		skipped:         make(map[string]struct{}),
		secondWaveReady: newCountingSignal(),
	}
}

// PlanFirstWave computes firstWaveInputs, sorted by path for determinism,
// per spec.md §4.J step 1-4. It also populates the graph's source↔input
// map from the output-file map, and records the complement as skipped.
func (s *Scheduler) PlanFirstWave() ([]string, error) {
	statusByInput := make(map[string]buildrecord.Status)
	var scheduled []string

	for _, input := range s.cfg.Outputs.Inputs() {
		depsPath, ok := s.cfg.Outputs.DepsPath(input)
		if !ok {
			return nil, fmt.Errorf("scheduler: no deps artifact declared for input %q", input)
		}
		if err := s.cfg.Graph.SourceMap().Add(input, depsPath); err != nil {
			return nil, fmt.Errorf("scheduler: %w", err)
		}

		modTime, err := s.cfg.FS.ModTime(input)
		if err != nil {
			return nil, fmt.Errorf("scheduler: stat %s: %w", input, err)
		}
		status := s.cfg.Record.Classify(input, modTime)
		statusByInput[input] = status
		if status != buildrecord.StatusUpToDate {
			scheduled = append(scheduled, input)
		}
	}

	for _, path := range s.cfg.Graph.KnownExternalDeps() {
		modTime, err := s.cfg.FS.ModTime(path)
		if err != nil {
			// An external dependency that has vanished since the last build
			// is not this build's concern; its own users will be driven by
			// whatever their own per-file artifacts now say.
			continue
		}
		if !modTime.Before(s.cfg.Record.BuildTime) {
			scheduled = append(scheduled, s.cfg.Graph.FindExternallyDependentUntracedJobs(path)...)
		}
	}
	scheduled = dedupSorted(scheduled)

	var expanded []string
	for _, input := range scheduled {
		if statusByInput[input] != buildrecord.StatusNeedsCascadingBuild {
			continue
		}
		more, err := s.cfg.Graph.FindJobsToRecompileWhenWholeJobChanges(input)
		if err != nil {
			return nil, fmt.Errorf("scheduler: speculative expansion for %s: %w", input, err)
		}
		expanded = append(expanded, more...)
	}
	firstWave := dedupSorted(append(scheduled, expanded...))

	firstWaveSet := make(map[string]struct{}, len(firstWave))
	for _, input := range firstWave {
		firstWaveSet[input] = struct{}{}
	}
	s.mu.Lock()
	s.skipped = make(map[string]struct{})
	for _, input := range s.cfg.Outputs.Inputs() {
		if _, isFirstWave := firstWaveSet[input]; !isFirstWave {
			s.skipped[input] = struct{}{}
		}
	}
	s.mu.Unlock()

	return firstWave, nil
}

// Skipped returns the inputs the current plan left out of the first wave
// and that have not since been promoted into it by a second-wave
// invalidation.
func (s *Scheduler) Skipped() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.skipped))
	for input := range s.skipped {
		out = append(out, input)
	}
	sort.Strings(out)
	return out
}

type jobCompletion struct {
	input  string
	result compilerproc.Result
	runErr error
}

// RunFirstWave compiles every input in firstWave concurrently, bounded by
// cfg.Parallelism, integrating each job's freshly emitted per-file graph
// as it completes (the second wave) and promoting any now-invalidated
// skipped input back into the dispatch loop. It returns once no compile
// job — first-wave or second-wave — remains outstanding.
//
// All graph integration and tracing happens on the single goroutine
// running this method's completion loop; per-job goroutines only ever
// call cfg.Runner.Run and send their result back over a channel.
func (s *Scheduler) RunFirstWave(ctx context.Context, firstWave []string) error {
	sem := semaphore.NewWeighted(s.cfg.Parallelism)
	completions := make(chan jobCompletion, len(firstWave)+1)
	group, gctx := errgroup.WithContext(ctx)

	dispatch := func(input string) {
		group.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				completions <- jobCompletion{input: input, runErr: err}
				return nil
			}
			defer sem.Release(1)
			result, err := s.cfg.Runner.Run(gctx, input, s.cfg.CompilerArgs)
			completions <- jobCompletion{input: input, result: result, runErr: err}
			return nil
		})
	}

	pending := len(firstWave)
	for _, input := range firstWave {
		dispatch(input)
	}

	var errs error
	for pending > 0 {
		select {
		case completion := <-completions:
			pending--
			more, err := s.jobFinished(completion.input, completion.result, completion.runErr)
			if err != nil {
				errs = multierr.Append(errs, err)
			}
			for _, next := range more {
				pending++
				dispatch(next)
			}
		case <-ctx.Done():
			return multierr.Append(errs, ctx.Err())
		}
	}

	if err := group.Wait(); err != nil {
		errs = multierr.Append(errs, err)
	}
	s.secondWaveReady.signal()
	return errs
}

// WaitForSecondWave blocks until RunFirstWave has drained its dispatch
// loop (every first-wave and promoted second-wave job has completed), or
// ctx is cancelled. A
// driver that wants to overlap first-wave dispatch with other work calls
// RunFirstWave in its own goroutine and this method in the caller.
func (s *Scheduler) WaitForSecondWave(ctx context.Context) error {
	return s.secondWaveReady.wait(ctx)
}

// jobFinished handles one compile job's completion: reads and integrates
// its freshly emitted per-file graph, and returns the skipped inputs that
// are now invalidated and must be scheduled. Per spec.md §5, this is
// guarded by an assertion that it is never re-entered concurrently for
// the same Scheduler, not by a lock.
func (s *Scheduler) jobFinished(input string, result compilerproc.Result, runErr error) ([]string, error) {
	if !s.handlingCompletion.CompareAndSwap(false, true) {
		panic("scheduler: jobFinished called concurrently on the same Scheduler")
	}
	defer s.handlingCompletion.Store(false)

	if runErr != nil {
		s.cfg.Sink.Error("compile job failed to launch", diag.String("input", input), diag.Err(runErr))
		return nil, fmt.Errorf("scheduler: running %s: %w", input, runErr)
	}
	if !result.Succeeded() {
		s.cfg.Sink.Warn("compile job exited non-zero; leaving module graph unmodified for this input",
			diag.String("input", input))
		return nil, nil
	}

	depsPath, ok := s.cfg.Outputs.DepsPath(input)
	if !ok {
		return nil, fmt.Errorf("scheduler: no deps artifact declared for input %q", input)
	}
	data, err := s.cfg.FS.ReadFile(depsPath)
	if err != nil {
		s.cfg.Sink.Warn("missing per-file dependency artifact; falling back for this input",
			diag.String("input", input), diag.Err(err))
		return nil, nil
	}
	fg, err := s.cfg.Decoder(data)
	if err != nil {
		s.cfg.Sink.Warn("malformed per-file dependency artifact; falling back for this input",
			diag.String("input", input), diag.Err(err))
		return nil, nil
	}

	integrateResult, err := s.cfg.Graph.Integrate(depsPath, fg)
	if err != nil {
		s.cfg.Sink.Error("integrating per-file dependency graph failed", diag.String("input", input), diag.Err(err))
		return nil, fmt.Errorf("scheduler: integrating %s: %w", input, err)
	}

	s.cfg.Record.Inputs[input] = buildrecord.InputRecord{
		Status:  cascadeStatus(fg),
		ModTime: time.Now(),
	}

	invalidatedInputs := s.cfg.Graph.FindJobsToRecompileWhenNodesChange(integrateResult.Invalidated)

	s.mu.Lock()
	var promoted []string
	for _, candidate := range invalidatedInputs {
		if _, ok := s.skipped[candidate]; ok {
			delete(s.skipped, candidate)
			promoted = append(promoted, candidate)
		}
	}
	s.mu.Unlock()
	sort.Strings(promoted)

	return promoted, nil
}

// cascadeStatus classifies a just-compiled input's status for the next
// build's first-wave comparison: an input whose interface fingerprint
// exists is a candidate for speculative expansion next time, matching
// spec.md §4.J's needsCascadingBuild/needsNonCascadingBuild distinction.
func cascadeStatus(fg *filedeps.Graph) buildrecord.Status {
	if _, ok := fg.InterfaceHash(); ok {
		return buildrecord.StatusNeedsCascadingBuild
	}
	return buildrecord.StatusNeedsNonCascadingBuild
}

func dedupSorted(inputs []string) []string {
	seen := make(map[string]struct{}, len(inputs))
	out := make([]string, 0, len(inputs))
	for _, input := range inputs {
		if _, ok := seen[input]; ok {
			continue
		}
		seen[input] = struct{}{}
		out = append(out, input)
	}
	sort.Strings(out)
	return out
}

// countingSignal is the counting semaphore of spec.md §5: initially
// unsignaled, signal() is idempotent so "may be signaled more than once;
// subsequent signals are harmless" holds, and wait() blocks until the
// first signal.
//
// golang.org/x/sync/semaphore.Weighted models a resource pool (Acquire
// blocks until capacity is available, Release returns capacity), not a
// classic POSIX counting semaphore that tolerates an unbounded number of
// posts — calling Release on one that was never Acquired panics. The
// atomic.Bool guard makes repeat signal() calls a no-op instead of a
// double-release, which is what recovers the POSIX semaphore's
// tolerate-extra-signals behavior on top of Weighted's pool semantics.
type countingSignal struct {
	sem      *semaphore.Weighted
	signaled atomic.Bool
}

func newCountingSignal() *countingSignal {
	sem := semaphore.NewWeighted(1)
	_ = sem.Acquire(context.Background(), 1) // starts unsignaled: no capacity available
	return &countingSignal{sem: sem}
}

func (c *countingSignal) signal() {
	if c.signaled.CompareAndSwap(false, true) {
		c.sem.Release(1)
	}
}

func (c *countingSignal) wait(ctx context.Context) error {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	c.sem.Release(1) // leave it signaled, so a later waiter never blocks either
	return nil
}
