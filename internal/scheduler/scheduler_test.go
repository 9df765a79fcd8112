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

package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/driftlang/driftc/internal/buildrecord"
	"github.com/driftlang/driftc/internal/compilerproc"
	"github.com/driftlang/driftc/internal/depgraph"
	"github.com/driftlang/driftc/internal/depgraph/depkey"
	"github.com/driftlang/driftc/internal/depgraph/filedeps"
	"github.com/driftlang/driftc/internal/depgraph/filedeps/jsoncdecode"
	"github.com/driftlang/driftc/internal/diag"
	"github.com/driftlang/driftc/internal/driverfs"
	"github.com/driftlang/driftc/internal/outputmap"
)

const outputMapYAML = `
a.src:
  deps: a.deps
b.src:
  deps: b.deps
`

// fakeRunner records every Run call and serves a scripted artifact for
// each input by writing it into the in-memory filesystem, the way a real
// compiler subprocess writes its emitted per-file dependency artifact as
// a side effect of a successful run.
type fakeRunner struct {
	mu       sync.Mutex
	fs       *driverfs.Memory
	deps     map[string]string // input -> deps path
	artifact map[string][]byte // input -> artifact bytes to emit on run
	calls    []string
}

func (f *fakeRunner) Run(_ context.Context, input string, _ []string) (compilerproc.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, input)
	f.mu.Unlock()

	f.fs.Put(f.deps[input], f.artifact[input], time.Now())
	return compilerproc.Result{ExitCode: 0}, nil
}

func buildArtifact(t *testing.T, jsonc string) []byte {
	t.Helper()
	_, err := jsoncdecode.Decode([]byte(jsonc))
	require.NoError(t, err)
	return []byte(jsonc)
}

func newTestScheduler(t *testing.T) (*Scheduler, *fakeRunner, *driverfs.Memory) {
	t.Helper()
	outputs, err := outputmap.Parse([]byte(outputMapYAML))
	require.NoError(t, err)

	fs := driverfs.NewMemory()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	fs.Put("a.src", []byte("source a"), now)
	fs.Put("b.src", []byte("source b"), now)

	record := buildrecord.New()
	record.BuildTime = now.Add(-time.Hour)

	runner := &fakeRunner{
		fs:       fs,
		deps:     map[string]string{"a.src": "a.deps", "b.src": "b.deps"},
		artifact: map[string][]byte{},
	}

	s := New(Config{
		Graph:        depgraph.New(),
		Record:       record,
		Outputs:      outputs,
		FS:           fs,
		Runner:       runner,
		Decoder:      jsoncdecode.Decode,
		Sink:         &diag.RecordingSink{},
		Parallelism:  2,
		CompilerArgs: nil,
	})
	return s, runner, fs
}

// mustKey unwraps a (Key, error) pair whose error is always nil in these
// fixtures; spreading the call directly as mustKey's only argument list is
// required because Go forbids mixing a multi-valued call with other
// arguments.
func mustKey(k depkey.Key, err error) depkey.Key {
	if err != nil {
		panic(err)
	}
	return k
}

func strp(s string) *string { return &s }

func TestPlanFirstWaveSchedulesChangedInputs(t *testing.T) {
	t.Parallel()
	s, _, _ := newTestScheduler(t)

	firstWave, err := s.PlanFirstWave()
	require.NoError(t, err)
	require.Equal(t, []string{"a.src", "b.src"}, firstWave)
	require.Empty(t, s.Skipped())
}

func TestPlanFirstWaveSkipsUpToDateInputs(t *testing.T) {
	t.Parallel()
	s, _, _ := newTestScheduler(t)
	s.cfg.Record.Inputs["a.src"] = buildrecord.InputRecord{
		Status:  buildrecord.StatusNeedsNonCascadingBuild,
		ModTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	// a.src's mtime now predates the previous build's completion: up to date.
	s.cfg.Record.BuildTime = time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	firstWave, err := s.PlanFirstWave()
	require.NoError(t, err)
	require.Equal(t, []string{"b.src"}, firstWave)
	require.Equal(t, []string{"a.src"}, s.Skipped())
}

func TestRunFirstWavePromotesInvalidatedSkippedInput(t *testing.T) {
	t.Parallel()
	s, runner, fs := newTestScheduler(t)

	// Simulate a previous build: a.src already provides "shared" (fingerprint
	// v0) and b.src already provides "consumer", recorded as depending on
	// "shared" — the arc a fresh integration of only a.src can trace through
	// without ever re-integrating b.src.
	shared := mustKey(depkey.TopLevel("shared"))
	consumer := mustKey(depkey.TopLevel("consumer"))
	require.NoError(t, s.cfg.Graph.SourceMap().Add("a.src", "a.deps"))
	require.NoError(t, s.cfg.Graph.SourceMap().Add("b.src", "b.deps"))
	_, err := s.cfg.Graph.Integrate("a.deps", &filedeps.Graph{Nodes: []filedeps.FileNode{
		{Seq: 0, Key: shared, Fingerprint: strp("v0"), IsProvides: true},
	}})
	require.NoError(t, err)
	_, err = s.cfg.Graph.Integrate("b.deps", &filedeps.Graph{Nodes: []filedeps.FileNode{
		{Seq: 0, Key: shared, IsProvides: false},
		{Seq: 1, Key: consumer, Fingerprint: strp("c1"), IsProvides: true, DefsIDependUpon: []int{0}},
	}})
	require.NoError(t, err)

	// a.src changed since the last build; b.src did not.
	s.cfg.Record.BuildTime = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.cfg.Record.Inputs["a.src"] = buildrecord.InputRecord{Status: buildrecord.StatusNeedsNonCascadingBuild}
	s.cfg.Record.Inputs["b.src"] = buildrecord.InputRecord{Status: buildrecord.StatusNeedsNonCascadingBuild}
	fs.Put("a.src", []byte("source a v2"), s.cfg.Record.BuildTime.Add(time.Hour))
	fs.Put("b.src", []byte("source b"), s.cfg.Record.BuildTime.Add(-time.Hour))

	firstWave, err := s.PlanFirstWave()
	require.NoError(t, err)
	require.Equal(t, []string{"a.src"}, firstWave)
	require.Equal(t, []string{"b.src"}, s.Skipped())

	// a.src's new compile changes "shared"'s fingerprint, which must trace
	// through to "consumer" and promote b.src even though b.src itself was
	// never recompiled this round.
	runner.artifact["a.src"] = buildArtifact(t, `{
		"nodes": [
			{"seq": 0, "aspect": "interface", "kind": "topLevel", "name": "shared", "fingerprint": "v1", "provides": true}
		]
	}`)
	runner.artifact["b.src"] = buildArtifact(t, `{
		"nodes": [
			{"seq": 0, "aspect": "interface", "kind": "topLevel", "name": "shared", "provides": false},
			{"seq": 1, "aspect": "interface", "kind": "topLevel", "name": "consumer", "fingerprint": "c1", "provides": true, "uses": [0]}
		]
	}`)

	err = s.RunFirstWave(context.Background(), firstWave)
	require.NoError(t, err)

	require.Contains(t, runner.calls, "a.src")
	require.Contains(t, runner.calls, "b.src", "b.src should have been promoted out of skipped and compiled")
	require.Empty(t, s.Skipped())
}

func TestRunFirstWaveReportsJobLaunchFailure(t *testing.T) {
	t.Parallel()
	s, _, _ := newTestScheduler(t)
	s.cfg.Runner = failingRunner{}

	err := s.RunFirstWave(context.Background(), []string{"a.src"})
	require.Error(t, err)
}

type failingRunner struct{}

func (failingRunner) Run(context.Context, string, []string) (compilerproc.Result, error) {
	return compilerproc.Result{}, errBoom
}

var errBoom = fakeErr("boom")

type fakeErr string

func (e fakeErr) Error() string { return string(e) }
