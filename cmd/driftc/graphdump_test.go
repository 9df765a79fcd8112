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
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/driftlang/driftc/internal/depgraph"
	"github.com/driftlang/driftc/internal/depgraph/depkey"
	"github.com/driftlang/driftc/internal/depgraph/filedeps"
	"github.com/driftlang/driftc/internal/depgraph/serial"
	"github.com/driftlang/driftc/internal/pkg/app/appcmd"
	"github.com/driftlang/driftc/internal/pkg/app/appcmd/appcmdtesting"
)

func TestGraphDumpWritesDotSourceToStdout(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	graphPath := filepath.Join(dir, "graph")

	g := depgraph.New()
	key, err := depkey.TopLevel("widget")
	require.NoError(t, err)
	fp := "v1"
	_, err = g.Integrate("widget.deps", &filedeps.Graph{Nodes: []filedeps.FileNode{
		{Seq: 0, Key: key, Fingerprint: &fp, IsProvides: true},
	}})
	require.NoError(t, err)
	require.NoError(t, serial.WriteFile(graphPath, g, "test"))

	stdout := bytes.NewBuffer(nil)
	appcmdtesting.RunCommandSuccess(
		t,
		func(use string) *appcmd.Command { return NewRootCommand(use) },
		nil, nil, stdout,
		"graph-dump", "--graph", graphPath,
	)
	require.Contains(t, stdout.String(), "digraph depgraph")
	require.Contains(t, stdout.String(), "widget")
}

func TestGraphDumpWritesToFileWhenPathGiven(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	graphPath := filepath.Join(dir, "graph")
	outPath := filepath.Join(dir, "out.dot")

	g := depgraph.New()
	require.NoError(t, serial.WriteFile(graphPath, g, "test"))

	appcmdtesting.RunCommandExitCode(
		t,
		func(use string) *appcmd.Command { return NewRootCommand(use) },
		0,
		nil, nil, bytes.NewBuffer(nil),
		"graph-dump", "--graph", graphPath, outPath,
	)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "digraph depgraph")
}
