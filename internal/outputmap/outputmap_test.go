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

package outputmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleYAML = `
a.src:
  deps: build/a.deps
  object: build/a.o
b.src:
  deps: build/b.deps
`

func TestParseReadsDepsEntry(t *testing.T) {
	t.Parallel()
	m, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	path, ok := m.DepsPath("a.src")
	require.True(t, ok)
	require.Equal(t, "build/a.deps", path)

	path, ok = m.DepsPath("b.src")
	require.True(t, ok)
	require.Equal(t, "build/b.deps", path)

	require.ElementsMatch(t, []string{"a.src", "b.src"}, m.Inputs())
}

func TestDepsPathMissingInput(t *testing.T) {
	t.Parallel()
	m, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	_, ok := m.DepsPath("missing.src")
	require.False(t, ok)
}

func TestLoadFromFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "output-map.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	got, ok := m.DepsPath("a.src")
	require.True(t, ok)
	require.Equal(t, "build/a.deps", got)
}
