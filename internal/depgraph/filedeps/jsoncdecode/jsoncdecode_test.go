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

package jsoncdecode

import (
	"testing"

	"github.com/driftlang/driftc/internal/depgraph/depkey"
	"github.com/stretchr/testify/require"
)

const fixture = `{
  // j0 provides two top-level names and depends on an external file.
  "nodes": [
    {"seq": 0, "kind": "sourceFileProvide", "name": "j0.ext", "provides": true, "fingerprint": "iface0"},
    {"seq": 1, "kind": "sourceFileProvide", "name": "j0.ext", "aspect": "implementation", "provides": true, "fingerprint": "impl0"},
    {"seq": 2, "kind": "topLevel", "name": "a", "provides": true, "uses": [0]},
    {"seq": 3, "kind": "topLevel", "name": "b", "provides": true, "uses": [0]},
    {"seq": 4, "kind": "externalDepend", "name": "/foo", "uses": [0]}, // trailing comma tolerated below
  ],
}`

func TestDecodeFixture(t *testing.T) {
	t.Parallel()
	g, err := Decode([]byte(fixture))
	require.NoError(t, err)
	require.Len(t, g.Nodes, 5)

	fp, ok := g.InterfaceHash()
	require.True(t, ok)
	require.Equal(t, "iface0", fp)

	require.Equal(t, depkey.KindTopLevel, g.Nodes[2].Key.Designator.Kind)
	require.True(t, g.Nodes[2].IsProvides)
	require.Equal(t, []int{0}, g.Nodes[2].DefsIDependUpon)
}

func TestDecodeRejectsUnknownKind(t *testing.T) {
	t.Parallel()
	_, err := Decode([]byte(`{"nodes":[{"seq":0,"kind":"bogus","name":"a"}]}`))
	require.Error(t, err)
}

func TestDecodeRejectsUnknownAspect(t *testing.T) {
	t.Parallel()
	_, err := Decode([]byte(`{"nodes":[{"seq":0,"kind":"topLevel","name":"a","aspect":"bogus"}]}`))
	require.Error(t, err)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()
	g, err := Decode([]byte(fixture))
	require.NoError(t, err)

	encoded, err := Encode(g)
	require.NoError(t, err)

	g2, err := Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, g, g2)
}
