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

package filedeps

import (
	"testing"

	"github.com/driftlang/driftc/internal/depgraph/depkey"
	"github.com/stretchr/testify/require"
)

func TestInterfaceAndImplementationHash(t *testing.T) {
	t.Parallel()
	ifaceFP := "iface-hash"
	implFP := "impl-hash"
	key, err := depkey.SourceFileProvide("foo.ext")
	require.NoError(t, err)

	g := &Graph{Nodes: []FileNode{
		{Seq: 0, Key: key, Fingerprint: &ifaceFP, IsProvides: true},
		{Seq: 1, Key: key.WithImplementationAspect(), Fingerprint: &implFP, IsProvides: true},
	}}

	got, ok := g.InterfaceHash()
	require.True(t, ok)
	require.Equal(t, "iface-hash", got)

	got, ok = g.ImplementationHash()
	require.True(t, ok)
	require.Equal(t, "impl-hash", got)
}

func TestHashMissingSlot(t *testing.T) {
	t.Parallel()
	g := &Graph{}
	_, ok := g.InterfaceHash()
	require.False(t, ok)
}

func TestValidateDetectsDanglingReference(t *testing.T) {
	t.Parallel()
	key, err := depkey.TopLevel("a")
	require.NoError(t, err)
	g := &Graph{Nodes: []FileNode{
		{Seq: 0, Key: key, DefsIDependUpon: []int{5}},
	}}
	require.Error(t, g.Validate())
}

func TestNodeBySeq(t *testing.T) {
	t.Parallel()
	key, err := depkey.TopLevel("a")
	require.NoError(t, err)
	g := &Graph{Nodes: []FileNode{{Seq: 3, Key: key}}}

	n, ok := g.NodeBySeq(3)
	require.True(t, ok)
	require.Equal(t, key, n.Key)

	_, ok = g.NodeBySeq(4)
	require.False(t, ok)
}
