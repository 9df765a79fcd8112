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

package node

import (
	"testing"

	"github.com/driftlang/driftc/internal/depgraph/depkey"
	"github.com/stretchr/testify/require"
)

func TestFinderInsertReplacesPreviousAtSameSourceKey(t *testing.T) {
	t.Parallel()
	f := NewFinder()
	k := mustTopLevel(t, "a")
	source := "foo.deps"
	fp1 := "v1"
	n1 := New(k, &fp1, &source)

	previous, hadPrevious := f.Insert(n1)
	require.False(t, hadPrevious)
	require.Zero(t, previous)

	fp2 := "v2"
	n2 := New(k, &fp2, &source)
	previous, hadPrevious = f.Insert(n2)
	require.True(t, hadPrevious)
	require.Equal(t, n1, previous)

	got, ok := f.Lookup(source, k)
	require.True(t, ok)
	require.Equal(t, n2, got)

	require.Equal(t, []Node{n2}, f.Providers(k))
}

func TestFinderInsertExpatThenReplace(t *testing.T) {
	t.Parallel()
	f := NewFinder()
	k := mustTopLevel(t, "a")
	expat := New(k, nil, nil)

	_, hadPrevious := f.Insert(expat)
	require.False(t, hadPrevious)

	gotExpat, ok := f.Expat(k)
	require.True(t, ok)
	require.Equal(t, expat, gotExpat)

	f.Remove(expat)
	_, ok = f.Expat(k)
	require.False(t, ok)

	source := "foo.deps"
	provider := New(k, nil, &source)
	_, hadPrevious = f.Insert(provider)
	require.False(t, hadPrevious)
	require.Equal(t, []Node{provider}, f.Providers(k))
}

func TestFinderRecordAndFindUses(t *testing.T) {
	t.Parallel()
	f := NewFinder()
	defKey := mustTopLevel(t, "a")
	useSource := "bar.deps"
	useNode := New(mustTopLevel(t, "b"), nil, &useSource)

	isNew := f.Record(defKey, useNode)
	require.True(t, isNew)
	isNew = f.Record(defKey, useNode)
	require.False(t, isNew)

	edges := f.FindUses(New(defKey, nil, nil))
	require.Len(t, edges, 1)
	require.Equal(t, useNode, edges[0].Node)
	require.Equal(t, useSource, edges[0].Source)
}

func TestFinderFindUsesSynthesizesInterfaceToImplementationEdge(t *testing.T) {
	t.Parallel()
	f := NewFinder()
	source := "foo.deps"
	ifaceKey := mustTopLevel(t, "a")
	implKey := ifaceKey.WithImplementationAspect()

	ifaceNode := New(ifaceKey, nil, &source)
	implNode := New(implKey, nil, &source)
	f.Insert(ifaceNode)
	f.Insert(implNode)

	edges := f.FindUses(ifaceNode)
	require.Len(t, edges, 1)
	require.Equal(t, implNode, edges[0].Node)
}

func TestFinderFindUsesNoSynthesisForImplementationAspect(t *testing.T) {
	t.Parallel()
	f := NewFinder()
	source := "foo.deps"
	implKey := mustTopLevel(t, "a").WithImplementationAspect()
	implNode := New(implKey, nil, &source)
	f.Insert(implNode)

	edges := f.FindUses(implNode)
	require.Empty(t, edges)
}

func TestFinderOrderedUsesIsDeterministic(t *testing.T) {
	t.Parallel()
	f := NewFinder()
	defKey := mustTopLevel(t, "a")
	srcB, srcC := "b.deps", "c.deps"
	nodeB := New(mustTopLevel(t, "b"), nil, &srcB)
	nodeC := New(mustTopLevel(t, "c"), nil, &srcC)

	f.Record(defKey, nodeC)
	f.Record(defKey, nodeB)

	edges := f.OrderedUses(New(defKey, nil, nil))
	require.Len(t, edges, 2)
	require.Equal(t, nodeB, edges[0].Node)
	require.Equal(t, nodeC, edges[1].Node)
}

func TestFinderRemoveScrubsUseSets(t *testing.T) {
	t.Parallel()
	f := NewFinder()
	defKey := mustTopLevel(t, "a")
	useSource := "bar.deps"
	useNode := New(mustTopLevel(t, "b"), nil, &useSource)
	f.Insert(useNode)
	f.Record(defKey, useNode)

	f.Remove(useNode)
	edges := f.FindUses(New(defKey, nil, nil))
	require.Empty(t, edges)

	_, ok := f.Lookup(useSource, useNode.Key)
	require.False(t, ok)
}

func TestFinderVerifyDetectsExpatUse(t *testing.T) {
	t.Parallel()
	f := NewFinder()
	defKey := mustTopLevel(t, "a")
	expatUse := New(mustTopLevel(t, "b"), nil, nil)
	f.usesByDef = map[depkey.Key]map[Node]struct{}{
		defKey: {expatUse: struct{}{}},
	}
	err := f.Verify()
	require.Error(t, err)
}

func TestFinderVerifyPassesOnWellFormedGraph(t *testing.T) {
	t.Parallel()
	f := NewFinder()
	defKey := mustTopLevel(t, "a")
	useSource := "bar.deps"
	useNode := New(mustTopLevel(t, "b"), nil, &useSource)
	f.Insert(useNode)
	f.Record(defKey, useNode)

	require.NoError(t, f.Verify())
}

func TestFinderOwned(t *testing.T) {
	t.Parallel()
	f := NewFinder()
	source := "foo.deps"
	a := New(mustTopLevel(t, "a"), nil, &source)
	b := New(mustTopLevel(t, "b"), nil, &source)
	f.Insert(a)
	f.Insert(b)

	owned := f.Owned(source)
	require.ElementsMatch(t, []depkey.Key{a.Key, b.Key}, owned)
}
