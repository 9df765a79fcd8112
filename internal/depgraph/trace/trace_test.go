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

package trace

import (
	"testing"

	"github.com/driftlang/driftc/internal/depgraph/depkey"
	"github.com/driftlang/driftc/internal/depgraph/node"
	"github.com/stretchr/testify/require"
)

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

// buildChain wires a -> b -> c (a is used by b, b is used by c) all owned
// by distinct sources, and returns the three nodes.
func buildChain(t *testing.T) (finder *node.Finder, a, b, c node.Node) {
	t.Helper()
	finder = node.NewFinder()
	aKey := mustKey(depkey.TopLevel("a"))
	bKey := mustKey(depkey.TopLevel("b"))
	cKey := mustKey(depkey.TopLevel("c"))

	srcA, srcB, srcC := "a.deps", "b.deps", "c.deps"
	a = node.New(aKey, nil, &srcA)
	b = node.New(bKey, nil, &srcB)
	c = node.New(cKey, nil, &srcC)
	finder.Insert(a)
	finder.Insert(b)
	finder.Insert(c)

	finder.Record(aKey, b)
	finder.Record(bKey, c)
	return finder, a, b, c
}

func TestTraceExpandsTransitiveClosure(t *testing.T) {
	t.Parallel()
	finder, a, b, c := buildChain(t)
	tracer := New()

	newly := tracer.Trace(finder, []node.Node{a})
	require.ElementsMatch(t, []node.Node{a, b, c}, newly)
	require.True(t, tracer.IsTraced(a))
	require.True(t, tracer.IsTraced(b))
	require.True(t, tracer.IsTraced(c))
}

func TestTraceSecondCallReturnsNothingNew(t *testing.T) {
	t.Parallel()
	finder, a, _, _ := buildChain(t)
	tracer := New()

	tracer.Trace(finder, []node.Node{a})
	newly := tracer.Trace(finder, []node.Node{a})
	require.Empty(t, newly)
}

func TestEnsureWillRetrace(t *testing.T) {
	t.Parallel()
	finder, a, b, c := buildChain(t)
	tracer := New()
	tracer.Trace(finder, []node.Node{a})

	// Clearing b also clears everything reachable from b (here, c): a
	// dependent traced only because it was downstream of b must become
	// eligible for re-tracing too, not just b itself.
	tracer.EnsureWillRetrace(finder, []node.Node{b})
	require.False(t, tracer.IsTraced(b))
	require.False(t, tracer.IsTraced(c))
	require.True(t, tracer.IsTraced(a))

	newly := tracer.Trace(finder, []node.Node{b})
	require.ElementsMatch(t, []node.Node{b, c}, newly)
}

func TestEnsureWillRetraceLeavesUpstreamNodesTraced(t *testing.T) {
	t.Parallel()
	finder, a, b, c := buildChain(t)
	tracer := New()
	tracer.Trace(finder, []node.Node{a})
	tracer.EnsureWillRetrace(finder, []node.Node{b})
	// a was never cleared and retains no downstream effect from clearing b.
	require.True(t, tracer.IsTraced(a))
	require.Empty(t, tracer.Trace(finder, []node.Node{a}))
}

func TestTraceMonotonicity(t *testing.T) {
	t.Parallel()
	finder, a, _, _ := buildChain(t)
	tracer := New()

	firstCount := len(tracer.Trace(finder, []node.Node{a}))
	require.Positive(t, firstCount)
	for i := 0; i < 3; i++ {
		require.Empty(t, tracer.Trace(finder, []node.Node{a}))
	}
}

func TestResetClearsEverything(t *testing.T) {
	t.Parallel()
	finder, a, b, _ := buildChain(t)
	tracer := New()
	tracer.Trace(finder, []node.Node{a})
	tracer.Reset()
	require.False(t, tracer.IsTraced(a))
	require.False(t, tracer.IsTraced(b))
}

func TestTraceFromExpatSeedReachesItsUses(t *testing.T) {
	t.Parallel()
	finder := node.NewFinder()
	aKey := mustKey(depkey.TopLevel("a"))
	srcX := "x.deps"
	x := node.New(mustKey(depkey.TopLevel("x")), strp("x1"), &srcX)
	finder.Insert(x)
	finder.Record(aKey, x)

	tracer := New()
	newly := tracer.Trace(finder, []node.Node{node.New(aKey, nil, nil)})
	require.ElementsMatch(t, []node.Node{node.New(aKey, nil, nil), x}, newly)
}
