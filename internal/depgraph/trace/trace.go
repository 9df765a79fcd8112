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

// Package trace computes the transitive closure of invalidated nodes over
// the module dependency graph's def→use edges.
package trace

import "github.com/driftlang/driftc/internal/depgraph/node"

// Tracer marks nodes as traced and expands a seed set to its transitive
// closure. A Tracer's traced set is never persisted: it lives for exactly
// one module-graph instance's lifetime.
type Tracer struct {
	traced map[node.Node]struct{}
}

// New returns an empty Tracer.
func New() *Tracer {
	return &Tracer{traced: make(map[node.Node]struct{})}
}

// Trace runs a worklist walk from seeds over finder.OrderedUses, marking
// every newly visited node traced and returning the nodes that were not
// already traced before this call. A node already traced when first
// encountered is not expanded further: this is what makes a second call
// with the same seed set return nothing new.
func (t *Tracer) Trace(finder *node.Finder, seeds []node.Node) []node.Node {
	var newlyTraced []node.Node
	worklist := make([]node.Node, 0, len(seeds))
	worklist = append(worklist, seeds...)

	for len(worklist) > 0 {
		n := worklist[0]
		worklist = worklist[1:]

		if _, already := t.traced[n]; already {
			continue
		}
		t.traced[n] = struct{}{}
		newlyTraced = append(newlyTraced, n)

		for _, edge := range finder.OrderedUses(n) {
			if _, already := t.traced[edge.Node]; !already {
				worklist = append(worklist, edge.Node)
			}
		}
	}
	return newlyTraced
}

// IsTraced reports whether n has been visited since the last reset
// affecting it.
func (t *Tracer) IsTraced(n node.Node) bool {
	_, ok := t.traced[n]
	return ok
}

// EnsureWillRetrace clears the traced flag on nodes and on every node
// transitively reachable from them via finder.OrderedUses, so that a
// subsequent Trace call re-expands and re-reports all of their dependents.
// Used when a reload detects a change and the engine must re-propagate
// invalidation even to nodes traced via some other, now-stale seed.
func (t *Tracer) EnsureWillRetrace(finder *node.Finder, nodes []node.Node) {
	visited := make(map[node.Node]struct{})
	worklist := append([]node.Node{}, nodes...)
	for len(worklist) > 0 {
		n := worklist[0]
		worklist = worklist[1:]
		if _, seen := visited[n]; seen {
			continue
		}
		visited[n] = struct{}{}
		delete(t.traced, n)
		worklist = append(worklist, usesOf(finder, n)...)
	}
}

func usesOf(finder *node.Finder, n node.Node) []node.Node {
	edges := finder.OrderedUses(n)
	out := make([]node.Node, len(edges))
	for i, e := range edges {
		out[i] = e.Node
	}
	return out
}

// Reset clears the entire traced set.
func (t *Tracer) Reset() {
	t.traced = make(map[node.Node]struct{})
}
