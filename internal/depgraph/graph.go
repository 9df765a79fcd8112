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

// Package depgraph is the module dependency graph: the container that
// holds the node finder, the tracer, the source↔input map and the set of
// known external dependencies, and exposes the driver-facing operations
// the scheduler calls.
//
// A Graph is single-writer: callers run integration and tracing from one
// goroutine. There are no suspension points inside it.
package depgraph

import (
	"fmt"
	"sort"

	"github.com/driftlang/driftc/internal/depgraph/depkey"
	"github.com/driftlang/driftc/internal/depgraph/filedeps"
	"github.com/driftlang/driftc/internal/depgraph/integrate"
	"github.com/driftlang/driftc/internal/depgraph/node"
	"github.com/driftlang/driftc/internal/depgraph/sourcemap"
	"github.com/driftlang/driftc/internal/depgraph/trace"
)

// Graph is the module dependency graph.
type Graph struct {
	finder            *node.Finder
	tracer            *trace.Tracer
	sourceMap         *sourcemap.Map
	knownExternalDeps map[string]bool
}

// New returns a fresh, empty Graph.
func New() *Graph {
	return &Graph{
		finder:            node.NewFinder(),
		tracer:            trace.New(),
		sourceMap:         sourcemap.New(),
		knownExternalDeps: make(map[string]bool),
	}
}

// FromParts reconstructs a Graph from its constituent pieces, used by the
// serializer when deserializing a persisted graph.
func FromParts(finder *node.Finder, sourceMap *sourcemap.Map, knownExternalDeps []string) *Graph {
	g := &Graph{
		finder:            finder,
		tracer:            trace.New(),
		sourceMap:         sourceMap,
		knownExternalDeps: make(map[string]bool, len(knownExternalDeps)),
	}
	for _, path := range knownExternalDeps {
		g.knownExternalDeps[path] = true
	}
	return g
}

// Finder returns the underlying node finder, for read-only inspection (dot
// dumps, diagnostics) and for the serializer.
func (g *Graph) Finder() *node.Finder {
	return g.finder
}

// SourceMap returns the input↔source map, so callers can populate it at
// startup from the output-file-map collaborator.
func (g *Graph) SourceMap() *sourcemap.Map {
	return g.sourceMap
}

// KnownExternalDeps returns every external dependency path discovered so
// far, sorted for determinism.
func (g *Graph) KnownExternalDeps() []string {
	paths := make([]string, 0, len(g.knownExternalDeps))
	for path := range g.knownExternalDeps {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// FindJobsToRecompileWhenWholeJobChanges computes every input that must
// recompile if input changes in full: it traces from every node owned by
// input's source and maps newly traced nodes back to inputs. It is
// reflexive on the first call (input's own nodes are untraced, so they
// appear in the result) and returns nothing on a second call with the same
// input, since tracing flags persist.
func (g *Graph) FindJobsToRecompileWhenWholeJobChanges(input string) ([]string, error) {
	source, ok := g.sourceMap.Source(input)
	if !ok {
		return nil, fmt.Errorf("depgraph: no source mapped for input %q", input)
	}
	return g.collectInputs(g.tracer.Trace(g.finder, g.ownedNodes(source))), nil
}

// FindJobsToRecompileWhenNodesChange is FindJobsToRecompileWhenWholeJobChanges,
// seeded with an arbitrary node set rather than a single input's nodes. Used
// after integration, with the invalidated set Integrate returns.
func (g *Graph) FindJobsToRecompileWhenNodesChange(nodes []node.Node) []string {
	return g.collectInputs(g.tracer.Trace(g.finder, nodes))
}

// HaveAnyNodesBeenTraversedIn reports whether any node owned by input has
// been traced.
func (g *Graph) HaveAnyNodesBeenTraversedIn(input string) bool {
	source, ok := g.sourceMap.Source(input)
	if !ok {
		return false
	}
	for _, n := range g.ownedNodes(source) {
		if g.tracer.IsTraced(n) {
			return true
		}
	}
	return false
}

// FindExternallyDependentUntracedJobs gathers every untraced provider-side
// node whose key is externalDepend(externalPath) with interface aspect,
// traces from them, and returns the inputs touched.
func (g *Graph) FindExternallyDependentUntracedJobs(externalPath string) []string {
	key, err := depkey.ExternalDepend(externalPath)
	if err != nil {
		return nil
	}
	var seeds []node.Node
	for _, n := range g.finder.Providers(key) {
		if !g.tracer.IsTraced(n) {
			seeds = append(seeds, n)
		}
	}
	return g.collectInputs(g.tracer.Trace(g.finder, seeds))
}

// Integrate folds the per-file graph fg for source into the module graph,
// records any newly discovered external dependencies, and arranges for the
// tracer to re-expand from the nodes it invalidated.
func (g *Graph) Integrate(source string, fg *filedeps.Graph) (integrate.Result, error) {
	result, err := integrate.Integrate(g.finder, source, fg, g.knownExternalDeps)
	if err != nil {
		return integrate.Result{}, err
	}
	for _, path := range result.NewExternalDeps {
		g.knownExternalDeps[path] = true
	}
	g.tracer.EnsureWillRetrace(g.finder, result.Invalidated)
	return result, nil
}

// CollectSourcesUsingTransitivelyInvalidated is the scheduler's primary
// entry point: it traces from nodes and returns the distinct sources
// (dependency-artifact paths) any newly traced node belongs to.
func (g *Graph) CollectSourcesUsingTransitivelyInvalidated(nodes []node.Node) []string {
	newly := g.tracer.Trace(g.finder, nodes)
	seen := make(map[string]struct{})
	for _, n := range newly {
		if src, ok := n.Source(); ok {
			seen[src] = struct{}{}
		}
	}
	sources := make([]string, 0, len(seen))
	for src := range seen {
		sources = append(sources, src)
	}
	sort.Strings(sources)
	return sources
}

func (g *Graph) ownedNodes(source string) []node.Node {
	keys := g.finder.Owned(source)
	nodes := make([]node.Node, 0, len(keys))
	for _, key := range keys {
		if n, ok := g.finder.Lookup(source, key); ok {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

func (g *Graph) collectInputs(nodes []node.Node) []string {
	seen := make(map[string]struct{})
	for _, n := range nodes {
		src, ok := n.Source()
		if !ok {
			continue
		}
		if input, ok := g.sourceMap.Input(src); ok {
			seen[input] = struct{}{}
		}
	}
	inputs := make([]string, 0, len(seen))
	for input := range seen {
		inputs = append(inputs, input)
	}
	sort.Strings(inputs)
	return inputs
}
