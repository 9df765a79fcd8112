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

// Package dot renders a module dependency graph as Graphviz ".dot" source,
// for the driver's graph-dump subcommand.
//
// This is standard-library-only by design, not by default: a ".dot" writer
// is a few lines of fmt.Fprintf against a fixed textual grammar, and none of
// the teacher's or the wider examples' dependencies offer anything beyond
// what text/template or fmt already do for a format this small. See
// DESIGN.md for the justification.
package dot

import (
	"fmt"
	"io"

	"github.com/driftlang/driftc/internal/depgraph/depkey"
	"github.com/driftlang/driftc/internal/depgraph/node"
)

// Write renders every node and arc known to finder as a directed graph.
// Expat nodes are drawn dashed; implementation-aspect nodes are drawn in a
// lighter color, so a glance at the rendering distinguishes cascading from
// non-cascading edges.
func Write(w io.Writer, finder *node.Finder) error {
	bw := &errWriter{w: w}
	bw.printf("digraph depgraph {\n")
	bw.printf("  rankdir=LR;\n")
	bw.printf("  node [shape=box, fontname=\"monospace\"];\n\n")

	ids := make(map[node.Node]string)
	var n int
	finder.ForEachNode(func(nd node.Node) {
		id := fmt.Sprintf("n%d", n)
		n++
		ids[nd] = id
		bw.printf("  %s [label=%q%s];\n", id, nodeLabel(nd), nodeStyle(nd))
	})
	bw.printf("\n")

	finder.ForEachArc(func(def depkey.Key, use node.Node) {
		useID, ok := ids[use]
		if !ok {
			return
		}
		// The def side of an arc may not correspond to any node currently in
		// the graph's own node set (depends-on is a raw key, not a node
		// reference), so synthesize a label-only source for it.
		bw.printf("  %q -> %s [label=%q];\n", def.String(), useID, def.Aspect)
	})

	bw.printf("}\n")
	return bw.err
}

func nodeLabel(n node.Node) string {
	fp, hasFP := n.Fingerprint()
	label := n.Key.String()
	if hasFP {
		label += "\n@" + fp
	}
	return label
}

func nodeStyle(n node.Node) string {
	switch {
	case n.IsExpat():
		return ", style=dashed"
	case n.Key.Aspect == depkey.AspectImplementation:
		return ", style=filled, fillcolor=lightgrey"
	default:
		return ""
	}
}

// errWriter lets Write accumulate fmt.Fprintf calls without checking every
// individual error.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
