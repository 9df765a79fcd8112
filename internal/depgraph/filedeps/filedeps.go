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

// Package filedeps holds the decoded in-memory structure of a per-file
// dependency artifact, as produced by the compiler back-end. The package is
// agnostic to the on-disk encoding; decoders for specific encodings live in
// sub-packages such as jsoncdecode.
package filedeps

import (
	"fmt"

	"github.com/driftlang/driftc/internal/depgraph/depkey"
)

// FileNode is one entry in a per-file dependency graph.
type FileNode struct {
	// Seq is this node's index within the file.
	Seq int
	// Key is the dependency key this node provides or uses.
	Key depkey.Key
	// Fingerprint is the node's fingerprint, if any.
	Fingerprint *string
	// DefsIDependUpon lists the sequence numbers of nodes this node has an
	// intra-file depends-on arc to.
	DefsIDependUpon []int
	// IsProvides reports whether this node is provided by the file, as
	// opposed to being a pure use.
	IsProvides bool
}

// Graph is the decoded per-file dependency artifact for one source.
//
// By convention, slot 0 is the file's own interface sourceFileProvide node
// and slot 1 is its implementation sourceFileProvide node.
type Graph struct {
	Nodes []FileNode
}

const (
	interfaceSlot      = 0
	implementationSlot = 1
)

// InterfaceHash returns the fingerprint of the file's interface
// sourceFileProvide node (slot 0), and whether that slot exists and carries
// one.
func (g *Graph) InterfaceHash() (string, bool) {
	return g.slotFingerprint(interfaceSlot)
}

// ImplementationHash returns the fingerprint of the file's implementation
// sourceFileProvide node (slot 1), and whether that slot exists and carries
// one.
func (g *Graph) ImplementationHash() (string, bool) {
	return g.slotFingerprint(implementationSlot)
}

func (g *Graph) slotFingerprint(slot int) (string, bool) {
	if slot >= len(g.Nodes) {
		return "", false
	}
	fp := g.Nodes[slot].Fingerprint
	if fp == nil {
		return "", false
	}
	return *fp, true
}

// NodeBySeq returns the FileNode at sequence number seq, and whether it
// exists.
func (g *Graph) NodeBySeq(seq int) (FileNode, bool) {
	for _, n := range g.Nodes {
		if n.Seq == seq {
			return n, true
		}
	}
	return FileNode{}, false
}

// Validate checks that every DefsIDependUpon reference in g resolves to a
// sequence number present in g, returning an error describing the first
// dangling reference found.
func (g *Graph) Validate() error {
	seqs := make(map[int]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		seqs[n.Seq] = struct{}{}
	}
	for _, n := range g.Nodes {
		for _, dep := range n.DefsIDependUpon {
			if _, ok := seqs[dep]; !ok {
				return fmt.Errorf("filedeps: node %d depends on unknown sequence number %d", n.Seq, dep)
			}
		}
	}
	return nil
}
