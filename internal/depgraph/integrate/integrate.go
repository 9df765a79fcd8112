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

// Package integrate folds a per-file dependency graph into the module
// dependency graph's node finder, detecting changes and newly discovered
// external dependencies.
//
// Integrate operates directly on a *node.Finder rather than on the
// top-level depgraph.Graph, so that the depgraph package (which owns the
// finder, the tracer and the source↔input map) can depend on integrate
// without creating an import cycle.
package integrate

import (
	"errors"
	"fmt"

	"github.com/driftlang/driftc/internal/depgraph/depkey"
	"github.com/driftlang/driftc/internal/depgraph/filedeps"
	"github.com/driftlang/driftc/internal/depgraph/node"
)

// ErrExternalRecursionFailed names the failure of a recursive integration
// of an external dependency's own per-file graph. Neither Integrate nor the
// scheduler performs that recursion: newly discovered external dependencies
// are only reported in Result.NewExternalDeps, and no code path in this
// module returns this error.
var ErrExternalRecursionFailed = errors.New("integrate: recursive integration of an external dependency failed")

// Result is the outcome of folding one per-file graph into the module
// graph.
type Result struct {
	// Invalidated is the set of nodes the tracer must expand from.
	Invalidated []node.Node
	// NewExternalDeps lists externalDepend paths encountered for the first
	// time during this integration.
	NewExternalDeps []string
}

// Integrate folds fg, the freshly parsed per-file dependency graph for
// source, into finder. knownExternalDeps is the caller's set of already
// known external dependency paths; Integrate does not mutate it, but
// reports newly seen paths in the returned Result so the caller can add
// them.
func Integrate(
	finder *node.Finder,
	source string,
	fg *filedeps.Graph,
	knownExternalDeps map[string]bool,
) (Result, error) {
	if err := fg.Validate(); err != nil {
		return Result{}, fmt.Errorf("integrate: %w", err)
	}

	preExisting := make(map[depkey.Key]node.Node)
	for _, key := range finder.Owned(source) {
		if n, ok := finder.Lookup(source, key); ok {
			preExisting[key] = n
		}
	}

	touched := make(map[depkey.Key]struct{}, len(fg.Nodes))
	seqToKey := make(map[int]depkey.Key, len(fg.Nodes))
	seqToNode := make(map[int]node.Node, len(fg.Nodes))
	invalidatedSet := make(map[node.Node]struct{})
	var newExternalDeps []string

	// Step 2 prep: a key provided twice within this same file cannot coexist
	// with two different fingerprints (tie-break 2): the fingerprint is
	// erased for that key rather than letting whichever provide happens to
	// be folded last silently win.
	conflicted := make(map[depkey.Key]struct{})
	seenFingerprint := make(map[depkey.Key]fingerprintSeen)
	for _, fn := range fg.Nodes {
		if !fn.IsProvides {
			continue
		}
		fp, ok := fingerprintOf(fn)
		if seen, ok2 := seenFingerprint[fn.Key]; ok2 {
			if seen.fp != fp || seen.ok != ok {
				conflicted[fn.Key] = struct{}{}
			}
			continue
		}
		seenFingerprint[fn.Key] = fingerprintSeen{fp: fp, ok: ok}
	}

	for _, fn := range fg.Nodes {
		seqToKey[fn.Seq] = fn.Key

		if !fn.IsProvides {
			// A pure-use placeholder only needs to exist so other nodes in
			// this file can resolve a defining key by sequence number; it
			// becomes a module-graph node only if nothing provides its key
			// yet (so it can later be traced to, and replaced on its own
			// terms, per the expat lifecycle).
			if _, ok := finder.Expat(fn.Key); !ok {
				if providers := finder.Providers(fn.Key); len(providers) == 0 {
					finder.Insert(node.New(fn.Key, nil, nil))
				}
			}
			continue
		}

		if expat, ok := finder.Expat(fn.Key); ok {
			finder.Remove(expat)
		}

		newNode := node.New(fn.Key, fn.Fingerprint, &source)
		if _, ok := conflicted[fn.Key]; ok {
			newNode = newNode.WithoutFingerprint()
		}
		previous, hadPrevious := finder.Insert(newNode)
		touched[fn.Key] = struct{}{}
		seqToNode[fn.Seq] = newNode

		if fn.Key.IsExternalDepend() {
			if path, ok := fn.Key.ExternalPath(); ok && !knownExternalDeps[path] {
				newExternalDeps = append(newExternalDeps, path)
			}
		}

		if !hadPrevious {
			invalidatedSet[newNode] = struct{}{}
			continue
		}
		prevFP, prevOK := previous.Fingerprint()
		newFP, newOK := newNode.Fingerprint()
		if prevOK != newOK || prevFP != newFP {
			invalidatedSet[newNode] = struct{}{}
		}
	}

	// Step 3: intra-file arcs. fn.DefsIDependUpon lists the sequence
	// numbers of the definitions fn depends upon; fn itself is the use
	// side. An arc whose def key is also provided by this same source is
	// never stored: it would make any interface change dirty the whole
	// file via itself, defeating per-declaration fingerprinting. Only
	// arcs whose def is provided elsewhere (or not yet provided anywhere)
	// are recorded, and only when the use node is a real, non-expat
	// module-graph node.
	for _, fn := range fg.Nodes {
		useNode, ok := seqToNode[fn.Seq]
		if !ok || useNode.IsExpat() {
			continue
		}
		for _, depSeq := range fn.DefsIDependUpon {
			defKey, ok := seqToKey[depSeq]
			if !ok {
				continue
			}
			if _, sameFile := touched[defKey]; sameFile {
				continue
			}
			finder.Record(defKey, useNode)
			if defKey.IsExternalDepend() {
				if path, ok := defKey.ExternalPath(); ok && !knownExternalDeps[path] {
					newExternalDeps = append(newExternalDeps, path)
				}
			}
		}
	}

	// Step 4: disappeared nodes (pre-existing but not touched this round).
	for key, previous := range preExisting {
		if _, ok := touched[key]; ok {
			continue
		}
		finder.Remove(previous)
		invalidatedSet[previous] = struct{}{}
	}

	// Step 6: whole-file interface fingerprint change invalidates both the
	// file-level interface and implementation sourceFileProvide nodes.
	if ifaceHash, ok := fg.InterfaceHash(); ok {
		if prevHash, hadPrev := previousInterfaceHash(preExisting, fg); !hadPrev || prevHash != ifaceHash {
			for _, key := range fileLevelKeys(fg) {
				if n, ok := finder.Lookup(source, key); ok {
					invalidatedSet[n] = struct{}{}
				}
			}
		}
	}

	invalidated := make([]node.Node, 0, len(invalidatedSet))
	for n := range invalidatedSet {
		invalidated = append(invalidated, n)
	}
	return Result{Invalidated: invalidated, NewExternalDeps: newExternalDeps}, nil
}

// fingerprintSeen records a provide's fingerprint for the same-file
// provider/provider conflict scan: fp is meaningless when ok is false.
type fingerprintSeen struct {
	fp string
	ok bool
}

// fingerprintOf reports fn's fingerprint and whether one is present, the
// same "nil or empty means absent" rule node.New applies.
func fingerprintOf(fn filedeps.FileNode) (string, bool) {
	if fn.Fingerprint == nil || *fn.Fingerprint == "" {
		return "", false
	}
	return *fn.Fingerprint, true
}

// fileLevelKeys returns the keys of fg's slot-0/slot-1 sourceFileProvide
// nodes, if present.
func fileLevelKeys(fg *filedeps.Graph) []depkey.Key {
	var keys []depkey.Key
	for i := 0; i < 2 && i < len(fg.Nodes); i++ {
		if fg.Nodes[i].Key.Designator.Kind == depkey.KindSourceFileProvide {
			keys = append(keys, fg.Nodes[i].Key)
		}
	}
	return keys
}

// previousInterfaceHash reports the interface fingerprint the file-level
// interface node carried before this integration round, and whether one
// was recorded at all.
func previousInterfaceHash(preExisting map[depkey.Key]node.Node, fg *filedeps.Graph) (string, bool) {
	keys := fileLevelKeys(fg)
	if len(keys) == 0 {
		return "", false
	}
	n, ok := preExisting[keys[0]]
	if !ok {
		return "", false
	}
	return n.Fingerprint()
}
