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
	"fmt"
	"sort"

	"github.com/driftlang/driftc/internal/depgraph/depkey"
)

// UseEdge is a (use node, use node's source) pair returned by FindUses and
// OrderedUses. The source is duplicated onto the edge for callers that only
// care about which file a use belongs to.
type UseEdge struct {
	Node   Node
	Source string
}

type sourceKeyPair struct {
	source string
	key    depkey.Key
}

// Finder is the indexed store of nodes: lookup by (source, key), by key
// alone (all providers of that key, including at most one expat), and by
// source alone (all keys owned by that source); plus the def→use multimap
// that drives tracing.
//
// Finder is not safe for concurrent use; callers serialize access (see the
// module dependency graph's single-writer contract).
type Finder struct {
	bySourceKey map[sourceKeyPair]Node
	byKey       map[depkey.Key][]Node
	bySource    map[string][]depkey.Key
	usesByDef   map[depkey.Key]map[Node]struct{}

	// usedIn is the reverse index of usesByDef: for a use node, the set of
	// def keys that reference it. Not part of the spec's nodeMap shape, but
	// needed to make Remove's "scrub from every def-key's use-set" clause
	// run in time proportional to the node's own use count rather than the
	// whole graph.
	usedIn map[Node]map[depkey.Key]struct{}
}

// NewFinder returns an empty Finder.
func NewFinder() *Finder {
	return &Finder{
		bySourceKey: make(map[sourceKeyPair]Node),
		byKey:       make(map[depkey.Key][]Node),
		bySource:    make(map[string][]depkey.Key),
		usesByDef:   make(map[depkey.Key]map[Node]struct{}),
		usedIn:      make(map[Node]map[depkey.Key]struct{}),
	}
}

// Insert records n, replacing any previous node with the same identity
// (same source and key, for source-owned nodes; same key, for an expat) and
// returning it. Per the data model, nodes are never mutated in place:
// replacement is always "remove old, insert new" at this level.
func (f *Finder) Insert(n Node) (previous Node, hadPrevious bool) {
	if src, ok := n.Source(); ok {
		key := sourceKeyPair{source: src, key: n.Key}
		previous, hadPrevious = f.bySourceKey[key]
		if hadPrevious {
			// The replaced node's use arcs leave with it, as in Remove.
			for def := range f.usedIn[previous] {
				if uses, ok := f.usesByDef[def]; ok {
					delete(uses, previous)
					if len(uses) == 0 {
						delete(f.usesByDef, def)
					}
				}
			}
			delete(f.usedIn, previous)
		}
		f.bySourceKey[key] = n
		f.byKey[n.Key] = replaceOrAppend(f.byKey[n.Key], previous, hadPrevious, n)
		if !hadPrevious {
			f.bySource[src] = append(f.bySource[src], n.Key)
		}
		return previous, hadPrevious
	}

	previous, hadPrevious = f.Expat(n.Key)
	f.byKey[n.Key] = replaceOrAppend(f.byKey[n.Key], previous, hadPrevious, n)
	return previous, hadPrevious
}

func replaceOrAppend(list []Node, previous Node, hadPrevious bool, n Node) []Node {
	if hadPrevious {
		for i, existing := range list {
			if existing == previous {
				list[i] = n
				return list
			}
		}
	}
	return append(list, n)
}

// Expat returns the expat (sourceless) node for key, if one exists. At most
// one expat can exist per key at a time.
func (f *Finder) Expat(key depkey.Key) (Node, bool) {
	for _, n := range f.byKey[key] {
		if n.IsExpat() {
			return n, true
		}
	}
	return Node{}, false
}

// Lookup returns the node owned by source at key, if any.
func (f *Finder) Lookup(source string, key depkey.Key) (Node, bool) {
	n, ok := f.bySourceKey[sourceKeyPair{source: source, key: key}]
	return n, ok
}

// Providers returns every node known for key, in insertion order: zero or
// more source-owned providers, plus an expat if one is still outstanding.
func (f *Finder) Providers(key depkey.Key) []Node {
	list := f.byKey[key]
	out := make([]Node, len(list))
	copy(out, list)
	return out
}

// Owned returns the keys of every node owned by source, in insertion order.
func (f *Finder) Owned(source string) []depkey.Key {
	keys := f.bySource[source]
	out := make([]depkey.Key, len(keys))
	copy(out, keys)
	return out
}

// Remove deletes n from the finder: first it is scrubbed from the use-set
// of every def-key that references it, then its (source, key) or expat
// entry is removed.
func (f *Finder) Remove(n Node) {
	for def := range f.usedIn[n] {
		if uses, ok := f.usesByDef[def]; ok {
			delete(uses, n)
			if len(uses) == 0 {
				delete(f.usesByDef, def)
			}
		}
	}
	delete(f.usedIn, n)

	if src, ok := n.Source(); ok {
		delete(f.bySourceKey, sourceKeyPair{source: src, key: n.Key})
		f.bySource[src] = removeKey(f.bySource[src], n.Key)
		if len(f.bySource[src]) == 0 {
			delete(f.bySource, src)
		}
	}
	f.byKey[n.Key] = removeNode(f.byKey[n.Key], n)
	if len(f.byKey[n.Key]) == 0 {
		delete(f.byKey, n.Key)
	}
}

func removeKey(keys []depkey.Key, key depkey.Key) []depkey.Key {
	for i, k := range keys {
		if k == key {
			return append(keys[:i], keys[i+1:]...)
		}
	}
	return keys
}

func removeNode(nodes []Node, n Node) []Node {
	for i, existing := range nodes {
		if existing == n {
			return append(nodes[:i], nodes[i+1:]...)
		}
	}
	return nodes
}

// Record adds use to the use-set of def, returning whether the arc is new.
//
// Record does not itself enforce the "same-file def→use is not stored"
// rule; callers (the integrator) decide whether an arc qualifies before
// calling Record.
func (f *Finder) Record(def depkey.Key, use Node) (isNew bool) {
	uses, ok := f.usesByDef[def]
	if !ok {
		uses = make(map[Node]struct{})
		f.usesByDef[def] = uses
	}
	if _, exists := uses[use]; exists {
		return false
	}
	uses[use] = struct{}{}

	defs, ok := f.usedIn[use]
	if !ok {
		defs = make(map[depkey.Key]struct{})
		f.usedIn[use] = defs
	}
	defs[def] = struct{}{}
	return true
}

// FindUses returns the nodes that use a provider of of.Key: every node
// recorded via Record(of.Key, ...), plus — when of.Key is interface-aspect
// and of has a source — the implicit interface→implementation edge to the
// implementation node owned by the same source, synthesized here rather
// than stored explicitly (see spec's Open Question on centralizing this
// edge in the finder).
func (f *Finder) FindUses(of Node) []UseEdge {
	uses := f.usesByDef[of.Key]
	edges := make([]UseEdge, 0, len(uses)+1)
	for use := range uses {
		src, _ := use.Source()
		edges = append(edges, UseEdge{Node: use, Source: src})
	}

	if of.Key.Aspect == depkey.AspectInterface {
		if src, ok := of.Source(); ok {
			implKey := of.Key.WithImplementationAspect()
			if implNode, ok := f.Lookup(src, implKey); ok {
				edges = append(edges, UseEdge{Node: implNode, Source: src})
			}
		}
	}
	return edges
}

// OrderedUses is FindUses sorted into the deterministic key order used for
// tracing (ties broken by source).
func (f *Finder) OrderedUses(of Node) []UseEdge {
	edges := f.FindUses(of)
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Node.Key != edges[j].Node.Key {
			return edges[i].Node.Key.Less(edges[j].Node.Key)
		}
		return edges[i].Source < edges[j].Source
	})
	return edges
}

// ForEachNode calls visit for every node known to the finder (source-owned
// or expat), in a deterministic order: keys sorted by depkey.Key.Less, then
// within a key by owning source (the expat, if any, sorts first since it has
// no source). Used by the serializer to assign stable node IDs across a
// write.
func (f *Finder) ForEachNode(visit func(Node)) {
	keys := make([]depkey.Key, 0, len(f.byKey))
	for k := range f.byKey {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	for _, k := range keys {
		nodes := append([]Node(nil), f.byKey[k]...)
		sort.Slice(nodes, func(i, j int) bool {
			si, _ := nodes[i].Source()
			sj, _ := nodes[j].Source()
			return si < sj
		})
		for _, n := range nodes {
			visit(n)
		}
	}
}

// ForEachArc calls visit for every recorded def→use arc, in a deterministic
// order: def keys sorted by depkey.Key.Less, then within a def by the use
// node's own key and source.
func (f *Finder) ForEachArc(visit func(def depkey.Key, use Node)) {
	defs := make([]depkey.Key, 0, len(f.usesByDef))
	for d := range f.usesByDef {
		defs = append(defs, d)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Less(defs[j]) })

	for _, d := range defs {
		uses := make([]Node, 0, len(f.usesByDef[d]))
		for u := range f.usesByDef[d] {
			uses = append(uses, u)
		}
		sort.Slice(uses, func(i, j int) bool {
			if uses[i].Key != uses[j].Key {
				return uses[i].Key.Less(uses[j].Key)
			}
			si, _ := uses[i].Source()
			sj, _ := uses[j].Source()
			return si < sj
		})
		for _, u := range uses {
			visit(d, u)
		}
	}
}

// Verify asserts the finder's internal invariants: every node appearing as
// a use in usesByDef is present in the node map under its own (source,key),
// and no such node is an expat.
func (f *Finder) Verify() error {
	for def, uses := range f.usesByDef {
		for use := range uses {
			if use.IsExpat() {
				return fmt.Errorf("finder: use node %s of def %s is expat", use, def)
			}
			src, _ := use.Source()
			got, ok := f.Lookup(src, use.Key)
			if !ok || got != use {
				return fmt.Errorf("finder: use node %s of def %s is not present in the node map", use, def)
			}
		}
	}
	return nil
}
