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

// Package node implements the module dependency graph's vertex type (Node)
// and its indexed store (Finder).
package node

import (
	"fmt"

	"github.com/driftlang/driftc/internal/depgraph/depkey"
)

// Node is a vertex in the module dependency graph: a dependency key plus an
// optional fingerprint and an optional owning source.
//
// Node is an immutable value type and is comparable (safe to use as a map
// key), which Finder relies on for usesByDef. Two nodes constructed with
// equal key/fingerprint/source are equal regardless of how the optional
// fields were supplied, which is why fingerprint and source are stored as
// (value, present) pairs rather than as *string: a *string map key would
// compare pointer identity, not the pointed-to value, breaking the
// structural-equality invariant from the data model.
type Node struct {
	Key            depkey.Key
	fingerprint    string
	hasFingerprint bool
	source         string
	hasSource      bool
}

// New constructs a Node. A nil fingerprint or source means "absent", per
// the data model; a non-nil pointer to "" is treated the same as absent,
// since an empty fingerprint or source path is never meaningful.
func New(key depkey.Key, fingerprint *string, source *string) Node {
	n := Node{Key: key}
	if fingerprint != nil && *fingerprint != "" {
		n.fingerprint = *fingerprint
		n.hasFingerprint = true
	}
	if source != nil && *source != "" {
		n.source = *source
		n.hasSource = true
	}
	return n
}

// WithSource returns n, overridden to be owned by source.
func (n Node) WithSource(source string) Node {
	n.source = source
	n.hasSource = true
	return n
}

// WithFingerprint returns n, overridden to carry the given fingerprint.
func (n Node) WithFingerprint(fingerprint string) Node {
	n.fingerprint = fingerprint
	n.hasFingerprint = true
	return n
}

// WithoutFingerprint returns n with its fingerprint erased (set to absent).
// Used by the integrator's multi-provider fingerprint-erase tie-break.
func (n Node) WithoutFingerprint() Node {
	n.fingerprint = ""
	n.hasFingerprint = false
	return n
}

// Fingerprint returns the node's fingerprint and whether one is present.
func (n Node) Fingerprint() (string, bool) {
	return n.fingerprint, n.hasFingerprint
}

// Source returns the node's owning source path and whether one is present.
func (n Node) Source() (string, bool) {
	return n.source, n.hasSource
}

// IsExpat reports whether n lacks an owning source: a provider for a key
// has not yet been encountered.
func (n Node) IsExpat() bool {
	return !n.hasSource
}

// String returns a human-readable rendition of the node, for logs and dot
// dumps.
func (n Node) String() string {
	source := "<expat>"
	if n.hasSource {
		source = n.source
	}
	fingerprint := ""
	if n.hasFingerprint {
		fingerprint = "@" + n.fingerprint
	}
	return fmt.Sprintf("%s%s[%s]", n.Key, fingerprint, source)
}
