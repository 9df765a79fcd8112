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

// Package jsoncdecode decodes a textual, hand-writable per-file dependency
// artifact (JSON with "//" comments and trailing commas) into a
// filedeps.Graph. It is a convenience encoding for fixtures and tooling;
// the real compiler's emitted artifact may use a different on-disk
// encoding entirely, since filedeps.Graph is agnostic to it.
package jsoncdecode

import (
	"encoding/json"
	"fmt"

	"github.com/driftlang/driftc/internal/depgraph/depkey"
	"github.com/driftlang/driftc/internal/depgraph/filedeps"
	"github.com/tidwall/jsonc"
)

// wireNode is the JSONC-level shape of one filedeps.FileNode.
type wireNode struct {
	Seq         int    `json:"seq"`
	Aspect      string `json:"aspect"`
	Kind        string `json:"kind"`
	Context     string `json:"context,omitempty"`
	Name        string `json:"name,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Provides    bool   `json:"provides,omitempty"`
	Uses        []int  `json:"uses,omitempty"`
}

type wireGraph struct {
	Nodes []wireNode `json:"nodes"`
}

// Decode parses JSONC-encoded bytes into a filedeps.Graph.
func Decode(data []byte) (*filedeps.Graph, error) {
	var wire wireGraph
	if err := json.Unmarshal(jsonc.ToJSON(data), &wire); err != nil {
		return nil, fmt.Errorf("jsoncdecode: %w", err)
	}

	g := &filedeps.Graph{Nodes: make([]filedeps.FileNode, 0, len(wire.Nodes))}
	for _, wn := range wire.Nodes {
		key, err := decodeKey(wn)
		if err != nil {
			return nil, fmt.Errorf("jsoncdecode: node %d: %w", wn.Seq, err)
		}
		var fingerprint *string
		if wn.Fingerprint != "" {
			fp := wn.Fingerprint
			fingerprint = &fp
		}
		g.Nodes = append(g.Nodes, filedeps.FileNode{
			Seq:             wn.Seq,
			Key:             key,
			Fingerprint:     fingerprint,
			DefsIDependUpon: wn.Uses,
			IsProvides:      wn.Provides,
		})
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func decodeKey(wn wireNode) (depkey.Key, error) {
	var aspect depkey.Aspect
	switch wn.Aspect {
	case "interface", "":
		aspect = depkey.AspectInterface
	case "implementation":
		aspect = depkey.AspectImplementation
	default:
		return depkey.Key{}, fmt.Errorf("unknown aspect %q", wn.Aspect)
	}

	designator := depkey.Designator{Context: wn.Context, Name: wn.Name}
	switch wn.Kind {
	case "topLevel":
		designator.Kind = depkey.KindTopLevel
	case "nominal":
		designator.Kind = depkey.KindNominal
	case "potentialMember":
		designator.Kind = depkey.KindPotentialMember
	case "member":
		designator.Kind = depkey.KindMember
	case "dynamicLookup":
		designator.Kind = depkey.KindDynamicLookup
	case "externalDepend":
		designator.Kind = depkey.KindExternalDepend
	case "sourceFileProvide":
		designator.Kind = depkey.KindSourceFileProvide
	default:
		return depkey.Key{}, fmt.Errorf("unknown designator kind %q", wn.Kind)
	}

	return depkey.NewKey(aspect, designator)
}

// Encode renders g back to the JSONC wire shape, as plain JSON (comments
// are a read-side convenience only). Used by tests and by fixture-writing
// tooling.
func Encode(g *filedeps.Graph) ([]byte, error) {
	wire := wireGraph{Nodes: make([]wireNode, 0, len(g.Nodes))}
	for _, n := range g.Nodes {
		wn := wireNode{
			Seq:      n.Seq,
			Context:  n.Key.Designator.Context,
			Name:     n.Key.Designator.Name,
			Provides: n.IsProvides,
			Uses:     n.DefsIDependUpon,
		}
		if n.Key.Aspect == depkey.AspectImplementation {
			wn.Aspect = "implementation"
		} else {
			wn.Aspect = "interface"
		}
		wn.Kind = n.Key.Designator.Kind.String()
		if n.Fingerprint != nil {
			wn.Fingerprint = *n.Fingerprint
		}
		wire.Nodes = append(wire.Nodes, wn)
	}
	return json.MarshalIndent(wire, "", "  ")
}
