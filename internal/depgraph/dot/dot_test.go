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

package dot

import (
	"bytes"
	"strings"
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

func TestWriteProducesValidDigraphShape(t *testing.T) {
	t.Parallel()
	finder := node.NewFinder()

	a := mustKey(depkey.TopLevel("a"))
	w := mustKey(depkey.TopLevel("w"))

	provider := node.New(a, strp("a1"), strp("j0.ext"))
	finder.Insert(provider)

	user := node.New(w, strp("w1"), strp("j1.ext"))
	finder.Insert(user)
	finder.Record(a, user)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, finder))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "digraph depgraph {\n"))
	require.True(t, strings.HasSuffix(out, "}\n"))
	require.Contains(t, out, `label="interface:topLevel(a)\n@a1"`)
	require.Contains(t, out, `label="interface:topLevel(w)\n@w1"`)
	require.Contains(t, out, "->")
}

func TestWriteMarksExpatNodesDashed(t *testing.T) {
	t.Parallel()
	finder := node.NewFinder()
	a := mustKey(depkey.TopLevel("a"))
	finder.Insert(node.New(a, nil, nil))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, finder))
	require.Contains(t, buf.String(), "style=dashed")
}

func TestWriteMarksImplementationAspectNodesFilled(t *testing.T) {
	t.Parallel()
	finder := node.NewFinder()
	bIface := mustKey(depkey.TopLevel("b"))
	bImpl := bIface.WithImplementationAspect()
	finder.Insert(node.New(bImpl, strp("impl1"), strp("j0.ext")))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, finder))
	require.Contains(t, buf.String(), "fillcolor=lightgrey")
}

func strp(s string) *string { return &s }
