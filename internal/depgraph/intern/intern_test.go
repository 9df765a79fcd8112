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

package intern

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmptyStringIsHandleZero(t *testing.T) {
	t.Parallel()
	table := New()
	require.Equal(t, Handle(0), table.Intern(""))
	s, ok := table.Lookup(0)
	require.True(t, ok)
	require.Equal(t, "", s)
}

func TestInternIsStable(t *testing.T) {
	t.Parallel()
	table := New()
	h1 := table.Intern("foo")
	h2 := table.Intern("foo")
	require.Equal(t, h1, h2)

	h3 := table.Intern("bar")
	require.NotEqual(t, h1, h3)
}

func TestLookupRoundTrip(t *testing.T) {
	t.Parallel()
	table := New()
	h := table.Intern("hello")
	s, ok := table.Lookup(h)
	require.True(t, ok)
	require.Equal(t, "hello", s)
}

func TestLookupUnknownHandle(t *testing.T) {
	t.Parallel()
	table := New()
	_, ok := table.Lookup(Handle(999))
	require.False(t, ok)
}

func TestLen(t *testing.T) {
	t.Parallel()
	table := New()
	require.Equal(t, 1, table.Len())
	table.Intern("a")
	table.Intern("b")
	table.Intern("a")
	require.Equal(t, 3, table.Len())
}

func TestForEachOrder(t *testing.T) {
	t.Parallel()
	table := New()
	table.Intern("a")
	table.Intern("b")
	var handles []Handle
	var strs []string
	table.ForEach(func(h Handle, s string) {
		handles = append(handles, h)
		strs = append(strs, s)
	})
	require.Equal(t, []Handle{0, 1, 2}, handles)
	require.Equal(t, []string{"", "a", "b"}, strs)
}
