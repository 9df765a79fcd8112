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

// Package intern implements a bidirectional string-to-handle table.
//
// Handles are small integers, used by the binary serializer (see
// internal/depgraph/serial) to keep identifiers out of the node/record
// stream. Handle 0 is always the empty string.
package intern

// Handle is a small integer identifying an interned string.
//
// The zero Handle always denotes the empty string.
type Handle uint32

// Table is a single-writer, bidirectional string<->Handle map.
//
// A Table is not safe for concurrent use; callers serialize access the same
// way the module dependency graph does (see internal/depgraph's
// single-writer contract).
type Table struct {
	strings []string
	index   map[string]Handle
}

// New returns an empty Table with the empty string already interned as
// handle 0.
func New() *Table {
	t := &Table{
		strings: []string{""},
		index:   map[string]Handle{"": 0},
	}
	return t
}

// Intern returns the Handle for s, interning it if this is the first time s
// has been seen by this Table. Handles are stable for the lifetime of the
// Table instance.
func (t *Table) Intern(s string) Handle {
	if h, ok := t.index[s]; ok {
		return h
	}
	h := Handle(len(t.strings))
	t.strings = append(t.strings, s)
	t.index[s] = h
	return h
}

// Lookup returns the string for h and whether h is a valid handle in this
// Table.
func (t *Table) Lookup(h Handle) (string, bool) {
	if int(h) >= len(t.strings) {
		return "", false
	}
	return t.strings[h], true
}

// Len returns the number of distinct strings interned, including the empty
// string at handle 0.
func (t *Table) Len() int {
	return len(t.strings)
}

// ForEach calls f for every interned string in handle order, starting at 0.
func (t *Table) ForEach(f func(Handle, string)) {
	for h, s := range t.strings {
		f(Handle(h), s)
	}
}
