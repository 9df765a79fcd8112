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

// Package sourcemap implements the bidirectional map between input file
// paths and the dependency-artifact paths the compiler emits for them.
package sourcemap

import "fmt"

// Map is a bidirectional input↔source map, established once at startup
// from the output-file-map collaborator.
type Map struct {
	inputToSource map[string]string
	sourceToInput map[string]string
}

// New returns an empty Map.
func New() *Map {
	return &Map{
		inputToSource: make(map[string]string),
		sourceToInput: make(map[string]string),
	}
}

// Add records the pairing between input and source. It is an error to add
// an input or a source that is already recorded with a different partner.
func (m *Map) Add(input, source string) error {
	if existing, ok := m.inputToSource[input]; ok && existing != source {
		return fmt.Errorf("sourcemap: input %q already mapped to source %q, not %q", input, existing, source)
	}
	if existing, ok := m.sourceToInput[source]; ok && existing != input {
		return fmt.Errorf("sourcemap: source %q already mapped to input %q, not %q", source, existing, input)
	}
	m.inputToSource[input] = source
	m.sourceToInput[source] = input
	return nil
}

// Source returns the dependency-artifact path for input, if known.
func (m *Map) Source(input string) (string, bool) {
	s, ok := m.inputToSource[input]
	return s, ok
}

// Input returns the input path that owns source, if known.
func (m *Map) Input(source string) (string, bool) {
	i, ok := m.sourceToInput[source]
	return i, ok
}

// Inputs returns every input path recorded in the map, in no particular
// order.
func (m *Map) Inputs() []string {
	inputs := make([]string, 0, len(m.inputToSource))
	for input := range m.inputToSource {
		inputs = append(inputs, input)
	}
	return inputs
}
