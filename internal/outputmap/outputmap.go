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

// Package outputmap reads the output-file map: the driver-provided mapping
// from input path to the set of output artifacts the compiler will produce
// for it. Per spec.md §6, the engine reads only the "deps" entry — the
// path to that input's per-file dependency artifact.
package outputmap

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Map is a decoded output-file map.
type Map struct {
	// entries is input path -> file type -> output path.
	entries map[string]map[string]string
}

// fileEntry is the YAML shape of one input's output-file record.
type fileEntry map[string]string

// document is the YAML shape of the whole output-file map.
type document map[string]fileEntry

// Parse decodes an output-file map from YAML bytes.
func Parse(data []byte) (*Map, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("outputmap: decoding: %w", err)
	}
	entries := make(map[string]map[string]string, len(doc))
	for input, files := range doc {
		entries[input] = map[string]string(files)
	}
	return &Map{entries: entries}, nil
}

// Load reads and parses the output-file map at path.
func Load(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("outputmap: reading %s: %w", path, err)
	}
	return Parse(data)
}

// DepsPath returns the dependency-artifact path the driver will write for
// input, and whether one is declared.
func (m *Map) DepsPath(input string) (string, bool) {
	files, ok := m.entries[input]
	if !ok {
		return "", false
	}
	path, ok := files["deps"]
	return path, ok
}

// Inputs returns every input path declared in the map, in no particular
// order.
func (m *Map) Inputs() []string {
	inputs := make([]string, 0, len(m.entries))
	for input := range m.entries {
		inputs = append(inputs, input)
	}
	return inputs
}
