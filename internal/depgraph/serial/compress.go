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

package serial

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/driftlang/driftc/internal/depgraph"
	"github.com/klauspost/compress/zstd"
)

// zstdMagic is the four-byte frame magic number zstd prefixes every frame
// with; sniffing it lets ReadAuto tell a compressed graph file from a plain
// one without a side channel.
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// WriteCompressed is Write, with the record stream wrapped in a zstd frame.
func WriteCompressed(w io.Writer, g *depgraph.Graph, compilerVersion string) error {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("serial: creating zstd encoder: %w", err)
	}
	if err := Write(enc, g, compilerVersion); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// ReadAuto sniffs the zstd frame magic before the "DDEP" signature and
// transparently decompresses if present, falling back to a plain Read
// otherwise. Callers that don't know whether a given graph file was written
// with WriteCompressed or Write should use this instead of Read directly.
func ReadAuto(r io.Reader) (*Result, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(len(zstdMagic))
	if err == nil && bytes.Equal(magic, zstdMagic) {
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("serial: creating zstd decoder: %w", err)
		}
		defer dec.Close()
		return Read(dec)
	}
	return Read(br)
}
