// Copyright 2026 The ScalarVM Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package scalarvmcmd

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

// zstdMagic is the 4-byte frame magic number every zstd stream starts
// with, little-endian 0xFD2FB528.
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// LoadProgram reads a bytecode artifact from path, transparently
// decompressing it if its contents open with the zstd frame magic
// number; this is how build pipelines ship bytecode without bloating
// the artifact, the same reasoning caddy's own install packages apply
// to its release tarballs. Detection reads the content itself rather
// than trusting the file extension, so a renamed or extensionless
// artifact still loads correctly.
func LoadProgram(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scalarvm: opening program %q: %w", path, err)
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("scalarvm: reading program %q: %w", path, err)
	}

	if !bytes.HasPrefix(raw, zstdMagic) {
		return raw, nil
	}

	dec, err := zstd.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("scalarvm: opening zstd stream %q: %w", path, err)
	}
	defer dec.Close()
	return io.ReadAll(dec)
}
