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

package scalarvm

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinWritersResolve(t *testing.T) {
	for _, name := range []string{"stdout", "stderr", "discard"} {
		w, err := OpenWriter(name)
		require.NoError(t, err)
		assert.NotNil(t, w)
	}
}

func TestOpenWriterUnknownNameIsAnError(t *testing.T) {
	_, err := OpenWriter("nope")
	assert.Error(t, err)
}

type bufferWriter struct{ buf *bytes.Buffer }

func (b bufferWriter) OpenWriter() (io.Writer, error) { return b.buf, nil }

func TestRegisterWriterAddsANewDestination(t *testing.T) {
	buf := &bytes.Buffer{}
	RegisterWriter("test-buffer", bufferWriter{buf})

	w, err := OpenWriter("test-buffer")
	require.NoError(t, err)
	_, _ = w.Write([]byte("hello"))
	assert.Equal(t, "hello", buf.String())

	assert.Contains(t, WriterNames(), "test-buffer")
}
