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

package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisassembleDecodesOperandsAndOffsets(t *testing.T) {
	a := newAsm()
	a.op(INTLIT).i64(6)
	a.op(INTLIT).i64(7)
	a.op(INTMUL)
	a.op(OUTL)
	a.op(END)
	program := a.resolve()

	insns, err := Disassemble(program)
	require.NoError(t, err)
	require.Len(t, insns, 5)

	assert.Equal(t, 0, insns[0].Offset)
	assert.Equal(t, "INTLIT 6", insns[0].Text)
	assert.Equal(t, 9, insns[0].Width)

	assert.Equal(t, 9, insns[1].Offset)
	assert.Equal(t, "INTLIT 7", insns[1].Text)

	assert.Equal(t, 18, insns[2].Offset)
	assert.Equal(t, "INTMUL", insns[2].Text)

	assert.Equal(t, "OUTL", insns[3].Text)
	assert.Equal(t, "END", insns[4].Text)
}

func TestDisassembleDecodesStrlitAndBranch(t *testing.T) {
	a := newAsm()
	a.op(STRLIT).str("hi")
	a.op(BRANCH).i32(5)
	a.op(END)
	program := a.resolve()

	insns, err := Disassemble(program)
	require.NoError(t, err)
	require.Len(t, insns, 3)

	assert.Equal(t, `STRLIT "hi"`, insns[0].Text)
	assert.Equal(t, 5, insns[0].Width)
	assert.Equal(t, "BRANCH 5", insns[1].Text)
}

func TestDisassembleTruncatedInstructionIsAnError(t *testing.T) {
	program := []byte{byte(INTLIT), 0x01, 0x02}
	_, err := Disassemble(program)
	assert.Error(t, err)
}
