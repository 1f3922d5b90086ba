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
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func runProgram(t *testing.T, program []byte) (*Runtime, string) {
	t.Helper()
	rt := NewRuntime(nil, false)
	var out bytes.Buffer
	rt.Stdout = &out
	require.NoError(t, rt.RunProgram(program))
	return rt, out.String()
}

func symdef(a *asm, kind uint32, id uint32) *asm {
	a.op(SYMDEF).u32(kind).u32(id)
	return a
}

func symfind(a *asm, id uint32) *asm {
	a.op(SYMFIND).u32(id)
	return a
}

// TestArithmeticScenario matches spec.md §8 S1: 6 * 7, printed with a
// trailing newline.
func TestArithmeticScenario(t *testing.T) {
	a := newAsm()
	a.op(INTLIT).i64(6)
	a.op(INTLIT).i64(7)
	a.op(INTMUL)
	a.op(OUTL)
	a.op(END)

	_, out := runProgram(t, a.resolve())
	require.Equal(t, "42\n", out)
}

// TestArrayPushPopScenario matches spec.md §8 S2: push 1, push 2, pop
// twice, each printed on its own line (LIFO order).
func TestArrayPushPopScenario(t *testing.T) {
	a := newAsm()
	symdef(a, symKindArray, 1)
	a.op(DROP)

	a.op(INTLIT).i64(1)
	symfind(a, 1)
	a.op(ARPUSH)

	a.op(INTLIT).i64(2)
	symfind(a, 1)
	a.op(ARPUSH)

	symfind(a, 1)
	a.op(ARPOP)
	a.op(OUTL)

	symfind(a, 1)
	a.op(ARPOP)
	a.op(OUTL)
	a.op(END)

	_, out := runProgram(t, a.resolve())
	require.Equal(t, "2\n1\n", out)
}

// TestHashSetExistsScenario matches spec.md §8 S3: set a key, then
// report existence of that key and of an absent one.
func TestHashSetExistsScenario(t *testing.T) {
	a := newAsm()
	symdef(a, symKindHash, 1)
	a.op(DROP)

	a.op(INTLIT).i64(9)
	a.op(STRLIT).str("k")
	symfind(a, 1)
	a.op(HRINDEX)
	a.op(SRWRITE)

	a.op(STRLIT).str("k")
	symfind(a, 1)
	a.op(HRKEYEX)
	a.op(OUTL)

	a.op(STRLIT).str("z")
	symfind(a, 1)
	a.op(HRKEYEX)
	a.op(OUTL)
	a.op(END)

	_, out := runProgram(t, a.resolve())
	require.Equal(t, "1\n0\n", out)
}

// TestChannelBetweenTwoThreadsScenario matches spec.md §8 S4: one
// thread writes 42 to a shared channel, a CORO-spawned thread reads
// it and prints it; stdout contains exactly that one line.
func TestChannelBetweenTwoThreadsScenario(t *testing.T) {
	a := newAsm()
	symdef(a, symKindChannel, 1)
	a.op(DROP)

	a.op(INTLIT).i64(0) // k=0 args handed to the child thread
	a.op(CORO).ref32("reader")

	a.op(INTLIT).i64(42)
	symfind(a, 1)
	a.op(CRWRITE) // ( 42 cr -- )
	a.op(END)

	a.mark("reader")
	symfind(a, 1)
	a.op(CRREAD)
	a.op(OUTL)
	a.op(END)

	_, out := runProgram(t, a.resolve())
	require.Equal(t, "42\n", out)
}

// TestSymcloneUndefineLeavesOriginalIntact matches spec.md §8 S5:
// cloning a symbol into a nested scope and undefining the clone there
// must not disturb the original binding's value once the nested scope
// returns.
func TestSymcloneUndefineLeavesOriginalIntact(t *testing.T) {
	a := newAsm()
	symdef(a, symKindScalar, 1)
	a.op(DROP)
	a.op(INTLIT).i64(5)
	symfind(a, 1)
	a.op(SRWRITE)

	a.op(CALL).ref32("inner")

	symfind(a, 1)
	a.op(SRREAD)
	a.op(OUTL)
	a.op(END)

	a.mark("inner")
	a.op(SYMCLONE).u32(1)
	a.op(DROP)
	a.op(SYMUNDEF).u32(1)
	a.op(RETURN)

	_, out := runProgram(t, a.resolve())
	require.Equal(t, "5\n", out)
}

// TestArrayAutoGrowsOnOutOfRangeIndex matches spec.md §8 S6: indexing
// an array past its current size grows it, filling the gap with
// Undef, rather than erroring. The first read (index 0, never
// written) coerces to the empty string; the second (index 3) reads
// back the 99 just written.
func TestArrayAutoGrowsOnOutOfRangeIndex(t *testing.T) {
	a := newAsm()
	symdef(a, symKindArray, 1)
	a.op(DROP)

	a.op(INTLIT).i64(99)
	a.op(INTLIT).i64(3)
	symfind(a, 1)
	a.op(ARINDEX) // ( 99 3 ar -- 99 sr )
	a.op(SRWRITE) // ( 99 sr -- )

	a.op(INTLIT).i64(0)
	symfind(a, 1)
	a.op(ARINDEX)
	a.op(SRREAD)
	a.op(OUTL)

	a.op(INTLIT).i64(3)
	symfind(a, 1)
	a.op(ARINDEX)
	a.op(SRREAD)
	a.op(OUTL)
	a.op(END)

	_, out := runProgram(t, a.resolve())
	require.Equal(t, "\n99\n", out)
}
