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

import "encoding/binary"

// asm is a tiny two-pass bytecode assembler used only by the scenario
// tests in vm_test.go; it is not part of the runtime.
type asm struct {
	buf     []byte
	patches map[string][]int // label name -> byte offsets needing a uint32 patch
	labels  map[string]int
}

func newAsm() *asm {
	return &asm{patches: map[string][]int{}, labels: map[string]int{}}
}

func (a *asm) here() int { return len(a.buf) }

func (a *asm) mark(label string) { a.labels[label] = a.here() }

func (a *asm) op(o Opcode) *asm {
	a.buf = append(a.buf, byte(o))
	return a
}

func (a *asm) u16(v uint16) *asm {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	a.buf = append(a.buf, b[:]...)
	return a
}

func (a *asm) u32(v uint32) *asm {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	a.buf = append(a.buf, b[:]...)
	return a
}

func (a *asm) i32(v int32) *asm { return a.u32(uint32(v)) }

func (a *asm) i64(v int64) *asm {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	a.buf = append(a.buf, b[:]...)
	return a
}

func (a *asm) str(s string) *asm {
	a.u16(uint16(len(s)))
	a.buf = append(a.buf, s...)
	return a
}

// ref32 reserves a uint32 operand to be patched with label's address
// once it is known (resolve must be called after every label is
// marked).
func (a *asm) ref32(label string) *asm {
	a.patches[label] = append(a.patches[label], a.here())
	return a.u32(0)
}

func (a *asm) resolve() []byte {
	for label, offsets := range a.patches {
		addr, ok := a.labels[label]
		if !ok {
			panic("asm: unresolved label " + label)
		}
		for _, off := range offsets {
			binary.LittleEndian.PutUint32(a.buf[off:], uint32(addr))
		}
	}
	return a.buf
}
