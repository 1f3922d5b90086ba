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
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
)

// Instruction is one decoded bytecode instruction, as produced by
// Disassemble — the cmd package's disasm subcommand formats these for
// display.
type Instruction struct {
	Offset int
	Op     Opcode
	Text   string // mnemonic plus any decoded operand, e.g. "INTLIT 42"
	Width  int    // total bytes this instruction occupies, including the opcode byte
}

// Disassemble decodes program into a flat instruction list. It uses
// exactly the operand widths the dispatch table's handlers read (see
// dispatch.go/symbols.go/values.go); an opcode byte this function
// doesn't recognize is reported as an error rather than silently
// skipped, since a malformed stream has no well-defined width to skip.
func Disassemble(program []byte) ([]Instruction, error) {
	var out []Instruction
	pc := 0
	for pc < len(program) {
		op := Opcode(program[pc])
		width, operand, err := decodeOperand(program, pc, op)
		if err != nil {
			return out, err
		}
		out = append(out, Instruction{Offset: pc, Op: op, Text: op.String() + operand, Width: width})
		pc += width
	}
	return out, nil
}

func decodeOperand(program []byte, pc int, op Opcode) (width int, operand string, err error) {
	rest := func(off int) []byte {
		if pc+off > len(program) {
			return nil
		}
		return program[pc+off:]
	}
	need := func(n int) error {
		if pc+n > len(program) {
			return fmt.Errorf("vm: truncated instruction at offset %d (opcode %s)", pc, op)
		}
		return nil
	}

	switch op {
	case CALL, CORO, FUNLIT:
		if err := need(5); err != nil {
			return 0, "", err
		}
		dest := binary.LittleEndian.Uint32(rest(1))
		return 5, " " + strconv.FormatUint(uint64(dest), 10), nil

	case BRANCH, BRANCH0:
		if err := need(5); err != nil {
			return 0, "", err
		}
		offset := int32(binary.LittleEndian.Uint32(rest(1)))
		return 5, " " + strconv.FormatInt(int64(offset), 10), nil

	case SYMDEF:
		if err := need(9); err != nil {
			return 0, "", err
		}
		flags := binary.LittleEndian.Uint32(rest(1))
		id := binary.LittleEndian.Uint32(rest(5))
		return 9, fmt.Sprintf(" flags=%d id=%d", flags, id), nil

	case SYMFIND, SYMCLONE, SYMUNDEF:
		if err := need(5); err != nil {
			return 0, "", err
		}
		id := binary.LittleEndian.Uint32(rest(1))
		return 5, " " + strconv.FormatUint(uint64(id), 10), nil

	case INTLIT:
		if err := need(9); err != nil {
			return 0, "", err
		}
		v := int64(binary.LittleEndian.Uint64(rest(1)))
		return 9, " " + strconv.FormatInt(v, 10), nil

	case FLTLIT:
		if err := need(9); err != nil {
			return 0, "", err
		}
		v := math.Float64frombits(binary.LittleEndian.Uint64(rest(1)))
		return 9, " " + strconv.FormatFloat(v, 'g', -1, 64), nil

	case STRLIT:
		if err := need(3); err != nil {
			return 0, "", err
		}
		length := int(binary.LittleEndian.Uint16(rest(1)))
		if err := need(3 + length); err != nil {
			return 0, "", err
		}
		return 3 + length, fmt.Sprintf(" %q", rest(3)[:length]), nil

	default:
		if int(op) >= len(table) || table[op] == nil {
			return 0, "", fmt.Errorf("vm: unknown opcode %d at offset %d", op, pc)
		}
		return 1, "", nil
	}
}
