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

	"go.uber.org/zap"

	"github.com/cookieandscream/scalarvm/scalar"
	"github.com/cookieandscream/scalarvm/symtable"
)

func debugThread(th *Thread) []zap.Field {
	return []zap.Field{zap.String("thread_id", th.id.String()), zap.Int("pc", th.pc)}
}

// handler executes the instruction at th.pc and returns the signed
// delta to add to the program counter, exactly as bytecode.c's inst_*
// functions do.
type handler func(th *Thread) int

var table [opcodeCount]handler

func init() {
	table[END] = opEND
	table[NOOP] = opNOOP
	table[CALL] = opCALL
	table[CORO] = opCORO
	table[RETURN] = opRETURN
	table[DROP] = opDROP
	table[SWAP] = opSWAP
	table[DUP] = opDUP
	table[OVER] = opOVER
	table[AND] = opAND
	table[OR] = opOR
	table[XOR] = opXOR
	table[NOT] = opNOT
	table[BRANCH] = opBRANCH
	table[BRANCH0] = opBRANCH0
	table[SYMDEF] = opSYMDEF
	table[SYMFIND] = opSYMFIND
	table[SYMCLONE] = opSYMCLONE
	table[SYMUNDEF] = opSYMUNDEF
	table[SRLOCK] = opSRLOCK
	table[SRUNLOCK] = opSRUNLOCK
	table[SRREAD] = opSRREAD
	table[SRWRITE] = opSRWRITE
	table[ARLEN] = opARLEN
	table[ARINDEX] = opARINDEX
	table[ARSLICE] = opARSLICE
	table[ARLIST] = opARLIST
	table[ARFILL] = opARFILL
	table[ARPUSH] = opARPUSH
	table[ARUNSHFT] = opARUNSHFT
	table[ARPOP] = opARPOP
	table[ARSHFT] = opARSHFT
	table[HRLEN] = opHRLEN
	table[HRINDEX] = opHRINDEX
	table[HRSLICE] = opHRSLICE
	table[HRLISTK] = opHRLISTK
	table[HRLISTV] = opHRLISTV
	table[HRLISTP] = opHRLISTP
	table[HRFILL] = opHRFILL
	table[HRKEYEX] = opHRKEYEX
	table[HRKEYDEL] = opHRKEYDEL
	table[CRTRYRD] = opCRTRYRD
	table[CRREAD] = opCRREAD
	table[CRWRITE] = opCRWRITE
	table[FRCALL] = opFRCALL
	table[FRCORO] = opFRCORO
	table[INTLIT] = opINTLIT
	table[INTADD] = opINTADD
	table[INTSUB] = opINTSUB
	table[INTMUL] = opINTMUL
	table[INTDIV] = opINTDIV
	table[INTMOD] = opINTMOD
	table[INTLT0] = opINTLT0
	table[INTGT0] = opINTGT0
	table[INTINCR] = opINTINCR
	table[INTDECR] = opINTDECR
	table[STRLIT] = opSTRLIT
	table[STRXPLODE] = opSTRXPLODE
	table[STRCAT] = opSTRCAT
	table[FLTLIT] = opFLTLIT
	table[FLTADD] = opFLTADD
	table[FLTSUB] = opFLTSUB
	table[FLTMUL] = opFLTMUL
	table[FLTDIV] = opFLTDIV
	table[FLTMOD] = opFLTMOD
	table[FLTLT0] = opFLTLT0
	table[FLTGT0] = opFLTGT0
	table[FUNLIT] = opFUNLIT
	table[OUT] = opOUT
	table[OUTL] = opOUTL
	table[IN] = opIN
	table[UNDEF] = opUNDEF
	table[STDIN] = opSTDIN
	table[STDOUT] = opSTDOUT
	table[STDERR] = opSTDERR
	table[CHR] = opCHR
	table[ORD] = opORD
}

// --- operand decoding, relative to th.pc

func (th *Thread) operand(off int) []byte { return th.rt.Program[th.pc+off:] }
func (th *Thread) u16(off int) uint16     { return binary.LittleEndian.Uint16(th.operand(off)) }
func (th *Thread) u32(off int) uint32     { return binary.LittleEndian.Uint32(th.operand(off)) }
func (th *Thread) i32(off int) int32      { return int32(th.u32(off)) }
func (th *Thread) i64(off int) int64      { return int64(binary.LittleEndian.Uint64(th.operand(off))) }
func (th *Thread) f64(off int) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(th.operand(off)))
}

// Run executes this thread until END or the bytecode runs out.
// Spec.md §4.7: "the interpreter loop reads the opcode byte at
// bytecode[pc], dispatches through a fixed table keyed by opcode, and
// adds the returned signed delta to pc."
func (th *Thread) Run() error {
	for th.pc >= 0 && th.pc < len(th.rt.Program) {
		op := Opcode(th.rt.Program[th.pc])
		if int(op) >= len(table) || table[op] == nil {
			return fmt.Errorf("vm: unknown opcode %d at pc=%d", op, th.pc)
		}
		if op == END {
			return nil
		}
		if th.rt.OnOpcode != nil {
			th.rt.OnOpcode(op.String())
		}
		delta := table[op](th)
		th.pc += delta
	}
	return nil
}

func opEND(th *Thread) int  { return 0 }
func opNOOP(th *Thread) int { return 1 }

// --- control flow

func opCALL(th *Thread) int {
	dest := int(th.u32(1))
	th.scope = symtable.NewScope(th.scope)
	th.rsPush(th.pc + 1 + 4)
	return dest - th.pc
}

func opRETURN(th *Thread) int {
	if parent := th.scope.Parent(); parent != nil {
		th.scope.Drain(func(sym symtable.Symbol) { th.releaseSymbol(sym) })
		th.scope = parent
	}
	dest := th.rsPop()
	return dest - th.pc
}

func opFRCALL(th *Thread) int {
	fr := th.dsPop()
	dest := int(uint32(fr.DerefRaw()))
	th.rsPush(th.pc + 1)
	th.scope = symtable.NewScope(th.scope)
	return dest - th.pc
}

// coroSpawnArgs pops the thread-handoff count k from the data stack
// (an INTLIT k the compiler emits immediately before CORO/FRCORO; see
// SPEC_FULL.md "Open Question resolution"), then pops the top k values
// and returns them, bottom to top, as the child's initial stack.
func (th *Thread) coroSpawnArgs() []scalar.Scalar {
	k := int(th.dsPop().AsInt())
	if k < 0 {
		k = 0
	}
	if k > len(th.ds) {
		k = len(th.ds)
	}
	n := len(th.ds)
	args := append([]scalar.Scalar(nil), th.ds[n-k:]...)
	th.ds = th.ds[:n-k]
	return args
}

func opCORO(th *Thread) int {
	dest := int(th.u32(1))
	args := th.coroSpawnArgs()
	child := NewThread(th.rt, th.scope, args, dest)
	logCoroSpawn(th.rt, dest, len(args))
	th.rt.Spawn(child.Run)
	return 1 + 4
}

func opFRCORO(th *Thread) int {
	fr := th.dsPop()
	dest := int(uint32(fr.DerefRaw()))
	args := th.coroSpawnArgs()
	child := NewThread(th.rt, th.scope, args, dest)
	logCoroSpawn(th.rt, dest, len(args))
	th.rt.Spawn(child.Run)
	return 1
}

func logCoroSpawn(rt *Runtime, dest, argc int) {
	if rt.CoroutineLog != nil {
		rt.CoroutineLog.Debug("spawning thread", zap.Int("pc", dest), zap.Int("argc", argc))
	}
}

func opBRANCH(th *Thread) int {
	offset := int(th.i32(1))
	return offset
}

func opBRANCH0(th *Thread) int {
	offset := int(th.i32(1))
	a := th.dsPop()
	if !a.AsBool() {
		return offset
	}
	return 1 + 4
}

// --- stack

func opDROP(th *Thread) int { th.dsPop(); return 1 }
func opSWAP(th *Thread) int { th.dsSwap(); return 1 }
func opDUP(th *Thread) int  { th.dsDup(); return 1 }
func opOVER(th *Thread) int { th.dsOver(); return 1 }

// --- logic (spec.md §4.7: "on truthiness; push 0/1")

func logicOp(th *Thread, f func(a, b bool) bool) int {
	b := th.dsPop()
	a := th.dsPop()
	var out scalar.Scalar
	if f(a.AsBool(), b.AsBool()) {
		out.SetInt(1)
	} else {
		out.SetInt(0)
	}
	th.dsPush(out)
	return 1
}

func opAND(th *Thread) int { return logicOp(th, func(a, b bool) bool { return a && b }) }
func opOR(th *Thread) int  { return logicOp(th, func(a, b bool) bool { return a || b }) }
func opXOR(th *Thread) int { return logicOp(th, func(a, b bool) bool { return a != b }) }

func opNOT(th *Thread) int {
	a := th.dsPop()
	var out scalar.Scalar
	if a.AsBool() {
		out.SetInt(0)
	} else {
		out.SetInt(1)
	}
	th.dsPush(out)
	return 1
}
