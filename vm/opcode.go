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

// Package vm implements the bytecode dispatch loop of spec.md §4.7,
// grounded on bytecode.h/bytecode.c in original_source: a flat opcode
// table keyed by a single byte, each handler returning the signed
// delta to add to the program counter. Operand widths are fixed and
// little-endian here rather than the original's platform-width C
// types (intptr_t/uintptr_t); see DESIGN.md for the encoding choice.
package vm

// Opcode is the single byte at the head of each instruction.
type Opcode byte

const (
	END Opcode = iota
	NOOP
	CALL    // uint32 function handle
	CORO    // uint32 function handle
	RETURN
	DROP
	SWAP
	DUP
	OVER
	AND
	OR
	XOR
	NOT
	BRANCH  // int32 offset
	BRANCH0 // int32 offset
	SYMDEF  // uint32 flags, uint32 identifier
	SYMFIND // uint32 identifier
	SYMCLONE // uint32 identifier
	SYMUNDEF // uint32 identifier
	SRLOCK
	SRUNLOCK
	SRREAD
	SRWRITE
	ARLEN
	ARINDEX
	ARSLICE
	ARLIST
	ARFILL
	ARPUSH
	ARUNSHFT
	ARPOP
	ARSHFT
	HRLEN
	HRINDEX
	HRSLICE
	HRLISTK
	HRLISTV
	HRLISTP
	HRFILL
	HRKEYEX
	HRKEYDEL
	CRTRYRD
	CRREAD
	CRWRITE
	FRCALL
	FRCORO
	INTLIT // int64
	INTADD
	INTSUB
	INTMUL
	INTDIV
	INTMOD
	INTLT0
	INTGT0
	INTINCR
	INTDECR
	STRLIT // uint16 length, then bytes
	STRXPLODE
	STRCAT
	FLTLIT // float64
	FLTADD
	FLTSUB
	FLTMUL
	FLTDIV
	FLTMOD
	FLTLT0
	FLTGT0
	FUNLIT // uint32 function handle
	OUT
	OUTL
	IN
	UNDEF
	STDIN
	STDOUT
	STDERR
	CHR
	ORD

	opcodeCount
)

var names = [opcodeCount]string{
	END: "END", NOOP: "NOOP", CALL: "CALL", CORO: "CORO", RETURN: "RETURN",
	DROP: "DROP", SWAP: "SWAP", DUP: "DUP", OVER: "OVER",
	AND: "AND", OR: "OR", XOR: "XOR", NOT: "NOT",
	BRANCH: "BRANCH", BRANCH0: "BRANCH0",
	SYMDEF: "SYMDEF", SYMFIND: "SYMFIND", SYMCLONE: "SYMCLONE", SYMUNDEF: "SYMUNDEF",
	SRLOCK: "SRLOCK", SRUNLOCK: "SRUNLOCK", SRREAD: "SRREAD", SRWRITE: "SRWRITE",
	ARLEN: "ARLEN", ARINDEX: "ARINDEX", ARSLICE: "ARSLICE", ARLIST: "ARLIST", ARFILL: "ARFILL",
	ARPUSH: "ARPUSH", ARUNSHFT: "ARUNSHFT", ARPOP: "ARPOP", ARSHFT: "ARSHFT",
	HRLEN: "HRLEN", HRINDEX: "HRINDEX", HRSLICE: "HRSLICE",
	HRLISTK: "HRLISTK", HRLISTV: "HRLISTV", HRLISTP: "HRLISTP", HRFILL: "HRFILL",
	HRKEYEX: "HRKEYEX", HRKEYDEL: "HRKEYDEL",
	CRTRYRD: "CRTRYRD", CRREAD: "CRREAD", CRWRITE: "CRWRITE",
	FRCALL: "FRCALL", FRCORO: "FRCORO",
	INTLIT: "INTLIT", INTADD: "INTADD", INTSUB: "INTSUB", INTMUL: "INTMUL",
	INTDIV: "INTDIV", INTMOD: "INTMOD", INTLT0: "INTLT0", INTGT0: "INTGT0",
	INTINCR: "INTINCR", INTDECR: "INTDECR",
	STRLIT: "STRLIT", STRXPLODE: "STRXPLODE", STRCAT: "STRCAT",
	FLTLIT: "FLTLIT", FLTADD: "FLTADD", FLTSUB: "FLTSUB", FLTMUL: "FLTMUL",
	FLTDIV: "FLTDIV", FLTMOD: "FLTMOD", FLTLT0: "FLTLT0", FLTGT0: "FLTGT0",
	FUNLIT: "FUNLIT", OUT: "OUT", OUTL: "OUTL", IN: "IN", UNDEF: "UNDEF",
	STDIN: "STDIN", STDOUT: "STDOUT", STDERR: "STDERR", CHR: "CHR", ORD: "ORD",
}

func (op Opcode) String() string {
	if int(op) < len(names) && names[op] != "" {
		return names[op]
	}
	return "UNKNOWN"
}
