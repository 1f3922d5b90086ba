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
	"fmt"
	"math"
	"strings"

	"github.com/cookieandscream/scalarvm/internal/pool"
	"github.com/cookieandscream/scalarvm/scalar"
)

// --- literals

func opINTLIT(th *Thread) int {
	var a scalar.Scalar
	a.SetInt(th.i64(1))
	th.dsPush(a)
	return 1 + 8
}

func opFLTLIT(th *Thread) int {
	var a scalar.Scalar
	a.SetFloat(th.f64(1))
	th.dsPush(a)
	return 1 + 8
}

func opSTRLIT(th *Thread) int {
	length := int(th.u16(1))
	var s scalar.Scalar
	if length > 0 {
		s.SetString(string(th.operand(3)[:length]))
	} else {
		s.SetString("")
	}
	th.dsPush(s)
	return 1 + 2 + length
}

func opFUNLIT(th *Thread) int {
	dest := th.u32(1)
	var a scalar.Scalar
	a.SetRef(scalar.FunctionRef, pool.Handle(dest))
	th.dsPush(a)
	return 1 + 4
}

func opUNDEF(th *Thread) int {
	var a scalar.Scalar
	th.dsPush(a)
	return 1
}

// --- integer numerics (spec.md §4.7: "Integer division by zero and
// modulo by zero are defined to push 0.")

func opINTADD(th *Thread) int { return intBinOp(th, func(a, b int64) int64 { return a + b }) }
func opINTSUB(th *Thread) int { return intBinOp(th, func(a, b int64) int64 { return a - b }) }
func opINTMUL(th *Thread) int { return intBinOp(th, func(a, b int64) int64 { return a * b }) }

func opINTDIV(th *Thread) int {
	return intBinOp(th, func(a, b int64) int64 {
		if b == 0 {
			return 0
		}
		return a / b
	})
}

func opINTMOD(th *Thread) int {
	return intBinOp(th, func(a, b int64) int64 {
		if b == 0 {
			return 0
		}
		return a % b
	})
}

func intBinOp(th *Thread, f func(a, b int64) int64) int {
	b := th.dsPop()
	a := th.dsPop()
	var c scalar.Scalar
	c.SetInt(f(a.AsInt(), b.AsInt()))
	th.dsPush(c)
	return 1
}

func opINTLT0(th *Thread) int {
	a := th.dsPop()
	var b scalar.Scalar
	if a.AsInt() < 0 {
		b.SetInt(1)
	} else {
		b.SetInt(0)
	}
	th.dsPush(b)
	return 1
}

func opINTGT0(th *Thread) int {
	a := th.dsPop()
	var b scalar.Scalar
	if a.AsInt() > 0 {
		b.SetInt(1)
	} else {
		b.SetInt(0)
	}
	th.dsPush(b)
	return 1
}

func opINTINCR(th *Thread) int {
	a := th.dsPop()
	var b scalar.Scalar
	b.SetInt(a.AsInt() + 1)
	th.dsPush(b)
	return 1
}

func opINTDECR(th *Thread) int {
	a := th.dsPop()
	var b scalar.Scalar
	b.SetInt(a.AsInt() - 1)
	th.dsPush(b)
	return 1
}

// --- floating numerics (spec.md §4.7: "Floating ops follow IEEE-754
// default modes", so division/mod by zero produce Inf/NaN, not 0).

func opFLTADD(th *Thread) int { return fltBinOp(th, func(a, b float64) float64 { return a + b }) }
func opFLTSUB(th *Thread) int { return fltBinOp(th, func(a, b float64) float64 { return a - b }) }
func opFLTMUL(th *Thread) int { return fltBinOp(th, func(a, b float64) float64 { return a * b }) }
func opFLTDIV(th *Thread) int { return fltBinOp(th, func(a, b float64) float64 { return a / b }) }
func opFLTMOD(th *Thread) int { return fltBinOp(th, math.Mod) }

func fltBinOp(th *Thread, f func(a, b float64) float64) int {
	b := th.dsPop()
	a := th.dsPop()
	var c scalar.Scalar
	c.SetFloat(f(a.AsFloat(), b.AsFloat()))
	th.dsPush(c)
	return 1
}

func opFLTLT0(th *Thread) int {
	a := th.dsPop()
	var b scalar.Scalar
	if a.AsFloat() < 0 {
		b.SetInt(1)
	} else {
		b.SetInt(0)
	}
	th.dsPush(b)
	return 1
}

func opFLTGT0(th *Thread) int {
	a := th.dsPop()
	var b scalar.Scalar
	if a.AsFloat() > 0 {
		b.SetInt(1)
	} else {
		b.SetInt(0)
	}
	th.dsPush(b)
	return 1
}

// --- strings

func opSTRCAT(th *Thread) int {
	b := th.dsPop()
	a := th.dsPop()
	var c scalar.Scalar
	c.SetString(a.AsString() + b.AsString())
	th.dsPush(c)
	return 1
}

// opSTRXPLODE ( s -- c1..cn n ): not present in the kept bytecode.c;
// explodes a string into one scalar per byte, then the count.
func opSTRXPLODE(th *Thread) int {
	s := th.dsPop()
	str := s.AsString()
	for i := 0; i < len(str); i++ {
		var c scalar.Scalar
		c.SetString(string(str[i]))
		th.dsPush(c)
	}
	var n scalar.Scalar
	n.SetInt(int64(len(str)))
	th.dsPush(n)
	return 1
}

// opCHR ( i -- s ): not present in the kept bytecode.c; converts a
// byte value to a one-character string.
func opCHR(th *Thread) int {
	i := th.dsPop()
	var s scalar.Scalar
	s.SetString(string([]byte{byte(i.AsInt())}))
	th.dsPush(s)
	return 1
}

// opORD ( s -- i ): inverse of CHR; the empty string ords to 0.
func opORD(th *Thread) int {
	s := th.dsPop()
	str := s.AsString()
	var i scalar.Scalar
	if len(str) > 0 {
		i.SetInt(int64(str[0]))
	} else {
		i.SetInt(0)
	}
	th.dsPush(i)
	return 1
}

// --- I/O (spec.md §4.7/§6: OUT writes scalar-as-string, OUTL appends
// a newline, IN reads one line stripped of its trailing newline)

func opOUT(th *Thread) int {
	a := th.dsPop()
	fmt.Fprint(th.rt.Stdout, a.AsString())
	return 1
}

func opOUTL(th *Thread) int {
	a := th.dsPop()
	fmt.Fprintln(th.rt.Stdout, a.AsString())
	return 1
}

func opIN(th *Thread) int {
	line, err := th.rt.readStdinLine()
	if err != nil && line == "" {
		var undef scalar.Scalar
		th.dsPush(undef)
		return 1
	}
	var s scalar.Scalar
	s.SetString(strings.TrimSuffix(line, "\n"))
	th.dsPush(s)
	return 1
}

// opSTDIN/STDOUT/STDERR push a small sentinel int identifying one of
// the three standard streams, for use by higher-level library code
// built atop the core opcodes; the core OUT/OUTL/IN opcodes always
// target the runtime's configured stdout/stdin directly and ignore
// these markers (spec.md §6 names no stream-selection opcode
// semantics beyond their existence in the opcode family list).
const (
	streamStdin  = 0
	streamStdout = 1
	streamStderr = 2
)

func opSTDIN(th *Thread) int {
	var s scalar.Scalar
	s.SetInt(streamStdin)
	th.dsPush(s)
	return 1
}

func opSTDOUT(th *Thread) int {
	var s scalar.Scalar
	s.SetInt(streamStdout)
	th.dsPush(s)
	return 1
}

func opSTDERR(th *Thread) int {
	var s scalar.Scalar
	s.SetInt(streamStderr)
	th.dsPush(s)
	return 1
}
