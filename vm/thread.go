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
	"github.com/google/uuid"

	"github.com/cookieandscream/scalarvm/scalar"
	"github.com/cookieandscream/scalarvm/symtable"
)

// Thread is one parallel OS-thread-equivalent goroutine: its own data
// stack, return stack, program counter and symbol scope, sharing the
// Runtime's pools and program. Grounded on vm_context_t as used
// throughout bytecode.c (vm_ds_push/pop/swap/dup/over, vm_rs_push/pop,
// vm_start_scope/vm_end_scope), whose definition was not itself kept
// in original_source.
type Thread struct {
	rt    *Runtime
	id    uuid.UUID
	pc    int
	ds    []scalar.Scalar
	rs    []int
	scope *symtable.Scope
}

// NewThread creates a thread starting execution at entry, with
// initialStack as its pre-populated data stack (bottom to top) and a
// fresh scope parented to parentScope (nil for the outermost thread).
func NewThread(rt *Runtime, parentScope *symtable.Scope, initialStack []scalar.Scalar, entry int) *Thread {
	return &Thread{
		rt:    rt,
		id:    uuid.New(),
		pc:    entry,
		ds:    append([]scalar.Scalar(nil), initialStack...),
		scope: symtable.NewScope(parentScope),
	}
}

// --- data stack

func (th *Thread) dsPush(v scalar.Scalar) {
	th.ds = append(th.ds, v)
}

// dsPop pops the top of the data stack, or returns Undef on underflow
// (spec.md §7 kind 3: "Stack underflow on pop from empty: pops Undef").
func (th *Thread) dsPop() scalar.Scalar {
	n := len(th.ds)
	if n == 0 {
		if th.rt.Debug {
			th.rt.Log.Debug("data stack underflow", debugThread(th)...)
		}
		return scalar.Scalar{}
	}
	v := th.ds[n-1]
	th.ds = th.ds[:n-1]
	return v
}

func (th *Thread) dsTop() scalar.Scalar {
	n := len(th.ds)
	if n == 0 {
		return scalar.Scalar{}
	}
	return th.ds[n-1]
}

func (th *Thread) dsSwap() {
	n := len(th.ds)
	if n < 2 {
		return
	}
	th.ds[n-1], th.ds[n-2] = th.ds[n-2], th.ds[n-1]
}

func (th *Thread) dsDup() {
	top := th.dsTop()
	var clone scalar.Scalar
	clone.Clone(&top)
	th.dsPush(clone)
}

func (th *Thread) dsOver() {
	n := len(th.ds)
	if n < 2 {
		th.dsPush(scalar.Scalar{})
		return
	}
	var clone scalar.Scalar
	clone.Clone(&th.ds[n-2])
	th.dsPush(clone)
}

// --- return stack

func (th *Thread) rsPush(addr int) {
	th.rs = append(th.rs, addr)
}

func (th *Thread) rsPop() int {
	n := len(th.rs)
	if n == 0 {
		if th.rt.Debug {
			th.rt.Log.Debug("return stack underflow", debugThread(th)...)
		}
		return len(th.rt.Program)
	}
	addr := th.rs[n-1]
	th.rs = th.rs[:n-1]
	return addr
}
