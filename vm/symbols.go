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
	"github.com/cookieandscream/scalarvm/array"
	"github.com/cookieandscream/scalarvm/channel"
	"github.com/cookieandscream/scalarvm/hash"
	"github.com/cookieandscream/scalarvm/internal/pool"
	"github.com/cookieandscream/scalarvm/scalar"
	"github.com/cookieandscream/scalarvm/symtable"
)

// SYMDEF's flags operand packs a type selector into the low byte and
// the shared bit into the top bit, mirroring symboltable.h's
// SYMBOL_TYPE_MASK/SYMBOL_FLAG_SHARED.
const (
	symKindScalar  uint32 = 1
	symKindArray   uint32 = 2
	symKindHash    uint32 = 3
	symKindChannel uint32 = 4
	symTypeMask    uint32 = 0x0000000F
	symSharedFlag  uint32 = 0x80000000
)

func kindToRefTag(k symtable.Kind) scalar.Tag {
	switch k {
	case symtable.ArrayKind:
		return scalar.ArrayRef
	case symtable.HashKind:
		return scalar.HashRef
	case symtable.ChannelKind:
		return scalar.ChannelRef
	default:
		return scalar.ScalarRef
	}
}

// allocateReferent creates a fresh pool slot of the requested kind and
// returns its raw handle value, for storage in a Symbol.
func (rt *Runtime) allocateReferent(kind symtable.Kind, shared bool) uint32 {
	var flags pool.Flags
	if shared {
		flags = pool.Shared
	}
	switch kind {
	case symtable.ArrayKind:
		return uint32(rt.Arrays.Allocate(flags))
	case symtable.HashKind:
		return uint32(rt.Hashes.Allocate(flags))
	case symtable.ChannelKind:
		return uint32(rt.Channels.Allocate(flags))
	default:
		return uint32(rt.Scalars.Allocate(flags))
	}
}

func (th *Thread) releaseSymbol(sym symtable.Symbol) {
	switch sym.Kind {
	case symtable.ArrayKind:
		th.rt.Arrays.Release(pool.Handle(sym.Referent))
	case symtable.HashKind:
		th.rt.Hashes.Release(pool.Handle(sym.Referent))
	case symtable.ChannelKind:
		th.rt.Channels.Release(pool.Handle(sym.Referent))
	default:
		th.rt.Scalars.Release(scalar.Handle(sym.Referent))
	}
}

func (th *Thread) pushSymbolRef(sym *symtable.Symbol) {
	var ref scalar.Scalar
	if sym == nil {
		th.dsPush(ref)
		return
	}
	ref.SetRef(kindToRefTag(sym.Kind), pool.Handle(sym.Referent))
	th.dsPush(ref)
}

func opSYMDEF(th *Thread) int {
	flags := th.u32(1)
	id := symtable.Identifier(th.u32(5))

	kindByte := flags & symTypeMask
	shared := flags&symSharedFlag != 0
	var kind symtable.Kind
	switch kindByte {
	case symKindArray:
		kind = symtable.ArrayKind
	case symKindHash:
		kind = symtable.HashKind
	case symKindChannel:
		kind = symtable.ChannelKind
	default:
		kind = symtable.ScalarKind
	}

	referent := th.rt.allocateReferent(kind, shared)
	var symFlags symtable.Flags
	if shared {
		symFlags = symtable.Shared
	}
	th.scope.Define(id, kind, symFlags, referent)
	sym := th.scope.Lookup(id)
	th.pushSymbolRef(sym)

	return 1 + 4 + 4
}

func opSYMFIND(th *Thread) int {
	id := symtable.Identifier(th.u32(1))
	th.pushSymbolRef(th.scope.Lookup(id))
	return 1 + 4
}

func opSYMCLONE(th *Thread) int {
	id := symtable.Identifier(th.u32(1))
	sym, ok := th.scope.Clone(id)
	if !ok {
		var undef scalar.Scalar
		th.dsPush(undef)
		return 1 + 4
	}
	// the cloned binding shares the original's referent; take the
	// extra refcount spec.md §4.6 requires ("taking one additional
	// refcount on the pooled handle").
	switch sym.Kind {
	case symtable.ArrayKind:
		th.rt.Arrays.Reference(pool.Handle(sym.Referent))
	case symtable.HashKind:
		th.rt.Hashes.Reference(pool.Handle(sym.Referent))
	case symtable.ChannelKind:
		th.rt.Channels.Reference(pool.Handle(sym.Referent))
	default:
		th.rt.Scalars.Reference(scalar.Handle(sym.Referent))
	}
	th.pushSymbolRef(&sym)
	return 1 + 4
}

func opSYMUNDEF(th *Thread) int {
	id := symtable.Identifier(th.u32(1))
	if sym, ok := th.scope.Undefine(id); ok {
		th.releaseSymbol(sym)
	}
	return 1 + 4
}

// --- scalar reference ops

func opSRLOCK(th *Thread) int {
	sr := th.dsTop()
	th.rt.Scalars.Lock(scalar.Handle(sr.DerefRaw()))
	return 1
}

func opSRUNLOCK(th *Thread) int {
	sr := th.dsPop()
	th.rt.Scalars.Unlock(scalar.Handle(sr.DerefRaw()))
	return 1
}

func opSRREAD(th *Thread) int {
	ref := th.dsPop()
	th.dsPush(th.rt.Scalars.GetValue(scalar.Handle(ref.DerefRaw())))
	return 1
}

func opSRWRITE(th *Thread) int {
	ref := th.dsPop()
	a := th.dsPop()
	th.rt.Scalars.SetValue(scalar.Handle(ref.DerefRaw()), &a)
	return 1
}

// --- array ops

func opARLEN(th *Thread) int {
	ar := th.dsPop()
	var n scalar.Scalar
	n.SetInt(int64(th.rt.Arrays.Size(array.Handle(ar.DerefRaw()))))
	th.dsPush(n)
	return 1
}

func opARINDEX(th *Thread) int {
	ar := th.dsPop()
	i := th.dsPop()
	s := th.rt.Arrays.ItemAt(array.Handle(ar.DerefRaw()), int(i.AsInt()))
	var sr scalar.Scalar
	sr.SetRef(scalar.ScalarRef, pool.Handle(s))
	th.rt.Scalars.Release(s)
	th.dsPush(sr)
	return 1
}

func opARPUSH(th *Thread) int {
	ar := th.dsPop()
	a := th.dsPop()
	th.rt.Arrays.Push(array.Handle(ar.DerefRaw()), &a)
	return 1
}

func opARPOP(th *Thread) int {
	ar := th.dsPop()
	th.dsPush(th.rt.Arrays.Pop(array.Handle(ar.DerefRaw())))
	return 1
}

func opARSHFT(th *Thread) int {
	ar := th.dsPop()
	th.dsPush(th.rt.Arrays.Shift(array.Handle(ar.DerefRaw())))
	return 1
}

func opARUNSHFT(th *Thread) int {
	ar := th.dsPop()
	a := th.dsPop()
	th.rt.Arrays.Unshift(array.Handle(ar.DerefRaw()), &a)
	return 1
}

// opARSLICE ( i1..in n ar -- sr1..srn ): not present in the kept
// original_source/bytecode.c (see DESIGN.md); modeled directly on
// array.Pool.Slice.
func opARSLICE(th *Thread) int {
	ar := th.dsPop()
	n := int(th.dsPop().AsInt())
	indices := make([]scalar.Scalar, n)
	for i := n - 1; i >= 0; i-- {
		indices[i] = th.dsPop()
	}
	th.rt.Arrays.Slice(array.Handle(ar.DerefRaw()), indices)
	for i := 0; i < n; i++ {
		th.dsPush(indices[i])
	}
	return 1
}

// opARLIST ( ar -- v1..vn n ): pushes every element's value then the
// count. Not present in the kept bytecode.c; symmetric to HRLISTV.
func opARLIST(th *Thread) int {
	ar := th.dsPop()
	h := array.Handle(ar.DerefRaw())
	size := th.rt.Arrays.Size(h)
	for i := 0; i < size; i++ {
		s := th.rt.Arrays.ItemAt(h, i)
		th.dsPush(th.rt.Scalars.GetValue(scalar.Handle(s)))
		th.rt.Scalars.Release(s)
	}
	var n scalar.Scalar
	n.SetInt(int64(size))
	th.dsPush(n)
	return 1
}

// opARFILL ( v1..vn n ar -- ): replaces ar's contents with the n
// values below it on the stack, symmetric to HRFILL/array.Pool.Fill.
func opARFILL(th *Thread) int {
	ar := th.dsPop()
	n := int(th.dsPop().AsInt())
	values := make([]scalar.Scalar, n)
	for i := n - 1; i >= 0; i-- {
		values[i] = th.dsPop()
	}
	th.rt.Arrays.Fill(array.Handle(ar.DerefRaw()), values)
	return 1
}

// --- hash ops

func opHRLEN(th *Thread) int {
	hr := th.dsPop()
	var n scalar.Scalar
	n.SetInt(int64(th.rt.Hashes.Size(hash.Handle(hr.DerefRaw()))))
	th.dsPush(n)
	return 1
}

func opHRINDEX(th *Thread) int {
	hr := th.dsPop()
	k := th.dsPop()
	s := th.rt.Hashes.KeyItem(hash.Handle(hr.DerefRaw()), &k)
	var sr scalar.Scalar
	sr.SetRef(scalar.ScalarRef, pool.Handle(s))
	th.rt.Scalars.Release(s)
	th.dsPush(sr)
	return 1
}

func opHRKEYEX(th *Thread) int {
	hr := th.dsPop()
	k := th.dsPop()
	var b scalar.Scalar
	if th.rt.Hashes.KeyExists(hash.Handle(hr.DerefRaw()), &k) {
		b.SetInt(1)
	} else {
		b.SetInt(0)
	}
	th.dsPush(b)
	return 1
}

func opHRKEYDEL(th *Thread) int {
	hr := th.dsPop()
	k := th.dsPop()
	th.rt.Hashes.KeyDelete(hash.Handle(hr.DerefRaw()), &k)
	return 1
}

// opHRSLICE ( k1..kn n hr -- sr1..srn ): not present in the kept
// bytecode.c; modeled on ARSLICE/hash.KeyItem.
func opHRSLICE(th *Thread) int {
	hr := th.dsPop()
	n := int(th.dsPop().AsInt())
	h := hash.Handle(hr.DerefRaw())
	keys := make([]scalar.Scalar, n)
	for i := n - 1; i >= 0; i-- {
		keys[i] = th.dsPop()
	}
	for i := 0; i < n; i++ {
		s := th.rt.Hashes.KeyItem(h, &keys[i])
		var sr scalar.Scalar
		sr.SetRef(scalar.ScalarRef, pool.Handle(s))
		th.rt.Scalars.Release(s)
		th.dsPush(sr)
	}
	return 1
}

func opHRLISTK(th *Thread) int {
	hr := th.dsPop()
	keys := th.rt.Hashes.ListKeys(hash.Handle(hr.DerefRaw()))
	for _, k := range keys {
		th.dsPush(k)
	}
	var n scalar.Scalar
	n.SetInt(int64(len(keys)))
	th.dsPush(n)
	return 1
}

func opHRLISTV(th *Thread) int {
	hr := th.dsPop()
	values := th.rt.Hashes.ListValues(hash.Handle(hr.DerefRaw()))
	for _, v := range values {
		th.dsPush(th.rt.Scalars.GetValue(v))
		th.rt.Scalars.Release(v)
	}
	var n scalar.Scalar
	n.SetInt(int64(len(values)))
	th.dsPush(n)
	return 1
}

func opHRLISTP(th *Thread) int {
	hr := th.dsPop()
	pairs := th.rt.Hashes.ListPairs(hash.Handle(hr.DerefRaw()))
	for _, p := range pairs {
		th.dsPush(p.Key)
		th.dsPush(th.rt.Scalars.GetValue(p.Value))
		th.rt.Scalars.Release(p.Value)
	}
	var n scalar.Scalar
	n.SetInt(int64(len(pairs)))
	th.dsPush(n)
	return 1
}

// opHRFILL ( k1 v1..kn vn n hr -- ): not present in the kept
// bytecode.c; modeled directly on hash.Pool.FillFromList.
func opHRFILL(th *Thread) int {
	hr := th.dsPop()
	n := int(th.dsPop().AsInt())
	pairs := make([]scalar.Scalar, 2*n)
	for i := n - 1; i >= 0; i-- {
		pairs[2*i+1] = th.dsPop()
		pairs[2*i] = th.dsPop()
	}
	th.rt.Hashes.FillFromList(hash.Handle(hr.DerefRaw()), pairs)
	return 1
}

// --- channel ops

func opCRTRYRD(th *Thread) int {
	cr := th.dsPop()
	v, err := th.rt.Channels.TryRead(channel.Handle(cr.DerefRaw()))
	if err != nil {
		var undef scalar.Scalar
		th.dsPush(undef)
		return 1
	}
	th.dsPush(v)
	return 1
}

func opCRREAD(th *Thread) int {
	cr := th.dsPop()
	th.dsPush(th.rt.Channels.Read(channel.Handle(cr.DerefRaw())))
	return 1
}

func opCRWRITE(th *Thread) int {
	cr := th.dsPop()
	a := th.dsPop()
	th.rt.Channels.Write(channel.Handle(cr.DerefRaw()), &a)
	return 1
}
