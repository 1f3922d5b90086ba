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

// Package scalar implements the dynamically-typed value at the heart
// of the runtime: a tagged union of int, float, owned string, and
// five kinds of typed reference handle. Scalars live either as
// anonymous, stack-held values (Scalar) or as the payload of a pooled
// slot (see internal/pool). Grounded on scalar.c/scalar.h in
// original_source.
package scalar

import (
	"strconv"

	"github.com/cookieandscream/scalarvm/internal/pool"
)

// Handle names a slot in the scalar pool. It is a distinct type from
// array.Handle, hash.Handle and channel.Handle so the compiler catches
// any attempt to pass a handle to the wrong pool kind.
type Handle pool.Handle

// Tag identifies which field of the payload union is active.
type Tag uint8

const (
	Undef Tag = iota
	Int
	Float
	String
	ScalarRef
	ArrayRef
	HashRef
	ChannelRef
	FunctionRef
	numTags
)

func (t Tag) IsRef() bool {
	switch t {
	case ScalarRef, ArrayRef, HashRef, ChannelRef, FunctionRef:
		return true
	default:
		return false
	}
}

func (t Tag) String() string {
	switch t {
	case Undef:
		return "undef"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case ScalarRef:
		return "scalar_ref"
	case ArrayRef:
		return "array_ref"
	case HashRef:
		return "hash_ref"
	case ChannelRef:
		return "channel_ref"
	case FunctionRef:
		return "function_ref"
	default:
		return "unknown"
	}
}

// RefPool is the refcounting surface every aggregate pool (scalar,
// array, hash, channel) exposes to the scalar package. It is exactly
// pool.Pool[T]'s Reference/Release, narrowed to a handle-shaped
// interface so scalar need not import the array/hash/channel
// packages (which themselves import scalar) to release a reference
// it holds on their behalf.
type RefPool interface {
	Reference(h pool.Handle) pool.Handle
	Release(h pool.Handle)
}

// refPools holds one RefPool per reference Tag, indexed by tag value.
// Set once at runtime start-up via RegisterRefPool; read-only
// thereafter, so no synchronisation is needed. This mirrors the
// teacher's RegisterModule/Modules() global-registry idiom, scoped to
// the four fixed reference kinds the scalar type already knows about.
var refPools [numTags]RefPool

// RegisterRefPool wires the pool backing reference kind tag so that
// scalars holding that tag can take and release references on it.
// Called once per aggregate kind during runtime start-up.
func RegisterRefPool(tag Tag, p RefPool) {
	if !tag.IsRef() {
		panic("scalar: RegisterRefPool requires a reference tag")
	}
	refPools[tag] = p
}

// Scalar is an anonymous, stack-held dynamic value. The zero value is
// a valid Undef scalar.
type Scalar struct {
	tag  Tag
	ival uint64 // Int, and the raw handle for reference tags
	fval float64
	sval string
}

// Init resets s to Undef, releasing any prior contents first. It is
// safe to call on an already-zero Scalar.
func (s *Scalar) Init() {
	s.Destroy()
}

// Destroy releases whatever s currently holds (the owned string, or
// one refcount on a reference target) and resets it to Undef.
func (s *Scalar) Destroy() {
	if s.tag.IsRef() {
		if p := refPools[s.tag]; p != nil {
			p.Release(pool.Handle(s.ival))
		}
	}
	s.tag = Undef
	s.ival = 0
	s.fval = 0
	s.sval = ""
}

// Clone produces a deep copy: strings are duplicated, reference
// targets gain one additional refcount. The receiver's prior contents
// are destroyed first.
func (s *Scalar) Clone(src *Scalar) {
	s.Destroy()
	s.tag = src.tag
	switch {
	case src.tag == String:
		s.sval = src.sval
	case src.tag == Float:
		s.fval = src.fval
	case src.tag == Int:
		s.ival = src.ival
	case src.tag.IsRef():
		s.ival = src.ival
		if p := refPools[src.tag]; p != nil {
			p.Reference(pool.Handle(src.ival))
		}
	}
}

// Assign performs a shallow move: ownership of src's payload (string
// or reference count) transfers to s without any clone/bump. src is
// reset to Undef. The receiver's prior contents are destroyed first.
func (s *Scalar) Assign(src *Scalar) {
	s.Destroy()
	s.tag = src.tag
	s.ival = src.ival
	s.fval = src.fval
	s.sval = src.sval
	src.tag = Undef
	src.ival = 0
	src.fval = 0
	src.sval = ""
}

// Tag reports the active discriminant.
func (s *Scalar) Tag() Tag { return s.tag }

// --- setters -----------------------------------------------------

func (s *Scalar) SetUndef() { s.Destroy() }

func (s *Scalar) SetInt(v int64) {
	s.Destroy()
	s.tag = Int
	s.ival = uint64(v)
}

func (s *Scalar) SetFloat(v float64) {
	s.Destroy()
	s.tag = Float
	s.fval = v
}

func (s *Scalar) SetString(v string) {
	s.Destroy()
	s.tag = String
	s.sval = v
}

// SetRef points s at the pooled handle h of the aggregate kind named
// by tag, taking one reference via that kind's registered RefPool.
// Used by array/hash/channel code (and by SRWRITE-family VM opcodes)
// to build reference-typed scalars without this package importing
// theirs.
func (s *Scalar) SetRef(tag Tag, h pool.Handle) {
	if !tag.IsRef() {
		panic("scalar: SetRef requires a reference tag")
	}
	s.Destroy()
	s.tag = tag
	s.ival = uint64(h)
	if p := refPools[tag]; p != nil {
		p.Reference(h)
	}
}

// DerefRaw returns the raw handle value held by a reference-tagged
// scalar, with no refcount change. The caller must already know, from
// Tag(), which pool kind the raw value names.
func (s *Scalar) DerefRaw() pool.Handle {
	return pool.Handle(s.ival)
}

// --- coercing getters ---------------------------------------------

// AsBool implements: Undef->false; Int/Float->(x!=0); String->(non-empty
// && not "0"); any Ref->true.
func (s *Scalar) AsBool() bool {
	switch s.tag {
	case Undef:
		return false
	case Int:
		return int64(s.ival) != 0
	case Float:
		return s.fval != 0
	case String:
		return s.sval != "" && s.sval != "0"
	default:
		return s.tag.IsRef()
	}
}

// AsInt implements: String parsed as signed integer, base 0; Float
// truncated toward zero; Undef->0; Ref handles coerce to their raw
// numeric value (mirrors the C union's intptr_t reinterpretation).
func (s *Scalar) AsInt() int64 {
	switch s.tag {
	case Undef:
		return 0
	case Int:
		return int64(s.ival)
	case Float:
		return int64(s.fval)
	case String:
		v, err := strconv.ParseInt(s.sval, 0, 64)
		if err != nil {
			return 0
		}
		return v
	default:
		return int64(s.ival)
	}
}

// AsFloat implements: String parsed as float; Int widened; Undef->0.0.
func (s *Scalar) AsFloat() float64 {
	switch s.tag {
	case Undef:
		return 0
	case Int:
		return float64(int64(s.ival))
	case Float:
		return s.fval
	case String:
		v, err := strconv.ParseFloat(s.sval, 64)
		if err != nil {
			return 0
		}
		return v
	default:
		return float64(s.ival)
	}
}

// AsString implements: Int/Float formatted in a locale-independent
// form; Undef->""; String returned verbatim; Ref formatted as its raw
// handle value (debugging aid, not part of the observable ABI).
func (s *Scalar) AsString() string {
	switch s.tag {
	case Undef:
		return ""
	case Int:
		return strconv.FormatInt(int64(s.ival), 10)
	case Float:
		return strconv.FormatFloat(s.fval, 'g', -1, 64)
	case String:
		return s.sval
	default:
		return strconv.FormatUint(s.ival, 10)
	}
}
