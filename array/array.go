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

// Package array implements the double-ended growable vector of
// pooled-scalar handles described in spec.md §3/§4.3. Grounded on
// array.c in original_source, generalised from its C pool macros to a
// generic pool.Pool[array] plus a scalar.Pool for the elements.
package array

import (
	"sync"

	"github.com/cookieandscream/scalarvm/internal/pool"
	"github.com/cookieandscream/scalarvm/scalar"
)

// Handle names a slot in the array pool.
type Handle pool.Handle

const initialReserve = 16

// array is the pooled payload: a vector of scalar handles plus the
// front/back bookkeeping from spec.md §3 "Array" (m_first, m_count).
type array struct {
	mu     sync.Mutex
	items  []scalar.Handle
	first  int
	count  int
	shared bool
}

func (a *array) allocated() int { return len(a.items) }

// Pool owns every array instance. It needs the scalar pool to
// allocate/release the elements an array contains.
type Pool struct {
	p       *pool.Pool[array]
	scalars *scalar.Pool
}

// NewPool constructs the array pool. scalars is the shared runtime
// scalar pool used to allocate element handles.
func NewPool(capacity int, scalars *scalar.Pool) *Pool {
	p := pool.New[array](pool.Hooks[array]{
		Init: func(a *array) {
			*a = array{items: make([]scalar.Handle, initialReserve)}
		},
		Destroy: func(a *array) {
			for i := 0; i < a.count; i++ {
				scalars.Release(a.items[a.first+i])
			}
			a.items = nil
		},
	})
	_ = p.Init(capacity)
	return &Pool{p: p, scalars: scalars}
}

// Raw exposes the underlying generic pool for RefPool registration
// (ArrayRef) and for debug/metrics wiring.
func (ap *Pool) Raw() *pool.Pool[array] { return ap.p }

func (ap *Pool) Reference(h pool.Handle) pool.Handle { return ap.p.Reference(h) }
func (ap *Pool) Release(h pool.Handle)               { ap.p.Release(h) }

func (ap *Pool) Allocate(flags pool.Flags) Handle {
	h := ap.p.Allocate(flags)
	if flags&pool.Shared != 0 {
		ap.p.Get(pool.Handle(h)).shared = true
	}
	return Handle(h)
}

func (ap *Pool) lock(h Handle)   { ap.p.Lock(pool.Handle(h)) }
func (ap *Pool) unlock(h Handle) { ap.p.Unlock(pool.Handle(h)) }

// Size returns the number of items currently in the array.
func (ap *Pool) Size(h Handle) int {
	ap.lock(h)
	n := ap.p.Get(pool.Handle(h)).count
	ap.unlock(h)
	return n
}

// reserve grows the backing slice so index fits, per array_item_at()
// in original_source/array.c: grow the tail, then fill with freshly
// allocated Undef scalars up to and including index. Caller holds the
// array's lock.
func (ap *Pool) reserveAndFill(a *array, index int) {
	need := index - (a.count - 1)
	if need <= 0 {
		return
	}
	for a.first+a.count+need > a.allocated() {
		ap.growBack(a, a.count)
	}
	first := ap.scalars.AllocateMany(need, 0)
	for i := 0; i < need; i++ {
		a.items[a.first+a.count] = first + scalar.Handle(i)
		a.count++
	}
}

// ItemAt returns a new reference to the scalar handle at index,
// auto-growing the array with Undef fillers if index is out of
// range. The caller must Release the returned handle when done.
func (ap *Pool) ItemAt(h Handle, index int) scalar.Handle {
	ap.lock(h)
	defer ap.unlock(h)
	a := ap.p.Get(pool.Handle(h))

	if index >= a.count {
		ap.reserveAndFill(a, index)
	}
	return ap.scalars.Reference(a.items[a.first+index])
}

// Slice replaces each element of indices (as int64 values, possibly
// negative) with a scalar reference to the addressed array slot,
// growing the array for any positive out-of-range index first.
// Mixing negative indices with growth-inducing positive indices in
// the same call is undefined by spec.md §4.3; we resolve negative
// indices against the array's size as it stood before this call
// began (see DESIGN.md Open Question).
func (ap *Pool) Slice(h Handle, indices []scalar.Scalar) {
	if len(indices) == 0 {
		return
	}
	ap.lock(h)
	defer ap.unlock(h)
	a := ap.p.Get(pool.Handle(h))
	sizeBefore := a.count

	for i := range indices {
		idx := int(indices[i].AsInt())
		if idx >= a.count {
			ap.reserveAndFill(a, idx)
		}
		if idx < 0 {
			idx += sizeBefore
		}
		indices[i].SetRef(scalar.ScalarRef, pool.Handle(a.items[a.first+idx]))
	}
}

// growBack doubles the tail region by reallocating, copying the live
// [first, first+count) window to the front of the new buffer, per
// array.c's _array_grow_back_unlocked. Caller holds a's lock.
func (ap *Pool) growBack(a *array, extra int) {
	newCap := a.allocated()*2 + extra
	if newCap == 0 {
		newCap = initialReserve
	}
	buf := make([]scalar.Handle, newCap)
	copy(buf, a.items[a.first:a.first+a.count])
	a.items = buf
	a.first = 0
}

// growFront grows the head region by the current element count,
// preserving the tail's position, per _array_grow_front_unlocked.
// Caller holds a's lock.
func (ap *Pool) growFront(a *array, extra int) {
	newCap := a.allocated() + extra
	buf := make([]scalar.Handle, newCap)
	newFirst := extra
	copy(buf[newFirst:], a.items[a.first:a.first+a.count])
	a.items = buf
	a.first = newFirst
}

// Push appends value at the tail. value is cloned into a freshly
// allocated scalar handle owned by the array.
func (ap *Pool) Push(h Handle, value *scalar.Scalar) {
	ap.lock(h)
	defer ap.unlock(h)
	a := ap.p.Get(pool.Handle(h))

	if a.first+a.count == a.allocated() {
		ap.growBack(a, a.count)
	}
	s := ap.scalars.Allocate(0)
	ap.scalars.SetValue(s, value)
	a.items[a.first+a.count] = s
	a.count++
}

// Pop removes and returns the tail element's value, or an Undef
// scalar if the array is empty (spec.md §7 kind 3, stack-underflow
// semantics reused for pop-from-empty).
func (ap *Pool) Pop(h Handle) scalar.Scalar {
	ap.lock(h)
	defer ap.unlock(h)
	a := ap.p.Get(pool.Handle(h))

	if a.count == 0 {
		var undef scalar.Scalar
		return undef
	}
	a.count--
	s := a.items[a.first+a.count]
	out := ap.scalars.GetValue(s)
	ap.scalars.Release(s)
	return out
}

// Shift removes and returns the head element's value, or Undef if
// empty.
func (ap *Pool) Shift(h Handle) scalar.Scalar {
	ap.lock(h)
	defer ap.unlock(h)
	a := ap.p.Get(pool.Handle(h))

	if a.count == 0 {
		var undef scalar.Scalar
		return undef
	}
	s := a.items[a.first]
	out := ap.scalars.GetValue(s)
	ap.scalars.Release(s)
	a.first++
	a.count--
	return out
}

// Fill replaces the array's entire contents with values, releasing
// every previously held element first. Symmetric to hash.FillFromList
// (spec.md §4.7 lists ARFILL alongside HRFILL with no further detail;
// this mirrors the hash package's own fill semantics).
func (ap *Pool) Fill(h Handle, values []scalar.Scalar) {
	ap.lock(h)
	a := ap.p.Get(pool.Handle(h))
	for i := 0; i < a.count; i++ {
		ap.scalars.Release(a.items[a.first+i])
	}
	a.first = 0
	a.count = 0
	ap.unlock(h)

	for i := range values {
		ap.Push(h, &values[i])
	}
}

// Unshift prepends value at the head, growing the front region when
// there is no spare room before m_first.
func (ap *Pool) Unshift(h Handle, value *scalar.Scalar) {
	ap.lock(h)
	defer ap.unlock(h)
	a := ap.p.Get(pool.Handle(h))

	if a.first == 0 {
		n := a.count
		if n == 0 {
			n = initialReserve
		}
		ap.growFront(a, n)
	}
	s := ap.scalars.Allocate(0)
	ap.scalars.SetValue(s, value)
	a.first--
	a.items[a.first] = s
	a.count++
}
