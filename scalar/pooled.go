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

package scalar

import (
	"github.com/cookieandscream/scalarvm/internal/pool"
)

// Pool is the process-wide slab of pooled scalars. Every read/write
// of a pooled scalar is a lock; operate; unlock triple — the
// shared-lock degenerates to a no-op for non-shared allocations, per
// spec.md §4.2.
type Pool struct {
	p *pool.Pool[Scalar]
}

// NewPool constructs and initialises a scalar pool with the given
// initial capacity.
func NewPool(capacity int) *Pool {
	p := pool.New[Scalar](pool.Hooks[Scalar]{
		Init:    func(s *Scalar) { *s = Scalar{} },
		Destroy: func(s *Scalar) { s.Destroy() },
	})
	_ = p.Init(capacity)
	return &Pool{p: p}
}

// Raw exposes the underlying generic pool for registration as a
// scalar.RefPool (ScalarRef) and for Prometheus/debug-server wiring.
func (sp *Pool) Raw() *pool.Pool[Scalar] { return sp.p }

func (sp *Pool) Allocate(flags pool.Flags) Handle {
	return Handle(sp.p.Allocate(flags))
}

func (sp *Pool) AllocateMany(n int, flags pool.Flags) Handle {
	return Handle(sp.p.AllocateMany(n, flags))
}

func (sp *Pool) Reference(h Handle) Handle {
	return Handle(sp.p.Reference(pool.Handle(h)))
}

func (sp *Pool) Release(h Handle) {
	sp.p.Release(pool.Handle(h))
}

func (sp *Pool) Lock(h Handle)   { sp.p.Lock(pool.Handle(h)) }
func (sp *Pool) Unlock(h Handle) { sp.p.Unlock(pool.Handle(h)) }

func (sp *Pool) Valid(h Handle) bool { return sp.p.Valid(pool.Handle(h)) }

func (sp *Pool) Stats() pool.Stats { return sp.p.Stats() }

// --- pooled read/write wrappers, each a lock; operate; unlock triple

func (sp *Pool) SetUndef(h Handle) {
	sp.Lock(h)
	sp.p.Get(pool.Handle(h)).SetUndef()
	sp.Unlock(h)
}

func (sp *Pool) SetInt(h Handle, v int64) {
	sp.Lock(h)
	sp.p.Get(pool.Handle(h)).SetInt(v)
	sp.Unlock(h)
}

func (sp *Pool) SetFloat(h Handle, v float64) {
	sp.Lock(h)
	sp.p.Get(pool.Handle(h)).SetFloat(v)
	sp.Unlock(h)
}

func (sp *Pool) SetString(h Handle, v string) {
	sp.Lock(h)
	sp.p.Get(pool.Handle(h)).SetString(v)
	sp.Unlock(h)
}

func (sp *Pool) SetRef(h Handle, tag Tag, target pool.Handle) {
	sp.Lock(h)
	sp.p.Get(pool.Handle(h)).SetRef(tag, target)
	sp.Unlock(h)
}

// SetValue clones val into the pooled slot h, as scalar_set_value()
// does in original_source/scalar.h: destroy, then deep-clone.
func (sp *Pool) SetValue(h Handle, val *Scalar) {
	sp.Lock(h)
	sp.p.Get(pool.Handle(h)).Clone(val)
	sp.Unlock(h)
}

func (sp *Pool) GetBool(h Handle) bool {
	sp.Lock(h)
	v := sp.p.Get(pool.Handle(h)).AsBool()
	sp.Unlock(h)
	return v
}

func (sp *Pool) GetInt(h Handle) int64 {
	sp.Lock(h)
	v := sp.p.Get(pool.Handle(h)).AsInt()
	sp.Unlock(h)
	return v
}

func (sp *Pool) GetFloat(h Handle) float64 {
	sp.Lock(h)
	v := sp.p.Get(pool.Handle(h)).AsFloat()
	sp.Unlock(h)
	return v
}

func (sp *Pool) GetString(h Handle) string {
	sp.Lock(h)
	v := sp.p.Get(pool.Handle(h)).AsString()
	sp.Unlock(h)
	return v
}

// GetValue copies the pooled slot h into a fresh anonymous scalar via
// deep clone (scalar_get_value() in original_source/scalar.h).
func (sp *Pool) GetValue(h Handle) Scalar {
	sp.Lock(h)
	var out Scalar
	out.Clone(sp.p.Get(pool.Handle(h)))
	sp.Unlock(h)
	return out
}

func (sp *Pool) Tag(h Handle) Tag {
	sp.Lock(h)
	t := sp.p.Get(pool.Handle(h)).Tag()
	sp.Unlock(h)
	return t
}
