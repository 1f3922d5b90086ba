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

// Package channel implements the bounded MPMC ring-buffer queue of
// scalars described in spec.md §3/§4.5. Grounded directly on
// channel.c in original_source: blocking Read, non-blocking TryRead,
// a Write that blocks on a short timeout then grows the buffer ×2 in
// place rather than ever rejecting a write.
package channel

import (
	"errors"
	"sync"
	"time"

	"github.com/cookieandscream/scalarvm/internal/pool"
	"github.com/cookieandscream/scalarvm/scalar"
)

// Handle names a slot in the channel pool.
type Handle pool.Handle

// ErrWouldBlock is returned by TryRead when the channel is empty.
// Spec.md §7 kind 4: "a distinguished 'empty' status."
var ErrWouldBlock = errors.New("channel: would block")

const (
	initialCapacity = 16
	writeTimeout    = 250 * time.Microsecond // matches channel.c's wait_timeout
)

type ring struct {
	mu        sync.Mutex
	hasItems  *sync.Cond
	hasSpace  *sync.Cond
	items     []scalar.Scalar
	start     int
	count     int
	onGrow    func(oldCap, newCap int)
	onBlocked func()
}

func newRing() ring {
	r := ring{items: make([]scalar.Scalar, initialCapacity)}
	r.hasItems = sync.NewCond(&r.mu)
	r.hasSpace = sync.NewCond(&r.mu)
	return r
}

func (r *ring) cap() int { return len(r.items) }

// growLocked doubles the buffer, copying the live range straight then
// the wrapped range to offset 0 — channel.c's
// _channel_reserve_unlocked. Caller holds r.mu.
func (r *ring) growLocked() {
	oldCap := r.cap()
	newCap := oldCap * 2
	buf := make([]scalar.Scalar, newCap)

	straight := r.count
	if oldCap-r.start < straight {
		straight = oldCap - r.start
	}
	rotated := r.count - straight
	copy(buf[0:], r.items[r.start:r.start+straight])
	copy(buf[straight:], r.items[0:rotated])

	r.items = buf
	r.start = 0
	if r.onGrow != nil {
		r.onGrow(oldCap, newCap)
	}
}

// Pool owns every channel instance.
type Pool struct {
	p *pool.Pool[ring]

	// OnGrow/OnBlocked are wired to Prometheus counters by the
	// runtime; both may be left nil.
	OnGrow    func(oldCap, newCap int)
	OnBlocked func()
}

// NewPool constructs the channel pool.
func NewPool(capacity int) *Pool {
	cp := &Pool{}
	p := pool.New[ring](pool.Hooks[ring]{
		Init: func(r *ring) {
			*r = newRing()
			r.onGrow = func(o, n int) {
				if cp.OnGrow != nil {
					cp.OnGrow(o, n)
				}
			}
			r.onBlocked = func() {
				if cp.OnBlocked != nil {
					cp.OnBlocked()
				}
			}
		},
	})
	_ = p.Init(capacity)
	cp.p = p
	return cp
}

func (cp *Pool) Raw() *pool.Pool[ring] { return cp.p }

func (cp *Pool) Reference(h pool.Handle) pool.Handle { return cp.p.Reference(h) }
func (cp *Pool) Release(h pool.Handle)               { cp.p.Release(h) }

func (cp *Pool) Allocate(flags pool.Flags) Handle {
	return Handle(cp.p.Allocate(flags | pool.Shared))
}

// Read blocks until an item is available, then dequeues it (FIFO).
func (cp *Pool) Read(h Handle) scalar.Scalar {
	r := cp.p.Get(pool.Handle(h))
	r.mu.Lock()
	defer r.mu.Unlock()

	for r.count == 0 {
		if r.onBlocked != nil {
			r.onBlocked()
		}
		r.hasItems.Wait()
	}
	var out scalar.Scalar
	out.Assign(&r.items[r.start])
	r.start = (r.start + 1) % r.cap()
	r.count--
	r.hasSpace.Signal()
	return out
}

// TryRead dequeues an item if one is immediately available, else
// returns ErrWouldBlock without blocking.
func (cp *Pool) TryRead(h Handle) (scalar.Scalar, error) {
	r := cp.p.Get(pool.Handle(h))
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count == 0 {
		return scalar.Scalar{}, ErrWouldBlock
	}
	var out scalar.Scalar
	out.Assign(&r.items[r.start])
	r.start = (r.start + 1) % r.cap()
	r.count--
	r.hasSpace.Signal()
	return out, nil
}

// Peek returns a deep clone of the head item without removing it, or
// Undef if the channel is empty. Not part of the original channel
// API; added for non-destructive inspection (see SPEC_FULL.md
// "MODULE: Channel").
func (cp *Pool) Peek(h Handle) scalar.Scalar {
	r := cp.p.Get(pool.Handle(h))
	r.mu.Lock()
	defer r.mu.Unlock()

	var out scalar.Scalar
	if r.count == 0 {
		return out
	}
	out.Clone(&r.items[r.start])
	return out
}

// Write blocks while the ring is full, waking periodically to retry;
// if still full after writeTimeout it grows the buffer ×2 in place
// instead of waiting indefinitely, then clones value into the tail.
func (cp *Pool) Write(h Handle, value *scalar.Scalar) {
	r := cp.p.Get(pool.Handle(h))
	r.mu.Lock()
	defer r.mu.Unlock()

	for r.count == r.cap() {
		if r.onBlocked != nil {
			r.onBlocked()
		}
		if !condWaitTimeout(r.hasSpace, writeTimeout) {
			r.growLocked()
			break
		}
	}
	index := (r.start + r.count) % r.cap()
	r.items[index].Clone(value)
	r.count++
	r.hasItems.Signal()
}

// Size reports the current number of queued items (diagnostics only).
func (cp *Pool) Size(h Handle) int {
	r := cp.p.Get(pool.Handle(h))
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Cap reports the current ring capacity (diagnostics only).
func (cp *Pool) Cap(h Handle) int {
	r := cp.p.Get(pool.Handle(h))
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cap()
}
