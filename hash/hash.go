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

// Package hash implements the scalar-keyed mapping described in
// spec.md §3/§4.4. Keys are the string coercion of the key scalar's
// value (§9: "confirmed, the only behaviour that treats Int 1 and
// String "1" as the same key consistently"). The table is an
// open-addressed bucket array hashed with xxhash, rehashing once the
// load factor exceeds 0.75, per spec.md's explicit representation
// guidance.
package hash

import (
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/cookieandscream/scalarvm/internal/pool"
	"github.com/cookieandscream/scalarvm/scalar"
)

// Handle names a slot in the hash pool.
type Handle pool.Handle

const (
	initialBuckets = 16
	maxLoadFactor  = 0.75
)

type entry struct {
	used  bool
	key   string
	value scalar.Handle
}

type hashTable struct {
	mu      sync.Mutex
	buckets []entry
	count   int
}

func newTable() hashTable {
	return hashTable{buckets: make([]entry, initialBuckets)}
}

func bucketIndex(key string, n int) int {
	return int(xxhash.Sum64String(key) % uint64(n))
}

// find returns the bucket index holding key if present, and ok=true;
// otherwise the first empty bucket key would occupy, and ok=false.
// Linear probing, caller holds the table's lock.
func (t *hashTable) find(key string) (int, bool) {
	n := len(t.buckets)
	i := bucketIndex(key, n)
	for probed := 0; probed < n; probed++ {
		b := &t.buckets[i]
		if !b.used {
			return i, false
		}
		if b.key == key {
			return i, true
		}
		i = (i + 1) % n
	}
	return -1, false
}

func (t *hashTable) rehash(newSize int) {
	old := t.buckets
	t.buckets = make([]entry, newSize)
	for _, b := range old {
		if !b.used {
			continue
		}
		i, _ := t.find(b.key)
		t.buckets[i] = b
	}
}

func (t *hashTable) maybeGrow() {
	if float64(t.count+1) > maxLoadFactor*float64(len(t.buckets)) {
		t.rehash(len(t.buckets) * 2)
	}
}

// Pool owns every hash instance.
type Pool struct {
	p       *pool.Pool[hashTable]
	scalars *scalar.Pool
}

// NewPool constructs the hash pool. scalars is the shared runtime
// scalar pool used to allocate value handles.
func NewPool(capacity int, scalars *scalar.Pool) *Pool {
	p := pool.New[hashTable](pool.Hooks[hashTable]{
		Init: func(t *hashTable) { *t = newTable() },
		Destroy: func(t *hashTable) {
			for _, b := range t.buckets {
				if b.used {
					scalars.Release(b.value)
				}
			}
			t.buckets = nil
		},
	})
	_ = p.Init(capacity)
	return &Pool{p: p, scalars: scalars}
}

func (hp *Pool) Raw() *pool.Pool[hashTable] { return hp.p }

func (hp *Pool) Reference(h pool.Handle) pool.Handle { return hp.p.Reference(h) }
func (hp *Pool) Release(h pool.Handle)               { hp.p.Release(h) }

func (hp *Pool) Allocate(flags pool.Flags) Handle {
	return Handle(hp.p.Allocate(flags))
}

func (hp *Pool) lock(h Handle)   { hp.p.Lock(pool.Handle(h)) }
func (hp *Pool) unlock(h Handle) { hp.p.Unlock(pool.Handle(h)) }

func keyOf(k *scalar.Scalar) string { return k.AsString() }

// Size returns the number of keys currently in the hash.
func (hp *Pool) Size(h Handle) int {
	hp.lock(h)
	n := hp.p.Get(pool.Handle(h)).count
	hp.unlock(h)
	return n
}

// KeyItem returns a new reference to the value handle for key,
// auto-creating an Undef entry if key is not present.
func (hp *Pool) KeyItem(h Handle, key *scalar.Scalar) scalar.Handle {
	hp.lock(h)
	defer hp.unlock(h)
	t := hp.p.Get(pool.Handle(h))
	k := keyOf(key)

	i, ok := t.find(k)
	if !ok {
		t.maybeGrow()
		i, _ = t.find(k)
		v := hp.scalars.Allocate(0)
		t.buckets[i] = entry{used: true, key: k, value: v}
		t.count++
	}
	return hp.scalars.Reference(t.buckets[i].value)
}

// KeyExists reports whether key is present.
func (hp *Pool) KeyExists(h Handle, key *scalar.Scalar) bool {
	hp.lock(h)
	defer hp.unlock(h)
	t := hp.p.Get(pool.Handle(h))
	_, ok := t.find(keyOf(key))
	return ok
}

// KeyDelete removes key if present, releasing its value handle.
func (hp *Pool) KeyDelete(h Handle, key *scalar.Scalar) {
	hp.lock(h)
	defer hp.unlock(h)
	t := hp.p.Get(pool.Handle(h))
	i, ok := t.find(keyOf(key))
	if !ok {
		return
	}
	hp.scalars.Release(t.buckets[i].value)
	t.buckets[i] = entry{}
	t.count--
	// close the probe chain: re-insert every entry that follows in
	// the same run, since removing a slot mid-chain would otherwise
	// strand later entries that probed past it.
	n := len(t.buckets)
	j := (i + 1) % n
	for t.buckets[j].used {
		b := t.buckets[j]
		t.buckets[j] = entry{}
		t.count--
		newI, _ := t.find(b.key)
		t.buckets[newI] = b
		t.count++
		j = (j + 1) % n
	}
}

// ListKeys returns every key currently in the hash, each as a fresh
// String scalar, in no particular order.
func (hp *Pool) ListKeys(h Handle) []scalar.Scalar {
	hp.lock(h)
	defer hp.unlock(h)
	t := hp.p.Get(pool.Handle(h))

	out := make([]scalar.Scalar, 0, t.count)
	for _, b := range t.buckets {
		if b.used {
			var s scalar.Scalar
			s.SetString(b.key)
			out = append(out, s)
		}
	}
	return out
}

// ListValues returns a new reference to every value handle currently
// in the hash, in no particular order.
func (hp *Pool) ListValues(h Handle) []scalar.Handle {
	hp.lock(h)
	defer hp.unlock(h)
	t := hp.p.Get(pool.Handle(h))

	out := make([]scalar.Handle, 0, t.count)
	for _, b := range t.buckets {
		if b.used {
			out = append(out, hp.scalars.Reference(b.value))
		}
	}
	return out
}

// Pair is one (key, value-handle) association returned by ListPairs.
type Pair struct {
	Key   scalar.Scalar
	Value scalar.Handle
}

// ListPairs returns every (key, value-handle) pair, in no particular
// order, with a fresh reference taken on each value handle.
func (hp *Pool) ListPairs(h Handle) []Pair {
	hp.lock(h)
	defer hp.unlock(h)
	t := hp.p.Get(pool.Handle(h))

	out := make([]Pair, 0, t.count)
	for _, b := range t.buckets {
		if b.used {
			var k scalar.Scalar
			k.SetString(b.key)
			out = append(out, Pair{Key: k, Value: hp.scalars.Reference(b.value)})
		}
	}
	return out
}

// FillFromList populates the hash from an alternating key/value
// slice: pairs[0] is a key, pairs[1] its value, and so on. Each value
// is cloned into a freshly allocated scalar handle owned by the hash.
func (hp *Pool) FillFromList(h Handle, pairs []scalar.Scalar) {
	hp.lock(h)
	defer hp.unlock(h)
	t := hp.p.Get(pool.Handle(h))

	for i := 0; i+1 < len(pairs); i += 2 {
		k := keyOf(&pairs[i])
		i_, ok := t.find(k)
		if !ok {
			t.maybeGrow()
			i_, _ = t.find(k)
			v := hp.scalars.Allocate(0)
			hp.scalars.SetValue(v, &pairs[i+1])
			t.buckets[i_] = entry{used: true, key: k, value: v}
			t.count++
		} else {
			hp.scalars.SetValue(t.buckets[i_].value, &pairs[i+1])
		}
	}
}
