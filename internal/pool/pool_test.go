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

package pool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/sync/errgroup"
)

type counters struct {
	inits, destroys int
}

func newCountingPool(c *counters) *Pool[int] {
	p := New[int](Hooks[int]{
		Init:    func(v *int) { c.inits++; *v = 0 },
		Destroy: func(v *int) { c.destroys++ },
	})
	if err := p.Init(4); err != nil {
		panic(err)
	}
	return p
}

func TestAllocateReturnsNonZeroHandle(t *testing.T) {
	c := &counters{}
	p := newCountingPool(c)

	h := p.Allocate(0)
	require.NotZero(t, h)
	assert.True(t, p.Valid(h))
	assert.EqualValues(t, 1, p.Refcount(h))
}

func TestReferenceThenReleaseIsObservationallyIdentical(t *testing.T) {
	c := &counters{}
	p := newCountingPool(c)

	h := p.Allocate(0)
	before := p.Refcount(h)

	p.Reference(h)
	p.Release(h)

	assert.Equal(t, before, p.Refcount(h))
	assert.True(t, p.Valid(h))
}

func TestReleaseToZeroRunsDestroyAndFreesSlot(t *testing.T) {
	c := &counters{}
	p := newCountingPool(c)

	h := p.Allocate(0)
	p.Release(h)

	assert.False(t, p.Valid(h))
	assert.Equal(t, 1, c.destroys)
}

func TestGrowthPreservesExistingHandles(t *testing.T) {
	c := &counters{}
	p := newCountingPool(c) // capacity 4 -> 3 usable slots before growth

	handles := make([]Handle, 0, 8)
	for i := 0; i < 8; i++ {
		h := p.Allocate(0)
		require.NotZero(t, h)
		*p.Get(h) = i
		handles = append(handles, h)
	}

	for i, h := range handles {
		assert.True(t, p.Valid(h))
		assert.Equal(t, i, *p.Get(h))
	}
}

func TestSetLoggerReportsGrowth(t *testing.T) {
	c := &counters{}
	p := newCountingPool(c) // capacity 4 -> 3 usable slots before growth

	core, logs := observer.New(zap.DebugLevel)
	p.SetLogger(zap.New(core))

	for i := 0; i < 8; i++ {
		p.Allocate(0)
	}

	require.NotZero(t, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "pool grew", entry.Message)
}

func TestAllocateManyReturnsContiguousRun(t *testing.T) {
	c := &counters{}
	p := newCountingPool(c)

	first := p.AllocateMany(3, 0)
	require.NotZero(t, first)
	for i := 0; i < 3; i++ {
		assert.True(t, p.Valid(first+Handle(i)))
	}
}

func TestSharedSlotLockSerialisesAccess(t *testing.T) {
	c := &counters{}
	p := newCountingPool(c)

	h := p.Allocate(Shared)
	var g errgroup.Group
	var mu sync.Mutex
	sum := 0

	for i := 0; i < 50; i++ {
		g.Go(func() error {
			p.Lock(h)
			v := *p.Get(h)
			v++
			*p.Get(h) = v
			p.Unlock(h)

			mu.Lock()
			sum++
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, 50, sum)
	assert.Equal(t, 50, *p.Get(h))
}

func TestHandleZeroIsNoopOnReleaseAndReference(t *testing.T) {
	c := &counters{}
	p := newCountingPool(c)

	assert.NotPanics(t, func() {
		p.Release(0)
		p.Reference(0)
		p.Lock(0)
		p.Unlock(0)
	})
}
