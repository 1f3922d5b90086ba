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

package hash

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cookieandscream/scalarvm/scalar"
)

func newTestPool() (*scalar.Pool, *Pool) {
	sp := scalar.NewPool(8)
	hp := NewPool(4, sp)
	return sp, hp
}

func strScalar(v string) scalar.Scalar {
	var s scalar.Scalar
	s.SetString(v)
	return s
}

func intScalar(v int64) scalar.Scalar {
	var s scalar.Scalar
	s.SetInt(v)
	return s
}

func TestKeyExistsAfterItem(t *testing.T) {
	sp, hp := newTestPool()
	h := hp.Allocate(0)

	k := strScalar("k")
	v := hp.KeyItem(h, &k)
	sp.SetInt(v, 9)
	sp.Release(v)

	assert.True(t, hp.KeyExists(h, &k))
	z := strScalar("z")
	assert.False(t, hp.KeyExists(h, &z))
}

func TestIntAndStringKeyCoerceToSameEntry(t *testing.T) {
	sp, hp := newTestPool()
	h := hp.Allocate(0)

	intKey := intScalar(1)
	v := hp.KeyItem(h, &intKey)
	sp.SetString(v, "one")
	sp.Release(v)

	strKey := strScalar("1")
	assert.True(t, hp.KeyExists(h, &strKey))
	v2 := hp.KeyItem(h, &strKey)
	assert.Equal(t, "one", sp.GetString(v2))
	sp.Release(v2)
	assert.Equal(t, 1, hp.Size(h))
}

func TestKeyItemAutoCreatesUndef(t *testing.T) {
	sp, hp := newTestPool()
	h := hp.Allocate(0)

	k := strScalar("missing")
	v := hp.KeyItem(h, &k)
	defer sp.Release(v)

	assert.Equal(t, scalar.Undef, sp.Tag(v))
	assert.Equal(t, 1, hp.Size(h))
}

func TestKeyDeleteRemovesEntry(t *testing.T) {
	sp, hp := newTestPool()
	h := hp.Allocate(0)

	k := strScalar("k")
	v := hp.KeyItem(h, &k)
	sp.Release(v)
	require.True(t, hp.KeyExists(h, &k))

	hp.KeyDelete(h, &k)
	assert.False(t, hp.KeyExists(h, &k))
	assert.Equal(t, 0, hp.Size(h))
}

func TestDeleteMidChainKeepsLaterEntriesReachable(t *testing.T) {
	sp, hp := newTestPool()
	h := hp.Allocate(0)

	keys := make([]scalar.Scalar, 0, 20)
	for i := 0; i < 20; i++ {
		k := strScalar(fmt.Sprintf("key-%d", i))
		v := hp.KeyItem(h, &k)
		sp.SetInt(v, int64(i))
		sp.Release(v)
		keys = append(keys, k)
	}

	hp.KeyDelete(h, &keys[3])

	for i, k := range keys {
		if i == 3 {
			assert.False(t, hp.KeyExists(h, &k))
			continue
		}
		require.True(t, hp.KeyExists(h, &k), "key-%d should still be reachable", i)
		v := hp.KeyItem(h, &k)
		assert.Equal(t, int64(i), sp.GetInt(v))
		sp.Release(v)
	}
}

func TestListPairsCoversEveryEntry(t *testing.T) {
	sp, hp := newTestPool()
	h := hp.Allocate(0)

	want := map[string]int64{"a": 1, "b": 2, "c": 3}
	for k, v := range want {
		key := strScalar(k)
		handle := hp.KeyItem(h, &key)
		sp.SetInt(handle, v)
		sp.Release(handle)
	}

	pairs := hp.ListPairs(h)
	require.Len(t, pairs, len(want))
	got := map[string]int64{}
	for _, p := range pairs {
		got[p.Key.AsString()] = sp.GetInt(p.Value)
		sp.Release(p.Value)
	}
	assert.Equal(t, want, got)
}

func TestFillFromListPopulatesAlternatingPairs(t *testing.T) {
	sp, hp := newTestPool()
	h := hp.Allocate(0)

	pairs := []scalar.Scalar{strScalar("x"), intScalar(10), strScalar("y"), intScalar(20)}
	hp.FillFromList(h, pairs)

	assert.Equal(t, 2, hp.Size(h))
	xk := strScalar("x")
	xv := hp.KeyItem(h, &xk)
	assert.Equal(t, int64(10), sp.GetInt(xv))
	sp.Release(xv)
}

func TestRehashAcrossLoadFactor(t *testing.T) {
	sp, hp := newTestPool()
	h := hp.Allocate(0)

	for i := 0; i < 100; i++ {
		k := strScalar(fmt.Sprintf("k%d", i))
		v := hp.KeyItem(h, &k)
		sp.SetInt(v, int64(i))
		sp.Release(v)
	}
	require.Equal(t, 100, hp.Size(h))
	for i := 0; i < 100; i++ {
		k := strScalar(fmt.Sprintf("k%d", i))
		require.True(t, hp.KeyExists(h, &k))
	}
}
