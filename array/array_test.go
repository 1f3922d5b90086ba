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

package array

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cookieandscream/scalarvm/scalar"
)

func newTestPool(t *testing.T) (*scalar.Pool, *Pool) {
	sp := scalar.NewPool(8)
	ap := NewPool(4, sp)
	return sp, ap
}

func TestPushThenPopIsLIFO(t *testing.T) {
	_, ap := newTestPool(t)
	h := ap.Allocate(0)

	for i := int64(1); i <= 5; i++ {
		var v scalar.Scalar
		v.SetInt(i)
		ap.Push(h, &v)
	}
	require.Equal(t, 5, ap.Size(h))

	for i := int64(5); i >= 1; i-- {
		v := ap.Pop(h)
		assert.Equal(t, i, v.AsInt())
	}
	assert.Equal(t, 0, ap.Size(h))
}

func TestPushThenShiftIsFIFO(t *testing.T) {
	_, ap := newTestPool(t)
	h := ap.Allocate(0)

	for i := int64(1); i <= 5; i++ {
		var v scalar.Scalar
		v.SetInt(i)
		ap.Push(h, &v)
	}

	for i := int64(1); i <= 5; i++ {
		v := ap.Shift(h)
		assert.Equal(t, i, v.AsInt())
	}
	assert.Equal(t, 0, ap.Size(h))
}

func TestPopOnEmptyReturnsUndef(t *testing.T) {
	_, ap := newTestPool(t)
	h := ap.Allocate(0)

	v := ap.Pop(h)
	assert.Equal(t, scalar.Undef, v.Tag())
}

func TestItemAtGrowsWithUndefFillers(t *testing.T) {
	sp, ap := newTestPool(t)
	h := ap.Allocate(0)

	s := ap.ItemAt(h, 3)
	defer sp.Release(s)

	assert.Equal(t, scalar.Undef, sp.Tag(s))
	assert.Equal(t, 4, ap.Size(h))
}

func TestItemAtOnExistingIndexReturnsSameValue(t *testing.T) {
	sp, ap := newTestPool(t)
	h := ap.Allocate(0)

	var v scalar.Scalar
	v.SetInt(99)
	ap.Push(h, &v)

	s := ap.ItemAt(h, 0)
	defer sp.Release(s)
	assert.Equal(t, int64(99), sp.GetInt(s))
}

func TestUnshiftThenPopMatchesPushOrder(t *testing.T) {
	_, ap := newTestPool(t)
	h := ap.Allocate(0)

	var a, b scalar.Scalar
	a.SetInt(1)
	b.SetInt(2)
	ap.Unshift(h, &a)
	ap.Unshift(h, &b)
	// array is now [2, 1]

	first := ap.Shift(h)
	second := ap.Shift(h)
	assert.Equal(t, int64(2), first.AsInt())
	assert.Equal(t, int64(1), second.AsInt())
}

func TestGrowthAcrossManyPushesPreservesOrder(t *testing.T) {
	_, ap := newTestPool(t)
	h := ap.Allocate(0)

	const n = 200
	for i := int64(0); i < n; i++ {
		var v scalar.Scalar
		v.SetInt(i)
		ap.Push(h, &v)
	}
	for i := int64(0); i < n; i++ {
		v := ap.Shift(h)
		assert.Equal(t, i, v.AsInt())
	}
}
