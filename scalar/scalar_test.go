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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cookieandscream/scalarvm/internal/pool"
)

func TestCoercionsFromSpec(t *testing.T) {
	var s Scalar

	s.SetUndef()
	assert.False(t, s.AsBool())
	assert.Equal(t, int64(0), s.AsInt())
	assert.Equal(t, 0.0, s.AsFloat())
	assert.Equal(t, "", s.AsString())

	s.SetInt(0)
	assert.False(t, s.AsBool())
	s.SetInt(42)
	assert.True(t, s.AsBool())
	assert.Equal(t, "42", s.AsString())
	assert.Equal(t, 42.0, s.AsFloat())

	s.SetFloat(0)
	assert.False(t, s.AsBool())
	s.SetFloat(3.5)
	assert.True(t, s.AsBool())
	assert.Equal(t, int64(3), s.AsInt())

	s.SetString("")
	assert.False(t, s.AsBool())
	s.SetString("0")
	assert.False(t, s.AsBool())
	s.SetString("0.0")
	assert.True(t, s.AsBool()) // only the literal string "0" is falsy
	s.SetString("7")
	assert.Equal(t, int64(7), s.AsInt())
	assert.Equal(t, 7.0, s.AsFloat())
}

func TestAssignIsShallowMoveAndResetsSource(t *testing.T) {
	var src, dst Scalar
	src.SetString("hello")

	dst.Assign(&src)
	assert.Equal(t, "hello", dst.AsString())
	assert.Equal(t, Undef, src.Tag())
}

func TestCloneRoundTripsThroughDestroyOfOriginal(t *testing.T) {
	var src, dst Scalar
	src.SetString("hello")

	dst.Clone(&src)
	src.Destroy()

	assert.Equal(t, "hello", dst.AsString())
}

type fakeRefPool struct {
	refs    map[pool.Handle]int
	lastRel pool.Handle
}

func newFakeRefPool() *fakeRefPool { return &fakeRefPool{refs: map[pool.Handle]int{}} }

func (f *fakeRefPool) Reference(h pool.Handle) pool.Handle {
	f.refs[h]++
	return h
}

func (f *fakeRefPool) Release(h pool.Handle) {
	f.refs[h]--
	f.lastRel = h
}

func TestSetRefTakesOneReferenceAndDestroyReleasesIt(t *testing.T) {
	fp := newFakeRefPool()
	RegisterRefPool(ArrayRef, fp)
	defer func() { refPools[ArrayRef] = nil }()

	var s Scalar
	s.SetRef(ArrayRef, pool.Handle(5))
	require.Equal(t, 1, fp.refs[5])

	s.Destroy()
	assert.Equal(t, 0, fp.refs[5])
}

func TestCloneOfReferenceBumpsRefcountIndependently(t *testing.T) {
	fp := newFakeRefPool()
	RegisterRefPool(HashRef, fp)
	defer func() { refPools[HashRef] = nil }()

	var src, dst Scalar
	src.SetRef(HashRef, pool.Handle(9))
	dst.Clone(&src)
	assert.Equal(t, 2, fp.refs[9])

	src.Destroy()
	assert.Equal(t, 1, fp.refs[9])
	dst.Destroy()
	assert.Equal(t, 0, fp.refs[9])
}
