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

// Package symtable implements the lexically nested symbol scopes of
// spec.md §3 "Symbol"/"Stacks" and §4.6. Grounded on symboltable.h in
// original_source: a symbol table is a scope owning a tree of
// identifier->symbol bindings plus a parent-scope pointer. The
// original hand-rolled a left/right-child binary tree directly on
// symbol_t; here each scope owns a github.com/google/btree ordered
// tree instead, keyed by Identifier.
package symtable

import (
	"github.com/google/btree"
)

// Identifier names a symbol. The original used pointer identity
// (uintptr_t); here it is whatever stable integer the compiler/loader
// assigns to a name.
type Identifier uint64

// Kind says what pool a symbol's referent handle lives in.
type Kind uint8

const (
	ScalarKind Kind = iota + 1
	ArrayKind
	HashKind
	ChannelKind
)

// Flags mirrors symboltable.h's SYMBOL_FLAG_SHARED.
type Flags uint32

const Shared Flags = 1 << 31

// Symbol is one binding. Referent is the raw handle value in the pool
// named by Kind; the VM interprets it by re-wrapping in the
// appropriate handle newtype (scalar.Handle, array.Handle, ...).
type Symbol struct {
	id       Identifier
	Kind     Kind
	Flags    Flags
	Referent uint32
}

func (s *Symbol) Less(than btree.Item) bool {
	return s.id < than.(*Symbol).id
}

const btreeDegree = 8

// Scope is one lexical scope: a tree of symbols plus a parent link.
// Dropped wholesale on RETURN per spec.md §4.6.
type Scope struct {
	parent *Scope
	tree   *btree.BTree
}

// NewScope creates a scope nested inside parent. parent may be nil
// for the outermost (global) scope.
func NewScope(parent *Scope) *Scope {
	return &Scope{parent: parent, tree: btree.New(btreeDegree)}
}

// Parent returns the enclosing scope, or nil at the outermost scope.
func (s *Scope) Parent() *Scope { return s.parent }

// Define creates a fresh symbol in this scope, owning referent as its
// value. Any existing binding for id in this scope is overwritten.
func (s *Scope) Define(id Identifier, kind Kind, flags Flags, referent uint32) {
	s.tree.ReplaceOrInsert(&Symbol{id: id, Kind: kind, Flags: flags, Referent: referent})
}

// Lookup walks from this scope up the parent chain and returns the
// first binding found for id, or nil.
func (s *Scope) Lookup(id Identifier) *Symbol {
	for scope := s; scope != nil; scope = scope.parent {
		if item := scope.tree.Get(&Symbol{id: id}); item != nil {
			return item.(*Symbol)
		}
	}
	return nil
}

// Clone locates id by walking parent scopes and inserts a binding for
// the same identifier into this scope, sharing the same referent.
// The caller is responsible for taking the extra pool reference on
// the shared referent (spec.md §4.6: "taking one additional refcount
// on the pooled handle") before or after calling Clone; Clone itself
// only manages the tree structure. Reports whether a source binding
// was found.
func (s *Scope) Clone(id Identifier) (Symbol, bool) {
	found := s.Lookup(id)
	if found == nil {
		return Symbol{}, false
	}
	clone := *found
	s.tree.ReplaceOrInsert(&clone)
	return clone, true
}

// Undefine removes id from this scope only, returning the symbol that
// was removed so the caller can release its referent. Reports whether
// a binding was present.
func (s *Scope) Undefine(id Identifier) (Symbol, bool) {
	item := s.tree.Delete(&Symbol{id: id})
	if item == nil {
		return Symbol{}, false
	}
	return *item.(*Symbol), true
}

// Drain removes every binding from this scope, invoking release for
// each one's referent, then leaves the scope empty. Intended for use
// on RETURN (spec.md §4.6: "undef all its symbols, release their
// referents, free the tree").
func (s *Scope) Drain(release func(Symbol)) {
	s.tree.Ascend(func(item btree.Item) bool {
		release(*item.(*Symbol))
		return true
	})
	s.tree = btree.New(btreeDegree)
}

// Len reports the number of bindings directly in this scope (not
// counting parents).
func (s *Scope) Len() int { return s.tree.Len() }
