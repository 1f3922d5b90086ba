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

package vm

import (
	"bufio"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cookieandscream/scalarvm/array"
	"github.com/cookieandscream/scalarvm/channel"
	"github.com/cookieandscream/scalarvm/hash"
	"github.com/cookieandscream/scalarvm/internal/pool"
	"github.com/cookieandscream/scalarvm/scalar"
	"github.com/cookieandscream/scalarvm/symtable"
)

// Runtime is the process-wide state shared by every thread: the four
// pools, the program, host I/O, and the join group that every
// CORO/FRCORO-spawned thread registers into (spec.md §5: "pool holds
// process-wide state initialised before any thread starts and torn
// down after all threads join").
type Runtime struct {
	Scalars  *scalar.Pool
	Arrays   *array.Pool
	Hashes   *hash.Pool
	Channels *channel.Pool

	Program []byte

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	Log *zap.Logger

	// Debug gates the precondition-violation diagnostics of spec.md
	// §7 kind 1; off by default, matching "release" behaviour.
	Debug bool

	// OnOpcode, when set, is invoked with every opcode's mnemonic just
	// before it dispatches — the hook the host module wires to a
	// Prometheus counter. Left nil, dispatch pays no extra cost.
	OnOpcode func(name string)

	// CoroutineLog, when set, is logged to at Debug level each time
	// CORO/FRCORO spawns a new thread.
	CoroutineLog *zap.Logger

	group *errgroup.Group

	stdinMu sync.Mutex
	stdinRd *bufio.Reader
}

// readStdinLine reads one line from Stdin through a Runtime-lifetime
// *bufio.Reader shared by every thread's IN opcode. A reader allocated
// fresh per call (as an earlier version of opIN did) would discard
// whatever it had buffered past the requested line once it went out of
// scope, silently losing bytes on the second IN against a piped or
// file Stdin; a single shared reader, guarded by stdinMu since
// bufio.Reader isn't safe for concurrent use, keeps that buffered
// input across both calls and across threads.
func (rt *Runtime) readStdinLine() (string, error) {
	rt.stdinMu.Lock()
	defer rt.stdinMu.Unlock()
	if rt.stdinRd == nil {
		rt.stdinRd = bufio.NewReader(rt.Stdin)
	}
	return rt.stdinRd.ReadString('\n')
}

const defaultPoolCapacity = 64

// Options configures a Runtime's pool sizing and observability hooks.
// Any Capacity field left at zero (or negative) falls back to
// defaultPoolCapacity, so the zero value yields a default-sized runtime.
type Options struct {
	Log   *zap.Logger
	Debug bool

	// PoolLog, ChannelLog and CoroutineLog are the named subsystem
	// loggers for slab growth (scalar/array/hash pools), channel
	// growth, and thread spawn events respectively — scoped separately
	// from Log (the "vm" logger) the way the host module scopes one
	// logger per subsystem. Any may be left nil.
	PoolLog      *zap.Logger
	ChannelLog   *zap.Logger
	CoroutineLog *zap.Logger

	ScalarCapacity  int
	ArrayCapacity   int
	HashCapacity    int
	ChannelCapacity int

	OnOpcode func(name string)

	// OnPoolAllocate/OnPoolRelease/OnPoolGrow are called with the pool
	// kind's name ("scalar", "array", "hash", "channel").
	OnPoolAllocate func(pool string)
	OnPoolRelease  func(pool string)
	OnPoolGrow     func(pool string)

	OnChannelBlock func()
	OnChannelGrow  func()

	// MaxThreads caps the number of concurrently running threads
	// spawned via Spawn (i.e. every CORO/FRCORO); zero means
	// unbounded. Spawn blocks once the cap is reached until a running
	// thread returns.
	MaxThreads int
}

// NewRuntime wires the four pools together with defaultPoolCapacity
// slots each, no observability hooks, and returns a Runtime ready to
// run threads. log and debug may be the zero value; NewRuntime fills
// in zap.NewNop() and os.Std{in,out,err} when unset.
func NewRuntime(log *zap.Logger, debug bool) *Runtime {
	return NewRuntimeWithOptions(Options{
		Log:             log,
		Debug:           debug,
		ScalarCapacity:  defaultPoolCapacity,
		ArrayCapacity:   defaultPoolCapacity,
		HashCapacity:    defaultPoolCapacity,
		ChannelCapacity: defaultPoolCapacity,
	})
}

// NewRuntimeWithOptions is the fully configurable constructor the host
// module (scalarvm.Runtime) builds on to size each pool from Config
// and wire every pool's allocate/release/grow counters to Prometheus.
func NewRuntimeWithOptions(opts Options) *Runtime {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	for _, c := range []*int{&opts.ScalarCapacity, &opts.ArrayCapacity, &opts.HashCapacity, &opts.ChannelCapacity} {
		if *c <= 0 {
			*c = defaultPoolCapacity
		}
	}

	scalars := scalar.NewPool(opts.ScalarCapacity)
	arrays := array.NewPool(opts.ArrayCapacity, scalars)
	hashes := hash.NewPool(opts.HashCapacity, scalars)
	channels := channel.NewPool(opts.ChannelCapacity)

	if opts.PoolLog != nil {
		scalars.Raw().SetLogger(opts.PoolLog)
		arrays.Raw().SetLogger(opts.PoolLog)
		hashes.Raw().SetLogger(opts.PoolLog)
	}
	if opts.ChannelLog != nil {
		channels.Raw().SetLogger(opts.ChannelLog)
	}

	if opts.OnPoolAllocate != nil || opts.OnPoolRelease != nil || opts.OnPoolGrow != nil {
		wireRawPoolHooks(scalars.Raw(), "scalar", opts)
		wireRawPoolHooks(arrays.Raw(), "array", opts)
		wireRawPoolHooks(hashes.Raw(), "hash", opts)
		wireRawPoolHooks(channels.Raw(), "channel", opts)
	}
	if opts.OnChannelBlock != nil {
		channels.OnBlocked = opts.OnChannelBlock
	}
	if opts.OnChannelGrow != nil {
		channels.OnGrow = func(int, int) { opts.OnChannelGrow() }
	}

	scalar.RegisterRefPool(scalar.ScalarRef, scalars.Raw())
	scalar.RegisterRefPool(scalar.ArrayRef, arrays)
	scalar.RegisterRefPool(scalar.HashRef, hashes)
	scalar.RegisterRefPool(scalar.ChannelRef, channels)

	var g errgroup.Group
	if opts.MaxThreads > 0 {
		g.SetLimit(opts.MaxThreads)
	}
	return &Runtime{
		Scalars:  scalars,
		Arrays:   arrays,
		Hashes:   hashes,
		Channels: channels,
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		Log:          log,
		Debug:        opts.Debug,
		OnOpcode:     opts.OnOpcode,
		CoroutineLog: opts.CoroutineLog,
		group:        &g,
	}
}

// wireRawPoolHooks attaches opts' allocate/release/grow callbacks to a
// generic pool, tagged with its kind name for the metric label.
func wireRawPoolHooks[T any](p *pool.Pool[T], kind string, opts Options) {
	if opts.OnPoolAllocate != nil {
		p.OnAllocate = func() { opts.OnPoolAllocate(kind) }
	}
	if opts.OnPoolRelease != nil {
		p.OnRelease = func() { opts.OnPoolRelease(kind) }
	}
	if opts.OnPoolGrow != nil {
		p.OnGrow = func(int, int) { opts.OnPoolGrow(kind) }
	}
}

// Spawn registers fn (a thread's Run) with the runtime's join group,
// the point that CORO/FRCORO and the initial program thread all join
// through; see Wait.
func (rt *Runtime) Spawn(fn func() error) {
	rt.group.Go(fn)
}

// Wait blocks until every spawned thread, including the original
// program thread, has returned.
func (rt *Runtime) Wait() error {
	return rt.group.Wait()
}

// RunProgram loads program, spawns the outermost thread at pc 0 with
// an empty stack and a fresh root scope, and waits for every thread
// descending from it (via CORO/FRCORO) to finish.
func (rt *Runtime) RunProgram(program []byte) error {
	rt.Program = program
	root := symtable.NewScope(nil)
	th := NewThread(rt, root, nil, 0)
	rt.Spawn(th.Run)
	return rt.Wait()
}
