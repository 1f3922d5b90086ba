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

// Package scalarvm is the host module that ties the vm package to a
// process: configuration, logging, metrics, and an optional debug HTTP
// surface, exactly the ambient concerns spec.md's core leaves
// unspecified (see SPEC_FULL.md "Ambient stack").
package scalarvm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cookieandscream/scalarvm/vm"
)

// Runtime is one running instance of the scalar VM: its own Context,
// Config, metrics registry, optional debug listener, and the vm.Runtime
// that actually executes bytecode. Grounded on the teacher's top-level
// caddy.Config/Context pairing (caddy.go, context.go), scoped down to
// this module's one "app": the VM itself.
type Runtime struct {
	Config Config

	ctx    Context
	cancel context.CancelFunc

	vm      *vm.Runtime
	metrics *metrics
	debug   *debugServer
}

// NewRuntime builds a Runtime from cfg but does not start it; call
// Start to bring up the pools (and, if configured, the debug
// listener).
func NewRuntime(cfg Config) *Runtime {
	return &Runtime{Config: cfg}
}

// Start provisions the VM runtime's pools, wires every pool/channel
// counter to this Runtime's Prometheus registry, and — if
// Config.DebugListenAddr is set — starts the loopback debug HTTP
// surface. It is the "pool holds process-wide state initialised
// before any thread starts" half of spec.md §5's lifecycle contract;
// Stop is the other half.
func (rt *Runtime) Start() error {
	ctx, cancel := NewContext(context.Background())
	rt.ctx = ctx
	rt.cancel = cancel

	log := Log()
	if rt.Config.Debug {
		dev, err := zap.NewDevelopment()
		if err == nil {
			log = dev
			SetLogger(dev)
		}
	}

	m := newMetrics(ctx.MetricsRegistry())
	rt.metrics = m

	rt.vm = vm.NewRuntimeWithOptions(vm.Options{
		Log:             vmLogger(),
		PoolLog:         poolLogger(),
		ChannelLog:      channelLogger(),
		CoroutineLog:    coroutineLogger(),
		Debug:           rt.Config.Debug,
		ScalarCapacity:  rt.Config.Pools.ScalarCapacity,
		ArrayCapacity:   rt.Config.Pools.ArrayCapacity,
		HashCapacity:    rt.Config.Pools.HashCapacity,
		ChannelCapacity: rt.Config.Pools.ChannelCapacity,
		MaxThreads:      rt.Config.MaxThreads,
		OnOpcode:        func(name string) { m.opcodesDispatched.WithLabelValues(name).Inc() },
		OnPoolAllocate:  func(p string) { m.poolAllocations.WithLabelValues(p).Inc() },
		OnPoolRelease:   func(p string) { m.poolReleases.WithLabelValues(p).Inc() },
		OnPoolGrow:      func(p string) { m.poolGrows.WithLabelValues(p).Inc() },
		OnChannelBlock:  func() { m.channelBlocks.Inc() },
		OnChannelGrow:   func() { m.channelGrows.Inc() },
	})

	if rt.Config.DebugListenAddr != "" {
		srv, err := newDebugServer(rt.Config.DebugListenAddr, rt)
		if err != nil {
			return fmt.Errorf("scalarvm: starting debug server: %w", err)
		}
		rt.debug = srv
		ctx.OnCancel(func() { srv.Close() })
	}

	log.Info("runtime started", zap.Bool("debug", rt.Config.Debug))
	return nil
}

// Run loads program and executes it to completion on the VM runtime,
// joining every CORO/FRCORO-spawned thread before returning — the VM
// Core module's RunProgram, exposed at the module boundary.
func (rt *Runtime) Run(program []byte) error {
	rt.metrics.liveThreads.Inc()
	defer rt.metrics.liveThreads.Dec()
	return rt.vm.RunProgram(program)
}

// Stop tears down the debug listener (if any) and cancels the
// Runtime's Context, running every registered cleanup func. Pools
// themselves have no explicit teardown beyond going out of scope.
func (rt *Runtime) Stop() {
	if rt.cancel != nil {
		rt.cancel()
	}
}

// VM exposes the underlying vm.Runtime for callers that need direct
// pool access (the CLI's disasm command, tests).
func (rt *Runtime) VM() *vm.Runtime { return rt.vm }
