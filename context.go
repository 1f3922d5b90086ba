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

package scalarvm

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// Context carries the lifetime of one running Runtime: it is canceled
// when the runtime is stopped, at which point every registered
// cleanup func runs. Wraps context.Context the way the teacher's own
// Context does, scoped down to the one thing this runtime needs:
// an ordered teardown list plus a metrics registry.
type Context struct {
	context.Context

	cleanupFuncs    *[]func()
	metricsRegistry *prometheus.Registry
}

// NewContext derives a Context from parent, returning it alongside the
// context.CancelFunc that runs every registered cleanup (in reverse
// registration order) before canceling the underlying context.
func NewContext(parent context.Context) (Context, context.CancelFunc) {
	c, cancel := context.WithCancel(parent)
	funcs := new([]func())
	ctx := Context{
		Context:         c,
		cleanupFuncs:    funcs,
		metricsRegistry: prometheus.NewRegistry(),
	}
	wrapped := func() {
		for i := len(*funcs) - 1; i >= 0; i-- {
			(*funcs)[i]()
		}
		cancel()
	}
	return ctx, wrapped
}

// OnCancel registers f to run when this context is torn down. Grounded
// on the teacher's context.go OnCancel: pools and background listeners
// register their own shutdown here instead of the caller having to
// remember every subsystem that needs closing.
func (ctx *Context) OnCancel(f func()) {
	*ctx.cleanupFuncs = append(*ctx.cleanupFuncs, f)
}

// MetricsRegistry returns the registry scoped to this context's
// runtime instance.
func (ctx *Context) MetricsRegistry() *prometheus.Registry {
	return ctx.metricsRegistry
}
