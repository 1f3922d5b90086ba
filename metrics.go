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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// metrics holds every Prometheus collector a Runtime exposes, one set
// per Runtime instance rather than the global default registry — the
// teacher's Context.metricsRegistry pattern, scoped to this module's
// four pools and the VM dispatch loop.
type metrics struct {
	opcodesDispatched *prometheus.CounterVec
	poolAllocations   *prometheus.CounterVec
	poolReleases      *prometheus.CounterVec
	poolGrows         *prometheus.CounterVec
	channelBlocks     prometheus.Counter
	channelGrows      prometheus.Counter
	liveThreads       prometheus.Gauge
}

func newMetrics(reg *prometheus.Registry) *metrics {
	m := &metrics{
		opcodesDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scalarvm",
			Name:      "opcodes_dispatched_total",
			Help:      "Number of VM opcodes dispatched, by mnemonic.",
		}, []string{"opcode"}),
		poolAllocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scalarvm",
			Name:      "pool_allocations_total",
			Help:      "Number of slots allocated, by pool kind.",
		}, []string{"pool"}),
		poolReleases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scalarvm",
			Name:      "pool_releases_total",
			Help:      "Number of slots released back to the free list, by pool kind.",
		}, []string{"pool"}),
		poolGrows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scalarvm",
			Name:      "pool_grows_total",
			Help:      "Number of times a pool doubled its capacity, by pool kind.",
		}, []string{"pool"}),
		channelBlocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scalarvm",
			Name:      "channel_blocks_total",
			Help:      "Number of times a channel Read or Write blocked.",
		}),
		channelGrows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scalarvm",
			Name:      "channel_grows_total",
			Help:      "Number of times a channel's ring buffer doubled in place.",
		}),
		liveThreads: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "scalarvm",
			Name:      "live_threads",
			Help:      "Number of programs currently running on this runtime; CORO/FRCORO-spawned threads are not counted separately.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.opcodesDispatched,
		m.poolAllocations,
		m.poolReleases,
		m.poolGrows,
		m.channelBlocks,
		m.channelGrows,
		m.liveThreads,
	)
	return m
}
