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
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cookieandscream/scalarvm/internal/pool"
)

// debugServer is the loopback-only introspection surface SPEC_FULL.md's
// Ambient stack section calls for: pool occupancy, a pointer to the
// running-program gauge, and the Prometheus exposition, routed with the teacher's admin API
// router library rather than bare http.ServeMux.
type debugServer struct {
	ln  net.Listener
	srv *http.Server
}

// newDebugServer binds addr (refused unless it resolves to a loopback
// address — this surface exposes pool internals, never meant to leave
// the host) and starts serving in the background.
func newDebugServer(addr string, rt *Runtime) (*debugServer, error) {
	if !isLoopbackAddr(addr) {
		return nil, fmt.Errorf("scalarvm: debug_listen_addr %q is not a loopback address", addr)
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("scalarvm: listening on %q: %w", addr, err)
	}

	r := chi.NewRouter()
	r.Get("/debug/pools", rt.handleDebugPools)
	r.Get("/debug/threads", rt.handleDebugThreads)
	r.Handle("/debug/metrics", promhttp.HandlerFor(rt.ctx.MetricsRegistry(), promhttp.HandlerOpts{}))

	srv := &http.Server{Handler: r}
	ds := &debugServer{ln: ln, srv: srv}
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			Log().Sugar().Warnf("debug server stopped: %v", err)
		}
	}()
	return ds, nil
}

func (ds *debugServer) Close() error {
	return ds.srv.Close()
}

func isLoopbackAddr(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(strings.Trim(host, "[]"))
	return ip != nil && ip.IsLoopback()
}

type poolStat struct {
	Kind     string `json:"kind"`
	Capacity int    `json:"capacity"`
	Live     int    `json:"live"`
	Free     int    `json:"free"`
}

func statOf(kind string, s pool.Stats) poolStat {
	return poolStat{Kind: kind, Capacity: s.Capacity, Live: s.Live, Free: s.Free}
}

func (rt *Runtime) handleDebugPools(w http.ResponseWriter, r *http.Request) {
	stats := []poolStat{
		statOf("scalar", rt.vm.Scalars.Stats()),
		statOf("array", rt.vm.Arrays.Raw().Stats()),
		statOf("hash", rt.vm.Hashes.Raw().Stats()),
		statOf("channel", rt.vm.Channels.Raw().Stats()),
	}
	writeJSON(w, stats)
}

func (rt *Runtime) handleDebugThreads(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"note": "the number of programs running on this runtime is exported as the scalarvm_live_threads gauge (CORO/FRCORO-spawned threads are not counted separately); see /debug/metrics"})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
