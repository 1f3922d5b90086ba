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
	"sync"

	"go.uber.org/zap"
)

var (
	defaultLoggerMu sync.RWMutex
	defaultLogger   *zap.Logger
)

func init() {
	l, err := zap.NewProduction()
	if err != nil {
		l = zap.NewNop()
	}
	defaultLogger = l
}

// Log returns the current process-wide default logger.
func Log() *zap.Logger {
	defaultLoggerMu.RLock()
	defer defaultLoggerMu.RUnlock()
	return defaultLogger
}

// SetLogger replaces the process-wide default logger, e.g. with a
// development logger built from Config.Debug.
func SetLogger(l *zap.Logger) {
	defaultLoggerMu.Lock()
	defer defaultLoggerMu.Unlock()
	defaultLogger = l
}

// named subsystem loggers, matching the teacher's habit of handing
// every module a logger scoped to its own name rather than passing the
// bare default around.
func poolLogger() *zap.Logger      { return Log().Named("pool") }
func vmLogger() *zap.Logger        { return Log().Named("vm") }
func channelLogger() *zap.Logger   { return Log().Named("channel") }
func coroutineLogger() *zap.Logger { return Log().Named("coroutine") }
