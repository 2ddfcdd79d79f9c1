// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runtimeopt holds process-wide debug settings that the CLI harness
// (service/config) reads, and that a running process may want
// to change without a restart (a SIGHUP handler, an admin endpoint).
package runtimeopt

import (
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu    sync.RWMutex
	level = zerolog.InfoLevel
	trace bool
)

// Level returns the currently active log level.
func Level() zerolog.Level {
	mu.RLock()
	defer mu.RUnlock()
	return level
}

// SetLevel changes the active log level. Safe to call concurrently with
// Level from any goroutine, including one driven by a signal handler.
func SetLevel(l zerolog.Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

// Trace reports whether bytecode-level tracing (one log line per compiled
// instruction executed) is enabled. Off by default; it is too verbose to
// leave on outside a debugging session.
func Trace() bool {
	mu.RLock()
	defer mu.RUnlock()
	return trace
}

// SetTrace toggles bytecode-level tracing.
func SetTrace(on bool) {
	mu.Lock()
	defer mu.Unlock()
	trace = on
}
