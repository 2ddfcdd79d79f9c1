// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package compile turns a Schema into a bytecode Program: a linear
// instruction vector plus list/struct/map/union/null definition tables,
// buffer counts, and an array-mapping tree. It performs jump resolution
// and structural validation (spec §4.3).
package compile

import (
	"github.com/solidcoredata/arrowtrace/buffer"
	"github.com/solidcoredata/arrowtrace/bytecode"
)

// Options is spec §6's CompilationOptions: when WrapWithStruct is false
// exactly one field is allowed and no outer struct is emitted.
type Options struct {
	WrapWithStruct bool
}

// Result is the compiler's full output: the bytecode Program plus the
// buffer Counts a MutableBuffers must be sized with to run it.
type Result struct {
	Program *bytecode.Program
	Counts  buffer.Counts
}
