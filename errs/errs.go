// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package errs defines the error kinds spec §7 assigns to each stage of
// the pipeline. Every kind carries enough context (a tracer path or an
// instruction index) to identify the offending field or instruction; none
// is ever swallowed or retried.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// SchemaTracingError is raised by tracer coercion failures, a null-only
// root, or an enum-without-data strategy that can't resolve. Surfaced to
// the caller with the tracer path; unrecoverable locally.
type SchemaTracingError struct {
	Path  string
	Cause error
}

func (e *SchemaTracingError) Error() string {
	return fmt.Sprintf("schema tracing error at %s: %v", e.Path, e.Cause)
}
func (e *SchemaTracingError) Unwrap() error { return e.Cause }

func Tracing(path string, format string, args ...interface{}) error {
	return &SchemaTracingError{Path: path, Cause: errors.Errorf(format, args...)}
}

func TracingWrap(path string, cause error, format string, args ...interface{}) error {
	return &SchemaTracingError{Path: path, Cause: errors.Wrapf(cause, format, args...)}
}

// CompilationError is raised by an invalid schema (a malformed map,
// nullable struct with no fields, an unsupported timestamp unit) or
// inconsistent nullability/validity. The schema model has no way to request
// a sorted dictionary, so there is no check for one. No
// partial program is emitted when this is raised.
type CompilationError struct {
	Path  string
	Cause error
}

func (e *CompilationError) Error() string {
	return fmt.Sprintf("compilation error at %s: %v", e.Path, e.Cause)
}
func (e *CompilationError) Unwrap() error { return e.Cause }

func Compilation(path string, format string, args ...interface{}) error {
	return &CompilationError{Path: path, Cause: errors.Errorf(format, args...)}
}

// ValidationError is an internal consistency failure in a compiled
// program. It is always surfaced, never turned into a panic, so fuzzing
// reveals bugs instead of crashing the process.
type ValidationError struct {
	PC    int
	Cause error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error at pc=%d: %v", e.PC, e.Cause)
}
func (e *ValidationError) Unwrap() error { return e.Cause }

func Validation(pc int, format string, args ...interface{}) error {
	return &ValidationError{PC: pc, Cause: errors.Errorf(format, args...)}
}

// SerializationError is raised by an unexpected event for the current
// instruction, a missing non-nullable field at EndStruct, a variant index
// out of range, a string-to-date parse failure, numeric overflow on
// downcast, or dictionary index overflow. Buffers are left in a defined
// but partial state; the caller must discard them.
type SerializationError struct {
	PC    int
	Cause error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialization error at pc=%d: %v", e.PC, e.Cause)
}
func (e *SerializationError) Unwrap() error { return e.Cause }

func Serialization(pc int, format string, args ...interface{}) error {
	return &SerializationError{PC: pc, Cause: errors.Errorf(format, args...)}
}

// DeserializationError is raised by out-of-range offsets, invalid UTF-8 in
// a string buffer, a type-id out of range, or an invalid epoch during date
// parsing. Surfaced; the event stream is truncated at the failure point.
type DeserializationError struct {
	PC    int
	Cause error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("deserialization error at pc=%d: %v", e.PC, e.Cause)
}
func (e *DeserializationError) Unwrap() error { return e.Cause }

func Deserialization(pc int, format string, args ...interface{}) error {
	return &DeserializationError{PC: pc, Cause: errors.Errorf(format, args...)}
}
