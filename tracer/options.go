// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tracer implements the per-path tracer lattice (spec §4.1): a
// state-machine fusion of tracer nodes that, from a stream of typed value
// events, infers a unified Schema. It generalizes the teacher's flat
// ts.Col declaration (one Type picked up-front) into a node that coerces
// itself upward on each new observation.
package tracer

import "github.com/solidcoredata/arrowtrace/schema"

// MaxDepth is the hard cap on tracer nesting depth (spec §4.1 "Depth
// limit"), guarding against self-referential schemas.
const MaxDepth = 20

// Options controls tracing behavior, per spec §6's TracingOptions table.
type Options struct {
	AllowNullFields           bool
	MapAsStruct               bool
	StringDictionaryEncoding  bool
	CoerceNumbers             bool
	TryParseDates             bool
	GuessDates                bool
	EnumsWithoutDataAsStrings bool

	// Overwrites replaces the traced field at a dotted path with a
	// caller-supplied Field, checked for field-name consistency at
	// ToSchema time.
	Overwrites map[string]schema.Field
}

// DefaultOptions returns the zero-value-safe defaults: permissive tracing,
// no coercion, no date guessing.
func DefaultOptions() Options {
	return Options{AllowNullFields: true}
}

// shared is the options-plus-overwrites block every tracer node in a tree
// holds a reference to, matching spec §3's "options (shared)".
type shared struct {
	opts *Options
}
