// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package schemahash computes a stable version hash over a schema or table
// definition, the way control/table.version and control/column.version were
// always meant to be filled in rather than left at the zero value.
package schemahash

import (
	"encoding/hex"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/solidcoredata/arrowtrace/schema"
)

// Hash is a 256-bit version hash, matching control/fieldtype's "hash" entry
// (bit_size 256). It is filled by running four independently-seeded xxhash
// digests over the same canonical byte stream; xxhash itself is 64-bit, so
// one seed alone would only ever fill a quarter of the field.
type Hash [32]byte

// Zero is the hash a fresh, never-computed version column should carry.
var Zero Hash

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Hasher accumulates canonical bytes for one version hash. Writers append
// field-boundary bytes between values so that, e.g., a field named "ab" with
// an empty next field never collides with one named "a" followed by "b".
type Hasher struct {
	digests [4]*xxhash.Digest
}

// New returns a Hasher ready to accept canonical bytes via Write.
func New() *Hasher {
	h := &Hasher{}
	for i := range h.digests {
		h.digests[i] = xxhash.NewWithSeed(uint64(i))
	}
	return h
}

// Write feeds b into every seeded digest. It never returns an error; xxhash's
// Write never fails.
func (h *Hasher) Write(b []byte) {
	for _, d := range h.digests {
		d.Write(b)
	}
}

// WriteString is a convenience wrapper avoiding a []byte conversion at call
// sites that already hold a string.
func (h *Hasher) WriteString(s string) {
	h.Write([]byte(s))
}

// WriteBool writes a single 0x00/0x01 byte.
func (h *Hasher) WriteBool(b bool) {
	if b {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}
}

// boundary separates adjacent fields in the canonical stream.
var boundary = []byte{0x1f}

// Sum finalizes and returns the accumulated hash. The Hasher remains valid
// for further Write calls, matching xxhash.Digest's own Sum semantics, but a
// Hasher is normally used once and discarded.
func (h *Hasher) Sum() Hash {
	var out Hash
	for i, d := range h.digests {
		copy(out[i*8:(i+1)*8], d.Sum(nil))
	}
	return out
}

// OfField computes the version hash of a single field, recursing into
// children, metadata and strategy in a fixed, sorted order so the result is
// independent of map iteration order.
func OfField(f schema.Field) Hash {
	h := New()
	writeField(h, f)
	return h.Sum()
}

// OfSchema computes the version hash of every top-level field, in order.
func OfSchema(s schema.Schema) Hash {
	h := New()
	for i, f := range s.Fields {
		if i > 0 {
			h.Write(boundary)
		}
		writeField(h, f)
	}
	return h.Sum()
}

func writeField(h *Hasher, f schema.Field) {
	h.WriteString(f.Name)
	h.Write(boundary)
	h.WriteString(f.DataType.String())
	h.Write(boundary)
	h.WriteBool(f.Nullable)
	h.Write(boundary)
	h.WriteString(f.Strategy.String())
	h.Write(boundary)
	h.WriteString(f.Unit.String())
	h.Write(boundary)
	if f.Timezone != nil {
		h.WriteString(*f.Timezone)
	}
	h.Write(boundary)

	keys := make([]string, 0, len(f.Metadata))
	for k := range f.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.WriteString(k)
		h.Write(boundary)
		h.WriteString(f.Metadata[k])
		h.Write(boundary)
	}

	for i, c := range f.Children {
		if i > 0 {
			h.Write(boundary)
		}
		writeField(h, c)
	}
}
