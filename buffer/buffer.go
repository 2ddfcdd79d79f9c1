// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package buffer implements the typed mutable column buffers the
// interpreter reads and writes, generalizing the teacher's FieldCoder
// write-into-[]byte discipline (ts/fieldcoder.go) from one flat row buffer
// per table into the many small, independently-growable, compile-time
// indexed buffers spec §3 calls MutableBuffers.
package buffer

import "math/bits"

// BitBuffer is a 1-bit-per-row array, used for both validity bitmaps and
// Bool value columns.
type BitBuffer struct {
	bits []byte
	len  int
}

func (b *BitBuffer) Len() int { return b.len }

func (b *BitBuffer) Push(v bool) {
	idx := b.len / 8
	for idx >= len(b.bits) {
		b.bits = append(b.bits, 0)
	}
	if v {
		b.bits[idx] |= 1 << uint(b.len%8)
	}
	b.len++
}

func (b *BitBuffer) Get(i int) bool {
	return b.bits[i/8]&(1<<uint(i%8)) != 0
}

// CountTrue returns the number of set bits, used to check spec §8.4's null
// safety property.
func (b *BitBuffer) CountTrue() int {
	n := 0
	for i := 0; i < b.len; i++ {
		if b.Get(i) {
			n++
		}
	}
	return n
}

func (b *BitBuffer) Bytes() []byte { return b.bits }

func (b *BitBuffer) Clear() {
	b.bits = b.bits[:0]
	b.len = 0
}

// CountBuffer tracks only a length: the 0-bit buffers spec §3 assigns to
// Null columns, one push per row.
type CountBuffer struct {
	count int
}

func (c *CountBuffer) Push()       { c.count++ }
func (c *CountBuffer) Len() int    { return c.count }
func (c *CountBuffer) Clear()      { c.count = 0 }

// ValueBuffer[T] is a flat append-only buffer of fixed-width values.
type ValueBuffer[T any] struct {
	data []T
}

func (v *ValueBuffer[T]) Push(x T)     { v.data = append(v.data, x) }
func (v *ValueBuffer[T]) Len() int     { return len(v.data) }
func (v *ValueBuffer[T]) Data() []T    { return v.data }
func (v *ValueBuffer[T]) Clear()       { v.data = v.data[:0] }
func (v *ValueBuffer[T]) Get(i int) T  { return v.data[i] }

// ByteBuffer is the untyped byte value buffer backing Utf8/LargeUtf8
// content; offsets into it are tracked by the matching OffsetBuffer.
type ByteBuffer struct {
	data []byte
}

func (b *ByteBuffer) Push(s []byte) { b.data = append(b.data, s...) }
func (b *ByteBuffer) Len() int      { return len(b.data) }
func (b *ByteBuffer) Bytes() []byte { return b.data }
func (b *ByteBuffer) Clear()        { b.data = b.data[:0] }

// OffsetBuffer[T] is a monotonic non-decreasing offset array of length
// rows+1, with a running "current items" counter per spec §3: IncCurrent
// bumps the in-progress item count without emitting a slot, PushCurrent
// appends the running count as the next offset.
type OffsetBuffer[T ~int32 | ~int64] struct {
	offsets []T
	current T
}

func NewOffsetBuffer[T ~int32 | ~int64]() *OffsetBuffer[T] {
	return &OffsetBuffer[T]{offsets: []T{0}}
}

func (o *OffsetBuffer[T]) IncCurrent()   { o.current++ }

// Add advances the running total by n, used when the unit being tracked is
// a byte count (Utf8/LargeUtf8 content length) rather than one item per
// IncCurrent call.
func (o *OffsetBuffer[T]) Add(n T)       { o.current += n }
func (o *OffsetBuffer[T]) PushCurrent()  { o.offsets = append(o.offsets, o.current) }
func (o *OffsetBuffer[T]) Current() T    { return o.current }
func (o *OffsetBuffer[T]) Offsets() []T  { return o.offsets }
func (o *OffsetBuffer[T]) Len() int      { return len(o.offsets) }
func (o *OffsetBuffer[T]) Clear() {
	o.offsets = o.offsets[:1]
	o.offsets[0] = 0
	o.current = 0
}

// SeenSet is a fixed-width bit-set of "which fields of the current struct
// instance have been consumed", cleared on StructStart and walked on
// StructEnd. It is capped at 64 fields, the width of a machine word, per
// spec §3.
type SeenSet struct {
	bits uint64
}

func (s *SeenSet) Set(idx int)        { s.bits |= 1 << uint(idx) }
func (s *SeenSet) Has(idx int) bool   { return s.bits&(1<<uint(idx)) != 0 }
func (s *SeenSet) Clear()             { s.bits = 0 }

// Count returns the number of set bits, used by tuple-struct dispatch to
// recover "how many positional items have been consumed so far" without a
// separate counter.
func (s *SeenSet) Count() int { return bits.OnesCount64(s.bits) }

// Dictionary maps a string to an assigned ordinal, insertion-ordered. It
// backs PushDictionary (spec §4.4) and is never sorted; sorted
// dictionaries are not supported (see SPEC_FULL.md).
type Dictionary struct {
	index map[string]uint64
	next  uint64
}

func NewDictionary() *Dictionary {
	return &Dictionary{index: make(map[string]uint64)}
}

// Lookup returns the ordinal for s, allocating a new one (and reporting
// created=true) if s has not been seen before.
func (d *Dictionary) Lookup(s string) (ordinal uint64, created bool) {
	if v, ok := d.index[s]; ok {
		return v, false
	}
	v := d.next
	d.index[s] = v
	d.next++
	return v, true
}

func (d *Dictionary) Len() int { return len(d.index) }

func (d *Dictionary) Clear() {
	d.index = make(map[string]uint64)
	d.next = 0
}

// MutableBuffers holds every per-kind buffer slot allocated by the
// compiler, indexed by compile-time-assigned id. Buffers are created once
// per run, borrowed by the interpreter via indices (never pointers), and
// may be Clear()ed and reused across runs.
type MutableBuffers struct {
	U0 []CountBuffer
	U1 []BitBuffer // validity bitmaps and Bool columns share this family

	U8  []ValueBuffer[uint8]
	U16 []ValueBuffer[uint16]
	U32 []ValueBuffer[uint32]
	U64 []ValueBuffer[uint64]

	Bytes []ByteBuffer

	Offsets32 []OffsetBuffer[int32]
	Offsets64 []OffsetBuffer[int64]

	Seen []SeenSet

	Dictionaries []Dictionary
}

// New allocates a MutableBuffers sized by the compiler's buffer counts.
func New(counts Counts) *MutableBuffers {
	b := &MutableBuffers{
		U0:           make([]CountBuffer, counts.U0),
		U1:           make([]BitBuffer, counts.U1),
		U8:           make([]ValueBuffer[uint8], counts.U8),
		U16:          make([]ValueBuffer[uint16], counts.U16),
		U32:          make([]ValueBuffer[uint32], counts.U32),
		U64:          make([]ValueBuffer[uint64], counts.U64),
		Bytes:        make([]ByteBuffer, counts.Bytes),
		Offsets32:    make([]OffsetBuffer[int32], counts.Offsets32),
		Offsets64:    make([]OffsetBuffer[int64], counts.Offsets64),
		Seen:         make([]SeenSet, counts.Seen),
		Dictionaries: make([]Dictionary, counts.Dictionaries),
	}
	for i := range b.Offsets32 {
		b.Offsets32[i] = *NewOffsetBuffer[int32]()
	}
	for i := range b.Offsets64 {
		b.Offsets64[i] = *NewOffsetBuffer[int64]()
	}
	for i := range b.Dictionaries {
		b.Dictionaries[i] = *NewDictionary()
	}
	return b
}

// Counts records how many buffers of each family the compiler allocated;
// it sizes the MutableBuffers a serialize run is handed.
type Counts struct {
	U0, U1               int
	U8, U16, U32, U64    int
	Bytes                int
	Offsets32, Offsets64 int
	Seen                 int
	Dictionaries         int
}

// Clear resets every buffer's length to zero without releasing capacity,
// per spec §5's resource policy.
func (b *MutableBuffers) Clear() {
	for i := range b.U0 {
		b.U0[i].Clear()
	}
	for i := range b.U1 {
		b.U1[i].Clear()
	}
	for i := range b.U8 {
		b.U8[i].Clear()
	}
	for i := range b.U16 {
		b.U16[i].Clear()
	}
	for i := range b.U32 {
		b.U32[i].Clear()
	}
	for i := range b.U64 {
		b.U64[i].Clear()
	}
	for i := range b.Bytes {
		b.Bytes[i].Clear()
	}
	for i := range b.Offsets32 {
		b.Offsets32[i].Clear()
	}
	for i := range b.Offsets64 {
		b.Offsets64[i].Clear()
	}
	for i := range b.Seen {
		b.Seen[i].Clear()
	}
	for i := range b.Dictionaries {
		b.Dictionaries[i].Clear()
	}
}
