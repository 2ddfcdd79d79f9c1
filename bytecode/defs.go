// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bytecode

// ListDefinition resolves a list field's body: Item is the pc of the
// instruction routing an Item event into the element body, Return is the
// pc the element body jumps back to on EndSequence, and Offset names the
// offset buffer the field's ListItem/ListEnd instructions maintain.
type ListDefinition struct {
	Item   int
	Return int
	Offset int
}

// StructFieldDef resolves one named field of a struct: which index it was
// assigned, the pc its StructField instruction lives at, and (if the field
// is nullable) the NullDefinition index to apply when it is absent at
// StructEnd.
type StructFieldDef struct {
	Index          int
	Jump           int
	HasNullDef     bool
	NullDefinition int
}

// StructDefinition resolves a struct field's body.
type StructDefinition struct {
	Fields       map[string]StructFieldDef
	FieldOrder   []string // stable iteration order, by declaration
	Return       int
	UnknownField int
	Seen         int // index into MutableBuffers.Seen, cleared per struct instance
}

// MapDefinition resolves a map field's body.
type MapDefinition struct {
	Key    int
	Return int
}

// UnionDefinition resolves a union field's body: one program-counter and
// one schema name per variant, in variant-index order. The name is needed
// to round-trip event.Variant on deserialize; nothing at the Instr level
// carries it.
type UnionDefinition struct {
	Variants []int
	Names    []string
}

// NullDefinition is, for each buffer family, the sorted set of buffer ids
// that must be bumped with defaults when a null is written for the owning
// field. Precomputed at compile time so the interpreter never has to walk
// child instructions at runtime (spec §9 "NullDefinition pre-computation").
type NullDefinition struct {
	U0         []int
	U1         []int
	U8         []int
	U16        []int
	U32        []int
	U64        []int
	Bytes      []int
	Offsets32  []int
	Offsets64  []int
	Validity   []int
}

// ArrayMapping describes, per output column, which buffer ids form its
// validity/values/offsets/children. It is a parallel tree to the Schema,
// used by the external array wrapper (arrowadapt) to assemble the final
// array; the core never interprets it beyond collecting buffer ids for
// NullDefinition (spec §4.2).
type ArrayMapping struct {
	FieldName string

	ValidityBuf    int
	HasValidityBuf bool

	U0Buf     int
	HasU0Buf  bool
	U1Buf     int
	HasU1Buf  bool
	U8Buf     int
	HasU8Buf  bool
	U16Buf    int
	HasU16Buf bool
	U32Buf    int
	HasU32Buf bool
	U64Buf    int
	HasU64Buf bool

	BytesBuf     int
	HasBytesBuf  bool
	Offset32Buf  int
	HasOffset32  bool
	Offset64Buf  int
	HasOffset64  bool

	DictIdx    int
	HasDictIdx bool

	TypeIdBuf    int
	HasTypeIdBuf bool

	Children []ArrayMapping
}

// CollectBufferIDs walks m and every descendant, appending every buffer id
// touched into the matching NullDefinition slice. Used by the compiler
// right after a field's body is emitted, per spec §4.3 step 3.
func (m ArrayMapping) CollectBufferIDs(into *NullDefinition) {
	if m.HasValidityBuf {
		into.Validity = append(into.Validity, m.ValidityBuf)
	}
	if m.HasU0Buf {
		into.U0 = append(into.U0, m.U0Buf)
	}
	if m.HasU1Buf {
		into.U1 = append(into.U1, m.U1Buf)
	}
	if m.HasU8Buf {
		into.U8 = append(into.U8, m.U8Buf)
	}
	if m.HasU16Buf {
		into.U16 = append(into.U16, m.U16Buf)
	}
	if m.HasU32Buf {
		into.U32 = append(into.U32, m.U32Buf)
	}
	if m.HasU64Buf {
		into.U64 = append(into.U64, m.U64Buf)
	}
	if m.HasBytesBuf {
		into.Bytes = append(into.Bytes, m.BytesBuf)
	}
	if m.HasOffset32 {
		into.Offsets32 = append(into.Offsets32, m.Offset32Buf)
	}
	if m.HasOffset64 {
		into.Offsets64 = append(into.Offsets64, m.Offset64Buf)
	}
	if m.HasTypeIdBuf {
		into.U8 = append(into.U8, m.TypeIdBuf)
	}
	for _, c := range m.Children {
		c.CollectBufferIDs(into)
	}
}

func (n *NullDefinition) sortAll() {
	sortInts(n.U0)
	sortInts(n.U1)
	sortInts(n.U8)
	sortInts(n.U16)
	sortInts(n.U32)
	sortInts(n.U64)
	sortInts(n.Bytes)
	sortInts(n.Offsets32)
	sortInts(n.Offsets64)
	sortInts(n.Validity)
}

// SortAll sorts every id slice in n for cache-friendly, deterministic
// traversal (spec §3 "Indices are sorted for cache-friendly traversal").
func (n *NullDefinition) SortAll() { n.sortAll() }

func sortInts(s []int) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// Program is the compiler's output: a linear instruction vector plus the
// definition tables and buffer counts the interpreter needs to run it.
type Program struct {
	Instructions []Instr

	ListDefs   []ListDefinition
	StructDefs []StructDefinition
	MapDefs    []MapDefinition
	UnionDefs  []UnionDefinition
	NullDefs   []NullDefinition

	ArrayMapping []ArrayMapping

	NumPositions int
}
