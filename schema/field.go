// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package schema

import (
	"github.com/pkg/errors"
)

// Field is one node of a Schema: {name, data_type, nullable, strategy?,
// children[]}, mirroring the teacher's ts.Col but carrying a full logical
// type tree (ts.Col only ever carried one of six flat Type values).
type Field struct {
	Name     string
	DataType DataType
	Nullable bool
	Strategy Strategy

	// Unit and Timezone apply only when DataType == Timestamp.
	Unit     TimeUnit
	Timezone *string

	Children []Field

	// Metadata carries strategy and other round-trip metadata as an
	// opaque key/value map, per spec §3 "Strategy metadata".
	Metadata map[string]string
}

// Validate checks the structural invariants spec §3 assigns to each
// DataType. It does not recurse into unrelated sibling fields; callers
// validate a tree by walking it (see Schema.Validate).
func (f Field) Validate() error {
	switch f.DataType {
	case Null:
		if len(f.Children) != 0 {
			return errors.Errorf("schema: field %q: Null must have no children", f.Name)
		}
		if f.Strategy != StrategyNone && f.Strategy != InconsistentTypes && f.Strategy != UnknownVariant {
			return errors.Errorf("schema: field %q: Null may only carry InconsistentTypes or UnknownVariant", f.Name)
		}
	case Bool, Int8, Int16, Int32, Int64, UInt8, UInt16, UInt32, UInt64,
		Float16, Float32, Float64, Utf8, LargeUtf8:
		if len(f.Children) != 0 {
			return errors.Errorf("schema: field %q: primitive type %s must have no children", f.Name, f.DataType)
		}
		if f.Strategy != StrategyNone {
			return errors.Errorf("schema: field %q: primitive type %s may not carry a strategy", f.Name, f.DataType)
		}
	case Date64:
		if len(f.Children) != 0 {
			return errors.Errorf("schema: field %q: Date64 must have no children", f.Name)
		}
		switch f.Strategy {
		case StrategyNone, NaiveStrAsDate64, UtcStrAsDate64:
		default:
			return errors.Errorf("schema: field %q: Date64 may only carry NaiveStrAsDate64 or UtcStrAsDate64", f.Name)
		}
	case Timestamp:
		if len(f.Children) != 0 {
			return errors.Errorf("schema: field %q: Timestamp must have no children", f.Name)
		}
		switch f.Strategy {
		case StrategyNone:
		case UtcStrAsDate64:
			if f.Unit != Millisecond || f.Timezone == nil || *f.Timezone != "UTC" {
				return errors.Errorf("schema: field %q: UtcStrAsDate64 requires Timestamp(Millisecond, UTC)", f.Name)
			}
		case NaiveStrAsDate64:
			if f.Unit != Millisecond || f.Timezone != nil {
				return errors.Errorf("schema: field %q: NaiveStrAsDate64 requires Timestamp(Millisecond, None)", f.Name)
			}
		default:
			return errors.Errorf("schema: field %q: Timestamp may only carry UtcStrAsDate64 or NaiveStrAsDate64", f.Name)
		}
	case List, LargeList:
		if len(f.Children) != 1 {
			return errors.Errorf("schema: field %q: %s must have exactly one child", f.Name, f.DataType)
		}
		if f.Strategy != StrategyNone {
			return errors.Errorf("schema: field %q: %s may not carry a strategy", f.Name, f.DataType)
		}
	case FixedSizeList:
		if len(f.Children) != 1 {
			return errors.Errorf("schema: field %q: FixedSizeList must have exactly one child", f.Name)
		}
	case Struct:
		switch f.Strategy {
		case StrategyNone, MapAsStruct, TupleAsStruct:
		default:
			return errors.Errorf("schema: field %q: Struct may only carry MapAsStruct or TupleAsStruct", f.Name)
		}
	case Map:
		if len(f.Children) != 1 {
			return errors.Errorf("schema: field %q: Map must have exactly one child", f.Name)
		}
		kv := f.Children[0]
		if kv.DataType != Struct || len(kv.Children) != 2 {
			return errors.Errorf("schema: field %q: Map child must be a Struct with exactly two children (key, value)", f.Name)
		}
	case Union:
		if len(f.Children) == 0 {
			return errors.Errorf("schema: field %q: Union must have at least one child", f.Name)
		}
		if f.Strategy != StrategyNone {
			return errors.Errorf("schema: field %q: Union may not carry a strategy", f.Name)
		}
	case Dictionary:
		if len(f.Children) != 2 {
			return errors.Errorf("schema: field %q: Dictionary must have exactly two children (keys, values)", f.Name)
		}
		if !f.Children[0].DataType.IsInteger() {
			return errors.Errorf("schema: field %q: Dictionary keys child must be an integer type", f.Name)
		}
		if f.Children[1].DataType != Utf8 && f.Children[1].DataType != LargeUtf8 {
			return errors.Errorf("schema: field %q: Dictionary values child must be Utf8 or LargeUtf8", f.Name)
		}
	default:
		return errors.Errorf("schema: field %q: unknown data type %v", f.Name, f.DataType)
	}
	for i := range f.Children {
		if err := f.Children[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Schema is an ordered sequence of top-level Fields; the conceptual root is
// a struct wrapping the row, per spec §3.
type Schema struct {
	Fields []Field
}

// Validate checks every field in the schema.
func (s Schema) Validate() error {
	seen := make(map[string]bool, len(s.Fields))
	for i := range s.Fields {
		f := s.Fields[i]
		if seen[f.Name] {
			return errors.Errorf("schema: duplicate top-level field %q", f.Name)
		}
		seen[f.Name] = true
		if err := f.Validate(); err != nil {
			return err
		}
	}
	return nil
}
