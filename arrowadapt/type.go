// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package arrowadapt is the external collaborator the core hard-coded its
// Non-goal against: it owns the Arrow array memory layout decision, wrapping
// a compiled bytecode.ArrayMapping plus buffer.MutableBuffers into genuine
// github.com/apache/arrow-go/v18 arrays. It works in that direction only:
// there is no function that reads an Arrow array back into buffers. Nothing
// under buffer, bytecode, compile or interp imports this package; the
// dependency runs one direction only, from here down into their exported
// types.
package arrowadapt

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/pkg/errors"

	"github.com/solidcoredata/arrowtrace/schema"
)

// ToArrowType renders a schema.Field's logical type as an arrow.DataType,
// recursing into children for the nested types. Dictionary, Map and Union
// each pick one concrete Arrow encoding out of several the format allows;
// the choice is recorded in DESIGN.md rather than re-justified here.
func ToArrowType(f schema.Field) (arrow.DataType, error) {
	switch f.DataType {
	case schema.Null:
		return arrow.Null, nil
	case schema.Bool:
		return arrow.FixedWidthTypes.Boolean, nil
	case schema.Int8:
		return arrow.PrimitiveTypes.Int8, nil
	case schema.Int16:
		return arrow.PrimitiveTypes.Int16, nil
	case schema.Int32:
		return arrow.PrimitiveTypes.Int32, nil
	case schema.Int64:
		return arrow.PrimitiveTypes.Int64, nil
	case schema.UInt8:
		return arrow.PrimitiveTypes.Uint8, nil
	case schema.UInt16:
		return arrow.PrimitiveTypes.Uint16, nil
	case schema.UInt32:
		return arrow.PrimitiveTypes.Uint32, nil
	case schema.UInt64:
		return arrow.PrimitiveTypes.Uint64, nil
	case schema.Float16:
		return arrow.FixedWidthTypes.Float16, nil
	case schema.Float32:
		return arrow.PrimitiveTypes.Float32, nil
	case schema.Float64:
		return arrow.PrimitiveTypes.Float64, nil
	case schema.Utf8:
		return arrow.BinaryTypes.String, nil
	case schema.LargeUtf8:
		return arrow.BinaryTypes.LargeString, nil
	case schema.Date64:
		return arrow.FixedWidthTypes.Date64, nil
	case schema.Timestamp:
		unit, err := toArrowUnit(f.Unit)
		if err != nil {
			return nil, err
		}
		tz := ""
		if f.Timezone != nil {
			tz = *f.Timezone
		}
		return &arrow.TimestampType{Unit: unit, TimeZone: tz}, nil

	case schema.List:
		elem, err := ToArrowType(f.Children[0])
		if err != nil {
			return nil, err
		}
		return arrow.ListOf(elem), nil
	case schema.LargeList:
		elem, err := ToArrowType(f.Children[0])
		if err != nil {
			return nil, err
		}
		return arrow.LargeListOf(elem), nil
	case schema.FixedSizeList:
		n, err := fixedSizeOf(f)
		if err != nil {
			return nil, err
		}
		elem, err := ToArrowType(f.Children[0])
		if err != nil {
			return nil, err
		}
		return arrow.FixedSizeListOf(int32(n), elem), nil

	case schema.Struct:
		fields, err := toArrowFields(f.Children)
		if err != nil {
			return nil, err
		}
		return arrow.StructOf(fields...), nil

	case schema.Map:
		kv := f.Children[0].Children
		keyType, err := ToArrowType(kv[0])
		if err != nil {
			return nil, err
		}
		valType, err := ToArrowType(kv[1])
		if err != nil {
			return nil, err
		}
		return arrow.MapOf(keyType, valType), nil

	case schema.Union:
		fields, err := toArrowFields(f.Children)
		if err != nil {
			return nil, err
		}
		codes := make([]arrow.UnionTypeCode, len(fields))
		for i := range codes {
			codes[i] = arrow.UnionTypeCode(i)
		}
		return arrow.DenseUnionOf(fields, codes), nil

	case schema.Dictionary:
		keys, values := f.Children[0], f.Children[1]
		indexType, err := ToArrowType(keys)
		if err != nil {
			return nil, err
		}
		valueType, err := ToArrowType(values)
		if err != nil {
			return nil, err
		}
		return &arrow.DictionaryType{IndexType: indexType, ValueType: valueType}, nil
	}
	return nil, errors.Errorf("arrowadapt: unsupported data type %s", f.DataType)
}

func toArrowFields(children []schema.Field) ([]arrow.Field, error) {
	fields := make([]arrow.Field, len(children))
	for i, c := range children {
		dt, err := ToArrowType(c)
		if err != nil {
			return nil, err
		}
		fields[i] = arrow.Field{Name: c.Name, Type: dt, Nullable: c.Nullable}
	}
	return fields, nil
}

func toArrowUnit(u schema.TimeUnit) (arrow.TimeUnit, error) {
	switch u {
	case schema.Second:
		return arrow.Second, nil
	case schema.Millisecond:
		return arrow.Millisecond, nil
	case schema.Microsecond:
		return arrow.Microsecond, nil
	case schema.Nanosecond:
		return arrow.Nanosecond, nil
	}
	return 0, errors.Errorf("arrowadapt: unknown time unit %v", u)
}

const fixedSizeMetadataKey = "fixed_size"

func fixedSizeOf(f schema.Field) (int, error) {
	raw, ok := f.Metadata[fixedSizeMetadataKey]
	if !ok {
		return 0, errors.Errorf("arrowadapt: FixedSizeList field %q missing %q metadata", f.Name, fixedSizeMetadataKey)
	}
	n := 0
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, errors.Errorf("arrowadapt: FixedSizeList field %q has non-numeric %q metadata %q", f.Name, fixedSizeMetadataKey, raw)
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}

// WrapSchema renders a full schema.Schema as an *arrow.Schema, wrapping the
// top-level fields directly (no implicit row-struct wrapper, matching
// CompilationOptions.WrapWithStruct=false's single-field case as well as the
// multi-field default).
func WrapSchema(s schema.Schema) (*arrow.Schema, error) {
	fields, err := toArrowFields(s.Fields)
	if err != nil {
		return nil, err
	}
	return arrow.NewSchema(fields, nil), nil
}
