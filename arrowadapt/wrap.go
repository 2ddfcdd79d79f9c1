// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package arrowadapt

import (
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/float16"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/pkg/errors"

	"github.com/solidcoredata/arrowtrace/buffer"
	"github.com/solidcoredata/arrowtrace/bytecode"
	"github.com/solidcoredata/arrowtrace/schema"
)

// WrapColumn builds a genuine arrow.Array for field f out of buffers,
// following am (the ArrayMapping the compiler produced for f) to find which
// buffer ids hold its data. n is the number of logical values f has at this
// nesting level: the row count for a top-level field, or the element count
// a parent list/map/struct has already established for a child.
func WrapColumn(mem memory.Allocator, f schema.Field, am bytecode.ArrayMapping, buffers *buffer.MutableBuffers, n int) (arrow.Array, error) {
	if f.DataType == schema.Union {
		return wrapUnion(mem, f, am, buffers, n)
	}
	dt, err := ToArrowType(f)
	if err != nil {
		return nil, err
	}
	b := array.NewBuilder(mem, dt)
	defer b.Release()
	if err := appendValues(mem, f, am, buffers, b, n); err != nil {
		return nil, err
	}
	return b.NewArray(), nil
}

// appendValues appends n logical values of f into b, recursing into b's own
// sub-builders for nested types so a parent list/struct/map never has to
// stand up a standalone child array and copy it in afterward.
func appendValues(mem memory.Allocator, f schema.Field, am bytecode.ArrayMapping, buffers *buffer.MutableBuffers, b array.Builder, n int) error {
	switch f.DataType {
	case schema.Null:
		for i := 0; i < n; i++ {
			b.AppendNull()
		}
		return nil

	case schema.Bool:
		bb := b.(*array.BooleanBuilder)
		for i := 0; i < n; i++ {
			if !validAt(am, buffers, i) {
				bb.AppendNull()
				continue
			}
			bb.Append(buffers.U1[am.U1Buf].Get(i))
		}
		return nil

	case schema.Int8, schema.Int16, schema.Int32, schema.Int64,
		schema.UInt8, schema.UInt16, schema.UInt32, schema.UInt64:
		return appendInteger(f, am, buffers, b, n)

	case schema.Float16:
		bb := b.(*array.Float16Builder)
		for i := 0; i < n; i++ {
			if !validAt(am, buffers, i) {
				bb.AppendNull()
				continue
			}
			bb.Append(float16.New(halfBitsToFloat32(buffers.U16[am.U16Buf].Get(i))))
		}
		return nil

	case schema.Float32:
		bb := b.(*array.Float32Builder)
		for i := 0; i < n; i++ {
			if !validAt(am, buffers, i) {
				bb.AppendNull()
				continue
			}
			bb.Append(math.Float32frombits(buffers.U32[am.U32Buf].Get(i)))
		}
		return nil

	case schema.Float64:
		bb := b.(*array.Float64Builder)
		for i := 0; i < n; i++ {
			if !validAt(am, buffers, i) {
				bb.AppendNull()
				continue
			}
			bb.Append(math.Float64frombits(buffers.U64[am.U64Buf].Get(i)))
		}
		return nil

	case schema.Utf8:
		bb := b.(*array.StringBuilder)
		offs := buffers.Offsets32[am.Offset32Buf].Offsets()
		bytes := buffers.Bytes[am.BytesBuf].Bytes()
		for i := 0; i < n; i++ {
			if !validAt(am, buffers, i) {
				bb.AppendNull()
				continue
			}
			bb.Append(string(bytes[offs[i]:offs[i+1]]))
		}
		return nil

	case schema.LargeUtf8:
		bb := b.(*array.LargeStringBuilder)
		offs := buffers.Offsets64[am.Offset64Buf].Offsets()
		bytes := buffers.Bytes[am.BytesBuf].Bytes()
		for i := 0; i < n; i++ {
			if !validAt(am, buffers, i) {
				bb.AppendNull()
				continue
			}
			bb.Append(string(bytes[offs[i]:offs[i+1]]))
		}
		return nil

	case schema.Date64:
		bb := b.(*array.Date64Builder)
		for i := 0; i < n; i++ {
			if !validAt(am, buffers, i) {
				bb.AppendNull()
				continue
			}
			bb.Append(arrow.Date64(int64(buffers.U64[am.U64Buf].Get(i))))
		}
		return nil

	case schema.Timestamp:
		bb := b.(*array.TimestampBuilder)
		for i := 0; i < n; i++ {
			if !validAt(am, buffers, i) {
				bb.AppendNull()
				continue
			}
			bb.Append(arrow.Timestamp(int64(buffers.U64[am.U64Buf].Get(i))))
		}
		return nil

	case schema.List:
		lb := b.(*array.ListBuilder)
		offs := buffers.Offsets32[am.Offset32Buf].Offsets()
		childN := int(offs[n] - offs[0])
		for i := 0; i < n; i++ {
			if !validAt(am, buffers, i) {
				lb.AppendNull()
				continue
			}
			lb.Append(true)
		}
		return appendValues(mem, f.Children[0], am.Children[0], buffers, lb.ValueBuilder(), childN)

	case schema.LargeList:
		lb := b.(*array.LargeListBuilder)
		offs := buffers.Offsets64[am.Offset64Buf].Offsets()
		childN := int(offs[n] - offs[0])
		for i := 0; i < n; i++ {
			if !validAt(am, buffers, i) {
				lb.AppendNull()
				continue
			}
			lb.Append(true)
		}
		return appendValues(mem, f.Children[0], am.Children[0], buffers, lb.ValueBuilder(), childN)

	case schema.FixedSizeList:
		size, err := fixedSizeOf(f)
		if err != nil {
			return err
		}
		lb := b.(*array.FixedSizeListBuilder)
		for i := 0; i < n; i++ {
			if !validAt(am, buffers, i) {
				lb.AppendNull()
				continue
			}
			lb.Append(true)
		}
		return appendValues(mem, f.Children[0], am.Children[0], buffers, lb.ValueBuilder(), n*size)

	case schema.Struct:
		sb := b.(*array.StructBuilder)
		for i := 0; i < n; i++ {
			if !validAt(am, buffers, i) {
				sb.AppendNull()
				continue
			}
			sb.Append(true)
		}
		for i, c := range f.Children {
			if err := appendValues(mem, c, am.Children[i], buffers, sb.FieldBuilder(i), n); err != nil {
				return err
			}
		}
		return nil

	case schema.Map:
		mb := b.(*array.MapBuilder)
		kv := f.Children[0].Children
		entries := am.Children[0]
		offs := buffers.Offsets32[am.Offset32Buf].Offsets()
		entryN := int(offs[n] - offs[0])
		for i := 0; i < n; i++ {
			if !validAt(am, buffers, i) {
				mb.AppendNull()
				continue
			}
			mb.Append(true)
		}
		if err := appendValues(mem, kv[0], entries.Children[0], buffers, mb.KeyBuilder(), entryN); err != nil {
			return err
		}
		return appendValues(mem, kv[1], entries.Children[1], buffers, mb.ItemBuilder(), entryN)

	case schema.Union:
		return errors.Errorf("arrowadapt: Union field %q may only appear at a column's own top level, not nested inside a list/struct/map builder", f.Name)

	case schema.Dictionary:
		return appendDictionary(mem, f, am, buffers, b, n)
	}
	return errors.Errorf("arrowadapt: unsupported data type %s", f.DataType)
}

// validAt reports whether value i is present, per am's validity buffer if
// the field is nullable. Non-nullable fields have no validity buffer and are
// always present.
func validAt(am bytecode.ArrayMapping, buffers *buffer.MutableBuffers, i int) bool {
	if !am.HasValidityBuf {
		return true
	}
	return buffers.U1[am.ValidityBuf].Get(i)
}

func appendInteger(f schema.Field, am bytecode.ArrayMapping, buffers *buffer.MutableBuffers, b array.Builder, n int) error {
	switch f.DataType {
	case schema.Int8:
		bb := b.(*array.Int8Builder)
		for i := 0; i < n; i++ {
			if !validAt(am, buffers, i) {
				bb.AppendNull()
				continue
			}
			bb.Append(int8(buffers.U8[am.U8Buf].Get(i)))
		}
	case schema.UInt8:
		bb := b.(*array.Uint8Builder)
		for i := 0; i < n; i++ {
			if !validAt(am, buffers, i) {
				bb.AppendNull()
				continue
			}
			bb.Append(buffers.U8[am.U8Buf].Get(i))
		}
	case schema.Int16:
		bb := b.(*array.Int16Builder)
		for i := 0; i < n; i++ {
			if !validAt(am, buffers, i) {
				bb.AppendNull()
				continue
			}
			bb.Append(int16(buffers.U16[am.U16Buf].Get(i)))
		}
	case schema.UInt16:
		bb := b.(*array.Uint16Builder)
		for i := 0; i < n; i++ {
			if !validAt(am, buffers, i) {
				bb.AppendNull()
				continue
			}
			bb.Append(buffers.U16[am.U16Buf].Get(i))
		}
	case schema.Int32:
		bb := b.(*array.Int32Builder)
		for i := 0; i < n; i++ {
			if !validAt(am, buffers, i) {
				bb.AppendNull()
				continue
			}
			bb.Append(int32(buffers.U32[am.U32Buf].Get(i)))
		}
	case schema.UInt32:
		bb := b.(*array.Uint32Builder)
		for i := 0; i < n; i++ {
			if !validAt(am, buffers, i) {
				bb.AppendNull()
				continue
			}
			bb.Append(buffers.U32[am.U32Buf].Get(i))
		}
	case schema.Int64:
		bb := b.(*array.Int64Builder)
		for i := 0; i < n; i++ {
			if !validAt(am, buffers, i) {
				bb.AppendNull()
				continue
			}
			bb.Append(int64(buffers.U64[am.U64Buf].Get(i)))
		}
	case schema.UInt64:
		bb := b.(*array.Uint64Builder)
		for i := 0; i < n; i++ {
			if !validAt(am, buffers, i) {
				bb.AppendNull()
				continue
			}
			bb.Append(buffers.U64[am.U64Buf].Get(i))
		}
	default:
		return errors.Errorf("arrowadapt: %s is not an integer type", f.DataType)
	}
	return nil
}

// wrapUnion builds a dense union as a standalone array: type_ids come
// straight from the compiled TypeIdBuf (one per row); value_offsets are
// recovered by counting, for each row, how many rows of the same variant
// preceded it, since every variant's own buffers only ever hold that
// variant's rows. A dense union can only be a column's own top-level type in
// this implementation, not a value nested inside another builder, since
// Arrow builders have no generic "append a child union" primitive; compile
// accepts Union fields at any level, and appendValues returns an error for a
// Union reached through a list item, struct field or map key/value.
func wrapUnion(mem memory.Allocator, f schema.Field, am bytecode.ArrayMapping, buffers *buffer.MutableBuffers, n int) (arrow.Array, error) {
	dt, err := ToArrowType(f)
	if err != nil {
		return nil, err
	}
	unionType := dt.(*arrow.DenseUnionType)

	typeIDs := make([]int8, n)
	counts := make([]int, len(f.Children))
	valueOffsets := make([]int32, n)
	for i := 0; i < n; i++ {
		tid := int8(buffers.U8[am.TypeIdBuf].Get(i))
		typeIDs[i] = tid
		valueOffsets[i] = int32(counts[tid])
		counts[tid]++
	}

	children := make([]arrow.ArrayData, len(f.Children))
	built := make([]arrow.Array, len(f.Children))
	for i, variant := range f.Children {
		child, err := WrapColumn(mem, variant, am.Children[i], buffers, counts[i])
		if err != nil {
			return nil, err
		}
		built[i] = child
		children[i] = child.Data()
	}

	typeIDBuf := memory.NewBufferBytes(int8SliceToBytes(typeIDs))
	offsetBuf := memory.NewBufferBytes(int32SliceToBytes(valueOffsets))
	data := array.NewData(unionType, n, []*memory.Buffer{nil, typeIDBuf, offsetBuf}, children, 0, 0)
	defer data.Release()
	arr := array.NewDenseUnionData(data)
	for _, c := range built {
		c.Release()
	}
	return arr, nil
}

func appendDictionary(mem memory.Allocator, f schema.Field, am bytecode.ArrayMapping, buffers *buffer.MutableBuffers, b array.Builder, n int) error {
	keys := f.Children[0]
	db, ok := b.(array.IndexBuilder)
	if !ok {
		return errors.Errorf("arrowadapt: dictionary builder for %q does not implement IndexBuilder", f.Name)
	}
	for i := 0; i < n; i++ {
		if !validAt(am, buffers, i) {
			b.AppendNull()
			continue
		}
		db.AppendIndex(dictKeyAt(keys, am, buffers, i))
	}
	return nil
}

func dictKeyAt(keys schema.Field, am bytecode.ArrayMapping, buffers *buffer.MutableBuffers, i int) int {
	switch {
	case keys.DataType == schema.Int8 || keys.DataType == schema.UInt8:
		return int(buffers.U8[am.U8Buf].Get(i))
	case keys.DataType == schema.Int16 || keys.DataType == schema.UInt16:
		return int(buffers.U16[am.U16Buf].Get(i))
	case keys.DataType == schema.Int32 || keys.DataType == schema.UInt32:
		return int(buffers.U32[am.U32Buf].Get(i))
	default:
		return int(buffers.U64[am.U64Buf].Get(i))
	}
}

func int8SliceToBytes(s []int8) []byte {
	out := make([]byte, len(s))
	for i, v := range s {
		out[i] = byte(v)
	}
	return out
}

func int32SliceToBytes(s []int32) []byte {
	out := make([]byte, len(s)*4)
	for i, v := range s {
		out[i*4] = byte(v)
		out[i*4+1] = byte(v >> 8)
		out[i*4+2] = byte(v >> 16)
		out[i*4+3] = byte(v >> 24)
	}
	return out
}

// halfBitsToFloat32 widens a stored IEEE-754 binary16 bit pattern to
// float32, the inverse of interp/serialize.go's float64ToFloat16Bits, which
// the serializer's float16 push uses on the way in. float16.Num has no exported way to
// construct from a raw bit pattern directly, only from New(float32), so this
// round-trips through the float32 domain instead.
func halfBitsToFloat32(bits uint16) float32 {
	sign := uint32(bits&0x8000) << 16
	exp := uint32(bits>>10) & 0x1f
	mant := uint32(bits & 0x3ff)

	var bits32 uint32
	switch {
	case exp == 0:
		if mant == 0 {
			bits32 = sign
		} else {
			for mant&0x400 == 0 {
				mant <<= 1
				exp--
			}
			exp++
			mant &= 0x3ff
			bits32 = sign | ((exp + (127 - 15)) << 23) | (mant << 13)
		}
	case exp == 0x1f:
		bits32 = sign | 0x7f800000 | (mant << 13)
	default:
		bits32 = sign | ((exp + (127 - 15)) << 23) | (mant << 13)
	}
	return math.Float32frombits(bits32)
}
