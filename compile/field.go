// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compile

import (
	"strconv"

	"github.com/solidcoredata/arrowtrace/bytecode"
	"github.com/solidcoredata/arrowtrace/errs"
	"github.com/solidcoredata/arrowtrace/schema"
)

// Dispatch contract between a Program and the interpreter that walks it,
// recorded here because both halves of this package (and, later, interp)
// must agree on it even though nothing in the Instr/definition types
// enforces it structurally:
//
//   - An "item" instruction (OpOuterSequenceItem, OpListItem,
//     OpLargeListItem, OpFixedSizeListItem, OpTupleStructItem) is reached
//     once per element. On a matching Item event it falls through to Next
//     (the element body). On the matching End event it jumps directly to
//     the owning definition's Return field instead of Next.
//   - OpStructStart doubles as the field-dispatch point for every
//     iteration, not only the first: on an EndStruct event it jumps to
//     StructDefinition.Return; on a StructField/StructItem event it looks
//     the field name up in StructDefinition.Fields and jumps to that
//     field's Jump pc. Each field's body ends by looping back to the
//     owning OpStructStart.
//   - OpMapStart plays the same dispatch role for maps: on EndMap it jumps
//     to MapDefinition.Return, otherwise it falls into the key body
//     (MapDefinition.Key); the key body loops into the value body, and the
//     value body loops back to OpMapStart.
//   - OpVariant writes the selected variant index to TypeIdBuf and jumps
//     directly to UnionDefinition.Variants[index], bypassing Next. Each
//     variant body ends with an elided OpUnionEnd that jump-fix resolves
//     to the pc right after the whole union.
//   - FixedSizeList's element count rides in schema.Field.Metadata under
//     the key "fixed_size" (the schema package has no dedicated count
//     field; Arrow's own FixedSizeList carries its width the same way,
//     outside the child type tree).
const fixedSizeMetadataKey = "fixed_size"

func (c *compiler) compileField(f schema.Field, path string) (bytecode.ArrayMapping, error) {
	if f.Nullable {
		return c.compileNullableField(f, path)
	}
	return c.compileFieldBody(f, path)
}

// compileNullableField wraps a field body in an OptionMarker: on Null it
// writes the body's default buffer bumps (via NullDefinition) and jumps
// past the body; otherwise it falls through into the body.
func (c *compiler) compileNullableField(f schema.Field, path string) (bytecode.ArrayMapping, error) {
	validityBuf := c.allocU1()
	markerOp := c.op(bytecode.OpOptionMarker, bytecode.OpEmitOptionPrimitive)
	markerPC := c.emit(bytecode.Instr{Op: markerOp, ValidityBuf: validityBuf, Next: unset})

	bodyField := f
	bodyField.Nullable = false
	am, err := c.compileFieldBody(bodyField, path)
	if err != nil {
		return bytecode.ArrayMapping{}, err
	}

	var nd bytecode.NullDefinition
	am.CollectBufferIDs(&nd)
	nd.SortAll()
	ndIdx := len(c.nullDefs)
	c.nullDefs = append(c.nullDefs, nd)
	am.ValidityBuf, am.HasValidityBuf = validityBuf, true

	after := c.pc()
	c.instrs[markerPC].NullDefinition = ndIdx
	c.instrs[markerPC].IfNone = after
	return am, nil
}

func (c *compiler) compileFieldBody(f schema.Field, path string) (bytecode.ArrayMapping, error) {
	switch f.DataType {
	case schema.Null:
		buf := c.allocU0()
		c.emit(bytecode.Instr{Op: c.op(bytecode.OpPushNull, bytecode.OpEmitNull), ValueBuf: buf, Next: unset})
		return bytecode.ArrayMapping{FieldName: f.Name, U0Buf: buf, HasU0Buf: true}, nil

	case schema.Bool:
		buf := c.allocU1()
		c.emit(bytecode.Instr{Op: c.op(bytecode.OpPushBool, bytecode.OpEmitBool), ValueBuf: buf, Next: unset})
		return bytecode.ArrayMapping{FieldName: f.Name, U1Buf: buf, HasU1Buf: true}, nil

	case schema.Int8, schema.Int16, schema.Int32, schema.Int64,
		schema.UInt8, schema.UInt16, schema.UInt32, schema.UInt64:
		return c.compileInteger(f)

	case schema.Float16, schema.Float32, schema.Float64:
		return c.compileFloat(f)

	case schema.Utf8:
		bytesBuf, offBuf := c.allocBytes(), c.allocOffsets32()
		c.emit(bytecode.Instr{Op: c.op(bytecode.OpPushUtf8, bytecode.OpEmitStr32), BytesBuf: bytesBuf, OffsetBuf: offBuf, Next: unset})
		return bytecode.ArrayMapping{FieldName: f.Name, BytesBuf: bytesBuf, HasBytesBuf: true, Offset32Buf: offBuf, HasOffset32: true}, nil

	case schema.LargeUtf8:
		bytesBuf, offBuf := c.allocBytes(), c.allocOffsets64()
		c.emit(bytecode.Instr{Op: c.op(bytecode.OpPushLargeUtf8, bytecode.OpEmitStr64), BytesBuf: bytesBuf, OffsetBuf: offBuf, Next: unset})
		return bytecode.ArrayMapping{FieldName: f.Name, BytesBuf: bytesBuf, HasBytesBuf: true, Offset64Buf: offBuf, HasOffset64: true}, nil

	case schema.Date64:
		return c.compileDate64(f)

	case schema.Timestamp:
		return c.compileTimestamp(f)

	case schema.List:
		return c.compileList(f, path, false)
	case schema.LargeList:
		return c.compileList(f, path, true)
	case schema.FixedSizeList:
		return c.compileFixedSizeList(f, path)

	case schema.Struct:
		return c.compileStructField(f, path)

	case schema.Map:
		return c.compileMap(f, path)

	case schema.Union:
		return c.compileUnion(f, path)

	case schema.Dictionary:
		return c.compileDictionary(f)
	}
	return bytecode.ArrayMapping{}, errs.Compilation(path, "unsupported data type %s", f.DataType)
}

func (c *compiler) compileInteger(f schema.Field) (bytecode.ArrayMapping, error) {
	var op bytecode.Op
	var width bytecode.BufferWidth
	signed := f.DataType.IsSignedInteger()

	var buf int
	switch f.DataType {
	case schema.Int8:
		op, width, buf = c.op(bytecode.OpPushI8, bytecode.OpEmitI8), bytecode.Width8, c.allocU8()
	case schema.UInt8:
		op, width, buf = c.op(bytecode.OpPushU8, bytecode.OpEmitU8), bytecode.Width8, c.allocU8()
	case schema.Int16:
		op, width, buf = c.op(bytecode.OpPushI16, bytecode.OpEmitI16), bytecode.Width16, c.allocU16()
	case schema.UInt16:
		op, width, buf = c.op(bytecode.OpPushU16, bytecode.OpEmitU16), bytecode.Width16, c.allocU16()
	case schema.Int32:
		op, width, buf = c.op(bytecode.OpPushI32, bytecode.OpEmitI32), bytecode.Width32, c.allocU32()
	case schema.UInt32:
		op, width, buf = c.op(bytecode.OpPushU32, bytecode.OpEmitU32), bytecode.Width32, c.allocU32()
	case schema.Int64:
		op, width, buf = c.op(bytecode.OpPushI64, bytecode.OpEmitI64), bytecode.Width64, c.allocU64()
	case schema.UInt64:
		op, width, buf = c.op(bytecode.OpPushU64, bytecode.OpEmitU64), bytecode.Width64, c.allocU64()
	}
	c.emit(bytecode.Instr{Op: op, ValueBuf: buf, Width: width, Signed: signed, Next: unset})

	am := bytecode.ArrayMapping{FieldName: f.Name}
	switch width {
	case bytecode.Width8:
		am.U8Buf, am.HasU8Buf = buf, true
	case bytecode.Width16:
		am.U16Buf, am.HasU16Buf = buf, true
	case bytecode.Width32:
		am.U32Buf, am.HasU32Buf = buf, true
	case bytecode.Width64:
		am.U64Buf, am.HasU64Buf = buf, true
	}
	return am, nil
}

func (c *compiler) compileFloat(f schema.Field) (bytecode.ArrayMapping, error) {
	am := bytecode.ArrayMapping{FieldName: f.Name}
	switch f.DataType {
	case schema.Float16:
		buf := c.allocU16()
		c.emit(bytecode.Instr{Op: c.op(bytecode.OpPushF16, bytecode.OpEmitF16), ValueBuf: buf, Width: bytecode.Width16, Next: unset})
		am.U16Buf, am.HasU16Buf = buf, true
	case schema.Float32:
		buf := c.allocU32()
		c.emit(bytecode.Instr{Op: c.op(bytecode.OpPushF32, bytecode.OpEmitF32), ValueBuf: buf, Width: bytecode.Width32, Next: unset})
		am.U32Buf, am.HasU32Buf = buf, true
	case schema.Float64:
		buf := c.allocU64()
		c.emit(bytecode.Instr{Op: c.op(bytecode.OpPushF64, bytecode.OpEmitF64), ValueBuf: buf, Width: bytecode.Width64, Next: unset})
		am.U64Buf, am.HasU64Buf = buf, true
	}
	return am, nil
}

func (c *compiler) compileDate64(f schema.Field) (bytecode.ArrayMapping, error) {
	buf := c.allocU64()
	op := c.op(bytecode.OpPushI64, bytecode.OpEmitI64)
	var divisor int64
	switch f.Strategy {
	case schema.NaiveStrAsDate64:
		op, divisor = c.op(bytecode.OpPushDate64FromNaiveStr, bytecode.OpEmitDate64NaiveStr), 1_000_000
	case schema.UtcStrAsDate64:
		op, divisor = c.op(bytecode.OpPushDate64FromUtcStr, bytecode.OpEmitDate64UtcStr), 1_000_000
	}
	c.emit(bytecode.Instr{Op: op, ValueBuf: buf, Width: bytecode.Width64, Signed: true, TimeUnitDivisor: divisor, Next: unset})
	return bytecode.ArrayMapping{FieldName: f.Name, U64Buf: buf, HasU64Buf: true}, nil
}

// nanosPerUnit lets the naive/UTC string parsers (which resolve to a
// millisecond epoch value) rescale into any Timestamp unit without
// floating point: multiply the millisecond value by 1e6, then divide by
// this divisor.
func nanosPerUnit(u schema.TimeUnit) int64 {
	switch u {
	case schema.Second:
		return 1_000_000_000
	case schema.Millisecond:
		return 1_000_000
	case schema.Microsecond:
		return 1_000
	case schema.Nanosecond:
		return 1
	}
	return 1_000_000
}

func (c *compiler) compileTimestamp(f schema.Field) (bytecode.ArrayMapping, error) {
	buf := c.allocU64()
	op := c.op(bytecode.OpPushI64, bytecode.OpEmitI64)
	switch f.Strategy {
	case schema.NaiveStrAsDate64:
		op = c.op(bytecode.OpPushTimestampFromNaiveStr, bytecode.OpEmitDate64NaiveStr)
	case schema.UtcStrAsDate64:
		op = c.op(bytecode.OpPushTimestampFromUtcStr, bytecode.OpEmitDate64UtcStr)
	}
	c.emit(bytecode.Instr{Op: op, ValueBuf: buf, Width: bytecode.Width64, Signed: true, TimeUnitDivisor: nanosPerUnit(f.Unit), Next: unset})
	return bytecode.ArrayMapping{FieldName: f.Name, U64Buf: buf, HasU64Buf: true}, nil
}

func (c *compiler) compileDictionary(f schema.Field) (bytecode.ArrayMapping, error) {
	keys, values := f.Children[0], f.Children[1]
	var width bytecode.BufferWidth
	var keyBuf int
	am := bytecode.ArrayMapping{FieldName: f.Name}
	switch keys.DataType {
	case schema.Int8, schema.UInt8:
		width, keyBuf = bytecode.Width8, c.allocU8()
		am.U8Buf, am.HasU8Buf = keyBuf, true
	case schema.Int16, schema.UInt16:
		width, keyBuf = bytecode.Width16, c.allocU16()
		am.U16Buf, am.HasU16Buf = keyBuf, true
	case schema.Int32, schema.UInt32:
		width, keyBuf = bytecode.Width32, c.allocU32()
		am.U32Buf, am.HasU32Buf = keyBuf, true
	default:
		width, keyBuf = bytecode.Width64, c.allocU64()
		am.U64Buf, am.HasU64Buf = keyBuf, true
	}

	bytesBuf := c.allocBytes()
	am.BytesBuf, am.HasBytesBuf = bytesBuf, true
	var offBuf int
	var dictOp bytecode.Op
	if values.DataType == schema.LargeUtf8 {
		offBuf = c.allocOffsets64()
		am.Offset64Buf, am.HasOffset64 = offBuf, true
		dictOp = c.op(bytecode.OpPushDictionaryLarge, bytecode.OpEmitDictionaryStrLarge)
	} else {
		offBuf = c.allocOffsets32()
		am.Offset32Buf, am.HasOffset32 = offBuf, true
		dictOp = c.op(bytecode.OpPushDictionary, bytecode.OpEmitDictionaryStr)
	}

	dictIdx := c.allocDictionary()
	am.DictIdx, am.HasDictIdx = dictIdx, true

	c.emit(bytecode.Instr{
		Op: dictOp, ValueBuf: keyBuf, Width: width, Signed: keys.DataType.IsSignedInteger(),
		BytesBuf: bytesBuf, OffsetBuf: offBuf, DictIdx: dictIdx, Next: unset,
	})
	return am, nil
}

func (c *compiler) compileList(f schema.Field, path string, large bool) (bytecode.ArrayMapping, error) {
	listIdx := len(c.listDefs)
	c.listDefs = append(c.listDefs, bytecode.ListDefinition{})

	var startOp, itemOp, endOp bytecode.Op
	var offsetBuf int
	if large {
		startOp = c.op(bytecode.OpLargeListStart, bytecode.OpEmitStartLargeSequence)
		itemOp = c.op(bytecode.OpLargeListItem, bytecode.OpEmitItemLargeSequence)
		endOp = c.op(bytecode.OpLargeListEnd, bytecode.OpEmitEndLargeSequence)
		offsetBuf = c.allocOffsets64()
	} else {
		startOp = c.op(bytecode.OpListStart, bytecode.OpEmitStartSequence)
		itemOp = c.op(bytecode.OpListItem, bytecode.OpEmitItemSequence)
		endOp = c.op(bytecode.OpListEnd, bytecode.OpEmitEndSequence)
		offsetBuf = c.allocOffsets32()
	}
	c.emit(bytecode.Instr{Op: startOp, ListIdx: listIdx, OffsetBuf: offsetBuf, Next: unset})
	itemPC := c.emit(bytecode.Instr{Op: itemOp, ListIdx: listIdx, OffsetBuf: offsetBuf, Next: unset})
	c.listDefs[listIdx].Item = itemPC
	c.listDefs[listIdx].Offset = offsetBuf

	childAM, err := c.compileField(f.Children[0], path+".[]")
	if err != nil {
		return bytecode.ArrayMapping{}, err
	}
	c.emit(bytecode.Instr{Op: bytecode.OpRedirect, Next: itemPC})

	endPC := c.emit(bytecode.Instr{Op: endOp, ListIdx: listIdx, OffsetBuf: offsetBuf, Next: unset})
	c.listDefs[listIdx].Return = endPC

	am := bytecode.ArrayMapping{FieldName: f.Name, Children: []bytecode.ArrayMapping{childAM}}
	if large {
		am.Offset64Buf, am.HasOffset64 = offsetBuf, true
	} else {
		am.Offset32Buf, am.HasOffset32 = offsetBuf, true
	}
	return am, nil
}

func fixedSizeOf(f schema.Field) (int, error) {
	raw, ok := f.Metadata[fixedSizeMetadataKey]
	if !ok {
		return 0, errs.Compilation(f.Name, "FixedSizeList field missing %q metadata", fixedSizeMetadataKey)
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errs.Compilation(f.Name, "FixedSizeList field has invalid %q metadata %q", fixedSizeMetadataKey, raw)
	}
	return n, nil
}

func (c *compiler) compileFixedSizeList(f schema.Field, path string) (bytecode.ArrayMapping, error) {
	size, err := fixedSizeOf(f)
	if err != nil {
		return bytecode.ArrayMapping{}, err
	}
	listIdx := len(c.listDefs)
	c.listDefs = append(c.listDefs, bytecode.ListDefinition{Offset: -1})

	startOp := c.op(bytecode.OpFixedSizeListStart, bytecode.OpEmitStartFixedSizeList)
	itemOp := c.op(bytecode.OpFixedSizeListItem, bytecode.OpEmitItemFixedSizeList)
	endOp := c.op(bytecode.OpFixedSizeListEnd, bytecode.OpEmitEndFixedSizeList)

	c.emit(bytecode.Instr{Op: startOp, ListIdx: listIdx, FixedSize: size, Next: unset})
	itemPC := c.emit(bytecode.Instr{Op: itemOp, ListIdx: listIdx, FixedSize: size, Next: unset})
	c.listDefs[listIdx].Item = itemPC

	childAM, err := c.compileField(f.Children[0], path+".[]")
	if err != nil {
		return bytecode.ArrayMapping{}, err
	}
	c.emit(bytecode.Instr{Op: bytecode.OpRedirect, Next: itemPC})

	endPC := c.emit(bytecode.Instr{Op: endOp, ListIdx: listIdx, FixedSize: size, Next: unset})
	c.listDefs[listIdx].Return = endPC

	return bytecode.ArrayMapping{FieldName: f.Name, Children: []bytecode.ArrayMapping{childAM}}, nil
}

func (c *compiler) compileMap(f schema.Field, path string) (bytecode.ArrayMapping, error) {
	entries := f.Children[0]
	keyField, valueField := entries.Children[0], entries.Children[1]

	mapIdx := len(c.mapDefs)
	c.mapDefs = append(c.mapDefs, bytecode.MapDefinition{})

	offsetBuf := c.allocOffsets32()
	startOp := c.op(bytecode.OpMapStart, bytecode.OpEmitStartMap)
	endOp := c.op(bytecode.OpMapEnd, bytecode.OpEmitEndMap)
	startPC := c.emit(bytecode.Instr{Op: startOp, ListIdx: mapIdx, OffsetBuf: offsetBuf, Next: unset})
	c.mapDefs[mapIdx].Key = c.pc()

	keyAM, err := c.compileField(keyField, path+".key")
	if err != nil {
		return bytecode.ArrayMapping{}, err
	}
	// Key body falls through to the value body on its own (Next defaults to
	// pc+1); no redirect needed here, only the back-edge to startPC below.

	valueAM, err := c.compileField(valueField, path+".value")
	if err != nil {
		return bytecode.ArrayMapping{}, err
	}
	c.emit(bytecode.Instr{Op: bytecode.OpRedirect, Next: startPC})

	endPC := c.emit(bytecode.Instr{Op: endOp, ListIdx: mapIdx, OffsetBuf: offsetBuf, Next: unset})
	c.mapDefs[mapIdx].Return = endPC

	entriesAM := bytecode.ArrayMapping{FieldName: "entries", Children: []bytecode.ArrayMapping{keyAM, valueAM}}
	am := bytecode.ArrayMapping{FieldName: f.Name, Children: []bytecode.ArrayMapping{entriesAM}}
	am.Offset32Buf, am.HasOffset32 = offsetBuf, true
	return am, nil
}

// structMode selects which named-field discipline a Struct-typed field
// compiles against; all three share StructDefinition, differing only in
// which Op marks a field's entry instruction and how the interpreter
// dispatches into it (spec §4.1 Struct/MapAsStruct/TupleAsStruct).
type structMode int

const (
	structModeNamed structMode = iota
	structModeMapAsStruct
	structModeTuple
)

func (c *compiler) compileStructField(f schema.Field, path string) (bytecode.ArrayMapping, error) {
	switch f.Strategy {
	case schema.MapAsStruct:
		return c.compileStructBody(path, f.Children, structModeMapAsStruct)
	case schema.TupleAsStruct:
		return c.compileStructBody(path, f.Children, structModeTuple)
	default:
		return c.compileStructBody(path, f.Children, structModeNamed)
	}
}

// compileStructBody compiles fields (already carrying their own names,
// including stringified tuple positions) into a StructDefinition plus one
// ArrayMapping per field. It returns a Struct-shaped ArrayMapping whose
// Children are in declaration order.
func (c *compiler) compileStructBody(path string, fields []schema.Field, mode structMode) (bytecode.ArrayMapping, error) {
	structIdx := len(c.structDefs)
	c.structDefs = append(c.structDefs, bytecode.StructDefinition{Fields: map[string]bytecode.StructFieldDef{}})

	startOp := c.op(bytecode.OpStructStart, bytecode.OpEmitStartStruct)
	fieldOp := c.op(bytecode.OpStructField, bytecode.OpEmitStructField)
	endOp := c.op(bytecode.OpStructEnd, bytecode.OpEmitEndStruct)
	if mode == structModeTuple {
		startOp = c.op(bytecode.OpTupleStructStart, bytecode.OpEmitStartTupleStruct)
		fieldOp = c.op(bytecode.OpTupleStructItem, bytecode.OpEmitStructField)
		endOp = c.op(bytecode.OpTupleStructEnd, bytecode.OpEmitEndTupleStruct)
	} else if mode == structModeMapAsStruct {
		fieldOp = c.op(bytecode.OpStructItem, bytecode.OpEmitStructField)
	}

	startPC := c.emit(bytecode.Instr{Op: startOp, StructIdx: structIdx, Next: unset})
	c.structDefs[structIdx].Seen = c.allocSeen()

	childMappings := make([]bytecode.ArrayMapping, len(fields))
	for i, field := range fields {
		fieldPC := c.emit(bytecode.Instr{Op: fieldOp, StructIdx: structIdx, FieldIdx: i, FieldName: field.Name, Next: unset})
		am, err := c.compileField(field, path+"."+field.Name)
		if err != nil {
			return bytecode.ArrayMapping{}, err
		}
		childMappings[i] = am
		c.emit(bytecode.Instr{Op: bytecode.OpRedirect, Next: startPC})

		fd := bytecode.StructFieldDef{Index: i, Jump: fieldPC}
		if field.Nullable {
			var nd bytecode.NullDefinition
			am.CollectBufferIDs(&nd)
			nd.SortAll()
			fd.HasNullDef = true
			fd.NullDefinition = len(c.nullDefs)
			c.nullDefs = append(c.nullDefs, nd)
		}
		c.structDefs[structIdx].Fields[field.Name] = fd
		c.structDefs[structIdx].FieldOrder = append(c.structDefs[structIdx].FieldOrder, field.Name)
	}

	unknownPC := c.emit(bytecode.Instr{Op: bytecode.OpStructUnknownField, StructIdx: structIdx, Next: startPC})
	endPC := c.emit(bytecode.Instr{Op: endOp, StructIdx: structIdx, Next: unset})
	c.structDefs[structIdx].Return = endPC
	c.structDefs[structIdx].UnknownField = unknownPC

	return bytecode.ArrayMapping{Children: childMappings}, nil
}

func indexName(i int) string { return strconv.Itoa(i) }

func (c *compiler) compileUnion(f schema.Field, path string) (bytecode.ArrayMapping, error) {
	unionIdx := len(c.unionDefs)
	c.unionDefs = append(c.unionDefs, bytecode.UnionDefinition{})

	typeIdBuf := c.allocU8()
	variantOp := c.op(bytecode.OpVariant, bytecode.OpUnionDispatch)
	c.emit(bytecode.Instr{Op: variantOp, UnionIdx: unionIdx, TypeIdBuf: typeIdBuf, Next: unset})

	variantPCs := make([]int, len(f.Children))
	variantNames := make([]string, len(f.Children))
	endPCs := make([]int, 0, len(f.Children))
	childMappings := make([]bytecode.ArrayMapping, len(f.Children))
	for i, variant := range f.Children {
		variantPCs[i] = c.pc()
		variantNames[i] = variant.Name
		am, err := c.compileField(variant, path+"."+indexName(i))
		if err != nil {
			return bytecode.ArrayMapping{}, err
		}
		childMappings[i] = am
		endPCs = append(endPCs, c.emit(bytecode.Instr{Op: bytecode.OpUnionEnd, Next: unset}))
	}
	c.unionDefs[unionIdx].Variants = variantPCs
	c.unionDefs[unionIdx].Names = variantNames

	after := c.pc()
	for _, pc := range endPCs {
		c.instrs[pc].Next = after
	}

	am := bytecode.ArrayMapping{FieldName: f.Name, TypeIdBuf: typeIdBuf, HasTypeIdBuf: true, Children: childMappings}
	return am, nil
}
