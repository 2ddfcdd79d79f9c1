// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package interp

import (
	"math"

	"github.com/solidcoredata/arrowtrace/buffer"
	"github.com/solidcoredata/arrowtrace/bytecode"
	"github.com/solidcoredata/arrowtrace/chrono"
	"github.com/solidcoredata/arrowtrace/errs"
	"github.com/solidcoredata/arrowtrace/event"
)

// Deserialize replays buffers as a row-event stream on sink by executing
// prog, which must have been produced by compile.CompileDeserialize. rows
// is the number of top-level rows to emit: the outer sequence carries no
// offset buffer of its own, so the caller supplies the count (typically
// the row length of whichever buffer backs the root struct's first
// field).
func Deserialize(prog *bytecode.Program, buffers *buffer.MutableBuffers, rows int, sink event.Sink) error {
	d := newDeserializer(prog, buffers, rows, sink)
	return d.run()
}

type deserializer struct {
	prog    *bytecode.Program
	buffers *buffer.MutableBuffers
	sink    event.Sink

	rows int
	row  int

	posU1        []int
	posU8        []int
	posU16       []int
	posU32       []int
	posU64       []int
	posOffsets32 []int
	posOffsets64 []int

	// listRemaining/mapRemaining/structFieldIdx hold the "how many elements
	// of the current composite instance are left" state the fused
	// start/dispatch instructions (OpEmitStartMap, OpEmitStartStruct,
	// OpEmitStartTupleStruct) need across repeated visits. A schema never
	// recurses through itself, so at most one instance per id is ever live
	// at a time; -1 marks "no instance currently in progress".
	listRemaining  []int
	mapRemaining   []int
	structFieldIdx []int
}

func newDeserializer(prog *bytecode.Program, buffers *buffer.MutableBuffers, rows int, sink event.Sink) *deserializer {
	d := &deserializer{
		prog:    prog,
		buffers: buffers,
		rows:    rows,
		sink:    sink,

		posU1:        make([]int, len(buffers.U1)),
		posU8:        make([]int, len(buffers.U8)),
		posU16:       make([]int, len(buffers.U16)),
		posU32:       make([]int, len(buffers.U32)),
		posU64:       make([]int, len(buffers.U64)),
		posOffsets32: make([]int, len(buffers.Offsets32)),
		posOffsets64: make([]int, len(buffers.Offsets64)),

		listRemaining:  make([]int, len(prog.ListDefs)),
		mapRemaining:   make([]int, len(prog.MapDefs)),
		structFieldIdx: make([]int, len(prog.StructDefs)),
	}
	for i := range d.mapRemaining {
		d.mapRemaining[i] = -1
	}
	for i := range d.structFieldIdx {
		d.structFieldIdx[i] = -1
	}
	return d
}

func (d *deserializer) emit(e event.Event) error { return d.sink.Accept(e) }

func (d *deserializer) nextU1(id int) bool {
	pos := d.posU1[id]
	d.posU1[id]++
	return d.buffers.U1[id].Get(pos)
}

func (d *deserializer) nextU8(id int) uint8 {
	pos := d.posU8[id]
	d.posU8[id]++
	return d.buffers.U8[id].Get(pos)
}

func (d *deserializer) nextU16(id int) uint16 {
	pos := d.posU16[id]
	d.posU16[id]++
	return d.buffers.U16[id].Get(pos)
}

func (d *deserializer) nextU32(id int) uint32 {
	pos := d.posU32[id]
	d.posU32[id]++
	return d.buffers.U32[id].Get(pos)
}

func (d *deserializer) nextU64(id int) uint64 {
	pos := d.posU64[id]
	d.posU64[id]++
	return d.buffers.U64[id].Get(pos)
}

func (d *deserializer) nextOffsetRange32(id int) (int32, int32) {
	pos := d.posOffsets32[id]
	d.posOffsets32[id]++
	offs := d.buffers.Offsets32[id].Offsets()
	return offs[pos], offs[pos+1]
}

func (d *deserializer) nextOffsetRange64(id int) (int64, int64) {
	pos := d.posOffsets64[id]
	d.posOffsets64[id]++
	offs := d.buffers.Offsets64[id].Offsets()
	return offs[pos], offs[pos+1]
}

// skipNullDefaults advances every position nd names by one slot without
// reading a value, mirroring what applyNullDefaults wrote on the
// serialize side for an absent/null field: one reserved slot per row in
// every buffer the field's descendants touch, content undefined.
func (d *deserializer) skipNullDefaults(nd bytecode.NullDefinition) {
	for _, id := range nd.U1 {
		d.posU1[id]++
	}
	for _, id := range nd.U8 {
		d.posU8[id]++
	}
	for _, id := range nd.U16 {
		d.posU16[id]++
	}
	for _, id := range nd.U32 {
		d.posU32[id]++
	}
	for _, id := range nd.U64 {
		d.posU64[id]++
	}
	for _, id := range nd.Offsets32 {
		d.posOffsets32[id]++
	}
	for _, id := range nd.Offsets64 {
		d.posOffsets64[id]++
	}
	for _, id := range nd.Validity {
		d.posU1[id]++
	}
}

func (d *deserializer) run() error {
	pc := 0
	for {
		in := d.prog.Instructions[pc]
		switch in.Op {
		case bytecode.OpProgramEnd:
			return nil

		case bytecode.OpOuterSequenceStart:
			if err := d.emit(event.StartSequence()); err != nil {
				return err
			}
			pc = in.Next

		case bytecode.OpEmitOuterItem:
			if d.row < d.rows {
				d.row++
				if err := d.emit(event.Item()); err != nil {
					return err
				}
				pc = in.Next
			} else {
				pc = d.prog.ListDefs[in.ListIdx].Return
			}

		case bytecode.OpEmitOuterEndSequence:
			if err := d.emit(event.EndSequence()); err != nil {
				return err
			}
			pc = in.Next

		case bytecode.OpEmitStartSequence:
			start, end := d.nextOffsetRange32(in.OffsetBuf)
			if err := d.emit(event.StartSequence()); err != nil {
				return err
			}
			d.listRemaining[in.ListIdx] = int(end - start)
			pc = in.Next

		case bytecode.OpEmitStartLargeSequence:
			start, end := d.nextOffsetRange64(in.OffsetBuf)
			if err := d.emit(event.StartSequence()); err != nil {
				return err
			}
			d.listRemaining[in.ListIdx] = int(end - start)
			pc = in.Next

		case bytecode.OpEmitStartFixedSizeList:
			if err := d.emit(event.StartSequence()); err != nil {
				return err
			}
			d.listRemaining[in.ListIdx] = in.FixedSize
			pc = in.Next

		case bytecode.OpEmitItemSequence, bytecode.OpEmitItemLargeSequence, bytecode.OpEmitItemFixedSizeList:
			if d.listRemaining[in.ListIdx] > 0 {
				d.listRemaining[in.ListIdx]--
				if err := d.emit(event.Item()); err != nil {
					return err
				}
				pc = in.Next
			} else {
				pc = d.prog.ListDefs[in.ListIdx].Return
			}

		case bytecode.OpEmitEndSequence, bytecode.OpEmitEndLargeSequence, bytecode.OpEmitEndFixedSizeList:
			if err := d.emit(event.EndSequence()); err != nil {
				return err
			}
			pc = in.Next

		case bytecode.OpEmitStartMap:
			idx := in.ListIdx
			if d.mapRemaining[idx] < 0 {
				start, end := d.nextOffsetRange32(in.OffsetBuf)
				if err := d.emit(event.StartMap()); err != nil {
					return err
				}
				d.mapRemaining[idx] = int(end - start)
			}
			if d.mapRemaining[idx] == 0 {
				if err := d.emit(event.EndMap()); err != nil {
					return err
				}
				d.mapRemaining[idx] = -1
				pc = d.prog.MapDefs[idx].Return
			} else {
				d.mapRemaining[idx]--
				pc = in.Next
			}

		case bytecode.OpEmitEndMap:
			pc = in.Next

		case bytecode.OpEmitStartStruct, bytecode.OpEmitStartTupleStruct:
			next, err := d.structDispatch(pc, in)
			if err != nil {
				return err
			}
			pc = next

		case bytecode.OpEmitStructField:
			pc = in.Next

		case bytecode.OpEmitEndStruct, bytecode.OpEmitEndTupleStruct:
			pc = in.Next

		case bytecode.OpEmitOptionPrimitive:
			if d.nextU1(in.ValidityBuf) {
				if err := d.emit(event.Some()); err != nil {
					return err
				}
				pc = in.Next
			} else {
				if err := d.emit(event.Null()); err != nil {
					return err
				}
				d.skipNullDefaults(d.prog.NullDefs[in.NullDefinition])
				pc = in.IfNone
			}

		case bytecode.OpUnionDispatch:
			idx := int(d.nextU8(in.TypeIdBuf))
			ud := d.prog.UnionDefs[in.UnionIdx]
			if idx < 0 || idx >= len(ud.Variants) {
				return errs.Deserialization(pc, "variant index %d out of range [0,%d)", idx, len(ud.Variants))
			}
			name := ""
			if idx < len(ud.Names) {
				name = ud.Names[idx]
			}
			if err := d.emit(event.Variant(name, idx)); err != nil {
				return err
			}
			pc = ud.Variants[idx]

		case bytecode.OpEmitNull:
			if err := d.emit(event.Null()); err != nil {
				return err
			}
			pc = in.Next

		case bytecode.OpEmitBool:
			v := d.nextU1(in.ValueBuf)
			if err := d.emit(event.Bool(v)); err != nil {
				return err
			}
			pc = in.Next

		case bytecode.OpEmitI8:
			v := int8(d.nextU8(in.ValueBuf))
			if err := d.emit(event.I8(v)); err != nil {
				return err
			}
			pc = in.Next
		case bytecode.OpEmitU8:
			v := d.nextU8(in.ValueBuf)
			if err := d.emit(event.U8(v)); err != nil {
				return err
			}
			pc = in.Next
		case bytecode.OpEmitI16:
			v := int16(d.nextU16(in.ValueBuf))
			if err := d.emit(event.I16(v)); err != nil {
				return err
			}
			pc = in.Next
		case bytecode.OpEmitU16:
			v := d.nextU16(in.ValueBuf)
			if err := d.emit(event.U16(v)); err != nil {
				return err
			}
			pc = in.Next
		case bytecode.OpEmitI32:
			v := int32(d.nextU32(in.ValueBuf))
			if err := d.emit(event.I32(v)); err != nil {
				return err
			}
			pc = in.Next
		case bytecode.OpEmitU32:
			v := d.nextU32(in.ValueBuf)
			if err := d.emit(event.U32(v)); err != nil {
				return err
			}
			pc = in.Next
		case bytecode.OpEmitI64:
			v := int64(d.nextU64(in.ValueBuf))
			if err := d.emit(event.I64(v)); err != nil {
				return err
			}
			pc = in.Next
		case bytecode.OpEmitU64:
			v := d.nextU64(in.ValueBuf)
			if err := d.emit(event.U64(v)); err != nil {
				return err
			}
			pc = in.Next

		case bytecode.OpEmitF16:
			v := float16BitsToFloat32(d.nextU16(in.ValueBuf))
			if err := d.emit(event.F32(v)); err != nil {
				return err
			}
			pc = in.Next
		case bytecode.OpEmitF32:
			v := math.Float32frombits(d.nextU32(in.ValueBuf))
			if err := d.emit(event.F32(v)); err != nil {
				return err
			}
			pc = in.Next
		case bytecode.OpEmitF64:
			v := math.Float64frombits(d.nextU64(in.ValueBuf))
			if err := d.emit(event.F64(v)); err != nil {
				return err
			}
			pc = in.Next

		case bytecode.OpEmitStr32:
			start, end := d.nextOffsetRange32(in.OffsetBuf)
			b := d.buffers.Bytes[in.BytesBuf].Bytes()[start:end]
			if err := d.emit(event.OwnedStr(string(b))); err != nil {
				return err
			}
			pc = in.Next

		case bytecode.OpEmitStr64:
			start, end := d.nextOffsetRange64(in.OffsetBuf)
			b := d.buffers.Bytes[in.BytesBuf].Bytes()[start:end]
			if err := d.emit(event.OwnedStr(string(b))); err != nil {
				return err
			}
			pc = in.Next

		case bytecode.OpEmitDate64NaiveStr:
			str := d.formatDate(in, false)
			if err := d.emit(event.OwnedStr(str)); err != nil {
				return err
			}
			pc = in.Next

		case bytecode.OpEmitDate64UtcStr:
			str := d.formatDate(in, true)
			if err := d.emit(event.OwnedStr(str)); err != nil {
				return err
			}
			pc = in.Next

		case bytecode.OpEmitDictionaryStr:
			ordinal := d.readDictKey(in)
			offs := d.buffers.Offsets32[in.OffsetBuf].Offsets()
			b := d.buffers.Bytes[in.BytesBuf].Bytes()[offs[ordinal]:offs[ordinal+1]]
			if err := d.emit(event.OwnedStr(string(b))); err != nil {
				return err
			}
			pc = in.Next

		case bytecode.OpEmitDictionaryStrLarge:
			ordinal := d.readDictKey(in)
			offs := d.buffers.Offsets64[in.OffsetBuf].Offsets()
			b := d.buffers.Bytes[in.BytesBuf].Bytes()[offs[ordinal]:offs[ordinal+1]]
			if err := d.emit(event.OwnedStr(string(b))); err != nil {
				return err
			}
			pc = in.Next

		case bytecode.OpEmitConstantString:
			if err := d.emit(event.OwnedStr(in.Constant)); err != nil {
				return err
			}
			pc = in.Next

		default:
			return errs.Deserialization(pc, "unexpected op %v in deserialize program", in.Op)
		}
	}
}

// structDispatch is the deserialize mirror of the serializer's struct
// entry point: on first visit it emits the opening bracket, then on every
// visit either emits the next field's marker (Str(name) for Struct/
// MapAsStruct, Item() for TupleAsStruct) and jumps into its body, or, once
// every field has been visited, emits the closing bracket and returns to
// the struct's Return pc.
func (d *deserializer) structDispatch(pc int, in bytecode.Instr) (int, error) {
	sd := &d.prog.StructDefs[in.StructIdx]
	tuple := in.Op == bytecode.OpEmitStartTupleStruct

	idx := d.structFieldIdx[in.StructIdx]
	if idx < 0 {
		var err error
		if tuple {
			err = d.emit(event.StartTuple())
		} else {
			err = d.emit(event.StartStruct())
		}
		if err != nil {
			return 0, err
		}
		idx = 0
	}

	if idx >= len(sd.FieldOrder) {
		var err error
		if tuple {
			err = d.emit(event.EndTuple())
		} else {
			err = d.emit(event.EndStruct())
		}
		if err != nil {
			return 0, err
		}
		d.structFieldIdx[in.StructIdx] = -1
		return sd.Return, nil
	}

	name := sd.FieldOrder[idx]
	fd := sd.Fields[name]
	var err error
	if tuple {
		err = d.emit(event.Item())
	} else {
		err = d.emit(event.Str(name))
	}
	if err != nil {
		return 0, err
	}
	d.structFieldIdx[in.StructIdx] = idx + 1
	return fd.Jump, nil
}

func (d *deserializer) readDictKey(in bytecode.Instr) uint64 {
	switch in.Width {
	case bytecode.Width8:
		return uint64(d.nextU8(in.ValueBuf))
	case bytecode.Width16:
		return uint64(d.nextU16(in.ValueBuf))
	case bytecode.Width32:
		return uint64(d.nextU32(in.ValueBuf))
	default:
		return d.nextU64(in.ValueBuf)
	}
}

// formatDate reverses the millisecond rescaling compileDate64/
// compileTimestamp applied, then renders the result as a naive or UTC
// textual datetime.
func (d *deserializer) formatDate(in bytecode.Instr, utc bool) string {
	raw := int64(d.nextU64(in.ValueBuf))
	millis := raw
	if in.TimeUnitDivisor != 0 {
		millis = raw * in.TimeUnitDivisor / 1_000_000
	}
	if utc {
		return chrono.FormatUTCMillis(millis)
	}
	return chrono.FormatNaiveMillis(millis)
}

// float16BitsToFloat32 is the inverse of float64ToFloat16Bits, widening a
// stored IEEE-754 binary16 bit pattern back to float32.
func float16BitsToFloat32(bits uint16) float32 {
	sign := uint32(bits&0x8000) << 16
	exp := uint32(bits>>10) & 0x1f
	mant := uint32(bits & 0x3ff)

	var bits32 uint32
	switch {
	case exp == 0:
		if mant == 0 {
			bits32 = sign
		} else {
			// subnormal binary16: normalize into binary32
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
