// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package interp implements the two bytecode interpreters spec §4.4 and
// §4.5 describe: Serialize drains a row-event stream into column buffers
// by walking a compile.CompileSerialize Program, and Deserialize walks a
// compile.CompileDeserialize Program to replay column buffers back out as
// a row-event stream. Both share the single monomorphic dispatch loop
// style the bytecode package's doc comment calls for: one switch over Op,
// no per-op function pointers.
package interp

import (
	"math"

	"github.com/pkg/errors"

	"github.com/solidcoredata/arrowtrace/buffer"
	"github.com/solidcoredata/arrowtrace/bytecode"
	"github.com/solidcoredata/arrowtrace/chrono"
	"github.com/solidcoredata/arrowtrace/errs"
	"github.com/solidcoredata/arrowtrace/event"
)

// Serialize drains src into buffers by executing prog, which must have
// been produced by compile.CompileSerialize. buffers must be sized by
// buffer.New with the Counts compile.CompileSerialize returned.
func Serialize(prog *bytecode.Program, buffers *buffer.MutableBuffers, src event.Source) error {
	s := &serializer{prog: prog, buffers: buffers, src: src}
	return s.run()
}

type serializer struct {
	prog    *bytecode.Program
	buffers *buffer.MutableBuffers
	src     event.Source
	pending *event.Event
}

func (s *serializer) next() (event.Event, error) {
	if s.pending != nil {
		e := *s.pending
		s.pending = nil
		return e, nil
	}
	e, ok, err := s.src.Next()
	if err != nil {
		return event.Event{}, err
	}
	if !ok {
		return event.Event{}, errors.New("interp: event stream exhausted before ProgramEnd")
	}
	return e, nil
}

func (s *serializer) unread(e event.Event) { s.pending = &e }

func (s *serializer) run() error {
	pc := 0
	for {
		in := s.prog.Instructions[pc]
		switch in.Op {
		case bytecode.OpProgramEnd:
			return nil

		case bytecode.OpOuterSequenceStart:
			e, err := s.next()
			if err != nil {
				return err
			}
			if e.Kind != event.KindStartSequence {
				return errs.Serialization(pc, "expected StartSequence, got %s", e.Kind)
			}
			pc = in.Next

		case bytecode.OpOuterSequenceItem:
			e, err := s.next()
			if err != nil {
				return err
			}
			switch e.Kind {
			case event.KindItem:
				pc = in.Next
			case event.KindEndSequence:
				pc = s.prog.ListDefs[in.ListIdx].Return
			default:
				return errs.Serialization(pc, "expected Item or EndSequence, got %s", e.Kind)
			}

		case bytecode.OpOuterSequenceEnd:
			pc = in.Next

		case bytecode.OpListStart, bytecode.OpLargeListStart:
			e, err := s.next()
			if err != nil {
				return err
			}
			if e.Kind != event.KindStartSequence {
				return errs.Serialization(pc, "expected StartSequence, got %s", e.Kind)
			}
			pc = in.Next

		case bytecode.OpListItem:
			next, err := s.listItem(pc, in, &s.buffers.Offsets32[in.OffsetBuf])
			if err != nil {
				return err
			}
			pc = next

		case bytecode.OpLargeListItem:
			next, err := s.listItemLarge(pc, in, &s.buffers.Offsets64[in.OffsetBuf])
			if err != nil {
				return err
			}
			pc = next

		case bytecode.OpListEnd, bytecode.OpLargeListEnd:
			pc = in.Next

		case bytecode.OpFixedSizeListStart:
			e, err := s.next()
			if err != nil {
				return err
			}
			if e.Kind != event.KindStartSequence {
				return errs.Serialization(pc, "expected StartSequence, got %s", e.Kind)
			}
			pc = in.Next

		case bytecode.OpFixedSizeListItem:
			e, err := s.next()
			if err != nil {
				return err
			}
			switch e.Kind {
			case event.KindItem:
				pc = in.Next
			case event.KindEndSequence:
				pc = s.prog.ListDefs[in.ListIdx].Return
			default:
				return errs.Serialization(pc, "expected Item or EndSequence, got %s", e.Kind)
			}

		case bytecode.OpFixedSizeListEnd:
			pc = in.Next

		case bytecode.OpMapStart:
			// This dispatch point is revisited once per entry plus once more
			// at the end: the very first visit carries a leading StartMap
			// marker that no later visit repeats (map entries have no
			// per-pair marker of their own), so it is stripped here before
			// checking for EndMap vs. a key's first event.
			e, err := s.next()
			if err != nil {
				return err
			}
			if e.Kind == event.KindStartMap {
				e, err = s.next()
				if err != nil {
					return err
				}
			}
			if e.Kind == event.KindEndMap {
				pc = s.prog.MapDefs[in.ListIdx].Return
			} else {
				s.unread(e)
				pc = in.Next
			}

		case bytecode.OpMapEnd:
			pc = in.Next

		case bytecode.OpStructStart:
			next, err := s.structDispatch(pc, in, false)
			if err != nil {
				return err
			}
			pc = next

		case bytecode.OpTupleStructStart:
			next, err := s.structDispatch(pc, in, true)
			if err != nil {
				return err
			}
			pc = next

		case bytecode.OpStructField, bytecode.OpStructItem, bytecode.OpTupleStructItem:
			pc = in.Next

		case bytecode.OpStructUnknownField:
			pc = in.Next

		case bytecode.OpStructEnd, bytecode.OpTupleStructEnd:
			pc = in.Next

		case bytecode.OpOptionMarker:
			e, err := s.next()
			if err != nil {
				return err
			}
			switch e.Kind {
			case event.KindNull, event.KindDefault:
				s.buffers.U1[in.ValidityBuf].Push(false)
				s.applyNullDefaults(s.prog.NullDefs[in.NullDefinition])
				pc = in.IfNone
			case event.KindSome:
				s.buffers.U1[in.ValidityBuf].Push(true)
				pc = in.Next
			default:
				// Any other event is an implicit Some: push validity and
				// forward the event inline to the wrapped instruction
				// instead of requiring an explicit Some marker.
				s.buffers.U1[in.ValidityBuf].Push(true)
				s.unread(e)
				pc = in.Next
			}

		case bytecode.OpVariant:
			e, err := s.next()
			if err != nil {
				return err
			}
			if e.Kind != event.KindVariant {
				return errs.Serialization(pc, "expected Variant, got %s", e.Kind)
			}
			variants := s.prog.UnionDefs[in.UnionIdx].Variants
			if e.VariantIndex < 0 || e.VariantIndex >= len(variants) {
				return errs.Serialization(pc, "variant index %d out of range [0,%d)", e.VariantIndex, len(variants))
			}
			s.buffers.U8[in.TypeIdBuf].Push(uint8(e.VariantIndex))
			pc = variants[e.VariantIndex]

		case bytecode.OpPushNull:
			e, err := s.next()
			if err != nil {
				return err
			}
			if e.Kind != event.KindNull {
				return errs.Serialization(pc, "expected Null, got %s", e.Kind)
			}
			s.buffers.U0[in.ValueBuf].Push()
			pc = in.Next

		case bytecode.OpPushBool:
			e, err := s.next()
			if err != nil {
				return err
			}
			if e.Kind != event.KindBool {
				return errs.Serialization(pc, "expected Bool, got %s", e.Kind)
			}
			s.buffers.U1[in.ValueBuf].Push(e.Bool)
			pc = in.Next

		case bytecode.OpPushI8, bytecode.OpPushI16, bytecode.OpPushI32, bytecode.OpPushI64,
			bytecode.OpPushU8, bytecode.OpPushU16, bytecode.OpPushU32, bytecode.OpPushU64:
			if err := s.pushInteger(pc, in); err != nil {
				return err
			}
			pc = in.Next

		case bytecode.OpPushF16, bytecode.OpPushF32, bytecode.OpPushF64:
			if err := s.pushFloat(pc, in); err != nil {
				return err
			}
			pc = in.Next

		case bytecode.OpPushUtf8:
			if err := s.pushString(pc, in, &s.buffers.Offsets32[in.OffsetBuf]); err != nil {
				return err
			}
			pc = in.Next

		case bytecode.OpPushLargeUtf8:
			if err := s.pushStringLarge(pc, in, &s.buffers.Offsets64[in.OffsetBuf]); err != nil {
				return err
			}
			pc = in.Next

		case bytecode.OpPushDate64FromNaiveStr, bytecode.OpPushTimestampFromNaiveStr:
			if err := s.pushDateStr(pc, in, false); err != nil {
				return err
			}
			pc = in.Next

		case bytecode.OpPushDate64FromUtcStr, bytecode.OpPushTimestampFromUtcStr:
			if err := s.pushDateStr(pc, in, true); err != nil {
				return err
			}
			pc = in.Next

		case bytecode.OpPushDictionary:
			if err := s.pushDictionary(pc, in, &s.buffers.Offsets32[in.OffsetBuf]); err != nil {
				return err
			}
			pc = in.Next

		case bytecode.OpPushDictionaryLarge:
			if err := s.pushDictionaryLarge(pc, in, &s.buffers.Offsets64[in.OffsetBuf]); err != nil {
				return err
			}
			pc = in.Next

		default:
			return errs.Serialization(pc, "unexpected op %v in serialize program", in.Op)
		}
	}
}

func (s *serializer) listItem(pc int, in bytecode.Instr, off *buffer.OffsetBuffer[int32]) (int, error) {
	e, err := s.next()
	if err != nil {
		return 0, err
	}
	switch e.Kind {
	case event.KindItem:
		off.IncCurrent()
		return in.Next, nil
	case event.KindEndSequence:
		off.PushCurrent()
		return s.prog.ListDefs[in.ListIdx].Return, nil
	}
	return 0, errs.Serialization(pc, "expected Item or EndSequence, got %s", e.Kind)
}

func (s *serializer) listItemLarge(pc int, in bytecode.Instr, off *buffer.OffsetBuffer[int64]) (int, error) {
	e, err := s.next()
	if err != nil {
		return 0, err
	}
	switch e.Kind {
	case event.KindItem:
		off.IncCurrent()
		return in.Next, nil
	case event.KindEndSequence:
		off.PushCurrent()
		return s.prog.ListDefs[in.ListIdx].Return, nil
	}
	return 0, errs.Serialization(pc, "expected Item or EndSequence, got %s", e.Kind)
}

// structDispatch implements the shared Struct/TupleStruct entry point
// described in compile/field.go's dispatch contract: it clears the seen
// set on the opening bracket, routes by field name (or, for tuple mode, by
// positional count) on each field marker, finalizes missing fields on the
// closing bracket, and returns the next pc.
func (s *serializer) structDispatch(pc int, in bytecode.Instr, tuple bool) (int, error) {
	sd := &s.prog.StructDefs[in.StructIdx]
	for {
		e, err := s.next()
		if err != nil {
			return 0, err
		}
		switch e.Kind {
		case event.KindStartStruct, event.KindStartTuple:
			s.buffers.Seen[sd.Seen].Clear()
			continue
		case event.KindEndStruct, event.KindEndTuple:
			if err := s.finishStruct(pc, sd); err != nil {
				return 0, err
			}
			return sd.Return, nil
		case event.KindItem:
			if !tuple {
				return 0, errs.Serialization(pc, "unexpected Item in named struct")
			}
			idx := s.buffers.Seen[sd.Seen].Count()
			if idx >= len(sd.FieldOrder) {
				return 0, errs.Serialization(pc, "tuple struct has more items than declared fields")
			}
			fd := sd.Fields[sd.FieldOrder[idx]]
			s.buffers.Seen[sd.Seen].Set(fd.Index)
			return fd.Jump, nil
		case event.KindStr, event.KindOwnedStr:
			if tuple {
				return 0, errs.Serialization(pc, "unexpected field name in tuple struct")
			}
			fd, ok := sd.Fields[e.Str]
			if !ok {
				if err := s.skipValue(); err != nil {
					return 0, err
				}
				return sd.UnknownField, nil
			}
			s.buffers.Seen[sd.Seen].Set(fd.Index)
			return fd.Jump, nil
		default:
			return 0, errs.Serialization(pc, "unexpected event %s in struct dispatch", e.Kind)
		}
	}
}

// finishStruct applies null defaults for every declared field the event
// stream never touched, erroring if a required (non-nullable) field was
// skipped.
func (s *serializer) finishStruct(pc int, sd *bytecode.StructDefinition) error {
	for _, name := range sd.FieldOrder {
		fd := sd.Fields[name]
		if s.buffers.Seen[sd.Seen].Has(fd.Index) {
			continue
		}
		if !fd.HasNullDef {
			return errs.Serialization(pc, "missing required field %q", name)
		}
		s.applyNullDefaults(s.prog.NullDefs[fd.NullDefinition])
	}
	return nil
}

func (s *serializer) applyNullDefaults(nd bytecode.NullDefinition) {
	for _, id := range nd.U0 {
		s.buffers.U0[id].Push()
	}
	for _, id := range nd.U1 {
		s.buffers.U1[id].Push(false)
	}
	for _, id := range nd.U8 {
		s.buffers.U8[id].Push(0)
	}
	for _, id := range nd.U16 {
		s.buffers.U16[id].Push(0)
	}
	for _, id := range nd.U32 {
		s.buffers.U32[id].Push(0)
	}
	for _, id := range nd.U64 {
		s.buffers.U64[id].Push(0)
	}
	for _, id := range nd.Offsets32 {
		s.buffers.Offsets32[id].PushCurrent()
	}
	for _, id := range nd.Offsets64 {
		s.buffers.Offsets64[id].PushCurrent()
	}
	for _, id := range nd.Validity {
		s.buffers.U1[id].Push(false)
	}
}

// skipValue discards one complete value's events, used when a struct field
// name has no matching schema field. A bare Variant marker is treated as
// carrying no nested payload: distinguishing dataless from data-carrying
// variants generically, without schema knowledge of the skipped field,
// is not attempted.
func (s *serializer) skipValue() error {
	e, err := s.next()
	if err != nil {
		return err
	}
	switch e.Kind {
	case event.KindSome:
		return s.skipValue()
	case event.KindNull, event.KindDefault, event.KindVariant:
		return nil
	}
	if !e.IsStart() {
		return nil
	}
	depth := 1
	for depth > 0 {
		ne, err := s.next()
		if err != nil {
			return err
		}
		if ne.IsStart() {
			depth++
		} else if ne.IsEnd() {
			depth--
		}
	}
	return nil
}

func overflow(pc int, v int64, width bytecode.BufferWidth, signed bool) error {
	return errs.Serialization(pc, "value %d overflows %v (signed=%v)", v, width, signed)
}

func checkedRange(pc int, v int64, width bytecode.BufferWidth, signed bool) error {
	switch width {
	case bytecode.Width8:
		if signed {
			if v < math.MinInt8 || v > math.MaxInt8 {
				return overflow(pc, v, width, signed)
			}
		} else if v < 0 || v > math.MaxUint8 {
			return overflow(pc, v, width, signed)
		}
	case bytecode.Width16:
		if signed {
			if v < math.MinInt16 || v > math.MaxInt16 {
				return overflow(pc, v, width, signed)
			}
		} else if v < 0 || v > math.MaxUint16 {
			return overflow(pc, v, width, signed)
		}
	case bytecode.Width32:
		if signed {
			if v < math.MinInt32 || v > math.MaxInt32 {
				return overflow(pc, v, width, signed)
			}
		} else if v < 0 || v > math.MaxUint32 {
			return overflow(pc, v, width, signed)
		}
	case bytecode.Width64:
		if !signed && v < 0 {
			return overflow(pc, v, width, signed)
		}
	}
	return nil
}

func asInt64(e event.Event) (int64, bool) {
	switch e.Kind {
	case event.KindI8, event.KindI16, event.KindI32, event.KindI64:
		return e.I64, true
	case event.KindU8, event.KindU16, event.KindU32, event.KindU64:
		return int64(e.U64), true
	}
	return 0, false
}

func (s *serializer) pushInteger(pc int, in bytecode.Instr) error {
	e, err := s.next()
	if err != nil {
		return err
	}
	v, ok := asInt64(e)
	if !ok {
		return errs.Serialization(pc, "expected integer value, got %s", e.Kind)
	}
	if err := checkedRange(pc, v, in.Width, in.Signed); err != nil {
		return err
	}
	switch in.Width {
	case bytecode.Width8:
		s.buffers.U8[in.ValueBuf].Push(uint8(v))
	case bytecode.Width16:
		s.buffers.U16[in.ValueBuf].Push(uint16(v))
	case bytecode.Width32:
		s.buffers.U32[in.ValueBuf].Push(uint32(v))
	case bytecode.Width64:
		s.buffers.U64[in.ValueBuf].Push(uint64(v))
	}
	return nil
}

func (s *serializer) pushFloat(pc int, in bytecode.Instr) error {
	e, err := s.next()
	if err != nil {
		return err
	}
	var v float64
	switch e.Kind {
	case event.KindF32, event.KindF64:
		v = e.F64
	default:
		return errs.Serialization(pc, "expected float value, got %s", e.Kind)
	}
	switch in.Width {
	case bytecode.Width16:
		s.buffers.U16[in.ValueBuf].Push(float64ToFloat16Bits(v))
	case bytecode.Width32:
		s.buffers.U32[in.ValueBuf].Push(math.Float32bits(float32(v)))
	case bytecode.Width64:
		s.buffers.U64[in.ValueBuf].Push(math.Float64bits(v))
	}
	return nil
}

func (s *serializer) pushString(pc int, in bytecode.Instr, off *buffer.OffsetBuffer[int32]) error {
	e, err := s.next()
	if err != nil {
		return err
	}
	var str string
	switch e.Kind {
	case event.KindStr, event.KindOwnedStr:
		str = e.Str
	default:
		return errs.Serialization(pc, "expected string value, got %s", e.Kind)
	}
	b := []byte(str)
	s.buffers.Bytes[in.BytesBuf].Push(b)
	off.Add(int32(len(b)))
	off.PushCurrent()
	return nil
}

func (s *serializer) pushStringLarge(pc int, in bytecode.Instr, off *buffer.OffsetBuffer[int64]) error {
	e, err := s.next()
	if err != nil {
		return err
	}
	var str string
	switch e.Kind {
	case event.KindStr, event.KindOwnedStr:
		str = e.Str
	default:
		return errs.Serialization(pc, "expected string value, got %s", e.Kind)
	}
	b := []byte(str)
	s.buffers.Bytes[in.BytesBuf].Push(b)
	off.Add(int64(len(b)))
	off.PushCurrent()
	return nil
}

func (s *serializer) pushDateStr(pc int, in bytecode.Instr, utc bool) error {
	e, err := s.next()
	if err != nil {
		return err
	}
	var str string
	switch e.Kind {
	case event.KindStr, event.KindOwnedStr:
		str = e.Str
	default:
		return errs.Serialization(pc, "expected date string, got %s", e.Kind)
	}
	var millis int64
	if utc {
		dt, err := chrono.ParseUTCDateTime(str)
		if err != nil {
			return errs.Serialization(pc, "%v", err)
		}
		millis = dt.EpochMillis()
	} else {
		dt, err := chrono.ParseNaiveDateTime(str)
		if err != nil {
			return errs.Serialization(pc, "%v", err)
		}
		millis = dt.EpochMillis()
	}
	v := millis
	if in.TimeUnitDivisor != 0 {
		v = millis * 1_000_000 / in.TimeUnitDivisor
	}
	s.buffers.U64[in.ValueBuf].Push(uint64(v))
	return nil
}

func (s *serializer) pushDictionary(pc int, in bytecode.Instr, off *buffer.OffsetBuffer[int32]) error {
	str, ordinal, created, err := s.dictionaryLookup(pc, in)
	if err != nil {
		return err
	}
	if created {
		b := []byte(str)
		s.buffers.Bytes[in.BytesBuf].Push(b)
		off.Add(int32(len(b)))
		off.PushCurrent()
	}
	return s.pushDictKey(in, ordinal)
}

func (s *serializer) pushDictionaryLarge(pc int, in bytecode.Instr, off *buffer.OffsetBuffer[int64]) error {
	str, ordinal, created, err := s.dictionaryLookup(pc, in)
	if err != nil {
		return err
	}
	if created {
		b := []byte(str)
		s.buffers.Bytes[in.BytesBuf].Push(b)
		off.Add(int64(len(b)))
		off.PushCurrent()
	}
	return s.pushDictKey(in, ordinal)
}

func (s *serializer) dictionaryLookup(pc int, in bytecode.Instr) (string, uint64, bool, error) {
	e, err := s.next()
	if err != nil {
		return "", 0, false, err
	}
	var str string
	switch e.Kind {
	case event.KindStr, event.KindOwnedStr:
		str = e.Str
	default:
		return "", 0, false, errs.Serialization(pc, "expected dictionary string value, got %s", e.Kind)
	}
	ordinal, created := s.buffers.Dictionaries[in.DictIdx].Lookup(str)
	if err := checkedRange(pc, int64(ordinal), in.Width, in.Signed); err != nil {
		return "", 0, false, err
	}
	return str, ordinal, created, nil
}

func (s *serializer) pushDictKey(in bytecode.Instr, ordinal uint64) error {
	switch in.Width {
	case bytecode.Width8:
		s.buffers.U8[in.ValueBuf].Push(uint8(ordinal))
	case bytecode.Width16:
		s.buffers.U16[in.ValueBuf].Push(uint16(ordinal))
	case bytecode.Width32:
		s.buffers.U32[in.ValueBuf].Push(uint32(ordinal))
	case bytecode.Width64:
		s.buffers.U64[in.ValueBuf].Push(ordinal)
	}
	return nil
}

// float64ToFloat16Bits rounds v to IEEE-754 binary16, returned as its raw
// bit pattern (there being no native float16 Go type).
func float64ToFloat16Bits(v float64) uint16 {
	f32 := float32(v)
	bits32 := math.Float32bits(f32)
	sign := uint16((bits32 >> 16) & 0x8000)
	exp := int32((bits32>>23)&0xff) - 127 + 15
	mant := bits32 & 0x7fffff
	switch {
	case exp <= 0:
		return sign
	case exp >= 0x1f:
		return sign | 0x7c00
	default:
		return sign | uint16(exp)<<10 | uint16(mant>>13)
	}
}
